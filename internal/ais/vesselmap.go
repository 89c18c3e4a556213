package ais

import (
	"sort"
	"sync"
	"time"

	"github.com/wispayr/radar-core/internal/geo"
)

// VesselMap is the concurrent, single-writer (Consumer) / many-reader
// per-vessel state table of spec.md §4.6 and §5. Readers get a
// copy-on-read snapshot so a mid-merge vessel is never observed with
// internally inconsistent fields (§5's ordering-guarantees note).
type VesselMap struct {
	mu      sync.RWMutex
	vessels map[int64]*Vessel
}

func NewVesselMap() *VesselMap {
	return &VesselMap{vessels: make(map[int64]*Vessel)}
}

// Merge applies an incoming partial update for mmsi, creating the vessel if
// unseen.
func (m *VesselMap) Merge(mmsi int64, in Vessel, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vessels[mmsi]
	if !ok {
		v = &Vessel{MMSI: mmsi}
		m.vessels[mmsi] = v
	}
	v.merge(in, now)
}

// Snapshot returns a point-in-time copy of every tracked vessel.
func (m *VesselMap) Snapshot() []Vessel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Vessel, 0, len(m.vessels))
	for _, v := range m.vessels {
		out = append(out, *v)
	}
	return out
}

// EvictStale deletes vessels whose LastUpdate exceeds ttl, returning how
// many were removed. Intended to be called at least every minute by a
// janitor goroutine (spec.md §4.6).
func (m *VesselMap) EvictStale(now time.Time, ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for mmsi, v := range m.vessels {
		if now.Sub(v.LastUpdate) > ttl {
			delete(m.vessels, mmsi)
			removed++
		}
	}
	return removed
}

// Len reports how many vessels are currently tracked.
func (m *VesselMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vessels)
}

// VesselDistance pairs a vessel with its distance from a query center.
type VesselDistance struct {
	Vessel     Vessel
	DistanceNM float64
	BearingDeg float64
}

// InRange returns vessels within radiusNM of (lat, lon), sorted by
// ascending great-circle distance (spec.md §4.6).
func (m *VesselMap) InRange(lat, lon, radiusNM float64) []VesselDistance {
	snap := m.Snapshot()
	var out []VesselDistance
	for _, v := range snap {
		if v.Lat == nil || v.Lon == nil {
			continue
		}
		d := geo.HaversineNM(lat, lon, *v.Lat, *v.Lon)
		if d <= radiusNM {
			out = append(out, VesselDistance{
				Vessel:     v,
				DistanceNM: d,
				BearingDeg: geo.BearingDeg(lat, lon, *v.Lat, *v.Lon),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceNM < out[j].DistanceNM })
	return out
}
