package ais

import (
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestMergeNeverClearsKnownField(t *testing.T) {
	m := NewVesselMap()
	base := time.Unix(0, 0)
	m.Merge(123, Vessel{Lat: f(1), Lon: f(2), Name: "SS Test"}, base)
	m.Merge(123, Vessel{Lat: f(1.1)}, base.Add(time.Second)) // no Name in this update

	snap := m.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 vessel, got %d", len(snap))
	}
	v := snap[0]
	if v.Name != "SS Test" {
		t.Fatalf("expected Name to survive partial merge, got %q", v.Name)
	}
	if *v.Lat != 1.1 {
		t.Fatalf("expected updated Lat, got %v", *v.Lat)
	}
}

func TestStalenessEviction(t *testing.T) {
	// spec.md §8 scenario 4: insert at t=0, TTL=600, at t=601 janitor removes it.
	m := NewVesselMap()
	t0 := time.Unix(0, 0)
	m.Merge(1, Vessel{Lat: f(1), Lon: f(1)}, t0)

	removed := m.EvictStale(t0.Add(601*time.Second), 600*time.Second)
	if removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty map after eviction, got %d", m.Len())
	}
}

func TestInRangeSortedByDistance(t *testing.T) {
	m := NewVesselMap()
	now := time.Now()
	m.Merge(1, Vessel{Lat: f(55.0), Lon: f(-4.0)}, now)
	m.Merge(2, Vessel{Lat: f(55.5), Lon: f(-4.0)}, now)
	m.Merge(3, Vessel{Lat: f(56.0), Lon: f(-4.0)}, now)

	hits := m.InRange(55.0, -4.0, 200)
	if len(hits) != 3 {
		t.Fatalf("expected 3 vessels in range, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].DistanceNM < hits[i-1].DistanceNM {
			t.Fatalf("results not sorted ascending by distance: %+v", hits)
		}
	}
}

func TestBackoffCapsAt60s(t *testing.T) {
	if got := backoff(10); got != 60*time.Second {
		t.Fatalf("expected cap at 60s, got %v", got)
	}
	if got := backoff(1); got != 2*time.Second {
		t.Fatalf("expected 2s at attempt 1, got %v", got)
	}
}
