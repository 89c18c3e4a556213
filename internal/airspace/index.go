package airspace

import (
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/wispayr/radar-core/internal/geo"
)

// Index is the read-only, immutable-after-load polygon corpus described in
// spec.md §4.1. It is safe for concurrent reads; Reload swaps the backing
// slice atomically so in-flight classify/zones_within calls never observe a
// half-built corpus.
type Index struct {
	mu sync.RWMutex

	byID   map[string]*Zone
	byType map[TypeCode][]*Zone
	all    []*Zone
}

// New builds an Index over zones (already parsed and repaired).
func New(zones []*Zone) *Index {
	idx := &Index{}
	idx.byID, idx.byType, idx.all = indexZones(zones)
	return idx
}

func indexZones(zones []*Zone) (map[string]*Zone, map[TypeCode][]*Zone, []*Zone) {
	byID := make(map[string]*Zone, len(zones))
	byType := make(map[TypeCode][]*Zone)
	for _, z := range zones {
		byID[z.ID] = z
		byType[z.Type] = append(byType[z.Type], z)
	}
	return byID, byType, zones
}

// Load parses dir and returns a ready Index.
func Load(dir string) (*Index, error) {
	zones, err := ParseDir(dir)
	if err != nil {
		return nil, err
	}
	return New(zones), nil
}

// Reload re-parses dir and atomically swaps the backing corpus. A parse
// failure leaves the existing corpus untouched and returns the error.
func (idx *Index) Reload(dir string) error {
	zones, err := ParseDir(dir)
	if err != nil {
		return err
	}
	byID, byType, all := indexZones(zones)

	idx.mu.Lock()
	idx.byID, idx.byType, idx.all = byID, byType, all
	idx.mu.Unlock()
	return nil
}

// Classify returns zones containing (lat, lon), priority-tier first: a point
// inside a CTR never also surfaces a same-call "also in uncontrolled
// airspace" result — lower tiers are only consulted when no higher tier
// matched, per spec.md §4.1.
func (idx *Index) Classify(lat, lon float64) []*Zone {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pt := orb.Point{lon, lat}

	for _, t := range priorityOrder {
		var hits []*Zone
		for _, z := range idx.byType[t] {
			if containsSafe(z, pt) {
				hits = append(hits, z)
			}
		}
		if len(hits) > 0 {
			return hits
		}
	}

	// Fallback tier: everything not in the priority list, in declaration
	// order.
	priority := make(map[TypeCode]bool, len(priorityOrder))
	for _, t := range priorityOrder {
		priority[t] = true
	}
	var fallback []*Zone
	for _, z := range idx.all {
		if priority[z.Type] {
			continue
		}
		if containsSafe(z, pt) {
			fallback = append(fallback, z)
		}
	}
	sort.Slice(fallback, func(i, j int) bool {
		return fallback[i].declaredIndex < fallback[j].declaredIndex
	})
	return fallback
}

// containsSafe isolates a single zone's point-in-polygon test behind a
// recover, so a malformed ring in one zone never prevents testing others
// (spec.md §4.1 "Failure semantics").
func containsSafe(z *Zone, pt orb.Point) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return planar.RingContains(z.Polygon, pt)
}

// ZonesWithin returns zones whose polygon boundary lies within the circular
// region of radius radiusNM around (lat, lon). Distance uses the coarse
// "1 degree ~= 60nm" approximation named in spec.md §4.1 — acceptable
// because the radius is a coarse filter, not a containment test.
func (idx *Index) ZonesWithin(lat, lon, radiusNM float64) []*Zone {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	center := orb.Point{lon, lat}
	radiusDeg := geo.NMToDegrees(radiusNM)

	var hits []*Zone
	for _, z := range idx.all {
		if ringWithinDeg(z.Polygon, center, radiusDeg) {
			hits = append(hits, z)
		}
	}
	return hits
}

// ringWithinDeg reports whether any vertex of ring lies within radiusDeg
// (in decimal degrees) of center — "a zone partially outside the circle is
// included" per spec.
func ringWithinDeg(ring orb.Ring, center orb.Point, radiusDeg float64) bool {
	for i, p := range ring {
		d := planar.Distance(p, center)
		if d <= radiusDeg {
			return true
		}
		if i > 0 {
			// also check nearest point on the edge to catch a boundary that
			// passes through the circle between two far vertices
			segDist := planar.DistanceFromSegment(ring[i-1], p, center)
			if segDist <= radiusDeg {
				return true
			}
		}
	}
	return false
}

// ExportView builds the zones + summary-by-type payload used by the
// visualization endpoint (spec.md §4.1 export_view).
type ExportView struct {
	Zones         []ZoneView     `json:"zones"`
	SummaryByType map[string]int `json:"summary_by_type"`
}

func (idx *Index) ExportView(lat, lon, radiusNM float64) ExportView {
	zones := idx.ZonesWithin(lat, lon, radiusNM)
	view := ExportView{
		Zones:         make([]ZoneView, 0, len(zones)),
		SummaryByType: make(map[string]int),
	}
	for _, z := range zones {
		view.Zones = append(view.Zones, z.view())
		view.SummaryByType[string(z.Type)]++
	}
	return view
}

// Identify returns a human-readable description of the zones containing a
// point, for /api/airspace/identify.
func (idx *Index) Identify(lat, lon float64, altitudeFt *float64) (zones []*Zone, description string) {
	zones = idx.Classify(lat, lon)
	if len(zones) == 0 {
		return nil, "Uncontrolled airspace (Class G) or outside loaded corpus"
	}
	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = fmt.Sprintf("%s (%s)", z.Name, z.Type)
	}
	desc := fmt.Sprintf("Within: %v", names)
	return zones, desc
}

// Zone looks up a single zone by ID, used by tests and debug endpoints.
func (idx *Index) Zone(id string) (*Zone, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	z, ok := idx.byID[id]
	return z, ok
}

// Len reports how many zones are loaded.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.all)
}
