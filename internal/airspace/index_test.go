package airspace

import (
	"testing"

	"github.com/paulmach/orb"
)

func square(minLon, minLat, maxLon, maxLat float64) orb.Ring {
	return orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}
}

func TestClassifyContainment(t *testing.T) {
	// spec.md §8 scenario 3: CTR polygon (-5,55)-(-4,55)-(-4,56)-(-5,56).
	ctr := &Zone{ID: "EGPF_CTR", Name: "EGPF CTR", Type: TypeCTR, Polygon: square(-5, 55, -4, 56)}
	idx := New([]*Zone{ctr})

	got := idx.Classify(55.5, -4.5)
	if len(got) != 1 || got[0].ID != "EGPF_CTR" {
		t.Fatalf("expected containment in EGPF_CTR, got %+v", got)
	}

	outside := idx.Classify(60, 0)
	if len(outside) != 0 {
		t.Fatalf("expected no zones outside corpus, got %+v", outside)
	}
}

func TestClassifyPriorityTiering(t *testing.T) {
	ctr := &Zone{ID: "CTR1", Type: TypeCTR, Polygon: square(-1, -1, 1, 1)}
	danger := &Zone{ID: "DA1", Type: TypeDangerArea, Polygon: square(-1, -1, 1, 1)}
	idx := New([]*Zone{danger, ctr})

	got := idx.Classify(0, 0)
	if len(got) != 1 || got[0].Type != TypeCTR {
		t.Fatalf("expected CTR-only result inside overlapping CTR+DangerArea, got %+v", got)
	}
}

func TestClassifyFallbackTier(t *testing.T) {
	danger := &Zone{ID: "DA1", Type: TypeDangerArea, Polygon: square(-1, -1, 1, 1), declaredIndex: 0}
	idx := New([]*Zone{danger})

	got := idx.Classify(0, 0)
	if len(got) != 1 || got[0].ID != "DA1" {
		t.Fatalf("expected fallback-tier match, got %+v", got)
	}
}

func TestDegenerateRingRejected(t *testing.T) {
	// Three colinear points must be rejected.
	colinear := []orb.Point{{0, 0}, {1, 1}, {2, 2}}
	if r := repairRing(colinear); r != nil {
		t.Fatalf("expected colinear ring to be rejected, got %v", r)
	}

	valid := []orb.Point{{0, 0}, {1, 0}, {0, 1}}
	if r := repairRing(valid); r == nil {
		t.Fatalf("expected non-colinear triangle to be accepted")
	}
}

func TestZonesWithinIncludesPartiallyOutside(t *testing.T) {
	z := &Zone{ID: "Z1", Type: TypeOther, Polygon: square(10, 10, 12, 12)}
	idx := New([]*Zone{z})

	hits := idx.ZonesWithin(10, 10, 5) // center on a vertex, small radius
	if len(hits) != 1 {
		t.Fatalf("expected zone touching the search circle to be included, got %d", len(hits))
	}
}
