// Package airspace implements C1: a read-only polygon index over the
// loaded corpus of control zones, TMAs, ATZs, danger areas and similar
// volumes, answering point-in-zone and zones-within-radius queries.
//
// Grounded on original_source/airspace_parser.py's UKAirspaceParser, carried
// over into Go with github.com/paulmach/orb for the polygon math instead of
// shapely.
package airspace

import "github.com/paulmach/orb"

// TypeCode enumerates the airspace volume classes named in spec.md §3.
type TypeCode string

const (
	TypeCTR        TypeCode = "CTR"
	TypeCTA        TypeCode = "CTA"
	TypeTMA        TypeCode = "TMA"
	TypeATZ        TypeCode = "ATZ"
	TypeMATZ       TypeCode = "MATZ"
	TypeDangerArea TypeCode = "DangerArea"
	TypeFIR        TypeCode = "FIR"
	TypeLARS       TypeCode = "LARS"
	TypeAARA       TypeCode = "AARA"
	TypeAIAA       TypeCode = "AIAA"
	TypeMTA        TypeCode = "MTA"
	TypeATA        TypeCode = "ATA"
	TypeATSDA      TypeCode = "ATSDA"
	TypeAirway     TypeCode = "Airway"
	TypeOther      TypeCode = "Other"
)

// priorityOrder mirrors the parser's "priority_types" check: CTR first, then
// CTA/TMA together, then TMA alone, then ATZ, MATZ, and everything else in
// declaration order as a fallback tier.
var priorityOrder = []TypeCode{TypeCTR, TypeCTA, TypeTMA, TypeATZ, TypeMATZ}

// Zone is an immutable, already-repaired airspace volume.
type Zone struct {
	ID            string
	Name          string
	Type          TypeCode
	Polygon       orb.Ring // (lon, lat) vertices, closed ring, repaired
	AltitudeMin   string
	AltitudeMax   string
	Description   string
	sourceFile    string
	declaredIndex int // position in load order, used for fallback-tier ordering
}

// ZoneView is the externally-facing read-only projection of Zone used by
// export_view and the HTTP layer.
type ZoneView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        TypeCode `json:"type"`
	AltitudeMin string   `json:"altitude_min"`
	AltitudeMax string   `json:"altitude_max"`
	Description string   `json:"description"`
	Vertices    [][2]float64 `json:"vertices"` // [lon, lat] pairs, for visualization
}

func (z *Zone) view() ZoneView {
	verts := make([][2]float64, len(z.Polygon))
	for i, p := range z.Polygon {
		verts[i] = [2]float64{p[0], p[1]}
	}
	return ZoneView{
		ID:          z.ID,
		Name:        z.Name,
		Type:        z.Type,
		AltitudeMin: z.AltitudeMin,
		AltitudeMax: z.AltitudeMax,
		Description: z.Description,
		Vertices:    verts,
	}
}
