package airspace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// typeMappings mirrors UKAirspaceParser.TYPE_MAPPINGS: a numeric $TYPE
// directive maps to one of our TypeCode values.
var typeMappings = map[int]TypeCode{
	8:  TypeATZ,
	9:  TypeCTA, // "CTA/TMA" in the original — treated as CTA priority-wise
	10: TypeCTR,
	11: TypeDangerArea,
	12: TypeFIR,
	17: TypeLARS,
	18: TypeMATZ,
	20: TypeAARA,
	21: TypeAIAA,
	22: TypeMTA,
	23: TypeATA,
	24: TypeATSDA,
}

var (
	typeDirectiveRe = regexp.MustCompile(`\$TYPE=(\d+)`)
	nameDirectiveRe = regexp.MustCompile(`\{([^}]+)\}`)
	coordLineRe     = regexp.MustCompile(`^(-?\d+\.\d+)\+(-?\d+\.\d+)$`)
)

const ringEndMarker = "-1"

// ParseDir loads every descriptor file in dir and returns the zones parsed
// from it. Malformed files are logged and skipped; parsing never aborts.
func ParseDir(dir string) ([]*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read airspace dir %q: %w", dir, err)
	}

	var zones []*Zone
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		fileZones, err := parseFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("airspace: skipping unparsable file")
			continue
		}
		zones = append(zones, fileZones...)
	}
	for i, z := range zones {
		z.declaredIndex = i
	}
	return zones, nil
}

func parseFile(path string) ([]*Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	filename := filepath.Base(path)
	var (
		typeCode int
		name     string
		rings    [][]orb.Point
		current  []orb.Point
	)

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// Comment / directive / header lines are ignored, per spec §4.1.
		if strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "$") {
			if m := typeDirectiveRe.FindStringSubmatch(line); m != nil {
				typeCode, _ = strconv.Atoi(m[1])
			}
			continue
		}
		if strings.HasPrefix(line, "{") {
			if m := nameDirectiveRe.FindStringSubmatch(line); m != nil {
				name = m[1]
			}
			continue
		}
		if line == ringEndMarker {
			if ring, ok := validateRing(current); ok {
				rings = append(rings, ring)
			} else if len(current) > 0 {
				log.Warn().Str("file", filename).Int("points", len(current)).
					Msg("airspace: dropping invalid ring")
			}
			current = nil
			continue
		}
		if m := coordLineRe.FindStringSubmatch(line); m != nil {
			lat, errLat := strconv.ParseFloat(m[1], 64)
			lon, errLon := strconv.ParseFloat(m[2], 64)
			if errLat != nil || errLon != nil {
				continue
			}
			current = append(current, orb.Point{lon, lat}) // store (lon, lat)
		}
	}
	if ring, ok := validateRing(current); ok {
		rings = append(rings, ring)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %q: %w", path, err)
	}

	if name == "" {
		name = deriveNameFromFilename(filename)
	}
	tcode, ok := typeMappings[typeCode]
	if !ok {
		tcode = TypeOther
	}

	zones := make([]*Zone, 0, len(rings))
	for i, ring := range rings {
		repaired := repairRing(ring)
		if len(repaired) < 3 {
			log.Warn().Str("file", filename).Msg("airspace: ring unrepairable, skipping")
			continue
		}
		id := name
		if len(rings) > 1 {
			id = fmt.Sprintf("%s_%d", name, i+1)
		}
		zones = append(zones, &Zone{
			ID:          id,
			Name:        id,
			Type:        tcode,
			Polygon:     orb.Ring(repaired),
			AltitudeMin: "SFC",
			AltitudeMax: "UNL",
			Description: describeZone(filename, tcode),
			sourceFile:  filename,
		})
	}
	return zones, nil
}

// validateRing enforces the "ring-end marker flushes a ring of >= 3 vertices"
// contract; shorter rings are rejected here (3 colinear points are rejected
// later, in repairRing, once we can test for colinearity).
func validateRing(pts []orb.Point) ([]orb.Point, bool) {
	if len(pts) < 3 {
		return nil, false
	}
	return pts, true
}

// repairRing closes the ring and drops a polygon that collapses to a line
// (e.g. exactly 3 colinear points). Self-intersecting rings are neither
// detected nor repaired: they are indexed as given.
func repairRing(pts []orb.Point) []orb.Point {
	if len(pts) < 3 {
		return nil
	}
	if isDegenerate(pts) {
		return nil
	}
	ring := make(orb.Ring, len(pts))
	copy(ring, pts)
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// isDegenerate reports whether the polygon's shoelace area is exactly zero,
// i.e. all points are colinear — the "3 colinear points rejected" boundary
// case, generalized to N points. Nearly colinear rings have a nonzero area
// and are kept.
func isDegenerate(pts []orb.Point) bool {
	if len(pts) < 3 {
		return true
	}
	area := 0.0
	for i := 0; i < len(pts); i++ {
		j := (i + 1) % len(pts)
		area += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return area == 0
}

func deriveNameFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.TrimPrefix(name, "UK_")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.Title(strings.ToLower(name))
}

var zoneDescriptions = map[TypeCode]string{
	TypeCTR:        "Control Zone - controlled airspace around an airport",
	TypeCTA:        "Control Area - controlled airspace en-route",
	TypeTMA:        "Terminal Control Area - controlled airspace around major airports",
	TypeATZ:        "Aerodrome Traffic Zone - airspace around smaller airports",
	TypeMATZ:       "Military Aerodrome Traffic Zone",
	TypeDangerArea: "Danger Area - hazardous activities",
	TypeAIAA:       "Area of Intense Aerial Activity",
	TypeAARA:       "Air-to-Air Refuelling Area",
	TypeMTA:        "Military Training Area",
	TypeATA:        "Aerial Tactics Area",
	TypeLARS:       "Lower Airspace Radar Service",
	TypeFIR:        "Flight Information Region",
}

func describeZone(filename string, t TypeCode) string {
	if d, ok := zoneDescriptions[t]; ok {
		return d
	}
	return fmt.Sprintf("%s airspace", t)
}
