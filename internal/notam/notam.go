// Package notam implements half of C7: a fetch-on-miss, TTL-cached feed of
// Notices to Airmen, classified by the same keyword mechanism as the SSR
// catalog and filtered to a caller-supplied center/radius. Grounded on
// original_source/airspace_server.py's fetch_live_notams/parse_notam_content.
package notam

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/wispayr/radar-core/internal/geo"
)

// Category and Priority mirror the SSR classifier's vocabulary shape but are
// distinct types — a NOTAM and a squawk code are never interchangeable.
type Category string

const (
	CategoryAirspace Category = "AIRSPACE"
	CategoryHazard   Category = "HAZARD"
	CategorySecurity Category = "SECURITY"
	CategoryAirport  Category = "AIRPORT"
	CategoryNavaid   Category = "NAVAID"
	CategoryOther    Category = "OTHER"
)

type Priority string

const (
	PriorityNormal   Priority = "NORMAL"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Notam is a single classified notice.
type Notam struct {
	ID             string
	Type           string
	Location       string
	Lat, Lon       float64
	HasCoordinates bool
	EffectiveFrom  time.Time
	EffectiveTo    time.Time
	AltitudeFromFt int
	AltitudeToFt   int
	Description    string
	Category       Category
	Priority       Priority
	DistanceNM     float64
}

// keywordTypes mirrors parse_notam_content's if/elif chain; order matters,
// first match wins.
var keywordTypes = []struct {
	keywords []string
	typ      string
	category Category
	priority Priority
}{
	{[]string{"DANGER AREA"}, "DANGER_AREA", CategoryAirspace, PriorityHigh},
	{[]string{"RESTRICTED AREA"}, "RESTRICTED_AREA", CategoryAirspace, PriorityHigh},
	{[]string{"FIREWORKS"}, "FIREWORKS", CategoryHazard, PriorityMedium},
	{[]string{"MILITARY", "COMBAT"}, "MILITARY", CategoryAirspace, PriorityHigh},
	{[]string{"SECURITY", "HAZARDOUS"}, "SECURITY", CategorySecurity, PriorityCritical},
	{[]string{"RUNWAY", "RWY"}, "RUNWAY", CategoryAirport, PriorityHigh},
	{[]string{"NAVIGATION", "NAV"}, "NAVIGATION", CategoryNavaid, PriorityMedium},
}

func classify(n *Notam, upperText string) {
	n.Type, n.Category, n.Priority = "UNKNOWN", CategoryOther, PriorityNormal
	for _, kt := range keywordTypes {
		for _, kw := range kt.keywords {
			if strings.Contains(upperText, kw) {
				n.Type, n.Category, n.Priority = kt.typ, kt.category, kt.priority
				return
			}
		}
	}
}

// ddmmCoordRe matches the compact "5530N00426W" form; ddmmssCoordRe matches
// the seconds-resolution "553332N 0042543W" form (with or without the
// internal space), per spec.md §4.7's two supported coordinate shapes.
var (
	ddmmCoordRe   = regexp.MustCompile(`(\d{2})(\d{2})N(\d{3})(\d{2})W`)
	ddmmssCoordRe = regexp.MustCompile(`(\d{2})(\d{2})(\d{2})N ?(\d{3})(\d{2})(\d{2})W`)
	timeRe        = regexp.MustCompile(`(\d{10}) (\d{10})`)
	altSFCRe      = regexp.MustCompile(`SFC (\d+)FT`)
	altFLRe       = regexp.MustCompile(`FL(\d+)`)
	airportRe     = regexp.MustCompile(`EG[A-Z]{2}`)
)

// parseCoordinates extracts lat/lon (decimal degrees, west negative) from a
// NOTAM body, trying the seconds-resolution form first since it is a strict
// superset of the minute-resolution one.
func parseCoordinates(text string) (lat, lon float64, ok bool) {
	if m := ddmmssCoordRe.FindStringSubmatch(text); m != nil {
		latDeg, _ := strconv.Atoi(m[1])
		latMin, _ := strconv.Atoi(m[2])
		latSec, _ := strconv.Atoi(m[3])
		lonDeg, _ := strconv.Atoi(m[4])
		lonMin, _ := strconv.Atoi(m[5])
		lonSec, _ := strconv.Atoi(m[6])
		lat = float64(latDeg) + float64(latMin)/60 + float64(latSec)/3600
		lon = -(float64(lonDeg) + float64(lonMin)/60 + float64(lonSec)/3600)
		return lat, lon, true
	}
	if m := ddmmCoordRe.FindStringSubmatch(text); m != nil {
		latDeg, _ := strconv.Atoi(m[1])
		latMin, _ := strconv.Atoi(m[2])
		lonDeg, _ := strconv.Atoi(m[3])
		lonMin, _ := strconv.Atoi(m[4])
		lat = float64(latDeg) + float64(latMin)/60
		lon = -(float64(lonDeg) + float64(lonMin)/60)
		return lat, lon, true
	}
	return 0, 0, false
}

// parseTime parses the YYMMDDHHMM form used for NOTAM validity windows.
func parseTime(s string) (time.Time, bool) {
	if len(s) != 10 {
		return time.Time{}, false
	}
	year, errY := strconv.Atoi(s[0:2])
	month, errMo := strconv.Atoi(s[2:4])
	day, errD := strconv.Atoi(s[4:6])
	hour, errH := strconv.Atoi(s[6:8])
	minute, errMi := strconv.Atoi(s[8:10])
	if errY != nil || errMo != nil || errD != nil || errH != nil || errMi != nil {
		return time.Time{}, false
	}
	return time.Date(2000+year, time.Month(month), day, hour, minute, 0, 0, time.UTC), true
}

// Parse turns raw NOTAM text into a classified Notam, per
// parse_notam_content.
func Parse(id, text string) Notam {
	upper := strings.ToUpper(text)
	n := Notam{ID: id}
	classify(&n, upper)

	if lat, lon, ok := parseCoordinates(text); ok {
		n.Lat, n.Lon, n.HasCoordinates = lat, lon, true
	}
	if m := timeRe.FindStringSubmatch(text); m != nil {
		if from, ok := parseTime(m[1]); ok {
			n.EffectiveFrom = from
		}
		if to, ok := parseTime(m[2]); ok {
			n.EffectiveTo = to
		}
	}
	if m := altSFCRe.FindStringSubmatch(text); m != nil {
		n.AltitudeFromFt = 0
		if ft, err := strconv.Atoi(m[1]); err == nil {
			n.AltitudeToFt = ft
		}
	} else if m := altFLRe.FindStringSubmatch(text); m != nil {
		if fl, err := strconv.Atoi(m[1]); err == nil {
			n.AltitudeFromFt = fl * 100
		}
	}
	if m := airportRe.FindString(text); m != "" {
		n.Location = m
	}

	clean := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if len(clean) > 200 {
		clean = clean[:200] + "..."
	}
	n.Description = clean
	return n
}

// Fetcher retrieves raw NOTAM bodies keyed by id, e.g. the UK NOTAM archive
// XML feed used by the original.
type Fetcher func(ctx context.Context) (map[string]string, error)

// Feed is C7's NOTAM half: a TTL-cached, fetch-on-miss source of classified
// NOTAMs, filtered and sorted on query per spec.md §4.7.
type Feed struct {
	fetch Fetcher
	cache *cache.Cache
}

const cacheKey = "notams"

func NewFeed(fetch Fetcher, ttl time.Duration) *Feed {
	return &Feed{fetch: fetch, cache: cache.New(ttl, ttl*2)}
}

// All returns every cached-or-freshly-fetched NOTAM, unfiltered.
func (f *Feed) All(ctx context.Context) ([]Notam, error) {
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.([]Notam), nil
	}
	raw, err := f.fetch(ctx)
	if err != nil {
		return nil, err
	}
	notams := make([]Notam, 0, len(raw))
	for id, text := range raw {
		notams = append(notams, Parse(id, text))
	}
	f.cache.SetDefault(cacheKey, notams)
	return notams, nil
}

// Within returns NOTAMs within radiusNM of (lat, lon), OR with CRITICAL
// priority regardless of location (spec.md §4.7), sorted by
// (priority asc, distance asc).
func (f *Feed) Within(ctx context.Context, lat, lon, radiusNM float64, category Category, priority Priority) ([]Notam, error) {
	all, err := f.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []Notam
	for _, n := range all {
		if category != "" && n.Category != category {
			continue
		}
		if priority != "" && n.Priority != priority {
			continue
		}
		if n.HasCoordinates {
			n.DistanceNM = geo.HaversineNM(lat, lon, n.Lat, n.Lon)
		}
		inRange := !n.HasCoordinates || n.DistanceNM <= radiusNM
		if inRange || n.Priority == PriorityCritical {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return out[i].DistanceNM < out[j].DistanceNM
	})
	return out, nil
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}
