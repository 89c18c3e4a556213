// Package aircraft implements C5: the periodic poll -> enrich -> store
// pipeline for ADS-B aircraft contacts, grounded on the teacher's
// (GChief117-SwarmC2) fetchAndBroadcast/pollOpenSky loop, generalized from
// one OpenSky region fetch into the full enrichment sequence of spec.md
// §4.5.
package aircraft

import "encoding/json"

// RawAircraft is the upstream ADS-B snapshot shape, matching the
// dump1090-style JSON the spec's /tmp/aircraft.json endpoint mirrors (see
// billglover-go-adsb-console's Aircraft struct for the same field set).
type RawAircraft struct {
	Hex       string   `json:"hex"`
	Flight    string   `json:"flight"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	AltBaro   *float64 `json:"alt_baro"`
	AltGeom   *float64 `json:"alt_geom"`
	GS        *float64 `json:"gs"`
	Track     *float64 `json:"track"`
	VertRate  *float64 `json:"vert_rate"`
	Squawk    string   `json:"squawk"`
	Category  string   `json:"category"`
	Seen      *float64 `json:"seen"`
	Messages  int      `json:"messages"`
	RSSI      *float64 `json:"rssi"`
}

// Snapshot is the top-level upstream payload: { now, messages, aircraft[] }.
type Snapshot struct {
	Now      float64       `json:"now"`
	Messages int           `json:"messages"`
	Aircraft []RawAircraft `json:"aircraft"`
}

// Contact is the enriched AircraftContact record of spec.md §3. Hex and T
// are required; everything else is optional and merged in by the
// enrichment steps.
type Contact struct {
	Hex         string   `json:"hex"`
	Callsign    string   `json:"callsign,omitempty"`
	T           int64    `json:"t"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	AltBaro     *float64 `json:"alt_baro,omitempty"`
	AltGeom     *float64 `json:"alt_geom,omitempty"`
	GroundSpeed *float64 `json:"ground_speed,omitempty"`
	Track       *float64 `json:"track,omitempty"`
	VertRate    *float64 `json:"vert_rate,omitempty"`
	Squawk      string   `json:"squawk,omitempty"`
	Category    string   `json:"category,omitempty"`
	SeenAge     *float64 `json:"seen_age,omitempty"`
	RSSI        *float64 `json:"rssi,omitempty"`
	MsgCount    int      `json:"msg_count,omitempty"`

	Airspace  *AirspaceInfo  `json:"airspace,omitempty"`
	Phase     string         `json:"phase,omitempty"`
	ATCSector string         `json:"atc_sector,omitempty"`
	Intent    string         `json:"intent,omitempty"`
	SSR       *SSRInfo       `json:"ssr,omitempty"`
	Registry  *RegistryInfo  `json:"registry,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// AirspaceInfo is the subset of C1's classify() result attached to a
// contact.
type AirspaceInfo struct {
	PrimaryZoneID   string `json:"primary_zone_id"`
	PrimaryZoneName string `json:"primary_zone_name"`
	PrimaryZoneType string `json:"primary_zone_type"`
	ZoneCount       int    `json:"zone_count"`
}

// SSRInfo is the subset of C2's lookup() result attached to a contact.
type SSRInfo struct {
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	Priority    string   `json:"priority"`
	Alert       bool     `json:"alert"`
}

// RegistryInfo is the subset of C3's lookup() result attached to a contact.
type RegistryInfo struct {
	Registration string `json:"registration"`
	TypeCode     string `json:"type_code"`
	Manufacturer string `json:"manufacturer"`
	Operator     string `json:"operator"`
}

// Alert is emitted (non-blocking) whenever an enriched contact's SSR info
// has Alert=true.
type Alert struct {
	Hex      string
	Squawk   string
	Priority string
	T        int64
}
