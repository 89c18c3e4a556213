// Package query implements C10: the read-side facade that routes external
// requests to C1/C3/C6/C8/C9 without those packages knowing about HTTP or
// chat. Grounded on spec.md §4.10 — ask/chat/direct-reads, each a thin
// wrapper.
package query

import (
	"context"
	"strings"
	"time"

	"github.com/wispayr/radar-core/internal/ais"
	"github.com/wispayr/radar-core/internal/aircraft"
	"github.com/wispayr/radar-core/internal/airspace"
	"github.com/wispayr/radar-core/internal/history"
	"github.com/wispayr/radar-core/internal/registry"
	"github.com/wispayr/radar-core/internal/semantic"
	"github.com/wispayr/radar-core/internal/ssr"
)

// Facade bundles read access to every component C10 fronts. Each field is
// a pointer to the component's concrete type, not an interface.
type Facade struct {
	Semantic *semantic.Index
	History  *history.Store
	Airspace *airspace.Index
	SSR      *ssr.Catalog
	Registry *registry.Registry
	Vessels  *ais.VesselMap
}

// aircraftKeywords, weatherKeywords and historyKeywords drive the keyword-scan intent/branch
// derivation named in spec.md §4.10.
var aircraftKeywords = []string{"aircraft", "flight", "plane", "squawk", "callsign"}
var weatherKeywords = []string{"weather", "metar", "wind", "visibility", "temperature", "cloud"}
var historyKeywords = []string{"history", "historical", "earlier", "previously", "past", "last seen"}

// deriveIntent scans q for a keyword hint, defaulting to no preference.
func deriveIntent(q string) semantic.Intent {
	lower := strings.ToLower(q)
	for _, kw := range aircraftKeywords {
		if strings.Contains(lower, kw) {
			return semantic.IntentAircraft
		}
	}
	for _, kw := range weatherKeywords {
		if strings.Contains(lower, kw) {
			return semantic.IntentWeather
		}
	}
	return ""
}

func mentionsHistory(q string) bool {
	lower := strings.ToLower(q)
	for _, kw := range historyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Ask is pure semantic retrieval with an intent hint derived from q.
func (f *Facade) Ask(ctx context.Context, q string, threshold float32, k int) ([]semantic.Result, error) {
	return f.Semantic.Ask(ctx, q, threshold, k, deriveIntent(q))
}

// ChatResponse is chat's return shape: retrieval context plus, when q
// mentions history, historical stats to ground the downstream generator.
type ChatResponse struct {
	ContextMessages []string
	HistoricalData  []history.Event
}

// Chat orchestrates retrieval for a downstream generator: top-k semantic
// context always, plus recent events when q contains a history keyword.
func (f *Facade) Chat(ctx context.Context, q string, threshold float32, k int) (ChatResponse, error) {
	results, err := f.Ask(ctx, q, threshold, k)
	if err != nil {
		return ChatResponse{}, err
	}
	resp := ChatResponse{}
	for _, r := range results {
		resp.ContextMessages = append(resp.ContextMessages, r.Text)
	}

	if mentionsHistory(q) && f.History != nil {
		events, err := f.History.Events(ctx, "", "", 24)
		if err == nil {
			resp.HistoricalData = events
		}
	}
	return resp, nil
}

// AircraftHistory wraps C8's history contract.
func (f *Facade) AircraftHistory(ctx context.Context, hex string, hours int) ([]aircraft.Contact, error) {
	return f.History.History(ctx, hex, hours)
}

// AircraftSummary wraps C8's summary contract.
func (f *Facade) AircraftSummary(ctx context.Context, hex string) (*history.AircraftSummary, error) {
	return f.History.Summary(ctx, hex)
}

// ActiveAircraft wraps C8's active contract.
func (f *Facade) ActiveAircraft(ctx context.Context, minutes int) ([]history.ActiveAircraft, error) {
	return f.History.Active(ctx, minutes)
}

// Events wraps C8's events contract.
func (f *Facade) Events(ctx context.Context, hex, kind string, hours int) ([]history.Event, error) {
	return f.History.Events(ctx, hex, kind, hours)
}

// RegistryLookup wraps C3's lookup contract.
func (f *Facade) RegistryLookup(hex string) (registry.Record, error) {
	return f.Registry.Lookup(hex)
}

// RegistrySearchRegistration wraps C3's registration search.
func (f *Facade) RegistrySearchRegistration(prefix string) ([]registry.Record, error) {
	return f.Registry.SearchRegistrationPrefix(prefix)
}

// RegistrySearchType wraps C3's type search.
func (f *Facade) RegistrySearchType(typeCode string) ([]registry.Record, error) {
	return f.Registry.SearchType(typeCode)
}

// AirspaceIdentify wraps C1's identify contract.
func (f *Facade) AirspaceIdentify(lat, lon float64, altitudeFt *float64) ([]*airspace.Zone, string) {
	return f.Airspace.Identify(lat, lon, altitudeFt)
}

// AirspaceExportView wraps C1's export_view contract.
func (f *Facade) AirspaceExportView(lat, lon, radiusNM float64) airspace.ExportView {
	return f.Airspace.ExportView(lat, lon, radiusNM)
}

// VesselsInRange wraps C6's spatial query.
func (f *Facade) VesselsInRange(lat, lon, radiusNM float64) []ais.VesselDistance {
	return f.Vessels.InRange(lat, lon, radiusNM)
}

// SSRLookup wraps C2's lookup contract.
func (f *Facade) SSRLookup(code string) (ssr.Code, bool) {
	return f.SSR.Lookup(code)
}

// SSRByCategory wraps C2's category filter.
func (f *Facade) SSRByCategory(cat ssr.Category) []ssr.Code {
	return f.SSR.ByCategory(cat)
}

// DatabaseStats is the /api/database/stats shape: the number of aircraft
// active in the historical store over the past 60 minutes and the time the
// figure was generated. It carries no per-table counts, time ranges or
// store size.
type DatabaseStats struct {
	ActiveAircraft int
	GeneratedAt    time.Time
}

// DatabaseStats wraps a coarse count used by the diagnostics endpoint.
func (f *Facade) DatabaseStats(ctx context.Context) (DatabaseStats, error) {
	active, err := f.History.Active(ctx, 60)
	if err != nil {
		return DatabaseStats{}, err
	}
	return DatabaseStats{ActiveAircraft: len(active), GeneratedAt: time.Now()}, nil
}
