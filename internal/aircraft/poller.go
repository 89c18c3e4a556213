package aircraft

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wispayr/radar-core/internal/airspace"
	"github.com/wispayr/radar-core/internal/flightstate"
	"github.com/wispayr/radar-core/internal/ssr"
)

// HistoryStore is the subset of C8 the poller needs, kept as an interface
// so this package never imports internal/history directly.
type HistoryStore interface {
	StoreContact(ctx context.Context, c Contact) error
}

// RegistryLookup is the subset of C3 the poller needs.
type RegistryLookup interface {
	Lookup(hex string) (RegistryInfo, bool)
}

// Poller runs the tick described in spec.md §4.5: fetch -> enrich each
// record in sequence -> store.
type Poller struct {
	Source             Source
	Airspace           *airspace.Index
	SSR                *ssr.Catalog
	Registry           RegistryLookup
	Store              HistoryStore
	Alerts             chan<- Alert
	EnableStatusRepair bool
	AirportLookup      flightstate.AirportLookup

	// OnTick, if set, is invoked with the full enriched batch at the end of
	// every tick — the composition root uses it to feed the WebSocket hub.
	OnTick func([]Contact)

	latestMu sync.RWMutex
	latest   []Contact
}

// Latest returns the most recently enriched batch, for the HTTP snapshot
// endpoint. Empty until the first tick completes.
func (p *Poller) Latest() []Contact {
	p.latestMu.RLock()
	defer p.latestMu.RUnlock()
	out := make([]Contact, len(p.latest))
	copy(out, p.latest)
	return out
}

// registryAdapter lets internal/registry.Registry satisfy RegistryLookup
// without this package importing it directly in the hot path (kept here so
// the composition root can pass the concrete type in easily).
type registryAdapter struct {
	lookup func(hex string) (RegistryInfo, bool)
}

func (r registryAdapter) Lookup(hex string) (RegistryInfo, bool) { return r.lookup(hex) }

// NewRegistryLookup adapts any func(hex string) (RegistryInfo, bool) into a
// RegistryLookup.
func NewRegistryLookup(f func(hex string) (RegistryInfo, bool)) RegistryLookup {
	return registryAdapter{lookup: f}
}

// Run starts the ticker loop; it blocks until ctx is canceled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	snap, err := p.Source.Fetch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("aircraft: fetch failed, upstream and fallback both unavailable")
		return
	}

	batch := make([]Contact, 0, len(snap.Aircraft))
	for _, raw := range snap.Aircraft {
		if raw.Hex == "" {
			// Invariant violation: hex is required. Fail fast at the
			// boundary per spec.md §7, but never abort the tick.
			log.Warn().Msg("aircraft: dropping record with no hex")
			continue
		}
		contact := p.enrich(raw, int64(snap.Now))
		if err := p.Store.StoreContact(ctx, contact); err != nil {
			log.Error().Err(err).Str("hex", contact.Hex).Msg("aircraft: store_contact failed, continuing")
			continue
		}
		batch = append(batch, contact)
	}

	p.latestMu.Lock()
	p.latest = batch
	p.latestMu.Unlock()

	if p.OnTick != nil {
		p.OnTick(batch)
	}
}

// enrich runs the five-step sequence of spec.md §4.5. Per-record failures
// (a bad zone test, an absent registry row) are swallowed at each step
// rather than aborting the whole record.
func (p *Poller) enrich(raw RawAircraft, now int64) Contact {
	c := Contact{
		Hex:      raw.Hex,
		Callsign: raw.Flight,
		T:        now,
		Lat:      raw.Lat,
		Lon:      raw.Lon,
		AltBaro:  raw.AltBaro,
		AltGeom:  raw.AltGeom,
		GroundSpeed: raw.GS,
		Track:    raw.Track,
		VertRate: raw.VertRate,
		Squawk:   raw.Squawk,
		Category: raw.Category,
		SeenAge:  raw.Seen,
		RSSI:     raw.RSSI,
		MsgCount: raw.Messages,
	}

	// Step 1: airspace classification.
	var ac flightstate.AirspaceClass
	if c.Lat != nil && c.Lon != nil && p.Airspace != nil {
		zones := func() (z []*airspaceZoneView) {
			defer func() { recover() }()
			return toZoneViews(p.Airspace.Classify(*c.Lat, *c.Lon))
		}()
		if len(zones) > 0 {
			primary := zones[0]
			c.Airspace = &AirspaceInfo{
				PrimaryZoneID:   primary.id,
				PrimaryZoneName: primary.name,
				PrimaryZoneType: primary.typ,
				ZoneCount:       len(zones),
			}
			ac.ZoneName = primary.name
			ac.InCTR = primary.typ == "CTR"
			ac.InTMACTA = primary.typ == "TMA" || primary.typ == "CTA"
		}
	}

	// Step 2: SSR lookup.
	if c.Squawk != "" && p.SSR != nil {
		if code, ok := p.SSR.Lookup(c.Squawk); ok {
			c.SSR = &SSRInfo{
				Description: code.Description,
				Priority:    string(code.Priority),
				Alert:       code.Alert,
			}
			for _, cat := range code.Categories {
				c.SSR.Categories = append(c.SSR.Categories, string(cat))
			}
			if code.Alert && p.Alerts != nil {
				select {
				case p.Alerts <- Alert{Hex: c.Hex, Squawk: c.Squawk, Priority: string(code.Priority), T: c.T}:
				default:
					// non-blocking: drop the alert rather than stall the tick
				}
			}
		}
	}

	// Step 3: registry join.
	if p.Registry != nil {
		if rec, ok := p.Registry.Lookup(c.Hex); ok {
			c.Registry = &rec
		}
	}

	// Step 4: phase/ATC/intent derivation.
	telem := flightstate.Telemetry{Squawk: c.Squawk}
	if c.AltBaro != nil {
		telem.AltitudeFt = *c.AltBaro
	}
	if c.GroundSpeed != nil {
		telem.GroundSpeed = *c.GroundSpeed
	}
	if c.VertRate != nil {
		telem.VerticalRate = *c.VertRate
	}
	phase := flightstate.DerivePhase(telem, ac)
	if p.EnableStatusRepair {
		phase = repairStatus(phase, telem)
	}
	c.Phase = string(phase)
	c.ATCSector = string(flightstate.DeriveSector(c.Squawk))
	c.Intent = flightstate.DeriveIntent(phase, ac, c.Squawk, p.AirportLookup)

	return c
}

// repairStatus implements the §4.5 "Consistency repair" guardrail, gated by
// EnableStatusRepair (SPEC_FULL.md Open Question 1): upstream feeds
// occasionally report PARKED/CRUISE inconsistent with speed/altitude.
func repairStatus(phase flightstate.Phase, t flightstate.Telemetry) flightstate.Phase {
	switch {
	case t.GroundSpeed > 10 && phase == flightstate.PhaseParked:
		if t.AltitudeFt > 1000 {
			log.Debug().Msg("aircraft: repairing PARKED->CRUISE on speed inconsistency")
			return flightstate.PhaseCruise
		}
		log.Debug().Msg("aircraft: repairing PARKED->TAXIING on speed inconsistency")
		return flightstate.PhaseTaxiing
	case t.GroundSpeed < 5 && t.AltitudeFt < 100 && phase == flightstate.PhaseCruise:
		log.Debug().Msg("aircraft: repairing CRUISE->PARKED on speed inconsistency")
		return flightstate.PhaseParked
	default:
		return phase
	}
}

type airspaceZoneView struct {
	id, name, typ string
}

func toZoneViews(zones []*airspace.Zone) []*airspaceZoneView {
	out := make([]*airspaceZoneView, len(zones))
	for i, z := range zones {
		out[i] = &airspaceZoneView{id: z.ID, name: z.Name, typ: string(z.Type)}
	}
	return out
}
