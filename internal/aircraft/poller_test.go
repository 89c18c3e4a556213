package aircraft

import (
	"context"
	"testing"

	"github.com/wispayr/radar-core/internal/flightstate"
	"github.com/wispayr/radar-core/internal/ssr"
)

type fakeStore struct {
	stored []Contact
}

func (f *fakeStore) StoreContact(ctx context.Context, c Contact) error {
	f.stored = append(f.stored, c)
	return nil
}

func float(f float64) *float64 { return &f }

func TestEnrichAttachesEmergencySSR(t *testing.T) {
	p := &Poller{SSR: &ssr.Catalog{}} // empty catalog; 7700 must still resolve

	c := p.enrich(RawAircraft{
		Hex:     "ABC123",
		Lat:     float(55.5),
		Lon:     float(-4.5),
		AltBaro: float(3000),
		GS:      float(200),
		Squawk:  "7700",
	}, 1000)

	if c.SSR == nil || c.SSR.Priority != "CRITICAL" || !c.SSR.Alert {
		t.Fatalf("expected CRITICAL alert SSR info, got %+v", c.SSR)
	}
}

func TestConsistencyRepairParkedToCruise(t *testing.T) {
	// DerivePhase never labels a 250 kt contact PARKED, so the repair is
	// exercised directly on an inconsistent PARKED label.
	got := repairStatus(flightstate.PhaseParked, flightstate.Telemetry{
		AltitudeFt:  5000,
		GroundSpeed: 250, // too fast for PARKED
	})
	if got != flightstate.PhaseCruise {
		t.Fatalf("got phase %s, want CRUISE after repair", got)
	}
}

func TestTickSkipsRecordsWithNoHex(t *testing.T) {
	store := &fakeStore{}
	p := &Poller{
		Source: &MockSource{Snap: Snapshot{Aircraft: []RawAircraft{{Hex: ""}, {Hex: "AAA111"}}}},
		Store:  store,
	}
	p.tick(context.Background())
	if len(store.stored) != 1 || store.stored[0].Hex != "AAA111" {
		t.Fatalf("expected only the valid record stored, got %+v", store.stored)
	}
}
