package history

import (
	"context"
	"testing"
	"time"

	"github.com/wispayr/radar-core/internal/aircraft"
)

func float(f float64) *float64 { return &f }

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContactUpsertsSummary(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Now().Unix()

	if err := s.StoreContact(ctx, aircraft.Contact{Hex: "ABC123", T: base, Callsign: "BAW1", AltBaro: float(1000)}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.StoreContact(ctx, aircraft.Contact{Hex: "ABC123", T: base + 10, Callsign: "BAW1", AltBaro: float(5000)}); err != nil {
		t.Fatalf("store: %v", err)
	}

	sum, err := s.Summary(ctx, "ABC123")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum == nil || sum.ContactCount != 2 {
		t.Fatalf("got summary %+v, want contact_count=2", sum)
	}
	if sum.MinAlt != 1000 || sum.MaxAlt != 5000 {
		t.Fatalf("got alt range %v-%v, want 1000-5000", sum.MinAlt, sum.MaxAlt)
	}
}

func TestStoreContactDetectsEmergencySquawk(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.StoreContact(ctx, aircraft.Contact{Hex: "EMG001", T: time.Now().Unix(), Squawk: "7700", AltBaro: float(3000)}); err != nil {
		t.Fatalf("store: %v", err)
	}
	events, err := s.Events(ctx, "EMG001", "EMERGENCY_SQUAWK", 24)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 emergency event, got %d", len(events))
	}
	if events[0].Squawk != "7700" {
		t.Fatalf("got squawk %q, want 7700", events[0].Squawk)
	}
	if events[0].Alt == nil || *events[0].Alt != 3000 {
		t.Fatalf("got alt %v, want 3000", events[0].Alt)
	}
}

func TestStoreContactDetectsTakeoff(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Now().Unix()
	if err := s.StoreContact(ctx, aircraft.Contact{Hex: "TKO001", T: base, AltBaro: float(100)}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.StoreContact(ctx, aircraft.Contact{Hex: "TKO001", T: base + 30, AltBaro: float(1500)}); err != nil {
		t.Fatalf("store: %v", err)
	}
	events, err := s.Events(ctx, "TKO001", "TAKEOFF", 24)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 takeoff event, got %d", len(events))
	}
	if events[0].Alt == nil || *events[0].Alt != 1500 {
		t.Fatalf("got alt %v, want 1500", events[0].Alt)
	}
}

func TestDetectLostContactsEmitsAndIsIdempotent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	stale := time.Now().Add(-10 * time.Minute).Unix()
	if err := s.StoreContact(ctx, aircraft.Contact{Hex: "LOST001", T: stale, Lat: float(51.5), Lon: float(-0.1)}); err != nil {
		t.Fatalf("store: %v", err)
	}

	n, err := s.DetectLostContacts(ctx, 5*time.Minute)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 lost-contact event, got %d", n)
	}

	n, err = s.DetectLostContacts(ctx, 5*time.Minute)
	if err != nil {
		t.Fatalf("detect again: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no duplicate lost-contact event, got %d", n)
	}

	events, err := s.Events(ctx, "LOST001", "LOST_CONTACT", 24)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 LOST_CONTACT event, got %d", len(events))
	}
	if events[0].Lat == nil || *events[0].Lat != 51.5 {
		t.Fatalf("got lat %v, want 51.5", events[0].Lat)
	}
}

func TestEventsAreIdempotent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	c := aircraft.Contact{Hex: "DUP001", T: time.Now().Unix(), Squawk: "7500"}
	if err := s.StoreContact(ctx, c); err != nil {
		t.Fatalf("store: %v", err)
	}
	// Same (hex, t, kind) would recur if the same contact were stored twice;
	// the UNIQUE constraint + INSERT OR IGNORE must suppress the duplicate.
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO flight_events (hex, t, event_kind, detail) VALUES (?, ?, ?, ?)`,
		c.Hex, c.T, "EMERGENCY_SQUAWK", c.Squawk); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	events, err := s.Events(ctx, c.Hex, "EMERGENCY_SQUAWK", 24)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event after duplicate insert, got %d", len(events))
	}
}

func TestCleanupDropsOldContactsAndEmptySummaries(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	old := time.Now().Add(-40 * 24 * time.Hour).Unix()
	if err := s.StoreContact(ctx, aircraft.Contact{Hex: "OLD001", T: old}); err != nil {
		t.Fatalf("store: %v", err)
	}
	deleted, err := s.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 row deleted, got %d", deleted)
	}
	sum, err := s.Summary(ctx, "OLD001")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum != nil {
		t.Fatalf("expected summary with no remaining contacts to be dropped, got %+v", sum)
	}
}

func TestActiveReturnsRecentlySeen(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.StoreContact(ctx, aircraft.Contact{Hex: "NOW001", T: time.Now().Unix(), Callsign: "ABC1"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	active, err := s.Active(ctx, 5)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 || active[0].Hex != "NOW001" {
		t.Fatalf("expected NOW001 active, got %+v", active)
	}
}
