package notam

import (
	"context"
	"testing"
	"time"
)

func TestParseClassifiesDangerArea(t *testing.T) {
	n := Parse("EGGN_H_6425", "DANGER AREA EG D323 ACTIVE 2501010600 2501011800 SFC 5000FT")
	if n.Category != CategoryAirspace || n.Priority != PriorityHigh {
		t.Fatalf("got category=%s priority=%s, want AIRSPACE/HIGH", n.Category, n.Priority)
	}
	if n.AltitudeFromFt != 0 || n.AltitudeToFt != 5000 {
		t.Fatalf("got altitude %d-%d, want 0-5000", n.AltitudeFromFt, n.AltitudeToFt)
	}
	if !n.EffectiveFrom.Equal(time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)) {
		t.Fatalf("got effective_from %v", n.EffectiveFrom)
	}
}

func TestParseDDMMCoordinates(t *testing.T) {
	n := Parse("X1", "OBSTACLE AT 5530N00426W UNTIL FURTHER NOTICE")
	if !n.HasCoordinates {
		t.Fatalf("expected coordinates to parse")
	}
	if d := n.Lat - 55.5; d < -0.01 || d > 0.01 {
		t.Fatalf("got lat %v, want ~55.5", n.Lat)
	}
	if d := n.Lon - (-4.4333); d < -0.01 || d > 0.01 {
		t.Fatalf("got lon %v, want ~-4.4333", n.Lon)
	}
}

func TestParseDDMMSSCoordinates(t *testing.T) {
	n := Parse("X2", "PSN 553332N 0042543W RADIUS 2NM")
	if !n.HasCoordinates {
		t.Fatalf("expected seconds-resolution coordinates to parse")
	}
}

func TestSecurityAlwaysCritical(t *testing.T) {
	n := Parse("X3", "SECURITY RESTRICTION IN EFFECT")
	if n.Priority != PriorityCritical {
		t.Fatalf("got priority %s, want CRITICAL", n.Priority)
	}
}

func TestWithinKeepsCriticalRegardlessOfDistance(t *testing.T) {
	feed := NewFeed(func(ctx context.Context) (map[string]string, error) {
		return map[string]string{
			"near": "RUNWAY CLOSED AT EGLL 5530N00426W",
			"far":  "SECURITY INCIDENT REPORTED AT EGPF 5853N00427W",
		}, nil
	}, time.Minute)

	out, err := feed.Within(context.Background(), 51.5, -0.1, 5, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawFar bool
	for _, n := range out {
		if n.ID == "far" {
			sawFar = true
		}
	}
	if !sawFar {
		t.Fatalf("expected CRITICAL notam retained despite distance, got %+v", out)
	}
	if out[0].Priority != PriorityCritical {
		t.Fatalf("expected CRITICAL notam sorted first, got %+v", out)
	}
}

func TestAllIsCached(t *testing.T) {
	calls := 0
	feed := NewFeed(func(ctx context.Context) (map[string]string, error) {
		calls++
		return map[string]string{"a": "RUNWAY CLOSED"}, nil
	}, time.Minute)

	if _, err := feed.All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := feed.All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected fetch called once, got %d", calls)
	}
}
