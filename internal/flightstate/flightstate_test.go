package flightstate

import "testing"

func TestParkedBoundary(t *testing.T) {
	// spec.md §8: Altitude=0 and speed=0 yield PARKED regardless of zone.
	p := DerivePhase(Telemetry{AltitudeFt: 0, GroundSpeed: 0}, AirspaceClass{InCTR: true})
	if p != PhaseParked {
		t.Fatalf("got %s, want PARKED", p)
	}
}

func TestDepartureInCTR(t *testing.T) {
	p := DerivePhase(Telemetry{AltitudeFt: 1500, GroundSpeed: 150, VerticalRate: 1200}, AirspaceClass{InCTR: true})
	if p != PhaseDeparture {
		t.Fatalf("got %s, want DEPARTURE", p)
	}
}

func TestHighCruise(t *testing.T) {
	p := DerivePhase(Telemetry{AltitudeFt: 38000, GroundSpeed: 450, VerticalRate: 0}, AirspaceClass{})
	if p != PhaseHighCruise {
		t.Fatalf("got %s, want HIGH_CRUISE", p)
	}
}

func TestSectorEmergencyOverridesRegional(t *testing.T) {
	if s := DeriveSector("7700"); s != SectorEmergency {
		t.Fatalf("got %s, want EMERGENCY", s)
	}
}

func TestSectorRegional(t *testing.T) {
	cases := map[string]ATCSector{
		"0123": SectorLondon,
		"1123": SectorScottish,
		"2123": SectorManchester,
		"3123": SectorLondonTC,
		"4123": SectorApproach,
		"5123": SectorArea,
		"6123": SectorTerminal,
	}
	for sq, want := range cases {
		if got := DeriveSector(sq); got != want {
			t.Errorf("DeriveSector(%s) = %s, want %s", sq, got, want)
		}
	}
}

func TestIntentDepartingCTR(t *testing.T) {
	intent := DeriveIntent(PhaseDeparture, AirspaceClass{InCTR: true, ZoneName: "EGLL CTR"}, "2000", nil)
	if intent != "DEPARTING EGLL CTR" {
		t.Fatalf("got %q", intent)
	}
}

func TestIntentVFR(t *testing.T) {
	intent := DeriveIntent(PhaseCruise, AirspaceClass{}, "7000", nil)
	if intent != "VFR CROSS COUNTRY" {
		t.Fatalf("got %q", intent)
	}
}
