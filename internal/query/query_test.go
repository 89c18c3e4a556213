package query

import "testing"

func TestDeriveIntentAircraftKeyword(t *testing.T) {
	if got := deriveIntent("how many aircraft are near EGLL"); got != "AIRCRAFT" {
		t.Fatalf("got intent %q, want AIRCRAFT", got)
	}
}

func TestDeriveIntentWeatherKeyword(t *testing.T) {
	if got := deriveIntent("what's the current wind and visibility"); got != "WEATHER" {
		t.Fatalf("got intent %q, want WEATHER", got)
	}
}

func TestDeriveIntentDefaultsToEmpty(t *testing.T) {
	if got := deriveIntent("hello there"); got != "" {
		t.Fatalf("got intent %q, want empty", got)
	}
}

func TestMentionsHistoryKeyword(t *testing.T) {
	if !mentionsHistory("what was the historical flight path") {
		t.Fatalf("expected history keyword detected")
	}
	if mentionsHistory("show current aircraft") {
		t.Fatalf("expected no history keyword detected")
	}
}
