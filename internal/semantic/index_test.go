package semantic

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRebuildDeduplicatesAndSkipsEmpty(t *testing.T) {
	idx := NewIndex(NewMockEmbedder(8))
	idx.Rebuild(context.Background(), []Entry{
		{Text: "ADS-B: BAW123 at 35000 ft"},
		{Text: "ADS-B: BAW123 at 35000 ft"}, // duplicate
		{Text: ""},                          // empty, skipped
		{Text: "METAR EGLL: Temp 15C"},
	})
	if got := idx.Len(); got != 2 {
		t.Fatalf("got %d indexed entries, want 2", got)
	}
}

func TestRebuildKeepsPreviousIndexWhenNothingIndexable(t *testing.T) {
	idx := NewIndex(NewMockEmbedder(8))
	idx.Rebuild(context.Background(), []Entry{{Text: "one summary"}})
	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry after first rebuild")
	}
	idx.Rebuild(context.Background(), nil)
	if idx.Len() != 1 {
		t.Fatalf("expected previous index retained after empty rebuild, got %d", idx.Len())
	}
}

func TestAskPrefersIntentOverRawScore(t *testing.T) {
	// spec.md §8 scenario 5: intent preference beats raw cosine score.
	idx := NewIndex(NewMockEmbedder(16))
	idx.Rebuild(context.Background(), []Entry{
		{Text: "ADS-B: BAW123 at 35000 ft", Intent: IntentAircraft},
		{Text: "METAR EGLL: Temp 15C", Intent: IntentWeather},
	})

	results, err := idx.Ask(context.Background(), "how many aircraft", 0, 1, IntentAircraft)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(results) != 1 || results[0].Text != "ADS-B: BAW123 at 35000 ft" {
		t.Fatalf("expected aircraft summary preferred by intent, got %+v", results)
	}
}

func TestAskFiltersByThreshold(t *testing.T) {
	idx := NewIndex(NewMockEmbedder(8))
	idx.Rebuild(context.Background(), []Entry{{Text: "alpha"}, {Text: "beta"}})

	results, err := idx.Ask(context.Background(), "alpha", 1.01, 5, "")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results above an unreachable threshold, got %+v", results)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.jsonl")
	metaPath := filepath.Join(dir, "meta.json")

	idx := NewIndex(NewMockEmbedder(8))
	idx.Rebuild(context.Background(), []Entry{{Text: "alpha", Intent: IntentAircraft}})
	if err := idx.Save(indexPath, metaPath); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := NewIndex(NewMockEmbedder(8))
	if err := restored.Load(indexPath); err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Len() != 1 {
		t.Fatalf("expected 1 restored entry, got %d", restored.Len())
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	idx := NewIndex(NewMockEmbedder(8))
	if err := idx.Load(filepath.Join(os.TempDir(), "definitely-does-not-exist.jsonl")); err != nil {
		t.Fatalf("expected no error for a missing index file, got %v", err)
	}
}
