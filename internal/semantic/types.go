// Package semantic implements C9: a flat inner-product vector index over
// natural-language summaries of world state, rebuilt on a fixed cadence.
// Embedding is delegated to the Embedder interface (spec.md §4.9 keeps the
// embedder itself "out of scope, accessed via a thin interface"); this
// package owns the rebuild/query contract and persistence only.
package semantic

import "context"

// Intent narrows a query to a class of indexed entries (spec.md §4.9's
// query contract). Empty Intent means "no preference".
type Intent string

const (
	IntentAircraft Intent = "AIRCRAFT"
	IntentWeather  Intent = "WEATHER"
)

// Embedder produces a fixed-dimension embedding for one piece of text.
// google.golang.org/genai's GenAIEmbedder is the production implementation;
// MockEmbedder is a deterministic stand-in for tests.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// Entry is one indexed summary, tagged with the intent it matches.
type Entry struct {
	Text   string
	Intent Intent
}

// Result is one scored hit from Ask.
type Result struct {
	Text  string
	Score float32
}
