// Package chatgen defines the downstream generator boundary spec.md §4.10
// keeps out of scope: turning retrieval context + historical data into a
// natural-language reply. Only a no-op stub is provided here; wiring a real
// LLM behind this interface is a deployment-time decision, not a C10
// concern.
package chatgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/wispayr/radar-core/internal/history"
)

// Generator turns retrieval context into a reply.
type Generator interface {
	GenerateReply(ctx context.Context, messages []string, historicalData []history.Event) (string, error)
}

// NoopGenerator echoes back the context it was given, with no model call.
// It satisfies Generator so the composition root can stand up /chat before
// a real generator is wired in.
type NoopGenerator struct{}

func (NoopGenerator) GenerateReply(ctx context.Context, messages []string, historicalData []history.Event) (string, error) {
	if len(messages) == 0 && len(historicalData) == 0 {
		return "No relevant context found.", nil
	}
	var b strings.Builder
	b.WriteString("Context:\n")
	for _, m := range messages {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	for _, e := range historicalData {
		fmt.Fprintf(&b, "- event %s for %s at t=%d\n", e.Kind, e.Hex, e.T)
	}
	return b.String(), nil
}
