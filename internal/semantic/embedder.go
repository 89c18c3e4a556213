package semantic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"google.golang.org/genai"
)

// GenAIEmbedder embeds text via the Gemini embedding API. It is the one
// concrete implementation of Embedder the spec keeps out of scope, wired
// here to exercise google.golang.org/genai rather than leaving that
// dependency unused.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
	dim    int
}

// NewGenAIEmbedder constructs an Embedder backed by a live Gemini API key.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string, dim int) (*GenAIEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model, dim: dim}, nil
}

func (e *GenAIEmbedder) Dim() int { return e.dim }

func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed content: empty response")
	}
	return resp.Embeddings[0].Values, nil
}

// MockEmbedder produces deterministic hash-derived vectors so round-trip
// tests never need live network access, per SPEC_FULL.md's C9 note.
type MockEmbedder struct {
	dim int
}

func NewMockEmbedder(dim int) *MockEmbedder { return &MockEmbedder{dim: dim} }

func (m *MockEmbedder) Dim() int { return m.dim }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out := make([]float32, m.dim)
	for i := range out {
		h := fnv.New32a()
		fmt.Fprintf(h, "%s#%d", text, i)
		// spread into [-1, 1] so normalization below is meaningful
		out[i] = float32(math.Mod(float64(h.Sum32()), 2000)-1000) / 1000
	}
	return out, nil
}
