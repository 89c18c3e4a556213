package aircraft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/wispayr/radar-core/internal/apierr"
)

// Source fetches one upstream ADS-B snapshot. The poller tries sources in
// order and falls back on failure, per spec.md §4.5 "On HTTP failure, fall
// back to a local file cache".
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
	Name() string
}

// HTTPSource fetches the upstream JSON snapshot over HTTP, mirroring the
// teacher's fetchOpenSkyData client-timeout pattern.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (s *HTTPSource) Name() string { return "http:" + s.URL }

func (s *HTTPSource) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Snapshot{}, apierr.New(apierr.InvalidRequest, "aircraft.HTTPSource.Fetch", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return Snapshot{}, apierr.New(apierr.TransientNetwork, "aircraft.HTTPSource.Fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Snapshot{}, apierr.New(apierr.RateLimited, "aircraft.HTTPSource.Fetch", fmt.Errorf("429"))
	}
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, apierr.New(apierr.UpstreamUnavailable, "aircraft.HTTPSource.Fetch", fmt.Errorf("status %d", resp.StatusCode))
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, apierr.New(apierr.ParseError, "aircraft.HTTPSource.Fetch", err)
	}
	return snap, nil
}

// FileSource reads a cached snapshot from disk — the fallback path.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Fetch(ctx context.Context) (Snapshot, error) {
	body, err := os.ReadFile(s.Path)
	if err != nil {
		return Snapshot{}, apierr.New(apierr.UpstreamUnavailable, "aircraft.FileSource.Fetch", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return Snapshot{}, apierr.New(apierr.ParseError, "aircraft.FileSource.Fetch", err)
	}
	return snap, nil
}

// MockSource returns a fixed snapshot, restored from
// original_source/mock_data_generator.py as a test/dev fixture (dropped by
// the distillation; see SPEC_FULL.md §4 C5).
type MockSource struct {
	Snap Snapshot
}

func (s *MockSource) Name() string { return "mock" }

func (s *MockSource) Fetch(ctx context.Context) (Snapshot, error) {
	return s.Snap, nil
}

// FallbackSource tries each Source in order, returning the first success.
type FallbackSource struct {
	Sources []Source
}

func (s *FallbackSource) Name() string {
	if len(s.Sources) == 0 {
		return "fallback:empty"
	}
	return "fallback:" + s.Sources[0].Name()
}

func (s *FallbackSource) Fetch(ctx context.Context) (Snapshot, error) {
	var lastErr error
	for _, src := range s.Sources {
		snap, err := src.Fetch(ctx)
		if err == nil {
			return snap, nil
		}
		lastErr = err
	}
	return Snapshot{}, apierr.New(apierr.UpstreamUnavailable, "aircraft.FallbackSource.Fetch", lastErr)
}
