package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/wispayr/radar-core/internal/ais"
	"github.com/wispayr/radar-core/internal/aircraft"
	"github.com/wispayr/radar-core/internal/airspace"
	"github.com/wispayr/radar-core/internal/chatgen"
	"github.com/wispayr/radar-core/internal/history"
	"github.com/wispayr/radar-core/internal/metar"
	"github.com/wispayr/radar-core/internal/notam"
	"github.com/wispayr/radar-core/internal/query"
	"github.com/wispayr/radar-core/internal/registry"
	"github.com/wispayr/radar-core/internal/semantic"
	"github.com/wispayr/radar-core/internal/ssr"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	hist, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	idx := semantic.NewIndex(semantic.NewMockEmbedder(8))
	idx.Rebuild(context.Background(), []semantic.Entry{{Text: "ADS-B: BAW1 at 35000 ft", Intent: semantic.IntentAircraft}})

	facade := &query.Facade{
		Semantic: idx,
		History:  hist,
		Airspace: airspace.New(nil),
		SSR:      &ssr.Catalog{},
		Registry: reg,
		Vessels:  ais.NewVesselMap(),
	}

	notamFeed := notam.NewFeed(func(ctx context.Context) (map[string]string, error) {
		return map[string]string{"n1": "RUNWAY CLOSED AT EGLL"}, nil
	}, time.Minute)

	metarFeed := metar.NewFeed(time.Minute, struct {
		Name string
		Fn   metar.Source
	}{"NOAA", func(ctx context.Context, icao string) (string, error) {
		return icao + " 311020Z 25010KT 9999 Q1013", nil
	}})

	weatherFeed := metar.NewWeatherFeed(func(ctx context.Context) ([]metar.Cell, error) {
		return nil, nil
	}, time.Minute)

	poller := &aircraft.Poller{}
	aisConsumer := ais.NewConsumer("key", ais.Bounds{})

	return &Server{
		Facade:    facade,
		Poller:    poller,
		AIS:       aisConsumer,
		Notams:    notamFeed,
		Metars:    metarFeed,
		Weather:   weatherFeed,
		Generator: chatgen.NoopGenerator{},
		Hub:       NewHub(),
	}
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return e
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body.Bytes())
	if env.Status != "ok" {
		t.Fatalf("got envelope status %q, want ok", env.Status)
	}
}

func TestAskEndpointReturnsSemanticResults(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ask?q=how+many+aircraft&threshold=0&max_results=1", nil)
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr.Body.Bytes())
	if env.Status != "ok" {
		t.Fatalf("got envelope status %q", env.Status)
	}
}

func TestMetarEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/metar/EGLL", nil)
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegistryLookupMissingReturns404(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/aircraft/lookup/ABC123", nil)
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rr.Code)
	}
}

func TestAISDisconnectThenConnectTogglesPaused(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/ais/disconnect", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("disconnect: got status %d", rr.Code)
	}
	if !s.AIS.Paused() {
		t.Fatalf("expected AIS consumer paused after disconnect")
	}

	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/ais/connect", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("connect: got status %d", rr.Code)
	}
	if s.AIS.Paused() {
		t.Fatalf("expected AIS consumer resumed after connect")
	}
}

func TestCoastlineEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/coastline?lat=51&lon=0&region=PRESTWICK", nil)
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", rr.Code, rr.Body.String())
	}
}

func TestSSRCodesRequiresCodeOrCategory(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ssr-codes", nil)
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rr.Code)
	}
}
