// Package httpapi implements the HTTP surface of spec.md §6: a structured
// {status, data, error, timestamp} envelope over every read path, plus a
// WebSocket broadcast of enriched state. Routing uses
// github.com/go-chi/chi/v5, with github.com/rs/cors wrapping the whole
// mux the way airspace_server.py's add_cors_headers/after_request wrap
// every Flask response.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/wispayr/radar-core/internal/ais"
	"github.com/wispayr/radar-core/internal/aircraft"
	"github.com/wispayr/radar-core/internal/chatgen"
	"github.com/wispayr/radar-core/internal/metar"
	"github.com/wispayr/radar-core/internal/notam"
	"github.com/wispayr/radar-core/internal/query"
)

// Server wires every component C10 fronts plus the live ingest tasks whose
// status the diagnostics endpoints surface.
type Server struct {
	Facade    *query.Facade
	Poller    *aircraft.Poller
	AIS       *ais.Consumer
	Notams    *notam.Feed
	Metars    *metar.Feed
	Weather   *metar.WeatherFeed
	Generator chatgen.Generator
	Hub       *Hub

	RebuildIndex func(ctx context.Context)
}

// Router builds the full chi mux with CORS applied in one outer handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/tmp/aircraft.json", s.handleAircraftSnapshot)
	r.Get("/api/airspace", s.handleAirspace)
	r.Get("/api/airspace/identify", s.handleAirspaceIdentify)
	r.Get("/api/notams", s.handleNotams)
	r.Get("/api/metar/{icao}", s.handleMetar)
	r.Get("/api/weather", s.handleWeather)
	r.Get("/api/coastline", s.handleCoastline)
	r.Get("/api/aircraft/history/{hex}", s.handleAircraftHistory)
	r.Get("/api/aircraft/summary/{hex}", s.handleAircraftSummary)
	r.Get("/api/aircraft/active", s.handleAircraftActive)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/database/stats", s.handleDatabaseStats)
	r.Get("/api/aircraft/lookup/{hex}", s.handleRegistryLookup)
	r.Get("/api/aircraft/search/registration/{prefix}", s.handleRegistrySearchRegistration)
	r.Get("/api/aircraft/search/type/{typeCode}", s.handleRegistrySearchType)
	r.Get("/api/ais/vessels", s.handleVessels)
	r.Get("/api/ais/status", s.handleAISStatus)
	r.Post("/api/ais/connect", s.handleAISConnect)
	r.Post("/api/ais/disconnect", s.handleAISDisconnect)
	r.Get("/api/ssr-codes", s.handleSSRCodes)
	r.Get("/ask", s.handleAsk)
	r.Get("/chat", s.handleChat)
	r.Post("/rebuild", s.handleRebuild)
	r.Get("/status", s.handleStatus)
	r.Get("/debug", s.handleDebug)
	r.Get("/ws", s.Hub.ServeHTTP)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
