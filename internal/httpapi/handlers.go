package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wispayr/radar-core/internal/notam"
	"github.com/wispayr/radar-core/internal/ssr"
)

func ssrCategory(s string) ssr.Category { return ssr.Category(s) }

func floatParam(r *http.Request, name string, def float64) float64 {
	if v := r.URL.Query().Get(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (s *Server) handleAircraftSnapshot(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.Poller.Latest())
}

func (s *Server) handleAirspace(w http.ResponseWriter, r *http.Request) {
	lat := floatParam(r, "lat", 0)
	lon := floatParam(r, "lon", 0)
	rangeNM := floatParam(r, "range", 25)
	writeOK(w, s.Facade.AirspaceExportView(lat, lon, rangeNM))
}

func (s *Server) handleAirspaceIdentify(w http.ResponseWriter, r *http.Request) {
	lat := floatParam(r, "lat", 0)
	lon := floatParam(r, "lon", 0)
	var altPtr *float64
	if v := r.URL.Query().Get("altitude"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			altPtr = &f
		}
	}
	zones, description := s.Facade.AirspaceIdentify(lat, lon, altPtr)
	writeOK(w, map[string]any{"zones": zones, "description": description})
}

func (s *Server) handleNotams(w http.ResponseWriter, r *http.Request) {
	lat := floatParam(r, "lat", 0)
	lon := floatParam(r, "lon", 0)
	rangeNM := floatParam(r, "range", 50)
	category := notam.Category(r.URL.Query().Get("category"))
	priority := notam.Priority(r.URL.Query().Get("priority"))

	out, err := s.Notams.Within(r.Context(), lat, lon, rangeNM, category, priority)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeOK(w, out)
}

func (s *Server) handleMetar(w http.ResponseWriter, r *http.Request) {
	icao := chi.URLParam(r, "icao")
	report, err := s.Metars.Get(r.Context(), icao)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeOK(w, report)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	lat := floatParam(r, "lat", 0)
	lon := floatParam(r, "lon", 0)
	rangeNM := floatParam(r, "range", 50)
	cells, err := s.Weather.WeatherCells(r.Context(), lat, lon, rangeNM)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeOK(w, cells)
}

// handleCoastline serves geographic features within range, grounded on the
// same regional/coastline fetch-on-miss shape as /api/weather (see
// DESIGN.md's C7 note) — this module has no separate coastline corpus, so
// the two endpoints share one feed.
func (s *Server) handleCoastline(w http.ResponseWriter, r *http.Request) {
	lat := floatParam(r, "lat", 0)
	lon := floatParam(r, "lon", 0)
	rangeNM := floatParam(r, "range", 50)
	features, err := s.Weather.WeatherCells(r.Context(), lat, lon, rangeNM)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	region := r.URL.Query().Get("region")
	writeOK(w, map[string]any{"features": features, "region": region})
}

func (s *Server) handleAircraftHistory(w http.ResponseWriter, r *http.Request) {
	hex := chi.URLParam(r, "hex")
	hours := intParam(r, "hours", 24)
	out, err := s.Facade.AircraftHistory(r.Context(), hex, hours)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, out)
}

func (s *Server) handleAircraftSummary(w http.ResponseWriter, r *http.Request) {
	hex := chi.URLParam(r, "hex")
	sum, err := s.Facade.AircraftSummary(r.Context(), hex)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sum == nil {
		writeError(w, http.StatusNotFound, "no summary for hex")
		return
	}
	writeOK(w, sum)
}

func (s *Server) handleAircraftActive(w http.ResponseWriter, r *http.Request) {
	minutes := intParam(r, "minutes", 15)
	out, err := s.Facade.ActiveAircraft(r.Context(), minutes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	hex := r.URL.Query().Get("hex")
	kind := r.URL.Query().Get("kind")
	hours := intParam(r, "hours", 24)
	out, err := s.Facade.Events(r.Context(), hex, kind, hours)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, out)
}

func (s *Server) handleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Facade.DatabaseStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, stats)
}

func (s *Server) handleRegistryLookup(w http.ResponseWriter, r *http.Request) {
	hex := chi.URLParam(r, "hex")
	rec, err := s.Facade.RegistryLookup(hex)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeOK(w, rec)
}

func (s *Server) handleRegistrySearchRegistration(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")
	out, err := s.Facade.RegistrySearchRegistration(prefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, out)
}

func (s *Server) handleRegistrySearchType(w http.ResponseWriter, r *http.Request) {
	typeCode := chi.URLParam(r, "typeCode")
	out, err := s.Facade.RegistrySearchType(typeCode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, out)
}

func (s *Server) handleVessels(w http.ResponseWriter, r *http.Request) {
	lat := floatParam(r, "lat", 0)
	lon := floatParam(r, "lon", 0)
	rangeNM := floatParam(r, "range", 25)
	writeOK(w, s.Facade.VesselsInRange(lat, lon, rangeNM))
}

func (s *Server) handleAISStatus(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{
		"halted":          s.AIS.Halted(),
		"paused":          s.AIS.Paused(),
		"tracked_vessels": s.AIS.Vessels.Len(),
	})
}

func (s *Server) handleAISConnect(w http.ResponseWriter, r *http.Request) {
	s.AIS.Connect()
	writeOK(w, map[string]any{"paused": s.AIS.Paused()})
}

func (s *Server) handleAISDisconnect(w http.ResponseWriter, r *http.Request) {
	s.AIS.Disconnect()
	writeOK(w, map[string]any{"paused": s.AIS.Paused()})
}

func (s *Server) handleSSRCodes(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("code"); code != "" {
		c, ok := s.Facade.SSRLookup(code)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown squawk code")
			return
		}
		writeOK(w, c)
		return
	}
	if category := r.URL.Query().Get("category"); category != "" {
		writeOK(w, s.Facade.SSRByCategory(ssrCategory(category)))
		return
	}
	writeError(w, http.StatusBadRequest, "code or category required")
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	threshold := float32(floatParam(r, "threshold", 0.5))
	maxResults := intParam(r, "max_results", 5)
	results, err := s.Facade.Ask(r.Context(), q, threshold, maxResults)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, results)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	threshold := float32(floatParam(r, "threshold", 0.5))
	maxContext := intParam(r, "max_context", 5)

	resp, err := s.Facade.Chat(r.Context(), q, threshold, maxContext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := s.Generator.GenerateReply(r.Context(), resp.ContextMessages, resp.HistoricalData)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := map[string]any{"reply": reply}
	if r.URL.Query().Get("show_context") == "true" {
		out["context_messages"] = resp.ContextMessages
		out["historical_data"] = resp.HistoricalData
	}
	writeOK(w, out)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if s.RebuildIndex == nil {
		writeError(w, http.StatusServiceUnavailable, "rebuild not wired")
		return
	}
	s.RebuildIndex(r.Context())
	writeOK(w, map[string]any{"rebuilt": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{
		"ais_halted":        s.AIS.Halted(),
		"ais_paused":        s.AIS.Paused(),
		"tracked_vessels":   s.AIS.Vessels.Len(),
		"websocket_clients": s.Hub.ClientCount(),
	})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{
		"latest_aircraft_count": len(s.Poller.Latest()),
		"tracked_vessels":       s.AIS.Vessels.Len(),
		"ais_halted":            s.AIS.Halted(),
	})
}
