// Command radar is the composition root: it wires C1-C10, starts every
// background task as one cooperative goroutine group, and serves the HTTP
// API until a shutdown signal arrives. Generalized from the teacher's
// main() (GChief117-SwarmC2), which wired module-level globals directly;
// here every component is constructed and passed in explicitly, per
// spec.md §9's "shared module-level state is replaced by explicit
// dependency injection" design note.
package main

import (
	"context"
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wispayr/radar-core/internal/ais"
	"github.com/wispayr/radar-core/internal/aircraft"
	"github.com/wispayr/radar-core/internal/airspace"
	"github.com/wispayr/radar-core/internal/chatgen"
	"github.com/wispayr/radar-core/internal/config"
	"github.com/wispayr/radar-core/internal/history"
	"github.com/wispayr/radar-core/internal/httpapi"
	"github.com/wispayr/radar-core/internal/metar"
	"github.com/wispayr/radar-core/internal/notam"
	"github.com/wispayr/radar-core/internal/query"
	"github.com/wispayr/radar-core/internal/registry"
	"github.com/wispayr/radar-core/internal/semantic"
	"github.com/wispayr/radar-core/internal/ssr"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: colorable.NewColorableStdout(), TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("radar: config load failed")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("radar: fatal startup error")
	}
}

func run(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	airspaceIdx, err := airspace.Load(cfg.AirspaceDir)
	if err != nil {
		log.Warn().Err(err).Msg("radar: airspace corpus load failed, continuing with empty index")
		airspaceIdx = airspace.New(nil)
	}
	log.Info().Int("zones", airspaceIdx.Len()).Msg("radar: airspace index loaded")

	ssrCatalog, err := ssr.Load(cfg.SSRFile)
	if err != nil {
		log.Warn().Err(err).Msg("radar: ssr catalog load failed, continuing with empty catalog")
		ssrCatalog = &ssr.Catalog{}
	}
	log.Info().Int("codes", ssrCatalog.Len()).Msg("radar: ssr catalog loaded")

	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer reg.Close()

	hist, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer hist.Close()

	embedder := buildEmbedder(ctx, cfg)
	semIndex := semantic.NewIndex(embedder)
	if err := semIndex.Load(cfg.SemanticIndexPath); err != nil {
		log.Warn().Err(err).Msg("radar: semantic index restore failed, starting empty")
	}

	alerts := make(chan aircraft.Alert, 64)

	source := &aircraft.FallbackSource{Sources: []aircraft.Source{
		aircraft.NewHTTPSource(cfg.UpstreamADSBURL),
		&aircraft.FileSource{Path: cfg.UpstreamADSBFile},
	}}

	poller := &aircraft.Poller{
		Source:   source,
		Airspace: airspaceIdx,
		SSR:      ssrCatalog,
		Registry: aircraft.NewRegistryLookup(func(hex string) (aircraft.RegistryInfo, bool) {
			rec, err := reg.Lookup(hex)
			if err != nil {
				return aircraft.RegistryInfo{}, false
			}
			return aircraft.RegistryInfo{
				Registration: rec.Registration,
				TypeCode:     rec.TypeCode,
				Manufacturer: rec.Manufacturer,
				Operator:     rec.Operator,
			}, true
		}),
		Store:              hist,
		Alerts:             alerts,
		EnableStatusRepair: cfg.EnableStatusRepair,
	}

	aisConsumer := ais.NewConsumer(cfg.AISStreamAPIKey, ais.Bounds{
		South: cfg.AISBounds.SWLat, West: cfg.AISBounds.SWLon,
		North: cfg.AISBounds.NELat, East: cfg.AISBounds.NELon,
	})

	notamFeed := notam.NewFeed(fetchUKNotams, cfg.NotamTTL())
	metarFeed := metar.NewFeed(cfg.MetarTTL(),
		struct {
			Name string
			Fn   metar.Source
		}{"NOAA", fetchNOAAMetar},
		struct {
			Name string
			Fn   metar.Source
		}{"ALTERNATE", fetchAlternateMetar},
	)
	weatherFeed := metar.NewWeatherFeed(func(ctx context.Context) ([]metar.Cell, error) {
		return nil, nil // no live regional cell source wired; cache stays empty until one is configured
	}, cfg.WeatherTTL())

	facade := &query.Facade{
		Semantic: semIndex,
		History:  hist,
		Airspace: airspaceIdx,
		SSR:      ssrCatalog,
		Registry: reg,
		Vessels:  aisConsumer.Vessels,
	}

	hub := httpapi.NewHub()
	poller.OnTick = func(batch []aircraft.Contact) {
		hub.Broadcast(httpapi.Frame{Topic: "aircraft", Data: batch})
	}

	rebuild := func(ctx context.Context) {
		rebuildSemanticIndex(ctx, semIndex, poller, notamFeed, metarFeed, cfg)
		if err := semIndex.Save(cfg.SemanticIndexPath, cfg.SemanticMetadataPath); err != nil {
			log.Warn().Err(err).Msg("radar: semantic index persist failed")
		}
	}

	server := &httpapi.Server{
		Facade:       facade,
		Poller:       poller,
		AIS:          aisConsumer,
		Notams:       notamFeed,
		Metars:       metarFeed,
		Weather:      weatherFeed,
		Generator:    chatgen.NoopGenerator{},
		Hub:          hub,
		RebuildIndex: rebuild,
	}

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router()}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { poller.Run(gctx, cfg.PollInterval()); return nil })
	g.Go(func() error { aisConsumer.Run(gctx); return nil })
	g.Go(func() error { aisConsumer.Janitor(gctx, cfg.VesselTTL()); return nil })
	g.Go(func() error { runRebuildTicker(gctx, rebuild, cfg.RebuildInterval()); return nil })
	g.Go(func() error { runCleanupTicker(gctx, hist, cfg.RetentionDays); return nil })
	g.Go(func() error { runLostContactTicker(gctx, hist, cfg.LostContactTimeout()); return nil })
	g.Go(func() error { return serveHTTP(gctx, httpServer) })

	log.Info().Str("addr", cfg.HTTPAddr).Msg("radar: listening")
	return g.Wait()
}

func buildEmbedder(ctx context.Context, cfg config.Config) semantic.Embedder {
	if cfg.EmbedderAPIKey == "" {
		log.Warn().Msg("radar: no embedder api key configured, using deterministic mock embedder")
		return semantic.NewMockEmbedder(cfg.EmbedDim)
	}
	emb, err := semantic.NewGenAIEmbedder(ctx, cfg.EmbedderAPIKey, "text-embedding-004", cfg.EmbedDim)
	if err != nil {
		log.Warn().Err(err).Msg("radar: genai embedder construction failed, falling back to mock")
		return semantic.NewMockEmbedder(cfg.EmbedDim)
	}
	return emb
}

func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func runRebuildTicker(ctx context.Context, rebuild func(context.Context), interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rebuild(ctx)
		}
	}
}

func runCleanupTicker(ctx context.Context, hist *history.Store, retentionDays int) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := hist.Cleanup(ctx, retentionDays); err != nil {
				log.Error().Err(err).Msg("radar: history cleanup failed")
			} else if n > 0 {
				log.Info().Int("deleted", n).Msg("radar: history cleanup removed stale contacts")
			}
		}
	}
}

// runLostContactTicker polls for aircraft gone quiet past threshold and
// emits LOST_CONTACT events, on a quarter of the threshold so a lapse is
// caught promptly without hammering the summary table.
func runLostContactTicker(ctx context.Context, hist *history.Store, threshold time.Duration) {
	interval := threshold / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := hist.DetectLostContacts(ctx, threshold); err != nil {
				log.Error().Err(err).Msg("radar: lost-contact scan failed")
			} else if n > 0 {
				log.Info().Int("count", n).Msg("radar: lost-contact events emitted")
			}
		}
	}
}

// rebuildSemanticIndex assembles the world snapshot named in spec.md §4.9 —
// tracked aircraft summarized to one sentence each, top-N NOTAMs, and
// METARs for the configured airports of interest — and triggers a rebuild.
func rebuildSemanticIndex(ctx context.Context, idx *semantic.Index, poller *aircraft.Poller, notams *notam.Feed, metars *metar.Feed, cfg config.Config) {
	var entries []semantic.Entry

	for _, c := range poller.Latest() {
		entries = append(entries, semantic.Entry{Text: summarizeAircraft(c), Intent: semantic.IntentAircraft})
	}

	if list, err := notams.All(ctx); err == nil {
		const topN = 20
		if len(list) > topN {
			list = list[:topN]
		}
		for _, n := range list {
			entries = append(entries, semantic.Entry{Text: fmt.Sprintf("NOTAM %s (%s priority): %s", n.ID, n.Priority, n.Description)})
		}
	}

	for _, icao := range cfg.AirportsOfInterest {
		report, err := metars.Get(ctx, icao)
		if err != nil {
			continue
		}
		entries = append(entries, semantic.Entry{Text: summarizeMetar(report), Intent: semantic.IntentWeather})
	}

	idx.Rebuild(ctx, entries)
}

func summarizeAircraft(c aircraft.Contact) string {
	alt := "unknown altitude"
	if c.AltBaro != nil {
		alt = fmt.Sprintf("%.0f ft", *c.AltBaro)
	}
	callsign := c.Callsign
	if callsign == "" {
		callsign = c.Hex
	}
	return fmt.Sprintf("ADS-B: %s at %s, phase %s", callsign, alt, c.Phase)
}

func summarizeMetar(r metar.Report) string {
	temp := "unknown temp"
	if r.TemperatureC != nil {
		temp = fmt.Sprintf("%d°C", *r.TemperatureC)
	}
	return fmt.Sprintf("METAR %s: Temp %s", r.ICAO, temp)
}

// ukNotamXML mirrors the handful of fields parse_notam_xml_element reads
// off the UK NOTAM archive's <Notam> elements.
type ukNotamXML struct {
	XMLName xml.Name     `xml:"Pib"`
	Notams  []ukNotamElem `xml:"Notam"`
}

type ukNotamElem struct {
	ItemA string `xml:"ItemA"`
	ItemE string `xml:"ItemE"`
}

// fetchUKNotams retrieves and flattens the UK NOTAM archive into
// id -> raw description text, grounded on
// original_source/airspace_server.py's fetch_live_notams/parse_notam_xml.
func fetchUKNotams(ctx context.Context) (map[string]string, error) {
	const url = "https://raw.githubusercontent.com/Jonty/uk-notam-archive/refs/heads/main/data/PIB.xml"
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var doc ukNotamXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode uk notam archive: %w", err)
	}

	out := make(map[string]string, len(doc.Notams))
	for i, n := range doc.Notams {
		id := n.ItemA
		if id == "" {
			id = fmt.Sprintf("UNKNOWN_%d", i)
		}
		out[id] = n.ItemE
	}
	return out, nil
}

// fetchNOAAMetar tries the NOAA aviationweather.gov raw-text endpoint, the
// primary source named in spec.md §4.7's "NOAA -> alternate -> UK regional"
// order.
func fetchNOAAMetar(ctx context.Context, icao string) (string, error) {
	url := fmt.Sprintf("https://aviationweather.gov/cgi-bin/data/metar.php?ids=%s&format=raw", icao)
	return fetchText(ctx, url)
}

// fetchAlternateMetar is the regional fallback tried when NOAA fails.
func fetchAlternateMetar(ctx context.Context, icao string) (string, error) {
	url := fmt.Sprintf("https://api.met.no/weatherapi/metar/1.0/?icao=%s", icao)
	return fetchText(ctx, url)
}

func fetchText(ctx context.Context, url string) (string, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metar fetch: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
