// Package config loads radar-core's configuration from a TOML file, the
// same way the same-domain co-atc project configures itself
// (github.com/BurntSushi/toml), with environment variables layered on top
// for secrets the teacher always kept out of the file (API keys, creds).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// BoundingBox is a lat/lon subscription box, e.g. for the AIS consumer.
type BoundingBox struct {
	SWLat float64 `toml:"sw_lat"`
	SWLon float64 `toml:"sw_lon"`
	NELat float64 `toml:"ne_lat"`
	NELon float64 `toml:"ne_lon"`
}

// Config is the full set of options enumerated in spec.md §6.
type Config struct {
	PollIntervalS     int     `toml:"poll_interval_s"`
	RebuildIntervalS  int     `toml:"rebuild_interval_s"`
	EmbedDim          int     `toml:"embed_dim"`
	VesselTTLS        int     `toml:"vessel_ttl_s"`
	NotamTTLS         int     `toml:"notam_ttl_s"`
	MetarTTLS         int     `toml:"metar_ttl_s"`
	WeatherTTLS       int     `toml:"weather_ttl_s"`
	RetentionDays     int     `toml:"retention_days"`
	LostContactTimeoutS int   `toml:"lost_contact_timeout_s"`

	AISBounds BoundingBox `toml:"ais_bounds"`

	AirspaceDir    string `toml:"airspace_dir"`
	SSRFile        string `toml:"ssr_file"`
	RegistryPath   string `toml:"registry_path"`
	HistoryDBPath  string `toml:"history_db_path"`
	SemanticIndexPath    string `toml:"semantic_index_path"`
	SemanticMetadataPath string `toml:"semantic_metadata_path"`

	UpstreamADSBURL  string `toml:"upstream_adsb_url"`
	UpstreamADSBFile string `toml:"upstream_adsb_file"`

	HTTPAddr string `toml:"http_addr"`

	// EnableStatusRepair gates the §4.5 consistency-repair guardrail; see
	// SPEC_FULL.md Open Question 1. Default true, matching observed
	// original behavior.
	EnableStatusRepair bool `toml:"enable_status_repair"`

	AirportsOfInterest []string `toml:"airports_of_interest"`

	// Secrets — never read from TOML, always from env, per the teacher's
	// practice of keeping OPENSKY_* / OPENAI_API_KEY out of any file.
	AISStreamAPIKey string `toml:"-"`
	EmbedderAPIKey  string `toml:"-"`
}

// Default returns the configuration baseline before a file is loaded,
// matching the defaults named throughout spec.md §4/§6.
func Default() Config {
	return Config{
		PollIntervalS:        3,
		RebuildIntervalS:     15,
		EmbedDim:             768,
		VesselTTLS:           600,
		NotamTTLS:            1800,
		MetarTTLS:            600,
		WeatherTTLS:          600,
		RetentionDays:        30,
		LostContactTimeoutS:  300,
		AirspaceDir:          "data/airspace",
		SSRFile:              "data/ssr_codes.txt",
		RegistryPath:         "data/registry.db",
		HistoryDBPath:        "data/history.sqlite",
		SemanticIndexPath:    "data/radar_index.bin",
		SemanticMetadataPath: "data/radar_metadata.jsonl",
		UpstreamADSBURL:      "http://localhost:8080/data/aircraft.json",
		UpstreamADSBFile:     "/tmp/aircraft.json",
		HTTPAddr:             ":8080",
		EnableStatusRepair:   true,
		AirportsOfInterest:   []string{"EGLL", "EGKK", "EGCC"},
	}
}

// Load reads a TOML file over the default baseline, then applies env
// overrides for secrets.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config %q: %w", path, err)
		}
	}
	cfg.AISStreamAPIKey = os.Getenv("AISSTREAM_API_KEY")
	cfg.EmbedderAPIKey = os.Getenv("EMBEDDER_API_KEY")
	return cfg, nil
}

func (c Config) PollInterval() time.Duration    { return time.Duration(c.PollIntervalS) * time.Second }
func (c Config) RebuildInterval() time.Duration  { return time.Duration(c.RebuildIntervalS) * time.Second }
func (c Config) VesselTTL() time.Duration        { return time.Duration(c.VesselTTLS) * time.Second }
func (c Config) NotamTTL() time.Duration         { return time.Duration(c.NotamTTLS) * time.Second }
func (c Config) MetarTTL() time.Duration         { return time.Duration(c.MetarTTLS) * time.Second }
func (c Config) WeatherTTL() time.Duration       { return time.Duration(c.WeatherTTLS) * time.Second }
func (c Config) RetentionDuration() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
func (c Config) LostContactTimeout() time.Duration {
	return time.Duration(c.LostContactTimeoutS) * time.Second
}
