package metar

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseExtractsAllFields(t *testing.T) {
	raw := "EGLL 311020Z 25015G25KT 9999 -RA FEW015 BKN025 15/12 Q1013"
	r := Parse(raw, "NOAA")

	if r.ICAO != "EGLL" {
		t.Fatalf("got ICAO %q, want EGLL", r.ICAO)
	}
	if r.Wind == nil || r.Wind.DirectionDeg != 250 || r.Wind.SpeedKT != 15 {
		t.Fatalf("got wind %+v", r.Wind)
	}
	if r.Wind.GustKT == nil || *r.Wind.GustKT != 25 {
		t.Fatalf("got gust %v, want 25", r.Wind.GustKT)
	}
	if r.VisibilityM == nil || *r.VisibilityM != 9999 {
		t.Fatalf("got visibility %v", r.VisibilityM)
	}
	if r.TemperatureC == nil || *r.TemperatureC != 15 {
		t.Fatalf("got temperature %v", r.TemperatureC)
	}
	if r.DewpointC == nil || *r.DewpointC != 12 {
		t.Fatalf("got dewpoint %v", r.DewpointC)
	}
	if r.QNHhPa == nil || *r.QNHhPa != 1013 {
		t.Fatalf("got QNH %v", r.QNHhPa)
	}
	if r.Clouds == nil || r.Clouds.Type != "FEW" || r.Clouds.HeightFt != 1500 {
		t.Fatalf("got clouds %+v", r.Clouds)
	}
	if r.Weather == nil || r.Weather.Intensity != "-" || r.Weather.Phenomena != "RA" {
		t.Fatalf("got weather %+v", r.Weather)
	}
}

func TestParseNegativeTemperature(t *testing.T) {
	r := Parse("ENGM 311020Z 00000KT 9999 M05/M10 Q0995", "ALT")
	if r.TemperatureC == nil || *r.TemperatureC != -5 {
		t.Fatalf("got temperature %v, want -5", r.TemperatureC)
	}
	if r.DewpointC == nil || *r.DewpointC != -10 {
		t.Fatalf("got dewpoint %v, want -10", r.DewpointC)
	}
	if r.Wind == nil || r.Wind.SpeedKT != 0 {
		t.Fatalf("expected calm wind parsed, got %+v", r.Wind)
	}
}

func TestParseMissingFieldsStayNil(t *testing.T) {
	r := Parse("XXXX garbled text with no recognizable groups", "NOAA")
	if r.Wind != nil || r.VisibilityM != nil || r.TemperatureC != nil || r.QNHhPa != nil || r.Clouds != nil {
		t.Fatalf("expected all optional fields nil, got %+v", r)
	}
}

func TestGetFallsThroughSourcesInOrder(t *testing.T) {
	var tried []string
	noaa := func(ctx context.Context, icao string) (string, error) {
		tried = append(tried, "NOAA")
		return "", errors.New("unavailable")
	}
	alt := func(ctx context.Context, icao string) (string, error) {
		tried = append(tried, "ALT")
		return "EGLL 311020Z 25015KT 9999 Q1013", nil
	}

	feed := NewFeed(time.Minute,
		struct {
			Name string
			Fn   Source
		}{"NOAA", noaa},
		struct {
			Name string
			Fn   Source
		}{"ALT", alt},
	)

	report, err := feed.Get(context.Background(), "EGLL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Source != "ALT" {
		t.Fatalf("got source %q, want ALT (first successful)", report.Source)
	}
	if len(tried) != 2 || tried[0] != "NOAA" || tried[1] != "ALT" {
		t.Fatalf("expected NOAA tried before ALT, got %v", tried)
	}
}

func TestWeatherCellsFiltersByRadius(t *testing.T) {
	feed := NewWeatherFeed(func(ctx context.Context) ([]Cell, error) {
		return []Cell{
			{ID: "near", Lat: 51.5, Lon: -0.1},
			{ID: "far", Lat: 60.0, Lon: 5.0},
		}, nil
	}, time.Minute)

	cells, err := feed.WeatherCells(context.Background(), 51.5, -0.1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 1 || cells[0].ID != "near" {
		t.Fatalf("expected only near cell, got %+v", cells)
	}
}
