package agent

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/market"
)

func TestComposeSystemPrompt_NoData(t *testing.T) {
	if got := ComposeSystemPrompt("base", DataContext{}); got != "base" {
		t.Errorf("expected base unchanged, got %q", got)
	}
	empty := DataContext{Snapshot: &market.Snapshot{}}
	if got := ComposeSystemPrompt("base", empty); got != "base" {
		t.Errorf("empty snapshot should add nothing, got %q", got)
	}
}

func TestComposeSystemPrompt_Forecast(t *testing.T) {
	dc := DataContext{Forecasts: []forecast.Summary{{
		Series: market.Cete28, Weeks: 13,
		Next: 10.123, Mean: 10.5, Max: 11, Min: 9.999,
		Lower: 9.5, Upper: 10.75,
	}}}
	got := ComposeSystemPrompt("base", dc)

	for _, want := range []string{
		"INFORMACIÓN DE PRONÓSTICOS DISPONIBLE:",
		"- Pronóstico para la próxima semana: 10.12%",
		"- Pronóstico promedio (13 semanas): 10.50%",
		"- Pronóstico máximo: 11.00%",
		"- Pronóstico mínimo: 10.00%",
		"- Intervalo de confianza (próxima semana): 9.50% - 10.75%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "CETES 28 días:") {
		t.Error("single forecast should not get a per-series header")
	}
	if strings.Contains(got, "DATOS HISTÓRICOS") {
		t.Error("absent snapshot should add nothing")
	}
}

func TestComposeSystemPrompt_MultipleForecasts(t *testing.T) {
	dc := DataContext{Forecasts: []forecast.Summary{
		{Series: market.Cete28, Weeks: 4, Next: 10},
		{Series: market.Cete364, Weeks: 4, Next: 11},
	}}
	got := ComposeSystemPrompt("base", dc)
	if !strings.Contains(got, "CETES 28 días:") || !strings.Contains(got, "CETES 364 días:") {
		t.Errorf("expected per-series headers:\n%s", got)
	}
}

func TestComposeSystemPrompt_Snapshot(t *testing.T) {
	dc := DataContext{Snapshot: &market.Snapshot{
		Cetes: []market.SeriesStat{
			{Series: market.Cete28, Latest: 10.02, Mean: 7.456},
			{Series: market.Cete91, Latest: 10.3, Mean: 7.6},
		},
		Indicators: []market.Indicator{
			{Series: market.TasaObjetivo, Value: 10.25},
			{Series: market.TasaFED, Value: 4.33},
			{Series: market.TipoCambioFix, Value: 20.4567},
			{Series: market.INPC, Value: 137.949},
		},
	}}
	got := ComposeSystemPrompt("base", dc)

	for _, want := range []string{
		"INFORMACIÓN DE DATOS HISTÓRICOS DISPONIBLE:",
		"- 28 días: Última tasa 10.02%, Promedio 7.46%",
		"- 91 días: Última tasa 10.30%, Promedio 7.60%",
		"Variables económicas:",
		"- Tasa Objetivo: 10.25%",
		"- Tasa FED: 4.33%",
		"- Tipo de Cambio: $20.46",
		"- INPC: 137.95",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if !strings.HasPrefix(got, "base") {
		t.Error("base instruction must come first")
	}
}

func TestComposeSystemPrompt_Deterministic(t *testing.T) {
	dc := DataContext{Snapshot: market.SampleData(time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)).Snapshot()}
	if ComposeSystemPrompt("b", dc) != ComposeSystemPrompt("b", dc) {
		t.Error("composer output is not deterministic")
	}
}

func TestSeriesLabel(t *testing.T) {
	tests := map[string]string{
		market.Cete28:  "28 días",
		market.Cete182: "182 días",
		market.INPC:    "INPC",
	}
	for in, want := range tests {
		if got := SeriesLabel(in); got != want {
			t.Errorf("SeriesLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadDataContext(t *testing.T) {
	frame := market.SampleData(time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))
	store := &memStore{
		frame: frame,
		forecasts: map[string]forecast.Result{
			market.Cete28: {Series: market.Cete28, Points: []forecast.Point{{Value: 10, Lower: 9, Upper: 11}}},
		},
	}
	dc := LoadDataContext(store)
	if dc.Snapshot == nil || len(dc.Snapshot.Cetes) != 4 {
		t.Errorf("expected snapshot with 4 CETES series, got %+v", dc.Snapshot)
	}
	if len(dc.Forecasts) != 1 || dc.Forecasts[0].Next != 10 {
		t.Errorf("unexpected forecasts: %+v", dc.Forecasts)
	}

	broken := LoadDataContext(&memStore{err: errors.New("disk I/O error")})
	if broken.Snapshot != nil || len(broken.Forecasts) != 0 {
		t.Errorf("store errors should leave data out, got %+v", broken)
	}
	if dc := LoadDataContext(nil); dc.Snapshot != nil {
		t.Error("nil store should give empty context")
	}
}
