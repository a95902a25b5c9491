package agent

import (
	"fmt"
	"strings"

	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/logging"
	"github.com/chris/cetes/internal/market"
)

// DataContext is the optional market data injected into a turn's system
// prompt. Either field may be empty.
type DataContext struct {
	Snapshot  *market.Snapshot
	Forecasts []forecast.Summary
}

// MarketStore is the read side of the data store used by prompts and tools.
type MarketStore interface {
	LoadFrame() (*market.Frame, error)
	GetForecast(series string) (forecast.Result, bool, error)
	ListForecasts() ([]forecast.Result, error)
}

// LoadDataContext reads the latest snapshot and forecasts. Store errors are
// logged and the affected part is left out.
func LoadDataContext(store MarketStore) DataContext {
	var dc DataContext
	if store == nil {
		return dc
	}
	log := logging.Logger()

	frame, err := store.LoadFrame()
	if err != nil {
		log.Warn("loading market data for prompt", "err", err)
	} else {
		dc.Snapshot = frame.Snapshot()
	}

	results, err := store.ListForecasts()
	if err != nil {
		log.Warn("loading forecasts for prompt", "err", err)
	}
	for _, r := range results {
		if s, ok := r.Summary(); ok {
			dc.Forecasts = append(dc.Forecasts, s)
		}
	}
	return dc
}

// ComposeSystemPrompt appends forecast and market data to the base
// instruction. Absent data adds nothing. Numbers are printed with two
// decimals.
func ComposeSystemPrompt(base string, dc DataContext) string {
	var b strings.Builder
	b.WriteString(base)

	if len(dc.Forecasts) > 0 {
		b.WriteString("\n\nINFORMACIÓN DE PRONÓSTICOS DISPONIBLE:\n")
		for i, s := range dc.Forecasts {
			if len(dc.Forecasts) > 1 {
				if i > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "CETES %s:\n", SeriesLabel(s.Series))
			}
			fmt.Fprintf(&b, "- Pronóstico para la próxima semana: %.2f%%\n", s.Next)
			fmt.Fprintf(&b, "- Pronóstico promedio (%d semanas): %.2f%%\n", s.Weeks, s.Mean)
			fmt.Fprintf(&b, "- Pronóstico máximo: %.2f%%\n", s.Max)
			fmt.Fprintf(&b, "- Pronóstico mínimo: %.2f%%\n", s.Min)
			fmt.Fprintf(&b, "- Intervalo de confianza (próxima semana): %.2f%% - %.2f%%\n", s.Lower, s.Upper)
		}
	}

	snap := dc.Snapshot
	if snap == nil || (len(snap.Cetes) == 0 && len(snap.Indicators) == 0) {
		return b.String()
	}
	b.WriteString("\nINFORMACIÓN DE DATOS HISTÓRICOS DISPONIBLE:")
	for _, st := range snap.Cetes {
		fmt.Fprintf(&b, "\n- %s: Última tasa %.2f%%, Promedio %.2f%%", SeriesLabel(st.Series), st.Latest, st.Mean)
	}
	if len(snap.Indicators) > 0 {
		b.WriteString("\n\nVariables económicas:")
		for _, ind := range snap.Indicators {
			b.WriteString("\n- " + indicatorLine(ind))
		}
	}
	return b.String()
}

// SeriesLabel turns CETE_28D into "28 días". Other names pass through.
func SeriesLabel(series string) string {
	if !strings.HasPrefix(series, "CETE_") {
		return series
	}
	return strings.Replace(strings.TrimPrefix(series, "CETE_"), "D", " días", 1)
}

func indicatorLine(ind market.Indicator) string {
	switch ind.Series {
	case market.TasaObjetivo:
		return fmt.Sprintf("Tasa Objetivo: %.2f%%", ind.Value)
	case market.TasaFED:
		return fmt.Sprintf("Tasa FED: %.2f%%", ind.Value)
	case market.TipoCambioFix:
		return fmt.Sprintf("Tipo de Cambio: $%.2f", ind.Value)
	case market.INPC:
		return fmt.Sprintf("INPC: %.2f", ind.Value)
	default:
		return fmt.Sprintf("%s: %.2f", ind.Series, ind.Value)
	}
}
