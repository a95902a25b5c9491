package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/chris/cetes/internal/llm"
	"github.com/chris/cetes/internal/logging"
	"github.com/chris/cetes/internal/market"
)

// ToolExecutor runs the calls of one assistant message. It returns exactly
// one tool message per call, in order, and never fails: errors are encoded in
// the message content.
type ToolExecutor interface {
	Execute(ctx context.Context, calls []llm.ToolCall) []llm.Message
}

// Executor implements the advisor tools on top of the market store.
type Executor struct {
	store MarketStore
	now   func() time.Time
}

func NewExecutor(store MarketStore) *Executor {
	return &Executor{store: store, now: time.Now}
}

func (e *Executor) Execute(ctx context.Context, calls []llm.ToolCall) []llm.Message {
	log := logging.Logger()
	out := make([]llm.Message, 0, len(calls))
	for _, tc := range calls {
		result := e.executeTool(tc.Name, tc.Params())
		log.Debug("tool executed", "tool", tc.Name, "tool_call_id", tc.ID, "result", truncate(result, 200))
		out = append(out, llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: tc.ID,
		})
	}
	return out
}

func (e *Executor) executeTool(name string, params map[string]any) string {
	var result any
	var err error

	switch name {
	case "calcular_rendimiento":
		result, err = e.calcularRendimiento(params)

	case "obtener_tasas_actuales":
		snap, e2 := e.snapshot()
		if e2 != nil {
			err = e2
		} else if snap == nil {
			result = map[string]any{"error": "no hay datos disponibles"}
		} else {
			result = snap
		}

	case "obtener_pronostico":
		series, _ := getString(params, "serie")
		if series == "" {
			series = market.Cete28
		}
		r, ok, e2 := e.forecastFor(series)
		if e2 != nil {
			err = e2
		} else if !ok {
			result = map[string]any{"error": "no hay pronóstico disponible", "serie": series}
		} else {
			result = r
		}

	case "obtener_fecha":
		now := e.now()
		result = map[string]any{
			"local": now.Format(time.RFC3339),
			"utc":   now.UTC().Format(time.RFC3339),
			"fecha": now.Format("2006-01-02"),
			"dia":   diasSemana[now.Weekday()],
		}

	default:
		result = map[string]any{"error": "unknown tool: " + name}
	}

	if err != nil {
		result = map[string]any{"error": err.Error()}
	}

	b, _ := json.Marshal(result) // result is always a simple map or struct; marshal cannot fail
	return string(b)
}

var diasSemana = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

// calcularRendimiento computes simple interest on the 360-day basis CETES use.
// When tasa is missing the latest rate of the term closest to plazo is used.
func (e *Executor) calcularRendimiento(params map[string]any) (any, error) {
	monto, ok := getFloat(params, "monto")
	if !ok || monto <= 0 {
		return nil, fmt.Errorf("monto debe ser un número positivo")
	}
	plazo, ok := getInt(params, "plazo")
	if !ok || plazo <= 0 {
		return nil, fmt.Errorf("plazo debe ser un número de días positivo")
	}

	fuente := "usuario"
	tasa, ok := getFloat(params, "tasa")
	if !ok || tasa <= 0 {
		series := nearestTerm(plazo)
		snap, err := e.snapshot()
		if err != nil {
			return nil, err
		}
		st, found := snap.Stat(series)
		if !found {
			return nil, fmt.Errorf("tasa no indicada y no hay datos de %s", series)
		}
		tasa, fuente = st.Latest, series
	}

	interes := monto * tasa / 100 * float64(plazo) / 360
	return map[string]any{
		"monto":          round2(monto),
		"tasa_anual":     round2(tasa),
		"plazo_dias":     plazo,
		"interes":        round2(interes),
		"monto_final":    round2(monto + interes),
		"tasa_periodo":   round4(tasa * float64(plazo) / 360),
		"fuente_de_tasa": fuente,
	}, nil
}

func (e *Executor) snapshot() (*market.Snapshot, error) {
	if e.store == nil {
		return nil, nil
	}
	f, err := e.store.LoadFrame()
	if err != nil {
		return nil, fmt.Errorf("cargando datos: %w", err)
	}
	return f.Snapshot(), nil
}

func (e *Executor) forecastFor(series string) (any, bool, error) {
	if e.store == nil {
		return nil, false, nil
	}
	r, ok, err := e.store.GetForecast(series)
	if err != nil || !ok {
		return nil, ok, err
	}
	s, _ := r.Summary()
	return map[string]any{"resumen": s, "pronosticos": r.Points}, true, nil
}

// nearestTerm maps a day count to the closest CETES term.
func nearestTerm(days int64) string {
	terms := []struct {
		days   int64
		series string
	}{{28, market.Cete28}, {91, market.Cete91}, {182, market.Cete182}, {364, market.Cete364}}
	best := terms[0]
	for _, t := range terms[1:] {
		if abs64(days-t.days) < abs64(days-best.days) {
			best = t
		}
	}
	return best.series
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }

// Param extraction helpers. JSON numbers arrive as float64.
func getInt(params map[string]any, key string) (int64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func getFloat(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func getString(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
