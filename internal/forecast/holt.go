package forecast

import (
	"math"

	"github.com/chris/cetes/internal/market"
)

const z95 = 1.96

// Holt is double exponential smoothing (level + trend). Smoothing weights are
// chosen by grid search on one-step-ahead squared error; the band is
// ±1.96·σ·√h where σ is the in-sample one-step error.
type Holt struct {
	// MinPoints is the shortest history accepted. Zero means 8.
	MinPoints int
}

var holtGrid = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95}

func (h Holt) Forecast(f *market.Frame, series string, weeks int) (Result, bool) {
	minPoints := h.MinPoints
	if minPoints <= 0 {
		minPoints = 8
	}
	y, ok := f.Column(series)
	if !ok || len(y) < minPoints || weeks <= 0 {
		return Result{}, false
	}

	best := math.Inf(1)
	var level, trend float64
	for _, a := range holtGrid {
		for _, b := range holtGrid {
			sse, l, t := holtFit(y, a, b)
			if sse < best {
				best, level, trend = sse, l, t
			}
		}
	}
	if math.IsInf(best, 1) || math.IsNaN(best) {
		return Result{}, false
	}
	sigma := math.Sqrt(best / float64(len(y)-1))

	dates := market.NextThursdays(f.Dates[len(f.Dates)-1], weeks)
	r := Result{Series: series, Points: make([]Point, len(dates))}
	for i, d := range dates {
		step := float64(i + 1)
		v := level + step*trend
		band := z95 * sigma * math.Sqrt(step)
		r.Points[i] = Point{Date: d, Value: v, Lower: v - band, Upper: v + band}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, false
		}
	}
	return r, true
}

// holtFit runs the recursions and returns the one-step SSE and final state.
func holtFit(y []float64, alpha, beta float64) (sse, level, trend float64) {
	level = y[0]
	trend = y[1] - y[0]
	for _, obs := range y[1:] {
		pred := level + trend
		e := obs - pred
		sse += e * e
		prev := level
		level = alpha*obs + (1-alpha)*pred
		trend = beta*(level-prev) + (1-beta)*trend
	}
	return sse, level, trend
}
