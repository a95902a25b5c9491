// Package forecast produces weekly rate forecasts with confidence bands.
package forecast

import (
	"math"
	"time"

	"github.com/chris/cetes/internal/market"
)

// Point is one forecast horizon.
type Point struct {
	Date  time.Time `json:"fecha"`
	Value float64   `json:"pronostico"`
	Lower float64   `json:"limite_inferior"`
	Upper float64   `json:"limite_superior"`
}

// Result is a forecast table for one series.
type Result struct {
	Series string  `json:"serie"`
	Points []Point `json:"pronosticos"`
}

// Engine fits a model to one series of a frame and forecasts weeks ahead.
// ok is false when no forecast can be produced; engines never return errors.
type Engine interface {
	Forecast(f *market.Frame, series string, weeks int) (r Result, ok bool)
}

// Summary condenses a result for the system prompt.
type Summary struct {
	Series string  `json:"serie"`
	Weeks  int     `json:"semanas"`
	Next   float64 `json:"proxima_semana"`
	Mean   float64 `json:"promedio"`
	Max    float64 `json:"maximo"`
	Min    float64 `json:"minimo"`
	Lower  float64 `json:"limite_inferior"`
	Upper  float64 `json:"limite_superior"`
}

// Summary returns next-week value, mean, max, min and the next-week interval.
func (r Result) Summary() (Summary, bool) {
	if len(r.Points) == 0 {
		return Summary{}, false
	}
	first := r.Points[0]
	s := Summary{
		Series: r.Series,
		Weeks:  len(r.Points),
		Next:   first.Value,
		Max:    math.Inf(-1),
		Min:    math.Inf(1),
		Lower:  first.Lower,
		Upper:  first.Upper,
	}
	var sum float64
	for _, p := range r.Points {
		sum += p.Value
		s.Max = math.Max(s.Max, p.Value)
		s.Min = math.Min(s.Min, p.Value)
	}
	s.Mean = sum / float64(len(r.Points))
	return s, true
}

// Target picks the series to forecast: preferred when the frame has it,
// otherwise the first CETES term present.
func Target(f *market.Frame, preferred string) (string, bool) {
	if f.Has(preferred) {
		return preferred, true
	}
	for _, s := range market.CetesSeries {
		if f.Has(s) {
			return s, true
		}
	}
	return "", false
}
