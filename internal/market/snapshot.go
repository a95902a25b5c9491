package market

import (
	"math"
	"math/rand/v2"
	"time"
)

// SeriesStat is the latest and average value of one CETES term.
type SeriesStat struct {
	Series string  `json:"serie"`
	Latest float64 `json:"ultima_tasa"`
	Mean   float64 `json:"promedio"`
}

// Indicator is the latest value of an auxiliary economic series.
type Indicator struct {
	Series string  `json:"serie"`
	Value  float64 `json:"valor"`
}

// Snapshot summarizes a frame for prompts and tools.
type Snapshot struct {
	AsOf       time.Time    `json:"fecha"`
	Rows       int          `json:"registros"`
	Cetes      []SeriesStat `json:"cetes"`
	Indicators []Indicator  `json:"variables,omitempty"`
}

// Snapshot returns the per-series summary, or nil for an empty frame.
func (f *Frame) Snapshot() *Snapshot {
	if f.Empty() {
		return nil
	}
	s := &Snapshot{AsOf: f.Dates[len(f.Dates)-1], Rows: f.Len()}
	for _, name := range CetesSeries {
		last, ok := f.Last(name)
		if !ok {
			continue
		}
		mean, _ := f.Mean(name)
		s.Cetes = append(s.Cetes, SeriesStat{Series: name, Latest: last, Mean: mean})
	}
	for _, name := range ExogenousSeries {
		if v, ok := f.Last(name); ok {
			s.Indicators = append(s.Indicators, Indicator{Series: name, Value: v})
		}
	}
	return s
}

// Stat returns the summary for one CETES series.
func (s *Snapshot) Stat(series string) (SeriesStat, bool) {
	if s == nil {
		return SeriesStat{}, false
	}
	for _, st := range s.Cetes {
		if st.Series == series {
			return st, true
		}
	}
	return SeriesStat{}, false
}

// SampleData generates two years of weekly rows ending at now, with trend,
// yearly seasonality and noise. The output is deterministic for a given now.
// It stands in when the data provider is unreachable.
func SampleData(now time.Time) *Frame {
	dates := Thursdays(now.AddDate(0, 0, -730), now)
	n := len(dates)
	rng := rand.New(rand.NewPCG(42, 42))

	base := make([]float64, n)
	for i := range base {
		trend := 0.0
		if n > 1 {
			trend = 0.5 * float64(i) / float64(n-1)
		}
		season := 0.3 * math.Sin(2*math.Pi*float64(i)/52)
		base[i] = 11.0 + trend + season + rng.NormFloat64()*0.1
	}
	scaled := func(k float64) []float64 {
		out := make([]float64, n)
		for i, v := range base {
			out[i] = v * k
		}
		return out
	}

	fx := make([]float64, n)
	inpc := make([]float64, n)
	level := 100.0
	for i := range fx {
		fx[i] = 17.0 + rng.NormFloat64()*0.5
		level += 0.1 + rng.NormFloat64()*0.05
		inpc[i] = level
	}

	f := NewFrame(dates)
	f.Set(Cete28, base)
	f.Set(Cete91, scaled(1.15))
	f.Set(Cete182, scaled(1.25))
	f.Set(Cete364, scaled(1.35))
	f.Set(TasaObjetivo, scaled(0.95))
	f.Set(TasaFED, scaled(0.8))
	f.Set(TipoCambioFix, fx)
	f.Set(INPC, inpc)
	return f
}
