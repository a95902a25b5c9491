package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/chris/cetes/internal/market"
)

func linearFrame(n int, start, slope float64) *market.Frame {
	from := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC) // Thursday
	dates := market.Thursdays(from, from.AddDate(0, 0, 7*(n-1)))
	vals := make([]float64, len(dates))
	for i := range vals {
		vals[i] = start + slope*float64(i)
	}
	f := market.NewFrame(dates)
	f.Set(market.Cete28, vals)
	return f
}

func TestHolt_LinearSeries(t *testing.T) {
	f := linearFrame(40, 10, 0.05)
	r, ok := Holt{}.Forecast(f, market.Cete28, 4)
	if !ok {
		t.Fatal("expected forecast")
	}
	if len(r.Points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(r.Points))
	}
	last := 10 + 0.05*39
	for i, p := range r.Points {
		want := last + 0.05*float64(i+1)
		if math.Abs(p.Value-want) > 1e-6 {
			t.Errorf("point %d = %v, want %v", i, p.Value, want)
		}
		if p.Lower > p.Value || p.Upper < p.Value {
			t.Errorf("point %d interval [%v, %v] excludes value %v", i, p.Lower, p.Upper, p.Value)
		}
		if p.Date.Weekday() != time.Thursday {
			t.Errorf("point %d date %s is not a Thursday", i, p.Date)
		}
	}
	if !r.Points[0].Date.Equal(f.Dates[len(f.Dates)-1].AddDate(0, 0, 7)) {
		t.Errorf("first forecast date = %s", r.Points[0].Date)
	}
}

func TestHolt_IntervalWidens(t *testing.T) {
	f := market.SampleData(time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))
	r, ok := Holt{}.Forecast(f, market.Cete28, 13)
	if !ok {
		t.Fatal("expected forecast")
	}
	firstWidth := r.Points[0].Upper - r.Points[0].Lower
	lastWidth := r.Points[12].Upper - r.Points[12].Lower
	if !(lastWidth > firstWidth) || firstWidth <= 0 {
		t.Errorf("interval should widen with horizon: %v -> %v", firstWidth, lastWidth)
	}
}

func TestHolt_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		frame  *market.Frame
		series string
		weeks  int
	}{
		{"missing series", linearFrame(20, 10, 0), market.Cete91, 4},
		{"too short", linearFrame(5, 10, 0), market.Cete28, 4},
		{"no horizon", linearFrame(20, 10, 0), market.Cete28, 0},
		{"nil frame", nil, market.Cete28, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := (Holt{}).Forecast(tt.frame, tt.series, tt.weeks); ok {
				t.Error("expected unavailable")
			}
		})
	}
}

func TestSummary(t *testing.T) {
	r := Result{Series: market.Cete28, Points: []Point{
		{Value: 10, Lower: 9.5, Upper: 10.5},
		{Value: 12, Lower: 11, Upper: 13},
		{Value: 11, Lower: 10, Upper: 12},
	}}
	s, ok := r.Summary()
	if !ok {
		t.Fatal("expected summary")
	}
	if s.Next != 10 || s.Mean != 11 || s.Max != 12 || s.Min != 10 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.Lower != 9.5 || s.Upper != 10.5 || s.Weeks != 3 {
		t.Errorf("unexpected interval: %+v", s)
	}
	if _, ok := (Result{}).Summary(); ok {
		t.Error("empty result should have no summary")
	}
}

func TestTarget(t *testing.T) {
	f := market.NewFrame(nil)
	f.Set(market.Cete91, nil)
	f.Set(market.Cete182, nil)

	if s, ok := Target(f, market.Cete182); !ok || s != market.Cete182 {
		t.Errorf("Target(preferred present) = %q", s)
	}
	if s, ok := Target(f, market.Cete28); !ok || s != market.Cete91 {
		t.Errorf("Target(fallback) = %q, want CETE_91D", s)
	}
	if _, ok := Target(market.NewFrame(nil), market.Cete28); ok {
		t.Error("empty frame should have no target")
	}
}
