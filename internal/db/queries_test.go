package db

import (
	"testing"
	"time"

	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/market"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func day(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

// --- Observations ---

func TestReplaceAndLoadObservations(t *testing.T) {
	d := openTestDB(t)

	if f, err := d.LoadFrame(); err != nil || f != nil {
		t.Fatalf("empty store: frame=%v err=%v", f, err)
	}

	src := market.SampleData(day("2025-06-05"))
	if err := d.ReplaceObservations(src.Observations()); err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}

	f, err := d.LoadFrame()
	if err != nil {
		t.Fatalf("LoadFrame: %v", err)
	}
	if f.Len() != src.Len() {
		t.Errorf("rows = %d, want %d", f.Len(), src.Len())
	}
	want, _ := src.Last(market.Cete28)
	got, _ := f.Last(market.Cete28)
	if got != want {
		t.Errorf("last CETE_28D = %v, want %v", got, want)
	}
}

func TestReplaceObservationsDropsOldRows(t *testing.T) {
	d := openTestDB(t)

	d.ReplaceObservations([]market.Observation{
		{Series: market.Cete28, Date: day("2025-01-02"), Value: 10},
		{Series: market.Cete91, Date: day("2025-01-02"), Value: 11},
	})
	d.ReplaceObservations([]market.Observation{
		{Series: market.Cete28, Date: day("2025-01-09"), Value: 10.5},
	})

	obs, err := d.ListObservations()
	if err != nil {
		t.Fatalf("ListObservations: %v", err)
	}
	if len(obs) != 1 || obs[0].Value != 10.5 {
		t.Errorf("expected only the new row, got %+v", obs)
	}
	if !obs[0].Date.Equal(day("2025-01-09")) {
		t.Errorf("date = %s", obs[0].Date)
	}
}

// --- Forecasts ---

func TestReplaceAndGetForecast(t *testing.T) {
	d := openTestDB(t)

	if _, ok, err := d.GetForecast(market.Cete28); err != nil || ok {
		t.Fatalf("expected no forecast, ok=%v err=%v", ok, err)
	}

	id, err := d.RecordRefresh(Refresh{Source: "sample", StartedAt: time.Now()})
	if err != nil {
		t.Fatalf("RecordRefresh: %v", err)
	}
	first := forecast.Result{Series: market.Cete28, Points: []forecast.Point{
		{Date: day("2025-01-09"), Value: 10, Lower: 9, Upper: 11},
		{Date: day("2025-01-16"), Value: 10.1, Lower: 8.9, Upper: 11.3},
	}}
	if err := d.ReplaceForecast(first, id); err != nil {
		t.Fatalf("ReplaceForecast: %v", err)
	}
	second := forecast.Result{Series: market.Cete28, Points: []forecast.Point{
		{Date: day("2025-01-16"), Value: 9.8, Lower: 9.5, Upper: 10.1},
	}}
	if err := d.ReplaceForecast(second, 0); err != nil {
		t.Fatalf("ReplaceForecast: %v", err)
	}

	got, ok, err := d.GetForecast(market.Cete28)
	if err != nil || !ok {
		t.Fatalf("GetForecast: ok=%v err=%v", ok, err)
	}
	if len(got.Points) != 1 || got.Points[0].Value != 9.8 {
		t.Errorf("expected replaced forecast, got %+v", got.Points)
	}
}

func TestListForecasts(t *testing.T) {
	d := openTestDB(t)

	for _, s := range []string{market.Cete91, market.Cete28} {
		d.ReplaceForecast(forecast.Result{Series: s, Points: []forecast.Point{
			{Date: day("2025-01-09"), Value: 10, Lower: 9, Upper: 11},
		}}, 0)
	}

	all, err := d.ListForecasts()
	if err != nil {
		t.Fatalf("ListForecasts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 forecasts, got %d", len(all))
	}
	if all[0].Series != market.Cete28 || all[1].Series != market.Cete91 {
		t.Errorf("unexpected order: %s, %s", all[0].Series, all[1].Series)
	}
}

// --- Refreshes ---

func TestLastRefresh(t *testing.T) {
	d := openTestDB(t)

	r, err := d.LastRefresh()
	if err != nil || r != nil {
		t.Fatalf("expected no refresh, got %+v err=%v", r, err)
	}

	started := time.Now().Add(-time.Minute)
	d.RecordRefresh(Refresh{Source: "banxico", Rows: 900, Series: market.Cete28, ForecastPoints: 13, StartedAt: started})
	d.RecordRefresh(Refresh{Source: "sample", Error: "timeout", StartedAt: started})

	r, err = d.LastRefresh()
	if err != nil {
		t.Fatalf("LastRefresh: %v", err)
	}
	if r.Source != "sample" || r.Error != "timeout" {
		t.Errorf("unexpected refresh: %+v", r)
	}
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		t.Errorf("timestamps not parsed: %+v", r)
	}
}

// --- Chat turns ---

func TestSessionHistory(t *testing.T) {
	d := openTestDB(t)

	d.AppendTurn("s1", "hola", "¡hola!")
	d.AppendTurn("s2", "otra sesión", "ok")
	d.AppendTurn("s1", "tasas", "11%")

	pairs, err := d.SessionHistory("s1")
	if err != nil {
		t.Fatalf("SessionHistory: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[1].User != "tasas" || pairs[1].Reply() != "11%" {
		t.Errorf("unexpected pair: %+v", pairs[1])
	}

	if err := d.ClearSession("s1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	pairs, _ = d.SessionHistory("s1")
	if len(pairs) != 0 {
		t.Errorf("expected empty session after clear, got %d", len(pairs))
	}
	other, _ := d.SessionHistory("s2")
	if len(other) != 1 {
		t.Errorf("clearing s1 touched s2: %d pairs", len(other))
	}
}
