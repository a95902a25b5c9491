package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chris/cetes/internal/banxico"
	"github.com/chris/cetes/internal/db"
	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/market"
)

var fixedNow = time.Date(2025, 6, 5, 18, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleLoader(ctx context.Context, now time.Time) (*market.Frame, banxico.Source) {
	return market.SampleData(now), banxico.SourceSample
}

type noForecast struct{}

func (noForecast) Forecast(*market.Frame, string, int) (forecast.Result, bool) {
	return forecast.Result{}, false
}

func TestRefresh_StoresDataAndForecasts(t *testing.T) {
	d := openTestDB(t)
	r := NewRefresher(d, sampleLoader, forecast.Holt{}, market.Cete91, 13)
	r.now = func() time.Time { return fixedNow }

	rec, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rec.ID == 0 || rec.Source != "sample" || rec.Rows == 0 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if !strings.HasPrefix(rec.Series, market.Cete91+",") {
		t.Errorf("preferred series should be first, got %q", rec.Series)
	}
	if rec.ForecastPoints != 4*13 {
		t.Errorf("forecast points = %d, want %d", rec.ForecastPoints, 4*13)
	}

	f, err := d.LoadFrame()
	if err != nil || f.Len() != rec.Rows {
		t.Fatalf("stored frame: rows=%d err=%v", f.Len(), err)
	}
	res, ok, err := d.GetForecast(market.Cete364)
	if err != nil || !ok || len(res.Points) != 13 {
		t.Errorf("CETE_364D forecast: ok=%v err=%v points=%d", ok, err, len(res.Points))
	}

	last, _ := d.LastRefresh()
	if last == nil || last.ID != rec.ID {
		t.Errorf("last refresh = %+v", last)
	}
}

func TestRefresh_ForecastUnavailable(t *testing.T) {
	d := openTestDB(t)
	r := NewRefresher(d, sampleLoader, noForecast{}, market.Cete28, 13)

	rec, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rec.Series != "" || rec.ForecastPoints != 0 {
		t.Errorf("expected no forecasts, got %+v", rec)
	}
	all, _ := d.ListForecasts()
	if len(all) != 0 {
		t.Errorf("expected no stored forecasts, got %d", len(all))
	}
}

func TestRefresh_StoreFailureIsRecorded(t *testing.T) {
	d := openTestDB(t)
	r := NewRefresher(d, sampleLoader, forecast.Holt{}, market.Cete28, 4)
	d.Close()

	if _, err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected error from closed database")
	}
}

func TestStatus(t *testing.T) {
	if s := Status(nil, fixedNow); !strings.Contains(s, "Sin datos") {
		t.Errorf("nil status = %q", s)
	}

	ok := &db.Refresh{Source: "banxico", Rows: 1000, Series: market.Cete28, FinishedAt: fixedNow.Add(-3 * time.Hour)}
	s := Status(ok, fixedNow)
	for _, want := range []string{"hace 3 horas", "1,000", "Banxico", market.Cete28} {
		if !strings.Contains(s, want) {
			t.Errorf("status %q missing %q", s, want)
		}
	}

	sample := &db.Refresh{Source: "sample", Rows: 5, FinishedAt: fixedNow.Add(-90 * time.Second)}
	if s := Status(sample, fixedNow); !strings.Contains(s, "datos de ejemplo") || !strings.Contains(s, "hace 1 minuto") {
		t.Errorf("sample status = %q", s)
	}

	failed := &db.Refresh{Error: "timeout", FinishedAt: fixedNow.Add(-2 * 24 * time.Hour)}
	if s := Status(failed, fixedNow); !strings.Contains(s, "timeout") || !strings.Contains(s, "hace 2 días") {
		t.Errorf("failed status = %q", s)
	}
}

func TestScheduler(t *testing.T) {
	r := NewRefresher(openTestDB(t), sampleLoader, forecast.Holt{}, market.Cete28, 4)

	bad := New(r, "not a cron")
	if err := bad.Start(); err == nil {
		t.Error("expected invalid cron error")
	}

	off := New(r, "")
	if err := off.Start(); err != nil || !off.Next().IsZero() {
		t.Errorf("empty cron should disable scheduling, err=%v next=%v", err, off.Next())
	}

	s := New(r, "0 18 * * 4")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	next := s.Next()
	if next.Weekday() != time.Thursday || next.Hour() != 18 {
		t.Errorf("next run = %s, want Thursday 18:00", next)
	}
}
