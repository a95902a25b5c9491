package scheduler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chris/cetes/internal/banxico"
	"github.com/chris/cetes/internal/db"
	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/logging"
	"github.com/chris/cetes/internal/market"
)

// Loader returns the weekly table and where it came from. It must always
// return a usable frame.
type Loader func(ctx context.Context, now time.Time) (*market.Frame, banxico.Source)

// BanxicoLoader loads full history from the SIE API with sample-data fallback.
func BanxicoLoader(c *banxico.Client) Loader {
	return func(ctx context.Context, now time.Time) (*market.Frame, banxico.Source) {
		return banxico.Load(ctx, c, banxico.DefaultStart, now)
	}
}

// Refresher downloads data, forecasts every CETES term and stores both.
type Refresher struct {
	db     *db.DB
	load   Loader
	engine forecast.Engine
	series string
	weeks  int
	now    func() time.Time
	mu     sync.Mutex
}

func NewRefresher(database *db.DB, load Loader, engine forecast.Engine, series string, weeks int) *Refresher {
	return &Refresher{
		db:     database,
		load:   load,
		engine: engine,
		series: series,
		weeks:  weeks,
		now:    time.Now,
	}
}

// Refresh runs one refresh. Concurrent calls are serialized. A forecast that
// cannot be produced is logged and skipped; only store errors fail the run.
func (r *Refresher) Refresh(ctx context.Context) (db.Refresh, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := logging.Logger()
	started := r.now()
	rec := db.Refresh{StartedAt: started}

	frame, src := r.load(ctx, started)
	rec.Source = string(src)
	rec.Rows = frame.Len()
	if err := r.db.ReplaceObservations(frame.Observations()); err != nil {
		return r.fail(rec, fmt.Errorf("storing observations: %w", err))
	}

	var results []forecast.Result
	var names []string
	for _, series := range r.targets(frame) {
		res, ok := r.engine.Forecast(frame, series, r.weeks)
		if !ok {
			log.Warn("forecast unavailable", "series", series)
			continue
		}
		results = append(results, res)
		names = append(names, series)
		rec.ForecastPoints += len(res.Points)
	}
	rec.Series = strings.Join(names, ",")
	rec.FinishedAt = r.now()

	id, err := r.db.RecordRefresh(rec)
	if err != nil {
		return rec, fmt.Errorf("recording refresh: %w", err)
	}
	rec.ID = id
	for _, res := range results {
		if err := r.db.ReplaceForecast(res, id); err != nil {
			return rec, fmt.Errorf("storing forecast %s: %w", res.Series, err)
		}
	}

	log.Info("refresh complete",
		"source", rec.Source,
		"rows", rec.Rows,
		"forecasts", rec.Series,
		"took", rec.FinishedAt.Sub(started).Round(time.Millisecond))
	return rec, nil
}

// targets lists the preferred series first, then the other CETES terms.
func (r *Refresher) targets(f *market.Frame) []string {
	first, ok := forecast.Target(f, r.series)
	if !ok {
		return nil
	}
	out := []string{first}
	for _, s := range market.CetesSeries {
		if s != first && f.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

func (r *Refresher) fail(rec db.Refresh, err error) (db.Refresh, error) {
	rec.Error = err.Error()
	rec.FinishedAt = r.now()
	if _, rerr := r.db.RecordRefresh(rec); rerr != nil {
		logging.Logger().Error("recording failed refresh", "err", rerr)
	}
	return rec, err
}

var spanishMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "hace un momento", DivBy: 1},
	{D: 2 * time.Minute, Format: "%s 1 minuto", DivBy: 1},
	{D: time.Hour, Format: "%s %d minutos", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "%s 1 hora", DivBy: 1},
	{D: humanize.Day, Format: "%s %d horas", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "%s 1 día", DivBy: 1},
	{D: humanize.Month, Format: "%s %d días", DivBy: humanize.Day},
	{D: 2 * humanize.Month, Format: "%s 1 mes", DivBy: 1},
	{D: humanize.Year, Format: "%s %d meses", DivBy: humanize.Month},
	{D: math.MaxInt64, Format: "%s más de un año", DivBy: 1},
}

// Status describes the last refresh for people, in Spanish.
func Status(r *db.Refresh, now time.Time) string {
	if r == nil {
		return "Sin datos todavía. Usa «Actualizar datos» para descargarlos."
	}
	when := humanize.CustomRelTime(r.FinishedAt, now, "hace", "dentro de", spanishMagnitudes)
	if r.Error != "" {
		return fmt.Sprintf("❌ Error en la última actualización (%s): %s", when, r.Error)
	}
	src := "Banxico"
	if r.Source == string(banxico.SourceSample) {
		src = "datos de ejemplo"
	}
	return fmt.Sprintf("✅ Actualizado %s · %s registros semanales de %s · pronóstico: %s",
		when, humanize.Comma(int64(r.Rows)), src, r.Series)
}
