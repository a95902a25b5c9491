package db

import (
	"fmt"
	"time"

	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/market"
)

// ReplaceObservations swaps the stored weekly table for obs.
func (d *DB) ReplaceObservations(obs []market.Observation) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM observations"); err != nil {
		return fmt.Errorf("clearing observations: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO observations (series, date, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, o := range obs {
		if _, err := stmt.Exec(o.Series, o.Date.Format(dateLayout), o.Value); err != nil {
			return fmt.Errorf("inserting observation %s %s: %w", o.Series, o.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// ListObservations returns every stored observation ordered by series and date.
func (d *DB) ListObservations() ([]market.Observation, error) {
	rows, err := d.conn.Query("SELECT series, date, value FROM observations ORDER BY series, date")
	if err != nil {
		return nil, fmt.Errorf("listing observations: %w", err)
	}
	defer rows.Close()

	var out []market.Observation
	for rows.Next() {
		var o market.Observation
		var date string
		if err := rows.Scan(&o.Series, &date, &o.Value); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		o.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing observation date %q: %w", date, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// LoadFrame rebuilds the stored weekly table. It returns nil when nothing
// has been stored yet.
func (d *DB) LoadFrame() (*market.Frame, error) {
	obs, err := d.ListObservations()
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, nil
	}
	return market.FromObservations(obs)
}

// ReplaceForecast stores r as the current forecast for its series.
func (d *DB) ReplaceForecast(r forecast.Result, refreshID int64) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM forecasts WHERE series = ?", r.Series); err != nil {
		return fmt.Errorf("clearing forecast: %w", err)
	}
	var ref any
	if refreshID > 0 {
		ref = refreshID
	}
	for _, p := range r.Points {
		_, err := tx.Exec(
			"INSERT INTO forecasts (series, date, value, lower, upper, refresh_id) VALUES (?, ?, ?, ?, ?, ?)",
			r.Series, p.Date.Format(dateLayout), p.Value, p.Lower, p.Upper, ref,
		)
		if err != nil {
			return fmt.Errorf("inserting forecast point: %w", err)
		}
	}
	return tx.Commit()
}

// GetForecast returns the stored forecast for series. ok is false when there
// is none.
func (d *DB) GetForecast(series string) (forecast.Result, bool, error) {
	rows, err := d.conn.Query(
		"SELECT date, value, lower, upper FROM forecasts WHERE series = ? ORDER BY date",
		series,
	)
	if err != nil {
		return forecast.Result{}, false, fmt.Errorf("getting forecast: %w", err)
	}
	defer rows.Close()

	r := forecast.Result{Series: series}
	for rows.Next() {
		var p forecast.Point
		var date string
		if err := rows.Scan(&date, &p.Value, &p.Lower, &p.Upper); err != nil {
			return forecast.Result{}, false, fmt.Errorf("scanning forecast: %w", err)
		}
		if p.Date, err = time.Parse(dateLayout, date); err != nil {
			return forecast.Result{}, false, fmt.Errorf("parsing forecast date %q: %w", date, err)
		}
		r.Points = append(r.Points, p)
	}
	if err := rows.Err(); err != nil {
		return forecast.Result{}, false, err
	}
	return r, len(r.Points) > 0, nil
}

// ListForecasts returns every stored forecast, one per series.
func (d *DB) ListForecasts() ([]forecast.Result, error) {
	rows, err := d.conn.Query("SELECT DISTINCT series FROM forecasts ORDER BY series")
	if err != nil {
		return nil, fmt.Errorf("listing forecast series: %w", err)
	}
	var series []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning forecast series: %w", err)
		}
		series = append(series, s)
	}
	rows.Close()

	var out []forecast.Result
	for _, s := range series {
		r, ok, err := d.GetForecast(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}
