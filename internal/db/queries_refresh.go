package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Refresh is one run of the data + forecast job.
type Refresh struct {
	ID             int64     `json:"id"`
	Source         string    `json:"source"`
	Rows           int       `json:"rows"`
	Series         string    `json:"series"`
	ForecastPoints int       `json:"forecast_points"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// RecordRefresh logs a finished refresh and returns its ID.
func (d *DB) RecordRefresh(r Refresh) (int64, error) {
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	res, err := d.conn.Exec(
		`INSERT INTO refreshes (source, rows, series, forecast_points, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Source, r.Rows, r.Series, r.ForecastPoints, nullStr(r.Error),
		r.StartedAt.UTC().Format(time.DateTime), finished.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("recording refresh: %w", err)
	}
	return res.LastInsertId()
}

// LastRefresh returns the most recent refresh, or nil if none ran yet.
func (d *DB) LastRefresh() (*Refresh, error) {
	var r Refresh
	var errText sql.NullString
	var started, finished string
	err := d.conn.QueryRow(
		`SELECT id, source, rows, series, forecast_points, error, started_at, finished_at
		FROM refreshes ORDER BY id DESC LIMIT 1`,
	).Scan(&r.ID, &r.Source, &r.Rows, &r.Series, &r.ForecastPoints, &errText, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting last refresh: %w", err)
	}
	r.Error = errText.String
	r.StartedAt, _ = time.Parse(time.DateTime, started)
	r.FinishedAt, _ = time.Parse(time.DateTime, finished)
	return &r, nil
}

func nullStr(s string) any {
	if s == "" || s == "null" {
		return nil
	}
	return s
}
