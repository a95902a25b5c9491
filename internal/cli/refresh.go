package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/chris/cetes/config"
	"github.com/chris/cetes/internal/agent"
	"github.com/chris/cetes/internal/db"
	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/scheduler"
)

func newRefreshCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Download Banxico data, recompute forecasts and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.refresher.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			results, err := a.db.ListForecasts()
			if err != nil {
				return err
			}
			return printRefresh(cmd.OutOrStdout(), rec, results, time.Now())
		},
	}
}

func printRefresh(w io.Writer, rec db.Refresh, results []forecast.Result, now time.Time) error {
	if _, err := fmt.Fprintln(w, scheduler.Status(&rec, now)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Puntos de pronóstico: %s (en %s)\n",
		humanize.Comma(int64(rec.ForecastPoints)),
		rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond))
	for _, res := range results {
		sum, ok := res.Summary()
		if !ok {
			continue
		}
		_, err := fmt.Fprintf(w, "  CETES %-9s próxima semana %.2f%% [%.2f%% – %.2f%%], promedio %d semanas %.2f%%\n",
			agent.SeriesLabel(sum.Series), sum.Next, sum.Lower, sum.Upper, sum.Weeks, sum.Mean)
		if err != nil {
			return err
		}
	}
	return nil
}
