package banxico

import (
	"context"
	"time"

	"github.com/chris/cetes/internal/logging"
	"github.com/chris/cetes/internal/market"
)

// Source says where a loaded frame came from.
type Source string

const (
	SourceBanxico Source = "banxico"
	SourceSample  Source = "sample"
)

// Load downloads every series from start to now and resamples it to the
// weekly table. Any failure yields SampleData instead, so Load always returns
// a usable frame.
func Load(ctx context.Context, c *Client, start, now time.Time) (*market.Frame, Source) {
	log := logging.Logger()
	obs, err := c.Fetch(ctx, AllSeries(), start, now)
	if err != nil {
		log.Warn("banxico download failed, using sample data", "err", err)
		return market.SampleData(now), SourceSample
	}
	f, err := market.Weekly(obs)
	if err != nil {
		log.Warn("banxico data unusable, using sample data", "err", err)
		return market.SampleData(now), SourceSample
	}
	log.Info("banxico data loaded",
		"rows", f.Len(),
		"from", f.Dates[0].Format("2006-01-02"),
		"to", f.Dates[len(f.Dates)-1].Format("2006-01-02"))
	return f, SourceBanxico
}
