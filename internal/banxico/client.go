// Package banxico downloads series from the Banco de México SIE REST API.
package banxico

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/chris/cetes/internal/logging"
	"github.com/chris/cetes/internal/market"
)

const DefaultBaseURL = "https://www.banxico.org.mx/SieAPIRest/service/v1"

// Series maps an SIE series id to the frame column it feeds.
type Series struct {
	ID   string
	Name string
}

var (
	CetesSeries = []Series{
		{"SF43936", market.Cete28},
		{"SF43939", market.Cete91},
		{"SF43942", market.Cete182},
		{"SF43945", market.Cete364},
	}
	ExogenousSeries = []Series{
		{"SF61745", market.TasaObjetivo},
		{"SI237", market.TasaFED},
		{"SF43718", market.TipoCambioFix},
		{"SP1", market.INPC},
	}
	// DefaultStart is where the history download begins.
	DefaultStart = time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC)
)

// AllSeries returns the CETES terms followed by the exogenous indicators.
func AllSeries() []Series {
	return append(append([]Series(nil), CetesSeries...), ExogenousSeries...)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client. An empty token is allowed; the API then rejects
// most requests and callers fall back to sample data.
func NewClient(token, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

// Series downloads one series between start and end inclusive. Values
// published as "N/E" (no existe) are skipped, as are rows with unparseable
// dates.
func (c *Client) Series(ctx context.Context, s Series, start, end time.Time) ([]market.Observation, error) {
	url := fmt.Sprintf("%s/series/%s/datos/%s/%s/", c.baseURL, s.ID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Bmx-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.ID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", s.ID, resp.StatusCode)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("fetching %s: empty response", s.ID)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("fetching %s: invalid JSON", s.ID)
	}

	datos := gjson.GetBytes(body, "bmx.series.0.datos")
	if !datos.IsArray() {
		return nil, fmt.Errorf("fetching %s: unexpected response structure", s.ID)
	}

	var out []market.Observation
	for _, d := range datos.Array() {
		date, err := time.Parse("02/01/2006", d.Get("fecha").String())
		if err != nil {
			continue
		}
		v, ok := parseValue(d.Get("dato").String())
		if !ok {
			continue
		}
		out = append(out, market.Observation{Series: s.Name, Date: date, Value: v})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fetching %s: no data", s.ID)
	}
	return out, nil
}

// Fetch downloads every series. A series that fails is logged and skipped;
// the error is returned only when nothing could be downloaded.
func (c *Client) Fetch(ctx context.Context, series []Series, start, end time.Time) ([]market.Observation, error) {
	log := logging.Logger()
	var all []market.Observation
	for _, s := range series {
		obs, err := c.Series(ctx, s, start, end)
		if err != nil {
			log.Warn("banxico series skipped", "series", s.Name, "id", s.ID, "err", err)
			continue
		}
		log.Debug("banxico series downloaded", "series", s.Name, "rows", len(obs))
		all = append(all, obs...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no series downloaded from banxico")
	}
	return all, nil
}

func parseValue(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || strings.EqualFold(s, "N/E") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
