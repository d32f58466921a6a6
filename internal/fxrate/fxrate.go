// Package fxrate resolves daily exchange rates from the ECB data API.
// Rate fallback (carrying the previous trading session forward) and TTL
// caching live here, outside the settlement core: the core only ever sees a
// resolved rate or its absence.
package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const (
	providerName   = "ecb"
	defaultBaseURL = "https://data-api.ecb.europa.eu/service/data/EXR"

	// Weekends and holidays have no session; walking back one week always
	// reaches a trading day.
	maxFallbackDays = 7
)

// Rate is a resolved exchange rate with its provenance. AsOf is the session
// the rate was actually published for, which may be earlier than the
// requested date.
type Rate struct {
	Rate   decimal.Decimal
	AsOf   time.Time
	Source string
}

// Source resolves an exchange rate for a currency pair as of a date. A nil
// Rate with a nil error means the rate genuinely does not exist.
type Source interface {
	GetRate(ctx context.Context, base, quote string, asOf time.Time) (*Rate, error)
}

// Client fetches ECB reference rates over HTTP with a TTL cache in front.
type Client struct {
	httpClient *http.Client
	cache      *cache.Cache
	baseURL    string
	apiToken   string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIToken attaches a bearer token to outgoing requests.
func WithAPIToken(token string) Option {
	return func(c *Client) { c.apiToken = token }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithBaseURL points the client at a different endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// NewClient creates a rate client with a 24h cache.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache.New(24*time.Hour, 48*time.Hour),
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ecbResponse mirrors the slice of the ECB SDMX-JSON payload this client
// reads.
type ecbResponse struct {
	DataSets []struct {
		Series map[string]struct {
			Observations map[string][]float64 `json:"observations"`
		} `json:"series"`
	} `json:"dataSets"`
}

// GetRate resolves base/quote as of a date, walking back up to a week of
// sessions when the requested day has no published rate. Cross rates are
// derived through EUR, the ECB's anchor currency.
func (c *Client) GetRate(ctx context.Context, base, quote string, asOf time.Time) (*Rate, error) {
	if base == quote {
		return &Rate{Rate: decimal.NewFromInt(1), AsOf: asOf, Source: providerName}, nil
	}

	cacheKey := fmt.Sprintf("%s/%s@%s", base, quote, asOf.Format("2006-01-02"))
	if cached, found := c.cache.Get(cacheKey); found {
		r := cached.(Rate)
		return &r, nil
	}

	for i := 0; i < maxFallbackDays; i++ {
		day := asOf.AddDate(0, 0, -i)

		baseRate, err := c.eurRate(ctx, base, day)
		if err != nil {
			return nil, err
		}
		quoteRate, err := c.eurRate(ctx, quote, day)
		if err != nil {
			return nil, err
		}
		if baseRate == nil || quoteRate == nil {
			continue // no session that day, try the previous one
		}

		// ECB publishes X per EUR; base/quote = (quote per EUR)/(base per EUR).
		rate := Rate{
			Rate:   quoteRate.Div(*baseRate),
			AsOf:   day,
			Source: providerName,
		}
		c.cache.Set(cacheKey, rate, cache.DefaultExpiration)
		return &rate, nil
	}

	return nil, nil
}

// eurRate fetches the units-per-EUR quotation for one currency on one day.
// Returns (nil, nil) when no rate was published for that day.
func (c *Client) eurRate(ctx context.Context, currency string, day time.Time) (*decimal.Decimal, error) {
	if currency == "EUR" {
		one := decimal.NewFromInt(1)
		return &one, nil
	}

	dateStr := day.Format("2006-01-02")
	url := fmt.Sprintf("%s/D.%s.EUR.SP00.A?startPeriod=%s&endPeriod=%s&format=jsondata",
		c.baseURL, currency, dateStr, dateStr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ECB request: %w", err)
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ECB request failed for %s on %s: %w", currency, dateStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ECB returned %s for %s on %s", resp.Status, currency, dateStr)
	}

	var payload ecbResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode ECB response for %s: %w", currency, err)
	}

	value, ok := extractObservation(payload)
	if !ok {
		return nil, nil
	}
	d := decimal.NewFromFloat(value)
	return &d, nil
}

func extractObservation(payload ecbResponse) (float64, bool) {
	for _, ds := range payload.DataSets {
		for _, series := range ds.Series {
			for _, obs := range series.Observations {
				if len(obs) > 0 {
					return obs[0], true
				}
			}
		}
	}
	return 0, false
}
