// Package lookup fetches the page decorations: USD exchange rates and a
// money tip. Both are best effort; a failed lookup is logged and replaced by
// an empty or fallback value, never retried.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/log"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultRatesURL = "https://open.er-api.com/v6/latest/USD"

	// RatesTTL is how long a successful rate table is reused.
	RatesTTL = time.Hour

	ratesCacheKey = "latest"
)

// RatesClient fetches the latest exchange rates relative to USD.
type RatesClient struct {
	url    string
	client *http.Client
	cache  cache.Cache[map[string]float64]
	group  singleflight.Group
	logger *log.Logger
}

// NewRatesClient builds a client for url. A nil cache disables caching.
// The http client carries no timeout; callers bound lookups with ctx.
func NewRatesClient(url string, client *http.Client, c cache.Cache[map[string]float64], logger *log.Logger) *RatesClient {
	if url == "" {
		url = DefaultRatesURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &RatesClient{url: url, client: client, cache: c, logger: logger.WithComponent(log.ComponentLookup)}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Latest returns the currency-to-rate table, or nil when the lookup failed.
// Concurrent callers share a single request.
func (c *RatesClient) Latest(ctx context.Context) map[string]float64 {
	if c.cache != nil {
		if rates, ok := c.cache.Get(ratesCacheKey); ok {
			return maps.Clone(rates)
		}
	}

	v, err, _ := c.group.Do(ratesCacheKey, func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Exchange rate lookup failed", log.FieldURL, c.url, log.FieldError, err)
		return nil
	}
	rates := v.(map[string]float64)
	if c.cache != nil {
		c.cache.Set(ratesCacheKey, rates)
	}
	return maps.Clone(rates)
}

func (c *RatesClient) fetch(ctx context.Context) (map[string]float64, error) {
	var body ratesResponse
	if err := getJSON(ctx, c.client, c.url, &body); err != nil {
		return nil, err
	}
	if body.Rates == nil {
		return nil, fmt.Errorf("response has no rates")
	}
	return body.Rates, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
