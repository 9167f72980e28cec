package finnhub

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"IndexImpact/internal/domain/models"
	drepo "IndexImpact/internal/domain/repository"
	"IndexImpact/internal/service/upstream"
	"IndexImpact/internal/ticker"
	"IndexImpact/pkg/cache"
	pkghttp "IndexImpact/pkg/http"

	"golang.org/x/sync/singleflight"
)

const (
	Name = "finnhub"

	// DefaultBaseURL is the public REST endpoint.
	DefaultBaseURL = "https://finnhub.io/api/v1"

	// Finnhub writes class shares with a dot (BRK.B).
	separator = "."

	// profile2 reports capitalization in millions.
	capUnit = 1e6

	// One /quote answer serves both price lookups of an identifier.
	quoteReuse = 5 * time.Second
)

// Client implements PriceSource and CapSource backed by the Finnhub REST API.
type Client struct {
	apiKey  string
	baseURL string
	http    *pkghttp.Client
	recent  *cache.MemoryCache
	flight  singleflight.Group
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	PreviousClose float64 `json:"pc"`
}

type profileResponse struct {
	Ticker               string  `json:"ticker"`
	MarketCapitalization float64 `json:"marketCapitalization"`
}

// New creates a Finnhub client.
func New(apiKey, baseURL string, client *pkghttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = pkghttp.NewClient()
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
		recent:  cache.NewMemoryCache(cache.WithMemoryMaxSize(4096), cache.WithMemoryCleanup(0)),
	}
}

func (c *Client) Name() string { return Name }

// LastPrice returns the current price ("c").
func (c *Client) LastPrice(ctx context.Context, id models.Identifier) drepo.Result[float64] {
	q, err := c.quote(ctx, id)
	if err != nil {
		return drepo.Fail[float64](err)
	}
	return positive(q.Current, id, "c")
}

// ReferencePrice returns the previous session close ("pc").
func (c *Client) ReferencePrice(ctx context.Context, id models.Identifier) drepo.Result[float64] {
	q, err := c.quote(ctx, id)
	if err != nil {
		return drepo.Fail[float64](err)
	}
	return positive(q.PreviousClose, id, "pc")
}

// MarketCap returns the capitalization in currency units.
func (c *Client) MarketCap(ctx context.Context, id models.Identifier) drepo.Result[float64] {
	var p profileResponse
	if err := c.get(ctx, "/stock/profile2", id, &p); err != nil {
		return drepo.Fail[float64](err)
	}
	return positive(p.MarketCapitalization*capUnit, id, "marketCapitalization")
}

// quote returns the /quote answer for id, reusing one fetched within
// quoteReuse. Failures are not kept, so each lookup retries on its own.
func (c *Client) quote(ctx context.Context, id models.Identifier) (quoteResponse, error) {
	key := id.String()
	var q quoteResponse
	if err := c.recent.Get(ctx, key, &q); err == nil {
		return q, nil
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		var fetched quoteResponse
		if err := c.get(ctx, "/quote", id, &fetched); err != nil {
			return nil, err
		}
		_ = c.recent.Set(ctx, key, fetched, quoteReuse)
		return fetched, nil
	})
	if err != nil {
		return quoteResponse{}, err
	}
	return v.(quoteResponse), nil
}

func (c *Client) get(ctx context.Context, path string, id models.Identifier, dest interface{}) error {
	err := c.http.GetJSON(ctx, c.baseURL+path, map[string][]string{
		"symbol": {ticker.ToProvider(id, separator)},
		"token":  {c.apiKey},
	}, dest)
	if err == nil {
		return nil
	}

	return fmt.Errorf("finnhub %s %s: %w", path, id, upstream.Classify(err))
}

// Finnhub answers unknown symbols with zeros rather than an error status.
func positive(v float64, id models.Identifier, field string) drepo.Result[float64] {
	if v == 0 {
		return drepo.Fail[float64](fmt.Errorf("finnhub %s: %s absent: %w", id, field, models.ErrNotFound))
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return drepo.Fail[float64](fmt.Errorf("finnhub %s: %s=%v: %w", id, field, v, models.ErrMalformedPayload))
	}
	return drepo.Ok(v)
}
