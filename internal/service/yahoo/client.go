package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"IndexImpact/internal/domain/models"
	drepo "IndexImpact/internal/domain/repository"
	"IndexImpact/internal/service/upstream"
	"IndexImpact/internal/ticker"
	pkghttp "IndexImpact/pkg/http"
)

const (
	Name           = "yahoo"
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	separator      = "-"
)

// Client implements PriceSource using the public chart endpoint.
// The last price and the reference price come from two separate requests.
type Client struct {
	baseURL string
	http    *pkghttp.Client
}

// chartResponse is the subset of /v8/finance/chart we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func New(baseURL string, client *pkghttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = pkghttp.NewClient(pkghttp.WithUserAgent("Mozilla/5.0"))
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

func (c *Client) Name() string { return Name }

func (c *Client) LastPrice(ctx context.Context, id models.Identifier) drepo.Result[float64] {
	chart, err := c.fetchChart(ctx, id, "1d")
	if err != nil {
		return drepo.Fail[float64](err)
	}
	return check(chart.Chart.Result[0].Meta.RegularMarketPrice, id, "regularMarketPrice")
}

// ReferencePrice returns the previous session close: the second-to-last
// close of a five day series, or the chart's previous close when the
// series is too short.
func (c *Client) ReferencePrice(ctx context.Context, id models.Identifier) drepo.Result[float64] {
	chart, err := c.fetchChart(ctx, id, "5d")
	if err != nil {
		return drepo.Fail[float64](err)
	}
	res := chart.Chart.Result[0]

	var closes []float64
	if len(res.Indicators.Quote) > 0 {
		for _, v := range res.Indicators.Quote[0].Close {
			if v != nil {
				closes = append(closes, *v)
			}
		}
	}
	if len(closes) >= 2 {
		return check(closes[len(closes)-2], id, "close")
	}
	return check(res.Meta.ChartPreviousClose, id, "chartPreviousClose")
}

func (c *Client) fetchChart(ctx context.Context, id models.Identifier, rng string) (*chartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(ticker.ToProvider(id, separator)))

	var chart chartResponse
	err := c.http.GetJSON(ctx, u, map[string][]string{
		"interval": {"1d"},
		"range":    {rng},
	}, &chart)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", id, upstream.Classify(err))
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %w", id, chart.Chart.Error.Description, models.ErrNotFound)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: empty result: %w", id, models.ErrNotFound)
	}
	return &chart, nil
}

func check(v float64, id models.Identifier, field string) drepo.Result[float64] {
	if v == 0 {
		return drepo.Fail[float64](fmt.Errorf("yahoo %s: %s absent: %w", id, field, models.ErrNotFound))
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return drepo.Fail[float64](fmt.Errorf("yahoo %s: %s=%v: %w", id, field, v, models.ErrMalformedPayload))
	}
	return drepo.Ok(v)
}
