package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	drepo "IndexImpact/internal/domain/repository"
	"IndexImpact/internal/service/upstream"
	"IndexImpact/internal/ticker"
	pkghttp "IndexImpact/pkg/http"
)

const (
	Name             = "snapshot"
	DefaultBaseURL   = "https://api.polygon.io"
	DefaultPageLimit = 250
)

// Client implements SnapshotSource over a cursor-paginated bulk endpoint.
type Client struct {
	apiKey    string
	baseURL   string
	pageLimit int
	http      *pkghttp.Client
}

type pageResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Ticker    string `json:"ticker"`
		LastTrade struct {
			Price float64 `json:"price"`
		} `json:"last_trade"`
		Session struct {
			Close         float64 `json:"close"`
			PreviousClose float64 `json:"previous_close"`
		} `json:"session"`
	} `json:"results"`
	NextURL string `json:"next_url"`
}

func New(apiKey, baseURL string, pageLimit int, client *pkghttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	if client == nil {
		client = pkghttp.NewClient()
	}
	return &Client{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		pageLimit: pageLimit,
		http:      client,
	}
}

func (c *Client) Name() string { return Name }

// Page fetches one page. An empty cursor requests the first page.
func (c *Client) Page(ctx context.Context, cursor string) drepo.Result[drepo.SnapshotPage] {
	q := map[string][]string{
		"limit":  {strconv.Itoa(c.pageLimit)},
		"apiKey": {c.apiKey},
	}
	if cursor != "" {
		q["cursor"] = []string{cursor}
	}

	var resp pageResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/v3/snapshot", q, &resp); err != nil {
		return drepo.Fail[drepo.SnapshotPage](fmt.Errorf("snapshot page: %w", upstream.Classify(err)))
	}

	page := drepo.SnapshotPage{
		Entries: make([]drepo.SnapshotEntry, 0, len(resp.Results)),
		Next:    cursorOf(resp.NextURL),
	}
	for _, r := range resp.Results {
		id := ticker.FromProvider(r.Ticker)
		if id.IsEmpty() {
			continue
		}
		last := r.LastTrade.Price
		if last == 0 {
			last = r.Session.Close
		}
		page.Entries = append(page.Entries, drepo.SnapshotEntry{
			Identifier:     id,
			LastPrice:      last,
			ReferencePrice: r.Session.PreviousClose,
		})
	}
	return drepo.Ok(page)
}

// cursorOf extracts the cursor query parameter from a next-page URL.
func cursorOf(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}
