package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"IndexImpact/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		sym := r.URL.Query().Get("symbol")
		switch r.URL.Path {
		case "/quote":
			switch sym {
			case "AAPL":
				fmt.Fprint(w, `{"c":190,"pc":185,"d":5}`)
			case "BRK.B":
				fmt.Fprint(w, `{"c":0,"pc":410}`)
			default:
				fmt.Fprint(w, `{"c":0,"pc":0}`)
			}
		case "/stock/profile2":
			if sym == "AAPL" {
				fmt.Fprint(w, `{"ticker":"AAPL","marketCapitalization":2950000}`)
				return
			}
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestClientPrices(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	c := New("secret", srv.URL, nil)
	ctx := context.Background()

	last := c.LastPrice(ctx, "AAPL")
	require.True(t, last.OK())
	assert.Equal(t, 190.0, last.Value)

	ref := c.ReferencePrice(ctx, "AAPL")
	require.True(t, ref.OK())
	assert.Equal(t, 185.0, ref.Value)

	// class share is sent with the provider separator; only the reference is present
	assert.ErrorIs(t, c.LastPrice(ctx, "BRK-B").Err, models.ErrNotFound)
	ref = c.ReferencePrice(ctx, "BRK-B")
	require.True(t, ref.OK())
	assert.Equal(t, 410.0, ref.Value)

	assert.ErrorIs(t, c.LastPrice(ctx, "ZZZZ").Err, models.ErrNotFound)
}

func TestClientMarketCap(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	c := New("secret", srv.URL, nil)

	mc := c.MarketCap(context.Background(), "AAPL")
	require.True(t, mc.OK())
	assert.InDelta(t, 2.95e12, mc.Value, 1)

	assert.ErrorIs(t, c.MarketCap(context.Background(), "ZZZZ").Err, models.ErrNotFound)
}

func TestClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := New("secret", srv.URL, nil).LastPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, res.Err, models.ErrProviderUnavailable)
}

func TestClientSharesQuoteBetweenPriceLookups(t *testing.T) {
	var quotes atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quotes.Add(1)
		fmt.Fprint(w, `{"c":0,"pc":410}`)
	}))
	defer srv.Close()
	c := New("secret", srv.URL, nil)
	ctx := context.Background()

	// the last price is absent, the reference is not: each fails on its own
	assert.ErrorIs(t, c.LastPrice(ctx, "BRK-B").Err, models.ErrNotFound)
	ref := c.ReferencePrice(ctx, "BRK-B")
	require.True(t, ref.OK())
	assert.Equal(t, 410.0, ref.Value)
	assert.EqualValues(t, 1, quotes.Load())

	c.ReferencePrice(ctx, "MSFT")
	assert.EqualValues(t, 2, quotes.Load())
}

func TestClientDoesNotReuseFailedQuote(t *testing.T) {
	var quotes atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if quotes.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"c":190,"pc":185}`)
	}))
	defer srv.Close()
	c := New("secret", srv.URL, nil)
	ctx := context.Background()

	assert.ErrorIs(t, c.LastPrice(ctx, "AAPL").Err, models.ErrProviderUnavailable)
	ref := c.ReferencePrice(ctx, "AAPL")
	require.True(t, ref.OK())
	assert.Equal(t, 185.0, ref.Value)
	assert.EqualValues(t, 2, quotes.Load())
}
