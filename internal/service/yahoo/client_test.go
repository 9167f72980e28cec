package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"IndexImpact/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	daily = `{"chart":{"result":[{"meta":{"symbol":"%s","regularMarketPrice":%v,"chartPreviousClose":%v},
		"indicators":{"quote":[{"close":[%s]}]}}],"error":null}`
	notFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sym := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		rng := r.URL.Query().Get("range")
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))

		switch {
		case sym == "MSFT" && rng == "1d":
			fmt.Fprintf(w, daily, sym, 420.5, 415, "420.5")
		case sym == "MSFT" && rng == "5d":
			fmt.Fprintf(w, daily, sym, 420.5, 400, "401,405,null,415,420.5")
		case sym == "BRK-B":
			fmt.Fprintf(w, daily, sym, 0, 409.25, "")
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, notFound)
		}
	}))
}

func TestLastPrice(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	c := New(srv.URL, nil)

	res := c.LastPrice(context.Background(), "MSFT")
	require.True(t, res.OK())
	assert.Equal(t, 420.5, res.Value)

	assert.ErrorIs(t, c.LastPrice(context.Background(), "BRK-B").Err, models.ErrNotFound)
	assert.ErrorIs(t, c.LastPrice(context.Background(), "NOPE").Err, models.ErrNotFound)
}

func TestReferencePrice(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	c := New(srv.URL, nil)

	res := c.ReferencePrice(context.Background(), "MSFT")
	require.True(t, res.OK())
	assert.Equal(t, 415.0, res.Value)

	res = c.ReferencePrice(context.Background(), "BRK-B")
	require.True(t, res.OK())
	assert.Equal(t, 409.25, res.Value)
}
