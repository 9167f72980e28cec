package gateway

import (
	"context"
	"errors"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/pkg/cache"
	"IndexImpact/pkg/logger"
)

// quotesEntry is what a batched quote fetch is cached as.
type quotesEntry struct {
	Result    QuoteResult `json:"result"`
	FetchedAt time.Time   `json:"fetched_at"`
}

type capEntry struct {
	Value     float64   `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (g *Gateway) fresh(fetchedAt time.Time, ttl time.Duration) bool {
	return ttl > 0 && g.clock.Now().Sub(fetchedAt) < ttl
}

func (g *Gateway) cachedQuotes(ctx context.Context, key string) (QuoteResult, bool) {
	var e quotesEntry
	hit := g.lookup(ctx, key, &e) && g.fresh(e.FetchedAt, g.cfg.QuoteTTL)
	g.metrics.RecordCacheLookup("quotes", hit)
	if !hit {
		return QuoteResult{}, false
	}
	if e.Result.Quotes == nil {
		e.Result.Quotes = map[models.Identifier]models.Quote{}
	}
	if e.Result.Unresolved == nil {
		e.Result.Unresolved = []models.Identifier{}
	}
	return e.Result, true
}

// storeQuotes caches a result unless nothing resolved; an empty result usually
// means the provider was down and should be retried on the next call.
func (g *Gateway) storeQuotes(ctx context.Context, key string, res QuoteResult) {
	if g.cfg.QuoteTTL <= 0 || len(res.Quotes) == 0 {
		return
	}
	g.store(ctx, key, quotesEntry{Result: res, FetchedAt: g.clock.Now()}, g.cfg.QuoteTTL)
}

func (g *Gateway) cachedCap(ctx context.Context, id models.Identifier) (float64, bool) {
	var e capEntry
	hit := g.lookup(ctx, cache.GenerateKey(capKeyPrefix, id.String()), &e) && g.fresh(e.FetchedAt, g.cfg.MarketCapTTL)
	g.metrics.RecordCacheLookup("marketcap", hit)
	return e.Value, hit
}

func (g *Gateway) storeCap(ctx context.Context, id models.Identifier, v float64) {
	if g.cfg.MarketCapTTL <= 0 {
		return
	}
	g.store(ctx, cache.GenerateKey(capKeyPrefix, id.String()), capEntry{Value: v, FetchedAt: g.clock.Now()}, g.cfg.MarketCapTTL)
}

func (g *Gateway) lookup(ctx context.Context, key string, dest interface{}) bool {
	err := g.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		g.log.Warn("cache read failed", logger.String("key", key), logger.Error(err))
	}
	return false
}

func (g *Gateway) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := g.cache.Set(ctx, key, value, ttl); err != nil {
		g.log.Warn("cache write failed", logger.String("key", key), logger.Error(err))
	}
}
