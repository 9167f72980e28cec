package gateway

import (
	"context"
	"errors"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
	"IndexImpact/internal/service/breaker"
	"IndexImpact/internal/service/ratelimit"
	"IndexImpact/pkg/cache"
	"IndexImpact/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Strategy selects how quotes are fetched.
type Strategy string

const (
	// StrategySnapshot walks a bulk snapshot page by page.
	StrategySnapshot Strategy = "snapshot"
	// StrategyPerIdentifier fetches each identifier with two independent calls.
	StrategyPerIdentifier Strategy = "per-identifier"
)

const (
	quotesKeyPrefix = "quotes"
	capKeyPrefix    = "marketcap"
)

// Config tunes fetching and caching.
type Config struct {
	Strategy            Strategy
	QuoteTTL            time.Duration
	MarketCapTTL        time.Duration
	FetchTimeout        time.Duration
	Workers             int
	RetryAttempts       int
	RetryBackoff        time.Duration
	MaxPages            int
	FallbackToReference bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Strategy:            StrategyPerIdentifier,
		QuoteTTL:            30 * time.Second,
		MarketCapTTL:        24 * time.Hour,
		FetchTimeout:        10 * time.Second,
		Workers:             8,
		RetryAttempts:       2,
		RetryBackoff:        200 * time.Millisecond,
		MaxPages:            50,
		FallbackToReference: true,
	}
}

// QuoteResult is the outcome of a batched quote fetch. Every requested
// identifier is either in Quotes or in Unresolved.
type QuoteResult struct {
	Quotes     map[models.Identifier]models.Quote `json:"quotes"`
	Unresolved []models.Identifier                `json:"unresolved"`
}

// Gateway is the single point of access to market data. It never returns an
// error: anything that could not be fetched is reported as unresolved or
// simply left out.
type Gateway struct {
	cfg      Config
	prices   repository.PriceSource
	caps     repository.CapSource
	snapshot repository.SnapshotSource
	cache    cache.Service
	clock    cache.Clock
	limiter  *ratelimit.Limiter
	breakers *breaker.Set
	metrics  repository.Metrics
	log      *logger.Logger
	flight   singleflight.Group
}

type Option func(*Gateway)

func WithPriceSource(s repository.PriceSource) Option {
	return func(g *Gateway) { g.prices = s }
}

func WithCapSource(s repository.CapSource) Option {
	return func(g *Gateway) { g.caps = s }
}

func WithSnapshotSource(s repository.SnapshotSource) Option {
	return func(g *Gateway) { g.snapshot = s }
}

func WithCache(c cache.Service) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithClock sets the clock used to judge freshness of cached entries.
func WithClock(c cache.Clock) Option {
	return func(g *Gateway) { g.clock = c }
}

func WithLimiter(l *ratelimit.Limiter) Option {
	return func(g *Gateway) { g.limiter = l }
}

func WithBreakers(b *breaker.Set) Option {
	return func(g *Gateway) { g.breakers = b }
}

func WithMetrics(m repository.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// New builds a Gateway. Missing collaborators get in-process defaults.
func New(cfg Config, opts ...Option) *Gateway {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyPerIdentifier
	}

	g := &Gateway{cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}

	if g.clock == nil {
		g.clock = cache.SystemClock{}
	}
	if g.cache == nil {
		g.cache = cache.NewMemoryCache(cache.WithMemoryClock(g.clock))
	}
	if g.limiter == nil {
		g.limiter = ratelimit.New(0, 1)
	}
	if g.breakers == nil {
		g.breakers = breaker.NewSet(BreakerSettings())
	}
	if g.metrics == nil {
		g.metrics = repository.NoopMetrics{}
	}
	if g.log == nil {
		g.log = logger.Nop()
	}
	return g
}

// BreakerSettings trips only on provider-level failures; unknown symbols and
// odd payloads are the provider working as intended.
func BreakerSettings() breaker.Settings {
	s := breaker.DefaultSettings()
	s.IsFailure = func(err error) bool {
		return errors.Is(err, models.ErrProviderUnavailable)
	}
	return s
}

// GetQuotes returns a quote for every identifier that could be resolved.
func (g *Gateway) GetQuotes(ctx context.Context, ids []models.Identifier) QuoteResult {
	start := time.Now()
	defer func() { g.metrics.RecordLatency("get_quotes", time.Since(start).Seconds()) }()

	ids = distinct(ids)
	if len(ids) == 0 {
		return QuoteResult{Quotes: map[models.Identifier]models.Quote{}, Unresolved: []models.Identifier{}}
	}

	key := cache.SetKey(quotesKeyPrefix, models.Identifiers(ids))
	if res, ok := g.cachedQuotes(ctx, key); ok {
		return res
	}

	// The shared fetch runs detached from any one caller; a caller that
	// gives up gets an all-unresolved result while the others still wait.
	fetchCtx := context.WithoutCancel(ctx)
	ch := g.flight.DoChan(key, func() (interface{}, error) {
		res := g.fetchQuotes(fetchCtx, ids)
		g.storeQuotes(fetchCtx, key, res)
		return res, nil
	})
	select {
	case r := <-ch:
		return r.Val.(QuoteResult).clone()
	case <-ctx.Done():
		g.log.Warn("quote request abandoned", logger.Int("requested", len(ids)), logger.Error(ctx.Err()))
		return QuoteResult{Quotes: map[models.Identifier]models.Quote{}, Unresolved: ids}
	}
}

func (g *Gateway) fetchQuotes(ctx context.Context, ids []models.Identifier) QuoteResult {
	var quotes map[models.Identifier]models.Quote
	switch g.cfg.Strategy {
	case StrategySnapshot:
		quotes = g.fetchSnapshot(ctx, ids)
	default:
		quotes = g.fetchPerIdentifier(ctx, ids)
	}

	res := QuoteResult{Quotes: quotes, Unresolved: []models.Identifier{}}
	for _, id := range ids {
		if _, ok := quotes[id]; !ok {
			res.Unresolved = append(res.Unresolved, id)
		}
	}
	if len(res.Unresolved) > 0 {
		g.log.Warn("unresolved identifiers",
			logger.String("strategy", string(g.cfg.Strategy)),
			logger.Int("requested", len(ids)),
			logger.Int("unresolved", len(res.Unresolved)),
			logger.Strings("identifiers", models.Identifiers(res.Unresolved)),
		)
	}
	return res
}

// buildQuote turns the two independent price lookups into a quote. When only
// the reference price is usable and fallback is enabled, it stands in for the
// last price and the quote is flagged.
func (g *Gateway) buildQuote(id models.Identifier, source string, last, ref repository.Result[float64]) (models.Quote, bool) {
	if !ref.OK() {
		return models.Quote{}, false
	}

	lastPrice := last.Value
	fallback := false
	if !last.OK() || !models.UsablePrice(lastPrice) {
		if !g.cfg.FallbackToReference {
			return models.Quote{}, false
		}
		lastPrice = ref.Value
		fallback = true
	}

	q, err := models.NewQuote(id, lastPrice, ref.Value)
	if err != nil {
		g.log.Debug("dropping quote", logger.String("identifier", id.String()), logger.Error(err))
		return models.Quote{}, false
	}
	q.Fallback = fallback
	q.Source = source
	q.FetchedAt = g.clock.Now()
	return q, true
}

func (r QuoteResult) clone() QuoteResult {
	out := QuoteResult{
		Quotes:     make(map[models.Identifier]models.Quote, len(r.Quotes)),
		Unresolved: make([]models.Identifier, len(r.Unresolved)),
	}
	for k, v := range r.Quotes {
		out.Quotes[k] = v
	}
	copy(out.Unresolved, r.Unresolved)
	return out
}

func distinct(ids []models.Identifier) []models.Identifier {
	seen := make(map[models.Identifier]struct{}, len(ids))
	out := make([]models.Identifier, 0, len(ids))
	for _, id := range ids {
		if id.IsEmpty() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
