package gateway

import (
	"context"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
	"IndexImpact/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// GetMarketCaps returns capitalizations for the identifiers that have a usable
// one. Missing or non-positive values are simply absent from the map.
func (g *Gateway) GetMarketCaps(ctx context.Context, ids []models.Identifier) map[models.Identifier]models.MarketCap {
	start := time.Now()
	defer func() { g.metrics.RecordLatency("get_market_caps", time.Since(start).Seconds()) }()

	ids = distinct(ids)
	out := make(map[models.Identifier]models.MarketCap, len(ids))

	var misses []models.Identifier
	for _, id := range ids {
		if v, ok := g.cachedCap(ctx, id); ok {
			out[id] = models.MarketCap{Identifier: id, Capitalization: v}
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out
	}
	if g.caps == nil {
		g.log.Warn("no market cap source configured", logger.Int("missing", len(misses)))
		return out
	}

	name := g.caps.Name()
	fetched := make([]float64, len(misses))

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Workers)
	for i, id := range misses {
		eg.Go(func() error {
			v, _, _ := g.flight.Do(capKeyPrefix+":"+id.String(), func() (interface{}, error) {
				res := call(ctx, g, name, "market_cap", func(ctx context.Context) repository.Result[float64] {
					return g.caps.MarketCap(ctx, id)
				})
				if !res.OK() || !models.UsablePrice(res.Value) {
					return 0.0, nil
				}
				g.storeCap(ctx, id, res.Value)
				return res.Value, nil
			})
			fetched[i] = v.(float64)
			return nil
		})
	}
	_ = eg.Wait()

	absent := 0
	for i, id := range misses {
		if fetched[i] > 0 {
			out[id] = models.MarketCap{Identifier: id, Capitalization: fetched[i]}
		} else {
			absent++
		}
	}
	if absent > 0 {
		g.log.Warn("market caps unavailable",
			logger.String("provider", name),
			logger.Int("requested", len(ids)),
			logger.Int("absent", absent),
		)
	}
	return out
}
