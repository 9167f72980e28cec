package gateway

import (
	"context"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
	"IndexImpact/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// fetchSnapshot follows snapshot pages until every requested identifier is
// found, the cursor runs out or repeats, or the page budget is spent.
func (g *Gateway) fetchSnapshot(ctx context.Context, ids []models.Identifier) map[models.Identifier]models.Quote {
	quotes := make(map[models.Identifier]models.Quote, len(ids))
	if g.snapshot == nil {
		g.log.Error("snapshot strategy without a snapshot source")
		return quotes
	}

	want := make(map[models.Identifier]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	name := g.snapshot.Name()
	seen := map[string]struct{}{}
	cursor := ""

	for page := 0; page < g.cfg.MaxPages; page++ {
		cur := cursor
		res := call(ctx, g, name, "snapshot", func(ctx context.Context) repository.Result[repository.SnapshotPage] {
			return g.snapshot.Page(ctx, cur)
		})
		if !res.OK() {
			g.log.Warn("snapshot page failed",
				logger.String("provider", name),
				logger.Int("page", page),
				logger.Error(res.Err),
			)
			return quotes
		}

		for _, e := range res.Value.Entries {
			if _, ok := want[e.Identifier]; !ok {
				continue
			}
			if _, done := quotes[e.Identifier]; done {
				continue
			}
			last := repository.Ok(e.LastPrice)
			ref := repository.Ok(e.ReferencePrice)
			if q, ok := g.buildQuote(e.Identifier, name, last, ref); ok {
				quotes[e.Identifier] = q
			}
		}

		if len(quotes) == len(want) {
			return quotes
		}

		next := res.Value.Next
		if next == "" {
			return quotes
		}
		if _, loop := seen[next]; loop || next == cursor {
			g.log.Warn("snapshot cursor repeated, stopping",
				logger.String("provider", name),
				logger.String("cursor", next),
			)
			return quotes
		}
		seen[next] = struct{}{}
		cursor = next
	}

	g.log.Warn("snapshot page budget exhausted",
		logger.String("provider", name),
		logger.Int("max_pages", g.cfg.MaxPages),
	)
	return quotes
}

// fetchPerIdentifier issues the last and reference price calls for every
// identifier on a bounded pool. One identifier failing never affects another.
func (g *Gateway) fetchPerIdentifier(ctx context.Context, ids []models.Identifier) map[models.Identifier]models.Quote {
	quotes := make(map[models.Identifier]models.Quote, len(ids))
	if g.prices == nil {
		g.log.Error("per-identifier strategy without a price source")
		return quotes
	}

	name := g.prices.Name()
	results := make([]*models.Quote, len(ids))

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Workers)
	for i, id := range ids {
		eg.Go(func() error {
			last := call(ctx, g, name, "last_price", func(ctx context.Context) repository.Result[float64] {
				return g.prices.LastPrice(ctx, id)
			})
			ref := call(ctx, g, name, "reference_price", func(ctx context.Context) repository.Result[float64] {
				return g.prices.ReferencePrice(ctx, id)
			})
			if q, ok := g.buildQuote(id, name, last, ref); ok {
				results[i] = &q
			} else {
				g.log.Debug("identifier unresolved",
					logger.String("provider", name),
					logger.String("identifier", id.String()),
					logger.String("last_error", errString(last.Err)),
					logger.String("reference_error", errString(ref.Err)),
				)
			}
			return nil
		})
	}
	_ = eg.Wait()

	for _, q := range results {
		if q != nil {
			quotes[q.Identifier] = *q
		}
	}
	return quotes
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
