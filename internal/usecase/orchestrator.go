package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
	"IndexImpact/internal/gateway"
	"IndexImpact/internal/impact"
	"IndexImpact/internal/ticker"
	"IndexImpact/internal/weighting"
	"IndexImpact/pkg/logger"
)

// MarketData is the slice of the gateway the orchestrator depends on.
type MarketData interface {
	GetQuotes(ctx context.Context, ids []models.Identifier) gateway.QuoteResult
	GetMarketCaps(ctx context.Context, ids []models.Identifier) map[models.Identifier]models.MarketCap
}

// IndexOrchestrator computes the impact report for every configured index.
type IndexOrchestrator struct {
	indices []models.IndexDefinition
	data    MarketData
	metrics repository.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewIndexOrchestrator(indices []models.IndexDefinition, data MarketData, metrics repository.Metrics, log *logger.Logger) *IndexOrchestrator {
	if metrics == nil {
		metrics = repository.NoopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	defs := make([]models.IndexDefinition, len(indices))
	copy(defs, indices)
	return &IndexOrchestrator{indices: defs, data: data, metrics: metrics, log: log, now: time.Now}
}

// Indices returns the configured definitions in configuration order.
func (o *IndexOrchestrator) Indices() []models.IndexDefinition {
	out := make([]models.IndexDefinition, len(o.indices))
	copy(out, o.indices)
	return out
}

// Compute runs one cycle. Quotes for the union of all constituents are fetched
// in a single batch before any index is weighted; indices are then computed
// independently and reported in configuration order.
func (o *IndexOrchestrator) Compute(ctx context.Context) *models.Report {
	start := time.Now()
	defer func() { o.metrics.RecordLatency("compute_cycle", time.Since(start).Seconds()) }()

	lists := make([][]models.Identifier, len(o.indices))
	for i, def := range o.indices {
		lists[i] = def.Constituents()
	}
	quotes := o.data.GetQuotes(ctx, ticker.Union(lists...))

	reports := make([]models.IndexReport, len(o.indices))
	var wg sync.WaitGroup
	for i, def := range o.indices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = o.computeIndex(ctx, def, quotes.Quotes)
		}()
	}
	wg.Wait()

	return &models.Report{
		GeneratedAt: o.now(),
		Indices:     reports,
		Unresolved:  quotes.Unresolved,
	}
}

// computeIndex never fails: anything that goes wrong is reported through the
// coverage counts and diagnostics of an otherwise empty IndexReport.
func (o *IndexOrchestrator) computeIndex(ctx context.Context, def models.IndexDefinition, quotes map[models.Identifier]models.Quote) (ir models.IndexReport) {
	ir = models.IndexReport{
		Name:        def.Name(),
		Regime:      def.Regime(),
		CapFraction: def.CapFraction(),
		Rows:        []models.WeightedRow{},
	}
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("index computation panicked", logger.String("index", def.Name()), logger.Any("panic", r))
			ir.Rows = []models.WeightedRow{}
			ir.Contribution = 0
			ir.Diagnostics.Message = fmt.Sprintf("computation failed: %v", r)
		}
		o.metrics.RecordCoverage(def.Name(), ir.Coverage)
	}()

	constituents := def.Constituents()
	ir.Coverage.Expected = len(constituents)

	resolved := make([]models.Quote, 0, len(constituents))
	for _, id := range constituents {
		if q, ok := quotes[id]; ok {
			resolved = append(resolved, q)
		} else {
			ir.Coverage.Unresolved = append(ir.Coverage.Unresolved, id)
		}
	}
	ir.Coverage.Resolved = len(resolved)

	var caps map[models.Identifier]models.MarketCap
	if def.Regime().NeedsMarketCaps() && len(resolved) > 0 {
		ids := make([]models.Identifier, len(resolved))
		for i, q := range resolved {
			ids[i] = q.Identifier
		}
		caps = o.data.GetMarketCaps(ctx, ids)
	}

	inputs := make([]weighting.Input, len(resolved))
	for i, q := range resolved {
		inputs[i] = weighting.Input{
			Identifier: q.Identifier,
			Price:      q.LastPrice,
			MarketCap:  caps[q.Identifier].Capitalization,
		}
	}

	res, err := weighting.Compute(inputs, def.Regime(), def.CapFraction())
	ir.Coverage.MissingCaps = res.Excluded
	ir.Coverage.Weighted = len(res.Weights)
	if def.Regime() == models.RegimeCappedCap {
		ir.Diagnostics.CapIterations = res.Iterations
		o.metrics.RecordCapIterations(def.Name(), res.Iterations)
	}

	switch {
	case errors.Is(err, models.ErrDegenerateWeighting):
		ir.Diagnostics.Degenerate = true
		ir.Diagnostics.Message = err.Error()
		o.log.Warn("index has nothing to weight",
			logger.String("index", def.Name()),
			logger.Int("expected", ir.Coverage.Expected),
			logger.Int("resolved", ir.Coverage.Resolved),
		)
		return ir
	case errors.Is(err, models.ErrNonConvergentCap):
		ir.Diagnostics.NonConvergentCap = true
		ir.Diagnostics.Message = err.Error()
		o.log.Warn("cap redistribution did not converge",
			logger.String("index", def.Name()),
			logger.Float64("cap_fraction", def.CapFraction()),
			logger.Int("iterations", res.Iterations),
			logger.Int("constituents", len(res.Weights)),
		)
	case err != nil:
		ir.Diagnostics.Message = err.Error()
		o.log.Error("weighting failed", logger.String("index", def.Name()), logger.Error(err))
		return ir
	}

	rows := make([]impact.Row, 0, len(res.Weights))
	for _, q := range resolved {
		w, ok := res.Weights[q.Identifier]
		if !ok {
			continue
		}
		rows = append(rows, impact.Row{
			Identifier: q.Identifier,
			Price:      q.LastPrice,
			ReturnPct:  q.ReturnPct(),
			WeightPct:  w,
			Fallback:   q.Fallback,
		})
	}

	ir.Rows = impact.Rank(rows)
	ir.Contribution = impact.Contribution(ir.Rows)

	if len(ir.Coverage.Unresolved) > 0 || len(ir.Coverage.MissingCaps) > 0 {
		o.log.Warn("index computed with partial coverage",
			logger.String("index", def.Name()),
			logger.Int("expected", ir.Coverage.Expected),
			logger.Int("resolved", ir.Coverage.Resolved),
			logger.Int("weighted", ir.Coverage.Weighted),
		)
	}
	return ir
}
