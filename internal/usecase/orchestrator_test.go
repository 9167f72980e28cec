package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/gateway"
	"IndexImpact/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct{ last, ref float64 }

type fakeMarket struct {
	quotes map[models.Identifier]quote
	caps   map[models.Identifier]float64

	mu         sync.Mutex
	quoteCalls [][]models.Identifier
	capCalls   [][]models.Identifier
}

func (f *fakeMarket) GetQuotes(_ context.Context, ids []models.Identifier) gateway.QuoteResult {
	f.mu.Lock()
	f.quoteCalls = append(f.quoteCalls, ids)
	f.mu.Unlock()

	res := gateway.QuoteResult{Quotes: map[models.Identifier]models.Quote{}, Unresolved: []models.Identifier{}}
	for _, id := range ids {
		q, ok := f.quotes[id]
		if !ok {
			res.Unresolved = append(res.Unresolved, id)
			continue
		}
		mq, err := models.NewQuote(id, q.last, q.ref)
		if err != nil {
			res.Unresolved = append(res.Unresolved, id)
			continue
		}
		res.Quotes[id] = mq
	}
	return res
}

func (f *fakeMarket) GetMarketCaps(_ context.Context, ids []models.Identifier) map[models.Identifier]models.MarketCap {
	f.mu.Lock()
	f.capCalls = append(f.capCalls, ids)
	f.mu.Unlock()

	out := map[models.Identifier]models.MarketCap{}
	for _, id := range ids {
		if v, ok := f.caps[id]; ok && v > 0 {
			out[id] = models.MarketCap{Identifier: id, Capitalization: v}
		}
	}
	return out
}

func def(t *testing.T, name string, regime models.Regime, capFraction float64, ids ...models.Identifier) models.IndexDefinition {
	t.Helper()
	d, err := models.NewIndexDefinition(name, ids, regime, capFraction)
	require.NoError(t, err)
	return d
}

func TestComputePriceWeightedScenario(t *testing.T) {
	// A trades at 100 after +2%, B at 50 after -4%
	market := &fakeMarket{quotes: map[models.Identifier]quote{
		"A": {last: 100, ref: 100 / 1.02},
		"B": {last: 50, ref: 50 / 0.96},
	}}

	o := NewIndexOrchestrator([]models.IndexDefinition{def(t, "DJIA", models.RegimePrice, 0, "A", "B")}, market, nil, nil)
	r := o.Compute(context.Background())

	ir, ok := r.Index("DJIA")
	require.True(t, ok)
	require.Len(t, ir.Rows, 2)
	assert.Equal(t, models.Identifier("A"), ir.Rows[0].Identifier)
	assert.InDelta(t, 66.6667, ir.Rows[0].WeightPct, 1e-3)
	assert.InDelta(t, 33.3333, ir.Rows[1].WeightPct, 1e-3)
	assert.InDelta(t, 1.3333, ir.Rows[0].ImpactPct, 1e-3)
	assert.InDelta(t, -1.3333, ir.Rows[1].ImpactPct, 1e-3)
	assert.Equal(t, models.DirectionPositive, ir.Rows[0].Direction)
	assert.Equal(t, models.DirectionNegative, ir.Rows[1].Direction)
	assert.InDelta(t, 0, ir.Contribution, 1e-9)
	assert.Equal(t, 2, ir.Coverage.Expected)
	assert.Equal(t, 2, ir.Coverage.Resolved)
	assert.Empty(t, market.capCalls)
}

func TestComputeBatchesQuotesAndIsolatesIndices(t *testing.T) {
	market := &fakeMarket{
		quotes: map[models.Identifier]quote{
			"AAPL": {190, 185}, "MSFT": {420, 415}, "NVDA": {900, 880}, "XOM": {110, 112},
		},
		caps: map[models.Identifier]float64{"AAPL": 3e12, "MSFT": 2.9e12, "NVDA": 2.2e12},
	}
	indices := []models.IndexDefinition{
		def(t, "DJIA", models.RegimePrice, 0, "AAPL", "MSFT", "XOM"),
		def(t, "GHOST", models.RegimeCap, 0, "DEAD1", "DEAD2"),
		def(t, "SPX", models.RegimeCap, 0, "AAPL", "MSFT", "NVDA", "XOM"),
		def(t, "NDX", models.RegimeCappedCap, 0.35, "AAPL", "MSFT", "NVDA"),
	}
	o := NewIndexOrchestrator(indices, market, nil, nil)
	r := o.Compute(context.Background())

	// one batched quote fetch over the union of constituents
	require.Len(t, market.quoteCalls, 1)
	union := append([]models.Identifier(nil), market.quoteCalls[0]...)
	sort.Slice(union, func(i, j int) bool { return union[i] < union[j] })
	assert.Equal(t, []models.Identifier{"AAPL", "DEAD1", "DEAD2", "MSFT", "NVDA", "XOM"}, union)
	assert.ElementsMatch(t, []models.Identifier{"DEAD1", "DEAD2"}, r.Unresolved)

	// report order follows configuration
	names := make([]string, len(r.Indices))
	for i, ir := range r.Indices {
		names[i] = ir.Name
	}
	assert.Equal(t, []string{"DJIA", "GHOST", "SPX", "NDX"}, names)

	ghost, _ := r.Index("GHOST")
	assert.NotNil(t, ghost.Rows)
	assert.Empty(t, ghost.Rows)
	assert.True(t, ghost.Diagnostics.Degenerate)
	assert.Equal(t, 2, ghost.Coverage.Expected)
	assert.Zero(t, ghost.Coverage.Resolved)

	spx, _ := r.Index("SPX")
	assert.Len(t, spx.Rows, 3)
	assert.Equal(t, []models.Identifier{"XOM"}, spx.Coverage.MissingCaps)
	assert.Equal(t, 4, spx.Coverage.Resolved)
	assert.Equal(t, 3, spx.Coverage.Weighted)
	sum := 0.0
	for _, row := range spx.Rows {
		sum += row.WeightPct
	}
	assert.InDelta(t, 100, sum, 1e-6)

	ndx, _ := r.Index("NDX")
	for _, row := range ndx.Rows {
		assert.LessOrEqual(t, row.WeightPct, 35+1e-6)
	}
	assert.False(t, ndx.Diagnostics.NonConvergentCap)
	assert.Positive(t, ndx.Diagnostics.CapIterations)

	dj, _ := r.Index("DJIA")
	assert.Len(t, dj.Rows, 3)

	// caps were requested only for cap-weighted indices with resolved constituents
	assert.Len(t, market.capCalls, 2)
}

func TestComputeNonConvergentCapIsDiagnostic(t *testing.T) {
	market := &fakeMarket{
		quotes: map[models.Identifier]quote{"A": {10, 10}, "B": {10, 10}, "C": {10, 10}},
		caps:   map[models.Identifier]float64{"A": 1, "B": 1, "C": 1},
	}
	o := NewIndexOrchestrator([]models.IndexDefinition{def(t, "TIGHT", models.RegimeCappedCap, 0.14, "A", "B", "C")}, market, nil, nil)
	ir, _ := o.Compute(context.Background()).Index("TIGHT")

	assert.True(t, ir.Diagnostics.NonConvergentCap)
	assert.Contains(t, ir.Diagnostics.Message, models.ErrNonConvergentCap.Error())
	require.Len(t, ir.Rows, 3)
	for _, row := range ir.Rows {
		assert.InDelta(t, 100.0/3, row.WeightPct, 1e-9)
	}
}

func TestLoadIndices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ndx.txt")
	require.NoError(t, os.WriteFile(path, []byte("symbol\nmsft\nBRK.B US Equity\nAAPL\n"), 0o644))

	defs, err := LoadIndices(context.Background(), []config.Index{
		{Name: "DJIA", Regime: "price", Tickers: []string{"aapl", " MSFT ", "aapl"}},
		{Name: "NDX", Regime: "capped-cap", CapFraction: 0.14, Tickers: []string{"NVDA"}, Source: config.Source{Path: path}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, []models.Identifier{"AAPL", "MSFT"}, defs[0].Constituents())
	assert.Equal(t, []models.Identifier{"NVDA", "MSFT", "BRK-B", "AAPL"}, defs[1].Constituents())
	assert.Equal(t, models.RegimeCappedCap, defs[1].Regime())

	_, err = LoadIndices(context.Background(), []config.Index{{Name: "X", Regime: "equal", Tickers: []string{"A"}}}, nil)
	assert.Error(t, err)

	_, err = LoadIndices(context.Background(), []config.Index{{Name: "X", Regime: "price", Source: config.Source{Path: path, Kind: "csv"}}}, nil)
	assert.Error(t, err)
}

func TestLoadIndicesSurvivesMissingList(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "spx.xlsx")
	defs, err := LoadIndices(context.Background(), []config.Index{
		{Name: "DJIA", Regime: "price", Tickers: []string{"A"}},
		{Name: "SPX", Regime: "cap", Source: config.Source{Path: missing, Kind: "xlsx"}},
		{Name: "MIX", Regime: "price", Tickers: []string{"B"}, Source: config.Source{Path: missing}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Empty(t, defs[1].Constituents())
	assert.Equal(t, []models.Identifier{"B"}, defs[2].Constituents())

	// the empty index is reported with zero coverage, the others are computed
	market := &fakeMarket{quotes: map[models.Identifier]quote{"A": {11, 10}, "B": {20, 20}}}
	r := NewIndexOrchestrator(defs, market, nil, nil).Compute(context.Background())
	require.Len(t, r.Indices, 3)
	assert.Len(t, r.Indices[0].Rows, 1)
	assert.Equal(t, "SPX", r.Indices[1].Name)
	assert.Empty(t, r.Indices[1].Rows)
	assert.Equal(t, 0, r.Indices[1].Coverage.Expected)
	assert.Len(t, r.Indices[2].Rows, 1)
}

func TestReportUseCaseStoresAndPublishes(t *testing.T) {
	market := &fakeMarket{quotes: map[models.Identifier]quote{"A": {11, 10}}}
	o := NewIndexOrchestrator([]models.IndexDefinition{def(t, "ONE", models.RegimePrice, 0, "A")}, market, nil, nil)
	pub := &recordingPublisher{err: errors.New("broker down")}
	uc := NewReportUseCase(o, NewReportStore(), pub, nil)

	_, ok := uc.Latest()
	assert.False(t, ok)

	r := uc.Refresh(context.Background())
	latest, ok := uc.Latest()
	require.True(t, ok)
	assert.Same(t, r, latest)
	assert.Equal(t, 1, pub.count)
	assert.Len(t, uc.Indices(), 1)
}

// cancellableMarket resolves nothing once the caller's context is done.
type cancellableMarket struct{ *fakeMarket }

func (m cancellableMarket) GetQuotes(ctx context.Context, ids []models.Identifier) gateway.QuoteResult {
	if ctx.Err() != nil {
		return gateway.QuoteResult{Quotes: map[models.Identifier]models.Quote{}, Unresolved: ids}
	}
	return m.fakeMarket.GetQuotes(ctx, ids)
}

func TestReportUseCaseKeepsReportWhenRefreshIsCancelled(t *testing.T) {
	market := cancellableMarket{&fakeMarket{quotes: map[models.Identifier]quote{"A": {11, 10}, "B": {9, 10}}}}
	o := NewIndexOrchestrator([]models.IndexDefinition{def(t, "ONE", models.RegimePrice, 0, "A", "B")}, market, nil, nil)
	pub := &recordingPublisher{}
	uc := NewReportUseCase(o, NewReportStore(), pub, nil)

	good := uc.Refresh(context.Background())
	require.Len(t, good.Indices[0].Rows, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := uc.Refresh(ctx)

	latest, ok := uc.Latest()
	require.True(t, ok)
	assert.Same(t, good, latest)
	assert.Same(t, good, got)
	assert.Len(t, latest.Indices[0].Rows, 2)
	assert.Equal(t, 1, pub.count)
}

func TestReportUseCaseCancelledFirstRefreshStoresNothing(t *testing.T) {
	market := cancellableMarket{&fakeMarket{quotes: map[models.Identifier]quote{"A": {11, 10}}}}
	o := NewIndexOrchestrator([]models.IndexDefinition{def(t, "ONE", models.RegimePrice, 0, "A")}, market, nil, nil)
	pub := &recordingPublisher{}
	uc := NewReportUseCase(o, NewReportStore(), pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := uc.Refresh(ctx)
	require.NotNil(t, r)

	_, ok := uc.Latest()
	assert.False(t, ok)
	assert.Zero(t, pub.count)
}

type recordingPublisher struct {
	count int
	err   error
}

func (p *recordingPublisher) Publish(context.Context, *models.Report) error {
	p.count++
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
