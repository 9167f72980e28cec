package repository

import (
	"context"

	"IndexImpact/internal/domain/models"
)

// PriceSource fetches prices one identifier at a time. The two calls are
// independent: one may fail while the other succeeds.
type PriceSource interface {
	Name() string
	LastPrice(ctx context.Context, id models.Identifier) Result[float64]
	ReferencePrice(ctx context.Context, id models.Identifier) Result[float64]
}

// CapSource fetches market capitalization one identifier at a time.
type CapSource interface {
	Name() string
	MarketCap(ctx context.Context, id models.Identifier) Result[float64]
}

// SnapshotEntry is one instrument in a bulk snapshot page.
type SnapshotEntry struct {
	Identifier     models.Identifier
	LastPrice      float64
	ReferencePrice float64
}

// SnapshotPage is one page of a bulk snapshot. An empty Next means no more pages.
type SnapshotPage struct {
	Entries []SnapshotEntry
	Next    string
}

// SnapshotSource returns price data for the whole market, possibly paginated.
type SnapshotSource interface {
	Name() string
	Page(ctx context.Context, cursor string) Result[SnapshotPage]
}

// ReportPublisher ships computed reports to downstream consumers.
type ReportPublisher interface {
	Publish(ctx context.Context, r *models.Report) error
	Close() error
}

type Metrics interface {
	RecordProviderCall(provider, call string, ok bool)
	RecordCacheLookup(cache string, hit bool)
	RecordCoverage(index string, c models.Coverage)
	RecordCapIterations(index string, n int)
	RecordLatency(op string, seconds float64)
}
