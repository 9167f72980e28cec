package gateway

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
)

// fakePrices serves fixed prices and counts every call.
type fakePrices struct {
	last  map[models.Identifier]float64
	ref   map[models.Identifier]float64
	err   error
	calls atomic.Int64
}

func (f *fakePrices) Name() string { return "fake" }

func (f *fakePrices) LastPrice(_ context.Context, id models.Identifier) repository.Result[float64] {
	return f.lookup(f.last, id)
}

func (f *fakePrices) ReferencePrice(_ context.Context, id models.Identifier) repository.Result[float64] {
	return f.lookup(f.ref, id)
}

func (f *fakePrices) lookup(m map[models.Identifier]float64, id models.Identifier) repository.Result[float64] {
	f.calls.Add(1)
	if f.err != nil {
		return repository.Fail[float64](f.err)
	}
	v, ok := m[id]
	if !ok {
		return repository.Fail[float64](fmt.Errorf("%s: %w", id, models.ErrNotFound))
	}
	return repository.Ok(v)
}

type fakeCaps struct {
	caps  map[models.Identifier]float64
	calls atomic.Int64
}

func (f *fakeCaps) Name() string { return "fake-caps" }

func (f *fakeCaps) MarketCap(_ context.Context, id models.Identifier) repository.Result[float64] {
	f.calls.Add(1)
	v, ok := f.caps[id]
	if !ok {
		return repository.Fail[float64](models.ErrNotFound)
	}
	return repository.Ok(v)
}

// fakeSnapshot serves pages keyed by cursor.
type fakeSnapshot struct {
	pages   map[string]repository.SnapshotPage
	err     error
	mu      sync.Mutex
	cursors []string
}

func (f *fakeSnapshot) Name() string { return "fake-snapshot" }

func (f *fakeSnapshot) Page(_ context.Context, cursor string) repository.Result[repository.SnapshotPage] {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	f.mu.Unlock()
	if f.err != nil {
		return repository.Fail[repository.SnapshotPage](f.err)
	}
	return repository.Ok(f.pages[cursor])
}

func (f *fakeSnapshot) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cursors...)
}

// countingMetrics records cache lookups for assertions.
type countingMetrics struct {
	repository.NoopMetrics
	mu     sync.Mutex
	hits   int
	misses int
}

func (m *countingMetrics) RecordCacheLookup(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}
