package usecase

import (
	"context"
	"sync"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
	"IndexImpact/pkg/logger"
)

// ReportStore holds the most recent report for readers such as the HTTP API.
type ReportStore struct {
	mu     sync.RWMutex
	latest *models.Report
}

func NewReportStore() *ReportStore { return &ReportStore{} }

func (s *ReportStore) Set(r *models.Report) {
	s.mu.Lock()
	s.latest = r
	s.mu.Unlock()
}

// Latest returns the last stored report, or false before the first cycle.
func (s *ReportStore) Latest() (*models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// ReportUseCase runs a cycle, keeps its result and ships it downstream.
type ReportUseCase struct {
	orch      *IndexOrchestrator
	store     *ReportStore
	publisher repository.ReportPublisher
	log       *logger.Logger
	timeout   time.Duration
	mu        sync.Mutex
}

func NewReportUseCase(orch *IndexOrchestrator, store *ReportStore, publisher repository.ReportPublisher, log *logger.Logger) *ReportUseCase {
	if publisher == nil {
		publisher = repository.NoopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReportUseCase{orch: orch, store: store, publisher: publisher, log: log, timeout: 2 * time.Minute}
}

// Refresh computes a new report, stores it and publishes it. Overlapping
// calls are serialized. A cycle whose context ended before it finished is
// incomplete: it is neither stored nor published, and the previous report
// is returned when there is one.
func (uc *ReportUseCase) Refresh(ctx context.Context) *models.Report {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	r := uc.orch.Compute(ctx)
	if err := ctx.Err(); err != nil {
		uc.log.Warn("refresh interrupted, keeping previous report", logger.Error(err))
		if prev, ok := uc.store.Latest(); ok {
			return prev
		}
		return r
	}
	uc.store.Set(r)

	if err := uc.publisher.Publish(ctx, r); err != nil {
		uc.log.Warn("publish report failed", logger.Error(err))
	}

	uc.log.Info("report refreshed",
		logger.Int("indices", len(r.Indices)),
		logger.Int("unresolved", len(r.Unresolved)),
	)
	return r
}

// Latest returns the stored report.
func (uc *ReportUseCase) Latest() (*models.Report, bool) {
	return uc.store.Latest()
}

// Indices lists the configured index definitions.
func (uc *ReportUseCase) Indices() []models.IndexDefinition {
	return uc.orch.Indices()
}
