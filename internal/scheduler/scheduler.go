package scheduler

import (
	"context"
	"fmt"

	"IndexImpact/internal/domain/models"
	"IndexImpact/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Refresher computes and stores a new report.
type Refresher interface {
	Refresh(ctx context.Context) *models.Report
}

// Scheduler recomputes the report on a cron schedule (six fields, seconds first).
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	log       *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a Scheduler. A refresh that is still running when the next tick
// fires causes that tick to be skipped.
func New(refresher Refresher, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		refresher: refresher,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register adds the refresh job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return fmt.Errorf("register refresh '%s': %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", logger.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels any running refresh and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes a refresh immediately, outside the schedule.
func (s *Scheduler) RunNow() *models.Report {
	return s.refresher.Refresh(s.ctx)
}

func (s *Scheduler) refresh() {
	s.log.Debug("scheduled refresh")
	s.refresher.Refresh(s.ctx)
}

// cronLogger routes cron's own logging through the application logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kv(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kv(keysAndValues), logger.Error(err))...)
}

func kv(keysAndValues []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}
