package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"IndexImpact/internal/scheduler"
	"IndexImpact/internal/usecase"
	"IndexImpact/pkg/config"
	xhttp "IndexImpact/pkg/http"
	applogger "IndexImpact/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	reports    *usecase.ReportUseCase
	log        *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	reports *usecase.ReportUseCase,
	log *applogger.Logger,
) *App {
	return &App{
		cfg:        cfg,
		httpServer: httpServer,
		scheduler:  sched,
		reports:    reports,
		log:        log,
	}
}

// Run starts the application and blocks until interrupted or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := a.httpServer.Start()

	// First report before the schedule kicks in so the API has data to serve.
	go func() {
		r := a.scheduler.RunNow()
		a.log.Info("initial report ready", applogger.Int("indices", len(r.Indices)))
	}()

	a.scheduler.Start()
	a.log.Info("application started",
		applogger.Int("indices", len(a.reports.Indices())),
		applogger.String("refresh_cron", a.cfg.Schedule.RefreshCron),
		applogger.String("strategy", a.cfg.Gateway.Strategy),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			runErr = err
		}
	}

	a.shutdown()
	return runErr
}

// shutdown gracefully stops all services.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	a.scheduler.Stop()

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
}
