package di

import (
	"context"
	"fmt"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
	"IndexImpact/internal/gateway"
	"IndexImpact/internal/handler/api"
	internalrepo "IndexImpact/internal/repository"
	"IndexImpact/internal/scheduler"
	"IndexImpact/internal/service/breaker"
	"IndexImpact/internal/service/finnhub"
	"IndexImpact/internal/service/ratelimit"
	"IndexImpact/internal/service/snapshot"
	"IndexImpact/internal/service/yahoo"
	"IndexImpact/internal/usecase"
	"IndexImpact/pkg/cache"
	"IndexImpact/pkg/config"
	xhttp "IndexImpact/pkg/http"
	pkgkafka "IndexImpact/pkg/kafka"
	"IndexImpact/pkg/logger"
	"IndexImpact/pkg/metrics"
	"IndexImpact/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by every component.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NoopMetrics{}
	}
	return metrics.New(reg)
}

// ProvideHTTPClient creates the outbound client used by every provider.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Gateway.FetchTimeout()))
}

// ProvideCache builds the gateway cache: in-process LRU, backed by Redis when
// enabled so market caps survive restarts.
func ProvideCache(cfg *config.Config, log *logger.Logger) (cache.Service, func(), error) {
	mem := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	if !cfg.Cache.Redis.Enabled {
		return mem, func() { _ = mem.Close() }, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		_ = mem.Close()
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	log.Info("redis cache enabled", logger.String("addr", cfg.Cache.Redis.Addr))

	layered := cache.NewLayeredCache(mem, rc, cache.WithLayeredBackfillTTL(cfg.Gateway.MarketCapTTL()))
	return layered, func() { _ = layered.Close() }, nil
}

// ProvideGateway wires providers, pacing and breakers into the market data gateway.
// Per-identifier prices come from Finnhub when a key is configured and from
// Yahoo otherwise; market caps always come from Finnhub.
func ProvideGateway(
	cfg *config.Config,
	client *xhttp.Client,
	c cache.Service,
	m repository.Metrics,
	log *logger.Logger,
) *gateway.Gateway {
	g := cfg.Gateway
	gcfg := gateway.DefaultConfig()
	gcfg.Strategy = gateway.Strategy(g.Strategy)
	gcfg.QuoteTTL = g.QuoteTTL()
	gcfg.MarketCapTTL = g.MarketCapTTL()
	gcfg.FetchTimeout = g.FetchTimeout()
	gcfg.Workers = g.Workers
	gcfg.RetryAttempts = g.RetryAttempts
	gcfg.MaxPages = g.MaxPages
	gcfg.FallbackToReference = g.Fallback()

	opts := []gateway.Option{
		gateway.WithCache(c),
		gateway.WithLimiter(ratelimit.New(g.RatePerSecond, g.Burst)),
		gateway.WithBreakers(breaker.NewSet(gateway.BreakerSettings())),
		gateway.WithMetrics(m),
		gateway.WithLogger(log.With(logger.String("component", "gateway"))),
	}

	p := cfg.Providers
	if p.Finnhub.APIKey != "" {
		fh := finnhub.New(p.Finnhub.APIKey, p.Finnhub.BaseURL, client)
		opts = append(opts, gateway.WithPriceSource(fh), gateway.WithCapSource(fh))
	} else {
		// Yahoo rejects requests without a browser-like agent.
		ua := xhttp.NewClient(xhttp.WithTimeout(g.FetchTimeout()), xhttp.WithUserAgent("Mozilla/5.0"))
		opts = append(opts, gateway.WithPriceSource(yahoo.New(p.Yahoo.BaseURL, ua)))
	}
	if gcfg.Strategy == gateway.StrategySnapshot {
		opts = append(opts, gateway.WithSnapshotSource(snapshot.New(p.Snapshot.APIKey, p.Snapshot.BaseURL, p.Snapshot.PageLimit, client)))
	}

	return gateway.New(gcfg, opts...)
}

// ProvideIndices reads every configured ticker list.
func ProvideIndices(cfg *config.Config, log *logger.Logger) ([]models.IndexDefinition, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	defs, err := usecase.LoadIndices(ctx, cfg.Indices, log.With(logger.String("component", "indices")))
	if err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}
	return defs, nil
}

// ProvideOrchestrator creates the index orchestrator.
func ProvideOrchestrator(
	defs []models.IndexDefinition,
	gw *gateway.Gateway,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.IndexOrchestrator {
	return usecase.NewIndexOrchestrator(defs, gw, m, log.With(logger.String("component", "orchestrator")))
}

// ProvideReportPublisher creates the Kafka publisher, or a no-op one when
// Kafka is disabled.
func ProvideReportPublisher(cfg *config.Config, reg *prometheus.Registry) (repository.ReportPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return repository.NoopPublisher{}, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	pub := internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.Topic)
	return pub, func() { _ = pub.Close() }, nil
}

// ProvideReportUseCase creates the report use case.
func ProvideReportUseCase(
	orch *usecase.IndexOrchestrator,
	pub repository.ReportPublisher,
	log *logger.Logger,
) *usecase.ReportUseCase {
	return usecase.NewReportUseCase(orch, usecase.NewReportStore(), pub, log)
}

// ProvideScheduler registers the periodic refresh.
func ProvideScheduler(cfg *config.Config, uc *usecase.ReportUseCase, log *logger.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(uc, log.With(logger.String("component", "scheduler")))
	if err := s.Register(cfg.Schedule.RefreshCron); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideHTTPServer creates the echo server with the report routes.
func ProvideHTTPServer(cfg *config.Config, uc *usecase.ReportUseCase, reg *prometheus.Registry, log *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(api.NewReportsHandler(log, uc), log,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath),
		xhttp.WithRegistry(reg),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	uc *usecase.ReportUseCase,
	log *logger.Logger,
) *server.App {
	return server.New(cfg, srv, sched, uc, log)
}
