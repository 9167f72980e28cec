//go:build wireinject
// +build wireinject

package di

import (
	"IndexImpact/internal/usecase"
	"IndexImpact/pkg/config"
	"IndexImpact/pkg/server"

	"github.com/google/wire"
)

var reportSet = wire.NewSet(
	// Observability
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,

	// Market data
	ProvideHTTPClient,
	ProvideCache,
	ProvideGateway,

	// Use cases
	ProvideIndices,
	ProvideOrchestrator,
	ProvideReportPublisher,
	ProvideReportUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		reportSet,
		ProvideScheduler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeReporter wires only what a one-shot report needs.
func InitializeReporter(cfg *config.Config) (*usecase.ReportUseCase, func(), error) {
	wire.Build(reportSet)
	return nil, nil, nil
}
