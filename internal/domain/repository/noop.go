package repository

import (
	"context"

	"IndexImpact/internal/domain/models"
)

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RecordProviderCall(string, string, bool) {}
func (NoopMetrics) RecordCacheLookup(string, bool)          {}
func (NoopMetrics) RecordCoverage(string, models.Coverage)  {}
func (NoopMetrics) RecordCapIterations(string, int)         {}
func (NoopMetrics) RecordLatency(string, float64)           {}

// NoopPublisher drops every report.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.Report) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }
