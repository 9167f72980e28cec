package metrics

import (
	"testing"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var _ repository.Metrics = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordProviderCall("finnhub", "last_price", true)
	r.RecordProviderCall("finnhub", "last_price", false)
	r.RecordProviderCall("finnhub", "last_price", false)
	r.RecordCacheLookup("quotes", true)
	r.RecordCoverage("NDX", models.Coverage{Expected: 4, Resolved: 3, Unresolved: []models.Identifier{"X"}})
	r.RecordCapIterations("NDX", 2)
	r.RecordLatency("get_quotes", 0.2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerRequests.WithLabelValues("finnhub", "last_price", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.providerRequests.WithLabelValues("finnhub", "last_price", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("quotes", "hit")))
	assert.Equal(t, 0.75, testutil.ToFloat64(r.coverage.WithLabelValues("NDX")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.unresolved.WithLabelValues("NDX")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.capIterations.WithLabelValues("NDX")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
