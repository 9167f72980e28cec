package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"IndexImpact/internal/domain/models"
	pkgkafka "IndexImpact/pkg/kafka"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaReportPublisher_OneMessagePerIndex(t *testing.T) {
	w := &captureWriter{}
	pub := NewKafkaReportPublisher(pkgkafka.NewProducerWithWriter(w, "none", nil), "index-impact-reports")

	at := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	err := pub.Publish(context.Background(), &models.Report{
		GeneratedAt: at,
		Indices: []models.IndexReport{
			{Name: "DJIA", Regime: models.RegimePrice, Contribution: 0.5},
			{Name: "NDX", Regime: models.RegimeCappedCap, CapFraction: 0.14},
		},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "DJIA", string(w.msgs[0].Key))
	assert.Equal(t, "NDX", string(w.msgs[1].Key))
	assert.Equal(t, "index-impact-reports", w.msgs[0].Topic)

	var got ReportMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "DJIA", got.Name)
	assert.True(t, got.GeneratedAt.Equal(at))
	assert.InDelta(t, 0.5, got.Contribution, 1e-12)
}

func TestKafkaReportPublisher_EmptyReport(t *testing.T) {
	w := &captureWriter{}
	pub := NewKafkaReportPublisher(pkgkafka.NewProducerWithWriter(w, "none", nil), "t")

	require.NoError(t, pub.Publish(context.Background(), &models.Report{}))
	require.NoError(t, pub.Publish(context.Background(), nil))
	assert.Empty(t, w.msgs)
}
