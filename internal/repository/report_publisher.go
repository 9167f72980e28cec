package repository

import (
	"context"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
	pkgkafka "IndexImpact/pkg/kafka"
)

// Producer is the part of pkg/kafka the publisher relies on.
type Producer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
	Close() error
}

// ReportMessage is the value written for each index of a report.
type ReportMessage struct {
	GeneratedAt time.Time `json:"generated_at"`
	models.IndexReport
}

// KafkaReportPublisher writes one message per index, keyed by index name so
// a consumer sees each index's history in order.
type KafkaReportPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaReportPublisher creates a publisher on topic.
func NewKafkaReportPublisher(producer Producer, topic string) repository.ReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) Publish(ctx context.Context, r *models.Report) error {
	if r == nil || len(r.Indices) == 0 {
		return nil
	}

	msgs := make([]pkgkafka.Message, 0, len(r.Indices))
	for _, ir := range r.Indices {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(ir.Name),
			Value: ReportMessage{GeneratedAt: r.GeneratedAt, IndexReport: ir},
		})
	}
	return p.producer.Publish(ctx, p.topic, msgs...)
}

func (p *KafkaReportPublisher) Close() error {
	return p.producer.Close()
}
