// Package kafka publishes completed scoring passes to a sink topic for
// downstream analytics and retraining pipelines. The sink is feature-flagged;
// scoring proceeds unchanged when it is disabled.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fellahtech/agri-advisor/internal/config"
	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/fellahtech/agri-advisor/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces recommendation events to a Kafka topic.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Publish serializes and publishes one scoring result. The pass ID keys the
// message so replays of the same pass land in the same partition.
func (w *Writer) Publish(ctx context.Context, result domain.ScoringResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish scoring result %s: %w", result.PassID, err)
	}
	w.metrics.EventsPublished.Inc()
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ScoringResult into a Kafka message.
func serializeToMessage(result domain.ScoringResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scoring result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.PassID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(result.Farm.Region)},
			{Key: "scored_at", Value: []byte(result.ScoredAt.Format(time.RFC3339))},
		},
	}, nil
}
