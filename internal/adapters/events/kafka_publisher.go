// Package events publishes pipeline run events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	"github.com/SscSPs/fx_rates_pipeline/internal/middleware"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Run events are written one at a time.
const runEventBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes run events as JSON keyed by currency pair.
type KafkaPublisher struct {
	writer messageWriter
}

var _ gateways.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           runEventBatchTimeout,
			RequiredAcks:           kafka.RequireOne,
		},
	}
}

func (k *KafkaPublisher) PublishRunEvent(ctx context.Context, event domain.RunEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.BaseCurrency + event.TargetCurrency),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(event.Status)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run event %s: %w", event.RunID, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// LogPublisher logs events instead of publishing them. Used when no broker
// is configured.
type LogPublisher struct{}

var _ gateways.EventPublisher = LogPublisher{}

func (LogPublisher) PublishRunEvent(ctx context.Context, event domain.RunEvent) error {
	middleware.GetLoggerFromCtx(ctx).Info("Pipeline run event",
		slog.String("run_id", event.RunID),
		slog.String("status", string(event.Status)),
		slog.String("base_currency", event.BaseCurrency),
		slog.String("target_currency", event.TargetCurrency),
		slog.String("stage", string(event.Stage)),
		slog.String("error_kind", event.ErrorKind),
	)
	return nil
}

func (LogPublisher) Close() error {
	return nil
}
