package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"stockpulse/internal/config"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/worker/processors"
)

// MessageReader is the subset of *kafka.Reader the worker uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Worker struct {
	logger    *logger.Logger
	reader    MessageReader
	processor *processors.EventProcessor
	metrics   *metrics.Metrics
	topic     string
}

func New(cfg *config.Config, logger *logger.Logger, processor *processors.EventProcessor, m *metrics.Metrics) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers(),
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.KafkaTopic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
	return NewWithReader(reader, cfg.KafkaTopic, logger, processor, m)
}

func NewWithReader(reader MessageReader, topic string, logger *logger.Logger, processor *processors.EventProcessor, m *metrics.Metrics) *Worker {
	return &Worker{logger: logger, reader: reader, processor: processor, metrics: m, topic: topic}
}

// Run consumes until ctx is cancelled. A message that fails to parse or
// process is logged and committed so it does not block the partition.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker started, listening on %s", w.topic)

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		w.handle(ctx, message)

		if err := w.reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
			w.logger.Error("Failed to commit offset %d: %v", message.Offset, err)
		}
	}
}

func (w *Worker) handle(ctx context.Context, message kafka.Message) {
	var event models.InventoryEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		w.logger.Error("Failed to parse event at offset %d: %v", message.Offset, err)
		w.metrics.EventsConsumed.WithLabelValues(w.topic, "invalid").Inc()
		return
	}

	if err := w.processor.Process(ctx, event); err != nil {
		w.logger.Error("Failed to process %s event for %s: %v", event.Topic, event.ShopDomain, err)
		w.metrics.EventsConsumed.WithLabelValues(w.topic, "error").Inc()
		return
	}
	w.metrics.EventsConsumed.WithLabelValues(w.topic, "ok").Inc()
	w.logger.Debug("Processed %s event for %s", event.Topic, event.ShopDomain)
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.reader.Close(); err != nil {
		w.logger.Error("Failed to close reader: %v", err)
	}
}
