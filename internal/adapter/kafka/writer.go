// Package kafka publishes finished run payloads to a Kafka sink topic for
// downstream renderers and archivers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/plume-trajectory-service/internal/config"
	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

// Writer produces run payloads to a Kafka topic.
// It implements pipeline.PayloadPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes one run payload, keyed by its run ID so
// repeat runs of the same key land in the same partition.
func (w *Writer) Publish(ctx context.Context, payload *domain.RunPayload) error {
	msg, err := serializeToMessage(payload)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write payload %s: %w", payload.ID, err)
	}
	w.logger.Debug("payload published", "run", payload.Key.String(), "bytes", len(msg.Value))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RunPayload into a Kafka message.
func serializeToMessage(payload *domain.RunPayload) (kafkago.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run payload: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(payload.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_key", Value: []byte(payload.Key.String())},
			{Key: "generated_at", Value: []byte(payload.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
