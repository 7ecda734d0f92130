//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/plume-trajectory-service/internal/adapter/kafka"
	"github.com/couchcryptid/plume-trajectory-service/internal/config"
	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

const testSinkTopic = "test-plume-trajectories"

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = ctr.Terminate(cleanupCtx)
	})

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err, "resolve broker address")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestWriterPublishesRunPayload verifies the sink adapter round-trips a run
// payload through a real broker: JSON body, run ID key, and headers intact.
func TestWriterPublishesRunPayload(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	writer := kafkaadapter.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	key, err := domain.NewRunKey("2024-04-26", 6, "F")
	require.NoError(t, err)

	generated := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	payload := &domain.RunPayload{
		ID:  key.ID(),
		Key: key,
		Origin: domain.Origin{
			Lat:    24.0,
			Lon:    120.5,
			Source: domain.OriginHeader,
		},
		Consensus: []domain.TrajectoryPoint{
			{Lon: 120.5, Lat: 24.0, Alt: 10, StdDistance: 0.2, StdAltitude: 15},
		},
		GeneratedAt: generated,
	}

	require.NoError(t, writer.Publish(ctx, payload))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   testSinkTopic,
		GroupID: fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	assert.Equal(t, key.ID(), string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, key.String(), headers["run_key"])
	assert.Equal(t, generated.Format(time.RFC3339), headers["generated_at"])

	var got domain.RunPayload
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, payload.ID, got.ID)
	assert.Equal(t, payload.Key, got.Key)
	assert.Equal(t, payload.Origin, got.Origin)
	require.Len(t, got.Consensus, 1)
	assert.Equal(t, 0.2, got.Consensus[0].StdDistance)
}
