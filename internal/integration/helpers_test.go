//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/couchcryptid/emergency-severity/internal/dataset"
	"github.com/couchcryptid/emergency-severity/internal/observability"
	"github.com/couchcryptid/emergency-severity/internal/severity"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("emergency-severity-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

var (
	serviceOnce sync.Once
	service     *severity.Service
	serviceErr  error
)

// trainedService returns a service bootstrapped on a small synthesized table,
// shared by every test in the package.
func trainedService(t *testing.T) *severity.Service {
	t.Helper()
	serviceOnce.Do(func() {
		dir := t.TempDir()
		logger := discardLogger()
		service = severity.NewService(severity.ServiceConfig{
			Source:      dataset.NewStore(filepath.Join(dir, "table.csv"), logger),
			Trainer:     severity.NewTrainer(severity.Options{Seed: 42, Trees: 25}, logger),
			DatasetSize: 800,
			Seed:        42,
			Metrics:     observability.NewMetricsForTesting(),
			Logger:      logger,
		})
		serviceErr = service.Bootstrap(context.Background())
	})
	require.NoError(t, serviceErr)
	return service
}
