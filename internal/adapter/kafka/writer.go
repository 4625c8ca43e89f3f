package kafka

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/config"
	"github.com/couchcryptid/emergency-severity/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the adapters use.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces scored situations to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer messageWriter
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

// LoadBatch publishes scored messages to the sink topic in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, msgs []domain.OutputMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	processedAt := domain.Now()
	out := make([]kafkago.Message, len(msgs))
	for i := range msgs {
		out[i] = toKafkaMessage(msgs[i], processedAt)
	}
	return w.writer.WriteMessages(ctx, out...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// toKafkaMessage converts an output message, emitting headers in key order
// followed by processed_at.
func toKafkaMessage(msg domain.OutputMessage, processedAt time.Time) kafkago.Message {
	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	headers := make([]kafkago.Header, 0, len(keys)+1)
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(msg.Headers[k])})
	}
	headers = append(headers, kafkago.Header{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))})

	return kafkago.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}
