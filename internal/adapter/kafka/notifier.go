package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/config"
	"github.com/couchcryptid/emergency-severity/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// alertMessage is the payload consumed by the SMS gateway.
type alertMessage struct {
	Destination string    `json:"destination"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

// Notifier hands alerts to a downstream SMS gateway by publishing one message
// per destination to the alert topic. It implements domain.Notifier.
type Notifier struct {
	writer messageWriter
	logger *slog.Logger
}

// NewNotifier creates a producer for the configured alert topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// Send publishes the body once per destination and reports which writes the
// broker acknowledged. It never retries.
func (n *Notifier) Send(ctx context.Context, destinations []string, body string) []domain.DeliveryStatus {
	statuses := make([]domain.DeliveryStatus, len(destinations))
	if len(destinations) == 0 {
		return statuses
	}

	sentAt := domain.Now()
	msgs := make([]kafkago.Message, len(destinations))
	for i, d := range destinations {
		statuses[i].Destination = d
		data, _ := json.Marshal(alertMessage{Destination: d, Body: body, SentAt: sentAt})
		msgs[i] = kafkago.Message{Key: []byte(d), Value: data}
	}

	err := n.writer.WriteMessages(ctx, msgs...)
	var writeErrs kafkago.WriteErrors
	switch {
	case err == nil:
		for i := range statuses {
			statuses[i].Delivered = true
		}
	case errors.As(err, &writeErrs) && len(writeErrs) == len(msgs):
		for i, werr := range writeErrs {
			if werr == nil {
				statuses[i].Delivered = true
				continue
			}
			statuses[i].Error = werr.Error()
		}
	default:
		for i := range statuses {
			statuses[i].Error = err.Error()
		}
	}
	if err != nil {
		n.logger.Warn("alert publish failed", "error", err, "destinations", len(destinations))
	}
	return statuses
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}
