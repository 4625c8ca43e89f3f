package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafkago.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.written = append(f.written, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapMessageToRawMessage(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"city":"Delhi"}`),
		Topic:     "situation-reports",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("dispatch")},
		},
	}

	raw := mapMessageToRawMessage(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"city":"Delhi"}`, string(raw.Value))
	assert.Equal(t, "situation-reports", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "dispatch", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestToKafkaMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	out := domain.OutputMessage{
		Key:   []byte("a-1"),
		Value: []byte(`{"severity":"High"}`),
		Headers: map[string]string{
			"severity":    "High",
			"assessed_at": "2024-04-26T15:09:00Z",
		},
	}

	msg := toKafkaMessage(out, now)

	assert.Equal(t, []byte("a-1"), msg.Key)
	assert.Equal(t, out.Value, msg.Value)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "assessed_at", msg.Headers[0].Key)
	assert.Equal(t, "severity", msg.Headers[1].Key)
	assert.Equal(t, []byte("High"), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestWriter_LoadBatch(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: discardLogger()}

	require.NoError(t, w.LoadBatch(context.Background(), nil))
	assert.Empty(t, fw.written)

	msgs := []domain.OutputMessage{
		{Key: []byte("a"), Value: []byte("{}")},
		{Key: []byte("b"), Value: []byte("{}")},
	}
	require.NoError(t, w.LoadBatch(context.Background(), msgs))
	require.Len(t, fw.written, 2)
	assert.Equal(t, []byte("b"), fw.written[1].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_LoadBatchError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := &Writer{writer: fw, logger: discardLogger()}
	err := w.LoadBatch(context.Background(), []domain.OutputMessage{{Key: []byte("a")}})
	assert.EqualError(t, err, "leader not available")
}

func TestNotifier_SendAllDelivered(t *testing.T) {
	fw := &fakeWriter{}
	n := &Notifier{writer: fw, logger: discardLogger()}

	statuses := n.Send(context.Background(), []string{"+91-1", "+91-2"}, "Fire emergency in Delhi.")

	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Delivered)
		assert.Empty(t, s.Error)
	}
	require.Len(t, fw.written, 2)
	assert.Equal(t, []byte("+91-2"), fw.written[1].Key)

	var payload alertMessage
	require.NoError(t, json.Unmarshal(fw.written[0].Value, &payload))
	assert.Equal(t, "+91-1", payload.Destination)
	assert.Equal(t, "Fire emergency in Delhi.", payload.Body)
}

func TestNotifier_SendPartialFailure(t *testing.T) {
	fw := &fakeWriter{err: kafkago.WriteErrors{nil, errors.New("message too large")}}
	n := &Notifier{writer: fw, logger: discardLogger()}

	statuses := n.Send(context.Background(), []string{"+91-1", "+91-2"}, "body")

	assert.Equal(t, []domain.DeliveryStatus{
		{Destination: "+91-1", Delivered: true},
		{Destination: "+91-2", Error: "message too large"},
	}, statuses)
}

func TestNotifier_SendTotalFailure(t *testing.T) {
	fw := &fakeWriter{err: errors.New("dial tcp: connection refused")}
	n := &Notifier{writer: fw, logger: discardLogger()}

	statuses := n.Send(context.Background(), []string{"+91-1"}, "body")

	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Delivered)
	assert.Contains(t, statuses[0].Error, "connection refused")
}

func TestNotifier_SendNoDestinations(t *testing.T) {
	fw := &fakeWriter{}
	n := &Notifier{writer: fw, logger: discardLogger()}
	assert.Empty(t, n.Send(context.Background(), nil, "body"))
	assert.Empty(t, fw.written)
}
