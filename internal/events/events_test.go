package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu         sync.Mutex
	messages   []*kafka.Message
	events     chan kafka.Event
	produceErr error
	closed     bool
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{events: make(chan kafka.Event, 8)}
}

func (f *fakeProducer) Produce(msg *kafka.Message, _ chan kafka.Event) error {
	if f.produceErr != nil {
		return f.produceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeProducer) Events() chan kafka.Event { return f.events }
func (f *fakeProducer) Flush(int) int           { return 0 }

func (f *fakeProducer) Close() {
	f.closed = true
	close(f.events)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	id := uuid.New()
	evt := New(PostPublished, id, map[string]any{"title": "Hello"})

	assert.Equal(t, PostPublished, evt.Type)
	assert.Equal(t, id.String(), evt.AggregateID)
	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.OccurredAt.IsZero())
}

func TestKafkaPublisherPublish(t *testing.T) {
	fp := newFakeProducer()
	pub := newKafkaPublisher(fp, "blog.events", discardLogger())
	defer pub.Close()

	userID := uuid.New()
	require.NoError(t, pub.Publish(context.Background(), New(UserRegistered, userID, nil)))

	fp.mu.Lock()
	defer fp.mu.Unlock()
	require.Len(t, fp.messages, 1)

	msg := fp.messages[0]
	assert.Equal(t, "blog.events", *msg.TopicPartition.Topic)
	assert.Equal(t, userID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, UserRegistered, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, UserRegistered, decoded.Type)
}

func TestKafkaPublisherProduceError(t *testing.T) {
	fp := newFakeProducer()
	fp.produceErr = errors.New("Local: Queue full")
	pub := newKafkaPublisher(fp, "blog.events", discardLogger())
	defer pub.Close()

	err := pub.Publish(context.Background(), New(UserDeleted, uuid.New(), nil))
	assert.ErrorContains(t, err, "Queue full")
}

func TestKafkaPublisherCanceledContext(t *testing.T) {
	fp := newFakeProducer()
	pub := newKafkaPublisher(fp, "blog.events", discardLogger())
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pub.Publish(ctx, New(UserDeleted, uuid.New(), nil)), context.Canceled)
	assert.Empty(t, fp.messages)
}

func TestKafkaPublisherCloseDrainsReports(t *testing.T) {
	fp := newFakeProducer()
	pub := newKafkaPublisher(fp, "blog.events", discardLogger())

	topic := "blog.events"
	fp.events <- &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic, Error: errors.New("broker down")}}

	pub.Close()
	assert.True(t, fp.closed)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Event) error { return errors.New("unavailable") }
func (failingPublisher) Close()                               {}

func TestEmitLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Emit(context.Background(), failingPublisher{}, logger, New(PostPublished, uuid.New(), nil))
	assert.True(t, strings.Contains(buf.String(), "Failed to publish event"))

	Emit(context.Background(), nil, logger, New(PostPublished, uuid.New(), nil))
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, pub.Publish(context.Background(), New(UserRegistered, uuid.New(), nil)))
	assert.Contains(t, buf.String(), "type=user.registered")
}
