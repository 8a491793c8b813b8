package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers           string
	Topic             string
	EnableIdempotence bool
	Acks              string
}

// producer is the part of *kafka.Producer the publisher uses.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// KafkaPublisher produces events as JSON keyed by aggregate id, so all events
// of one user or post land on the same partition in order.
type KafkaPublisher struct {
	producer producer
	topic    string
	logger   *slog.Logger
	done     chan struct{}
}

func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	acks := cfg.Acks
	if acks == "" {
		acks = "all"
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Brokers,
		"enable.idempotence":                    cfg.EnableIdempotence,
		"acks":                                  acks,
		"max.in.flight.requests.per.connection": 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	logger.Info("Kafka producer initialized",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"idempotence", cfg.EnableIdempotence)

	return newKafkaPublisher(p, cfg.Topic, logger), nil
}

func newKafkaPublisher(p producer, topic string, logger *slog.Logger) *KafkaPublisher {
	kp := &KafkaPublisher{
		producer: p,
		topic:    topic,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go kp.handleDeliveryReports()
	return kp
}

// Publish enqueues evt. Delivery failures are reported asynchronously to the
// log.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(evt.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	p.logger.Debug("Event queued", "type", evt.Type, "topic", p.topic, "size", len(value))
	return nil
}

func (p *KafkaPublisher) handleDeliveryReports() {
	defer close(p.done)

	for e := range p.producer.Events() {
		ev, ok := e.(*kafka.Message)
		if !ok {
			continue
		}
		if ev.TopicPartition.Error != nil {
			p.logger.Error("Event delivery failed",
				"topic", p.topic,
				"key", string(ev.Key),
				"error", ev.TopicPartition.Error)
			continue
		}
		p.logger.Debug("Event delivered",
			"topic", p.topic,
			"partition", ev.TopicPartition.Partition,
			"offset", ev.TopicPartition.Offset)
	}
}

// Close flushes outstanding messages for up to five seconds and closes the
// producer.
func (p *KafkaPublisher) Close() {
	if remaining := p.producer.Flush(5000); remaining > 0 {
		p.logger.Warn("Kafka producer closed with undelivered events", "count", remaining)
	}
	p.producer.Close()
	<-p.done
	p.logger.Info("Kafka producer closed")
}
