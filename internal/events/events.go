// Package events publishes domain events after state changes commit.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	UserRegistered = "user.registered"
	UserDeleted    = "user.deleted"
	PostPublished  = "post.published"
)

// Event is the envelope written to the blog events topic.
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func New(eventType string, aggregateID uuid.UUID, payload map[string]any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID.String(),
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close()
}

// Emit publishes evt and only logs a failure; the state change it describes
// has already committed.
func Emit(ctx context.Context, p Publisher, logger *slog.Logger, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		logger.Warn("Failed to publish event",
			"type", evt.Type,
			"aggregate_id", evt.AggregateID,
			"error", err,
		)
	}
}

// LogPublisher writes events to the log. Used when Kafka is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	p.logger.Info("Domain event",
		"event_id", evt.ID,
		"type", evt.Type,
		"aggregate_id", evt.AggregateID,
	)
	return nil
}

func (p *LogPublisher) Close() {}
