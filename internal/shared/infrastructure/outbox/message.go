package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/shared/domain"
)

// Message is a domain event staged for publishing. Messages are written in
// the same transaction as the aggregate and relayed to the broker by the
// processor, so an event is never lost between the two.
type Message struct {
	ID      int64
	EventID uuid.UUID

	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	RoutingKey    string
	Payload       json.RawMessage
	Metadata      json.RawMessage
	CreatedAt     time.Time

	// Delivery state, maintained by the repository.
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage stages a domain event for publishing. The routing key doubles
// as the event type.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	msg := &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		CreatedAt:     event.OccurredAt(),
	}

	var err error
	if msg.Payload, err = json.Marshal(event); err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	if msg.Metadata, err = json.Marshal(event.Metadata()); err != nil {
		return nil, fmt.Errorf("failed to marshal event metadata: %w", err)
	}
	return msg, nil
}

// IsPublished reports whether the message reached the broker.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// CanRetry reports whether another publish attempt is allowed.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}
