package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventMetadata carries tracing context across event boundaries.
type EventMetadata struct {
	CorrelationID uuid.UUID
	CausationID   uuid.UUID
}

// DomainEvent is a fact that happened in the domain. Events are routed to
// the message broker by their routing key.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() uuid.UUID
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// BaseEvent provides the common event fields. Concrete events embed it and
// add their payload.
type BaseEvent struct {
	id     uuid.UUID
	aggID  uuid.UUID
	aggTyp string
	key    string
	at     time.Time
	meta   EventMetadata
}

// NewBaseEvent creates an event stamped with the current time.
func NewBaseEvent(aggregateID uuid.UUID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		id:     uuid.New(),
		aggID:  aggregateID,
		aggTyp: aggregateType,
		key:    routingKey,
		at:     time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.id }
func (e BaseEvent) AggregateID() uuid.UUID  { return e.aggID }
func (e BaseEvent) AggregateType() string   { return e.aggTyp }
func (e BaseEvent) RoutingKey() string      { return e.key }
func (e BaseEvent) OccurredAt() time.Time   { return e.at }
func (e BaseEvent) Metadata() EventMetadata { return e.meta }

// SetMetadata sets the tracing metadata.
func (e *BaseEvent) SetMetadata(metadata EventMetadata) {
	e.meta = metadata
}
