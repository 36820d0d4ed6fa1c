package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reflow/internal/shared/domain"
	"github.com/felixgeelhaar/reflow/pkg/observability"
)

type testEvent struct {
	domain.BaseEvent
}

func TestNewEventMetadata(t *testing.T) {
	t.Run("populates tracing IDs", func(t *testing.T) {
		metadata := NewEventMetadata(context.Background())

		assert.NotEqual(t, uuid.Nil, metadata.CorrelationID)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("generates unique IDs per call", func(t *testing.T) {
		first := NewEventMetadata(context.Background())
		second := NewEventMetadata(context.Background())

		assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
		assert.NotEqual(t, first.CausationID, second.CausationID)
	})

	t.Run("inherits the context correlation ID", func(t *testing.T) {
		want := uuid.New()
		ctx := observability.WithCorrelationID(context.Background(), want.String())

		metadata := NewEventMetadata(ctx)

		assert.Equal(t, want, metadata.CorrelationID)
	})

	t.Run("ignores correlation IDs that are not UUIDs", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "trace-abc-123")

		metadata := NewEventMetadata(ctx)

		assert.NotEqual(t, uuid.Nil, metadata.CorrelationID)
	})
}

func TestApplyEventMetadata(t *testing.T) {
	t.Run("applies metadata to all events", func(t *testing.T) {
		first := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "run", "run.completed")}
		second := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "run", "run.completed")}

		metadata := NewEventMetadata(context.Background())
		ApplyEventMetadata([]domain.DomainEvent{first, second}, metadata)

		assert.Equal(t, metadata.CorrelationID, first.Metadata().CorrelationID)
		assert.Equal(t, metadata.CorrelationID, second.Metadata().CorrelationID)
		assert.Equal(t, metadata.CausationID, first.Metadata().CausationID)
	})

	t.Run("tolerates nil and empty event lists", func(t *testing.T) {
		metadata := NewEventMetadata(context.Background())

		require.NotPanics(t, func() {
			ApplyEventMetadata(nil, metadata)
			ApplyEventMetadata([]domain.DomainEvent{}, metadata)
		})
	})
}
