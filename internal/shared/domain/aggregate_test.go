package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reflow/internal/shared/domain"
)

type stubRoot struct {
	domain.BaseAggregateRoot
}

type stubEvent struct {
	domain.BaseEvent
	Detail string
}

func newStubEvent(aggregateID uuid.UUID) stubEvent {
	return stubEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "stub_root", "stub.root.changed"),
		Detail:    "changed",
	}
}

func TestBaseEntity(t *testing.T) {
	t.Run("new entity gets identity and timestamps", func(t *testing.T) {
		before := time.Now().UTC()
		entity := domain.NewBaseEntity()

		assert.NotEqual(t, uuid.Nil, entity.ID())
		assert.False(t, entity.CreatedAt().Before(before))
		assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
	})

	t.Run("rehydrate preserves persisted state", func(t *testing.T) {
		id := uuid.New()
		createdAt := time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC)
		updatedAt := createdAt.Add(time.Hour)

		entity := domain.RehydrateBaseEntity(id, createdAt, updatedAt)

		assert.Equal(t, id, entity.ID())
		assert.Equal(t, createdAt, entity.CreatedAt())
		assert.Equal(t, updatedAt, entity.UpdatedAt())
	})
}

func TestBaseAggregateRoot_EventLifecycle(t *testing.T) {
	root := &stubRoot{BaseAggregateRoot: domain.NewBaseAggregateRoot()}
	assert.Empty(t, root.DomainEvents())

	root.AddDomainEvent(newStubEvent(root.ID()))
	root.AddDomainEvent(newStubEvent(root.ID()))
	require.Len(t, root.DomainEvents(), 2)

	root.ClearDomainEvents()
	assert.Empty(t, root.DomainEvents(), "drained events do not come back")
}

func TestBaseAggregateRoot_Rehydrate(t *testing.T) {
	entity := domain.RehydrateBaseEntity(uuid.New(), time.Now().UTC(), time.Now().UTC())
	root := domain.RehydrateBaseAggregateRoot(entity, 7)

	assert.Equal(t, entity.ID(), root.ID())
	assert.Equal(t, 7, root.Version())
	assert.Empty(t, root.DomainEvents())
}

func TestBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	before := time.Now().UTC()
	event := newStubEvent(aggregateID)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "stub_root", event.AggregateType())
	assert.Equal(t, "stub.root.changed", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.Equal(t, domain.EventMetadata{}, event.Metadata())

	meta := domain.EventMetadata{CorrelationID: uuid.New(), CausationID: uuid.New()}
	event.SetMetadata(meta)
	assert.Equal(t, meta, event.Metadata())
}
