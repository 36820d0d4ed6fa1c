package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/shared/domain"
	"github.com/felixgeelhaar/reflow/pkg/observability"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// NewEventMetadata creates command-scoped tracing metadata for domain events.
// When the context carries a correlation ID stamped by the request middleware
// and it parses as a UUID, events inherit it, so a consumer on the far side
// of the broker can be joined with the originating request's logs.
func NewEventMetadata(ctx context.Context) domain.EventMetadata {
	meta := domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
	}
	if id, err := uuid.Parse(observability.CorrelationIDFromContext(ctx)); err == nil {
		meta.CorrelationID = id
	}
	return meta
}

// ApplyEventMetadata sets metadata on every event that supports it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
