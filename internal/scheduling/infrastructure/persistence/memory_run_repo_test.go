package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

func storedRun(requestedAt time.Time) *domain.ReflowRun {
	results := []domain.ReflowResult{
		{
			WorkOrderID:     "wo-1",
			WorkOrderNumber: "WO-001",
			OriginalStart:   requestedAt,
			OriginalEnd:     requestedAt.Add(time.Hour),
			NewStart:        requestedAt,
			NewEnd:          requestedAt.Add(time.Hour),
		},
	}
	metadata := domain.ReflowMetadata{TotalOrders: 1}
	return domain.RehydrateReflowRun(
		uuid.New(), "UTC", false,
		results, nil, metadata,
		requestedAt, requestedAt, requestedAt, 1,
	)
}

func TestMemoryRunRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()
	run := storedRun(time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Save(ctx, run))

	found, err := repo.FindByID(ctx, run.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, run.ID(), found.ID())
	assert.Len(t, found.Results(), 1)
}

func TestMemoryRunRepository_FindAbsentReturnsNil(t *testing.T) {
	repo := NewMemoryRunRepository()

	found, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryRunRepository_ListRecent(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()
	base := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	oldest := storedRun(base)
	middle := storedRun(base.Add(time.Hour))
	newest := storedRun(base.Add(2 * time.Hour))
	for _, run := range []*domain.ReflowRun{middle, oldest, newest} {
		require.NoError(t, repo.Save(ctx, run))
	}

	runs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, newest.ID(), runs[0].ID())
	assert.Equal(t, middle.ID(), runs[1].ID())
	assert.Equal(t, oldest.ID(), runs[2].ID())

	limited, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, newest.ID(), limited[0].ID())
}

func TestMemoryRunRepository_SaveOverwrites(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()
	requestedAt := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	run := storedRun(requestedAt)
	require.NoError(t, repo.Save(ctx, run))
	require.NoError(t, repo.Save(ctx, run))

	runs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
