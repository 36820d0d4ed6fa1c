package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

func TestListRunsHandler_Handle(t *testing.T) {
	ctx := context.Background()
	requestedAt := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	t.Run("maps runs to summaries in repository order", func(t *testing.T) {
		newer := rehydratedRun(uuid.New(), requestedAt.Add(time.Hour), []string{"w1", "w2"})
		older := rehydratedRun(uuid.New(), requestedAt, nil)

		repo := new(mockRunRepo)
		repo.On("ListRecent", ctx, 2).Return([]*domain.ReflowRun{newer, older}, nil)

		handler := NewListRunsHandler(repo)
		summaries, err := handler.Handle(ctx, ListRunsQuery{Limit: 2})

		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Equal(t, newer.ID(), summaries[0].ID)
		assert.Equal(t, older.ID(), summaries[1].ID)
		assert.Equal(t, 2, summaries[0].WarningCount)
		assert.Equal(t, 0, summaries[1].WarningCount)
		assert.Equal(t, 1, summaries[0].TotalOrders)
		assert.Equal(t, "Europe/Berlin", summaries[0].Timezone)
		assert.Equal(t, requestedAt.Add(time.Hour), summaries[0].RequestedAt)
	})

	t.Run("zero limit falls back to the default", func(t *testing.T) {
		repo := new(mockRunRepo)
		repo.On("ListRecent", ctx, DefaultRunListLimit).Return([]*domain.ReflowRun{}, nil)

		handler := NewListRunsHandler(repo)
		summaries, err := handler.Handle(ctx, ListRunsQuery{})

		require.NoError(t, err)
		assert.Empty(t, summaries)
		repo.AssertExpectations(t)
	})

	t.Run("oversized limit is capped", func(t *testing.T) {
		repo := new(mockRunRepo)
		repo.On("ListRecent", ctx, MaxRunListLimit).Return([]*domain.ReflowRun{}, nil)

		handler := NewListRunsHandler(repo)
		_, err := handler.Handle(ctx, ListRunsQuery{Limit: 5000})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("repository errors propagate", func(t *testing.T) {
		repo := new(mockRunRepo)
		repo.On("ListRecent", ctx, DefaultRunListLimit).Return(nil, errors.New("connection lost"))

		handler := NewListRunsHandler(repo)
		summaries, err := handler.Handle(ctx, ListRunsQuery{})

		assert.Nil(t, summaries)
		assert.EqualError(t, err, "connection lost")
	})
}
