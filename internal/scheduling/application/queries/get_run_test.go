package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// mockRunRepo is a mock implementation of domain.RunRepository.
type mockRunRepo struct {
	mock.Mock
}

func (m *mockRunRepo) Save(ctx context.Context, run *domain.ReflowRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockRunRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReflowRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReflowRun), args.Error(1)
}

func (m *mockRunRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ReflowRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReflowRun), args.Error(1)
}

func rehydratedRun(id uuid.UUID, requestedAt time.Time, warnings []string) *domain.ReflowRun {
	results := []domain.ReflowResult{
		{
			WorkOrderID:     "wo-1",
			WorkOrderNumber: "WO-001",
			OriginalStart:   requestedAt,
			OriginalEnd:     requestedAt.Add(2 * time.Hour),
			NewStart:        requestedAt.Add(time.Hour),
			NewEnd:          requestedAt.Add(3 * time.Hour),
			Rescheduled:     true,
		},
	}
	metadata := domain.ReflowMetadata{
		TotalOrders:      1,
		RescheduledCount: 1,
		ProcessingTimeMs: 4,
	}
	return domain.RehydrateReflowRun(
		id, "Europe/Berlin", false,
		results, warnings, metadata,
		requestedAt, requestedAt, requestedAt, 1,
	)
}

func TestGetRunHandler_Handle(t *testing.T) {
	ctx := context.Background()
	requestedAt := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	t.Run("returns the run as a DTO", func(t *testing.T) {
		runID := uuid.New()
		repo := new(mockRunRepo)
		repo.On("FindByID", ctx, runID).
			Return(rehydratedRun(runID, requestedAt, []string{"delayed"}), nil)

		handler := NewGetRunHandler(repo)
		dto, err := handler.Handle(ctx, GetRunQuery{RunID: runID})

		require.NoError(t, err)
		require.NotNil(t, dto)
		assert.Equal(t, runID, dto.ID)
		assert.Equal(t, "Europe/Berlin", dto.Timezone)
		assert.False(t, dto.AllowEarlierStart)
		require.Len(t, dto.Results, 1)
		assert.Equal(t, "wo-1", dto.Results[0].WorkOrderID)
		assert.Equal(t, []string{"delayed"}, dto.Warnings)
		assert.Equal(t, 1, dto.Metadata.TotalOrders)
		assert.Equal(t, requestedAt, dto.RequestedAt)
		repo.AssertExpectations(t)
	})

	t.Run("absent run yields ErrRunNotFound", func(t *testing.T) {
		runID := uuid.New()
		repo := new(mockRunRepo)
		repo.On("FindByID", ctx, runID).Return(nil, nil)

		handler := NewGetRunHandler(repo)
		dto, err := handler.Handle(ctx, GetRunQuery{RunID: runID})

		assert.Nil(t, dto)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("repository errors propagate", func(t *testing.T) {
		runID := uuid.New()
		repo := new(mockRunRepo)
		repo.On("FindByID", ctx, runID).Return(nil, errors.New("connection lost"))

		handler := NewGetRunHandler(repo)
		dto, err := handler.Handle(ctx, GetRunQuery{RunID: runID})

		assert.Nil(t, dto)
		assert.EqualError(t, err, "connection lost")
	})
}
