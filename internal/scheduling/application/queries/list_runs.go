package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

const (
	// DefaultRunListLimit applies when a list query passes no limit.
	DefaultRunListLimit = 20

	// MaxRunListLimit caps how many runs a single list query returns.
	MaxRunListLimit = 100
)

// RunSummaryDTO is a compact listing view of a run.
type RunSummaryDTO struct {
	ID               uuid.UUID
	Timezone         string
	TotalOrders      int
	RescheduledCount int
	FixedCount       int
	WarningCount     int
	RequestedAt      time.Time
}

// ListRunsQuery contains the parameters for listing runs.
type ListRunsQuery struct {
	Limit int
}

// ListRunsHandler handles the ListRunsQuery.
type ListRunsHandler struct {
	runRepo domain.RunRepository
}

// NewListRunsHandler creates a new ListRunsHandler.
func NewListRunsHandler(runRepo domain.RunRepository) *ListRunsHandler {
	return &ListRunsHandler{runRepo: runRepo}
}

// Handle executes the ListRunsQuery, newest request first.
func (h *ListRunsHandler) Handle(ctx context.Context, query ListRunsQuery) ([]RunSummaryDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultRunListLimit
	}
	if limit > MaxRunListLimit {
		limit = MaxRunListLimit
	}

	runs, err := h.runRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummaryDTO, 0, len(runs))
	for _, run := range runs {
		metadata := run.Metadata()
		summaries = append(summaries, RunSummaryDTO{
			ID:               run.ID(),
			Timezone:         run.Timezone(),
			TotalOrders:      metadata.TotalOrders,
			RescheduledCount: metadata.RescheduledCount,
			FixedCount:       metadata.FixedCount,
			WarningCount:     len(run.Warnings()),
			RequestedAt:      run.RequestedAt(),
		})
	}
	return summaries, nil
}
