package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// RunDTO is a data transfer object for a persisted reflow run.
type RunDTO struct {
	ID                uuid.UUID
	Timezone          string
	AllowEarlierStart bool
	Results           []domain.ReflowResult
	Warnings          []string
	Metadata          domain.ReflowMetadata
	RequestedAt       time.Time
}

// GetRunQuery contains the parameters for fetching a single run.
type GetRunQuery struct {
	RunID uuid.UUID
}

// GetRunHandler handles the GetRunQuery.
type GetRunHandler struct {
	runRepo domain.RunRepository
}

// NewGetRunHandler creates a new GetRunHandler.
func NewGetRunHandler(runRepo domain.RunRepository) *GetRunHandler {
	return &GetRunHandler{runRepo: runRepo}
}

// Handle executes the GetRunQuery. An absent run yields domain.ErrRunNotFound.
func (h *GetRunHandler) Handle(ctx context.Context, query GetRunQuery) (*RunDTO, error) {
	run, err := h.runRepo.FindByID(ctx, query.RunID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrRunNotFound
	}
	return toRunDTO(run), nil
}

func toRunDTO(run *domain.ReflowRun) *RunDTO {
	return &RunDTO{
		ID:                run.ID(),
		Timezone:          run.Timezone(),
		AllowEarlierStart: run.AllowEarlierStart(),
		Results:           run.Results(),
		Warnings:          run.Warnings(),
		Metadata:          run.Metadata(),
		RequestedAt:       run.RequestedAt(),
	}
}
