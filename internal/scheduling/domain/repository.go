package domain

import (
	"context"

	"github.com/google/uuid"
)

// RunRepository defines persistence for reflow runs.
type RunRepository interface {
	// Save persists a run with its results (create or update).
	Save(ctx context.Context, run *ReflowRun) error

	// FindByID finds a run by its id. Returns (nil, nil) when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*ReflowRun, error)

	// ListRecent returns up to limit runs, newest request first.
	ListRecent(ctx context.Context, limit int) ([]*ReflowRun, error)
}
