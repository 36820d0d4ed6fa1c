package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// MemoryRunRepository is an in-memory implementation for tests and local
// mode.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*domain.ReflowRun
}

// NewMemoryRunRepository creates an in-memory run repository.
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{
		runs: make(map[uuid.UUID]*domain.ReflowRun),
	}
}

// Save persists a run (create or update).
func (r *MemoryRunRepository) Save(ctx context.Context, run *domain.ReflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID()] = run
	return nil
}

// FindByID finds a run by its id. Returns (nil, nil) when absent.
func (r *MemoryRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReflowRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.runs[id], nil
}

// ListRecent returns up to limit runs, newest request first.
func (r *MemoryRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ReflowRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*domain.ReflowRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].RequestedAt().Equal(runs[j].RequestedAt()) {
			return runs[i].RequestedAt().After(runs[j].RequestedAt())
		}
		return runs[i].ID().String() < runs[j].ID().String()
	})

	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
