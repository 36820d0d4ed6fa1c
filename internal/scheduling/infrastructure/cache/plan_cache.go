// Package cache provides idempotency caching for reflow plans.
//
// A plan is keyed by the SHA-256 digest of its canonical request payload, so
// replaying an identical request returns the previously computed schedule
// without re-running the solver.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

const keyPrefix = "reflow:plan:"

// CachedPlan is the serialized form of a completed reflow run.
type CachedPlan struct {
	RunID    uuid.UUID             `json:"runId"`
	Results  []domain.ReflowResult `json:"results"`
	Warnings []string              `json:"warnings"`
	Metadata domain.ReflowMetadata `json:"metadata"`
	CachedAt time.Time             `json:"cachedAt"`
}

// PlanCache stores computed plans keyed by request digest.
type PlanCache interface {
	// Get retrieves a cached plan. A miss returns (nil, nil).
	Get(ctx context.Context, digest string) (*CachedPlan, error)

	// Set stores a plan under the given digest.
	Set(ctx context.Context, digest string, plan *CachedPlan) error
}

// Key builds the storage key for a request digest.
func Key(digest string) string {
	return keyPrefix + digest
}
