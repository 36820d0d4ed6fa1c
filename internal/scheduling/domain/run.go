package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/reflow/internal/shared/domain"
)

// ReflowRun is the persistent record of one reflow execution: the computed
// results, the warnings, and the aggregate counters. Input documents are
// not stored; a run is output bookkeeping only.
type ReflowRun struct {
	sharedDomain.BaseAggregateRoot
	timezone          string
	allowEarlierStart bool
	results           []ReflowResult
	warnings          []string
	metadata          ReflowMetadata
	requestedAt       time.Time
}

// NewReflowRun creates a run record and raises its completion event.
func NewReflowRun(
	timezone string,
	allowEarlierStart bool,
	results []ReflowResult,
	warnings []string,
	metadata ReflowMetadata,
	requestedAt time.Time,
) *ReflowRun {
	resultsCopy := make([]ReflowResult, len(results))
	copy(resultsCopy, results)
	warningsCopy := make([]string, len(warnings))
	copy(warningsCopy, warnings)

	run := &ReflowRun{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		timezone:          timezone,
		allowEarlierStart: allowEarlierStart,
		results:           resultsCopy,
		warnings:          warningsCopy,
		metadata:          metadata,
		requestedAt:       requestedAt,
	}
	run.AddDomainEvent(NewRunCompleted(run))
	return run
}

// RehydrateReflowRun restores a run from storage without raising events.
func RehydrateReflowRun(
	id uuid.UUID,
	timezone string,
	allowEarlierStart bool,
	results []ReflowResult,
	warnings []string,
	metadata ReflowMetadata,
	requestedAt time.Time,
	createdAt, updatedAt time.Time,
	version int,
) *ReflowRun {
	return &ReflowRun{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), version),
		timezone:          timezone,
		allowEarlierStart: allowEarlierStart,
		results:           results,
		warnings:          warnings,
		metadata:          metadata,
		requestedAt:       requestedAt,
	}
}

func (r *ReflowRun) Timezone() string         { return r.timezone }
func (r *ReflowRun) AllowEarlierStart() bool  { return r.allowEarlierStart }
func (r *ReflowRun) Metadata() ReflowMetadata { return r.metadata }
func (r *ReflowRun) RequestedAt() time.Time   { return r.requestedAt }

// Results returns the per-order outcomes in processing order.
func (r *ReflowRun) Results() []ReflowResult {
	results := make([]ReflowResult, len(r.results))
	copy(results, r.results)
	return results
}

// Warnings returns the non-fatal messages accumulated during the run.
func (r *ReflowRun) Warnings() []string {
	warnings := make([]string, len(r.warnings))
	copy(warnings, r.warnings)
	return warnings
}
