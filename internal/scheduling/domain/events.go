package domain

import (
	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/reflow/internal/shared/domain"
)

const (
	AggregateType = "reflow_run"

	RoutingKeyRunCompleted = "reflow.run.completed"
)

// RunCompleted is emitted when a reflow run has been computed and persisted.
type RunCompleted struct {
	sharedDomain.BaseEvent
	RunID            uuid.UUID `json:"run_id"`
	TotalOrders      int       `json:"total_orders"`
	RescheduledCount int       `json:"rescheduled_count"`
	FixedCount       int       `json:"fixed_count"`
	WarningCount     int       `json:"warning_count"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
}

// NewRunCompleted creates a RunCompleted event for the given run.
func NewRunCompleted(run *ReflowRun) *RunCompleted {
	meta := run.Metadata()
	return &RunCompleted{
		BaseEvent:        sharedDomain.NewBaseEvent(run.ID(), AggregateType, RoutingKeyRunCompleted),
		RunID:            run.ID(),
		TotalOrders:      meta.TotalOrders,
		RescheduledCount: meta.RescheduledCount,
		FixedCount:       meta.FixedCount,
		WarningCount:     len(run.Warnings()),
		ProcessingTimeMs: meta.ProcessingTimeMs,
	}
}
