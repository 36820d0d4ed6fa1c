package domain

import "time"

// ReflowResult captures the scheduling outcome for a single work order.
// Results are emitted in processing (topological) order.
type ReflowResult struct {
	WorkOrderID     string
	WorkOrderNumber string
	OriginalStart   time.Time
	OriginalEnd     time.Time
	NewStart        time.Time
	NewEnd          time.Time
	Rescheduled     bool
	Fixed           bool
}

// NewReflowResult builds the result record for an order, deriving the
// Rescheduled flag from an instant comparison of the old and new interval.
func NewReflowResult(order *WorkOrder, newStart, newEnd time.Time, fixed bool) ReflowResult {
	return ReflowResult{
		WorkOrderID:     order.ID(),
		WorkOrderNumber: order.Number(),
		OriginalStart:   order.StartDate(),
		OriginalEnd:     order.EndDate(),
		NewStart:        newStart,
		NewEnd:          newEnd,
		Rescheduled:     !newStart.Equal(order.StartDate()) || !newEnd.Equal(order.EndDate()),
		Fixed:           fixed,
	}
}

// ReflowMetadata aggregates counters for one reflow run.
type ReflowMetadata struct {
	TotalOrders      int
	RescheduledCount int
	FixedCount       int
	ProcessingTimeMs int64
}
