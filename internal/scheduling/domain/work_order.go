package domain

import (
	"errors"
	"time"
)

var (
	ErrEmptyWorkOrderID    = errors.New("work order id must not be empty")
	ErrEmptyWorkCenterRef  = errors.New("work order must reference a work center")
	ErrNegativeDuration    = errors.New("work order duration must not be negative")
	ErrMissingScheduleDate = errors.New("work order requires original start and end dates")
)

// WorkOrder is a unit of work to be placed on a work center. Orders arrive
// with their current schedule; the engine computes the new one.
type WorkOrder struct {
	id              string
	number          string
	workCenterID    string
	startDate       time.Time
	endDate         time.Time
	durationMinutes int
	isMaintenance   bool
	dependsOn       []string
}

// NewWorkOrder validates and creates a work order. The number is the
// human-readable identifier used in warnings; it falls back to the id
// when absent.
func NewWorkOrder(
	id string,
	number string,
	workCenterID string,
	startDate, endDate time.Time,
	durationMinutes int,
	isMaintenance bool,
	dependsOn []string,
) (*WorkOrder, error) {
	if id == "" {
		return nil, ErrEmptyWorkOrderID
	}
	if workCenterID == "" {
		return nil, ErrEmptyWorkCenterRef
	}
	if durationMinutes < 0 {
		return nil, ErrNegativeDuration
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, ErrMissingScheduleDate
	}
	if number == "" {
		number = id
	}

	deps := make([]string, len(dependsOn))
	copy(deps, dependsOn)

	return &WorkOrder{
		id:              id,
		number:          number,
		workCenterID:    workCenterID,
		startDate:       startDate,
		endDate:         endDate,
		durationMinutes: durationMinutes,
		isMaintenance:   isMaintenance,
		dependsOn:       deps,
	}, nil
}

func (w *WorkOrder) ID() string           { return w.id }
func (w *WorkOrder) Number() string       { return w.number }
func (w *WorkOrder) WorkCenterID() string { return w.workCenterID }
func (w *WorkOrder) StartDate() time.Time { return w.startDate }
func (w *WorkOrder) EndDate() time.Time   { return w.endDate }
func (w *WorkOrder) DurationMinutes() int { return w.durationMinutes }
func (w *WorkOrder) IsMaintenance() bool  { return w.isMaintenance }

// DependsOn returns the prerequisite work order ids.
func (w *WorkOrder) DependsOn() []string {
	deps := make([]string, len(w.dependsOn))
	copy(deps, w.dependsOn)
	return deps
}

// HasDependencies reports whether the order waits on prerequisites.
func (w *WorkOrder) HasDependencies() bool {
	return len(w.dependsOn) > 0
}
