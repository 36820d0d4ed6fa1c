package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned when a reflow run id matches nothing.
var ErrRunNotFound = errors.New("reflow run not found")

// MissingWorkCenterError reports an order that references an unknown work
// center. The first offender aborts the whole reflow.
type MissingWorkCenterError struct {
	WorkOrderID  string
	WorkCenterID string
}

func (e *MissingWorkCenterError) Error() string {
	return fmt.Sprintf("work order %s references unknown work center %s", e.WorkOrderID, e.WorkCenterID)
}

// MissingDependencyError reports an order that depends on an unknown order.
type MissingDependencyError struct {
	WorkOrderID  string
	DependencyID string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("work order %s depends on unknown work order %s", e.WorkOrderID, e.DependencyID)
}

// CircularDependencyError reports that the dependency graph cannot be
// linearized. Cycle is a witness path whose last id repeats its first.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

// NoWorkableSlotError reports that the calendar search exhausted its horizon
// without finding working time on the work center.
type NoWorkableSlotError struct {
	WorkCenterID string
	From         time.Time
}

func (e *NoWorkableSlotError) Error() string {
	return fmt.Sprintf("no workable slot on work center %s from %s", e.WorkCenterID, e.From.UTC().Format(time.RFC3339))
}

// ValidationError reports structurally invalid input, named by field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
