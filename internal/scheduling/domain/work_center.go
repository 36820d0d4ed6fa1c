package domain

import (
	"errors"
	"time"
)

var (
	ErrEmptyWorkCenterID  = errors.New("work center id must not be empty")
	ErrInvalidDayOfWeek   = errors.New("shift day of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidShiftHour   = errors.New("shift hours must be between 0 and 23")
	ErrInvalidWindowRange = errors.New("maintenance window end must not be before start")
)

// Shift is one recurring weekly working window of a work center. Hours are
// wall-clock hours in the reflow timezone. A shift whose EndHour is less
// than its StartHour wraps past midnight into the next calendar day; equal
// hours mean a zero-length shift that contributes no working time.
type Shift struct {
	DayOfWeek int // 0 = Sunday .. 6 = Saturday
	StartHour int // 0..23
	EndHour   int // 0..23
}

// Validate checks the shift fields against their allowed ranges.
func (s Shift) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	if s.StartHour < 0 || s.StartHour > 23 || s.EndHour < 0 || s.EndHour > 23 {
		return ErrInvalidShiftHour
	}
	return nil
}

// WrapsMidnight reports whether the shift runs into the next calendar day.
func (s Shift) WrapsMidnight() bool {
	return s.EndHour < s.StartHour
}

// IsZeroLength reports whether the shift covers no time at all.
func (s Shift) IsZeroLength() bool {
	return s.EndHour == s.StartHour
}

// MaintenanceWindow is an absolute blackout interval [Start, End) during
// which no work runs on the work center, shifts notwithstanding.
// Overlapping windows are allowed; their union applies.
type MaintenanceWindow struct {
	Start  time.Time
	End    time.Time
	Reason string
}

// Validate checks that the window is a well-formed interval.
func (w MaintenanceWindow) Validate() error {
	if w.End.Before(w.Start) {
		return ErrInvalidWindowRange
	}
	return nil
}

// Contains reports whether t falls inside the half-open window.
func (w MaintenanceWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlaps reports whether the window intersects the half-open interval
// [start, end).
func (w MaintenanceWindow) Overlaps(start, end time.Time) bool {
	return w.Start.Before(end) && w.End.After(start)
}

// WorkCenter is a machine or resource with a weekly shift calendar. A work
// order runs on exactly one work center, one order at a time.
type WorkCenter struct {
	id                 string
	name               string
	shifts             []Shift
	maintenanceWindows []MaintenanceWindow
}

// NewWorkCenter validates and creates a work center. The name falls back to
// the id when absent. A work center with no shifts is legal but can never
// run work.
func NewWorkCenter(id, name string, shifts []Shift, windows []MaintenanceWindow) (*WorkCenter, error) {
	if id == "" {
		return nil, ErrEmptyWorkCenterID
	}
	if name == "" {
		name = id
	}

	for _, s := range shifts {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}

	shiftsCopy := make([]Shift, len(shifts))
	copy(shiftsCopy, shifts)
	windowsCopy := make([]MaintenanceWindow, len(windows))
	copy(windowsCopy, windows)

	return &WorkCenter{
		id:                 id,
		name:               name,
		shifts:             shiftsCopy,
		maintenanceWindows: windowsCopy,
	}, nil
}

func (wc *WorkCenter) ID() string   { return wc.id }
func (wc *WorkCenter) Name() string { return wc.name }

// Shifts returns the weekly shift pattern.
func (wc *WorkCenter) Shifts() []Shift {
	shifts := make([]Shift, len(wc.shifts))
	copy(shifts, wc.shifts)
	return shifts
}

// MaintenanceWindows returns the blackout intervals.
func (wc *WorkCenter) MaintenanceWindows() []MaintenanceWindow {
	windows := make([]MaintenanceWindow, len(wc.maintenanceWindows))
	copy(windows, wc.maintenanceWindows)
	return windows
}

// HasShifts reports whether the work center has any working time at all.
// Zero-length shifts do not count.
func (wc *WorkCenter) HasShifts() bool {
	for _, s := range wc.shifts {
		if !s.IsZeroLength() {
			return true
		}
	}
	return false
}
