package services

import (
	"sort"
	"time"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

const (
	// findStartHorizonDays bounds the search for the next valid start.
	findStartHorizonDays = 30
	// endDateHorizonDays bounds the end-date walk relative to its start.
	endDateHorizonDays = 365
)

// Interval is a half-open time interval [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Slot is one contiguous stretch of workable time on a work center:
// merged shift instances clipped by the next maintenance window.
type Slot struct {
	Start   time.Time
	End     time.Time
	Minutes int
}

// CalendarEngine answers working-hours questions for work centers. Shift
// hours are resolved against a single location so a request's arithmetic
// stays consistent across DST transitions.
type CalendarEngine struct {
	location *time.Location
}

// NewCalendarEngine creates a calendar engine for the given location.
// A nil location means UTC.
func NewCalendarEngine(location *time.Location) *CalendarEngine {
	if location == nil {
		location = time.UTC
	}
	return &CalendarEngine{location: location}
}

// IsWithinWorkingHours reports whether t falls inside a shift instance of
// the work center and outside all maintenance windows. Wrap-around shifts
// that started the previous local day are considered.
func (e *CalendarEngine) IsWithinWorkingHours(t time.Time, wc *domain.WorkCenter) bool {
	for _, w := range wc.MaintenanceWindows() {
		if w.Contains(t) {
			return false
		}
	}

	day := e.startOfDay(t)
	for _, d := range []time.Time{day.AddDate(0, 0, -1), day} {
		for _, inst := range e.shiftInstancesOn(d, wc) {
			if !t.Before(inst.start) && t.Before(inst.end) {
				return true
			}
		}
	}
	return false
}

// FindEarliestValidStart returns the first instant at or after from that
// lies within working hours. Candidates are shift instances in
// chronological order, each clipped against the maintenance windows. The
// search gives up after findStartHorizonDays days.
func (e *CalendarEngine) FindEarliestValidStart(from time.Time, wc *domain.WorkCenter) (time.Time, error) {
	if e.IsWithinWorkingHours(from, wc) {
		return from, nil
	}

	windows := wc.MaintenanceWindows()
	day := e.startOfDay(from)

	// Start one day back so a wrap-around shift still in progress is seen.
	for offset := -1; offset <= findStartHorizonDays; offset++ {
		for _, inst := range e.shiftInstancesOn(day.AddDate(0, 0, offset), wc) {
			if !inst.end.After(from) {
				continue
			}
			candidate := Interval{Start: inst.start, End: inst.end}
			if candidate.Start.Before(from) {
				candidate.Start = from
			}
			if clean, ok := e.SubtractMaintenanceWindows(candidate, windows); ok {
				return clean.Start, nil
			}
		}
	}

	return time.Time{}, &domain.NoWorkableSlotError{WorkCenterID: wc.ID(), From: from}
}

// FindNextWorkableSlot returns the contiguous workable slot beginning at
// the earliest valid start at or after from. Shift instances that touch or
// overlap are merged into one slot; the slot is cut short at the first
// maintenance window that starts inside it.
func (e *CalendarEngine) FindNextWorkableSlot(from time.Time, wc *domain.WorkCenter) (Slot, error) {
	start, err := e.FindEarliestValidStart(from, wc)
	if err != nil {
		return Slot{}, err
	}

	end := e.mergedShiftEnd(start, wc)

	windows := sortWindows(wc.MaintenanceWindows())
	for _, w := range windows {
		if !w.End.After(w.Start) {
			continue
		}
		if w.Start.After(start) && w.Start.Before(end) {
			end = w.Start
			break
		}
	}

	return Slot{
		Start:   start,
		End:     end,
		Minutes: int(end.Sub(start) / time.Minute),
	}, nil
}

// CalculateEndDateWithShifts walks forward from start spending
// durationMinutes of working time slot by slot and returns the resulting
// end instant. A zero duration returns start unchanged. The walk aborts
// once it has moved more than endDateHorizonDays days past start.
func (e *CalendarEngine) CalculateEndDateWithShifts(start time.Time, durationMinutes int, wc *domain.WorkCenter) (time.Time, error) {
	if durationMinutes == 0 {
		return start, nil
	}

	horizon := start.AddDate(0, 0, endDateHorizonDays)
	remaining := durationMinutes
	cursor := start

	for {
		slot, err := e.FindNextWorkableSlot(cursor, wc)
		if err != nil {
			return time.Time{}, err
		}
		if slot.Start.After(horizon) {
			return time.Time{}, &domain.NoWorkableSlotError{WorkCenterID: wc.ID(), From: slot.Start}
		}
		if remaining <= slot.Minutes {
			return slot.Start.Add(time.Duration(remaining) * time.Minute), nil
		}
		remaining -= slot.Minutes
		cursor = slot.End
	}
}

// SubtractMaintenanceWindows clips the working interval against the
// maintenance windows and returns the first clean fragment. A window
// covering the interval start advances it; a window starting inside the
// interval truncates it, keeping the left fragment. The second return is
// false when nothing workable remains.
func (e *CalendarEngine) SubtractMaintenanceWindows(interval Interval, windows []domain.MaintenanceWindow) (Interval, bool) {
	if !interval.End.After(interval.Start) {
		return Interval{}, false
	}

	start, end := interval.Start, interval.End
	for _, w := range sortWindows(windows) {
		if !w.End.After(w.Start) {
			continue
		}
		if !w.End.After(start) {
			continue
		}
		if !w.Start.Before(end) {
			break
		}
		if w.Start.After(start) {
			end = w.Start
			break
		}
		start = w.End
		if !start.Before(end) {
			return Interval{}, false
		}
	}

	return Interval{Start: start, End: end}, true
}

// shiftInstance is one concrete occurrence of a weekly shift.
type shiftInstance struct {
	start time.Time
	end   time.Time
}

// shiftInstancesOn resolves the weekly pattern into concrete intervals for
// the local day beginning at midnight day. A wrap-around shift belongs to
// its defining day and extends into the next one. Zero-length shifts are
// skipped.
func (e *CalendarEngine) shiftInstancesOn(day time.Time, wc *domain.WorkCenter) []shiftInstance {
	weekday := int(day.Weekday())

	var instances []shiftInstance
	for _, s := range wc.Shifts() {
		if s.DayOfWeek != weekday || s.IsZeroLength() {
			continue
		}

		start := time.Date(day.Year(), day.Month(), day.Day(), s.StartHour, 0, 0, 0, e.location)
		endDay := day
		if s.WrapsMidnight() {
			endDay = day.AddDate(0, 0, 1)
		}
		end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), s.EndHour, 0, 0, 0, e.location)

		instances = append(instances, shiftInstance{start: start, end: end})
	}

	sort.Slice(instances, func(i, j int) bool {
		if !instances[i].start.Equal(instances[j].start) {
			return instances[i].start.Before(instances[j].start)
		}
		return instances[i].end.Before(instances[j].end)
	})

	return instances
}

// mergedShiftEnd returns where the contiguous run of shift instances
// containing start ends, merging instances that touch or overlap. The scan
// is capped so an around-the-clock pattern still terminates.
func (e *CalendarEngine) mergedShiftEnd(start time.Time, wc *domain.WorkCenter) time.Time {
	day := e.startOfDay(start)
	end := start

	for offset := -1; offset <= endDateHorizonDays; offset++ {
		dayStart := day.AddDate(0, 0, offset)
		if end.Before(dayStart) {
			break
		}
		for _, inst := range e.shiftInstancesOn(dayStart, wc) {
			if inst.start.After(end) {
				continue
			}
			if inst.end.After(end) {
				end = inst.end
			}
		}
	}

	return end
}

// startOfDay returns local midnight of the day containing t.
func (e *CalendarEngine) startOfDay(t time.Time) time.Time {
	local := t.In(e.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.location)
}

// sortWindows returns the windows ordered by start, then end.
func sortWindows(windows []domain.MaintenanceWindow) []domain.MaintenanceWindow {
	sorted := make([]domain.MaintenanceWindow, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})
	return sorted
}
