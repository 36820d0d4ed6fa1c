package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// Test calendar: January 2024, base Monday the 15th, standard shift
// Mon-Fri 09:00-17:00 UTC.

func utcDate(day, hour, minute int) time.Time {
	return time.Date(2024, time.January, day, hour, minute, 0, 0, time.UTC)
}

func weekdayShifts() []domain.Shift {
	return []domain.Shift{
		{DayOfWeek: 1, StartHour: 9, EndHour: 17},
		{DayOfWeek: 2, StartHour: 9, EndHour: 17},
		{DayOfWeek: 3, StartHour: 9, EndHour: 17},
		{DayOfWeek: 4, StartHour: 9, EndHour: 17},
		{DayOfWeek: 5, StartHour: 9, EndHour: 17},
	}
}

func newTestCenter(t *testing.T, id string, windows ...domain.MaintenanceWindow) *domain.WorkCenter {
	t.Helper()
	wc, err := domain.NewWorkCenter(id, "", weekdayShifts(), windows)
	require.NoError(t, err)
	return wc
}

func newShiftCenter(t *testing.T, id string, shifts []domain.Shift, windows ...domain.MaintenanceWindow) *domain.WorkCenter {
	t.Helper()
	wc, err := domain.NewWorkCenter(id, "", shifts, windows)
	require.NoError(t, err)
	return wc
}

func newTestOrder(t *testing.T, id, wcID string, start time.Time, minutes int, deps ...string) *domain.WorkOrder {
	t.Helper()
	end := start.Add(time.Duration(minutes) * time.Minute)
	order, err := domain.NewWorkOrder(id, "", wcID, start, end, minutes, false, deps)
	require.NoError(t, err)
	return order
}

func newMaintenanceOrder(t *testing.T, id, wcID string, start, end time.Time) *domain.WorkOrder {
	t.Helper()
	order, err := domain.NewWorkOrder(id, "", wcID, start, end, int(end.Sub(start)/time.Minute), true, nil)
	require.NoError(t, err)
	return order
}
