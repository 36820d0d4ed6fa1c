package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

func TestReflowRequest_ToCommand(t *testing.T) {
	start := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	req := &ReflowRequest{
		WorkOrders: []WorkOrderDocument{
			{
				DocID: "wo-a",
				Data: WorkOrderData{
					WorkOrderNumber: "WO-A",
					WorkCenterID:    "wc-1",
					StartDate:       start,
					EndDate:         end,
					DurationMinutes: 120,
				},
			},
			{
				DocID: "wo-b",
				Data: WorkOrderData{
					WorkCenterID:          "wc-1",
					StartDate:             start,
					EndDate:               end,
					DurationMinutes:       60,
					IsMaintenance:         true,
					DependsOnWorkOrderIDs: []string{"wo-a"},
				},
			},
		},
		WorkCenters: []WorkCenterDocument{
			{
				DocID: "wc-1",
				Data: WorkCenterData{
					Name: "Mill 1",
					Shifts: []ShiftDocument{
						{DayOfWeek: 1, StartHour: 9, EndHour: 17},
					},
					MaintenanceWindows: []MaintenanceWindowDocument{
						{StartDate: start, EndDate: end, Reason: "inspection"},
					},
				},
			},
		},
		AllowEarlierStart: true,
		Timezone:          "Europe/Berlin",
	}

	cmd, err := req.ToCommand()
	require.NoError(t, err)

	require.Len(t, cmd.Orders, 2)
	assert.Equal(t, "wo-a", cmd.Orders[0].ID())
	assert.Equal(t, "WO-A", cmd.Orders[0].Number())
	assert.Equal(t, "wc-1", cmd.Orders[0].WorkCenterID())
	assert.Equal(t, start, cmd.Orders[0].StartDate())
	assert.Equal(t, 120, cmd.Orders[0].DurationMinutes())
	assert.False(t, cmd.Orders[0].IsMaintenance())
	assert.Empty(t, cmd.Orders[0].DependsOn())

	// Number falls back to the document id when absent.
	assert.Equal(t, "wo-b", cmd.Orders[1].Number())
	assert.True(t, cmd.Orders[1].IsMaintenance())
	assert.Equal(t, []string{"wo-a"}, cmd.Orders[1].DependsOn())

	require.Len(t, cmd.Centers, 1)
	assert.Equal(t, "wc-1", cmd.Centers[0].ID())
	assert.Equal(t, "Mill 1", cmd.Centers[0].Name())
	require.Len(t, cmd.Centers[0].Shifts(), 1)
	assert.Equal(t, 1, cmd.Centers[0].Shifts()[0].DayOfWeek)
	require.Len(t, cmd.Centers[0].MaintenanceWindows(), 1)
	assert.Equal(t, "inspection", cmd.Centers[0].MaintenanceWindows()[0].Reason)

	assert.True(t, cmd.AllowEarlierStart)
	assert.Equal(t, "Europe/Berlin", cmd.Timezone)
}

func TestReflowRequest_ToCommandRejectsBadDocuments(t *testing.T) {
	start := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	validOrder := WorkOrderDocument{
		DocID: "wo-a",
		Data: WorkOrderData{
			WorkCenterID:    "wc-1",
			StartDate:       start,
			EndDate:         end,
			DurationMinutes: 60,
		},
	}

	t.Run("invalid order carries its index", func(t *testing.T) {
		req := &ReflowRequest{
			WorkOrders: []WorkOrderDocument{
				validOrder,
				{
					DocID: "wo-b",
					Data: WorkOrderData{
						WorkCenterID:    "wc-1",
						StartDate:       start,
						EndDate:         end,
						DurationMinutes: -5,
					},
				},
			},
		}

		_, err := req.ToCommand()

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "workOrders[1]", validation.Field)
		assert.Contains(t, validation.Message, "duration")
	})

	t.Run("invalid center carries its index", func(t *testing.T) {
		req := &ReflowRequest{
			WorkOrders:  []WorkOrderDocument{validOrder},
			WorkCenters: []WorkCenterDocument{{DocID: "", Data: WorkCenterData{Name: "Mill 1"}}},
		}

		_, err := req.ToCommand()

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "workCenters[0]", validation.Field)
	})
}

func TestErrorResponseFor(t *testing.T) {
	searchedFrom := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   ErrorResponse
	}{
		{
			name:       "validation error",
			err:        &domain.ValidationError{Field: "timezone", Message: "unknown timezone Mars/Olympus"},
			wantStatus: http.StatusBadRequest,
			wantBody: ErrorResponse{
				StatusCode: http.StatusBadRequest,
				Error:      "ValidationError",
				Message:    "timezone: unknown timezone Mars/Olympus",
				Field:      "timezone",
			},
		},
		{
			name:       "missing work center",
			err:        &domain.MissingWorkCenterError{WorkOrderID: "wo-a", WorkCenterID: "wc-missing"},
			wantStatus: http.StatusBadRequest,
			wantBody: ErrorResponse{
				StatusCode:   http.StatusBadRequest,
				Error:        "MissingWorkCenterError",
				Message:      "work order wo-a references unknown work center wc-missing",
				WorkOrderID:  "wo-a",
				WorkCenterID: "wc-missing",
			},
		},
		{
			name:       "missing dependency",
			err:        &domain.MissingDependencyError{WorkOrderID: "wo-a", DependencyID: "wo-ghost"},
			wantStatus: http.StatusBadRequest,
			wantBody: ErrorResponse{
				StatusCode:          http.StatusBadRequest,
				Error:               "MissingDependencyError",
				Message:             "work order wo-a depends on unknown work order wo-ghost",
				WorkOrderID:         "wo-a",
				MissingDependencyID: "wo-ghost",
			},
		},
		{
			name:       "circular dependency",
			err:        &domain.CircularDependencyError{Cycle: []string{"wo-a", "wo-b", "wo-a"}},
			wantStatus: http.StatusBadRequest,
			wantBody: ErrorResponse{
				StatusCode: http.StatusBadRequest,
				Error:      "CircularDependencyError",
				Message:    "circular dependency detected: wo-a -> wo-b -> wo-a",
				Cycle:      []string{"wo-a", "wo-b", "wo-a"},
			},
		},
		{
			name:       "no workable slot",
			err:        &domain.NoWorkableSlotError{WorkCenterID: "wc-1", From: searchedFrom},
			wantStatus: http.StatusBadRequest,
			wantBody: ErrorResponse{
				StatusCode:   http.StatusBadRequest,
				Error:        "NoWorkableSlotError",
				Message:      "no workable slot on work center wc-1 from 2024-01-15T10:00:00Z",
				WorkCenterID: "wc-1",
				SearchedFrom: "2024-01-15T10:00:00Z",
			},
		},
		{
			name:       "run not found",
			err:        domain.ErrRunNotFound,
			wantStatus: http.StatusNotFound,
			wantBody: ErrorResponse{
				StatusCode: http.StatusNotFound,
				Error:      "NotFoundError",
				Message:    "reflow run not found",
			},
		},
		{
			name:       "unknown errors stay opaque",
			err:        errors.New("pgx: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody: ErrorResponse{
				StatusCode: http.StatusInternalServerError,
				Error:      "InternalError",
				Message:    "internal server error",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponseFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
