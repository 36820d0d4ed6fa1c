package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/reflow/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// ReflowRequest is the POST /reflow body. Orders and centers arrive as
// document envelopes: an id plus the document payload.
type ReflowRequest struct {
	WorkOrders        []WorkOrderDocument  `json:"workOrders"`
	WorkCenters       []WorkCenterDocument `json:"workCenters"`
	AllowEarlierStart bool                 `json:"allowEarlierStart"`
	Timezone          string               `json:"timezone"`
}

// WorkOrderDocument wraps one work order payload with its document id.
type WorkOrderDocument struct {
	DocID string        `json:"docId"`
	Data  WorkOrderData `json:"data"`
}

// WorkOrderData is the work order payload.
type WorkOrderData struct {
	WorkOrderNumber       string    `json:"workOrderNumber"`
	WorkCenterID          string    `json:"workCenterId"`
	StartDate             time.Time `json:"startDate"`
	EndDate               time.Time `json:"endDate"`
	DurationMinutes       int       `json:"durationMinutes"`
	IsMaintenance         bool      `json:"isMaintenance"`
	DependsOnWorkOrderIDs []string  `json:"dependsOnWorkOrderIds"`
}

// WorkCenterDocument wraps one work center payload with its document id.
type WorkCenterDocument struct {
	DocID string         `json:"docId"`
	Data  WorkCenterData `json:"data"`
}

// WorkCenterData is the work center payload.
type WorkCenterData struct {
	Name               string                      `json:"name"`
	Shifts             []ShiftDocument             `json:"shifts"`
	MaintenanceWindows []MaintenanceWindowDocument `json:"maintenanceWindows"`
}

// ShiftDocument is one weekly shift entry.
type ShiftDocument struct {
	DayOfWeek int `json:"dayOfWeek"`
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

// MaintenanceWindowDocument is one absolute blackout interval.
type MaintenanceWindowDocument struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason"`
}

// ToCommand validates the request documents into domain objects. Structural
// problems surface as ValidationError before the scheduler runs.
func (req *ReflowRequest) ToCommand() (commands.ExecuteReflowCommand, error) {
	orders := make([]*domain.WorkOrder, 0, len(req.WorkOrders))
	for i, doc := range req.WorkOrders {
		order, err := domain.NewWorkOrder(
			doc.DocID,
			doc.Data.WorkOrderNumber,
			doc.Data.WorkCenterID,
			doc.Data.StartDate,
			doc.Data.EndDate,
			doc.Data.DurationMinutes,
			doc.Data.IsMaintenance,
			doc.Data.DependsOnWorkOrderIDs,
		)
		if err != nil {
			return commands.ExecuteReflowCommand{}, &domain.ValidationError{
				Field:   fmt.Sprintf("workOrders[%d]", i),
				Message: err.Error(),
			}
		}
		orders = append(orders, order)
	}

	centers := make([]*domain.WorkCenter, 0, len(req.WorkCenters))
	for i, doc := range req.WorkCenters {
		shifts := make([]domain.Shift, 0, len(doc.Data.Shifts))
		for _, shift := range doc.Data.Shifts {
			shifts = append(shifts, domain.Shift{
				DayOfWeek: shift.DayOfWeek,
				StartHour: shift.StartHour,
				EndHour:   shift.EndHour,
			})
		}

		windows := make([]domain.MaintenanceWindow, 0, len(doc.Data.MaintenanceWindows))
		for _, window := range doc.Data.MaintenanceWindows {
			windows = append(windows, domain.MaintenanceWindow{
				Start:  window.StartDate,
				End:    window.EndDate,
				Reason: window.Reason,
			})
		}

		center, err := domain.NewWorkCenter(doc.DocID, doc.Data.Name, shifts, windows)
		if err != nil {
			return commands.ExecuteReflowCommand{}, &domain.ValidationError{
				Field:   fmt.Sprintf("workCenters[%d]", i),
				Message: err.Error(),
			}
		}
		centers = append(centers, center)
	}

	return commands.ExecuteReflowCommand{
		Orders:            orders,
		Centers:           centers,
		AllowEarlierStart: req.AllowEarlierStart,
		Timezone:          req.Timezone,
	}, nil
}

// ToOrders validates only the work order documents, for the pre-flight
// endpoint that needs no work centers.
func (req *ReflowRequest) ToOrders() ([]*domain.WorkOrder, error) {
	cmd, err := req.ToCommand()
	if err != nil {
		return nil, err
	}
	return cmd.Orders, nil
}

// ReflowResultDTO is one scheduled order in the response. Dates are UTC
// RFC 3339 strings so identical inputs produce byte-identical output.
type ReflowResultDTO struct {
	WorkOrderID       string `json:"workOrderId"`
	WorkOrderNumber   string `json:"workOrderNumber"`
	OriginalStartDate string `json:"originalStartDate"`
	OriginalEndDate   string `json:"originalEndDate"`
	NewStartDate      string `json:"newStartDate"`
	NewEndDate        string `json:"newEndDate"`
	WasRescheduled    bool   `json:"wasRescheduled"`
	IsFixed           bool   `json:"isFixed"`
}

// ReflowMetadataDTO aggregates the run counters in the response.
type ReflowMetadataDTO struct {
	TotalOrders      int   `json:"totalOrders"`
	RescheduledCount int   `json:"rescheduledCount"`
	FixedCount       int   `json:"fixedCount"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// ReflowResponse is the POST /reflow 200 body.
type ReflowResponse struct {
	Results  []ReflowResultDTO `json:"results"`
	Warnings []string          `json:"warnings"`
	Metadata ReflowMetadataDTO `json:"metadata"`
}

// ValidationResponse is the POST /reflow/validate 200 body.
type ValidationResponse struct {
	Valid  bool                       `json:"valid"`
	Issues []services.ValidationIssue `json:"issues"`
}

// RunResponse is the GET /runs/{id} 200 body.
type RunResponse struct {
	ID                string            `json:"id"`
	Timezone          string            `json:"timezone"`
	AllowEarlierStart bool              `json:"allowEarlierStart"`
	Results           []ReflowResultDTO `json:"results"`
	Warnings          []string          `json:"warnings"`
	Metadata          ReflowMetadataDTO `json:"metadata"`
	RequestedAt       string            `json:"requestedAt"`
}

// RunSummaryResponse is one entry in the GET /runs listing.
type RunSummaryResponse struct {
	ID               string `json:"id"`
	Timezone         string `json:"timezone"`
	TotalOrders      int    `json:"totalOrders"`
	RescheduledCount int    `json:"rescheduledCount"`
	FixedCount       int    `json:"fixedCount"`
	WarningCount     int    `json:"warningCount"`
	RequestedAt      string `json:"requestedAt"`
}

// ListRunsResponse is the GET /runs 200 body.
type ListRunsResponse struct {
	Runs []RunSummaryResponse `json:"runs"`
}

// ErrorResponse is the uniform error body. Context fields are set per error
// type and omitted otherwise.
type ErrorResponse struct {
	StatusCode          int      `json:"statusCode"`
	Error               string   `json:"error"`
	Message             string   `json:"message"`
	Field               string   `json:"field,omitempty"`
	WorkOrderID         string   `json:"workOrderId,omitempty"`
	WorkCenterID        string   `json:"workCenterId,omitempty"`
	MissingDependencyID string   `json:"missingDependencyId,omitempty"`
	Cycle               []string `json:"cycle,omitempty"`
	SearchedFrom        string   `json:"searchedFrom,omitempty"`
}

// errorResponseFor maps an error to its HTTP status and wire body. Unknown
// errors become opaque 500s.
func errorResponseFor(err error) (int, ErrorResponse) {
	var (
		validation *domain.ValidationError
		missingWC  *domain.MissingWorkCenterError
		missingDep *domain.MissingDependencyError
		circular   *domain.CircularDependencyError
		noSlot     *domain.NoWorkableSlotError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Error:      "ValidationError",
			Message:    validation.Error(),
			Field:      validation.Field,
		}
	case errors.As(err, &missingWC):
		return http.StatusBadRequest, ErrorResponse{
			StatusCode:   http.StatusBadRequest,
			Error:        "MissingWorkCenterError",
			Message:      missingWC.Error(),
			WorkOrderID:  missingWC.WorkOrderID,
			WorkCenterID: missingWC.WorkCenterID,
		}
	case errors.As(err, &missingDep):
		return http.StatusBadRequest, ErrorResponse{
			StatusCode:          http.StatusBadRequest,
			Error:               "MissingDependencyError",
			Message:             missingDep.Error(),
			WorkOrderID:         missingDep.WorkOrderID,
			MissingDependencyID: missingDep.DependencyID,
		}
	case errors.As(err, &circular):
		return http.StatusBadRequest, ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Error:      "CircularDependencyError",
			Message:    circular.Error(),
			Cycle:      circular.Cycle,
		}
	case errors.As(err, &noSlot):
		return http.StatusBadRequest, ErrorResponse{
			StatusCode:   http.StatusBadRequest,
			Error:        "NoWorkableSlotError",
			Message:      noSlot.Error(),
			WorkCenterID: noSlot.WorkCenterID,
			SearchedFrom: apiTime(noSlot.From),
		}
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound, ErrorResponse{
			StatusCode: http.StatusNotFound,
			Error:      "NotFoundError",
			Message:    err.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Error:      "InternalError",
			Message:    "internal server error",
		}
	}
}

// apiTime renders an instant the way every response does: UTC RFC 3339.
func apiTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toResultDTOs(results []domain.ReflowResult) []ReflowResultDTO {
	dtos := make([]ReflowResultDTO, 0, len(results))
	for _, result := range results {
		dtos = append(dtos, ReflowResultDTO{
			WorkOrderID:       result.WorkOrderID,
			WorkOrderNumber:   result.WorkOrderNumber,
			OriginalStartDate: apiTime(result.OriginalStart),
			OriginalEndDate:   apiTime(result.OriginalEnd),
			NewStartDate:      apiTime(result.NewStart),
			NewEndDate:        apiTime(result.NewEnd),
			WasRescheduled:    result.Rescheduled,
			IsFixed:           result.Fixed,
		})
	}
	return dtos
}

// NewReflowResponse builds the wire form of a scheduling result. The CLI
// reuses it so file-based runs print the same JSON the API serves.
func NewReflowResponse(result *commands.ExecuteReflowResult) ReflowResponse {
	return ReflowResponse{
		Results:  toResultDTOs(result.Results),
		Warnings: nonNilStrings(result.Warnings),
		Metadata: toMetadataDTO(result.Metadata),
	}
}

// NewRunResponse builds the wire form of a persisted run.
func NewRunResponse(dto *queries.RunDTO) RunResponse {
	return RunResponse{
		ID:                dto.ID.String(),
		Timezone:          dto.Timezone,
		AllowEarlierStart: dto.AllowEarlierStart,
		Results:           toResultDTOs(dto.Results),
		Warnings:          nonNilStrings(dto.Warnings),
		Metadata:          toMetadataDTO(dto.Metadata),
		RequestedAt:       apiTime(dto.RequestedAt),
	}
}

// NewListRunsResponse builds the wire form of a run listing.
func NewListRunsResponse(summaries []queries.RunSummaryDTO) ListRunsResponse {
	runs := make([]RunSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		runs = append(runs, RunSummaryResponse{
			ID:               summary.ID.String(),
			Timezone:         summary.Timezone,
			TotalOrders:      summary.TotalOrders,
			RescheduledCount: summary.RescheduledCount,
			FixedCount:       summary.FixedCount,
			WarningCount:     summary.WarningCount,
			RequestedAt:      apiTime(summary.RequestedAt),
		})
	}
	return ListRunsResponse{Runs: runs}
}

func toMetadataDTO(metadata domain.ReflowMetadata) ReflowMetadataDTO {
	return ReflowMetadataDTO{
		TotalOrders:      metadata.TotalOrders,
		RescheduledCount: metadata.RescheduledCount,
		FixedCount:       metadata.FixedCount,
		ProcessingTimeMs: metadata.ProcessingTimeMs,
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
