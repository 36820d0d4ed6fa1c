package queries

import (
	"context"

	"github.com/felixgeelhaar/reflow/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// ValidateDependenciesQuery contains the orders to pre-flight.
type ValidateDependenciesQuery struct {
	Orders []*domain.WorkOrder
}

// ValidationReportDTO lists every dependency problem found in one pass.
type ValidationReportDTO struct {
	Valid  bool
	Issues []services.ValidationIssue
}

// ValidateDependenciesHandler handles the ValidateDependenciesQuery. It never
// schedules and never persists; it only reports.
type ValidateDependenciesHandler struct{}

// NewValidateDependenciesHandler creates a new ValidateDependenciesHandler.
func NewValidateDependenciesHandler() *ValidateDependenciesHandler {
	return &ValidateDependenciesHandler{}
}

// Handle executes the ValidateDependenciesQuery.
func (h *ValidateDependenciesHandler) Handle(ctx context.Context, query ValidateDependenciesQuery) (*ValidationReportDTO, error) {
	issues := services.ValidateDependencies(query.Orders)
	return &ValidationReportDTO{
		Valid:  len(issues) == 0,
		Issues: issues,
	}, nil
}
