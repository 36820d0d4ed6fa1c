package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/reflow/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// ReflowHandler handles scheduling API requests.
type ReflowHandler struct {
	executeReflow *commands.ExecuteReflowHandler
	validateDeps  *queries.ValidateDependenciesHandler
	logger        *slog.Logger
}

// ReflowHandlerConfig holds dependencies for the reflow handler.
type ReflowHandlerConfig struct {
	ExecuteReflow *commands.ExecuteReflowHandler
	ValidateDeps  *queries.ValidateDependenciesHandler
	Logger        *slog.Logger
}

// NewReflowHandler creates a new reflow handler.
func NewReflowHandler(cfg ReflowHandlerConfig) *ReflowHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ReflowHandler{
		executeReflow: cfg.ExecuteReflow,
		validateDeps:  cfg.ValidateDeps,
		logger:        cfg.Logger,
	}
}

// ExecuteReflow handles POST /reflow
func (h *ReflowHandler) ExecuteReflow(w http.ResponseWriter, r *http.Request) {
	var req ReflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, h.logger, &domain.ValidationError{Field: "body", Message: "request body is not valid JSON"})
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	result, err := h.executeReflow.Handle(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewReflowResponse(result))
}

// ValidateDependencies handles POST /reflow/validate
func (h *ReflowHandler) ValidateDependencies(w http.ResponseWriter, r *http.Request) {
	var req ReflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, h.logger, &domain.ValidationError{Field: "body", Message: "request body is not valid JSON"})
		return
	}

	orders, err := req.ToOrders()
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	report, err := h.validateDeps.Handle(r.Context(), queries.ValidateDependenciesQuery{Orders: orders})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidationResponse{
		Valid:  report.Valid,
		Issues: report.Issues,
	})
}
