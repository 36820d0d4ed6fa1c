package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/reflow/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
	"github.com/google/uuid"
)

// RunHandler handles run history API requests.
type RunHandler struct {
	getRun   *queries.GetRunHandler
	listRuns *queries.ListRunsHandler
	logger   *slog.Logger
}

// RunHandlerConfig holds dependencies for the run handler.
type RunHandlerConfig struct {
	GetRun   *queries.GetRunHandler
	ListRuns *queries.ListRunsHandler
	Logger   *slog.Logger
}

// NewRunHandler creates a new run handler.
func NewRunHandler(cfg RunHandlerConfig) *RunHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RunHandler{
		getRun:   cfg.GetRun,
		listRuns: cfg.ListRuns,
		logger:   cfg.Logger,
	}
}

// GetRun handles GET /runs/{runID}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("runID"))
	if err != nil {
		writeDomainError(w, h.logger, &domain.ValidationError{Field: "runId", Message: "run id must be a UUID"})
		return
	}

	run, err := h.getRun.Handle(r.Context(), queries.GetRunQuery{RunID: runID})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewRunResponse(run))
}

// ListRuns handles GET /runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	query := queries.ListRunsQuery{
		Limit: parseIntParam(r, "limit", 0),
	}

	summaries, err := h.listRuns.Handle(r.Context(), query)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewListRunsResponse(summaries))
}

func parseIntParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
