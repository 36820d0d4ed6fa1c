package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reflow/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
	"github.com/felixgeelhaar/reflow/internal/scheduling/infrastructure/cache"
	sharedApplication "github.com/felixgeelhaar/reflow/internal/shared/application"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/outbox"
)

// ExecuteReflowCommand contains one complete scheduling problem. Orders and
// centers arrive already validated by the transport layer.
type ExecuteReflowCommand struct {
	Orders            []*domain.WorkOrder
	Centers           []*domain.WorkCenter
	AllowEarlierStart bool
	Timezone          string
}

// ExecuteReflowResult contains the computed plan and the identifier of the
// persisted run. Replayed marks results served from the plan cache.
type ExecuteReflowResult struct {
	RunID    uuid.UUID
	Results  []domain.ReflowResult
	Warnings []string
	Metadata domain.ReflowMetadata
	Replayed bool
}

// ExecuteReflowHandler handles the ExecuteReflowCommand.
type ExecuteReflowHandler struct {
	runRepo    domain.RunRepository
	engine     *services.ReflowEngine
	outboxRepo outbox.Writer
	planCache  cache.PlanCache
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewExecuteReflowHandler creates a new ExecuteReflowHandler. The plan cache
// is optional; pass nil to disable idempotent replay.
func NewExecuteReflowHandler(
	runRepo domain.RunRepository,
	outboxRepo outbox.Writer,
	uow sharedApplication.UnitOfWork,
	engine *services.ReflowEngine,
	planCache cache.PlanCache,
	logger *slog.Logger,
) *ExecuteReflowHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecuteReflowHandler{
		runRepo:    runRepo,
		engine:     engine,
		outboxRepo: outboxRepo,
		planCache:  planCache,
		uow:        uow,
		logger:     logger,
	}
}

// Handle executes the ExecuteReflowCommand.
//
// Identical requests hash to the same digest; when a cached plan exists it is
// returned as-is without re-running the solver or writing a new run.
func (h *ExecuteReflowHandler) Handle(ctx context.Context, cmd ExecuteReflowCommand) (*ExecuteReflowResult, error) {
	start := time.Now()

	digest, err := requestDigest(cmd)
	if err != nil {
		return nil, err
	}

	if h.planCache != nil {
		plan, err := h.planCache.Get(ctx, digest)
		if err != nil {
			h.logger.Debug("plan cache read failed", "error", err)
		}
		if plan != nil {
			h.logger.Info("reflow replayed from cache",
				"run_id", plan.RunID,
				"digest", digest,
			)
			return &ExecuteReflowResult{
				RunID:    plan.RunID,
				Results:  plan.Results,
				Warnings: plan.Warnings,
				Metadata: plan.Metadata,
				Replayed: true,
			}, nil
		}
	}

	output, err := h.engine.Execute(services.ReflowInput{
		Orders:            cmd.Orders,
		Centers:           cmd.Centers,
		AllowEarlierStart: cmd.AllowEarlierStart,
		Timezone:          cmd.Timezone,
	})
	if err != nil {
		return nil, err
	}

	timezone := cmd.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	var run *domain.ReflowRun
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		run = domain.NewReflowRun(
			timezone,
			cmd.AllowEarlierStart,
			output.Results,
			output.Warnings,
			output.Metadata,
			start.UTC(),
		)

		if err := h.runRepo.Save(txCtx, run); err != nil {
			return err
		}

		events := run.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(txCtx))

		msgs := make([]*outbox.Message, 0, len(events))
		for _, event := range events {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		run.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.planCache != nil {
		plan := &cache.CachedPlan{
			RunID:    run.ID(),
			Results:  output.Results,
			Warnings: output.Warnings,
			Metadata: output.Metadata,
			CachedAt: time.Now().UTC(),
		}
		if err := h.planCache.Set(ctx, digest, plan); err != nil {
			h.logger.Debug("plan cache write failed", "error", err)
		}
	}

	h.logger.Info("reflow completed",
		"run_id", run.ID(),
		"total_orders", output.Metadata.TotalOrders,
		"rescheduled", output.Metadata.RescheduledCount,
		"fixed", output.Metadata.FixedCount,
		"warnings", len(output.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &ExecuteReflowResult{
		RunID:    run.ID(),
		Results:  output.Results,
		Warnings: output.Warnings,
		Metadata: output.Metadata,
	}, nil
}

// digestOrder and digestCenter mirror the scheduling inputs with exported
// fields so the request digest is stable across calls. Times are normalized
// to UTC so the same instant always hashes the same.
type digestOrder struct {
	ID              string    `json:"id"`
	Number          string    `json:"number"`
	WorkCenterID    string    `json:"workCenterId"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	DurationMinutes int       `json:"durationMinutes"`
	IsMaintenance   bool      `json:"isMaintenance"`
	DependsOn       []string  `json:"dependsOn"`
}

type digestWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

type digestCenter struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Shifts  []domain.Shift `json:"shifts"`
	Windows []digestWindow `json:"windows"`
}

type digestPayload struct {
	Orders            []digestOrder  `json:"orders"`
	Centers           []digestCenter `json:"centers"`
	AllowEarlierStart bool           `json:"allowEarlierStart"`
	Timezone          string         `json:"timezone"`
}

// requestDigest produces the idempotency key for a command: the SHA-256 hex
// digest of its canonical JSON form.
func requestDigest(cmd ExecuteReflowCommand) (string, error) {
	payload := digestPayload{
		Orders:            make([]digestOrder, 0, len(cmd.Orders)),
		Centers:           make([]digestCenter, 0, len(cmd.Centers)),
		AllowEarlierStart: cmd.AllowEarlierStart,
		Timezone:          cmd.Timezone,
	}

	for _, order := range cmd.Orders {
		payload.Orders = append(payload.Orders, digestOrder{
			ID:              order.ID(),
			Number:          order.Number(),
			WorkCenterID:    order.WorkCenterID(),
			StartDate:       order.StartDate().UTC(),
			EndDate:         order.EndDate().UTC(),
			DurationMinutes: order.DurationMinutes(),
			IsMaintenance:   order.IsMaintenance(),
			DependsOn:       order.DependsOn(),
		})
	}

	for _, center := range cmd.Centers {
		dc := digestCenter{
			ID:     center.ID(),
			Name:   center.Name(),
			Shifts: center.Shifts(),
		}
		for _, w := range center.MaintenanceWindows() {
			dc.Windows = append(dc.Windows, digestWindow{
				Start:  w.Start.UTC(),
				End:    w.End.UTC(),
				Reason: w.Reason,
			})
		}
		payload.Centers = append(payload.Centers, dc)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
