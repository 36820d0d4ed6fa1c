package services

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// ReflowInput is one complete scheduling problem: the orders, the work
// centers they run on, and the per-call options.
type ReflowInput struct {
	Orders            []*domain.WorkOrder
	Centers           []*domain.WorkCenter
	AllowEarlierStart bool
	Timezone          string // IANA name, default UTC
}

// ReflowOutput carries one result per order in processing order, the
// accumulated warnings, and the run counters.
type ReflowOutput struct {
	Results  []domain.ReflowResult
	Warnings []string
	Metadata domain.ReflowMetadata
}

// ReflowConfig contains configuration for the reflow engine.
type ReflowConfig struct {
	// Now supplies the fallback start instant for orders with no
	// constraints at all. Injectable so tests stay deterministic.
	Now func() time.Time
}

// DefaultReflowConfig returns the production configuration.
func DefaultReflowConfig() ReflowConfig {
	return ReflowConfig{Now: time.Now}
}

// ReflowEngine recomputes work order schedules against shift calendars,
// maintenance windows, dependencies, and machine capacity. A reflow call
// is a pure function of its input; engines are safe for concurrent use.
type ReflowEngine struct {
	config ReflowConfig
}

// NewReflowEngine creates a reflow engine.
func NewReflowEngine(config ReflowConfig) *ReflowEngine {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &ReflowEngine{config: config}
}

// Execute runs one reflow pass: validate work center references, build the
// dependency graph, linearize it, then place every order at its earliest
// feasible start. Any error aborts the whole run; there are no partial
// results.
func (e *ReflowEngine) Execute(input ReflowInput) (*ReflowOutput, error) {
	started := time.Now()

	timezone := input.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, &domain.ValidationError{
			Field:   "timezone",
			Message: fmt.Sprintf("unknown timezone %q", timezone),
		}
	}

	centers := make(map[string]*domain.WorkCenter, len(input.Centers))
	for _, wc := range input.Centers {
		centers[wc.ID()] = wc
	}
	orders := make(map[string]*domain.WorkOrder, len(input.Orders))
	for _, order := range input.Orders {
		orders[order.ID()] = order
		if _, ok := centers[order.WorkCenterID()]; !ok {
			return nil, &domain.MissingWorkCenterError{
				WorkOrderID:  order.ID(),
				WorkCenterID: order.WorkCenterID(),
			}
		}
	}

	graph, err := BuildDependencyGraph(input.Orders)
	if err != nil {
		return nil, err
	}
	sequence, err := graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	calendar := NewCalendarEngine(location)
	machineAvailability := make(map[string]time.Time, len(input.Centers))
	orderEnd := make(map[string]time.Time, len(input.Orders))

	results := make([]domain.ReflowResult, 0, len(sequence))
	warnings := make([]string, 0)
	rescheduledCount := 0
	fixedCount := 0

	for _, id := range sequence {
		order := orders[id]
		wc := centers[order.WorkCenterID()]

		if order.IsMaintenance() {
			// Fixed anchor: dates pass through verbatim, the machine is
			// reserved through the window.
			results = append(results, domain.NewReflowResult(order, order.StartDate(), order.EndDate(), true))
			fixedCount++
			orderEnd[id] = order.EndDate()
			if current, ok := machineAvailability[wc.ID()]; !ok || order.EndDate().After(current) {
				machineAvailability[wc.ID()] = order.EndDate()
			}
			continue
		}

		earliest, constrained := earliestStart(order, input.AllowEarlierStart, machineAvailability, orderEnd)
		if !constrained {
			earliest = e.config.Now()
		}

		start, err := calendar.FindEarliestValidStart(earliest, wc)
		if err != nil {
			return nil, err
		}
		end, err := calendar.CalculateEndDateWithShifts(start, order.DurationMinutes(), wc)
		if err != nil {
			return nil, err
		}

		result := domain.NewReflowResult(order, start, end, false)
		results = append(results, result)
		if result.Rescheduled {
			rescheduledCount++
		}
		orderEnd[id] = end
		machineAvailability[wc.ID()] = end

		if start.After(order.StartDate()) {
			delay := int(start.Sub(order.StartDate()) / time.Minute)
			warnings = append(warnings, fmt.Sprintf("Work order %s delayed by %d minutes", order.Number(), delay))
		}
	}

	return &ReflowOutput{
		Results:  results,
		Warnings: warnings,
		Metadata: domain.ReflowMetadata{
			TotalOrders:      len(results),
			RescheduledCount: rescheduledCount,
			FixedCount:       fixedCount,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		},
	}, nil
}

// earliestStart combines the constraints bounding an order's start: its
// original start (unless earlier starts are allowed), the machine's next
// free instant, and every prerequisite's end. The second return is false
// when no constraint applies.
func earliestStart(
	order *domain.WorkOrder,
	allowEarlier bool,
	machineAvailability map[string]time.Time,
	orderEnd map[string]time.Time,
) (time.Time, bool) {
	var earliest time.Time
	constrained := false

	raise := func(t time.Time) {
		if !constrained || t.After(earliest) {
			earliest = t
			constrained = true
		}
	}

	if !allowEarlier {
		raise(order.StartDate())
	}
	if available, ok := machineAvailability[order.WorkCenterID()]; ok {
		raise(available)
	}
	for _, dep := range order.DependsOn() {
		if end, ok := orderEnd[dep]; ok {
			raise(end)
		}
	}

	return earliest, constrained
}
