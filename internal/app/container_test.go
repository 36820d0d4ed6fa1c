package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reflow/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reflow/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                 "test",
		SQLitePath:             filepath.Join(t.TempDir(), "test.db"),
		CacheEnabled:           true,
		CacheTTL:               time.Hour,
		DefaultTimezone:        "UTC",
		OutboxPollInterval:     100 * time.Millisecond,
		OutboxBatchSize:        100,
		OutboxMaxRetries:       5,
		OutboxRetryBackoffBase: time.Second,
		OutboxRetryBackoffMax:  time.Minute,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func testOrders(t *testing.T) ([]*domain.WorkOrder, []*domain.WorkCenter) {
	t.Helper()

	// Monday within the weekday shift below.
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	order, err := domain.NewWorkOrder(
		"wo-1", "WO-1", "wc-1",
		start, start.Add(2*time.Hour),
		120, false, nil,
	)
	require.NoError(t, err)

	dependent, err := domain.NewWorkOrder(
		"wo-2", "WO-2", "wc-1",
		start, start.Add(time.Hour),
		60, false, []string{"wo-1"},
	)
	require.NoError(t, err)

	var shifts []domain.Shift
	for day := 1; day <= 5; day++ {
		shifts = append(shifts, domain.Shift{DayOfWeek: day, StartHour: 9, EndHour: 17})
	}

	center, err := domain.NewWorkCenter("wc-1", "Assembly", shifts, nil)
	require.NoError(t, err)

	return []*domain.WorkOrder{order, dependent}, []*domain.WorkCenter{center}
}

func TestNewContainer_SQLiteMode(t *testing.T) {
	ctx := context.Background()

	container, err := NewContainer(ctx, testConfig(t), testLogger())
	require.NoError(t, err)
	require.NotNil(t, container)
	defer container.Close()

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.NotNil(t, container.DBConn)
	assert.Nil(t, container.RedisClient)

	assert.NotNil(t, container.RunRepo)
	assert.NotNil(t, container.OutboxRepo)
	assert.NotNil(t, container.UnitOfWork)
	assert.NotNil(t, container.PlanCache)
	assert.IsType(t, &eventbus.NoopPublisher{}, container.EventPublisher)

	assert.NotNil(t, container.ReflowEngine)
	assert.NotNil(t, container.ExecuteReflowHandler)
	assert.NotNil(t, container.GetRunHandler)
	assert.NotNil(t, container.ListRunsHandler)
	assert.NotNil(t, container.ValidateDependenciesHandler)
	assert.NotNil(t, container.OutboxProcessor)
}

func TestNewContainer_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheEnabled = false

	container, err := NewContainer(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.PlanCache)
}

func TestContainer_ReflowWorkflow(t *testing.T) {
	ctx := context.Background()

	container, err := NewContainer(ctx, testConfig(t), testLogger())
	require.NoError(t, err)
	defer container.Close()

	orders, centers := testOrders(t)

	result, err := container.ExecuteReflowHandler.Handle(ctx, commands.ExecuteReflowCommand{
		Orders:  orders,
		Centers: centers,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	assert.Equal(t, 2, result.Metadata.TotalOrders)
	assert.Equal(t, 1, result.Metadata.RescheduledCount)

	// The run survives a round trip through the SQLite repository.
	run, err := container.GetRunHandler.Handle(ctx, queries.GetRunQuery{RunID: result.RunID})
	require.NoError(t, err)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, "UTC", run.Timezone)
	assert.Len(t, run.Results, 2)

	summaries, err := container.ListRunsHandler.Handle(ctx, queries.ListRunsQuery{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, result.RunID, summaries[0].ID)

	// The staged domain event is visible to the outbox processor.
	pending, err := container.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, pending)
}

func TestNewLocalContainer(t *testing.T) {
	ctx := context.Background()

	container := NewLocalContainer(testConfig(t), testLogger())
	require.NotNil(t, container)
	defer container.Close()

	assert.Nil(t, container.DBConn)
	assert.NotNil(t, container.RunRepo)
	assert.NotNil(t, container.ExecuteReflowHandler)
	assert.IsType(t, &eventbus.NoopPublisher{}, container.EventPublisher)

	orders, centers := testOrders(t)

	result, err := container.ExecuteReflowHandler.Handle(ctx, commands.ExecuteReflowCommand{
		Orders:  orders,
		Centers: centers,
	})
	require.NoError(t, err)

	run, err := container.GetRunHandler.Handle(ctx, queries.GetRunQuery{RunID: result.RunID})
	require.NoError(t, err)
	assert.Equal(t, result.RunID, run.ID)
}
