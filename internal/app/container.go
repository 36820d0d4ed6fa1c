// Package app wires configuration, infrastructure, and application handlers
// into runnable containers for the CLI, the API server, and the worker.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/reflow/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
	"github.com/felixgeelhaar/reflow/internal/scheduling/infrastructure/cache"
	schedulingPersistence "github.com/felixgeelhaar/reflow/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/reflow/internal/shared/application"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/reflow/pkg/config"

	// The drivers register themselves with the database package.
	_ "github.com/felixgeelhaar/reflow/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/reflow/internal/shared/infrastructure/database/sqlite"
)

// Container holds all wired dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	RunRepo    domain.RunRepository
	OutboxRepo outbox.Repository

	// Publishers
	EventPublisher eventbus.Publisher

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Plan cache for idempotent replay
	PlanCache cache.PlanCache

	// Scheduling engine
	ReflowEngine *services.ReflowEngine

	// Command handlers
	ExecuteReflowHandler *commands.ExecuteReflowHandler

	// Query handlers
	GetRunHandler               *queries.GetRunHandler
	ListRunsHandler             *queries.ListRunsHandler
	ValidateDependenciesHandler *queries.ValidateDependenciesHandler

	// Outbox Processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies. An empty DATABASE_URL
// selects the embedded SQLite backend, so the scheduler runs with zero
// configuration.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver)

	factory, err := NewRepositoryFactory(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := factory.Migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	c.RunRepo = factory.RunRepository()
	c.OutboxRepo = factory.OutboxRepository()

	c.UnitOfWork = database.NewUnitOfWork(conn)

	// Connect to Redis (optional; the plan cache falls back to memory)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				conn.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, plan cache will use in-memory fallback", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					conn.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, plan cache will use in-memory fallback", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	if cfg.CacheEnabled {
		if c.RedisClient != nil {
			c.PlanCache = cache.NewRedisPlanCache(c.RedisClient, cfg.CacheTTL, logger)
		} else {
			c.PlanCache = cache.NewMemoryPlanCache(cfg.CacheTTL)
		}
	}

	// Create event publisher (optional; local mode runs without a broker)
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				conn.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			c.EventPublisher = publisher
		}
	} else {
		c.EventPublisher = eventbus.NewNoopPublisher(logger)
	}

	c.ReflowEngine = services.NewReflowEngine(services.DefaultReflowConfig())

	c.ExecuteReflowHandler = commands.NewExecuteReflowHandler(
		c.RunRepo,
		c.OutboxRepo,
		c.UnitOfWork,
		c.ReflowEngine,
		c.PlanCache,
		logger,
	)

	c.GetRunHandler = queries.NewGetRunHandler(c.RunRepo)
	c.ListRunsHandler = queries.NewListRunsHandler(c.RunRepo)
	c.ValidateDependenciesHandler = queries.NewValidateDependenciesHandler()

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: cfg.OutboxRetryBackoffBase,
		RetryBackoffMax:  cfg.OutboxRetryBackoffMax,
	}, logger)

	return c, nil
}

// NewLocalContainer wires everything in memory: no database file, no Redis,
// no broker. Used for offline planning where the run should not be recorded.
func NewLocalContainer(cfg *config.Config, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.RunRepo = schedulingPersistence.NewMemoryRunRepository()
	c.OutboxRepo = outbox.NewInMemoryRepository()
	c.EventPublisher = eventbus.NewNoopPublisher(logger)
	c.UnitOfWork = sharedApplication.NewNoopUnitOfWork()
	if cfg.CacheEnabled {
		c.PlanCache = cache.NewMemoryPlanCache(cfg.CacheTTL)
	}

	c.ReflowEngine = services.NewReflowEngine(services.DefaultReflowConfig())

	c.ExecuteReflowHandler = commands.NewExecuteReflowHandler(
		c.RunRepo,
		c.OutboxRepo,
		c.UnitOfWork,
		c.ReflowEngine,
		c.PlanCache,
		logger,
	)

	c.GetRunHandler = queries.NewGetRunHandler(c.RunRepo)
	c.ListRunsHandler = queries.NewListRunsHandler(c.RunRepo)
	c.ValidateDependenciesHandler = queries.NewValidateDependenciesHandler()

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.DefaultProcessorConfig(), logger)

	return c
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
