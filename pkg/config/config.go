package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// HTTP API
	HTTPAddr string

	// Database. An empty DatabaseURL selects local mode: SQLite at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// Plan cache. An empty RedisURL selects the in-memory cache.
	RedisURL     string
	CacheEnabled bool
	CacheTTL     time.Duration

	// RabbitMQ. Empty selects the noop publisher.
	RabbitMQURL string

	// Scheduling
	DefaultTimezone string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetryBackoffBase time.Duration
	OutboxRetryBackoffMax  time.Duration
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("REFLOW_ENV", "development"),
		LogLevel:  getEnv("REFLOW_LOG_LEVEL", "info"),
		LogFormat: getEnv("REFLOW_LOG_FORMAT", "json"),

		HTTPAddr: getEnv("REFLOW_HTTP_ADDR", "0.0.0.0:8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("REFLOW_SQLITE_PATH", defaultSQLitePath()),

		RedisURL:     getEnv("REDIS_URL", ""),
		CacheEnabled: getBoolEnv("REFLOW_CACHE_ENABLED", true),
		CacheTTL:     getDurationEnv("REFLOW_CACHE_TTL", 24*time.Hour),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		DefaultTimezone: getEnv("REFLOW_DEFAULT_TIMEZONE", "UTC"),

		OutboxPollInterval:     getDurationEnv("REFLOW_OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("REFLOW_OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("REFLOW_OUTBOX_MAX_RETRIES", 5),
		OutboxRetryBackoffBase: getDurationEnv("REFLOW_OUTBOX_RETRY_BACKOFF_BASE", time.Second),
		OutboxRetryBackoffMax:  getDurationEnv("REFLOW_OUTBOX_RETRY_BACKOFF_MAX", time.Minute),
		OutboxStatsInterval:    getDurationEnv("REFLOW_OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("REFLOW_OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("REFLOW_OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("REFLOW_OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("REFLOW_WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UseSQLite reports whether the local SQLite store should back the run
// history instead of Postgres.
func (c *Config) UseSQLite() bool {
	return c.DatabaseURL == ""
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reflow/data.db"
	}
	return home + "/.reflow/data.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
