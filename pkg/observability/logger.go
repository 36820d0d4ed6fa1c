// Package observability provides structured logging, request identifiers,
// and health checks for the reflow services.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogFormat selects the log output encoding.
type LogFormat string

const (
	// LogFormatText is human-readable, for terminals.
	LogFormatText LogFormat = "text"
	// LogFormatJSON is machine-readable, for log pipelines.
	LogFormatJSON LogFormat = "json"
)

// LogLevel is the minimum level a logger emits.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogConfig configures a logger.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to os.Stderr so CLI output on stdout stays clean.
	Output io.Writer
	// AddSource records the file:line of each log call.
	AddSource bool
	// ServiceName and ServiceVersion are stamped on every entry.
	ServiceName    string
	ServiceVersion string
}

// DefaultLogConfig is the development setup: text on stderr at info.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    "reflow",
		ServiceVersion: "dev",
	}
}

// ProductionLogConfig is the deployed setup: JSON on stdout with source
// locations.
func ProductionLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatJSON,
		Output:         os.Stdout,
		AddSource:      true,
		ServiceName:    "reflow",
		ServiceVersion: "unknown",
	}
}

// NewLogger builds a slog.Logger whose handler stamps service identity on
// every record and copies correlation and request IDs out of the context,
// so handlers can log with InfoContext and get traceable lines for free.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level.slogLevel(),
		AddSource: cfg.AddSource,
	}

	var inner slog.Handler
	if cfg.Format == LogFormatJSON {
		inner = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		inner = slog.NewTextHandler(cfg.Output, opts)
	}

	var service []slog.Attr
	if cfg.ServiceName != "" {
		service = append(service, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		service = append(service, slog.String("version", cfg.ServiceVersion))
	}

	return slog.New(&contextHandler{inner: inner, service: service})
}

// LoggerFromEnv builds a logger from REFLOW_* environment variables:
// REFLOW_ENV=production switches to the production config, and
// REFLOW_LOG_LEVEL, REFLOW_LOG_FORMAT, REFLOW_VERSION override fields.
func LoggerFromEnv() *slog.Logger {
	cfg := DefaultLogConfig()
	if os.Getenv("REFLOW_ENV") == "production" {
		cfg = ProductionLogConfig()
	}

	if level := os.Getenv("REFLOW_LOG_LEVEL"); level != "" {
		cfg.Level = LogLevel(level)
	}
	if format := os.Getenv("REFLOW_LOG_FORMAT"); format != "" {
		cfg.Format = LogFormat(format)
	}
	if version := os.Getenv("REFLOW_VERSION"); version != "" {
		cfg.ServiceVersion = version
	}

	return NewLogger(cfg)
}

// contextHandler decorates records with the service identity and with the
// request identifiers carried in the context.
type contextHandler struct {
	inner   slog.Handler
	service []slog.Attr
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.service...)

	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}

	return h.inner.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs), service: h.service}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name), service: h.service}
}
