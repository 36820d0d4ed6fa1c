package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})

	logger.Info("scheduler ready", "driver", "sqlite")

	out := buf.String()
	assert.Contains(t, out, "scheduler ready")
	assert.Contains(t, out, "driver=sqlite")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatJSON,
		Output:         &buf,
		ServiceName:    "reflow",
		ServiceVersion: "1.2.3",
	})

	logger.Info("reflow completed", "total_orders", 4)

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "reflow completed", entry["msg"])
	assert.Equal(t, float64(4), entry["total_orders"])
	assert.Equal(t, "reflow", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelWarn, Format: LogFormatText, Output: &buf})

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestNewLogger_RequestIdentifiersFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})

	ctx := WithCorrelationID(context.Background(), "corr-123")
	ctx = WithRequestID(ctx, "req-456")
	logger.InfoContext(ctx, "http request")

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "corr-123", entry[CorrelationIDKey])
	assert.Equal(t, "req-456", entry[RequestIDKey])
}

func TestNewLogger_PlainContextHasNoIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})

	logger.InfoContext(context.Background(), "startup")

	entry := decodeLogLine(t, &buf)
	assert.NotContains(t, entry, CorrelationIDKey)
	assert.NotContains(t, entry, RequestIDKey)
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  slog.Level
	}{
		{LogLevelDebug, slog.LevelDebug},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelError, slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.slogLevel())
		})
	}
}

func TestLogConfigs(t *testing.T) {
	dev := DefaultLogConfig()
	assert.Equal(t, LogLevelInfo, dev.Level)
	assert.Equal(t, LogFormatText, dev.Format)
	assert.Equal(t, "reflow", dev.ServiceName)

	prod := ProductionLogConfig()
	assert.Equal(t, LogFormatJSON, prod.Format)
	assert.True(t, prod.AddSource)
	assert.Equal(t, "reflow", prod.ServiceName)
}

func TestLoggerFromEnv(t *testing.T) {
	t.Setenv("REFLOW_ENV", "production")
	t.Setenv("REFLOW_LOG_LEVEL", "error")

	logger := LoggerFromEnv()
	require.NotNil(t, logger)

	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestNewRequestContext(t *testing.T) {
	t.Run("generates both identifiers", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "")

		assert.NotEmpty(t, CorrelationIDFromContext(ctx))
		assert.NotEmpty(t, RequestIDFromContext(ctx))
	})

	t.Run("inherits the parent correlation ID", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "parent-corr")

		assert.Equal(t, "parent-corr", CorrelationIDFromContext(ctx))
	})

	t.Run("request IDs are fresh per hop", func(t *testing.T) {
		first := NewRequestContext(context.Background(), "shared")
		second := NewRequestContext(first, "shared")

		assert.NotEqual(t, RequestIDFromContext(first), RequestIDFromContext(second))
	})
}
