package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_Check(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", DatabaseHealthChecker(func(ctx context.Context) error {
		return nil
	}))
	registry.Register("redis", RedisHealthChecker(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	results := registry.Check(context.Background())
	require.Len(t, results, 2)

	assert.Equal(t, HealthStatusHealthy, results["database"].Status)
	assert.Equal(t, HealthStatusDegraded, results["redis"].Status)
	assert.Contains(t, results["redis"].Message, "connection refused")
	assert.False(t, results["database"].Timestamp.IsZero())
}

func TestHealthRegistry_GetOverallHealth(t *testing.T) {
	healthy := func(ctx context.Context) error { return nil }
	failing := func(ctx context.Context) error { return errors.New("down") }

	tests := []struct {
		name     string
		register func(r *HealthRegistry)
		want     HealthStatus
	}{
		{
			name:     "no checks is healthy",
			register: func(r *HealthRegistry) {},
			want:     HealthStatusHealthy,
		},
		{
			name: "all healthy",
			register: func(r *HealthRegistry) {
				r.Register("database", DatabaseHealthChecker(healthy))
				r.Register("rabbitmq", RabbitMQHealthChecker(healthy))
			},
			want: HealthStatusHealthy,
		},
		{
			name: "optional component failing degrades",
			register: func(r *HealthRegistry) {
				r.Register("database", DatabaseHealthChecker(healthy))
				r.Register("redis", RedisHealthChecker(failing))
			},
			want: HealthStatusDegraded,
		},
		{
			name: "required component failing is unhealthy",
			register: func(r *HealthRegistry) {
				r.Register("database", DatabaseHealthChecker(failing))
				r.Register("redis", RedisHealthChecker(failing))
			},
			want: HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			tt.register(registry)

			overall := registry.GetOverallHealth(context.Background())
			assert.Equal(t, tt.want, overall.Status)
		})
	}
}

func TestHealthRegistry_RegisterReplaces(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", DatabaseHealthChecker(func(ctx context.Context) error {
		return errors.New("down")
	}))
	registry.Register("database", DatabaseHealthChecker(func(ctx context.Context) error {
		return nil
	}))

	results := registry.Check(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, HealthStatusHealthy, results["database"].Status)
}
