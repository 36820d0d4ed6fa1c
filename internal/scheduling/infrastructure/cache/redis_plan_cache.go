package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// ErrCacheUnavailable is returned when the circuit breaker is open and the
// backend is not being consulted. Callers treat it as a cache miss.
var ErrCacheUnavailable = errors.New("plan cache unavailable")

// RedisPlanCache stores plans in Redis behind a circuit breaker, so a
// struggling Redis degrades idempotent replay to recomputation instead of
// failing the request.
type RedisPlanCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[any]
	ttl     time.Duration
	logger  *slog.Logger
}

// NewRedisPlanCache creates a Redis-backed plan cache. Entries expire after
// ttl; pass 0 to store without expiration.
func NewRedisPlanCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisPlanCache {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "plan-cache",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &RedisPlanCache{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		ttl:     ttl,
		logger:  logger,
	}
}

// Get retrieves a cached plan. A miss returns (nil, nil).
func (c *RedisPlanCache) Get(ctx context.Context, digest string) (*CachedPlan, error) {
	raw, err := c.breaker.Execute(func() (any, error) {
		data, err := c.client.Get(ctx, Key(digest)).Bytes()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, ErrCacheUnavailable
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var plan CachedPlan
	if err := json.Unmarshal(raw.([]byte), &plan); err != nil {
		return nil, fmt.Errorf("decode cached plan: %w", err)
	}
	return &plan, nil
}

// Set stores a plan under the given digest.
func (c *RedisPlanCache) Set(ctx context.Context, digest string, plan *CachedPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		return nil, c.client.Set(ctx, Key(digest), data, c.ttl).Err()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return ErrCacheUnavailable
	}
	return err
}
