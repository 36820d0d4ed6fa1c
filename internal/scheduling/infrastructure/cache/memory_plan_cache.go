package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	plan      *CachedPlan
	expiresAt time.Time
}

// MemoryPlanCache is an in-memory plan cache used when Redis is not
// configured, and in tests.
type MemoryPlanCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryPlanCache creates an in-memory plan cache. Entries expire after
// ttl; pass 0 to store without expiration.
func NewMemoryPlanCache(ttl time.Duration) *MemoryPlanCache {
	return &MemoryPlanCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a cached plan. A miss returns (nil, nil).
func (c *MemoryPlanCache) Get(ctx context.Context, digest string) (*CachedPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[Key(digest)]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(c.entries, Key(digest))
		return nil, nil
	}
	return entry.plan, nil
}

// Set stores a plan under the given digest.
func (c *MemoryPlanCache) Set(ctx context.Context, digest string, plan *CachedPlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{plan: plan}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[Key(digest)] = entry
	return nil
}
