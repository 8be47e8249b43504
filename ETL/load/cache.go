package load

import (
	"context"
	"sync"
	"time"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// ResultCache memoizes the pipeline output per period
type ResultCache interface {
	// Get returns the cached result; ok is false on a miss or after expiry
	Get(ctx context.Context, period models.Period) (result *models.Result, ok bool, err error)
	Set(ctx context.Context, result *models.Result) error
	// Invalidate drops every entry
	Invalidate(ctx context.Context) error
}

type memoryEntry struct {
	result  *models.Result
	expires time.Time
}

// MemoryCache is a process-wide ResultCache with a fixed time to live.
// A zero TTL keeps entries until Invalidate.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[models.Period]memoryEntry
}

// NewMemoryCache creates an empty MemoryCache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[models.Period]memoryEntry),
	}
}

// WithClock replaces the time source
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

// Get implements ResultCache
func (c *MemoryCache) Get(_ context.Context, period models.Period) (*models.Result, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[period]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && !c.now().Before(entry.expires) {
		c.mu.Lock()
		if current, ok := c.entries[period]; ok && current.expires.Equal(entry.expires) {
			delete(c.entries, period)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.result, true, nil
}

// Set implements ResultCache
func (c *MemoryCache) Set(_ context.Context, result *models.Result) error {
	if result == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[result.Period] = memoryEntry{result: result, expires: c.now().Add(c.ttl)}
	return nil
}

// Invalidate implements ResultCache
func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[models.Period]memoryEntry)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
