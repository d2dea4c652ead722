// Package memory provides an in-process pricing cache adapter. It backs
// tests and deployments without a Redis endpoint configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

type entry struct {
	result    *pricing.PricingResult
	expiresAt time.Time
}

// Cache is a mutex-guarded map with per-entry expiry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache creates an empty in-memory cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

// Get returns the cached result for key, or pricing.ErrCacheMiss.
func (c *Cache) Get(_ context.Context, key string) (*pricing.PricingResult, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, pricing.ErrCacheMiss
	}

	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, pricing.ErrCacheMiss
	}

	return e.result, nil
}

// Set stores result under key. A non-positive ttl stores without expiry.
func (c *Cache) Set(_ context.Context, key string, result *pricing.PricingResult, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry{result: result, expiresAt: expiresAt}
	c.mu.Unlock()

	return nil
}

// Len reports the number of live entries; used by tests.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
