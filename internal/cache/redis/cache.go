// Package redis provides the Redis-backed pricing cache adapter.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seovimalraj/cnc-quote-sub009/internal/observability"
	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

// ttlJitterPct spreads expiry by ±10% so a burst of writes does not expire
// in one wave.
const ttlJitterPct = 0.1

// Cache memoizes full pricing results in Redis as JSON payloads. The client
// is injected; its lifecycle (connect/close) belongs to the process
// bootstrap, not to this adapter.
type Cache struct {
	client *redis.Client
	events *observability.EventBus
}

// NewCache creates a Redis cache adapter over an existing client.
func NewCache(client *redis.Client, events *observability.EventBus) *Cache {
	return &Cache{
		client: client,
		events: events,
	}
}

// Get returns the cached result for key, pricing.ErrCacheMiss when absent,
// or the underlying adapter error.
func (c *Cache) Get(ctx context.Context, key string) (*pricing.PricingResult, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pricing.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result pricing.PricingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// A corrupt payload is indistinguishable from no payload for the
		// caller; surface it as an adapter error so pricing degrades to a
		// fresh computation.
		return nil, fmt.Errorf("failed to decode cached pricing result: %w", err)
	}

	c.publish(ctx, "pricing_cache_hit", map[string]any{"key": key})

	return &result, nil
}

// Set stores result under key with a jittered TTL.
func (c *Cache) Set(ctx context.Context, key string, result *pricing.PricingResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode pricing result: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, jitterTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	c.publish(ctx, "pricing_cache_fill", map[string]any{
		"key":        key,
		"size_bytes": len(raw),
	})

	return nil
}

func (c *Cache) publish(ctx context.Context, event string, data map[string]any) {
	if c.events == nil {
		return
	}
	c.events.Publish(ctx, event, data)
}

func jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}

	jitterRange := float64(ttl) * ttlJitterPct
	jitter := time.Duration((rand.Float64()*2 - 1) * jitterRange)

	final := ttl + jitter
	if final < time.Second {
		final = time.Second
	}
	return final
}
