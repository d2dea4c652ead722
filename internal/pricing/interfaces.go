package pricing

import (
	"context"
	"time"
)

// Factor is one pluggable pricing computation stage. Implementations are pure
// functions of the context: they return items and trace entries, perform no
// caching, never call other factors, and must not retain the context after
// returning. Execution order is fixed by the orchestrator and is part of the
// pricing contract, not an implementation detail.
type Factor interface {
	// Code returns the stable factor identifier used in trace entries,
	// timings, and error reporting.
	Code() string

	// Run computes the factor's breakdown items against the current context.
	Run(ctx context.Context, fc *FactorContext) (*FactorResult, error)
}

// CacheAdapter is the key/value store SPI the orchestrator memoizes full
// results through. Get returns ErrCacheMiss when the key is absent. Any store
// with TTL support satisfies this; the production adapter is Redis-backed.
type CacheAdapter interface {
	Get(ctx context.Context, key string) (*PricingResult, error)
	Set(ctx context.Context, key string, result *PricingResult, ttl time.Duration) error
}
