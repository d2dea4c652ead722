package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seovimalraj/cnc-quote-sub009/internal/canonical"
	"github.com/seovimalraj/cnc-quote-sub009/internal/catalog"
	"github.com/seovimalraj/cnc-quote-sub009/internal/observability"
)

const (
	// resultVersion tags every PricingResult. Bump it whenever the factor
	// order or a factor's semantics change, since either changes every
	// downstream price.
	resultVersion = "1.0.0"

	// DefaultCacheNamespace prefixes cache keys for memoized results.
	DefaultCacheNamespace = "pricing:orchestrator:v1"

	// DefaultCacheTTL bounds how long a memoized result stays valid.
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Options configures the optional parts of an Orchestrator.
type Options struct {
	// Cache memoizes full results by canonical input hash; nil disables
	// caching entirely.
	Cache CacheAdapter

	// CacheTTL overrides DefaultCacheTTL when positive.
	CacheTTL time.Duration

	// CacheNamespace overrides DefaultCacheNamespace when non-empty.
	CacheNamespace string
}

// Orchestrator sequences the factor chain over a running subtotal, assembles
// and validates the audit trace, and memoizes full results. It is safe for
// concurrent use: all per-computation state is local to CalculatePrice and
// the catalog snapshot is read-only.
type Orchestrator struct {
	store     *catalog.Store
	factors   []Factor
	cache     CacheAdapter
	ttl       time.Duration
	namespace string
}

// NewOrchestrator creates an orchestrator over a fixed, explicitly-ordered
// factor chain (DI constructor).
func NewOrchestrator(store *catalog.Store, factors []Factor, opts Options) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if len(factors) == 0 {
		return nil, fmt.Errorf("at least one factor is required")
	}

	seen := make(map[string]struct{}, len(factors))
	for _, f := range factors {
		if f.Code() == "" {
			return nil, fmt.Errorf("factor with empty code in chain")
		}
		if _, dup := seen[f.Code()]; dup {
			return nil, fmt.Errorf("duplicate factor code in chain: %s", f.Code())
		}
		seen[f.Code()] = struct{}{}
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	namespace := opts.CacheNamespace
	if namespace == "" {
		namespace = DefaultCacheNamespace
	}

	return &Orchestrator{
		store:     store,
		factors:   factors,
		cache:     opts.Cache,
		ttl:       ttl,
		namespace: namespace,
	}, nil
}

// CalculatePrice runs the full pipeline for one quote configuration.
// It either returns a complete, trace-validated result or an error; no
// partial breakdown ever leaves this method, and nothing incomplete is
// written to the cache.
func (o *Orchestrator) CalculatePrice(ctx context.Context, cfg *QuoteConfig) (*PricingResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("quote config cannot be nil")
	}
	if cfg.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", cfg.Quantity)
	}
	cfg = normalizeQuote(cfg)

	logger := observability.FromContext(ctx)
	snap := o.store.Snapshot()

	cacheKey, err := o.buildCacheKey(cfg, snap)
	if err != nil {
		return nil, err
	}

	if cached := o.probeCache(ctx, cacheKey); cached != nil {
		copied := *cached
		copied.CacheHit = true
		copied.CacheKey = cacheKey
		return &copied, nil
	}

	rate, err := resolveRate(snap.Config, cfg.Currency)
	if err != nil {
		return nil, err
	}
	leadMultiplier, err := resolveRegion(snap.Config, cfg.Region)
	if err != nil {
		return nil, err
	}

	result, err := o.runChain(ctx, cfg, snap, rate)
	if err != nil {
		return nil, err
	}

	result.LeadTimeDays = leadTimeDays(snap.Config, cfg, leadMultiplier)
	result.CacheKey = cacheKey

	o.writeThrough(ctx, cacheKey, result)

	logger.Debug("pricing computed",
		observability.String("input_hash", result.InputHash),
		observability.Float64("total", result.Total),
		observability.Int("breakdown_items", len(result.Breakdown)))

	return result, nil
}

// runChain executes the factor chain and assembles the result. On factor
// failure the accumulated breakdown and trace are discarded; only the
// terminal trace entry is logged for operators.
func (o *Orchestrator) runChain(
	ctx context.Context,
	cfg *QuoteConfig,
	snap *catalog.Snapshot,
	rate float64,
) (*PricingResult, error) {
	logger := observability.FromContext(ctx)

	start := time.Now()
	timings := make(map[string]float64, len(o.factors)+1)
	var (
		breakdown       []PriceBreakdownItem
		trace           []TraceEntry
		runningSubtotal float64
	)

	for _, factor := range o.factors {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("pricing canceled before factor %s: %w", factor.Code(), ctxErr)
		}

		fc := &FactorContext{
			Quote:           cfg,
			Catalog:         snap.Config,
			Rate:            rate,
			RunningSubtotal: runningSubtotal,
		}

		factorStart := time.Now()
		res, err := factor.Run(ctx, fc)
		if err != nil {
			terminal := o.terminalTraceEntry(factor.Code(), cfg, runningSubtotal, err)
			logger.Error("pricing factor failed",
				observability.String("factor", factor.Code()),
				observability.String("input_hash", terminal.InputHash),
				observability.Error(err))

			return nil, &FactorError{Factor: factor.Code(), InputHash: terminal.InputHash, Err: err}
		}

		breakdown = append(breakdown, res.Items...)
		for _, item := range res.Items {
			runningSubtotal += item.Amount
		}
		trace = append(trace, res.Trace...)
		timings[factor.Code()] = durationMs(time.Since(factorStart))
	}

	if err := ValidateTrace(trace); err != nil {
		return nil, err
	}

	var subtotal float64
	for _, item := range breakdown {
		subtotal += item.Amount
	}

	total := subtotal
	if total < 0 {
		total = 0
	}

	inputHash, err := canonical.HashInput(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash quote config: %w", err)
	}

	timings["total"] = durationMs(time.Since(start))

	return &PricingResult{
		Subtotal:  subtotal,
		Total:     total,
		Currency:  cfg.Currency,
		Breakdown: breakdown,
		Trace:     trace,
		TimingsMs: timings,
		Version:   resultVersion,
		InputHash: inputHash,
		CacheHit:  false,
	}, nil
}

// buildCacheKey folds the catalog hash into the request hash so a catalog
// reload forces a miss without explicit invalidation.
func (o *Orchestrator) buildCacheKey(cfg *QuoteConfig, snap *catalog.Snapshot) (string, error) {
	hash, err := canonical.HashInput(map[string]any{
		"cfg":         cfg,
		"config_hash": snap.Hash,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	return canonical.CacheKey(o.namespace, hash), nil
}

// probeCache returns the cached result for key, or nil on miss. Adapter
// failures degrade to a miss: a broken cache must never block correct
// pricing, and must never be mistaken for a hit.
func (o *Orchestrator) probeCache(ctx context.Context, key string) *PricingResult {
	if o.cache == nil {
		return nil
	}

	cached, err := o.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			observability.FromContext(ctx).Warn("pricing cache read failed, computing fresh",
				observability.String("cache_key", key),
				observability.Error(err))
		}
		return nil
	}
	return cached
}

func (o *Orchestrator) writeThrough(ctx context.Context, key string, result *PricingResult) {
	if o.cache == nil {
		return
	}

	if err := o.cache.Set(ctx, key, result, o.ttl); err != nil {
		observability.FromContext(ctx).Warn("pricing cache write failed",
			observability.String("cache_key", key),
			observability.Error(err))
	}
}

// terminalTraceEntry captures the failure point for operators: which factor
// failed and the hash of the context it saw.
func (o *Orchestrator) terminalTraceEntry(factor string, cfg *QuoteConfig, runningSubtotal float64, failure error) TraceEntry {
	entry, err := NewTraceEntry(
		factor,
		map[string]any{"cfg": cfg, "running_subtotal": runningSubtotal},
		map[string]any{"error": failure.Error()},
		fmt.Sprintf("Factor failed: %v", failure),
	)
	if err != nil {
		// The quote config already hashed once this computation; a failure
		// here means the process is out of memory or similar. Record what
		// we can.
		entry = TraceEntry{At: time.Now().UTC(), Factor: factor, InputHash: "unavailable", Note: fmt.Sprintf("Factor failed: %v", failure)}
	}
	return entry
}

// normalizeQuote reduces the finish list to a set before anything hashes or
// prices it. Finishes carry no ordering and no multiplicity: a repeated code
// must not emit a second breakdown line, charge twice, or add its lead-time
// days again. The caller's config is never mutated.
func normalizeQuote(cfg *QuoteConfig) *QuoteConfig {
	if len(cfg.Finishes) < 2 {
		return cfg
	}

	seen := make(map[string]struct{}, len(cfg.Finishes))
	finishes := make([]string, 0, len(cfg.Finishes))
	for _, code := range cfg.Finishes {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		finishes = append(finishes, code)
	}

	if len(finishes) == len(cfg.Finishes) {
		return cfg
	}

	copied := *cfg
	copied.Finishes = finishes
	return &copied
}

func resolveRate(cfg *catalog.Config, currency string) (float64, error) {
	if currency == "" {
		return 0, fmt.Errorf("quote currency must be set")
	}
	rate, ok := cfg.CurrencyRates[currency]
	if !ok {
		return 0, &UnknownCodeError{Kind: "currency", Code: currency}
	}
	return rate, nil
}

func resolveRegion(cfg *catalog.Config, region string) (float64, error) {
	if region == "" {
		return 1, nil
	}
	mult, ok := cfg.LeadTime.Regions[region]
	if !ok {
		return 0, &UnknownCodeError{Kind: "region", Code: region}
	}
	return mult, nil
}

// leadTimeDays estimates shipping-ready lead time: region-adjusted base days
// plus each requested finish's added days. Finish codes were already resolved
// by the finish factor, so missing entries cannot occur here.
func leadTimeDays(cfg *catalog.Config, quote *QuoteConfig, regionMultiplier float64) float64 {
	days := cfg.LeadTime.BaseDays * regionMultiplier
	for _, code := range quote.Finishes {
		if finish, ok := cfg.Finishes[code]; ok {
			days += finish.LeadTimeDays
		}
	}
	return days
}

func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / float64(time.Millisecond)
}
