// Package pricing implements the quote pricing pipeline: the factor contract,
// the orchestrator that sequences factors over a running subtotal, the audit
// trace, and the cache adapter SPI.
package pricing

import (
	"time"

	"github.com/seovimalraj/cnc-quote-sub009/internal/catalog"
)

// Geometry is the geometry-derived metrics a factor may read. Feature counts
// come from upstream CAD analysis and are heuristics, not exact toolpaths.
type Geometry struct {
	VolumeCm3       float64        `json:"volume_cm3"`
	SurfaceAreaCm2  float64        `json:"surface_area_cm2,omitempty"`
	Features        map[string]int `json:"features,omitempty"`
	ComplexityScore float64        `json:"complexity_score,omitempty"`
}

// QuoteConfig is the caller-supplied, per-request part configuration.
// It is immutable for the duration of one computation.
type QuoteConfig struct {
	OrgID   string `json:"org_id,omitempty"`
	QuoteID string `json:"quote_id,omitempty"`

	MaterialCode string   `json:"material_code"`
	MachineGroup string   `json:"machine_group"`
	Quantity     int      `json:"quantity"`
	Finishes     []string `json:"finishes,omitempty"`

	Currency string `json:"currency"`
	Region   string `json:"region,omitempty"`

	// ToleranceUm is the tightest requested tolerance in micrometers;
	// zero means no tolerance was specified.
	ToleranceUm float64 `json:"tolerance_um,omitempty"`

	Geometry Geometry `json:"geometry"`
}

// PriceBreakdownItem is one emitted line per cost driver. Codes are unique
// within a computation; factors emitting several items use code prefixes
// (e.g. finish_anodize). Negative amounts are discounts.
type PriceBreakdownItem struct {
	Code   string         `json:"code"`
	Label  string         `json:"label"`
	Amount float64        `json:"amount"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// TraceEntry is one append-only audit record of a factor invocation.
type TraceEntry struct {
	At        time.Time      `json:"at"`
	Factor    string         `json:"factor"`
	InputHash string         `json:"input_hash"`
	Output    map[string]any `json:"output,omitempty"`
	Note      string         `json:"note,omitempty"`
}

// PricingResult is the fully itemized outcome of one computation. It is never
// mutated after construction; cached reads hand back an annotated copy.
type PricingResult struct {
	Subtotal     float64              `json:"subtotal"`
	Total        float64              `json:"total"`
	Currency     string               `json:"currency"`
	Breakdown    []PriceBreakdownItem `json:"breakdown"`
	Trace        []TraceEntry         `json:"trace"`
	TimingsMs    map[string]float64   `json:"timings_ms"`
	LeadTimeDays float64              `json:"lead_time_days"`
	Version      string               `json:"version"`
	InputHash    string               `json:"input_hash"`
	CacheHit     bool                 `json:"cache_hit"`
	CacheKey     string               `json:"cache_key,omitempty"`
}

// FactorResult is everything a factor returns: breakdown lines and the trace
// entries documenting how they were produced. Factors have no other outputs.
type FactorResult struct {
	Items []PriceBreakdownItem
	Trace []TraceEntry
}

// FactorContext is the shared state one factor invocation sees. The
// orchestrator owns RunningSubtotal and updates it between invocations;
// factors treat every field as read-only.
type FactorContext struct {
	Quote   *QuoteConfig
	Catalog *catalog.Config

	// Rate converts catalog base-currency amounts into the request currency.
	// Resolved once per computation; percentage factors ignore it.
	Rate float64

	// RunningSubtotal is the sum of all breakdown amounts emitted by the
	// factors that ran before this one.
	RunningSubtotal float64
}
