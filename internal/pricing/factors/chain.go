package factors

import "github.com/seovimalraj/cnc-quote-sub009/internal/pricing"

// Chain returns the factor chain in its contractual execution order:
// material cost, machine time, tolerance adjustment, feature pricing, finish
// aggregation, risk adjustment, quantity breaks. Later factors read the
// running subtotal produced by everything before them, so reordering this
// list changes every downstream price and requires a catalog version bump.
func Chain() []pricing.Factor {
	return []pricing.Factor{
		NewMaterialCost(),
		NewMachineTime(),
		NewTolerance(),
		NewFeaturePricing(),
		NewFinishAggregator(),
		NewRiskAdjuster(),
		NewQuantityBreaks(),
	}
}
