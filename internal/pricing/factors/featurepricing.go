package factors

import (
	"context"
	"fmt"
	"math"

	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

const (
	// complexityBaseline is the score below which no uplift applies.
	complexityBaseline = 3.0

	// complexityPctPerPoint uplifts the subtotal per complexity point above
	// the baseline.
	complexityPctPerPoint = 0.05

	// featurePctPerCount prices the per-feature handling overhead.
	featurePctPerCount = 0.02

	// minMeaningfulAmount drops sub-cent noise from the breakdown.
	minMeaningfulAmount = 0.01
)

// FeaturePricing adjusts the subtotal for geometric complexity and feature
// count. Both adjustments scale with the running subtotal contributed by the
// material and machine factors ahead of it.
type FeaturePricing struct{}

// NewFeaturePricing creates the feature pricing factor.
func NewFeaturePricing() *FeaturePricing {
	return &FeaturePricing{}
}

// Code returns the stable factor identifier.
func (f *FeaturePricing) Code() string {
	return "feature_pricing"
}

// Run emits complexity and feature-count adjustments when they are meaningful.
func (f *FeaturePricing) Run(_ context.Context, fc *pricing.FactorContext) (*pricing.FactorResult, error) {
	quote := fc.Quote

	featureCount := 0
	for _, count := range quote.Geometry.Features {
		featureCount += count
	}

	var items []pricing.PriceBreakdownItem

	complexityMultiplier := math.Max(0, (quote.Geometry.ComplexityScore-complexityBaseline)*complexityPctPerPoint)
	if amount := fc.RunningSubtotal * complexityMultiplier; amount > minMeaningfulAmount {
		items = append(items, pricing.PriceBreakdownItem{
			Code:   "complexity_adjustment",
			Label:  fmt.Sprintf("Complexity adjustment (score %.1f)", quote.Geometry.ComplexityScore),
			Amount: amount,
			Meta: map[string]any{
				"complexity_score": quote.Geometry.ComplexityScore,
				"multiplier":       complexityMultiplier,
			},
		})
	}

	if amount := fc.RunningSubtotal * float64(featureCount) * featurePctPerCount; amount > minMeaningfulAmount {
		items = append(items, pricing.PriceBreakdownItem{
			Code:   "feature_handling",
			Label:  fmt.Sprintf("Feature handling (%d features)", featureCount),
			Amount: amount,
			Meta: map[string]any{
				"feature_count": featureCount,
			},
		})
	}

	var totalAdjustment float64
	for _, item := range items {
		totalAdjustment += item.Amount
	}

	entry, err := pricing.NewTraceEntry(
		f.Code(),
		map[string]any{
			"features":         quote.Geometry.Features,
			"complexity_score": quote.Geometry.ComplexityScore,
			"running_subtotal": fc.RunningSubtotal,
		},
		map[string]any{
			"feature_count":    featureCount,
			"total_adjustment": totalAdjustment,
		},
		fmt.Sprintf("%d features, complexity score %.1f", featureCount, quote.Geometry.ComplexityScore),
	)
	if err != nil {
		return nil, err
	}

	return &pricing.FactorResult{Items: items, Trace: []pricing.TraceEntry{entry}}, nil
}
