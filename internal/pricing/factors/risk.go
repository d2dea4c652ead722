package factors

import (
	"context"
	"fmt"
	"math"

	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

// RiskAdjuster uplifts the running subtotal by the catalog risk percentage,
// capped at an absolute amount. It runs after every cost factor so the
// uplift covers the full accumulated cost exposure.
type RiskAdjuster struct{}

// NewRiskAdjuster creates the risk adjustment factor.
func NewRiskAdjuster() *RiskAdjuster {
	return &RiskAdjuster{}
}

// Code returns the stable factor identifier.
func (f *RiskAdjuster) Code() string {
	return "risk"
}

// Run emits the capped risk uplift when it is positive.
func (f *RiskAdjuster) Run(_ context.Context, fc *pricing.FactorContext) (*pricing.FactorResult, error) {
	risk := fc.Catalog.Risk

	uplift := fc.RunningSubtotal * risk.UpliftPct
	amount := math.Min(uplift, risk.Cap)
	capped := uplift > risk.Cap

	entry, err := pricing.NewTraceEntry(
		f.Code(),
		map[string]any{
			"running_subtotal": fc.RunningSubtotal,
			"uplift_pct":       risk.UpliftPct,
			"cap":              risk.Cap,
		},
		map[string]any{
			"uplift": uplift,
			"amount": amount,
			"capped": capped,
		},
		fmt.Sprintf("Risk uplift %.2f (capped: %t)", amount, capped),
	)
	if err != nil {
		return nil, err
	}

	result := &pricing.FactorResult{Trace: []pricing.TraceEntry{entry}}
	if amount > 0 {
		result.Items = []pricing.PriceBreakdownItem{{
			Code:   "risk_adjustment",
			Label:  "Risk adjustment",
			Amount: amount,
			Meta: map[string]any{
				"uplift_pct": risk.UpliftPct,
				"capped":     capped,
			},
		}}
	}

	return result, nil
}
