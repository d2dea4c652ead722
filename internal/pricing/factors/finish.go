package factors

import (
	"context"
	"fmt"
	"math"

	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

// FinishAggregator prices each requested finish as a percentage of the
// running subtotal with a per-finish minimum fee floor. Every finish is
// computed against the subtotal as of this factor's start, so the requested
// order never changes the total.
type FinishAggregator struct{}

// NewFinishAggregator creates the finish aggregation factor.
func NewFinishAggregator() *FinishAggregator {
	return &FinishAggregator{}
}

// Code returns the stable factor identifier.
func (f *FinishAggregator) Code() string {
	return "finish"
}

// Run emits one finish_<code> line per requested finish. An unresolvable
// finish code aborts the computation.
func (f *FinishAggregator) Run(_ context.Context, fc *pricing.FactorContext) (*pricing.FactorResult, error) {
	quote := fc.Quote
	base := fc.RunningSubtotal

	result := &pricing.FactorResult{}

	if len(quote.Finishes) == 0 {
		entry, err := pricing.NewTraceEntry(
			f.Code(),
			map[string]any{"finishes": []string{}},
			map[string]any{"finish_count": 0},
			"No finishes requested",
		)
		if err != nil {
			return nil, err
		}
		result.Trace = []pricing.TraceEntry{entry}
		return result, nil
	}

	for _, code := range quote.Finishes {
		finish, ok := fc.Catalog.Finishes[code]
		if !ok {
			return nil, &pricing.UnknownCodeError{Kind: "finish", Code: code}
		}

		pctCost := base * finish.AddPct
		amount := math.Max(pctCost, finish.MinFee)
		appliedMinFee := finish.MinFee > pctCost

		label := finish.Label
		if label == "" {
			label = code
		}

		entry, err := pricing.NewTraceEntry(
			f.Code(),
			map[string]any{
				"finish_code":      code,
				"running_subtotal": base,
				"add_pct":          finish.AddPct,
				"min_fee":          finish.MinFee,
			},
			map[string]any{
				"pct_cost":        pctCost,
				"amount":          amount,
				"applied_min_fee": appliedMinFee,
			},
			fmt.Sprintf("Finish %s: max(%.2f, %.2f) = %.2f", code, pctCost, finish.MinFee, amount),
		)
		if err != nil {
			return nil, err
		}

		result.Items = append(result.Items, pricing.PriceBreakdownItem{
			Code:   "finish_" + code,
			Label:  fmt.Sprintf("Finish: %s", label),
			Amount: amount,
			Meta: map[string]any{
				"finish_code":     code,
				"applied_min_fee": appliedMinFee,
				"lead_time_days":  finish.LeadTimeDays,
			},
		})
		result.Trace = append(result.Trace, entry)
	}

	return result, nil
}
