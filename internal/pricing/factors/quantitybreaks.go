package factors

import (
	"context"
	"fmt"

	"github.com/seovimalraj/cnc-quote-sub009/internal/catalog"
	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

// QuantityBreaks discounts the final accumulated subtotal at the highest
// catalog threshold the quoted quantity reaches. It runs last so the discount
// covers every cost and uplift before it.
type QuantityBreaks struct{}

// NewQuantityBreaks creates the quantity break factor.
func NewQuantityBreaks() *QuantityBreaks {
	return &QuantityBreaks{}
}

// Code returns the stable factor identifier.
func (f *QuantityBreaks) Code() string {
	return "quantity_breaks"
}

// Run emits a negative discount line when a break threshold is reached.
func (f *QuantityBreaks) Run(_ context.Context, fc *pricing.FactorContext) (*pricing.FactorResult, error) {
	quote := fc.Quote

	applied := applicableBreak(fc.Catalog.QuantityBreaks, quote.Quantity)

	output := map[string]any{"discount_pct": 0.0, "amount": 0.0}
	note := fmt.Sprintf("No quantity break reached at quantity %d", quote.Quantity)
	var amount float64

	if applied != nil {
		amount = -fc.RunningSubtotal * applied.DiscountPct
		output = map[string]any{
			"min_qty":      applied.MinQty,
			"discount_pct": applied.DiscountPct,
			"amount":       amount,
		}
		note = fmt.Sprintf("Quantity break at %d+: %.1f%% discount", applied.MinQty, applied.DiscountPct*100)
	}

	entry, err := pricing.NewTraceEntry(
		f.Code(),
		map[string]any{
			"quantity":         quote.Quantity,
			"running_subtotal": fc.RunningSubtotal,
		},
		output,
		note,
	)
	if err != nil {
		return nil, err
	}

	result := &pricing.FactorResult{Trace: []pricing.TraceEntry{entry}}
	if applied != nil && amount != 0 {
		result.Items = []pricing.PriceBreakdownItem{{
			Code:   "quantity_break",
			Label:  fmt.Sprintf("Quantity discount (%d+)", applied.MinQty),
			Amount: amount,
			Meta: map[string]any{
				"min_qty":      applied.MinQty,
				"discount_pct": applied.DiscountPct,
			},
		}}
	}

	return result, nil
}

// applicableBreak returns the highest break whose threshold the quantity
// reaches; breaks are validated ascending at catalog load.
func applicableBreak(breaks []catalog.QuantityBreak, quantity int) *catalog.QuantityBreak {
	var applied *catalog.QuantityBreak
	for i := range breaks {
		if quantity >= breaks[i].MinQty {
			applied = &breaks[i]
		}
	}
	return applied
}
