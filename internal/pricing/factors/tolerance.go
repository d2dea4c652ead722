package factors

import (
	"context"
	"fmt"

	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

// Tolerance band boundaries in micrometers.
const (
	coarseUm    = 100.0
	mediumUm    = 50.0
	fineUm      = 10.0
	precisionUm = 1.0
)

// Tolerance applies the requested tolerance band's cost multiplier to the
// running subtotal. Tighter bands cost more because they slow machining and
// raise inspection effort; the multipliers live in the catalog.
type Tolerance struct{}

// NewTolerance creates the tolerance adjustment factor.
func NewTolerance() *Tolerance {
	return &Tolerance{}
}

// Code returns the stable factor identifier.
func (f *Tolerance) Code() string {
	return "tolerance"
}

// Run emits a tolerance adjustment when a tolerance was requested and the
// band's multiplier is above 1.
func (f *Tolerance) Run(_ context.Context, fc *pricing.FactorContext) (*pricing.FactorResult, error) {
	quote := fc.Quote

	if quote.ToleranceUm <= 0 {
		entry, err := pricing.NewTraceEntry(
			f.Code(),
			map[string]any{"tolerance_um": nil},
			map[string]any{"multiplier": 1.0},
			"No tolerance specified, using default",
		)
		if err != nil {
			return nil, err
		}
		return &pricing.FactorResult{Trace: []pricing.TraceEntry{entry}}, nil
	}

	band := toleranceBand(quote.ToleranceUm)
	multiplier, ok := fc.Catalog.Tolerance.Bands[band]
	if !ok {
		return nil, &pricing.UnknownCodeError{Kind: "tolerance band", Code: band}
	}

	amount := fc.RunningSubtotal * (multiplier - 1)

	entry, err := pricing.NewTraceEntry(
		f.Code(),
		map[string]any{
			"tolerance_um":     quote.ToleranceUm,
			"band":             band,
			"running_subtotal": fc.RunningSubtotal,
		},
		map[string]any{
			"multiplier": multiplier,
			"amount":     amount,
		},
		fmt.Sprintf("Tolerance band %s multiplier %.3f", band, multiplier),
	)
	if err != nil {
		return nil, err
	}

	result := &pricing.FactorResult{Trace: []pricing.TraceEntry{entry}}
	if amount > 0 {
		result.Items = []pricing.PriceBreakdownItem{{
			Code:   "tolerance_adjustment",
			Label:  fmt.Sprintf("Tolerance: %s (±%g µm)", band, quote.ToleranceUm),
			Amount: amount,
			Meta: map[string]any{
				"band":       band,
				"multiplier": multiplier,
			},
		}}
	}

	return result, nil
}

func toleranceBand(valueUm float64) string {
	switch {
	case valueUm >= coarseUm:
		return "coarse"
	case valueUm >= mediumUm:
		return "medium"
	case valueUm >= fineUm:
		return "fine"
	case valueUm >= precisionUm:
		return "precision"
	default:
		return "ultra_precision"
	}
}
