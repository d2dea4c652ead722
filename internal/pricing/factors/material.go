// Package factors contains the seven pricing factors and their fixed
// execution order. Each factor is a pure function of the factor context:
// breakdown items and trace entries out, nothing else.
package factors

import (
	"context"
	"fmt"

	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

// MaterialCost prices raw stock: part volume times the material's price per
// cubic centimeter, plus the material's scrap allowance, per part.
type MaterialCost struct{}

// NewMaterialCost creates the material cost factor.
func NewMaterialCost() *MaterialCost {
	return &MaterialCost{}
}

// Code returns the stable factor identifier.
func (f *MaterialCost) Code() string {
	return "material"
}

// Run computes the material line for the quoted quantity.
func (f *MaterialCost) Run(_ context.Context, fc *pricing.FactorContext) (*pricing.FactorResult, error) {
	quote := fc.Quote

	material, ok := fc.Catalog.Materials[quote.MaterialCode]
	if !ok {
		return nil, &pricing.UnknownCodeError{Kind: "material", Code: quote.MaterialCode}
	}

	perPart := quote.Geometry.VolumeCm3 * material.PricePerCm3
	scrap := perPart * material.ScrapPct
	amount := (perPart + scrap) * float64(quote.Quantity) * fc.Rate

	label := material.Label
	if label == "" {
		label = quote.MaterialCode
	}

	entry, err := pricing.NewTraceEntry(
		f.Code(),
		map[string]any{
			"material_code": quote.MaterialCode,
			"volume_cm3":    quote.Geometry.VolumeCm3,
			"quantity":      quote.Quantity,
			"rate":          fc.Rate,
		},
		map[string]any{
			"per_part_cost": perPart,
			"scrap_cost":    scrap,
			"amount":        amount,
		},
		fmt.Sprintf("Priced %d x %s at %.6f per cm3", quote.Quantity, quote.MaterialCode, material.PricePerCm3),
	)
	if err != nil {
		return nil, err
	}

	return &pricing.FactorResult{
		Items: []pricing.PriceBreakdownItem{{
			Code:   "material",
			Label:  fmt.Sprintf("Material: %s", label),
			Amount: amount,
			Meta: map[string]any{
				"material_code": quote.MaterialCode,
				"per_part_cost": perPart,
				"scrap_pct":     material.ScrapPct,
			},
		}},
		Trace: []pricing.TraceEntry{entry},
	}, nil
}
