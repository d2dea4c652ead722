package factors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seovimalraj/cnc-quote-sub009/internal/catalog"
	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing/factors"
)

func testCatalog() *catalog.Config {
	return &catalog.Config{
		Version:      "factors-test",
		BaseCurrency: "USD",
		CurrencyRates: map[string]float64{
			"USD": 1,
			"EUR": 0.92,
		},
		Materials: map[string]catalog.Material{
			"AL6061": {Label: "Aluminum 6061", PricePerCm3: 0.002, ScrapPct: 0},
			"SS304":  {Label: "Stainless 304", PricePerCm3: 0.006, ScrapPct: 0.1},
		},
		Machines: map[string]catalog.Machine{
			"cnc_3axis": {
				Label:                "3-axis mill",
				SetupMinutes:         30,
				SetupRatePerHour:     60,
				RunRatePerHour:       120,
				RemovalRateCm3PerMin: 8,
			},
		},
		Finishes: map[string]catalog.Finish{
			"anodize":    {Label: "Anodize", AddPct: 0.1, MinFee: 5, LeadTimeDays: 2},
			"bead_blast": {Label: "Bead blast", AddPct: 0.05, MinFee: 8, LeadTimeDays: 1},
		},
		Tolerance: catalog.ToleranceTable{
			Bands: map[string]float64{
				"coarse":          1,
				"medium":          1.05,
				"fine":            1.15,
				"precision":       1.35,
				"ultra_precision": 1.8,
			},
		},
		Risk: catalog.Risk{UpliftPct: 0.05, Cap: 250},
		QuantityBreaks: []catalog.QuantityBreak{
			{MinQty: 10, DiscountPct: 0.05},
			{MinQty: 50, DiscountPct: 0.1},
		},
		LeadTime: catalog.LeadTimeTable{
			BaseDays: 7,
			Regions:  map[string]float64{"US": 1},
		},
	}
}

func testContext(quote *pricing.QuoteConfig, runningSubtotal float64) *pricing.FactorContext {
	return &pricing.FactorContext{
		Quote:           quote,
		Catalog:         testCatalog(),
		Rate:            1,
		RunningSubtotal: runningSubtotal,
	}
}

func TestMaterialCost(t *testing.T) {
	ctx := context.Background()
	factor := factors.NewMaterialCost()

	t.Run("prices volume times rate times quantity", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			MaterialCode: "AL6061",
			Quantity:     10,
			Geometry:     pricing.Geometry{VolumeCm3: 100},
		}, 0))
		require.NoError(t, err)

		require.Len(t, res.Items, 1)
		require.Equal(t, "material", res.Items[0].Code)
		require.InDelta(t, 2.0, res.Items[0].Amount, 1e-9) // 100 * 0.002 * 10
		require.Len(t, res.Trace, 1)
	})

	t.Run("includes scrap allowance", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			MaterialCode: "SS304",
			Quantity:     1,
			Geometry:     pricing.Geometry{VolumeCm3: 100},
		}, 0))
		require.NoError(t, err)

		require.InDelta(t, 0.66, res.Items[0].Amount, 1e-9) // 0.6 + 10% scrap
	})

	t.Run("applies the currency rate", func(t *testing.T) {
		fc := testContext(&pricing.QuoteConfig{
			MaterialCode: "AL6061",
			Quantity:     1,
			Geometry:     pricing.Geometry{VolumeCm3: 100},
		}, 0)
		fc.Rate = 0.92

		res, err := factor.Run(ctx, fc)
		require.NoError(t, err)
		require.InDelta(t, 0.184, res.Items[0].Amount, 1e-9)
	})

	t.Run("unknown material fails naming the code", func(t *testing.T) {
		_, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			MaterialCode: "UNOBTANIUM",
			Quantity:     1,
		}, 0))
		require.Error(t, err)

		var unknown *pricing.UnknownCodeError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, "material", unknown.Kind)
		require.Equal(t, "UNOBTANIUM", unknown.Code)
	})
}

func TestMachineTime(t *testing.T) {
	ctx := context.Background()
	factor := factors.NewMachineTime()

	t.Run("uses feature minutes when present", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			MachineGroup: "cnc_3axis",
			Quantity:     2,
			Geometry: pricing.Geometry{
				Features: map[string]int{"holes": 4, "pockets": 1}, // 4*0.25 + 0.8 = 1.8 min
			},
		}, 0))
		require.NoError(t, err)

		// setup 30min @ 60/h = 30; run 1.8min @ 120/h * 2 parts = 7.2
		require.Len(t, res.Items, 1)
		require.Equal(t, "machine_time", res.Items[0].Code)
		require.InDelta(t, 37.2, res.Items[0].Amount, 1e-9)
		require.InDelta(t, 1.8, res.Items[0].Meta["run_minutes"].(float64), 1e-9)
	})

	t.Run("falls back to volume removal estimate", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			MachineGroup: "cnc_3axis",
			Quantity:     1,
			Geometry:     pricing.Geometry{VolumeCm3: 320},
		}, 0))
		require.NoError(t, err)

		// 320/8 * 0.25 = 10 run minutes @ 120/h = 20, plus 30 setup
		require.InDelta(t, 50.0, res.Items[0].Amount, 1e-9)
	})

	t.Run("floors run minutes for tiny parts", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			MachineGroup: "cnc_3axis",
			Quantity:     1,
			Geometry:     pricing.Geometry{VolumeCm3: 1},
		}, 0))
		require.NoError(t, err)

		require.InDelta(t, 0.5, res.Items[0].Meta["run_minutes"].(float64), 1e-9)
	})

	t.Run("unknown machine group fails naming the code", func(t *testing.T) {
		_, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			MachineGroup: "waterjet",
			Quantity:     1,
		}, 0))

		var unknown *pricing.UnknownCodeError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, "machine", unknown.Kind)
		require.Equal(t, "waterjet", unknown.Code)
	})
}

func TestTolerance(t *testing.T) {
	ctx := context.Background()
	factor := factors.NewTolerance()

	t.Run("no tolerance emits trace only", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{}, 100))
		require.NoError(t, err)

		require.Empty(t, res.Items)
		require.Len(t, res.Trace, 1)
	})

	t.Run("applies the band multiplier to the running subtotal", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{ToleranceUm: 25}, 100))
		require.NoError(t, err)

		// 25µm is the fine band: 100 * (1.15 - 1) = 15
		require.Len(t, res.Items, 1)
		require.Equal(t, "tolerance_adjustment", res.Items[0].Code)
		require.InDelta(t, 15.0, res.Items[0].Amount, 1e-9)
		require.Equal(t, "fine", res.Items[0].Meta["band"])
	})

	t.Run("coarse band with unit multiplier emits no item", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{ToleranceUm: 150}, 100))
		require.NoError(t, err)

		require.Empty(t, res.Items)
	})

	t.Run("band thresholds", func(t *testing.T) {
		tests := []struct {
			um   float64
			band string
		}{
			{150, "coarse"},
			{100, "coarse"},
			{60, "medium"},
			{50, "medium"},
			{25, "fine"},
			{10, "fine"},
			{5, "precision"},
			{1, "precision"},
			{0.5, "ultra_precision"},
		}

		for _, tt := range tests {
			res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{ToleranceUm: tt.um}, 100))
			require.NoError(t, err)
			require.Len(t, res.Trace, 1)

			if len(res.Items) > 0 {
				require.Equal(t, tt.band, res.Items[0].Meta["band"], "tolerance %g", tt.um)
			}
		}
	})

	t.Run("band missing from catalog fails", func(t *testing.T) {
		fc := testContext(&pricing.QuoteConfig{ToleranceUm: 0.5}, 100)
		delete(fc.Catalog.Tolerance.Bands, "ultra_precision")

		_, err := factor.Run(ctx, fc)

		var unknown *pricing.UnknownCodeError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, "ultra_precision", unknown.Code)
	})
}

func TestFeaturePricing(t *testing.T) {
	ctx := context.Background()
	factor := factors.NewFeaturePricing()

	t.Run("simple part emits no adjustments", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			Geometry: pricing.Geometry{ComplexityScore: 2},
		}, 100))
		require.NoError(t, err)

		require.Empty(t, res.Items)
		require.Len(t, res.Trace, 1)
	})

	t.Run("complexity above baseline uplifts the subtotal", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			Geometry: pricing.Geometry{ComplexityScore: 5},
		}, 100))
		require.NoError(t, err)

		// (5 - 3) * 0.05 = 10% of 100
		require.Len(t, res.Items, 1)
		require.Equal(t, "complexity_adjustment", res.Items[0].Code)
		require.InDelta(t, 10.0, res.Items[0].Amount, 1e-9)
	})

	t.Run("feature count adds handling overhead", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			Geometry: pricing.Geometry{Features: map[string]int{"holes": 3, "slots": 2}},
		}, 100))
		require.NoError(t, err)

		// 5 features * 2% of 100
		require.Len(t, res.Items, 1)
		require.Equal(t, "feature_handling", res.Items[0].Code)
		require.InDelta(t, 10.0, res.Items[0].Amount, 1e-9)
	})

	t.Run("zero subtotal emits nothing", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			Geometry: pricing.Geometry{ComplexityScore: 9, Features: map[string]int{"holes": 50}},
		}, 0))
		require.NoError(t, err)

		require.Empty(t, res.Items)
	})
}

func TestFinishAggregator(t *testing.T) {
	ctx := context.Background()
	factor := factors.NewFinishAggregator()

	t.Run("no finishes emits trace only", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{}, 40))
		require.NoError(t, err)

		require.Empty(t, res.Items)
		require.Len(t, res.Trace, 1)
	})

	t.Run("min fee floors the percentage cost", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			Finishes: []string{"anodize"},
		}, 40))
		require.NoError(t, err)

		// max(40 * 0.1, 5) = 5
		require.Len(t, res.Items, 1)
		require.Equal(t, "finish_anodize", res.Items[0].Code)
		require.InDelta(t, 5.0, res.Items[0].Amount, 1e-9)
		require.Equal(t, true, res.Items[0].Meta["applied_min_fee"])
	})

	t.Run("percentage cost wins above the floor", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			Finishes: []string{"anodize"},
		}, 200))
		require.NoError(t, err)

		require.InDelta(t, 20.0, res.Items[0].Amount, 1e-9)
		require.Equal(t, false, res.Items[0].Meta["applied_min_fee"])
	})

	t.Run("each finish prices against the factor-start subtotal", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			Finishes: []string{"anodize", "bead_blast"},
		}, 400))
		require.NoError(t, err)

		require.Len(t, res.Items, 2)
		require.InDelta(t, 40.0, res.Items[0].Amount, 1e-9) // 400 * 0.1
		require.InDelta(t, 20.0, res.Items[1].Amount, 1e-9) // 400 * 0.05, not 440
		require.Len(t, res.Trace, 2)
	})

	t.Run("unknown finish fails naming the code", func(t *testing.T) {
		_, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{
			Finishes: []string{"anodize", "unknown_code"},
		}, 40))
		require.Error(t, err)

		var unknown *pricing.UnknownCodeError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, "finish", unknown.Kind)
		require.Equal(t, "unknown_code", unknown.Code)
		require.Contains(t, err.Error(), "unknown_code")
	})
}

func TestRiskAdjuster(t *testing.T) {
	ctx := context.Background()
	factor := factors.NewRiskAdjuster()

	t.Run("uplifts the running subtotal", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{}, 1000))
		require.NoError(t, err)

		require.Len(t, res.Items, 1)
		require.Equal(t, "risk_adjustment", res.Items[0].Code)
		require.InDelta(t, 50.0, res.Items[0].Amount, 1e-9)
		require.Equal(t, false, res.Items[0].Meta["capped"])
	})

	t.Run("cap bounds the uplift", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{}, 10000))
		require.NoError(t, err)

		// 5% of 10000 is 500, capped at 250
		require.InDelta(t, 250.0, res.Items[0].Amount, 1e-9)
		require.Equal(t, true, res.Items[0].Meta["capped"])
	})

	t.Run("zero subtotal emits trace only", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{}, 0))
		require.NoError(t, err)

		require.Empty(t, res.Items)
		require.Len(t, res.Trace, 1)
	})
}

func TestQuantityBreaks(t *testing.T) {
	ctx := context.Background()
	factor := factors.NewQuantityBreaks()

	t.Run("below the first threshold emits trace only", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{Quantity: 5}, 100))
		require.NoError(t, err)

		require.Empty(t, res.Items)
		require.Len(t, res.Trace, 1)
	})

	t.Run("applies the highest reached threshold", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{Quantity: 75}, 100))
		require.NoError(t, err)

		// 50+ break: 10% off the accumulated subtotal
		require.Len(t, res.Items, 1)
		require.Equal(t, "quantity_break", res.Items[0].Code)
		require.InDelta(t, -10.0, res.Items[0].Amount, 1e-9)
		require.Equal(t, 50, res.Items[0].Meta["min_qty"])
	})

	t.Run("exact threshold qualifies", func(t *testing.T) {
		res, err := factor.Run(ctx, testContext(&pricing.QuoteConfig{Quantity: 10}, 100))
		require.NoError(t, err)

		require.Len(t, res.Items, 1)
		require.InDelta(t, -5.0, res.Items[0].Amount, 1e-9)
	})
}

func TestChain(t *testing.T) {
	t.Run("factor order is the pricing contract", func(t *testing.T) {
		chain := factors.Chain()

		codes := make([]string, 0, len(chain))
		for _, f := range chain {
			codes = append(codes, f.Code())
		}

		require.Equal(t, []string{
			"material",
			"machine_time",
			"tolerance",
			"feature_pricing",
			"finish",
			"risk",
			"quantity_breaks",
		}, codes)
	})
}
