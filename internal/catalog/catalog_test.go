package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seovimalraj/cnc-quote-sub009/internal/catalog"
)

func validConfig() *catalog.Config {
	return &catalog.Config{
		Version:      "test-1",
		BaseCurrency: "USD",
		CurrencyRates: map[string]float64{
			"USD": 1,
			"EUR": 0.92,
		},
		Materials: map[string]catalog.Material{
			"AL6061": {Label: "Aluminum 6061", PricePerCm3: 0.002, ScrapPct: 0.08},
		},
		Machines: map[string]catalog.Machine{
			"cnc_3axis": {
				SetupMinutes:         30,
				SetupRatePerHour:     75,
				RunRatePerHour:       60,
				RemovalRateCm3PerMin: 8,
			},
		},
		Finishes: map[string]catalog.Finish{
			"anodize": {AddPct: 0.1, MinFee: 5, LeadTimeDays: 2},
		},
		Tolerance: catalog.ToleranceTable{
			Bands: map[string]float64{"coarse": 1, "fine": 1.15},
		},
		Risk: catalog.Risk{UpliftPct: 0.05, Cap: 250},
		QuantityBreaks: []catalog.QuantityBreak{
			{MinQty: 10, DiscountPct: 0.05},
			{MinQty: 50, DiscountPct: 0.1},
		},
		LeadTime: catalog.LeadTimeTable{
			BaseDays: 7,
			Regions:  map[string]float64{"US": 1, "EU": 1.3},
		},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(c *catalog.Config)
		wantMsg string
	}{
		{
			name:    "missing version",
			mutate:  func(c *catalog.Config) { c.Version = "" },
			wantMsg: "version",
		},
		{
			name:    "missing base currency rate",
			mutate:  func(c *catalog.Config) { delete(c.CurrencyRates, "USD") },
			wantMsg: "base currency has no rate entry",
		},
		{
			name:    "base currency rate not one",
			mutate:  func(c *catalog.Config) { c.CurrencyRates["USD"] = 1.1 },
			wantMsg: "must be exactly 1",
		},
		{
			name:    "non-positive currency rate",
			mutate:  func(c *catalog.Config) { c.CurrencyRates["EUR"] = 0 },
			wantMsg: `"EUR"`,
		},
		{
			name:    "empty materials table",
			mutate:  func(c *catalog.Config) { c.Materials = nil },
			wantMsg: `"materials"`,
		},
		{
			name: "non-positive material price",
			mutate: func(c *catalog.Config) {
				c.Materials["AL6061"] = catalog.Material{PricePerCm3: 0}
			},
			wantMsg: "price_per_cm3",
		},
		{
			name: "scrap percentage out of range",
			mutate: func(c *catalog.Config) {
				c.Materials["AL6061"] = catalog.Material{PricePerCm3: 0.002, ScrapPct: 1.5}
			},
			wantMsg: "scrap_pct",
		},
		{
			name:    "empty machines table",
			mutate:  func(c *catalog.Config) { c.Machines = nil },
			wantMsg: `"machines"`,
		},
		{
			name: "non-positive removal rate",
			mutate: func(c *catalog.Config) {
				m := c.Machines["cnc_3axis"]
				m.RemovalRateCm3PerMin = 0
				c.Machines["cnc_3axis"] = m
			},
			wantMsg: "removal_rate_cm3_per_min",
		},
		{
			name:    "empty finishes table",
			mutate:  func(c *catalog.Config) { c.Finishes = nil },
			wantMsg: `"finishes"`,
		},
		{
			name: "finish add pct out of range",
			mutate: func(c *catalog.Config) {
				c.Finishes["anodize"] = catalog.Finish{AddPct: 1.5}
			},
			wantMsg: "add_pct",
		},
		{
			name:    "empty tolerance bands",
			mutate:  func(c *catalog.Config) { c.Tolerance.Bands = nil },
			wantMsg: `"tolerance"`,
		},
		{
			name: "tolerance multiplier below one",
			mutate: func(c *catalog.Config) {
				c.Tolerance.Bands["fine"] = 0.9
			},
			wantMsg: `"fine"`,
		},
		{
			name:    "risk uplift out of range",
			mutate:  func(c *catalog.Config) { c.Risk.UpliftPct = 1.5 },
			wantMsg: "uplift_pct",
		},
		{
			name:    "negative risk cap",
			mutate:  func(c *catalog.Config) { c.Risk.Cap = -1 },
			wantMsg: "cap",
		},
		{
			name:    "empty quantity breaks",
			mutate:  func(c *catalog.Config) { c.QuantityBreaks = nil },
			wantMsg: `"quantity_breaks"`,
		},
		{
			name: "unsorted quantity breaks",
			mutate: func(c *catalog.Config) {
				c.QuantityBreaks = []catalog.QuantityBreak{
					{MinQty: 50, DiscountPct: 0.1},
					{MinQty: 10, DiscountPct: 0.05},
				}
			},
			wantMsg: "ascending",
		},
		{
			name: "duplicate quantity break threshold",
			mutate: func(c *catalog.Config) {
				c.QuantityBreaks = []catalog.QuantityBreak{
					{MinQty: 10, DiscountPct: 0.05},
					{MinQty: 10, DiscountPct: 0.1},
				}
			},
			wantMsg: "ascending",
		},
		{
			name: "discount of 100 percent",
			mutate: func(c *catalog.Config) {
				c.QuantityBreaks = []catalog.QuantityBreak{{MinQty: 10, DiscountPct: 1}}
			},
			wantMsg: "discount_pct",
		},
		{
			name:    "non-positive base days",
			mutate:  func(c *catalog.Config) { c.LeadTime.BaseDays = 0 },
			wantMsg: "base_days",
		},
		{
			name:    "empty lead time regions",
			mutate:  func(c *catalog.Config) { c.LeadTime.Regions = nil },
			wantMsg: `"lead_time"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			require.ErrorIs(t, err, catalog.ErrInvalidCatalog)
			require.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	cfg := validConfig()
	cfg.Materials["TI6AL4V"] = catalog.Material{PricePerCm3: -1}

	err := cfg.Validate()
	require.Error(t, err)

	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "materials", verr.Table)
	require.Equal(t, "TI6AL4V", verr.Key)
}
