// Package catalog holds the versioned pricing configuration: every table a
// pricing factor may reference. A catalog is immutable once loaded; requests
// referencing codes missing from it fail fast rather than pricing against a
// default.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Config is the full pricing configuration document.
type Config struct {
	Version string `json:"version"`

	// BaseCurrency is the currency every table amount is denominated in.
	BaseCurrency  string             `json:"base_currency"`
	CurrencyRates map[string]float64 `json:"currency_rates"`

	Materials map[string]Material `json:"materials"`
	Machines  map[string]Machine  `json:"machines"`
	Finishes  map[string]Finish   `json:"finishes"`

	Tolerance      ToleranceTable  `json:"tolerance"`
	Risk           Risk            `json:"risk"`
	QuantityBreaks []QuantityBreak `json:"quantity_breaks"`
	LeadTime       LeadTimeTable   `json:"lead_time"`
}

// Material describes per-material stock pricing.
type Material struct {
	Label       string  `json:"label"`
	PricePerCm3 float64 `json:"price_per_cm3"`
	ScrapPct    float64 `json:"scrap_pct"`
}

// Machine describes a machine group's time and rate model.
type Machine struct {
	Label                string  `json:"label"`
	SetupMinutes         float64 `json:"setup_minutes"`
	SetupRatePerHour     float64 `json:"setup_rate_per_hour"`
	RunRatePerHour       float64 `json:"run_rate_per_hour"`
	RemovalRateCm3PerMin float64 `json:"removal_rate_cm3_per_min"`
}

// Finish describes a surface finish add-on.
type Finish struct {
	Label        string  `json:"label"`
	AddPct       float64 `json:"add_pct"`
	MinFee       float64 `json:"min_fee"`
	LeadTimeDays float64 `json:"lead_time_days"`
}

// ToleranceTable maps tolerance bands to cost multipliers applied to the
// running subtotal when the band is requested.
type ToleranceTable struct {
	Bands map[string]float64 `json:"bands"`
}

// Risk is the risk uplift applied near the end of the chain.
type Risk struct {
	UpliftPct float64 `json:"uplift_pct"`
	Cap       float64 `json:"cap"`
}

// QuantityBreak grants a discount at and above a quantity threshold.
type QuantityBreak struct {
	MinQty      int     `json:"min_qty"`
	DiscountPct float64 `json:"discount_pct"`
}

// LeadTimeTable drives lead-time estimation per shipping region.
type LeadTimeTable struct {
	BaseDays float64            `json:"base_days"`
	Regions  map[string]float64 `json:"regions"`
}

// ValidationError reports a single schema violation with the offending
// table and key so operators can fix the document without guessing.
type ValidationError struct {
	Table  string
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("table %q: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("table %q, key %q: %s", e.Table, e.Key, e.Reason)
}

// ErrInvalidCatalog marks every validation failure; wrap targets match with
// errors.Is.
var ErrInvalidCatalog = errors.New("invalid pricing catalog")

func violation(table, key, reason string) error {
	return fmt.Errorf("%w: %w", ErrInvalidCatalog, &ValidationError{Table: table, Key: key, Reason: reason})
}

// Validate checks the whole document. Every table is required; numeric ranges
// must be sane. The first violation is returned; nothing is defaulted.
func (c *Config) Validate() error {
	if c.Version == "" {
		return violation("root", "version", "must be set")
	}

	if err := c.validateCurrencies(); err != nil {
		return err
	}
	if err := c.validateMaterials(); err != nil {
		return err
	}
	if err := c.validateMachines(); err != nil {
		return err
	}
	if err := c.validateFinishes(); err != nil {
		return err
	}
	if err := c.validateTolerance(); err != nil {
		return err
	}
	if err := c.validateRisk(); err != nil {
		return err
	}
	if err := c.validateQuantityBreaks(); err != nil {
		return err
	}
	return c.validateLeadTime()
}

func (c *Config) validateCurrencies() error {
	if c.BaseCurrency == "" {
		return violation("currency_rates", "base_currency", "must be set")
	}
	if len(c.CurrencyRates) == 0 {
		return violation("currency_rates", "", "must contain at least one rate")
	}

	base, ok := c.CurrencyRates[c.BaseCurrency]
	if !ok {
		return violation("currency_rates", c.BaseCurrency, "base currency has no rate entry")
	}
	if base != 1 {
		return violation("currency_rates", c.BaseCurrency, "base currency rate must be exactly 1")
	}

	for code, rate := range c.CurrencyRates {
		if rate <= 0 {
			return violation("currency_rates", code, "rate must be positive")
		}
	}
	return nil
}

func (c *Config) validateMaterials() error {
	if len(c.Materials) == 0 {
		return violation("materials", "", "must contain at least one material")
	}
	for code, m := range c.Materials {
		if m.PricePerCm3 <= 0 {
			return violation("materials", code, "price_per_cm3 must be positive")
		}
		if m.ScrapPct < 0 || m.ScrapPct >= 1 {
			return violation("materials", code, "scrap_pct must be in [0, 1)")
		}
	}
	return nil
}

func (c *Config) validateMachines() error {
	if len(c.Machines) == 0 {
		return violation("machines", "", "must contain at least one machine group")
	}
	for code, m := range c.Machines {
		if m.SetupMinutes < 0 {
			return violation("machines", code, "setup_minutes must not be negative")
		}
		if m.SetupRatePerHour <= 0 || m.RunRatePerHour <= 0 {
			return violation("machines", code, "hourly rates must be positive")
		}
		if m.RemovalRateCm3PerMin <= 0 {
			return violation("machines", code, "removal_rate_cm3_per_min must be positive")
		}
	}
	return nil
}

func (c *Config) validateFinishes() error {
	if len(c.Finishes) == 0 {
		return violation("finishes", "", "must contain at least one finish")
	}
	for code, f := range c.Finishes {
		if f.AddPct < 0 || f.AddPct > 1 {
			return violation("finishes", code, "add_pct must be in [0, 1]")
		}
		if f.MinFee < 0 {
			return violation("finishes", code, "min_fee must not be negative")
		}
		if f.LeadTimeDays < 0 {
			return violation("finishes", code, "lead_time_days must not be negative")
		}
	}
	return nil
}

func (c *Config) validateTolerance() error {
	if len(c.Tolerance.Bands) == 0 {
		return violation("tolerance", "", "must contain at least one band multiplier")
	}
	for band, mult := range c.Tolerance.Bands {
		if mult < 1 {
			return violation("tolerance", band, "multiplier must be at least 1")
		}
	}
	return nil
}

func (c *Config) validateRisk() error {
	if c.Risk.UpliftPct < 0 || c.Risk.UpliftPct > 1 {
		return violation("risk", "uplift_pct", "must be in [0, 1]")
	}
	if c.Risk.Cap < 0 {
		return violation("risk", "cap", "must not be negative")
	}
	return nil
}

func (c *Config) validateQuantityBreaks() error {
	if len(c.QuantityBreaks) == 0 {
		return violation("quantity_breaks", "", "must contain at least one break")
	}
	if !sort.SliceIsSorted(c.QuantityBreaks, func(i, j int) bool {
		return c.QuantityBreaks[i].MinQty < c.QuantityBreaks[j].MinQty
	}) {
		return violation("quantity_breaks", "", "thresholds must be strictly ascending")
	}
	for i, br := range c.QuantityBreaks {
		key := fmt.Sprintf("min_qty=%d", br.MinQty)
		if br.MinQty < 1 {
			return violation("quantity_breaks", key, "min_qty must be at least 1")
		}
		if i > 0 && br.MinQty == c.QuantityBreaks[i-1].MinQty {
			return violation("quantity_breaks", key, "thresholds must be strictly ascending")
		}
		if br.DiscountPct < 0 || br.DiscountPct >= 1 {
			return violation("quantity_breaks", key, "discount_pct must be in [0, 1)")
		}
	}
	return nil
}

func (c *Config) validateLeadTime() error {
	if c.LeadTime.BaseDays <= 0 {
		return violation("lead_time", "base_days", "must be positive")
	}
	if len(c.LeadTime.Regions) == 0 {
		return violation("lead_time", "", "must contain at least one region multiplier")
	}
	for region, mult := range c.LeadTime.Regions {
		if mult <= 0 {
			return violation("lead_time", region, "multiplier must be positive")
		}
	}
	return nil
}
