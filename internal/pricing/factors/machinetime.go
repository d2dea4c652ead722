package factors

import (
	"context"
	"fmt"

	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

// Per-feature machining minutes. These heuristics come from upstream process
// planning and apply to every machine group; per-machine variation is carried
// by the hourly rates instead.
var featureMinutes = map[string]float64{
	"holes":   0.25,
	"pockets": 0.8,
	"slots":   0.4,
	"faces":   0.15,
	"threads": 0.5,
}

const (
	// minRunMinutes floors the volume-based fallback so handling time is
	// never priced at zero.
	minRunMinutes = 0.5

	// removalEngagement discounts the nominal removal rate: the tool is not
	// cutting at full engagement for the whole cycle.
	removalEngagement = 0.25

	minutesPerHour = 60.0
)

// MachineTime estimates setup and run cost for the selected machine group.
// Run minutes come from feature counts when present, otherwise from a
// volume-removal fallback.
type MachineTime struct{}

// NewMachineTime creates the machine time factor.
func NewMachineTime() *MachineTime {
	return &MachineTime{}
}

// Code returns the stable factor identifier.
func (f *MachineTime) Code() string {
	return "machine_time"
}

// Run computes the machine time line: one setup per job plus run time per part.
func (f *MachineTime) Run(_ context.Context, fc *pricing.FactorContext) (*pricing.FactorResult, error) {
	quote := fc.Quote

	machine, ok := fc.Catalog.Machines[quote.MachineGroup]
	if !ok {
		return nil, &pricing.UnknownCodeError{Kind: "machine", Code: quote.MachineGroup}
	}

	runMinutes := estimateRunMinutes(quote.Geometry, machine.RemovalRateCm3PerMin)

	setupCost := machine.SetupMinutes / minutesPerHour * machine.SetupRatePerHour
	runCost := runMinutes / minutesPerHour * machine.RunRatePerHour * float64(quote.Quantity)
	amount := (setupCost + runCost) * fc.Rate

	label := machine.Label
	if label == "" {
		label = quote.MachineGroup
	}

	entry, err := pricing.NewTraceEntry(
		f.Code(),
		map[string]any{
			"machine_group": quote.MachineGroup,
			"features":      quote.Geometry.Features,
			"volume_cm3":    quote.Geometry.VolumeCm3,
			"quantity":      quote.Quantity,
			"rate":          fc.Rate,
		},
		map[string]any{
			"run_minutes": runMinutes,
			"setup_cost":  setupCost,
			"run_cost":    runCost,
			"amount":      amount,
		},
		fmt.Sprintf("Estimated %.2f run minutes per part on %s", runMinutes, quote.MachineGroup),
	)
	if err != nil {
		return nil, err
	}

	return &pricing.FactorResult{
		Items: []pricing.PriceBreakdownItem{{
			Code:   "machine_time",
			Label:  fmt.Sprintf("Machine time: %s", label),
			Amount: amount,
			Meta: map[string]any{
				"machine_group": quote.MachineGroup,
				"run_minutes":   runMinutes,
				"setup_minutes": machine.SetupMinutes,
			},
		}},
		Trace: []pricing.TraceEntry{entry},
	}, nil
}

func estimateRunMinutes(geometry pricing.Geometry, removalRateCm3PerMin float64) float64 {
	var minutes float64
	for feature, count := range geometry.Features {
		if perFeature, ok := featureMinutes[feature]; ok && count > 0 {
			minutes += float64(count) * perFeature
		}
	}

	if minutes > 0 {
		return minutes
	}

	if geometry.VolumeCm3 > 0 {
		minutes = geometry.VolumeCm3 / removalRateCm3PerMin * removalEngagement
		if minutes < minRunMinutes {
			minutes = minRunMinutes
		}
		return minutes
	}

	return minRunMinutes
}
