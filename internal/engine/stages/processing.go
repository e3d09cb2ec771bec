package stages

import (
	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/lca"
)

const (
	// fermentationClimateShare approximates the share of a cold-storage
	// day attributable to fermentation temperature control.
	fermentationClimateShare = 0.5

	// daysPerMonth converts maturation durations to warehouse days.
	daysPerMonth = 30.0
)

// Processing computes the manufacturing stage contribution from metered
// energy and water use. Enhanced fidelity adds the fermentation,
// distillation, and maturation sub-records; multi-round distillation scales
// its energy linearly with rounds.
func Processing(in *lca.ProcessingInputs, m *factors.Model, enhanced bool) Contribution {
	if in == nil {
		return Contribution{}
	}
	l := lookup{model: m}

	carbon := in.ElectricityKWh * l.factor(factors.CategoryElectricity, factors.UnitKWh)
	carbon += in.WaterL * l.factor(factors.CategoryWater, factors.UnitLitre)
	water := in.WaterL

	if enhanced {
		if f := in.Fermentation; f != nil {
			carbon += f.DurationDays * l.factor(factors.CategoryColdStorage, factors.UnitDay) * fermentationClimateShare
		}
		if d := in.Distillation; d != nil && d.Rounds > 0 {
			carbon += float64(d.Rounds) * d.EnergyKWhPerRun * l.factor(factors.CategoryElectricity, factors.UnitKWh)
		}
		if mt := in.Maturation; mt != nil {
			carbon += mt.DurationMonths * daysPerMonth * l.factor(factors.CategoryWarehousing, factors.UnitDay)
		}
	}

	return Contribution{CarbonKg: carbon, WaterL: water, FactorMiss: l.miss}
}
