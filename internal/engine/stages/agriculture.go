package stages

import (
	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/lca"
)

// Farming-practice multipliers applied under enhanced fidelity. Lower
// values reflect reduced net emissions relative to conventional practice.
var practiceMultipliers = map[lca.FarmingPractice]float64{
	lca.PracticeConventional: 1.0,
	lca.PracticeOrganic:      0.85,
	lca.PracticeRegenerative: 0.70,
	lca.PracticeBiodynamic:   0.80,
}

// squareMetresPerHectare converts per-hectare land figures to m2.
const squareMetresPerHectare = 10000.0

// Agriculture computes the farming stage contribution: field fuel use,
// fertilizer application, and irrigation. Under enhanced fidelity the
// practice multiplier is applied and land occupation is derived from yield.
func Agriculture(in *lca.AgricultureInputs, m *factors.Model, enhanced bool) Contribution {
	if in == nil {
		return Contribution{}
	}
	l := lookup{model: m}

	carbon := in.DieselLPerHectare * l.factor(factors.CategoryDiesel, factors.UnitLitre)
	for _, f := range in.Fertilizers {
		carbon += f.KgPerHectare * l.factor(factors.FertilizerCategory(f.Type), factors.UnitKg)
	}
	carbon += in.IrrigationM3PerHa * l.factor(factors.CategoryIrrigation, factors.UnitM3)

	water := in.IrrigationM3PerHa * 1000 // m3 to litres

	out := Contribution{
		CarbonKg:   carbon,
		WaterL:     water,
		FactorMiss: l.miss,
	}

	if !enhanced {
		return out
	}

	if mult, ok := practiceMultipliers[in.Practice]; ok {
		out.CarbonKg *= mult
	}

	// Land occupation per functional unit, degraded land needing more area.
	if in.YieldTonnesPerHectare > 0 {
		land := squareMetresPerHectare / in.YieldTonnesPerHectare
		idx := in.LandQualityIndex
		if idx > 1 {
			idx = 1
		}
		if idx > 0 {
			land *= 2 - idx
		}
		out.LandUseM2 = land
	}

	return out
}
