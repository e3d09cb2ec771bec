package stages

import (
	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/lca"
)

// incinerationHazardousShare is the hazardous-ash fraction of incinerated
// mass.
const incinerationHazardousShare = 0.05

// EndOfLife computes the disposal stage contribution on a unit-mass basis
// (per kilogram of product and packaging disposed). Route rates arrive
// normalized to sum at most 1; any remainder is treated as reuse with zero
// impact. The stage has no knowledge of the packaging stage's actual mass,
// keeping calculators independent.
func EndOfLife(in *lca.EndOfLifeInputs, m *factors.Model, _ bool) Contribution {
	if in == nil {
		return Contribution{}
	}
	l := lookup{model: m}

	carbon := in.RecyclingRate * l.factor(factors.CategoryRecycling, factors.UnitKg)
	carbon += in.LandfillRate * l.factor(factors.CategoryLandfill, factors.UnitKg)
	carbon += in.IncinerationRate * l.factor(factors.CategoryIncineration, factors.UnitKg)

	return Contribution{
		CarbonKg:          carbon,
		WasteKg:           in.LandfillRate + in.IncinerationRate,
		RecyclableWasteKg: in.RecyclingRate,
		HazardousWasteKg:  in.IncinerationRate * incinerationHazardousShare,
		FactorMiss:        l.miss,
	}
}
