package stages

import (
	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/lca"
)

// Distribution computes the outbound logistics stage contribution: the
// freight leg plus storage energy for the configured duration. Refrigerated
// storage uses the cold-storage factor regardless of fidelity because the
// flag selects a different factor rather than a multiplier.
func Distribution(in *lca.DistributionInputs, m *factors.Model, enhanced bool) Contribution {
	if in == nil {
		return Contribution{}
	}
	l := lookup{model: m}

	carbon := freight(&l, in.Mode, in.DistanceKm, 0, 1, in.Refrigerated, enhanced)

	if in.StorageDurationDays > 0 {
		storageCat := factors.CategoryWarehousing
		if in.Refrigerated {
			storageCat = factors.CategoryColdStorage
		}
		carbon += in.StorageDurationDays * l.factor(storageCat, factors.UnitDay)
	}

	return Contribution{CarbonKg: carbon, FactorMiss: l.miss}
}
