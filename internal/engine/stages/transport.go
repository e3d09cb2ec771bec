package stages

import (
	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/lca"
)

// refrigerationUplift scales freight emissions for refrigerated legs under
// enhanced fidelity.
const refrigerationUplift = 1.15

// freight computes emissions for one transport leg. When a shipment mass is
// known the tonne-kilometre factor applies; otherwise the vehicle-kilometre
// factor does. Enhanced fidelity divides by the load factor (a half-empty
// vehicle carries the full leg's emissions) and applies the refrigeration
// uplift.
func freight(l *lookup, mode lca.TransportMode, distanceKm, massTonnes, loadFactor float64, refrigerated, enhanced bool) float64 {
	if distanceKm == 0 {
		return 0
	}

	cat := factors.TransportCategory(string(mode))
	var carbon float64
	if massTonnes > 0 {
		carbon = distanceKm * massTonnes * l.factor(cat, factors.UnitTonneKm)
	} else {
		carbon = distanceKm * l.factor(cat, factors.UnitKm)
	}

	if !enhanced {
		return carbon
	}

	if loadFactor > 0 && loadFactor < 1 {
		carbon /= loadFactor
	}
	if refrigerated {
		carbon *= refrigerationUplift
	}
	return carbon
}

// InboundTransport computes the raw-material freight stage contribution.
func InboundTransport(in *lca.TransportInputs, m *factors.Model, enhanced bool) Contribution {
	if in == nil {
		return Contribution{}
	}
	l := lookup{model: m}
	carbon := freight(&l, in.Mode, in.DistanceKm, in.MassTonnes, in.LoadFactor, in.Refrigerated, enhanced)
	return Contribution{CarbonKg: carbon, FactorMiss: l.miss}
}
