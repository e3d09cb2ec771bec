// Package stages implements the six per-stage impact calculators.
//
// Each calculator is a pure function over one stage's normalized inputs and
// a factor model. Calculators know nothing about other stages; missing
// sub-fields contribute zero, and an unknown factor pair contributes zero
// while flagging the contribution as low-confidence.
//
// Callers are expected to pass inputs through lca.Normalize first, which
// clamps negative quantities and canonicalizes enumeration members.
package stages

import (
	"github.com/ecotally/ecotally/internal/factors"
)

// Contribution is a single stage's output: its carbon and water impact plus
// any solid-waste attribution.
type Contribution struct {
	CarbonKg float64
	WaterL   float64

	WasteKg           float64
	RecyclableWasteKg float64
	HazardousWasteKg  float64

	// LandUseM2 is populated by the agriculture stage under enhanced
	// fidelity only.
	LandUseM2 float64

	// FactorMiss is set when any (category, unit) lookup was unknown.
	// The result's data quality is lowered one tier when set.
	FactorMiss bool
}

// add merges another contribution into c.
func (c *Contribution) add(other Contribution) {
	c.CarbonKg += other.CarbonKg
	c.WaterL += other.WaterL
	c.WasteKg += other.WasteKg
	c.RecyclableWasteKg += other.RecyclableWasteKg
	c.HazardousWasteKg += other.HazardousWasteKg
	c.LandUseM2 += other.LandUseM2
	c.FactorMiss = c.FactorMiss || other.FactorMiss
}

// lookup wraps factor-model access and records whether any pair missed.
type lookup struct {
	model *factors.Model
	miss  bool
}

func (l *lookup) factor(c factors.Category, u factors.Unit) float64 {
	v, ok := l.model.Lookup(c, u)
	if !ok {
		l.miss = true
	}
	return v
}
