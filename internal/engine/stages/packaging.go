package stages

import (
	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/lca"
)

// maxRecycledDiscount caps the emission reduction for fully recycled
// content: recycled feedstock avoids at most 60% of virgin-material impact.
const maxRecycledDiscount = 0.6

// recyclableMaterials are treated as fully recyclable waste streams.
var recyclableMaterials = map[lca.Material]bool{
	lca.MaterialGlass:     true,
	lca.MaterialAluminium: true,
	lca.MaterialSteel:     true,
	lca.MaterialPaper:     true,
	lca.MaterialCardboard: true,
}

// Packaging computes the packaging stage contribution across the container,
// label, closure, and secondary components. Enhanced fidelity discounts
// recycled content; both fidelities attribute component weight to the waste
// output.
func Packaging(in *lca.PackagingInputs, m *factors.Model, enhanced bool) Contribution {
	if in == nil {
		return Contribution{}
	}
	l := lookup{model: m}

	var out Contribution
	for _, comp := range []*lca.PackagingComponent{in.Container, in.Label, in.Closure, in.Secondary} {
		if comp == nil || comp.WeightKg == 0 {
			continue
		}
		out.add(component(&l, comp, enhanced))
	}
	out.FactorMiss = l.miss
	return out
}

func component(l *lookup, comp *lca.PackagingComponent, enhanced bool) Contribution {
	cat := factors.MaterialCategory(string(comp.Material))

	carbon := comp.WeightKg * l.factor(cat, factors.UnitKg)
	if enhanced && comp.RecycledContentPct > 0 {
		carbon *= 1 - maxRecycledDiscount*comp.RecycledContentPct/100
	}

	water := comp.WeightKg * l.factor(cat, factors.UnitPerKgOut)

	c := Contribution{
		CarbonKg: carbon,
		WaterL:   water,
		WasteKg:  comp.WeightKg,
	}
	if recyclableMaterials[comp.Material] {
		c.RecyclableWasteKg = comp.WeightKg
	}
	return c
}
