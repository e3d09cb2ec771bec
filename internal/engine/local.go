package engine

import (
	"context"

	"github.com/ecotally/ecotally/internal/engine/stages"
	"github.com/ecotally/ecotally/internal/lca"
)

// Derived mid-point impact coefficients used by the enhanced tier. These
// express acidification and eutrophication potential as fixed shares of the
// climate-change total, the approximation the simple factor tables support.
const (
	acidificationShare  = 0.008 // kg SO2e per kg CO2e
	eutrophicationShare = 0.004 // kg PO4e per kg CO2e
)

// runLocal returns the strategy body for the in-process tiers. enhanced
// selects full-fidelity stage invocations with enumeration multipliers; the
// simple tier uses base factors only.
func (e *Engine) runLocal(enhanced bool) func(ctx context.Context, product lca.Product, inputs lca.StageInputs) (*lca.CalculationResult, error) {
	return func(ctx context.Context, _ lca.Product, inputs lca.StageInputs) (*lca.CalculationResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return e.computeLocal(inputs, enhanced), nil
	}
}

// computeLocal invokes all six stage calculators and assembles the result.
// The total is the exact sum of the breakdown, which keeps the
// sum-equals-total invariant by construction.
func (e *Engine) computeLocal(inputs lca.StageInputs, enhanced bool) *lca.CalculationResult {
	contributions := map[lca.Stage]stages.Contribution{
		lca.StageAgriculture:      stages.Agriculture(inputs.Agriculture, e.model, enhanced),
		lca.StageInboundTransport: stages.InboundTransport(inputs.InboundTransport, e.model, enhanced),
		lca.StageProcessing:       stages.Processing(inputs.Processing, e.model, enhanced),
		lca.StagePackaging:        stages.Packaging(inputs.Packaging, e.model, enhanced),
		lca.StageDistribution:     stages.Distribution(inputs.Distribution, e.model, enhanced),
		lca.StageEndOfLife:        stages.EndOfLife(inputs.EndOfLife, e.model, enhanced),
	}

	breakdown := make(map[lca.Stage]float64, len(contributions))
	var totalCarbon, totalWater, landUse float64
	var waste lca.WasteOutput
	factorMiss := false

	for _, stage := range lca.Stages() {
		c := contributions[stage]
		breakdown[stage] = c.CarbonKg
		totalCarbon += c.CarbonKg
		totalWater += c.WaterL
		landUse += c.LandUseM2
		waste.TotalKg += c.WasteKg
		waste.RecyclableKg += c.RecyclableWasteKg
		waste.HazardousKg += c.HazardousWasteKg
		factorMiss = factorMiss || c.FactorMiss
	}

	quality := lca.QualityMedium
	if enhanced {
		quality = lca.QualityHigh
	}
	if factorMiss {
		quality = quality.Lower()
	}

	impacts := []lca.ImpactValue{
		{Category: lca.CategoryClimateChange, Value: totalCarbon, Unit: "kg CO2e"},
		{Category: lca.CategoryWaterDepletion, Value: totalWater, Unit: "L"},
		{Category: lca.CategoryWasteGeneration, Value: waste.TotalKg, Unit: "kg"},
	}
	if enhanced {
		impacts = append(impacts,
			lca.ImpactValue{Category: lca.CategoryLandUse, Value: landUse, Unit: "m2"},
			lca.ImpactValue{Category: lca.CategoryAcidification, Value: totalCarbon * acidificationShare, Unit: "kg SO2e"},
			lca.ImpactValue{Category: lca.CategoryEutrophication, Value: totalCarbon * eutrophicationShare, Unit: "kg PO4e"},
		)
	}

	return &lca.CalculationResult{
		TotalCarbonKg: totalCarbon,
		TotalWaterL:   totalWater,
		Breakdown:     breakdown,
		Impacts:       impacts,
		Waste:         waste,
		Metadata: lca.ResultMetadata{
			DataQuality: quality,
		},
	}
}
