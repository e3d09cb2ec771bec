package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/lca"
)

func TestNilStageInputsContributeZero(t *testing.T) {
	m := factors.Builtin()
	assert.Zero(t, Agriculture(nil, m, false))
	assert.Zero(t, InboundTransport(nil, m, false))
	assert.Zero(t, Processing(nil, m, false))
	assert.Zero(t, Packaging(nil, m, false))
	assert.Zero(t, Distribution(nil, m, false))
	assert.Zero(t, EndOfLife(nil, m, false))
}

func TestAgricultureDieselOnly(t *testing.T) {
	m := factors.Builtin()
	in := &lca.AgricultureInputs{DieselLPerHectare: 100}

	c := Agriculture(in, m, false)
	assert.InDelta(t, 100*2.68, c.CarbonKg, 1e-9)
	assert.Zero(t, c.WaterL)
	assert.False(t, c.FactorMiss)
}

func TestAgricultureFertilizersAndIrrigation(t *testing.T) {
	m := factors.Builtin()
	in := &lca.AgricultureInputs{
		Fertilizers: []lca.FertilizerUse{
			{Type: "nitrogen", KgPerHectare: 10},
			{Type: "organic", KgPerHectare: 5},
		},
		IrrigationM3PerHa: 2,
	}

	c := Agriculture(in, m, false)
	want := 10*5.65 + 5*0.42 + 2*0.344
	assert.InDelta(t, want, c.CarbonKg, 1e-9)
	assert.InDelta(t, 2000, c.WaterL, 1e-9) // irrigation m3 to litres
}

func TestAgriculturePracticeMultiplierEnhancedOnly(t *testing.T) {
	m := factors.Builtin()
	in := &lca.AgricultureInputs{DieselLPerHectare: 100, Practice: lca.PracticeRegenerative}

	simple := Agriculture(in, m, false)
	enhanced := Agriculture(in, m, true)
	assert.InDelta(t, 100*2.68, simple.CarbonKg, 1e-9)
	assert.InDelta(t, 100*2.68*0.70, enhanced.CarbonKg, 1e-9)
}

func TestAgricultureLandUse(t *testing.T) {
	m := factors.Builtin()
	in := &lca.AgricultureInputs{YieldTonnesPerHectare: 5, LandQualityIndex: 0.5}

	simple := Agriculture(in, m, false)
	assert.Zero(t, simple.LandUseM2)

	enhanced := Agriculture(in, m, true)
	// 10000/5 m2 per tonne, degraded land (idx 0.5) scales by 1.5.
	assert.InDelta(t, 2000*1.5, enhanced.LandUseM2, 1e-9)
}

func TestInboundTransport(t *testing.T) {
	m := factors.Builtin()

	t.Run("tonne-km when mass known", func(t *testing.T) {
		in := &lca.TransportInputs{Mode: lca.ModeRail, DistanceKm: 500, MassTonnes: 2, LoadFactor: 1}
		c := InboundTransport(in, m, false)
		assert.InDelta(t, 500*2*0.028, c.CarbonKg, 1e-9)
	})

	t.Run("vehicle-km when mass unknown", func(t *testing.T) {
		in := &lca.TransportInputs{Mode: lca.ModeTruck, DistanceKm: 100, LoadFactor: 1}
		c := InboundTransport(in, m, false)
		assert.InDelta(t, 100*0.887, c.CarbonKg, 1e-9)
	})

	t.Run("enhanced load factor and refrigeration", func(t *testing.T) {
		in := &lca.TransportInputs{
			Mode: lca.ModeTruck, DistanceKm: 100, MassTonnes: 1,
			LoadFactor: 0.5, Refrigerated: true,
		}
		c := InboundTransport(in, m, true)
		assert.InDelta(t, 100*0.107/0.5*1.15, c.CarbonKg, 1e-9)
	})

	t.Run("simple ignores load factor and refrigeration", func(t *testing.T) {
		in := &lca.TransportInputs{
			Mode: lca.ModeTruck, DistanceKm: 100, MassTonnes: 1,
			LoadFactor: 0.5, Refrigerated: true,
		}
		c := InboundTransport(in, m, false)
		assert.InDelta(t, 100*0.107, c.CarbonKg, 1e-9)
	})
}

func TestProcessing(t *testing.T) {
	m := factors.Builtin()

	t.Run("metered energy and water", func(t *testing.T) {
		in := &lca.ProcessingInputs{ElectricityKWh: 50, WaterL: 1000}
		c := Processing(in, m, false)
		assert.InDelta(t, 50*0.207+1000*0.000344, c.CarbonKg, 1e-9)
		assert.InDelta(t, 1000, c.WaterL, 1e-9)
	})

	t.Run("sub-records are enhanced only", func(t *testing.T) {
		in := &lca.ProcessingInputs{
			Fermentation: &lca.FermentationSpec{DurationDays: 10},
			Distillation: &lca.DistillationSpec{Rounds: 2, EnergyKWhPerRun: 30},
			Maturation:   &lca.MaturationSpec{DurationMonths: 12},
		}

		simple := Processing(in, m, false)
		assert.Zero(t, simple.CarbonKg)

		enhanced := Processing(in, m, true)
		want := 10*0.046*0.5 + 2*30*0.207 + 12*30*0.011
		assert.InDelta(t, want, enhanced.CarbonKg, 1e-9)
	})
}

func TestPackaging(t *testing.T) {
	m := factors.Builtin()

	t.Run("component carbon water and waste", func(t *testing.T) {
		in := &lca.PackagingInputs{
			Container: &lca.PackagingComponent{Material: lca.MaterialGlass, WeightKg: 0.5},
			Closure:   &lca.PackagingComponent{Material: lca.MaterialCork, WeightKg: 0.01},
		}
		c := Packaging(in, m, false)
		assert.InDelta(t, 0.5*0.85+0.01*0.19, c.CarbonKg, 1e-9)
		assert.InDelta(t, 0.5*16.0+0.01*11.0, c.WaterL, 1e-9)
		assert.InDelta(t, 0.51, c.WasteKg, 1e-9)
		// Glass is recyclable, cork is not.
		assert.InDelta(t, 0.5, c.RecyclableWasteKg, 1e-9)
	})

	t.Run("recycled content discount enhanced only", func(t *testing.T) {
		in := &lca.PackagingInputs{
			Container: &lca.PackagingComponent{Material: lca.MaterialGlass, WeightKg: 1, RecycledContentPct: 100},
		}

		simple := Packaging(in, m, false)
		assert.InDelta(t, 0.85, simple.CarbonKg, 1e-9)

		enhanced := Packaging(in, m, true)
		assert.InDelta(t, 0.85*(1-0.6), enhanced.CarbonKg, 1e-9)
	})
}

func TestDistribution(t *testing.T) {
	m := factors.Builtin()

	t.Run("freight plus warehousing", func(t *testing.T) {
		in := &lca.DistributionInputs{Mode: lca.ModeTruck, DistanceKm: 200, StorageDurationDays: 14}
		c := Distribution(in, m, false)
		assert.InDelta(t, 200*0.887+14*0.011, c.CarbonKg, 1e-9)
	})

	t.Run("refrigerated storage uses cold storage factor", func(t *testing.T) {
		in := &lca.DistributionInputs{StorageDurationDays: 14, Refrigerated: true}
		c := Distribution(in, m, false)
		assert.InDelta(t, 14*0.046, c.CarbonKg, 1e-9)
	})
}

func TestEndOfLife(t *testing.T) {
	m := factors.Builtin()
	in := &lca.EndOfLifeInputs{RecyclingRate: 0.6, LandfillRate: 0.3, IncinerationRate: 0.1}

	c := EndOfLife(in, m, false)
	assert.InDelta(t, 0.6*0.039+0.3*0.587+0.1*0.883, c.CarbonKg, 1e-9)
	assert.InDelta(t, 0.4, c.WasteKg, 1e-9)
	assert.InDelta(t, 0.6, c.RecyclableWasteKg, 1e-9)
	assert.InDelta(t, 0.1*0.05, c.HazardousWasteKg, 1e-9)
}

func TestFactorMissFlag(t *testing.T) {
	empty, err := factors.ParseDataset([]byte(
		"version: SPARSE\nschema_version: 1.0.0\nfactors:\n  - {category: electricity, unit: kwh, value: 0.2}\n",
	))
	require.NoError(t, err)

	c := Agriculture(&lca.AgricultureInputs{DieselLPerHectare: 10}, empty, false)
	assert.True(t, c.FactorMiss)
	assert.Zero(t, c.CarbonKg)
}
