package lca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculationResultClone(t *testing.T) {
	orig := &CalculationResult{
		TotalCarbonKg: 42,
		Breakdown:     map[Stage]float64{StageAgriculture: 42},
		Impacts:       []ImpactValue{{Category: CategoryClimateChange, Value: 42, Unit: "kg CO2e"}},
	}

	clone := orig.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, orig, clone)

	clone.Breakdown[StageAgriculture] = 0
	clone.Impacts[0].Value = 0
	assert.Equal(t, 42.0, orig.Breakdown[StageAgriculture])
	assert.Equal(t, 42.0, orig.Impacts[0].Value)

	var nilResult *CalculationResult
	assert.Nil(t, nilResult.Clone())
}

func TestResultSummary(t *testing.T) {
	r := &CalculationResult{
		TotalCarbonKg: 1.5,
		TotalWaterL:   20,
		Metadata: ResultMetadata{
			Method:        MethodEnhanced,
			FactorVersion: "DEFRA_2024",
			DataQuality:   QualityHigh,
		},
	}

	s := r.Summary("whisky-750ml")
	assert.Equal(t, "whisky-750ml", s.ProductID)
	assert.Equal(t, 1.5, s.TotalCarbonKg)
	assert.Equal(t, MethodEnhanced, s.Method)
	assert.Equal(t, "DEFRA_2024", s.FactorVersion)
}

func TestEnumCanonical(t *testing.T) {
	p, known := FarmingPractice("organic").Canonical()
	assert.True(t, known)
	assert.Equal(t, PracticeOrganic, p)

	p, known = FarmingPractice("hydroponic").Canonical()
	assert.False(t, known)
	assert.Equal(t, PracticeConventional, p)

	m, known := TransportMode("").Canonical()
	assert.True(t, known)
	assert.Equal(t, ModeTruck, m)

	mat, known := Material("wax").Canonical()
	assert.False(t, known)
	assert.Equal(t, MaterialPlastic, mat)
}
