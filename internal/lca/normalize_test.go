package lca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClampsNegativeQuantities(t *testing.T) {
	in := StageInputs{
		Agriculture: &AgricultureInputs{
			DieselLPerHectare: -50,
			IrrigationM3PerHa: -3,
		},
		Processing: &ProcessingInputs{
			ElectricityKWh: -12,
			WaterL:         -400,
		},
	}

	out := Normalize(in)
	require.NotNil(t, out.Agriculture)
	assert.Zero(t, out.Agriculture.DieselLPerHectare)
	assert.Zero(t, out.Agriculture.IrrigationM3PerHa)
	require.NotNil(t, out.Processing)
	assert.Zero(t, out.Processing.ElectricityKWh)
	assert.Zero(t, out.Processing.WaterL)
}

func TestNormalizeFertilizers(t *testing.T) {
	in := StageInputs{
		Agriculture: &AgricultureInputs{
			Fertilizers: []FertilizerUse{
				{Type: "Potassium", KgPerHectare: 5},
				{Type: "nitrogen", KgPerHectare: 20},
				{Type: "nitrogen", KgPerHectare: 10},
				{Type: "phosphorus", KgPerHectare: 0},
				{Type: "organic", KgPerHectare: -4},
			},
		},
	}

	out := Normalize(in)
	require.NotNil(t, out.Agriculture)

	// Zero and negative rates are dropped; the rest sorted by type then rate.
	got := out.Agriculture.Fertilizers
	require.Len(t, got, 3)
	assert.Equal(t, FertilizerUse{Type: "nitrogen", KgPerHectare: 10}, got[0])
	assert.Equal(t, FertilizerUse{Type: "nitrogen", KgPerHectare: 20}, got[1])
	assert.Equal(t, FertilizerUse{Type: "potassium", KgPerHectare: 5}, got[2])
}

func TestNormalizeFertilizerOrderIndependent(t *testing.T) {
	a := Normalize(StageInputs{Agriculture: &AgricultureInputs{
		Fertilizers: []FertilizerUse{
			{Type: "nitrogen", KgPerHectare: 20},
			{Type: "potassium", KgPerHectare: 5},
		},
	}})
	b := Normalize(StageInputs{Agriculture: &AgricultureInputs{
		Fertilizers: []FertilizerUse{
			{Type: "potassium", KgPerHectare: 5},
			{Type: "nitrogen", KgPerHectare: 20},
		},
	}})
	assert.Equal(t, a, b)
}

func TestNormalizeTransportLoadFactor(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero means full load", 0, 1},
		{"negative means full load", -0.5, 1},
		{"above one means full load", 1.5, 1},
		{"valid passes through", 0.6, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(StageInputs{InboundTransport: &TransportInputs{
				DistanceKm: 100,
				LoadFactor: tt.in,
			}})
			require.NotNil(t, out.InboundTransport)
			assert.Equal(t, tt.want, out.InboundTransport.LoadFactor)
		})
	}
}

func TestNormalizeUnknownEnumsDefault(t *testing.T) {
	in := StageInputs{
		Agriculture:      &AgricultureInputs{Practice: "permaculture"},
		InboundTransport: &TransportInputs{Mode: "zeppelin", DistanceKm: 10},
		Packaging: &PackagingInputs{
			Container: &PackagingComponent{Material: "unobtainium", WeightKg: 1},
		},
	}

	out := Normalize(in)
	assert.Equal(t, PracticeConventional, out.Agriculture.Practice)
	assert.Equal(t, ModeTruck, out.InboundTransport.Mode)
	assert.Equal(t, MaterialPlastic, out.Packaging.Container.Material)

	assert.True(t, HasUnknownEnums(in))
	assert.False(t, HasUnknownEnums(out))
}

func TestNormalizeEndOfLifeRates(t *testing.T) {
	t.Run("clipped to unit interval", func(t *testing.T) {
		out := Normalize(StageInputs{EndOfLife: &EndOfLifeInputs{
			RecyclingRate: -0.2,
			LandfillRate:  0.5,
		}})
		assert.Zero(t, out.EndOfLife.RecyclingRate)
		assert.Equal(t, 0.5, out.EndOfLife.LandfillRate)
	})

	t.Run("rescaled when sum exceeds one", func(t *testing.T) {
		out := Normalize(StageInputs{EndOfLife: &EndOfLifeInputs{
			RecyclingRate:    0.8,
			LandfillRate:     0.8,
			IncinerationRate: 0.4,
		}})
		sum := out.EndOfLife.RecyclingRate + out.EndOfLife.LandfillRate + out.EndOfLife.IncinerationRate
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.InDelta(t, 0.4, out.EndOfLife.RecyclingRate, 1e-9)
	})
}

func TestNormalizeAbsentStagesStayAbsent(t *testing.T) {
	out := Normalize(StageInputs{})
	assert.Nil(t, out.Agriculture)
	assert.Nil(t, out.InboundTransport)
	assert.Nil(t, out.Processing)
	assert.Nil(t, out.Packaging)
	assert.Nil(t, out.Distribution)
	assert.Nil(t, out.EndOfLife)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("enhanced")
	require.NoError(t, err)
	assert.Equal(t, MethodEnhanced, m)

	m, err = ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodHybrid, m)

	m, err = ParseMethod("quantum")
	assert.Error(t, err)
	assert.Equal(t, MethodHybrid, m)
}

func TestDataQualityLower(t *testing.T) {
	assert.Equal(t, QualityMedium, QualityHigh.Lower())
	assert.Equal(t, QualityLow, QualityMedium.Lower())
	assert.Equal(t, QualityLow, QualityLow.Lower())
}

func TestLineItems(t *testing.T) {
	in := StageInputs{
		Agriculture: &AgricultureInputs{
			Fertilizers: []FertilizerUse{{Type: "nitrogen", KgPerHectare: 1}, {Type: "organic", KgPerHectare: 2}},
		},
		Packaging: &PackagingInputs{
			Container: &PackagingComponent{Material: MaterialGlass, WeightKg: 0.5},
			Label:     &PackagingComponent{Material: MaterialPaper, WeightKg: 0.01},
		},
	}
	assert.Equal(t, 4, in.LineItems())
	assert.Equal(t, 0, StageInputs{}.LineItems())
}
