package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStageInputs(t *testing.T) {
	valid := `{
		"agriculture": {
			"diesel_l_per_hectare": 100,
			"fertilizers": [{"type": "nitrogen", "kg_per_hectare": 12}]
		},
		"inbound_transport": {"mode": "truck", "distance_km": 120},
		"packaging": {"container": {"material": "glass", "weight_kg": 0.49}},
		"end_of_life": {"recycling_rate": 0.7}
	}`
	assert.NoError(t, ValidateStageInputs([]byte(valid)))
}

func TestValidateStageInputsEmptyDocument(t *testing.T) {
	assert.NoError(t, ValidateStageInputs([]byte(`{}`)))
}

func TestValidateStageInputsRejectsWrongTypes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"string quantity", `{"agriculture": {"diesel_l_per_hectare": "a lot"}}`},
		{"numeric mode", `{"inbound_transport": {"mode": 7}}`},
		{"unknown stage", `{"assembly": {}}`},
		{"array document", `[1, 2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateStageInputs([]byte(tt.doc)))
		})
	}
}

func TestValidateStageInputsRejectsInvalidJSON(t *testing.T) {
	err := ValidateStageInputs([]byte(`{"agriculture":`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}
