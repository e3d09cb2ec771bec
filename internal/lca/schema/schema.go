// Package schema validates stage-input JSON documents at the system
// boundary before they are decoded into domain types. Validation catches
// structural mistakes (wrong types, unknown stages) early; out-of-range
// values are deliberately NOT rejected here, since the calculators clamp
// and default rather than error.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// stageInputsSchema is a draft 2020-12 schema for the StageInputs document.
// Quantities are typed but not range-checked; enumerations are open strings
// because unknown members fall back to defaults instead of failing.
const stageInputsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "agriculture": {
      "type": "object",
      "properties": {
        "crop_type": {"type": "string"},
        "yield_tonnes_per_hectare": {"type": "number"},
        "diesel_l_per_hectare": {"type": "number"},
        "fertilizers": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "type": {"type": "string"},
              "kg_per_hectare": {"type": "number"}
            }
          }
        },
        "farming_practice": {"type": "string"},
        "land_quality_index": {"type": "number"},
        "irrigation_m3_per_ha": {"type": "number"}
      }
    },
    "inbound_transport": {"$ref": "#/$defs/transport"},
    "processing": {
      "type": "object",
      "properties": {
        "electricity_kwh": {"type": "number"},
        "water_l": {"type": "number"},
        "fermentation": {"type": "object"},
        "distillation": {"type": "object"},
        "maturation": {"type": "object"}
      }
    },
    "packaging": {
      "type": "object",
      "properties": {
        "container": {"$ref": "#/$defs/component"},
        "label": {"$ref": "#/$defs/component"},
        "closure": {"$ref": "#/$defs/component"},
        "secondary": {"$ref": "#/$defs/component"}
      }
    },
    "distribution": {
      "type": "object",
      "properties": {
        "mode": {"type": "string"},
        "distance_km": {"type": "number"},
        "storage_duration_days": {"type": "number"},
        "refrigerated": {"type": "boolean"}
      }
    },
    "end_of_life": {
      "type": "object",
      "properties": {
        "recycling_rate": {"type": "number"},
        "landfill_rate": {"type": "number"},
        "incineration_rate": {"type": "number"}
      }
    }
  },
  "$defs": {
    "transport": {
      "type": "object",
      "properties": {
        "distance_km": {"type": "number"},
        "mode": {"type": "string"},
        "load_factor": {"type": "number"},
        "refrigerated": {"type": "boolean"},
        "mass_tonnes": {"type": "number"}
      }
    },
    "component": {
      "type": "object",
      "properties": {
        "material": {"type": "string"},
        "weight_kg": {"type": "number"},
        "recycled_content_pct": {"type": "number"}
      }
    }
  }
}`

// compiled is built once at init; the schema is a compile-time constant so
// a failure here is a programming error.
var compiled = mustCompile()

func mustCompile() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("stage_inputs.json", strings.NewReader(stageInputsSchema)); err != nil {
		panic(fmt.Sprintf("adding stage inputs schema: %v", err))
	}
	schema, err := compiler.Compile("stage_inputs.json")
	if err != nil {
		panic(fmt.Sprintf("compiling stage inputs schema: %v", err))
	}
	return schema
}

// ValidateStageInputs checks a raw JSON document against the stage-inputs
// schema.
func ValidateStageInputs(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("stage inputs are not valid JSON: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("stage inputs do not match schema: %w", err)
	}
	return nil
}
