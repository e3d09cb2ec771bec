package factors

import (
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// DatasetSchemaConstraint is the semver range of dataset schemas this build
// can load. Datasets outside the range are rejected rather than partially
// interpreted.
const DatasetSchemaConstraint = ">= 1.0.0, < 2.0.0"

// Dataset loading errors.
var (
	ErrDatasetNoVersion     = errors.New("dataset is missing a version string")
	ErrDatasetSchema        = errors.New("dataset schema_version is not supported")
	ErrDatasetEmpty         = errors.New("dataset contains no factors")
	ErrDatasetNegativeValue = errors.New("dataset factor value is negative")
)

// datasetFile is the on-disk YAML layout of a factor dataset.
type datasetFile struct {
	Version       string             `yaml:"version"`
	SchemaVersion string             `yaml:"schema_version"`
	Factors       []datasetFactorRow `yaml:"factors"`
}

type datasetFactorRow struct {
	Category string  `yaml:"category"`
	Unit     string  `yaml:"unit"`
	Value    float64 `yaml:"value"`
}

// LoadDataset reads a factor table from a YAML dataset file. The dataset's
// schema_version is checked against DatasetSchemaConstraint; a dataset with
// an incompatible or unparsable schema version is rejected.
func LoadDataset(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading factor dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset parses YAML dataset content. See LoadDataset.
func ParseDataset(data []byte) (*Model, error) {
	var file datasetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing factor dataset: %w", err)
	}

	if file.Version == "" {
		return nil, ErrDatasetNoVersion
	}

	schema, err := semver.NewVersion(file.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrDatasetSchema, file.SchemaVersion)
	}
	constraint, err := semver.NewConstraint(DatasetSchemaConstraint)
	if err != nil {
		return nil, fmt.Errorf("parsing schema constraint: %w", err)
	}
	if !constraint.Check(schema) {
		return nil, fmt.Errorf("%w: %s (want %s)", ErrDatasetSchema, schema, DatasetSchemaConstraint)
	}

	if len(file.Factors) == 0 {
		return nil, ErrDatasetEmpty
	}

	table := make(map[factorKey]float64, len(file.Factors))
	for _, row := range file.Factors {
		if row.Value < 0 {
			return nil, fmt.Errorf("%w: %s/%s = %g", ErrDatasetNegativeValue, row.Category, row.Unit, row.Value)
		}
		table[factorKey{Category(row.Category), Unit(row.Unit)}] = row.Value
	}

	return newModel(file.Version, table), nil
}
