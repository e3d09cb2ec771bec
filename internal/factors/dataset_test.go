package factors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDataset = `
version: ECOINVENT_2025
schema_version: 1.2.0
factors:
  - category: diesel
    unit: l
    value: 2.71
  - category: electricity
    unit: kwh
    value: 0.190
`

func TestParseDataset(t *testing.T) {
	m, err := ParseDataset([]byte(validDataset))
	require.NoError(t, err)
	assert.Equal(t, "ECOINVENT_2025", m.Version())

	v, ok := m.Lookup(CategoryDiesel, UnitLitre)
	require.True(t, ok)
	assert.Equal(t, 2.71, v)
}

func TestParseDatasetErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "missing version",
			yaml:    "schema_version: 1.0.0\nfactors:\n  - {category: diesel, unit: l, value: 1}\n",
			wantErr: ErrDatasetNoVersion,
		},
		{
			name:    "unparsable schema version",
			yaml:    "version: X\nschema_version: banana\nfactors:\n  - {category: diesel, unit: l, value: 1}\n",
			wantErr: ErrDatasetSchema,
		},
		{
			name:    "schema version out of range",
			yaml:    "version: X\nschema_version: 2.0.0\nfactors:\n  - {category: diesel, unit: l, value: 1}\n",
			wantErr: ErrDatasetSchema,
		},
		{
			name:    "no factors",
			yaml:    "version: X\nschema_version: 1.0.0\n",
			wantErr: ErrDatasetEmpty,
		},
		{
			name:    "negative value",
			yaml:    "version: X\nschema_version: 1.0.0\nfactors:\n  - {category: diesel, unit: l, value: -1}\n",
			wantErr: ErrDatasetNegativeValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDataset([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDataset), 0o600))

	m, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, "ECOINVENT_2025", m.Version())

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
