package factors

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinLookups(t *testing.T) {
	m := Builtin()
	assert.Equal(t, BuiltinVersion, m.Version())

	diesel, ok := m.Lookup(CategoryDiesel, UnitLitre)
	require.True(t, ok)
	assert.Equal(t, 2.68, diesel)

	nitrogen, ok := m.Lookup(CategoryFertilizerNitrogen, UnitKg)
	require.True(t, ok)
	assert.Equal(t, 5.65, nitrogen)

	_, ok = m.Lookup(Category("antimatter"), UnitKg)
	assert.False(t, ok)
}

func TestMissTracking(t *testing.T) {
	m := Builtin()
	assert.Zero(t, m.MissCount())

	m.Lookup(Category("unknown"), UnitKg)
	m.Lookup(Category("unknown"), UnitKg) // same pair counts once
	m.Lookup(Category("unknown"), UnitLitre)
	assert.Equal(t, 2, m.MissCount())
}

func TestCategoryMappings(t *testing.T) {
	assert.Equal(t, CategoryTransportRail, TransportCategory("rail"))
	assert.Equal(t, CategoryTransportTruck, TransportCategory("hovercraft"))

	assert.Equal(t, CategoryMaterialGlass, MaterialCategory("glass"))
	assert.Equal(t, CategoryMaterialPlastic, MaterialCategory("mystery"))

	assert.Equal(t, CategoryFertilizerOrganic, FertilizerCategory("organic"))
	assert.Equal(t, CategoryFertilizerNitrogen, FertilizerCategory("npk-blend"))
}

func TestEntriesSorted(t *testing.T) {
	entries := Builtin().Entries()
	require.NotEmpty(t, entries)

	sorted := sort.SliceIsSorted(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Unit < entries[j].Unit
	})
	assert.True(t, sorted)
}
