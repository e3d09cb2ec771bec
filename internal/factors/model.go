// Package factors provides versioned emission and water factor tables.
//
// A Model is a read-only lookup from (category, unit) to a coefficient.
// Unknown pairs return zero with a miss flag so that calculation continues
// on partial data instead of failing; callers record the miss as lowered
// confidence. The table version travels with every result and cache key so
// entries computed under a retired table are never reused.
package factors

import (
	"sort"
	"sync"
)

// Category identifies a material, energy, transport, or disposal class.
type Category string

// Factor categories covered by the built-in table.
const (
	CategoryDiesel      Category = "diesel"
	CategoryElectricity Category = "electricity"
	CategoryWater       Category = "water_supply"

	CategoryFertilizerNitrogen   Category = "fertilizer_nitrogen"
	CategoryFertilizerPhosphorus Category = "fertilizer_phosphorus"
	CategoryFertilizerPotassium  Category = "fertilizer_potassium"
	CategoryFertilizerOrganic    Category = "fertilizer_organic"

	CategoryTransportTruck Category = "transport_truck"
	CategoryTransportRail  Category = "transport_rail"
	CategoryTransportSea   Category = "transport_sea"
	CategoryTransportAir   Category = "transport_air"

	CategoryMaterialGlass     Category = "material_glass"
	CategoryMaterialPlastic   Category = "material_plastic"
	CategoryMaterialAluminium Category = "material_aluminium"
	CategoryMaterialSteel     Category = "material_steel"
	CategoryMaterialPaper     Category = "material_paper"
	CategoryMaterialCardboard Category = "material_cardboard"
	CategoryMaterialCork      Category = "material_cork"

	CategoryColdStorage  Category = "cold_storage"
	CategoryWarehousing  Category = "warehousing"
	CategoryLandfill     Category = "landfill"
	CategoryIncineration Category = "incineration"
	CategoryRecycling    Category = "recycling"

	CategoryIrrigation Category = "irrigation"
)

// Unit identifies the denominator a factor applies to.
type Unit string

// Factor units.
const (
	UnitLitre    Unit = "l"
	UnitKWh      Unit = "kwh"
	UnitKg       Unit = "kg"
	UnitKm       Unit = "km"
	UnitTonneKm  Unit = "tkm"
	UnitM3       Unit = "m3"
	UnitDay      Unit = "day"
	UnitPerKgOut Unit = "kg_output" // water litres per kg of material produced
)

type factorKey struct {
	category Category
	unit     Unit
}

// Model is an immutable versioned factor table. The zero value is unusable;
// construct with Builtin or LoadDataset.
type Model struct {
	version string
	table   map[factorKey]float64

	mu     sync.Mutex
	misses map[factorKey]struct{}
}

// newModel wraps a table. The table map is owned by the model afterwards.
func newModel(version string, table map[factorKey]float64) *Model {
	return &Model{
		version: version,
		table:   table,
		misses:  make(map[factorKey]struct{}),
	}
}

// Version returns the factor table version string, e.g. "DEFRA_2024".
func (m *Model) Version() string {
	return m.version
}

// Lookup returns the coefficient for the (category, unit) pair. Unknown
// pairs return (0, false); the calculation proceeds with a zero
// contribution and the caller lowers its declared data quality.
func (m *Model) Lookup(category Category, unit Unit) (float64, bool) {
	v, ok := m.table[factorKey{category, unit}]
	if !ok {
		m.mu.Lock()
		m.misses[factorKey{category, unit}] = struct{}{}
		m.mu.Unlock()
		return 0, false
	}
	return v, true
}

// MissCount returns how many distinct unknown pairs have been requested.
// Exposed for diagnostics and tests.
func (m *Model) MissCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.misses)
}

// Entry is one (category, unit, value) row of the factor table.
type Entry struct {
	Category Category
	Unit     Unit
	Value    float64
}

// Entries returns the factor table sorted by category then unit.
func (m *Model) Entries() []Entry {
	entries := make([]Entry, 0, len(m.table))
	for k, v := range m.table {
		entries = append(entries, Entry{Category: k.category, Unit: k.unit, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Unit < entries[j].Unit
	})
	return entries
}

// TransportCategory maps a canonical transport mode name to its factor
// category. Falls back to truck, matching the enumeration default.
func TransportCategory(mode string) Category {
	switch mode {
	case "rail":
		return CategoryTransportRail
	case "sea":
		return CategoryTransportSea
	case "air":
		return CategoryTransportAir
	default:
		return CategoryTransportTruck
	}
}

// MaterialCategory maps a canonical material name to its factor category.
// Falls back to plastic, matching the enumeration default.
func MaterialCategory(material string) Category {
	switch material {
	case "glass":
		return CategoryMaterialGlass
	case "aluminium":
		return CategoryMaterialAluminium
	case "steel":
		return CategoryMaterialSteel
	case "paper":
		return CategoryMaterialPaper
	case "cardboard":
		return CategoryMaterialCardboard
	case "cork":
		return CategoryMaterialCork
	default:
		return CategoryMaterialPlastic
	}
}

// FertilizerCategory maps a fertilizer type string to its factor category.
// Unknown types map to nitrogen, the highest-impact fertilizer class.
func FertilizerCategory(fertilizerType string) Category {
	switch fertilizerType {
	case "phosphorus":
		return CategoryFertilizerPhosphorus
	case "potassium":
		return CategoryFertilizerPotassium
	case "organic":
		return CategoryFertilizerOrganic
	default:
		return CategoryFertilizerNitrogen
	}
}
