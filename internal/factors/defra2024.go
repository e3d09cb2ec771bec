package factors

// BuiltinVersion is the version string of the compiled-in factor table.
const BuiltinVersion = "DEFRA_2024"

// Builtin returns the compiled-in DEFRA 2024 factor table. Emission factors
// are kg CO2e per unit; water factors are litres per unit.
func Builtin() *Model {
	return newModel(BuiltinVersion, map[factorKey]float64{
		// Fuels and energy.
		{CategoryDiesel, UnitLitre}:    2.68,
		{CategoryElectricity, UnitKWh}: 0.207,
		{CategoryWater, UnitLitre}:     0.000344,
		{CategoryIrrigation, UnitM3}:   0.344,

		// Fertilizers, per kg applied.
		{CategoryFertilizerNitrogen, UnitKg}:   5.65,
		{CategoryFertilizerPhosphorus, UnitKg}: 1.85,
		{CategoryFertilizerPotassium, UnitKg}:  1.15,
		{CategoryFertilizerOrganic, UnitKg}:    0.42,

		// Freight, per tonne-kilometre.
		{CategoryTransportTruck, UnitTonneKm}: 0.107,
		{CategoryTransportRail, UnitTonneKm}:  0.028,
		{CategoryTransportSea, UnitTonneKm}:   0.016,
		{CategoryTransportAir, UnitTonneKm}:   1.13,

		// Freight, per vehicle-kilometre when no mass is given.
		{CategoryTransportTruck, UnitKm}: 0.887,
		{CategoryTransportRail, UnitKm}:  0.031,
		{CategoryTransportSea, UnitKm}:   0.019,
		{CategoryTransportAir, UnitKm}:   1.58,

		// Packaging materials, per kg of virgin material.
		{CategoryMaterialGlass, UnitKg}:     0.85,
		{CategoryMaterialPlastic, UnitKg}:   3.10,
		{CategoryMaterialAluminium, UnitKg}: 9.16,
		{CategoryMaterialSteel, UnitKg}:     2.21,
		{CategoryMaterialPaper, UnitKg}:     0.92,
		{CategoryMaterialCardboard, UnitKg}: 0.82,
		{CategoryMaterialCork, UnitKg}:      0.19,

		// Material water intensity, litres per kg produced.
		{CategoryMaterialGlass, UnitPerKgOut}:     16.0,
		{CategoryMaterialPlastic, UnitPerKgOut}:   180.0,
		{CategoryMaterialAluminium, UnitPerKgOut}: 1280.0,
		{CategoryMaterialSteel, UnitPerKgOut}:     28.0,
		{CategoryMaterialPaper, UnitPerKgOut}:     545.0,
		{CategoryMaterialCardboard, UnitPerKgOut}: 330.0,
		{CategoryMaterialCork, UnitPerKgOut}:      11.0,

		// Storage, per day.
		{CategoryColdStorage, UnitDay}: 0.046,
		{CategoryWarehousing, UnitDay}: 0.011,

		// End of life, per kg of packaging routed.
		{CategoryLandfill, UnitKg}:     0.587,
		{CategoryIncineration, UnitKg}: 0.883,
		{CategoryRecycling, UnitKg}:    0.039,
	})
}
