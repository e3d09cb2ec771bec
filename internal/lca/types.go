// Package lca defines the domain model for life-cycle-assessment
// calculations: stage inputs, calculation options, and results.
//
// All physical quantities are non-negative; normalization clamps negative
// values to zero rather than propagating them. Absent stages contribute
// nothing to a result.
package lca

import (
	"fmt"
	"time"
)

// Method identifies a calculation strategy tier.
type Method string

// Calculation methods, in increasing order of fidelity.
const (
	// MethodSimple is the lowest-fidelity tier: base factors only, no
	// enumeration multipliers, fixed ±20% uncertainty.
	MethodSimple Method = "simple"

	// MethodEnhanced applies practice/mode/material multipliers and emits
	// the richer impact-category list.
	MethodEnhanced Method = "enhanced"

	// MethodVerified delegates to the external verified-database backend.
	// Failures fall back to enhanced, then simple; they are never surfaced
	// raw to the caller.
	MethodVerified Method = "verified"

	// MethodHybrid tries verified, then enhanced, then simple, returning
	// the first tier that succeeds.
	MethodHybrid Method = "hybrid"

	// MethodProfessional runs enhanced and attaches a report-oriented
	// annotation for document generation downstream.
	MethodProfessional Method = "professional"
)

// ParseMethod validates a method string. Unknown values default to hybrid
// so that callers holding stale or misspelled method names still get the
// most resilient tier.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodSimple, MethodEnhanced, MethodVerified, MethodHybrid, MethodProfessional:
		return Method(s), nil
	case "":
		return MethodHybrid, nil
	default:
		return MethodHybrid, fmt.Errorf("unknown calculation method %q", s)
	}
}

// Stage identifies one life-cycle stage in a result breakdown.
type Stage string

// Life-cycle stages, in supply-chain order.
const (
	StageAgriculture      Stage = "agriculture"
	StageInboundTransport Stage = "inbound_transport"
	StageProcessing       Stage = "processing"
	StagePackaging        Stage = "packaging"
	StageDistribution     Stage = "distribution"
	StageEndOfLife        Stage = "end_of_life"
)

// Stages lists every stage in canonical order. Breakdown maps are always
// populated for all six stages, absent input yielding a zero entry.
func Stages() []Stage {
	return []Stage{
		StageAgriculture,
		StageInboundTransport,
		StageProcessing,
		StagePackaging,
		StageDistribution,
		StageEndOfLife,
	}
}

// FarmingPractice is a closed enumeration of agricultural practices.
// Unknown values fall back to conventional and lower data quality.
type FarmingPractice string

const (
	PracticeConventional FarmingPractice = "conventional"
	PracticeOrganic      FarmingPractice = "organic"
	PracticeRegenerative FarmingPractice = "regenerative"
	PracticeBiodynamic   FarmingPractice = "biodynamic"
)

// Canonical returns the recognized practice and whether the input was a
// known member. Unrecognized values map to conventional, the most
// conservative member.
func (p FarmingPractice) Canonical() (FarmingPractice, bool) {
	switch p {
	case PracticeConventional, PracticeOrganic, PracticeRegenerative, PracticeBiodynamic:
		return p, true
	case "":
		return PracticeConventional, true
	default:
		return PracticeConventional, false
	}
}

// TransportMode is a closed enumeration of freight modes.
// Unknown values fall back to truck.
type TransportMode string

const (
	ModeTruck TransportMode = "truck"
	ModeRail  TransportMode = "rail"
	ModeSea   TransportMode = "sea"
	ModeAir   TransportMode = "air"
)

// Canonical returns the recognized mode and whether the input was a known
// member. Unrecognized values map to truck.
func (m TransportMode) Canonical() (TransportMode, bool) {
	switch m {
	case ModeTruck, ModeRail, ModeSea, ModeAir:
		return m, true
	case "":
		return ModeTruck, true
	default:
		return ModeTruck, false
	}
}

// Material is a closed enumeration of packaging materials.
// Unknown values fall back to virgin plastic, the most conservative member.
type Material string

const (
	MaterialGlass     Material = "glass"
	MaterialPlastic   Material = "plastic"
	MaterialAluminium Material = "aluminium"
	MaterialSteel     Material = "steel"
	MaterialPaper     Material = "paper"
	MaterialCardboard Material = "cardboard"
	MaterialCork      Material = "cork"
)

// Canonical returns the recognized material and whether the input was a
// known member.
func (m Material) Canonical() (Material, bool) {
	switch m {
	case MaterialGlass, MaterialPlastic, MaterialAluminium, MaterialSteel,
		MaterialPaper, MaterialCardboard, MaterialCork:
		return m, true
	case "":
		return MaterialPlastic, true
	default:
		return MaterialPlastic, false
	}
}

// Product identifies the product a calculation is for.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
}

// FertilizerUse is one fertilizer line item on the agriculture stage.
type FertilizerUse struct {
	// Type is the fertilizer kind: nitrogen, phosphorus, potassium, organic.
	Type string `json:"type"`

	// KgPerHectare is the application rate.
	KgPerHectare float64 `json:"kg_per_hectare"`
}

// AgricultureInputs describes the farming stage.
type AgricultureInputs struct {
	CropType              string          `json:"crop_type,omitempty"`
	YieldTonnesPerHectare float64         `json:"yield_tonnes_per_hectare,omitempty"`
	DieselLPerHectare     float64         `json:"diesel_l_per_hectare,omitempty"`
	Fertilizers           []FertilizerUse `json:"fertilizers,omitempty"`
	Practice              FarmingPractice `json:"farming_practice,omitempty"`
	LandQualityIndex      float64         `json:"land_quality_index,omitempty"`
	IrrigationM3PerHa     float64         `json:"irrigation_m3_per_ha,omitempty"`
}

// TransportInputs describes a freight leg (inbound transport stage).
type TransportInputs struct {
	DistanceKm   float64       `json:"distance_km,omitempty"`
	Mode         TransportMode `json:"mode,omitempty"`
	LoadFactor   float64       `json:"load_factor,omitempty"`
	Refrigerated bool          `json:"refrigerated,omitempty"`
	MassTonnes   float64       `json:"mass_tonnes,omitempty"`
}

// FermentationSpec is a processing sub-record.
type FermentationSpec struct {
	DurationDays float64 `json:"duration_days,omitempty"`
	TemperatureC float64 `json:"temperature_c,omitempty"`
}

// DistillationSpec is a processing sub-record. Rounds beyond the first
// scale processing energy under the enhanced tier.
type DistillationSpec struct {
	Rounds          int     `json:"rounds,omitempty"`
	EnergyKWhPerRun float64 `json:"energy_kwh_per_run,omitempty"`
}

// MaturationSpec is a processing sub-record.
type MaturationSpec struct {
	DurationMonths float64 `json:"duration_months,omitempty"`
	ContainerType  string  `json:"container_type,omitempty"`
}

// ProcessingInputs describes the manufacturing stage.
type ProcessingInputs struct {
	ElectricityKWh float64           `json:"electricity_kwh,omitempty"`
	WaterL         float64           `json:"water_l,omitempty"`
	Fermentation   *FermentationSpec `json:"fermentation,omitempty"`
	Distillation   *DistillationSpec `json:"distillation,omitempty"`
	Maturation     *MaturationSpec   `json:"maturation,omitempty"`
}

// PackagingComponent is one physical packaging element.
type PackagingComponent struct {
	Material           Material `json:"material,omitempty"`
	WeightKg           float64  `json:"weight_kg,omitempty"`
	RecycledContentPct float64  `json:"recycled_content_pct,omitempty"`
}

// PackagingInputs describes the packaging stage.
type PackagingInputs struct {
	Container *PackagingComponent `json:"container,omitempty"`
	Label     *PackagingComponent `json:"label,omitempty"`
	Closure   *PackagingComponent `json:"closure,omitempty"`
	Secondary *PackagingComponent `json:"secondary,omitempty"`
}

// DistributionInputs describes the outbound distribution stage.
type DistributionInputs struct {
	Mode                TransportMode `json:"mode,omitempty"`
	DistanceKm          float64       `json:"distance_km,omitempty"`
	StorageDurationDays float64       `json:"storage_duration_days,omitempty"`
	Refrigerated        bool          `json:"refrigerated,omitempty"`
}

// EndOfLifeInputs describes disposal route fractions. The three rates must
// conceptually sum to at most 1; normalization rescales when they exceed it.
type EndOfLifeInputs struct {
	RecyclingRate    float64 `json:"recycling_rate,omitempty"`
	LandfillRate     float64 `json:"landfill_rate,omitempty"`
	IncinerationRate float64 `json:"incineration_rate,omitempty"`
}

// StageInputs holds the per-stage input records for one calculation.
// Every field is optional; a nil stage contributes zero.
type StageInputs struct {
	Agriculture      *AgricultureInputs  `json:"agriculture,omitempty"`
	InboundTransport *TransportInputs    `json:"inbound_transport,omitempty"`
	Processing       *ProcessingInputs   `json:"processing,omitempty"`
	Packaging        *PackagingInputs    `json:"packaging,omitempty"`
	Distribution     *DistributionInputs `json:"distribution,omitempty"`
	EndOfLife        *EndOfLifeInputs    `json:"end_of_life,omitempty"`
}

// LineItems counts fertilizer and packaging line items. The job offload
// predicate uses it as a cheap input-complexity measure.
func (s StageInputs) LineItems() int {
	n := 0
	if s.Agriculture != nil {
		n += len(s.Agriculture.Fertilizers)
	}
	if s.Packaging != nil {
		for _, c := range []*PackagingComponent{
			s.Packaging.Container, s.Packaging.Label, s.Packaging.Closure, s.Packaging.Secondary,
		} {
			if c != nil {
				n++
			}
		}
	}
	return n
}

// CalculationOptions configures a single compute call. Immutable per request.
type CalculationOptions struct {
	Method           Method   `json:"method"`
	UseCache         bool     `json:"use_cache"`
	ForceJobOffload  bool     `json:"force_job_offload,omitempty"`
	AllocationMethod string   `json:"allocation_method,omitempty"`
	ImpactCategories []string `json:"impact_categories,omitempty"`
}

// DefaultOptions returns options for the given method with caching enabled.
func DefaultOptions(method Method) CalculationOptions {
	return CalculationOptions{Method: method, UseCache: true}
}

// Request bundles everything a calculation needs. It is the unit of work
// for both the synchronous path and the job queue.
type Request struct {
	Product Product            `json:"product"`
	Inputs  StageInputs        `json:"inputs"`
	Options CalculationOptions `json:"options"`
}

// DataQuality is the declared confidence tier of a result.
type DataQuality string

const (
	QualityHigh   DataQuality = "high"
	QualityMedium DataQuality = "medium"
	QualityLow    DataQuality = "low"
)

// Lower returns the next tier down. Lowering low stays low.
func (q DataQuality) Lower() DataQuality {
	switch q {
	case QualityHigh:
		return QualityMedium
	case QualityMedium:
		return QualityLow
	default:
		return QualityLow
	}
}

// Impact category identifiers used in result output.
const (
	CategoryClimateChange   = "climate_change"
	CategoryWaterDepletion  = "water_depletion"
	CategoryLandUse         = "land_use"
	CategoryWasteGeneration = "waste_generation"
	CategoryAcidification   = "acidification"
	CategoryEutrophication  = "eutrophication"
)

// ImpactValue is one (category, value, unit) entry in a result. Order in
// the Impacts slice is significant and stable across runs.
type ImpactValue struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
}

// WasteOutput summarizes solid waste attributable to the product.
type WasteOutput struct {
	TotalKg      float64 `json:"total_kg"`
	RecyclableKg float64 `json:"recyclable_kg"`
	HazardousKg  float64 `json:"hazardous_kg"`
}

// ResultMetadata records how a result was produced.
type ResultMetadata struct {
	// Method is the tier that actually produced the result, which may be
	// lower than the requested tier after fallback.
	Method Method `json:"method"`

	FactorVersion  string        `json:"factor_version"`
	DataQuality    DataQuality   `json:"data_quality"`
	UncertaintyPct float64       `json:"uncertainty_pct"`
	ComputedAt     time.Time     `json:"computed_at"`
	CacheHit       bool          `json:"cache_hit"`
	Duration       time.Duration `json:"duration"`

	// Annotation is set by the professional tier for report generation.
	Annotation string `json:"annotation,omitempty"`
}

// CalculationResult is the full output of one calculation. Results are
// immutable once produced; a re-run creates a new instance.
type CalculationResult struct {
	TotalCarbonKg float64           `json:"total_carbon_kg"`
	TotalWaterL   float64           `json:"total_water_l"`
	Breakdown     map[Stage]float64 `json:"breakdown"`
	Impacts       []ImpactValue     `json:"impacts"`
	Waste         WasteOutput       `json:"waste"`
	Metadata      ResultMetadata    `json:"metadata"`
}

// Clone returns a deep copy. The cache hands out clones so callers can
// never mutate a shared entry.
func (r *CalculationResult) Clone() *CalculationResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Breakdown = make(map[Stage]float64, len(r.Breakdown))
	for k, v := range r.Breakdown {
		out.Breakdown[k] = v
	}
	out.Impacts = append([]ImpactValue(nil), r.Impacts...)
	return &out
}

// Summary reduces a result to the fields the persistent store keeps
// against a product id.
func (r *CalculationResult) Summary(productID string) ResultSummary {
	return ResultSummary{
		ProductID:     productID,
		TotalCarbonKg: r.TotalCarbonKg,
		TotalWaterL:   r.TotalWaterL,
		Method:        r.Metadata.Method,
		FactorVersion: r.Metadata.FactorVersion,
		DataQuality:   r.Metadata.DataQuality,
		ComputedAt:    r.Metadata.ComputedAt,
	}
}

// ResultSummary is the write-through record synced to the persistent store.
type ResultSummary struct {
	ProductID     string      `json:"product_id"`
	TotalCarbonKg float64     `json:"total_carbon_kg"`
	TotalWaterL   float64     `json:"total_water_l"`
	Method        Method      `json:"method"`
	FactorVersion string      `json:"factor_version"`
	DataQuality   DataQuality `json:"data_quality"`
	ComputedAt    time.Time   `json:"computed_at"`
}
