// Package engine implements the calculation strategy selector. A requested
// method resolves to an ordered chain of strategies with a uniform contract,
// iterated until one produces a result; only when every tier fails does an
// error reach the caller.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/lca"
	"github.com/ecotally/ecotally/internal/metrics"
	"github.com/ecotally/ecotally/internal/verified"
)

// Uncertainty bands per producing tier, in percent.
const (
	uncertaintySimple   = 20.0
	uncertaintyEnhanced = 10.0
	uncertaintyVerified = 5.0
)

// ErrNoVerifiedBackend is returned by the verified strategy when no backend
// is configured; the chain falls back past it.
var ErrNoVerifiedBackend = errors.New("no verified backend configured")

// Engine computes calculation results. Construct once and share; all
// methods are safe for concurrent use.
type Engine struct {
	model    *factors.Model
	verified verified.Evaluator // nil when not configured
	log      zerolog.Logger
	metrics  *metrics.Collector
}

// New builds an Engine. The evaluator may be nil, removing the verified
// tier from every chain's reachable set (it still falls back in order).
func New(model *factors.Model, evaluator verified.Evaluator, log zerolog.Logger, m *metrics.Collector) *Engine {
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Engine{
		model:    model,
		verified: evaluator,
		log:      log.With().Str("component", "engine").Logger(),
		metrics:  m,
	}
}

// FactorVersion exposes the active factor-table version for cache keying.
func (e *Engine) FactorVersion() string {
	return e.model.Version()
}

// strategy is one tier in a fallback chain.
type strategy struct {
	name lca.Method
	run  func(ctx context.Context, product lca.Product, inputs lca.StageInputs) (*lca.CalculationResult, error)
}

// chain resolves a requested method to its ordered, exhaustive strategy
// list. Verified-backed methods never skip a tier: verified, then enhanced,
// then simple.
func (e *Engine) chain(method lca.Method) []strategy {
	simple := strategy{name: lca.MethodSimple, run: e.runLocal(false)}
	enhanced := strategy{name: lca.MethodEnhanced, run: e.runLocal(true)}
	verifiedTier := strategy{name: lca.MethodVerified, run: e.runVerified}

	switch method {
	case lca.MethodSimple:
		return []strategy{simple}
	case lca.MethodEnhanced, lca.MethodProfessional:
		return []strategy{enhanced}
	case lca.MethodVerified, lca.MethodHybrid:
		return []strategy{verifiedTier, enhanced, simple}
	default:
		return []strategy{verifiedTier, enhanced, simple}
	}
}

// Compute runs the fallback chain for the requested method and stamps the
// result's metadata with the tier that actually produced it. The returned
// error is non-nil only when every tier in the chain failed, and carries
// the last tier's failure.
func (e *Engine) Compute(ctx context.Context, product lca.Product, inputs lca.StageInputs, opts lca.CalculationOptions) (*lca.CalculationResult, error) {
	start := time.Now()
	normalized := lca.Normalize(inputs)
	defaultedEnums := lca.HasUnknownEnums(inputs)

	var lastErr error
	for i, tier := range e.chain(opts.Method) {
		if i > 0 {
			e.metrics.IncFallback()
		}

		result, err := tier.run(ctx, product, normalized)
		if err != nil {
			e.log.Warn().
				Str("tier", string(tier.name)).
				Str("product_id", product.ID).
				Err(err).
				Msg("calculation tier failed, trying next")
			lastErr = err
			continue
		}

		e.finalize(result, tier.name, opts, defaultedEnums, start)
		e.metrics.ObserveCalculation(string(tier.name), time.Since(start).Seconds())
		e.log.Debug().
			Str("tier", string(tier.name)).
			Str("product_id", product.ID).
			Float64("total_carbon_kg", result.TotalCarbonKg).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("calculation complete")
		return result, nil
	}

	return nil, fmt.Errorf("all calculation tiers failed: %w", lastErr)
}

// finalize stamps result metadata after a tier succeeds.
func (e *Engine) finalize(result *lca.CalculationResult, producedBy lca.Method, opts lca.CalculationOptions, defaultedEnums bool, start time.Time) {
	result.Metadata.Method = producedBy
	if result.Metadata.FactorVersion == "" {
		result.Metadata.FactorVersion = e.model.Version()
	}
	result.Metadata.ComputedAt = time.Now().UTC()
	result.Metadata.CacheHit = false
	result.Metadata.Duration = time.Since(start)

	switch producedBy {
	case lca.MethodVerified:
		result.Metadata.UncertaintyPct = uncertaintyVerified
	case lca.MethodEnhanced:
		result.Metadata.UncertaintyPct = uncertaintyEnhanced
	default:
		result.Metadata.UncertaintyPct = uncertaintySimple
	}

	if defaultedEnums {
		result.Metadata.DataQuality = result.Metadata.DataQuality.Lower()
	}

	if opts.Method == lca.MethodProfessional {
		result.Metadata.Annotation = professionalAnnotation(result)
	}
}

// runVerified delegates to the external backend. Its errors are never
// surfaced raw; the chain translates them into fallback.
func (e *Engine) runVerified(ctx context.Context, product lca.Product, inputs lca.StageInputs) (*lca.CalculationResult, error) {
	if e.verified == nil {
		return nil, ErrNoVerifiedBackend
	}

	result, err := e.verified.Evaluate(ctx, product, inputs)
	if err != nil {
		return nil, err
	}

	if result.Metadata.DataQuality == "" {
		result.Metadata.DataQuality = lca.QualityHigh
	}
	return result, nil
}

// professionalAnnotation summarizes a result for report generation.
func professionalAnnotation(r *lca.CalculationResult) string {
	return fmt.Sprintf(
		"Prepared for professional reporting: %.3f kg CO2e, %.1f L water, %s factors, data quality %s (±%.0f%%)",
		r.TotalCarbonKg, r.TotalWaterL, r.Metadata.FactorVersion, r.Metadata.DataQuality, r.Metadata.UncertaintyPct,
	)
}
