// Package service wires the calculation engine, two-tier cache, job
// orchestrator, and result sync into the caller-facing API. One Service is
// constructed at process start and passed to handlers explicitly; there is
// no global instance.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ecotally/ecotally/internal/engine"
	"github.com/ecotally/ecotally/internal/engine/cache"
	"github.com/ecotally/ecotally/internal/jobs"
	"github.com/ecotally/ecotally/internal/lca"
	"github.com/ecotally/ecotally/internal/metrics"
	"github.com/ecotally/ecotally/internal/resultsync"
)

// Outcome is the result of a Compute call: exactly one of Result or Job is
// set. Job is returned when the request was routed to the queue.
type Outcome struct {
	Result *lca.CalculationResult `json:"result,omitempty"`
	Job    *jobs.Handle           `json:"job,omitempty"`
}

// Deps are the collaborators a Service needs. JobStore may be nil to
// disable the asynchronous path entirely.
type Deps struct {
	Engine   *engine.Engine
	Cache    *cache.Manager
	JobStore jobs.Store
	Syncer   *resultsync.Syncer
	Jobs     jobs.Config
	Logger   zerolog.Logger
	Metrics  *metrics.Collector
}

// Service is the calculation orchestration facade.
type Service struct {
	engine           *engine.Engine
	cache            *cache.Manager
	jobs             *jobs.Manager
	syncer           *resultsync.Syncer
	offloadThreshold int
	log              zerolog.Logger
}

// New assembles a Service. The job manager's compute function runs the
// engine directly, so queued work can never recursively re-enter the queue.
func New(deps Deps) *Service {
	s := &Service{
		engine:           deps.Engine,
		cache:            deps.Cache,
		syncer:           deps.Syncer,
		offloadThreshold: deps.Jobs.OffloadLineItems,
		log:              deps.Logger.With().Str("component", "service").Logger(),
	}
	if s.offloadThreshold <= 0 {
		s.offloadThreshold = jobs.DefaultOffloadLineItems
	}

	if deps.JobStore != nil {
		s.jobs = jobs.NewManager(deps.JobStore, s.executeForJob, deps.Jobs, deps.Logger, deps.Metrics)
	}
	return s
}

// JobManager exposes the underlying manager so the worker command can run
// the pool and recovery. Nil when the asynchronous path is disabled.
func (s *Service) JobManager() *jobs.Manager {
	return s.jobs
}

// Compute is the caller-facing entry point. The cache is consulted first;
// on a miss the request either runs synchronously or is enqueued per the
// offload predicate. The only errors surfaced are exhaustion errors from
// the strategy chain.
func (s *Service) Compute(ctx context.Context, req lca.Request) (*Outcome, error) {
	key := s.cacheKey(req)

	if key != "" {
		if result, ok := s.cache.Lookup(ctx, key); ok {
			s.log.Debug().Str("product_id", req.Product.ID).Msg("cache hit")
			return &Outcome{Result: result}, nil
		}
	}

	if s.jobs != nil && jobs.ShouldOffload(req, s.offloadThreshold) {
		handle, err := s.jobs.Enqueue(ctx, req)
		if err == nil {
			return &Outcome{Job: &handle}, nil
		}
		// A store outage degrades to the synchronous path rather than
		// failing the calculation.
		s.log.Warn().Err(err).Msg("job enqueue failed, computing synchronously")
	}

	result, err := s.engine.Compute(ctx, req.Product, req.Inputs, req.Options)
	if err != nil {
		return nil, err
	}

	if key != "" {
		s.cache.Store(ctx, key, result)
	}
	s.syncer.Write(req.Product.ID, result)

	return &Outcome{Result: result}, nil
}

// JobStatus returns the current job record. found is false for unknown ids.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*jobs.Job, bool, error) {
	if s.jobs == nil {
		return nil, false, nil
	}
	return s.jobs.Status(ctx, jobID)
}

// CancelJob cancels a pending or processing job.
func (s *Service) CancelJob(ctx context.Context, jobID string) (bool, error) {
	if s.jobs == nil {
		return false, nil
	}
	return s.jobs.Cancel(ctx, jobID)
}

// executeForJob is the worker-side compute function: engine, cache
// population, and result sync, with no route back into the queue.
func (s *Service) executeForJob(ctx context.Context, req lca.Request) (*lca.CalculationResult, error) {
	result, err := s.engine.Compute(ctx, req.Product, req.Inputs, req.Options)
	if err != nil {
		return nil, err
	}

	if key := s.cacheKey(req); key != "" {
		s.cache.Store(ctx, key, result)
	}
	s.syncer.Write(req.Product.ID, result)
	return result, nil
}

// cacheKey derives the request's cache key, or "" when caching is bypassed.
// The key covers the requested method, so a hybrid request that resolved to
// a lower tier is still replayed from cache for identical hybrid requests.
func (s *Service) cacheKey(req lca.Request) string {
	if !req.Options.UseCache {
		return ""
	}
	key, err := cache.GenerateKey(req.Inputs, req.Options.Method, s.engine.FactorVersion())
	if err != nil {
		s.log.Warn().Err(err).Msg("cache key derivation failed, bypassing cache")
		return ""
	}
	return key
}
