// Package metrics exposes Prometheus collectors for the calculation
// engine, cache tiers, and job pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles every metric the engine emits. Construct one per
// process with NewCollector and share it by injection.
type Collector struct {
	registry *prometheus.Registry

	calculations *prometheus.CounterVec
	calcDuration *prometheus.HistogramVec
	fallbacks    prometheus.Counter

	cacheHits   *prometheus.CounterVec
	cacheMisses prometheus.Counter

	jobsEnqueued  prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsFailed    prometheus.Counter
	jobsCancelled prometheus.Counter
	jobsPending   prometheus.Gauge

	syncFailures prometheus.Counter
}

// NewCollector creates and registers all collectors on a private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecotally_calculations_total",
			Help: "Completed calculations by producing method tier.",
		}, []string{"method"}),
		calcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecotally_calculation_duration_seconds",
			Help:    "Calculation latency by producing method tier.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecotally_strategy_fallbacks_total",
			Help: "Times a strategy tier failed and a lower tier was tried.",
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecotally_cache_hits_total",
			Help: "Cache hits by tier (memory, distributed).",
		}, []string{"tier"}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecotally_cache_misses_total",
			Help: "Lookups that missed both cache tiers.",
		}),
		jobsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecotally_jobs_enqueued_total",
			Help: "Jobs accepted onto the queue.",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecotally_jobs_completed_total",
			Help: "Jobs finished successfully.",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecotally_jobs_failed_total",
			Help: "Jobs that exhausted retries or were cancelled mid-flight.",
		}),
		jobsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecotally_jobs_cancelled_total",
			Help: "Jobs cancelled before a worker claimed them.",
		}),
		jobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecotally_jobs_pending",
			Help: "Jobs currently waiting for a worker.",
		}),
		syncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecotally_result_sync_failures_total",
			Help: "Best-effort result writes that failed.",
		}),
	}

	reg.MustRegister(
		c.calculations, c.calcDuration, c.fallbacks,
		c.cacheHits, c.cacheMisses,
		c.jobsEnqueued, c.jobsCompleted, c.jobsFailed, c.jobsCancelled, c.jobsPending,
		c.syncFailures,
	)
	return c
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveCalculation records one completed calculation.
func (c *Collector) ObserveCalculation(method string, seconds float64) {
	c.calculations.WithLabelValues(method).Inc()
	c.calcDuration.WithLabelValues(method).Observe(seconds)
}

// IncFallback records one strategy-tier fallback.
func (c *Collector) IncFallback() { c.fallbacks.Inc() }

// IncCacheHit records a hit on the named tier.
func (c *Collector) IncCacheHit(tier string) { c.cacheHits.WithLabelValues(tier).Inc() }

// IncCacheMiss records a lookup that missed both tiers.
func (c *Collector) IncCacheMiss() { c.cacheMisses.Inc() }

// JobEnqueued records an accepted job.
func (c *Collector) JobEnqueued() {
	c.jobsEnqueued.Inc()
	c.jobsPending.Inc()
}

// JobClaimed records a worker claiming a pending job.
func (c *Collector) JobClaimed() { c.jobsPending.Dec() }

// JobCompleted records a successful job.
func (c *Collector) JobCompleted() { c.jobsCompleted.Inc() }

// JobFailed records a failed job.
func (c *Collector) JobFailed() { c.jobsFailed.Inc() }

// JobCancelled records a job removed before claim.
func (c *Collector) JobCancelled() {
	c.jobsCancelled.Inc()
	c.jobsPending.Dec()
}

// SyncFailure records a swallowed result-sync error.
func (c *Collector) SyncFailure() { c.syncFailures.Inc() }
