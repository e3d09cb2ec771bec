// Package cache implements the two-tier result cache: a bounded in-process
// tier with access-count eviction, and an optional distributed tier with a
// longer TTL horizon. Keys are content hashes over normalized inputs, the
// requested method, and the factor-table version.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotally/ecotally/internal/lca"
	"github.com/ecotally/ecotally/internal/metrics"
)

// DefaultDistributedTimeout bounds every distributed-tier call so a slow
// or absent backend never blocks a calculation.
const DefaultDistributedTimeout = 2 * time.Second

// Manager orchestrates lookups across the two tiers. A nil distributed
// tier degrades to memory-only behavior; distributed errors are logged and
// swallowed.
type Manager struct {
	memory         *MemoryStore
	distributed    Distributed
	distributedTTL time.Duration
	timeout        time.Duration
	log            zerolog.Logger
	metrics        *metrics.Collector
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	MemoryCapacity     int
	MemoryTTL          time.Duration
	Distributed        Distributed // nil disables the distributed tier
	DistributedTTL     time.Duration
	DistributedTimeout time.Duration
	Logger             zerolog.Logger
	Metrics            *metrics.Collector
}

// NewManager builds a cache manager. Zero option fields take defaults.
func NewManager(opts ManagerOptions) *Manager {
	if opts.DistributedTTL <= 0 {
		opts.DistributedTTL = DefaultDistributedTTL
	}
	if opts.DistributedTimeout <= 0 {
		opts.DistributedTimeout = DefaultDistributedTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	return &Manager{
		memory:         NewMemoryStore(opts.MemoryCapacity, opts.MemoryTTL),
		distributed:    opts.Distributed,
		distributedTTL: opts.DistributedTTL,
		timeout:        opts.DistributedTimeout,
		log:            opts.Logger,
		metrics:        opts.Metrics,
	}
}

// Lookup checks the memory tier, then the distributed tier. A distributed
// hit is promoted into the memory tier before returning. The returned
// result is a caller-owned copy with its cache-hit flag set.
func (m *Manager) Lookup(ctx context.Context, key string) (*lca.CalculationResult, bool) {
	if res, ok := m.memory.Get(key); ok {
		m.metrics.IncCacheHit("memory")
		res.Metadata.CacheHit = true
		return res, true
	}

	if m.distributed != nil {
		if res, ok := m.lookupDistributed(ctx, key); ok {
			m.metrics.IncCacheHit("distributed")
			m.memory.Put(key, res)
			res.Metadata.CacheHit = true
			return res, true
		}
	}

	m.metrics.IncCacheMiss()
	return nil, false
}

// Store populates both tiers. Only complete results reach here; partial
// computations never do. Distributed failures are logged at warn and do not
// affect the caller.
func (m *Manager) Store(ctx context.Context, key string, result *lca.CalculationResult) {
	m.memory.Put(key, result)

	if m.distributed == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("could not serialize result for distributed cache")
		return
	}

	dctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.distributed.Set(dctx, key, data, m.distributedTTL); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("distributed cache set failed")
	}
}

func (m *Manager) lookupDistributed(ctx context.Context, key string) (*lca.CalculationResult, bool) {
	dctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	data, ok, err := m.distributed.Get(dctx, key)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("distributed cache get failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var res lca.CalculationResult
	if err := json.Unmarshal(data, &res); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("distributed cache entry is malformed")
		return nil, false
	}
	return &res, true
}
