// Package resultsync writes completed calculation summaries through to the
// persistent store. Writes are fire-and-forget: a failure is logged and
// swallowed, never reported to the calculation's caller.
package resultsync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotally/ecotally/internal/lca"
	"github.com/ecotally/ecotally/internal/metrics"
)

// DefaultWriteTimeout bounds each store write.
const DefaultWriteTimeout = 5 * time.Second

// maxConcurrentWrites caps the writers hitting the store at once, so a
// burst of completions cannot pile up against a single-connection database.
const maxConcurrentWrites = 4

// ResultStore is the slice of the persistent store the syncer needs.
type ResultStore interface {
	WriteResult(ctx context.Context, productID string, summary lca.ResultSummary) error
}

// Syncer performs asynchronous write-through of result summaries.
type Syncer struct {
	store   ResultStore
	timeout time.Duration
	log     zerolog.Logger
	metrics *metrics.Collector
	sem     chan struct{}
	wg      sync.WaitGroup
}

// New builds a Syncer. A nil store disables syncing entirely.
func New(store ResultStore, timeout time.Duration, log zerolog.Logger, m *metrics.Collector) *Syncer {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Syncer{
		store:   store,
		timeout: timeout,
		log:     log.With().Str("component", "resultsync").Logger(),
		metrics: m,
		sem:     make(chan struct{}, maxConcurrentWrites),
	}
}

// Write asynchronously persists the result summary for the product.
// Returns immediately; the write happens on its own goroutine with its own
// deadline, detached from the caller's context. At most maxConcurrentWrites
// writers touch the store at once; the rest wait their turn.
func (s *Syncer) Write(productID string, result *lca.CalculationResult) {
	if s.store == nil || productID == "" || result == nil {
		return
	}

	summary := result.Summary(productID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.store.WriteResult(ctx, productID, summary); err != nil {
			s.metrics.SyncFailure()
			s.log.Warn().Err(err).Str("product_id", productID).Msg("result sync failed")
		}
	}()
}

// Flush blocks until all in-flight writes have settled. Used by tests and
// at shutdown.
func (s *Syncer) Flush() {
	s.wg.Wait()
}
