package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ecotally/ecotally/internal/lca"
	"github.com/ecotally/ecotally/internal/metrics"
)

// Orchestration defaults.
const (
	DefaultWorkers      = 4
	DefaultMaxAttempts  = 3
	DefaultBackoffBase  = 100 * time.Millisecond
	DefaultStoreTimeout = 3 * time.Second

	// DefaultOffloadLineItems is the input-complexity threshold above
	// which a synchronous request is routed to the queue.
	DefaultOffloadLineItems = 25

	// Progress checkpoints.
	progressClaimed   = 10
	progressComputed  = 80
	progressPersisted = 100

	// idlePoll is how often an idle worker rechecks the queue when no
	// wake signal arrives.
	idlePoll = 200 * time.Millisecond

	// Duration estimates reported on handles.
	estimateVerified = 15 * time.Second
	estimateLocal    = 5 * time.Second
)

// cancelReason is recorded on jobs cancelled by the caller.
const cancelReason = "cancelled by caller"

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("job queue is closed")

// Config tunes the Manager. Zero fields take defaults.
type Config struct {
	Workers          int
	MaxAttempts      int
	BackoffBase      time.Duration
	StoreTimeout     time.Duration
	OffloadLineItems int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.OffloadLineItems <= 0 {
		c.OffloadLineItems = DefaultOffloadLineItems
	}
	return c
}

// ShouldOffload is the routing predicate between the synchronous path and
// the queue: verified and professional methods, explicit caller opt-in, and
// inputs above the line-item threshold all queue.
func ShouldOffload(req lca.Request, threshold int) bool {
	if req.Options.ForceJobOffload {
		return true
	}
	switch req.Options.Method {
	case lca.MethodVerified, lca.MethodProfessional:
		return true
	}
	return req.Inputs.LineItems() > threshold
}

// Manager owns the job state machine. In-memory state is authoritative for
// a running process; the Store carries durability across restarts.
type Manager struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	queue     []string        // pending job IDs, FIFO
	cancelled map[string]bool // processing jobs flagged for cancellation
	closed    bool

	wake    chan struct{}
	store   Store
	compute ComputeFunc
	cfg     Config
	log     zerolog.Logger
	metrics *metrics.Collector
}

// NewManager builds a Manager. compute must not be nil; store may be a
// memory implementation when durability is not needed.
func NewManager(store Store, compute ComputeFunc, cfg Config, log zerolog.Logger, m *metrics.Collector) *Manager {
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Manager{
		jobs:      make(map[string]*Job),
		cancelled: make(map[string]bool),
		wake:      make(chan struct{}, 1),
		store:     store,
		compute:   compute,
		cfg:       cfg.withDefaults(),
		log:       log.With().Str("component", "jobs").Logger(),
		metrics:   m,
	}
}

// Enqueue accepts a calculation onto the queue and returns its handle. The
// job record is persisted before the handle is returned; a persistence
// failure rejects the enqueue so the caller can fall back to the
// synchronous path.
func (m *Manager) Enqueue(ctx context.Context, req lca.Request) (Handle, error) {
	estimate := estimateLocal
	switch req.Options.Method {
	case lca.MethodVerified, lca.MethodProfessional:
		estimate = estimateVerified
	}

	job := &Job{
		ID:                ulid.Make().String(),
		ProductID:         req.Product.ID,
		Status:            StatusPending,
		CreatedAt:         time.Now().UTC(),
		Request:           req,
		EstimatedDuration: estimate,
	}

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	if err := m.store.CreateJob(sctx, *job); err != nil {
		return Handle{}, fmt.Errorf("persisting job record: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Handle{}, ErrQueueClosed
	}
	m.jobs[job.ID] = job
	m.queue = append(m.queue, job.ID)
	m.mu.Unlock()

	m.metrics.JobEnqueued()
	m.signal()

	m.log.Info().Str("job_id", job.ID).Str("product_id", job.ProductID).Msg("job enqueued")
	return Handle{JobID: job.ID, Status: StatusPending, EstimatedDuration: estimate}, nil
}

// Status returns the job's current state. It is idempotent and
// side-effect-free. Jobs unknown to this process are looked up in the
// store, which serves status across restarts.
func (m *Manager) Status(ctx context.Context, jobID string) (*Job, bool, error) {
	m.mu.Lock()
	if job, ok := m.jobs[jobID]; ok {
		clone := job.Clone()
		m.mu.Unlock()
		return clone, true, nil
	}
	m.mu.Unlock()

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	return m.store.GetJob(sctx, jobID)
}

// Cancel cancels a job. A pending job is removed before any work begins
// and its store record marked failed with the cancellation reason. A
// processing job is flagged: the in-flight computation is not interrupted,
// but its result is discarded and the job marked failed once control
// returns. Returns false for unknown or already-terminal jobs.
func (m *Manager) Cancel(ctx context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status.Terminal() {
		m.mu.Unlock()
		return false, nil
	}

	switch job.Status {
	case StatusPending:
		delete(m.jobs, jobID)
		for i, id := range m.queue {
			if id == jobID {
				m.queue = append(m.queue[:i], m.queue[i+1:]...)
				break
			}
		}
		m.mu.Unlock()

		m.metrics.JobCancelled()
		m.persistUpdate(ctx, jobID, failedUpdate(cancelReason))
		m.log.Info().Str("job_id", jobID).Msg("pending job cancelled")
		return true, nil

	case StatusProcessing:
		m.cancelled[jobID] = true
		m.mu.Unlock()
		m.log.Info().Str("job_id", jobID).Msg("processing job flagged for cancellation")
		return true, nil

	default:
		m.mu.Unlock()
		return false, nil
	}
}

// Recover reloads unfinished jobs from the store, resetting any that were
// mid-flight when the previous process died back to pending. Call once at
// startup, before Run.
func (m *Manager) Recover(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()

	unfinished, err := m.store.ListUnfinished(sctx)
	if err != nil {
		return fmt.Errorf("listing unfinished jobs: %w", err)
	}

	for i := range unfinished {
		job := unfinished[i]

		m.mu.Lock()
		_, exists := m.jobs[job.ID]
		m.mu.Unlock()
		if exists {
			continue
		}

		// Rows stuck in processing must read pending again or the
		// conditional claim will skip them.
		if job.Status == StatusProcessing {
			status := StatusPending
			progress := 0
			m.persistUpdate(ctx, job.ID, JobUpdate{Status: &status, Progress: &progress})
		}

		job.Status = StatusPending
		job.Progress = 0
		m.mu.Lock()
		m.jobs[job.ID] = &job
		m.queue = append(m.queue, job.ID)
		m.mu.Unlock()

		m.metrics.JobEnqueued()
		m.log.Info().Str("job_id", job.ID).Msg("recovered unfinished job")
	}
	m.signal()
	return nil
}

// Run drains the queue with the configured worker pool until the context
// is cancelled. It returns the context's error on shutdown.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < m.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			return m.runWorker(gctx, worker)
		})
	}
	return g.Wait()
}

// Close rejects further enqueues. In-flight jobs finish under Run's context.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// signal nudges one idle worker without blocking.
func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// persistUpdate applies a store update under the store timeout, logging and
// swallowing failures: the in-memory state machine remains authoritative.
func (m *Manager) persistUpdate(ctx context.Context, jobID string, update JobUpdate) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.StoreTimeout)
	defer cancel()
	if err := m.store.UpdateJob(sctx, jobID, update); err != nil {
		m.log.Warn().Err(err).Str("job_id", jobID).Msg("job store update failed")
	}
}

func failedUpdate(msg string) JobUpdate {
	status := StatusFailed
	now := time.Now().UTC()
	return JobUpdate{Status: &status, ErrorMessage: &msg, CompletedAt: &now}
}
