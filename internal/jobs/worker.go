package jobs

import (
	"context"
	"time"

	"github.com/ecotally/ecotally/internal/lca"
)

// runWorker is one pool member's loop: claim, execute, repeat. The local
// queue is tried first; when it is empty the shared store is swept, so jobs
// enqueued by another process against the same store still get picked up.
func (m *Manager) runWorker(ctx context.Context, id int) error {
	log := m.log.With().Int("worker", id).Logger()
	for {
		job := m.claim(ctx)
		if job == nil {
			job = m.claimFromStore(ctx)
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.wake:
			case <-time.After(idlePoll):
			}
			continue
		}

		log.Debug().Str("job_id", job.ID).Msg("job claimed")
		m.execute(ctx, job)
	}
}

// claim takes the next runnable job off the local queue. Entries that were
// cancelled or already handled are skipped, not treated as an empty queue.
// The store claim is conditional on the row still being pending: losing it
// means another worker process owns the job, and the local copy is dropped.
func (m *Manager) claim(ctx context.Context) *Job {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return nil
		}
		id := m.queue[0]
		m.queue = m.queue[1:]

		job, ok := m.jobs[id]
		if !ok || job.Status != StatusPending {
			m.mu.Unlock()
			continue
		}
		job.Status = StatusProcessing
		job.Progress = progressClaimed
		m.mu.Unlock()

		claimed, err := m.claimRow(ctx, id)
		if err != nil {
			// Store trouble never stalls the queue; in-memory state
			// stays authoritative.
			m.log.Warn().Err(err).Str("job_id", id).Msg("job store claim failed")
		} else if !claimed {
			m.mu.Lock()
			delete(m.jobs, id)
			delete(m.cancelled, id)
			m.mu.Unlock()
			m.log.Debug().Str("job_id", id).Msg("job taken by another worker process")
			continue
		}

		m.metrics.JobClaimed()
		progress := progressClaimed
		m.persistUpdate(ctx, id, JobUpdate{Progress: &progress})
		return job
	}
}

// claimFromStore adopts one pending job written to the shared store by a
// process that is not running workers. Rows already tracked locally are
// left to the local queue; processing rows belong to a live worker
// elsewhere and are not touched.
func (m *Manager) claimFromStore(ctx context.Context) *Job {
	if ctx.Err() != nil {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	rows, err := m.store.ListUnfinished(sctx)
	cancel()
	if err != nil {
		m.log.Warn().Err(err).Msg("job store sweep failed")
		return nil
	}

	for i := range rows {
		row := rows[i]
		if row.Status != StatusPending {
			continue
		}
		m.mu.Lock()
		_, known := m.jobs[row.ID]
		m.mu.Unlock()
		if known {
			continue
		}

		claimed, err := m.claimRow(ctx, row.ID)
		if err != nil {
			m.log.Warn().Err(err).Str("job_id", row.ID).Msg("job store claim failed")
			continue
		}
		if !claimed {
			continue
		}

		job := row
		job.Status = StatusProcessing
		job.Progress = progressClaimed
		m.mu.Lock()
		m.jobs[job.ID] = &job
		m.mu.Unlock()

		m.metrics.JobEnqueued()
		m.metrics.JobClaimed()
		progress := progressClaimed
		m.persistUpdate(ctx, job.ID, JobUpdate{Progress: &progress})
		m.log.Info().Str("job_id", job.ID).Msg("adopted job from store")
		return &job
	}
	return nil
}

// claimRow performs the conditional pending-to-processing store update
// under the store timeout.
func (m *Manager) claimRow(ctx context.Context, jobID string) (bool, error) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.StoreTimeout)
	defer cancel()
	return m.store.ClaimJob(sctx, jobID)
}

// execute runs the calculation with bounded retries, then settles the job
// into its terminal state. Cancellation is cooperative: an in-flight
// computation is not interrupted, but a flagged job's result is discarded
// and the job marked failed once control returns.
func (m *Manager) execute(ctx context.Context, job *Job) {
	result, attempts, err := m.attemptWithRetries(ctx, job.Request)

	m.mu.Lock()
	cancelled := m.cancelled[job.ID]
	delete(m.cancelled, job.ID)

	now := time.Now().UTC()
	job.Attempts = attempts
	switch {
	case cancelled:
		job.Status = StatusFailed
		job.ErrorMessage = cancelReason
		job.Result = nil
		job.CompletedAt = now
	case err != nil:
		job.Status = StatusFailed
		job.ErrorMessage = err.Error()
		job.Result = nil
		job.CompletedAt = now
	default:
		job.Status = StatusCompleted
		job.Result = result
		job.Progress = progressComputed
	}
	m.mu.Unlock()

	switch {
	case cancelled:
		m.metrics.JobFailed()
		m.persistUpdate(ctx, job.ID, failedUpdate(cancelReason))
		m.log.Info().Str("job_id", job.ID).Msg("job cancelled after claim, result discarded")

	case err != nil:
		m.metrics.JobFailed()
		m.persistUpdate(ctx, job.ID, failedUpdate(err.Error()))
		m.log.Warn().Err(err).Str("job_id", job.ID).Int("attempts", attempts).Msg("job failed")

	default:
		// The persistence write is the 100% checkpoint.
		status := StatusCompleted
		progress := progressPersisted
		m.persistUpdate(ctx, job.ID, JobUpdate{
			Status:      &status,
			Progress:    &progress,
			Result:      result,
			CompletedAt: &now,
			Attempts:    &attempts,
		})

		m.mu.Lock()
		job.Progress = progressPersisted
		job.CompletedAt = now
		m.mu.Unlock()

		m.metrics.JobCompleted()
		m.log.Info().Str("job_id", job.ID).Int("attempts", attempts).Msg("job completed")
	}
}

// attemptWithRetries executes the compute function up to MaxAttempts times
// with exponential backoff between failures.
func (m *Manager) attemptWithRetries(ctx context.Context, req lca.Request) (*lca.CalculationResult, int, error) {
	var lastErr error
	backoff := m.cfg.BackoffBase

	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		result, err := m.compute(ctx, req)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		if attempt == m.cfg.MaxAttempts {
			return nil, attempt, lastErr
		}

		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, m.cfg.MaxAttempts, lastErr
}
