package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ecotally/ecotally/internal/jobs"
	"github.com/ecotally/ecotally/internal/lca"
)

// Memory is an in-process store for tests and for running without a
// database file. It satisfies the same consumer interfaces as SQLite.
type Memory struct {
	mu      sync.Mutex
	jobs    map[string]jobs.Job
	results map[string][]lca.ResultSummary
}

// NewMemory builds an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:    make(map[string]jobs.Job),
		results: make(map[string][]lca.ResultSummary),
	}
}

// CreateJob inserts a job record.
func (m *Memory) CreateJob(_ context.Context, job jobs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	m.jobs[job.ID] = job
	return nil
}

// UpdateJob applies a partial update.
func (m *Memory) UpdateJob(_ context.Context, id string, update jobs.JobUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = *update.ErrorMessage
	}
	if update.Result != nil {
		job.Result = update.Result.Clone()
	}
	if update.CompletedAt != nil {
		job.CompletedAt = *update.CompletedAt
	}
	if update.Attempts != nil {
		job.Attempts = *update.Attempts
	}
	m.jobs[id] = job
	return nil
}

// ClaimJob marks a pending job processing. False means the job is missing
// or already claimed.
func (m *Memory) ClaimJob(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != jobs.StatusPending {
		return false, nil
	}
	job.Status = jobs.StatusProcessing
	m.jobs[id] = job
	return true, nil
}

// GetJob loads one job record.
func (m *Memory) GetJob(_ context.Context, id string) (*jobs.Job, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, false, nil
	}
	clone := job.Clone()
	return clone, true, nil
}

// ListUnfinished returns jobs still in a non-terminal state.
func (m *Memory) ListUnfinished(_ context.Context) ([]jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []jobs.Job
	for _, job := range m.jobs {
		if !job.Status.Terminal() {
			out = append(out, *job.Clone())
		}
	}
	return out, nil
}

// WriteResult appends a result summary for the product.
func (m *Memory) WriteResult(_ context.Context, productID string, summary lca.ResultSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[productID] = append(m.results[productID], summary)
	return nil
}

// Results returns the synced summaries for a product. Test helper.
func (m *Memory) Results(productID string) []lca.ResultSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]lca.ResultSummary(nil), m.results[productID]...)
}
