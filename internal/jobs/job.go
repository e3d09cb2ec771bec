// Package jobs implements the asynchronous calculation pipeline: a durable
// job queue with a worker pool, progress tracking, cooperative cancellation,
// and recovery of unfinished jobs after a process restart.
package jobs

import (
	"context"
	"time"

	"github.com/ecotally/ecotally/internal/lca"
)

// Status is a job lifecycle state. Terminal states are set exactly once and
// never reverted.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one queued calculation. A job never carries both a result and an
// error message.
type Job struct {
	ID           string                 `json:"id"`
	ProductID    string                 `json:"product_id"`
	Status       Status                 `json:"status"`
	Progress     int                    `json:"progress"` // 0..100
	Result       *lca.CalculationResult `json:"result,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	CompletedAt  time.Time              `json:"completed_at,omitzero"`
	Attempts     int                    `json:"attempts"`

	// Request is retained so unfinished jobs can be re-executed after a
	// restart.
	Request lca.Request `json:"request"`

	// EstimatedDuration is the rough wall-clock estimate reported on the
	// handle at enqueue time.
	EstimatedDuration time.Duration `json:"estimated_duration"`
}

// Clone returns a copy safe to hand to callers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.Result = j.Result.Clone()
	return &out
}

// Handle is the caller-facing receipt for an enqueued job.
type Handle struct {
	JobID             string        `json:"job_id"`
	Status            Status        `json:"status"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
}

// JobUpdate is a partial update applied to a persisted job record. Nil
// fields are left unchanged.
type JobUpdate struct {
	Status       *Status
	Progress     *int
	ErrorMessage *string
	Result       *lca.CalculationResult
	CompletedAt  *time.Time
	Attempts     *int
}

// Store is the persistence boundary the orchestrator requires. The
// interface lives on the consumer side; implementations are in
// internal/store.
type Store interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJob(ctx context.Context, id string, update JobUpdate) error
	GetJob(ctx context.Context, id string) (*Job, bool, error)
	ListUnfinished(ctx context.Context) ([]Job, error)

	// ClaimJob transitions a pending row to processing. False means the
	// row is missing or no longer pending, typically because another
	// worker process claimed it first.
	ClaimJob(ctx context.Context, id string) (bool, error)
}

// ComputeFunc executes one calculation for a worker. The service wires it
// to the strategy selector with job offload disabled, so queued work never
// re-enters the queue.
type ComputeFunc func(ctx context.Context, req lca.Request) (*lca.CalculationResult, error)
