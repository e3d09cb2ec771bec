// Package store provides persistent-store implementations for job records
// and synced result summaries: a SQLite store for durability and a memory
// store for tests and degraded operation.
//
// The interfaces these types satisfy live with their consumers
// (jobs.Store, resultsync.ResultStore).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/ecotally/ecotally/internal/jobs"
	"github.com/ecotally/ecotally/internal/lca"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	product_id    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	progress      INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	result_json   TEXT,
	request_json  TEXT NOT NULL,
	attempts      INTEGER NOT NULL DEFAULT 0,
	estimated_ms  INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	completed_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

CREATE TABLE IF NOT EXISTS results (
	product_id      TEXT NOT NULL,
	total_carbon_kg REAL NOT NULL,
	total_water_l   REAL NOT NULL,
	method          TEXT NOT NULL,
	factor_version  TEXT NOT NULL,
	data_quality    TEXT NOT NULL,
	computed_at     TEXT NOT NULL,
	PRIMARY KEY (product_id, computed_at)
);
`

// SQLite persists jobs and result summaries in a single database file.
// Safe for concurrent use; SQLite serializes writers internally.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and bootstraps
// the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// The pure-Go driver needs a single writer connection to avoid
	// SQLITE_BUSY under concurrent updates.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateJob inserts a new job record.
func (s *SQLite) CreateJob(ctx context.Context, job jobs.Job) error {
	requestJSON, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("encoding job request: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, product_id, status, progress, error_message, request_json, attempts, estimated_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ProductID, string(job.Status), job.Progress, job.ErrorMessage,
		string(requestJSON), job.Attempts, job.EstimatedDuration.Milliseconds(),
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// UpdateJob applies a partial update. Nil fields are untouched.
func (s *SQLite) UpdateJob(ctx context.Context, id string, update jobs.JobUpdate) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)

	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.Progress != nil {
		sets = append(sets, "progress = ?")
		args = append(args, *update.Progress)
	}
	if update.ErrorMessage != nil {
		sets = append(sets, "error_message = ?")
		args = append(args, *update.ErrorMessage)
	}
	if update.Result != nil {
		resultJSON, err := json.Marshal(update.Result)
		if err != nil {
			return fmt.Errorf("encoding job result: %w", err)
		}
		sets = append(sets, "result_json = ?")
		args = append(args, string(resultJSON))
	}
	if update.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, update.CompletedAt.UTC().Format(time.RFC3339Nano))
	}
	if update.Attempts != nil {
		sets = append(sets, "attempts = ?")
		args = append(args, *update.Attempts)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// ClaimJob marks a pending row processing. The update is conditional on the
// current status, so concurrent worker processes sharing the database never
// claim the same job twice; RowsAffected distinguishes a won claim from a
// lost one.
func (s *SQLite) ClaimJob(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ? WHERE id = ? AND status = ?`,
		string(jobs.StatusProcessing), id, string(jobs.StatusPending))
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	return n == 1, nil
}

// GetJob loads one job record. The boolean is false when no row exists.
func (s *SQLite) GetJob(ctx context.Context, id string) (*jobs.Job, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, status, progress, error_message, result_json, request_json, attempts, estimated_ms, created_at, completed_at
		FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

// ListUnfinished returns all jobs still in a non-terminal state, oldest
// first. Used by recovery at startup.
func (s *SQLite) ListUnfinished(ctx context.Context) ([]jobs.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, status, progress, error_message, result_json, request_json, attempts, estimated_ms, created_at, completed_at
		FROM jobs WHERE status IN (?, ?) ORDER BY created_at`,
		string(jobs.StatusPending), string(jobs.StatusProcessing))
	if err != nil {
		return nil, fmt.Errorf("listing unfinished jobs: %w", err)
	}
	defer rows.Close()

	var out []jobs.Job
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

// WriteResult upserts a result summary against the product id.
func (s *SQLite) WriteResult(ctx context.Context, productID string, summary lca.ResultSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO results (product_id, total_carbon_kg, total_water_l, method, factor_version, data_quality, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		productID, summary.TotalCarbonKg, summary.TotalWaterL,
		string(summary.Method), summary.FactorVersion, string(summary.DataQuality),
		summary.ComputedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing result summary: %w", err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanJob.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*jobs.Job, error) {
	var (
		job         jobs.Job
		status      string
		resultJSON  sql.NullString
		requestJSON string
		estimatedMs int64
		createdAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(
		&job.ID, &job.ProductID, &status, &job.Progress, &job.ErrorMessage,
		&resultJSON, &requestJSON, &job.Attempts, &estimatedMs, &createdAt, &completedAt,
	); err != nil {
		return nil, err
	}

	job.Status = jobs.Status(status)
	job.EstimatedDuration = time.Duration(estimatedMs) * time.Millisecond

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		job.CreatedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
			job.CompletedAt = t
		}
	}

	if resultJSON.Valid && resultJSON.String != "" {
		var result lca.CalculationResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("decoding job result: %w", err)
		}
		job.Result = &result
	}
	if err := json.Unmarshal([]byte(requestJSON), &job.Request); err != nil {
		return nil, fmt.Errorf("decoding job request: %w", err)
	}

	return &job, nil
}
