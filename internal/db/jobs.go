package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// -----------------------------------------------------------------------------
// Scan Job Methods
// -----------------------------------------------------------------------------

const scanJobColumns = `id, project_id, guideline_version_id, base_url, status, COALESCE(stage, ''),
	options_json, progress_seq, progress_json, error_json->>'error', attempts, cancel_requested,
	worker_id, total_pages, created_at, claimed_at, started_at, finished_at`

func scanJobFromRow(row pgx.Row) (*ScanJob, error) {
	var j ScanJob
	var optionsJSON, progressJSON []byte

	if err := row.Scan(&j.ID, &j.ProjectID, &j.GuidelineVersionID, &j.BaseURL, &j.Status, &j.Stage,
		&optionsJSON, &j.ProgressSeq, &progressJSON, &j.ErrorMessage, &j.Attempts, &j.CancelRequested,
		&j.WorkerID, &j.TotalPages, &j.CreatedAt, &j.ClaimedAt, &j.StartedAt, &j.FinishedAt); err != nil {
		return nil, err
	}

	if optionsJSON != nil {
		var opts types.ScanOptions
		if json.Unmarshal(optionsJSON, &opts) == nil {
			j.Options = &opts
		}
	}
	if progressJSON != nil {
		var snap types.ProgressSnapshot
		if json.Unmarshal(progressJSON, &snap) == nil {
			j.Progress = &snap
		}
	}

	return &j, nil
}

// CreateScanJob creates a new scan job in the pending state
func (db *DB) CreateScanJob(ctx context.Context, input *ScanJobInput) (*ScanJob, error) {
	optionsJSON, err := json.Marshal(input.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan options: %w", err)
	}

	job, err := scanJobFromRow(db.pool.QueryRow(ctx,
		`INSERT INTO scan_jobs (id, project_id, guideline_version_id, base_url, options_json)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+scanJobColumns,
		uuid.New(), input.ProjectID, input.GuidelineVersionID, input.BaseURL, optionsJSON,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create scan job: %w", err)
	}
	return job, nil
}

// GetScanJob retrieves a scan job by ID
func (db *DB) GetScanJob(ctx context.Context, id uuid.UUID) (*ScanJob, error) {
	job, err := scanJobFromRow(db.pool.QueryRow(ctx,
		`SELECT `+scanJobColumns+` FROM scan_jobs WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scan job: %w", err)
	}
	return job, nil
}

// ListScanJobs retrieves scan jobs with optional filters, newest first
func (db *DB) ListScanJobs(ctx context.Context, filters JobFilters) ([]ScanJob, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + scanJobColumns + ` FROM scan_jobs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.ProjectID != nil {
		query += fmt.Sprintf(" AND project_id = $%d", argNum)
		args = append(args, *filters.ProjectID)
		argNum++
	}
	if filters.BaseURL != "" {
		query += fmt.Sprintf(" AND base_url = $%d", argNum)
		args = append(args, filters.BaseURL)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ScanJob
	for rows.Next() {
		job, err := scanJobFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// ClaimQueuedJob atomically claims the oldest pending job for a worker.
// Concurrent workers skip rows locked by each other, so a job is only
// ever claimed once. Returns nil when the queue is empty.
func (db *DB) ClaimQueuedJob(ctx context.Context, workerID string) (*ScanJob, error) {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM scan_jobs
		WHERE status = 'pending'
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select queued job: %w", err)
	}

	job, err := scanJobFromRow(tx.QueryRow(ctx, `
		UPDATE scan_jobs
		SET status = 'running', worker_id = $2, attempts = attempts + 1,
		    claimed_at = now(), started_at = now(), progress_at = now()
		WHERE id = $1
		RETURNING `+scanJobColumns, id, workerID))
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return job, nil
}

// ClaimScanJob claims one specific pending job, for callers that run the
// job they just enqueued in-process. Returns nil when the job is missing
// or was already claimed.
func (db *DB) ClaimScanJob(ctx context.Context, id uuid.UUID, workerID string) (*ScanJob, error) {
	job, err := scanJobFromRow(db.pool.QueryRow(ctx, `
		UPDATE scan_jobs
		SET status = 'running', worker_id = $2, attempts = attempts + 1,
		    claimed_at = now(), started_at = now(), progress_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+scanJobColumns, id, workerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return job, nil
}

// SetJobStage records the pipeline stage a running job has entered
func (db *DB) SetJobStage(ctx context.Context, id uuid.UUID, stage types.JobStage) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE scan_jobs SET stage = $2 WHERE id = $1 AND status = 'running'`,
		id, stage)
	if err != nil {
		return fmt.Errorf("failed to set job stage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not running", id)
	}
	return nil
}

// UpdateJobProgress persists a progress snapshot unless its sequence is
// older than the last persisted one, so writes from a superseded worker
// are dropped and the stored sequence never moves backwards. The row
// update fires the job_progress trigger, which fans the change out to
// stream listeners.
func (db *DB) UpdateJobProgress(ctx context.Context, snap types.ProgressSnapshot) error {
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	_, err = db.pool.Exec(ctx, `
		UPDATE scan_jobs
		SET progress_seq = GREATEST(progress_seq, $2),
		    progress_json = CASE WHEN $2 >= progress_seq THEN $3::jsonb ELSE progress_json END,
		    total_pages = CASE WHEN $2 >= progress_seq THEN $4 ELSE total_pages END,
		    progress_at = now()
		WHERE id = $1 AND status = 'running'`,
		snap.JobID, int64(snap.Seq), string(snapJSON), snap.TotalPages)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// GetJobProgress returns the current progress snapshot for a job,
// synthesized from the job row when no snapshot has been persisted yet.
// This is the polling fallback for clients that cannot hold an event
// stream open, and the stream itself is fed from the same row. Status,
// stage and sequence come from the row columns because terminal
// transitions bump the sequence without rewriting the snapshot body.
func (db *DB) GetJobProgress(ctx context.Context, id uuid.UUID) (*types.ProgressSnapshot, error) {
	var progressJSON []byte
	var seq int64
	var status types.JobStatus
	var stage types.JobStage
	var totalPages int
	var errMsg *string
	var createdAt time.Time

	err := db.pool.QueryRow(ctx, `
		SELECT progress_json, progress_seq, status, COALESCE(stage, ''), total_pages,
		       error_json->>'error', created_at
		FROM scan_jobs WHERE id = $1`, id,
	).Scan(&progressJSON, &seq, &status, &stage, &totalPages, &errMsg, &createdAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job progress: %w", err)
	}

	snap := types.ProgressSnapshot{JobID: id, UpdatedAt: createdAt}
	if progressJSON != nil {
		_ = json.Unmarshal(progressJSON, &snap)
	}
	snap.JobID = id
	snap.Seq = uint64(seq)
	snap.Status = status
	snap.Stage = stage
	if snap.TotalPages == 0 {
		snap.TotalPages = totalPages
	}
	if errMsg != nil && (status == types.JobStatusFailed || status == types.JobStatusCancelled) {
		snap.Message = *errMsg
	}
	return &snap, nil
}

// MarkJobCompleted transitions a running job to completed and stamps the
// finish time. The progress sequence is bumped so stream listeners see
// the terminal state as a new event. Only a running job can complete; a
// terminal job is never re-entered.
func (db *DB) MarkJobCompleted(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'completed', finished_at = now(),
		    progress_seq = progress_seq + 1, progress_at = now(),
		    total_pages = (SELECT COUNT(*) FROM scan_pages sp WHERE sp.job_id = scan_jobs.id)
		WHERE id = $1 AND status = 'running'`, id)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not running", id)
	}
	return nil
}

// MarkJobFailed transitions a pending or running job to failed. A no-op
// when the job already reached a terminal state, so a racing recovery
// sweep cannot demote a completed job.
func (db *DB) MarkJobFailed(ctx context.Context, id uuid.UUID, message string) error {
	errJSON, _ := json.Marshal(map[string]string{"error": message})
	_, err := db.pool.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'failed', finished_at = now(), error_json = $2::jsonb,
		    progress_seq = progress_seq + 1, progress_at = now()
		WHERE id = $1 AND status IN ('pending','running')`, id, string(errJSON))
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// MarkJobCancelled transitions a pending or running job to cancelled.
// The message records why ("cancelled by user" and similar) so the
// outcome is distinguishable from a failure. A no-op when the job
// already reached a terminal state.
func (db *DB) MarkJobCancelled(ctx context.Context, id uuid.UUID, message string) error {
	errJSON, _ := json.Marshal(map[string]string{"error": message})
	_, err := db.pool.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'cancelled', finished_at = now(), error_json = $2::jsonb,
		    progress_seq = progress_seq + 1, progress_at = now()
		WHERE id = $1 AND status IN ('pending','running')`, id, string(errJSON))
	if err != nil {
		return fmt.Errorf("failed to mark job cancelled: %w", err)
	}
	return nil
}

// RequestCancel flags a pending or running job for cancellation. The
// pipeline observes the flag at stage boundaries; a pending job is
// cancelled by the next worker that claims it. Returns false when the
// job is unknown or already terminal.
func (db *DB) RequestCancel(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx, `
		UPDATE scan_jobs SET cancel_requested = TRUE
		WHERE id = $1 AND status IN ('pending','running')`, id)
	if err != nil {
		return false, fmt.Errorf("failed to request cancel: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// JobCancelRequested reads the cancellation flag for a job
func (db *DB) JobCancelRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	var flag bool
	err := db.pool.QueryRow(ctx,
		`SELECT cancel_requested FROM scan_jobs WHERE id = $1`, id).Scan(&flag)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to read cancel flag: %w", err)
	}
	return flag, nil
}

// LatestCompletedJob finds the most recently completed job for the same
// base URL, optionally scoped to a project and to jobs finished before a
// given time. Used to pick the comparison baseline for regression diffs.
// Returns nil when no such job exists.
func (db *DB) LatestCompletedJob(ctx context.Context, baseURL string, projectID *int64, before *time.Time) (*ScanJob, error) {
	query := `SELECT ` + scanJobColumns + ` FROM scan_jobs
		WHERE base_url = $1 AND status = 'completed' AND finished_at IS NOT NULL`
	args := []any{baseURL}
	argNum := 2

	if projectID != nil {
		query += fmt.Sprintf(" AND project_id = $%d", argNum)
		args = append(args, *projectID)
		argNum++
	}
	if before != nil {
		query += fmt.Sprintf(" AND finished_at < $%d", argNum)
		args = append(args, *before)
	}

	query += " ORDER BY finished_at DESC LIMIT 1"

	job, err := scanJobFromRow(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find baseline job: %w", err)
	}
	return job, nil
}

// RequeueStaleJobs returns running jobs with no recent progress heartbeat
// to the queue so another worker can pick them up. The job's pages and
// issues are wiped so the rerun starts clean; progress_seq is preserved
// so the resumed run continues the sequence. Jobs that already used all
// their attempts are left for FailStaleJobs.
func (db *DB) RequeueStaleJobs(ctx context.Context, idleFor time.Duration, maxAttempts int) ([]uuid.UUID, error) {
	ms := idleFor.Milliseconds()
	if ms <= 0 {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx, `
		WITH stale AS (
			SELECT id FROM scan_jobs
			WHERE status = 'running'
			  AND COALESCE(progress_at, claimed_at, created_at) < now() - ($1::bigint * interval '1 millisecond')
			  AND attempts < $2
			FOR UPDATE SKIP LOCKED
		),
		wiped_pages AS (
			DELETE FROM scan_pages WHERE job_id IN (SELECT id FROM stale)
		),
		wiped_issues AS (
			DELETE FROM issues WHERE job_id IN (SELECT id FROM stale)
		)
		UPDATE scan_jobs j
		SET status = 'pending', stage = NULL, worker_id = NULL,
		    claimed_at = NULL, started_at = NULL, progress_at = NULL
		FROM stale
		WHERE j.id = stale.id
		RETURNING j.id`, ms, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to requeue stale jobs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// FailStaleJobs marks running jobs with no heartbeat and no attempts
// left as failed. Only running rows are touched, so a completed job can
// never be demoted by recovery.
func (db *DB) FailStaleJobs(ctx context.Context, idleFor time.Duration, maxAttempts int) ([]uuid.UUID, error) {
	ms := idleFor.Milliseconds()
	if ms <= 0 {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx, `
		WITH stale AS (
			SELECT id FROM scan_jobs
			WHERE status = 'running'
			  AND COALESCE(progress_at, claimed_at, created_at) < now() - ($1::bigint * interval '1 millisecond')
			  AND attempts >= $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE scan_jobs j
		SET status = 'failed', finished_at = now(),
		    error_json = '{"error": "worker lost: no progress heartbeat"}'::jsonb,
		    progress_seq = progress_seq + 1, progress_at = now()
		FROM stale
		WHERE j.id = stale.id
		RETURNING j.id`, ms, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to fail stale jobs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
