package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/progress"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// tracker serializes progress publication for one job run. Snapshots are
// persisted before they are pushed to the hub, so the stored row never
// lags what subscribers saw. Sequence numbers continue from the job's
// persisted progress_seq, which keeps them monotonic across requeued
// runs.
type tracker struct {
	db  *db.DB
	hub *progress.Hub

	mu         sync.Mutex
	jobID      uuid.UUID
	seq        uint64
	status     types.JobStatus
	stage      types.JobStage
	totalPages int
	scraped    int
	validated  int
}

func newTracker(database *db.DB, hub *progress.Hub, job *db.ScanJob) *tracker {
	return &tracker{
		db:     database,
		hub:    hub,
		jobID:  job.ID,
		seq:    job.ProgressSeq,
		status: types.JobStatusRunning,
		stage:  job.Stage,
	}
}

func (t *tracker) setStage(stage types.JobStage) {
	t.mu.Lock()
	t.stage = stage
	t.mu.Unlock()
}

func (t *tracker) currentStage() types.JobStage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage
}

func (t *tracker) setTotalPages(n int) {
	t.mu.Lock()
	t.totalPages = n
	t.mu.Unlock()
}

func (t *tracker) pageScraped() {
	t.mu.Lock()
	t.scraped++
	t.mu.Unlock()
}

func (t *tracker) pageValidated() {
	t.mu.Lock()
	t.validated++
	t.mu.Unlock()
}

func (t *tracker) counts() (scraped, validated int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scraped, t.validated
}

// publish assigns the next sequence number, persists the snapshot and
// pushes it to hub subscribers. A failed persist is logged and the run
// continues; the next snapshot supersedes the lost one.
func (t *tracker) publish(ctx context.Context, currentPage, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	snap := t.snapshotLocked(currentPage, message)
	if err := t.db.UpdateJobProgress(ctx, snap); err != nil {
		log.Printf("[PIPELINE] failed to persist progress for job %s: %v", t.jobID, err)
	}
	if t.hub != nil {
		t.hub.Publish(snap)
	}
}

// terminal pushes the final snapshot for a finished job. The status row
// transition already bumped the persisted sequence, so this mirrors that
// bump for subscribers and lets the hub close their streams.
func (t *tracker) terminal(status types.JobStatus, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.status = status
	if t.hub != nil {
		t.hub.Publish(t.snapshotLocked("", message))
	}
}

func (t *tracker) snapshotLocked(currentPage, message string) types.ProgressSnapshot {
	return types.ProgressSnapshot{
		JobID:       t.jobID,
		Seq:         t.seq,
		Status:      t.status,
		Stage:       t.stage,
		TotalPages:  t.totalPages,
		Scraped:     t.scraped,
		Validated:   t.validated,
		CurrentPage: currentPage,
		Message:     message,
		UpdatedAt:   time.Now().UTC(),
	}
}
