// Package worker polls the job queue and hands claimed jobs to the
// pipeline, keeping at most a configured number of jobs in flight.
// On startup and on a timer it sweeps for jobs whose worker went away,
// requeueing them while attempts remain and failing them after that.
package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
)

const (
	// DefaultConcurrency is how many jobs one worker processes at once.
	DefaultConcurrency = 2
	// DefaultPollInterval is the sleep between claim attempts when the
	// queue is empty.
	DefaultPollInterval = 2 * time.Second
	// DefaultStaleAfter is how long a running job may go without a
	// progress heartbeat before recovery picks it up.
	DefaultStaleAfter = 15 * time.Minute
	// DefaultMaxAttempts is how many claims a job gets before a stale
	// recovery fails it instead of requeueing.
	DefaultMaxAttempts = 3
	// DefaultSweepInterval is how often the stale sweep runs after the
	// one at startup.
	DefaultSweepInterval = time.Minute

	claimBackoffMin = 500 * time.Millisecond
	claimBackoffMax = 5 * time.Second
)

// Store is the part of the database the worker loop needs. *db.DB
// satisfies it.
type Store interface {
	ClaimQueuedJob(ctx context.Context, workerID string) (*db.ScanJob, error)
	RequeueStaleJobs(ctx context.Context, idleFor time.Duration, maxAttempts int) ([]uuid.UUID, error)
	FailStaleJobs(ctx context.Context, idleFor time.Duration, maxAttempts int) ([]uuid.UUID, error)
}

// JobRunner executes one claimed job to a terminal state.
// *pipeline.Runner satisfies it.
type JobRunner interface {
	Run(ctx context.Context, job *db.ScanJob) error
}

// Options tunes one worker process.
type Options struct {
	Concurrency   int
	PollInterval  time.Duration
	StaleAfter    time.Duration
	MaxAttempts   int
	SweepInterval time.Duration
	WorkerID      string
}

// Worker is one claim loop over the shared queue. Multiple worker
// processes can run against the same database; the claim query hands
// each job to exactly one of them.
type Worker struct {
	store  Store
	runner JobRunner
	opts   Options
}

// New returns a worker with zero option fields filled from defaults.
func New(store Store, runner JobRunner, opts Options) *Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.WorkerID == "" {
		opts.WorkerID = defaultWorkerID()
	}
	return &Worker{store: store, runner: runner, opts: opts}
}

func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// RunForever claims and processes jobs until ctx is cancelled, then
// waits for the jobs already in flight. Jobs interrupted mid-run keep
// their running row and are picked up by a later stale sweep.
func (w *Worker) RunForever(ctx context.Context) error {
	log.Printf("[WORKER] %s starting: concurrency=%d poll=%s stale_after=%s max_attempts=%d",
		w.opts.WorkerID, w.opts.Concurrency, w.opts.PollInterval, w.opts.StaleAfter, w.opts.MaxAttempts)

	w.recoverStale(ctx)
	go w.sweepLoop(ctx)

	var wg sync.WaitGroup
	sem := make(chan struct{}, w.opts.Concurrency)

	backoff := claimBackoffMin
	for {
		// A slot is taken before claiming so a claimed job never sits
		// waiting behind the in-flight ones, idle long enough for the
		// stale sweep to steal it back.
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Printf("[WORKER] %s stopped", w.opts.WorkerID)
			return nil
		case sem <- struct{}{}:
		}

		job, err := w.store.ClaimQueuedJob(ctx, w.opts.WorkerID)
		if err != nil {
			<-sem
			if ctx.Err() != nil {
				continue
			}
			log.Printf("[WORKER] claim failed: %v", err)
			sleep(ctx, backoff)
			backoff *= 2
			if backoff > claimBackoffMax {
				backoff = claimBackoffMax
			}
			continue
		}
		backoff = claimBackoffMin

		if job == nil {
			<-sem
			sleep(ctx, w.opts.PollInterval)
			continue
		}

		wg.Add(1)
		go func(job *db.ScanJob) {
			defer wg.Done()
			defer func() { <-sem }()
			w.process(ctx, job)
		}(job)
	}
}

func (w *Worker) process(ctx context.Context, job *db.ScanJob) {
	log.Printf("[WORKER] job %s claimed (attempt %d)", job.ID, job.Attempts)
	start := time.Now()

	if err := w.runner.Run(ctx, job); err != nil {
		log.Printf("[WORKER] job %s failed after %s: %v", job.ID, time.Since(start).Round(time.Millisecond), err)
		return
	}
	log.Printf("[WORKER] job %s done in %s", job.ID, time.Since(start).Round(time.Millisecond))
}

func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.recoverStale(ctx)
		}
	}
}

// recoverStale requeues running jobs whose progress heartbeat stopped,
// as long as they have attempts left, and fails the rest. Errors are
// logged and retried on the next sweep.
func (w *Worker) recoverStale(ctx context.Context) {
	requeued, err := w.store.RequeueStaleJobs(ctx, w.opts.StaleAfter, w.opts.MaxAttempts)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[WORKER] stale requeue failed: %v", err)
		}
	} else if len(requeued) > 0 {
		log.Printf("[WORKER] requeued %d stale jobs: %s", len(requeued), joinIDs(requeued))
	}

	failed, err := w.store.FailStaleJobs(ctx, w.opts.StaleAfter, w.opts.MaxAttempts)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[WORKER] stale fail failed: %v", err)
		}
	} else if len(failed) > 0 {
		log.Printf("[WORKER] failed %d stale jobs out of attempts: %s", len(failed), joinIDs(failed))
	}
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, " ")
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
