package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/progress"
)

// listenRetryDelay is the backoff between progress listener reconnect
// attempts after a dropped database connection.
const listenRetryDelay = 5 * time.Second

// handleJobEvents streams job progress as Server-Sent Events. The client
// receives the current state immediately, then one "progress" event per
// update, and a final "done" event when the job reaches a terminal status.
// A slow consumer gets a "gap" event whose snapshot supersedes whatever
// was dropped, so reconnecting or falling behind never loses the outcome.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDFromPath(w, r)
	if !ok {
		return
	}

	job, err := s.db.GetScanJob(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	sub := s.hub.Subscribe(jobID)
	defer sub.Cancel()

	// The hub has no state when the worker runs in another process or the
	// job finished before anyone subscribed. Seed the stream from the
	// persisted snapshot; the hub ignores stale sequence numbers, so any
	// overlap with pushed events is harmless.
	if _, live := s.hub.Current(jobID); !live {
		snap, err := s.db.GetJobProgress(r.Context(), jobID)
		if err != nil {
			sse.WriteError(err.Error())
			return
		}
		if snap != nil {
			if snap.Done() {
				sse.WriteEvent("done", snap) //nolint:errcheck
				return
			}
			if err := sse.WriteEvent("progress", snap); err != nil {
				return
			}
		}
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-sub.C:
			if !open {
				return
			}

			name := "progress"
			switch {
			case ev.Type == progress.EventDone:
				name = "done"
			case ev.Gap:
				name = "gap"
			}

			if err := sse.WriteEvent(name, ev.Snapshot); err != nil {
				log.Printf("Error writing SSE event: %v", err)
				return
			}
			if ev.Type == progress.EventDone {
				return
			}
		}
	}
}

// runProgressListener bridges Postgres progress notifications into the
// hub until ctx is cancelled. Dropped connections back off and reconnect;
// replayed notifications are deduplicated by the hub's sequence check.
func (s *Server) runProgressListener(ctx context.Context) {
	for {
		err := s.db.ListenProgress(ctx, func(jobID uuid.UUID) {
			snap, err := s.db.GetJobProgress(ctx, jobID)
			if err != nil {
				log.Printf("Error loading progress for job %s: %v", jobID, err)
				return
			}
			if snap != nil {
				s.hub.Publish(*snap)
			}
		})
		if err == nil {
			return
		}

		log.Printf("Progress listener error: %v (retrying in %v)", err, listenRetryDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(listenRetryDelay):
		}
	}
}
