package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ListenProgress holds a dedicated connection on the job_progress channel
// and invokes handler with the job ID of every notification. The trigger
// on scan_jobs fires for any row change, so handlers reload the snapshot
// rather than trusting the payload to carry state. Blocks until ctx is
// cancelled; returns nil on cancellation.
func (db *DB) ListenProgress(ctx context.Context, handler func(jobID uuid.UUID)) error {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN job_progress`); err != nil {
		return fmt.Errorf("failed to listen on job_progress: %w", err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		jobID, err := uuid.Parse(notification.Payload)
		if err != nil {
			continue
		}
		handler(jobID)
	}
}
