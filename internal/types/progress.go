// Package types provides type definitions for structured data used throughout the content validation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// ProgressSnapshot is an immutable point-in-time view of a job's progress.
// Seq increases strictly per job; a snapshot with a higher Seq supersedes
// every lower one, so consumers can always resume from the latest snapshot
// after a delivery gap.
type ProgressSnapshot struct {
	JobID       uuid.UUID `json:"job_id"`
	Seq         uint64    `json:"seq"`
	Status      JobStatus `json:"status"`
	Stage       JobStage  `json:"stage,omitempty"`
	TotalPages  int       `json:"total_pages"`
	Scraped     int       `json:"scraped"`
	Validated   int       `json:"validated"`
	CurrentPage string    `json:"current_page,omitempty"`
	Message     string    `json:"message,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Done reports whether the snapshot describes a terminal job state.
func (s ProgressSnapshot) Done() bool {
	return s.Status.Terminal()
}
