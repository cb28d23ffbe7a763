package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// ScanJob represents a scan job row. Status is the lifecycle state; Stage
// is the pipeline stage a running job is in (empty before the worker
// picks it up). ProgressSeq is the monotonic sequence of the last
// persisted progress snapshot; a worker resuming a requeued job continues
// numbering from it so sequence numbers never move backwards.
type ScanJob struct {
	ID                 uuid.UUID               `json:"id"`
	ProjectID          *int64                  `json:"project_id,omitempty"`
	GuidelineVersionID *int64                  `json:"guideline_version_id,omitempty"`
	BaseURL            string                  `json:"base_url"`
	Status             types.JobStatus         `json:"status"`
	Stage              types.JobStage          `json:"stage,omitempty"`
	Options            *types.ScanOptions      `json:"options,omitempty"`
	ProgressSeq        uint64                  `json:"progress_seq"`
	Progress           *types.ProgressSnapshot `json:"progress,omitempty"`
	ErrorMessage       *string                 `json:"error,omitempty"`
	Attempts           int                     `json:"attempts"`
	CancelRequested    bool                    `json:"cancel_requested"`
	WorkerID           *string                 `json:"worker_id,omitempty"`
	TotalPages         int                     `json:"total_pages"`
	CreatedAt          time.Time               `json:"created_at"`
	ClaimedAt          *time.Time              `json:"claimed_at,omitempty"`
	StartedAt          *time.Time              `json:"started_at,omitempty"`
	FinishedAt         *time.Time              `json:"finished_at,omitempty"`
}

// ScanJobInput represents input for creating a scan job
type ScanJobInput struct {
	ProjectID          *int64
	GuidelineVersionID *int64
	BaseURL            string
	Options            types.ScanOptions
}

// JobFilters holds optional filters for listing scan jobs
type JobFilters struct {
	ProjectID *int64
	BaseURL   string
	Status    string
	Limit     int
}
