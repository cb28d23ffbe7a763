// Package types provides type definitions for structured data used throughout the content validation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// ScanSummary is a compact listing entry for a completed or in-flight scan job.
type ScanSummary struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	BaseURL     string     `json:"base_url"`
	Status      JobStatus  `json:"status"`
	Stage       JobStage   `json:"stage,omitempty"`
	TotalPages  int        `json:"total_pages"`
	TotalIssues int        `json:"total_issues"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// DiffIssue is an issue annotated with its regression status relative to a
// baseline scan.
type DiffIssue struct {
	Issue
	DiffStatus DiffStatus `json:"diff_status"`
}

// CompareSummary aggregates the outcome of a scan comparison. Counts are by
// distinct fingerprint; UnchangedInstances additionally reports how many
// issue instances in the candidate scan carry an unchanged fingerprint, so
// duplicate occurrences stay visible without skewing the set counts.
type CompareSummary struct {
	NewCount           int            `json:"new_count"`
	ResolvedCount      int            `json:"resolved_count"`
	UnchangedCount     int            `json:"unchanged_count"`
	UnchangedInstances int            `json:"unchanged_instances"`
	NewBySeverity      map[string]int `json:"new_by_severity"`
	ResolvedBySeverity map[string]int `json:"resolved_by_severity"`
	NewByCategory      map[string]int `json:"new_by_category"`
	ResolvedByCategory map[string]int `json:"resolved_by_category"`
}

// ScanCompare is the result of diffing a scan against a baseline. Current
// issues absent from the baseline are new, baseline issues absent from the
// current scan are resolved, and issues present in both are counted as
// unchanged.
type ScanCompare struct {
	ScanAID        uuid.UUID      `json:"scan_a_id"`
	ScanBID        uuid.UUID      `json:"scan_b_id"`
	NewIssues      []Issue        `json:"new_issues"`
	ResolvedIssues []Issue        `json:"resolved_issues"`
	UnchangedCount int            `json:"unchanged_count"`
	Summary        CompareSummary `json:"summary"`
}
