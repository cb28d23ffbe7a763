// Package types provides type definitions for structured data used throughout the content validation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// RawFinding is an un-normalized finding as emitted by a validator. The
// issue normalizer turns these into canonical Issues; fields here are
// deliberately loose because LLM output cannot be trusted to be well formed.
type RawFinding struct {
	Category    string      `json:"category"`
	Type        string      `json:"type"`
	Severity    string      `json:"severity"`
	Evidence    string      `json:"evidence"`
	Explanation string      `json:"explanation"`
	ProposedFix string      `json:"proposed_fix"`
	RuleID      string      `json:"guideline_rule_id,omitempty"`
	Source      IssueSource `json:"source"`
	Confidence  float64     `json:"confidence"`
}

// Issue is a canonical, normalized validation finding tied to a page.
// Guideline provenance fields are filled from the cited rule when one
// exists.
type Issue struct {
	ID                  uuid.UUID     `json:"id"`
	PageURL             string        `json:"page_url,omitempty"`
	PageTitle           string        `json:"page_title,omitempty"`
	Category            string        `json:"category"`
	Type                string        `json:"type"`
	Severity            IssueSeverity `json:"severity"`
	Evidence            string        `json:"evidence,omitempty"`
	Explanation         string        `json:"explanation,omitempty"`
	ProposedFix         string        `json:"proposed_fix,omitempty"`
	GuidelineRuleID     string        `json:"guideline_rule_id,omitempty"`
	GuidelineSetName    string        `json:"guideline_set_name,omitempty"`
	GuidelineSection    string        `json:"guideline_section,omitempty"`
	GuidelineSourceFile string        `json:"guideline_source_file,omitempty"`
	Source              IssueSource   `json:"source"`
	Confidence          float64       `json:"confidence"`
	Fingerprint         string        `json:"fingerprint"`
	CreatedAt           time.Time     `json:"created_at"`
}

// IssueSummary aggregates issue counts for a completed scan.
type IssueSummary struct {
	Total      int            `json:"total"`
	High       int            `json:"high"`
	Medium     int            `json:"medium"`
	Low        int            `json:"low"`
	ByCategory map[string]int `json:"by_category"`
	BySource   map[string]int `json:"by_source"`
}

// FixPacks groups issues into suggested remediation buckets.
type FixPacks struct {
	QuickWins       []Issue `json:"quick_wins"`
	MediumEffort    []Issue `json:"medium_effort"`
	StructuralFixes []Issue `json:"structural_fixes"`
}

// PageResult is one page's slice of a scan result.
type PageResult struct {
	URL        string  `json:"url"`
	Title      string  `json:"title,omitempty"`
	IssueCount int     `json:"issue_count"`
	Issues     []Issue `json:"issues"`
}

// JobResults is the full result payload for a finished scan job.
type JobResults struct {
	JobID    uuid.UUID    `json:"job_id"`
	Status   JobStatus    `json:"status"`
	Summary  IssueSummary `json:"summary"`
	Pages    []PageResult `json:"pages"`
	FixPacks *FixPacks    `json:"fix_packs,omitempty"`
}
