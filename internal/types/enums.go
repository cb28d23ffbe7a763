// Package types provides type definitions for structured data used throughout the content validation system.
package types

import (
	"fmt"
	"strings"
)

// JobStatus represents the lifecycle state of a scan job.
type JobStatus string

// Job statuses. Stored lower-case; ParseJobStatus accepts upper-case wire
// forms from older clients.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Valid reports whether the status is a known value.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// ParseJobStatus parses a status string, accepting any casing.
func ParseJobStatus(s string) (JobStatus, error) {
	status := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown job status: %q", s)
	}
	return status, nil
}

// JobStage represents the pipeline stage a running job is in.
type JobStage string

// Pipeline stages in execution order.
const (
	StageDiscovering       JobStage = "discovering"
	StageScraping          JobStage = "scraping"
	StageParsingGuidelines JobStage = "parsing_guidelines"
	StageValidating        JobStage = "validating"
	StageRunningTools      JobStage = "running_tools"
	StageFinalizing        JobStage = "finalizing"
)

// Valid reports whether the stage is a known value.
func (s JobStage) Valid() bool {
	switch s {
	case StageDiscovering, StageScraping, StageParsingGuidelines,
		StageValidating, StageRunningTools, StageFinalizing:
		return true
	}
	return false
}

// ParseJobStage parses a stage string, accepting any casing.
func ParseJobStage(s string) (JobStage, error) {
	stage := JobStage(strings.ToLower(strings.TrimSpace(s)))
	if !stage.Valid() {
		return "", fmt.Errorf("unknown job stage: %q", s)
	}
	return stage, nil
}

// IssueSeverity represents how serious an issue is.
type IssueSeverity string

// Issue severities.
const (
	SeverityHigh   IssueSeverity = "high"
	SeverityMedium IssueSeverity = "medium"
	SeverityLow    IssueSeverity = "low"
)

// Valid reports whether the severity is a known value.
func (s IssueSeverity) Valid() bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

// NormalizeSeverity parses a severity string, accepting any casing.
// Unknown or empty values fall back to medium.
func NormalizeSeverity(s string) IssueSeverity {
	sev := IssueSeverity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return SeverityMedium
	}
	return sev
}

// Rank orders severities for sorting: high < medium < low.
func (s IssueSeverity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// IssueSource identifies which validator produced an issue.
type IssueSource string

// Issue sources.
const (
	SourceDeterministic IssueSource = "deterministic"
	SourceLLM           IssueSource = "llm"
	SourceAxe           IssueSource = "axe"
	SourceLighthouse    IssueSource = "lighthouse"
)

// Valid reports whether the source is a known value.
func (s IssueSource) Valid() bool {
	switch s {
	case SourceDeterministic, SourceLLM, SourceAxe, SourceLighthouse:
		return true
	}
	return false
}

// Known issue categories. The category set is open (LLM output may invent
// values) but these are the ones the system itself emits.
const (
	CategoryGrammar         = "grammar"
	CategorySpelling        = "spelling"
	CategoryStyle           = "style"
	CategoryAccessibility   = "accessibility"
	CategorySEO             = "seo"
	CategoryPerformance     = "performance"
	CategoryBrandCompliance = "brand_compliance"
	CategoryReadability     = "readability"
	CategoryFormatting      = "formatting"
	CategoryLinkText        = "link_text"
	CategoryContent         = "content"
)

// PageSource records how a page entered the scan set.
type PageSource string

// Page sources.
const (
	PageSourceSitemap PageSource = "sitemap"
	PageSourceNav     PageSource = "nav"
	PageSourceCrawl   PageSource = "crawl"
	PageSourceManual  PageSource = "manual"
)

// ScrapeStatus tracks per-page scraping progress.
type ScrapeStatus string

// Scrape statuses.
const (
	ScrapePending  ScrapeStatus = "pending"
	ScrapeScraping ScrapeStatus = "scraping"
	ScrapeDone     ScrapeStatus = "done"
	ScrapeFailed   ScrapeStatus = "failed"
	ScrapeSkipped  ScrapeStatus = "skipped"
)

// ExclusionRuleType classifies exclusion rules.
type ExclusionRuleType string

// Exclusion rule types. URL rules filter discovery and scan page sets;
// css_selector_exclude feeds the scraper's noise-selector list.
const (
	ExclusionURLContains ExclusionRuleType = "url_contains"
	ExclusionURLRegex    ExclusionRuleType = "url_regex"
	ExclusionNavLabel    ExclusionRuleType = "nav_label_exclude"
	ExclusionCSSSelector ExclusionRuleType = "css_selector_exclude"
	ExclusionDomain      ExclusionRuleType = "domain_blocklist"
	ExclusionPath        ExclusionRuleType = "path_blocklist"
)

// Valid reports whether the rule type is a known value.
func (t ExclusionRuleType) Valid() bool {
	switch t {
	case ExclusionURLContains, ExclusionURLRegex, ExclusionNavLabel,
		ExclusionCSSSelector, ExclusionDomain, ExclusionPath:
		return true
	}
	return false
}

// DiffStatus classifies an issue in a scan comparison.
type DiffStatus string

// Diff statuses.
const (
	DiffNew       DiffStatus = "new"
	DiffResolved  DiffStatus = "resolved"
	DiffUnchanged DiffStatus = "unchanged"
)
