// Package diff compares two completed scans of the same site by issue
// fingerprint, splitting the defects into new, resolved and unchanged.
// Only terminal jobs are read, so a comparison of the same pair of
// scans always produces the same result.
package diff

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// IncomparableJobsError reports inputs that cannot be diffed: a scan
// that has not completed, or two scans of different sites or projects.
// Returned to the caller synchronously; nothing is computed.
type IncomparableJobsError struct {
	Reason string
}

func (e *IncomparableJobsError) Error() string {
	return "scans are not comparable: " + e.Reason
}

// NoBaselineError reports that compare-to-last found no earlier
// completed scan of the site. The first scan of a site lands here; it
// is a degraded outcome, not a failure.
type NoBaselineError struct {
	ScanID  uuid.UUID
	BaseURL string
}

func (e *NoBaselineError) Error() string {
	return fmt.Sprintf("no completed scan of %s precedes %s", e.BaseURL, e.ScanID)
}

// ScanNotFoundError reports a comparison naming a scan that does not
// exist.
type ScanNotFoundError struct {
	ScanID uuid.UUID
}

func (e *ScanNotFoundError) Error() string {
	return fmt.Sprintf("scan %s not found", e.ScanID)
}

// Engine loads scans with their issues and diffs them.
type Engine struct {
	db *db.DB
}

// New returns an engine reading from the given database.
func New(database *db.DB) *Engine {
	return &Engine{db: database}
}

// Compare diffs scan B against baseline A. Both scans must be
// completed, for the same base URL and the same project.
func (e *Engine) Compare(ctx context.Context, scanAID, scanBID uuid.UUID) (*types.ScanCompare, error) {
	jobA, err := e.loadScan(ctx, scanAID)
	if err != nil {
		return nil, err
	}
	jobB, err := e.loadScan(ctx, scanBID)
	if err != nil {
		return nil, err
	}
	if err := comparable(jobA, jobB); err != nil {
		return nil, err
	}
	return e.diffJobs(ctx, jobA, jobB)
}

// CompareToLast diffs a completed scan against the most recently
// completed earlier scan of the same site, scoped to the scan's
// project when it has one.
func (e *Engine) CompareToLast(ctx context.Context, scanID uuid.UUID) (*types.ScanCompare, error) {
	jobB, err := e.loadScan(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if jobB.Status != types.JobStatusCompleted {
		return nil, &IncomparableJobsError{
			Reason: fmt.Sprintf("scan %s is %s, not completed", jobB.ID, jobB.Status),
		}
	}

	baseline, err := e.db.LatestCompletedJob(ctx, jobB.BaseURL, jobB.ProjectID, jobB.FinishedAt)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		return nil, &NoBaselineError{ScanID: jobB.ID, BaseURL: jobB.BaseURL}
	}
	return e.diffJobs(ctx, baseline, jobB)
}

func (e *Engine) loadScan(ctx context.Context, id uuid.UUID) (*db.ScanJob, error) {
	job, err := e.db.GetScanJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &ScanNotFoundError{ScanID: id}
	}
	return job, nil
}

func (e *Engine) diffJobs(ctx context.Context, jobA, jobB *db.ScanJob) (*types.ScanCompare, error) {
	issuesA, err := e.db.ListJobIssues(ctx, jobA.ID)
	if err != nil {
		return nil, err
	}
	issuesB, err := e.db.ListJobIssues(ctx, jobB.ID)
	if err != nil {
		return nil, err
	}
	return compareIssues(jobA.ID, jobB.ID, issuesA, issuesB), nil
}

func comparable(a, b *db.ScanJob) error {
	for _, job := range []*db.ScanJob{a, b} {
		if job.Status != types.JobStatusCompleted {
			return &IncomparableJobsError{
				Reason: fmt.Sprintf("scan %s is %s, not completed", job.ID, job.Status),
			}
		}
	}
	if a.BaseURL != b.BaseURL {
		return &IncomparableJobsError{
			Reason: fmt.Sprintf("different base URLs (%s vs %s)", a.BaseURL, b.BaseURL),
		}
	}
	if !sameProject(a.ProjectID, b.ProjectID) {
		return &IncomparableJobsError{Reason: "different projects"}
	}
	return nil
}

func sameProject(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// compareIssues partitions the two scans' fingerprints. Classification
// is by fingerprint presence, and the new and resolved lists carry one
// representative issue per fingerprint (the first occurrence in the
// scan's page order). Duplicate occurrences of an unchanged defect are
// reported separately as instances so they never inflate the set
// counts.
func compareIssues(scanAID, scanBID uuid.UUID, issuesA, issuesB []types.Issue) *types.ScanCompare {
	repA, orderA := representatives(issuesA)
	repB, orderB := representatives(issuesB)

	newIssues := make([]types.Issue, 0)
	resolvedIssues := make([]types.Issue, 0)
	unchanged := 0
	for _, fp := range orderB {
		if _, ok := repA[fp]; ok {
			unchanged++
		} else {
			newIssues = append(newIssues, repB[fp])
		}
	}
	for _, fp := range orderA {
		if _, ok := repB[fp]; !ok {
			resolvedIssues = append(resolvedIssues, repA[fp])
		}
	}

	unchangedInstances := 0
	for _, issue := range issuesB {
		if _, ok := repA[issue.Fingerprint]; ok {
			unchangedInstances++
		}
	}

	return &types.ScanCompare{
		ScanAID:        scanAID,
		ScanBID:        scanBID,
		NewIssues:      newIssues,
		ResolvedIssues: resolvedIssues,
		UnchangedCount: unchanged,
		Summary: types.CompareSummary{
			NewCount:           len(newIssues),
			ResolvedCount:      len(resolvedIssues),
			UnchangedCount:     unchanged,
			UnchangedInstances: unchangedInstances,
			NewBySeverity:      countBy(newIssues, func(i types.Issue) string { return string(i.Severity) }),
			ResolvedBySeverity: countBy(resolvedIssues, func(i types.Issue) string { return string(i.Severity) }),
			NewByCategory:      countBy(newIssues, func(i types.Issue) string { return i.Category }),
			ResolvedByCategory: countBy(resolvedIssues, func(i types.Issue) string { return i.Category }),
		},
	}
}

// representatives maps each fingerprint to its first occurrence,
// keeping first-seen order so results are stable.
func representatives(issues []types.Issue) (map[string]types.Issue, []string) {
	rep := make(map[string]types.Issue, len(issues))
	order := make([]string, 0, len(issues))
	for _, issue := range issues {
		if _, seen := rep[issue.Fingerprint]; seen {
			continue
		}
		rep[issue.Fingerprint] = issue
		order = append(order, issue.Fingerprint)
	}
	return rep, order
}

func countBy(issues []types.Issue, key func(types.Issue) string) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		k := key(issue)
		if k == "" {
			k = "unknown"
		}
		counts[k]++
	}
	return counts
}
