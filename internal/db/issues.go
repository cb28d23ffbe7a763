package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// -----------------------------------------------------------------------------
// Issue Methods
// -----------------------------------------------------------------------------

// InsertIssues bulk-inserts normalized issues for a job. ruleIDMap maps
// guideline rule ID strings to their row PKs so issues citing a rule get
// linked to it; issues citing an unknown rule are stored without a link.
// Issues without an ID are assigned one.
func (db *DB) InsertIssues(ctx context.Context, jobID uuid.UUID, issues []types.Issue, ruleIDMap map[string]int64) error {
	for start := 0; start < len(issues); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(issues) {
			end = len(issues)
		}
		chunk := issues[start:end]

		const colCount = 14
		var sb strings.Builder
		sb.WriteString(`INSERT INTO issues (
  id, job_id, page_url, page_title, category, type, severity,
  evidence, explanation, proposed_fix, guideline_rule_pk, source, confidence, fingerprint
) VALUES `)
		args := make([]any, 0, len(chunk)*colCount)
		for i, issue := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}

			id := issue.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			var rulePK *int64
			if issue.GuidelineRuleID != "" {
				if pk, ok := ruleIDMap[issue.GuidelineRuleID]; ok {
					rulePK = &pk
				}
			}

			base := i*colCount + 1
			sb.WriteString(fmt.Sprintf(
				"($%d::uuid, $%d::uuid, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4, base+5, base+6,
				base+7, base+8, base+9, base+10, base+11, base+12, base+13,
			))
			args = append(args,
				id,
				jobID,
				issue.PageURL,
				issue.PageTitle,
				issue.Category,
				issue.Type,
				issue.Severity,
				issue.Evidence,
				issue.Explanation,
				issue.ProposedFix,
				rulePK,
				issue.Source,
				issue.Confidence,
				issue.Fingerprint,
			)
		}

		if _, err := db.pool.Exec(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("failed to insert issues: %w", err)
		}
	}
	return nil
}

// ListJobIssues retrieves all issues for a job with guideline provenance
// joined in, grouped by page
func (db *DB) ListJobIssues(ctx context.Context, jobID uuid.UUID) ([]types.Issue, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT i.id, i.page_url, i.page_title, i.category, i.type, i.severity,
		       i.evidence, i.explanation, i.proposed_fix,
		       COALESCE(r.rule_id, ''), COALESCE(s.name, ''), COALESCE(r.section, ''), COALESCE(r.source_file, ''),
		       i.source, i.confidence, i.fingerprint, i.created_at
		FROM issues i
		LEFT JOIN guideline_rules r ON r.id = i.guideline_rule_pk
		LEFT JOIN guideline_versions v ON v.id = r.version_id
		LEFT JOIN guideline_sets s ON s.id = v.set_id
		WHERE i.job_id = $1
		ORDER BY i.page_url, i.created_at, i.id`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []types.Issue
	for rows.Next() {
		var issue types.Issue
		if err := rows.Scan(&issue.ID, &issue.PageURL, &issue.PageTitle, &issue.Category, &issue.Type,
			&issue.Severity, &issue.Evidence, &issue.Explanation, &issue.ProposedFix,
			&issue.GuidelineRuleID, &issue.GuidelineSetName, &issue.GuidelineSection, &issue.GuidelineSourceFile,
			&issue.Source, &issue.Confidence, &issue.Fingerprint, &issue.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue row: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// CountJobIssues returns the number of issues recorded for a job
func (db *DB) CountJobIssues(ctx context.Context, jobID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM issues WHERE job_id = $1`, jobID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return count, nil
}

// CountIssuesByJobs counts issues for each given job in one query, for
// scan listings. Jobs with no issues are absent from the map.
func (db *DB) CountIssuesByJobs(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(jobIDs))
	if len(jobIDs) == 0 {
		return counts, nil
	}
	rows, err := db.pool.Query(ctx,
		`SELECT job_id, COUNT(*) FROM issues
		 WHERE job_id = ANY($1)
		 GROUP BY job_id`,
		jobIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var jobID uuid.UUID
		var count int
		if err := rows.Scan(&jobID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan issue count: %w", err)
		}
		counts[jobID] = count
	}
	return counts, nil
}
