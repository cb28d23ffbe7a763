package issues

import (
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// quickWinConfidence is the floor below which a low-severity issue is not
// confident enough to recommend as a quick fix.
const quickWinConfidence = 0.8

// Summarize aggregates issue counts by severity, category and source.
func Summarize(all []types.Issue) types.IssueSummary {
	summary := types.IssueSummary{
		Total:      len(all),
		ByCategory: make(map[string]int),
		BySource:   make(map[string]int),
	}
	for _, issue := range all {
		switch issue.Severity {
		case types.SeverityHigh:
			summary.High++
		case types.SeverityMedium:
			summary.Medium++
		case types.SeverityLow:
			summary.Low++
		}
		summary.ByCategory[issue.Category]++
		summary.BySource[string(issue.Source)]++
	}
	return summary
}

// BuildFixPacks groups issues into remediation buckets: confident
// low-severity issues are quick wins, medium severity is medium effort,
// high severity needs structural work.
func BuildFixPacks(all []types.Issue) types.FixPacks {
	packs := types.FixPacks{
		QuickWins:       []types.Issue{},
		MediumEffort:    []types.Issue{},
		StructuralFixes: []types.Issue{},
	}
	for _, issue := range all {
		switch {
		case issue.Severity == types.SeverityLow && issue.Confidence >= quickWinConfidence:
			packs.QuickWins = append(packs.QuickWins, issue)
		case issue.Severity == types.SeverityMedium:
			packs.MediumEffort = append(packs.MediumEffort, issue)
		case issue.Severity == types.SeverityHigh:
			packs.StructuralFixes = append(packs.StructuralFixes, issue)
		}
	}
	return packs
}
