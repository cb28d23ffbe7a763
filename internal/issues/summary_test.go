package issues

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func testIssue(severity types.IssueSeverity, category string, source types.IssueSource, confidence float64) types.Issue {
	return types.Issue{
		Category:   category,
		Type:       "general",
		Severity:   severity,
		Evidence:   "evidence",
		Source:     source,
		Confidence: confidence,
	}
}

func TestSummarize(t *testing.T) {
	all := []types.Issue{
		testIssue(types.SeverityHigh, "accessibility", types.SourceAxe, 0.95),
		testIssue(types.SeverityMedium, "link_text", types.SourceDeterministic, 0.9),
		testIssue(types.SeverityMedium, "style", types.SourceLLM, 0.7),
		testIssue(types.SeverityLow, "formatting", types.SourceDeterministic, 0.95),
	}

	summary := Summarize(all)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.High)
	assert.Equal(t, 2, summary.Medium)
	assert.Equal(t, 1, summary.Low)
	assert.Equal(t, 1, summary.ByCategory["accessibility"])
	assert.Equal(t, 1, summary.ByCategory["style"])
	assert.Equal(t, 2, summary.BySource["deterministic"])
	assert.Equal(t, 1, summary.BySource["axe"])
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.Total)
	assert.NotNil(t, summary.ByCategory)
	assert.NotNil(t, summary.BySource)
}

func TestBuildFixPacks(t *testing.T) {
	confidentLow := testIssue(types.SeverityLow, "formatting", types.SourceDeterministic, 0.95)
	tentativeLow := testIssue(types.SeverityLow, "formatting", types.SourceLLM, 0.6)
	medium := testIssue(types.SeverityMedium, "style", types.SourceLLM, 0.7)
	high := testIssue(types.SeverityHigh, "accessibility", types.SourceAxe, 0.95)

	packs := BuildFixPacks([]types.Issue{confidentLow, tentativeLow, medium, high})

	assert.Len(t, packs.QuickWins, 1)
	assert.Equal(t, confidentLow, packs.QuickWins[0])
	assert.Len(t, packs.MediumEffort, 1)
	assert.Len(t, packs.StructuralFixes, 1)
}

func TestBuildFixPacks_EmptySlicesNotNil(t *testing.T) {
	packs := BuildFixPacks(nil)

	assert.NotNil(t, packs.QuickWins)
	assert.NotNil(t, packs.MediumEffort)
	assert.NotNil(t, packs.StructuralFixes)
}
