package issues

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func TestNormalize(t *testing.T) {
	raw := types.RawFinding{
		Category:    "link_text",
		Type:        "banned_phrase",
		Severity:    "medium",
		Evidence:    "...just click here to...",
		Explanation: "Link text should describe the destination",
		ProposedFix: "Use descriptive link text",
		Confidence:  0.9,
	}

	issue, err := Normalize(raw, types.SourceDeterministic, "https://example.com/about", "About Us")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/about", issue.PageURL)
	assert.Equal(t, "About Us", issue.PageTitle)
	assert.Equal(t, "link_text", issue.Category)
	assert.Equal(t, "banned_phrase", issue.Type)
	assert.Equal(t, types.SeverityMedium, issue.Severity)
	assert.Equal(t, types.SourceDeterministic, issue.Source)
	assert.Equal(t, 0.9, issue.Confidence)
	assert.NotEmpty(t, issue.Fingerprint)
	assert.Len(t, issue.Fingerprint, 64)
}

func TestNormalize_Defaults(t *testing.T) {
	raw := types.RawFinding{
		Explanation: "Sentence is hard to follow",
	}

	issue, err := Normalize(raw, types.SourceLLM, "https://example.com", "")
	require.NoError(t, err)

	assert.Equal(t, types.CategoryContent, issue.Category)
	assert.Equal(t, "general", issue.Type)
	assert.Equal(t, types.SeverityMedium, issue.Severity)
	assert.Equal(t, 0.0, issue.Confidence)
}

func TestNormalize_SeverityFallsBackToMedium(t *testing.T) {
	tests := []struct {
		name     string
		severity string
		want     types.IssueSeverity
	}{
		{"missing", "", types.SeverityMedium},
		{"unknown", "blocker", types.SeverityMedium},
		{"upper case", "HIGH", types.SeverityHigh},
		{"known low", "low", types.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := types.RawFinding{Severity: tt.severity, Evidence: "some evidence"}
			issue, err := Normalize(raw, types.SourceLLM, "https://example.com", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, issue.Severity)
		})
	}
}

func TestNormalize_ConfidenceClamped(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       float64
	}{
		{"above one", 1.7, 1.0},
		{"below zero", -0.3, 0.0},
		{"in range", 0.65, 0.65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := types.RawFinding{Evidence: "evidence", Confidence: tt.confidence}
			issue, err := Normalize(raw, types.SourceAxe, "https://example.com", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, issue.Confidence)
		})
	}
}

func TestNormalize_MalformedFinding(t *testing.T) {
	raw := types.RawFinding{
		Category: "style",
		Type:     "tone",
		Severity: "high",
	}

	_, err := Normalize(raw, types.SourceLLM, "https://example.com/about", "")
	require.Error(t, err)

	var malformed *MalformedFindingError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, types.SourceLLM, malformed.Source)
	assert.Equal(t, "https://example.com/about", malformed.PageURL)

	// Whitespace-only evidence and explanation are still malformed
	raw.Evidence = "   "
	raw.Explanation = "\n\t"
	_, err = Normalize(raw, types.SourceLLM, "https://example.com/about", "")
	assert.Error(t, err)
}

func TestNormalize_FingerprintFallsBackToExplanation(t *testing.T) {
	withEvidence := types.RawFinding{
		Category: "style",
		Type:     "tone",
		Evidence: "We're thrilled!!",
	}
	explanationOnly := types.RawFinding{
		Category:    "style",
		Type:        "tone",
		Explanation: "We're thrilled!!",
	}

	a, err := Normalize(withEvidence, types.SourceLLM, "https://example.com", "")
	require.NoError(t, err)
	b, err := Normalize(explanationOnly, types.SourceLLM, "https://example.com", "")
	require.NoError(t, err)

	// With no evidence the explanation feeds the fingerprint, so these
	// describe the same defect.
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}

func TestNormalize_RuleIDCleaned(t *testing.T) {
	raw := types.RawFinding{
		Evidence: "evidence",
		RuleID:   "[TONE-01]",
	}

	issue, err := Normalize(raw, types.SourceLLM, "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "TONE-01", issue.GuidelineRuleID)
}

func TestCleanRuleID(t *testing.T) {
	assert.Equal(t, "TONE-01", CleanRuleID("[TONE-01]"))
	assert.Equal(t, "TONE-01", CleanRuleID(" TONE-01\n"))
	assert.Equal(t, "", CleanRuleID("[]"))
}
