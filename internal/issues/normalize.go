package issues

import (
	"math"
	"strings"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// Normalize converts a raw validator finding into a canonical Issue for the
// given page. Missing severity defaults to medium, missing category and
// type get generic values, and confidence is clamped to [0,1]. The
// fingerprint hashes the evidence text, falling back to the explanation
// when no evidence is present. Pure transform: ID and CreatedAt are left
// for the store to assign.
//
// A finding with neither evidence nor explanation is rejected with a
// MalformedFindingError; the caller decides whether to drop or abort.
func Normalize(raw types.RawFinding, source types.IssueSource, pageURL, pageTitle string) (types.Issue, error) {
	evidence := strings.TrimSpace(raw.Evidence)
	explanation := strings.TrimSpace(raw.Explanation)
	if evidence == "" && explanation == "" {
		return types.Issue{}, &MalformedFindingError{Source: source, PageURL: pageURL}
	}

	category := strings.TrimSpace(raw.Category)
	if category == "" {
		category = types.CategoryContent
	}
	issueType := strings.TrimSpace(raw.Type)
	if issueType == "" {
		issueType = "general"
	}
	ruleID := CleanRuleID(raw.RuleID)

	fingerprintText := evidence
	if fingerprintText == "" {
		fingerprintText = explanation
	}

	return types.Issue{
		PageURL:         pageURL,
		PageTitle:       pageTitle,
		Category:        category,
		Type:            issueType,
		Severity:        types.NormalizeSeverity(raw.Severity),
		Evidence:        evidence,
		Explanation:     explanation,
		ProposedFix:     strings.TrimSpace(raw.ProposedFix),
		GuidelineRuleID: ruleID,
		Source:          source,
		Confidence:      clampConfidence(raw.Confidence),
		Fingerprint:     Fingerprint(pageURL, category, issueType, fingerprintText, ruleID),
	}, nil
}

// CleanRuleID strips the brackets and whitespace LLM output tends to wrap
// around cited rule ids.
func CleanRuleID(ruleID string) string {
	return strings.Trim(ruleID, "[] \t\n")
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
