package diff

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func issueFP(fp string, severity types.IssueSeverity, category string) types.Issue {
	return types.Issue{
		PageURL:     "https://example.com/x",
		Category:    category,
		Type:        "typo",
		Severity:    severity,
		Evidence:    "evidence for " + fp,
		Source:      types.SourceDeterministic,
		Confidence:  0.9,
		Fingerprint: fp,
	}
}

func TestCompareIssues_Partitions(t *testing.T) {
	aID, bID := uuid.New(), uuid.New()
	issuesA := []types.Issue{
		issueFP("f1", types.SeverityHigh, "grammar"),
		issueFP("f2", types.SeverityLow, "style"),
		issueFP("f3", types.SeverityMedium, "style"),
	}
	issuesB := []types.Issue{
		issueFP("f3", types.SeverityMedium, "style"),
		issueFP("f4", types.SeverityHigh, "accessibility"),
		issueFP("f5", types.SeverityHigh, "grammar"),
	}

	c := compareIssues(aID, bID, issuesA, issuesB)
	assert.Equal(t, aID, c.ScanAID)
	assert.Equal(t, bID, c.ScanBID)

	newFPs := fingerprintsOf(c.NewIssues)
	resolvedFPs := fingerprintsOf(c.ResolvedIssues)
	assert.Equal(t, []string{"f4", "f5"}, newFPs)
	assert.Equal(t, []string{"f1", "f2"}, resolvedFPs)
	assert.Equal(t, 1, c.UnchangedCount)

	// Every fingerprint of either scan lands in exactly one partition.
	assert.Equal(t, 5, len(newFPs)+len(resolvedFPs)+c.UnchangedCount)

	assert.Equal(t, 2, c.Summary.NewCount)
	assert.Equal(t, 2, c.Summary.ResolvedCount)
	assert.Equal(t, 1, c.Summary.UnchangedCount)
	assert.Equal(t, 1, c.Summary.UnchangedInstances)
	assert.Equal(t, map[string]int{"high": 2}, c.Summary.NewBySeverity)
	assert.Equal(t, map[string]int{"high": 1, "low": 1}, c.Summary.ResolvedBySeverity)
	assert.Equal(t, map[string]int{"accessibility": 1, "grammar": 1}, c.Summary.NewByCategory)
	assert.Equal(t, map[string]int{"grammar": 1, "style": 1}, c.Summary.ResolvedByCategory)
}

func TestCompareIssues_SelfDiff(t *testing.T) {
	id := uuid.New()
	issues := []types.Issue{
		issueFP("f1", types.SeverityHigh, "grammar"),
		issueFP("f2", types.SeverityLow, "style"),
	}

	c := compareIssues(id, id, issues, issues)
	assert.Empty(t, c.NewIssues)
	assert.Empty(t, c.ResolvedIssues)
	assert.Equal(t, 2, c.UnchangedCount)
	assert.Equal(t, 2, c.Summary.UnchangedInstances)
}

func TestCompareIssues_DuplicateFingerprints(t *testing.T) {
	issuesA := []types.Issue{issueFP("f1", types.SeverityMedium, "style")}

	// f1 recurs three times on the rerun, f2 twice.
	first := issueFP("f2", types.SeverityHigh, "grammar")
	first.Evidence = "first occurrence"
	second := issueFP("f2", types.SeverityHigh, "grammar")
	second.Evidence = "second occurrence"
	issuesB := []types.Issue{
		issueFP("f1", types.SeverityMedium, "style"),
		first,
		issueFP("f1", types.SeverityMedium, "style"),
		second,
		issueFP("f1", types.SeverityMedium, "style"),
	}

	c := compareIssues(uuid.New(), uuid.New(), issuesA, issuesB)

	// Classification is by fingerprint, not instance count.
	require.Len(t, c.NewIssues, 1)
	assert.Equal(t, "first occurrence", c.NewIssues[0].Evidence, "first instance represents the fingerprint")
	assert.Equal(t, 1, c.Summary.NewCount)
	assert.Equal(t, 1, c.UnchangedCount)
	assert.Equal(t, 3, c.Summary.UnchangedInstances, "instance count keeps duplicates visible")
	assert.Empty(t, c.ResolvedIssues)
}

func TestCompareIssues_EmptyBaseline(t *testing.T) {
	issuesB := []types.Issue{
		issueFP("f1", types.SeverityHigh, "grammar"),
		issueFP("f2", types.SeverityLow, "style"),
	}

	c := compareIssues(uuid.New(), uuid.New(), nil, issuesB)
	assert.Len(t, c.NewIssues, 2)
	assert.Empty(t, c.ResolvedIssues)
	assert.Zero(t, c.UnchangedCount)
	assert.Zero(t, c.Summary.UnchangedInstances)

	// Lists marshal as [] rather than null for API consumers.
	assert.NotNil(t, c.NewIssues)
	assert.NotNil(t, c.ResolvedIssues)
}

func TestComparable(t *testing.T) {
	completed := func(baseURL string, projectID *int64) *db.ScanJob {
		return &db.ScanJob{
			ID:        uuid.New(),
			BaseURL:   baseURL,
			ProjectID: projectID,
			Status:    types.JobStatusCompleted,
		}
	}
	p1, p2 := int64(1), int64(2)

	tests := []struct {
		name   string
		a, b   *db.ScanJob
		reason string
	}{
		{
			name: "running candidate",
			a:    completed("https://example.com", nil),
			b: &db.ScanJob{
				ID: uuid.New(), BaseURL: "https://example.com",
				Status: types.JobStatusRunning,
			},
			reason: "not completed",
		},
		{
			name:   "different base URLs",
			a:      completed("https://example.com", nil),
			b:      completed("https://other.example.com", nil),
			reason: "different base URLs",
		},
		{
			name:   "project vs no project",
			a:      completed("https://example.com", &p1),
			b:      completed("https://example.com", nil),
			reason: "different projects",
		},
		{
			name:   "different projects",
			a:      completed("https://example.com", &p1),
			b:      completed("https://example.com", &p2),
			reason: "different projects",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := comparable(tt.a, tt.b)
			require.Error(t, err)
			var incomparable *IncomparableJobsError
			require.ErrorAs(t, err, &incomparable)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}

	t.Run("same project", func(t *testing.T) {
		p := int64(7)
		assert.NoError(t, comparable(completed("https://example.com", &p), completed("https://example.com", &p)))
	})
	t.Run("both without project", func(t *testing.T) {
		assert.NoError(t, comparable(completed("https://example.com", nil), completed("https://example.com", nil)))
	})
}

func TestCountByUnknownKey(t *testing.T) {
	issues := []types.Issue{
		{Fingerprint: "f1", Severity: types.SeverityHigh},
		{Fingerprint: "f2"},
	}
	counts := countBy(issues, func(i types.Issue) string { return string(i.Severity) })
	assert.Equal(t, map[string]int{"high": 1, "unknown": 1}, counts)
}

func TestErrorTypes(t *testing.T) {
	var err error = &NoBaselineError{ScanID: uuid.New(), BaseURL: "https://example.com"}
	var noBaseline *NoBaselineError
	require.ErrorAs(t, err, &noBaseline)
	assert.Contains(t, err.Error(), "no completed scan of https://example.com")

	err = &ScanNotFoundError{ScanID: uuid.New()}
	var notFound *ScanNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func fingerprintsOf(issues []types.Issue) []string {
	fps := make([]string, len(issues))
	for i, issue := range issues {
		fps[i] = issue.Fingerprint
	}
	return fps
}
