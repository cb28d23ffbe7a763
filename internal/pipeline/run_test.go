package pipeline

import (
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/progress"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func TestResolveOptions_Defaults(t *testing.T) {
	job := &db.ScanJob{ID: uuid.New(), BaseURL: "https://example.com"}

	opts := resolveOptions(job)
	assert.Equal(t, "https://example.com", opts.BaseURL)
	assert.True(t, opts.RunDeterministic)
	assert.True(t, opts.RunLLM)
	assert.True(t, opts.RunAxe)
	assert.False(t, opts.RunLighthouse, "lighthouse is opt-in")
	assert.Empty(t, opts.PageURLs)
}

func TestResolveOptions_ExplicitOptionsWin(t *testing.T) {
	job := &db.ScanJob{
		ID:      uuid.New(),
		BaseURL: "https://example.com",
		Options: &types.ScanOptions{
			BaseURL:          "https://example.com",
			PageURLs:         []string{"https://example.com/pricing"},
			RunDeterministic: true,
			RunLighthouse:    true,
		},
	}

	opts := resolveOptions(job)
	assert.Equal(t, []string{"https://example.com/pricing"}, opts.PageURLs)
	assert.True(t, opts.RunDeterministic)
	assert.False(t, opts.RunLLM, "an explicit false stays false")
	assert.False(t, opts.RunAxe)
	assert.True(t, opts.RunLighthouse)
}

func TestNormalizeFindings(t *testing.T) {
	r := &Runner{}
	var dropped atomic.Int64

	raw := []types.RawFinding{
		{
			Category:    "grammar",
			Type:        "typo",
			Evidence:    "teh team",
			Explanation: "Misspelled word.",
			Source:      types.SourceLLM,
			Confidence:  0.7,
		},
		{
			// No evidence and no explanation: malformed, dropped.
			Category: "style",
			Source:   types.SourceLLM,
		},
		{
			Evidence:   "click here",
			Source:     types.SourceDeterministic,
			Confidence: 0.9,
		},
	}

	normalized := r.normalizeFindings(raw, "https://example.com/a", "Page A", &dropped)
	require.Len(t, normalized, 2)
	assert.Equal(t, int64(1), dropped.Load())

	assert.Equal(t, "https://example.com/a", normalized[0].PageURL)
	assert.Equal(t, "Page A", normalized[0].PageTitle)
	assert.Equal(t, types.SourceLLM, normalized[0].Source)
	assert.NotEmpty(t, normalized[0].Fingerprint)

	assert.Equal(t, types.SeverityMedium, normalized[1].Severity, "missing severity defaults")
	assert.Equal(t, types.SourceDeterministic, normalized[1].Source)
}

func TestTrackerTerminalEvent(t *testing.T) {
	hub := progress.NewHub()
	job := &db.ScanJob{ID: uuid.New(), ProgressSeq: 7, Stage: types.StageValidating}
	tr := newTracker(nil, hub, job)

	sub := hub.Subscribe(job.ID)
	defer sub.Cancel()

	tr.setStage(types.StageFinalizing)
	tr.setTotalPages(3)
	tr.pageScraped()
	tr.pageScraped()
	tr.pageScraped()
	tr.pageValidated()
	tr.pageValidated()
	tr.terminal(types.JobStatusCompleted, "Completed")

	ev := <-sub.C
	assert.Equal(t, progress.EventDone, ev.Type)
	assert.Equal(t, uint64(8), ev.Snapshot.Seq, "sequence continues past the persisted one")
	assert.Equal(t, types.JobStatusCompleted, ev.Snapshot.Status)
	assert.Equal(t, types.StageFinalizing, ev.Snapshot.Stage)
	assert.Equal(t, 3, ev.Snapshot.TotalPages)
	assert.Equal(t, 3, ev.Snapshot.Scraped)
	assert.Equal(t, 2, ev.Snapshot.Validated)
	assert.Equal(t, "Completed", ev.Snapshot.Message)
	assert.True(t, ev.Snapshot.Done())

	_, open := <-sub.C
	assert.False(t, open, "stream closes after the done event")
}

func TestTrackerCounts(t *testing.T) {
	tr := newTracker(nil, nil, &db.ScanJob{ID: uuid.New()})
	tr.pageScraped()
	tr.pageValidated()
	tr.pageValidated()

	scraped, validated := tr.counts()
	assert.Equal(t, 1, scraped)
	assert.Equal(t, 2, validated)

	tr.setStage(types.StageScraping)
	assert.Equal(t, types.StageScraping, tr.currentStage())
}
