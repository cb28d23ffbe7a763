//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    JobStatus
		wantErr bool
	}{
		{
			name:  "lower case",
			input: "pending",
			want:  JobStatusPending,
		},
		{
			name:  "upper case wire form",
			input: "RUNNING",
			want:  JobStatusRunning,
		},
		{
			name:  "mixed case with whitespace",
			input: "  Completed ",
			want:  JobStatusCompleted,
		},
		{
			name:  "cancelled",
			input: "cancelled",
			want:  JobStatusCancelled,
		},
		{
			name:    "unknown value",
			input:   "paused",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJobStatus(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown job status")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusRunning, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
		{JobStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Terminal())
		})
	}
}

func TestParseJobStage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    JobStage
		wantErr bool
	}{
		{
			name:  "scraping",
			input: "scraping",
			want:  StageScraping,
		},
		{
			name:  "upper case wire form",
			input: "RUNNING_TOOLS",
			want:  StageRunningTools,
		},
		{
			name:  "parsing guidelines",
			input: "parsing_guidelines",
			want:  StageParsingGuidelines,
		},
		{
			name:    "unknown value",
			input:   "uploading",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJobStage(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  IssueSeverity
	}{
		{
			name:  "lower case high",
			input: "high",
			want:  SeverityHigh,
		},
		{
			name:  "upper case",
			input: "HIGH",
			want:  SeverityHigh,
		},
		{
			name:  "whitespace",
			input: " Low ",
			want:  SeverityLow,
		},
		{
			name:  "unknown falls back to medium",
			input: "catastrophic",
			want:  SeverityMedium,
		},
		{
			name:  "empty falls back to medium",
			input: "",
			want:  SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSeverity(tt.input))
		})
	}
}

func TestIssueSeverity_Rank(t *testing.T) {
	severities := []IssueSeverity{SeverityLow, SeverityHigh, SeverityMedium}
	sort.Slice(severities, func(i, j int) bool {
		return severities[i].Rank() < severities[j].Rank()
	})
	assert.Equal(t, []IssueSeverity{SeverityHigh, SeverityMedium, SeverityLow}, severities)
}

func TestIssueSource_Valid(t *testing.T) {
	for _, src := range []IssueSource{SourceDeterministic, SourceLLM, SourceAxe, SourceLighthouse} {
		assert.True(t, src.Valid(), "source %q should be valid", src)
	}
	assert.False(t, IssueSource("manual").Valid())
	assert.False(t, IssueSource("").Valid())
}

func TestExclusionRuleType_Valid(t *testing.T) {
	valid := []ExclusionRuleType{
		ExclusionURLContains,
		ExclusionURLRegex,
		ExclusionNavLabel,
		ExclusionCSSSelector,
		ExclusionDomain,
		ExclusionPath,
	}
	for _, rt := range valid {
		assert.True(t, rt.Valid(), "rule type %q should be valid", rt)
	}
	assert.False(t, ExclusionRuleType("query_blocklist").Valid())
}
