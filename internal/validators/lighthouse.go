package validators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// DefaultLighthouseTimeout bounds one full Lighthouse run.
const DefaultLighthouseTimeout = 120 * time.Second

// LighthouseRunner shells out to the Lighthouse CLI. The CLI is looked
// up as `lighthouse` first, falling back to `npx lighthouse`; when
// neither exists Audit returns an UnavailableError and callers skip the
// validator.
type LighthouseRunner struct {
	Timeout time.Duration
	Verbose bool
}

// NewLighthouseRunner builds a runner, falling back to the default timeout.
func NewLighthouseRunner(timeout time.Duration, verbose bool) *LighthouseRunner {
	if timeout <= 0 {
		timeout = DefaultLighthouseTimeout
	}
	return &LighthouseRunner{Timeout: timeout, Verbose: verbose}
}

// Available reports whether a Lighthouse CLI can be found on PATH.
func (l *LighthouseRunner) Available() bool {
	_, err := lighthouseCommand(context.Background(), "about:blank")
	return err == nil
}

func lighthouseCommand(ctx context.Context, url string) (*exec.Cmd, error) {
	args := []string{
		url,
		"--output=json",
		"--output-path=stdout",
		"--quiet",
		"--chrome-flags=--headless --no-sandbox --disable-gpu",
	}
	if path, err := exec.LookPath("lighthouse"); err == nil {
		return exec.CommandContext(ctx, path, args...), nil
	}
	if path, err := exec.LookPath("npx"); err == nil {
		return exec.CommandContext(ctx, path, append([]string{"--yes", "lighthouse"}, args...)...), nil
	}
	return nil, &UnavailableError{Tool: "lighthouse"}
}

// Audit runs Lighthouse against the URL and parses the JSON report into
// raw findings.
func (l *LighthouseRunner) Audit(ctx context.Context, url string) ([]types.RawFinding, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultLighthouseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd, err := lighthouseCommand(ctx, url)
	if err != nil {
		return nil, err
	}
	l.logf("running %s", strings.Join(cmd.Args, " "))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := truncateChars(strings.TrimSpace(stderr.String()), 200)
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return nil, &AuditError{Tool: "lighthouse", URL: url, Cause: err}
	}

	findings, err := ParseLighthouseReport(stdout.Bytes())
	if err != nil {
		return nil, &AuditError{Tool: "lighthouse", URL: url, Cause: err}
	}
	l.logf("lighthouse produced %d findings for %s", len(findings), url)
	return findings, nil
}

type lighthouseReport struct {
	Categories map[string]lighthouseCategory `json:"categories"`
	Audits     map[string]lighthouseAudit    `json:"audits"`
}

type lighthouseCategory struct {
	Score     *float64             `json:"score"`
	AuditRefs []lighthouseAuditRef `json:"auditRefs"`
}

type lighthouseAuditRef struct {
	ID string `json:"id"`
}

type lighthouseAudit struct {
	Score        *float64 `json:"score"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DisplayValue string   `json:"displayValue"`
}

// ParseLighthouseReport converts a Lighthouse JSON report into raw
// findings. Categories scoring 0.9 or better pass and are skipped; in a
// failing category every audit scoring below 1.0 produces one finding.
// Unscored audits (informational entries) never do.
func ParseLighthouseReport(report []byte) ([]types.RawFinding, error) {
	var parsed lighthouseReport
	if err := json.Unmarshal(report, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse lighthouse report: %w", err)
	}

	catIDs := make([]string, 0, len(parsed.Categories))
	for id := range parsed.Categories {
		catIDs = append(catIDs, id)
	}
	sort.Strings(catIDs)

	var findings []types.RawFinding
	for _, catID := range catIDs {
		category := parsed.Categories[catID]
		if category.Score == nil || *category.Score >= 0.9 {
			continue
		}
		for _, ref := range category.AuditRefs {
			audit, ok := parsed.Audits[ref.ID]
			if !ok || audit.Score == nil || *audit.Score >= 1.0 {
				continue
			}

			severity := types.SeverityLow
			switch {
			case *audit.Score < 0.5:
				severity = types.SeverityHigh
			case *audit.Score < 0.9:
				severity = types.SeverityMedium
			}

			findings = append(findings, types.RawFinding{
				Category:    lighthouseCategoryName(catID),
				Type:        ref.ID,
				Severity:    string(severity),
				Evidence:    audit.DisplayValue,
				Explanation: audit.Description,
				ProposedFix: audit.Title,
				Source:      types.SourceLighthouse,
				Confidence:  0.92,
			})
		}
	}
	return findings, nil
}

func lighthouseCategoryName(catID string) string {
	switch catID {
	case "performance":
		return types.CategoryPerformance
	case "accessibility":
		return types.CategoryAccessibility
	case "seo":
		return types.CategorySEO
	}
	return types.CategoryContent
}

func (l *LighthouseRunner) logf(format string, args ...any) {
	if l.Verbose {
		log.Printf("[LIGHTHOUSE] "+format, args...)
	}
}
