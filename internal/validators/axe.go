package validators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// AxeCDNURL serves the pinned axe-core build injected into audited pages.
const AxeCDNURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.8.4/axe.min.js"

const (
	// DefaultAxeTimeout bounds one full audit, navigation included.
	DefaultAxeTimeout = 60 * time.Second
	axeLoadTimeout    = 10 * time.Second
	axeRunTimeout     = 30 * time.Second
)

const axeInjectJS = `(function() {
	if (document.getElementById("__axe_script")) { return; }
	var s = document.createElement("script");
	s.id = "__axe_script";
	s.src = "` + AxeCDNURL + `";
	document.head.appendChild(s);
})()`

const axeRunJS = `(function() {
	window.__axeAudit = undefined;
	axe.run().then(function(results) {
		window.__axeAudit = JSON.stringify({
			violations: results.violations.map(function(v) {
				return {
					id: v.id,
					impact: v.impact,
					description: v.description,
					help: v.help,
					helpUrl: v.helpUrl,
					nodes: v.nodes.slice(0, 5).map(function(n) {
						return {
							html: (n.html || "").substring(0, 200),
							failureSummary: n.failureSummary || ""
						};
					})
				};
			})
		});
	}).catch(function(err) {
		window.__axeAudit = JSON.stringify({ error: String(err) });
	});
})()`

// AxeAuditor runs axe-core accessibility audits in a headless browser.
// Requires Chrome/Chromium to be installed on the system.
type AxeAuditor struct {
	Timeout time.Duration
	Verbose bool
}

// NewAxeAuditor builds an auditor, falling back to the default timeout.
func NewAxeAuditor(timeout time.Duration, verbose bool) *AxeAuditor {
	if timeout <= 0 {
		timeout = DefaultAxeTimeout
	}
	return &AxeAuditor{Timeout: timeout, Verbose: verbose}
}

type axeNode struct {
	HTML           string `json:"html"`
	FailureSummary string `json:"failureSummary"`
}

type axeViolation struct {
	ID          string    `json:"id"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Nodes       []axeNode `json:"nodes"`
}

type axeResult struct {
	Violations []axeViolation `json:"violations"`
	Error      string         `json:"error,omitempty"`
}

// Audit loads the page, injects axe-core from the CDN, runs the audit
// and converts the violations into raw findings.
func (a *AxeAuditor) Audit(ctx context.Context, url string) ([]types.RawFinding, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultAxeTimeout
	}
	a.logf("starting axe audit for: %s", url)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var axeLoaded bool
	var resultJSON string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(axeInjectJS, nil),
		chromedp.Poll(`() => typeof axe !== "undefined"`, &axeLoaded, chromedp.WithPollingTimeout(axeLoadTimeout)),
		chromedp.Evaluate(axeRunJS, nil),
		chromedp.Poll(`() => window.__axeAudit`, &resultJSON, chromedp.WithPollingTimeout(axeRunTimeout)),
	)
	if err != nil {
		return nil, &AuditError{Tool: "axe", URL: url, Cause: err}
	}

	var result axeResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, &AuditError{Tool: "axe", URL: url, Cause: fmt.Errorf("failed to decode audit result: %w", err)}
	}
	if result.Error != "" {
		return nil, &AuditError{Tool: "axe", URL: url, Cause: errors.New(result.Error)}
	}

	a.logf("axe audit found %d violations on %s", len(result.Violations), url)
	return axeFindings(result.Violations), nil
}

func axeFindings(violations []axeViolation) []types.RawFinding {
	findings := make([]types.RawFinding, 0, len(violations))
	for _, v := range violations {
		parts := make([]string, len(v.Nodes))
		for i, n := range v.Nodes {
			parts[i] = truncateChars(n.HTML, 100)
		}
		evidence := strings.Join(parts, "; ")
		if evidence == "" {
			evidence = v.Help
		}

		id := v.ID
		if id == "" {
			id = "unknown"
		}
		fix := v.Help
		if v.HelpURL != "" {
			fix += fmt.Sprintf(" (see: %s)", v.HelpURL)
		}

		findings = append(findings, types.RawFinding{
			Category:    types.CategoryAccessibility,
			Type:        id,
			Severity:    string(severityForImpact(v.Impact)),
			Evidence:    evidence,
			Explanation: v.Description,
			ProposedFix: fix,
			Source:      types.SourceAxe,
			Confidence:  0.95,
		})
	}
	return findings
}

// severityForImpact maps axe impact levels onto issue severities.
func severityForImpact(impact string) types.IssueSeverity {
	switch impact {
	case "critical", "serious":
		return types.SeverityHigh
	case "minor":
		return types.SeverityLow
	default:
		return types.SeverityMedium
	}
}

func (a *AxeAuditor) logf(format string, args ...any) {
	if a.Verbose {
		log.Printf("[AXE] "+format, args...)
	}
}
