// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDiscovery outputs a human-readable summary of a discovery run.
func (p *Printer) PrintDiscovery(resp *types.DiscoverResponse) {
	if resp == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Found:    %d pages\n", resp.TotalFound))
	sb.WriteString(fmt.Sprintf("Selected: %d\n", len(resp.Pages)))
	if len(resp.Excluded) > 0 {
		sb.WriteString(fmt.Sprintf("Excluded: %d\n", len(resp.Excluded)))
	}
	sb.WriteString("\n")

	count := min(len(resp.Pages), maxItemsToShow)
	for i := 0; i < count; i++ {
		page := resp.Pages[i]
		sb.WriteString(fmt.Sprintf("• %s\n", page.URL))
		if page.Title != "" {
			title := page.Title
			if len(title) > 45 {
				title = title[:42] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %s [%s]\n", title, page.Source))
		}
	}
	if len(resp.Pages) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more pages\n", len(resp.Pages)-maxItemsToShow))
	}

	if len(resp.SmartExcludeSuggestions) > 0 {
		sb.WriteString("\nSuggested exclusions:\n")
		count := min(len(resp.SmartExcludeSuggestions), 3)
		for i := 0; i < count; i++ {
			s := resp.SmartExcludeSuggestions[i]
			sb.WriteString(fmt.Sprintf("  • %s (%s)\n", s.URL, s.Reason))
		}
		if len(resp.SmartExcludeSuggestions) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(resp.SmartExcludeSuggestions)-3))
		}
	}

	p.printBox("DISCOVERED PAGES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScanSummary outputs the aggregate issue counts for a completed scan.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintScanSummary(summary *types.IssueSummary) {
	if summary == nil {
		return
	}
	if summary.Total == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO ISSUES FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total:    %d issues\n", summary.Total))
	sb.WriteString(fmt.Sprintf("  High:   %d\n", summary.High))
	sb.WriteString(fmt.Sprintf("  Medium: %d\n", summary.Medium))
	sb.WriteString(fmt.Sprintf("  Low:    %d\n", summary.Low))

	if len(summary.ByCategory) > 0 {
		sb.WriteString("\nBy category:\n")
		for _, cat := range sortedKeys(summary.ByCategory) {
			sb.WriteString(fmt.Sprintf("  • %-20s %d\n", cat, summary.ByCategory[cat]))
		}
	}
	if len(summary.BySource) > 0 {
		sb.WriteString("\nBy source:\n")
		for _, src := range sortedKeys(summary.BySource) {
			sb.WriteString(fmt.Sprintf("  • %-20s %d\n", src, summary.BySource[src]))
		}
	}

	p.printBox("SCAN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTopIssues outputs the highest-severity issues with their evidence.
func (p *Printer) PrintTopIssues(issues []types.Issue) {
	if len(issues) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Showing %d of %d issues:\n\n", min(len(issues), maxItemsToShow), len(issues)))

	count := min(len(issues), maxItemsToShow)
	for i := 0; i < count; i++ {
		issue := issues[i]
		sb.WriteString(fmt.Sprintf("%s %s (%s)\n", severityMarker(issue.Severity), issue.Type, issue.Severity))
		if issue.PageURL != "" {
			url := issue.PageURL
			if len(url) > 48 {
				url = url[:45] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %s\n", url))
		}
		if issue.Evidence != "" {
			evidence := issue.Evidence
			if len(evidence) > 45 {
				evidence = evidence[:42] + "..."
			}
			sb.WriteString(fmt.Sprintf("  \"%s\"\n", evidence))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(issues) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more issues", len(issues)-maxItemsToShow))
	}

	p.printBox("TOP ISSUES", sb.String())
}

// PrintFixPacks outputs the suggested remediation buckets.
func (p *Printer) PrintFixPacks(packs *types.FixPacks) {
	if packs == nil {
		return
	}
	total := len(packs.QuickWins) + len(packs.MediumEffort) + len(packs.StructuralFixes)
	if total == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Quick wins:       %d\n", len(packs.QuickWins)))
	sb.WriteString(fmt.Sprintf("Medium effort:    %d\n", len(packs.MediumEffort)))
	sb.WriteString(fmt.Sprintf("Structural fixes: %d\n", len(packs.StructuralFixes)))

	if len(packs.QuickWins) > 0 {
		sb.WriteString("\nStart here:\n")
		count := min(len(packs.QuickWins), 3)
		for i := 0; i < count; i++ {
			fix := packs.QuickWins[i].ProposedFix
			if fix == "" {
				fix = packs.QuickWins[i].Type
			}
			if len(fix) > 50 {
				fix = fix[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", fix))
		}
		if len(packs.QuickWins) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(packs.QuickWins)-3))
		}
	}

	p.printBox("FIX PACKS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompare outputs the outcome of a scan comparison.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCompare(compare *types.ScanCompare) {
	if compare == nil {
		return
	}
	if len(compare.NewIssues) == 0 && len(compare.ResolvedIssues) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO CHANGES SINCE BASELINE")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("New:       %d\n", compare.Summary.NewCount))
	sb.WriteString(fmt.Sprintf("Resolved:  %d\n", compare.Summary.ResolvedCount))
	sb.WriteString(fmt.Sprintf("Unchanged: %d\n", compare.Summary.UnchangedCount))

	if len(compare.NewIssues) > 0 {
		sb.WriteString("\nNew issues:\n")
		count := min(len(compare.NewIssues), maxItemsToShow)
		for i := 0; i < count; i++ {
			issue := compare.NewIssues[i]
			sb.WriteString(fmt.Sprintf("  %s %s (%s)\n", severityMarker(issue.Severity), issue.Type, issue.Severity))
		}
		if len(compare.NewIssues) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(compare.NewIssues)-maxItemsToShow))
		}
	}

	if len(compare.ResolvedIssues) > 0 {
		sb.WriteString("\nResolved:\n")
		count := min(len(compare.ResolvedIssues), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  ✓ %s\n", compare.ResolvedIssues[i].Type))
		}
		if len(compare.ResolvedIssues) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(compare.ResolvedIssues)-3))
		}
	}

	p.printBox("SCAN COMPARISON", strings.TrimSuffix(sb.String(), "\n"))
}

func severityMarker(severity types.IssueSeverity) string {
	switch severity {
	case types.SeverityHigh:
		return "⚠"
	case types.SeverityMedium:
		return "◆"
	default:
		return "•"
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
