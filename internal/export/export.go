// Package export renders a scan's issues as CSV or XLSX downloads.
//
// Both formats share one column order and the same row normalization. The
// XLSX writer additionally tints rows by severity so a reviewer can triage
// a spreadsheet at a glance.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// Columns is the fixed column order shared by the CSV and XLSX writers.
var Columns = []string{
	"page_url", "page_title", "category", "type", "severity",
	"evidence", "proposed_fix", "guideline_rule_id", "guideline_section",
	"confidence", "source",
}

var columnWidths = []float64{35, 20, 15, 20, 8, 50, 50, 15, 15, 8, 12}

// SheetName is the worksheet holding exported issues.
const SheetName = "Validation Results"

// maxCellChars caps evidence and fix text so spreadsheet cells stay readable.
const maxCellChars = 500

// WriteCSV streams issues to w as CSV with a header row of raw column keys.
func WriteCSV(w io.Writer, issues []types.Issue) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, issue := range issues {
		if err := cw.Write(row(issue)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes issues to w as a styled workbook. Rows are filled by
// severity and every cell carries a thin border, matching the palette the
// dashboard uses for severity badges.
func WriteXLSX(w io.Writer, issues []types.Issue) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return err
	}

	if err := writeRow(f, 1, headerTitles(), styles.header); err != nil {
		return err
	}
	for i, issue := range issues {
		if err := writeRow(f, i+2, row(issue), styles.forSeverity(issue.Severity)); err != nil {
			return err
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to name column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// row renders one issue in Columns order.
func row(issue types.Issue) []string {
	return []string{
		issue.PageURL,
		issue.PageTitle,
		issue.Category,
		issue.Type,
		string(issue.Severity),
		truncateRunes(issue.Evidence, maxCellChars),
		truncateRunes(issue.ProposedFix, maxCellChars),
		issue.GuidelineRuleID,
		issue.GuidelineSection,
		strconv.FormatFloat(issue.Confidence, 'g', -1, 64),
		string(issue.Source),
	}
}

func writeRow(f *excelize.File, rowNum int, values []string, styleID int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(Columns), rowNum)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, start, end, styleID); err != nil {
		return fmt.Errorf("failed to style row %d: %w", rowNum, err)
	}
	return nil
}

var severityFills = map[string]string{
	"high":   "#FFE0E0",
	"medium": "#FFF3E0",
	"low":    "#E8F5E9",
}

type styleSet struct {
	header     int
	bySeverity map[string]int
	fallback   int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#ffffff"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1a1a2e"}},
		Border: border,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	bySeverity := make(map[string]int, len(severityFills))
	for severity, fill := range severityFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
			Border: border,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s severity style: %w", severity, err)
		}
		bySeverity[severity] = id
	}

	fallback, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create default style: %w", err)
	}

	return &styleSet{header: header, bySeverity: bySeverity, fallback: fallback}, nil
}

func (s *styleSet) forSeverity(severity types.IssueSeverity) int {
	if id, ok := s.bySeverity[strings.ToLower(string(severity))]; ok {
		return id
	}
	return s.fallback
}

func headerTitles() []string {
	titles := make([]string, len(Columns))
	for i, col := range Columns {
		titles[i] = titleCase(col)
	}
	return titles
}

// titleCase turns a snake_case column key into a spreadsheet header,
// "guideline_rule_id" becoming "Guideline Rule Id".
func titleCase(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
