package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func sampleIssue() types.Issue {
	return types.Issue{
		ID:               uuid.New(),
		PageURL:          "https://example.com/pricing",
		PageTitle:        "Pricing",
		Category:         "grammar",
		Type:             "typo",
		Severity:         types.SeverityHigh,
		Evidence:         `the team "dilligently" reviews, every quarter`,
		ProposedFix:      "diligently",
		GuidelineRuleID:  "TONE-3",
		GuidelineSection: "Voice",
		Source:           types.SourceLLM,
		Confidence:       0.9,
	}
}

func TestWriteCSV(t *testing.T) {
	first := sampleIssue()
	second := sampleIssue()
	second.PageURL = "https://example.com/about"
	second.Severity = types.SeverityLow
	second.Confidence = 0.85

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []types.Issue{first, second}))

	out := buf.String()
	assert.Contains(t, out, "\r\n", "spreadsheet apps expect CRLF line endings")

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Columns, records[0])

	assert.Equal(t, first.PageURL, records[1][0])
	assert.Equal(t, "Pricing", records[1][1])
	assert.Equal(t, "grammar", records[1][2])
	assert.Equal(t, "typo", records[1][3])
	assert.Equal(t, "high", records[1][4])
	assert.Equal(t, first.Evidence, records[1][5], "quotes and commas survive the round trip")
	assert.Equal(t, "diligently", records[1][6])
	assert.Equal(t, "TONE-3", records[1][7])
	assert.Equal(t, "Voice", records[1][8])
	assert.Equal(t, "0.9", records[1][9])
	assert.Equal(t, "llm", records[1][10])

	assert.Equal(t, "low", records[2][4])
	assert.Equal(t, "0.85", records[2][9])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
	assert.Equal(t, Columns, records[0])
}

func TestWriteCSV_TruncatesLongText(t *testing.T) {
	issue := sampleIssue()
	issue.Evidence = strings.Repeat("é", 700)
	issue.ProposedFix = strings.Repeat("x", 501)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []types.Issue{issue}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 500, utf8.RuneCountInString(records[1][5]), "clipped on rune boundaries")
	assert.Equal(t, strings.Repeat("é", 500), records[1][5])
	assert.Len(t, records[1][6], 500)
}

func TestWriteXLSX(t *testing.T) {
	first := sampleIssue()
	second := sampleIssue()
	second.Type = "passive_voice"
	second.Severity = types.SeverityMedium
	second.Confidence = 0.75

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []types.Issue{first, second}))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"Page Url", "Page Title", "Category", "Type", "Severity",
		"Evidence", "Proposed Fix", "Guideline Rule Id", "Guideline Section",
		"Confidence", "Source",
	}, rows[0])

	assert.Equal(t, first.PageURL, rows[1][0])
	assert.Equal(t, "typo", rows[1][3])
	assert.Equal(t, "high", rows[1][4])
	assert.Equal(t, "0.9", rows[1][9])

	assert.Equal(t, "passive_voice", rows[2][3])
	assert.Equal(t, "medium", rows[2][4])
	assert.Equal(t, "0.75", rows[2][9])
}

func TestWriteXLSX_SeverityStyles(t *testing.T) {
	high := sampleIssue()
	alsoHigh := sampleIssue()
	low := sampleIssue()
	low.Severity = types.SeverityLow
	unknown := sampleIssue()
	unknown.Severity = types.IssueSeverity("critical")

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []types.Issue{high, alsoHigh, low, unknown}))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	styleAt := func(cell string) int {
		id, err := f.GetCellStyle(SheetName, cell)
		require.NoError(t, err)
		return id
	}

	headerStyle := styleAt("A1")
	highStyle := styleAt("A2")
	lowStyle := styleAt("A4")
	unknownStyle := styleAt("A5")

	assert.Equal(t, highStyle, styleAt("A3"), "same severity shares one style")
	assert.Equal(t, highStyle, styleAt("K2"), "style spans the whole row")
	assert.NotEqual(t, highStyle, lowStyle)
	assert.NotEqual(t, highStyle, headerStyle)
	assert.NotEqual(t, unknownStyle, highStyle, "unrecognized severity falls back to the plain style")
	assert.NotEqual(t, unknownStyle, lowStyle)
}

func TestWriteXLSX_ColumnWidths(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []types.Issue{sampleIssue()}))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	widthOf := func(col string) float64 {
		w, err := f.GetColWidth(SheetName, col)
		require.NoError(t, err)
		return w
	}

	assert.InDelta(t, 35, widthOf("A"), 0.01, "page URL column is the widest identifier")
	assert.InDelta(t, 50, widthOf("F"), 0.01, "evidence gets room to wrap")
	assert.InDelta(t, 12, widthOf("K"), 0.01)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Page Url", titleCase("page_url"))
	assert.Equal(t, "Guideline Rule Id", titleCase("guideline_rule_id"))
	assert.Equal(t, "Category", titleCase("category"))
}
