package guidelines

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExtractText_TXT(t *testing.T) {
	text, err := ExtractText("style.txt", []byte("Always write in active voice.\nAvoid jargon."))
	require.NoError(t, err)
	assert.Equal(t, "Always write in active voice.\nAvoid jargon.", text)
}

func TestExtractText_TXTReplacesInvalidUTF8(t *testing.T) {
	text, err := ExtractText("style.txt", []byte{'o', 'k', 0xff, 0xfe, '!'})
	require.NoError(t, err)
	assert.Contains(t, text, "ok")
	assert.Contains(t, text, "�")
	assert.Contains(t, text, "!")
}

func TestExtractText_Markdown(t *testing.T) {
	text, err := ExtractText("tone.md", []byte("# Tone\n\nBe direct and friendly."))
	require.NoError(t, err)
	assert.Contains(t, text, "Be direct and friendly.")
}

func TestExtractText_CSV(t *testing.T) {
	csvData := "rule,severity\nNo exclamation marks,high\n,\nUse sentence case,medium\n"
	text, err := ExtractText("rules.csv", []byte(csvData))
	require.NoError(t, err)

	assert.Equal(t, "rule | severity\nNo exclamation marks | high\nUse sentence case | medium", text)
}

func TestExtractText_CSVRaggedRows(t *testing.T) {
	csvData := "a,b,c\nd\ne,f\n"
	text, err := ExtractText("ragged.csv", []byte(csvData))
	require.NoError(t, err)
	assert.Equal(t, "a | b | c\nd\ne | f", text)
}

// buildDOCX assembles a minimal but genuine .docx archive.
func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText_DOCX(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Always write in active voice.</w:t></w:r></w:p>
    <w:p/>
    <w:p><w:r><w:t>Use </w:t></w:r><w:r><w:t>sentence case</w:t></w:r><w:r><w:t> for headings.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := ExtractText("voice.docx", buildDOCX(t, docXML))
	require.NoError(t, err)

	// Runs within a paragraph concatenate; empty paragraphs are dropped.
	assert.Equal(t, "Always write in active voice.\n\nUse sentence case for headings.", text)
}

func TestExtractText_DOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, _ = w.Write([]byte("<styles/>"))
	require.NoError(t, zw.Close())

	_, err = ExtractText("broken.docx", buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml")
}

func TestExtractText_DOCXNotAZip(t *testing.T) {
	_, err := ExtractText("broken.docx", []byte("this is not a zip archive"))
	require.Error(t, err)
}

func TestExtractText_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Voice"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Use active voice"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Tone"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Friendly, not casual"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	text, err := ExtractText("matrix.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Contains(t, text, "--- Sheet: Sheet1 ---")
	assert.Contains(t, text, "Voice | Use active voice")
	assert.Contains(t, text, "Tone | Friendly, not casual")
}

func TestExtractText_PDFInvalid(t *testing.T) {
	_, err := ExtractText("guide.pdf", []byte("not a pdf at all"))
	require.Error(t, err)
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := ExtractText("virus.exe", []byte{0x4d, 0x5a})
	require.Error(t, err)
	var unsupportedErr *UnsupportedFileError
	require.ErrorAs(t, err, &unsupportedErr)
	assert.Equal(t, ".exe", unsupportedErr.Ext)
	assert.Equal(t, "virus.exe", unsupportedErr.Filename)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("guide.pdf"))
	assert.True(t, Supported("GUIDE.PDF"), "extension check is case insensitive")
	assert.True(t, Supported("notes.md"))
	assert.False(t, Supported("archive.zip"))
	assert.False(t, Supported("noextension"))
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Equal(t, []string{".csv", ".docx", ".md", ".pdf", ".txt", ".xlsx"}, exts)
}
