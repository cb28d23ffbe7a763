package guidelines

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// File is one uploaded guideline document.
type File struct {
	Filename string
	Content  []byte
}

// Manifest entry statuses.
const (
	FileStatusOK          = "ok"
	FileStatusUnsupported = "unsupported"
	FileStatusError       = "error"
)

// FileEntry records one file's extraction outcome in the version manifest.
type FileEntry struct {
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Ext        string `json:"ext,omitempty"`
	Chars      int    `json:"chars,omitempty"`
	Error      string `json:"error,omitempty"`
	StorageKey string `json:"storage_key,omitempty"`
}

// Manifest records what a guideline version was built from and how its
// rules were extracted. It is stored as the version's manifest JSON.
type Manifest struct {
	Files         []FileEntry `json:"files"`
	TextHash      string      `json:"text_hash,omitempty"`
	PromptVersion string      `json:"prompt_version,omitempty"`
	ModelUsed     string      `json:"model_used,omitempty"`
	RulesCount    int         `json:"rules_count,omitempty"`
}

// CombineFiles extracts text from each file and joins the results under
// "=== filename ===" markers so rule extraction can attribute rules to
// their source document. Files that cannot be extracted get a manifest
// entry and are left out of the combined text; one bad file does not sink
// the upload. The hash covers the exact combined text, so re-uploading
// identical documents produces an identical hash.
func CombineFiles(files []File) (combined string, textHash string, entries []FileEntry) {
	var parts []string
	entries = make([]FileEntry, 0, len(files))

	for _, f := range files {
		ext := Ext(f.Filename)
		if !Supported(f.Filename) {
			entries = append(entries, FileEntry{Filename: f.Filename, Status: FileStatusUnsupported, Ext: ext})
			continue
		}
		text, err := ExtractText(f.Filename, f.Content)
		if err != nil {
			entries = append(entries, FileEntry{Filename: f.Filename, Status: FileStatusError, Ext: ext, Error: err.Error()})
			continue
		}
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", f.Filename, text))
		entries = append(entries, FileEntry{Filename: f.Filename, Status: FileStatusOK, Ext: ext, Chars: len(text)})
	}

	combined = strings.Join(parts, "\n\n")
	sum := sha256.Sum256([]byte(combined))
	return combined, hex.EncodeToString(sum[:]), entries
}
