// Package guidelines turns uploaded style guide documents into versioned,
// structured rule sets. Uploads are extracted to text per file, combined
// under filename markers, hashed, and fed to the model for rule extraction.
package guidelines

import "fmt"

// UnsupportedFileError reports an upload with a file type no extractor
// handles.
type UnsupportedFileError struct {
	Filename string
	Ext      string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s", e.Ext, e.Filename)
}

// SetNotFoundError reports an operation against a guideline set id that
// does not exist.
type SetNotFoundError struct {
	SetID int64
}

func (e *SetNotFoundError) Error() string {
	return fmt.Sprintf("guideline set %d not found", e.SetID)
}

// ExtractionError represents a failure in LLM rule extraction
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rule extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("rule extraction error: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
