package guidelines

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/llm"
)

// BlobStore persists uploaded guideline source files. Implementations
// live in internal/storage.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Service owns guideline uploads end to end: text extraction, version
// creation, LLM rule extraction and source file storage.
type Service struct {
	DB *db.DB
	// LLM performs rule extraction. Nil disables it; versions are still
	// created with their manifest and text hash.
	LLM llm.Client
	// Store receives the uploaded source files. Nil disables storage.
	Store   BlobStore
	Verbose bool
}

// NewService wires a guideline service. Any of client and store may be nil.
func NewService(database *db.DB, client llm.Client, store BlobStore) *Service {
	return &Service{DB: database, LLM: client, Store: store}
}

// CreateSet creates a guideline set and builds its first version from the
// uploaded files.
func (s *Service) CreateSet(ctx context.Context, projectID *int64, name, description string, files []File) (*db.GuidelineSet, *db.GuidelineVersion, error) {
	set, err := s.DB.CreateGuidelineSet(ctx, projectID, name, description)
	if err != nil {
		return nil, nil, err
	}
	version, err := s.BuildVersion(ctx, set.ID, files)
	if err != nil {
		return nil, nil, err
	}
	return set, version, nil
}

// AddVersion builds a new version of an existing set from fresh files.
func (s *Service) AddVersion(ctx context.Context, setID int64, files []File) (*db.GuidelineVersion, error) {
	set, err := s.DB.GetGuidelineSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, &SetNotFoundError{SetID: setID}
	}
	return s.BuildVersion(ctx, setID, files)
}

// BuildVersion extracts text from the files, runs rule extraction, stores
// the source documents and persists the version with its manifest and
// rules. Rule extraction is best effort: a failed model call still
// produces a version, since rules can be re-extracted from the stored
// files later.
func (s *Service) BuildVersion(ctx context.Context, setID int64, files []File) (*db.GuidelineVersion, error) {
	if len(files) == 0 {
		return nil, &ExtractionError{Message: "no files provided"}
	}

	combined, textHash, entries := CombineFiles(files)
	manifest := Manifest{Files: entries, TextHash: textHash}

	var extracted *ExtractedRules
	if s.LLM != nil {
		result, err := ExtractRules(ctx, s.LLM, combined)
		if err != nil {
			s.logf("rule extraction failed for set %d: %v", setID, err)
		} else {
			extracted = result
			manifest.PromptVersion = result.PromptVersion
			manifest.ModelUsed = result.ModelUsed
			manifest.RulesCount = len(result.Rules)
		}
	}

	s.storeSourceFiles(ctx, setID, textHash, files, manifest.Files)

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	version, err := s.DB.CreateGuidelineVersion(ctx, setID, manifestJSON)
	if err != nil {
		return nil, err
	}

	if extracted != nil && len(extracted.Rules) > 0 {
		if _, err := s.DB.InsertGuidelineRules(ctx, version.ID, extracted.Rules); err != nil {
			return nil, fmt.Errorf("failed to persist extracted rules: %w", err)
		}
	}

	// A fresh upload becomes the set's active version. Scans that omit an
	// explicit version number pick up the active one, so uploading always
	// moves the default forward unless an older version is re-activated.
	if err := s.DB.ActivateGuidelineVersion(ctx, version.ID); err != nil {
		return nil, err
	}
	version.IsActive = true

	return version, nil
}

// storeSourceFiles uploads the original documents and notes each storage
// key on its manifest entry. Failures are logged and leave the key empty;
// losing a source copy does not lose the version.
func (s *Service) storeSourceFiles(ctx context.Context, setID int64, textHash string, files []File, entries []FileEntry) {
	if s.Store == nil {
		return
	}
	prefix := textHash
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	for i, f := range files {
		key := fmt.Sprintf("guidelines/set-%d/%s/%s", setID, prefix, path.Base(f.Filename))
		if err := s.Store.Put(ctx, key, f.Content, contentTypeFor(f.Filename)); err != nil {
			s.logf("failed to store %s: %v", f.Filename, err)
			continue
		}
		entries[i].StorageKey = key
	}
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".md":   "text/markdown",
}

func contentTypeFor(filename string) string {
	if ct, ok := contentTypes[Ext(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

func (s *Service) logf(format string, args ...any) {
	if s.Verbose {
		log.Printf("[GUIDELINES] "+format, args...)
	}
}
