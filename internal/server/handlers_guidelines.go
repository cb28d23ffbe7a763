package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/guidelines"
)

// GuidelineVersionResponse summarizes one version of a guideline set
type GuidelineVersionResponse struct {
	ID        int64           `json:"id"`
	Version   int             `json:"version_number"`
	IsActive  bool            `json:"is_active"`
	RuleCount int             `json:"rules_count"`
	Manifest  json.RawMessage `json:"file_manifest,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// GuidelineSetResponse is a guideline set with all its versions
type GuidelineSetResponse struct {
	ID          int64                      `json:"id"`
	ProjectID   *int64                     `json:"project_id,omitempty"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	Versions    []GuidelineVersionResponse `json:"versions"`
}

// handleCreateGuidelineSet uploads style guide documents as a new set.
// The request is multipart: a "name" field plus one or more "files"
// parts. Rule extraction runs inline, so this call can take a while.
func (s *Server) handleCreateGuidelineSet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		s.errorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	description := r.FormValue("description")

	var projectID *int64
	if raw := r.FormValue("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid project_id format")
			return
		}
		projectID = &id
	}

	files, ok := s.readUploadedFiles(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	set, version, err := s.guidelines.CreateSet(ctx, projectID, name, description, files)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	log.Printf("Created guideline set %d version %d (%d files)", set.ID, version.Version, len(files))

	resp, err := s.formatGuidelineSet(ctx, set)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// handleAddGuidelineVersion uploads new documents as the next version of
// an existing set. The new version becomes the set's active version.
func (s *Server) handleAddGuidelineVersion(w http.ResponseWriter, r *http.Request) {
	setID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid guideline set ID format")
		return
	}

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	files, ok := s.readUploadedFiles(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	version, err := s.guidelines.AddVersion(ctx, setID, files)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	counts, err := s.db.RuleCountsByVersion(ctx, []int64{version.ID})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	log.Printf("Added guideline version %d to set %d (%d files)", version.Version, setID, len(files))

	s.jsonResponse(w, http.StatusCreated, formatGuidelineVersion(*version, counts[version.ID]))
}

// handleListGuidelineSets lists guideline sets, optionally scoped to a
// project via the project_id query parameter
func (s *Server) handleListGuidelineSets(w http.ResponseWriter, r *http.Request) {
	var projectID *int64
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid project_id format")
			return
		}
		projectID = &id
	}

	ctx := r.Context()

	sets, err := s.db.ListGuidelineSets(ctx, projectID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	formatted := make([]GuidelineSetResponse, 0, len(sets))
	for i := range sets {
		resp, err := s.formatGuidelineSet(ctx, &sets[i])
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
			return
		}
		formatted = append(formatted, *resp)
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"sets": formatted})
}

// handleGetGuidelineSet returns one set with all its versions
func (s *Server) handleGetGuidelineSet(w http.ResponseWriter, r *http.Request) {
	setID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid guideline set ID format")
		return
	}

	ctx := r.Context()

	set, err := s.db.GetGuidelineSet(ctx, setID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if set == nil {
		s.errorResponse(w, http.StatusNotFound, "Guideline set not found")
		return
	}

	resp, err := s.formatGuidelineSet(ctx, set)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleListVersionRules returns the extracted rules of one version.
// The version must belong to the set named in the path.
func (s *Server) handleListVersionRules(w http.ResponseWriter, r *http.Request) {
	setID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid guideline set ID format")
		return
	}
	versionID, err := strconv.ParseInt(r.PathValue("vid"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid guideline version ID format")
		return
	}

	ctx := r.Context()

	version, err := s.db.GetGuidelineVersion(ctx, versionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if version == nil || version.SetID != setID {
		s.errorResponse(w, http.StatusNotFound, "Guideline version not found")
		return
	}

	rules, err := s.db.ListGuidelineRules(ctx, versionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if rules == nil {
		rules = []db.GuidelineRule{}
	}

	s.jsonResponse(w, http.StatusOK, rules)
}

// readUploadedFiles collects the multipart "files" parts, rejecting
// unsupported types and oversize files before any database work. Writes
// the error response itself on failure.
func (s *Server) readUploadedFiles(w http.ResponseWriter, r *http.Request) ([]guidelines.File, bool) {
	var parts []*multipart.FileHeader
	if r.MultipartForm != nil {
		parts = r.MultipartForm.File["files"]
	}
	if len(parts) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "At least one file is required")
		return nil, false
	}

	files := make([]guidelines.File, 0, len(parts))
	for _, part := range parts {
		if !guidelines.Supported(part.Filename) {
			s.errorResponse(w, http.StatusBadRequest, "Unsupported file type: "+part.Filename)
			return nil, false
		}
		if part.Size > s.maxUploadBytes {
			s.errorResponse(w, http.StatusBadRequest, "File too large: "+part.Filename)
			return nil, false
		}

		f, err := part.Open()
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
			return nil, false
		}
		content, err := io.ReadAll(f)
		f.Close() //nolint:errcheck
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
			return nil, false
		}

		files = append(files, guidelines.File{Filename: part.Filename, Content: content})
	}
	return files, true
}

// formatGuidelineSet shapes a set row with its versions and per-version
// rule counts.
func (s *Server) formatGuidelineSet(ctx context.Context, set *db.GuidelineSet) (*GuidelineSetResponse, error) {
	versions, err := s.db.ListGuidelineVersions(ctx, set.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(versions))
	for i, v := range versions {
		ids[i] = v.ID
	}
	counts, err := s.db.RuleCountsByVersion(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := &GuidelineSetResponse{
		ID:          set.ID,
		ProjectID:   set.ProjectID,
		Name:        set.Name,
		Description: set.Description,
		CreatedAt:   set.CreatedAt,
		Versions:    make([]GuidelineVersionResponse, len(versions)),
	}
	for i, v := range versions {
		resp.Versions[i] = formatGuidelineVersion(v, counts[v.ID])
	}
	return resp, nil
}

func formatGuidelineVersion(v db.GuidelineVersion, ruleCount int) GuidelineVersionResponse {
	return GuidelineVersionResponse{
		ID:        v.ID,
		Version:   v.Version,
		IsActive:  v.IsActive,
		RuleCount: ruleCount,
		Manifest:  v.Manifest,
		CreatedAt: v.CreatedAt,
	}
}
