package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/guidelines"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/issues"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// JobResponse represents the response for /api/jobs/{id}
type JobResponse struct {
	ID         uuid.UUID               `json:"id"`
	Status     types.JobStatus         `json:"status"`
	Stage      types.JobStage          `json:"stage"`
	Progress   *types.ProgressSnapshot `json:"progress"`
	Error      *string                 `json:"error"`
	CreatedAt  time.Time               `json:"created_at"`
	StartedAt  *time.Time              `json:"started_at"`
	FinishedAt *time.Time              `json:"finished_at"`
}

// handleValidate queues a validation job for the selected pages.
// The job is picked up by a worker process; clients follow progress via
// /api/jobs/{id} or the SSE stream.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	// Unset check toggles default to on, except Lighthouse which is opt-in
	req := types.ValidateRequest{
		RunDeterministic: true,
		RunLLM:           true,
		RunAxe:           true,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	ctx := r.Context()

	project, err := s.db.CreateProject(ctx, req.BaseURL, projectName(req.BaseURL))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	versionID, err := s.resolveGuidelineVersion(ctx, req.GuidelineSetID, req.GuidelineVersion)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	job, err := s.db.CreateScanJob(ctx, &db.ScanJobInput{
		ProjectID:          &project.ID,
		GuidelineVersionID: versionID,
		BaseURL:            req.BaseURL,
		Options:            req.Options(),
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	if err := s.db.CreateScanPages(ctx, job.ID, req.PageURLs, types.PageSourceManual); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	log.Printf("Queued validation job %s for %s (%d pages)", job.ID, req.BaseURL, len(req.PageURLs))

	s.jsonResponse(w, http.StatusAccepted, types.EnqueueResponse{JobID: job.ID})
}

// resolveGuidelineVersion maps an optional set id plus optional version
// number to a concrete guideline_versions row id. A nil set id means the
// scan runs without guidelines. An explicit version number that does not
// exist is an error; a set with no active version falls back to none.
func (s *Server) resolveGuidelineVersion(ctx context.Context, setID *int64, version *int) (*int64, error) {
	if setID == nil {
		return nil, nil
	}

	set, err := s.db.GetGuidelineSet(ctx, *setID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, &guidelines.SetNotFoundError{SetID: *setID}
	}

	if version != nil {
		v, err := s.db.GetGuidelineVersionByNumber(ctx, *setID, *version)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, &VersionNotFoundError{SetID: *setID, Version: *version}
		}
		return &v.ID, nil
	}

	v, err := s.db.ActiveGuidelineVersion(ctx, *setID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return &v.ID, nil
}

// handleJobStatus returns the status of a validation job
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDFromPath(w, r)
	if !ok {
		return
	}

	job, err := s.db.GetScanJob(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	resp := JobResponse{
		ID:         job.ID,
		Status:     job.Status,
		Stage:      job.Stage,
		Progress:   job.Progress,
		Error:      job.ErrorMessage,
		CreatedAt:  job.CreatedAt,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
	// Prefer the live snapshot over the persisted one when a worker is
	// publishing through this process.
	if snap, ok := s.hub.Current(jobID); ok {
		resp.Progress = &snap
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleJobCancel requests cancellation of a pending or running job.
// Workers observe the flag between pages and mark the job cancelled.
func (s *Server) handleJobCancel(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDFromPath(w, r)
	if !ok {
		return
	}

	requested, err := s.db.RequestCancel(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if !requested {
		job, err := s.db.GetScanJob(r.Context(), jobID)
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
			return
		}
		if job == nil {
			s.errorResponse(w, http.StatusNotFound, "Job not found")
			return
		}
		s.errorResponse(w, http.StatusConflict, "Job already "+string(job.Status))
		return
	}

	log.Printf("Cancellation requested for job %s", jobID)
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// handleJobResults returns the full result payload for a job
func (s *Server) handleJobResults(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDFromPath(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	job, err := s.db.GetScanJob(ctx, jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	pages, err := s.db.ListScanPages(ctx, jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	all, err := s.db.ListJobIssues(ctx, jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, buildJobResults(job, pages, all))
}

// buildJobResults groups issues by page, keeping page order and including
// pages that came back clean.
func buildJobResults(job *db.ScanJob, pages []db.ScanPage, all []types.Issue) *types.JobResults {
	byPage := make(map[string][]types.Issue, len(pages))
	for _, issue := range all {
		byPage[issue.PageURL] = append(byPage[issue.PageURL], issue)
	}

	pageResults := make([]types.PageResult, 0, len(pages))
	for _, p := range pages {
		pageIssues := byPage[p.URL]
		if pageIssues == nil {
			pageIssues = []types.Issue{}
		}
		pageResults = append(pageResults, types.PageResult{
			URL:        p.URL,
			Title:      p.Title,
			IssueCount: len(pageIssues),
			Issues:     pageIssues,
		})
	}

	packs := issues.BuildFixPacks(all)
	return &types.JobResults{
		JobID:    job.ID,
		Status:   job.Status,
		Summary:  issues.Summarize(all),
		Pages:    pageResults,
		FixPacks: &packs,
	}
}

// jobIDFromPath parses the {id} path segment as a job UUID, writing the
// error response itself when the segment is missing or malformed.
func (s *Server) jobIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, "Job ID is required")
		return uuid.Nil, false
	}

	jobID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID format")
		return uuid.Nil, false
	}
	return jobID, true
}
