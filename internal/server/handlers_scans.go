package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

const defaultScanListLimit = 50

// handleListScans lists all scans of one site, newest first
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	baseURL := r.URL.Query().Get("base_url")
	if baseURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "base_url query parameter is required")
		return
	}

	limit, ok := s.limitFromQuery(w, r)
	if !ok {
		return
	}

	jobs, err := s.db.ListScanJobs(r.Context(), db.JobFilters{BaseURL: baseURL, Limit: limit})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	summaries, err := s.scanSummaries(r.Context(), jobs)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, summaries)
}

// handleRecentScans lists recent scans across all projects
func (s *Server) handleRecentScans(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.limitFromQuery(w, r)
	if !ok {
		return
	}

	jobs, err := s.db.ListScanJobs(r.Context(), db.JobFilters{Limit: limit})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	summaries, err := s.scanSummaries(r.Context(), jobs)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, summaries)
}

// handleCompareScans diffs the scan named by the to query parameter
// against the path scan as baseline
func (s *Server) handleCompareScans(w http.ResponseWriter, r *http.Request) {
	scanID, ok := s.scanIDFromPath(w, r)
	if !ok {
		return
	}

	toStr := r.URL.Query().Get("to")
	if toStr == "" {
		s.errorResponse(w, http.StatusBadRequest, "to query parameter is required")
		return
	}
	toID, err := uuid.Parse(toStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid scan ID format")
		return
	}

	result, err := s.diff.Compare(r.Context(), scanID, toID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleCompareToLast diffs a scan against the previous completed scan
// of the same site
func (s *Server) handleCompareToLast(w http.ResponseWriter, r *http.Request) {
	scanID, ok := s.scanIDFromPath(w, r)
	if !ok {
		return
	}

	result, err := s.diff.CompareToLast(r.Context(), scanID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// scanSummaries maps job rows to scan summaries, batching the per-job
// issue counts into a single query.
func (s *Server) scanSummaries(ctx context.Context, jobs []db.ScanJob) ([]types.ScanSummary, error) {
	ids := make([]uuid.UUID, len(jobs))
	for i, job := range jobs {
		ids[i] = job.ID
	}

	counts, err := s.db.CountIssuesByJobs(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]types.ScanSummary, len(jobs))
	for i, job := range jobs {
		summaries[i] = types.ScanSummary{
			ID:          job.ID,
			ProjectID:   job.ProjectID,
			BaseURL:     job.BaseURL,
			Status:      job.Status,
			Stage:       job.Stage,
			TotalPages:  job.TotalPages,
			TotalIssues: counts[job.ID],
			CreatedAt:   job.CreatedAt,
			FinishedAt:  job.FinishedAt,
		}
	}
	return summaries, nil
}

func (s *Server) scanIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, "Scan ID is required")
		return uuid.Nil, false
	}

	scanID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid scan ID format")
		return uuid.Nil, false
	}
	return scanID, true
}

func (s *Server) limitFromQuery(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultScanListLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		s.errorResponse(w, http.StatusBadRequest, "Invalid limit")
		return 0, false
	}
	return limit, true
}
