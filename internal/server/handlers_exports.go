package server

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/export"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportCSV downloads a job's issues as a CSV report
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	jobID, all, ok := s.exportIssues(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, all); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Export failed: "+err.Error())
		return
	}

	filename := fmt.Sprintf("scan_%s_results.csv", jobID)
	s.archiveExport(r, "exports/"+filename, buf.Bytes(), "text/csv")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes()) //nolint:errcheck
}

// handleExportXLSX downloads a job's issues as a styled spreadsheet
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	jobID, all, ok := s.exportIssues(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, all); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Export failed: "+err.Error())
		return
	}

	filename := fmt.Sprintf("scan_%s_results.xlsx", jobID)
	s.archiveExport(r, "exports/"+filename, buf.Bytes(), xlsxContentType)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes()) //nolint:errcheck
}

// exportIssues loads the issues behind both export formats, writing the
// error response itself on failure.
func (s *Server) exportIssues(w http.ResponseWriter, r *http.Request) (uuid.UUID, []types.Issue, bool) {
	jobID, ok := s.jobIDFromPath(w, r)
	if !ok {
		return uuid.Nil, nil, false
	}

	job, err := s.db.GetScanJob(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return uuid.Nil, nil, false
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return uuid.Nil, nil, false
	}

	all, err := s.db.ListJobIssues(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return uuid.Nil, nil, false
	}
	return jobID, all, true
}

// archiveExport keeps a copy of the generated report in object storage.
// Failures are logged, not surfaced: the download still succeeds.
func (s *Server) archiveExport(r *http.Request, key string, data []byte, contentType string) {
	if s.store == nil {
		return
	}
	if err := s.store.Put(r.Context(), key, data, contentType); err != nil {
		log.Printf("Error archiving export %s: %v", key, err)
	}
}
