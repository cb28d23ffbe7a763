package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// ExclusionProfileResponse is an exclusion profile with its rules
type ExclusionProfileResponse struct {
	ID        int64              `json:"id"`
	ProjectID *int64             `json:"project_id,omitempty"`
	Name      string             `json:"name"`
	IsDefault bool               `json:"is_default"`
	CreatedAt time.Time          `json:"created_at"`
	Rules     []db.ExclusionRule `json:"rules"`
}

// handleCreateExclusionProfile creates a named exclusion profile
func (s *Server) handleCreateExclusionProfile(w http.ResponseWriter, r *http.Request) {
	var req types.CreateExclusionProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	profile, err := s.db.CreateExclusionProfile(r.Context(), &req.ProjectID, req.Name, req.IsDefault)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, formatExclusionProfile(profile, nil))
}

// handleListExclusionProfiles lists exclusion profiles, optionally
// scoped to a project via the project_id query parameter
func (s *Server) handleListExclusionProfiles(w http.ResponseWriter, r *http.Request) {
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

	profiles, err := s.db.ListExclusionProfiles(ctx, projectID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	formatted := make([]ExclusionProfileResponse, 0, len(profiles))
	for i := range profiles {
		resp, err := s.loadExclusionProfile(ctx, &profiles[i])
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
			return
		}
		formatted = append(formatted, *resp)
	}

	s.jsonResponse(w, http.StatusOK, formatted)
}

// handleGetExclusionProfile returns one profile with its rules
func (s *Server) handleGetExclusionProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid profile ID format")
		return
	}

	ctx := r.Context()

	profile, err := s.db.GetExclusionProfile(ctx, id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if profile == nil {
		s.errorResponse(w, http.StatusNotFound, "Exclusion profile not found")
		return
	}

	resp, err := s.loadExclusionProfile(ctx, profile)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleDeleteExclusionProfile deletes a profile and its rules
func (s *Server) handleDeleteExclusionProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid profile ID format")
		return
	}

	if err := s.db.DeleteExclusionProfile(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Profile not found")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleAddExclusionRule adds a rule to a profile
func (s *Server) handleAddExclusionRule(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid profile ID format")
		return
	}

	var req types.AddExclusionRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	ctx := r.Context()

	profile, err := s.db.GetExclusionProfile(ctx, profileID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if profile == nil {
		s.errorResponse(w, http.StatusNotFound, "Exclusion profile not found")
		return
	}

	rule, err := s.db.AddExclusionRule(ctx, profileID, req.RuleType, req.RuleValue, req.Reason)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, rule)
}

// handleDeleteExclusionRule removes a rule from a profile
func (s *Server) handleDeleteExclusionRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := strconv.ParseInt(r.PathValue("rid"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid rule ID format")
		return
	}

	if err := s.db.DeleteExclusionRule(r.Context(), ruleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Rule not found")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// loadExclusionProfile attaches a profile's rules to its response shape.
func (s *Server) loadExclusionProfile(ctx context.Context, profile *db.ExclusionProfile) (*ExclusionProfileResponse, error) {
	rules, err := s.db.ListExclusionRules(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return formatExclusionProfile(profile, rules), nil
}

func formatExclusionProfile(profile *db.ExclusionProfile, rules []db.ExclusionRule) *ExclusionProfileResponse {
	if rules == nil {
		rules = []db.ExclusionRule{}
	}
	return &ExclusionProfileResponse{
		ID:        profile.ID,
		ProjectID: profile.ProjectID,
		Name:      profile.Name,
		IsDefault: profile.IsDefault,
		CreatedAt: profile.CreatedAt,
		Rules:     rules,
	}
}
