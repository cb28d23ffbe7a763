package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func TestBuildJobResults(t *testing.T) {
	jobID := uuid.New()
	job := &db.ScanJob{ID: jobID, Status: types.JobStatusCompleted}
	pages := []db.ScanPage{
		{JobID: jobID, URL: "https://example.com/", Title: "Home"},
		{JobID: jobID, URL: "https://example.com/about", Title: "About"},
		{JobID: jobID, URL: "https://example.com/clean", Title: "Clean"},
	}
	all := []types.Issue{
		{PageURL: "https://example.com/", Severity: types.SeverityHigh, Category: "accuracy"},
		{PageURL: "https://example.com/about", Severity: types.SeverityLow, Confidence: 0.9, Category: "tone"},
		{PageURL: "https://example.com/", Severity: types.SeverityMedium, Category: "tone"},
	}

	results := buildJobResults(job, pages, all)

	assert.Equal(t, jobID, results.JobID)
	assert.Equal(t, types.JobStatusCompleted, results.Status)
	assert.Equal(t, 3, results.Summary.Total)
	assert.Equal(t, 1, results.Summary.High)

	require.Len(t, results.Pages, 3)
	assert.Equal(t, "https://example.com/", results.Pages[0].URL)
	assert.Equal(t, 2, results.Pages[0].IssueCount)
	assert.Equal(t, 1, results.Pages[1].IssueCount)

	// A clean page still appears, with an empty issue list rather than null.
	assert.Equal(t, 0, results.Pages[2].IssueCount)
	assert.NotNil(t, results.Pages[2].Issues)
	assert.Empty(t, results.Pages[2].Issues)

	require.NotNil(t, results.FixPacks)
	assert.Len(t, results.FixPacks.QuickWins, 1)
	assert.Len(t, results.FixPacks.MediumEffort, 1)
	assert.Len(t, results.FixPacks.StructuralFixes, 1)
}

func TestBuildJobResults_NoIssues(t *testing.T) {
	job := &db.ScanJob{ID: uuid.New(), Status: types.JobStatusCompleted}
	pages := []db.ScanPage{{URL: "https://example.com/"}}

	results := buildJobResults(job, pages, nil)

	assert.Equal(t, 0, results.Summary.Total)
	require.Len(t, results.Pages, 1)
	assert.Empty(t, results.Pages[0].Issues)
	require.NotNil(t, results.FixPacks)
	assert.Empty(t, results.FixPacks.QuickWins)
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "example.com", projectName("https://example.com/docs"))
	assert.Equal(t, "shop.example.com:8080", projectName("http://shop.example.com:8080"))
	assert.Equal(t, "not a url", projectName("not a url"))
}

func TestAllowOrigin(t *testing.T) {
	open := &Server{}
	assert.Equal(t, "*", open.allowOrigin("https://app.example.com"))

	restricted := &Server{corsOrigins: []string{"https://app.example.com", "https://admin.example.com"}}
	assert.Equal(t, "https://app.example.com", restricted.allowOrigin("https://app.example.com"))
	assert.Equal(t, "https://APP.example.com", restricted.allowOrigin("https://APP.example.com"))
	assert.Equal(t, "", restricted.allowOrigin("https://evil.example.com"))

	wildcard := &Server{corsOrigins: []string{"*"}}
	assert.Equal(t, "*", wildcard.allowOrigin("https://anywhere.example.com"))
}

func TestExtractClientID(t *testing.T) {
	s := &Server{}

	r := httptest.NewRequest("GET", "/api/scans/recent", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	assert.Equal(t, "203.0.113.7", s.extractClientID(r))

	r.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", s.extractClientID(r))
}

func TestJobIDFromPath_Invalid(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/jobs/not-a-uuid", nil)
	r.SetPathValue("id", "not-a-uuid")

	_, ok := s.jobIDFromPath(rec, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid job ID format")
}

func TestJobIDFromPath_Missing(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/jobs/", nil)

	_, ok := s.jobIDFromPath(rec, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Job ID is required")
}

func TestHandleValidate_InvalidBody(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/validate", strings.NewReader("{not json"))

	s.handleValidate(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestHandleValidate_MissingPages(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	body := `{"base_url": "https://example.com"}`
	r := httptest.NewRequest("POST", "/api/validate", strings.NewReader(body))

	s.handleValidate(rec, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "PageURLs")
}

func TestHandleDiscover_InvalidBaseURL(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	body := `{"base_url": "not a url"}`
	r := httptest.NewRequest("POST", "/api/discover", strings.NewReader(body))

	s.handleDiscover(rec, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleListScans_RequiresBaseURL(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/scans", nil)

	s.handleListScans(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "base_url")
}

func TestHandleCompareScans_RequiresTo(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/scans/"+uuid.NewString()+"/compare", nil)
	r.SetPathValue("id", uuid.NewString())

	s.handleCompareScans(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "to query parameter is required")
}

func TestLimitFromQuery(t *testing.T) {
	s := &Server{}

	r := httptest.NewRequest("GET", "/api/scans/recent", nil)
	limit, ok := s.limitFromQuery(httptest.NewRecorder(), r)
	assert.True(t, ok)
	assert.Equal(t, defaultScanListLimit, limit)

	r = httptest.NewRequest("GET", "/api/scans/recent?limit=5", nil)
	limit, ok = s.limitFromQuery(httptest.NewRecorder(), r)
	assert.True(t, ok)
	assert.Equal(t, 5, limit)

	rec := httptest.NewRecorder()
	r = httptest.NewRequest("GET", "/api/scans/recent?limit=zero", nil)
	_, ok = s.limitFromQuery(rec, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFormatExclusionProfile_NilRules(t *testing.T) {
	profile := &db.ExclusionProfile{ID: 3, Name: "marketing"}

	resp := formatExclusionProfile(profile, nil)

	assert.NotNil(t, resp.Rules)
	assert.Empty(t, resp.Rules)
}
