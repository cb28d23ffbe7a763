// Package types provides type definitions for structured data used throughout the content validation system.
package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DiscoverRequest asks for page discovery from a base URL.
type DiscoverRequest struct {
	BaseURL            string `json:"base_url" validate:"required,url"`
	UseSitemap         bool   `json:"use_sitemap"`
	UseNav             bool   `json:"use_nav"`
	CrawlFallback      bool   `json:"crawl_fallback"`
	MaxPages           int    `json:"max_pages" validate:"omitempty,min=1,max=500"`
	MaxDepth           int    `json:"max_depth" validate:"omitempty,min=1,max=10"`
	ExclusionProfileID *int64 `json:"exclusion_profile_id,omitempty"`
}

// ApplyDefaults fills zero-value options with their defaults.
func (r *DiscoverRequest) ApplyDefaults(maxPages, maxDepth int) {
	if r.MaxPages == 0 {
		r.MaxPages = maxPages
	}
	if r.MaxDepth == 0 {
		r.MaxDepth = maxDepth
	}
}

// Validate validates the DiscoverRequest using the validator.
func (r *DiscoverRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ValidateRequest starts a scan job over a set of page URLs.
type ValidateRequest struct {
	BaseURL            string   `json:"base_url" validate:"required,url"`
	PageURLs           []string `json:"page_urls" validate:"required,min=1,dive,url"`
	GuidelineSetID     *int64   `json:"guideline_set_id,omitempty"`
	GuidelineVersion   *int     `json:"guideline_version,omitempty"`
	ExclusionProfileID *int64   `json:"exclusion_profile_id,omitempty"`
	RunDeterministic   bool     `json:"run_deterministic"`
	RunLLM             bool     `json:"run_llm"`
	RunAxe             bool     `json:"run_axe"`
	RunLighthouse      bool     `json:"run_lighthouse"`
}

// Validate validates the ValidateRequest using the validator.
func (r *ValidateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ScanOptions is the persisted, reproducible form of a validate request.
// Stored as options_json on the job row so a rerun uses the same settings.
type ScanOptions struct {
	BaseURL            string   `json:"base_url"`
	PageURLs           []string `json:"page_urls"`
	GuidelineSetID     *int64   `json:"guideline_set_id,omitempty"`
	GuidelineVersion   *int     `json:"guideline_version,omitempty"`
	ExclusionProfileID *int64   `json:"exclusion_profile_id,omitempty"`
	RunDeterministic   bool     `json:"run_deterministic"`
	RunLLM             bool     `json:"run_llm"`
	RunAxe             bool     `json:"run_axe"`
	RunLighthouse      bool     `json:"run_lighthouse"`
}

// Options converts the request into its persisted form.
func (r *ValidateRequest) Options() ScanOptions {
	return ScanOptions{
		BaseURL:            r.BaseURL,
		PageURLs:           r.PageURLs,
		GuidelineSetID:     r.GuidelineSetID,
		GuidelineVersion:   r.GuidelineVersion,
		ExclusionProfileID: r.ExclusionProfileID,
		RunDeterministic:   r.RunDeterministic,
		RunLLM:             r.RunLLM,
		RunAxe:             r.RunAxe,
		RunLighthouse:      r.RunLighthouse,
	}
}

// CreateProjectRequest registers a site for scanning.
type CreateProjectRequest struct {
	BaseURL string `json:"base_url" validate:"required,url"`
}

// Validate validates the CreateProjectRequest using the validator.
func (r *CreateProjectRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CreateExclusionProfileRequest creates a named exclusion profile for a project.
type CreateExclusionProfileRequest struct {
	ProjectID int64  `json:"project_id" validate:"required"`
	Name      string `json:"name" validate:"required,min=1,max=255"`
	IsDefault bool   `json:"is_default"`
}

// Validate validates the CreateExclusionProfileRequest using the validator.
func (r *CreateExclusionProfileRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// AddExclusionRuleRequest adds a rule to an exclusion profile.
type AddExclusionRuleRequest struct {
	RuleType  ExclusionRuleType `json:"rule_type" validate:"required"`
	RuleValue string            `json:"rule_value" validate:"required,min=1,max=1024"`
	Reason    string            `json:"reason,omitempty" validate:"omitempty,max=512"`
}

// Validate validates the AddExclusionRuleRequest using the validator,
// plus the enum check the tag language cannot express.
func (r *AddExclusionRuleRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if !r.RuleType.Valid() {
		return &InvalidEnumError{Field: "rule_type", Value: string(r.RuleType)}
	}
	return nil
}

// InvalidEnumError reports an out-of-range enum value in a request.
type InvalidEnumError struct {
	Field string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return "invalid value for " + e.Field + ": " + e.Value
}

// DiscoveredPage is one page found during discovery.
type DiscoveredPage struct {
	URL                string     `json:"url"`
	Title              string     `json:"title,omitempty"`
	Source             PageSource `json:"source"`
	Selected           bool       `json:"selected"`
	SmartExcludeReason string     `json:"smart_exclude_reason,omitempty"`
}

// SmartExcludeSuggestion flags a discovered URL that is probably not worth
// validating (checkout pages, login pages and similar).
type SmartExcludeSuggestion struct {
	URL     string `json:"url"`
	Reason  string `json:"reason"`
	Pattern string `json:"pattern"`
}

// DiscoverResponse is the discovery result payload.
type DiscoverResponse struct {
	Pages                   []DiscoveredPage         `json:"pages"`
	Excluded                []DiscoveredPage         `json:"excluded"`
	SmartExcludeSuggestions []SmartExcludeSuggestion `json:"smart_exclude_suggestions"`
	TotalFound              int                      `json:"total_found"`
}

// EnqueueResponse acknowledges an accepted scan job.
type EnqueueResponse struct {
	JobID uuid.UUID `json:"job_id"`
}
