package db

import (
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// ExclusionProfile is a named bundle of exclusion rules. A project can
// mark one profile as its default; discovery and scans apply it when the
// request names no profile.
type ExclusionProfile struct {
	ID        int64     `json:"id"`
	ProjectID *int64    `json:"project_id,omitempty"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// ExclusionRule filters pages or page content out of a scan
type ExclusionRule struct {
	ID        int64                   `json:"id"`
	ProfileID int64                   `json:"profile_id"`
	RuleType  types.ExclusionRuleType `json:"rule_type"`
	RuleValue string                  `json:"rule_value"`
	Reason    string                  `json:"reason,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}
