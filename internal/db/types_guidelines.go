package db

import (
	"encoding/json"
	"time"
)

// GuidelineSet is a named collection of style guideline documents for a
// project. Content rules are extracted from the documents and stored per
// version, so re-uploading guidelines never mutates rules an old scan
// was validated against.
type GuidelineSet struct {
	ID          int64     `json:"id"`
	ProjectID   *int64    `json:"project_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GuidelineVersion is one immutable snapshot of a guideline set's rules.
// The manifest records the source documents the version was built from.
type GuidelineVersion struct {
	ID        int64           `json:"id"`
	SetID     int64           `json:"set_id"`
	Version   int             `json:"version"`
	Manifest  json.RawMessage `json:"manifest,omitempty"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// GuidelineRule is a single extracted rule within a version. RuleID is
// the human-readable identifier ("TONE-01") validators cite; the row ID
// is what issues link against.
type GuidelineRule struct {
	ID          int64     `json:"id"`
	VersionID   int64     `json:"version_id"`
	RuleID      string    `json:"rule_id"`
	Category    string    `json:"category"`
	RuleText    string    `json:"rule_text"`
	Severity    string    `json:"severity"`
	Examples    []string  `json:"examples,omitempty"`
	FixTemplate string    `json:"fix_template,omitempty"`
	SourceFile  string    `json:"source_file,omitempty"`
	Section     string    `json:"section,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GuidelineRuleInput represents input for inserting an extracted rule
type GuidelineRuleInput struct {
	RuleID      string
	Category    string
	RuleText    string
	Severity    string
	Examples    []string
	FixTemplate string
	SourceFile  string
	Section     string
}

// RuleMatch is a guideline rule paired with its cosine distance from a
// query embedding. Smaller distance means more relevant.
type RuleMatch struct {
	Rule     GuidelineRule `json:"rule"`
	Distance float64       `json:"distance"`
}
