// Package validators produces raw findings for scanned pages. Four
// validators run against each page: deterministic text checks, LLM
// validation with guideline context, an axe-core accessibility audit and
// an optional Lighthouse audit. Findings are normalized into issues by
// the issues package.
package validators

import "fmt"

// ResponseError represents a model validation response that failed
// parsing or schema checks
type ResponseError struct {
	Message string
	Cause   error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation response error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation response error: %s", e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// UnavailableError reports a validator whose external tool is not
// installed. Callers skip the validator instead of failing the scan.
type UnavailableError struct {
	Tool string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is not available on this host", e.Tool)
}

// AuditError represents a browser or CLI audit failure for one page
type AuditError struct {
	Tool  string
	URL   string
	Cause error
}

func (e *AuditError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s audit failed for %s: %v", e.Tool, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s audit failed for %s", e.Tool, e.URL)
}

func (e *AuditError) Unwrap() error {
	return e.Cause
}
