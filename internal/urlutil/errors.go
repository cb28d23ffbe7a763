package urlutil

import "fmt"

// ParseError represents a failure to parse a URL
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse url %q: %v", e.URL, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// SSRFError represents a URL rejected by outbound request safety checks
type SSRFError struct {
	URL    string
	Reason string
}

func (e *SSRFError) Error() string {
	return fmt.Sprintf("unsafe url %q: %s", e.URL, e.Reason)
}
