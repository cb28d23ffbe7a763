// Package urlutil provides URL normalization, domain checks and SSRF
// protection for outbound fetches.
package urlutil

import (
	"net/url"
	"strings"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// Normalize canonicalizes a URL: relative references are resolved against
// baseURL, fragments are dropped and trailing slashes are stripped so the
// same page always maps to the same string. Pass an empty baseURL for
// already-absolute URLs.
func Normalize(rawURL, baseURL string) (string, error) {
	if baseURL != "" && !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		base, err := url.Parse(baseURL)
		if err != nil {
			return "", &ParseError{URL: baseURL, Cause: err}
		}
		ref, err := url.Parse(rawURL)
		if err != nil {
			return "", &ParseError{URL: rawURL, Cause: err}
		}
		rawURL = base.ResolveReference(ref).String()
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &ParseError{URL: rawURL, Cause: err}
	}
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// SameDomain reports whether two URLs share a hostname. Unparseable input
// counts as a mismatch.
func SameDomain(rawURL, baseURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	b, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return u.Hostname() != "" && strings.EqualFold(u.Hostname(), b.Hostname())
}

// Domain extracts the hostname from a URL, or "" if it cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// smartExcludePatterns maps path substrings to human-readable reasons for
// skipping a page. Order matters: the first match wins.
var smartExcludePatterns = []struct {
	Pattern string
	Reason  string
}{
	{"privacy", "Privacy policy page"},
	{"terms", "Terms and conditions page"},
	{"cookie", "Cookie policy page"},
	{"login", "Login/authentication page"},
	{"account", "Account management page"},
	{"portal", "Resident/user portal"},
	{"apply", "Application form page"},
	{"resident", "Resident-only page"},
	{"admin", "Admin page"},
	{"sign-in", "Sign-in page"},
	{"sign-up", "Sign-up page"},
	{"register", "Registration page"},
	{"checkout", "Checkout page"},
	{"cart", "Shopping cart page"},
}

// SmartExcludeSuggestions flags URLs whose paths look like pages not worth
// validating, such as checkout flows and auth screens. Each URL gets at most
// one suggestion.
func SmartExcludeSuggestions(urls []string) []types.SmartExcludeSuggestion {
	var suggestions []types.SmartExcludeSuggestion
	for _, rawURL := range urls {
		u, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		path := strings.ToLower(u.Path)
		for _, p := range smartExcludePatterns {
			if strings.Contains(path, p.Pattern) {
				suggestions = append(suggestions, types.SmartExcludeSuggestion{
					URL:     rawURL,
					Reason:  p.Reason,
					Pattern: p.Pattern,
				})
				break
			}
		}
	}
	return suggestions
}
