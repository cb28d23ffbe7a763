// Package discovery finds the pages of a site worth validating, combining
// sitemap.xml, navigation links and a bounded BFS crawl.
package discovery

import "fmt"

// DiscoveryError represents a general discovery failure
type DiscoveryError struct {
	Message string
	Cause   error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("discovery error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("discovery error: %s", e.Message)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// LinkExtractionError represents a failure in extracting links from HTML
type LinkExtractionError struct {
	Message string
	Cause   error
}

func (e *LinkExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link extraction error: %s", e.Message)
}

func (e *LinkExtractionError) Unwrap() error {
	return e.Cause
}

// SitemapError represents a failure fetching or parsing a sitemap
type SitemapError struct {
	URL     string
	Message string
	Cause   error
}

func (e *SitemapError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sitemap error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("sitemap error for %s: %s", e.URL, e.Message)
}

func (e *SitemapError) Unwrap() error {
	return e.Cause
}
