package scraping

import (
	"context"
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/fetch"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/urlutil"
)

// Scraper fetches pages and extracts their structured content. Plain
// HTTP is tried first; pages that come back nearly empty (JavaScript
// rendered SPAs) or refuse non-browser clients are retried through a
// headless browser.
type Scraper struct {
	Options        *fetch.Options
	BrowserTimeout time.Duration
	Verbose        bool
	AllowPrivate   bool // For testing against local servers
}

// NewScraper returns a scraper with the given per-page browser budget.
func NewScraper(browserTimeout time.Duration, verbose bool) *Scraper {
	if browserTimeout <= 0 {
		browserTimeout = fetch.DefaultTimeout
	}
	return &Scraper{
		Options:        fetch.DefaultOptions(),
		BrowserTimeout: browserTimeout,
		Verbose:        verbose,
	}
}

// ScrapePage fetches one page and extracts its content. extraExclude
// holds additional CSS selectors (from the scan's exclusion profile) to
// strip before extraction. The URL is refused outright when it points at
// a private or loopback address.
func (s *Scraper) ScrapePage(ctx context.Context, pageURL string, extraExclude []string) (*PageContent, error) {
	if !s.AllowPrivate {
		if err := urlutil.ValidateExternal(ctx, pageURL); err != nil {
			return nil, err
		}
	}

	html, title, err := s.fetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return Extract(html, pageURL, title, extraExclude)
}

// fetchHTML returns the page HTML, preferring a cheap HTTP fetch and
// falling back to headless rendering.
func (s *Scraper) fetchHTML(ctx context.Context, pageURL string) (html, title string, err error) {
	result, fetchErr := fetch.URLWithRetry(ctx, pageURL, s.Options, fetch.DefaultRetryAttempts)
	if fetchErr == nil {
		text, _ := fetch.ExtractMainText(result.HTML, fetch.MainContentSelectors())
		if !fetch.ShouldUseBrowser(text) {
			return result.HTML, "", nil
		}
	}

	rendered, renderErr := fetch.Render(ctx, pageURL, s.BrowserTimeout, s.Verbose)
	if renderErr != nil {
		if fetchErr == nil {
			// The HTTP fetch worked; a thin page beats no page
			return result.HTML, "", nil
		}
		return "", "", fetchErr
	}
	return rendered.HTML, rendered.Title, nil
}
