package discovery

import (
	"context"
	"log"
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/fetch"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/urlutil"
)

const (
	// DefaultMaxPages bounds one discovery run
	DefaultMaxPages = 50
	// DefaultMaxDepth bounds the BFS crawl fallback
	DefaultMaxDepth = 3
)

// Discoverer finds candidate pages for a scan.
type Discoverer struct {
	FetchOptions   *fetch.Options
	BrowserTimeout time.Duration
	// CrawlDelay is the pause between BFS fetches. Zero disables it.
	CrawlDelay time.Duration
	MaxPages   int
	MaxDepth   int
	// AllowPrivate skips the SSRF guard. For testing against local servers.
	AllowPrivate bool
	Verbose      bool
}

// NewDiscoverer returns a Discoverer with production defaults. Zero limits
// fall back to the package defaults.
func NewDiscoverer(maxPages, maxDepth int, browserTimeout time.Duration, verbose bool) *Discoverer {
	d := &Discoverer{
		FetchOptions:   fetch.DefaultOptions(),
		BrowserTimeout: browserTimeout,
		CrawlDelay:     DefaultCrawlDelay,
		MaxPages:       maxPages,
		MaxDepth:       maxDepth,
		Verbose:        verbose,
	}
	if d.MaxPages <= 0 {
		d.MaxPages = DefaultMaxPages
	}
	if d.MaxDepth <= 0 {
		d.MaxDepth = DefaultMaxDepth
	}
	if d.BrowserTimeout <= 0 {
		d.BrowserTimeout = fetch.DefaultTimeout
	}
	return d
}

// Options control a single discovery run.
type Options struct {
	UseSitemap    bool
	UseNav        bool
	CrawlFallback bool
	// MaxPages and MaxDepth override the Discoverer limits when positive.
	MaxPages       int
	MaxDepth       int
	ExclusionRules []Rule
}

// DefaultOptions enables every discovery source.
func DefaultOptions() Options {
	return Options{UseSitemap: true, UseNav: true, CrawlFallback: true}
}

// Discover finds pages under baseURL. Sources run in order: sitemap.xml,
// navigation links from the homepage, then a BFS crawl to fill whatever
// budget remains. URLs are normalized and deduplicated across sources,
// exclusion rules split the result into active and excluded pages, and
// active pages that look like auth or checkout flows get a smart-exclude
// suggestion the caller can surface.
func (d *Discoverer) Discover(ctx context.Context, baseURL string, opts Options) (*types.DiscoverResponse, error) {
	if !d.AllowPrivate {
		if err := urlutil.ValidateExternal(ctx, baseURL); err != nil {
			return nil, err
		}
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 || maxPages > d.MaxPages {
		maxPages = d.MaxPages
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 || maxDepth > d.MaxDepth {
		maxDepth = d.MaxDepth
	}

	seen := make(map[string]bool)
	var pages []types.DiscoveredPage

	add := func(p types.DiscoveredPage) {
		norm, err := urlutil.Normalize(p.URL, "")
		if err != nil || seen[norm] {
			return
		}
		seen[norm] = true
		p.URL = norm
		pages = append(pages, p)
	}

	if opts.UseSitemap {
		for _, p := range d.discoverSitemap(ctx, baseURL, maxPages) {
			if len(pages) >= maxPages {
				break
			}
			add(p)
		}
	}

	if opts.UseNav && len(pages) < maxPages {
		navPages, err := d.discoverNav(ctx, baseURL)
		if err != nil {
			d.logf("nav discovery failed for %s: %v", baseURL, err)
		}
		for _, p := range navPages {
			if len(pages) >= maxPages {
				break
			}
			add(p)
		}
	}

	if opts.CrawlFallback && len(pages) < maxPages {
		for _, p := range d.crawlBFS(ctx, baseURL, seen, maxPages-len(pages), maxDepth) {
			add(p)
		}
	}

	active, excluded := applyExclusions(pages, opts.ExclusionRules)

	activeURLs := make([]string, len(active))
	for i, p := range active {
		activeURLs[i] = p.URL
	}
	suggestions := urlutil.SmartExcludeSuggestions(activeURLs)
	reasonByURL := make(map[string]string, len(suggestions))
	for _, s := range suggestions {
		reasonByURL[s.URL] = s.Reason
	}
	for i := range active {
		active[i].SmartExcludeReason = reasonByURL[active[i].URL]
	}

	return &types.DiscoverResponse{
		Pages:                   append(active, excluded...),
		Excluded:                excluded,
		SmartExcludeSuggestions: suggestions,
		TotalFound:              len(pages),
	}, nil
}

// discoverNav loads the homepage and extracts links from its navigation
// areas. Sites that render their menus client side need the browser; when
// the render fails but the plain fetch worked, the static HTML is used.
func (d *Discoverer) discoverNav(ctx context.Context, baseURL string) ([]types.DiscoveredPage, error) {
	var htmlContent string
	result, fetchErr := fetch.URL(ctx, baseURL, d.FetchOptions)
	if fetchErr == nil {
		htmlContent = result.HTML
		text, err := fetch.ExtractMainText(result.HTML, fetch.MainContentSelectors())
		if err == nil && !fetch.ShouldUseBrowser(text) {
			return extractNavLinks(htmlContent, baseURL)
		}
	}

	rendered, renderErr := fetch.Render(ctx, baseURL, d.BrowserTimeout, d.Verbose)
	if renderErr == nil {
		htmlContent = rendered.HTML
	} else if htmlContent == "" {
		if fetchErr != nil {
			return nil, &DiscoveryError{Message: "failed to load homepage", Cause: fetchErr}
		}
		return nil, &DiscoveryError{Message: "failed to render homepage", Cause: renderErr}
	}
	return extractNavLinks(htmlContent, baseURL)
}

func (d *Discoverer) logf(format string, args ...any) {
	if d.Verbose {
		log.Printf("[DISCOVERY] "+format, args...)
	}
}
