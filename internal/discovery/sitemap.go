package discovery

import (
	"context"
	"encoding/xml"
	"html"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/fetch"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/urlutil"
)

const (
	// maxSubSitemaps bounds sitemap-index recursion. Large sites list
	// hundreds of sub-sitemaps; the first few cover the primary pages.
	maxSubSitemaps = 5
	// titleFetchWorkers bounds concurrent title lookups for sitemap URLs.
	titleFetchWorkers = 10
	// titleFetchTimeout is the per-page budget for a title lookup.
	titleFetchTimeout = 3 * time.Second
)

// sitemapDoc covers both document shapes: a sitemap index carries
// <sitemap> children, a url set carries <url> children.
type sitemapDoc struct {
	XMLName  xml.Name
	Sitemaps []sitemapLoc `xml:"sitemap"`
	URLs     []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// parseSitemap parses sitemap XML and returns the page URLs it lists and,
// for index documents, the sub-sitemap URLs to follow.
func parseSitemap(data []byte) (pageURLs []string, subSitemaps []string, err error) {
	var doc sitemapDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, &SitemapError{Message: "failed to parse sitemap XML", Cause: err}
	}
	for _, ref := range doc.Sitemaps {
		if loc := strings.TrimSpace(ref.Loc); loc != "" {
			subSitemaps = append(subSitemaps, loc)
		}
	}
	for _, ref := range doc.URLs {
		if loc := strings.TrimSpace(ref.Loc); loc != "" {
			pageURLs = append(pageURLs, loc)
		}
	}
	return pageURLs, subSitemaps, nil
}

// discoverSitemap reads <base>/sitemap.xml, following a sitemap index into
// at most maxSubSitemaps children, and returns same-domain pages with
// concurrently fetched titles. A missing or broken sitemap is not an error;
// nav extraction and the crawl fallback take over.
func (d *Discoverer) discoverSitemap(ctx context.Context, baseURL string, maxPages int) []types.DiscoveredPage {
	sitemapURL := strings.TrimRight(baseURL, "/") + "/sitemap.xml"
	result, err := fetch.URL(ctx, sitemapURL, d.FetchOptions)
	if err != nil {
		d.logf("no sitemap at %s: %v", sitemapURL, err)
		return nil
	}

	pageURLs, subSitemaps, err := parseSitemap([]byte(result.HTML))
	if err != nil {
		d.logf("sitemap parse failed for %s: %v", sitemapURL, err)
		return nil
	}

	var urls []string
	appendSameDomain := func(candidates []string) {
		for _, u := range candidates {
			if len(urls) >= maxPages {
				return
			}
			if urlutil.SameDomain(u, baseURL) {
				urls = append(urls, u)
			}
		}
	}

	if len(subSitemaps) > 0 {
		if len(subSitemaps) > maxSubSitemaps {
			subSitemaps = subSitemaps[:maxSubSitemaps]
		}
		for _, subURL := range subSitemaps {
			if len(urls) >= maxPages {
				break
			}
			subResult, err := fetch.URL(ctx, subURL, d.FetchOptions)
			if err != nil {
				d.logf("sub-sitemap fetch failed for %s: %v", subURL, err)
				continue
			}
			subURLs, _, err := parseSitemap([]byte(subResult.HTML))
			if err != nil {
				continue
			}
			appendSameDomain(subURLs)
		}
	} else {
		appendSameDomain(pageURLs)
	}

	titles := d.fetchTitles(ctx, urls)

	pages := make([]types.DiscoveredPage, 0, len(urls))
	for i, u := range urls {
		pages = append(pages, types.DiscoveredPage{
			URL:      u,
			Title:    titles[i],
			Source:   types.PageSourceSitemap,
			Selected: true,
		})
	}
	return pages
}

// fetchTitles fetches page titles concurrently. Failures leave an empty
// title; a sitemap entry without a title is still a valid page.
func (d *Discoverer) fetchTitles(ctx context.Context, urls []string) []string {
	titles := make([]string, len(urls))
	var g errgroup.Group
	g.SetLimit(titleFetchWorkers)
	for i, pageURL := range urls {
		i, pageURL := i, pageURL
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(ctx, titleFetchTimeout)
			defer cancel()
			result, err := fetch.URL(tctx, pageURL, d.FetchOptions)
			if err != nil {
				return nil
			}
			titles[i] = pageTitle(result.HTML)
			return nil
		})
	}
	_ = g.Wait()
	return titles
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// pageTitle pulls the <title> text out of raw HTML without a full parse.
func pageTitle(htmlContent string) string {
	m := titleRe.FindStringSubmatch(htmlContent)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
