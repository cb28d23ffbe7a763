package discovery

import (
	"context"
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/fetch"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/urlutil"
)

const (
	// DefaultCrawlDelay is the pause between crawl fetches
	DefaultCrawlDelay = 200 * time.Millisecond
	// linksPerPage caps how many links a single page may feed the queue
	linksPerPage = 100
)

type queueItem struct {
	url   string
	depth int
}

// crawlBFS breadth-first crawls same-domain links from baseURL. URLs in
// seen were already found by sitemap or nav discovery and are skipped.
func (d *Discoverer) crawlBFS(ctx context.Context, baseURL string, seen map[string]bool, maxPages, maxDepth int) []types.DiscoveredPage {
	var pages []types.DiscoveredPage
	queue := []queueItem{{url: baseURL, depth: 0}}
	visited := make(map[string]bool, len(seen))
	for u := range seen {
		visited[u] = true
	}

	for len(queue) > 0 && len(pages) < maxPages {
		if ctx.Err() != nil {
			break
		}
		item := queue[0]
		queue = queue[1:]
		if item.depth > maxDepth {
			continue
		}

		norm, err := urlutil.Normalize(item.url, "")
		if err != nil || visited[norm] {
			continue
		}
		visited[norm] = true

		result, err := fetch.URL(ctx, norm, d.FetchOptions)
		if err != nil {
			d.logf("crawl skip %s: %v", norm, err)
			continue
		}

		pages = append(pages, types.DiscoveredPage{
			URL:      norm,
			Title:    pageTitle(result.HTML),
			Source:   types.PageSourceCrawl,
			Selected: true,
		})

		if item.depth < maxDepth {
			links, err := ExtractLinks(result.HTML, norm)
			if err == nil {
				if len(links) > linksPerPage {
					links = links[:linksPerPage]
				}
				for _, link := range links {
					if !visited[link] {
						queue = append(queue, queueItem{url: link, depth: item.depth + 1})
					}
				}
			}
		}

		if d.CrawlDelay > 0 && len(queue) > 0 && len(pages) < maxPages {
			select {
			case <-ctx.Done():
				return pages
			case <-time.After(d.CrawlDelay):
			}
		}
	}

	return pages
}
