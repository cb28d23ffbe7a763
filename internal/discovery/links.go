package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/urlutil"
)

// navSelectors are the elements whose links count as site navigation.
var navSelectors = []string{
	`nav a[href]`,
	`header a[href]`,
	`[role="navigation"] a[href]`,
	`.menu a[href]`,
	`.navbar a[href]`,
	`#nav a[href]`,
}

// skippedHrefPrefixes are link targets that never name a page.
var skippedHrefPrefixes = []string{"#", "javascript:", "tel:", "mailto:"}

func skippableHref(href string) bool {
	for _, prefix := range skippedHrefPrefixes {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

// ExtractLinks extracts all same-domain links from HTML content, normalized
// and deduplicated. Relative references are resolved against baseURL.
func ExtractLinks(htmlContent string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse base URL",
			Cause:   err,
		}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{
			Message: fmt.Sprintf("invalid base URL: %s (must have scheme and host)", baseURL),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse HTML",
			Cause:   err,
		}
	}

	linkSet := make(map[string]bool)
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" || skippableHref(href) {
			return
		}

		normalized, err := urlutil.Normalize(href, baseURL)
		if err != nil {
			// Skip malformed URLs
			return
		}
		if !urlutil.SameDomain(normalized, baseURL) {
			return
		}

		if !linkSet[normalized] {
			linkSet[normalized] = true
			links = append(links, normalized)
		}
	})

	return links, nil
}

// extractNavLinks pulls labeled links out of the page's navigation areas.
// The link text becomes the page title so nav_label_exclude rules can match
// against it later.
func extractNavLinks(htmlContent string, baseURL string) ([]types.DiscoveredPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse HTML",
			Cause:   err,
		}
	}

	seen := make(map[string]bool)
	var pages []types.DiscoveredPage

	doc.Find(strings.Join(navSelectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" || skippableHref(href) {
			return
		}

		normalized, err := urlutil.Normalize(href, baseURL)
		if err != nil {
			return
		}
		if !urlutil.SameDomain(normalized, baseURL) {
			return
		}
		if seen[normalized] {
			return
		}
		seen[normalized] = true

		pages = append(pages, types.DiscoveredPage{
			URL:      normalized,
			Title:    strings.TrimSpace(s.Text()),
			Source:   types.PageSourceNav,
			Selected: true,
		})
	})

	return pages, nil
}
