// Package fetch - selectors.go provides shared CSS selector sets for
// content extraction.
package fetch

// NoiseSelectors returns selectors for elements stripped before any
// content extraction: chrome, consent banners, overlays and promos that
// would otherwise pollute validation input.
func NoiseSelectors() []string {
	return []string{
		// Cookie banners
		`[class*="cookie"]`, `[id*="cookie"]`, `[class*="consent"]`,
		`[class*="gdpr"]`, `[id*="gdpr"]`,
		// Navigation
		"nav", ".nav", "#nav", `[role="navigation"]`,
		// Headers
		"header", ".header", "#header", `[role="banner"]`,
		// Footers
		"footer", ".footer", "#footer", `[role="contentinfo"]`,
		// Sidebars / asides
		"aside", ".sidebar", "#sidebar", `[role="complementary"]`,
		// Sticky CTAs
		`[class*="sticky"]`, `[class*="fixed-bottom"]`, `[class*="floating"]`,
		// Popups / modals
		`[class*="modal"]`, `[class*="popup"]`, `[class*="overlay"]`,
		// Ad / promo
		`[class*="promo"]`, `[class*="banner"]`, `[class*="advertisement"]`,
	}
}

// MainContentSelectors returns selectors tried in priority order to
// locate the primary content container of a page.
func MainContentSelectors() []string {
	return []string{
		"main",
		`[role="main"]`,
		"article",
		"#content",
		".content",
		"#main",
		".main",
		".main-content",
		"#main-content",
		`div[class*="content"]`,
		`div[class*="main"]`,
	}
}
