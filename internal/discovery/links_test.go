package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func TestExtractLinks_HomepageWithNav(t *testing.T) {
	html := `
		<html>
			<body>
				<nav>
					<a href="/about">About</a>
					<a href="/pricing">Pricing</a>
					<a href="/contact">Contact</a>
				</nav>
				<main>
					<a href="/blog">Blog</a>
					<a href="https://other.com/external">External</a>
				</main>
				<footer>
					<a href="/legal">Legal</a>
				</footer>
			</body>
		</html>
	`

	links, err := ExtractLinks(html, "https://example.com")
	require.NoError(t, err)
	require.Len(t, links, 5)

	expectedLinks := map[string]bool{
		"https://example.com/about":   true,
		"https://example.com/pricing": true,
		"https://example.com/contact": true,
		"https://example.com/blog":    true,
		"https://example.com/legal":   true,
	}
	for _, link := range links {
		assert.True(t, expectedLinks[link], "unexpected link: %s", link)
	}
}

func TestExtractLinks_FiltersExternalLinks(t *testing.T) {
	html := `
		<html>
			<body>
				<a href="https://example.com/internal">Internal</a>
				<a href="https://other.com/external">External</a>
				<a href="http://example.com/mixed">Mixed Protocol</a>
			</body>
		</html>
	`

	links, err := ExtractLinks(html, "https://example.com")
	require.NoError(t, err)
	assert.Len(t, links, 2)
	assert.Contains(t, links, "https://example.com/internal")
	assert.Contains(t, links, "http://example.com/mixed")
	assert.NotContains(t, links, "https://other.com/external")
}

func TestExtractLinks_NormalizesRelativeURLs(t *testing.T) {
	html := `
		<html>
			<body>
				<a href="/relative">Relative</a>
				<a href="relative2">Relative No Slash</a>
				<a href="../parent">Parent</a>
			</body>
		</html>
	`

	links, err := ExtractLinks(html, "https://example.com/path/to/page")
	require.NoError(t, err)
	assert.Len(t, links, 3)
	assert.Contains(t, links, "https://example.com/relative")
	assert.Contains(t, links, "https://example.com/path/to/relative2")
	assert.Contains(t, links, "https://example.com/path/parent")
}

func TestExtractLinks_RemovesDuplicates(t *testing.T) {
	html := `
		<html>
			<body>
				<a href="/duplicate">Duplicate 1</a>
				<a href="/duplicate">Duplicate 2</a>
				<a href="/duplicate/">Duplicate 3 (trailing slash)</a>
			</body>
		</html>
	`

	links, err := ExtractLinks(html, "https://example.com")
	require.NoError(t, err)
	// Trailing slashes normalize away, so all three collapse to one URL
	assert.Equal(t, []string{"https://example.com/duplicate"}, links)
}

func TestExtractLinks_RemovesFragments(t *testing.T) {
	html := `
		<html>
			<body>
				<a href="/page#section">With Fragment</a>
				<a href="/page#other">Same Page Different Fragment</a>
			</body>
		</html>
	`

	links, err := ExtractLinks(html, "https://example.com")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/page", links[0])
}

func TestExtractLinks_SkipsNonPageSchemes(t *testing.T) {
	html := `
		<html>
			<body>
				<a href="#top">Back to top</a>
				<a href="javascript:void(0)">Button</a>
				<a href="tel:+15550100">Call</a>
				<a href="mailto:hello@example.com">Email</a>
				<a href="/real-page">Real</a>
			</body>
		</html>
	`

	links, err := ExtractLinks(html, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/real-page"}, links)
}

func TestExtractLinks_InvalidBaseURL(t *testing.T) {
	html := `<html><body><a href="/link">Link</a></body></html>`

	_, err := ExtractLinks(html, "not-a-valid-url")
	assert.Error(t, err)
	var linkErr *LinkExtractionError
	assert.ErrorAs(t, err, &linkErr)
}

func TestExtractLinks_EmptyHTML(t *testing.T) {
	links, err := ExtractLinks("", "https://example.com")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestExtractLinks_MalformedLinks(t *testing.T) {
	html := `
		<html>
			<body>
				<a href="valid">Valid</a>
				<a href="://invalid">Invalid</a>
				<a>No href</a>
			</body>
		</html>
	`

	links, err := ExtractLinks(html, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/valid"}, links)
}

func TestExtractNavLinks_ScopedToNavAreas(t *testing.T) {
	html := `
		<html>
			<body>
				<nav>
					<a href="/about">About Us</a>
					<a href="/pricing">Pricing</a>
				</nav>
				<div class="menu">
					<a href="/docs">Docs</a>
				</div>
				<main>
					<a href="/buried">Buried in body copy</a>
				</main>
			</body>
		</html>
	`

	pages, err := extractNavLinks(html, "https://example.com")
	require.NoError(t, err)
	require.Len(t, pages, 3)

	byURL := make(map[string]types.DiscoveredPage)
	for _, p := range pages {
		assert.Equal(t, types.PageSourceNav, p.Source)
		assert.True(t, p.Selected)
		byURL[p.URL] = p
	}
	assert.Equal(t, "About Us", byURL["https://example.com/about"].Title)
	assert.Equal(t, "Pricing", byURL["https://example.com/pricing"].Title)
	assert.Equal(t, "Docs", byURL["https://example.com/docs"].Title)
	assert.NotContains(t, byURL, "https://example.com/buried")
}

func TestExtractNavLinks_DeduplicatesAcrossAreas(t *testing.T) {
	html := `
		<html>
			<body>
				<nav><a href="/about">About</a></nav>
				<header><a href="/about">About</a></header>
			</body>
		</html>
	`

	pages, err := extractNavLinks(html, "https://example.com")
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
