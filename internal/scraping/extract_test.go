package scraping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `
<html>
<head><title>Acme | Pricing</title></head>
<body>
	<nav>Home Pricing About</nav>
	<div class="cookie-consent">We use cookies</div>
	<main>
		<h1>Pricing</h1>
		<p>Simple plans for every team.</p>
		<h2>Starter</h2>
		<p>Ten dollars a month.</p>
		<ul>
			<li>One project</li>
			<li>Email support</li>
		</ul>
		<h2>Enterprise</h2>
		<p>Contact our sales team.</p>
	</main>
	<footer>Copyright Acme</footer>
</body>
</html>`

func TestExtract_HeadingChunks(t *testing.T) {
	page, err := Extract(samplePage, "https://acme.example.com/pricing", "", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://acme.example.com/pricing", page.URL)
	assert.Equal(t, "Acme | Pricing", page.Title)

	require.Len(t, page.Chunks, 3)

	assert.Equal(t, "H1: Pricing", page.Chunks[0].HeadingPath)
	assert.Contains(t, page.Chunks[0].Content, "Simple plans")

	assert.Equal(t, "H1: Pricing > H2: Starter", page.Chunks[1].HeadingPath)
	assert.Contains(t, page.Chunks[1].Content, "Ten dollars a month")
	assert.Contains(t, page.Chunks[1].Content, "One project")

	assert.Equal(t, "H1: Pricing > H2: Enterprise", page.Chunks[2].HeadingPath)
	assert.Contains(t, page.Chunks[2].Content, "Contact our sales team")
}

func TestExtract_RemovesNoise(t *testing.T) {
	page, err := Extract(samplePage, "https://acme.example.com/pricing", "", nil)
	require.NoError(t, err)

	text := page.Text()
	assert.NotContains(t, text, "We use cookies")
	assert.NotContains(t, text, "Copyright Acme")
}

func TestExtract_ExtraExcludeSelectors(t *testing.T) {
	html := `
	<html><body><main>
		<h1>Docs</h1>
		<p>Welcome to the docs.</p>
		<div class="changelog"><p>v2.1 released</p></div>
	</main></body></html>`

	page, err := Extract(html, "https://acme.example.com/docs", "", []string{".changelog"})
	require.NoError(t, err)
	assert.NotContains(t, page.Text(), "v2.1 released")
	assert.Contains(t, page.Text(), "Welcome to the docs")
}

func TestExtract_HeadingStackPopsSiblings(t *testing.T) {
	html := `
	<html><body><main>
		<h1>Guide</h1>
		<h2>Install</h2>
		<h3>Linux</h3>
		<p>Use the package manager.</p>
		<h2>Configure</h2>
		<p>Edit the config file.</p>
	</main></body></html>`

	page, err := Extract(html, "https://example.com/guide", "", nil)
	require.NoError(t, err)
	require.Len(t, page.Chunks, 2)
	assert.Equal(t, "H1: Guide > H2: Install > H3: Linux", page.Chunks[0].HeadingPath)
	assert.Equal(t, "H1: Guide > H2: Configure", page.Chunks[1].HeadingPath)
}

func TestExtract_FallbackWhenUnstructured(t *testing.T) {
	html := `<html><body><div>Just a wall of text with no paragraphs or headings worth mentioning.</div></body></html>`

	page, err := Extract(html, "https://example.com/", "", nil)
	require.NoError(t, err)
	require.Len(t, page.Chunks, 1)
	assert.Empty(t, page.Chunks[0].HeadingPath)
	assert.Contains(t, page.Chunks[0].Content, "wall of text")
	assert.NotZero(t, page.Chunks[0].TokenEstimate)
}

func TestExtract_FallbackContentIsCapped(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 1000)
	html := "<html><body><div>" + long + "</div></body></html>"

	page, err := Extract(html, "https://example.com/", "", nil)
	require.NoError(t, err)
	require.Len(t, page.Chunks, 1)
	assert.LessOrEqual(t, len([]rune(page.Chunks[0].Content)), fallbackContentLimit)
}

func TestExtract_TitleFromArgumentWins(t *testing.T) {
	page, err := Extract(samplePage, "https://acme.example.com/pricing", "Rendered Title", nil)
	require.NoError(t, err)
	assert.Equal(t, "Rendered Title", page.Title)
}

func TestExtract_WordCountAndHash(t *testing.T) {
	page, err := Extract(samplePage, "https://acme.example.com/pricing", "", nil)
	require.NoError(t, err)

	assert.Greater(t, page.WordCount, 10)
	assert.Len(t, page.ContentHash, 64, "sha256 hex")

	// Same content yields the same hash
	again, err := Extract(samplePage, "https://acme.example.com/pricing", "", nil)
	require.NoError(t, err)
	assert.Equal(t, page.ContentHash, again.ContentHash)
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("h1"))
	assert.Equal(t, 6, headingLevel("H6"))
	assert.Equal(t, 0, headingLevel("p"))
	assert.Equal(t, 0, headingLevel("h7"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	// 3 words / 0.75 = 4 tokens
	assert.Equal(t, 4, EstimateTokens("three little words"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("  a\n\n b\t c  "))
	assert.Equal(t, "", cleanText("   \n\t "))
}
