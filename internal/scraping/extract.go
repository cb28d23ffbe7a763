// Package scraping extracts structured content from web pages. Pages are
// reduced to heading-scoped chunks whose text, hashes and token estimates
// feed validation and change detection.
package scraping

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/fetch"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/issues"
)

const (
	// elementTextLimit caps the text taken from any single element.
	elementTextLimit = 2000
	// fallbackContentLimit caps the single chunk produced when a page has
	// no extractable structure.
	fallbackContentLimit = 5000
)

// Chunk is one heading-scoped block of page text.
type Chunk struct {
	HeadingPath   string
	Content       string
	ContentHash   string
	TokenEstimate int
}

// PageContent is the structured result of scraping a single page.
type PageContent struct {
	URL         string
	Title       string
	Chunks      []Chunk
	ContentHash string
	WordCount   int
}

// Text returns the combined chunk content of the page.
func (p *PageContent) Text() string {
	parts := make([]string, len(p.Chunks))
	for i, c := range p.Chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n")
}

var (
	headingTagRe = regexp.MustCompile(`^h([1-6])$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Extract parses rendered HTML into structured page content. Noise
// elements and any extra exclusion selectors are removed first, then
// content is collected under the page's heading hierarchy. Pages with no
// recognizable structure degrade to a single capped text chunk.
func Extract(html, pageURL, title string, extraExclude []string) (*PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if title == "" {
		title = cleanText(doc.Find("title").First().Text())
	}

	noise := append(fetch.NoiseSelectors(), extraExclude...)
	doc.Find(strings.Join(noise, ", ")).Remove()

	var container *goquery.Selection
	for _, sel := range fetch.MainContentSelectors() {
		if s := doc.Find(sel); s.Length() > 0 {
			container = s.First()
			break
		}
	}
	if container == nil {
		container = doc.Find("body")
	}

	chunks := extractChunks(container)
	if len(chunks) == 0 {
		if text := truncateRunes(cleanText(container.Text()), fallbackContentLimit); text != "" {
			chunks = []Chunk{{
				HeadingPath:   "",
				Content:       text,
				ContentHash:   issues.ContentHash(text),
				TokenEstimate: EstimateTokens(text),
			}}
		}
	}

	page := &PageContent{
		URL:    pageURL,
		Title:  title,
		Chunks: chunks,
	}
	page.ContentHash = issues.ContentHash(page.Text())
	for _, c := range chunks {
		page.WordCount += len(strings.Fields(c.Content))
	}
	return page, nil
}

// extractChunks walks content elements in document order, grouping text
// under the heading path in effect when it appears. A heading at level N
// pops any stack entries at level N or deeper before pushing itself.
func extractChunks(container *goquery.Selection) []Chunk {
	type heading struct {
		level int
		text  string
	}

	var (
		chunks      []Chunk
		stack       []heading
		current     []string
		headingPath string
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		combined := strings.Join(current, "\n")
		current = nil
		if strings.TrimSpace(combined) == "" {
			return
		}
		chunks = append(chunks, Chunk{
			HeadingPath:   headingPath,
			Content:       combined,
			ContentHash:   issues.ContentHash(combined),
			TokenEstimate: EstimateTokens(combined),
		})
	}

	container.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, td, th").Each(func(_ int, el *goquery.Selection) {
		text := truncateRunes(cleanText(el.Text()), elementTextLimit)
		if text == "" {
			return
		}

		level := headingLevel(goquery.NodeName(el))
		if level == 0 {
			current = append(current, text)
			return
		}

		flush()
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, heading{level: level, text: text})

		parts := make([]string, len(stack))
		for i, h := range stack {
			parts[i] = fmt.Sprintf("H%d: %s", h.level, h.text)
		}
		headingPath = strings.Join(parts, " > ")
	})
	flush()

	return chunks
}

// headingLevel returns 1-6 for h1-h6 tags, 0 otherwise.
func headingLevel(tag string) int {
	m := headingTagRe.FindStringSubmatch(strings.ToLower(tag))
	if m == nil {
		return 0
	}
	return int(m[1][0] - '0')
}

// EstimateTokens gives a rough token count for LLM budgeting (words / 0.75).
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) / 0.75)
}

// cleanText approximates rendered text: whitespace runs collapse to a
// single space.
func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
