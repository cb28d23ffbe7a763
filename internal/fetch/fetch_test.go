package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	// Create test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
	assert.False(t, fetchErr.Retryable)
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
	assert.False(t, fetchErr.Retryable)
}

func TestURL_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, fetchErr.Retryable)
}

func TestURLWithRetry_RecoversFromTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<html><body>recovered</body></html>"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.RetryBaseDelay = time.Millisecond

	result, err := URLWithRetry(context.Background(), server.URL, opts, 3)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "recovered")
	assert.Equal(t, int32(3), calls.Load())
}

func TestURLWithRetry_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.RetryBaseDelay = time.Millisecond

	_, err := URLWithRetry(context.Background(), server.URL, opts, 3)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "client errors should not be retried")
}

func TestURLWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.RetryBaseDelay = time.Millisecond

	_, err := URLWithRetry(context.Background(), server.URL, opts, 2)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExtractMainText_WithMainElement(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Main Content</h1>
				<p>This is the important text.</p>
			</main>
			<footer>Footer</footer>
		</body>
	</html>`

	text, err := ExtractMainText(html, MainContentSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Main Content")
	assert.Contains(t, text, "important text")
	assert.NotContains(t, text, "Navigation")
	assert.NotContains(t, text, "Footer")
}

func TestExtractMainText_WithArticleElement(t *testing.T) {
	html := `
	<html>
		<body>
			<article>
				<h1>Article Title</h1>
				<p>Article body.</p>
			</article>
		</body>
	</html>`

	text, err := ExtractMainText(html, MainContentSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Article Title")
	assert.Contains(t, text, "Article body")
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	html := `
	<html>
		<body>
			<span>Some content here.</span>
		</body>
	</html>`

	text, err := ExtractMainText(html, MainContentSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Some content here")
}

func TestExtractMainText_NoiseSelectors(t *testing.T) {
	html := `
	<html>
		<body>
			<div class="cookie-consent">We use cookies!</div>
			<main>
				<h2>Pricing</h2>
				<p>Plans start at $10 a month.</p>
			</main>
			<div class="promo-banner">Subscribe now</div>
		</body>
	</html>`

	text, err := ExtractMainText(html, MainContentSelectors(), NoiseSelectors()...)
	require.NoError(t, err)
	assert.Contains(t, text, "Pricing")
	assert.Contains(t, text, "$10 a month")
	assert.NotContains(t, text, "cookies")
	assert.NotContains(t, text, "Subscribe now")
}

func TestMainContentSelectors(t *testing.T) {
	selectors := MainContentSelectors()
	assert.Contains(t, selectors, "main")
	assert.Contains(t, selectors, "article")
	assert.Equal(t, "main", selectors[0], "main should be tried first")
}

func TestNoiseSelectors(t *testing.T) {
	selectors := NoiseSelectors()
	assert.Contains(t, selectors, `[class*="cookie"]`)
	assert.Contains(t, selectors, "nav")
	assert.Contains(t, selectors, `[class*="modal"]`)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser(""))
	assert.True(t, ShouldUseBrowser("short page"))
	assert.False(t, ShouldUseBrowser(strings.Repeat("word ", MinContentLength)))
}
