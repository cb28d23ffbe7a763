package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/fetch"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func TestParseSitemap_URLSet(t *testing.T) {
	data := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc></url>
  <url><loc> https://example.com/pricing </loc></url>
</urlset>`

	pages, subs, err := parseSitemap([]byte(data))
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Equal(t, []string{"https://example.com/", "https://example.com/pricing"}, pages)
}

func TestParseSitemap_Index(t *testing.T) {
	data := `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.com/sitemap-pages.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sitemap-blog.xml</loc></sitemap>
</sitemapindex>`

	pages, subs, err := parseSitemap([]byte(data))
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Equal(t, []string{
		"https://example.com/sitemap-pages.xml",
		"https://example.com/sitemap-blog.xml",
	}, subs)
}

func TestParseSitemap_Malformed(t *testing.T) {
	_, _, err := parseSitemap([]byte("<urlset><url></urlset>"))
	require.Error(t, err)
	var smErr *SitemapError
	assert.ErrorAs(t, err, &smErr)
}

func TestPageTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"plain", `<html><head><title>About Us</title></head></html>`, "About Us"},
		{"entities", `<title>Pricing &amp; Plans</title>`, "Pricing & Plans"},
		{"attributes", `<title data-rh="true">Docs</title>`, "Docs"},
		{"multiline", "<title>\n  Careers\n</title>", "Careers"},
		{"missing", `<html><body><p>No title</p></body></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageTitle(tt.html))
		})
	}
}

// sitemapTestServer serves a sitemap index with two children plus the pages
// they list. Handlers resolve the server URL lazily so the sitemap bodies
// can reference it.
func sitemapTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := server.URL
		switch r.URL.Path {
		case "/sitemap.xml":
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap-products.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap-company.xml</loc></sitemap>
</sitemapindex>`, base, base)
		case "/sitemap-products.xml":
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/widgets</loc></url>
  <url><loc>%s/gadgets</loc></url>
  <url><loc>https://cdn.example.net/asset</loc></url>
</urlset>`, base, base)
		case "/sitemap-company.xml":
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/about</loc></url>
</urlset>`, base)
		case "/widgets":
			fmt.Fprint(w, `<html><head><title>Widgets</title></head><body><main><p>Widget catalog.</p></main></body></html>`)
		case "/gadgets":
			fmt.Fprint(w, `<html><head><title>Gadgets</title></head><body><main><p>Gadget catalog.</p></main></body></html>`)
		case "/about":
			fmt.Fprint(w, `<html><head><title>About</title></head><body><main><p>Company story.</p></main></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	return server
}

func TestDiscoverSitemap_FollowsIndex(t *testing.T) {
	server := sitemapTestServer(t)
	defer server.Close()

	d := &Discoverer{FetchOptions: fetch.DefaultOptions(), AllowPrivate: true}
	pages := d.discoverSitemap(context.Background(), server.URL, 10)

	require.Len(t, pages, 3, "external URL should be filtered out")
	byURL := make(map[string]types.DiscoveredPage)
	for _, p := range pages {
		assert.Equal(t, types.PageSourceSitemap, p.Source)
		assert.True(t, p.Selected)
		byURL[p.URL] = p
	}
	assert.Equal(t, "Widgets", byURL[server.URL+"/widgets"].Title)
	assert.Equal(t, "Gadgets", byURL[server.URL+"/gadgets"].Title)
	assert.Equal(t, "About", byURL[server.URL+"/about"].Title)
}

func TestDiscoverSitemap_RespectsMaxPages(t *testing.T) {
	server := sitemapTestServer(t)
	defer server.Close()

	d := &Discoverer{FetchOptions: fetch.DefaultOptions(), AllowPrivate: true}
	pages := d.discoverSitemap(context.Background(), server.URL, 2)
	assert.Len(t, pages, 2)
}

func TestDiscoverSitemap_MissingSitemap(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	d := &Discoverer{FetchOptions: fetch.DefaultOptions(), AllowPrivate: true}
	pages := d.discoverSitemap(context.Background(), server.URL, 10)
	assert.Empty(t, pages)
}
