package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

func TestRuleMatcher(t *testing.T) {
	page := types.DiscoveredPage{
		URL:   "https://staging.example.com/Docs/Careers/apply",
		Title: "Careers",
	}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"url contains match", Rule{types.ExclusionURLContains, "/careers/"}, true},
		{"url contains case insensitive", Rule{types.ExclusionURLContains, "/CAREERS/"}, true},
		{"url contains miss", Rule{types.ExclusionURLContains, "/blog/"}, false},
		{"url contains empty value never matches", Rule{types.ExclusionURLContains, ""}, false},
		{"url regex match", Rule{types.ExclusionURLRegex, `/careers/.*$`}, true},
		{"url regex miss", Rule{types.ExclusionURLRegex, `/blog/\d+`}, false},
		{"url regex invalid pattern dropped", Rule{types.ExclusionURLRegex, `[unclosed`}, false},
		{"path match", Rule{types.ExclusionPath, "/docs"}, true},
		{"path miss", Rule{types.ExclusionPath, "/legal"}, false},
		{"domain exact", Rule{types.ExclusionDomain, "staging.example.com"}, true},
		{"domain suffix", Rule{types.ExclusionDomain, "example.com"}, true},
		{"domain partial is not a suffix", Rule{types.ExclusionDomain, "ample.com"}, false},
		{"nav label match", Rule{types.ExclusionNavLabel, "careers"}, true},
		{"nav label miss", Rule{types.ExclusionNavLabel, "Career"}, false},
		{"css selector rules do not apply to URLs", Rule{types.ExclusionCSSSelector, ".promo"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newRuleMatcher([]Rule{tt.rule})
			assert.Equal(t, tt.want, m.excludes(page))
		})
	}
}

func TestRuleMatcher_NoRules(t *testing.T) {
	m := newRuleMatcher(nil)
	assert.False(t, m.excludes(types.DiscoveredPage{URL: "https://example.com/anything"}))
}

func TestApplyExclusions(t *testing.T) {
	pages := []types.DiscoveredPage{
		{URL: "https://example.com/", Title: "Home", Selected: true},
		{URL: "https://example.com/careers/intern", Title: "Internships", Selected: true},
		{URL: "https://example.com/pricing", Title: "Pricing", Selected: true},
	}
	rules := []Rule{{Type: types.ExclusionURLContains, Value: "/careers"}}

	active, excluded := applyExclusions(pages, rules)

	require.Len(t, active, 2)
	require.Len(t, excluded, 1)
	assert.Equal(t, "https://example.com/careers/intern", excluded[0].URL)
	assert.False(t, excluded[0].Selected, "excluded pages are deselected")
	for _, p := range active {
		assert.True(t, p.Selected)
	}
}

func TestApplyExclusions_NoRules(t *testing.T) {
	pages := []types.DiscoveredPage{
		{URL: "https://example.com/", Selected: true},
	}
	active, excluded := applyExclusions(pages, nil)
	assert.Len(t, active, 1)
	assert.Empty(t, excluded)
}
