package discovery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// Rule is one exclusion rule applied to discovered pages. Callers map
// stored profile rules into this shape so discovery stays storage-free.
// css_selector_exclude rules do not apply here; the scraper consumes them.
type Rule struct {
	Type  types.ExclusionRuleType
	Value string
}

// ruleMatcher holds pre-compiled exclusion rules for one discovery run.
// Invalid regex rules are dropped rather than failing the whole run.
type ruleMatcher struct {
	rules   []Rule
	regexps map[int]*regexp.Regexp
}

func newRuleMatcher(rules []Rule) *ruleMatcher {
	m := &ruleMatcher{rules: rules, regexps: make(map[int]*regexp.Regexp)}
	for i, rule := range rules {
		if rule.Type != types.ExclusionURLRegex {
			continue
		}
		re, err := regexp.Compile("(?i)" + rule.Value)
		if err != nil {
			continue
		}
		m.regexps[i] = re
	}
	return m
}

// excludes reports whether any rule matches the page.
func (m *ruleMatcher) excludes(page types.DiscoveredPage) bool {
	if len(m.rules) == 0 {
		return false
	}

	lowerURL := strings.ToLower(page.URL)
	var host, path string
	if u, err := url.Parse(page.URL); err == nil {
		host = strings.ToLower(u.Hostname())
		path = strings.ToLower(u.Path)
	}

	for i, rule := range m.rules {
		value := strings.ToLower(rule.Value)
		switch rule.Type {
		case types.ExclusionURLContains:
			if value != "" && strings.Contains(lowerURL, value) {
				return true
			}
		case types.ExclusionURLRegex:
			if re, ok := m.regexps[i]; ok && re.MatchString(page.URL) {
				return true
			}
		case types.ExclusionPath:
			if value != "" && strings.Contains(path, value) {
				return true
			}
		case types.ExclusionDomain:
			if host == value || strings.HasSuffix(host, "."+value) {
				return true
			}
		case types.ExclusionNavLabel:
			if page.Title != "" && strings.EqualFold(page.Title, rule.Value) {
				return true
			}
		}
	}
	return false
}

// applyExclusions splits pages into the ones to validate and the ones the
// rules filtered out. Excluded pages keep their discovery metadata but are
// deselected so the caller can still show them.
func applyExclusions(pages []types.DiscoveredPage, rules []Rule) (active, excluded []types.DiscoveredPage) {
	matcher := newRuleMatcher(rules)
	for _, page := range pages {
		if matcher.excludes(page) {
			page.Selected = false
			excluded = append(excluded, page)
		} else {
			active = append(active, page)
		}
	}
	return active, excluded
}
