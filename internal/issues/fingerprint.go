package issues

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// fingerprintEvidenceLen caps how much normalized evidence feeds the
// fingerprint. Long evidence tails churn between runs (rotating banners,
// dates) without changing what the defect is, so only a fixed prefix
// participates in identity.
const fingerprintEvidenceLen = 200

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeText lowercases, trims and collapses whitespace runs so that
// cosmetic differences do not change a fingerprint.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(strings.TrimSpace(text))
	return whitespacePattern.ReplaceAllString(text, " ")
}

// NormalizeURL canonicalizes a URL for fingerprinting: fragment and
// trailing slash stripped, lowercased.
func NormalizeURL(url string) string {
	if url == "" {
		return ""
	}
	if i := strings.Index(url, "#"); i >= 0 {
		url = url[:i]
	}
	url = strings.TrimRight(url, "/")
	return strings.ToLower(url)
}

// ContentHash computes the SHA-256 hash of normalized text content.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(sum[:])
}

// Fingerprint creates a stable identity hash for an issue, used to match
// the same defect across independent scan runs. Two issues with the same
// page, category, type and normalized evidence prefix share a fingerprint
// even when confidence or explanation wording differ.
func Fingerprint(pageURL, category, issueType, evidence, ruleID string) string {
	parts := []string{
		NormalizeURL(pageURL),
		strings.ToLower(category),
		strings.ToLower(issueType),
		truncateRunes(NormalizeText(evidence), fingerprintEvidenceLen),
	}
	if ruleID != "" {
		parts = append(parts, ruleID)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
