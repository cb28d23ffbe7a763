package validators

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// DefaultBannedPhrases are non-descriptive link phrases flagged in any
// content, regardless of guidelines.
var DefaultBannedPhrases = []string{
	"click here",
	"read more",
	"learn more here",
	"click this link",
}

const (
	readingLevelMinWords = 50
	readingLevelMaxGrade = 12.0
)

var (
	nonLetterRe   = regexp.MustCompile(`[^A-Za-z]`)
	doubleSpaceRe = regexp.MustCompile(`[^ \n]  +[^ \n]`)

	punctuationChecks = []struct {
		re   *regexp.Regexp
		desc string
	}{
		{regexp.MustCompile(`!{2,}`), "Multiple exclamation marks"},
		{regexp.MustCompile(`\?{2,}`), "Multiple question marks"},
		{regexp.MustCompile(`\.{4,}`), "Excessive periods (not an ellipsis)"},
		{regexp.MustCompile(`,{2,}`), "Multiple consecutive commas"},
	}
)

// Deterministic runs fast, cheap, high-confidence text checks: banned
// phrases, repeated punctuation, ALL-CAPS streaks, whitespace anomalies
// and reading level.
type Deterministic struct {
	bannedPhrases []string
}

// NewDeterministic builds a validator with the default banned phrases
// plus any extras, typically derived from guideline rules. Phrases match
// case-insensitively.
func NewDeterministic(extraBannedPhrases ...string) *Deterministic {
	phrases := make([]string, 0, len(DefaultBannedPhrases)+len(extraBannedPhrases))
	phrases = append(phrases, DefaultBannedPhrases...)
	for _, p := range extraBannedPhrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	return &Deterministic{bannedPhrases: phrases}
}

// Validate runs every deterministic check on one text chunk. The heading
// path only labels the reading-level evidence.
func (d *Deterministic) Validate(text, headingPath string) []types.RawFinding {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var findings []types.RawFinding
	findings = append(findings, d.checkBannedPhrases(text)...)
	findings = append(findings, checkRepeatedPunctuation(text)...)
	findings = append(findings, checkAllCaps(text)...)
	findings = append(findings, checkWhitespace(text)...)
	findings = append(findings, checkReadingLevel(text, headingPath)...)
	return findings
}

func (d *Deterministic) checkBannedPhrases(text string) []types.RawFinding {
	var findings []types.RawFinding
	lower := strings.ToLower(text)
	for _, phrase := range d.bannedPhrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		evidence := contextSnippet(text, idx-30, idx+len(phrase)+30)
		findings = append(findings, types.RawFinding{
			Category:    types.CategoryLinkText,
			Type:        "banned_phrase",
			Severity:    string(types.SeverityMedium),
			Evidence:    "..." + evidence + "...",
			Explanation: fmt.Sprintf("The phrase %q is non-descriptive and should be replaced with meaningful text.", phrase),
			ProposedFix: fmt.Sprintf("Replace %q with a descriptive action or destination.", phrase),
			Source:      types.SourceDeterministic,
			Confidence:  0.90,
		})
	}
	return findings
}

func checkRepeatedPunctuation(text string) []types.RawFinding {
	var findings []types.RawFinding
	for _, check := range punctuationChecks {
		for _, loc := range check.re.FindAllStringIndex(text, -1) {
			evidence := contextSnippet(text, loc[0]-20, loc[1]+20)
			findings = append(findings, types.RawFinding{
				Category:    types.CategoryFormatting,
				Type:        "repeated_punctuation",
				Severity:    string(types.SeverityLow),
				Evidence:    "..." + evidence + "...",
				Explanation: check.desc + " detected.",
				ProposedFix: "Use standard punctuation.",
				Source:      types.SourceDeterministic,
				Confidence:  0.95,
			})
		}
	}
	return findings
}

// checkAllCaps flags streaks of three or more shouted words. Words of up
// to three letters are ignored so acronyms like USA or FBI pass.
func checkAllCaps(text string) []types.RawFinding {
	var findings []types.RawFinding
	var streak []string
	flush := func() {
		if len(streak) >= 3 {
			findings = append(findings, types.RawFinding{
				Category:    types.CategoryFormatting,
				Type:        "all_caps_abuse",
				Severity:    string(types.SeverityMedium),
				Evidence:    strings.Join(streak, " "),
				Explanation: "Excessive use of ALL CAPS can feel like shouting and reduces readability.",
				ProposedFix: "Use title case or sentence case instead.",
				Source:      types.SourceDeterministic,
				Confidence:  0.85,
			})
		}
		streak = streak[:0]
	}
	for _, word := range strings.Fields(text) {
		clean := nonLetterRe.ReplaceAllString(word, "")
		if len(clean) > 3 && clean == strings.ToUpper(clean) {
			streak = append(streak, word)
			continue
		}
		flush()
	}
	flush()
	return findings
}

func checkWhitespace(text string) []types.RawFinding {
	hits := doubleSpaceRe.FindAllStringIndex(text, -1)
	if len(hits) <= 2 {
		return nil
	}
	return []types.RawFinding{{
		Category:    types.CategoryFormatting,
		Type:        "whitespace_anomaly",
		Severity:    string(types.SeverityLow),
		Evidence:    fmt.Sprintf("Found %d instances of multiple consecutive spaces", len(hits)),
		Explanation: "Multiple consecutive spaces may indicate copy-paste issues or formatting problems.",
		ProposedFix: "Replace multiple spaces with single spaces.",
		Source:      types.SourceDeterministic,
		Confidence:  0.80,
	}}
}

func checkReadingLevel(text, headingPath string) []types.RawFinding {
	if len(strings.Fields(text)) < readingLevelMinWords {
		return nil
	}
	grade := FleschKincaidGrade(text)
	if grade <= readingLevelMaxGrade {
		return nil
	}
	section := headingPath
	if section == "" {
		section = "page"
	}
	return []types.RawFinding{{
		Category:    types.CategoryReadability,
		Type:        "reading_level",
		Severity:    string(types.SeverityMedium),
		Evidence:    fmt.Sprintf("Flesch-Kincaid Grade Level: %.1f (section: %s)", grade, section),
		Explanation: fmt.Sprintf("Content reads at a grade %.1f level. Web content should target grade 8-10 for maximum accessibility.", grade),
		ProposedFix: "Simplify sentence structure and use shorter, more common words.",
		Source:      types.SourceDeterministic,
		Confidence:  0.80,
	}}
}

var quotedPhraseRe = regexp.MustCompile(`"([^"]{2,40})"`)

// BannedPhrasesFromRules pulls extra banned phrases out of guideline
// rules: any phrase quoted inside a link_text rule, or inside a rule
// whose text talks about banned or avoided wording.
func BannedPhrasesFromRules(rules []db.GuidelineRule) []string {
	var phrases []string
	seen := make(map[string]bool)
	for _, rule := range rules {
		lowerText := strings.ToLower(rule.RuleText)
		if rule.Category != types.CategoryLinkText &&
			!strings.Contains(lowerText, "banned") &&
			!strings.Contains(lowerText, "never use") &&
			!strings.Contains(lowerText, "avoid the phrase") {
			continue
		}
		for _, m := range quotedPhraseRe.FindAllStringSubmatch(rule.RuleText, -1) {
			phrase := strings.ToLower(strings.TrimSpace(m[1]))
			if phrase == "" || seen[phrase] {
				continue
			}
			seen[phrase] = true
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

// contextSnippet slices [start, end) out of text, clamped to the text
// bounds and adjusted to rune boundaries.
func contextSnippet(text string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return text[start:end]
}
