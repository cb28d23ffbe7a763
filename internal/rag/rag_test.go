package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
)

func TestEmbeddingText_CombinesRuleFields(t *testing.T) {
	rule := db.GuidelineRule{
		RuleID:      "TONE-001",
		RuleText:    "Use a friendly, conversational tone.",
		FixTemplate: "Rewrite formal phrasing in plain language.",
		Examples:    []string{"Good: We're here to help.", "Bad: Assistance may be requested."},
	}

	text := EmbeddingText(rule)

	assert.Contains(t, text, "Use a friendly, conversational tone.")
	assert.Contains(t, text, "Rewrite formal phrasing in plain language.")
	assert.Contains(t, text, "We're here to help.")
	assert.Contains(t, text, "Assistance may be requested.")
}

func TestEmbeddingText_RuleTextOnly(t *testing.T) {
	rule := db.GuidelineRule{
		RuleID:   "SPELL-001",
		RuleText: "Use American English spelling.",
	}

	assert.Equal(t, "Use American English spelling.", EmbeddingText(rule))
}

func TestEmbeddingText_TruncatesLongRules(t *testing.T) {
	rule := db.GuidelineRule{
		RuleID:   "LONG-001",
		RuleText: strings.Repeat("é", maxEmbedChars+500),
	}

	text := EmbeddingText(rule)

	assert.Equal(t, maxEmbedChars, len([]rune(text)))
}

func TestRulesContext_FormatsRuleLines(t *testing.T) {
	rules := []db.GuidelineRule{
		{RuleID: "TONE-001", RuleText: "Use a friendly, conversational tone."},
		{RuleID: "LINK-002", RuleText: "Link text must describe the destination."},
	}

	context := RulesContext(rules)

	require.True(t, strings.HasPrefix(context, "Apply these specific guideline rules where applicable:\n"),
		"context should open with the rules header, got: %q", context)
	assert.Contains(t, context, "- [TONE-001] Use a friendly, conversational tone.")
	assert.Contains(t, context, "- [LINK-002] Link text must describe the destination.")

	// Rules appear in retrieval order.
	toneIdx := strings.Index(context, "TONE-001")
	linkIdx := strings.Index(context, "LINK-002")
	assert.Less(t, toneIdx, linkIdx)
}

func TestRulesContext_EmptyRules(t *testing.T) {
	assert.Equal(t, "", RulesContext(nil))
	assert.Equal(t, "", RulesContext([]db.GuidelineRule{}))
}

func TestTruncateChars(t *testing.T) {
	assert.Equal(t, "abc", truncateChars("abc", 10))
	assert.Equal(t, "ab", truncateChars("abcd", 2))
	assert.Equal(t, "héllo", truncateChars("héllo", 5))
	assert.Equal(t, "hé", truncateChars("héllo", 2))
}
