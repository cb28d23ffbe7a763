// Package rag matches page content against guideline rules. Rules are
// embedded once per version; at validation time each content chunk is
// embedded and the nearest rules are pulled back out of pgvector to focus
// the model on the guidelines that actually apply.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/llm"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/prompts"
)

const (
	// DefaultTopN rules accompany each validated chunk.
	DefaultTopN = 5
	// FallbackRuleCount caps the rules sent when no embeddings exist.
	FallbackRuleCount = 20
	// maxEmbedChars keeps embedding inputs inside the model's token budget.
	maxEmbedChars = 8000
	// embedBatchSize is the per-request cap for batch embedding.
	embedBatchSize = 100
)

// Retriever embeds and retrieves guideline rules for a version.
type Retriever struct {
	DB *db.DB
	// LLM supplies embeddings. Nil forces the first-rules fallback.
	LLM  llm.Client
	TopN int
}

// NewRetriever wires a retriever with the default result count.
func NewRetriever(database *db.DB, client llm.Client) *Retriever {
	return &Retriever{DB: database, LLM: client, TopN: DefaultTopN}
}

// EmbeddingText is the text surface embedded for one rule: the rule text
// plus its fix template and examples, so a chunk matching an example still
// retrieves the rule.
func EmbeddingText(rule db.GuidelineRule) string {
	parts := []string{rule.RuleText}
	if rule.FixTemplate != "" {
		parts = append(parts, rule.FixTemplate)
	}
	parts = append(parts, rule.Examples...)
	return truncateChars(strings.TrimSpace(strings.Join(parts, " ")), maxEmbedChars)
}

// IndexVersion embeds every rule of a guideline version and stores the
// vectors. Returns the number of rules indexed. Re-indexing overwrites
// the previous vectors, so prompt or model changes are safe to re-run.
func (r *Retriever) IndexVersion(ctx context.Context, versionID int64) (int, error) {
	rules, err := r.DB.ListGuidelineRules(ctx, versionID)
	if err != nil {
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}

	indexed := 0
	for start := 0; start < len(rules); start += embedBatchSize {
		end := min(start+embedBatchSize, len(rules))
		batch := rules[start:end]

		texts := make([]string, len(batch))
		for i, rule := range batch {
			texts[i] = EmbeddingText(rule)
		}
		vectors, err := r.LLM.EmbedBatch(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("failed to embed rules %d-%d: %w", start, end-1, err)
		}
		for i, vec := range vectors {
			if err := r.DB.UpdateRuleEmbedding(ctx, batch[i].ID, vec); err != nil {
				return indexed, err
			}
			indexed++
		}
	}
	return indexed, nil
}

// Relevant returns the rules most similar to the content chunk. When
// retrieval cannot run (no client, embedding failure, no stored vectors)
// it degrades to the version's first rules instead of validating with no
// guidelines at all.
func (r *Retriever) Relevant(ctx context.Context, versionID int64, content string) ([]db.GuidelineRule, error) {
	topN := r.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	if r.LLM != nil {
		embedding, err := r.LLM.Embed(ctx, truncateChars(content, maxEmbedChars))
		if err == nil {
			matches, err := r.DB.SimilarGuidelineRules(ctx, versionID, embedding, topN)
			if err != nil {
				return nil, err
			}
			if len(matches) > 0 {
				rules := make([]db.GuidelineRule, len(matches))
				for i, m := range matches {
					rules[i] = m.Rule
				}
				return rules, nil
			}
		}
	}
	return r.fallbackRules(ctx, versionID)
}

func (r *Retriever) fallbackRules(ctx context.Context, versionID int64) ([]db.GuidelineRule, error) {
	rules, err := r.DB.ListGuidelineRules(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if len(rules) > FallbackRuleCount {
		rules = rules[:FallbackRuleCount]
	}
	return rules, nil
}

// RulesContext renders rules for inclusion in a validation prompt. Empty
// input produces an empty context, not a bare header.
func RulesContext(rules []db.GuidelineRule) string {
	if len(rules) == 0 {
		return ""
	}
	lines := make([]string, len(rules))
	for i, rule := range rules {
		lines[i] = fmt.Sprintf("- [%s] %s", rule.RuleID, rule.RuleText)
	}
	template := prompts.MustGet("validation.json", "rules-context")
	return prompts.Format(template, map[string]string{
		"Rules": strings.Join(lines, "\n"),
	})
}

func truncateChars(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
