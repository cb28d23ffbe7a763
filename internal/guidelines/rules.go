package guidelines

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/llm"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/prompts"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/schemas"
)

const (
	// PromptVersion tags rules with the prompt wording that produced them,
	// so a prompt change can trigger re-extraction.
	PromptVersion = "rule_extraction_v1"
	// MinGuidelineChars is the minimum combined text worth sending to the
	// model. Below that there is nothing to extract rules from.
	MinGuidelineChars = 50
	// MaxGuidelineChars caps the text included in the extraction prompt.
	MaxGuidelineChars = 30000
)

// ExtractedRules is the result of one LLM extraction pass.
type ExtractedRules struct {
	Rules         []db.GuidelineRuleInput
	PromptVersion string
	ModelUsed     string
}

// ExtractRules asks the model for structured rules from combined guideline
// text. Text below the minimum yields an empty result rather than an
// error: the version still gets created and rules can be re-extracted
// from the stored source files later.
func ExtractRules(ctx context.Context, client llm.Client, guidelinesText string) (*ExtractedRules, error) {
	result := &ExtractedRules{
		PromptVersion: PromptVersion,
		ModelUsed:     client.GetModel(llm.TierStandard),
	}
	if len(strings.TrimSpace(guidelinesText)) < MinGuidelineChars {
		return result, nil
	}

	if runes := []rune(guidelinesText); len(runes) > MaxGuidelineChars {
		guidelinesText = string(runes[:MaxGuidelineChars]) + "\n\n[... truncated ...]"
	}

	template := prompts.MustGet("guidelines.json", "extract-rules")
	prompt := prompts.Format(template, map[string]string{
		"GuidelinesText": guidelinesText,
	})

	raw, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &ExtractionError{Message: "rule extraction request failed", Cause: err}
	}

	rules, err := ParseRules(raw)
	if err != nil {
		return nil, err
	}
	result.Rules = rules
	return result, nil
}

// rawRule mirrors the response contract of the extract-rules prompt.
type rawRule struct {
	RuleID      string   `json:"rule_id"`
	Category    string   `json:"category"`
	Severity    string   `json:"severity"`
	RuleText    string   `json:"rule_text"`
	FixTemplate string   `json:"fix_template"`
	Examples    []string `json:"examples"`
	SourceFile  string   `json:"source_file"`
	Section     string   `json:"section"`
}

// ParseRules validates and normalizes a model response. Both response
// shapes are accepted: a bare JSON array of rules or {"rules": [...]}.
// Rules with no usable id or text are dropped; a repeated rule id keeps
// its first occurrence.
func ParseRules(response string) ([]db.GuidelineRuleInput, error) {
	cleaned := llm.CleanJSONBlock(response)
	if err := schemas.ValidateResponse(schemas.LLMRules, cleaned); err != nil {
		return nil, &ExtractionError{Message: "model returned invalid rules", Cause: err}
	}

	var raw []rawRule
	trimmed := strings.TrimSpace(cleaned)
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, &ExtractionError{Message: "failed to unmarshal rules array", Cause: err}
		}
	} else {
		var wrapper struct {
			Rules []rawRule `json:"rules"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
			return nil, &ExtractionError{Message: "failed to unmarshal rules object", Cause: err}
		}
		raw = wrapper.Rules
	}

	rules := make([]db.GuidelineRuleInput, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		rule, ok := normalizeRule(r)
		if !ok || seen[rule.RuleID] {
			continue
		}
		seen[rule.RuleID] = true
		rules = append(rules, rule)
	}
	return rules, nil
}

// normalizeRule cleans one raw rule. Models sometimes echo the id in
// brackets ("[STYLE-001]") and invent severity words; both are repaired
// here rather than rejected.
func normalizeRule(r rawRule) (db.GuidelineRuleInput, bool) {
	ruleID := strings.Trim(strings.TrimSpace(r.RuleID), "[] \t\n")
	ruleText := strings.TrimSpace(r.RuleText)
	if ruleID == "" || ruleText == "" {
		return db.GuidelineRuleInput{}, false
	}

	category := strings.ToLower(strings.TrimSpace(r.Category))
	if category == "" {
		category = "content"
	}

	severity := strings.ToLower(strings.TrimSpace(r.Severity))
	switch severity {
	case "high", "medium", "low":
	default:
		severity = "medium"
	}

	var examples []string
	for _, ex := range r.Examples {
		if ex = strings.TrimSpace(ex); ex != "" {
			examples = append(examples, ex)
		}
	}

	return db.GuidelineRuleInput{
		RuleID:      ruleID,
		Category:    category,
		RuleText:    ruleText,
		Severity:    severity,
		Examples:    examples,
		FixTemplate: strings.TrimSpace(r.FixTemplate),
		SourceFile:  strings.TrimSpace(r.SourceFile),
		Section:     strings.TrimSpace(r.Section),
	}, true
}
