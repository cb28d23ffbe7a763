package validators

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/issues"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/llm"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/prompts"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/rag"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/schemas"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/scraping"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

const (
	// MinChunkChars is the shortest chunk worth sending to the model.
	MinChunkChars = 20
	// maxChunkChars caps the content included in one validation prompt.
	maxChunkChars = 3000
	// defaultConfidence is assumed when the model omits a confidence.
	defaultConfidence = 0.65
	// ruleCitationBoost is added when a finding cites a guideline rule,
	// capped at ruleCitationCap.
	ruleCitationBoost = 0.1
	ruleCitationCap   = 0.85
)

// RuleSource supplies the guideline rules relevant to a content chunk.
// *rag.Retriever implements it.
type RuleSource interface {
	Relevant(ctx context.Context, versionID int64, content string) ([]db.GuidelineRule, error)
}

// LLMValidator checks page content chunk by chunk with a model call,
// feeding retrieved guideline rules into each prompt.
type LLMValidator struct {
	Client llm.Client
	// Rules supplies guideline context. Nil, or a zero VersionID,
	// validates against general writing quality only.
	Rules     RuleSource
	VersionID int64
	Tier      llm.ModelTier
	Verbose   bool
}

// NewLLMValidator wires a validator on the standard tier.
func NewLLMValidator(client llm.Client, rules RuleSource, versionID int64) *LLMValidator {
	return &LLMValidator{Client: client, Rules: rules, VersionID: versionID, Tier: llm.TierStandard}
}

// ValidateChunks validates every chunk of a page. Individual chunk
// failures are logged and skipped; an error comes back only when the
// context is cancelled or every eligible chunk failed.
func (v *LLMValidator) ValidateChunks(ctx context.Context, pageURL string, chunks []scraping.Chunk) ([]types.RawFinding, error) {
	var findings []types.RawFinding
	eligible, failed := 0, 0
	var lastErr error

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		content := strings.TrimSpace(chunk.Content)
		if len([]rune(content)) < MinChunkChars {
			continue
		}
		eligible++

		chunkFindings, err := v.validateChunk(ctx, chunk.HeadingPath, content)
		if err != nil {
			failed++
			lastErr = err
			v.logf("chunk validation failed for %s: %v", pageURL, err)
			continue
		}
		findings = append(findings, chunkFindings...)
	}

	if eligible > 0 && failed == eligible {
		return nil, fmt.Errorf("all %d chunk validations failed for %s: %w", eligible, pageURL, lastErr)
	}
	return findings, nil
}

func (v *LLMValidator) validateChunk(ctx context.Context, headingPath, content string) ([]types.RawFinding, error) {
	rulesContext := ""
	if v.Rules != nil && v.VersionID > 0 {
		rules, err := v.Rules.Relevant(ctx, v.VersionID, content)
		if err != nil {
			v.logf("rule retrieval failed: %v", err)
		} else {
			rulesContext = rag.RulesContext(rules)
		}
	}

	heading := headingPath
	if heading == "" {
		heading = "(root)"
	}
	prompt := prompts.Format(prompts.MustGet("validation.json", "page-issues"), map[string]string{
		"RulesContext": rulesContext,
		"HeadingPath":  heading,
		"Content":      truncateChars(content, maxChunkChars),
	})

	tier := v.Tier
	if tier == "" {
		tier = llm.TierStandard
	}
	response, err := v.Client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to validate chunk: %w", err)
	}
	return ParseFindings(response)
}

// ParseFindings decodes and schema-checks a model validation response.
func ParseFindings(response string) ([]types.RawFinding, error) {
	cleaned := llm.CleanJSONBlock(response)
	if err := schemas.ValidateResponse(schemas.LLMIssues, cleaned); err != nil {
		return nil, &ResponseError{Message: "model returned invalid issues", Cause: err}
	}

	var payload struct {
		Issues []modelIssue `json:"issues"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, &ResponseError{Message: "failed to decode issues", Cause: err}
	}

	findings := make([]types.RawFinding, 0, len(payload.Issues))
	for _, issue := range payload.Issues {
		findings = append(findings, issue.finding())
	}
	return findings, nil
}

// modelIssue mirrors one entry of the model's issues array. Confidence is
// a pointer so an omitted value gets the default instead of zero.
type modelIssue struct {
	Category        string   `json:"category"`
	Type            string   `json:"type"`
	Severity        string   `json:"severity"`
	Evidence        string   `json:"evidence"`
	Explanation     string   `json:"explanation"`
	ProposedFix     string   `json:"proposed_fix"`
	GuidelineRuleID string   `json:"guideline_rule_id"`
	Confidence      *float64 `json:"confidence"`
}

func (m modelIssue) finding() types.RawFinding {
	confidence := defaultConfidence
	if m.Confidence != nil {
		confidence = *m.Confidence
	}
	ruleID := issues.CleanRuleID(m.GuidelineRuleID)
	if ruleID != "" {
		confidence = math.Min(confidence+ruleCitationBoost, ruleCitationCap)
	}
	return types.RawFinding{
		Category:    m.Category,
		Type:        m.Type,
		Severity:    m.Severity,
		Evidence:    m.Evidence,
		Explanation: m.Explanation,
		ProposedFix: m.ProposedFix,
		RuleID:      ruleID,
		Source:      types.SourceLLM,
		Confidence:  confidence,
	}
}

func (v *LLMValidator) logf(format string, args ...any) {
	if v.Verbose {
		log.Printf("[VALIDATOR] "+format, args...)
	}
}

func truncateChars(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
