package guidelines

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/llm"
)

// fakeLLM satisfies llm.Client with a canned response and records the
// prompt it was called with.
type fakeLLM struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompt = prompt
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompt = prompt
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embeddings not supported by fake")
}

func (f *fakeLLM) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("embeddings not supported by fake")
}

func (f *fakeLLM) GetModel(_ llm.ModelTier) string { return "fake-model" }

func (f *fakeLLM) Close() error { return nil }

func TestParseRules_BareArray(t *testing.T) {
	response := `[
		{"rule_id": "[STYLE-001]", "category": "Style", "severity": "HIGH", "rule_text": "Use active voice.", "fix_template": "Rewrite as subject-verb-object.", "examples": [" We ship weekly. ", ""], "source_file": "voice.pdf", "section": "2.1"},
		{"rule_id": "TONE-002", "rule_text": "Avoid slang."}
	]`

	rules, err := ParseRules(response)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	first := rules[0]
	assert.Equal(t, "STYLE-001", first.RuleID, "bracket wrapping is stripped")
	assert.Equal(t, "style", first.Category)
	assert.Equal(t, "high", first.Severity)
	assert.Equal(t, "Use active voice.", first.RuleText)
	assert.Equal(t, "Rewrite as subject-verb-object.", first.FixTemplate)
	assert.Equal(t, []string{"We ship weekly."}, first.Examples, "examples are trimmed and empties dropped")
	assert.Equal(t, "voice.pdf", first.SourceFile)
	assert.Equal(t, "2.1", first.Section)

	second := rules[1]
	assert.Equal(t, "content", second.Category, "missing category defaults")
	assert.Equal(t, "medium", second.Severity, "missing severity defaults")
}

func TestParseRules_WrappedObject(t *testing.T) {
	response := `{"rules": [{"rule_id": "GRAMMAR-001", "rule_text": "No comma splices."}]}`

	rules, err := ParseRules(response)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "GRAMMAR-001", rules[0].RuleID)
}

func TestParseRules_MarkdownFences(t *testing.T) {
	response := "Here are the extracted rules:\n```json\n[{\"rule_id\": \"FMT-001\", \"rule_text\": \"One idea per sentence.\"}]\n```"

	rules, err := ParseRules(response)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "FMT-001", rules[0].RuleID)
}

func TestParseRules_UnknownSeverityDefaults(t *testing.T) {
	response := `[{"rule_id": "R-1", "rule_text": "Something.", "severity": "critical"}]`

	rules, err := ParseRules(response)
	require.NoError(t, err)
	assert.Equal(t, "medium", rules[0].Severity)
}

func TestParseRules_SkipsWhitespaceOnlyText(t *testing.T) {
	response := `[
		{"rule_id": "R-1", "rule_text": "   "},
		{"rule_id": "R-2", "rule_text": "Real rule."}
	]`

	rules, err := ParseRules(response)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "R-2", rules[0].RuleID)
}

func TestParseRules_DuplicateIDsKeepFirst(t *testing.T) {
	response := `[
		{"rule_id": "R-1", "rule_text": "First wording."},
		{"rule_id": "R-1", "rule_text": "Second wording."}
	]`

	rules, err := ParseRules(response)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "First wording.", rules[0].RuleText)
}

func TestParseRules_SchemaRejectsMissingID(t *testing.T) {
	response := `[{"category": "style", "rule_text": "A rule with no id."}]`

	_, err := ParseRules(response)
	require.Error(t, err)
	var extractErr *ExtractionError
	assert.ErrorAs(t, err, &extractErr)
}

func TestParseRules_NotJSON(t *testing.T) {
	_, err := ParseRules("I could not find any rules in the text.")
	require.Error(t, err)
}

func TestExtractRules_ShortTextSkipsModel(t *testing.T) {
	fake := &fakeLLM{response: `[]`}

	result, err := ExtractRules(context.Background(), fake, "too short")
	require.NoError(t, err)

	assert.Empty(t, result.Rules)
	assert.Equal(t, PromptVersion, result.PromptVersion)
	assert.Equal(t, "fake-model", result.ModelUsed)
	assert.Zero(t, fake.calls, "no model call for text below the minimum")
}

func TestExtractRules_PromptCarriesText(t *testing.T) {
	fake := &fakeLLM{response: `[{"rule_id": "R-1", "rule_text": "Found it."}]`}
	text := "=== style.txt ===\n" + strings.Repeat("Keep sentences short. ", 10)

	result, err := ExtractRules(context.Background(), fake, text)
	require.NoError(t, err)

	require.Len(t, result.Rules, 1)
	assert.Equal(t, 1, fake.calls)
	assert.Contains(t, fake.prompt, "=== style.txt ===")
	assert.Contains(t, fake.prompt, "content compliance rules extraction")
}

func TestExtractRules_TruncatesLongText(t *testing.T) {
	fake := &fakeLLM{response: `[]`}
	text := strings.Repeat("a", MaxGuidelineChars) + "TAIL-SENTINEL"

	_, err := ExtractRules(context.Background(), fake, text)
	require.NoError(t, err)

	assert.Contains(t, fake.prompt, "[... truncated ...]")
	assert.NotContains(t, fake.prompt, "TAIL-SENTINEL")
}

func TestExtractRules_ModelError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("rate limited")}
	text := strings.Repeat("Plenty of guideline text here. ", 5)

	_, err := ExtractRules(context.Background(), fake, text)
	require.Error(t, err)
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.ErrorContains(t, err, "rate limited")
}
