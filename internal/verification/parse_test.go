package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/podcast-scripter/internal/types"
)

func TestParse_StrictJSON(t *testing.T) {
	text := `{
		"isValid": false,
		"issues": [
			{"severity": "critical", "category": "format", "description": "missing speaker labels"},
			{"severity": "minor", "description": "slightly short"}
		],
		"summary": "needs work"
	}`

	result := Parse(text)
	require.NotNil(t, result)
	assert.False(t, result.IsValid)
	assert.False(t, result.Fallback)
	require.Len(t, result.Issues, 2)
	assert.Equal(t, types.SeverityCritical, result.Issues[0].Severity)
	assert.Equal(t, "needs work", result.Summary)
}

func TestParse_MarkdownFenceStripped(t *testing.T) {
	text := "```json\n{\"isValid\": true, \"issues\": [], \"summary\": \"all good\"}\n```"

	result := Parse(text)
	assert.True(t, result.IsValid)
	assert.False(t, result.Fallback)
	assert.NotNil(t, result.Issues)
	assert.Empty(t, result.Issues)
}

func TestParse_FeedbackFieldAccepted(t *testing.T) {
	result := Parse(`{"isValid": true, "feedback": "solid draft"}`)
	assert.True(t, result.IsValid)
	assert.Equal(t, "solid draft", result.Summary)
}

func TestParse_JSONEmbeddedInProse(t *testing.T) {
	text := `Here is my assessment of the draft:

{"isValid": false, "issues": [{"severity": "major", "description": "section repeats the intro"}], "summary": "one repeat"}

Let me know if you need more detail.`

	result := Parse(text)
	assert.False(t, result.IsValid)
	assert.True(t, result.Fallback)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, types.SeverityMajor, result.Issues[0].Severity)
}

func TestParse_UnknownSeverityNormalized(t *testing.T) {
	result := Parse(`{"isValid": false, "issues": [{"severity": "catastrophic", "description": "x"}]}`)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, types.SeverityUnknown, result.Issues[0].Severity)
}

func TestParse_PositiveKeywordHeuristic(t *testing.T) {
	result := Parse("The script looks good overall, nice pacing between the hosts.")
	assert.True(t, result.IsValid)
	assert.True(t, result.Fallback)
	assert.Nil(t, result.Issues)
}

func TestParse_FreeformCriticismBecomesOneIssue(t *testing.T) {
	result := Parse("The second half drags and the hosts keep repeating the same statistic.")
	assert.False(t, result.IsValid)
	assert.True(t, result.Fallback)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, types.SeverityUnknown, result.Issues[0].Severity)
	assert.Equal(t, "freeform", result.Issues[0].Category)
}

func TestParse_EmptyInputFailsOpen(t *testing.T) {
	result := Parse("   ")
	assert.True(t, result.IsValid)
	assert.True(t, result.Fallback)
	assert.Contains(t, result.Summary, "unusable")
}

func TestParse_MalformedJSONFallsThrough(t *testing.T) {
	// Unbalanced braces defeat both decoders; the prose heuristic takes
	// over and reads it as criticism.
	result := Parse(`{"isValid": false, "issues": [`)
	assert.NotNil(t, result)
	assert.True(t, result.Fallback)
}

func TestParse_MissingIsValidRejectedByStrictDecode(t *testing.T) {
	// Schema requires isValid; without it the decoder must not fabricate
	// a structured result.
	result := Parse(`{"summary": "no verdict"}`)
	assert.True(t, result.Fallback)
}

func TestExtractJSONBlock(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, ExtractJSONBlock(`prefix {"a": 1} suffix`))
	assert.Equal(t, `{"a": {"b": 2}}`, ExtractJSONBlock(`{"a": {"b": 2}}`))
	assert.Equal(t, "", ExtractJSONBlock("no json here"))
	assert.Equal(t, "", ExtractJSONBlock(`{"unterminated": `))

	// Braces inside string literals must not affect depth tracking.
	assert.Equal(t, `{"text": "a } b"}`, ExtractJSONBlock(`{"text": "a } b"} tail`))
	assert.Equal(t, `{"esc": "quote \" and } brace"}`, ExtractJSONBlock(`{"esc": "quote \" and } brace"}`))
}
