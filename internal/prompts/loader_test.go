package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownPrompts(t *testing.T) {
	for _, key := range []string{"system", "generate-outline", "verify-outline", "improve-outline"} {
		prompt, err := Get("outline.json", key)
		require.NoError(t, err, "outline.json/%s", key)
		assert.NotEmpty(t, prompt)
	}
	for _, key := range []string{"system", "generate-section", "verify-section", "improve-section", "continuity-summary", "verify-review", "improve-review"} {
		prompt, err := Get("script.json", key)
		require.NoError(t, err, "script.json/%s", key)
		assert.NotEmpty(t, prompt)
	}
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("script.json", "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGet_UnknownFile(t *testing.T) {
	_, err := Get("missing.json", "system")
	assert.Error(t, err)
}

func TestMustGet_PanicsOnMissing(t *testing.T) {
	assert.Panics(t, func() { MustGet("script.json", "nope") })
	assert.NotPanics(t, func() { MustGet("script.json", "system") })
}

func TestFormat(t *testing.T) {
	template := "Write section {{.Number}} titled {{.Title}} in {{.Number}} parts."
	result := Format(template, map[string]string{"Number": "3", "Title": "History"})
	assert.Equal(t, "Write section 3 titled History in 3 parts.", result)
}

func TestFormat_MissingKeysLeftIntact(t *testing.T) {
	result := Format("Keep {{.Unknown}} as-is", map[string]string{"Other": "x"})
	assert.Equal(t, "Keep {{.Unknown}} as-is", result)
}

func TestFormat_EmptyData(t *testing.T) {
	assert.Equal(t, "plain text", Format("plain text", nil))
}
