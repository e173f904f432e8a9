package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContinuityContext_AppendDedupesTopics(t *testing.T) {
	c := &ContinuityContext{}

	c.Append(Section{Number: "1", Title: "Intro"}, "opened the show", []string{"solar power", "grid storage"})
	c.Append(Section{Number: "2", Title: "Main"}, "went deep", []string{"Grid Storage", "policy", "  solar power "})

	require.Len(t, c.Covered, 2)
	assert.Equal(t, []string{"solar power", "grid storage"}, c.Covered[0].Topics)
	// Case-insensitive repeats are dropped; order of fresh topics is kept.
	assert.Equal(t, []string{"policy"}, c.Covered[1].Topics)
}

func TestContinuityContext_AppendSkipsBlankTopics(t *testing.T) {
	c := &ContinuityContext{}
	c.Append(Section{Number: "1"}, "s", []string{"", "   ", "real"})
	assert.Equal(t, []string{"real"}, c.Covered[0].Topics)
}

func TestContinuityContext_Empty(t *testing.T) {
	c := &ContinuityContext{}
	assert.True(t, c.Empty())
	assert.Equal(t, "", c.PromptBlock())

	c.Append(Section{Number: "1", Title: "Intro"}, "opened", nil)
	assert.False(t, c.Empty())
}

func TestContinuityContext_PromptBlock(t *testing.T) {
	c := &ContinuityContext{}
	c.Append(Section{Number: "1", Title: "Intro"}, "set the stage", []string{"history"})
	c.Append(Section{Number: "2", Title: "Main"}, "core argument", []string{"economics"})

	block := c.PromptBlock()
	assert.Contains(t, block, "Previously in this episode:")
	assert.Contains(t, block, "- 1 Intro: set the stage")
	assert.Contains(t, block, "- 2 Main: core argument")
	assert.Contains(t, block, "Topics already covered (do not repeat): history; economics")
}

func TestSection_IsChildOf(t *testing.T) {
	child := Section{Number: "1.2.1"}
	assert.True(t, child.IsChildOf("1.2"))
	assert.True(t, child.IsChildOf("1"))
	assert.False(t, child.IsChildOf("1.2.1"))
	assert.False(t, Section{Number: "12"}.IsChildOf("1"))
}

func TestSection_Label(t *testing.T) {
	assert.Equal(t, "1.2 Deep dive", Section{Number: "1.2", Title: "Deep dive"}.Label())
}

func TestTotalDuration(t *testing.T) {
	sections := []Section{
		{DurationMinutes: 2.5},
		{DurationMinutes: 5},
	}
	assert.Equal(t, 7.5, TotalDuration(sections))
	assert.Zero(t, TotalDuration(nil))
}
