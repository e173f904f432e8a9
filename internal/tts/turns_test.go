package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTurns_AlternatingHosts(t *testing.T) {
	script := `Alex: Welcome back to the show.
Sam: Great to be here.
Alex: Let's get started.`

	turns := SplitTurns(script, "Alex", "Sam")
	require.Len(t, turns, 3)
	assert.Equal(t, Turn{Speaker: "Alex", Text: "Welcome back to the show."}, turns[0])
	assert.Equal(t, Turn{Speaker: "Sam", Text: "Great to be here."}, turns[1])
	assert.Equal(t, Turn{Speaker: "Alex", Text: "Let's get started."}, turns[2])
}

func TestSplitTurns_ContinuationLinesExtendTurn(t *testing.T) {
	script := `Alex: This is a long thought
that wraps onto a second line.
Sam: Noted.`

	turns := SplitTurns(script, "Alex", "Sam")
	require.Len(t, turns, 2)
	assert.Equal(t, "This is a long thought that wraps onto a second line.", turns[0].Text)
}

func TestSplitTurns_ConsecutiveSameSpeakerMerged(t *testing.T) {
	script := `Alex: First line.
Alex: Second line.`

	turns := SplitTurns(script, "Alex", "Sam")
	require.Len(t, turns, 1)
	assert.Equal(t, "First line. Second line.", turns[0].Text)
}

func TestSplitTurns_LeadingStageDirectionsDropped(t *testing.T) {
	script := `[Theme music fades]
Episode 12: The Future of Batteries

Alex: Hello everyone.`

	turns := SplitTurns(script, "Alex", "Sam")
	require.Len(t, turns, 1)
	assert.Equal(t, "Alex", turns[0].Speaker)
}

func TestSplitTurns_CaseInsensitiveAndMarkdownLabels(t *testing.T) {
	script := `ALEX: Shouting works.
**Sam**: Markdown bold labels too.`

	turns := SplitTurns(script, "Alex", "Sam")
	require.Len(t, turns, 2)
	assert.Equal(t, "Alex", turns[0].Speaker)
	assert.Equal(t, "Sam", turns[1].Speaker)
}

func TestSplitTurns_UnknownSpeakerTreatedAsContinuation(t *testing.T) {
	script := `Alex: As the report says:
Note: numbers are preliminary.
Sam: Right.`

	turns := SplitTurns(script, "Alex", "Sam")
	require.Len(t, turns, 2)
	assert.Contains(t, turns[0].Text, "Note: numbers are preliminary.")
}

func TestSplitTurns_EmptyScript(t *testing.T) {
	assert.Empty(t, SplitTurns("", "Alex", "Sam"))
	assert.Empty(t, SplitTurns("no labels anywhere", "Alex", "Sam"))
}
