package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ParentHeadingsExcluded(t *testing.T) {
	text := `---
1. Intro
Duration: 3
---
1.1 Sub
Duration: 2
---
2. Main
Duration: 5
---`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 2)

	// "1." is a parent of "1.1" across blocks, so only the leaves survive.
	assert.Equal(t, "1.1", outline.Sections[0].Number)
	assert.Equal(t, "Sub", outline.Sections[0].Title)
	assert.Equal(t, 2.0, outline.Sections[0].DurationMinutes)
	assert.Equal(t, "2", outline.Sections[1].Number)
	assert.Equal(t, "Main", outline.Sections[1].Title)
	assert.Equal(t, 5.0, outline.Sections[1].DurationMinutes)
	assert.Equal(t, 7.0, outline.TotalMinutes)
}

func TestParse_ParentWithinOneBlock(t *testing.T) {
	text := `1. Opening
Duration: 10
1.1 Cold open
Duration: 2
1.2 Welcome
Duration: 3`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 2)
	assert.Equal(t, "1.1", outline.Sections[0].Number)
	assert.Equal(t, "1.2", outline.Sections[1].Number)
}

func TestParse_SectionWithoutDurationDropped(t *testing.T) {
	text := `1. Has duration
Duration: 4
2. No duration here
Just notes.
3. Also timed
Duration: 6`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 2)
	assert.Equal(t, "1", outline.Sections[0].Number)
	assert.Equal(t, "3", outline.Sections[1].Number)
}

func TestParse_SecondsConvertedToMinutes(t *testing.T) {
	text := `1. Quick hit
Duration: 90 seconds`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 1)
	assert.InDelta(t, 1.5, outline.Sections[0].DurationMinutes, 1e-9)
}

func TestParse_DecimalMinutes(t *testing.T) {
	text := `1. Short
Duration: 2.5 minutes`

	outline, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, 2.5, outline.Sections[0].DurationMinutes)
}

func TestParse_SyntheticSectionFromHeadinglessBlock(t *testing.T) {
	text := `---
Listener questions
Duration: 4
---
2. Closing thoughts
Duration: 3
---`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 2)

	// The headingless block is numbered by its position among blocks.
	assert.Equal(t, "1", outline.Sections[0].Number)
	assert.Equal(t, "Listener questions", outline.Sections[0].Title)
	assert.Equal(t, 4.0, outline.Sections[0].DurationMinutes)
}

func TestParse_SyntheticSectionWithoutTitleLine(t *testing.T) {
	text := `Duration: 5`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 1)
	assert.Equal(t, "Segment 1", outline.Sections[0].Title)
}

func TestParse_LabeledFieldsFilled(t *testing.T) {
	text := `2.1 Deep dive
Duration: 8
Overview: The core of the episode.
Key facts: Three studies from 2023.
Unique focus: What changed last year.
Carryover: Callback to the intro anecdote.`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 1)

	s := outline.Sections[0]
	assert.Equal(t, "The core of the episode.", s.Overview)
	assert.Equal(t, "Three studies from 2023.", s.KeyFacts)
	assert.Equal(t, "What changed last year.", s.UniqueFocus)
	assert.Equal(t, "Callback to the intro anecdote.", s.Carryover)
}

func TestParse_AlternateNumberingStyles(t *testing.T) {
	text := `1) First
Duration: 3
2.3.1 Nested leaf
Duration: 2`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 2)
	assert.Equal(t, "1", outline.Sections[0].Number)
	assert.Equal(t, "2.3.1", outline.Sections[1].Number)
}

func TestParse_YearLikeLineIsNotAHeading(t *testing.T) {
	text := `1. History
Duration: 5
2024. That was the turning point according to most accounts.`

	outline, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, outline.Sections, 1)
	assert.Equal(t, "1", outline.Sections[0].Number)
}

func TestParse_NoUsableSections(t *testing.T) {
	_, err := Parse("Just some prose without structure.")
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

func TestParse_AsteriskAndUnderscoreRules(t *testing.T) {
	text := `***
1. One
Duration: 2
___
2. Two
Duration: 3`

	outline, err := Parse(text)
	require.NoError(t, err)
	assert.Len(t, outline.Sections, 2)
}

func TestParse_DurationCaseInsensitive(t *testing.T) {
	text := `1. Mixed case
DURATION: 7 Minutes`

	outline, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, 7.0, outline.Sections[0].DurationMinutes)
}
