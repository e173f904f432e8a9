// Package tts prepares finished scripts for audio synthesis. Scripts are
// alternating host dialogue in "NAME: line" form; synthesis itself is
// delegated to a Synthesizer collaborator.
package tts

import (
	"context"
	"strings"
)

// Turn is one speaker's contiguous block of dialogue.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Synthesizer converts dialogue turns into audio. Implementations map
// speakers to voices; the pipeline only supplies the turn sequence.
type Synthesizer interface {
	Synthesize(ctx context.Context, turns []Turn) ([]byte, error)
}

// SplitTurns parses a two-host script into speaker turns. A line like
// "Alex: welcome back" starts a new turn for that speaker; continuation
// lines and lines naming unknown speakers extend the current turn. Text
// before the first speaker label is dropped (stage directions, titles).
func SplitTurns(script, hostA, hostB string) []Turn {
	var turns []Turn

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		speaker, text := splitSpeaker(trimmed, hostA, hostB)
		switch {
		case speaker != "":
			if len(turns) > 0 && turns[len(turns)-1].Speaker == speaker {
				turns[len(turns)-1].Text += " " + text
			} else {
				turns = append(turns, Turn{Speaker: speaker, Text: text})
			}
		case len(turns) > 0:
			turns[len(turns)-1].Text += " " + trimmed
		}
	}

	return turns
}

// splitSpeaker returns the matching host and the dialogue text when the
// line starts with a known speaker label, or empty strings otherwise.
func splitSpeaker(line, hostA, hostB string) (string, string) {
	name, rest, ok := strings.Cut(line, ":")
	if !ok {
		return "", ""
	}

	name = strings.TrimSpace(strings.Trim(strings.TrimSpace(name), "*_"))
	for _, host := range []string{hostA, hostB} {
		if host != "" && strings.EqualFold(name, host) {
			return host, strings.TrimSpace(rest)
		}
	}
	return "", ""
}
