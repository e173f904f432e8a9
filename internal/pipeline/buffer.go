package pipeline

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonathan/podcast-scripter/internal/types"
)

// SectionText is one committed section of the evolving script.
type SectionText struct {
	Number string `json:"number"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

// ScriptBuffer is the append-only output buffer owned by the orchestrator.
// Only the active pipeline appends; a UI or CLI layer may read snapshots
// at any time without locking because each append replaces the snapshot
// reference atomically (reads are eventually consistent).
type ScriptBuffer struct {
	mu   sync.Mutex
	snap atomic.Pointer[bufferSnapshot]
}

type bufferSnapshot struct {
	sections []SectionText
	script   string
}

// NewScriptBuffer creates an empty buffer.
func NewScriptBuffer() *ScriptBuffer {
	b := &ScriptBuffer{}
	b.snap.Store(&bufferSnapshot{})
	return b
}

// Append commits a section's chosen text to the buffer.
func (b *ScriptBuffer) Append(section types.Section, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.snap.Load()
	sections := make([]SectionText, len(old.sections), len(old.sections)+1)
	copy(sections, old.sections)
	sections = append(sections, SectionText{
		Number: section.Number,
		Title:  section.Title,
		Text:   strings.TrimSpace(text),
	})

	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(s.Text)
	}
	b.snap.Store(&bufferSnapshot{sections: sections, script: sb.String()})
}

// Script returns the assembled script committed so far.
func (b *ScriptBuffer) Script() string {
	return b.snap.Load().script
}

// Sections returns a snapshot of the committed sections.
func (b *ScriptBuffer) Sections() []SectionText {
	return b.snap.Load().sections
}

// Len returns the number of committed sections.
func (b *ScriptBuffer) Len() int {
	return len(b.snap.Load().sections)
}
