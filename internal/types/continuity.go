package types

import (
	"fmt"
	"strings"
)

// SectionSummary is a short synopsis of an already-finalized section.
type SectionSummary struct {
	Number  string `json:"number"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// SectionTopics lists the topics a finalized section already covered.
type SectionTopics struct {
	Number string   `json:"number"`
	Title  string   `json:"title"`
	Topics []string `json:"topics"`
}

// ContinuityContext accumulates what earlier sections said so later
// prompts can stay coherent without resending the full transcript.
// It grows monotonically for the lifetime of a run.
type ContinuityContext struct {
	Summaries []SectionSummary `json:"summaries"`
	Covered   []SectionTopics  `json:"covered"`

	seen map[string]bool
}

// Append records the summary and topics of a finalized section. Topics
// already recorded by an earlier section are dropped, preserving order.
func (c *ContinuityContext) Append(section Section, summary string, topics []string) {
	c.Summaries = append(c.Summaries, SectionSummary{
		Number:  section.Number,
		Title:   section.Title,
		Summary: summary,
	})

	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	fresh := make([]string, 0, len(topics))
	for _, topic := range topics {
		key := strings.ToLower(strings.TrimSpace(topic))
		if key == "" || c.seen[key] {
			continue
		}
		c.seen[key] = true
		fresh = append(fresh, strings.TrimSpace(topic))
	}
	c.Covered = append(c.Covered, SectionTopics{
		Number: section.Number,
		Title:  section.Title,
		Topics: fresh,
	})
}

// Empty reports whether no sections have been recorded yet.
func (c *ContinuityContext) Empty() bool {
	return len(c.Summaries) == 0
}

// PromptBlock renders the accumulated context for injection into prompts.
// Returns "" when nothing has been recorded.
func (c *ContinuityContext) PromptBlock() string {
	if c.Empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Previously in this episode:\n")
	for _, s := range c.Summaries {
		sb.WriteString(fmt.Sprintf("- %s %s: %s\n", s.Number, s.Title, s.Summary))
	}

	var topics []string
	for _, entry := range c.Covered {
		topics = append(topics, entry.Topics...)
	}
	if len(topics) > 0 {
		sb.WriteString("Topics already covered (do not repeat): ")
		sb.WriteString(strings.Join(topics, "; "))
		sb.WriteString("\n")
	}
	return sb.String()
}
