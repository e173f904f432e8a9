// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/podcast-scripter/internal/llm"
	"github.com/jonathan/podcast-scripter/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintOutline outputs a human-readable summary of the parsed outline.
func (p *Printer) PrintOutline(sections []types.Section) {
	if len(sections) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sections: %d\n", len(sections)))
	sb.WriteString(fmt.Sprintf("Total:    %s min\n\n", trimFloat(types.TotalDuration(sections))))

	count := min(len(sections), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := sections[i]
		title := s.Title
		if len(title) > 38 {
			title = title[:35] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s  %s (%s min)\n", s.Number, title, trimFloat(s.DurationMinutes)))
	}
	if len(sections) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more sections\n", len(sections)-maxItemsToShow))
	}

	p.printBox("EPISODE OUTLINE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutcome outputs the result of one generate/verify/improve loop.
func (p *Printer) PrintOutcome(label string, outcome *types.PipelineOutcome) {
	if outcome == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Attempts: %d\n", outcome.TotalAttempts))
	sb.WriteString(fmt.Sprintf("Chosen:   attempt %d (score %d)\n", outcome.ChosenAttempt, outcome.ChosenScore))

	for _, attempt := range outcome.Attempts {
		marker := " "
		if attempt.Index == outcome.ChosenAttempt {
			marker = "▸"
		}
		status := "invalid"
		issues := 0
		if attempt.Verification != nil {
			if attempt.Verification.IsValid {
				status = "valid"
			}
			issues = len(attempt.Verification.Issues)
		}
		sb.WriteString(fmt.Sprintf("%s #%d  %s, %d issues, score %d\n", marker, attempt.Index, status, issues, attempt.Score))
	}

	p.printBox(strings.ToUpper(label), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintVerification outputs a verification result with its issues.
func (p *Printer) PrintVerification(result *types.VerificationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	if result.IsValid {
		sb.WriteString("✅ VALID")
	} else {
		sb.WriteString("⚠ NEEDS WORK")
	}
	if result.Fallback {
		sb.WriteString(" (fallback parse)")
	}
	sb.WriteString("\n")

	if result.Summary != "" {
		summary := result.Summary
		if len(summary) > 50 {
			summary = summary[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s\n", summary))
	}

	if len(result.Issues) > 0 {
		sb.WriteString("\n")
		count := min(len(result.Issues), maxItemsToShow)
		for i := 0; i < count; i++ {
			issue := result.Issues[i]
			desc := issue.Description
			if len(desc) > 42 {
				desc = desc[:39] + "..."
			}
			sb.WriteString(fmt.Sprintf("• [%s] %s\n", issue.Severity, desc))
		}
		if len(result.Issues) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more issues\n", len(result.Issues)-maxItemsToShow))
		}
	}

	p.printBox("VERIFICATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintUsage outputs accumulated token usage for a run.
func (p *Printer) PrintUsage(usage llm.Usage) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Prompt tokens:     %d\n", usage.PromptTokens))
	sb.WriteString(fmt.Sprintf("Completion tokens: %d\n", usage.CompletionTokens))
	sb.WriteString(fmt.Sprintf("Total:             %d", usage.PromptTokens+usage.CompletionTokens))

	p.printBox("TOKEN USAGE", sb.String())
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
