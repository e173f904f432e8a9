package observability

import (
	"fmt"
	"io"
)

// ConsoleNotifier writes pipeline notifications to a writer with status
// glyphs, matching the CLI's step output.
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing to the given writer.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Info(message string) {
	fmt.Fprintf(n.out, "→ %s\n", message)
}

func (n *ConsoleNotifier) Success(message string) {
	fmt.Fprintf(n.out, "✅ %s\n", message)
}

func (n *ConsoleNotifier) Error(message string) {
	fmt.Fprintf(n.out, "⚠️  %s\n", message)
}
