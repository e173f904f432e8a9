package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/podcast-scripter/internal/observability"
	"github.com/jonathan/podcast-scripter/internal/outline"
)

var outlineJSON bool

var outlineCommand = &cobra.Command{
	Use:   "outline <file>",
	Short: "Parse an outline file and preview its leaf sections",
	Long:  `Parses a structured outline into the leaf sections the script pipeline would generate, without calling any model. Useful for checking section numbering and durations before a run.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOutlineCmd,
}

func init() {
	outlineCommand.Flags().BoolVar(&outlineJSON, "json", false, "Print parsed sections as JSON")
	rootCmd.AddCommand(outlineCommand)
}

func runOutlineCmd(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read outline file: %w", err)
	}

	parsed, err := outline.Parse(string(data))
	if err != nil {
		return err
	}

	if outlineJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(parsed)
	}

	observability.NewPrinter(os.Stdout).PrintOutline(parsed.Sections)
	return nil
}
