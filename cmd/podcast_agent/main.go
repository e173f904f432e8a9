// Package main provides the entry point for the podcast scripter CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "podcast_agent",
	Short: "Podcast Scripter",
	Long:  "Podcast Scripter turns a topic and background material into a verified two-host podcast script via an outline -> per-section draft -> cross-section review flow.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
