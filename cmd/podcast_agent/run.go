package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/podcast-scripter/internal/config"
	"github.com/jonathan/podcast-scripter/internal/db"
	"github.com/jonathan/podcast-scripter/internal/ingestion"
	"github.com/jonathan/podcast-scripter/internal/llm"
	"github.com/jonathan/podcast-scripter/internal/observability"
	"github.com/jonathan/podcast-scripter/internal/outline"
	"github.com/jonathan/podcast-scripter/internal/pipeline"
	"github.com/jonathan/podcast-scripter/internal/retry"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Generate a full podcast script end-to-end",
	Long: `Orchestrates the entire script generation process: material ingestion -> outline -> per-section drafting with verification -> cross-section review.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runScriptCmd,
}

var (
	runConfigPath    string
	runTopic         string
	runOutlinePath   string
	runTargetMinutes int
	runHostA         string
	runHostB         string
	runMaterialFiles []string
	runMaterialURLs  []string
	runOutput        string
	runMaxAttempts   int
	runAPIKey        string
	runDatabaseURL   string
	runVerbose       bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runTopic, "topic", "t", "", "Episode topic (used when generating the outline)")
	runCommand.Flags().StringVar(&runOutlinePath, "outline", "", "Path to a pre-written outline file (skips outline generation)")
	runCommand.Flags().IntVar(&runTargetMinutes, "target-minutes", 0, "Episode length target in minutes")
	runCommand.Flags().StringVar(&runHostA, "host-a", "", "First host name")
	runCommand.Flags().StringVar(&runHostB, "host-b", "", "Second host name")
	runCommand.Flags().StringSliceVar(&runMaterialFiles, "material", nil, "Background material files (repeatable)")
	runCommand.Flags().StringSliceVar(&runMaterialURLs, "material-url", nil, "Background material URLs (repeatable)")
	runCommand.Flags().StringVarP(&runOutput, "output", "o", "", "Path to write the final script")
	runCommand.Flags().IntVar(&runMaxAttempts, "max-attempts", 0, "Attempts per content unit (generate + improve loop)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for artifact persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runScriptCmd(cmd *cobra.Command, _ []string) error {
	// Ctrl-C cancels the run; partial output is still written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("topic") {
		cfg.Topic = runTopic
	}
	if cmd.Flags().Changed("outline") {
		cfg.Outline = runOutlinePath
	}
	if cmd.Flags().Changed("target-minutes") {
		cfg.TargetMinutes = runTargetMinutes
	}
	if cmd.Flags().Changed("host-a") {
		cfg.HostA = runHostA
	}
	if cmd.Flags().Changed("host-b") {
		cfg.HostB = runHostB
	}
	if cmd.Flags().Changed("material") {
		cfg.MaterialFiles = runMaterialFiles
	}
	if cmd.Flags().Changed("material-url") {
		cfg.MaterialURLs = runMaterialURLs
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = runOutput
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = runMaxAttempts
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	// Step 3: Apply defaults for unset values
	defaults := config.Config{
		TargetMinutes: 20,
		HostA:         "Alex",
		HostB:         "Sam",
		Output:        "script.txt",
		MaxAttempts:   pipeline.DefaultMaxAttempts,
	}
	cfg = cfg.MergeWithDefaults(defaults)

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 4: Validate required fields
	if cfg.Topic == "" && cfg.Outline == "" {
		return fmt.Errorf("either --topic or --outline must be provided (via flag or config)")
	}

	// Step 5: API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 6: Database URL is optional; runs proceed without persistence
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return runScript(ctx, cfg)
}

func runScript(ctx context.Context, cfg config.Config) (err error) {
	notifier := observability.NewConsoleNotifier(os.Stdout)
	printer := observability.NewPrinter(os.Stdout)

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	// Persistence is best-effort: a missing database downgrades to a
	// warning and the run continues in-memory.
	var store pipeline.ArtifactStore
	runID := uuid.Nil
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			notifier.Error(fmt.Sprintf("database unavailable, continuing without persistence: %v", err))
		} else {
			defer database.Close()
			id, err := database.CreateRun(ctx, cfg.Topic, "")
			if err != nil {
				notifier.Error(fmt.Sprintf("failed to create run record, continuing without persistence: %v", err))
			} else {
				runID = id
				store = database
				defer func() {
					status := db.StatusCompleted
					switch {
					case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
						status = db.StatusCancelled
					case err != nil:
						status = db.StatusFailed
					}
					finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					_ = database.CompleteRun(finishCtx, runID, status)
				}()
				notifier.Info(fmt.Sprintf("Run ID: %s", runID))
			}
		}
	}

	material, err := ingestMaterial(ctx, cfg, notifier)
	if err != nil {
		return err
	}

	orch := pipeline.New(pipeline.Config{
		Client:       client,
		RetryPolicy:  retryPolicy(cfg),
		Notifier:     notifier,
		Store:        store,
		RunID:        runID,
		MaxAttempts:  cfg.MaxAttempts,
		SectionShare: cfg.SectionShare,
		HostA:        cfg.HostA,
		HostB:        cfg.HostB,
	})

	// Outline: read from file, or generate through the same loop
	var outlineText string
	if cfg.Outline != "" {
		data, err := os.ReadFile(cfg.Outline)
		if err != nil {
			return fmt.Errorf("failed to read outline file: %w", err)
		}
		outlineText = string(data)
	} else {
		notifier.Info("Generating episode outline...")
		_, text, err := orch.GenerateOutline(ctx, pipeline.OutlineBrief{
			Topic:         cfg.Topic,
			Material:      material,
			TargetMinutes: cfg.TargetMinutes,
		})
		if err != nil {
			return outcomeError("outline generation", err)
		}
		outlineText = text
	}

	parsed, err := outline.Parse(outlineText)
	if err != nil {
		return fmt.Errorf("outline is unusable: %w", err)
	}
	if cfg.Verbose {
		printer.PrintOutline(parsed.Sections)
	}

	result, err := orch.GenerateScript(ctx, parsed.Sections)
	if err != nil {
		// Partial output survives cancellation and late failures.
		if result != nil && orch.Buffer().Len() > 0 {
			partialPath := cfg.Output + ".partial"
			if werr := os.WriteFile(partialPath, []byte(orch.Buffer().Script()), 0o644); werr == nil {
				notifier.Info(fmt.Sprintf("Partial script (%d sections) written to %s", orch.Buffer().Len(), partialPath))
			}
		}
		return outcomeError("script generation", err)
	}

	if cfg.Verbose {
		for _, sr := range result.Sections {
			printer.PrintOutcome("section "+sr.Section.Number, sr.Outcome)
		}
		if result.Review != nil {
			printer.PrintOutcome("cross-section review", result.Review)
		}
		printer.PrintUsage(result.Usage)
	}

	if err := os.WriteFile(cfg.Output, []byte(result.Script), 0o644); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	notifier.Success(fmt.Sprintf("Script written to %s", cfg.Output))
	return nil
}

// ingestMaterial gathers background material from local files and URLs.
// Individual source failures are warnings; the run continues with what
// was collected.
func ingestMaterial(ctx context.Context, cfg config.Config, notifier *observability.ConsoleNotifier) (string, error) {
	var materials []*ingestion.Material

	for _, path := range cfg.MaterialFiles {
		m, err := ingestion.FromFile(path)
		if err != nil {
			return "", err
		}
		materials = append(materials, m)
	}

	if len(cfg.MaterialURLs) > 0 {
		notifier.Info(fmt.Sprintf("Fetching %d material URLs...", len(cfg.MaterialURLs)))
		fetched, err := ingestion.FromURLs(ctx, cfg.MaterialURLs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return "", err
			}
			notifier.Error(fmt.Sprintf("some material could not be fetched: %v", err))
		}
		materials = append(materials, fetched...)
	}

	return ingestion.Combine(materials), nil
}

func retryPolicy(cfg config.Config) retry.Policy {
	policy := retry.DefaultPolicy()
	if cfg.MaxRetries > 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	if cfg.BaseDelayMS > 0 {
		policy.BaseDelay = time.Duration(cfg.BaseDelayMS) * time.Millisecond
	}
	if cfg.MaxDelayMS > 0 {
		policy.MaxDelay = time.Duration(cfg.MaxDelayMS) * time.Millisecond
	}
	if cfg.JitterFraction > 0 {
		policy.JitterFraction = cfg.JitterFraction
	}
	return policy
}

// outcomeError maps context cancellation onto a clean user-facing message.
// The underlying error stays wrapped so status reporting can classify it.
func outcomeError(stage string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s cancelled: %w", stage, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out: %w", stage, err)
	}
	return fmt.Errorf("%s failed: %w", stage, err)
}
