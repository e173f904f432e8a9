// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Episode
	Topic         string `json:"topic,omitempty"`                                    // Episode topic (used when generating the outline)
	Outline       string `json:"outline,omitempty"`                                  // Path to a pre-written outline file
	TargetMinutes int    `json:"target_minutes,omitempty" validate:"gte=0,lte=600"`  // Episode length target in minutes
	HostA         string `json:"host_a,omitempty"`                                   // First host name
	HostB         string `json:"host_b,omitempty"`                                   // Second host name

	// Material
	MaterialFiles []string `json:"material_files,omitempty"`                    // Local background material files
	MaterialURLs  []string `json:"material_urls,omitempty" validate:"dive,url"` // Background material URLs

	// Output
	Output string `json:"output,omitempty"` // Path to write the final script

	// Limits
	MaxAttempts    int     `json:"max_attempts,omitempty" validate:"gte=0,lte=10"`   // Attempts per content unit
	MaxRetries     int     `json:"max_retries,omitempty" validate:"gte=0,lte=10"`    // Retries per model call
	BaseDelayMS    int     `json:"base_delay_ms,omitempty" validate:"gte=0"`         // Initial retry delay in milliseconds
	MaxDelayMS     int     `json:"max_delay_ms,omitempty" validate:"gte=0"`          // Retry delay cap in milliseconds
	JitterFraction float64 `json:"jitter_fraction,omitempty" validate:"gte=0,lte=1"` // Retry jitter scale
	SectionShare   float64 `json:"section_share,omitempty" validate:"gte=0,lte=1"`   // Progress budget fraction for per-section work

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("config error: field %q failed %q validation", e.Field(), e.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.BaseDelayMS > 0 && c.MaxDelayMS > 0 && c.BaseDelayMS > c.MaxDelayMS {
		return fmt.Errorf("config error: 'base_delay_ms' must not exceed 'max_delay_ms'")
	}

	// Validate file paths exist (if specified)
	if c.Outline != "" {
		if _, err := os.Stat(c.Outline); os.IsNotExist(err) {
			return fmt.Errorf("config error: outline file not found: %s", c.Outline)
		}
	}
	for _, path := range c.MaterialFiles {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: material file not found: %s", path)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Topic == "" {
		result.Topic = defaults.Topic
	}
	if result.Outline == "" {
		result.Outline = defaults.Outline
	}
	if result.HostA == "" {
		result.HostA = defaults.HostA
	}
	if result.HostB == "" {
		result.HostB = defaults.HostB
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Slice fields: use default if unset
	if len(result.MaterialFiles) == 0 {
		result.MaterialFiles = defaults.MaterialFiles
	}
	if len(result.MaterialURLs) == 0 {
		result.MaterialURLs = defaults.MaterialURLs
	}

	// Numeric fields: use default if zero
	if result.TargetMinutes == 0 {
		result.TargetMinutes = defaults.TargetMinutes
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.BaseDelayMS == 0 {
		result.BaseDelayMS = defaults.BaseDelayMS
	}
	if result.MaxDelayMS == 0 {
		result.MaxDelayMS = defaults.MaxDelayMS
	}
	if result.JitterFraction == 0 {
		result.JitterFraction = defaults.JitterFraction
	}
	if result.SectionShare == 0 {
		result.SectionShare = defaults.SectionShare
	}

	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}
