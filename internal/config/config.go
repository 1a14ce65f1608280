package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"bennypowers.dev/tplcache/internal/log"
	"github.com/tidwall/jsonc"
)

// FileName is the config file looked up in the working directory
const FileName = ".tplcache.jsonc"

// Supported report formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ErrInvalidConfig indicates a config value out of range
var ErrInvalidConfig = errors.New("invalid config")

// Config controls which files the checker compiles and how hard it drives them
type Config struct {
	// Include lists doublestar globs of sources to check
	Include []string `json:"include"`

	// Exclude lists doublestar globs removed from the include set
	Exclude []string `json:"exclude"`

	// Tags restricts checking to call sites with these tag expressions.
	// Empty means every tagged template.
	Tags []string `json:"tags,omitempty"`

	// Iterations is how many times each goroutine evaluates each call site
	Iterations int `json:"iterations"`

	// Concurrency is how many goroutines evaluate each unit at once
	Concurrency int `json:"concurrency"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"logLevel"`

	// Format is one of text, yaml, json
	Format string `json:"format"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() Config {
	return Config{
		Include: []string{
			"**/*.js",
			"**/*.mjs",
			"**/*.cjs",
		},
		Exclude: []string{
			"**/node_modules/**",
		},
		Iterations:  8,
		Concurrency: 4,
		LogLevel:    "info",
		Format:      FormatText,
	}
}

// Parse reads JSONC config data over the defaults. Fields absent from data
// keep their default values.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the config file at path. A missing file yields DefaultConfig.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("No config at %s, using defaults", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if !slices.Contains([]string{FormatText, FormatYAML, FormatJSON}, c.Format) {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("%w: include must list at least one pattern", ErrInvalidConfig)
	}
	return nil
}
