// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Upstream endpoints
	DiscussionURL   string `json:"discussion_url,omitempty"`    // Discussion platform base URL
	Community       string `json:"community,omitempty"`         // Community to search within
	ReviewExportURL string `json:"review_export_url,omitempty"` // Review spreadsheet CSV export URL
	RatingsURL      string `json:"ratings_url,omitempty"`       // Rating service GraphQL endpoint
	Institution     string `json:"institution,omitempty"`       // Institution searched for instructor ratings

	// Limits
	MaxThreads int `json:"max_threads,omitempty"` // Maximum threads fetched per analysis
	MaxReplies int `json:"max_replies,omitempty"` // Maximum replies fetched per thread

	// Behavior
	APIKey  string `json:"api_key,omitempty"` // Gemini API key
	Model   string `json:"model,omitempty"`   // Gemini model override
	Verbose bool   `json:"verbose,omitempty"` // Print detailed debug information
	Port    int    `json:"port,omitempty"`    // HTTP server port
}

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
	if c.MaxThreads < 0 || c.MaxThreads > 50 {
		return fmt.Errorf("config error: 'max_threads' must be between 0 and 50")
	}
	if c.MaxReplies < 0 {
		return fmt.Errorf("config error: 'max_replies' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be a valid port number")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DiscussionURL == "" {
		result.DiscussionURL = defaults.DiscussionURL
	}
	if result.Community == "" {
		result.Community = defaults.Community
	}
	if result.ReviewExportURL == "" {
		result.ReviewExportURL = defaults.ReviewExportURL
	}
	if result.RatingsURL == "" {
		result.RatingsURL = defaults.RatingsURL
	}
	if result.Institution == "" {
		result.Institution = defaults.Institution
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}

	// Int fields: use default if zero
	if result.MaxThreads == 0 {
		result.MaxThreads = defaults.MaxThreads
	}
	if result.MaxReplies == 0 {
		result.MaxReplies = defaults.MaxReplies
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
