// Package config loads Compass configuration from config.yaml with
// environment-variable overrides. The token budget ceiling and the
// summarizer's decision-marker list live here rather than in code so both
// are tunable per deployment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the Compass server and context-budget configuration
type Config struct {
	Port    int    `yaml:"port"`     // HTTP port (default: 8493)
	DataDir string `yaml:"data_dir"` // SQLite database + guidance data files

	// TokenBudget is the ceiling passed to the context selector
	// (default: 3500, override with COMPASS_TOKEN_BUDGET)
	TokenBudget int `yaml:"token_budget"`

	// DecisionMarkers are the substrings that qualify an assistant reply as
	// decision-bearing in the extractive summarizer. A heuristic, not a
	// complete decision detector — tune per deployment language/phrasing.
	DecisionMarkers []string `yaml:"decision_markers"`

	// RetentionDays controls the nightly sweep of old session messages
	// (0 disables the sweep)
	RetentionDays int `yaml:"retention_days"`

	// Extractor settings for the optional LLM-backed decision extractor.
	// When the API key env var is unset the heuristic summarizer runs alone.
	Extractor ExtractorConfig `yaml:"extractor"`
}

// ExtractorConfig configures the optional LLM decision extractor
type ExtractorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"` // Anthropic model ID, no default hardcoded in core logic
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:        8493,
		DataDir:     defaultDataDir(),
		TokenBudget: 3500,
		DecisionMarkers: []string{
			"decided", "decision", "chose", "chosen", "selected",
			"will use", "going with", "settled on", "agreed", "defined",
		},
		RetentionDays: 90,
		Extractor: ExtractorConfig{
			Enabled: false,
			Model:   "claude-sonnet-4-5",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".compass"
	}
	return filepath.Join(home, ".compass")
}

// Load reads config.yaml from the data directory, falling back to defaults
// when the file does not exist, then applies env overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(cfg.DataDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.expandHome()
	cfg.applyEnv()
	return cfg, cfg.validate()
}

// LoadFrom reads config from a specific path
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.expandHome()
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) expandHome() {
	if strings.HasPrefix(c.DataDir, "~/") {
		home, _ := os.UserHomeDir()
		c.DataDir = filepath.Join(home, c.DataDir[2:])
	}
}

// applyEnv applies environment overrides on top of file values
func (c *Config) applyEnv() {
	if v := os.Getenv("COMPASS_TOKEN_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.TokenBudget = n
		}
	}
	if v := os.Getenv("COMPASS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Port = n
		}
	}
	if v := os.Getenv("COMPASS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
}

func (c *Config) validate() error {
	if c.TokenBudget < 0 {
		return fmt.Errorf("token_budget must be non-negative, got %d", c.TokenBudget)
	}
	if len(c.DecisionMarkers) == 0 {
		return fmt.Errorf("decision_markers must not be empty")
	}
	return nil
}

// Save writes the config back to the data directory's config.yaml
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.DataDir, "config.yaml"), data, 0644)
}

// DatabasePath returns the SQLite file path under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "compass.db")
}

// GuidanceDir returns the directory holding task guidance data files.
func (c *Config) GuidanceDir() string {
	return filepath.Join(c.DataDir, "guidance")
}
