package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	Token     string            `yaml:"token"`
	UserAgent string            `yaml:"user_agent"`
	Redirect  string            `yaml:"redirect"` // follow, manual, error
	Timeout   time.Duration     `yaml:"timeout"`  // applied by the CLI through the call context
	Headers   map[string]string `yaml:"headers"`
	History   HistoryConfig     `yaml:"history"`
	Log       LogConfig         `yaml:"log"`
	Batch     BatchConfig       `yaml:"batch"`
}

// HistoryConfig holds call history settings
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// BatchConfig holds batch execution settings
type BatchConfig struct {
	Parallel int `yaml:"parallel"` // concurrent calls
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "reqcore.yaml"
	}
	return filepath.Join(dir, "reqcore", "config.yaml")
}

// Load reads config from YAML file with graceful fallback
// Returns default config if file doesn't exist or is malformed
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		// Try to parse YAML, but be resilient to bad formatting
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			cfg = Config{}
		}
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	// Apply defaults for missing values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Redirect) {
	case "follow", "manual", "error":
	default:
		return fmt.Errorf("invalid redirect policy %q (want follow, manual or error)", c.Redirect)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REQCORE_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("REQCORE_TOKEN"); v != "" {
		c.Token = v
	} else if c.Token == "" {
		c.Token = os.Getenv("GITHUB_TOKEN")
	}
	if v := os.Getenv("REQCORE_REDIRECT"); v != "" {
		c.Redirect = v
	}
	if v := os.Getenv("REQCORE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("REQCORE_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("REQCORE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REQCORE_BATCH_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Batch.Parallel = n
		}
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.github.com"
	}
	if c.Redirect == "" {
		c.Redirect = "follow"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.History.Path == "" {
		c.History.Path = defaultHistoryPath()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Batch.Parallel <= 0 {
		c.Batch.Parallel = 5
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "reqcore-history.db"
	}
	return filepath.Join(home, ".reqcore", "history.db")
}
