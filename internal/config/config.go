// Package config loads and watches bizpilot configuration: the LLM provider
// settings, session limits, logging options, and optional keyword taxonomy
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all bizpilot configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Session and turn behavior
	Session SessionConfig `yaml:"session"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// TaxonomyPath points to an optional YAML file overriding the built-in
	// keyword taxonomy. Empty means built-in only.
	TaxonomyPath string `yaml:"taxonomy_path"`
}

// LLMConfig configures the fallback classifier's provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// SessionConfig bounds session persistence and turn behavior.
type SessionConfig struct {
	DatabasePath string `yaml:"database_path"`
	HistoryLimit int    `yaml:"history_limit"`
	SessionTTL   string `yaml:"session_ttl"`
}

// LoggingConfig configures the category logger.
type LoggingConfig struct {
	Directory string `yaml:"directory"`
	Debug     bool   `yaml:"debug"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "bizpilot",
		Version: "0.1.0",
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  "30s",
		},
		Session: SessionConfig{
			DatabasePath: filepath.Join(defaultDataDir(), "sessions.db"),
			HistoryLimit: 50,
			SessionTTL:   "24h",
		},
		Logging: LoggingConfig{
			Directory: filepath.Join(defaultDataDir(), "logs"),
		},
	}
}

// defaultDataDir resolves the per-user data directory, falling back to the
// working directory when the home directory is unavailable.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bizpilot"
	}
	return filepath.Join(home, ".bizpilot")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override in either case.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. API keys are
// checked in priority order; the last matching provider wins.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if key := os.Getenv("BIZPILOT_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if path := os.Getenv("BIZPILOT_DB"); path != "" {
		c.Session.DatabasePath = path
	}
	if path := os.Getenv("BIZPILOT_TAXONOMY"); path != "" {
		c.TaxonomyPath = path
	}
}

// LLMTimeout returns the configured LLM timeout, defaulting to 30s when the
// value is missing or malformed.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// SessionTTL returns the configured session time-to-live, defaulting to 24h.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// DefaultConfigPath returns the standard location of the config file.
func DefaultConfigPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}
