// Package config provides configuration loading and structs for the Shiori server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Content ContentConfig `yaml:"content"`
	Search  SearchConfig  `yaml:"search"`
	Anchor  AnchorConfig  `yaml:"anchor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the path of the annotation database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ContentConfig holds content tree settings.
type ContentConfig struct {
	// Roots are directories whose files become content documents. The first
	// path segment under a root is the document's topic.
	Roots      []string `yaml:"roots"`
	Extensions []string `yaml:"extensions"`
	// Watch enables re-loading changed files via fsnotify.
	Watch         *bool         `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// WatchOrDefault returns whether to watch content roots; defaults to true when unset.
func (c *ContentConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return true
}

// SearchConfig holds search settings.
type SearchConfig struct {
	MaxResults       int           `yaml:"max_results"`
	PreviewLines     int           `yaml:"preview_lines"`
	QueryDebounce    time.Duration `yaml:"query_debounce"`
	ProgressThrottle time.Duration `yaml:"progress_throttle"`
}

// AnchorConfig holds bookmark anchoring settings.
type AnchorConfig struct {
	// ContextBytes is how many bytes around a selection are hashed at
	// creation time for re-anchoring.
	ContextBytes int `yaml:"context_bytes"`
	// ScanBudgetBytes bounds the slow-path substring scan; resolution past
	// the budget reports not-found instead of stalling on huge documents.
	ScanBudgetBytes int `yaml:"scan_budget_bytes"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Content.Roots {
		cfg.Content.Roots[i] = expandPath(cfg.Content.Roots[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
