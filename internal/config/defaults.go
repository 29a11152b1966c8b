package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/shiori/data/annotations.db"
	}
	if cfg.Content.Extensions == nil {
		cfg.Content.Extensions = []string{".md", ".txt", ".pdf"}
	}
	if cfg.Content.WatchDebounce == 0 {
		cfg.Content.WatchDebounce = 400 * time.Millisecond
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 200
	}
	if cfg.Search.PreviewLines == 0 {
		cfg.Search.PreviewLines = 3
	}
	if cfg.Search.QueryDebounce == 0 {
		cfg.Search.QueryDebounce = 250 * time.Millisecond
	}
	if cfg.Search.ProgressThrottle == 0 {
		cfg.Search.ProgressThrottle = 2 * time.Second
	}
	if cfg.Anchor.ContextBytes == 0 {
		cfg.Anchor.ContextBytes = 32
	}
	if cfg.Anchor.ScanBudgetBytes == 0 {
		cfg.Anchor.ScanBudgetBytes = 4 << 20
	}
}
