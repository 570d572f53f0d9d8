package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds environment-driven configuration. The sync endpoint URL is
// deliberately not here: it lives in the synced Company record so that all
// devices share it.
type Config struct {
	DB struct {
		Path string `yaml:"path"` // SQLite file, e.g. shiftsync.db
	} `yaml:"db"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Remote struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"remote"`
	Sync struct {
		Interval time.Duration `yaml:"interval"` // periodic sync in serve mode; 0 disables
	} `yaml:"sync"`
}

// Load reads configuration from environment variables, with an optional
// YAML file (SHIFTSYNC_CONFIG) applied first so env vars win.
func Load() (Config, error) {
	var cfg Config
	cfg.DB.Path = "shiftsync.db"
	cfg.HTTP.Addr = ":8080"
	cfg.Remote.Timeout = 30 * time.Second

	if path := os.Getenv("SHIFTSYNC_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("SHIFTSYNC_DB_PATH"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("SHIFTSYNC_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("SHIFTSYNC_REMOTE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("config: SHIFTSYNC_REMOTE_TIMEOUT must be a duration: %w", err)
		}
		cfg.Remote.Timeout = d
	}
	if v := os.Getenv("SHIFTSYNC_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("config: SHIFTSYNC_SYNC_INTERVAL must be a duration: %w", err)
		}
		cfg.Sync.Interval = d
	}
	return cfg, nil
}
