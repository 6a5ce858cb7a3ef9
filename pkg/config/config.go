// Package config loads the workspace configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied for any field the file leaves unset.
const (
	DefaultServerURL   = "http://localhost:8080/api"
	DefaultResource    = "parts"
	DefaultCommitDelay = 450 * time.Millisecond
	DefaultSearchDelay = 300 * time.Millisecond
	DefaultPageSize    = 50
)

// Config is the workspace runtime configuration.
type Config struct {
	ServerURL     string `yaml:"server_url"`
	Resource      string `yaml:"resource"`
	CommitDelayMs int    `yaml:"commit_delay_ms"`
	SearchDelayMs int    `yaml:"search_delay_ms"`
	PageSize      int    `yaml:"page_size"`
	DataDir       string `yaml:"data_dir"`
}

// CommitDelay returns the debounced field commit delay.
func (c Config) CommitDelay() time.Duration {
	if c.CommitDelayMs <= 0 {
		return DefaultCommitDelay
	}
	return time.Duration(c.CommitDelayMs) * time.Millisecond
}

// SearchDelay returns the debounced list search delay.
func (c Config) SearchDelay() time.Duration {
	if c.SearchDelayMs <= 0 {
		return DefaultSearchDelay
	}
	return time.Duration(c.SearchDelayMs) * time.Millisecond
}

// LayoutDBPath is the location of the layout database.
func (c Config) LayoutDBPath() string {
	return filepath.Join(c.DataDir, "layouts.db")
}

// Default returns the configuration used when no file exists.
func Default() Config {
	dataDir := ".gw"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".gw")
	}
	return Config{
		ServerURL: DefaultServerURL,
		Resource:  DefaultResource,
		PageSize:  DefaultPageSize,
		DataDir:   dataDir,
	}
}

// Load reads the configuration from path. A missing file yields defaults; a
// present but unparsable file is a real error the user should see.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.Resource == "" {
		cfg.Resource = DefaultResource
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	return cfg, nil
}
