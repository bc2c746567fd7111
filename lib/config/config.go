// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the dashboard configuration.
type Config struct {
	// Listen is the address the HTTP API binds to.
	// Default: 127.0.0.1:8777
	Listen string `yaml:"listen"`

	// Store configures where records are read from.
	Store StoreConfig `yaml:"store"`

	// Series configures the time-bucketing aggregator.
	Series SeriesConfig `yaml:"series"`

	// Feed configures the tool-call feed builder.
	Feed FeedConfig `yaml:"feed"`
}

// StoreConfig configures the record store.
type StoreConfig struct {
	// DataDir is the opencode storage root.
	// Default: ${HOME}/.local/share/opencode/storage
	DataDir string `yaml:"data_dir"`

	// AllowedRoots constrains resolved part directories. Empty means
	// "the data dir itself", which is the right setting unless the
	// store spans symlinked volumes.
	AllowedRoots []string `yaml:"allowed_roots"`
}

// SeriesConfig configures the aggregator. All durations are plain
// milliseconds to match the wire format the dashboard consumes.
type SeriesConfig struct {
	// WindowMs is the chart window. Default: 300000 (five minutes).
	WindowMs int64 `yaml:"window_ms"`

	// BucketMs is the bucket width. Must divide WindowMs.
	// Default: 2000.
	BucketMs int64 `yaml:"bucket_ms"`

	// MessageScanLimit caps messages read per session scan.
	// Default: 200.
	MessageScanLimit int `yaml:"message_scan_limit"`

	// ChildSessionLimit caps followed background sessions.
	// Default: 25.
	ChildSessionLimit int `yaml:"child_session_limit"`
}

// FeedConfig configures the feed builder.
type FeedConfig struct {
	// MessageScanLimit caps messages read per feed build.
	// Default: 200.
	MessageScanLimit int `yaml:"message_scan_limit"`

	// ToolCallLimit caps the feed length. Default: 300.
	ToolCallLimit int `yaml:"tool_call_limit"`
}

// Default returns the default configuration: the standard opencode
// data directory, five-minute window, two-second buckets, and the
// documented scan caps.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Listen: "127.0.0.1:8777",
		Store: StoreConfig{
			DataDir: filepath.Join(homeDir, ".local", "share", "opencode", "storage"),
		},
		Series: SeriesConfig{
			WindowMs:          300000,
			BucketMs:          2000,
			MessageScanLimit:  200,
			ChildSessionLimit: 25,
		},
		Feed: FeedConfig{
			MessageScanLimit: 200,
			ToolCallLimit:    300,
		},
	}
}

// Load loads configuration from OMO_DASHBOARD_CONFIG, falling back to
// Default() when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv("OMO_DASHBOARD_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file, merged over the
// defaults. The file is the single source of truth; environment
// variables do not override its values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the invariants the aggregation engine leaves to its
// callers: positive caps and a bucket width that divides the window.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir must not be empty")
	}
	if c.Series.WindowMs <= 0 || c.Series.BucketMs <= 0 {
		return fmt.Errorf("series window and bucket must be positive, got %d/%d", c.Series.WindowMs, c.Series.BucketMs)
	}
	if c.Series.WindowMs%c.Series.BucketMs != 0 {
		return fmt.Errorf("series bucket_ms %d must divide window_ms %d", c.Series.BucketMs, c.Series.WindowMs)
	}
	if c.Series.MessageScanLimit <= 0 || c.Series.ChildSessionLimit <= 0 {
		return fmt.Errorf("series scan limits must be positive")
	}
	if c.Feed.MessageScanLimit <= 0 || c.Feed.ToolCallLimit <= 0 {
		return fmt.Errorf("feed limits must be positive")
	}
	return nil
}

// expandVariables expands ${HOME} in path fields for portability.
func (c *Config) expandVariables() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return
	}
	expand := func(path string) string {
		return strings.ReplaceAll(path, "${HOME}", homeDir)
	}
	c.Store.DataDir = expand(c.Store.DataDir)
	for i, root := range c.Store.AllowedRoots {
		c.Store.AllowedRoots[i] = expand(root)
	}
}
