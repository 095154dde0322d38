// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the session cookie and database
// DSN go to the OS keychain.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"nlsql/cli/internal/xdg"
)

const (
	DefaultServerURL   = "http://127.0.0.1:5000"
	DefaultIdleTimeout = 60 * time.Second
	DefaultRowLimit    = 200
)

// Config holds non-sensitive CLI settings.
type Config struct {
	ServerURL     string            `yaml:"server_url"`
	ActiveDataset string            `yaml:"active_dataset,omitempty"`
	IdleTimeout   time.Duration     `yaml:"idle_timeout"`
	LogLevel      string            `yaml:"log_level"`
	Endpoints     map[string]string `yaml:"endpoints,omitempty"`
	History       HistoryConfig     `yaml:"history"`
	Exec          ExecConfig        `yaml:"exec"`
}

// HistoryConfig controls the local session history.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ExecConfig controls local execution of generated SQL.
type ExecConfig struct {
	RowLimit int `yaml:"row_limit"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerURL:   DefaultServerURL,
		IdleTimeout: DefaultIdleTimeout,
		LogLevel:    "info",
		History:     HistoryConfig{Enabled: true},
		Exec:        ExecConfig{RowLimit: DefaultRowLimit},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration; missing file returns defaults. NLSQL_SERVER and
// NLSQL_DATASET override the file.
func Load() (Config, error) {
	c := Default()
	p, err := Path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, err
		}
	}
	c.applyEnv()
	c.fillDefaults()
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NLSQL_SERVER"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("NLSQL_DATASET"); v != "" {
		c.ActiveDataset = v
	}
}

func (c *Config) fillDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.Exec.RowLimit <= 0 {
		c.Exec.RowLimit = DefaultRowLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
