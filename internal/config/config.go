// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

// Package config loads service configuration from an optional YAML
// file overlaid with command-line flags.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/aikotoba/aikotoba/internal/xdg"
)

// Config is the full service configuration.
type Config struct {
	Database      DatabaseConfig      `koanf:"database"`
	Token         TokenConfig         `koanf:"token"`
	Sweep         SweepConfig         `koanf:"sweep"`
	Log           LogConfig           `koanf:"log"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	QueryTimeout   time.Duration `koanf:"query_timeout"`
}

// TokenConfig configures token issuance.
type TokenConfig struct {
	// Secret signs access and refresh tokens. Required.
	Secret string `koanf:"secret"`
	// AccessTTL is the access token lifetime.
	AccessTTL time.Duration `koanf:"access_ttl"`
	// RefreshTTL is the refresh token lifetime. Must exceed AccessTTL.
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// SweepConfig configures the expired-token sweeper.
type SweepConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Format is "json" or "text".
	Format string `koanf:"format"`
}

// ObservabilityConfig configures the metrics/health HTTP server.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the configuration defaults. The database URL and
// token secret have no defaults and must be provided.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			ConnectTimeout: 5 * time.Second,
			QueryTimeout:   3 * time.Second,
		},
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		Sweep: SweepConfig{
			Interval: 5 * time.Minute,
		},
		Log: LogConfig{
			Format: "json",
		},
		Observability: ObservabilityConfig{
			Addr: "127.0.0.1:9100",
		},
	}
}

// defaults flattens the configuration into dotted koanf keys.
func (c Config) defaults() map[string]any {
	return map[string]any{
		"database.url":             c.Database.URL,
		"database.connect_timeout": c.Database.ConnectTimeout,
		"database.query_timeout":   c.Database.QueryTimeout,
		"token.secret":             c.Token.Secret,
		"token.access_ttl":         c.Token.AccessTTL,
		"token.refresh_ttl":        c.Token.RefreshTTL,
		"sweep.interval":           c.Sweep.Interval,
		"log.format":               c.Log.Format,
		"observability.addr":       c.Observability.Addr,
	}
}

// Load reads configuration from the YAML file at path and overlays
// values from flags. Flag keys use dots, e.g. --database.url. When
// path is empty, the XDG config file is used if it exists.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	// Seed defaults so the posflag provider can tell an unset flag
	// (key already present, skip) from one the user changed.
	for key, value := range cfg.defaults() {
		if err := k.Set(key, value); err != nil {
			return Config{}, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path == "" {
		if candidate := xdg.ConfigFile(); fileExists(candidate) {
			path = candidate
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}
	return cfg, nil
}

// Validate checks every configuration invariant. Commands that only
// touch the database validate that section alone.
func (c Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Token.Secret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("token.secret is required")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("token TTLs must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return oops.Code("CONFIG_INVALID").
			With("access_ttl", c.Token.AccessTTL).
			With("refresh_ttl", c.Token.RefreshTTL).
			Errorf("token.refresh_ttl must exceed token.access_ttl")
	}
	if c.Sweep.Interval <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("sweep.interval must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Validate checks the database section.
func (d DatabaseConfig) Validate() error {
	if d.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if d.ConnectTimeout <= 0 || d.QueryTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("database timeouts must be positive")
	}
	return nil
}
