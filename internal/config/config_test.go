// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikotoba/aikotoba/internal/config"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database.url", "", "")
	flags.Duration("database.connect_timeout", 0, "")
	flags.Duration("database.query_timeout", 0, "")
	flags.String("token.secret", "", "")
	flags.Duration("token.access_ttl", 0, "")
	flags.Duration("token.refresh_ttl", 0, "")
	flags.Duration("sweep.interval", 0, "")
	flags.String("log.format", "", "")
	flags.String("observability.addr", "", "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load("", testFlags(t))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, 5*time.Minute, cfg.Sweep.Interval)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:9100", cfg.Observability.Addr)
}

func TestLoad_File(t *testing.T) {
	path := writeConfigFile(t, `
database:
  url: postgres://localhost:5432/aikotoba
token:
  secret: file-secret
  access_ttl: 30m
log:
  format: text
`)

	cfg, err := config.Load(path, testFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/aikotoba", cfg.Database.URL)
	assert.Equal(t, "file-secret", cfg.Token.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, "text", cfg.Log.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, 24*time.Hour, cfg.Token.RefreshTTL)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
database:
  url: postgres://file-host:5432/aikotoba
token:
  secret: file-secret
`)

	flags := testFlags(t,
		"--database.url", "postgres://flag-host:5432/aikotoba",
		"--token.access_ttl", "10m",
	)

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "postgres://flag-host:5432/aikotoba", cfg.Database.URL)
	assert.Equal(t, 10*time.Minute, cfg.Token.AccessTTL)
	// File value survives where no flag was set.
	assert.Equal(t, "file-secret", cfg.Token.Secret)
}

func TestLoad_XDGFallback(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "aikotoba")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("token:\n  secret: xdg-secret\n"), 0o600))

	cfg, err := config.Load("", testFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "xdg-secret", cfg.Token.Secret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/does/not/exist.yaml", testFlags(t))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.Database.URL = "postgres://localhost:5432/aikotoba"
		cfg.Token.Secret = "secret"
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "missing database url",
			mutate: func(c *config.Config) { c.Database.URL = "" },
			want:   "database.url is required",
		},
		{
			name:   "missing token secret",
			mutate: func(c *config.Config) { c.Token.Secret = "" },
			want:   "token.secret is required",
		},
		{
			name:   "zero access ttl",
			mutate: func(c *config.Config) { c.Token.AccessTTL = 0 },
			want:   "TTLs must be positive",
		},
		{
			name:   "refresh not past access",
			mutate: func(c *config.Config) { c.Token.RefreshTTL = c.Token.AccessTTL },
			want:   "token.refresh_ttl must exceed token.access_ttl",
		},
		{
			name:   "zero sweep interval",
			mutate: func(c *config.Config) { c.Sweep.Interval = 0 },
			want:   "sweep.interval must be positive",
		},
		{
			name:   "bad log format",
			mutate: func(c *config.Config) { c.Log.Format = "xml" },
			want:   "log.format must be json or text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDatabaseConfig_Validate(t *testing.T) {
	db := config.Default().Database
	db.URL = "postgres://localhost:5432/aikotoba"
	assert.NoError(t, db.Validate())

	db.URL = ""
	assert.Error(t, db.Validate())
}
