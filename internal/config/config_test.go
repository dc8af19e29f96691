package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults("test")

	assert.Equal(t, "http://localhost:8123", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, "transfer", cfg.Scope)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.Backoff)
	assert.Equal(t, 30*time.Second, cfg.MaxBackoff)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("BANKING_API_URL", "https://bank.example.com")
	t.Setenv("BANKING_API_TIMEOUT", "3s")
	t.Setenv("BANKING_MAX_RETRIES", "5")
	t.Setenv("BANKING_SCOPE", "enquiry")

	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "https://bank.example.com", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "enquiry", cfg.Scope)
}

func TestLoadFilePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"baseUrl: http://file.example:9000\ntimeout: 7s\nmaxRetries: 1\n"), 0o600))

	// File beats defaults.
	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, "http://file.example:9000", cfg.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.MaxRetries)

	// Env beats file.
	t.Setenv("BANKING_API_URL", "http://env.example:9001")
	cfg, err = NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env.example:9001", cfg.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
}

func TestLoadAutoConfigFromDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BANKING_DATA", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("username: bob\n"), 0o600))

	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Username)
}

func TestLoadRejectsUnknownFileKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogusKey: 1\n"), 0o600))

	_, err := NewLoader(path, "test").Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidFileDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: soon\n"), 0o600))

	_, err := NewLoader(path, "test").Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"missing scheme", func(c *Config) { c.BaseURL = "localhost:8123" }, true},
		{"ftp scheme", func(c *Config) { c.BaseURL = "ftp://host" }, true},
		{"missing host", func(c *Config) { c.BaseURL = "http://" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"unknown scope", func(c *Config) { c.Scope = "admin" }, true},
		{"sampling above one", func(c *Config) { c.OTELSampling = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults("test")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
