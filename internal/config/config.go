// Package config provides configuration management for bankctl.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the effective runtime configuration. It is resolved once per
// invocation with precedence ENV > file > defaults and then treated as
// immutable.
type Config struct {
	// API settings
	BaseURL string
	Timeout time.Duration

	// Authentication settings
	Username string
	Password string
	Scope    string

	// Retry settings
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration

	// Rate limit settings
	RateLimit int
	RateBurst int

	// Circuit breaker settings
	BreakerThreshold int
	BreakerReset     time.Duration

	// Local state directory (token cache, audit journal)
	DataDir string

	// Logging
	LogLevel   string
	LogService string

	// Telemetry
	OTELEnabled  bool
	OTELExporter string
	OTELEndpoint string
	OTELSampling float64

	Version string
}

// FileConfig represents the optional YAML configuration file.
type FileConfig struct {
	BaseURL  string `yaml:"baseUrl,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"` // e.g. "10s"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Scope    string `yaml:"scope,omitempty"`

	MaxRetries *int   `yaml:"maxRetries,omitempty"`
	Backoff    string `yaml:"backoff,omitempty"`    // e.g. "1s"
	MaxBackoff string `yaml:"maxBackoff,omitempty"` // e.g. "30s"

	RateLimit *int `yaml:"rateLimit,omitempty"` // requests/sec
	RateBurst *int `yaml:"rateBurst,omitempty"`

	BreakerThreshold *int   `yaml:"breakerThreshold,omitempty"`
	BreakerReset     string `yaml:"breakerReset,omitempty"`

	DataDir  string `yaml:"dataDir,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`
}

const (
	defaultBaseURL          = "http://localhost:8123"
	defaultTimeout          = 10 * time.Second
	defaultUsername         = "alice"
	defaultPassword         = "secret"
	defaultScope            = "transfer"
	defaultMaxRetries       = 3
	defaultBackoff          = 1 * time.Second
	defaultMaxBackoff       = 30 * time.Second
	defaultRateLimit        = 10
	defaultRateBurst        = 20
	defaultBreakerThreshold = 5
	defaultBreakerReset     = 30 * time.Second
)

// DefaultDataDir resolves the default local state directory.
func DefaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".bankctl")
	}
	return ".bankctl"
}

// Defaults returns a Config populated entirely with built-in defaults.
func Defaults(version string) Config {
	return Config{
		BaseURL:          defaultBaseURL,
		Timeout:          defaultTimeout,
		Username:         defaultUsername,
		Password:         defaultPassword,
		Scope:            defaultScope,
		MaxRetries:       defaultMaxRetries,
		Backoff:          defaultBackoff,
		MaxBackoff:       defaultMaxBackoff,
		RateLimit:        defaultRateLimit,
		RateBurst:        defaultRateBurst,
		BreakerThreshold: defaultBreakerThreshold,
		BreakerReset:     defaultBreakerReset,
		DataDir:          DefaultDataDir(),
		LogLevel:         "info",
		LogService:       "bankctl",
		OTELExporter:     "grpc",
		OTELSampling:     1.0,
		Version:          version,
	}
}

// Loader resolves configuration with precedence ENV > File > Defaults.
type Loader struct {
	path    string
	version string
}

// NewLoader creates a Loader. path may be empty, in which case
// $BANKING_DATA/config.yaml is auto-loaded when it exists.
func NewLoader(path, version string) *Loader {
	return &Loader{path: path, version: version}
}

// Load resolves the effective configuration.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults(l.version)

	path := strings.TrimSpace(l.path)
	if path == "" {
		auto := filepath.Join(ParseString("BANKING_DATA", cfg.DataDir), "config.yaml")
		if _, err := os.Stat(auto); err == nil {
			path = auto
		}
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-provided
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.Username != "" {
		cfg.Username = fc.Username
	}
	if fc.Password != "" {
		cfg.Password = fc.Password
	}
	if fc.Scope != "" {
		cfg.Scope = fc.Scope
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.RateLimit != nil {
		cfg.RateLimit = *fc.RateLimit
	}
	if fc.RateBurst != nil {
		cfg.RateBurst = *fc.RateBurst
	}
	if fc.BreakerThreshold != nil {
		cfg.BreakerThreshold = *fc.BreakerThreshold
	}

	for _, d := range []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{fc.Timeout, "timeout", &cfg.Timeout},
		{fc.Backoff, "backoff", &cfg.Backoff},
		{fc.MaxBackoff, "maxBackoff", &cfg.MaxBackoff},
		{fc.BreakerReset, "breakerReset", &cfg.BreakerReset},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: invalid %s %q: %w", path, d.name, d.raw, err)
		}
		*d.dst = parsed
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.BaseURL = ParseString("BANKING_API_URL", cfg.BaseURL)
	cfg.Timeout = ParseDuration("BANKING_API_TIMEOUT", cfg.Timeout)
	cfg.Username = ParseString("BANKING_USERNAME", cfg.Username)
	cfg.Password = ParseString("BANKING_PASSWORD", cfg.Password)
	cfg.Scope = ParseString("BANKING_SCOPE", cfg.Scope)
	cfg.MaxRetries = ParseInt("BANKING_MAX_RETRIES", cfg.MaxRetries)
	cfg.Backoff = ParseDuration("BANKING_BACKOFF", cfg.Backoff)
	cfg.MaxBackoff = ParseDuration("BANKING_MAX_BACKOFF", cfg.MaxBackoff)
	cfg.RateLimit = ParseInt("BANKING_RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = ParseInt("BANKING_RATE_BURST", cfg.RateBurst)
	cfg.BreakerThreshold = ParseInt("BANKING_BREAKER_THRESHOLD", cfg.BreakerThreshold)
	cfg.BreakerReset = ParseDuration("BANKING_BREAKER_RESET", cfg.BreakerReset)
	cfg.DataDir = ParseString("BANKING_DATA", cfg.DataDir)
	cfg.LogLevel = ParseString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("LOG_SERVICE", cfg.LogService)
	cfg.OTELEnabled = ParseBool("BANKING_OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELExporter = ParseString("BANKING_OTEL_EXPORTER", cfg.OTELExporter)
	cfg.OTELEndpoint = ParseString("BANKING_OTEL_ENDPOINT", cfg.OTELEndpoint)
	cfg.OTELSampling = ParseFloat("BANKING_OTEL_SAMPLING", cfg.OTELSampling)
}

// Validate checks the resolved configuration for internal consistency.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.Scope != "transfer" && c.Scope != "enquiry" {
		return fmt.Errorf("scope must be %q or %q, got %q", "transfer", "enquiry", c.Scope)
	}
	if c.OTELSampling < 0 || c.OTELSampling > 1 {
		return fmt.Errorf("telemetry sampling rate must be in [0,1], got %v", c.OTELSampling)
	}
	return nil
}
