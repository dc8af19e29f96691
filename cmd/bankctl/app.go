package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/choiwab/julius-baer-side-quest/internal/audit"
	"github.com/choiwab/julius-baer-side-quest/internal/banking"
	"github.com/choiwab/julius-baer-side-quest/internal/config"
	"github.com/choiwab/julius-baer-side-quest/internal/log"
	"github.com/choiwab/julius-baer-side-quest/internal/telemetry"
	"github.com/choiwab/julius-baer-side-quest/internal/tokencache"
)

// commonFlags are accepted by every subcommand that talks to the API.
type commonFlags struct {
	url     string
	timeout time.Duration
	config  string
	noAuth  bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.url, "url", "", "banking API base URL (overrides config)")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-request timeout (overrides config)")
	fs.StringVar(&f.config, "config", "", "path to config file (YAML)")
	fs.BoolVar(&f.noAuth, "no-auth", false, "skip bearer-token authentication where optional")
}

// app bundles everything a subcommand needs to run one operation.
type app struct {
	cfg      config.Config
	client   *banking.Client
	cache    *tokencache.Cache
	logger   zerolog.Logger
	shutdown func(context.Context) error
}

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return strings.TrimSuffix(parsedURL.String(), "/")
}

// resolveConfigPath prefers the explicit --config flag, then an existing
// config.yaml under the data directory.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(config.ParseString("BANKING_DATA", config.DefaultDataDir()))
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

// newApp loads configuration, configures logging and telemetry and builds
// the API client with any cached token restored.
func newApp(ctx context.Context, flags commonFlags) (*app, error) {
	loader := config.NewLoader(resolveConfigPath(flags.config), version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	// Flags win over both environment and file.
	if flags.url != "" {
		cfg.BaseURL = flags.url
	}
	if flags.timeout > 0 {
		cfg.Timeout = flags.timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger := log.WithComponent("cli")

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.OTELExporter,
		Endpoint:       cfg.OTELEndpoint,
		SamplingRate:   cfg.OTELSampling,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	client := banking.New(cfg.BaseURL, banking.Options{
		Timeout:          cfg.Timeout,
		MaxRetries:       cfg.MaxRetries,
		Backoff:          cfg.Backoff,
		MaxBackoff:       cfg.MaxBackoff,
		RateLimit:        rate.Limit(cfg.RateLimit),
		RateBurst:        cfg.RateBurst,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerReset:     cfg.BreakerReset,
		Username:         cfg.Username,
		Password:         cfg.Password,
		UserAgent:        "bankctl/" + version,
	})

	cache := tokencache.New(cfg.DataDir)
	if state, ok, err := cache.Load(); err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "token.cache_read_failed").Msg("ignoring token cache")
	} else if ok {
		client.RestoreToken(state)
		logger.Debug().
			Str(log.FieldEvent, "token.restored").
			Str(log.FieldScope, state.Scope).
			Msg("reusing cached token")
	}

	logger.Debug().
		Str(log.FieldEvent, "client.ready").
		Str(log.FieldBaseURL, maskURL(cfg.BaseURL)).
		Msg("API client configured")

	return &app{
		cfg:      cfg,
		client:   client,
		cache:    cache,
		logger:   logger,
		shutdown: provider.Shutdown,
	}, nil
}

// close persists the current token and releases resources. Cache failures
// are logged but never turn a successful command into a failure.
func (a *app) close(ctx context.Context) {
	if snap := a.client.TokenSnapshot(); snap.Valid(time.Now()) {
		if err := a.cache.Save(snap); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "token.cache_write_failed").Msg("could not persist token")
		}
	}
	a.client.Close()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Debug().Err(err).Msg("telemetry shutdown")
	}
}

// openJournal opens the audit journal under the data directory. A nil
// journal means journaling is unavailable; callers treat that as non-fatal.
func (a *app) openJournal() *audit.Journal {
	path := filepath.Join(a.cfg.DataDir, "audit.db")
	if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "audit.unavailable").Msg("audit journal disabled")
		return nil
	}
	j, err := audit.Open(path)
	if err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "audit.unavailable").Msg("audit journal disabled")
		return nil
	}
	return j
}

// exit codes shared by all subcommands.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitCodeFor maps an operation error to a process exit code. Local
// validation problems are usage errors; everything else is a runtime
// failure.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	if banking.IsValidation(err) {
		return exitUsage
	}
	return exitFailure
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitCodeFor(err)
}
