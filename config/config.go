// Package config loads service settings from BEARERAUTH_* environment
// variables and the optional YAML route policy file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/jonwraymond/bearerauth/auth"
	"github.com/jonwraymond/bearerauth/observe"
	"github.com/jonwraymond/bearerauth/secret"
)

// ServiceName identifies the service in telemetry.
const ServiceName = "bearerauthd"

// Config is the process configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"BEARERAUTH_ADDR,default=:8080"`

	// SigningKey is the HMAC key. A value starting with "secretref:" is
	// resolved through a provider; anything else is used byte for byte.
	SigningKey string `env:"BEARERAUTH_SIGNING_KEY"`

	// SigningAlgorithm is HS256, HS384, or HS512.
	SigningAlgorithm string `env:"BEARERAUTH_SIGNING_ALGORITHM,default=HS256"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `env:"BEARERAUTH_TOKEN_TTL,default=24h"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"BEARERAUTH_SHUTDOWN_TIMEOUT,default=10s"`

	// PolicyFile replaces the built-in route policy when set.
	PolicyFile string `env:"BEARERAUTH_POLICY_FILE"`

	// DatabaseDSN selects the PostgreSQL member store. Empty uses memory.
	DatabaseDSN string `env:"BEARERAUTH_DATABASE_DSN"`

	// AdminUsername and AdminPassword seed an administrator at startup.
	AdminUsername string `env:"BEARERAUTH_ADMIN_USERNAME,default=admin"`
	AdminPassword string `env:"BEARERAUTH_ADMIN_PASSWORD"`

	Database  DatabaseConfig
	Login     LoginConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig bounds calls to the PostgreSQL member store.
type DatabaseConfig struct {
	Timeout         time.Duration `env:"BEARERAUTH_DB_TIMEOUT,default=3s"`
	BreakerFailures int           `env:"BEARERAUTH_DB_BREAKER_FAILURES,default=5"`
	BreakerReset    time.Duration `env:"BEARERAUTH_DB_BREAKER_RESET,default=30s"`
}

// LoginConfig rate limits the login endpoint per client.
type LoginConfig struct {
	Rate  float64 `env:"BEARERAUTH_LOGIN_RATE,default=1"`
	Burst int     `env:"BEARERAUTH_LOGIN_BURST,default=5"`
}

// LogConfig configures logging. A File enables size-based rotation.
type LogConfig struct {
	Level      string `env:"BEARERAUTH_LOG_LEVEL,default=info"`
	File       string `env:"BEARERAUTH_LOG_FILE"`
	MaxSizeMB  int    `env:"BEARERAUTH_LOG_MAX_SIZE_MB,default=100"`
	MaxBackups int    `env:"BEARERAUTH_LOG_MAX_BACKUPS,default=5"`
	MaxAgeDays int    `env:"BEARERAUTH_LOG_MAX_AGE_DAYS,default=28"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	TracingExporter string  `env:"BEARERAUTH_TRACING_EXPORTER,default=none"`
	SampleRatio     float64 `env:"BEARERAUTH_TRACING_SAMPLE_RATIO,default=1"`
	MetricsExporter string  `env:"BEARERAUTH_METRICS_EXPORTER,default=none"`

	// MetricsAddr serves /metrics when MetricsExporter is prometheus.
	MetricsAddr string `env:"BEARERAUTH_METRICS_ADDR,default=:9090"`
}

// Load decodes the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validAlgorithms = []string{"HS256", "HS384", "HS512"}

// Validate checks values that envdecode cannot.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SigningKey) == "" {
		errs = append(errs, fmt.Errorf("config: BEARERAUTH_SIGNING_KEY: %w", auth.ErrMissingSigningKey))
	}
	if !slices.Contains(validAlgorithms, c.SigningAlgorithm) {
		errs = append(errs, fmt.Errorf("config: BEARERAUTH_SIGNING_ALGORITHM %q is not one of %v", c.SigningAlgorithm, validAlgorithms))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("config: BEARERAUTH_TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.DatabaseDSN != "" && (c.Database.Timeout <= 0 || c.Database.BreakerFailures <= 0 || c.Database.BreakerReset <= 0) {
		errs = append(errs, errors.New("config: database timeout and breaker settings must be positive"))
	}
	if c.Login.Rate <= 0 || c.Login.Burst <= 0 {
		errs = append(errs, errors.New("config: login rate and burst must be positive"))
	}
	if c.AdminPassword != "" && strings.TrimSpace(c.AdminUsername) == "" {
		errs = append(errs, errors.New("config: BEARERAUTH_ADMIN_USERNAME is required with BEARERAUTH_ADMIN_PASSWORD"))
	}
	obs := c.Observe("", io.Discard)
	if err := obs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	return errors.Join(errs...)
}

// ResolveSigningKey returns the signing key. Only secretref values go through
// resolver; literal keys are never environment-expanded.
func (c *Config) ResolveSigningKey(ctx context.Context, resolver *secret.Resolver) ([]byte, error) {
	if _, _, ok := secret.ParseSecretRef(c.SigningKey); !ok {
		if c.SigningKey == "" {
			return nil, auth.ErrMissingSigningKey
		}
		return []byte(c.SigningKey), nil
	}
	key, err := resolver.ResolveRef(ctx, c.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("config: resolve signing key: %w", err)
	}
	if key == "" {
		return nil, auth.ErrMissingSigningKey
	}
	return []byte(key), nil
}

// Observe builds the observer configuration. Logs go to out.
func (c *Config) Observe(version string, out io.Writer) observe.Config {
	return observe.Config{
		ServiceName: ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.TracingExporter != "none",
			Exporter:  c.Telemetry.TracingExporter,
			SamplePct: c.Telemetry.SampleRatio,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.MetricsExporter != "none",
			Exporter: c.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Log.Level,
			Output:  out,
		},
	}
}
