package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix namespaces every environment key read by Load.
const Prefix = "BARBER"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort       int           `envconfig:"HTTP_PORT" default:"8080"`
	Storage        string        `envconfig:"STORAGE" default:"memory"`
	SQLiteDSN      string        `envconfig:"SQLITE_DSN" default:"file::memory:"`
	TokenSecret    string        `envconfig:"TOKEN_SECRET"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	PasswordScheme string        `envconfig:"PASSWORD_SCHEME" default:"plain"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	RateLimitRPS   float64       `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	Seed           bool          `envconfig:"SEED" default:"true"`

	OTelEnabled     bool    `envconfig:"OTEL_ENABLED" default:"false"`
	OTelEndpoint    string  `envconfig:"OTEL_ENDPOINT" default:"localhost:4317"`
	OTelSampleRatio float64 `envconfig:"OTEL_SAMPLE_RATIO" default:"1"`
}

// Load parses configuration values from the current process environment.
//
// Defaults come from the struct tags. Missing required values and out of range
// values are collected and reported together.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		var parseErr *envconfig.ParseError
		if errors.As(err, &parseErr) {
			return Config{}, fmt.Errorf("invalid environment values: %s", parseErr.KeyName)
		}
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.PasswordScheme = strings.ToLower(strings.TrimSpace(cfg.PasswordScheme))
	cfg.TokenSecret = strings.TrimSpace(cfg.TokenSecret)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and ranges.
func (c Config) Validate() error {
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if c.TokenSecret == "" {
		missing = append(missing, key("TOKEN_SECRET"))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, key("HTTP_PORT"))
	}
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			invalid = append(invalid, key("SQLITE_DSN"))
		}
	default:
		invalid = append(invalid, key("STORAGE"))
	}
	if c.TokenTTL <= 0 {
		invalid = append(invalid, key("TOKEN_TTL"))
	}
	if c.PasswordScheme != "plain" && c.PasswordScheme != "argon2id" {
		invalid = append(invalid, key("PASSWORD_SCHEME"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, key("LOG_LEVEL"))
	}
	if c.RateLimitRPS <= 0 {
		invalid = append(invalid, key("RATE_LIMIT_RPS"))
	}
	if c.RateLimitBurst <= 0 {
		invalid = append(invalid, key("RATE_LIMIT_BURST"))
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		invalid = append(invalid, key("OTEL_SAMPLE_RATIO"))
	}
	if c.OTelEnabled && strings.TrimSpace(c.OTelEndpoint) == "" {
		invalid = append(invalid, key("OTEL_ENDPOINT"))
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func key(name string) string {
	return Prefix + "_" + name
}
