package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config is the server configuration read from WORDUEL_* environment variables
type Config struct {
	Host string `env:"WORDUEL_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"WORDUEL_PORT" envDefault:"8080"`

	Storage     string `env:"WORDUEL_STORAGE"      envDefault:"memory"`
	RedisURL    string `env:"WORDUEL_REDIS_URL"`
	DatabaseURL string `env:"WORDUEL_DATABASE_URL"`
	Migrate     bool   `env:"WORDUEL_MIGRATE"      envDefault:"true"`

	JWTSecret     string `env:"WORDUEL_JWT_SECRET"`
	AutoProvision bool   `env:"WORDUEL_AUTO_PROVISION" envDefault:"true"`

	TargetsFile string `env:"WORDUEL_TARGETS_FILE"`
	AllowedFile string `env:"WORDUEL_ALLOWED_FILE"`

	LogLevel     string `env:"WORDUEL_LOG_LEVEL"     envDefault:"info"`
	OTelEndpoint string `env:"WORDUEL_OTEL_ENDPOINT"`

	RevealDelay       time.Duration `env:"WORDUEL_REVEAL_DELAY"       envDefault:"1s"`
	IntermissionDelay time.Duration `env:"WORDUEL_INTERMISSION_DELAY" envDefault:"3500ms"`
	DecisiveDelay     time.Duration `env:"WORDUEL_DECISIVE_DELAY"     envDefault:"4s"`
	SprintDuration    time.Duration `env:"WORDUEL_SPRINT_DURATION"    envDefault:"5m"`
	Retention         time.Duration `env:"WORDUEL_RETENTION"          envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"WORDUEL_SHUTDOWN_TIMEOUT"   envDefault:"10s"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements env tags cannot express
func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("WORDUEL_JWT_SECRET is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("WORDUEL_PORT %d out of range", c.Port))
	}

	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("WORDUEL_REDIS_URL required when WORDUEL_STORAGE=redis"))
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("WORDUEL_DATABASE_URL required when WORDUEL_STORAGE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown WORDUEL_STORAGE %q", c.Storage))
	}

	if c.AllowedFile != "" && c.TargetsFile == "" {
		errs = append(errs, errors.New("WORDUEL_ALLOWED_FILE requires WORDUEL_TARGETS_FILE"))
	}

	for name, d := range map[string]time.Duration{
		"WORDUEL_REVEAL_DELAY":       c.RevealDelay,
		"WORDUEL_INTERMISSION_DELAY": c.IntermissionDelay,
		"WORDUEL_DECISIVE_DELAY":     c.DecisiveDelay,
		"WORDUEL_SPRINT_DURATION":    c.SprintDuration,
		"WORDUEL_RETENTION":          c.Retention,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.SprintDuration == 0 {
		errs = append(errs, errors.New("WORDUEL_SPRINT_DURATION must be positive"))
	}

	return errors.Join(errs...)
}

// Addr returns host:port
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
