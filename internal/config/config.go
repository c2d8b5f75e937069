package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel      slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir        string        `env:"SPA_DIR" envDefault:"../web/dist"`
	SessionStore  string        `env:"SESSION_STORE" envDefault:"sqlite"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/cityclicker.db"`
	RedisURL      string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	PurgeInterval time.Duration `env:"PURGE_INTERVAL" envDefault:"10m"`
	CitiesFile    string        `env:"CITIES_FILE"`
	OTelEnabled   bool          `env:"OTEL_ENABLED" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	switch cfg.SessionStore {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.PurgeInterval <= 0 {
		return nil, fmt.Errorf("PURGE_INTERVAL must be positive, got %s", cfg.PurgeInterval)
	}
	return &cfg, nil
}
