package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ストレージドライバ
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"layershowcase.db"`

	// Server
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Rate Limit (req/min/client)
	RateLimitGeneral int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Seed
	SeedFile string `env:"SEED_FILE"`
}

// Load は環境変数からConfigを読み込む。
// 値の形式が不正な場合、またはドライバに必要な値が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty when STORAGE_DRIVER=%s", DriverSQLite)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("required environment variables are not set: [DATABASE_URL]")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q (want %s, %s or %s)",
			c.StorageDriver, DriverMemory, DriverSQLite, DriverPostgres)
	}

	if c.RateLimitGeneral <= 0 {
		return fmt.Errorf("RATE_LIMIT_GENERAL must be positive, got %d", c.RateLimitGeneral)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
