package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends selectable via STORE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"foodforward_super_secret_2024"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"foodforward.db"`
	MongoURI     string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB      string `env:"MONGO_DB" envDefault:"foodforward"`

	// 0 disables the background expiry sweep.
	ExpirySweepInterval time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"10m"`

	// Auth endpoint rate limiting (per client IP).
	AuthRatePerMinute int `env:"AUTH_RATE_PER_MINUTE" envDefault:"30"`
	AuthRateBurst     int `env:"AUTH_RATE_BURST" envDefault:"10"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.StoreBackend {
	case BackendSQLite, BackendMongo, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want sqlite, mongo or memory)", cfg.StoreBackend)
	}
	return cfg, nil
}

// SecretBytes returns the JWT signing key.
func (c *Config) SecretBytes() []byte {
	return []byte(c.JWTSecret)
}
