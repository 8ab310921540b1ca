package rehydrate

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultStorageKey prefixes every persisted slice key.
const DefaultStorageKey = "rehydrate"

// Config holds the environment-driven settings. Options passed to New take
// precedence over values applied through WithConfig when given after it.
type Config struct {
	StorageKey string `env:"REHYDRATE_STORAGE_KEY" envDefault:"rehydrate"`
	Version    int    `env:"REHYDRATE_VERSION"     envDefault:"0"`
	LogLevel   string `env:"REHYDRATE_LOG_LEVEL"   envDefault:"warn"`
	// ActivityChannel is stamped on lifecycle events.
	ActivityChannel string `env:"REHYDRATE_ACTIVITY_CHANNEL" envDefault:"rehydrate"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("rehydrate: parse env: %w", err)
	}
	return cfg, nil
}
