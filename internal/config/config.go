// Package config loads server configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmtabletop/encounter-api/internal/errors"
)

// Config holds the server configuration
type Config struct {
	// HTTPAddress is the listen address for the API and websocket feed.
	HTTPAddress string `env:"HTTP_ADDR" envDefault:":8080"`

	// RedisAddress is the host:port of the backing Redis.
	RedisAddress string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// SRDBaseURL overrides the SRD API endpoint. Empty uses the public API.
	SRDBaseURL string `env:"SRD_BASE_URL"`

	// SRDCacheTTL bounds staleness of cached SRD responses.
	SRDCacheTTL time.Duration `env:"SRD_CACHE_TTL" envDefault:"24h"`

	// ShutdownTimeout bounds graceful shutdown on SIGTERM.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	return cfg, nil
}
