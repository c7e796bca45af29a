// Package server exposes optimization runs as background jobs behind an
// HTTP API, with server-sent progress events and checkpoint persistence.
package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the HTTP server configuration, populated from the
// environment with sensible defaults.
type Config struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DataDir         string        `env:"DATA_DIR" envDefault:"./data"`
}

// LoadConfig reads the server configuration from WDNOPTIM_-prefixed
// environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "WDNOPTIM_"}); err != nil {
		return Config{}, fmt.Errorf("failed to parse server config: %w", err)
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
