// Package config loads the gateway configuration from defaults, an optional
// TOML file and XRPLREST_-prefixed environment variables, in that priority
// order.
package config

import (
	"fmt"
	"time"
)

// Config is the complete gateway configuration.
type Config struct {
	// Listen is the REST listen address.
	Listen string `mapstructure:"listen"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// AllowedOrigins is the CORS allow-list for the REST surface.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	Rippled RippledConfig `mapstructure:"rippled"`
	Journal JournalConfig `mapstructure:"journal"`
}

// RippledConfig describes the upstream node connection.
type RippledConfig struct {
	// URL is the node's WebSocket endpoint.
	URL string `mapstructure:"url"`

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`

	// CallTimeout bounds each command round trip.
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// JournalConfig selects the submission journal backend.
type JournalConfig struct {
	// Enabled turns journaling (and the order lookup endpoint) on.
	Enabled bool `mapstructure:"enabled"`

	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`

	// DSN is the driver-specific data source name.
	DSN string `mapstructure:"dsn"`
}

// Validate checks the configuration for values the daemon cannot start
// with.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Rippled.URL == "" {
		return fmt.Errorf("rippled.url must not be empty")
	}
	if c.Rippled.CallTimeout <= 0 {
		return fmt.Errorf("rippled.call_timeout must be positive, got %s", c.Rippled.CallTimeout)
	}
	if c.Journal.Enabled {
		switch c.Journal.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("journal.driver must be sqlite or postgres, got %q", c.Journal.Driver)
		}
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal.dsn must not be empty")
		}
	}
	return nil
}
