package config

import (
	"time"

	"github.com/rickgao/dreo-ws/internal/connection"
)

// Default values for optional configuration fields.
const (
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultDisconnectTimeout = connection.DefaultDisconnectTimeout
	DefaultLogLevel          = "info"
	DefaultMetricsPath       = "/metrics"
)

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	endpoints := connection.DefaultEndpoints()

	// Endpoint defaults
	if c.Endpoint.WSBaseURL == "" {
		c.Endpoint.WSBaseURL = endpoints.WSBaseURL
	}
	if c.Endpoint.LoginPath == "" {
		c.Endpoint.LoginPath = endpoints.LoginPath
	}
	if c.Endpoint.UserAgent == "" {
		c.Endpoint.UserAgent = endpoints.UserAgent
	}

	// Connection defaults
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.DisconnectTimeout == 0 {
		c.Connection.DisconnectTimeout = DefaultDisconnectTimeout
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
