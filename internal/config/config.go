package config

import (
	"log/slog"
	"time"

	"github.com/rickgao/dreo-ws/internal/connection"
)

// Config is the root configuration for a Dreo WebSocket client.
type Config struct {
	Session    SessionConfig    `yaml:"session"`
	Endpoint   EndpointConfig   `yaml:"endpoint"`
	Connection ConnectionConfig `yaml:"connection"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// SessionConfig holds the credential the session logs in with.
type SessionConfig struct {
	AccessToken string `yaml:"access_token"` // May carry a ":EU" style region suffix
}

// EndpointConfig holds the URL templates and user agent.
type EndpointConfig struct {
	WSBaseURL string `yaml:"ws_base_url"` // One %s for the region code
	LoginPath string `yaml:"login_path"`  // %s for the token, %s for the timestamp
	UserAgent string `yaml:"user_agent"`
}

// ConnectionConfig holds WebSocket run loop settings.
type ConnectionConfig struct {
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	PingInterval      time.Duration `yaml:"ping_interval"` // 0 disables keepalive pings
	PingTimeout       time.Duration `yaml:"ping_timeout"`  // 0 disables the read deadline
	ReadLimit         int64         `yaml:"read_limit"`
	DisconnectTimeout time.Duration `yaml:"disconnect_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"` // 0 disables the metrics server
	Path string `yaml:"path"`
}

// Endpoints returns the endpoint section in the form the session expects.
func (c *Config) Endpoints() connection.Endpoints {
	return connection.Endpoints{
		WSBaseURL: c.Endpoint.WSBaseURL,
		LoginPath: c.Endpoint.LoginPath,
		UserAgent: c.Endpoint.UserAgent,
	}
}

// RunOptions returns the run loop options for Session.Connect.
func (c *Config) RunOptions() connection.RunOptions {
	return connection.RunOptions{
		HandshakeTimeout: c.Connection.HandshakeTimeout,
		PingInterval:     c.Connection.PingInterval,
		PingTimeout:      c.Connection.PingTimeout,
		ReadLimit:        c.Connection.ReadLimit,
	}
}

// LogLevel returns the configured slog level.
// Validate rejects unknown levels; an unparsable level here falls back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
