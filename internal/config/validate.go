package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/dreo-ws/internal/auth"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if auth.CleanToken(c.Session.AccessToken) == "" {
		return errors.New("session.access_token is required")
	}

	if n := strings.Count(c.Endpoint.WSBaseURL, "%s"); n != 1 {
		return fmt.Errorf("endpoint.ws_base_url must contain exactly one %%s, got %d", n)
	}
	if n := strings.Count(c.Endpoint.LoginPath, "%s"); n != 2 {
		return fmt.Errorf("endpoint.login_path must contain exactly two %%s, got %d", n)
	}
	if c.Endpoint.UserAgent == "" {
		return errors.New("endpoint.user_agent is required")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"connection.handshake_timeout", c.Connection.HandshakeTimeout},
		{"connection.ping_interval", c.Connection.PingInterval},
		{"connection.ping_timeout", c.Connection.PingTimeout},
		{"connection.disconnect_timeout", c.Connection.DisconnectTimeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", d.name, d.value)
		}
	}
	if c.Connection.ReadLimit < 0 {
		return fmt.Errorf("connection.read_limit must be >= 0, got %d", c.Connection.ReadLimit)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 0 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}
