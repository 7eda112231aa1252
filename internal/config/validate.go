package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cineforge/config.toml"
		}
		return fmt.Errorf("backend.url is required. Set CINEFORGE_BACKEND_URL env var or edit %s (create with 'cineforge config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Backend.URL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("backend.url %q is not a valid URL", c.Backend.URL)
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("backend.url must use http or https, got %q", parsed.Scheme)
	}
	if c.Backend.AnonKey == "" {
		return errors.New("backend.anon_key is required. Set CINEFORGE_ANON_KEY env var or add it to the config file")
	}
	return nil
}

func (c *Config) validateWatch() error {
	for name, value := range map[string]int{
		"watch.heartbeat_interval": c.Watch.HeartbeatInterval,
		"watch.reconnect_attempts": c.Watch.ReconnectAttempts,
		"watch.event_log_cap":      c.Watch.EventLogCap,
		"watch.refresh_interval":   c.Watch.RefreshInterval,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}
