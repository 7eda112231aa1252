package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBackend(); err != nil {
		return err
	}
	if err := c.normalizeSession(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() error {
	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")
	if c.Backend.URL == "" {
		if value, ok := os.LookupEnv("CINEFORGE_BACKEND_URL"); ok {
			c.Backend.URL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.Backend.AnonKey = strings.TrimSpace(c.Backend.AnonKey)
	if c.Backend.AnonKey == "" {
		if value, ok := os.LookupEnv("CINEFORGE_ANON_KEY"); ok {
			c.Backend.AnonKey = strings.TrimSpace(value)
		}
	}
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultRequestTimeout
	}
	if c.Backend.RowLimit <= 0 {
		c.Backend.RowLimit = defaultRowLimit
	}
	return nil
}

func (c *Config) normalizeSession() error {
	if strings.TrimSpace(c.Session.Path) == "" {
		c.Session.Path = defaultSessionPath
	}
	expanded, err := expandPath(c.Session.Path)
	if err != nil {
		return fmt.Errorf("session.path: %w", err)
	}
	c.Session.Path = expanded
	return nil
}

func (c *Config) normalizeWatch() {
	if c.Watch.HeartbeatInterval <= 0 {
		c.Watch.HeartbeatInterval = defaultWatchHeartbeatInterval
	}
	if c.Watch.ReconnectAttempts <= 0 {
		c.Watch.ReconnectAttempts = defaultWatchReconnectAttempts
	}
	if c.Watch.EventLogCap <= 0 {
		c.Watch.EventLogCap = defaultWatchEventLogCap
	}
	if c.Watch.RefreshInterval <= 0 {
		c.Watch.RefreshInterval = defaultWatchRefreshInterval
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.DedupWindowSeconds <= 0 {
		c.Notifications.DedupWindowSeconds = defaultNotifyDedupWindow
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
