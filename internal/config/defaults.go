package config

const (
	defaultDataDir                = "~/.local/share/cineforge"
	defaultLogDir                 = "~/.local/share/cineforge/logs"
	defaultSessionPath            = "~/.config/cineforge/session.json"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultRequestTimeout         = 30
	defaultRowLimit               = 200
	defaultWatchHeartbeatInterval = 25
	defaultWatchReconnectAttempts = 3
	defaultWatchEventLogCap       = 100
	defaultWatchRefreshInterval   = 60
	defaultNotifyRequestTimeout   = 10
	defaultNotifyDedupWindow      = 600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			RequestTimeout: defaultRequestTimeout,
			RowLimit:       defaultRowLimit,
		},
		Session: Session{
			Path: defaultSessionPath,
		},
		Watch: Watch{
			HeartbeatInterval: defaultWatchHeartbeatInterval,
			ReconnectAttempts: defaultWatchReconnectAttempts,
			EventLogCap:       defaultWatchEventLogCap,
			RefreshInterval:   defaultWatchRefreshInterval,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			ProjectCompleted:   true,
			ProjectFailed:      true,
			StitchTriggered:    true,
			DedupWindowSeconds: defaultNotifyDedupWindow,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
