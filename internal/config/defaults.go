package config

const (
	defaultDataDir          = "~/.local/share/lodestone"
	defaultInstancesDir     = "~/.local/share/lodestone/instances"
	defaultLogDir           = "~/.local/share/lodestone/logs"
	defaultSocketPath       = "~/.local/share/lodestone/lodestoned.sock"
	defaultQueuePollSecs    = 5
	defaultErrorRetrySecs   = 10
	defaultNtfyTimeoutSecs  = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultNotifyInstalls   = true
	defaultNotifyQueue      = true
	defaultNotifyErrors     = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			InstancesDir: defaultInstancesDir,
			LogDir:       defaultLogDir,
			SocketPath:   defaultSocketPath,
		},
		Scheduler: Scheduler{
			QueuePollInterval:  defaultQueuePollSecs,
			ErrorRetryInterval: defaultErrorRetrySecs,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeoutSecs,
			Installs:       defaultNotifyInstalls,
			Queue:          defaultNotifyQueue,
			Errors:         defaultNotifyErrors,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
