package log

import "fmt"

// LogCfg represents logging configuration for metric publishing pipelines.
// It provides configuration options for both synchronous and asynchronous
// logging, file rotation strategies, and output destinations suitable for
// long-running instrumented services.
type LogCfg struct {
	// LogPath specifies the target log file path for file-based logging.
	LogPath string `mapstructure:"path"`

	// LogLevel defines the minimum log level for filtering log entries.
	// Supports hot-reload without service restart.
	LogLevel Level `mapstructure:"level"`

	// FileSplitMB determines the file rotation threshold in megabytes.
	// When the log file exceeds this size, rotation creates a new file.
	FileSplitMB int `mapstructure:"splitmb"`

	// IsAsync enables asynchronous log writing to keep logging off the
	// caller's request path.
	IsAsync bool `mapstructure:"isasync"`

	// AsyncCacheSize limits the maximum buffered log entries in async mode.
	// Entries beyond the limit are dropped rather than blocking the caller.
	AsyncCacheSize int `mapstructure:"asynccachesize"`

	// AsyncWriteMillSec defines the async write interval in milliseconds.
	AsyncWriteMillSec int `mapstructure:"asyncwritemillsec"`

	// CallerSkip specifies the number of stack frames to skip for caller
	// information. Useful for wrapper functions.
	CallerSkip int `mapstructure:"callerSkip"`

	// FileAppender enables file-based logging output.
	FileAppender bool `mapstructure:"fileAppender"`

	// ConsoleAppender enables console (stdout) logging output.
	ConsoleAppender bool `mapstructure:"consoleAppender"`

	// LevelChange enables fine-grained log level control for specific code
	// locations without a service restart.
	LevelChange []LevelChangeEntry `mapstructure:"levelChange"`

	EnabledCallerInfo bool `mapstructure:"enabledCallerInfo"`
}

// GetName returns the configuration name used by the config manager.
func (cfg *LogCfg) GetName() string {
	return "logger"
}

// Validate validates the logging configuration parameters.
func (cfg *LogCfg) Validate() error {
	if cfg.FileAppender && cfg.LogPath == "" {
		return fmt.Errorf("path is required when fileAppender is enabled")
	}
	if cfg.FileSplitMB < 0 {
		return fmt.Errorf("splitmb cannot be negative")
	}
	if cfg.AsyncCacheSize < 0 {
		return fmt.Errorf("asynccachesize cannot be negative")
	}
	return nil
}

var _defaultCfg = &LogCfg{
	LogPath:         "./cloudmetrics.log",
	LogLevel:        DebugLevel, // Default log level
	FileSplitMB:     50,
	IsAsync:         true,
	CallerSkip:      1,
	FileAppender:    false,
	ConsoleAppender: true,
}

func getDefaultCfg() *LogCfg {
	return _defaultCfg
}
