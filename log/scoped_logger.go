package log

import "sync"

// ScopedLogger decorates a CoreLogger so every event carries a fixed
// "component" field identifying the pipeline stage that produced it.
// It keeps all standard CoreLogger functionality, including appender
// management and hot-reload, while making log lines from the aggregation
// worker, the uploader, and the config layer easy to tell apart.
type ScopedLogger struct {
	*CoreLogger
	component string
}

// NewScopedLogger creates a logger whose events are tagged with the given
// component name. If cfg is nil, default configuration values are used.
func NewScopedLogger(cfg *LogCfg, component string) *ScopedLogger {
	if cfg == nil {
		cfg = getDefaultCfg()
	}

	logger := &CoreLogger{
		minLevel:          cfg.LogLevel,
		callerSkip:        cfg.CallerSkip,
		levelChange:       newLevelChange(cfg.LevelChange),
		enabledCallerInfo: cfg.EnabledCallerInfo,
		currentConfig:     cfg,
	}

	scoped := &ScopedLogger{
		CoreLogger: logger,
		component:  component,
	}

	// Initialize object pool for LogEvent instances
	logger.eventPool = &sync.Pool{
		New: func() any {
			return newEvent(logger)
		},
	}

	if cfg.ConsoleAppender {
		logger.AddAppender(NewConsoleAppender())
	}

	if cfg.FileAppender {
		logger.AddAppender(NewFileAppender(cfg, logger))
	}

	return scoped
}

// log creates a new log event with the component field already populated.
func (x *ScopedLogger) log(level Level) *LogEvent {
	logEvent := x.CoreLogger.log(level)
	if logEvent == nil {
		return nil
	}

	return logEvent.Str("component", x.component)
}

// Debug creates a new debug-level log event tagged with the component.
func (x *ScopedLogger) Debug() *LogEvent {
	return x.log(DebugLevel)
}

// Info creates a new info-level log event tagged with the component.
func (x *ScopedLogger) Info() *LogEvent {
	return x.log(InfoLevel)
}

// Warn creates a new warning-level log event tagged with the component.
func (x *ScopedLogger) Warn() *LogEvent {
	return x.log(WarnLevel)
}

// Error creates a new error-level log event tagged with the component.
func (x *ScopedLogger) Error() *LogEvent {
	return x.log(ErrorLevel)
}

// Fatal creates a new fatal-level log event tagged with the component.
// After logging, the logger panics.
func (x *ScopedLogger) Fatal() *LogEvent {
	return x.log(FatalLevel)
}
