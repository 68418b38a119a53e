package log

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/zhandoubo/cloudmetrics/config"
)

// callerInfo holds resolved caller information for one program counter.
type callerInfo struct {
	file     string
	function string
	line     int
	rendered string
}

func newCallerInfo(file, function string, line int) *callerInfo {
	return &callerInfo{
		file:     file,
		function: function,
		line:     line,
		rendered: file + ":" + strconv.Itoa(line) + " " + function,
	}
}

func (c *callerInfo) String() string {
	return c.rendered
}

var _UnknownCallerInfo = newCallerInfo("unknown", "unknown", 0)

// CoreLogger provides a thread-safe logging interface with configurable
// appenders and formatting. It supports level filtering, caller information,
// and efficient object reuse through sync.Pool.
//
// Key features include:
// - Thread-safe operation with lock-free logging path
// - Configurable log levels and appenders (console, file)
// - Automatic caller information capture (file, function, line number)
// - Object pooling to minimize garbage collection pressure
// - Per-file/per-line log level overrides for fine-grained control
// - Hot-reload support for dynamic configuration changes without restart
//
// Example usage:
//
//	logger := NewLogger(&LogCfg{
//	    LogLevel:        InfoLevel,
//	    ConsoleAppender: true,
//	})
//
//	logger.Info().Str("transport", "http").Int("batches", 3).Msg("flush complete")
type CoreLogger struct {
	appenders         []LogAppender        // Collection of appenders responsible for log output
	minLevel          Level                // Minimum log level that will be processed
	callerSkip        int                  // Number of stack frames to skip when capturing caller information
	eventPool         *sync.Pool           // Object pool for LogEvent instances to minimize GC
	levelChange       *levelChange         // Configuration for per-file/per-line log level overrides
	callerCache       sync.Map             // Cache for caller information to avoid redundant calculations
	enabledCallerInfo bool                 // Flag indicating whether caller information should be captured
	configManager     config.ConfigManager // Configuration manager for hot-reload support
	configMutex       sync.RWMutex         // Mutex for thread-safe configuration updates
	currentConfig     *LogCfg              // Current configuration for fast access
}

// NewLogger creates a new CoreLogger instance with the provided
// configuration. If cfg is nil, default configuration values are used.
func NewLogger(cfg *LogCfg) *CoreLogger {
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

	// Initialize object pool for LogEvent instances to minimize garbage collection
	logger.eventPool = &sync.Pool{
		New: func() any {
			return newEvent(logger)
		},
	}

	// Configure appenders based on configuration
	if cfg.FileAppender {
		logger.AddAppender(NewFileAppender(cfg, logger))
	}

	if cfg.ConsoleAppender {
		logger.AddAppender(NewConsoleAppender())
	}

	return logger
}

// NewLoggerWithConfigManager creates a new CoreLogger instance with
// configuration manager support, enabling hot-reload of logging settings
// without a service restart.
func NewLoggerWithConfigManager(cfg *LogCfg, configManager config.ConfigManager) *CoreLogger {
	logger := NewLogger(cfg)
	logger.configManager = configManager

	// Register as configuration change listener for hot-reload
	if configManager != nil {
		configManager.AddChangeListener(logger)
	}

	return logger
}

// OnConfigChanged implements the config.ConfigChangeListener interface.
// It is called when the logger configuration changes, allowing dynamic
// updates without a service restart.
func (x *CoreLogger) OnConfigChanged(configName string, newConfig, oldConfig config.Config) error {
	if configName != "logger" {
		return nil // Ignore non-logger configuration changes
	}

	newLogCfg, ok := newConfig.(*LogCfg)
	if !ok {
		return nil // Ignore non-LogCfg configuration changes
	}

	x.updateConfig(newLogCfg)
	return nil
}

// updateConfig applies a new logger configuration under the config mutex so
// ongoing logging operations observe a consistent state.
func (x *CoreLogger) updateConfig(newCfg *LogCfg) {
	x.configMutex.Lock()
	defer x.configMutex.Unlock()

	atomic.StoreUint32((*uint32)(unsafe.Pointer(&x.minLevel)), uint32(newCfg.LogLevel))
	x.callerSkip = newCfg.CallerSkip
	x.enabledCallerInfo = newCfg.EnabledCallerInfo
	x.currentConfig = newCfg

	if newCfg.LevelChange != nil {
		x.levelChange = newLevelChange(newCfg.LevelChange)
	}

	// Refresh appenders to apply new configuration
	x.Refresh()
}

// GetCurrentConfig returns the current logger configuration.
func (x *CoreLogger) GetCurrentConfig() *LogCfg {
	x.configMutex.RLock()
	defer x.configMutex.RUnlock()
	return x.currentConfig
}

// checkLevel determines if a log level should be logged based on the minimum
// level. Uses atomic operations so hot-reloaded level changes are visible
// without locking the logging path.
func (x *CoreLogger) checkLevel(level Level) bool {
	currentLevel := Level(atomic.LoadUint32((*uint32)(unsafe.Pointer(&x.minLevel))))
	return currentLevel <= level
}

// AddAppender adds a new log appender to the logger. Multiple appenders can
// be added, sending log lines to several destinations simultaneously.
func (x *CoreLogger) AddAppender(appender LogAppender) {
	x.appenders = append(x.appenders, appender)
}

// GetAppender returns the list of appenders currently registered.
func (x *CoreLogger) GetAppender() []LogAppender {
	return x.appenders
}

// Refresh triggers a refresh operation on all registered appenders, for
// example after rotation or configuration changes.
func (x *CoreLogger) Refresh() {
	for _, appender := range x.appenders {
		appender.Refresh()
	}
}

// IgnoreCheckLevel determines if log level filtering should be bypassed.
// For CoreLogger this always returns false.
func (x *CoreLogger) IgnoreCheckLevel() bool {
	return false
}

// newEvent fetches a clean LogEvent from the object pool.
func (x *CoreLogger) newEvent() *LogEvent {
	e := x.eventPool.Get().(*LogEvent)
	e.Reset()
	return e
}

// OnEventEnd handles the cleanup of a log event after it has been built.
// For Fatal level logs it panics to terminate the caller. The event is
// returned to the object pool for reuse.
func (x *CoreLogger) OnEventEnd(e *LogEvent) {
	// Write to all configured appenders (console, file, etc.)
	for _, appender := range x.appenders {
		_, _ = appender.Write(e.buf.Bytes())
	}

	if e.level == FatalLevel {
		panic("fatal log event")
	}

	x.eventPool.Put(e)
}

// Debug creates a new debug-level log event, or nil if filtered.
func (x *CoreLogger) Debug() *LogEvent {
	return x.log(DebugLevel)
}

// Info creates a new info-level log event, or nil if filtered.
func (x *CoreLogger) Info() *LogEvent {
	return x.log(InfoLevel)
}

// Warn creates a new warn-level log event, or nil if filtered.
func (x *CoreLogger) Warn() *LogEvent {
	return x.log(WarnLevel)
}

// Error creates a new error-level log event, or nil if filtered.
func (x *CoreLogger) Error() *LogEvent {
	return x.log(ErrorLevel)
}

// Fatal creates a new fatal-level log event. After the event is written the
// logger panics.
func (x *CoreLogger) Fatal() *LogEvent {
	return x.log(FatalLevel)
}

// getCallerInfo retrieves runtime information about the logging call site,
// cached per program counter to keep the logging path cheap.
func (x *CoreLogger) getCallerInfo() *callerInfo {
	// Skip stack frames to get the actual caller
	pc, file, line, ok := runtime.Caller(3 + x.callerSkip)
	if !ok {
		return _UnknownCallerInfo
	}

	// Check cache for previously resolved caller information
	if cached, found := x.callerCache.Load(pc); found {
		return cached.(*callerInfo)
	}

	// Extract function name efficiently - single pass for dot extraction
	funcName := runtime.FuncForPC(pc).Name()
	var function string
	if dotIdx := strings.LastIndexByte(funcName, '.'); dotIdx != -1 {
		function = funcName[dotIdx+1:]
	} else {
		function = funcName
	}

	// Trim the file path to its final two segments without extra allocation
	if len(file) > 0 {
		lastSlash := strings.LastIndexByte(file, '/')
		if lastSlash > 0 {
			secondLastSlash := strings.LastIndexByte(file[:lastSlash], '/')
			if secondLastSlash >= 0 {
				file = file[secondLastSlash+1:]
			}
		}
	}

	c := newCallerInfo(file, function, line)

	// Cache the resolved caller information for future use
	x.callerCache.Store(pc, c)

	return c
}

// log prepares a new log event with common fields like timestamp, level, and
// caller info. It handles level filtering and per-file/per-line overrides
// before returning an event ready for additional fields.
func (x *CoreLogger) log(level Level) *LogEvent {
	var info *callerInfo
	if !x.IgnoreCheckLevel() {
		if !x.checkLevel(level) {
			// If not enabled, check if there are per-file/per-line level overrides
			if x.levelChange.Empty() {
				return nil
			}
			info = x.getCallerInfo()
			level = x.levelChange.GetLevel(info.file, info.line, level)
		}
	}

	// Final check after possible level override
	if !x.checkLevel(level) {
		return nil
	}

	e := x.newEvent()
	e.level = level

	// Add common fields: timestamp and level
	t := time.Now()
	e.Time("time", &t)
	e.Str("level", level.String())

	// Add caller information if enabled
	if x.enabledCallerInfo {
		if info == nil {
			info = x.getCallerInfo()
		}
		e.Str("caller", info.String())
	}

	return e
}
