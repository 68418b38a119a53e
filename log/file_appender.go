package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zhandoubo/cloudmetrics/config"
)

const (
	defaultAsyncCacheSize    = 1024
	defaultAsyncWriteMillSec = 200
)

// FileAppender writes log lines to a file with size-based rotation and
// optional asynchronous buffering. In async mode, writes are queued on a
// bounded channel drained by a background goroutine; when the queue is full
// the line is dropped so logging never blocks the caller.
type FileAppender struct {
	mu     sync.Mutex
	path   string
	maxMB  int
	file   *os.File
	size   int64
	async  bool
	queue  chan []byte
	closed chan struct{}
	once   sync.Once
}

// NewFileAppender creates a file appender from the given configuration.
// The logger argument keeps the constructor signature uniform with other
// appenders that report internal failures through their owning logger.
func NewFileAppender(cfg *LogCfg, logger Logger) *FileAppender {
	a := &FileAppender{
		path:  cfg.LogPath,
		maxMB: cfg.FileSplitMB,
		async: cfg.IsAsync,
	}

	if a.async {
		cacheSize := cfg.AsyncCacheSize
		if cacheSize <= 0 {
			cacheSize = defaultAsyncCacheSize
		}
		interval := cfg.AsyncWriteMillSec
		if interval <= 0 {
			interval = defaultAsyncWriteMillSec
		}
		a.queue = make(chan []byte, cacheSize)
		a.closed = make(chan struct{})
		go a.drainLoop(time.Duration(interval) * time.Millisecond)
	}

	return a
}

// NewFileAppenderWithConfigManager creates a file appender whose
// configuration is read from the config manager, enabling hot-reload of the
// file path and rotation settings through Refresh.
func NewFileAppenderWithConfigManager(configManager config.ConfigManager, logger Logger) *FileAppender {
	if cfg, err := configManager.GetConfig("logger"); err == nil {
		if logCfg, ok := cfg.(*LogCfg); ok {
			return NewFileAppender(logCfg, logger)
		}
	}
	return NewFileAppender(getDefaultCfg(), logger)
}

// Write delivers one log line to the file, queueing it in async mode.
func (a *FileAppender) Write(p []byte) (int, error) {
	if a.async {
		// The event buffer is pooled; copy before handing off.
		line := make([]byte, len(p))
		copy(line, p)
		select {
		case a.queue <- line:
		default:
			// Queue full: drop rather than block the logging caller.
		}
		return len(p), nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeLocked(p)
}

// Refresh flushes queued lines and reopens the file so external rotation or
// configuration changes take effect.
func (a *FileAppender) Refresh() {
	if a.async {
		a.flushQueue()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		_ = a.file.Close()
		a.file = nil
		a.size = 0
	}
}

// Close stops the async drain goroutine and flushes remaining lines.
func (a *FileAppender) Close() {
	if a.async {
		a.once.Do(func() { close(a.closed) })
		a.flushQueue()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		_ = a.file.Close()
		a.file = nil
	}
}

func (a *FileAppender) drainLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.flushQueue()
		case <-a.closed:
			a.flushQueue()
			return
		}
	}
}

func (a *FileAppender) flushQueue() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		select {
		case line := <-a.queue:
			_, _ = a.writeLocked(line)
		default:
			return
		}
	}
}

// writeLocked appends one line, rotating the file first when the configured
// size threshold is exceeded. Caller must hold a.mu.
func (a *FileAppender) writeLocked(p []byte) (int, error) {
	if err := a.ensureOpenLocked(); err != nil {
		return 0, err
	}

	if a.maxMB > 0 && a.size+int64(len(p)) > int64(a.maxMB)*1024*1024 {
		if err := a.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := a.file.Write(p)
	a.size += int64(n)
	return n, err
}

func (a *FileAppender) ensureOpenLocked() error {
	if a.file != nil {
		return nil
	}

	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	a.file = f
	a.size = info.Size()
	return nil
}

// rotateLocked renames the current file with a timestamp suffix and reopens
// a fresh one. Caller must hold a.mu.
func (a *FileAppender) rotateLocked() error {
	_ = a.file.Close()
	a.file = nil

	ext := filepath.Ext(a.path)
	base := a.path[:len(a.path)-len(ext)]
	rotated := fmt.Sprintf("%s.%s%s", base, time.Now().Format("20060102-150405"), ext)
	if err := os.Rename(a.path, rotated); err != nil {
		return err
	}

	a.size = 0
	return a.ensureOpenLocked()
}
