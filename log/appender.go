package log

import "os"

// LogAppender receives finalized log lines and delivers them to an output
// destination. Implementations must be safe for concurrent Write calls.
type LogAppender interface {
	// Write delivers one encoded log line. The slice is only valid for the
	// duration of the call; implementations that defer the write must copy.
	Write(p []byte) (int, error)

	// Refresh flushes buffered output and re-applies configuration, for
	// example after a rotation or a hot-reloaded config change.
	Refresh()
}

// ConsoleAppender writes log lines to standard output. Useful for
// development and containerized deployments where stdout is collected.
type ConsoleAppender struct{}

// NewConsoleAppender creates a stdout appender.
func NewConsoleAppender() *ConsoleAppender {
	return &ConsoleAppender{}
}

// Write writes the log line to stdout.
func (a *ConsoleAppender) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

// Refresh is a no-op for the console appender.
func (a *ConsoleAppender) Refresh() {}
