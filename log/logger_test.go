package log

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// captureAppender collects log lines in memory for assertions.
type captureAppender struct {
	mu    sync.Mutex
	lines []string
}

func (a *captureAppender) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, string(p))
	return len(p), nil
}

func (a *captureAppender) Refresh() {}

func (a *captureAppender) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.lines...)
}

func newTestLogger(level Level) (*CoreLogger, *captureAppender) {
	logger := NewLogger(&LogCfg{
		LogLevel:        level,
		ConsoleAppender: false,
		FileAppender:    false,
	})
	cap := &captureAppender{}
	logger.AddAppender(cap)
	return logger, cap
}

func TestConsoleAppender_WriteDirect(t *testing.T) {
	ca := NewConsoleAppender()
	msg := []byte("hello-console-direct\n")
	n, err := ca.Write(msg)
	if err != nil {
		t.Fatalf("ConsoleAppender.Write returned error: %v", err)
	}
	if n != len(msg) {
		t.Fatalf("ConsoleAppender.Write wrote %d bytes, want %d", n, len(msg))
	}
}

func TestLogEvent_JSONShape(t *testing.T) {
	logger, cap := newTestLogger(InfoLevel)

	logger.Info().
		Str("transport", "http").
		Int("batches", 3).
		Int64("values", 421).
		Uint64("dropped", 7).
		Float64("sum", 14.5).
		Bool("owned", true).
		Err(fmt.Errorf("boom")).
		Dur("elapsed", 1500*time.Millisecond).
		Msg("flush complete")

	lines := cap.all()
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &fields); err != nil {
		t.Fatalf("log line is not valid JSON: %v\nline: %q", err, lines[0])
	}

	if fields["level"] != "info" {
		t.Errorf("expected level 'info', got %v", fields["level"])
	}
	if fields["transport"] != "http" {
		t.Errorf("expected transport 'http', got %v", fields["transport"])
	}
	if fields["batches"] != float64(3) {
		t.Errorf("expected batches 3, got %v", fields["batches"])
	}
	if fields["error"] != "boom" {
		t.Errorf("expected error 'boom', got %v", fields["error"])
	}
	if fields["elapsed"] != float64(1500) {
		t.Errorf("expected elapsed 1500, got %v", fields["elapsed"])
	}
	if fields["msg"] != "flush complete" {
		t.Errorf("expected msg 'flush complete', got %v", fields["msg"])
	}
	if _, ok := fields["time"]; !ok {
		t.Error("expected time field")
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, cap := newTestLogger(WarnLevel)

	logger.Debug().Msg("should be filtered")
	logger.Info().Msg("should be filtered")
	logger.Warn().Msg("warn passes")
	logger.Error().Msg("error passes")

	lines := cap.all()
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "warn passes") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "error passes") {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestNilEventChaining(t *testing.T) {
	logger, cap := newTestLogger(ErrorLevel)

	// Filtered events return nil; the chained calls must be safe no-ops.
	logger.Info().Str("k", "v").Int("n", 1).Msg("dropped")

	if len(cap.all()) != 0 {
		t.Error("filtered event should produce no output")
	}
}

func TestScopedLogger_ComponentField(t *testing.T) {
	scoped := NewScopedLogger(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false,
		FileAppender:    false,
	}, "publisher")
	cap := &captureAppender{}
	scoped.AddAppender(cap)

	scoped.Info().Str("action", "flush").Msg("cycle done")

	lines := cap.all()
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"component":"publisher"`) {
		t.Fatalf("expected component field in line: %q", lines[0])
	}
}

func TestLevelChangeOverride(t *testing.T) {
	lc := newLevelChange([]LevelChangeEntry{
		{File: "transform/store.go", Level: DebugLevel},
		{File: "publisher/publisher.go", Line: 42, Level: TraceLevel},
	})

	if lc.Empty() {
		t.Fatal("expected overrides to be configured")
	}
	if got := lc.GetLevel("transform/store.go", 10, InfoLevel); got != DebugLevel {
		t.Errorf("expected file override DebugLevel, got %v", got)
	}
	if got := lc.GetLevel("publisher/publisher.go", 42, InfoLevel); got != TraceLevel {
		t.Errorf("expected line override TraceLevel, got %v", got)
	}
	if got := lc.GetLevel("publisher/publisher.go", 43, InfoLevel); got != InfoLevel {
		t.Errorf("expected default level for unmatched line, got %v", got)
	}
}

func TestFatalPanics(t *testing.T) {
	logger, _ := newTestLogger(InfoLevel)

	defer func() {
		if recover() == nil {
			t.Error("expected Fatal to panic")
		}
	}()
	logger.Fatal().Msg("unrecoverable")
}
