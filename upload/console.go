package upload

import (
	"context"

	"github.com/zhandoubo/cloudmetrics/log"
)

func init() {
	RegisterTransport("console", func(cfg map[string]any) (Transport, error) {
		return NewConsoleTransport(), nil
	})
}

// ConsoleTransport logs every batch instead of uploading it. Useful during
// development and as the default sink when no remote endpoint is configured.
type ConsoleTransport struct {
	logger *log.ScopedLogger
}

// NewConsoleTransport creates a batch-logging transport.
func NewConsoleTransport() *ConsoleTransport {
	return &ConsoleTransport{
		logger: log.NewScopedLogger(nil, "console-transport"),
	}
}

// Upload logs the batch contents and reports immediate success.
func (t *ConsoleTransport) Upload(ctx context.Context, batch *Batch) <-chan error {
	values := 0
	for _, d := range batch.Data {
		if d.Stats != nil {
			values++
		}
		values += len(d.Values)
	}

	t.logger.Info().
		Str("namespace", batch.Namespace).
		Int("data", len(batch.Data)).
		Int("values", values).
		Msg("batch")

	done := make(chan error, 1)
	done <- nil
	close(done)
	return done
}

// Close is a no-op for the console transport.
func (t *ConsoleTransport) Close() error {
	return nil
}
