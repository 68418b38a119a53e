// Package publisher drives the metrics pipeline: it accepts observation
// collections from instrumented code, funnels them through a single worker
// goroutine into the aggregation store, and drains the store into upload
// batches on a fixed interval.
package publisher

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zhandoubo/cloudmetrics/config"
	"github.com/zhandoubo/cloudmetrics/log"
	"github.com/zhandoubo/cloudmetrics/metrics"
	"github.com/zhandoubo/cloudmetrics/transform"
	"github.com/zhandoubo/cloudmetrics/upload"
)

// _uploadWaitPerBatch bounds how long a flush waits for each batch upload
// before counting it as failed and moving on.
const _uploadWaitPerBatch = 5 * time.Second

// _closeWait bounds how long Close waits for the worker to drain before
// hard-stopping.
const _closeWait = 10 * time.Second

// Option customizes a Publisher beyond what Cfg carries.
type Option func(*Publisher)

// WithTransport injects a caller-owned transport. The publisher will not
// close an injected transport on shutdown.
func WithTransport(t upload.Transport) Option {
	return func(p *Publisher) {
		p.transport = t
		p.ownsTransport = false
	}
}

// WithRegisterer registers the publisher's own counters on reg. Without
// this option the counters exist but are not exported anywhere.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Publisher) {
		p.registerer = reg
	}
}

// WithLogger replaces the publisher's component logger.
func WithLogger(logger *log.ScopedLogger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Publisher is the long-lived pipeline driver. All mutations of the
// aggregation store happen on one worker goroutine, which is what lets the
// store itself stay lock-free: Publish and the flush timer only submit
// closures to the worker's queue.
//
// Publish never blocks the caller. When the queue is full the collection is
// dropped with a warning; losing observations under pressure is preferable
// to stalling the instrumented request path.
type Publisher struct {
	cfg       *Cfg
	agg       *transform.CollectionAggregator
	limiter   *PublishLimiter
	telemetry *telemetry
	logger    *log.ScopedLogger

	registerer    prometheus.Registerer
	transport     upload.Transport
	ownsTransport bool
	configManager config.ConfigManager

	tasks      chan func()
	workerDone chan struct{}
	tickerStop chan struct{}
	ticker     *time.Ticker

	mu     sync.RWMutex
	closed bool
}

// New creates and starts a publisher from the given configuration. The
// worker goroutine and the flush timer are running when New returns; callers
// must Close the publisher to release them.
func New(cfg *Cfg, opts ...Option) (*Publisher, error) {
	if cfg == nil {
		cfg = &Cfg{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid publisher config: %w", err)
	}
	cfg.ApplyDefaults()

	p := &Publisher{
		cfg:           cfg,
		logger:        log.NewScopedLogger(nil, "publisher"),
		ownsTransport: true,
		tasks:         make(chan func(), cfg.QueueSize),
		workerDone:    make(chan struct{}),
		tickerStop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.agg = transform.NewCollectionAggregator(cfg.Namespace,
		resolveMetrics(cfg.Dimensions),
		resolveCategories(cfg.Categories),
		resolveMetrics(cfg.DetailedMetrics))

	if cfg.PublishRateLimit > 0 {
		p.limiter = NewPublishLimiter(cfg.PublishRateLimit, cfg.PublishBurst)
	}
	p.telemetry = newTelemetry(p.registerer)

	if p.transport == nil {
		t, err := upload.NewTransport(cfg.Transport, cfg.TransportCfg)
		if err != nil {
			return nil, fmt.Errorf("create transport %q: %w", cfg.Transport, err)
		}
		p.transport = t
	}

	go p.workerLoop()

	p.ticker = time.NewTicker(cfg.FlushInterval)
	go p.tickerLoop()

	return p, nil
}

// NewWithConfigManager loads the publisher configuration through the config
// manager, starts the publisher, and registers it for change notifications
// so the publish rate limit follows configuration file reloads. Close
// unregisters the listener.
func NewWithConfigManager(configManager config.ConfigManager, opts ...Option) (*Publisher, error) {
	cfg := &Cfg{}
	if err := configManager.LoadConfig(cfg.GetName(), cfg); err != nil {
		return nil, fmt.Errorf("load publisher config: %w", err)
	}

	p, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	p.configManager = configManager
	configManager.AddChangeListener(p)
	return p, nil
}

// Publish submits one collection for aggregation. It never blocks: when the
// rate limiter rejects the collection or the queue is full, the collection
// is dropped and counted.
func (p *Publisher) Publish(c metrics.Collection) {
	if c == nil {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	if !p.limiter.Allow() {
		p.telemetry.collectionsDropped.Inc()
		p.logger.Warn().Str("reason", "rate limited").Msg("collection dropped")
		return
	}

	select {
	case p.tasks <- func() { p.agg.AddCollection(c) }:
		p.telemetry.collectionsReceived.Inc()
	default:
		p.telemetry.collectionsDropped.Inc()
		p.logger.Warn().Str("reason", "queue full").Msg("collection dropped")
	}
}

// Flush schedules an immediate flush cycle outside the timer. Like the
// timer's own submissions it is never dropped: a full queue is retried
// until the worker makes room.
func (p *Publisher) Flush() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	p.submitFlush()
}

// Close stops the timer, forces one final flush, waits a bounded time for
// the worker to drain, and closes the transport if the publisher owns it.
// Close is idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	close(p.tickerStop)
	p.ticker.Stop()

	p.submitFlush()
	close(p.tasks)
	p.mu.Unlock()

	select {
	case <-p.workerDone:
	case <-time.After(_closeWait):
		p.logger.Error().Dur("waited", _closeWait).Msg("worker did not drain in time, abandoning queued tasks")
	}

	if p.configManager != nil {
		p.configManager.RemoveChangeListener(p)
	}

	if p.ownsTransport {
		return p.transport.Close()
	}
	return nil
}

// submitFlush queues a flush task, spinning until the queue accepts it. A
// dropped flush would let the store grow without bound, so unlike Publish
// this path yields and retries instead of giving up. Callers hold at least
// a read lock, so the queue cannot be closed underneath the send.
func (p *Publisher) submitFlush() {
	task := func() { p.flush() }
	for {
		select {
		case p.tasks <- task:
			return
		default:
			runtime.Gosched()
		}
	}
}

// workerLoop serializes every store mutation. It runs until the task queue
// is closed and drained.
func (p *Publisher) workerLoop() {
	defer close(p.workerDone)
	for task := range p.tasks {
		task()
	}
}

func (p *Publisher) tickerLoop() {
	for {
		select {
		case <-p.ticker.C:
			p.Flush()
		case <-p.tickerStop:
			return
		}
	}
}

// flush drains the store and uploads the resulting batches. Runs on the
// worker goroutine only. Upload failures are logged and counted, never
// propagated; the next cycle proceeds regardless.
func (p *Publisher) flush() {
	p.telemetry.flushCycles.Inc()

	batches := p.agg.Requests()
	if len(batches) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start every upload before waiting on any of them.
	results := make([]<-chan error, len(batches))
	for i, batch := range batches {
		results[i] = p.transport.Upload(ctx, batch)
	}

	var succeeded, failed int
	var sampleCause error
	for _, result := range results {
		select {
		case err := <-result:
			if err != nil {
				failed++
				if sampleCause == nil {
					sampleCause = err
				}
			} else {
				succeeded++
			}
		case <-time.After(_uploadWaitPerBatch):
			failed++
			if sampleCause == nil {
				sampleCause = fmt.Errorf("upload timed out after %v", _uploadWaitPerBatch)
			}
		}
	}

	p.telemetry.batchesPublished.Add(float64(succeeded))
	p.telemetry.batchesFailed.Add(float64(failed))

	if failed > 0 {
		p.logger.Warn().
			Int("succeeded", succeeded).
			Int("failed", failed).
			Err(sampleCause).
			Msg("flush completed with failures")
		return
	}
	p.logger.Debug().Int("batches", succeeded).Msg("flush completed")
}

// OnConfigChanged implements config.ConfigChangeListener. Only the publish
// rate limit is applied live; structural settings like queue size and
// dimensions require a restart.
func (p *Publisher) OnConfigChanged(configName string, newConfig, oldConfig config.Config) error {
	if configName != p.cfg.GetName() {
		return nil
	}
	cfg, ok := newConfig.(*Cfg)
	if !ok {
		return fmt.Errorf("unexpected config type %T for %q", newConfig, configName)
	}

	if cfg.PublishRateLimit > 0 && p.limiter != nil {
		burst := cfg.PublishBurst
		if burst == 0 {
			burst = cfg.PublishRateLimit
		}
		p.limiter.Reload(cfg.PublishRateLimit, burst)
		p.logger.Info().Int("limit", cfg.PublishRateLimit).Int("burst", burst).Msg("publish rate limit reloaded")
	}
	return nil
}
