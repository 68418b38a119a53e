package publisher

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhandoubo/cloudmetrics/metrics"
)

const (
	// _defaultNamespace is where batches land when no namespace is configured.
	_defaultNamespace = "Client/Metrics"

	// _defaultQueueSize bounds the task queue between producers and the
	// worker goroutine.
	_defaultQueueSize = 1000

	// _defaultFlushInterval matches the one-minute time buckets of the
	// aggregation store.
	_defaultFlushInterval = time.Minute

	// _defaultTransport uploads to the process log, useful before a real
	// endpoint is configured.
	_defaultTransport = "console"
)

// Cfg is the publisher configuration loaded through the config manager.
// Zero fields fall back to defaults in ApplyDefaults.
type Cfg struct {
	// Namespace groups all uploaded batches on the backend.
	Namespace string `mapstructure:"namespace"`
	// FlushInterval is how often accumulated state is drained and uploaded.
	FlushInterval time.Duration `mapstructure:"flushinterval"`
	// QueueSize bounds the submission queue; overflow drops collections.
	QueueSize int `mapstructure:"queuesize"`
	// Dimensions names the metrics whose values partition the aggregation.
	Dimensions []string `mapstructure:"dimensions"`
	// Categories enables metric categories; "ALL" enables everything.
	Categories []string `mapstructure:"categories"`
	// DetailedMetrics names the metrics kept as exact histograms.
	DetailedMetrics []string `mapstructure:"detailedmetrics"`
	// PublishRateLimit caps accepted collections per second; 0 disables.
	PublishRateLimit int `mapstructure:"publishratelimit"`
	// PublishBurst is the token bucket burst for the publish limiter.
	PublishBurst int `mapstructure:"publishburst"`
	// Transport selects a registered transport factory by name.
	Transport string `mapstructure:"transport"`
	// TransportCfg is passed through to the transport factory.
	TransportCfg map[string]any `mapstructure:"transportcfg"`
}

// GetName implements config.Config.
func (c *Cfg) GetName() string {
	return "publisher"
}

// Validate implements config.Config.
func (c *Cfg) Validate() error {
	if c.FlushInterval < 0 {
		return fmt.Errorf("flushinterval must not be negative: %v", c.FlushInterval)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queuesize must not be negative: %d", c.QueueSize)
	}
	if c.PublishRateLimit < 0 {
		return fmt.Errorf("publishratelimit must not be negative: %d", c.PublishRateLimit)
	}
	return nil
}

// ApplyDefaults fills zero fields with the documented defaults.
func (c *Cfg) ApplyDefaults() {
	if c.Namespace == "" {
		c.Namespace = _defaultNamespace
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = _defaultFlushInterval
	}
	if c.QueueSize == 0 {
		c.QueueSize = _defaultQueueSize
	}
	if len(c.Dimensions) == 0 {
		c.Dimensions = []string{metrics.ServiceID.Name(), metrics.OperationName.Name()}
	}
	if len(c.Categories) == 0 {
		c.Categories = []string{string(metrics.CategoryAll)}
	}
	if c.Transport == "" {
		c.Transport = _defaultTransport
	}
	if c.PublishRateLimit > 0 && c.PublishBurst == 0 {
		c.PublishBurst = c.PublishRateLimit
	}
}

// _knownMetrics maps the names of the built-in metric definitions so
// configuration can reference them by name.
var _knownMetrics = func() map[string]*metrics.Metric {
	known := make(map[string]*metrics.Metric)
	for _, m := range []*metrics.Metric{
		metrics.ServiceID,
		metrics.OperationName,
		metrics.APICallDuration,
		metrics.APICallSuccessful,
		metrics.RetryCount,
		metrics.MarshallingDuration,
		metrics.BackoffDelayDuration,
		metrics.HTTPStatusCode,
		metrics.AvailableConcurrency,
	} {
		known[m.Name()] = m
	}
	return known
}()

// resolveMetrics turns configured metric names into definitions. Names not
// matching a built-in metric become custom string metrics, which is the only
// kind a dimension needs.
func resolveMetrics(names []string) []*metrics.Metric {
	resolved := make([]*metrics.Metric, 0, len(names))
	for _, name := range names {
		if m, ok := _knownMetrics[name]; ok {
			resolved = append(resolved, m)
			continue
		}
		resolved = append(resolved, metrics.New(name, metrics.KindString, metrics.CategoryCustom))
	}
	return resolved
}

// resolveCategories maps configured category names onto the category
// vocabulary. Matching is case-insensitive, so "ALL" and "all" both enable
// everything.
func resolveCategories(names []string) []metrics.Category {
	resolved := make([]metrics.Category, 0, len(names))
	for _, name := range names {
		resolved = append(resolved, metrics.Category(strings.ToLower(name)))
	}
	return resolved
}
