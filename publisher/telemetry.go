package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// telemetry counts what the publisher itself does, so operators can see
// observation loss and upload failures without reading logs. Counters are
// registered on the caller's Registerer; a nil Registerer keeps them
// unregistered, which is what library embedders without a metrics endpoint
// want.
type telemetry struct {
	collectionsReceived prometheus.Counter
	collectionsDropped  prometheus.Counter
	batchesPublished    prometheus.Counter
	batchesFailed       prometheus.Counter
	flushCycles         prometheus.Counter
}

func newTelemetry(reg prometheus.Registerer) *telemetry {
	factory := promauto.With(reg)
	return &telemetry{
		collectionsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmetrics",
			Name:      "collections_received_total",
			Help:      "Collections accepted by Publish.",
		}),
		collectionsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmetrics",
			Name:      "collections_dropped_total",
			Help:      "Collections dropped because the queue was full or the rate limit rejected them.",
		}),
		batchesPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmetrics",
			Name:      "batches_published_total",
			Help:      "Batches uploaded successfully.",
		}),
		batchesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmetrics",
			Name:      "batches_failed_total",
			Help:      "Batches whose upload failed or timed out.",
		}),
		flushCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cloudmetrics",
			Name:      "flush_cycles_total",
			Help:      "Flush cycles executed, including empty ones.",
		}),
	}
}
