package transform

import (
	"sort"
	"time"

	"github.com/zhandoubo/cloudmetrics/log"
	"github.com/zhandoubo/cloudmetrics/metrics"
	"github.com/zhandoubo/cloudmetrics/upload"
)

const (
	// MaxDataPerBatch caps the number of data in one upload batch.
	MaxDataPerBatch = 20

	// MaxValuesPerBatch caps the number of value slots in one upload batch.
	// Every histogram entry of a detailed datum consumes one slot; a summary
	// datum consumes exactly one.
	MaxValuesPerBatch = 300
)

// CollectionAggregator is the entry point of the aggregation pipeline. It
// accepts observation collections one at a time and, on demand, drains all
// accumulated state into a sequence of size-capped upload batches.
//
// Not safe for concurrent use: AddCollection and Requests must be serialized
// by the caller. The publisher funnels both through a single worker
// goroutine.
type CollectionAggregator struct {
	namespace string
	store     *timeBucketedStore
}

// NewCollectionAggregator creates an aggregator. Observations are grouped by
// the given dimension metrics, filtered by the enabled categories
// (metrics.CategoryAll enables everything), and metrics in the detailed set
// are reduced to exact histograms instead of summary statistics.
func NewCollectionAggregator(namespace string,
	dimensions []*metrics.Metric,
	categories []metrics.Category,
	detailed []*metrics.Metric) *CollectionAggregator {
	return &CollectionAggregator{
		namespace: namespace,
		store:     newTimeBucketedStore(dimensions, categories, detailed),
	}
}

// AddCollection folds one observation tree into the store. Observations with
// disabled categories or unsupported value types are skipped silently.
func (a *CollectionAggregator) AddCollection(c metrics.Collection) {
	a.store.addCollection(c)
}

// Requests drains the store into upload batches and resets it. Despite the
// read-sounding name this is a destructive operation by contract: every call
// returns all state accumulated since the previous call, and a second call
// without intervening AddCollection calls returns nothing. The periodic
// flush driver depends on this read-resets semantic.
func (a *CollectionAggregator) Requests() []*upload.Batch {
	var batches []*upload.Batch

	data := make([]upload.Datum, 0, MaxDataPerBatch)
	valuesInBatch := 0

	closeBatch := func() {
		if len(data) == 0 {
			return
		}
		batches = append(batches, &upload.Batch{Namespace: a.namespace, Data: data})
		data = make([]upload.Datum, 0, MaxDataPerBatch)
		valuesInBatch = 0
	}

	for _, bucket := range a.sortedBuckets() {
		for _, agg := range bucket.aggregators {
			if len(data) >= MaxDataPerBatch {
				closeBatch()
			}

			switch agg.kind {
			case summaryKind:
				data = append(data, summaryDatum(bucket.timestamp, agg))
				valuesInBatch++
			case detailedKind:
				entries := agg.histogramEntries()
				start := 0
				for start < len(entries) {
					if len(data) >= MaxDataPerBatch || valuesInBatch >= MaxValuesPerBatch {
						closeBatch()
					}

					take := len(entries) - start
					if budget := MaxValuesPerBatch - valuesInBatch; take > budget {
						take = budget
					}

					data = append(data, detailedDatum(bucket.timestamp, agg, entries[start:start+take]))
					start += take
					valuesInBatch += take
				}
			}
		}
	}

	closeBatch()
	a.store.reset()

	return batches
}

// sortedBuckets returns the store's buckets ordered by timestamp. Any order
// would satisfy the contract; sorting makes flush output deterministic.
func (a *CollectionAggregator) sortedBuckets() []*timeBucket {
	buckets := make([]*timeBucket, 0, len(a.store.buckets))
	for _, b := range a.store.buckets {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].timestamp.Before(buckets[j].timestamp)
	})
	return buckets
}

// summaryDatum renders a summary aggregator into its single datum. An
// aggregator is only created when a value is about to be added, so an empty
// one here is an invariant violation, not a recoverable condition.
func summaryDatum(timestamp time.Time, agg *metricAggregator) upload.Datum {
	if agg.count == 0 {
		log.Fatal().Str("metric", agg.metric.Name()).Msg("summary aggregator flushed with no values")
	}

	return upload.Datum{
		MetricName: agg.metric.Name(),
		Dimensions: agg.dimensions,
		Unit:       agg.unit,
		Timestamp:  timestamp,
		Stats: &upload.StatisticSet{
			Minimum:     agg.min,
			Maximum:     agg.max,
			Sum:         agg.sum,
			SampleCount: float64(agg.count),
		},
	}
}

// detailedDatum renders one chunk of a detailed aggregator's histogram into
// a datum with parallel value/count arrays.
func detailedDatum(timestamp time.Time, agg *metricAggregator, entries []histogramEntry) upload.Datum {
	values := make([]float64, 0, len(entries))
	counts := make([]float64, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.value)
		counts = append(counts, float64(e.count))
	}

	return upload.Datum{
		MetricName: agg.metric.Name(),
		Dimensions: agg.dimensions,
		Unit:       agg.unit,
		Timestamp:  timestamp,
		Values:     values,
		Counts:     counts,
	}
}
