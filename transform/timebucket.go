package transform

import (
	"time"

	"github.com/zhandoubo/cloudmetrics/metrics"
)

// timeBucket holds the aggregators for one minute-aligned window.
type timeBucket struct {
	timestamp   time.Time
	aggregators map[aggregatorKey]*metricAggregator
}

// timeBucketedStore is the central mutable state of the pipeline: a map from
// minute-truncated timestamps to the aggregators of that window. Buckets are
// created lazily on the first observation in their minute and never merged.
// The store grows without bound between drains; Reset clears it entirely.
//
// Not safe for concurrent use.
type timeBucketedStore struct {
	buckets map[int64]*timeBucket

	dimensionMetrics map[string]struct{}
	categories       map[metrics.Category]struct{}
	allCategories    bool
	detailedMetrics  map[string]struct{}
}

func newTimeBucketedStore(dimensions []*metrics.Metric, categories []metrics.Category, detailed []*metrics.Metric) *timeBucketedStore {
	s := &timeBucketedStore{
		buckets:          make(map[int64]*timeBucket),
		dimensionMetrics: make(map[string]struct{}, len(dimensions)),
		categories:       make(map[metrics.Category]struct{}, len(categories)),
		detailedMetrics:  make(map[string]struct{}, len(detailed)),
	}

	for _, m := range dimensions {
		s.dimensionMetrics[m.Name()] = struct{}{}
	}
	for _, c := range categories {
		if c == metrics.CategoryAll {
			s.allCategories = true
		}
		s.categories[c] = struct{}{}
	}
	for _, m := range detailed {
		s.detailedMetrics[m.Name()] = struct{}{}
	}
	return s
}

// addCollection folds every aggregatable observation of the collection tree
// into the bucket of the collection's creation minute.
func (s *timeBucketedStore) addCollection(c metrics.Collection) {
	bucket := s.bucketFor(c.CreatedAt())
	dims := extractDimensions(c, s.dimensionMetrics)

	for _, record := range extractAllRecords(c) {
		value, ok := s.valueFor(record)
		if !ok {
			continue
		}

		key := newAggregatorKey(record.Metric, dims)
		agg, exists := bucket.aggregators[key]
		if !exists {
			agg = newMetricAggregator(record.Metric, dims, s.kindFor(record.Metric))
			bucket.aggregators[key] = agg
		}
		agg.addValue(value)
	}
}

// bucketFor returns the bucket of the minute containing t, creating it on
// first use.
func (s *timeBucketedStore) bucketFor(t time.Time) *timeBucket {
	truncated := t.Truncate(time.Minute)
	id := truncated.Unix()

	bucket, ok := s.buckets[id]
	if !ok {
		bucket = &timeBucket{
			timestamp:   truncated,
			aggregators: make(map[aggregatorKey]*metricAggregator),
		}
		s.buckets[id] = bucket
	}
	return bucket
}

// kindFor selects the reduction strategy configured for the metric.
func (s *timeBucketedStore) kindFor(metric *metrics.Metric) aggregatorKind {
	if _, ok := s.detailedMetrics[metric.Name()]; ok {
		return detailedKind
	}
	return summaryKind
}

// valueFor converts a record into an aggregatable float64. Records whose
// category is not enabled, and records whose value is neither numeric nor a
// duration, are skipped silently.
func (s *timeBucketedStore) valueFor(record metrics.Record) (float64, bool) {
	if !s.categoryEnabled(record.Metric) {
		return 0, false
	}

	switch record.Metric.Kind() {
	case metrics.KindDuration:
		d, ok := record.Value.(time.Duration)
		if !ok {
			return 0, false
		}
		return float64(d.Milliseconds()), true
	case metrics.KindNumber:
		return numericValue(record.Value)
	default:
		return 0, false
	}
}

func (s *timeBucketedStore) categoryEnabled(metric *metrics.Metric) bool {
	if s.allCategories {
		return true
	}
	return metric.InAnyCategory(s.categories)
}

// numericValue widens any built-in numeric type to float64.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// reset discards all buckets.
func (s *timeBucketedStore) reset() {
	s.buckets = make(map[int64]*timeBucket)
}
