package transform

import (
	"math"
	"sort"
	"strings"

	"github.com/zhandoubo/cloudmetrics/metrics"
	"github.com/zhandoubo/cloudmetrics/upload"
)

// aggregatorKey groups observations sharing a metric and dimension set.
// Dimensions are encoded into a canonical string so the key is comparable
// and usable as a map key; two keys from different collections compare equal
// iff metric name and full dimension list match.
type aggregatorKey struct {
	metricName string
	dimensions string
}

// encodeDimensions renders an already-sorted dimension list into the
// canonical key form. The separators cannot occur in metric names and are
// unlikely in dimension values, keeping distinct lists distinct.
func encodeDimensions(dims []upload.Dimension) string {
	var b strings.Builder
	for _, d := range dims {
		b.WriteString(d.Name)
		b.WriteByte(0x1f)
		b.WriteString(d.Value)
		b.WriteByte(0x1e)
	}
	return b.String()
}

func newAggregatorKey(metric *metrics.Metric, dims []upload.Dimension) aggregatorKey {
	return aggregatorKey{
		metricName: metric.Name(),
		dimensions: encodeDimensions(dims),
	}
}

// aggregatorKind tags the reduction strategy of a metricAggregator. The kind
// is decided once at creation from the detailed-metrics configuration and
// never changes, so no runtime type dispatch is needed.
type aggregatorKind int

const (
	// summaryKind reduces to min/max/sum/count — lossy but compact, one
	// datum per key per flush.
	summaryKind aggregatorKind = iota

	// detailedKind retains an exact value histogram — lossless but larger,
	// possibly several data per key per flush.
	detailedKind
)

// histogramEntry is one (value, occurrences) pair of a detailed aggregator.
type histogramEntry struct {
	value float64
	count int64
}

// metricAggregator accumulates all values observed for one aggregatorKey
// within one time bucket. It is a tagged union: summary aggregators use the
// min/max/sum/count fields, detailed aggregators use valueCounts.
type metricAggregator struct {
	metric     *metrics.Metric
	dimensions []upload.Dimension
	unit       upload.StandardUnit
	kind       aggregatorKind

	min   float64
	max   float64
	sum   float64
	count int64

	valueCounts map[float64]int64
}

func newMetricAggregator(metric *metrics.Metric, dims []upload.Dimension, kind aggregatorKind) *metricAggregator {
	a := &metricAggregator{
		metric:     metric,
		dimensions: dims,
		unit:       unitFor(metric),
		kind:       kind,
		min:        math.Inf(1),
		max:        math.Inf(-1),
	}
	if kind == detailedKind {
		a.valueCounts = make(map[float64]int64)
	}
	return a
}

// unitFor derives the fixed upload unit from the metric's value kind.
func unitFor(metric *metrics.Metric) upload.StandardUnit {
	if metric.Kind() == metrics.KindDuration {
		return upload.UnitMilliseconds
	}
	return upload.UnitNone
}

// addValue folds one observation into the aggregator.
func (a *metricAggregator) addValue(value float64) {
	switch a.kind {
	case summaryKind:
		a.min = math.Min(a.min, value)
		a.max = math.Max(a.max, value)
		a.sum += value
		a.count++
	case detailedKind:
		a.valueCounts[value]++
	}
}

// histogramEntries snapshots a detailed aggregator's histogram into a slice
// sorted by value. Entry order carries no meaning for consumers; sorting
// only makes flush output deterministic.
func (a *metricAggregator) histogramEntries() []histogramEntry {
	entries := make([]histogramEntry, 0, len(a.valueCounts))
	for value, count := range a.valueCounts {
		entries = append(entries, histogramEntry{value: value, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].value < entries[j].value
	})
	return entries
}
