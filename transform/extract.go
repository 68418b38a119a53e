// Package transform turns raw observation collections into upload-ready,
// size-capped batches: it flattens collection trees, groups observations by
// metric and dimensions into per-minute buckets, reduces them into summary
// statistics or exact histograms, and packs the results into batches.
//
// All state in this package is mutated without locking; callers must
// serialize access (the publisher funnels every call through a single
// worker goroutine).
package transform

import (
	"sort"

	"github.com/zhandoubo/cloudmetrics/metrics"
	"github.com/zhandoubo/cloudmetrics/upload"
)

// extractAllRecords flattens a collection tree into its leaf observations in
// pre-order: this node's records first, then each child recursively.
func extractAllRecords(c metrics.Collection) []metrics.Record {
	var result []metrics.Record
	appendRecords(c, &result)
	return result
}

func appendRecords(c metrics.Collection, out *[]metrics.Record) {
	*out = append(*out, c.Records()...)
	for _, child := range c.Children() {
		appendRecords(child, out)
	}
}

// extractDimensions derives the grouping dimensions for a collection from
// its top-level records only (not descendants). A record contributes a
// dimension when its metric name is in the configured dimension set and its
// value is a string.
//
// The result is sorted by name descending so that report order in the
// source collection never affects grouping, and so that "ServiceId" sorts
// before "OperationName" with the default dimension set.
func extractDimensions(c metrics.Collection, dimensionMetrics map[string]struct{}) []upload.Dimension {
	var result []upload.Dimension
	for _, record := range c.Records() {
		if _, ok := dimensionMetrics[record.Metric.Name()]; !ok {
			continue
		}
		value, ok := record.Value.(string)
		if !ok {
			continue
		}
		result = append(result, upload.Dimension{Name: record.Metric.Name(), Value: value})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name > result[j].Name
	})
	return result
}
