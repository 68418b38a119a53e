// Package upload defines the wire-level model handed to the remote
// time-series store — dimensions, data points, and size-capped batches —
// together with the transport abstraction that delivers them.
package upload

import "time"

// StandardUnit is the unit attached to a datum.
type StandardUnit string

const (
	// UnitMilliseconds is used for duration-typed metrics.
	UnitMilliseconds StandardUnit = "Milliseconds"

	// UnitNone is used for every other metric.
	UnitNone StandardUnit = "None"
)

// Dimension is a named string attribute partitioning aggregated metrics,
// such as a service or operation name.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StatisticSet carries the compact statistical summary of a metric over one
// time bucket.
type StatisticSet struct {
	Minimum     float64 `json:"minimum"`
	Maximum     float64 `json:"maximum"`
	Sum         float64 `json:"sum"`
	SampleCount float64 `json:"sampleCount"`
}

// Datum is one uploadable data point: a metric name with its dimensions,
// unit, and time bucket, carrying either a statistic set (summary metrics)
// or parallel value/count arrays (detailed metrics). Exactly one of Stats
// and Values is populated.
type Datum struct {
	MetricName string       `json:"metricName"`
	Dimensions []Dimension  `json:"dimensions,omitempty"`
	Unit       StandardUnit `json:"unit"`
	Timestamp  time.Time    `json:"timestamp"`

	Stats *StatisticSet `json:"statisticValues,omitempty"`

	// Values and Counts are parallel arrays: Counts[i] occurrences of
	// Values[i] were observed.
	Values []float64 `json:"values,omitempty"`
	Counts []float64 `json:"counts,omitempty"`
}

// Batch is one upload request: a namespace and a capped list of data.
// Batches are disposable request objects with no identity beyond their
// contents.
type Batch struct {
	Namespace string  `json:"namespace"`
	Data      []Datum `json:"metricData"`
}
