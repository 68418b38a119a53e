// Package metrics defines the metric vocabulary consumed by the aggregation
// pipeline: metric definitions, observation records, and the tree-shaped
// collections produced by instrumented clients.
package metrics

// Category classifies metrics so consumers can enable coarse groups of them
// without naming each metric individually.
type Category string

const (
	// CategoryAll is a wildcard that matches every category.
	CategoryAll Category = "all"

	// CategoryCore covers request-level metrics every client reports.
	CategoryCore Category = "core"

	// CategoryHTTPClient covers transport-level metrics of the underlying
	// HTTP client.
	CategoryHTTPClient Category = "httpclient"

	// CategoryCustom covers application-defined metrics.
	CategoryCustom Category = "custom"
)

// ValueKind describes the raw value type a metric reports. The kind is fixed
// per metric definition and drives unit selection and value conversion in
// the aggregation pipeline.
type ValueKind int

const (
	// KindNumber marks metrics reporting plain numeric values.
	KindNumber ValueKind = iota

	// KindDuration marks metrics reporting time.Duration values, converted
	// to milliseconds when aggregated.
	KindDuration

	// KindString marks metrics reporting string values. String metrics are
	// never aggregated; they exist to carry dimension values.
	KindString
)

// Metric is an immutable metric definition: a name, the kind of value it
// reports, and the categories it belongs to. Definitions are created once at
// package initialization and shared; equality is by name.
type Metric struct {
	name       string
	kind       ValueKind
	categories []Category
}

// New creates a metric definition.
func New(name string, kind ValueKind, categories ...Category) *Metric {
	return &Metric{
		name:       name,
		kind:       kind,
		categories: categories,
	}
}

// Name returns the metric's name.
func (m *Metric) Name() string {
	return m.name
}

// Kind returns the kind of value the metric reports.
func (m *Metric) Kind() ValueKind {
	return m.kind
}

// Categories returns the categories the metric belongs to.
func (m *Metric) Categories() []Category {
	return m.categories
}

// InAnyCategory reports whether the metric belongs to at least one of the
// given categories. The CategoryAll wildcard must be handled by the caller;
// this method matches literal membership only.
func (m *Metric) InAnyCategory(enabled map[Category]struct{}) bool {
	for _, c := range m.categories {
		if _, ok := enabled[c]; ok {
			return true
		}
	}
	return false
}

// Default metric definitions reported by instrumented clients. Service and
// operation names are string metrics and double as the default grouping
// dimensions.
var (
	ServiceID            = New("ServiceId", KindString, CategoryCore)
	OperationName        = New("OperationName", KindString, CategoryCore)
	APICallDuration      = New("ApiCallDuration", KindDuration, CategoryCore)
	APICallSuccessful    = New("ApiCallSuccessful", KindNumber, CategoryCore)
	RetryCount           = New("RetryCount", KindNumber, CategoryCore)
	MarshallingDuration  = New("MarshallingDuration", KindDuration, CategoryCore)
	BackoffDelayDuration = New("BackoffDelayDuration", KindDuration, CategoryCore)
	HTTPStatusCode       = New("HttpStatusCode", KindNumber, CategoryHTTPClient)
	AvailableConcurrency = New("AvailableConcurrency", KindNumber, CategoryHTTPClient)
)
