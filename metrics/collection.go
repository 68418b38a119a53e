package metrics

import "time"

// Record is one raw observation: a metric definition and the value reported
// for it. Values are time.Duration for KindDuration metrics, any numeric
// type for KindNumber metrics, and string for KindString metrics.
type Record struct {
	Metric *Metric
	Value  any
}

// Collection is a read-only, tree-shaped batch of observations. A client
// produces one collection per logical operation; nested attempts or
// sub-operations appear as child collections. Implementations must be
// immutable once handed to the pipeline.
type Collection interface {
	// Name identifies what the collection measures (e.g. an operation name).
	Name() string

	// CreatedAt is the collection's creation timestamp, used for time
	// bucketing by the aggregation pipeline.
	CreatedAt() time.Time

	// Records returns the observations recorded at this node only.
	Records() []Record

	// Children returns the nested sub-collections.
	Children() []Collection
}

// Collector is a mutable builder for Collections. It is not safe for
// concurrent use; one collector instruments one in-flight operation.
type Collector struct {
	name     string
	records  []Record
	children []*Collector
}

// NewCollector creates a named collector with the current time as the
// eventual collection timestamp.
func NewCollector(name string) *Collector {
	return &Collector{name: name}
}

// Record appends one observation to this collector.
func (c *Collector) Record(metric *Metric, value any) {
	c.records = append(c.records, Record{Metric: metric, Value: value})
}

// Child creates and attaches a nested collector, for example one per retry
// attempt within a call.
func (c *Collector) Child(name string) *Collector {
	child := &Collector{name: name}
	c.children = append(c.children, child)
	return child
}

// Collect snapshots the collector into an immutable Collection stamped with
// the current time. The collector must not be mutated afterwards.
func (c *Collector) Collect() Collection {
	return c.collectAt(time.Now())
}

// CollectAt snapshots the collector with an explicit creation timestamp.
// Primarily useful in tests that pin time buckets.
func (c *Collector) CollectAt(createdAt time.Time) Collection {
	return c.collectAt(createdAt)
}

func (c *Collector) collectAt(createdAt time.Time) Collection {
	children := make([]Collection, 0, len(c.children))
	for _, child := range c.children {
		children = append(children, child.collectAt(createdAt))
	}

	return &collection{
		name:      c.name,
		createdAt: createdAt,
		records:   append([]Record(nil), c.records...),
		children:  children,
	}
}

// collection is the immutable snapshot produced by a Collector.
type collection struct {
	name      string
	createdAt time.Time
	records   []Record
	children  []Collection
}

func (c *collection) Name() string {
	return c.name
}

func (c *collection) CreatedAt() time.Time {
	return c.createdAt
}

func (c *collection) Records() []Record {
	return c.records
}

func (c *collection) Children() []Collection {
	return c.children
}
