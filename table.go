package sitecount

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Table holds the per-site execution counts of one instrumented unit
type Table struct {
	identifier string
	counts     []atomic.Int64
}

// NewTable creates a zeroed table with the given number of sites
func NewTable(identifier string, sites int) *Table {
	return &Table{
		identifier: identifier,
		counts:     make([]atomic.Int64, sites),
	}
}

// Identifier returns the unit identifier the table is tagged with
func (t *Table) Identifier() string {
	return t.identifier
}

// Len returns the number of sites
func (t *Table) Len() int {
	return len(t.counts)
}

// Inc records one execution of site. An index outside [0, Len()) is a bug
// in the site assignment and panics.
func (t *Table) Inc(site int) {
	t.counts[site].Add(1)
}

// Add records delta executions of site. Non-positive deltas are ignored.
func (t *Table) Add(site int, delta int64) {
	if delta <= 0 {
		return
	}
	t.counts[site].Add(delta)
}

// Get returns the current count of site
func (t *Table) Get(site int) int64 {
	return t.counts[site].Load()
}

// Counts returns a snapshot of all counters
func (t *Table) Counts() []int64 {
	out := make([]int64, len(t.counts))
	for i := range t.counts {
		out[i] = t.counts[i].Load()
	}
	return out
}

// Record snapshots the table as a log record
func (t *Table) Record() Record {
	return Record{Identifier: t.identifier, Counts: t.Counts()}
}

// Name implements Collector interface
func (t *Table) Name() string {
	return t.identifier
}

// Collect implements Collector interface
func (t *Table) Collect() []Metric {
	now := time.Now()
	metrics := make([]Metric, 0, len(t.counts))

	for i := range t.counts {
		metrics = append(metrics, Metric{
			Name:  "site_hits",
			Value: float64(t.counts[i].Load()),
			Labels: map[string]string{
				"unit": t.identifier,
				"site": strconv.Itoa(i),
			},
			MetricType: Counter,
			Timestamp:  now,
		})
	}

	return metrics
}
