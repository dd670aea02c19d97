// Package tags counts tag occurrences across a result set.
package tags

import (
	"sort"

	"event_hoarder/internal/domain"
)

// Aggregator is a frequency counter over tags. Counts accumulate
// monotonically for the lifetime of one result set. Not safe for concurrent
// use; callers merge per-page snapshots after the page workers have joined.
type Aggregator struct {
	counts map[string]int
	seen   map[string]int
	order  []string
}

func New() *Aggregator {
	return &Aggregator{
		counts: make(map[string]int),
		seen:   make(map[string]int),
	}
}

// Add records one occurrence of tag.
func (a *Aggregator) Add(tag string) {
	a.AddN(tag, 1)
}

// AddN records n occurrences of tag.
func (a *Aggregator) AddN(tag string, n int) {
	if n <= 0 {
		return
	}
	if _, ok := a.seen[tag]; !ok {
		a.seen[tag] = len(a.order)
		a.order = append(a.order, tag)
	}
	a.counts[tag] += n
}

// Merge folds a counter snapshot into the aggregator, preserving the
// snapshot's ordering for tags not seen before.
func (a *Aggregator) Merge(snapshot []domain.TagCount) {
	for _, tc := range snapshot {
		a.AddN(tc.Tag, tc.Count)
	}
}

// Snapshot returns all counts in first-seen order.
func (a *Aggregator) Snapshot() []domain.TagCount {
	out := make([]domain.TagCount, 0, len(a.order))
	for _, tag := range a.order {
		out = append(out, domain.TagCount{Tag: tag, Count: a.counts[tag]})
	}
	return out
}

// TopK returns the k highest counts, ties broken by first-seen order.
func (a *Aggregator) TopK(k int) []domain.TagCount {
	out := a.Snapshot()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}

// Len returns the number of distinct tags seen.
func (a *Aggregator) Len() int {
	return len(a.order)
}
