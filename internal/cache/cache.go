// Package cache memoizes completed searches for the lifetime of the process.
package cache

import (
	"sync"

	"event_hoarder/internal/domain"
	"event_hoarder/internal/tags"
)

// ResultSet is the ephemeral state of one search: records in discovery order
// across pages, the running tag counter, the next page number to fetch and
// whether the source hinted at more pages. Records are append-only.
type ResultSet struct {
	Records  []domain.EventRecord
	Tags     *tags.Aggregator
	NextPage int
	More     bool
}

func NewResultSet() *ResultSet {
	return &ResultSet{Tags: tags.New(), NextPage: 1, More: true}
}

// Cache maps search keys to result sets. Unbounded and never evicted: one
// interactive session searches a bounded number of distinct keys. A hit
// short-circuits all network fetches for that key.
type Cache struct {
	mu   sync.RWMutex
	sets map[string]*ResultSet
}

func New() *Cache {
	return &Cache{sets: make(map[string]*ResultSet)}
}

func (c *Cache) Get(key string) (*ResultSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.sets[key]
	return set, ok
}

func (c *Cache) Put(key string, set *ResultSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[key] = set
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = make(map[string]*ResultSet)
}
