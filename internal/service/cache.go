package service

import (
	"strings"
	"sync"
	"time"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/timeseries"
)

type cacheKey struct {
	dataset     string
	version     uint64
	windowFrom  int64
	windowTo    int64
	rangeStart  int64
	rangeEnd    int64
	rangeMode   timeseries.Mode
	rangeLabel  string
	reducer     timeseries.Reducer
	grouped     bool
	groupByKeys string
}

// cacheEntry is one cached aggregation and the number of records it read.
type cacheEntry struct {
	buckets []timeseries.AggregatedBucket
	records int
}

// AggregateCache memoizes bucket lists per dataset version. Storing new
// records for a dataset bumps its version, so stale entries are never served.
// A cache with maxEntries <= 0 stores nothing.
type AggregateCache struct {
	mu         sync.Mutex
	maxEntries int
	versions   map[string]uint64
	entries    map[cacheKey]cacheEntry
}

// NewAggregateCache creates a cache holding at most maxEntries results.
func NewAggregateCache(maxEntries int) *AggregateCache {
	return &AggregateCache{
		maxEntries: maxEntries,
		versions:   make(map[string]uint64),
		entries:    make(map[cacheKey]cacheEntry),
	}
}

// Version returns the current version of dataset.
func (c *AggregateCache) Version(dataset string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[dataset]
}

// Invalidate bumps the version of each dataset and drops its entries.
func (c *AggregateCache) Invalidate(datasets ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bumped := make(map[string]struct{}, len(datasets))
	for _, d := range datasets {
		c.versions[d]++
		bumped[d] = struct{}{}
	}
	for k := range c.entries {
		if _, ok := bumped[k.dataset]; ok {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of cached results.
func (c *AggregateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *AggregateCache) get(key cacheKey) (cacheEntry, bool) {
	if c.maxEntries <= 0 {
		return cacheEntry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *AggregateCache) put(key cacheKey, entry cacheEntry) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		c.entries = make(map[cacheKey]cacheEntry)
	}
	c.entries[key] = entry
}

func newCacheKey(dataset string, version uint64, window model.RecordFilter, rs timeseries.RangeSpec, reducer timeseries.Reducer, groupBy *timeseries.GroupBy) cacheKey {
	key := cacheKey{
		dataset:    dataset,
		version:    version,
		windowFrom: unixNano(window.From),
		windowTo:   unixNano(window.To),
		rangeMode:  rs.Mode,
		rangeLabel: rs.Label,
		reducer:    reducer,
	}
	if !rs.Unbounded() {
		key.rangeStart = rs.Start.UnixNano()
		key.rangeEnd = rs.End.UnixNano()
	}
	if groupBy != nil {
		key.grouped = true
		key.groupByKeys = strings.Join(groupBy.Keys, "\x1f")
	}
	return key
}

// unixNano maps an open window bound to 0.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
