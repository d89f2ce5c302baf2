// Package cache tracks recently sighted markers so front ends can keep
// displaying a marker for a grace period after its last detection.
package cache

import (
	"sort"
	"sync"
	"time"
)

// Sighting is the cached state of one marker id.
type Sighting struct {
	LastSeen time.Time
	Count    int
}

// DetectionCache records the last sighting per marker id. Latency in
// these calls matters: they sit on the per-frame processing path.
type DetectionCache struct {
	mu        sync.RWMutex
	sightings map[int]Sighting
}

// NewDetectionCache creates an empty cache.
func NewDetectionCache() *DetectionCache {
	return &DetectionCache{
		sightings: make(map[int]Sighting),
	}
}

// Touch records a sighting of a marker id at time now.
func (c *DetectionCache) Touch(id int, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sightings[id]
	s.LastSeen = now
	s.Count++
	c.sightings[id] = s
}

// Get returns the cached sighting for an id.
func (c *DetectionCache) Get(id int) (Sighting, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sightings[id]
	return s, ok
}

// Active returns the ids seen within timeout of now, ascending. Expired
// entries are pruned as a side effect.
func (c *DetectionCache) Active(now time.Time, timeout time.Duration) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int, 0, len(c.sightings))
	for id, s := range c.sightings {
		if now.Sub(s.LastSeen) > timeout {
			delete(c.sightings, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of cached marker ids.
func (c *DetectionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sightings)
}

// Reset clears the cache.
func (c *DetectionCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sightings = make(map[int]Sighting)
}

// SafeCounter is a thread-safe counter.
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
