package lookup

import (
	"github.com/agentstation/rfreconcile/pkg/sites"
)

// Key identifies one memoized lookup.
type Key struct {
	StationID string
	Field     sites.Field
}

// Cache memoizes lookup results for one run. A stored NotFound result is
// distinct from a key that was never looked up.
type Cache struct {
	entries map[Key]Result
	hits    int
	misses  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]Result)}
}

// Get returns the cached result and whether the key was looked up before.
func (c *Cache) Get(key Key) (Result, bool) {
	r, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return r, ok
}

// Put stores a result, including NotFound.
func (c *Cache) Put(key Key, r Result) {
	c.entries[key] = r
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns cache hits and misses.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
