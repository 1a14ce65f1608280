// Package cache keeps at most one template object per call-site slot for the
// lifetime of a code unit.
package cache

import (
	"errors"
	"maps"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"bennypowers.dev/tplcache/internal/log"
	"bennypowers.dev/tplcache/internal/template"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by every operation on a cache after Close
var ErrClosed = errors.New("template cache is closed")

// Source supplies the description of a slot on a cache miss.
// *template.Store satisfies it.
type Source interface {
	Get(slot template.SlotID) (*template.Description, error)
}

// Stats is a snapshot of cache traffic
type Stats struct {
	Hits        uint64 `json:"hits" yaml:"hits"`
	Misses      uint64 `json:"misses" yaml:"misses"`
	Allocations uint64 `json:"allocations" yaml:"allocations"`
}

// Cache maps slots of one code unit to their template objects.
//
// Hits take only the read lock. Concurrent misses on the same slot are
// collapsed by a singleflight group, and the winner re-checks the map before
// constructing, so a slot is materialized exactly once however the callers
// interleave. No lock is shared between caches of different units.
//
// The cache holds the unit's ID, never the unit itself, so it cannot keep a
// unit reachable.
type Cache struct {
	unit template.UnitID
	src  Source

	mu      sync.RWMutex
	entries map[template.SlotID]*template.Object
	closed  bool

	group singleflight.Group

	hits        atomic.Uint64
	misses      atomic.Uint64
	allocations atomic.Uint64
}

// New creates an empty cache for unit, resolving misses through src
func New(unit template.UnitID, src Source) *Cache {
	return &Cache{
		unit:    unit,
		src:     src,
		entries: make(map[template.SlotID]*template.Object),
	}
}

// Unit returns the ID of the owning code unit
func (c *Cache) Unit() template.UnitID {
	return c.unit
}

// GetOrCreate returns the template object for slot, constructing and storing
// it on the first call. Every call for the same slot returns the same object.
func (c *Cache) GetOrCreate(slot template.SlotID) (*template.Object, error) {
	obj, ok, err := c.lookup(slot)
	if err != nil {
		return nil, err
	}
	if ok {
		c.hits.Add(1)
		return obj, nil
	}

	c.misses.Add(1)
	v, err, _ := c.group.Do(strconv.FormatUint(uint64(slot), 10), func() (any, error) {
		return c.create(slot)
	})
	if err != nil {
		return nil, err
	}
	return v.(*template.Object), nil
}

// create runs inside the singleflight group. A caller that missed before an
// earlier flight stored its result starts a new flight, so the map is checked
// again before anything is allocated.
func (c *Cache) create(slot template.SlotID) (*template.Object, error) {
	c.mu.RLock()
	obj, ok := c.entries[slot]
	src, closed := c.src, c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return obj, nil
	}

	desc, err := src.Get(slot)
	if err != nil {
		return nil, err
	}
	obj, err = template.Construct(c.unit, desc)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if existing, ok := c.entries[slot]; ok {
		return existing, nil
	}
	c.entries[slot] = obj
	c.allocations.Add(1)

	if log.Enabled(log.LevelDebug) {
		log.Debug("materialized template object %s", obj.Handle())
	}
	return obj, nil
}

func (c *Cache) lookup(slot template.SlotID) (*template.Object, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, false, ErrClosed
	}
	obj, ok := c.entries[slot]
	return obj, ok, nil
}

// Lookup returns the cached object for slot without constructing one
func (c *Cache) Lookup(slot template.SlotID) (*template.Object, bool) {
	obj, ok, _ := c.lookup(slot)
	return obj, ok
}

// Len returns the number of materialized slots
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Slots returns the materialized slots in ascending order
func (c *Cache) Slots() []template.SlotID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.entries))
}

// Stats returns a snapshot of the hit, miss and allocation counters
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Allocations: c.allocations.Load(),
	}
}

// Close evicts every entry and makes the cache inert. It is safe to call more
// than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	n := len(c.entries)
	c.entries = nil
	c.src = nil
	c.closed = true
	log.Debug("closed template cache of unit %d (%d entries)", c.unit, n)
}

// Closed reports whether Close has been called
func (c *Cache) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
