// Package codeunit models compiled code units and the template objects they own.
//
// A Unit owns its template descriptions and its template object cache outright.
// Evaluators resolve template objects through the unit; the objects they get
// back stay identity-stable for as long as the unit lives. Destroying the unit,
// or letting it become unreachable, tears its cache down with it.
package codeunit

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"bennypowers.dev/tplcache/internal/cache"
	"bennypowers.dev/tplcache/internal/log"
	"bennypowers.dev/tplcache/internal/template"
)

// ErrDestroyed is returned when resolving through a destroyed unit
var ErrDestroyed = errors.New("code unit destroyed")

var nextID atomic.Uint64

// Option configures a Unit
type Option func(*Unit)

// WithSites attaches call-site metadata for diagnostics
func WithSites(sites []Site) Option {
	return func(u *Unit) {
		u.sites = append([]Site(nil), sites...)
	}
}

// Site describes where a slot's call site appears in the source.
// Line and Column are 1-indexed.
type Site struct {
	Slot   template.SlotID `json:"slot" yaml:"slot"`
	Tag    string          `json:"tag" yaml:"tag"`
	Line   uint            `json:"line" yaml:"line"`
	Column uint            `json:"column" yaml:"column"`
}

// Unit is a compiled function or script with zero or more tagged template call sites
type Unit struct {
	id    template.UnitID
	name  string
	sites []Site

	mu           sync.RWMutex
	descriptions *template.Store
	cache        *cache.Cache
}

// New creates a unit named name that owns descriptions. A nil store is an
// empty unit with no call sites.
func New(name string, descriptions *template.Store, opts ...Option) *Unit {
	id := template.UnitID(nextID.Add(1))
	u := &Unit{
		id:           id,
		name:         name,
		descriptions: descriptions,
		cache:        cache.New(id, descriptions),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ID returns the unit's identity
func (u *Unit) ID() template.UnitID {
	return u.id
}

// Name returns the script name the unit was compiled from
func (u *Unit) Name() string {
	return u.name
}

// Sites returns the call-site metadata, if any was attached
func (u *Unit) Sites() []Site {
	return append([]Site(nil), u.sites...)
}

// Descriptions returns the unit's description store, or nil once destroyed
func (u *Unit) Descriptions() *template.Store {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.descriptions
}

// TemplateObject resolves the template object for slot. The first call for a
// slot materializes it; every later call returns the same object.
//
// An error here is an internal consistency failure (an unregistered slot or a
// malformed description), or a use of a destroyed unit.
func (u *Unit) TemplateObject(slot template.SlotID) (*template.Object, error) {
	u.mu.RLock()
	c := u.cache
	u.mu.RUnlock()
	if c == nil {
		return nil, fmt.Errorf("unit %d (%s): %w", u.id, u.name, ErrDestroyed)
	}

	obj, err := c.GetOrCreate(slot)
	if errors.Is(err, cache.ErrClosed) {
		return nil, fmt.Errorf("unit %d (%s): %w", u.id, u.name, ErrDestroyed)
	}
	if err != nil {
		return nil, fmt.Errorf("unit %d (%s): %w", u.id, u.name, err)
	}
	return obj, nil
}

// MustTemplateObject is like TemplateObject but panics on error. Evaluators
// use it where a failure can only mean a compiler or runtime bug.
func (u *Unit) MustTemplateObject(slot template.SlotID) *template.Object {
	obj, err := u.TemplateObject(slot)
	if err != nil {
		panic(err)
	}
	return obj
}

// Stats returns the cache counters of the unit
func (u *Unit) Stats() cache.Stats {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.cache == nil {
		return cache.Stats{}
	}
	return u.cache.Stats()
}

// Cached reports how many slots have been materialized
func (u *Unit) Cached() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.cache == nil {
		return 0
	}
	return u.cache.Len()
}

// Destroy tears down the cache and drops the descriptions. Template objects
// already handed out keep their content, but the unit no longer resolves.
func (u *Unit) Destroy() {
	u.mu.Lock()
	c := u.cache
	u.cache = nil
	u.descriptions = nil
	u.mu.Unlock()

	if c != nil {
		c.Close()
		log.Debug("destroyed code unit %d (%s)", u.id, u.name)
	}
}

// Destroyed reports whether Destroy has been called
func (u *Unit) Destroyed() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.cache == nil
}
