package codeunit

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"weak"

	"bennypowers.dev/tplcache/internal/log"
	"bennypowers.dev/tplcache/internal/template"
)

// ErrUnknownUnit is returned for IDs that were never registered or whose unit
// has been collected or released
var ErrUnknownUnit = errors.New("unknown code unit")

// Registry finds live units by ID without keeping them alive.
//
// Entries are weak pointers. When the collector reclaims a unit, a cleanup
// drops its entry, and the unit's cache goes with the unit.
type Registry struct {
	mu    sync.Mutex
	units map[template.UnitID]weak.Pointer[Unit]

	collected atomic.Uint64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		units: make(map[template.UnitID]weak.Pointer[Unit]),
	}
}

// Register starts tracking u. Registering the same unit twice is a no-op.
func (r *Registry) Register(u *Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.units[u.id]; exists {
		return
	}
	r.units[u.id] = weak.Make(u)
	runtime.AddCleanup(u, r.unitCollected, u.id)
}

func (r *Registry) unitCollected(id template.UnitID) {
	r.mu.Lock()
	delete(r.units, id)
	r.mu.Unlock()

	r.collected.Add(1)
	log.Debug("code unit %d collected", id)
}

// Get returns the live unit with id
func (r *Registry) Get(id template.UnitID) (*Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ptr, ok := r.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	u := ptr.Value()
	if u == nil {
		// Collected, but the cleanup has not run yet.
		delete(r.units, id)
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	return u, nil
}

// Resolve looks up a unit and resolves the template object for slot through it
func (r *Registry) Resolve(id template.UnitID, slot template.SlotID) (*template.Object, error) {
	u, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return u.TemplateObject(slot)
}

// Release destroys the unit with id and stops tracking it
func (r *Registry) Release(id template.UnitID) error {
	u, err := r.Get(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.units, id)
	r.mu.Unlock()
	u.Destroy()
	return nil
}

// Len returns the number of tracked units
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.units)
}

// IDs returns the tracked unit IDs in ascending order
func (r *Registry) IDs() []template.UnitID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.units))
}

// Collected returns how many registered units the collector has reclaimed
func (r *Registry) Collected() uint64 {
	return r.collected.Load()
}
