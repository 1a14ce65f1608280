package template

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Store holds the descriptions of one code unit, indexed by slot.
// It is built once by the front end and is read-only afterwards, so it is safe
// for concurrent use without locking.
type Store struct {
	descriptions map[SlotID]*Description
}

// NewStore builds a store from descs. Every slot must appear exactly once.
func NewStore(descs ...*Description) (*Store, error) {
	s := &Store{
		descriptions: make(map[SlotID]*Description, len(descs)),
	}
	for i, d := range descs {
		if d == nil {
			return nil, fmt.Errorf("description %d: %w", i, NewMalformedDescriptionError(0, 0, 0))
		}
		if _, exists := s.descriptions[d.slot]; exists {
			return nil, fmt.Errorf("%w: slot %d", ErrDuplicateSlot, d.slot)
		}
		s.descriptions[d.slot] = d
	}
	return s, nil
}

// Get returns the description registered for slot
func (s *Store) Get(slot SlotID) (*Description, error) {
	if s == nil {
		return nil, NewUnknownSlotError(slot)
	}
	d, ok := s.descriptions[slot]
	if !ok {
		return nil, NewUnknownSlotError(slot)
	}
	return d, nil
}

// Len returns the number of registered slots
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.descriptions)
}

// Slots returns the registered slots in ascending order
func (s *Store) Slots() []SlotID {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.descriptions))
}

// IsUnknownSlot reports whether err is, or wraps, an unknown slot error
func IsUnknownSlot(err error) bool {
	return errors.Is(err, ErrUnknownSlot)
}
