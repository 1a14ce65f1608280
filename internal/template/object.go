package template

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
)

// Handle is the explicit identity of a materialized template object.
//
// Unit and Slot say which call site the object was built for. Serial is a
// process-wide allocation number; no two constructions ever share one, so two
// handles are equal only when they name the same object.
type Handle struct {
	Unit   UnitID `json:"unit" yaml:"unit"`
	Slot   SlotID `json:"slot" yaml:"slot"`
	Serial uint64 `json:"serial" yaml:"serial"`
}

func (h Handle) String() string {
	return fmt.Sprintf("unit %d slot %d #%d", h.Unit, h.Slot, h.Serial)
}

var serials atomic.Uint64

// Object is a frozen template object: an array of cooked parts with the raw
// parts attached as a second frozen array. Nothing can change it after Construct.
type Object struct {
	handle Handle
	cooked []Cooked
	raw    *RawArray
}

// RawArray is the frozen array stored under the template object's raw property
type RawArray struct {
	parts []string
}

// Construct materializes a new template object for desc on behalf of unit.
// Every call returns a distinct object, even for identical content; keeping
// one object per call site is the cache's job.
func Construct(unit UnitID, desc *Description) (*Object, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	return &Object{
		handle: Handle{
			Unit:   unit,
			Slot:   desc.slot,
			Serial: serials.Add(1),
		},
		cooked: slices.Clone(desc.cooked),
		raw:    &RawArray{parts: slices.Clone(desc.raw)},
	}, nil
}

// Same reports whether a and b are the same template object
func Same(a, b *Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.handle == b.handle
}

// Handle returns the identity of the object
func (o *Object) Handle() Handle {
	return o.handle
}

// Len returns the number of elements
func (o *Object) Len() int {
	return len(o.cooked)
}

// At returns element i
func (o *Object) At(i int) Cooked {
	return o.cooked[i]
}

// Elements returns a copy of the cooked parts
func (o *Object) Elements() []Cooked {
	return slices.Clone(o.cooked)
}

// Raw returns the raw property
func (o *Object) Raw() *RawArray {
	return o.raw
}

// Set always fails: template objects are frozen
func (o *Object) Set(i int, _ Cooked) error {
	return fmt.Errorf("set element %d: %w", i, ErrFrozen)
}

// IsFrozen reports true for every template object
func (o *Object) IsFrozen() bool {
	return true
}

// Equal compares content only. Two distinct objects built from the same
// description are Equal but not Same.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	return slices.Equal(o.cooked, other.cooked) && slices.Equal(o.raw.parts, other.raw.parts)
}

// Matches reports whether the object carries exactly the parts of desc
func (o *Object) Matches(desc *Description) bool {
	return slices.Equal(o.cooked, desc.cooked) && slices.Equal(o.raw.parts, desc.raw)
}

func (o *Object) String() string {
	parts := make([]string, len(o.cooked))
	for i, c := range o.cooked {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Len returns the number of raw parts
func (r *RawArray) Len() int {
	return len(r.parts)
}

// At returns raw part i
func (r *RawArray) At(i int) string {
	return r.parts[i]
}

// Strings returns a copy of the raw parts
func (r *RawArray) Strings() []string {
	return slices.Clone(r.parts)
}

// Set always fails: the raw array is frozen along with its template object
func (r *RawArray) Set(i int, _ string) error {
	return fmt.Errorf("set raw part %d: %w", i, ErrFrozen)
}
