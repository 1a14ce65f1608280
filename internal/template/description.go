package template

import (
	"fmt"
	"slices"
)

// UnitID identifies a compiled code unit. IDs are assigned once and never reused.
type UnitID uint64

// SlotID is the per-unit identifier of a tagged template call site
type SlotID uint32

// Cooked is one cooked string part. Valid is false when the raw part contains an
// escape sequence that has no cooked value, in which case the part is undefined.
type Cooked struct {
	Value string
	Valid bool
}

// CookedString returns a valid cooked part
func CookedString(s string) Cooked {
	return Cooked{Value: s, Valid: true}
}

// Undefined is the cooked part for an invalid escape sequence
var Undefined = Cooked{}

func (c Cooked) String() string {
	if !c.Valid {
		return "undefined"
	}
	return fmt.Sprintf("%q", c.Value)
}

// Description is the compile-time seed of a template object: the raw and cooked
// parts of one call site. It is never mutated after NewDescription returns.
type Description struct {
	slot   SlotID
	raw    []string
	cooked []Cooked
}

// NewDescription creates a description for slot. The slices are copied, so the
// caller may reuse them.
func NewDescription(slot SlotID, raw []string, cooked []Cooked) (*Description, error) {
	if len(raw) != len(cooked) || len(raw) == 0 {
		return nil, NewMalformedDescriptionError(slot, len(raw), len(cooked))
	}
	return &Description{
		slot:   slot,
		raw:    slices.Clone(raw),
		cooked: slices.Clone(cooked),
	}, nil
}

// Slot returns the call-site slot this description was registered for
func (d *Description) Slot() SlotID {
	return d.slot
}

// Len returns the number of string parts
func (d *Description) Len() int {
	return len(d.raw)
}

// Raw returns raw part i
func (d *Description) Raw(i int) string {
	return d.raw[i]
}

// Cooked returns cooked part i
func (d *Description) Cooked(i int) Cooked {
	return d.cooked[i]
}

// RawStrings returns a copy of the raw parts
func (d *Description) RawStrings() []string {
	return slices.Clone(d.raw)
}

// CookedStrings returns a copy of the cooked parts
func (d *Description) CookedStrings() []Cooked {
	return slices.Clone(d.cooked)
}

// validate re-checks the length invariant; a zero Description or one built
// outside NewDescription fails here.
func (d *Description) validate() error {
	if d == nil {
		return NewMalformedDescriptionError(0, 0, 0)
	}
	if len(d.raw) != len(d.cooked) || len(d.raw) == 0 {
		return NewMalformedDescriptionError(d.slot, len(d.raw), len(d.cooked))
	}
	return nil
}
