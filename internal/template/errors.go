package template

import (
	"errors"
	"fmt"
)

// Sentinel errors for error type checking.
//
// ErrUnknownSlot and ErrMalformedDescription indicate a consistency bug between
// the compiler and the runtime. They are never valid language-level exceptions.
var (
	// ErrUnknownSlot indicates a slot that the front end never registered
	ErrUnknownSlot = errors.New("unknown template slot")

	// ErrMalformedDescription indicates raw and cooked parts of different length
	ErrMalformedDescription = errors.New("malformed template description")

	// ErrDuplicateSlot indicates two descriptions registered for one slot
	ErrDuplicateSlot = errors.New("duplicate template slot")

	// ErrFrozen is returned by every attempt to mutate a template object
	ErrFrozen = errors.New("template object is frozen")
)

// UnknownSlotError reports a lookup of an unregistered slot
type UnknownSlotError struct {
	Slot SlotID
}

func (e *UnknownSlotError) Error() string {
	return fmt.Sprintf("unknown template slot %d", e.Slot)
}

func (e *UnknownSlotError) Unwrap() error {
	return ErrUnknownSlot
}

// NewUnknownSlotError creates a new unknown slot error
func NewUnknownSlotError(slot SlotID) error {
	return &UnknownSlotError{Slot: slot}
}

// MalformedDescriptionError reports a description whose parts do not line up
type MalformedDescriptionError struct {
	Slot      SlotID
	RawLen    int
	CookedLen int
}

func (e *MalformedDescriptionError) Error() string {
	if e.RawLen == 0 && e.CookedLen == 0 {
		return fmt.Sprintf("malformed template description for slot %d: no string parts", e.Slot)
	}
	return fmt.Sprintf("malformed template description for slot %d: %d raw parts but %d cooked parts",
		e.Slot, e.RawLen, e.CookedLen)
}

func (e *MalformedDescriptionError) Unwrap() error {
	return ErrMalformedDescription
}

// NewMalformedDescriptionError creates a new malformed description error
func NewMalformedDescriptionError(slot SlotID, rawLen, cookedLen int) error {
	return &MalformedDescriptionError{
		Slot:      slot,
		RawLen:    rawLen,
		CookedLen: cookedLen,
	}
}
