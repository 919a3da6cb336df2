package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrOverlappingFields is returned when two fields share a bit.
	ErrOverlappingFields = errors.New("overlapping fields")
	// ErrOutOfRange is returned for a field with zero width, wider than 64
	// bits, or reaching past the register width.
	ErrOutOfRange = errors.New("field out of range")
	// ErrValueOverflow is returned by Insert when a value does not fit the field.
	ErrValueOverflow = errors.New("value does not fit field")
	// ErrUnsupportedSize is returned for register sizes other than 8, 16, 32
	// and 64 bits.
	ErrUnsupportedSize = errors.New("unsupported register size")
)

// Error is a layout failure for one register.
type Error struct {
	Register string
	Field    string
	// Other names the second field of an overlap.
	Other string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Other != "":
		return fmt.Sprintf("%s: %s and %s: %v", e.Register, e.Field, e.Other, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s.%s: %v", e.Register, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Register, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
