// Package mmio is the runtime used by generated register code: fixed-size
// register cells with explicit load and store, and the error raised when a
// field value does not fit its bits.
//
// A register cell is only meaningful when it overlays device memory, which
// generated code arranges through an unsafe.Pointer cast of the peripheral
// base address. Tests overlay cells on ordinary memory instead.
package mmio

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Reg8 is an 8-bit register.
type Reg8 struct{ v uint8 }

// Load reads the register.
//
//go:noinline
func (r *Reg8) Load() uint8 { return r.v }

// Store writes the register.
//
//go:noinline
func (r *Reg8) Store(v uint8) { r.v = v }

// Addr returns the address of the register.
func (r *Reg8) Addr() uintptr { return uintptr(unsafe.Pointer(r)) }

// Reg16 is a 16-bit register.
type Reg16 struct{ v uint16 }

// Load reads the register.
//
//go:noinline
func (r *Reg16) Load() uint16 { return r.v }

// Store writes the register.
//
//go:noinline
func (r *Reg16) Store(v uint16) { r.v = v }

// Addr returns the address of the register.
func (r *Reg16) Addr() uintptr { return uintptr(unsafe.Pointer(r)) }

// Reg32 is a 32-bit register.
type Reg32 struct{ v atomic.Uint32 }

// Load reads the register.
func (r *Reg32) Load() uint32 { return r.v.Load() }

// Store writes the register.
func (r *Reg32) Store(v uint32) { r.v.Store(v) }

// Addr returns the address of the register.
func (r *Reg32) Addr() uintptr { return uintptr(unsafe.Pointer(r)) }

// Reg64 is a 64-bit register.
type Reg64 struct{ v atomic.Uint64 }

// Load reads the register.
func (r *Reg64) Load() uint64 { return r.v.Load() }

// Store writes the register.
func (r *Reg64) Store(v uint64) { r.v.Store(v) }

// Addr returns the address of the register.
func (r *Reg64) Addr() uintptr { return uintptr(unsafe.Pointer(r)) }

// FieldOverflowError is the panic value of a generated field setter given a
// value wider than the field.
type FieldOverflowError struct {
	Register string
	Field    string
	Width    uint
	Value    uint64
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("mmio: %s.%s: value %#x does not fit in %d bits", e.Register, e.Field, e.Value, e.Width)
}

// MustFit panics with a *FieldOverflowError unless v fits in width bits.
func MustFit(register, field string, width uint, v uint64) {
	if width < 64 && v>>width != 0 {
		panic(&FieldOverflowError{Register: register, Field: field, Width: width, Value: v})
	}
}

// Unknown formats a field value that has no name in its enumeration.
func Unknown(typ string, v uint64) string {
	return fmt.Sprintf("%s(%#x)", typ, v)
}
