package log

import (
	"time"
)

// Event is one entry in the generation trace of a run.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the generation run (UUID).
	RunID string `cbor:"2,keyasint"`

	// Peripheral the event refers to. Empty for run-level events.
	Peripheral string `cbor:"3,keyasint,omitempty"`

	// Kind classifies the event.
	Kind Kind `cbor:"4,keyasint"`

	// Stage of the pipeline that produced the event.
	Stage Stage `cbor:"5,keyasint"`

	// Source is the description file being processed.
	Source string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (at most one of these will be set).
	Start     *StartEvent     `cbor:"10,keyasint,omitempty"` // Run started
	Unit      *UnitEvent      `cbor:"11,keyasint,omitempty"` // Code unit emitted
	Collision *CollisionEvent `cbor:"12,keyasint,omitempty"` // Identifier renamed
	Error     *ErrorEvent     `cbor:"13,keyasint,omitempty"` // Peripheral failed
	Done      *DoneEvent      `cbor:"14,keyasint,omitempty"` // Run finished
}

// Kind classifies a generation event.
type Kind uint8

const (
	// KindStart marks the beginning of a run.
	KindStart Kind = 0
	// KindUnit records an emitted code unit.
	KindUnit Kind = 1
	// KindCollision records an identifier that had to be renamed.
	KindCollision Kind = 2
	// KindError records a failure for one peripheral.
	KindError Kind = 3
	// KindDone marks the end of a run.
	KindDone Kind = 4
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "START"
	case KindUnit:
		return "UNIT"
	case KindCollision:
		return "COLLISION"
	case KindError:
		return "ERROR"
	case KindDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Stage indicates which part of the pipeline produced the event.
type Stage uint8

const (
	// StageRun is the generator itself.
	StageRun Stage = 0
	// StageResolve is derivation and default inheritance.
	StageResolve Stage = 1
	// StageLayout is bit and byte layout planning.
	StageLayout Stage = 2
	// StageEmit is code emission and naming.
	StageEmit Stage = 3
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageRun:
		return "RUN"
	case StageResolve:
		return "RESOLVE"
	case StageLayout:
		return "LAYOUT"
	case StageEmit:
		return "EMIT"
	default:
		return "UNKNOWN"
	}
}

// StartEvent describes the selection a run was started with.
type StartEvent struct {
	// Selector is the peripheral pattern, or "*" for all peripherals.
	Selector string `cbor:"1,keyasint"`

	// Package is the Go package name of the output.
	Package string `cbor:"2,keyasint,omitempty"`

	// Peripherals is the number of peripherals in the device.
	Peripherals int `cbor:"3,keyasint"`
}

// UnitEvent describes one emitted code unit.
type UnitEvent struct {
	// Kind is the unit kind name (e.g. "register-type").
	Kind string `cbor:"1,keyasint"`

	// Name is the primary identifier declared by the unit.
	Name string `cbor:"2,keyasint"`

	// Size is the length of the unit's source in bytes.
	Size int `cbor:"3,keyasint"`
}

// CollisionEvent records a sanitized identifier that was already taken.
type CollisionEvent struct {
	// Scope is the naming scope the collision happened in.
	Scope string `cbor:"1,keyasint"`

	// Original is the name from the description.
	Original string `cbor:"2,keyasint"`

	// Sanitized is the identifier before disambiguation.
	Sanitized string `cbor:"3,keyasint"`

	// Assigned is the identifier actually used.
	Assigned string `cbor:"4,keyasint"`
}

// ErrorEvent captures a failure while generating a peripheral.
type ErrorEvent struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Register is the register the error refers to (if any).
	Register string `cbor:"2,keyasint,omitempty"`

	// Field is the field the error refers to (if any).
	Field string `cbor:"3,keyasint,omitempty"`
}

// DoneEvent summarizes a finished run.
type DoneEvent struct {
	// Units is the number of emitted units.
	Units int `cbor:"1,keyasint"`

	// Collisions is the number of renamed identifiers.
	Collisions int `cbor:"2,keyasint"`

	// Failures is the number of peripherals that could not be generated.
	Failures int `cbor:"3,keyasint,omitempty"`

	// NoMatch is set when the selector matched no peripheral.
	NoMatch bool `cbor:"4,keyasint,omitempty"`

	// Duration of the run. Stored as nanoseconds.
	Duration time.Duration `cbor:"5,keyasint"`
}
