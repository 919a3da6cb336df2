// Package log provides a structured event trace for generation runs.
//
// This package defines the Logger interface and Event types for recording
// what a run did: which units were emitted, which identifiers were renamed,
// and which peripherals failed. It is separate from operational logging
// (slog) - the trace is a complete machine-readable record of a run that
// can be filtered and replayed later.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	gen := generate.New(dev, generate.WithEventLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For CI: write to binary file
//	fl, _ := log.NewFileLogger("build/regs.rlog")
//	gen := generate.New(dev, generate.WithEventLogger(fl))
//
//	// Both: use MultiLogger
//	gen := generate.New(dev, generate.WithEventLogger(log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()), fl,
//	)))
//
// # Event Types
//
// Every event carries the run ID and, where applicable, the peripheral.
// The payload depends on the Kind: StartEvent, UnitEvent, CollisionEvent,
// ErrorEvent or DoneEvent.
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with the .rlog extension.
// The "regforge events view" command prints them.
package log
