package generate

import (
	"errors"
	"fmt"
	"go/token"
	"log/slog"

	"github.com/regforge/regforge/pkg/log"
	"github.com/regforge/regforge/pkg/naming"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid generator config")

// Config configures a Generator.
type Config struct {
	// Package is the Go package name used when units are joined into a file.
	Package string

	// Convention is the casing applied to generated identifiers.
	Convention naming.Convention

	// Source names the description file in events.
	Source string

	// RunID tags every event of the run. A random UUID is used if empty.
	RunID string

	// Parallel bounds the number of peripherals generated concurrently by
	// GenerateAll. Zero means GOMAXPROCS.
	Parallel int

	// Logger is the optional logger for diagnostics.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives the generation trace.
	// If nil, no events are recorded.
	EventLogger log.Logger
}

// DefaultConfig returns the configuration used by the CLI when no config
// file is given.
func DefaultConfig() Config {
	return Config{
		Package:    "regs",
		Convention: naming.DefaultConvention,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Package != "" && (!token.IsIdentifier(c.Package) || c.Package == "_") {
		return fmt.Errorf("%w: package %q is not a Go identifier", ErrInvalidConfig, c.Package)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("%w: parallel must not be negative", ErrInvalidConfig)
	}
	return nil
}
