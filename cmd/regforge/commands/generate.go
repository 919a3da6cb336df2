// Package commands implements the regforge CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"

	"github.com/regforge/regforge/internal/config"
	"github.com/regforge/regforge/pkg/generate"
	"github.com/regforge/regforge/pkg/log"
	"github.com/regforge/regforge/pkg/naming"
	"github.com/regforge/regforge/pkg/resolve"
	"github.com/regforge/regforge/pkg/svd"
)

// ErrNoMatch is reported when a pattern selects no peripheral. Generate
// only warns about it; -dump fails with it.
var ErrNoMatch = errors.New("no peripheral matches")

// GenerateOptions holds the flags of the generate command. Empty fields
// fall back to the config file, then to the defaults.
type GenerateOptions struct {
	Input   string
	Pattern string

	// Output is a file path, or "-" for stdout. With All it is a directory.
	Output  string
	Package string
	Config  string
	Events  string

	// All writes one package per peripheral instead of a single selection.
	// Package is ignored then; each package is named after its peripheral.
	All     bool
	Dump    bool
	Verbose bool
}

// RunGenerate loads the description and writes the generated code. Logs go
// to stderr.
func RunGenerate(opts GenerateOptions, stdout, stderr io.Writer) error {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return err
		}
	}
	if opts.Package != "" {
		cfg.Package = opts.Package
	}
	if opts.Output != "" {
		cfg.Output = opts.Output
	}
	if opts.Events != "" {
		cfg.EventLog = opts.Events
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	gc, err := cfg.Generator()
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	dev, err := svd.Load(opts.Input)
	if err != nil {
		return err
	}

	if opts.Dump {
		return dump(dev, opts.Pattern, stdout)
	}

	gc.Source = filepath.Base(opts.Input)
	gc.Logger = logger
	events, closeEvents, err := eventLogger(cfg.EventLog, logger, opts.Verbose)
	if err != nil {
		return err
	}
	defer closeEvents()
	gc.EventLogger = events

	gen, err := generate.New(dev, gc)
	if err != nil {
		return err
	}

	if opts.All {
		return generateAll(gen, cfg.Output, stdout)
	}

	sel := generate.Selector{Pattern: opts.Pattern}
	if opts.Pattern == "" {
		sel = generate.Selector{All: true}
	}
	res, err := gen.Generate(sel)
	if err != nil {
		return err
	}
	if res.NoMatch {
		fmt.Fprintf(stderr, "%s %q\n", ErrNoMatch, opts.Pattern)
		return nil
	}
	return writeOutput(cfg.Output, res.File(gc.Package), stdout)
}

// packageReserved cannot name a generated package.
var packageReserved = []string{
	"break", "case", "chan", "const", "continue", "default", "defer", "else",
	"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
	"map", "package", "range", "return", "select", "struct", "switch", "type",
	"var", "main",
}

// peripheralPackages names the package of every peripheral: its snake case
// name, suffixed when two peripherals would share a directory. Failed
// peripherals are named too, so names do not depend on which ones failed.
func peripheralPackages(results []generate.PeripheralResult) []string {
	scope := naming.NewScope("packages", naming.Snake)
	scope.Reserve(packageReserved...)
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = scope.Name(r.Peripheral)
	}
	return names
}

// generateAll writes every peripheral into its own package, dir/<name>/<name>.go.
// Register identifiers are only unique within a peripheral, so peripherals
// cannot share a package. Files of the peripherals that did generate are
// written even if others failed.
func generateAll(gen *generate.Generator, dir string, stdout io.Writer) error {
	if dir == "" || dir == "-" {
		return errors.New("-all requires an output directory (-o)")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	results, genErr := gen.GenerateAll(context.Background())
	var errs []error
	if genErr != nil {
		errs = append(errs, genErr)
	}
	pkgs := peripheralPackages(results)
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		pkgDir := filepath.Join(dir, pkgs[i])
		if err := os.MkdirAll(pkgDir, 0o755); err != nil {
			errs = append(errs, fmt.Errorf("creating output directory: %w", err))
			continue
		}
		path := filepath.Join(pkgDir, pkgs[i]+".go")
		if err := writeFormatted(path, r.File(pkgs[i])); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(stdout, "  generated %s\n", path)
	}
	return errors.Join(errs...)
}

// eventLogger builds the trace sink: a FileLogger for path, mirrored to the
// slog logger when verbose. The returned func closes the file.
func eventLogger(path string, logger *slog.Logger, verbose bool) (log.Logger, func(), error) {
	var sinks []log.Logger
	closeFn := func() {}

	if path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening event log: %w", err)
		}
		sinks = append(sinks, fl)
		closeFn = func() { _ = fl.Close() }
	}
	if verbose {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}

	switch len(sinks) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return sinks[0], closeFn, nil
	default:
		return log.NewMultiLogger(sinks...), closeFn, nil
	}
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// dump prints the resolved model of the selected peripheral.
func dump(dev *svd.Device, pattern string, w io.Writer) error {
	if pattern == "" {
		return errors.New("-dump requires a peripheral pattern")
	}
	p := generate.Select(dev, pattern)
	if p == nil {
		return fmt.Errorf("%w %q", ErrNoMatch, pattern)
	}
	rp, err := resolve.New(dev).Resolve(p)
	if err != nil {
		return err
	}
	dumpConfig.Fdump(w, rp)
	return nil
}
