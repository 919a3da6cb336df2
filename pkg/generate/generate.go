// Package generate is the entry point of code generation. A Generator owns
// the resolver for one device and turns a peripheral selection into ordered
// code units, reporting progress to slog and to an event trace.
package generate

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/regforge/regforge/pkg/emit"
	"github.com/regforge/regforge/pkg/layout"
	"github.com/regforge/regforge/pkg/log"
	"github.com/regforge/regforge/pkg/naming"
	"github.com/regforge/regforge/pkg/resolve"
	"github.com/regforge/regforge/pkg/svd"
)

// Selector chooses what to generate: the base address table of every
// peripheral, or the full register code of the one peripheral matching
// Pattern.
type Selector struct {
	All     bool
	Pattern string
}

func (s Selector) String() string {
	if s.All {
		return "*"
	}
	return s.Pattern
}

// Result is the output of one Generate call.
type Result struct {
	// Peripheral is the selected peripheral; empty for the base address table.
	Peripheral string
	Units      []emit.Unit
	Collisions []naming.Collision
	// NoMatch is set when the pattern selected no peripheral.
	NoMatch bool
}

// Strings returns the source of every unit.
func (r *Result) Strings() []string {
	out := make([]string, len(r.Units))
	for i, u := range r.Units {
		out[i] = u.Code
	}
	return out
}

// Join returns the units separated by blank lines.
func (r *Result) Join() string {
	return strings.Join(r.Strings(), "\n")
}

// File returns the units as a complete source file of package pkg.
func (r *Result) File(pkg string) string {
	return emit.File(pkg, r.Units)
}

// PeripheralResult is one entry of GenerateAll.
type PeripheralResult struct {
	Result
	Err error
}

// Generator generates code for one device. It is safe for concurrent use.
type Generator struct {
	dev      *svd.Device
	config   Config
	resolver *resolve.Resolver
	emitter  *emit.Emitter
	runID    string
}

// New creates a Generator for dev.
func New(dev *svd.Device, config Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		dev:      dev,
		config:   config,
		resolver: resolve.New(dev),
		emitter:  emit.New(emit.Options{Convention: config.Convention}),
		runID:    config.RunID,
	}
	if g.runID == "" {
		g.runID = uuid.NewString()
	}
	return g, nil
}

// RunID returns the ID tagging this generator's events.
func (g *Generator) RunID() string { return g.runID }

// Resolver returns the resolver shared by all generation calls.
func (g *Generator) Resolver() *resolve.Resolver { return g.resolver }

// Generate runs one selection. A pattern that matches nothing is reported
// through Result.NoMatch, not as an error.
func (g *Generator) Generate(sel Selector) (*Result, error) {
	started := time.Now()
	g.startRun(sel)

	var (
		res *Result
		err error
	)
	if sel.All {
		res, err = g.baseAddresses()
	} else if p := Select(g.dev, sel.Pattern); p == nil {
		g.logInfo("no peripheral matches", "pattern", sel.Pattern)
		res = &Result{NoMatch: true}
	} else {
		res, err = g.peripheral(p)
	}

	done := &log.DoneEvent{Duration: time.Since(started)}
	if err != nil {
		done.Failures = 1
	} else {
		done.Units = len(res.Units)
		done.Collisions = len(res.Collisions)
		done.NoMatch = res.NoMatch
	}
	g.event(log.Event{Kind: log.KindDone, Stage: log.StageRun, Done: done})
	return res, err
}

// GenerateAll generates every peripheral of the device concurrently. The
// results follow declaration order. A failing peripheral does not stop the
// others; the returned error joins all failures. ctx only gates scheduling:
// peripherals not yet started when it is cancelled carry ctx.Err().
func (g *Generator) GenerateAll(ctx context.Context) ([]PeripheralResult, error) {
	started := time.Now()
	g.startRun(Selector{All: true})

	limit := g.config.Parallel
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]PeripheralResult, len(g.dev.Peripherals))
	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, p := range g.dev.Peripherals {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = PeripheralResult{Result: Result{Peripheral: p.Name}, Err: err}
				return nil
			}
			res, err := g.peripheral(p)
			if err != nil {
				results[i] = PeripheralResult{Result: Result{Peripheral: p.Name}, Err: err}
				return nil
			}
			results[i] = PeripheralResult{Result: *res}
			return nil
		})
	}
	_ = eg.Wait()

	done := &log.DoneEvent{}
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			done.Failures++
			errs = append(errs, r.Err)
			continue
		}
		done.Units += len(r.Units)
		done.Collisions += len(r.Collisions)
	}
	done.Duration = time.Since(started)
	g.event(log.Event{Kind: log.KindDone, Stage: log.StageRun, Done: done})
	g.logDebug("generated all peripherals",
		"peripherals", len(results),
		"failures", done.Failures,
		"duration", done.Duration)

	return results, errors.Join(errs...)
}

func (g *Generator) baseAddresses() (*Result, error) {
	ps := make([]*resolve.Peripheral, len(g.dev.Peripherals))
	for i, p := range g.dev.Peripherals {
		ps[i] = &resolve.Peripheral{Name: p.Name, BaseAddress: uint64(p.BaseAddress)}
	}
	out, err := g.emitter.BaseAddresses(ps)
	if err != nil {
		g.fail("", log.StageEmit, err)
		return nil, err
	}
	res := &Result{Units: out.Units, Collisions: out.Collisions}
	g.report("", res)
	return res, nil
}

// peripheral runs the full pipeline for one peripheral.
func (g *Generator) peripheral(p *svd.Peripheral) (*Result, error) {
	g.logDebug("generating peripheral", "peripheral", p.Name)

	rp, err := g.resolver.Resolve(p)
	if err != nil {
		g.fail(p.Name, log.StageResolve, err)
		return nil, err
	}
	plan, err := emit.NewPlan(rp)
	if err != nil {
		g.fail(p.Name, log.StageLayout, err)
		return nil, err
	}
	out, err := g.emitter.Emit(plan)
	if err != nil {
		g.fail(p.Name, log.StageEmit, err)
		return nil, err
	}

	res := &Result{Peripheral: p.Name, Units: out.Units, Collisions: out.Collisions}
	g.report(p.Name, res)
	return res, nil
}

func (g *Generator) startRun(sel Selector) {
	g.logDebug("generation started", "run_id", g.runID, "selector", sel.String())
	g.event(log.Event{
		Kind:  log.KindStart,
		Stage: log.StageRun,
		Start: &log.StartEvent{
			Selector:    sel.String(),
			Package:     g.config.Package,
			Peripherals: len(g.dev.Peripherals),
		},
	})
}

// report logs the collisions and units of a successful result.
func (g *Generator) report(peripheral string, res *Result) {
	for _, c := range res.Collisions {
		if g.config.Logger != nil {
			g.config.Logger.Warn("identifier collision",
				"peripheral", peripheral,
				"scope", c.Scope,
				"original", c.Original,
				"assigned", c.Assigned)
		}
		g.event(log.Event{
			Peripheral: peripheral,
			Kind:       log.KindCollision,
			Stage:      log.StageEmit,
			Collision: &log.CollisionEvent{
				Scope:     c.Scope,
				Original:  c.Original,
				Sanitized: c.Sanitized,
				Assigned:  c.Assigned,
			},
		})
	}
	for _, u := range res.Units {
		g.event(log.Event{
			Peripheral: peripheral,
			Kind:       log.KindUnit,
			Stage:      log.StageEmit,
			Unit:       &log.UnitEvent{Kind: u.Kind.String(), Name: u.Name, Size: len(u.Code)},
		})
	}
	g.logDebug("generated peripheral", "peripheral", peripheral, "units", len(res.Units))
}

func (g *Generator) fail(peripheral string, stage log.Stage, err error) {
	if g.config.Logger != nil {
		g.config.Logger.Error("generation failed",
			"peripheral", peripheral,
			"stage", stage.String(),
			"error", err)
	}
	ev := &log.ErrorEvent{Message: err.Error()}
	var re *resolve.Error
	var le *layout.Error
	switch {
	case errors.As(err, &re):
		ev.Register, ev.Field = re.Register, re.Field
	case errors.As(err, &le):
		ev.Register, ev.Field = le.Register, le.Field
	}
	g.event(log.Event{Peripheral: peripheral, Kind: log.KindError, Stage: stage, Error: ev})
}

func (g *Generator) event(e log.Event) {
	if g.config.EventLogger == nil {
		return
	}
	e.Timestamp = time.Now()
	e.RunID = g.runID
	e.Source = g.config.Source
	g.config.EventLogger.Log(e)
}

func (g *Generator) logDebug(msg string, args ...any) {
	if g.config.Logger != nil {
		g.config.Logger.Debug(msg, args...)
	}
}

func (g *Generator) logInfo(msg string, args ...any) {
	if g.config.Logger != nil {
		g.config.Logger.Info(msg, args...)
	}
}
