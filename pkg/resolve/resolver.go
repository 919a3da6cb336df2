// Package resolve turns description peripherals into self-contained,
// fully specified peripherals.
//
// Resolution runs in two passes. Flatten follows every derivedFrom link
// (peripheral, cluster, register, field and enumerated value set) and
// cascades access, size, reset value and reset mask from the device down to
// each register and field. The build pass then expands clusters and arrays
// into absolute register offsets and assigns numbers to enumerated values
// that have none.
//
// A Resolver memoises per peripheral name and is safe for concurrent use.
package resolve

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/regforge/regforge/pkg/svd"
)

// DefaultSize is the register size, in bits, used when neither the
// description nor any enclosing level sets one.
const DefaultSize = 32

// Resolver resolves the peripherals of one device.
type Resolver struct {
	dev      *svd.Device
	defaults svd.RegisterProperties
	byName   map[string]*svd.Peripheral

	cache sync.Map // peripheral name -> *Peripheral
	group singleflight.Group
}

// New creates a Resolver for dev. The device is never modified.
func New(dev *svd.Device) *Resolver {
	builtin := svd.RegisterProperties{
		Size:       svd.U(DefaultSize),
		Access:     svd.AccessReadWrite.Ptr(),
		ResetValue: svd.U(0),
	}
	r := &Resolver{
		dev:      dev,
		defaults: dev.RegisterProperties.Inherit(builtin),
		byName:   make(map[string]*svd.Peripheral, len(dev.Peripherals)),
	}
	for _, p := range dev.Peripherals {
		r.byName[p.Name] = p
	}
	return r
}

// Peripheral resolves the named peripheral. Results are cached; concurrent
// callers asking for the same name share one computation.
func (r *Resolver) Peripheral(name string) (*Peripheral, error) {
	if v, ok := r.cache.Load(name); ok {
		return v.(*Peripheral), nil
	}
	v, err, _ := r.group.Do(name, func() (any, error) {
		if v, ok := r.cache.Load(name); ok {
			return v, nil
		}
		p, ok := r.byName[name]
		if !ok {
			return nil, &Error{Kind: ErrUnresolvedReference, Ref: name}
		}
		res, err := r.resolve(p)
		if err != nil {
			return nil, err
		}
		actual, _ := r.cache.LoadOrStore(name, res)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Peripheral), nil
}

// Resolve resolves p. Peripherals that belong to the device go through the
// cache; others are resolved against the device without caching.
func (r *Resolver) Resolve(p *svd.Peripheral) (*Peripheral, error) {
	if r.byName[p.Name] == p {
		return r.Peripheral(p.Name)
	}
	return r.resolve(p)
}

// Flatten returns the description of the named peripheral with all
// derivation merged and every cascading attribute set explicitly. Flattening
// a flattened peripheral returns an equal value, and resolving it yields the
// same Peripheral as resolving the original.
func (r *Resolver) Flatten(name string) (*svd.Peripheral, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, &Error{Kind: ErrUnresolvedReference, Ref: name}
	}
	return r.flatten(p)
}

func (r *Resolver) resolve(p *svd.Peripheral) (*Peripheral, error) {
	flat, err := r.flatten(p)
	if err != nil {
		return nil, err
	}
	res, err := build(flat)
	if err != nil {
		return nil, locate(err, p.Name)
	}
	return res, nil
}

func (r *Resolver) flatten(p *svd.Peripheral) (*svd.Peripheral, error) {
	merged, err := r.derivePeripheral(p, nil)
	if err != nil {
		return nil, locate(err, p.Name)
	}
	s := &scope{r: r, p: merged}

	out := merged.Clone()
	out.RegisterProperties = merged.RegisterProperties.Inherit(r.defaults)
	for i, reg := range merged.Registers {
		d, err := s.completeRegister(reg, out.RegisterProperties)
		if err != nil {
			return nil, locate(err, p.Name)
		}
		out.Registers[i] = d
	}
	for i, c := range merged.Clusters {
		d, err := s.completeCluster(c, out.RegisterProperties)
		if err != nil {
			return nil, locate(err, p.Name)
		}
		out.Clusters[i] = d
	}
	return out, nil
}

func (r *Resolver) derivePeripheral(p *svd.Peripheral, chain []string) (*svd.Peripheral, error) {
	if slices.Contains(chain, p.Name) {
		return nil, &Error{Kind: ErrDerivationCycle, Peripheral: p.Name, Ref: cycle(chain, p.Name)}
	}
	if p.DerivedFrom == "" {
		return p.Clone(), nil
	}
	base, ok := r.byName[p.DerivedFrom]
	if !ok {
		return nil, &Error{Kind: ErrUnresolvedReference, Peripheral: p.Name, Ref: p.DerivedFrom}
	}
	flat, err := r.derivePeripheral(base, append(chain, p.Name))
	if err != nil {
		return nil, err
	}
	return mergePeripheral(flat, p), nil
}

// scope resolves references inside one peripheral after peripheral-level
// derivation has been merged.
type scope struct {
	r *Resolver
	p *svd.Peripheral
}

func (s *scope) completeCluster(c *svd.Cluster, parent svd.RegisterProperties) (*svd.Cluster, error) {
	d, err := s.deriveCluster(c, nil)
	if err != nil {
		return nil, err
	}
	d.RegisterProperties = d.RegisterProperties.Inherit(parent)
	for i, reg := range d.Registers {
		dr, err := s.completeRegister(reg, d.RegisterProperties)
		if err != nil {
			return nil, err
		}
		d.Registers[i] = dr
	}
	for i, sub := range d.Clusters {
		dc, err := s.completeCluster(sub, d.RegisterProperties)
		if err != nil {
			return nil, err
		}
		d.Clusters[i] = dc
	}
	return d, nil
}

func (s *scope) completeRegister(reg *svd.Register, parent svd.RegisterProperties) (*svd.Register, error) {
	d, err := s.deriveRegister(reg, nil)
	if err != nil {
		return nil, err
	}
	d.RegisterProperties = d.RegisterProperties.Inherit(parent)
	if d.ResetMask == nil {
		d.ResetMask = svd.U(ones(uint64(*d.Size)))
	}
	for i, f := range d.Fields {
		df, err := s.deriveField(d, f, nil)
		if err != nil {
			return nil, withRegister(err, d.Name)
		}
		off, width, ok, err := df.Range()
		if err != nil {
			return nil, &Error{Kind: ErrIncomplete, Register: d.Name, Field: df.Name, Err: err}
		}
		if !ok {
			return nil, &Error{Kind: ErrIncomplete, Register: d.Name, Field: df.Name, Err: errors.New("no bit range")}
		}
		df.SetRange(off, width)
		if df.Access == nil {
			df.Access = d.Access.Ptr()
		}
		for j, ev := range df.EnumeratedValues {
			de, err := s.deriveEnum(d, df, ev, nil)
			if err != nil {
				return nil, withRegister(err, d.Name)
			}
			df.EnumeratedValues[j] = de
		}
		d.Fields[i] = df
	}
	return d, nil
}

func (s *scope) deriveCluster(c *svd.Cluster, chain []string) (*svd.Cluster, error) {
	if c.DerivedFrom == "" {
		return c.Clone(), nil
	}
	if slices.Contains(chain, c.Name) {
		return nil, &Error{Kind: ErrDerivationCycle, Register: c.Name, Ref: cycle(chain, c.Name)}
	}
	base := findCluster(s.p.Clusters, lastSegment(c.DerivedFrom))
	if base == nil {
		return nil, &Error{Kind: ErrUnresolvedReference, Register: c.Name, Ref: c.DerivedFrom}
	}
	d, err := s.deriveCluster(base, append(chain, c.Name))
	if err != nil {
		return nil, err
	}
	return mergeCluster(d, c), nil
}

func (s *scope) deriveRegister(reg *svd.Register, chain []string) (*svd.Register, error) {
	if reg.DerivedFrom == "" {
		return reg.Clone(), nil
	}
	id := s.p.Name + "." + reg.Name
	if slices.Contains(chain, id) {
		return nil, &Error{Kind: ErrDerivationCycle, Register: reg.Name, Ref: cycle(chain, id)}
	}
	baseScope, base, err := s.lookupRegister(reg.DerivedFrom)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, &Error{Kind: ErrUnresolvedReference, Register: reg.Name, Ref: reg.DerivedFrom}
	}
	d, err := baseScope.deriveRegister(base, append(chain, id))
	if err != nil {
		return nil, err
	}
	return mergeRegister(d, reg), nil
}

// lookupRegister finds a register by name anywhere in the peripheral, by
// CLUSTER.REGISTER, or by PERIPHERAL.REGISTER in another peripheral.
func (s *scope) lookupRegister(ref string) (*scope, *svd.Register, error) {
	head, tail, dotted := strings.Cut(ref, ".")
	if !dotted {
		return s, findRegister(s.p.Registers, s.p.Clusters, ref), nil
	}
	if c := findCluster(s.p.Clusters, head); c != nil {
		return s, findRegister(c.Registers, c.Clusters, tail), nil
	}
	other, ok := s.r.byName[head]
	if !ok {
		return s, nil, nil
	}
	merged, err := s.r.derivePeripheral(other, nil)
	if err != nil {
		return nil, nil, err
	}
	return &scope{r: s.r, p: merged}, findRegister(merged.Registers, merged.Clusters, tail), nil
}

func (s *scope) deriveField(reg *svd.Register, f *svd.Field, chain []string) (*svd.Field, error) {
	if f.DerivedFrom == "" {
		return f.Clone(), nil
	}
	id := reg.Name + "." + f.Name
	if slices.Contains(chain, id) {
		return nil, &Error{Kind: ErrDerivationCycle, Field: f.Name, Ref: cycle(chain, id)}
	}
	baseReg := reg
	name := f.DerivedFrom
	if regName, fieldName, dotted := strings.Cut(f.DerivedFrom, "."); dotted {
		_, raw, err := s.lookupRegister(regName)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, &Error{Kind: ErrUnresolvedReference, Field: f.Name, Ref: f.DerivedFrom}
		}
		baseReg, err = s.deriveRegister(raw, nil)
		if err != nil {
			return nil, err
		}
		name = fieldName
	}
	var base *svd.Field
	for _, cand := range baseReg.Fields {
		if cand.Name == name {
			base = cand
			break
		}
	}
	if base == nil {
		return nil, &Error{Kind: ErrUnresolvedReference, Field: f.Name, Ref: f.DerivedFrom}
	}
	d, err := s.deriveField(baseReg, base, append(chain, id))
	if err != nil {
		return nil, err
	}
	return mergeField(d, f), nil
}

func (s *scope) deriveEnum(reg *svd.Register, f *svd.Field, ev *svd.EnumeratedValues, chain []string) (*svd.EnumeratedValues, error) {
	if ev.DerivedFrom == "" {
		return ev.Clone(), nil
	}
	id := f.Name + "." + ev.Name
	if slices.Contains(chain, id) {
		return nil, &Error{Kind: ErrDerivationCycle, Field: f.Name, Ref: cycle(chain, id)}
	}
	name := lastSegment(ev.DerivedFrom)
	baseField, base := s.findEnum(reg, f, name)
	if base == nil {
		return nil, &Error{Kind: ErrUnresolvedReference, Field: f.Name, Ref: ev.DerivedFrom}
	}
	d, err := s.deriveEnum(reg, baseField, base, append(chain, id))
	if err != nil {
		return nil, err
	}
	return mergeEnumSet(d, ev), nil
}

// findEnum searches the field itself, then its register, then the whole
// peripheral for an enumerated value set with the given name.
func (s *scope) findEnum(reg *svd.Register, f *svd.Field, name string) (*svd.Field, *svd.EnumeratedValues) {
	inField := func(f *svd.Field) *svd.EnumeratedValues {
		for _, ev := range f.EnumeratedValues {
			if ev.Name == name {
				return ev
			}
		}
		return nil
	}
	if ev := inField(f); ev != nil {
		return f, ev
	}
	for _, cand := range reg.Fields {
		if ev := inField(cand); ev != nil {
			return cand, ev
		}
	}
	var found *svd.EnumeratedValues
	var foundField *svd.Field
	walkRegisters(s.p.Registers, s.p.Clusters, func(r *svd.Register) bool {
		for _, cand := range r.Fields {
			if ev := inField(cand); ev != nil {
				found, foundField = ev, cand
				return false
			}
		}
		return true
	})
	return foundField, found
}

func findRegister(regs []*svd.Register, clusters []*svd.Cluster, name string) *svd.Register {
	var found *svd.Register
	walkRegisters(regs, clusters, func(r *svd.Register) bool {
		if r.Name == name {
			found = r
			return false
		}
		return true
	})
	return found
}

func findCluster(clusters []*svd.Cluster, name string) *svd.Cluster {
	for _, c := range clusters {
		if c.Name == name {
			return c
		}
		if sub := findCluster(c.Clusters, name); sub != nil {
			return sub
		}
	}
	return nil
}

// walkRegisters visits registers depth-first in declaration order until fn
// returns false.
func walkRegisters(regs []*svd.Register, clusters []*svd.Cluster, fn func(*svd.Register) bool) bool {
	for _, r := range regs {
		if !fn(r) {
			return false
		}
	}
	for _, c := range clusters {
		if !walkRegisters(c.Registers, c.Clusters, fn) {
			return false
		}
	}
	return true
}

func lastSegment(ref string) string {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func cycle(chain []string, again string) string {
	return strings.Join(append(slices.Clone(chain), again), " -> ")
}

func ones(width uint64) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// locate fills in the peripheral name of a resolution error.
func locate(err error, peripheral string) error {
	var re *Error
	if errors.As(err, &re) {
		if re.Peripheral == "" {
			re.Peripheral = peripheral
		}
		return re
	}
	return fmt.Errorf("%s: %w", peripheral, err)
}

func withRegister(err error, register string) error {
	var re *Error
	if errors.As(err, &re) && re.Register == "" {
		re.Register = register
	}
	return err
}
