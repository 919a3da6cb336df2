// Package emit renders planned peripherals as Go source.
//
// Each peripheral becomes an ordered list of units: the base address
// constant, one type per enumerated value set, a cell type and a value type
// per register, the peripheral block struct and the instance variable. Units
// are gofmt'd individually; File joins them into a source file for the
// runtime package in pkg/mmio.
package emit

import (
	"fmt"
	"go/format"
	"slices"
	"strings"

	"github.com/regforge/regforge/pkg/layout"
	"github.com/regforge/regforge/pkg/naming"
	"github.com/regforge/regforge/pkg/resolve"
)

// RuntimeImport is the import path of the package generated code uses for
// register access.
const RuntimeImport = "github.com/regforge/regforge/pkg/mmio"

// Kind classifies a unit.
type Kind uint8

const (
	KindBaseAddress Kind = iota
	KindEnumType
	KindRegisterType
	KindRegisterBlock
	KindInstance
)

var kindNames = [...]string{
	KindBaseAddress:   "BaseAddress",
	KindEnumType:      "EnumType",
	KindRegisterType:  "RegisterType",
	KindRegisterBlock: "RegisterBlock",
	KindInstance:      "Instance",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Unit is one formatted group of Go declarations.
type Unit struct {
	Kind Kind
	// Name is the main identifier the unit declares.
	Name string
	Code string
}

// Options configures an Emitter.
type Options struct {
	Convention naming.Convention
}

// Emitter renders plans. It holds no state between calls and is safe for
// concurrent use.
type Emitter struct {
	opts Options
}

// New creates an Emitter. The zero Options use Pascal case throughout.
func New(opts Options) *Emitter {
	return &Emitter{opts: opts}
}

// Plan is a resolved peripheral with the layout of every register.
type Plan struct {
	Peripheral *resolve.Peripheral
	// Registers parallels Peripheral.Registers.
	Registers []*layout.Register
	Block     *layout.Block
}

// NewPlan lays out every register of p.
func NewPlan(p *resolve.Peripheral) (*Plan, error) {
	plan := &Plan{Peripheral: p, Registers: make([]*layout.Register, 0, len(p.Registers))}
	for _, r := range p.Registers {
		lr, err := layout.Plan(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		plan.Registers = append(plan.Registers, lr)
	}
	plan.Block = layout.Arrange(plan.Registers)
	return plan, nil
}

// Output is the result of emitting one plan.
type Output struct {
	Units      []Unit
	Collisions []naming.Collision
}

// Peripheral returns the units for one planned peripheral.
func (e *Emitter) Peripheral(p *Plan) ([]Unit, error) {
	out, err := e.Emit(p)
	if err != nil {
		return nil, err
	}
	return out.Units, nil
}

// Emit returns the units for one planned peripheral together with the
// identifier collisions resolved on the way.
func (e *Emitter) Emit(p *Plan) (*Output, error) {
	n := assignNames(p, e.opts.Convention)
	u := &unitWriter{}

	u.add(KindBaseAddress, n.base, "baseAddress", baseAddressData{
		Const:   n.base,
		Name:    p.Peripheral.Name,
		Address: hex(p.Peripheral.BaseAddress),
	})

	for _, en := range enumsInDeclarationOrder(p, n) {
		u.add(KindEnumType, en.Type, "enum", en)
	}

	for _, lr := range byOffset(p.Registers) {
		u.add(KindRegisterType, n.registers[lr].typ, "register", registerTemplateData(lr, n))
	}

	u.add(KindRegisterBlock, n.periph, "block", blockTemplateData(p, n))
	u.add(KindInstance, n.regs, "instance", instanceData{
		Var:  n.regs,
		Type: n.periph,
		Base: n.base,
		Name: p.Peripheral.Name,
	})

	if u.err != nil {
		return nil, fmt.Errorf("emit %s: %w", p.Peripheral.Name, u.err)
	}
	return &Output{Units: u.units, Collisions: n.collisions()}, nil
}

// BaseAddresses returns one base address constant per peripheral, in the
// order given.
func (e *Emitter) BaseAddresses(ps []*resolve.Peripheral) (*Output, error) {
	scope := naming.NewScope("base addresses", e.opts.Convention.Type)
	scope.Reserve(reservedIdents...)
	u := &unitWriter{}
	for _, p := range ps {
		name := escape(scope.Claim(p.Name, p.Name, nil))
		c := escape(e.opts.Convention.Type.Concat(name, "Base"))
		u.add(KindBaseAddress, c, "baseAddress", baseAddressData{
			Const:   c,
			Name:    p.Name,
			Address: hex(p.BaseAddress),
		})
	}
	if u.err != nil {
		return nil, u.err
	}
	return &Output{Units: u.units, Collisions: scope.Collisions()}, nil
}

// File joins units into a complete source file for package pkg.
func File(pkg string, units []Unit) string {
	var b strings.Builder
	b.WriteString("// Code generated by regforge. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	fmt.Fprintf(&b, "import (\n\t\"unsafe\"\n\n\t%q\n)\n", RuntimeImport)
	for _, u := range units {
		b.WriteString("\n")
		b.WriteString(u.Code)
	}
	return b.String()
}

type unitWriter struct {
	units []Unit
	err   error
}

func (w *unitWriter) add(kind Kind, name, tmpl string, data any) {
	if w.err != nil {
		return
	}
	var b strings.Builder
	renderTemplate(&b, tmpl, data)
	code, err := format.Source([]byte(b.String()))
	if err != nil {
		w.err = fmt.Errorf("format %s %s: %w", kind, name, err)
		return
	}
	w.units = append(w.units, Unit{Kind: kind, Name: name, Code: strings.TrimSpace(string(code)) + "\n"})
}

func byOffset(regs []*layout.Register) []*layout.Register {
	out := slices.Clone(regs)
	slices.SortStableFunc(out, func(a, b *layout.Register) int {
		switch {
		case a.Source.Offset < b.Source.Offset:
			return -1
		case a.Source.Offset > b.Source.Offset:
			return 1
		}
		return 0
	})
	return out
}
