package resolve

import (
	"strings"

	"github.com/regforge/regforge/pkg/svd"
)

// Peripheral is a fully resolved, self-contained peripheral. It shares no
// memory with the description it was resolved from.
type Peripheral struct {
	Name        string
	GroupName   string
	Description string
	BaseAddress uint64
	Interrupts  []Interrupt

	// Registers in declaration order, clusters and arrays expanded.
	Registers []*Register
}

// Register looks up a register by its qualified name.
func (p *Peripheral) Register(name string) *Register {
	for _, r := range p.Registers {
		if r.QualifiedName() == name {
			return r
		}
	}
	return nil
}

// Interrupt is an interrupt line raised by the peripheral.
type Interrupt struct {
	Name        string
	Description string
	Value       uint64
}

// Register is a resolved register with every cascading attribute filled in.
type Register struct {
	Name        string
	Path        []string // enclosing clusters, outermost first
	DisplayName string
	Description string

	// Offset is relative to the peripheral base, Address is absolute.
	Offset  uint64
	Address uint64

	Size       uint64
	Access     svd.Access
	ResetValue uint64
	ResetMask  uint64

	Fields []*Field
}

// QualifiedName joins the cluster path and the register name with '_'.
func (r *Register) QualifiedName() string {
	if len(r.Path) == 0 {
		return r.Name
	}
	return strings.Join(r.Path, "_") + "_" + r.Name
}

// Field is a resolved bit field.
type Field struct {
	Name        string
	Description string
	Offset      uint64
	Width       uint64
	Access      svd.Access

	// ReadValues and WriteValues are the enumerated interpretations for each
	// direction. They point at the same set when one set serves both.
	ReadValues  *EnumSet
	WriteValues *EnumSet
}

// Asymmetric reports whether reads and writes use different value sets.
func (f *Field) Asymmetric() bool {
	return f.ReadValues != nil && f.WriteValues != nil && f.ReadValues != f.WriteValues
}

// EnumSet is a resolved set of enumerated values.
type EnumSet struct {
	Name   string
	Usage  string
	Values []EnumValue
}

// EnumValue is a named field value. Explicit is false for positional values
// and for a catch-all default whose number was synthesised.
type EnumValue struct {
	Name        string
	Description string
	Value       uint64
	Explicit    bool
	IsDefault   bool
}

// Default returns the default value of the set, or nil.
func (s *EnumSet) Default() *EnumValue {
	for i := range s.Values {
		if s.Values[i].IsDefault {
			return &s.Values[i]
		}
	}
	return nil
}

// Encode returns the numeric representation of the named value.
func (s *EnumSet) Encode(name string) (uint64, bool) {
	for _, v := range s.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

// Decode returns the name for a numeric value. A value that is not listed
// decodes to the default when the set has one.
func (s *EnumSet) Decode(value uint64) (string, bool) {
	for _, v := range s.Values {
		if v.Value == value {
			return v.Name, true
		}
	}
	if d := s.Default(); d != nil {
		return d.Name, true
	}
	return "", false
}
