package svd

import (
	"fmt"
	"strconv"
	"strings"
)

// RegisterProperties holds the attributes that cascade from the device down
// to individual registers. A nil pointer means "inherit from the enclosing
// level".
type RegisterProperties struct {
	Size       *Uint   `xml:"size" yaml:"size,omitempty"`
	Access     *Access `xml:"access" yaml:"access,omitempty"`
	ResetValue *Uint   `xml:"resetValue" yaml:"resetValue,omitempty"`
	ResetMask  *Uint   `xml:"resetMask" yaml:"resetMask,omitempty"`
}

// Inherit returns p with every unset attribute taken from base.
func (p RegisterProperties) Inherit(base RegisterProperties) RegisterProperties {
	if p.Size == nil {
		p.Size = base.Size
	}
	if p.Access == nil {
		p.Access = base.Access
	}
	if p.ResetValue == nil {
		p.ResetValue = base.ResetValue
	}
	if p.ResetMask == nil {
		p.ResetMask = base.ResetMask
	}
	return p.Clone()
}

// Clone returns a copy of p that shares no pointers with it.
func (p RegisterProperties) Clone() RegisterProperties {
	var out RegisterProperties
	if p.Size != nil {
		out.Size = p.Size.Ptr()
	}
	if p.Access != nil {
		out.Access = p.Access.Ptr()
	}
	if p.ResetValue != nil {
		out.ResetValue = p.ResetValue.Ptr()
	}
	if p.ResetMask != nil {
		out.ResetMask = p.ResetMask.Ptr()
	}
	return out
}

// DimElement describes a register or cluster array.
type DimElement struct {
	Dim          *Uint  `xml:"dim" yaml:"dim,omitempty"`
	DimIncrement *Uint  `xml:"dimIncrement" yaml:"dimIncrement,omitempty"`
	DimIndex     string `xml:"dimIndex" yaml:"dimIndex,omitempty"`
}

// Indices returns the index labels of the array. A list ("A,B,C") or a
// numeric range ("0-3") is honoured; without dimIndex the labels are 0..dim-1.
func (d DimElement) Indices() ([]string, error) {
	if d.Dim == nil || *d.Dim == 0 {
		return nil, nil
	}
	n := int(*d.Dim)
	idx := strings.TrimSpace(d.DimIndex)
	var out []string
	switch {
	case idx == "":
		for i := 0; i < n; i++ {
			out = append(out, strconv.Itoa(i))
		}
	case strings.Contains(idx, ","):
		for _, s := range strings.Split(idx, ",") {
			out = append(out, strings.TrimSpace(s))
		}
	case strings.Contains(idx, "-"):
		lo, hi, _ := strings.Cut(idx, "-")
		a, err1 := strconv.Atoi(strings.TrimSpace(lo))
		b, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil || b < a {
			return nil, fmt.Errorf("%w: dimIndex %q", ErrInvalidValue, idx)
		}
		for i := a; i <= b; i++ {
			out = append(out, strconv.Itoa(i))
		}
	default:
		out = []string{idx}
	}
	if len(out) != n {
		return nil, fmt.Errorf("%w: dimIndex %q has %d entries, dim is %d", ErrInvalidValue, idx, len(out), n)
	}
	return out, nil
}

// Clone returns a deep copy of d.
func (d DimElement) Clone() DimElement {
	out := DimElement{DimIndex: d.DimIndex}
	if d.Dim != nil {
		out.Dim = d.Dim.Ptr()
	}
	if d.DimIncrement != nil {
		out.DimIncrement = d.DimIncrement.Ptr()
	}
	return out
}

// Device is the root of a description.
type Device struct {
	Name        string `xml:"name" yaml:"name"`
	Description string `xml:"description" yaml:"description,omitempty"`
	Width       *Uint  `xml:"width" yaml:"width,omitempty"`
	RegisterProperties `yaml:",inline"`
	Peripherals []*Peripheral `xml:"peripherals>peripheral" yaml:"peripherals"`
}

// Peripheral returns the peripheral with the given name, or nil.
func (d *Device) Peripheral(name string) *Peripheral {
	for _, p := range d.Peripherals {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Validate checks device-level invariants.
func (d *Device) Validate() error {
	seen := make(map[string]bool, len(d.Peripherals))
	for _, p := range d.Peripherals {
		if seen[p.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicatePeripheral, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Peripheral is a named, base-addressed block of registers.
type Peripheral struct {
	DerivedFrom        string `xml:"derivedFrom,attr" yaml:"derivedFrom,omitempty"`
	Name               string `xml:"name" yaml:"name"`
	GroupName          string `xml:"groupName" yaml:"groupName,omitempty"`
	Description        string `xml:"description" yaml:"description,omitempty"`
	BaseAddress        Uint   `xml:"baseAddress" yaml:"baseAddress"`
	RegisterProperties `yaml:",inline"`
	AddressBlocks      []*AddressBlock `xml:"addressBlock" yaml:"addressBlocks,omitempty"`
	Interrupts         []*Interrupt    `xml:"interrupt" yaml:"interrupts,omitempty"`
	Registers          []*Register     `xml:"registers>register" yaml:"registers,omitempty"`
	Clusters           []*Cluster      `xml:"registers>cluster" yaml:"clusters,omitempty"`
}

// Clone returns a deep copy of p.
func (p *Peripheral) Clone() *Peripheral {
	if p == nil {
		return nil
	}
	out := *p
	out.RegisterProperties = p.RegisterProperties.Clone()
	out.AddressBlocks = cloneSlice(p.AddressBlocks, func(b *AddressBlock) *AddressBlock {
		c := *b
		return &c
	})
	out.Interrupts = cloneSlice(p.Interrupts, func(irq *Interrupt) *Interrupt {
		c := *irq
		return &c
	})
	out.Registers = cloneSlice(p.Registers, (*Register).Clone)
	out.Clusters = cloneSlice(p.Clusters, (*Cluster).Clone)
	return &out
}

// AddressBlock describes an address range used by a peripheral.
type AddressBlock struct {
	Offset Uint   `xml:"offset" yaml:"offset"`
	Size   Uint   `xml:"size" yaml:"size"`
	Usage  string `xml:"usage" yaml:"usage,omitempty"`
}

// Interrupt is an interrupt line raised by a peripheral.
type Interrupt struct {
	Name        string `xml:"name" yaml:"name"`
	Description string `xml:"description" yaml:"description,omitempty"`
	Value       Uint   `xml:"value" yaml:"value"`
}

// Cluster groups registers that share an address sub-range. Offsets of its
// children are relative to the cluster's own offset.
type Cluster struct {
	DerivedFrom        string `xml:"derivedFrom,attr" yaml:"derivedFrom,omitempty"`
	DimElement         `yaml:",inline"`
	Name               string `xml:"name" yaml:"name"`
	Description        string `xml:"description" yaml:"description,omitempty"`
	AddressOffset      Uint   `xml:"addressOffset" yaml:"addressOffset"`
	RegisterProperties `yaml:",inline"`
	Registers          []*Register `xml:"register" yaml:"registers,omitempty"`
	Clusters           []*Cluster  `xml:"cluster" yaml:"clusters,omitempty"`
}

// Clone returns a deep copy of c.
func (c *Cluster) Clone() *Cluster {
	if c == nil {
		return nil
	}
	out := *c
	out.DimElement = c.DimElement.Clone()
	out.RegisterProperties = c.RegisterProperties.Clone()
	out.Registers = cloneSlice(c.Registers, (*Register).Clone)
	out.Clusters = cloneSlice(c.Clusters, (*Cluster).Clone)
	return &out
}

// Register is a single memory-mapped register.
type Register struct {
	DerivedFrom        string `xml:"derivedFrom,attr" yaml:"derivedFrom,omitempty"`
	DimElement         `yaml:",inline"`
	Name               string `xml:"name" yaml:"name"`
	DisplayName        string `xml:"displayName" yaml:"displayName,omitempty"`
	Description        string `xml:"description" yaml:"description,omitempty"`
	AddressOffset      Uint   `xml:"addressOffset" yaml:"addressOffset"`
	RegisterProperties `yaml:",inline"`
	Fields             []*Field `xml:"fields>field" yaml:"fields,omitempty"`
}

// Clone returns a deep copy of r.
func (r *Register) Clone() *Register {
	if r == nil {
		return nil
	}
	out := *r
	out.DimElement = r.DimElement.Clone()
	out.RegisterProperties = r.RegisterProperties.Clone()
	out.Fields = cloneSlice(r.Fields, (*Field).Clone)
	return &out
}

// Field is a bit range within a register.
//
// The bit range may be written as bitOffset/bitWidth, lsb/msb or a
// "[msb:lsb]" bitRange string; Range normalises all three.
type Field struct {
	DerivedFrom      string              `xml:"derivedFrom,attr" yaml:"derivedFrom,omitempty"`
	Name             string              `xml:"name" yaml:"name"`
	Description      string              `xml:"description" yaml:"description,omitempty"`
	BitOffset        *Uint               `xml:"bitOffset" yaml:"bitOffset,omitempty"`
	BitWidth         *Uint               `xml:"bitWidth" yaml:"bitWidth,omitempty"`
	LSB              *Uint               `xml:"lsb" yaml:"lsb,omitempty"`
	MSB              *Uint               `xml:"msb" yaml:"msb,omitempty"`
	BitRange         string              `xml:"bitRange" yaml:"bitRange,omitempty"`
	Access           *Access             `xml:"access" yaml:"access,omitempty"`
	EnumeratedValues []*EnumeratedValues `xml:"enumeratedValues" yaml:"enumeratedValues,omitempty"`
}

// Range returns the field's bit offset and width. ok is false when the field
// declares no bit range at all.
func (f *Field) Range() (offset, width uint64, ok bool, err error) {
	switch {
	case f.BitOffset != nil:
		width = 1
		if f.BitWidth != nil {
			width = uint64(*f.BitWidth)
		}
		return uint64(*f.BitOffset), width, true, nil
	case f.LSB != nil && f.MSB != nil:
		lsb, msb := uint64(*f.LSB), uint64(*f.MSB)
		if msb < lsb {
			return 0, 0, false, fmt.Errorf("%w: field %s has msb %d < lsb %d", ErrInvalidValue, f.Name, msb, lsb)
		}
		return lsb, msb - lsb + 1, true, nil
	case f.BitRange != "":
		s := strings.TrimSpace(f.BitRange)
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		hi, lo, found := strings.Cut(s, ":")
		if !found {
			return 0, 0, false, fmt.Errorf("%w: bitRange %q", ErrInvalidValue, f.BitRange)
		}
		msb, err1 := strconv.ParseUint(strings.TrimSpace(hi), 10, 64)
		lsb, err2 := strconv.ParseUint(strings.TrimSpace(lo), 10, 64)
		if err1 != nil || err2 != nil || msb < lsb {
			return 0, 0, false, fmt.Errorf("%w: bitRange %q", ErrInvalidValue, f.BitRange)
		}
		return lsb, msb - lsb + 1, true, nil
	}
	return 0, 0, false, nil
}

// SetRange stores the bit range in offset/width form and clears the others.
func (f *Field) SetRange(offset, width uint64) {
	f.BitOffset = U(offset)
	f.BitWidth = U(width)
	f.LSB, f.MSB, f.BitRange = nil, nil, ""
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	out := *f
	for _, p := range []**Uint{&out.BitOffset, &out.BitWidth, &out.LSB, &out.MSB} {
		if *p != nil {
			*p = (*p).Ptr()
		}
	}
	if f.Access != nil {
		out.Access = f.Access.Ptr()
	}
	out.EnumeratedValues = cloneSlice(f.EnumeratedValues, (*EnumeratedValues).Clone)
	return &out
}

// EnumeratedValues is a named set of field value interpretations. Usage
// scopes the set to reads, writes or both.
type EnumeratedValues struct {
	DerivedFrom string             `xml:"derivedFrom,attr" yaml:"derivedFrom,omitempty"`
	Name        string             `xml:"name" yaml:"name,omitempty"`
	Usage       string             `xml:"usage" yaml:"usage,omitempty"`
	Values      []*EnumeratedValue `xml:"enumeratedValue" yaml:"values"`
}

// ForRead reports whether the set applies to reads.
func (e *EnumeratedValues) ForRead() bool {
	u := strings.ToLower(strings.TrimSpace(e.Usage))
	return u == "" || u == "read" || u == "read-write"
}

// ForWrite reports whether the set applies to writes.
func (e *EnumeratedValues) ForWrite() bool {
	u := strings.ToLower(strings.TrimSpace(e.Usage))
	return u == "" || u == "write" || u == "read-write"
}

// Clone returns a deep copy of e.
func (e *EnumeratedValues) Clone() *EnumeratedValues {
	if e == nil {
		return nil
	}
	out := *e
	out.Values = cloneSlice(e.Values, func(v *EnumeratedValue) *EnumeratedValue {
		c := *v
		if v.Value != nil {
			c.Value = v.Value.Ptr()
		}
		return &c
	})
	return &out
}

// EnumeratedValue names one interpretation of a field's contents. Without an
// explicit Value the entry is either positional or, when IsDefault is set,
// the catch-all for every value not listed.
type EnumeratedValue struct {
	Name        string `xml:"name" yaml:"name"`
	Description string `xml:"description" yaml:"description,omitempty"`
	Value       *Uint  `xml:"value" yaml:"value,omitempty"`
	IsDefault   bool   `xml:"isDefault" yaml:"isDefault,omitempty"`
}

// cloneSlice copies in element-wise, keeping nil slices nil.
func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
