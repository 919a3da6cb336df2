package emit

import (
	"fmt"
	"strings"

	"github.com/regforge/regforge/pkg/layout"
)

type baseAddressData struct {
	Const   string
	Name    string
	Address string
}

type instanceData struct {
	Var  string
	Type string
	Base string
	Name string
}

type enumData struct {
	Type     string
	Base     string
	Register string
	Field    string
	Usage    string
	Values   []enumValueData
	// Cases holds the first value for each distinct number.
	Cases   []enumValueData
	Default string
}

type enumValueData struct {
	Const string
	Name  string
	Hex   string
	Doc   string
}

type registerData struct {
	Type     string
	Value    string
	Reset    string
	Cell     string
	Raw      string
	Name     string
	Offset   string
	Doc      string
	ResetHex string

	Readable  bool
	Writable  bool
	Modify    bool
	WriteOnly bool

	Fields []fieldData
}

type fieldData struct {
	Register string
	Name     string
	Value    string
	Getter   string
	Setter   string
	Shift    string
	Mask     string
	Offset   uint64
	Width    uint64
	MaskHex  string
	Doc      string

	Readable  bool
	Writable  bool
	ReadType  string
	WriteType string
	// Check is set when the setter parameter type is wider than the field.
	Check bool
}

type blockData struct {
	Type       string
	Name       string
	Doc        string
	Members    []memberData
	Alternates []alternateData
}

type memberData struct {
	Name string
	Type string
	Pad  uint64
}

type alternateData struct {
	Method string
	Type   string
	Name   string
	Offset string
	Of     string
}

func registerTemplateData(lr *layout.Register, n *peripheralNames) registerData {
	rn := n.registers[lr]
	src := lr.Source
	d := registerData{
		Type:      rn.typ,
		Value:     rn.value,
		Reset:     rn.reset,
		Cell:      fmt.Sprintf("mmio.Reg%d", lr.Width),
		Raw:       fmt.Sprintf("uint%d", lr.Width),
		Name:      src.QualifiedName(),
		Offset:    hex(src.Offset),
		Doc:       oneLine(src.Description),
		ResetHex:  paddedHex(src.ResetValue&ones(lr.Width), lr.Width),
		Readable:  src.Access.CanRead(),
		Writable:  src.Access.CanWrite(),
		Modify:    src.Access.CanRead() && src.Access.CanWrite(),
		WriteOnly: !src.Access.CanRead() && src.Access.CanWrite(),
	}
	for i, f := range lr.Fields {
		fn := rn.fields[i]
		fd := fieldData{
			Register:  d.Name,
			Name:      f.Name,
			Value:     rn.value,
			Getter:    fn.getter,
			Setter:    fn.setter,
			Shift:     fn.shift,
			Mask:      fn.mask,
			Offset:    f.Offset,
			Width:     f.Width,
			MaskHex:   paddedHex(f.ShiftedMask(), lr.Width),
			Doc:       oneLine(f.Description),
			Readable:  d.Readable && f.Access.CanRead(),
			Writable:  d.Writable && f.Access.CanWrite(),
			ReadType:  uintType(f.Width),
			WriteType: uintType(f.Width),
		}
		switch {
		case fn.read != nil:
			fd.ReadType = fn.read.typ
		case f.SingleBit:
			fd.ReadType = "bool"
		}
		switch {
		case fn.write != nil:
			fd.WriteType = fn.write.typ
		case f.SingleBit:
			fd.WriteType = "bool"
		}
		fd.Check = fd.WriteType != "bool" && f.Width != typeBits(f.Width)
		d.Fields = append(d.Fields, fd)
	}
	return d
}

// enumsInDeclarationOrder lists enum types by register declaration order,
// then field declaration order, read set before write set.
func enumsInDeclarationOrder(p *Plan, n *peripheralNames) []enumData {
	var out []enumData
	for i, r := range p.Peripheral.Registers {
		lr := p.Registers[i]
		rn := n.registers[lr]
		for _, src := range r.Fields {
			for j, f := range lr.Fields {
				if f.Source != src {
					continue
				}
				fn := rn.fields[j]
				if fn.read != nil {
					out = append(out, enumTemplateData(fn.read, r.QualifiedName(), f))
				}
				if fn.write != nil && fn.write != fn.read {
					out = append(out, enumTemplateData(fn.write, r.QualifiedName(), f))
				}
			}
		}
	}
	return out
}

func enumTemplateData(en *enumNames, register string, f layout.Field) enumData {
	d := enumData{
		Type:     en.typ,
		Base:     uintType(f.Width),
		Register: register,
		Field:    f.Name,
		Usage:    en.set.Usage,
	}
	seen := make(map[uint64]bool, len(en.set.Values))
	for i, v := range en.set.Values {
		vd := enumValueData{
			Const: en.consts[i],
			Name:  v.Name,
			Hex:   hex(v.Value),
			Doc:   oneLine(v.Description),
		}
		d.Values = append(d.Values, vd)
		if !seen[v.Value] {
			seen[v.Value] = true
			d.Cases = append(d.Cases, vd)
		}
		if v.IsDefault {
			d.Default = v.Name
		}
	}
	return d
}

func blockTemplateData(p *Plan, n *peripheralNames) blockData {
	d := blockData{
		Type: n.periph,
		Name: p.Peripheral.Name,
		Doc:  oneLine(p.Peripheral.Description),
	}
	for _, s := range p.Block.Slots {
		d.Members = append(d.Members, memberData{
			Name: n.members[s.Register],
			Type: n.registers[s.Register].typ,
			Pad:  s.Pad,
		})
	}
	for _, a := range p.Block.Alternates {
		d.Alternates = append(d.Alternates, alternateData{
			Method: n.members[a.Register],
			Type:   n.registers[a.Register].typ,
			Name:   a.Register.Source.QualifiedName(),
			Offset: hex(a.Offset),
			Of:     a.Of,
		})
	}
	return d
}

func hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}

// paddedHex formats v with as many digits as a width-bit value has.
func paddedHex(v, width uint64) string {
	return fmt.Sprintf("0x%0*x", int(width+3)/4, v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func typeBits(width uint64) uint64 {
	switch {
	case width <= 8:
		return 8
	case width <= 16:
		return 16
	case width <= 32:
		return 32
	}
	return 64
}

func uintType(width uint64) string {
	return fmt.Sprintf("uint%d", typeBits(width))
}

func ones(width uint64) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}
