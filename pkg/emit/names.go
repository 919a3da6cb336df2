package emit

import (
	"go/token"

	"github.com/regforge/regforge/pkg/layout"
	"github.com/regforge/regforge/pkg/naming"
	"github.com/regforge/regforge/pkg/resolve"
)

// reservedIdents are package-level names generated code cannot shadow.
var reservedIdents = []string{"mmio", "unsafe"}

var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true,
	"complex64": true, "complex128": true, "error": true,
	"float32": true, "float64": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"true": true, "false": true, "iota": true, "nil": true,
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
}

// escape appends '_' to Go keywords and predeclared identifiers.
func escape(id string) string {
	if token.IsKeyword(id) || predeclared[id] {
		return id + "_"
	}
	return id
}

type peripheralNames struct {
	periph string
	base   string
	regs   string

	registers map[*layout.Register]*registerNames
	members   map[*layout.Register]string

	scopes []*naming.Scope
}

type registerNames struct {
	typ   string
	value string
	reset string

	// fields parallels layout.Register.Fields.
	fields []fieldNames
}

type fieldNames struct {
	getter string
	setter string
	shift  string
	mask   string

	read  *enumNames
	write *enumNames
}

type enumNames struct {
	typ string
	set *resolve.EnumSet
	// consts parallels set.Values.
	consts []string
}

func (n *peripheralNames) collisions() []naming.Collision {
	var out []naming.Collision
	for _, s := range n.scopes {
		out = append(out, s.Collisions()...)
	}
	return out
}

// assignNames claims every identifier a plan needs. Package-level names are
// claimed together with all names derived from them, so a suffix applies to
// a register's whole family of declarations.
func assignNames(p *Plan, conv naming.Convention) *peripheralNames {
	pkg := naming.NewScope(p.Peripheral.Name, conv.Type)
	pkg.Reserve(reservedIdents...)
	n := &peripheralNames{
		registers: make(map[*layout.Register]*registerNames, len(p.Registers)),
		members:   make(map[*layout.Register]string, len(p.Registers)),
		scopes:    []*naming.Scope{pkg},
	}

	n.periph = pkg.Claim("peripheral", p.Peripheral.Name, func(base string) []string {
		return []string{conv.Type.Concat(base, "Base"), conv.Type.Concat(base, "Regs")}
	})
	n.base = escape(conv.Type.Concat(n.periph, "Base"))
	n.regs = escape(conv.Type.Concat(n.periph, "Regs"))
	n.periph = escape(n.periph)

	for _, lr := range byOffset(p.Registers) {
		n.registers[lr] = n.assignRegister(lr, pkg, conv)
	}

	block := naming.NewScope(p.Peripheral.Name+" block", conv.Member)
	n.scopes = append(n.scopes, block)
	for _, s := range p.Block.Slots {
		q := s.Register.Source.QualifiedName()
		n.members[s.Register] = escape(block.Claim(q, q, nil))
	}
	for _, a := range p.Block.Alternates {
		q := a.Register.Source.QualifiedName()
		n.members[a.Register] = escape(block.Claim(q, q, nil))
	}
	return n
}

func (n *peripheralNames) assignRegister(lr *layout.Register, pkg *naming.Scope, conv naming.Convention) *registerNames {
	q := lr.Source.QualifiedName()

	members := naming.NewScope(q, conv.Member)
	n.scopes = append(n.scopes, members)
	type fieldPlan struct {
		member string
		read   *resolve.EnumSet
		write  *resolve.EnumSet
		rv, wv []string
	}
	plans := make([]fieldPlan, len(lr.Fields))
	for i, f := range lr.Fields {
		m := members.Claim(f.Name, f.Name, func(base string) []string {
			return []string{setterName(conv.Member, base)}
		})
		fp := fieldPlan{member: m}
		if rv := f.Source.ReadValues; rv != nil && len(rv.Values) > 0 {
			fp.read = rv
			fp.rv = n.valueIdents(q+"."+f.Name, rv, conv)
		}
		if wv := f.Source.WriteValues; wv != nil && len(wv.Values) > 0 {
			fp.write = wv
			if wv == f.Source.ReadValues {
				fp.wv = fp.rv
			} else {
				fp.wv = n.valueIdents(q+"."+f.Name, wv, conv)
			}
		}
		plans[i] = fp
	}

	derived := func(base string) *registerNames {
		rn := &registerNames{
			typ:   base,
			value: conv.Type.Concat(base, "Value"),
			reset: conv.Type.Concat(base, "Reset"),
		}
		for _, fp := range plans {
			fn := fieldNames{
				getter: fp.member,
				setter: setterName(conv.Member, fp.member),
				shift:  conv.Type.Concat(base, fp.member, "Shift"),
				mask:   conv.Type.Concat(base, fp.member, "Mask"),
			}
			asym := fp.read != nil && fp.write != nil && fp.read != fp.write
			enum := func(set *resolve.EnumSet, values []string, suffix string) *enumNames {
				typ := conv.Type.Concat(base, fp.member)
				if asym {
					typ = conv.Type.Concat(typ, suffix)
				}
				en := &enumNames{typ: typ, set: set}
				for _, v := range values {
					en.consts = append(en.consts, conv.Const.Concat(typ, v))
				}
				return en
			}
			if fp.read != nil {
				fn.read = enum(fp.read, fp.rv, "Read")
			}
			if fp.write != nil {
				if fp.write == fp.read {
					fn.write = fn.read
				} else {
					fn.write = enum(fp.write, fp.wv, "Write")
				}
			}
			rn.fields = append(rn.fields, fn)
		}
		return rn
	}
	forms := func(base string) []string {
		rn := derived(base)
		out := []string{rn.value, rn.reset}
		for _, f := range rn.fields {
			out = append(out, f.shift, f.mask)
			for _, en := range []*enumNames{f.read, f.write} {
				if en == nil || (en == f.write && f.write == f.read) {
					continue
				}
				out = append(out, en.typ)
				out = append(out, en.consts...)
			}
		}
		return out
	}

	rn := derived(pkg.Claim("register:"+q, q, forms))
	rn.typ = escape(rn.typ)
	rn.value = escape(rn.value)
	rn.reset = escape(rn.reset)
	for i := range rn.fields {
		f := &rn.fields[i]
		f.getter, f.setter = escape(f.getter), escape(f.setter)
		f.shift, f.mask = escape(f.shift), escape(f.mask)
		for _, en := range []*enumNames{f.read, f.write} {
			if en == nil || (en == f.write && f.write == f.read) {
				continue
			}
			en.typ = escape(en.typ)
			for j := range en.consts {
				en.consts[j] = escape(en.consts[j])
			}
		}
	}
	return rn
}

func (n *peripheralNames) valueIdents(scope string, set *resolve.EnumSet, conv naming.Convention) []string {
	s := naming.NewScope(scope+"."+set.Name, conv.Const)
	n.scopes = append(n.scopes, s)
	out := make([]string, len(set.Values))
	for i, v := range set.Values {
		out[i] = s.Name(v.Name)
	}
	return out
}

func setterName(c naming.Case, member string) string {
	switch c {
	case naming.Camel, naming.Snake:
		return c.Concat("with", member)
	}
	return c.Concat("With", member)
}
