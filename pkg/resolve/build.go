package resolve

import (
	"fmt"
	"strings"

	"github.com/regforge/regforge/pkg/svd"
)

// build turns a flattened description into a resolved peripheral. It expands
// arrays, flattens clusters into register paths and numbers enumerated
// values.
func build(flat *svd.Peripheral) (*Peripheral, error) {
	out := &Peripheral{
		Name:        flat.Name,
		GroupName:   flat.GroupName,
		Description: flat.Description,
		BaseAddress: uint64(flat.BaseAddress),
	}
	for _, irq := range flat.Interrupts {
		out.Interrupts = append(out.Interrupts, Interrupt{
			Name:        irq.Name,
			Description: irq.Description,
			Value:       uint64(irq.Value),
		})
	}
	b := &builder{base: out.BaseAddress}
	for _, reg := range flat.Registers {
		regs, err := b.register(reg, nil, 0)
		if err != nil {
			return nil, err
		}
		out.Registers = append(out.Registers, regs...)
	}
	for _, c := range flat.Clusters {
		regs, err := b.cluster(c, nil, 0)
		if err != nil {
			return nil, err
		}
		out.Registers = append(out.Registers, regs...)
	}
	return out, nil
}

type builder struct {
	base uint64
}

// instance is one element of a possibly dimensioned entity.
type instance struct {
	name   string
	offset uint64
}

func instances(name string, offset uint64, dim svd.DimElement, defaultStride uint64) ([]instance, error) {
	indices, err := dim.Indices()
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return []instance{{name: name, offset: offset}}, nil
	}
	stride := defaultStride
	if dim.DimIncrement != nil {
		stride = uint64(*dim.DimIncrement)
	}
	if stride == 0 {
		return nil, fmt.Errorf("array %s has no dimIncrement", name)
	}
	out := make([]instance, len(indices))
	for i, idx := range indices {
		out[i] = instance{
			name:   substitute(name, idx),
			offset: offset + uint64(i)*stride,
		}
	}
	return out, nil
}

// substitute replaces the array placeholder in name with an index label.
// Names without a placeholder get the label appended.
func substitute(name, idx string) string {
	switch {
	case strings.Contains(name, "[%s]"):
		return strings.ReplaceAll(name, "[%s]", idx)
	case strings.Contains(name, "%s"):
		return strings.ReplaceAll(name, "%s", idx)
	default:
		return name + idx
	}
}

func (b *builder) cluster(c *svd.Cluster, path []string, offset uint64) ([]*Register, error) {
	insts, err := instances(c.Name, offset+uint64(c.AddressOffset), c.DimElement, 0)
	if err != nil {
		return nil, &Error{Kind: ErrIncomplete, Register: c.Name, Err: err}
	}
	var out []*Register
	for _, inst := range insts {
		p := append(append([]string(nil), path...), inst.name)
		for _, reg := range c.Registers {
			regs, err := b.register(reg, p, inst.offset)
			if err != nil {
				return nil, err
			}
			out = append(out, regs...)
		}
		for _, sub := range c.Clusters {
			regs, err := b.cluster(sub, p, inst.offset)
			if err != nil {
				return nil, err
			}
			out = append(out, regs...)
		}
	}
	return out, nil
}

func (b *builder) register(reg *svd.Register, path []string, offset uint64) ([]*Register, error) {
	size := uint64(*reg.Size)
	insts, err := instances(reg.Name, offset+uint64(reg.AddressOffset), reg.DimElement, size/8)
	if err != nil {
		return nil, &Error{Kind: ErrIncomplete, Register: reg.Name, Err: err}
	}
	out := make([]*Register, 0, len(insts))
	for _, inst := range insts {
		r := &Register{
			Name:        inst.name,
			DisplayName: reg.DisplayName,
			Description: reg.Description,
			Offset:      inst.offset,
			Address:     b.base + inst.offset,
			Size:        size,
			Access:      *reg.Access,
			ResetValue:  uint64(*reg.ResetValue),
			ResetMask:   uint64(*reg.ResetMask),
		}
		if len(path) > 0 {
			r.Path = append([]string(nil), path...)
		}
		for _, f := range reg.Fields {
			field, err := buildField(f)
			if err != nil {
				return nil, withRegister(err, inst.name)
			}
			r.Fields = append(r.Fields, field)
		}
		out = append(out, r)
	}
	return out, nil
}

func buildField(f *svd.Field) (*Field, error) {
	out := &Field{
		Name:        f.Name,
		Description: f.Description,
		Offset:      uint64(*f.BitOffset),
		Width:       uint64(*f.BitWidth),
		Access:      *f.Access,
	}
	for _, ev := range f.EnumeratedValues {
		set, err := buildEnumSet(ev, out.Width)
		if err != nil {
			return nil, &Error{Kind: ErrInvalidEnumeration, Field: f.Name, Ref: ev.Name, Err: err}
		}
		if ev.ForRead() && out.ReadValues == nil {
			out.ReadValues = set
		}
		if ev.ForWrite() && out.WriteValues == nil {
			out.WriteValues = set
		}
	}
	return out, nil
}

// buildEnumSet numbers the values of a set. Explicit values keep their
// number. A positional value takes the lowest unused number after its
// predecessor. A default without a value takes the lowest number left over
// and is dropped when the field has no spare encoding.
func buildEnumSet(ev *svd.EnumeratedValues, width uint64) (*EnumSet, error) {
	limit := ones(width)
	used := make(map[uint64]bool, len(ev.Values))
	defaults := 0
	for _, v := range ev.Values {
		if v.IsDefault {
			defaults++
		}
		if v.Value == nil {
			continue
		}
		if uint64(*v.Value) > limit {
			return nil, fmt.Errorf("value %s=%d does not fit in %d bits", v.Name, uint64(*v.Value), width)
		}
		used[uint64(*v.Value)] = true
	}
	if defaults > 1 {
		return nil, fmt.Errorf("%d default values", defaults)
	}

	set := &EnumSet{Name: ev.Name, Usage: ev.Usage}
	pending := -1
	var next uint64
	for _, v := range ev.Values {
		val := EnumValue{Name: v.Name, Description: v.Description, IsDefault: v.IsDefault}
		switch {
		case v.Value != nil:
			val.Value = uint64(*v.Value)
			val.Explicit = true
			next = val.Value + 1
		case v.IsDefault:
			pending = len(set.Values)
		default:
			for used[next] {
				next++
			}
			if next > limit {
				return nil, fmt.Errorf("value %s does not fit in %d bits", v.Name, width)
			}
			val.Value = next
			used[next] = true
			next++
		}
		set.Values = append(set.Values, val)
	}

	if pending >= 0 {
		free, ok := lowestFree(used, limit)
		if ok {
			set.Values[pending].Value = free
		} else {
			set.Values = append(set.Values[:pending], set.Values[pending+1:]...)
		}
	}
	return set, nil
}

func lowestFree(used map[uint64]bool, limit uint64) (uint64, bool) {
	for v := uint64(0); ; v++ {
		if !used[v] {
			return v, true
		}
		if v == limit {
			return 0, false
		}
	}
}
