// Package layout computes the bit-level placement of fields within a
// register and the byte-level placement of registers within a peripheral.
package layout

import (
	"fmt"
	"slices"

	"github.com/regforge/regforge/pkg/resolve"
	"github.com/regforge/regforge/pkg/svd"
)

// Field is a field with its mask and shift precomputed.
type Field struct {
	Name        string
	Description string
	Offset      uint64
	Width       uint64

	// Mask is unshifted: all ones over Width bits.
	Mask      uint64
	Shift     uint64
	SingleBit bool
	Access    svd.Access

	Source *resolve.Field
}

// Extract returns the field value held in raw.
func (f Field) Extract(raw uint64) uint64 {
	return (raw >> f.Shift) & f.Mask
}

// Insert returns raw with the field replaced by v. Bits outside the field
// are left as they are.
func (f Field) Insert(raw, v uint64) (uint64, error) {
	if v > f.Mask {
		return raw, fmt.Errorf("%w: %s is %d bits wide, got %#x", ErrValueOverflow, f.Name, f.Width, v)
	}
	return (raw &^ (f.Mask << f.Shift)) | (v << f.Shift), nil
}

// ShiftedMask is the field mask in register position.
func (f Field) ShiftedMask() uint64 {
	return f.Mask << f.Shift
}

// Range is a run of bits.
type Range struct {
	Offset uint64
	Width  uint64
}

// Register is the planned bit layout of one register.
type Register struct {
	Source *resolve.Register
	Width  uint64

	// Fields sorted by offset.
	Fields []Field

	// Reserved lists the bits no field covers, lowest first.
	Reserved     []Range
	ReservedMask uint64
	FieldMask    uint64
}

// Bytes is the register size in bytes.
func (r *Register) Bytes() uint64 { return r.Width / 8 }

// Plan lays out the fields of reg. It fails when a field is empty, reaches
// past the register, or shares a bit with another field.
func Plan(reg *resolve.Register) (*Register, error) {
	name := reg.QualifiedName()
	switch reg.Size {
	case 8, 16, 32, 64:
	default:
		return nil, &Error{Register: name, Err: fmt.Errorf("%w: %d bits", ErrUnsupportedSize, reg.Size)}
	}

	out := &Register{Source: reg, Width: reg.Size}
	for _, f := range reg.Fields {
		if f.Width == 0 || f.Width > 64 || f.Offset >= reg.Size || f.Width > reg.Size-f.Offset {
			return nil, &Error{
				Register: name,
				Field:    f.Name,
				Err:      fmt.Errorf("%w: %d bits at offset %d in a %d-bit register", ErrOutOfRange, f.Width, f.Offset, reg.Size),
			}
		}
		out.Fields = append(out.Fields, Field{
			Name:        f.Name,
			Description: f.Description,
			Offset:      f.Offset,
			Width:       f.Width,
			Mask:        ones(f.Width),
			Shift:       f.Offset,
			SingleBit:   f.Width == 1,
			Access:      f.Access,
			Source:      f,
		})
	}
	slices.SortStableFunc(out.Fields, func(a, b Field) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})

	var next uint64
	for i, f := range out.Fields {
		if i > 0 && f.Offset < next {
			prev := out.Fields[i-1]
			return nil, &Error{
				Register: name,
				Field:    prev.Name,
				Other:    f.Name,
				Err: fmt.Errorf("%w: [%d,%d] and [%d,%d]", ErrOverlappingFields,
					prev.Offset, prev.Offset+prev.Width-1, f.Offset, f.Offset+f.Width-1),
			}
		}
		if f.Offset > next {
			out.Reserved = append(out.Reserved, Range{Offset: next, Width: f.Offset - next})
		}
		out.FieldMask |= f.ShiftedMask()
		next = f.Offset + f.Width
	}
	if next < out.Width {
		out.Reserved = append(out.Reserved, Range{Offset: next, Width: out.Width - next})
	}
	out.ReservedMask = ones(out.Width) &^ out.FieldMask
	return out, nil
}

// Field returns the named field.
func (r *Register) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func ones(width uint64) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}
