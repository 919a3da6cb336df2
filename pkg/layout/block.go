package layout

import (
	"slices"
)

// Slot is a register placed in the peripheral block struct.
type Slot struct {
	Register *Register
	Offset   uint64
	// Pad is the number of unused bytes between the previous slot and
	// this one.
	Pad uint64
}

// Alternate is a register that cannot be a struct member, either because
// it shares bytes with an earlier register or because its offset is not
// aligned to its size. It is reached through an address cast.
type Alternate struct {
	Register *Register
	Offset   uint64
	// Of names the register whose bytes it shares, empty when misaligned.
	Of string
}

// Block is the byte layout of a peripheral.
type Block struct {
	Slots      []Slot
	Alternates []Alternate
	// Size is the end of the last slot.
	Size uint64
}

// Arrange places registers by offset. The first declared register at an
// address keeps the slot; later registers overlapping it become alternates.
func Arrange(regs []*Register) *Block {
	ordered := slices.Clone(regs)
	slices.SortStableFunc(ordered, func(a, b *Register) int {
		switch {
		case a.Source.Offset < b.Source.Offset:
			return -1
		case a.Source.Offset > b.Source.Offset:
			return 1
		}
		return 0
	})

	b := &Block{}
	var last *Register
	for _, r := range ordered {
		off := r.Source.Offset
		switch {
		case off%r.Bytes() != 0:
			b.Alternates = append(b.Alternates, Alternate{Register: r, Offset: off})
		case last != nil && off < b.Size:
			b.Alternates = append(b.Alternates, Alternate{Register: r, Offset: off, Of: last.Source.QualifiedName()})
		default:
			b.Slots = append(b.Slots, Slot{Register: r, Offset: off, Pad: off - b.Size})
			b.Size = off + r.Bytes()
			last = r
		}
	}
	return b
}
