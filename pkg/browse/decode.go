package browse

import (
	"fmt"
	"strings"

	"github.com/regforge/regforge/pkg/layout"
	"github.com/regforge/regforge/pkg/resolve"
)

// FieldValue is one field of a decoded register value.
type FieldValue struct {
	Field layout.Field
	Raw   uint64
	// Name is the enumerated value name, empty if the field has no
	// enumeration or the value is not listed.
	Name string
}

// Decode splits a raw register value into its fields, in bit order. Bits
// outside any field are reported by the returned reserved value.
func Decode(r *resolve.Register, value uint64) ([]FieldValue, uint64, error) {
	lr, err := layout.Plan(r)
	if err != nil {
		return nil, 0, err
	}
	if lr.Width < 64 && value>>lr.Width != 0 {
		return nil, 0, fmt.Errorf("%s: value %#x: %w", r.QualifiedName(), value, layout.ErrValueOverflow)
	}

	out := make([]FieldValue, 0, len(lr.Fields))
	for _, f := range lr.Fields {
		fv := FieldValue{Field: f, Raw: f.Extract(value)}
		set := f.Source.ReadValues
		if set == nil {
			set = f.Source.WriteValues
		}
		if set != nil {
			fv.Name, _ = set.Decode(fv.Raw)
		}
		out = append(out, fv)
	}
	return out, value & lr.ReservedMask, nil
}

// FormatValue formats a field value for display: single-bit fields as
// true/false, others in decimal and hex, followed by the enumerated name.
func FormatValue(fv FieldValue) string {
	var s string
	switch {
	case fv.Field.SingleBit && fv.Name == "":
		s = fmt.Sprintf("%t", fv.Raw != 0)
	case fv.Raw < 10:
		s = fmt.Sprintf("%d", fv.Raw)
	default:
		s = fmt.Sprintf("%d (%#x)", fv.Raw, fv.Raw)
	}
	if fv.Name != "" {
		s += " " + fv.Name
	}
	return s
}

// FormatDecoded renders the result of Decode, one field per line.
func FormatDecoded(r *resolve.Register, value uint64, fields []FieldValue, reserved uint64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = 0x%0*x", r.QualifiedName(), int(r.Size+3)/4, value)

	width := 0
	for _, fv := range fields {
		width = max(width, len(fv.Field.Name))
	}
	for _, fv := range fields {
		fmt.Fprintf(&b, "\n  %-*s = %s", width, fv.Field.Name, FormatValue(fv))
	}
	if reserved != 0 {
		fmt.Fprintf(&b, "\n  (reserved bits set: %#x)", reserved)
	}
	return b.String()
}
