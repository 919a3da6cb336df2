package generate

import (
	"strings"

	"github.com/regforge/regforge/pkg/svd"
)

// Select returns the peripheral a pattern selects: the one whose name equals
// pattern ignoring case, otherwise the first in declaration order whose name
// contains it ignoring case. It returns nil if nothing matches.
func Select(dev *svd.Device, pattern string) *svd.Peripheral {
	for _, p := range dev.Peripherals {
		if strings.EqualFold(p.Name, pattern) {
			return p
		}
	}
	if m := Matching(dev, pattern); len(m) > 0 {
		return m[0]
	}
	return nil
}

// Matching returns every peripheral whose name contains pattern ignoring
// case, in declaration order. An empty pattern matches all of them.
func Matching(dev *svd.Device, pattern string) []*svd.Peripheral {
	needle := strings.ToLower(pattern)
	var out []*svd.Peripheral
	for _, p := range dev.Peripherals {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}
