package commands

import (
	"fmt"
	"io"

	"github.com/regforge/regforge/pkg/generate"
	"github.com/regforge/regforge/pkg/svd"
)

// RunList prints the peripherals of dev. Without a pattern every peripheral
// is printed with its base address; with one, only the matching names.
func RunList(dev *svd.Device, pattern string, w io.Writer) {
	if pattern == "" {
		for _, p := range dev.Peripherals {
			fmt.Fprintf(w, "%s at 0x%08x\n", p.Name, uint64(p.BaseAddress))
		}
		return
	}
	for _, p := range generate.Matching(dev, pattern) {
		fmt.Fprintln(w, p.Name)
	}
}
