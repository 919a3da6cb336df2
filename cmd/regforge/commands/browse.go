package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/regforge/regforge/pkg/browse"
	"github.com/regforge/regforge/pkg/resolve"
	"github.com/regforge/regforge/pkg/svd"
)

// BrowseOptions holds the flags of the browse command.
type BrowseOptions struct {
	Pattern      string
	Descriptions bool
	Verbosity    int
	Color        bool
}

func (o BrowseOptions) search() browse.SearchOptions {
	return browse.SearchOptions{Descriptions: o.Descriptions}
}

func (o BrowseOptions) render(pattern string) browse.RenderOptions {
	ro := browse.RenderOptions{Verbosity: o.Verbosity, Color: o.Color}
	if pattern != "" {
		ro.Highlight = browse.Pattern(pattern)
	}
	return ro
}

// ParseColorFlag decides whether output to f is coloured. mode is auto,
// always or never; auto colours terminals only.
func ParseColorFlag(mode string, f *os.File) (bool, error) {
	switch strings.ToLower(mode) {
	case "", "auto":
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return false, fmt.Errorf("invalid color mode: %s (must be auto, always, or never)", mode)
	}
}

// ParseVerbosityFlag checks a -v value.
func ParseVerbosityFlag(v int) (int, error) {
	if v < browse.VerbosityPeripheral || v > browse.VerbosityValues {
		return 0, fmt.Errorf("invalid verbosity: %d (must be 0 to 3)", v)
	}
	return v, nil
}

// RunBrowse lists every peripheral that matches opts.Pattern. A peripheral
// that fails to resolve is skipped; the failures are returned once the
// listing is complete.
func RunBrowse(dev *svd.Device, opts BrowseOptions, w io.Writer) error {
	return search(dev, resolve.New(dev), opts, opts.Pattern, w)
}

func search(dev *svd.Device, r *resolve.Resolver, opts BrowseOptions, pattern string, w io.Writer) error {
	re := browse.Pattern(pattern)
	ro := opts.render(pattern)

	var errs []error
	first := true
	for _, sp := range dev.Peripherals {
		p, err := r.Resolve(sp)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !browse.Match(re, p, opts.search()) {
			continue
		}
		if !first && opts.Verbosity > browse.VerbosityPeripheral {
			fmt.Fprintln(w)
		}
		first = false
		fmt.Fprintln(w, strings.TrimRight(browse.Render(p, ro), "\n"))
	}
	return errors.Join(errs...)
}
