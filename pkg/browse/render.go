package browse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/regforge/regforge/pkg/resolve"
)

// Verbosity levels for Render.
const (
	VerbosityPeripheral = iota
	VerbosityRegisters
	VerbosityFields
	VerbosityValues
)

const (
	ansiBold      = "\x1b[1m"
	ansiHighlight = "\x1b[1;33m"
	ansiReset     = "\x1b[0m"
)

// RenderOptions controls the listing produced by Render.
type RenderOptions struct {
	// Verbosity is one of the Verbosity constants; higher levels include
	// everything of the lower ones.
	Verbosity int

	// Highlight marks matches of the search pattern. It only has an effect
	// together with Color.
	Highlight *regexp.Regexp

	// Color enables ANSI escapes: names in bold, matches highlighted.
	Color bool
}

// segment is a run of text; names are emphasized.
type segment struct {
	text string
	emph bool
}

type line []segment

func plain(s string) segment { return segment{text: s} }
func emph(s string) segment  { return segment{text: s, emph: true} }

// Render lists p as text, one line per entry:
//
//	TIMER0 (TIMER) (0x40000000): General purpose timer
//	  - CTRL   (+0x0000): read-write - Control
//	      - EN   :     0 - Enable
//	      - MODE :   1-2 - Mode
//	                       + ONESHOT (0)
//
// A blank line follows every register that has fields listed.
func Render(p *resolve.Peripheral, opts RenderOptions) string {
	var lines []line

	head := line{emph(p.Name)}
	if p.GroupName != "" {
		head = append(head, plain(" ("+p.GroupName+")"))
	}
	head = append(head, plain(fmt.Sprintf(" (0x%08x): %s", p.BaseAddress, oneLine(p.Description))))
	lines = append(lines, head)

	if opts.Verbosity >= VerbosityRegisters {
		regWidth, fieldWidth := nameWidths(p)
		for _, r := range p.Registers {
			lines = append(lines, registerLine(r, regWidth))
			if opts.Verbosity < VerbosityFields || len(r.Fields) == 0 {
				continue
			}
			for _, f := range r.Fields {
				lines = append(lines, fieldLine(r, f, fieldWidth))
				if opts.Verbosity < VerbosityValues {
					continue
				}
				for _, set := range fieldSets(f) {
					for _, v := range set.Values {
						lines = append(lines, valueLine(set, v, fieldWidth))
					}
				}
			}
			lines = append(lines, nil)
		}
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(l.render(opts), " "))
	}
	return b.String()
}

// RenderRegister lists a single register with its fields and values.
func RenderRegister(r *resolve.Register, opts RenderOptions) string {
	p := &resolve.Peripheral{Registers: []*resolve.Register{r}}
	regWidth, fieldWidth := nameWidths(p)

	lines := []line{registerLine(r, regWidth)}
	for _, f := range r.Fields {
		lines = append(lines, fieldLine(r, f, fieldWidth))
		for _, set := range fieldSets(f) {
			for _, v := range set.Values {
				lines = append(lines, valueLine(set, v, fieldWidth))
			}
		}
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimRight(l.render(opts), " ")
	}
	return strings.Join(out, "\n")
}

func registerLine(r *resolve.Register, width int) line {
	name := r.QualifiedName()
	return line{
		plain("  - "),
		emph(name),
		plain(fmt.Sprintf("%s (+0x%04x): %s - %s",
			strings.Repeat(" ", max(width-len(name), 0)), r.Offset, r.Access, oneLine(r.Description))),
	}
}

func fieldLine(r *resolve.Register, f *resolve.Field, width int) line {
	bits := fmt.Sprintf("%d", f.Offset)
	if f.Width > 1 {
		bits = fmt.Sprintf("%d-%d", f.Offset, f.Offset+f.Width-1)
	}
	rest := fmt.Sprintf("%s : %5s", strings.Repeat(" ", max(width-len(f.Name), 0)), bits)
	if f.Access != r.Access {
		rest += " - " + f.Access.String()
	}
	rest += " - " + oneLine(f.Description)
	return line{plain("      - "), emph(f.Name), plain(rest)}
}

func valueLine(set *resolve.EnumSet, v resolve.EnumValue, width int) line {
	l := line{plain(strings.Repeat(" ", width+16) + " + "), emph(v.Name)}
	var rest []string
	if v.Explicit || !v.IsDefault {
		rest = append(rest, fmt.Sprintf("(%d)", v.Value))
	}
	if v.IsDefault {
		rest = append(rest, "(DEFAULT)")
	}
	if set.Usage != "" && set.Usage != "read-write" {
		rest = append(rest, "["+set.Usage+"]")
	}
	if d := oneLine(v.Description); d != "" {
		rest = append(rest, d)
	}
	if len(rest) > 0 {
		l = append(l, plain(" "+strings.Join(rest, " ")))
	}
	return l
}

// nameWidths returns the longest register and field names of p.
func nameWidths(p *resolve.Peripheral) (reg, field int) {
	for _, r := range p.Registers {
		reg = max(reg, len(r.QualifiedName()))
		for _, f := range r.Fields {
			field = max(field, len(f.Name))
		}
	}
	return reg, field
}

func (l line) render(opts RenderOptions) string {
	var b strings.Builder
	for _, s := range l {
		if !opts.Color {
			b.WriteString(s.text)
			continue
		}
		restore := ansiReset
		if s.emph {
			b.WriteString(ansiBold)
			restore += ansiBold
		}
		text := s.text
		if opts.Highlight != nil && opts.Highlight.String() != "" {
			text = opts.Highlight.ReplaceAllStringFunc(text, func(m string) string {
				return ansiHighlight + m + restore
			})
		}
		b.WriteString(text)
		if s.emph {
			b.WriteString(ansiReset)
		}
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
