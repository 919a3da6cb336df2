package browse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/regforge/regforge/pkg/resolve"
	"github.com/regforge/regforge/pkg/svd"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
	ErrNotFound    = errors.New("not found")
)

// Path is a parsed browse path.
// Format: peripheral[/register[/field]]
type Path struct {
	Peripheral string
	Register   string
	Field      string

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string. Components are separated by '/' or '.'.
// Cluster registers are addressed by their qualified name (CH0_CR).
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	parts := strings.FieldsFunc(input, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) == 0 || len(parts) > 3 || strings.Count(input, "/")+strings.Count(input, ".") != len(parts)-1 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, input)
	}

	p := &Path{Raw: input, Peripheral: parts[0]}
	if len(parts) > 1 {
		p.Register = parts[1]
	}
	if len(parts) > 2 {
		p.Field = parts[2]
	}
	return p, nil
}

// IsPartial reports whether the path stops above a field.
func (p *Path) IsPartial() bool {
	return p.Field == ""
}

func (p *Path) String() string {
	parts := []string{p.Peripheral}
	if p.Register != "" {
		parts = append(parts, p.Register)
	}
	if p.Field != "" {
		parts = append(parts, p.Field)
	}
	return strings.Join(parts, "/")
}

// Target is what a path refers to. Register and Field are nil for shorter
// paths.
type Target struct {
	Peripheral *resolve.Peripheral
	Register   *resolve.Register
	Field      *resolve.Field
}

// Lookup resolves path against the peripherals of dev, using r for
// resolution. Names are matched case-insensitively.
func Lookup(r *resolve.Resolver, dev *svd.Device, path *Path) (*Target, error) {
	var name string
	for _, p := range dev.Peripherals {
		if strings.EqualFold(p.Name, path.Peripheral) {
			name = p.Name
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("peripheral %s: %w", path.Peripheral, ErrNotFound)
	}
	p, err := r.Peripheral(name)
	if err != nil {
		return nil, err
	}

	t := &Target{Peripheral: p}
	if path.Register == "" {
		return t, nil
	}
	for _, reg := range p.Registers {
		if strings.EqualFold(reg.QualifiedName(), path.Register) {
			t.Register = reg
			break
		}
	}
	if t.Register == nil {
		return nil, fmt.Errorf("register %s.%s: %w", p.Name, path.Register, ErrNotFound)
	}

	if path.Field == "" {
		return t, nil
	}
	for _, f := range t.Register.Fields {
		if strings.EqualFold(f.Name, path.Field) {
			t.Field = f
			break
		}
	}
	if t.Field == nil {
		return nil, fmt.Errorf("field %s.%s.%s: %w", p.Name, t.Register.QualifiedName(), path.Field, ErrNotFound)
	}
	return t, nil
}
