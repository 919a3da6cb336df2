package resolve

import (
	"errors"
	"strings"
)

var (
	// ErrUnresolvedReference is returned when a derivedFrom name matches no
	// entity in its scope.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrDerivationCycle is returned when a derivedFrom chain revisits an entity.
	ErrDerivationCycle = errors.New("derivation cycle")
	// ErrIncomplete is returned when a required attribute is missing after
	// derivation, such as a field without a bit range.
	ErrIncomplete = errors.New("incomplete description")
	// ErrInvalidEnumeration is returned for enumerated value sets that cannot
	// be represented: more than one default or a value wider than the field.
	ErrInvalidEnumeration = errors.New("invalid enumerated values")
)

// Error locates a resolution failure in the description.
type Error struct {
	// Kind is one of the package sentinel errors.
	Kind error

	Peripheral string
	Register   string
	Field      string

	// Ref is the derivedFrom reference being followed, or the visited chain
	// for cycles.
	Ref string

	// Err is an optional underlying cause.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	loc := make([]string, 0, 3)
	for _, s := range []string{e.Peripheral, e.Register, e.Field} {
		if s != "" {
			loc = append(loc, s)
		}
	}
	if len(loc) > 0 {
		b.WriteString(strings.Join(loc, "."))
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Ref != "" {
		b.WriteString(" ")
		b.WriteString(e.Ref)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the sentinel kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
