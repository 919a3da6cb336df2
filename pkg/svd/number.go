package svd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidValue is returned when a scalar attribute cannot be parsed.
	ErrInvalidValue = errors.New("invalid value")
	// ErrDuplicatePeripheral is returned when two peripherals share a name.
	ErrDuplicatePeripheral = errors.New("duplicate peripheral name")
)

// Uint is an unsigned number as written in a description: decimal, 0x hex,
// 0b or # binary. In binary literals an 'x' marks a don't-care bit and reads
// as 0.
type Uint uint64

// ParseUint parses a description number.
func ParseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty number", ErrInvalidValue)
	}
	base := 10
	digits := s
	switch {
	case strings.HasPrefix(s, "#"):
		base, digits = 2, s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base, digits = 16, s[2:]
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		base, digits = 2, s[2:]
	}
	if base == 2 {
		digits = strings.Map(func(r rune) rune {
			if r == 'x' || r == 'X' {
				return '0'
			}
			return r
		}, digits)
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: number %q", ErrInvalidValue, s)
	}
	return v, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Uint) UnmarshalText(text []byte) error {
	v, err := ParseUint(string(text))
	if err != nil {
		return err
	}
	*u = Uint(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (u *Uint) UnmarshalYAML(node *yaml.Node) error {
	return u.UnmarshalText([]byte(node.Value))
}

// MarshalYAML implements yaml.Marshaler.
func (u Uint) MarshalYAML() (any, error) {
	return fmt.Sprintf("0x%X", uint64(u)), nil
}

// Ptr returns a pointer to a copy of u.
func (u Uint) Ptr() *Uint {
	return &u
}

// U returns a pointer to v as a Uint. It keeps test fixtures short.
func U(v uint64) *Uint {
	u := Uint(v)
	return &u
}
