package svd

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Access is the access mode of a register or field.
type Access uint8

const (
	// AccessReadWrite allows reads and writes.
	AccessReadWrite Access = iota
	// AccessReadOnly allows reads only.
	AccessReadOnly
	// AccessWriteOnly allows writes only.
	AccessWriteOnly
	// AccessWriteOnce allows a single write after reset and no reads.
	AccessWriteOnce
	// AccessReadWriteOnce allows reads and a single write after reset.
	AccessReadWriteOnce
)

// String returns the SVD spelling of the access mode.
func (a Access) String() string {
	switch a {
	case AccessReadWrite:
		return "read-write"
	case AccessReadOnly:
		return "read-only"
	case AccessWriteOnly:
		return "write-only"
	case AccessWriteOnce:
		return "writeOnce"
	case AccessReadWriteOnce:
		return "read-writeOnce"
	default:
		return "UNKNOWN"
	}
}

// CanRead reports whether the access mode permits reads.
func (a Access) CanRead() bool {
	return a == AccessReadWrite || a == AccessReadOnly || a == AccessReadWriteOnce
}

// CanWrite reports whether the access mode permits writes.
func (a Access) CanWrite() bool {
	return a != AccessReadOnly
}

// ParseAccess parses an access mode. Both the SVD spellings and the short
// forms used in YAML descriptions (ro, wo, rw, w1, rw1) are accepted.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read-write", "readwrite", "rw":
		return AccessReadWrite, nil
	case "read-only", "readonly", "ro", "r":
		return AccessReadOnly, nil
	case "write-only", "writeonly", "wo", "w":
		return AccessWriteOnly, nil
	case "writeonce", "write-once", "w1":
		return AccessWriteOnce, nil
	case "read-writeonce", "readwriteonce", "rw1":
		return AccessReadWriteOnce, nil
	default:
		return 0, fmt.Errorf("%w: access %q", ErrInvalidValue, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for XML decoding.
func (a *Access) UnmarshalText(text []byte) error {
	v, err := ParseAccess(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Access) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Access) UnmarshalYAML(node *yaml.Node) error {
	return a.UnmarshalText([]byte(node.Value))
}

// MarshalYAML implements yaml.Marshaler.
func (a Access) MarshalYAML() (any, error) {
	return a.String(), nil
}

// Ptr returns a pointer to a copy of a.
func (a Access) Ptr() *Access {
	return &a
}
