// Package browse searches and prints resolved peripherals for humans.
//
// The browse package offers:
//   - Case-insensitive search patterns over names and, optionally, descriptions
//   - A plain-text listing of peripherals, registers, fields and values
//   - Path expressions (e.g. "TIMER0/CTRL/MODE") and register value decoding
//     for the interactive shell
package browse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/regforge/regforge/pkg/resolve"
)

// SearchOptions controls what Match looks at.
type SearchOptions struct {
	// Descriptions extends matching into description text.
	Descriptions bool
}

// Pattern compiles s into a regular expression that matches it in any case.
// Every letter becomes a character class of its upper and lower case form;
// other characters match literally.
func Pattern(s string) *regexp.Regexp {
	var b strings.Builder
	for _, r := range s {
		up, lo := unicode.ToUpper(r), unicode.ToLower(r)
		if up == lo {
			b.WriteString(regexp.QuoteMeta(string(r)))
			continue
		}
		b.WriteByte('[')
		b.WriteRune(up)
		b.WriteRune(lo)
		b.WriteByte(']')
	}
	return regexp.MustCompile(b.String())
}

// Match reports whether re matches p or anything inside it: the peripheral
// name and group, register names, field names and enumerated value names.
// With opts.Descriptions the description of each of these is searched too.
func Match(re *regexp.Regexp, p *resolve.Peripheral, opts SearchOptions) bool {
	if re.MatchString(p.Name) || re.MatchString(p.GroupName) {
		return true
	}
	if opts.Descriptions && re.MatchString(p.Description) {
		return true
	}
	for _, r := range p.Registers {
		if matchRegister(re, r, opts) {
			return true
		}
	}
	return false
}

func matchRegister(re *regexp.Regexp, r *resolve.Register, opts SearchOptions) bool {
	if re.MatchString(r.QualifiedName()) {
		return true
	}
	if opts.Descriptions && re.MatchString(r.Description) {
		return true
	}
	for _, f := range r.Fields {
		if matchField(re, f, opts) {
			return true
		}
	}
	return false
}

func matchField(re *regexp.Regexp, f *resolve.Field, opts SearchOptions) bool {
	if re.MatchString(f.Name) {
		return true
	}
	for _, set := range fieldSets(f) {
		for _, v := range set.Values {
			if re.MatchString(v.Name) {
				return true
			}
			if opts.Descriptions && re.MatchString(v.Description) {
				return true
			}
		}
	}
	return opts.Descriptions && re.MatchString(f.Description)
}

// fieldSets returns the distinct enumerated value sets of f, read set first.
func fieldSets(f *resolve.Field) []*resolve.EnumSet {
	var sets []*resolve.EnumSet
	if f.ReadValues != nil {
		sets = append(sets, f.ReadValues)
	}
	if f.WriteValues != nil && f.WriteValues != f.ReadValues {
		sets = append(sets, f.WriteValues)
	}
	return sets
}
