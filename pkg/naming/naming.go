// Package naming turns description names into Go identifiers.
//
// Shape makes any string a valid identifier, Case applies a capitalisation
// convention, and Scope hands out unique identifiers within one namespace,
// suffixing repeats with _2, _3 in first-seen order.
package naming

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Case is an identifier capitalisation convention.
type Case uint8

const (
	Pascal Case = iota
	Camel
	Snake
	UpperSnake
	Preserve
)

var caseNames = map[Case]string{
	Pascal:     "pascal",
	Camel:      "camel",
	Snake:      "snake",
	UpperSnake: "upper_snake",
	Preserve:   "preserve",
}

// String returns the configuration spelling of c.
func (c Case) String() string {
	if s, ok := caseNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Case(%d)", uint8(c))
}

// ParseCase parses the configuration spelling of a case.
func ParseCase(s string) (Case, error) {
	for c, name := range caseNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown naming case %q", s)
}

// Convention selects the case for each kind of generated identifier.
type Convention struct {
	Type   Case
	Member Case
	Const  Case
}

// DefaultConvention exports everything in Pascal case.
var DefaultConvention = Convention{Type: Pascal, Member: Pascal, Const: Pascal}

// Shape returns s as a valid identifier without changing its case. Array
// placeholders are dropped and punctuation becomes a word break.
func Shape(s string) string {
	s = strings.ReplaceAll(s, "[%s]", "")
	s = strings.ReplaceAll(s, "%s", "")

	var b strings.Builder
	gap := false
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if startsWithDigit(out) {
		return "_" + out
	}
	return out
}

// Words splits s into words at underscores, punctuation and case changes.
// Digits stay with the word before them, so "CH0" is one word.
func Words(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(Shape(s))
	for i, r := range rs {
		if r == '_' {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || (nextLower && (unicode.IsUpper(prev) || unicode.IsDigit(prev))) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Apply converts s to case c. The result is always a valid identifier.
func (c Case) Apply(s string) string {
	if c == Preserve {
		return Shape(s)
	}
	words := Words(s)
	var out string
	switch c {
	case Pascal:
		out = joinTitle(words, false)
	case Camel:
		out = joinTitle(words, true)
	case Snake:
		out = strings.ToLower(strings.Join(words, "_"))
	case UpperSnake:
		out = strings.ToUpper(strings.Join(words, "_"))
	}
	if out == "" {
		return "_"
	}
	if startsWithDigit(out) {
		return "_" + out
	}
	return out
}

// Concat builds one identifier from identifiers already in case c. Parts
// are not re-split, so distinct inputs stay distinct.
func (c Case) Concat(parts ...string) string {
	switch c {
	case Snake:
		return strings.ToLower(strings.Join(parts, "_"))
	case UpperSnake:
		return strings.ToUpper(strings.Join(parts, "_"))
	}
	var b strings.Builder
	for i, p := range parts {
		if i == 0 || p == "" {
			b.WriteString(p)
			continue
		}
		rs := []rune(p)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	return b.String()
}

func joinTitle(words []string, lowerFirst bool) string {
	var b strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i == 0 && lowerFirst {
			b.WriteString(w)
			continue
		}
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	return b.String()
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}
