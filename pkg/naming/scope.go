package naming

import "strconv"

// Collision records a description name whose identifier was already taken
// and had to be suffixed.
type Collision struct {
	Scope     string
	Original  string
	Sanitized string
	Assigned  string
}

// Scope assigns unique identifiers within one namespace. It is not safe for
// concurrent use.
type Scope struct {
	name       string
	c          Case
	assigned   map[string]string
	taken      map[string]bool
	collisions []Collision
}

// NewScope returns an empty scope whose identifiers use case c.
func NewScope(name string, c Case) *Scope {
	return &Scope{
		name:     name,
		c:        c,
		assigned: make(map[string]string),
		taken:    make(map[string]bool),
	}
}

// Reserve marks identifiers as unavailable.
func (s *Scope) Reserve(idents ...string) {
	for _, id := range idents {
		s.taken[id] = true
	}
}

// Name returns the identifier for a description name. Asking twice for the
// same name returns the same identifier.
func (s *Scope) Name(desc string) string {
	return s.Claim(desc, desc, nil)
}

// Claim assigns an identifier to desc under key. forms, when set, lists the
// further identifiers derived from a candidate; a candidate is accepted only
// when it and all its forms are free, and then they are all taken.
func (s *Scope) Claim(key, desc string, forms func(base string) []string) string {
	if id, ok := s.assigned[key]; ok {
		return id
	}
	base := s.c.Apply(desc)
	candidate := base
	for n := 2; ; n++ {
		names := []string{candidate}
		if forms != nil {
			names = append(names, forms(candidate)...)
		}
		if s.free(names) {
			for _, id := range names {
				s.taken[id] = true
			}
			break
		}
		candidate = base + "_" + strconv.Itoa(n)
	}
	s.assigned[key] = candidate
	if candidate != base {
		s.collisions = append(s.collisions, Collision{
			Scope:     s.name,
			Original:  desc,
			Sanitized: base,
			Assigned:  candidate,
		})
	}
	return candidate
}

func (s *Scope) free(names []string) bool {
	for _, id := range names {
		if s.taken[id] {
			return false
		}
	}
	return true
}

// Collisions returns the collisions recorded so far, in the order they
// happened.
func (s *Scope) Collisions() []Collision {
	return append([]Collision(nil), s.collisions...)
}
