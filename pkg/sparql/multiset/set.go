package multiset

import (
	"sort"
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// Set is one solution: a mapping from variable names to terms. A variable
// may be present but explicitly unbound, which is recorded as a nil term.
type Set struct {
	ID     int
	values map[string]rdf.Term
}

// NewSet creates an empty solution
func NewSet() *Set {
	return &Set{values: make(map[string]rdf.Term)}
}

// Get returns the term bound to name; ok is false when name is unbound
func (s *Set) Get(name string) (rdf.Term, bool) {
	v, ok := s.values[name]
	return v, ok && v != nil
}

// Add binds name to value. A nil value records name as explicitly unbound.
func (s *Set) Add(name string, value rdf.Term) {
	s.values[name] = value
}

// Remove forgets name entirely
func (s *Set) Remove(name string) {
	delete(s.values, name)
}

// Contains reports whether name is bound
func (s *Set) Contains(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Variables returns the bound variable names in sorted order
func (s *Set) Variables() []string {
	names := make([]string, 0, len(s.values))
	for name, v := range s.values {
		if v != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound variables
func (s *Set) Len() int {
	n := 0
	for _, v := range s.values {
		if v != nil {
			n++
		}
	}
	return n
}

// Copy returns an independent copy with the same ID
func (s *Set) Copy() *Set {
	c := &Set{ID: s.ID, values: make(map[string]rdf.Term, len(s.values))}
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// Compatible reports whether every variable bound in both sets is bound
// to the same term
func (s *Set) Compatible(other *Set) bool {
	small, large := s, other
	if len(large.values) < len(small.values) {
		small, large = large, small
	}
	for name, v := range small.values {
		if v == nil {
			continue
		}
		if ov, ok := large.Get(name); ok && !ov.Equals(v) {
			return false
		}
	}
	return true
}

// sharesBinding reports whether some variable is bound in both sets
func (s *Set) sharesBinding(other *Set) bool {
	for name, v := range s.values {
		if v == nil {
			continue
		}
		if other.Contains(name) {
			return true
		}
	}
	return false
}

// Join returns a new set holding the bindings of both sets. The sets are
// assumed compatible.
func (s *Set) Join(other *Set) *Set {
	joined := s.Copy()
	for name, v := range other.values {
		if v == nil {
			if _, ok := joined.values[name]; !ok {
				joined.values[name] = nil
			}
			continue
		}
		joined.values[name] = v
	}
	return joined
}

// Key returns a canonical string of the bound values, equal for two sets
// exactly when they bind the same variables to equal terms
func (s *Set) Key() string {
	var b strings.Builder
	for _, name := range s.Variables() {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(s.values[name].Key())
		b.WriteByte(0)
	}
	return b.String()
}

// keyFor returns the key of the given variables, and false if any of them
// is unbound
func (s *Set) keyFor(names []string) (string, bool) {
	var b strings.Builder
	for _, name := range names {
		v, ok := s.Get(name)
		if !ok {
			return "", false
		}
		b.WriteString(v.Key())
		b.WriteByte(0)
	}
	return b.String(), true
}

func (s *Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range s.Variables() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?" + name + " = " + s.values[name].String())
	}
	b.WriteByte('}')
	return b.String()
}
