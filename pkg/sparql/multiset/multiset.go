// Package multiset implements SPARQL solution sequences.
//
// A Multiset is an ordered bag of Sets plus the variables known to it.
// Two sentinel kinds exist: Identity holds exactly one empty solution and
// joins as a neutral element, Null holds no solutions and annihilates
// joins.
package multiset

import (
	"sort"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// Kind distinguishes the sentinel multisets
type Kind int

const (
	KindNormal Kind = iota
	KindIdentity
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindNull:
		return "null"
	default:
		return "normal"
	}
}

// Multiset is an ordered bag of solutions
type Multiset struct {
	kind   Kind
	vars   []string
	known  map[string]struct{}
	sets   []*Set
	nextID int
}

// New creates an empty normal multiset over vars
func New(vars ...string) *Multiset {
	m := &Multiset{known: make(map[string]struct{})}
	for _, v := range vars {
		m.AddVariable(v)
	}
	return m
}

// Identity returns a multiset holding one empty solution
func Identity() *Multiset {
	m := New()
	m.kind = KindIdentity
	m.sets = []*Set{NewSet()}
	m.nextID = 1
	return m
}

// Null returns a multiset holding no solutions
func Null(vars ...string) *Multiset {
	m := New(vars...)
	m.kind = KindNull
	return m
}

func (m *Multiset) Kind() Kind {
	return m.kind
}

func (m *Multiset) IsIdentity() bool {
	return m.kind == KindIdentity
}

func (m *Multiset) IsNull() bool {
	return m.kind == KindNull
}

// IsEmpty reports whether the multiset has no solutions
func (m *Multiset) IsEmpty() bool {
	return len(m.sets) == 0
}

// Count returns the number of solutions
func (m *Multiset) Count() int {
	return len(m.sets)
}

// Sets returns the solutions in order. The slice must not be modified.
func (m *Multiset) Sets() []*Set {
	return m.sets
}

// Add appends s, assigning it a fresh ID. Adding to a sentinel turns it
// into a normal multiset holding its current solutions plus s.
func (m *Multiset) Add(s *Set) {
	m.kind = KindNormal
	s.ID = m.nextID
	m.nextID++
	for name := range s.values {
		m.AddVariable(name)
	}
	m.sets = append(m.sets, s)
}

// AddVariable records name as known to the multiset
func (m *Multiset) AddVariable(name string) {
	if _, ok := m.known[name]; ok {
		return
	}
	m.known[name] = struct{}{}
	m.vars = append(m.vars, name)
}

// Variables returns the known variables in the order they were first seen
func (m *Multiset) Variables() []string {
	return append([]string(nil), m.vars...)
}

// ContainsVariable reports whether name is known to the multiset
func (m *Multiset) ContainsVariable(name string) bool {
	_, ok := m.known[name]
	return ok
}

// BindsEverywhere reports whether every solution binds name. It is false
// for an empty multiset.
func (m *Multiset) BindsEverywhere(name string) bool {
	if len(m.sets) == 0 {
		return false
	}
	for _, s := range m.sets {
		if !s.Contains(name) {
			return false
		}
	}
	return true
}

// Values returns the distinct terms bound to name, in first-seen order
func (m *Multiset) Values(name string) []rdf.Term {
	seen := make(map[string]struct{})
	var values []rdf.Term
	for _, s := range m.sets {
		v, ok := s.Get(name)
		if !ok {
			continue
		}
		key := v.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		values = append(values, v)
	}
	return values
}

// Clone returns a deep copy
func (m *Multiset) Clone() *Multiset {
	c := New(m.vars...)
	c.kind = m.kind
	c.nextID = m.nextID
	c.sets = make([]*Set, len(m.sets))
	for i, s := range m.sets {
		c.sets[i] = s.Copy()
	}
	return c
}

// derive creates an empty normal multiset knowing the variables of the
// given multisets
func derive(sources ...*Multiset) *Multiset {
	result := New()
	for _, src := range sources {
		for _, v := range src.vars {
			result.AddVariable(v)
		}
	}
	return result
}

// settle turns an empty normal result into Null
func (m *Multiset) settle() *Multiset {
	if m.kind == KindNormal && len(m.sets) == 0 {
		m.kind = KindNull
	}
	return m
}

func (m *Multiset) commonVariables(other *Multiset) []string {
	var common []string
	for _, v := range m.vars {
		if other.ContainsVariable(v) {
			common = append(common, v)
		}
	}
	return common
}

// Join returns the compatible combinations of the solutions of m and
// other. Solutions binding every shared variable are matched through a
// hash table; the rest are compared pairwise.
func (m *Multiset) Join(other *Multiset) *Multiset {
	switch {
	case m.IsNull() || other.IsNull():
		return Null(derive(m, other).vars...)
	case m.IsIdentity():
		return other.Clone()
	case other.IsIdentity():
		return m.Clone()
	}

	common := m.commonVariables(other)
	if len(common) == 0 {
		return m.Product(other)
	}

	hashed := make(map[string][]*Set)
	var loose []*Set
	for _, s := range other.sets {
		if key, ok := s.keyFor(common); ok {
			hashed[key] = append(hashed[key], s)
		} else {
			loose = append(loose, s)
		}
	}

	result := derive(m, other)
	for _, x := range m.sets {
		candidates := other.sets
		if key, ok := x.keyFor(common); ok {
			candidates = append(hashed[key][:len(hashed[key]):len(hashed[key])], loose...)
		}
		for _, y := range candidates {
			if x.Compatible(y) {
				result.Add(x.Join(y))
			}
		}
	}
	return result.settle()
}

// LeftJoin keeps every solution of m, extended by each compatible
// solution of other that passes filter. A nil filter accepts everything.
func (m *Multiset) LeftJoin(other *Multiset, filter func(*Set) bool) *Multiset {
	if m.IsNull() {
		return Null(derive(m, other).vars...)
	}
	if other.IsEmpty() {
		return m.Clone()
	}

	result := derive(m, other)
	for _, x := range m.sets {
		matched := false
		for _, y := range other.sets {
			if !x.Compatible(y) {
				continue
			}
			joined := x.Join(y)
			if filter != nil && !filter(joined) {
				continue
			}
			matched = true
			result.Add(joined)
		}
		if !matched {
			result.Add(x.Copy())
		}
	}
	return result.settle()
}

// Union concatenates the solutions of m and other
func (m *Multiset) Union(other *Multiset) *Multiset {
	if m.IsNull() {
		c := other.Clone()
		for _, v := range m.vars {
			c.AddVariable(v)
		}
		return c
	}
	if other.IsNull() {
		c := m.Clone()
		for _, v := range other.vars {
			c.AddVariable(v)
		}
		return c
	}

	result := derive(m, other)
	for _, s := range m.sets {
		result.Add(s.Copy())
	}
	for _, s := range other.sets {
		result.Add(s.Copy())
	}
	return result
}

// Minus removes the solutions of m that are compatible with, and share a
// bound variable with, some solution of other
func (m *Multiset) Minus(other *Multiset) *Multiset {
	if m.IsNull() {
		return Null(m.vars...)
	}
	if other.IsEmpty() {
		return m.Clone()
	}

	result := derive(m)
	for _, x := range m.sets {
		excluded := false
		for _, y := range other.sets {
			if x.sharesBinding(y) && x.Compatible(y) {
				excluded = true
				break
			}
		}
		if !excluded {
			result.Add(x.Copy())
		}
	}
	return result.settle()
}

// ExistsJoin keeps the solutions of m for which a compatible solution of
// other exists (mustExist) or does not exist (!mustExist)
func (m *Multiset) ExistsJoin(other *Multiset, mustExist bool) *Multiset {
	if m.IsNull() {
		return Null(m.vars...)
	}

	result := derive(m)
	for _, x := range m.sets {
		exists := false
		for _, y := range other.sets {
			if x.Compatible(y) {
				exists = true
				break
			}
		}
		if exists == mustExist {
			result.Add(x.Copy())
		}
	}
	if m.IsIdentity() && result.Count() == 1 {
		return Identity()
	}
	return result.settle()
}

// Product returns every combination of the solutions of m and other
func (m *Multiset) Product(other *Multiset) *Multiset {
	switch {
	case m.IsNull() || other.IsNull():
		return Null(derive(m, other).vars...)
	case m.IsIdentity():
		return other.Clone()
	case other.IsIdentity():
		return m.Clone()
	}

	result := derive(m, other)
	for _, x := range m.sets {
		for _, y := range other.sets {
			result.Add(x.Join(y))
		}
	}
	return result.settle()
}

// Filter removes in place the solutions for which keep is false and
// returns m. An Identity whose solution is removed becomes Null.
func (m *Multiset) Filter(keep func(*Set) bool) *Multiset {
	kept := m.sets[:0]
	for _, s := range m.sets {
		if keep(s) {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(m.sets); i++ {
		m.sets[i] = nil
	}
	m.sets = kept
	if len(m.sets) == 0 {
		m.kind = KindNull
	}
	return m
}

// Distinct returns the multiset without duplicate solutions, keeping the
// first occurrence of each
func (m *Multiset) Distinct() *Multiset {
	if m.kind != KindNormal {
		return m.Clone()
	}
	result := derive(m)
	seen := make(map[string]struct{})
	for _, s := range m.sets {
		key := s.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result.Add(s.Copy())
	}
	return result
}

// Project keeps only the given variables in every solution
func (m *Multiset) Project(vars []string) *Multiset {
	if m.kind != KindNormal {
		c := m.Clone()
		c.vars, c.known = nil, make(map[string]struct{})
		for _, v := range vars {
			c.AddVariable(v)
		}
		return c
	}
	result := New(vars...)
	for _, s := range m.sets {
		projected := NewSet()
		for _, v := range vars {
			if term, ok := s.Get(v); ok {
				projected.Add(v, term)
			}
		}
		result.Add(projected)
	}
	return result
}

// Sort orders the solutions by cmp, keeping the relative order of equal
// solutions, and returns a new multiset
func (m *Multiset) Sort(cmp func(a, b *Set) int) *Multiset {
	c := m.Clone()
	sort.SliceStable(c.sets, func(i, j int) bool {
		return cmp(c.sets[i], c.sets[j]) < 0
	})
	return c
}

// Slice skips offset solutions and keeps at most limit of the rest. A
// negative limit keeps everything.
func (m *Multiset) Slice(offset, limit int) *Multiset {
	c := m.Clone()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(c.sets) {
		c.sets = nil
	} else {
		c.sets = c.sets[offset:]
	}
	if limit >= 0 && limit < len(c.sets) {
		c.sets = c.sets[:limit]
	}
	if len(c.sets) == 0 {
		c.kind = KindNull
	} else if c.kind == KindNull {
		c.kind = KindNormal
	}
	return c
}
