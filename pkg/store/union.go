package store

import (
	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// UnionCollection presents a base collection and any number of read-only
// overlays as one collection. Mutations go to the base. Reads concatenate
// the sources without removing duplicates across them, so Count is the
// sum of the source counts; node enumeration is distinct.
//
// A union without a base is a read-only view and ignores mutations.
type UnionCollection struct {
	base     TripleCollection
	overlays []TripleSource
}

// NewUnionCollection creates a union routing mutations to base
func NewUnionCollection(base TripleCollection, overlays ...TripleSource) *UnionCollection {
	return &UnionCollection{base: base, overlays: overlays}
}

// NewUnionView creates a read-only union of sources
func NewUnionView(sources ...TripleSource) *UnionCollection {
	return &UnionCollection{overlays: sources}
}

func (u *UnionCollection) sources() []TripleSource {
	if u.base == nil {
		return u.overlays
	}
	return append([]TripleSource{u.base}, u.overlays...)
}

func (u *UnionCollection) Add(t *rdf.Triple) bool {
	if u.base == nil {
		return false
	}
	return u.base.Add(t)
}

func (u *UnionCollection) Remove(t *rdf.Triple) bool {
	if u.base == nil {
		return false
	}
	return u.base.Remove(t)
}

// Clear clears the base only
func (u *UnionCollection) Clear() {
	if u.base != nil {
		u.base.Clear()
	}
}

// Close closes the base only; overlays are owned elsewhere
func (u *UnionCollection) Close() error {
	if u.base == nil {
		return nil
	}
	return u.base.Close()
}

func (u *UnionCollection) Contains(t *rdf.Triple) bool {
	for _, src := range u.sources() {
		if src.Contains(t) {
			return true
		}
	}
	return false
}

func (u *UnionCollection) Count() int {
	total := 0
	for _, src := range u.sources() {
		total += src.Count()
	}
	return total
}

func (u *UnionCollection) concat(get func(TripleSource) []*rdf.Triple) []*rdf.Triple {
	var result []*rdf.Triple
	for _, src := range u.sources() {
		result = append(result, get(src)...)
	}
	return result
}

func (u *UnionCollection) Triples() []*rdf.Triple {
	return u.concat(func(src TripleSource) []*rdf.Triple { return src.Triples() })
}

func (u *UnionCollection) WithSubject(s rdf.Term) []*rdf.Triple {
	return u.concat(func(src TripleSource) []*rdf.Triple { return src.WithSubject(s) })
}

func (u *UnionCollection) WithPredicate(p rdf.Term) []*rdf.Triple {
	return u.concat(func(src TripleSource) []*rdf.Triple { return src.WithPredicate(p) })
}

func (u *UnionCollection) WithObject(o rdf.Term) []*rdf.Triple {
	return u.concat(func(src TripleSource) []*rdf.Triple { return src.WithObject(o) })
}

func (u *UnionCollection) WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple {
	return u.concat(func(src TripleSource) []*rdf.Triple { return src.WithSubjectPredicate(s, p) })
}

func (u *UnionCollection) WithSubjectObject(s, o rdf.Term) []*rdf.Triple {
	return u.concat(func(src TripleSource) []*rdf.Triple { return src.WithSubjectObject(s, o) })
}

func (u *UnionCollection) WithPredicateObject(p, o rdf.Term) []*rdf.Triple {
	return u.concat(func(src TripleSource) []*rdf.Triple { return src.WithPredicateObject(p, o) })
}

func (u *UnionCollection) nodes(get func(TripleSource) []rdf.Term) []rdf.Term {
	seen := make(map[string]struct{})
	var result []rdf.Term
	for _, src := range u.sources() {
		for _, n := range get(src) {
			key := n.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, n)
		}
	}
	return result
}

func (u *UnionCollection) SubjectNodes() []rdf.Term {
	return u.nodes(func(src TripleSource) []rdf.Term { return src.SubjectNodes() })
}

func (u *UnionCollection) PredicateNodes() []rdf.Term {
	return u.nodes(func(src TripleSource) []rdf.Term { return src.PredicateNodes() })
}

func (u *UnionCollection) ObjectNodes() []rdf.Term {
	return u.nodes(func(src TripleSource) []rdf.Term { return src.ObjectNodes() })
}
