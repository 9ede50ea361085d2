// Package store holds the in-memory triple collections, graphs, graph
// collections and datasets that SPARQL evaluation reads from.
package store

import (
	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// TripleSource is the read side of a triple collection. Every method
// returns a freshly materialized slice which the caller owns.
type TripleSource interface {
	// Contains reports whether the exact triple is stored
	Contains(t *rdf.Triple) bool

	// Count returns the number of distinct triples
	Count() int

	// Triples enumerates every stored triple
	Triples() []*rdf.Triple

	WithSubject(s rdf.Term) []*rdf.Triple
	WithPredicate(p rdf.Term) []*rdf.Triple
	WithObject(o rdf.Term) []*rdf.Triple
	WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple
	WithSubjectObject(s, o rdf.Term) []*rdf.Triple
	WithPredicateObject(p, o rdf.Term) []*rdf.Triple

	// SubjectNodes, PredicateNodes and ObjectNodes list the distinct nodes
	// currently used in the given position
	SubjectNodes() []rdf.Term
	PredicateNodes() []rdf.Term
	ObjectNodes() []rdf.Term
}

// TripleCollection is a set of triples. Adding a triple that is already
// present is a no-op.
type TripleCollection interface {
	TripleSource

	// Add stores t and reports whether it was not present before
	Add(t *rdf.Triple) bool

	// Remove deletes t and reports whether it was present
	Remove(t *rdf.Triple) bool

	// Clear removes every triple
	Clear()

	// Close releases resources held by the collection
	Close() error
}

// storable reports whether t may be stored: all three positions must be
// concrete terms.
func storable(t *rdf.Triple) bool {
	return t != nil && t.IsGround()
}

func filterTriples(triples []*rdf.Triple, keep func(*rdf.Triple) bool) []*rdf.Triple {
	var result []*rdf.Triple
	for _, t := range triples {
		if keep(t) {
			result = append(result, t)
		}
	}
	return result
}

// distinctNodes collects the distinct terms at one position of triples,
// preserving first-seen order.
func distinctNodes(triples []*rdf.Triple, pick func(*rdf.Triple) rdf.Term) []rdf.Term {
	seen := make(map[string]struct{})
	var nodes []rdf.Term
	for _, t := range triples {
		n := pick(t)
		key := n.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		nodes = append(nodes, n)
	}
	return nodes
}

func subjectOf(t *rdf.Triple) rdf.Term   { return t.Subject }
func predicateOf(t *rdf.Triple) rdf.Term { return t.Predicate }
func objectOf(t *rdf.Triple) rdf.Term    { return t.Object }
