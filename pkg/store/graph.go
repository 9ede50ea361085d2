package store

import (
	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// Graph is a named set of triples with change notification. Assert and
// Retract emit ChangeEvents; reads delegate to the underlying collection.
type Graph struct {
	name     rdf.Term
	triples  TripleCollection
	interner *rdf.Interner
	events   *Notifier[ChangeEvent]
}

// GraphOption configures a Graph
type GraphOption func(*Graph)

// WithInterner makes the graph intern the IRIs of asserted triples
func WithInterner(in *rdf.Interner) GraphOption {
	return func(g *Graph) {
		g.interner = in
	}
}

// NewGraph creates a graph over triples. A nil name denotes the default
// graph.
func NewGraph(name rdf.Term, triples TripleCollection, opts ...GraphOption) *Graph {
	g := &Graph{
		name:    graphName(name),
		triples: triples,
		events:  NewNotifier(mergeChangeEvents),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewMemoryGraph creates a graph over a hash-indexed collection
func NewMemoryGraph(name rdf.Term) *Graph {
	return NewGraph(name, NewIndexedCollection(true))
}

func graphName(name rdf.Term) rdf.Term {
	if name == nil {
		return rdf.NewDefaultGraph()
	}
	return name
}

// Name returns the graph name
func (g *Graph) Name() rdf.Term {
	return g.name
}

// IsDefault reports whether this is the default graph
func (g *Graph) IsDefault() bool {
	return g.name.Type() == rdf.TermTypeDefaultGraph
}

// Collection exposes the underlying collection. Mutating it directly
// bypasses change events.
func (g *Graph) Collection() TripleCollection {
	return g.triples
}

// Subscribe registers fn for change events
func (g *Graph) Subscribe(fn func(ChangeEvent)) func() {
	return g.events.Subscribe(fn)
}

// BeginBatch starts coalescing change events
func (g *Graph) BeginBatch() {
	g.events.BeginBatch()
}

// EndBatch emits one event for everything changed since BeginBatch
func (g *Graph) EndBatch() {
	g.events.EndBatch()
}

// Assert adds t and reports whether it was new
func (g *Graph) Assert(t *rdf.Triple) bool {
	if g.interner != nil && t != nil && t.IsGround() {
		t = g.interner.Triple(t)
	}
	if !g.triples.Add(t) {
		return false
	}
	g.events.Emit(ChangeEvent{Graph: g.name, Added: []*rdf.Triple{t}})
	return true
}

// AssertAll adds every triple as one batch and returns how many were new
func (g *Graph) AssertAll(triples []*rdf.Triple) int {
	g.BeginBatch()
	defer g.EndBatch()

	added := 0
	for _, t := range triples {
		if g.Assert(t) {
			added++
		}
	}
	return added
}

// Retract removes t and reports whether it was present
func (g *Graph) Retract(t *rdf.Triple) bool {
	if !g.triples.Remove(t) {
		return false
	}
	g.events.Emit(ChangeEvent{Graph: g.name, Removed: []*rdf.Triple{t}})
	return true
}

// RetractAll removes every triple as one batch and returns how many were
// present
func (g *Graph) RetractAll(triples []*rdf.Triple) int {
	g.BeginBatch()
	defer g.EndBatch()

	removed := 0
	for _, t := range triples {
		if g.Retract(t) {
			removed++
		}
	}
	return removed
}

// Clear removes every triple
func (g *Graph) Clear() {
	if g.triples.Count() == 0 {
		return
	}
	g.triples.Clear()
	g.events.Emit(ChangeEvent{Graph: g.name, Cleared: true})
}

// Merge asserts the triples of other into g. Unless keepBlankIDs is set,
// blank nodes of other are renamed to fresh identifiers so they cannot
// collide with blank nodes already in g; the renaming is consistent
// within one merge.
func (g *Graph) Merge(other TripleSource, keepBlankIDs bool) int {
	triples := other.Triples()
	if !keepBlankIDs {
		mapping := make(map[string]*rdf.BlankNode)
		relabel := func(term rdf.Term) rdf.Term {
			b, ok := term.(*rdf.BlankNode)
			if !ok {
				return term
			}
			fresh, ok := mapping[b.ID]
			if !ok {
				fresh = rdf.NewUniqueBlankNode()
				mapping[b.ID] = fresh
			}
			return fresh
		}
		for i, t := range triples {
			triples[i] = rdf.NewTriple(relabel(t.Subject), relabel(t.Predicate), relabel(t.Object))
		}
	}
	return g.AssertAll(triples)
}

// Equals reports whether g and other hold the same triples up to blank
// node renaming
func (g *Graph) Equals(other TripleSource) bool {
	return Isomorphic(g, other)
}

func (g *Graph) Contains(t *rdf.Triple) bool { return g.triples.Contains(t) }
func (g *Graph) Count() int                  { return g.triples.Count() }
func (g *Graph) IsEmpty() bool               { return g.triples.Count() == 0 }
func (g *Graph) Triples() []*rdf.Triple      { return g.triples.Triples() }

func (g *Graph) WithSubject(s rdf.Term) []*rdf.Triple   { return g.triples.WithSubject(s) }
func (g *Graph) WithPredicate(p rdf.Term) []*rdf.Triple { return g.triples.WithPredicate(p) }
func (g *Graph) WithObject(o rdf.Term) []*rdf.Triple    { return g.triples.WithObject(o) }

func (g *Graph) WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple {
	return g.triples.WithSubjectPredicate(s, p)
}

func (g *Graph) WithSubjectObject(s, o rdf.Term) []*rdf.Triple {
	return g.triples.WithSubjectObject(s, o)
}

func (g *Graph) WithPredicateObject(p, o rdf.Term) []*rdf.Triple {
	return g.triples.WithPredicateObject(p, o)
}

func (g *Graph) SubjectNodes() []rdf.Term   { return g.triples.SubjectNodes() }
func (g *Graph) PredicateNodes() []rdf.Term { return g.triples.PredicateNodes() }
func (g *Graph) ObjectNodes() []rdf.Term    { return g.triples.ObjectNodes() }
