package store

import (
	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// Dataset is the data an evaluation runs against: one default graph and
// any number of named graphs
type Dataset interface {
	DefaultGraph() TripleSource
	NamedGraph(name rdf.Term) (TripleSource, bool)

	// GraphNames lists the named graphs, excluding the default graph
	GraphNames() []rdf.Term
}

// MemoryDataset is a Dataset over a GraphCollection. In union mode the
// default graph is the union of the stored default graph and every named
// graph.
type MemoryDataset struct {
	graphs       GraphCollection
	unionDefault bool
}

// NewMemoryDataset creates a dataset over graphs
func NewMemoryDataset(graphs GraphCollection, unionDefault bool) *MemoryDataset {
	return &MemoryDataset{graphs: graphs, unionDefault: unionDefault}
}

// NewDatasetFromSource creates a dataset whose default graph is src and
// which has no named graphs
func NewDatasetFromSource(src TripleSource) Dataset {
	return sourceDataset{src: src}
}

// Graphs returns the underlying graph collection
func (d *MemoryDataset) Graphs() GraphCollection {
	return d.graphs
}

func (d *MemoryDataset) DefaultGraph() TripleSource {
	var sources []TripleSource
	if g, err := d.graphs.Get(nil); err == nil {
		sources = append(sources, g)
	}
	if d.unionDefault {
		for _, name := range d.GraphNames() {
			if src, ok := d.NamedGraph(name); ok {
				sources = append(sources, src)
			}
		}
	}
	if len(sources) == 1 {
		return sources[0]
	}
	return NewUnionView(sources...)
}

func (d *MemoryDataset) NamedGraph(name rdf.Term) (TripleSource, bool) {
	if name == nil || name.Type() == rdf.TermTypeDefaultGraph {
		return nil, false
	}
	g, err := d.graphs.Get(name)
	if err != nil {
		return nil, false
	}
	return g, true
}

func (d *MemoryDataset) GraphNames() []rdf.Term {
	var names []rdf.Term
	for _, name := range d.graphs.Names() {
		if name.Type() != rdf.TermTypeDefaultGraph {
			names = append(names, name)
		}
	}
	return names
}

// Quads enumerates every triple of every stored graph with its graph name
func (d *MemoryDataset) Quads() []*rdf.Quad {
	var quads []*rdf.Quad
	for _, name := range d.graphs.Names() {
		g, err := d.graphs.Get(name)
		if err != nil {
			continue
		}
		for _, t := range g.Triples() {
			quads = append(quads, rdf.NewQuad(t.Subject, t.Predicate, t.Object, g.Name()))
		}
	}
	return quads
}

type sourceDataset struct {
	src TripleSource
}

func (d sourceDataset) DefaultGraph() TripleSource               { return d.src }
func (d sourceDataset) NamedGraph(rdf.Term) (TripleSource, bool) { return nil, false }
func (d sourceDataset) GraphNames() []rdf.Term                   { return nil }
