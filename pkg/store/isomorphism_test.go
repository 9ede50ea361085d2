package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

func blank(id string) *rdf.BlankNode { return rdf.NewBlankNode(id) }

func graphOf(triples ...*rdf.Triple) *Graph {
	g := NewMemoryGraph(nil)
	g.AssertAll(triples)
	return g
}

func TestIsomorphic(t *testing.T) {
	tests := []struct {
		name string
		a, b []*rdf.Triple
		want bool
	}{
		{
			name: "ground graphs",
			a:    []*rdf.Triple{rdf.NewTriple(iri("s"), iri("p"), iri("o"))},
			b:    []*rdf.Triple{rdf.NewTriple(iri("s"), iri("p"), iri("o"))},
			want: true,
		},
		{
			name: "different ground triple",
			a:    []*rdf.Triple{rdf.NewTriple(iri("s"), iri("p"), iri("o"))},
			b:    []*rdf.Triple{rdf.NewTriple(iri("s"), iri("p"), iri("x"))},
			want: false,
		},
		{
			name: "renamed blank nodes",
			a: []*rdf.Triple{
				rdf.NewTriple(blank("a"), iri("p"), blank("b")),
				rdf.NewTriple(blank("b"), iri("q"), iri("o")),
			},
			b: []*rdf.Triple{
				rdf.NewTriple(blank("x"), iri("p"), blank("y")),
				rdf.NewTriple(blank("y"), iri("q"), iri("o")),
			},
			want: true,
		},
		{
			name: "blank nodes in swapped roles",
			a: []*rdf.Triple{
				rdf.NewTriple(blank("a"), iri("p"), blank("b")),
				rdf.NewTriple(blank("b"), iri("q"), iri("o")),
			},
			b: []*rdf.Triple{
				rdf.NewTriple(blank("x"), iri("p"), blank("y")),
				rdf.NewTriple(blank("x"), iri("q"), iri("o")),
			},
			want: false,
		},
		{
			name: "one blank node against two",
			a: []*rdf.Triple{
				rdf.NewTriple(blank("a"), iri("p"), iri("o1")),
				rdf.NewTriple(blank("a"), iri("p"), iri("o2")),
			},
			b: []*rdf.Triple{
				rdf.NewTriple(blank("x"), iri("p"), iri("o1")),
				rdf.NewTriple(blank("y"), iri("p"), iri("o2")),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := graphOf(tt.a...), graphOf(tt.b...)
			assert.Equal(t, tt.want, Isomorphic(a, b))
			assert.Equal(t, tt.want, Isomorphic(b, a))
		})
	}
}

func TestGraph_EqualsAfterMerge(t *testing.T) {
	src := graphOf(
		rdf.NewTriple(blank("b0"), iri("p"), blank("b1")),
		rdf.NewTriple(blank("b1"), iri("p"), iri("o")),
	)

	copied := NewMemoryGraph(iri("copy"))
	copied.Merge(src, false)

	assert.True(t, copied.Equals(src))
	assert.False(t, copied.Contains(rdf.NewTriple(blank("b1"), iri("p"), iri("o"))))
}
