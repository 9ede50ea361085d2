package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

func TestNotifier_BatchCoalesces(t *testing.T) {
	n := NewNotifier(mergeChangeEvents)
	var events []ChangeEvent
	n.Subscribe(func(e ChangeEvent) { events = append(events, e) })

	t1 := rdf.NewTriple(iri("a"), iri("p"), iri("b"))
	t2 := rdf.NewTriple(iri("b"), iri("p"), iri("c"))

	n.BeginBatch()
	n.BeginBatch()
	n.Emit(ChangeEvent{Added: []*rdf.Triple{t1}})
	n.EndBatch()
	assert.Empty(t, events, "inner EndBatch must not deliver")
	n.Emit(ChangeEvent{Removed: []*rdf.Triple{t2}})
	n.EndBatch()

	require.Len(t, events, 1)
	assert.Len(t, events[0].Added, 1)
	assert.Len(t, events[0].Removed, 1)

	// An empty batch delivers nothing
	n.BeginBatch()
	n.EndBatch()
	assert.Len(t, events, 1)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier(mergeGraphEvents)
	calls := 0
	unsubscribe := n.Subscribe(func(GraphEvent) { calls++ })

	n.Emit(GraphEvent{})
	unsubscribe()
	unsubscribe()
	n.Emit(GraphEvent{})

	assert.Equal(t, 1, calls)
}

func TestGraph_AssertRetractEvents(t *testing.T) {
	g := NewMemoryGraph(iri("g"))
	var events []ChangeEvent
	g.Subscribe(func(e ChangeEvent) { events = append(events, e) })

	tr := rdf.NewTriple(iri("s"), iri("p"), iri("o"))
	assert.True(t, g.Assert(tr))
	assert.False(t, g.Assert(tr))
	assert.True(t, g.Retract(tr))
	assert.False(t, g.Retract(tr))

	require.Len(t, events, 2)
	assert.Len(t, events[0].Added, 1)
	assert.True(t, events[0].Graph.Equals(iri("g")))
	assert.Len(t, events[1].Removed, 1)
}

func TestGraph_AssertAllIsOneEvent(t *testing.T) {
	g := NewMemoryGraph(nil)
	assert.True(t, g.IsDefault())

	var events []ChangeEvent
	g.Subscribe(func(e ChangeEvent) { events = append(events, e) })

	added := g.AssertAll(sampleTriples())
	assert.Equal(t, len(sampleTriples()), added)
	require.Len(t, events, 1)
	assert.Len(t, events[0].Added, added)

	removed := g.RetractAll(sampleTriples()[:2])
	assert.Equal(t, 2, removed)
	require.Len(t, events, 2)
	assert.Len(t, events[1].Removed, 2)

	g.Clear()
	require.Len(t, events, 3)
	assert.True(t, events[2].Cleared)
	assert.True(t, g.IsEmpty())
}

func TestGraph_Interning(t *testing.T) {
	g, err := NewGraphWithOptions(iri("g"), DefaultOptions())
	require.NoError(t, err)

	g.Assert(rdf.NewTriple(iri("s"), iri("p"), iri("o1")))
	g.Assert(rdf.NewTriple(iri("s"), iri("p"), iri("o2")))

	triples := g.WithSubject(iri("s"))
	require.Len(t, triples, 2)
	assert.Same(t, triples[0].Predicate, triples[1].Predicate)
}

func TestGraph_MergeRelabelsBlankNodes(t *testing.T) {
	g := NewMemoryGraph(nil)
	g.Assert(rdf.NewTriple(rdf.NewBlankNode("b0"), iri("p"), iri("mine")))

	other := NewMemoryGraph(nil)
	other.Assert(rdf.NewTriple(rdf.NewBlankNode("b0"), iri("p"), iri("theirs")))
	other.Assert(rdf.NewTriple(rdf.NewBlankNode("b0"), iri("q"), iri("theirs")))

	assert.Equal(t, 2, g.Merge(other, false))
	assert.Equal(t, 3, g.Count())

	// Both merged triples share one fresh blank node distinct from b0
	theirs := g.WithObject(iri("theirs"))
	require.Len(t, theirs, 2)
	assert.True(t, theirs[0].Subject.Equals(theirs[1].Subject))
	assert.False(t, theirs[0].Subject.Equals(rdf.NewBlankNode("b0")))

	kept := NewMemoryGraph(nil)
	kept.Merge(other, true)
	assert.Len(t, kept.WithSubject(rdf.NewBlankNode("b0")), 2)
}

func TestGraphCollection_MergesOnSameName(t *testing.T) {
	gc := NewGraphCollection(nil)
	var events []GraphEvent
	gc.Subscribe(func(e GraphEvent) { events = append(events, e) })

	first := NewMemoryGraph(iri("g"))
	first.Assert(rdf.NewTriple(iri("s"), iri("p"), iri("a")))
	second := NewMemoryGraph(iri("g"))
	second.Assert(rdf.NewTriple(iri("s"), iri("p"), iri("b")))

	assert.False(t, gc.Add(first))
	assert.True(t, gc.Add(second))
	assert.Equal(t, 1, gc.Count())

	g, err := gc.Get(iri("g"))
	require.NoError(t, err)
	assert.Same(t, first, g)
	assert.Equal(t, 2, g.Count())

	require.Len(t, events, 2)
	assert.Len(t, events[0].Added, 1)
	assert.Len(t, events[1].Merged, 1)
}

func TestGraphCollection_GetMissing(t *testing.T) {
	gc := NewGraphCollection(nil)

	_, err := gc.Get(iri("missing"))
	assert.True(t, errors.Is(err, ErrGraphNotFound))
	assert.False(t, gc.Remove(iri("missing")))
	assert.False(t, gc.Contains(nil))
}

func TestGraphCollection_DefaultGraphName(t *testing.T) {
	gc := SynchronizedGraphs(NewGraphCollection(nil), LockReadWrite)
	gc.Add(NewMemoryGraph(nil))

	assert.True(t, gc.Contains(nil))
	assert.True(t, gc.Contains(rdf.NewDefaultGraph()))

	g, err := gc.Get(rdf.NewDefaultGraph())
	require.NoError(t, err)
	assert.True(t, g.IsDefault())

	assert.True(t, gc.Remove(nil))
	assert.Equal(t, 0, gc.Count())
}

func newTestDataset(t *testing.T, union bool) *MemoryDataset {
	t.Helper()
	gc := NewGraphCollection(nil)

	def := NewMemoryGraph(nil)
	def.Assert(rdf.NewTriple(iri("s"), iri("p"), iri("default")))
	gc.Add(def)

	named := NewMemoryGraph(iri("g1"))
	named.Assert(rdf.NewTriple(iri("s"), iri("p"), iri("g1")))
	gc.Add(named)

	return NewMemoryDataset(gc, union)
}

func TestMemoryDataset(t *testing.T) {
	ds := newTestDataset(t, false)

	assert.Equal(t, 1, ds.DefaultGraph().Count())
	require.Len(t, ds.GraphNames(), 1)
	assert.True(t, ds.GraphNames()[0].Equals(iri("g1")))

	g, ok := ds.NamedGraph(iri("g1"))
	require.True(t, ok)
	assert.Equal(t, 1, g.Count())

	_, ok = ds.NamedGraph(iri("nope"))
	assert.False(t, ok)
	_, ok = ds.NamedGraph(rdf.NewDefaultGraph())
	assert.False(t, ok)

	quads := ds.Quads()
	assert.Len(t, quads, 2)
}

func TestMemoryDataset_UnionDefaultGraph(t *testing.T) {
	ds := newTestDataset(t, true)

	def := ds.DefaultGraph()
	assert.Equal(t, 2, def.Count())
	assert.Len(t, def.WithSubject(iri("s")), 2)
}

func TestDatasetFromSource(t *testing.T) {
	c := NewTrieCollection()
	c.Add(rdf.NewTriple(iri("s"), iri("p"), iri("o")))

	ds := NewDatasetFromSource(c)
	assert.Equal(t, 1, ds.DefaultGraph().Count())
	assert.Empty(t, ds.GraphNames())
}
