package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/algebra"
	"github.com/aleksaelezovic/trimem/pkg/sparql/multiset"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
	"github.com/aleksaelezovic/trimem/pkg/store"
)

func iri(local string) *rdf.NamedNode {
	return rdf.NewNamedNode("http://example.org/" + local)
}

func ex(local string) patterns.PatternItem {
	return patterns.Node(iri(local))
}

func v(name string) patterns.PatternItem {
	return patterns.Var(name)
}

func newGraph(t *testing.T, triples ...*rdf.Triple) *store.Graph {
	t.Helper()
	g := store.NewMemoryGraph(nil)
	g.AssertAll(triples)
	return g
}

func newContext(src store.TripleSource) *Context {
	return NewContext(store.NewDatasetFromSource(src))
}

// column returns the string form of name in every solution, "" when
// unbound
func column(m *multiset.Multiset, name string) []string {
	out := make([]string, 0, m.Count())
	for _, s := range m.Sets() {
		if term, ok := s.Get(name); ok {
			out = append(out, term.String())
		} else {
			out = append(out, "")
		}
	}
	return out
}

func solutions(rows ...map[string]rdf.Term) *multiset.Multiset {
	m := multiset.New()
	for _, row := range rows {
		s := multiset.NewSet()
		for k, term := range row {
			s.Add(k, term)
		}
		m.Add(s)
	}
	return m
}

// recordingSource records which lookup methods are called
type recordingSource struct {
	store.TripleSource
	calls []string
}

func (r *recordingSource) record(name string) { r.calls = append(r.calls, name) }

func (r *recordingSource) Triples() []*rdf.Triple {
	r.record("Triples")
	return r.TripleSource.Triples()
}

func (r *recordingSource) Contains(t *rdf.Triple) bool {
	r.record("Contains")
	return r.TripleSource.Contains(t)
}

func (r *recordingSource) WithSubject(s rdf.Term) []*rdf.Triple {
	r.record("WithSubject")
	return r.TripleSource.WithSubject(s)
}

func (r *recordingSource) WithPredicate(p rdf.Term) []*rdf.Triple {
	r.record("WithPredicate")
	return r.TripleSource.WithPredicate(p)
}

func (r *recordingSource) WithObject(o rdf.Term) []*rdf.Triple {
	r.record("WithObject")
	return r.TripleSource.WithObject(o)
}

func (r *recordingSource) WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple {
	r.record("WithSubjectPredicate")
	return r.TripleSource.WithSubjectPredicate(s, p)
}

func (r *recordingSource) WithSubjectObject(s, o rdf.Term) []*rdf.Triple {
	r.record("WithSubjectObject")
	return r.TripleSource.WithSubjectObject(s, o)
}

func (r *recordingSource) WithPredicateObject(p, o rdf.Term) []*rdf.Triple {
	r.record("WithPredicateObject")
	return r.TripleSource.WithPredicateObject(p, o)
}

func TestTriplePattern_ZeroVariables(t *testing.T) {
	src := &recordingSource{TripleSource: newGraph(t, rdf.NewTriple(iri("a"), iri("p"), iri("b")))}
	e := New(DefaultOptions())

	present := patterns.MustTriplePattern(ex("a"), ex("p"), ex("b"))
	got, err := e.EvaluatePattern(context.Background(), present, newContext(src))
	require.NoError(t, err)
	assert.True(t, got.IsIdentity())
	assert.Equal(t, 1, got.Count())

	absent := patterns.MustTriplePattern(ex("a"), ex("p"), ex("c"))
	got, err = e.EvaluatePattern(context.Background(), absent, newContext(src))
	require.NoError(t, err)
	assert.True(t, got.IsNull())
	assert.Zero(t, got.Count())

	// Only membership tests, never an iteration over the store
	assert.Equal(t, []string{"Contains", "Contains"}, src.calls)
}

func TestTriplePattern_RepeatedVariableSelfJoin(t *testing.T) {
	g := newGraph(t,
		rdf.NewTriple(iri("a"), iri("a"), iri("b")),
		rdf.NewTriple(iri("a"), iri("c"), iri("b")),
	)
	tp := patterns.MustTriplePattern(v("x"), v("x"), v("y"))

	got, err := New(DefaultOptions()).EvaluatePattern(context.Background(), tp, newContext(g))
	require.NoError(t, err)

	require.Equal(t, 1, got.Count())
	assert.Equal(t, []string{"<http://example.org/a>"}, column(got, "x"))
	assert.Equal(t, []string{"<http://example.org/b>"}, column(got, "y"))
}

func TestTriplePattern_StaticIndexSelection(t *testing.T) {
	g := newGraph(t,
		rdf.NewTriple(iri("s"), iri("p"), iri("o")),
		rdf.NewTriple(iri("s"), iri("q"), iri("o2")),
	)

	tests := []struct {
		name    string
		s, p, o patterns.PatternItem
		opts    []patterns.Option
		want    string
		rows    int
	}{
		{"no index", v("s"), v("p"), v("o"), nil, "Triples", 2},
		{"subject", ex("s"), v("p"), v("o"), nil, "WithSubject", 2},
		{"predicate", v("s"), ex("p"), v("o"), nil, "WithPredicate", 1},
		{"object", v("s"), v("p"), ex("o"), nil, "WithObject", 1},
		{"subject predicate", ex("s"), ex("q"), v("o"), nil, "WithSubjectPredicate", 1},
		{"subject object", ex("s"), v("p"), ex("o"), nil, "WithSubjectObject", 1},
		{"predicate object", v("s"), ex("p"), ex("o"), nil, "WithPredicateObject", 1},
		{"simple subject predicate", ex("s"), ex("q"), v("o"), []patterns.Option{patterns.WithFullIndexing(false)}, "WithSubject", 1},
		{"simple predicate object", v("s"), ex("p"), ex("o"), []patterns.Option{patterns.WithFullIndexing(false)}, "WithObject", 1},
	}

	e := New(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &recordingSource{TripleSource: g}
			tp := patterns.MustTriplePattern(tt.s, tt.p, tt.o, tt.opts...)

			got, err := e.EvaluatePattern(context.Background(), tp, newContext(src))
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, src.calls)
			assert.Equal(t, tt.rows, got.Count())
		})
	}
}

func TestTriplePattern_CompoundLookupNeedsFullIndexing(t *testing.T) {
	g := newGraph(t, rdf.NewTriple(iri("s"), iri("p"), iri("o")))
	opts := DefaultOptions()
	opts.FullIndexing = false
	e := New(opts)

	_, err := e.EvaluatePattern(context.Background(),
		patterns.MustTriplePattern(ex("s"), ex("p"), v("o")), newContext(g))
	assert.ErrorIs(t, err, ErrQuery)

	got, err := e.EvaluatePattern(context.Background(),
		patterns.MustTriplePattern(ex("s"), ex("p"), v("o"), patterns.WithFullIndexing(false)), newContext(g))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count())
}

func TestTriplePattern_BindingPushDown(t *testing.T) {
	src := &recordingSource{TripleSource: newGraph(t,
		rdf.NewTriple(iri("alice"), iri("name"), rdf.NewLiteral("Alice")),
		rdf.NewTriple(iri("bob"), iri("name"), rdf.NewLiteral("Bob")),
		rdf.NewTriple(iri("carol"), iri("name"), rdf.NewLiteral("Carol")),
	)}
	ec := newContext(src)
	ec.InputMultiset = solutions(
		map[string]rdf.Term{"s": iri("alice")},
		map[string]rdf.Term{"s": iri("bob")},
		map[string]rdf.Term{"s": iri("alice")},
	)

	tp := patterns.MustTriplePattern(v("s"), ex("name"), v("n"))
	got, err := New(DefaultOptions()).EvaluatePattern(context.Background(), tp, ec)
	require.NoError(t, err)

	// One lookup per distinct bound value instead of a predicate scan
	assert.Equal(t, []string{"WithSubjectPredicate", "WithSubjectPredicate"}, src.calls)
	assert.Equal(t, []string{`"Alice"`, `"Bob"`, `"Alice"`}, column(got, "n"))
	assert.Same(t, got, ec.OutputMultiset)
}

func TestTriplePattern_NoPushDownWhenPartiallyBound(t *testing.T) {
	src := &recordingSource{TripleSource: newGraph(t,
		rdf.NewTriple(iri("alice"), iri("name"), rdf.NewLiteral("Alice")),
		rdf.NewTriple(iri("bob"), iri("name"), rdf.NewLiteral("Bob")),
	)}
	ec := newContext(src)
	ec.InputMultiset = solutions(
		map[string]rdf.Term{"s": iri("alice")},
		map[string]rdf.Term{"x": iri("other")},
	)

	tp := patterns.MustTriplePattern(v("s"), ex("name"), v("n"))
	got, err := New(DefaultOptions()).EvaluatePattern(context.Background(), tp, ec)
	require.NoError(t, err)

	assert.Equal(t, []string{"WithPredicate"}, src.calls)
	// alice joins once, the row without ?s joins with both names
	assert.Equal(t, 3, got.Count())
}

func TestEvaluate_JoinsSeededInput(t *testing.T) {
	g := newGraph(t,
		rdf.NewTriple(iri("alice"), iri("name"), rdf.NewLiteral("Alice")),
		rdf.NewTriple(iri("bob"), iri("name"), rdf.NewLiteral("Bob")),
	)
	ec := newContext(g)
	ec.InputMultiset = solutions(map[string]rdf.Term{"s": iri("bob"), "k": rdf.NewIntegerLiteral(1)})

	op := &algebra.BGP{Patterns: []patterns.Pattern{patterns.MustTriplePattern(v("s"), ex("name"), v("n"))}}
	got, err := New(DefaultOptions()).Evaluate(context.Background(), op, ec)
	require.NoError(t, err)

	require.Equal(t, 1, got.Count())
	assert.Equal(t, []string{`"Bob"`}, column(got, "n"))
	assert.Equal(t, []string{`"1"^^<http://www.w3.org/2001/XMLSchema#integer>`}, column(got, "k"))
}

func TestJoin_RightHintedWithLeftSolutions(t *testing.T) {
	src := &recordingSource{TripleSource: newGraph(t,
		rdf.NewTriple(iri("alice"), iri("age"), rdf.NewIntegerLiteral(30)),
		rdf.NewTriple(iri("bob"), iri("age"), rdf.NewIntegerLiteral(15)),
		rdf.NewTriple(iri("alice"), iri("name"), rdf.NewLiteral("Alice")),
		rdf.NewTriple(iri("bob"), iri("name"), rdf.NewLiteral("Bob")),
	)}
	ec := newContext(src)
	ec.InputMultiset = solutions(map[string]rdf.Term{"n": rdf.NewLiteral("Bob")})

	op := &algebra.Join{
		Left:  &algebra.BGP{Patterns: []patterns.Pattern{patterns.MustTriplePattern(v("s"), ex("age"), v("a"))}},
		Right: &algebra.BGP{Patterns: []patterns.Pattern{patterns.MustTriplePattern(v("s"), ex("name"), v("n"))}},
	}
	got, err := New(DefaultOptions()).Evaluate(context.Background(), op, ec)
	require.NoError(t, err)

	// The input binds nothing of the left side, which scans by predicate.
	// The right side looks up each subject the left side found.
	assert.Equal(t, []string{"WithPredicate", "WithSubjectPredicate", "WithSubjectPredicate"}, src.calls)
	assert.Equal(t, []string{"<http://example.org/bob>"}, column(got, "s"))
}

func TestEvaluate_RequiresData(t *testing.T) {
	_, err := New(DefaultOptions()).Evaluate(context.Background(), &algebra.BGP{}, &Context{})
	assert.ErrorIs(t, err, ErrQuery)
}

func TestEvaluate_Cancellation(t *testing.T) {
	g := newGraph(t, rdf.NewTriple(iri("s"), iri("p"), iri("o")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gp := patterns.NewBuilder().Triple(v("s"), v("p"), v("o")).MustBuild()
	_, err := New(DefaultOptions()).EvaluateGraphPattern(ctx, gp, newContext(g))
	assert.ErrorIs(t, err, context.Canceled)
}
