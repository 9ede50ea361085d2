package multiset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

func iri(local string) *rdf.NamedNode {
	return rdf.NewNamedNode("http://example.org/" + local)
}

func row(pairs ...any) *Set {
	s := NewSet()
	for i := 0; i < len(pairs); i += 2 {
		var term rdf.Term
		if pairs[i+1] != nil {
			term = pairs[i+1].(rdf.Term)
		}
		s.Add(pairs[i].(string), term)
	}
	return s
}

func multisetOf(rows ...*Set) *Multiset {
	m := New()
	for _, r := range rows {
		m.Add(r)
	}
	return m
}

func TestSet_UnboundIsNotBound(t *testing.T) {
	s := row("x", iri("a"), "y", nil)

	_, ok := s.Get("y")
	assert.False(t, ok)
	assert.True(t, s.Contains("x"))
	assert.Equal(t, []string{"x"}, s.Variables())
	assert.Equal(t, 1, s.Len())
}

func TestSet_Compatible(t *testing.T) {
	a := row("x", iri("a"), "y", iri("b"))

	assert.True(t, a.Compatible(row("x", iri("a"), "z", iri("c"))))
	assert.True(t, a.Compatible(row("z", iri("c"))))
	assert.True(t, a.Compatible(row("x", nil)))
	assert.False(t, a.Compatible(row("x", iri("other"))))
}

func TestSentinels(t *testing.T) {
	id := Identity()
	assert.True(t, id.IsIdentity())
	assert.Equal(t, 1, id.Count())
	assert.False(t, id.IsEmpty())

	null := Null()
	assert.True(t, null.IsNull())
	assert.True(t, null.IsEmpty())

	data := multisetOf(row("x", iri("a")), row("x", iri("b")))

	assert.Equal(t, 2, Identity().Join(data).Count())
	assert.Equal(t, 2, data.Join(Identity()).Count())
	assert.True(t, Null().Join(data).IsNull())
	assert.True(t, data.Join(Null()).IsNull())
}

func TestJoin_SharedVariable(t *testing.T) {
	left := multisetOf(
		row("x", iri("a"), "y", iri("1")),
		row("x", iri("b"), "y", iri("2")),
	)
	right := multisetOf(
		row("x", iri("a"), "z", iri("p")),
		row("x", iri("a"), "z", iri("q")),
		row("x", iri("c"), "z", iri("r")),
	)

	result := left.Join(right)
	require.Equal(t, 2, result.Count())
	for _, s := range result.Sets() {
		x, _ := s.Get("x")
		assert.True(t, x.Equals(iri("a")))
	}
	assert.ElementsMatch(t, []string{"x", "y", "z"}, result.Variables())
}

func TestJoin_UnboundSharedVariableMatchesLoosely(t *testing.T) {
	left := multisetOf(row("x", iri("a")), row("x", nil, "y", iri("1")))
	right := multisetOf(row("x", iri("a"), "z", iri("p")))

	// The second left row does not bind x and so is compatible as well
	assert.Equal(t, 2, left.Join(right).Count())
}

func TestJoin_NoMatchesIsNull(t *testing.T) {
	left := multisetOf(row("x", iri("a")))
	right := multisetOf(row("x", iri("b")))

	result := left.Join(right)
	assert.True(t, result.IsNull())
	assert.True(t, result.ContainsVariable("x"))
}

func TestProduct(t *testing.T) {
	left := multisetOf(row("x", iri("a")), row("x", iri("b")))
	right := multisetOf(row("y", iri("1")), row("y", iri("2")), row("y", iri("3")))

	assert.Equal(t, 6, left.Join(right).Count())
}

func TestLeftJoin(t *testing.T) {
	left := multisetOf(row("x", iri("a")), row("x", iri("b")))
	right := multisetOf(
		row("x", iri("a"), "n", rdf.NewIntegerLiteral(1)),
		row("x", iri("a"), "n", rdf.NewIntegerLiteral(5)),
	)

	result := left.LeftJoin(right, nil)
	assert.Equal(t, 3, result.Count())

	// The filter applies to the joined solution; rejected matches fall
	// back to the left solution alone
	big := func(s *Set) bool {
		n, ok := s.Get("n")
		return ok && n.(*rdf.Literal).Value == "5"
	}
	filtered := left.LeftJoin(right, big)
	require.Equal(t, 2, filtered.Count())
	n, ok := filtered.Sets()[0].Get("n")
	require.True(t, ok)
	assert.Equal(t, "5", n.(*rdf.Literal).Value)
	assert.False(t, filtered.Sets()[1].Contains("n"))

	assert.Equal(t, 2, left.LeftJoin(Null(), nil).Count())
	assert.True(t, Null().LeftJoin(right, nil).IsNull())
}

func TestUnion_KeepsDuplicates(t *testing.T) {
	a := multisetOf(row("x", iri("a")))
	b := multisetOf(row("x", iri("a")), row("y", iri("b")))

	result := a.Union(b)
	assert.Equal(t, 3, result.Count())
	assert.Equal(t, 2, result.Distinct().Count())
	assert.Equal(t, 2, Null().Union(b).Count())
}

func TestMinus(t *testing.T) {
	left := multisetOf(row("x", iri("a")), row("x", iri("b")), row("y", iri("c")))
	right := multisetOf(row("x", iri("a")))

	result := left.Minus(right)
	require.Equal(t, 2, result.Count())

	// Solutions sharing no variable with the right side are never removed
	disjoint := left.Minus(multisetOf(row("z", iri("a"))))
	assert.Equal(t, 3, disjoint.Count())
}

func TestExistsJoin(t *testing.T) {
	left := multisetOf(row("x", iri("a")), row("x", iri("b")))
	right := multisetOf(row("x", iri("a"), "y", iri("c")))

	exists := left.ExistsJoin(right, true)
	require.Equal(t, 1, exists.Count())
	x, _ := exists.Sets()[0].Get("x")
	assert.True(t, x.Equals(iri("a")))
	assert.False(t, exists.Sets()[0].Contains("y"))

	notExists := left.ExistsJoin(right, false)
	require.Equal(t, 1, notExists.Count())

	assert.True(t, Identity().ExistsJoin(right, true).IsIdentity())
	assert.True(t, Identity().ExistsJoin(Null(), true).IsNull())
}

func TestFilterInPlace(t *testing.T) {
	m := multisetOf(row("x", iri("a")), row("x", iri("b")))
	m.Filter(func(s *Set) bool {
		x, _ := s.Get("x")
		return x.Equals(iri("b"))
	})
	assert.Equal(t, 1, m.Count())

	id := Identity()
	id.Filter(func(*Set) bool { return false })
	assert.True(t, id.IsNull())
}

func TestProjectSortSlice(t *testing.T) {
	m := multisetOf(
		row("x", rdf.NewIntegerLiteral(3), "y", iri("c")),
		row("x", rdf.NewIntegerLiteral(1), "y", iri("a")),
		row("x", rdf.NewIntegerLiteral(2), "y", iri("b")),
	)

	projected := m.Project([]string{"y"})
	assert.Equal(t, []string{"y"}, projected.Variables())
	assert.False(t, projected.Sets()[0].Contains("x"))

	sorted := m.Sort(func(a, b *Set) int {
		x, _ := a.Get("x")
		y, _ := b.Get("x")
		switch {
		case x.(*rdf.Literal).Value < y.(*rdf.Literal).Value:
			return -1
		case x.(*rdf.Literal).Value > y.(*rdf.Literal).Value:
			return 1
		}
		return 0
	})
	first, _ := sorted.Sets()[0].Get("y")
	assert.True(t, first.Equals(iri("a")))

	sliced := sorted.Slice(1, 1)
	require.Equal(t, 1, sliced.Count())
	only, _ := sliced.Sets()[0].Get("y")
	assert.True(t, only.Equals(iri("b")))

	assert.True(t, sorted.Slice(5, -1).IsNull())
	assert.Equal(t, 3, m.Count(), "sort and slice must not modify the receiver")
}

func TestValuesAndBindsEverywhere(t *testing.T) {
	m := multisetOf(row("x", iri("a")), row("x", iri("a")), row("x", iri("b")))
	assert.Len(t, m.Values("x"), 2)
	assert.True(t, m.BindsEverywhere("x"))

	m.Add(row("y", iri("c")))
	assert.False(t, m.BindsEverywhere("x"))
	assert.False(t, New("x").BindsEverywhere("x"))
}
