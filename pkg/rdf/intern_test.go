package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterner_SharesPointers(t *testing.T) {
	in, err := NewInterner(16)
	require.NoError(t, err)

	a := in.NamedNode("http://example.org/a")
	b := in.NamedNode("http://example.org/a")

	assert.Same(t, a, b)
	assert.Equal(t, 1, in.Len())
}

func TestInterner_EvictionKeepsEquality(t *testing.T) {
	in, err := NewInterner(1)
	require.NoError(t, err)

	a := in.NamedNode("http://example.org/a")
	in.NamedNode("http://example.org/b")
	again := in.NamedNode("http://example.org/a")

	assert.NotSame(t, a, again)
	assert.True(t, a.Equals(again))
}

func TestInterner_Triple(t *testing.T) {
	in, err := NewInterner(0)
	require.NoError(t, err)

	t1 := in.Triple(NewTriple(
		NewNamedNode("http://example.org/s"),
		NewNamedNode("http://example.org/p"),
		NewLiteralWithDatatype("1", NewNamedNode(XSDInteger.IRI)),
	))
	t2 := in.Triple(NewTriple(
		NewNamedNode("http://example.org/s"),
		NewNamedNode("http://example.org/p"),
		NewLiteralWithDatatype("1", NewNamedNode(XSDInteger.IRI)),
	))

	assert.Same(t, t1.Subject, t2.Subject)
	assert.Same(t, t1.Object.(*Literal).Datatype, t2.Object.(*Literal).Datatype)
	assert.True(t, t1.Equals(t2))
}

func TestNewUniqueBlankNode(t *testing.T) {
	a := NewUniqueBlankNode()
	b := NewUniqueBlankNode()

	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Equals(b))
}
