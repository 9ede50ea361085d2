package rdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerm_KeysAndRendering(t *testing.T) {
	tests := []struct {
		term     Term
		kind     TermType
		key      string
		rendered string
	}{
		{NewNamedNode("http://example.org/a"), TermTypeNamedNode, "<http://example.org/a>", "<http://example.org/a>"},
		{NewBlankNode("b1"), TermTypeBlankNode, "_:b1", "_:b1"},
		{NewLiteral("hi"), TermTypeLiteral, `"hi"`, `"hi"`},
		{NewLiteralWithDatatype("hi", XSDString), TermTypeLiteral, `"hi"`, `"hi"^^<http://www.w3.org/2001/XMLSchema#string>`},
		{NewLiteralWithLanguage("hi", "EN"), TermTypeLiteral, `"hi"@en`, `"hi"@EN`},
		{NewIntegerLiteral(42), TermTypeLiteral, `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`, `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{NewLiteral("a\"b"), TermTypeLiteral, `"a\"b"`, ""},
		{NewVariable("x"), TermTypeVariable, "?x", "?x"},
		{NewDefaultGraph(), TermTypeDefaultGraph, "DEFAULT", "DEFAULT"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.term.Type())
			assert.Equal(t, tt.key, tt.term.Key())
			if tt.rendered != "" {
				assert.Equal(t, tt.rendered, tt.term.String())
			}
		})
	}
}

// Equal terms share a key and a hash; unequal terms never share a key
func TestKey_ConsistentWithEquals(t *testing.T) {
	terms := []Term{
		NewNamedNode("http://example.org/a"),
		NewNamedNode("http://example.org/b"),
		NewNamedNode("_:b1"),
		NewBlankNode("b1"),
		NewLiteral("hello"),
		NewLiteralWithDatatype("hello", XSDString),
		NewLiteralWithDatatype("hello", NewNamedNode(XSDString.IRI)),
		NewLiteralWithLanguage("hello", "en"),
		NewLiteralWithLanguage("hello", "EN"),
		NewLiteralWithLanguage("hello", "fr"),
		NewLiteralWithDatatype("1", XSDInteger),
		NewLiteralWithDatatype("1", XSDDecimal),
		NewLiteral("1"),
		NewLiteral(`a"@en`),
		NewLiteral("?x"),
		NewLiteral("DEFAULT"),
		NewVariable("x"),
		NewVariable("y"),
		NewDefaultGraph(),
	}

	for _, a := range terms {
		for _, b := range terms {
			equal := a.Equals(b)
			assert.Equal(t, equal, a.Key() == b.Key(), "%s vs %s", a, b)
			assert.Equal(t, equal, b.Equals(a), "Equals is not symmetric for %s and %s", a, b)
			if equal {
				assert.Equal(t, Hash(a), Hash(b), "%s vs %s", a, b)
			}
		}
	}
	assert.Zero(t, Hash(nil))
}

func TestLiteral_EqualityRules(t *testing.T) {
	// A simple literal is an xsd:string literal
	assert.True(t, NewLiteral("x").Equals(NewLiteralWithDatatype("x", XSDString)))
	// Language tags compare case-insensitively
	assert.True(t, NewLiteralWithLanguage("x", "en-GB").Equals(NewLiteralWithLanguage("x", "EN-gb")))
	// Lexical forms are not normalised
	assert.False(t, NewIntegerLiteral(1).Equals(NewLiteralWithDatatype("01", XSDInteger)))
	assert.False(t, NewLiteralWithLanguage("x", "en").Equals(NewLiteral("x")))
}

func TestTypedLiteralConstructors(t *testing.T) {
	when := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		literal  *Literal
		value    string
		datatype *NamedNode
	}{
		{NewIntegerLiteral(-7), "-7", XSDInteger},
		{NewDoubleLiteral(3.14), "3.14", XSDDouble},
		{NewBooleanLiteral(false), "false", XSDBoolean},
		{NewDateTimeLiteral(when), "2025-01-01T12:00:00Z", XSDDateTime},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.value, tt.literal.Value)
		assert.Same(t, tt.datatype, tt.literal.Datatype)
	}
}

func TestTriple_Equals(t *testing.T) {
	s := NewNamedNode("http://example.org/s")
	p := NewNamedNode("http://example.org/p")
	base := NewTriple(s, p, NewLiteral("o"))

	tests := []struct {
		name  string
		other *Triple
		equal bool
	}{
		{"same pointer", base, true},
		{"fresh nodes", NewTriple(NewNamedNode(s.IRI), NewNamedNode(p.IRI), NewLiteralWithDatatype("o", XSDString)), true},
		{"other object", NewTriple(s, p, NewLiteral("x")), false},
		{"positions swapped", NewTriple(p, s, NewLiteral("o")), false},
		{"object is an IRI", NewTriple(s, p, NewNamedNode("o")), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, base.Equals(tt.other))
			if tt.other == nil {
				return
			}
			assert.Equal(t, tt.equal, base.Key() == tt.other.Key())
			if tt.equal {
				assert.Equal(t, base.Hash(), tt.other.Hash())
			}
		})
	}
}

func TestTriple_HashDependsOnPosition(t *testing.T) {
	a := NewNamedNode("http://example.org/a")
	b := NewNamedNode("http://example.org/b")

	assert.NotEqual(t, NewTriple(a, b, a).Hash(), NewTriple(a, a, b).Hash())
	assert.NotEqual(t, NewTriple(a, b, b).Hash(), NewTriple(b, b, a).Hash())
}

func TestTriple_RenderingAndQuads(t *testing.T) {
	s := NewNamedNode("http://example.org/s")
	p := NewNamedNode("http://example.org/p")

	tr := NewTriple(s, p, NewLiteral("v"))
	assert.Equal(t, `<http://example.org/s> <http://example.org/p> "v" .`, tr.String())

	q := NewQuad(s, p, NewLiteral("v"), NewDefaultGraph())
	assert.Equal(t, `<http://example.org/s> <http://example.org/p> "v" DEFAULT .`, q.String())
	assert.True(t, q.Triple().Equals(tr))
}

func TestVariable_InTriplesAndInterner(t *testing.T) {
	in, err := NewInterner(DefaultInternSize)
	require.NoError(t, err)

	x := NewVariable("x")
	pattern := NewTriple(NewNamedNode("http://example.org/s"), NewNamedNode("http://example.org/p"), x)
	assert.False(t, pattern.IsGround())

	// The interner shares IRIs and passes variables through untouched
	interned := in.Triple(pattern)
	assert.Same(t, x, interned.Object)
	assert.Same(t, in.NamedNode("http://example.org/p"), interned.Predicate)
	assert.True(t, interned.Equals(pattern))
	assert.Equal(t, pattern.Hash(), interned.Hash())
	assert.Equal(t, 2, in.Len())

	// A variable never equals the IRI or literal spelled like it
	assert.False(t, x.Equals(in.NamedNode("?x")))
	assert.False(t, x.Equals(NewLiteral("?x")))
	assert.True(t, x.Equals(in.Term(NewVariable("x"))))

	ground := in.Triple(NewTriple(pattern.Subject, pattern.Predicate, NewLiteral("o")))
	assert.True(t, ground.IsGround())
	assert.False(t, ground.Equals(interned))
}
