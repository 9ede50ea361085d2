package rdf

import (
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultInternSize is the number of IRIs kept by an Interner created
// with a non-positive size.
const DefaultInternSize = 65536

// Interner deduplicates NamedNode instances so that equal IRIs share one
// pointer. The table is bounded; evicted IRIs are simply re-created on
// the next lookup, so interning never affects equality, only memory and
// the speed of NamedNode.Equals.
type Interner struct {
	cache *lru.Cache[string, *NamedNode]
}

// NewInterner creates an interner holding at most size IRIs.
func NewInterner(size int) (*Interner, error) {
	if size <= 0 {
		size = DefaultInternSize
	}
	cache, err := lru.New[string, *NamedNode](size)
	if err != nil {
		return nil, err
	}
	return &Interner{cache: cache}, nil
}

// NamedNode returns the shared node for iri.
func (in *Interner) NamedNode(iri string) *NamedNode {
	if n, ok := in.cache.Get(iri); ok {
		return n
	}
	n := NewNamedNode(iri)
	in.cache.Add(iri, n)
	return n
}

// Term interns IRIs (including literal datatypes) and returns every other
// term unchanged.
func (in *Interner) Term(term Term) Term {
	switch t := term.(type) {
	case *NamedNode:
		return in.NamedNode(t.IRI)
	case *Literal:
		if t.Datatype == nil {
			return t
		}
		dt := in.NamedNode(t.Datatype.IRI)
		if dt == t.Datatype {
			return t
		}
		return &Literal{Value: t.Value, Language: t.Language, Datatype: dt}
	default:
		return term
	}
}

// Triple returns a triple whose IRIs are interned.
func (in *Interner) Triple(t *Triple) *Triple {
	return NewTriple(in.Term(t.Subject), in.Term(t.Predicate), in.Term(t.Object))
}

// Len returns the number of interned IRIs.
func (in *Interner) Len() int {
	return in.cache.Len()
}

// NewUniqueBlankNode allocates a blank node whose identifier is unique
// across graphs.
func NewUniqueBlankNode() *BlankNode {
	return NewBlankNode("b" + strings.ReplaceAll(uuid.NewString(), "-", ""))
}
