package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	// Core RDF types
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
	TermTypeDefaultGraph

	// Query-only terms
	TermTypeVariable
)

// Term represents an RDF term (IRI, blank node, literal or variable).
// Terms are immutable once constructed.
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool

	// Key returns a canonical string that is equal for two terms exactly
	// when Equals reports true. It is used as a map key by the indexes.
	Key() string
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return fmt.Sprintf("<%s>", n.IRI)
}

func (n *NamedNode) Key() string {
	return "<" + n.IRI + ">"
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		// Interned nodes share a pointer
		return n == on || n.IRI == on.IRI
	}
	return false
}

// BlankNode represents a blank node
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return fmt.Sprintf("_:%s", b.ID)
}

func (b *BlankNode) Key() string {
	return "_:" + b.ID
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID
	}
	return false
}

// Literal represents an RDF literal
type Literal struct {
	Value    string
	Language string     // for language-tagged strings
	Datatype *NamedNode // for typed literals
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: language}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	return &Literal{Value: value, Datatype: datatype}
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

func (l *Literal) String() string {
	result := fmt.Sprintf(`"%s"`, l.Value)
	if l.Language != "" {
		result += "@" + l.Language
	} else if l.Datatype != nil {
		result += "^^" + l.Datatype.String()
	}
	return result
}

// datatypeIRI returns the effective datatype. Simple literals and
// xsd:string literals are the same RDF term.
func (l *Literal) datatypeIRI() string {
	if l.Datatype == nil || l.Datatype.IRI == XSDString.IRI {
		return ""
	}
	return l.Datatype.IRI
}

func (l *Literal) Key() string {
	key := strconv.Quote(l.Value)
	if l.Language != "" {
		return key + "@" + strings.ToLower(l.Language)
	}
	if dt := l.datatypeIRI(); dt != "" {
		return key + "^^<" + dt + ">"
	}
	return key
}

func (l *Literal) Equals(other Term) bool {
	if ol, ok := other.(*Literal); ok {
		if l.Value != ol.Value {
			return false
		}
		if !strings.EqualFold(l.Language, ol.Language) {
			return false
		}
		return l.datatypeIRI() == ol.datatypeIRI()
	}
	return false
}

// DefaultGraph represents the default graph
type DefaultGraph struct{}

func NewDefaultGraph() *DefaultGraph {
	return &DefaultGraph{}
}

func (d *DefaultGraph) Type() TermType {
	return TermTypeDefaultGraph
}

func (d *DefaultGraph) String() string {
	return "DEFAULT"
}

func (d *DefaultGraph) Key() string {
	return "DEFAULT"
}

func (d *DefaultGraph) Equals(other Term) bool {
	_, ok := other.(*DefaultGraph)
	return ok
}

// Variable represents a query variable. Variables never appear in stored
// triples; they exist so that patterns can be expressed as terms.
type Variable struct {
	Name string
}

func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) Type() TermType {
	return TermTypeVariable
}

func (v *Variable) String() string {
	return "?" + v.Name
}

func (v *Variable) Key() string {
	return "?" + v.Name
}

func (v *Variable) Equals(other Term) bool {
	if ov, ok := other.(*Variable); ok {
		return v.Name == ov.Name
	}
	return false
}

// Hash returns a stable 64-bit hash of a term, consistent with Equals.
func Hash(term Term) uint64 {
	if term == nil {
		return 0
	}
	return xxh3.HashString(term.Key())
}

// Triple represents an RDF triple (subject, predicate, object)
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func NewTriple(subject, predicate, object Term) *Triple {
	return &Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

func (t *Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// Key returns the canonical key of the triple.
func (t *Triple) Key() string {
	return t.Subject.Key() + " " + t.Predicate.Key() + " " + t.Object.Key()
}

// Equals reports structural equality of two triples.
func (t *Triple) Equals(other *Triple) bool {
	if other == nil {
		return false
	}
	if t == other {
		return true
	}
	return t.Subject.Equals(other.Subject) &&
		t.Predicate.Equals(other.Predicate) &&
		t.Object.Equals(other.Object)
}

// Hash combines the hashes of the three nodes.
func (t *Triple) Hash() uint64 {
	h := Hash(t.Subject)
	h = h*1099511628211 ^ Hash(t.Predicate)
	h = h*1099511628211 ^ Hash(t.Object)
	return h
}

// IsGround reports whether the triple contains no variables.
func (t *Triple) IsGround() bool {
	for _, n := range [...]Term{t.Subject, t.Predicate, t.Object} {
		if n == nil || n.Type() == TermTypeVariable {
			return false
		}
	}
	return true
}

// Quad represents an RDF quad (subject, predicate, object, graph)
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func NewQuad(subject, predicate, object, graph Term) *Quad {
	return &Quad{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Graph:     graph,
	}
}

func (q *Quad) String() string {
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// Triple drops the graph name.
func (q *Quad) Triple() *Triple {
	return NewTriple(q.Subject, q.Predicate, q.Object)
}

// Helper functions for common XSD datatypes
var (
	XSDString   = NewNamedNode("http://www.w3.org/2001/XMLSchema#string")
	XSDInteger  = NewNamedNode("http://www.w3.org/2001/XMLSchema#integer")
	XSDDecimal  = NewNamedNode("http://www.w3.org/2001/XMLSchema#decimal")
	XSDDouble   = NewNamedNode("http://www.w3.org/2001/XMLSchema#double")
	XSDBoolean  = NewNamedNode("http://www.w3.org/2001/XMLSchema#boolean")
	XSDDateTime = NewNamedNode("http://www.w3.org/2001/XMLSchema#dateTime")
	XSDDate     = NewNamedNode("http://www.w3.org/2001/XMLSchema#date")
	XSDTime     = NewNamedNode("http://www.w3.org/2001/XMLSchema#time")
	XSDDuration = NewNamedNode("http://www.w3.org/2001/XMLSchema#duration")
)

func NewIntegerLiteral(value int64) *Literal {
	return NewLiteralWithDatatype(fmt.Sprintf("%d", value), XSDInteger)
}

func NewDoubleLiteral(value float64) *Literal {
	return NewLiteralWithDatatype(fmt.Sprintf("%g", value), XSDDouble)
}

func NewBooleanLiteral(value bool) *Literal {
	return NewLiteralWithDatatype(fmt.Sprintf("%t", value), XSDBoolean)
}

func NewDateTimeLiteral(value time.Time) *Literal {
	return NewLiteralWithDatatype(value.Format(time.RFC3339), XSDDateTime)
}
