package patterns

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// Path is a property path expression. The set of implementations is
// closed.
type Path interface {
	String() string

	path()
}

// Property is a single predicate step
type Property struct {
	Predicate rdf.Term
}

// Inverse walks Path from object to subject
type Inverse struct {
	Path Path
}

// Sequence walks Left then Right
type Sequence struct {
	Left, Right Path
}

// Alternative walks either Left or Right
type Alternative struct {
	Left, Right Path
}

// ZeroOrOne walks Path at most once
type ZeroOrOne struct {
	Path Path
}

// ZeroOrMore walks Path any number of times
type ZeroOrMore struct {
	Path Path
}

// OneOrMore walks Path at least once
type OneOrMore struct {
	Path Path
}

// Cardinality walks Path exactly N times
type Cardinality struct {
	Path Path
	N    int
}

// NegatedSet matches one step over any predicate not listed. Properties
// apply forwards, Inverse backwards.
type NegatedSet struct {
	Properties []rdf.Term
	Inverse    []rdf.Term
}

func (*Property) path()    {}
func (*Inverse) path()     {}
func (*Sequence) path()    {}
func (*Alternative) path() {}
func (*ZeroOrOne) path()   {}
func (*ZeroOrMore) path()  {}
func (*OneOrMore) path()   {}
func (*Cardinality) path() {}
func (*NegatedSet) path()  {}

func (p *Property) String() string    { return p.Predicate.String() }
func (p *Inverse) String() string     { return "^" + p.Path.String() }
func (p *Sequence) String() string    { return "(" + p.Left.String() + "/" + p.Right.String() + ")" }
func (p *Alternative) String() string { return "(" + p.Left.String() + "|" + p.Right.String() + ")" }
func (p *ZeroOrOne) String() string   { return p.Path.String() + "?" }
func (p *ZeroOrMore) String() string  { return p.Path.String() + "*" }
func (p *OneOrMore) String() string   { return p.Path.String() + "+" }
func (p *Cardinality) String() string { return fmt.Sprintf("%s{%d}", p.Path, p.N) }

func (p *NegatedSet) String() string {
	parts := make([]string, 0, len(p.Properties)+len(p.Inverse))
	for _, t := range p.Properties {
		parts = append(parts, t.String())
	}
	for _, t := range p.Inverse {
		parts = append(parts, "^"+t.String())
	}
	return "!(" + strings.Join(parts, "|") + ")"
}

// IsSimple reports whether path is a plain predicate
func IsSimple(path Path) bool {
	_, ok := path.(*Property)
	return ok
}
