// Package algebra defines the operator tree evaluated by the engine and
// compiles graph patterns into it.
package algebra

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/expression"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
)

// Operator is a node of the algebra tree. The set of implementations is
// closed.
type Operator interface {
	// Variables returns the sorted variables the operator may bind
	Variables() []string
	String() string

	operator()
}

// BGP evaluates its patterns in order, joining each into the solutions
// produced so far
type BGP struct {
	Patterns []patterns.Pattern
}

// Join combines compatible solutions of both sides
type Join struct {
	Left, Right Operator
}

// LeftJoin keeps every left solution, extended by compatible right
// solutions that pass Filter
type LeftJoin struct {
	Left, Right Operator
	Filter      expression.Expression // may be nil
}

// Union concatenates the solutions of both sides
type Union struct {
	Left, Right Operator
}

// Minus removes left solutions compatible with a right solution
type Minus struct {
	Left, Right Operator
}

// ExistsJoin keeps left solutions for which a compatible right solution
// exists (MustExist) or does not exist
type ExistsJoin struct {
	Left, Right Operator
	MustExist   bool
}

// Filter removes solutions for which Expression is not true
type Filter struct {
	Inner      Operator
	Expression expression.Expression
}

// Graph evaluates Inner against the named graph Name
type Graph struct {
	Inner Operator
	Name  patterns.PatternItem
}

// Service sends Pattern to a remote endpoint
type Service struct {
	Endpoint patterns.PatternItem
	Pattern  *patterns.GraphPattern
	Silent   bool
}

// Extend applies a BIND or LET assignment to the solutions of Inner
type Extend struct {
	Inner      Operator
	Assignment *patterns.AssignmentPattern
}

// Project keeps only Vars
type Project struct {
	Inner Operator
	Vars  []string
}

// Distinct removes duplicate solutions
type Distinct struct {
	Inner Operator
}

// OrderBy sorts solutions
type OrderBy struct {
	Inner      Operator
	Conditions []patterns.OrderCondition
}

// Slice applies OFFSET and LIMIT. A negative Limit keeps everything.
type Slice struct {
	Inner  Operator
	Offset int
	Limit  int
}

// ZeroLengthPath binds subject and object to the same term
type ZeroLengthPath struct {
	Subject, Object patterns.PatternItem
}

// ZeroOrMorePath is the reflexive transitive closure of Path
type ZeroOrMorePath struct {
	Subject patterns.PatternItem
	Path    patterns.Path
	Object  patterns.PatternItem
}

// OneOrMorePath is the transitive closure of Path
type OneOrMorePath struct {
	Subject patterns.PatternItem
	Path    patterns.Path
	Object  patterns.PatternItem
}

// NegatedPropertySet matches one step over a predicate not listed
type NegatedPropertySet struct {
	Subject    patterns.PatternItem
	Object     patterns.PatternItem
	Properties []rdf.Term
	Inverse    []rdf.Term
}

func (*BGP) operator()                {}
func (*Join) operator()               {}
func (*LeftJoin) operator()           {}
func (*Union) operator()              {}
func (*Minus) operator()              {}
func (*ExistsJoin) operator()         {}
func (*Filter) operator()             {}
func (*Graph) operator()              {}
func (*Service) operator()            {}
func (*Extend) operator()             {}
func (*Project) operator()            {}
func (*Distinct) operator()           {}
func (*OrderBy) operator()            {}
func (*Slice) operator()              {}
func (*ZeroLengthPath) operator()     {}
func (*ZeroOrMorePath) operator()     {}
func (*OneOrMorePath) operator()      {}
func (*NegatedPropertySet) operator() {}

func (o *BGP) Variables() []string {
	var names []string
	for _, p := range o.Patterns {
		switch p := p.(type) {
		case *patterns.FilterPattern:
		case *patterns.AssignmentPattern:
			names = append(names, p.Variable)
		default:
			names = append(names, p.Variables()...)
		}
	}
	return distinct(names)
}

func (o *Join) Variables() []string       { return distinct(o.Left.Variables(), o.Right.Variables()) }
func (o *LeftJoin) Variables() []string   { return distinct(o.Left.Variables(), o.Right.Variables()) }
func (o *Union) Variables() []string      { return distinct(o.Left.Variables(), o.Right.Variables()) }
func (o *Minus) Variables() []string      { return o.Left.Variables() }
func (o *ExistsJoin) Variables() []string { return o.Left.Variables() }
func (o *Filter) Variables() []string     { return o.Inner.Variables() }
func (o *Service) Variables() []string    { return o.Pattern.Variables() }
func (o *Extend) Variables() []string     { return distinct(o.Inner.Variables(), []string{o.Assignment.Variable}) }
func (o *Project) Variables() []string    { return distinct(o.Vars) }
func (o *Distinct) Variables() []string   { return o.Inner.Variables() }
func (o *OrderBy) Variables() []string    { return o.Inner.Variables() }
func (o *Slice) Variables() []string      { return o.Inner.Variables() }

func (o *Graph) Variables() []string {
	return distinct(o.Inner.Variables(), itemNames(o.Name))
}

func (o *ZeroLengthPath) Variables() []string     { return distinct(itemNames(o.Subject, o.Object)) }
func (o *ZeroOrMorePath) Variables() []string     { return distinct(itemNames(o.Subject, o.Object)) }
func (o *OneOrMorePath) Variables() []string      { return distinct(itemNames(o.Subject, o.Object)) }
func (o *NegatedPropertySet) Variables() []string { return distinct(itemNames(o.Subject, o.Object)) }

func (o *BGP) String() string {
	parts := make([]string, len(o.Patterns))
	for i, p := range o.Patterns {
		parts[i] = p.String()
	}
	return "BGP(" + strings.Join(parts, ", ") + ")"
}

func (o *Join) String() string  { return fmt.Sprintf("Join(%s, %s)", o.Left, o.Right) }
func (o *Union) String() string { return fmt.Sprintf("Union(%s, %s)", o.Left, o.Right) }
func (o *Minus) String() string { return fmt.Sprintf("Minus(%s, %s)", o.Left, o.Right) }

func (o *LeftJoin) String() string {
	if o.Filter == nil {
		return fmt.Sprintf("LeftJoin(%s, %s)", o.Left, o.Right)
	}
	return fmt.Sprintf("LeftJoin(%s, %s, %s)", o.Left, o.Right, o.Filter)
}

func (o *ExistsJoin) String() string {
	if o.MustExist {
		return fmt.Sprintf("Exists(%s, %s)", o.Left, o.Right)
	}
	return fmt.Sprintf("NotExists(%s, %s)", o.Left, o.Right)
}

func (o *Filter) String() string   { return fmt.Sprintf("Filter(%s, %s)", o.Expression, o.Inner) }
func (o *Graph) String() string    { return fmt.Sprintf("Graph(%s, %s)", o.Name, o.Inner) }
func (o *Extend) String() string   { return fmt.Sprintf("Extend(%s, %s)", o.Inner, o.Assignment) }
func (o *Distinct) String() string { return fmt.Sprintf("Distinct(%s)", o.Inner) }

func (o *Service) String() string {
	if o.Silent {
		return fmt.Sprintf("Service(SILENT %s, %s)", o.Endpoint, o.Pattern)
	}
	return fmt.Sprintf("Service(%s, %s)", o.Endpoint, o.Pattern)
}

func (o *Project) String() string {
	return fmt.Sprintf("Project(%s, %s)", strings.Join(o.Vars, " "), o.Inner)
}

func (o *OrderBy) String() string {
	parts := make([]string, len(o.Conditions))
	for i, c := range o.Conditions {
		parts[i] = c.String()
	}
	return fmt.Sprintf("OrderBy(%s, %s)", strings.Join(parts, " "), o.Inner)
}

func (o *Slice) String() string {
	return fmt.Sprintf("Slice(%d, %d, %s)", o.Offset, o.Limit, o.Inner)
}

func (o *ZeroLengthPath) String() string {
	return fmt.Sprintf("ZeroLengthPath(%s, %s)", o.Subject, o.Object)
}

func (o *ZeroOrMorePath) String() string {
	return fmt.Sprintf("ZeroOrMorePath(%s, %s, %s)", o.Subject, o.Path, o.Object)
}

func (o *OneOrMorePath) String() string {
	return fmt.Sprintf("OneOrMorePath(%s, %s, %s)", o.Subject, o.Path, o.Object)
}

func (o *NegatedPropertySet) String() string {
	set := &patterns.NegatedSet{Properties: o.Properties, Inverse: o.Inverse}
	return fmt.Sprintf("NegatedPropertySet(%s, %s, %s)", o.Subject, set, o.Object)
}

// IsEmptyBGP reports whether op is a BGP without patterns, which
// evaluates to the Identity multiset
func IsEmptyBGP(op Operator) bool {
	bgp, ok := op.(*BGP)
	return ok && len(bgp.Patterns) == 0
}

func itemNames(items ...patterns.PatternItem) []string {
	var names []string
	for _, item := range items {
		if name := item.VariableName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func distinct(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, list := range lists {
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
