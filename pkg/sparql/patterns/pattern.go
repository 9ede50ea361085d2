package patterns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/expression"
)

// Pattern is an element of a basic graph pattern. The set of
// implementations is closed: TriplePattern, FilterPattern,
// AssignmentPattern, PropertyPathPattern, SubQueryPattern and
// PropertyFunctionPattern.
type Pattern interface {
	// Variables returns the variables the pattern mentions, sorted
	Variables() []string
	String() string

	pattern()
}

// FilterPattern restricts solutions by an expression
type FilterPattern struct {
	Expression expression.Expression
}

func NewFilterPattern(expr expression.Expression) *FilterPattern {
	return &FilterPattern{Expression: expr}
}

func (f *FilterPattern) pattern() {}

func (f *FilterPattern) Variables() []string {
	return f.Expression.Variables()
}

func (f *FilterPattern) String() string {
	return "FILTER(" + f.Expression.String() + ")"
}

// AssignmentKind selects between BIND and LET semantics
type AssignmentKind int

const (
	// AssignBind never removes a solution. A failed evaluation leaves the
	// variable unbound and the variable must not already be in scope.
	AssignBind AssignmentKind = iota
	// AssignLet removes a solution whose existing binding disagrees with
	// the computed value or whose evaluation fails
	AssignLet
)

func (k AssignmentKind) String() string {
	if k == AssignLet {
		return "LET"
	}
	return "BIND"
}

// AssignmentPattern binds the value of an expression to a variable
type AssignmentPattern struct {
	Kind       AssignmentKind
	Variable   string
	Expression expression.Expression
}

// NewBind creates a BIND assignment
func NewBind(variable string, expr expression.Expression) *AssignmentPattern {
	return &AssignmentPattern{Kind: AssignBind, Variable: variable, Expression: expr}
}

// NewLet creates a LET assignment
func NewLet(variable string, expr expression.Expression) *AssignmentPattern {
	return &AssignmentPattern{Kind: AssignLet, Variable: variable, Expression: expr}
}

func (a *AssignmentPattern) pattern() {}

// Variables returns the variables the expression reads. The assigned
// variable is not included.
func (a *AssignmentPattern) Variables() []string {
	return a.Expression.Variables()
}

func (a *AssignmentPattern) String() string {
	if a.Kind == AssignLet {
		return fmt.Sprintf("LET(?%s := %s)", a.Variable, a.Expression)
	}
	return fmt.Sprintf("BIND(%s AS ?%s)", a.Expression, a.Variable)
}

// PropertyPathPattern connects subject and object through a path
type PropertyPathPattern struct {
	Subject PatternItem
	Path    Path
	Object  PatternItem
}

// NewPropertyPathPattern validates the path and creates the pattern
func NewPropertyPathPattern(subject PatternItem, path Path, object PatternItem) (*PropertyPathPattern, error) {
	if path == nil {
		return nil, fmt.Errorf("%w: missing path", ErrInvalidPattern)
	}
	return &PropertyPathPattern{Subject: subject, Path: path, Object: object}, nil
}

func (p *PropertyPathPattern) pattern() {}

func (p *PropertyPathPattern) Variables() []string {
	return itemVariables(p.Subject, p.Object)
}

func (p *PropertyPathPattern) String() string {
	return fmt.Sprintf("%s %s %s", p.Subject, p.Path, p.Object)
}

// SubQueryPattern embeds a nested query. The pattern is immutable; the
// engine optimises a copy of the query on every evaluation.
type SubQueryPattern struct {
	Query *Query
}

func NewSubQueryPattern(q *Query) *SubQueryPattern {
	return &SubQueryPattern{Query: q}
}

func (s *SubQueryPattern) pattern() {}

// Variables returns the variables the subquery projects
func (s *SubQueryPattern) Variables() []string {
	return s.Query.ProjectedVariables()
}

func (s *SubQueryPattern) String() string {
	return "{ " + s.Query.String() + " }"
}

// PropertyFunctionPattern calls a registered function with subject and
// object argument lists
type PropertyFunctionPattern struct {
	Function rdf.Term
	Subjects []PatternItem
	Objects  []PatternItem
}

func NewPropertyFunctionPattern(function rdf.Term, subjects, objects []PatternItem) *PropertyFunctionPattern {
	return &PropertyFunctionPattern{Function: function, Subjects: subjects, Objects: objects}
}

func (f *PropertyFunctionPattern) pattern() {}

func (f *PropertyFunctionPattern) Variables() []string {
	items := append(append([]PatternItem(nil), f.Subjects...), f.Objects...)
	return itemVariables(items...)
}

func (f *PropertyFunctionPattern) String() string {
	return fmt.Sprintf("(%s) %s (%s)", joinItems(f.Subjects), f.Function, joinItems(f.Objects))
}

func itemVariables(items ...PatternItem) []string {
	seen := make(map[string]struct{})
	var vars []string
	for _, item := range items {
		name := item.VariableName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		vars = append(vars, name)
	}
	sort.Strings(vars)
	return vars
}

func joinItems(items []PatternItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, " ")
}
