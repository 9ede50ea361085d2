// Package expression evaluates SPARQL expressions against a solution.
//
// Evaluation returns an error for per-solution failures such as unbound
// variables or type errors. Callers decide what such an error means for
// the solution: FILTER drops it, BIND leaves the variable unbound.
package expression

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

var (
	ErrUnbound   = errors.New("unbound variable")
	ErrTypeError = errors.New("type error")
)

// Solution gives read access to the variable bindings of one solution
type Solution interface {
	Get(name string) (rdf.Term, bool)
}

// Expression is a SPARQL expression tree node
type Expression interface {
	// Evaluate computes the value of the expression for sol
	Evaluate(sol Solution) (rdf.Term, error)

	// Variables returns the sorted, distinct variables the expression
	// reads
	Variables() []string

	String() string
}

// EffectiveBooleanValue evaluates expr and reduces the result to a boolean
func EffectiveBooleanValue(expr Expression, sol Solution) (bool, error) {
	term, err := expr.Evaluate(sol)
	if err != nil {
		return false, err
	}
	return EBV(term)
}

// IsGround reports whether expr reads no variables
func IsGround(expr Expression) bool {
	return len(expr.Variables()) == 0
}

// EmptySolution binds nothing
var EmptySolution Solution = emptySolution{}

type emptySolution struct{}

func (emptySolution) Get(string) (rdf.Term, bool) { return nil, false }

// Variable reads the value bound to a variable
type Variable struct {
	Name string
}

func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) Evaluate(sol Solution) (rdf.Term, error) {
	value, ok := sol.Get(v.Name)
	if !ok {
		return nil, fmt.Errorf("%w: ?%s", ErrUnbound, v.Name)
	}
	return value, nil
}

func (v *Variable) Variables() []string {
	return []string{v.Name}
}

func (v *Variable) String() string {
	return "?" + v.Name
}

// Constant is a fixed term
type Constant struct {
	Term rdf.Term
}

func NewConstant(term rdf.Term) *Constant {
	return &Constant{Term: term}
}

func (c *Constant) Evaluate(Solution) (rdf.Term, error) {
	if c.Term == nil {
		return nil, fmt.Errorf("%w: nil constant", ErrTypeError)
	}
	return c.Term, nil
}

func (c *Constant) Variables() []string {
	return nil
}

func (c *Constant) String() string {
	if c.Term == nil {
		return "()"
	}
	return c.Term.String()
}

// In tests whether the value of Expr equals one of Values
type In struct {
	Expr   Expression
	Values []Expression
	Not    bool
}

func NewIn(expr Expression, not bool, values ...Expression) *In {
	return &In{Expr: expr, Values: values, Not: not}
}

// Evaluate implements x IN (e1, e2, ...) as (x = e1) || (x = e2) || ...
func (in *In) Evaluate(sol Solution) (rdf.Term, error) {
	left, err := in.Expr.Evaluate(sol)
	if err != nil {
		return nil, err
	}

	found := false
	for _, valueExpr := range in.Values {
		right, err := valueExpr.Evaluate(sol)
		if err != nil {
			// If evaluation fails for any value, skip it
			continue
		}
		if termsEqualValue(left, right) {
			found = true
			break
		}
	}

	if in.Not {
		return rdf.NewBooleanLiteral(!found), nil
	}
	return rdf.NewBooleanLiteral(found), nil
}

func (in *In) Variables() []string {
	return collectVariables(append([]Expression{in.Expr}, in.Values...)...)
}

func (in *In) String() string {
	values := make([]string, len(in.Values))
	for i, v := range in.Values {
		values[i] = v.String()
	}
	op := "IN"
	if in.Not {
		op = "NOT IN"
	}
	return fmt.Sprintf("(%s %s (%s))", in.Expr, op, strings.Join(values, ", "))
}

// And combines expressions into one conjunction. Nil operands are
// skipped; a single operand is returned unchanged.
func And(exprs ...Expression) Expression {
	var operands []Expression
	for _, e := range exprs {
		if e != nil {
			operands = append(operands, e)
		}
	}
	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	}
	result := operands[0]
	for _, e := range operands[1:] {
		result = NewBinary(OpAnd, result, e)
	}
	return result
}

func collectVariables(exprs ...Expression) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, e := range exprs {
		if e == nil {
			continue
		}
		for _, name := range e.Variables() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
