package engine

import (
	"fmt"

	"github.com/aleksaelezovic/trimem/pkg/sparql/expression"
	"github.com/aleksaelezovic/trimem/pkg/sparql/multiset"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
)

// passes reports whether expr is true for s. Evaluation errors count as
// false.
func passes(expr expression.Expression, s expression.Solution) bool {
	ok, err := expression.EffectiveBooleanValue(expr, s)
	return err == nil && ok
}

// applyFilter narrows input in place.
//
// A Null input stays Null. On Identity a filter reading variables is out
// of scope and ignored, while a ground filter is evaluated once and
// collapses the result to Null unless it is true.
func applyFilter(expr expression.Expression, input *multiset.Multiset) *multiset.Multiset {
	switch {
	case input.IsNull():
		return input
	case input.IsIdentity():
		if !expression.IsGround(expr) {
			return input
		}
		if passes(expr, expression.EmptySolution) {
			return input
		}
		return multiset.Null()
	}
	return input.Filter(func(s *multiset.Set) bool {
		return passes(expr, s)
	})
}

// applyAssignment evaluates a BIND or LET over input and returns a new
// multiset
func applyAssignment(a *patterns.AssignmentPattern, input *multiset.Multiset) (*multiset.Multiset, error) {
	if a.Kind == patterns.AssignLet {
		return applyLet(a, input), nil
	}
	return applyBind(a, input)
}

// applyBind never removes a solution: a failed evaluation leaves the
// variable unbound. Binding a variable that some input solution already
// binds is a query error.
func applyBind(a *patterns.AssignmentPattern, input *multiset.Multiset) (*multiset.Multiset, error) {
	if input.IsNull() {
		return input, nil
	}
	if input.IsIdentity() {
		s := multiset.NewSet()
		value, err := a.Expression.Evaluate(s)
		if err != nil {
			value = nil
		}
		s.Add(a.Variable, value)
		result := multiset.New(a.Variable)
		result.Add(s)
		return result, nil
	}

	for _, s := range input.Sets() {
		if s.Contains(a.Variable) {
			return nil, fmt.Errorf("%w: BIND of ?%s which is already in scope", ErrQuery, a.Variable)
		}
	}

	result := multiset.New(append(input.Variables(), a.Variable)...)
	for _, s := range input.Sets() {
		extended := s.Copy()
		value, err := a.Expression.Evaluate(s)
		if err != nil {
			value = nil
		}
		extended.Add(a.Variable, value)
		result.Add(extended)
	}
	return result, nil
}

// applyLet removes a solution when evaluation fails or when the variable
// is already bound to a different value. Otherwise the solution keeps
// its binding or gains the new one.
func applyLet(a *patterns.AssignmentPattern, input *multiset.Multiset) *multiset.Multiset {
	if input.IsNull() {
		return input
	}
	if input.IsIdentity() {
		value, err := a.Expression.Evaluate(expression.EmptySolution)
		if err != nil {
			return multiset.Null(a.Variable)
		}
		s := multiset.NewSet()
		s.Add(a.Variable, value)
		result := multiset.New(a.Variable)
		result.Add(s)
		return result
	}

	result := multiset.New(append(input.Variables(), a.Variable)...)
	for _, s := range input.Sets() {
		value, err := a.Expression.Evaluate(s)
		if err != nil {
			continue
		}
		if bound, ok := s.Get(a.Variable); ok {
			if !bound.Equals(value) {
				continue
			}
			result.Add(s.Copy())
			continue
		}
		extended := s.Copy()
		extended.Add(a.Variable, value)
		result.Add(extended)
	}
	if result.IsEmpty() {
		return multiset.Null(result.Variables()...)
	}
	return result
}
