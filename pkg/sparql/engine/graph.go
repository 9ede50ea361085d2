package engine

import (
	"context"
	"fmt"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/algebra"
	"github.com/aleksaelezovic/trimem/pkg/sparql/expression"
	"github.com/aleksaelezovic/trimem/pkg/sparql/multiset"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
)

// evalGraph evaluates the inner operator against a named graph. A
// variable graph name ranges over the named graphs, or over the names
// bound in every hint solution when there are any.
func (e *Engine) evalGraph(ctx context.Context, op *algebra.Graph, st state) (*multiset.Multiset, error) {
	if st.dataset == nil {
		return multiset.Null(op.Variables()...), nil
	}

	if op.Name.IsFixed() {
		src, ok := st.dataset.NamedGraph(op.Name.Term())
		if !ok {
			return multiset.Null(op.Variables()...), nil
		}
		return e.eval(ctx, op.Inner, st.withData(src))
	}

	name := op.Name.VariableName()
	names := st.dataset.GraphNames()
	if !st.hint.IsIdentity() && st.hint.BindsEverywhere(name) {
		names = st.hint.Values(name)
	}

	result := multiset.Null(op.Variables()...)
	for _, graphName := range names {
		src, ok := st.dataset.NamedGraph(graphName)
		if !ok {
			continue
		}
		inner, err := e.eval(ctx, op.Inner, st.withData(src))
		if err != nil {
			return nil, err
		}
		result = result.Union(bindAll(inner, name, graphName))
	}
	return result, nil
}

// evalService sends the pattern to each endpoint. A silent service turns
// a failure into the Identity multiset.
func (e *Engine) evalService(ctx context.Context, op *algebra.Service, st state) (*multiset.Multiset, error) {
	var endpoints []rdf.Term
	name := op.Endpoint.VariableName()
	switch {
	case op.Endpoint.IsFixed():
		endpoints = []rdf.Term{op.Endpoint.Term()}
	case !st.hint.IsIdentity() && st.hint.BindsEverywhere(name):
		endpoints = st.hint.Values(name)
	default:
		return nil, fmt.Errorf("%w: SERVICE endpoint %s is not bound", ErrQuery, op.Endpoint)
	}

	result := multiset.Null(op.Variables()...)
	for _, endpoint := range endpoints {
		solutions, err := e.callService(ctx, endpoint, op.Pattern)
		if err != nil {
			if !op.Silent {
				return nil, err
			}
			e.logger.Warn("silent service failed", "endpoint", endpoint.String(), "error", err)
			solutions = multiset.Identity()
		}
		if name != "" {
			solutions = bindAll(solutions, name, endpoint)
		}
		result = result.Union(solutions)
	}
	return result, nil
}

func (e *Engine) callService(ctx context.Context, endpoint rdf.Term, pattern *patterns.GraphPattern) (*multiset.Multiset, error) {
	if e.opts.Service == nil {
		return nil, fmt.Errorf("%w: %s: no service executor configured", ErrServiceUnavailable, endpoint)
	}
	result, err := e.opts.Service.Execute(ctx, endpoint, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrServiceUnavailable, endpoint, err)
	}
	if result == nil {
		return multiset.Null(), nil
	}
	return result, nil
}

// bindAll binds name to value in every solution of m, dropping solutions
// that bind name to something else
func bindAll(m *multiset.Multiset, name string, value rdf.Term) *multiset.Multiset {
	if m.IsNull() {
		return multiset.Null(append(m.Variables(), name)...)
	}
	result := multiset.New(append(m.Variables(), name)...)
	for _, s := range m.Sets() {
		if bound, ok := s.Get(name); ok {
			if bound.Equals(value) {
				result.Add(s.Copy())
			}
			continue
		}
		extended := s.Copy()
		extended.Add(name, value)
		result.Add(extended)
	}
	if result.IsEmpty() {
		return multiset.Null(result.Variables()...)
	}
	return result
}

func (e *Engine) evalOrderBy(ctx context.Context, op *algebra.OrderBy, st state) (*multiset.Multiset, error) {
	inner, err := e.eval(ctx, op.Inner, st)
	if err != nil {
		return nil, err
	}
	return inner.Sort(func(a, b *multiset.Set) int {
		for _, cond := range op.Conditions {
			c := expression.CompareForOrder(orderValue(cond.Expression, a), orderValue(cond.Expression, b))
			if cond.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}), nil
}

// orderValue is the sort key of s; errors sort as unbound
func orderValue(expr expression.Expression, s *multiset.Set) rdf.Term {
	value, err := expr.Evaluate(s)
	if err != nil {
		return nil
	}
	return value
}
