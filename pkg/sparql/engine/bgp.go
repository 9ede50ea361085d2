package engine

import (
	"context"
	"fmt"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/algebra"
	"github.com/aleksaelezovic/trimem/pkg/sparql/multiset"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
	"github.com/aleksaelezovic/trimem/pkg/store"
)

// evalBGP evaluates the patterns in order, each against the solutions
// produced by the ones before it
func (e *Engine) evalBGP(ctx context.Context, bgp *algebra.BGP, st state) (*multiset.Multiset, error) {
	current := multiset.Identity()
	for _, p := range bgp.Patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := e.evalPattern(ctx, p, current, st)
		if err != nil {
			return nil, err
		}
		current = next
		if current.IsNull() {
			break
		}
	}
	return current, nil
}

// evalPattern evaluates one element of a basic graph pattern. current
// holds the solutions so far; while it is Identity the hint of st stands
// in for binding push-down.
func (e *Engine) evalPattern(ctx context.Context, p patterns.Pattern, current *multiset.Multiset, st state) (*multiset.Multiset, error) {
	hint := current
	if hint.IsIdentity() {
		hint = st.hint
	}

	switch p := p.(type) {
	case *patterns.TriplePattern:
		matches, err := e.matchTriplePattern(p, st.data, hint)
		if err != nil {
			return nil, err
		}
		return current.Join(matches), nil

	case *patterns.FilterPattern:
		return applyFilter(p.Expression, current.Clone()), nil

	case *patterns.AssignmentPattern:
		return applyAssignment(p, current)

	case *patterns.SubQueryPattern:
		if current.IsEmpty() {
			return current, nil
		}
		result, err := e.evalSubQuery(ctx, p, st.withHint(hint))
		if err != nil {
			return nil, err
		}
		return current.Join(result), nil

	case *patterns.PropertyPathPattern:
		op, err := algebra.TransformPath(p.Subject, p.Path, p.Object, e.PatternOptions()...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		result, err := e.eval(ctx, op, st.withHint(hint))
		if err != nil {
			return nil, err
		}
		return current.Join(result), nil

	case *patterns.PropertyFunctionPattern:
		result, err := e.callPropertyFunction(ctx, p, st.data, current)
		if err != nil {
			return nil, err
		}
		return current.Join(result), nil

	default:
		return nil, fmt.Errorf("%w: unsupported pattern %T", ErrQuery, p)
	}
}

func (e *Engine) evalSubQuery(ctx context.Context, p *patterns.SubQueryPattern, st state) (*multiset.Multiset, error) {
	op, err := e.compileQuery(p.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSubQuery, p.Query, err)
	}
	result, err := e.eval(ctx, op, st)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSubQuery, p.Query, err)
	}
	return result, nil
}

func (e *Engine) callPropertyFunction(ctx context.Context, p *patterns.PropertyFunctionPattern, data store.TripleSource, input *multiset.Multiset) (*multiset.Multiset, error) {
	name := ""
	if iri, ok := p.Function.(*rdf.NamedNode); ok {
		name = iri.IRI
	}
	fn, ok := e.opts.PropertyFunctions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPropertyFunction, p.Function)
	}
	result, err := fn(ctx, data, p, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, p.Function, err)
	}
	return result, nil
}

// matchTriplePattern returns the solutions of tp alone. Candidate triples
// come from the lookup fixed by the index type, unless a variable is
// bound in every hint solution, in which case the distinct bound values
// are looked up one by one.
func (e *Engine) matchTriplePattern(tp *patterns.TriplePattern, data store.TripleSource, hint *multiset.Multiset) (*multiset.Multiset, error) {
	if tp.IndexType() == patterns.NoVariables {
		t, _ := tp.Triple()
		if data.Contains(t) {
			return multiset.Identity(), nil
		}
		return multiset.Null(), nil
	}

	candidates, err := e.candidates(tp, data, hint)
	if err != nil {
		return nil, err
	}

	items := tp.Items()
	result := multiset.New(tp.Variables()...)
	for _, t := range candidates {
		if s, ok := bindItems(items[:], []rdf.Term{t.Subject, t.Predicate, t.Object}); ok {
			result.Add(s)
		}
	}
	if result.IsEmpty() {
		return multiset.Null(tp.Variables()...), nil
	}
	return result, nil
}

func (e *Engine) candidates(tp *patterns.TriplePattern, data store.TripleSource, hint *multiset.Multiset) ([]*rdf.Triple, error) {
	items := tp.Items()
	fixed := [3]rdf.Term{items[0].Term(), items[1].Term(), items[2].Term()}

	// Push-down: the first position, in subject, object, predicate order,
	// holding a variable every hint solution binds
	for _, pos := range [...]int{0, 2, 1} {
		item := items[pos]
		name := item.VariableName()
		if name == "" || item.Repeated || hint.IsIdentity() || !hint.BindsEverywhere(name) {
			continue
		}

		var triples []*rdf.Triple
		for _, value := range hint.Values(name) {
			terms := fixed
			terms[pos] = value
			triples = append(triples, lookup(data, terms, e.opts.FullIndexing)...)
		}
		return triples, nil
	}

	s, p, o := fixed[0], fixed[1], fixed[2]
	switch tp.IndexType() {
	case patterns.SubjectIndex:
		return data.WithSubject(s), nil
	case patterns.PredicateIndex:
		return data.WithPredicate(p), nil
	case patterns.ObjectIndex:
		return data.WithObject(o), nil
	case patterns.SubjectPredicateIndex, patterns.SubjectObjectIndex, patterns.PredicateObjectIndex:
		if !e.opts.FullIndexing {
			return nil, fmt.Errorf("%w: %s needs full indexing for a %s lookup", ErrQuery, tp, tp.IndexType())
		}
		switch tp.IndexType() {
		case patterns.SubjectPredicateIndex:
			return data.WithSubjectPredicate(s, p), nil
		case patterns.SubjectObjectIndex:
			return data.WithSubjectObject(s, o), nil
		default:
			return data.WithPredicateObject(p, o), nil
		}
	default:
		return data.Triples(), nil
	}
}

// lookup picks the collection method for the non-nil positions of terms.
// Without full indexing two-position lookups use the subject or object
// index and leave the second position to the binding check.
func lookup(data store.TripleSource, terms [3]rdf.Term, full bool) []*rdf.Triple {
	s, p, o := terms[0], terms[1], terms[2]
	switch {
	case s != nil && p != nil && o != nil:
		t := rdf.NewTriple(s, p, o)
		if data.Contains(t) {
			return []*rdf.Triple{t}
		}
		return nil
	case s != nil && p != nil && full:
		return data.WithSubjectPredicate(s, p)
	case s != nil && o != nil && full:
		return data.WithSubjectObject(s, o)
	case p != nil && o != nil && full:
		return data.WithPredicateObject(p, o)
	case s != nil:
		return data.WithSubject(s)
	case o != nil:
		return data.WithObject(o)
	case p != nil:
		return data.WithPredicate(p)
	default:
		return data.Triples()
	}
}

// bindItems matches terms against items position by position. Fixed
// items must equal their term, a repeated variable must equal the term
// of its first occurrence, and every other variable is bound.
func bindItems(items []patterns.PatternItem, terms []rdf.Term) (*multiset.Set, bool) {
	s := multiset.NewSet()
	for i, item := range items {
		term := terms[i]
		if item.IsFixed() {
			if !item.Term().Equals(term) {
				return nil, false
			}
			continue
		}
		name := item.VariableName()
		if bound, ok := s.Get(name); ok {
			if !bound.Equals(term) {
				return nil, false
			}
			continue
		}
		s.Add(name, term)
	}
	return s, true
}
