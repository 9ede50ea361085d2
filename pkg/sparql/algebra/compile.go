package algebra

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
)

var ErrUnsupportedPath = errors.New("unsupported property path")

// Compile converts a graph pattern into an operator tree.
//
// The unplaced filter of an OPTIONAL group is not applied here: it scopes
// over the whole left join and is attached by the caller compiling the
// parent group.
func Compile(gp *patterns.GraphPattern) (Operator, error) {
	if gp == nil {
		return &BGP{}, nil
	}
	if gp.IsUnion() {
		return compileUnion(gp)
	}

	op := extend(&BGP{Patterns: gp.Patterns()}, gp.AssignmentsAfter(0))
	for i, child := range gp.Children() {
		var err error
		op, err = foldChild(op, child)
		if err != nil {
			return nil, err
		}
		op = extend(op, gp.AssignmentsAfter(i+1))
	}

	if gp.IsFiltered() && gp.Modifier() != patterns.Optional {
		op = &Filter{Inner: op, Expression: gp.Filter()}
	}
	return op, nil
}

func compileUnion(gp *patterns.GraphPattern) (Operator, error) {
	var op Operator
	for _, child := range gp.Children() {
		sub, err := Compile(child)
		if err != nil {
			return nil, err
		}
		if op == nil {
			op = sub
			continue
		}
		op = &Union{Left: op, Right: sub}
	}
	if op == nil {
		op = &BGP{}
	}
	if gp.IsFiltered() {
		op = &Filter{Inner: op, Expression: gp.Filter()}
	}
	return op, nil
}

// foldChild combines the operator built so far with one child group
func foldChild(op Operator, child *patterns.GraphPattern) (Operator, error) {
	if child.IsService() {
		service := &Service{Endpoint: child.Specifier(), Pattern: child, Silent: child.IsSilent()}
		return join(op, service), nil
	}

	sub, err := Compile(child)
	if err != nil {
		return nil, err
	}

	switch child.Modifier() {
	case patterns.Graph:
		return join(op, &Graph{Inner: sub, Name: child.Specifier()}), nil
	case patterns.Optional:
		return &LeftJoin{Left: op, Right: sub, Filter: child.Filter()}, nil
	case patterns.Exists:
		return &ExistsJoin{Left: op, Right: sub, MustExist: true}, nil
	case patterns.NotExists:
		return &ExistsJoin{Left: op, Right: sub, MustExist: false}, nil
	case patterns.Minus:
		return &Minus{Left: op, Right: sub}, nil
	default:
		return join(op, sub), nil
	}
}

func extend(op Operator, assignments []*patterns.AssignmentPattern) Operator {
	for _, a := range assignments {
		op = &Extend{Inner: op, Assignment: a}
	}
	return op
}

// join skips the empty BGP, which is the identity of Join
func join(left, right Operator) Operator {
	if IsEmptyBGP(left) {
		return right
	}
	if IsEmptyBGP(right) {
		return left
	}
	return &Join{Left: left, Right: right}
}

// CompileQuery compiles a subquery with its solution modifiers
func CompileQuery(q *patterns.Query) (Operator, error) {
	op, err := Compile(q.Where)
	if err != nil {
		return nil, err
	}
	if len(q.OrderBy) > 0 {
		op = &OrderBy{Inner: op, Conditions: q.OrderBy}
	}
	op = &Project{Inner: op, Vars: q.ProjectedVariables()}
	if q.Distinct {
		op = &Distinct{Inner: op}
	}
	if q.IsSliced() {
		op = &Slice{Inner: op, Offset: q.Offset, Limit: q.Limit}
	}
	return op, nil
}

var pathVariables atomic.Uint64

// freshItem returns a hidden variable for an intermediate path node
func freshItem() patterns.PatternItem {
	return patterns.Blank(fmt.Sprintf("path%d", pathVariables.Add(1)))
}

// TransformPath rewrites a property path between subject and object into
// an operator tree. Intermediate nodes of sequences are bound to hidden
// variables. The options apply to every triple pattern created.
func TransformPath(subject patterns.PatternItem, path patterns.Path, object patterns.PatternItem, opts ...patterns.Option) (Operator, error) {
	switch p := path.(type) {
	case *patterns.Property:
		tp, err := patterns.NewTriplePattern(subject, patterns.Node(p.Predicate), object, opts...)
		if err != nil {
			return nil, err
		}
		return &BGP{Patterns: []patterns.Pattern{tp}}, nil

	case *patterns.Inverse:
		return TransformPath(object, p.Path, subject, opts...)

	case *patterns.Sequence:
		mid := freshItem()
		left, err := TransformPath(subject, p.Left, mid, opts...)
		if err != nil {
			return nil, err
		}
		right, err := TransformPath(mid, p.Right, object, opts...)
		if err != nil {
			return nil, err
		}
		return &Join{Left: left, Right: right}, nil

	case *patterns.Alternative:
		left, err := TransformPath(subject, p.Left, object, opts...)
		if err != nil {
			return nil, err
		}
		right, err := TransformPath(subject, p.Right, object, opts...)
		if err != nil {
			return nil, err
		}
		return &Union{Left: left, Right: right}, nil

	case *patterns.ZeroOrOne:
		step, err := TransformPath(subject, p.Path, object, opts...)
		if err != nil {
			return nil, err
		}
		zero := &ZeroLengthPath{Subject: subject, Object: object}
		return &Distinct{Inner: &Union{Left: zero, Right: step}}, nil

	case *patterns.ZeroOrMore:
		return &ZeroOrMorePath{Subject: subject, Path: p.Path, Object: object}, nil

	case *patterns.OneOrMore:
		return &OneOrMorePath{Subject: subject, Path: p.Path, Object: object}, nil

	case *patterns.Cardinality:
		if p.N < 0 {
			return nil, fmt.Errorf("%w: negative cardinality %d", ErrUnsupportedPath, p.N)
		}
		if p.N == 0 {
			return &ZeroLengthPath{Subject: subject, Object: object}, nil
		}
		seq := p.Path
		for i := 1; i < p.N; i++ {
			seq = &patterns.Sequence{Left: seq, Right: p.Path}
		}
		return TransformPath(subject, seq, object, opts...)

	case *patterns.NegatedSet:
		return &NegatedPropertySet{
			Subject:    subject,
			Object:     object,
			Properties: p.Properties,
			Inverse:    p.Inverse,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPath, path)
	}
}
