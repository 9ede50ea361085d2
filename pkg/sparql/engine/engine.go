// Package engine evaluates algebra trees against a dataset.
//
// Evaluation is a synchronous depth-first walk. Every operator produces
// its own solutions; the solutions already computed by the enclosing
// operator are passed down only as a hint that lets triple lookups
// enumerate the values bound there instead of scanning the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/algebra"
	"github.com/aleksaelezovic/trimem/pkg/sparql/multiset"
	"github.com/aleksaelezovic/trimem/pkg/sparql/optimizer"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
	"github.com/aleksaelezovic/trimem/pkg/store"
)

var (
	ErrQuery                   = errors.New("query error")
	ErrSubQuery                = errors.New("subquery failed")
	ErrServiceUnavailable      = errors.New("service unavailable")
	ErrUnknownPropertyFunction = errors.New("unknown property function")
)

// ServiceExecutor runs a SERVICE pattern against a remote endpoint
type ServiceExecutor interface {
	Execute(ctx context.Context, endpoint rdf.Term, pattern *patterns.GraphPattern) (*multiset.Multiset, error)
}

// PropertyFunction computes the solutions of a property function call.
// input holds the solutions computed before the call in its basic graph
// pattern; the result is joined onto them.
type PropertyFunction func(ctx context.Context, data store.TripleSource, call *patterns.PropertyFunctionPattern, input *multiset.Multiset) (*multiset.Multiset, error)

// Options configures an Engine
type Options struct {
	// FullIndexing allows compound index lookups. Without it a pattern
	// classified for a compound index is rejected.
	FullIndexing bool `yaml:"full_indexing"`

	// Optimise reorders graph patterns before compilation
	Optimise bool `yaml:"optimise"`

	Logger            *slog.Logger                `yaml:"-"`
	Service           ServiceExecutor             `yaml:"-"`
	PropertyFunctions map[string]PropertyFunction `yaml:"-"`
}

// DefaultOptions returns the default configuration
func DefaultOptions() Options {
	return Options{
		FullIndexing: true,
		Optimise:     true,
	}
}

// Engine evaluates algebra. It holds no per-query state and may be used
// by concurrent queries.
type Engine struct {
	opts      Options
	logger    *slog.Logger
	optimizer *optimizer.Optimizer
}

// New creates an engine
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		opts:      opts,
		logger:    logger,
		optimizer: optimizer.NewOptimizer(logger),
	}
}

// PatternOptions returns the triple pattern options that match the
// engine's indexing. Property paths are rewritten with them.
func (e *Engine) PatternOptions() []patterns.Option {
	return []patterns.Option{patterns.WithFullIndexing(e.opts.FullIndexing)}
}

// Context is the state of one evaluation: the data read and the
// multisets flowing in and out
type Context struct {
	Data           store.TripleSource
	Dataset        store.Dataset
	InputMultiset  *multiset.Multiset
	OutputMultiset *multiset.Multiset
}

// NewContext creates a context reading the default graph of ds, starting
// from the Identity multiset
func NewContext(ds store.Dataset) *Context {
	return &Context{
		Data:          ds.DefaultGraph(),
		Dataset:       ds,
		InputMultiset: multiset.Identity(),
	}
}

// state is what an operator evaluation reads
type state struct {
	data    store.TripleSource
	dataset store.Dataset
	hint    *multiset.Multiset
}

func (s state) withHint(hint *multiset.Multiset) state {
	s.hint = hint
	return s
}

func (s state) withData(data store.TripleSource) state {
	s.data = data
	return s
}

func (ec *Context) state() state {
	input := ec.InputMultiset
	if input == nil {
		input = multiset.Identity()
	}
	return state{data: ec.Data, dataset: ec.Dataset, hint: input}
}

// Evaluate evaluates op, joins the result onto ec.InputMultiset and
// stores it in ec.OutputMultiset
func (e *Engine) Evaluate(ctx context.Context, op algebra.Operator, ec *Context) (*multiset.Multiset, error) {
	if ec.Data == nil {
		return nil, fmt.Errorf("%w: no data to evaluate against", ErrQuery)
	}
	st := ec.state()
	result, err := e.eval(ctx, op, st)
	if err != nil {
		return nil, err
	}
	if !st.hint.IsIdentity() {
		result = st.hint.Join(result)
	}
	ec.OutputMultiset = result
	return result, nil
}

// EvaluatePattern evaluates a single basic graph pattern element with
// ec.InputMultiset as the solutions computed so far
func (e *Engine) EvaluatePattern(ctx context.Context, p patterns.Pattern, ec *Context) (*multiset.Multiset, error) {
	if ec.Data == nil {
		return nil, fmt.Errorf("%w: no data to evaluate against", ErrQuery)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := ec.state()
	result, err := e.evalPattern(ctx, p, st.hint, st.withHint(multiset.Identity()))
	if err != nil {
		return nil, err
	}
	ec.OutputMultiset = result
	return result, nil
}

// EvaluateGraphPattern optimises, compiles and evaluates gp
func (e *Engine) EvaluateGraphPattern(ctx context.Context, gp *patterns.GraphPattern, ec *Context) (*multiset.Multiset, error) {
	if e.opts.Optimise {
		gp = e.optimizer.Optimize(gp)
	}
	op, err := algebra.Compile(gp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return e.Evaluate(ctx, op, ec)
}

// EvaluateQuery optimises, compiles and evaluates q
func (e *Engine) EvaluateQuery(ctx context.Context, q *patterns.Query, ec *Context) (*multiset.Multiset, error) {
	op, err := e.compileQuery(q)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, op, ec)
}

func (e *Engine) compileQuery(q *patterns.Query) (algebra.Operator, error) {
	if e.opts.Optimise {
		q = e.optimizer.OptimizeQuery(q)
	}
	op, err := algebra.CompileQuery(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return op, nil
}

// eval evaluates one operator. Cancellation is checked before every
// operator.
func (e *Engine) eval(ctx context.Context, op algebra.Operator, st state) (*multiset.Multiset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := e.dispatch(ctx, op, st)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("evaluated operator",
		"operator", fmt.Sprintf("%T", op),
		"kind", result.Kind().String(),
		"rows", result.Count())
	return result, nil
}

func (e *Engine) dispatch(ctx context.Context, op algebra.Operator, st state) (*multiset.Multiset, error) {
	switch op := op.(type) {
	case *algebra.BGP:
		return e.evalBGP(ctx, op, st)
	case *algebra.Join:
		left, err := e.eval(ctx, op.Left, st)
		if err != nil || left.IsNull() {
			return left, err
		}
		// The right side is hinted with left only. Left was evaluated
		// under st.hint already, and joining the two hints costs a cross
		// product when they share no variable.
		right, err := e.eval(ctx, op.Right, st.withHint(left))
		if err != nil {
			return nil, err
		}
		return left.Join(right), nil
	case *algebra.LeftJoin:
		return e.evalLeftJoin(ctx, op, st)
	case *algebra.Union:
		left, err := e.eval(ctx, op.Left, st)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, op.Right, st)
		if err != nil {
			return nil, err
		}
		return left.Union(right), nil
	case *algebra.Minus:
		return e.evalMinus(ctx, op, st)
	case *algebra.ExistsJoin:
		left, err := e.eval(ctx, op.Left, st)
		if err != nil || left.IsNull() {
			return left, err
		}
		right, err := e.eval(ctx, op.Right, st.withHint(left))
		if err != nil {
			return nil, err
		}
		return left.ExistsJoin(right, op.MustExist), nil
	case *algebra.Filter:
		inner, err := e.eval(ctx, op.Inner, st)
		if err != nil {
			return nil, err
		}
		return applyFilter(op.Expression, inner), nil
	case *algebra.Extend:
		inner, err := e.eval(ctx, op.Inner, st)
		if err != nil {
			return nil, err
		}
		return applyAssignment(op.Assignment, inner)
	case *algebra.Graph:
		return e.evalGraph(ctx, op, st)
	case *algebra.Service:
		return e.evalService(ctx, op, st)
	case *algebra.Project:
		return e.evalProject(ctx, op, st)
	case *algebra.Distinct:
		inner, err := e.eval(ctx, op.Inner, st)
		if err != nil {
			return nil, err
		}
		return inner.Distinct(), nil
	case *algebra.OrderBy:
		return e.evalOrderBy(ctx, op, st)
	case *algebra.Slice:
		// Restricting the input of a slice would change which rows it keeps
		inner, err := e.eval(ctx, op.Inner, st.withHint(multiset.Identity()))
		if err != nil {
			return nil, err
		}
		return inner.Slice(op.Offset, op.Limit), nil
	case *algebra.ZeroLengthPath:
		return e.evalZeroLength(op, st)
	case *algebra.ZeroOrMorePath:
		return e.evalClosure(ctx, op.Subject, op.Path, op.Object, true, st)
	case *algebra.OneOrMorePath:
		return e.evalClosure(ctx, op.Subject, op.Path, op.Object, false, st)
	case *algebra.NegatedPropertySet:
		return e.evalNegatedSet(op, st)
	default:
		return nil, fmt.Errorf("%w: unsupported operator %T", ErrQuery, op)
	}
}

func (e *Engine) evalLeftJoin(ctx context.Context, op *algebra.LeftJoin, st state) (*multiset.Multiset, error) {
	left, err := e.eval(ctx, op.Left, st)
	if err != nil || left.IsNull() {
		return left, err
	}
	right, err := e.eval(ctx, op.Right, st.withHint(left))
	if err != nil {
		return nil, err
	}

	var keep func(*multiset.Set) bool
	if op.Filter != nil {
		keep = func(s *multiset.Set) bool {
			return passes(op.Filter, s)
		}
	}
	return left.LeftJoin(right, keep), nil
}

// evalMinus skips the right side when it cannot share a variable with the
// left solutions
func (e *Engine) evalMinus(ctx context.Context, op *algebra.Minus, st state) (*multiset.Multiset, error) {
	left, err := e.eval(ctx, op.Left, st)
	if err != nil || left.IsEmpty() {
		return left, err
	}

	shared := false
	for _, v := range op.Right.Variables() {
		if left.ContainsVariable(v) {
			shared = true
			break
		}
	}
	if !shared {
		e.logger.Debug("skipped disjoint minus", "right", op.Right.String())
		return left, nil
	}

	right, err := e.eval(ctx, op.Right, st.withHint(left))
	if err != nil {
		return nil, err
	}
	return left.Minus(right), nil
}

// evalProject limits the hint to the projected variables; the others are
// a different scope inside the projection
func (e *Engine) evalProject(ctx context.Context, op *algebra.Project, st state) (*multiset.Multiset, error) {
	hint := st.hint
	if !hint.IsIdentity() {
		hint = hint.Project(op.Vars)
	}
	inner, err := e.eval(ctx, op.Inner, st.withHint(hint))
	if err != nil {
		return nil, err
	}
	return inner.Project(op.Vars), nil
}
