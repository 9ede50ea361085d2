package patterns

import (
	"errors"
	"fmt"

	"github.com/aleksaelezovic/trimem/pkg/sparql/expression"
)

// builderState tracks where the next basic pattern goes
type builderState int

const (
	// stateOpen: the group's own basic graph pattern accepts patterns
	stateOpen builderState = iota
	// stateBroken: a child graph pattern or an assignment ended the
	// current basic graph pattern; the next pattern opens a new block
	stateBroken
	// stateBlock: patterns go to the block under the cursor
	stateBlock
)

// child is either a finished graph pattern or an open block
type child struct {
	built *GraphPattern
	block *Builder
}

// Builder assembles a GraphPattern.
//
// Basic patterns written after a child graph pattern must not be joined
// before it. The builder keeps a cursor on the current block: once a
// child is added the own basic graph pattern is closed, and the next
// basic pattern opens a new plain group child that receives the
// following patterns until the next child closes it in turn.
//
// Assignments close the current block the same way. Each one remembers
// how many children precede it and extends the solutions right after
// them, so later patterns join onto the assigned variable. Filters
// always scope over the whole group.
type Builder struct {
	modifier    Modifier
	specifier   PatternItem
	silent      bool
	options     []Option
	patterns    []Pattern
	filters     []*FilterPattern
	assignments []*AssignmentPattern
	after       map[*AssignmentPattern]int
	children    []child
	state       builderState
	cursor      *Builder
	errs        []error
}

// NewBuilder creates a builder for a plain group. Options apply to every
// triple pattern created through Triple.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{modifier: Group, options: opts}
}

// As sets the modifier of the group
func (b *Builder) As(m Modifier) *Builder {
	b.modifier = m
	return b
}

// OnGraph makes the group a GRAPH pattern over name
func (b *Builder) OnGraph(name PatternItem) *Builder {
	b.modifier = Graph
	b.specifier = name
	return b
}

// OnService makes the group a SERVICE pattern against endpoint
func (b *Builder) OnService(endpoint PatternItem, silent bool) *Builder {
	b.modifier = Service
	b.specifier = endpoint
	b.silent = silent
	return b
}

// Triple adds a triple pattern built from the items
func (b *Builder) Triple(subject, predicate, object PatternItem) *Builder {
	tp, err := NewTriplePattern(subject, predicate, object, b.options...)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	return b.AddPattern(tp)
}

// AddPattern adds a pattern. Filters go to the group scope and
// assignments close the current block; every other pattern goes to the
// current basic graph pattern.
func (b *Builder) AddPattern(p Pattern) *Builder {
	switch p := p.(type) {
	case nil:
		b.errs = append(b.errs, fmt.Errorf("%w: nil pattern", ErrInvalidPattern))
		return b
	case *FilterPattern:
		return b.Filter(p.Expression)
	case *AssignmentPattern:
		return b.addAssignment(p)
	}

	if b.modifier == Union {
		b.errs = append(b.errs, fmt.Errorf("%w: union takes only child groups, got %s", ErrInvalidPattern, p))
		return b
	}

	switch b.state {
	case stateOpen:
		b.patterns = append(b.patterns, p)
	case stateBroken:
		block := NewBuilder(b.options...)
		b.children = append(b.children, child{block: block})
		b.cursor = block
		b.state = stateBlock
		block.AddPattern(p)
	case stateBlock:
		b.cursor.AddPattern(p)
	}
	return b
}

// Filter adds a filter scoped over the whole group
func (b *Builder) Filter(expr expression.Expression) *Builder {
	if expr == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: nil filter", ErrInvalidPattern))
		return b
	}
	b.filters = append(b.filters, NewFilterPattern(expr))
	return b
}

// Bind adds BIND(expr AS ?variable)
func (b *Builder) Bind(variable string, expr expression.Expression) *Builder {
	return b.addAssignment(NewBind(variable, expr))
}

// Let adds LET(?variable := expr)
func (b *Builder) Let(variable string, expr expression.Expression) *Builder {
	return b.addAssignment(NewLet(variable, expr))
}

func (b *Builder) addAssignment(a *AssignmentPattern) *Builder {
	if a.Variable == "" || a.Expression == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: incomplete %s", ErrInvalidPattern, a.Kind))
		return b
	}
	if b.modifier == Union {
		b.errs = append(b.errs, fmt.Errorf("%w: union takes only child groups, got %s", ErrInvalidPattern, a))
		return b
	}
	if b.after == nil {
		b.after = make(map[*AssignmentPattern]int)
	}
	b.assignments = append(b.assignments, a)
	b.after[a] = len(b.children)
	b.cursor = nil
	b.state = stateBroken
	return b
}

// AddChild adds a nested graph pattern and closes the current basic
// graph pattern
func (b *Builder) AddChild(gp *GraphPattern) *Builder {
	if gp == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: nil child", ErrInvalidPattern))
		return b
	}
	b.children = append(b.children, child{built: gp})
	b.cursor = nil
	b.state = stateBroken
	return b
}

// Build returns the finished graph pattern
func (b *Builder) Build() (*GraphPattern, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	switch b.modifier {
	case Graph, Service:
		missing := b.specifier.Kind == ItemNode && b.specifier.Node == nil
		if missing || (!b.specifier.IsFixed() && b.specifier.Name == "") {
			return nil, fmt.Errorf("%w: %s without specifier", ErrInvalidPattern, b.modifier)
		}
	}

	gp := &GraphPattern{
		modifier:    b.modifier,
		patterns:    append([]Pattern(nil), b.patterns...),
		filters:     append([]*FilterPattern(nil), b.filters...),
		assignments: append([]*AssignmentPattern(nil), b.assignments...),
		after:       make(map[*AssignmentPattern]int, len(b.after)),
		specifier:   b.specifier,
		silent:      b.silent,
	}
	for a, n := range b.after {
		gp.after[a] = n
	}
	for _, c := range b.children {
		if c.built != nil {
			gp.children = append(gp.children, c.built)
			continue
		}
		block, err := c.block.Build()
		if err != nil {
			return nil, err
		}
		gp.children = append(gp.children, block)
	}
	return gp, nil
}

// MustBuild is Build that panics on error
func (b *Builder) MustBuild() *GraphPattern {
	gp, err := b.Build()
	if err != nil {
		panic(err)
	}
	return gp
}
