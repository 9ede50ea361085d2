// Package optimizer rewrites graph patterns into an order suited for
// evaluation.
package optimizer

import (
	"log/slog"
	"sort"

	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
)

// Optimizer orders basic graph patterns and places filters and
// assignments as early as their variables allow
type Optimizer struct {
	logger *slog.Logger
}

// NewOptimizer creates an optimizer. A nil logger uses slog.Default.
func NewOptimizer(logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{logger: logger}
}

// OptimizeQuery returns a copy of q with an optimised WHERE clause
func (o *Optimizer) OptimizeQuery(q *patterns.Query) *patterns.Query {
	return q.WithWhere(o.Optimize(q.Where))
}

// Optimize returns an optimised copy of gp. The input is not modified.
func (o *Optimizer) Optimize(gp *patterns.GraphPattern) *patterns.GraphPattern {
	if gp == nil {
		return nil
	}

	if gp.HasChildren() {
		children := make([]*patterns.GraphPattern, len(gp.Children()))
		for i, child := range gp.Children() {
			children[i] = o.Optimize(child)
		}
		gp = gp.WithChildren(children)
	}
	if gp.IsUnion() {
		return gp
	}

	ordered := o.reorderBySelectivity(gp.Patterns())
	filters, assignments := gp.UnplacedFilters(), gp.UnplacedAssignments()

	// Filters scope over the whole group and assignments follow the
	// children written before them, so both only move into the BGP of a
	// group without children. Filters of an OPTIONAL group belong to the
	// enclosing left join.
	if !gp.HasChildren() {
		ordered, assignments = placeAssignments(ordered, assignments)
		if gp.Modifier() != patterns.Optional {
			ordered, filters = placeFilters(ordered, filters)
		}
	}

	o.logger.Debug("optimised graph pattern",
		"modifier", gp.Modifier().String(),
		"patterns", len(ordered),
		"unplaced_filters", len(filters),
		"unplaced_assignments", len(assignments))

	return gp.WithPatterns(ordered).WithUnplaced(filters, assignments)
}

// reorderBySelectivity reorders each run of consecutive triple patterns.
// Other patterns keep their positions.
func (o *Optimizer) reorderBySelectivity(ps []patterns.Pattern) []patterns.Pattern {
	ordered := make([]patterns.Pattern, 0, len(ps))
	bound := make(map[string]struct{})

	var run []*patterns.TriplePattern
	flush := func() {
		for _, tp := range o.orderRun(run, bound) {
			ordered = append(ordered, tp)
			markBound(bound, tp)
		}
		run = run[:0]
	}

	for _, p := range ps {
		if tp, ok := p.(*patterns.TriplePattern); ok {
			run = append(run, tp)
			continue
		}
		flush()
		ordered = append(ordered, p)
		markBound(bound, p)
	}
	flush()
	return ordered
}

// orderRun sorts triple patterns with CompareTo, then picks greedily so
// that each pattern shares a variable with those before it when possible
func (o *Optimizer) orderRun(run []*patterns.TriplePattern, bound map[string]struct{}) []*patterns.TriplePattern {
	if len(run) < 2 {
		return append([]*patterns.TriplePattern(nil), run...)
	}

	sorted := append([]*patterns.TriplePattern(nil), run...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].CompareTo(sorted[j]); c != 0 {
			return c < 0
		}
		return o.estimateSelectivity(sorted[i]) < o.estimateSelectivity(sorted[j])
	})

	seen := make(map[string]struct{}, len(bound))
	for v := range bound {
		seen[v] = struct{}{}
	}

	result := make([]*patterns.TriplePattern, 0, len(sorted))
	for len(sorted) > 0 {
		pick := 0
		if len(seen) > 0 {
			for i, tp := range sorted {
				if tp.HasNoVariables() || connected(tp, seen) {
					pick = i
					break
				}
			}
		}
		tp := sorted[pick]
		sorted = append(sorted[:pick], sorted[pick+1:]...)
		result = append(result, tp)
		markBound(seen, tp)
	}
	return result
}

// estimateSelectivity breaks ties between patterns CompareTo considers
// equal. Lower values indicate fewer expected results.
func (o *Optimizer) estimateSelectivity(tp *patterns.TriplePattern) float64 {
	selectivity := 1.0

	// Bound subject is highly selective
	if tp.Subject.IsFixed() {
		selectivity *= 0.01
	}

	// Bound predicate or object is moderately selective
	if tp.Predicate.IsFixed() {
		selectivity *= 0.1
	}
	if tp.Object.IsFixed() {
		selectivity *= 0.1
	}

	return selectivity
}

// placeAssignments moves each assignment behind the first position where
// every variable it reads is bound. An assignment whose target the BGP
// binds itself stays unplaced, as does one whose inputs are never bound.
func placeAssignments(ps []patterns.Pattern, assignments []*patterns.AssignmentPattern) ([]patterns.Pattern, []*patterns.AssignmentPattern) {
	var unplaced []*patterns.AssignmentPattern
	for _, a := range assignments {
		if mentions(ps, a.Variable) {
			unplaced = append(unplaced, a)
			continue
		}
		pos, ok := boundPosition(ps, a.Variables())
		if !ok {
			unplaced = append(unplaced, a)
			continue
		}
		ps = insertAt(ps, pos, a)
	}
	return ps, unplaced
}

// placeFilters moves each filter behind the first position where every
// variable it reads is bound
func placeFilters(ps []patterns.Pattern, filters []*patterns.FilterPattern) ([]patterns.Pattern, []*patterns.FilterPattern) {
	var unplaced []*patterns.FilterPattern
	for _, f := range filters {
		pos, ok := boundPosition(ps, f.Variables())
		if !ok {
			unplaced = append(unplaced, f)
			continue
		}
		ps = insertAt(ps, pos, f)
	}
	return ps, unplaced
}

// boundPosition returns the smallest index i such that ps[:i] binds every
// variable in vars
func boundPosition(ps []patterns.Pattern, vars []string) (int, bool) {
	missing := make(map[string]struct{}, len(vars))
	for _, v := range vars {
		missing[v] = struct{}{}
	}
	if len(missing) == 0 {
		return 0, true
	}
	for i, p := range ps {
		for _, v := range binds(p) {
			delete(missing, v)
		}
		if len(missing) == 0 {
			return i + 1, true
		}
	}
	return 0, false
}

func insertAt(ps []patterns.Pattern, i int, p patterns.Pattern) []patterns.Pattern {
	out := make([]patterns.Pattern, 0, len(ps)+1)
	out = append(out, ps[:i]...)
	out = append(out, p)
	return append(out, ps[i:]...)
}

// binds returns the variables p binds when evaluated
func binds(p patterns.Pattern) []string {
	switch p := p.(type) {
	case *patterns.FilterPattern:
		return nil
	case *patterns.AssignmentPattern:
		return []string{p.Variable}
	default:
		return p.Variables()
	}
}

func mentions(ps []patterns.Pattern, name string) bool {
	for _, p := range ps {
		for _, v := range binds(p) {
			if v == name {
				return true
			}
		}
	}
	return false
}

func markBound(bound map[string]struct{}, p patterns.Pattern) {
	for _, v := range binds(p) {
		bound[v] = struct{}{}
	}
}

func connected(tp *patterns.TriplePattern, bound map[string]struct{}) bool {
	for _, v := range tp.Variables() {
		if _, ok := bound[v]; ok {
			return true
		}
	}
	return false
}
