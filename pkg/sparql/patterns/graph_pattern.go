package patterns

import (
	"sort"
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/sparql/expression"
)

// Modifier says how a graph pattern combines with its parent
type Modifier int

const (
	Group Modifier = iota
	Optional
	Union
	Exists
	NotExists
	Minus
	Graph
	Service
)

func (m Modifier) String() string {
	switch m {
	case Optional:
		return "OPTIONAL"
	case Union:
		return "UNION"
	case Exists:
		return "EXISTS"
	case NotExists:
		return "NOT EXISTS"
	case Minus:
		return "MINUS"
	case Graph:
		return "GRAPH"
	case Service:
		return "SERVICE"
	default:
		return "GROUP"
	}
}

// GraphPattern is an immutable group of patterns. Use a Builder to
// create one.
type GraphPattern struct {
	modifier    Modifier
	patterns    []Pattern
	filters     []*FilterPattern
	assignments []*AssignmentPattern
	after       map[*AssignmentPattern]int
	children    []*GraphPattern
	specifier   PatternItem
	silent      bool
}

func (g *GraphPattern) Modifier() Modifier { return g.modifier }
func (g *GraphPattern) IsUnion() bool      { return g.modifier == Union }
func (g *GraphPattern) IsExists() bool     { return g.modifier == Exists }
func (g *GraphPattern) IsNotExists() bool  { return g.modifier == NotExists }
func (g *GraphPattern) IsMinus() bool      { return g.modifier == Minus }
func (g *GraphPattern) IsGraph() bool      { return g.modifier == Graph }
func (g *GraphPattern) IsService() bool    { return g.modifier == Service }
func (g *GraphPattern) IsSilent() bool     { return g.silent }

// IsOptional reports whether the group is matched against the solutions
// of its parent instead of joined with them. EXISTS and NOT EXISTS imply
// it as well as OPTIONAL. Only the filter of an OPTIONAL group moves into
// the enclosing left join; use Modifier to tell them apart.
func (g *GraphPattern) IsOptional() bool {
	return g.modifier == Optional || g.modifier == Exists || g.modifier == NotExists
}

// Specifier returns the graph name of a GRAPH pattern or the endpoint of
// a SERVICE pattern
func (g *GraphPattern) Specifier() PatternItem { return g.specifier }

// Patterns returns the basic graph pattern of the group in execution
// order. The slice must not be modified.
func (g *GraphPattern) Patterns() []Pattern { return g.patterns }

// Children returns the nested graph patterns. The slice must not be
// modified.
func (g *GraphPattern) Children() []*GraphPattern { return g.children }

func (g *GraphPattern) HasChildren() bool { return len(g.children) > 0 }

// UnplacedFilters returns the filters scoped over the whole group
func (g *GraphPattern) UnplacedFilters() []*FilterPattern { return g.filters }

// UnplacedAssignments returns the assignments not yet placed in the
// basic graph pattern
func (g *GraphPattern) UnplacedAssignments() []*AssignmentPattern { return g.assignments }

// AssignmentsAfter returns the unplaced assignments written after the own
// basic graph pattern and the first n children, in group order
func (g *GraphPattern) AssignmentsAfter(n int) []*AssignmentPattern {
	var out []*AssignmentPattern
	for _, a := range g.assignments {
		if g.after[a] == n {
			out = append(out, a)
		}
	}
	return out
}

// TriplePatterns returns the triple patterns of the group
func (g *GraphPattern) TriplePatterns() []*TriplePattern {
	var tps []*TriplePattern
	for _, p := range g.patterns {
		if tp, ok := p.(*TriplePattern); ok {
			tps = append(tps, tp)
		}
	}
	return tps
}

// IsFiltered reports whether unplaced filters apply to the group
func (g *GraphPattern) IsFiltered() bool {
	return len(g.filters) > 0
}

// Filter returns the conjunction of the unplaced filters, or nil
func (g *GraphPattern) Filter() expression.Expression {
	exprs := make([]expression.Expression, len(g.filters))
	for i, f := range g.filters {
		exprs[i] = f.Expression
	}
	return expression.And(exprs...)
}

// IsEmpty reports whether the group matches only the empty solution
func (g *GraphPattern) IsEmpty() bool {
	return len(g.patterns) == 0 && len(g.children) == 0 &&
		len(g.filters) == 0 && len(g.assignments) == 0
}

// Variables returns the sorted variables the group can bind. Children
// under EXISTS, NOT EXISTS and MINUS bind nothing in the group.
func (g *GraphPattern) Variables() []string {
	seen := make(map[string]struct{})
	add := func(names ...string) {
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	for _, p := range g.patterns {
		switch p := p.(type) {
		case *FilterPattern:
		case *AssignmentPattern:
			add(p.Variable)
		default:
			add(p.Variables()...)
		}
	}
	for _, a := range g.assignments {
		add(a.Variable)
	}
	for _, c := range g.children {
		switch c.modifier {
		case Exists, NotExists, Minus:
			continue
		}
		add(c.Variables()...)
	}
	if name := g.specifier.VariableName(); name != "" && g.modifier == Graph {
		add(name)
	}

	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

func (g *GraphPattern) clone() *GraphPattern {
	c := *g
	return &c
}

// WithPatterns returns a copy of g with a new basic graph pattern
func (g *GraphPattern) WithPatterns(patterns []Pattern) *GraphPattern {
	c := g.clone()
	c.patterns = patterns
	return c
}

// WithUnplaced returns a copy of g with new unplaced filters and
// assignments
func (g *GraphPattern) WithUnplaced(filters []*FilterPattern, assignments []*AssignmentPattern) *GraphPattern {
	c := g.clone()
	c.filters = filters
	c.assignments = assignments
	return c
}

// WithChildren returns a copy of g with new children
func (g *GraphPattern) WithChildren(children []*GraphPattern) *GraphPattern {
	c := g.clone()
	c.children = children
	return c
}

func (g *GraphPattern) String() string {
	var b strings.Builder
	g.write(&b)
	return b.String()
}

func (g *GraphPattern) write(b *strings.Builder) {
	switch g.modifier {
	case Optional, Exists, NotExists, Minus:
		b.WriteString(g.modifier.String() + " ")
	case Graph:
		b.WriteString("GRAPH " + g.specifier.String() + " ")
	case Service:
		b.WriteString("SERVICE ")
		if g.silent {
			b.WriteString("SILENT ")
		}
		b.WriteString(g.specifier.String() + " ")
	}

	if g.modifier == Union {
		for i, c := range g.children {
			if i > 0 {
				b.WriteString(" UNION ")
			}
			c.write(b)
		}
		for _, f := range g.filters {
			b.WriteString(" " + f.String())
		}
		return
	}

	b.WriteString("{ ")
	for _, p := range g.patterns {
		b.WriteString(p.String())
		if _, ok := p.(*TriplePattern); ok {
			b.WriteString(" .")
		}
		b.WriteString(" ")
	}
	for _, a := range g.AssignmentsAfter(0) {
		b.WriteString(a.String() + " ")
	}
	for i, c := range g.children {
		c.write(b)
		b.WriteString(" ")
		for _, a := range g.AssignmentsAfter(i + 1) {
			b.WriteString(a.String() + " ")
		}
	}
	for _, f := range g.filters {
		b.WriteString(f.String() + " ")
	}
	b.WriteString("}")
}
