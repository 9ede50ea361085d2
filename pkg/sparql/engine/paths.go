package engine

import (
	"context"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/algebra"
	"github.com/aleksaelezovic/trimem/pkg/sparql/multiset"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
	"github.com/aleksaelezovic/trimem/pkg/store"
)

// stepItem receives the far end of a single path step
var stepItem = patterns.Blank("step")

// pathResult collects distinct subject/object pairs as solutions
type pathResult struct {
	subject, object patterns.PatternItem
	seen            map[string]struct{}
	result          *multiset.Multiset
}

func newPathResult(subject, object patterns.PatternItem, vars []string) *pathResult {
	return &pathResult{
		subject: subject,
		object:  object,
		seen:    make(map[string]struct{}),
		result:  multiset.New(vars...),
	}
}

func (r *pathResult) add(s, o rdf.Term) {
	set, ok := bindItems([]patterns.PatternItem{r.subject, r.object}, []rdf.Term{s, o})
	if !ok {
		return
	}
	key := s.Key() + " " + o.Key()
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.result.Add(set)
}

func (r *pathResult) multiset() *multiset.Multiset {
	if r.result.IsEmpty() {
		return multiset.Null(r.result.Variables()...)
	}
	if len(r.result.Variables()) == 0 {
		return multiset.Identity()
	}
	return r.result
}

// allNodes lists every subject and object of data
func allNodes(data store.TripleSource) []rdf.Term {
	seen := make(map[string]struct{})
	var nodes []rdf.Term
	for _, list := range [][]rdf.Term{data.SubjectNodes(), data.ObjectNodes()} {
		for _, n := range list {
			if _, ok := seen[n.Key()]; ok {
				continue
			}
			seen[n.Key()] = struct{}{}
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// startNodes returns the candidate terms for one end of a path: the
// fixed term, the values bound in every hint solution, or nil when the
// end is unconstrained
func startNodes(item patterns.PatternItem, hint *multiset.Multiset) []rdf.Term {
	if item.IsFixed() {
		return []rdf.Term{item.Term()}
	}
	name := item.VariableName()
	if !hint.IsIdentity() && hint.BindsEverywhere(name) {
		return hint.Values(name)
	}
	return nil
}

func (e *Engine) evalZeroLength(op *algebra.ZeroLengthPath, st state) (*multiset.Multiset, error) {
	r := newPathResult(op.Subject, op.Object, op.Variables())
	nodes := startNodes(op.Subject, st.hint)
	if nodes == nil {
		nodes = startNodes(op.Object, st.hint)
	}
	if nodes == nil {
		nodes = allNodes(st.data)
	}
	for _, n := range nodes {
		r.add(n, n)
	}
	return r.multiset(), nil
}

// evalClosure walks path breadth first from each start node. The walk
// runs forwards from the subject unless only the object is constrained.
func (e *Engine) evalClosure(ctx context.Context, subject patterns.PatternItem, path patterns.Path, object patterns.PatternItem, zero bool, st state) (*multiset.Multiset, error) {
	r := newPathResult(subject, object, itemVariables(subject, object))

	forward := true
	starts := startNodes(subject, st.hint)
	if starts == nil {
		if ends := startNodes(object, st.hint); ends != nil {
			forward = false
			starts = ends
		} else {
			starts = allNodes(st.data)
		}
	}

	successors := make(map[string][]rdf.Term)
	step := func(n rdf.Term) ([]rdf.Term, error) {
		if next, ok := successors[n.Key()]; ok {
			return next, nil
		}
		from, to := patterns.Node(n), stepItem
		if !forward {
			from, to = to, from
		}
		op, err := algebra.TransformPath(from, path, to, e.PatternOptions()...)
		if err != nil {
			return nil, err
		}
		m, err := e.eval(ctx, op, st.withHint(multiset.Identity()))
		if err != nil {
			return nil, err
		}
		next := m.Values(stepItem.VariableName())
		successors[n.Key()] = next
		return next, nil
	}

	for _, start := range starts {
		reached, err := reach(start, zero, step)
		if err != nil {
			return nil, err
		}
		for _, n := range reached {
			if forward {
				r.add(start, n)
			} else {
				r.add(n, start)
			}
		}
	}
	return r.multiset(), nil
}

// reach returns the nodes reachable from start in one or more steps, plus
// start itself when zero is set
func reach(start rdf.Term, zero bool, step func(rdf.Term) ([]rdf.Term, error)) ([]rdf.Term, error) {
	visited := make(map[string]struct{})
	var reached []rdf.Term
	if zero {
		visited[start.Key()] = struct{}{}
		reached = append(reached, start)
	}

	queue := []rdf.Term{start}
	expanded := map[string]struct{}{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, ok := expanded[n.Key()]; ok {
			continue
		}
		expanded[n.Key()] = struct{}{}

		next, err := step(n)
		if err != nil {
			return nil, err
		}
		for _, m := range next {
			if _, ok := visited[m.Key()]; !ok {
				visited[m.Key()] = struct{}{}
				reached = append(reached, m)
			}
			queue = append(queue, m)
		}
	}
	return reached, nil
}

// evalNegatedSet matches single steps over predicates outside the
// negated set. Inverse members are matched from object to subject.
func (e *Engine) evalNegatedSet(op *algebra.NegatedPropertySet, st state) (*multiset.Multiset, error) {
	r := newPathResult(op.Subject, op.Object, op.Variables())

	if len(op.Properties) > 0 || len(op.Inverse) == 0 {
		for _, t := range stepCandidates(st.data, op.Subject, op.Object, st.hint) {
			if !containsTerm(op.Properties, t.Predicate) {
				r.add(t.Subject, t.Object)
			}
		}
	}
	if len(op.Inverse) > 0 {
		for _, t := range stepCandidates(st.data, op.Object, op.Subject, st.hint) {
			if !containsTerm(op.Inverse, t.Predicate) {
				r.add(t.Object, t.Subject)
			}
		}
	}
	return r.multiset(), nil
}

// stepCandidates returns the triples that may connect from to to
func stepCandidates(data store.TripleSource, from, to patterns.PatternItem, hint *multiset.Multiset) []*rdf.Triple {
	if nodes := startNodes(from, hint); nodes != nil {
		var triples []*rdf.Triple
		for _, n := range nodes {
			triples = append(triples, data.WithSubject(n)...)
		}
		return triples
	}
	if nodes := startNodes(to, hint); nodes != nil {
		var triples []*rdf.Triple
		for _, n := range nodes {
			triples = append(triples, data.WithObject(n)...)
		}
		return triples
	}
	return data.Triples()
}

func containsTerm(terms []rdf.Term, t rdf.Term) bool {
	for _, x := range terms {
		if x.Equals(t) {
			return true
		}
	}
	return false
}

func itemVariables(items ...patterns.PatternItem) []string {
	var names []string
	for _, item := range items {
		if name := item.VariableName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
