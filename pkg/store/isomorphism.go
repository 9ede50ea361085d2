package store

import (
	"sort"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// Isomorphic reports whether a and b hold the same triples up to a
// one-to-one renaming of blank nodes
func Isomorphic(a, b TripleSource) bool {
	if a.Count() != b.Count() {
		return false
	}
	left, right := a.Triples(), b.Triples()

	leftDegrees, rightDegrees := blankDegrees(left), blankDegrees(right)
	if len(leftDegrees) != len(rightDegrees) {
		return false
	}
	if len(leftDegrees) == 0 {
		for _, t := range left {
			if !b.Contains(t) {
				return false
			}
		}
		return true
	}

	m := &blankMatcher{
		left:      left,
		right:     b,
		leftDeg:   leftDegrees,
		rightDeg:  rightDegrees,
		mapping:   make(map[string]string),
		used:      make(map[string]bool),
		leftOrder: byDegree(leftDegrees),
	}
	for id := range rightDegrees {
		m.candidates = append(m.candidates, id)
	}
	sort.Strings(m.candidates)
	return m.match(0)
}

// blankDegrees counts the triples each blank node of triples occurs in
func blankDegrees(triples []*rdf.Triple) map[string]int {
	degrees := make(map[string]int)
	for _, t := range triples {
		for _, term := range []rdf.Term{t.Subject, t.Object} {
			if b, ok := term.(*rdf.BlankNode); ok {
				degrees[b.ID]++
			}
		}
	}
	return degrees
}

// byDegree lists the blank nodes most connected first
func byDegree(degrees map[string]int) []string {
	ids := make([]string, 0, len(degrees))
	for id := range degrees {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if degrees[ids[i]] != degrees[ids[j]] {
			return degrees[ids[i]] > degrees[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// blankMatcher searches for a blank node bijection by backtracking
type blankMatcher struct {
	left       []*rdf.Triple
	right      TripleSource
	leftDeg    map[string]int
	rightDeg   map[string]int
	leftOrder  []string
	candidates []string
	mapping    map[string]string
	used       map[string]bool
}

func (m *blankMatcher) match(i int) bool {
	if i == len(m.leftOrder) {
		return m.consistent()
	}

	id := m.leftOrder[i]
	for _, target := range m.candidates {
		if m.used[target] || m.leftDeg[id] != m.rightDeg[target] {
			continue
		}
		m.mapping[id] = target
		m.used[target] = true
		if m.consistent() && m.match(i+1) {
			return true
		}
		delete(m.mapping, id)
		delete(m.used, target)
	}
	return false
}

// consistent checks that every triple whose blank nodes are all mapped
// exists in the right source once renamed. With equal counts and a
// complete bijection this is full equality.
func (m *blankMatcher) consistent() bool {
	for _, t := range m.left {
		s, ok := m.rename(t.Subject)
		if !ok {
			continue
		}
		o, ok := m.rename(t.Object)
		if !ok {
			continue
		}
		if !m.right.Contains(rdf.NewTriple(s, t.Predicate, o)) {
			return false
		}
	}
	return true
}

func (m *blankMatcher) rename(term rdf.Term) (rdf.Term, bool) {
	b, ok := term.(*rdf.BlankNode)
	if !ok {
		return term, true
	}
	target, ok := m.mapping[b.ID]
	if !ok {
		return nil, false
	}
	return rdf.NewBlankNode(target), true
}
