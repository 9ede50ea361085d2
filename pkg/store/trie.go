package store

import (
	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// trieNode is one level of a three-level trie. Leaves carry the triple.
type trieNode struct {
	term     rdf.Term
	children map[string]*trieNode
	triple   *rdf.Triple
	size     int
}

func newTrieNode(term rdf.Term) *trieNode {
	return &trieNode{term: term, children: make(map[string]*trieNode)}
}

// trie indexes triples under one ordering of their positions
type trie struct {
	root  *trieNode
	order func(*rdf.Triple) [3]rdf.Term
}

func newTrie(order func(*rdf.Triple) [3]rdf.Term) *trie {
	return &trie{root: newTrieNode(nil), order: order}
}

func (tr *trie) insert(t *rdf.Triple) {
	path := tr.order(t)
	node := tr.root
	node.size++
	for _, term := range path {
		key := term.Key()
		child, ok := node.children[key]
		if !ok {
			child = newTrieNode(term)
			node.children[key] = child
		}
		child.size++
		node = child
	}
	node.triple = t
}

// delete removes t and prunes every level left empty
func (tr *trie) delete(t *rdf.Triple) {
	path := tr.order(t)
	nodes := [4]*trieNode{tr.root}
	for i, term := range path {
		child, ok := nodes[i].children[term.Key()]
		if !ok {
			return
		}
		nodes[i+1] = child
	}
	for i := 3; i >= 0; i-- {
		nodes[i].size--
		if i > 0 && nodes[i].size == 0 {
			delete(nodes[i-1].children, path[i-1].Key())
		}
	}
}

// find walks the prefix and returns the node reached, or nil
func (tr *trie) find(prefix ...rdf.Term) *trieNode {
	node := tr.root
	for _, term := range prefix {
		child, ok := node.children[term.Key()]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// lookup returns every triple below the prefix
func (tr *trie) lookup(prefix ...rdf.Term) []*rdf.Triple {
	node := tr.find(prefix...)
	if node == nil {
		return nil
	}
	result := make([]*rdf.Triple, 0, node.size)
	return collectLeaves(node, result)
}

func collectLeaves(node *trieNode, result []*rdf.Triple) []*rdf.Triple {
	if node.triple != nil {
		return append(result, node.triple)
	}
	for _, child := range node.children {
		result = collectLeaves(child, result)
	}
	return result
}

func (tr *trie) firstLevel() []rdf.Term {
	nodes := make([]rdf.Term, 0, len(tr.root.children))
	for _, child := range tr.root.children {
		nodes = append(nodes, child.term)
	}
	return nodes
}

// TrieCollection indexes triples in three tries keyed by the SPO, POS and
// OSP orderings. Every one- and two-position lookup is a prefix walk of
// one of them, so no separate compound indexes are needed.
type TrieCollection struct {
	spo, pos, osp *trie
}

// NewTrieCollection creates an empty trie collection
func NewTrieCollection() *TrieCollection {
	return &TrieCollection{
		spo: newTrie(func(t *rdf.Triple) [3]rdf.Term { return [3]rdf.Term{t.Subject, t.Predicate, t.Object} }),
		pos: newTrie(func(t *rdf.Triple) [3]rdf.Term { return [3]rdf.Term{t.Predicate, t.Object, t.Subject} }),
		osp: newTrie(func(t *rdf.Triple) [3]rdf.Term { return [3]rdf.Term{t.Object, t.Subject, t.Predicate} }),
	}
}

func (c *TrieCollection) Add(t *rdf.Triple) bool {
	if !storable(t) || c.Contains(t) {
		return false
	}
	c.spo.insert(t)
	c.pos.insert(t)
	c.osp.insert(t)
	return true
}

func (c *TrieCollection) Remove(t *rdf.Triple) bool {
	if !c.Contains(t) {
		return false
	}
	c.spo.delete(t)
	c.pos.delete(t)
	c.osp.delete(t)
	return true
}

func (c *TrieCollection) Contains(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	node := c.spo.find(t.Subject, t.Predicate, t.Object)
	return node != nil && node.triple != nil
}

func (c *TrieCollection) Count() int {
	return c.spo.root.size
}

func (c *TrieCollection) Clear() {
	c.spo.root = newTrieNode(nil)
	c.pos.root = newTrieNode(nil)
	c.osp.root = newTrieNode(nil)
}

func (c *TrieCollection) Close() error {
	return nil
}

func (c *TrieCollection) Triples() []*rdf.Triple {
	return c.spo.lookup()
}

func (c *TrieCollection) WithSubject(s rdf.Term) []*rdf.Triple {
	return c.spo.lookup(s)
}

func (c *TrieCollection) WithPredicate(p rdf.Term) []*rdf.Triple {
	return c.pos.lookup(p)
}

func (c *TrieCollection) WithObject(o rdf.Term) []*rdf.Triple {
	return c.osp.lookup(o)
}

func (c *TrieCollection) WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple {
	return c.spo.lookup(s, p)
}

func (c *TrieCollection) WithSubjectObject(s, o rdf.Term) []*rdf.Triple {
	return c.osp.lookup(o, s)
}

func (c *TrieCollection) WithPredicateObject(p, o rdf.Term) []*rdf.Triple {
	return c.pos.lookup(p, o)
}

func (c *TrieCollection) SubjectNodes() []rdf.Term {
	return c.spo.firstLevel()
}

func (c *TrieCollection) PredicateNodes() []rdf.Term {
	return c.pos.firstLevel()
}

func (c *TrieCollection) ObjectNodes() []rdf.Term {
	return c.osp.firstLevel()
}
