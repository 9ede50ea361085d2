package store

import (
	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// indexedCollection stores triples in a primary table plus subject,
// predicate and object indexes, and optionally the three compound
// indexes. Every Add and Remove updates all active indexes.
type indexedCollection struct {
	triples map[string]*rdf.Triple

	subjects, predicates, objects index

	// nil unless full indexing is enabled
	subjectPredicate, subjectObject, predicateObject index
}

func newIndexedCollection(newIndex func() index, fullIndexing bool) indexedCollection {
	c := indexedCollection{
		triples:    make(map[string]*rdf.Triple),
		subjects:   newIndex(),
		predicates: newIndex(),
		objects:    newIndex(),
	}
	if fullIndexing {
		c.subjectPredicate = newIndex()
		c.subjectObject = newIndex()
		c.predicateObject = newIndex()
	}
	return c
}

func (c *indexedCollection) Add(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	key := t.Key()
	if _, ok := c.triples[key]; ok {
		return false
	}
	c.triples[key] = t

	c.subjects.add(t.Subject.Key(), t.Subject, t)
	c.predicates.add(t.Predicate.Key(), t.Predicate, t)
	c.objects.add(t.Object.Key(), t.Object, t)
	if c.fullIndexing() {
		c.subjectPredicate.add(compoundKey(t.Subject, t.Predicate), nil, t)
		c.subjectObject.add(compoundKey(t.Subject, t.Object), nil, t)
		c.predicateObject.add(compoundKey(t.Predicate, t.Object), nil, t)
	}
	return true
}

func (c *indexedCollection) Remove(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	key := t.Key()
	stored, ok := c.triples[key]
	if !ok {
		return false
	}
	delete(c.triples, key)

	c.subjects.remove(stored.Subject.Key(), stored)
	c.predicates.remove(stored.Predicate.Key(), stored)
	c.objects.remove(stored.Object.Key(), stored)
	if c.fullIndexing() {
		c.subjectPredicate.remove(compoundKey(stored.Subject, stored.Predicate), stored)
		c.subjectObject.remove(compoundKey(stored.Subject, stored.Object), stored)
		c.predicateObject.remove(compoundKey(stored.Predicate, stored.Object), stored)
	}
	return true
}

func (c *indexedCollection) Contains(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	_, ok := c.triples[t.Key()]
	return ok
}

func (c *indexedCollection) Count() int {
	return len(c.triples)
}

func (c *indexedCollection) Clear() {
	c.triples = make(map[string]*rdf.Triple)
	for _, idx := range c.indexes() {
		idx.clear()
	}
}

func (c *indexedCollection) Close() error {
	return nil
}

func (c *indexedCollection) Triples() []*rdf.Triple {
	result := make([]*rdf.Triple, 0, len(c.triples))
	for _, t := range c.triples {
		result = append(result, t)
	}
	return result
}

func (c *indexedCollection) WithSubject(s rdf.Term) []*rdf.Triple {
	return c.subjects.get(s.Key()).list()
}

func (c *indexedCollection) WithPredicate(p rdf.Term) []*rdf.Triple {
	return c.predicates.get(p.Key()).list()
}

func (c *indexedCollection) WithObject(o rdf.Term) []*rdf.Triple {
	return c.objects.get(o.Key()).list()
}

func (c *indexedCollection) WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple {
	if c.fullIndexing() {
		return c.subjectPredicate.get(compoundKey(s, p)).list()
	}
	return c.narrow(c.subjects.get(s.Key()), c.predicates.get(p.Key()), func(t *rdf.Triple) bool {
		return t.Subject.Equals(s) && t.Predicate.Equals(p)
	})
}

func (c *indexedCollection) WithSubjectObject(s, o rdf.Term) []*rdf.Triple {
	if c.fullIndexing() {
		return c.subjectObject.get(compoundKey(s, o)).list()
	}
	return c.narrow(c.subjects.get(s.Key()), c.objects.get(o.Key()), func(t *rdf.Triple) bool {
		return t.Subject.Equals(s) && t.Object.Equals(o)
	})
}

func (c *indexedCollection) WithPredicateObject(p, o rdf.Term) []*rdf.Triple {
	if c.fullIndexing() {
		return c.predicateObject.get(compoundKey(p, o)).list()
	}
	return c.narrow(c.predicates.get(p.Key()), c.objects.get(o.Key()), func(t *rdf.Triple) bool {
		return t.Predicate.Equals(p) && t.Object.Equals(o)
	})
}

func (c *indexedCollection) SubjectNodes() []rdf.Term {
	return bucketNodes(c.subjects)
}

func (c *indexedCollection) PredicateNodes() []rdf.Term {
	return bucketNodes(c.predicates)
}

func (c *indexedCollection) ObjectNodes() []rdf.Term {
	return bucketNodes(c.objects)
}

func (c *indexedCollection) fullIndexing() bool {
	return c.subjectPredicate != nil
}

func (c *indexedCollection) indexes() []index {
	result := []index{c.subjects, c.predicates, c.objects}
	if c.fullIndexing() {
		result = append(result, c.subjectPredicate, c.subjectObject, c.predicateObject)
	}
	return result
}

// narrow filters the smaller of two single-position buckets
func (c *indexedCollection) narrow(a, b *bucket, keep func(*rdf.Triple) bool) []*rdf.Triple {
	if a == nil || b == nil {
		return nil
	}
	if b.size() < a.size() {
		a = b
	}
	return filterTriples(a.list(), keep)
}

func bucketNodes(idx index) []rdf.Term {
	buckets := idx.buckets()
	nodes := make([]rdf.Term, len(buckets))
	for i, b := range buckets {
		nodes[i] = b.node
	}
	return nodes
}

// IndexedCollection indexes triples with hash maps. Without full indexing
// only the subject, predicate and object indexes are kept and two-position
// lookups filter the smaller single-position result.
type IndexedCollection struct {
	indexedCollection
}

// NewIndexedCollection creates an empty hash-indexed collection
func NewIndexedCollection(fullIndexing bool) *IndexedCollection {
	return &IndexedCollection{newIndexedCollection(func() index { return newHashIndex() }, fullIndexing)}
}

// TreeCollection keeps all six indexes in red-black trees. Lookups are
// exact and node enumeration is ordered by the canonical term key.
type TreeCollection struct {
	indexedCollection
}

// NewTreeCollection creates an empty fully indexed tree collection
func NewTreeCollection() *TreeCollection {
	return &TreeCollection{newIndexedCollection(func() index { return newTreeIndex() }, true)}
}
