package store

import (
	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// UnindexedCollection keeps triples in a single table and answers every
// lookup with a linear scan. It has the smallest memory footprint.
type UnindexedCollection struct {
	triples map[string]*rdf.Triple
}

// NewUnindexedCollection creates an empty unindexed collection
func NewUnindexedCollection() *UnindexedCollection {
	return &UnindexedCollection{triples: make(map[string]*rdf.Triple)}
}

func (c *UnindexedCollection) Add(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	key := t.Key()
	if _, ok := c.triples[key]; ok {
		return false
	}
	c.triples[key] = t
	return true
}

func (c *UnindexedCollection) Remove(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	key := t.Key()
	if _, ok := c.triples[key]; !ok {
		return false
	}
	delete(c.triples, key)
	return true
}

func (c *UnindexedCollection) Contains(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	_, ok := c.triples[t.Key()]
	return ok
}

func (c *UnindexedCollection) Count() int {
	return len(c.triples)
}

func (c *UnindexedCollection) Clear() {
	c.triples = make(map[string]*rdf.Triple)
}

func (c *UnindexedCollection) Close() error {
	return nil
}

func (c *UnindexedCollection) Triples() []*rdf.Triple {
	result := make([]*rdf.Triple, 0, len(c.triples))
	for _, t := range c.triples {
		result = append(result, t)
	}
	return result
}

func (c *UnindexedCollection) scan(keep func(*rdf.Triple) bool) []*rdf.Triple {
	var result []*rdf.Triple
	for _, t := range c.triples {
		if keep(t) {
			result = append(result, t)
		}
	}
	return result
}

func (c *UnindexedCollection) WithSubject(s rdf.Term) []*rdf.Triple {
	return c.scan(func(t *rdf.Triple) bool { return t.Subject.Equals(s) })
}

func (c *UnindexedCollection) WithPredicate(p rdf.Term) []*rdf.Triple {
	return c.scan(func(t *rdf.Triple) bool { return t.Predicate.Equals(p) })
}

func (c *UnindexedCollection) WithObject(o rdf.Term) []*rdf.Triple {
	return c.scan(func(t *rdf.Triple) bool { return t.Object.Equals(o) })
}

func (c *UnindexedCollection) WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple {
	return c.scan(func(t *rdf.Triple) bool { return t.Subject.Equals(s) && t.Predicate.Equals(p) })
}

func (c *UnindexedCollection) WithSubjectObject(s, o rdf.Term) []*rdf.Triple {
	return c.scan(func(t *rdf.Triple) bool { return t.Subject.Equals(s) && t.Object.Equals(o) })
}

func (c *UnindexedCollection) WithPredicateObject(p, o rdf.Term) []*rdf.Triple {
	return c.scan(func(t *rdf.Triple) bool { return t.Predicate.Equals(p) && t.Object.Equals(o) })
}

func (c *UnindexedCollection) SubjectNodes() []rdf.Term {
	return distinctNodes(c.Triples(), subjectOf)
}

func (c *UnindexedCollection) PredicateNodes() []rdf.Term {
	return distinctNodes(c.Triples(), predicateOf)
}

func (c *UnindexedCollection) ObjectNodes() []rdf.Term {
	return distinctNodes(c.Triples(), objectOf)
}
