package store

import (
	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// bucket holds the triples sharing one index key. node is the indexed
// term for single-position indexes and nil for compound ones.
type bucket struct {
	node    rdf.Term
	triples map[string]*rdf.Triple
}

func newBucket(node rdf.Term) *bucket {
	return &bucket{node: node, triples: make(map[string]*rdf.Triple)}
}

func (b *bucket) list() []*rdf.Triple {
	if b == nil {
		return nil
	}
	result := make([]*rdf.Triple, 0, len(b.triples))
	for _, t := range b.triples {
		result = append(result, t)
	}
	return result
}

func (b *bucket) size() int {
	if b == nil {
		return 0
	}
	return len(b.triples)
}

// index maps a key derived from one or two triple positions to the
// triples carrying it. Empty buckets are always dropped so that node
// enumeration only reports terms still in use.
type index interface {
	add(key string, node rdf.Term, t *rdf.Triple)
	remove(key string, t *rdf.Triple)
	get(key string) *bucket
	buckets() []*bucket
	clear()
}

// hashIndex is an index backed by a Go map
type hashIndex struct {
	entries map[string]*bucket
}

func newHashIndex() *hashIndex {
	return &hashIndex{entries: make(map[string]*bucket)}
}

func (h *hashIndex) add(key string, node rdf.Term, t *rdf.Triple) {
	b, ok := h.entries[key]
	if !ok {
		b = newBucket(node)
		h.entries[key] = b
	}
	b.triples[t.Key()] = t
}

func (h *hashIndex) remove(key string, t *rdf.Triple) {
	b, ok := h.entries[key]
	if !ok {
		return
	}
	delete(b.triples, t.Key())
	if len(b.triples) == 0 {
		delete(h.entries, key)
	}
}

func (h *hashIndex) get(key string) *bucket {
	return h.entries[key]
}

func (h *hashIndex) buckets() []*bucket {
	result := make([]*bucket, 0, len(h.entries))
	for _, b := range h.entries {
		result = append(result, b)
	}
	return result
}

func (h *hashIndex) clear() {
	h.entries = make(map[string]*bucket)
}

// treeIndex is an index backed by a red-black tree. Bucket enumeration is
// ordered by key.
type treeIndex struct {
	tree *redblacktree.Tree
}

func newTreeIndex() *treeIndex {
	return &treeIndex{tree: redblacktree.NewWithStringComparator()}
}

func (ti *treeIndex) add(key string, node rdf.Term, t *rdf.Triple) {
	b := ti.get(key)
	if b == nil {
		b = newBucket(node)
		ti.tree.Put(key, b)
	}
	b.triples[t.Key()] = t
}

func (ti *treeIndex) remove(key string, t *rdf.Triple) {
	b := ti.get(key)
	if b == nil {
		return
	}
	delete(b.triples, t.Key())
	if len(b.triples) == 0 {
		ti.tree.Remove(key)
	}
}

func (ti *treeIndex) get(key string) *bucket {
	v, ok := ti.tree.Get(key)
	if !ok {
		return nil
	}
	return v.(*bucket)
}

func (ti *treeIndex) buckets() []*bucket {
	values := ti.tree.Values()
	result := make([]*bucket, len(values))
	for i, v := range values {
		result[i] = v.(*bucket)
	}
	return result
}

func (ti *treeIndex) clear() {
	ti.tree.Clear()
}

func compoundKey(a, b rdf.Term) string {
	return a.Key() + "\x00" + b.Key()
}
