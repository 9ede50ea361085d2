package store

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

func iri(local string) *rdf.NamedNode {
	return rdf.NewNamedNode("http://example.org/" + local)
}

type collectionFactory struct {
	name string
	new  func(t *testing.T) TripleCollection
}

func collectionFactories() []collectionFactory {
	return []collectionFactory{
		{"unindexed", func(*testing.T) TripleCollection { return NewUnindexedCollection() }},
		{"simple", func(*testing.T) TripleCollection { return NewIndexedCollection(false) }},
		{"simple-full", func(*testing.T) TripleCollection { return NewIndexedCollection(true) }},
		{"tree", func(*testing.T) TripleCollection { return NewTreeCollection() }},
		{"trie", func(*testing.T) TripleCollection { return NewTrieCollection() }},
		{"kv", func(t *testing.T) TripleCollection {
			c, err := NewKVCollection(nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })
			return c
		}},
		{"synchronized", func(*testing.T) TripleCollection {
			return Synchronized(NewIndexedCollection(true), LockReadWrite)
		}},
		{"union-base", func(*testing.T) TripleCollection {
			return NewUnionCollection(NewTrieCollection())
		}},
	}
}

// sampleTriples builds a small graph with shared subjects, predicates and
// objects, including literals and blank nodes
func sampleTriples() []*rdf.Triple {
	var triples []*rdf.Triple
	subjects := []rdf.Term{iri("a"), iri("b"), rdf.NewBlankNode("b0")}
	predicates := []rdf.Term{iri("p"), iri("q")}
	objects := []rdf.Term{
		iri("a"),
		rdf.NewLiteral("x"),
		rdf.NewLiteralWithLanguage("x", "en"),
		rdf.NewIntegerLiteral(1),
	}
	for i, s := range subjects {
		for j, p := range predicates {
			for k, o := range objects {
				if (i+j+k)%2 == 0 {
					triples = append(triples, rdf.NewTriple(s, p, o))
				}
			}
		}
	}
	return triples
}

func keys(triples []*rdf.Triple) []string {
	result := make([]string, len(triples))
	for i, t := range triples {
		result[i] = t.Key()
	}
	sort.Strings(result)
	return result
}

func nodeKeys(nodes []rdf.Term) []string {
	result := make([]string, len(nodes))
	for i, n := range nodes {
		result[i] = n.Key()
	}
	sort.Strings(result)
	return result
}

func naive(triples []*rdf.Triple, s, p, o rdf.Term) []*rdf.Triple {
	return filterTriples(triples, func(t *rdf.Triple) bool {
		return (s == nil || t.Subject.Equals(s)) &&
			(p == nil || t.Predicate.Equals(p)) &&
			(o == nil || t.Object.Equals(o))
	})
}

func TestCollection_Uniqueness(t *testing.T) {
	for _, f := range collectionFactories() {
		t.Run(f.name, func(t *testing.T) {
			c := f.new(t)
			tr := rdf.NewTriple(iri("s"), iri("p"), rdf.NewLiteral("o"))

			assert.True(t, c.Add(tr))
			assert.True(t, c.Contains(tr))
			assert.False(t, c.Add(rdf.NewTriple(iri("s"), iri("p"), rdf.NewLiteral("o"))))
			assert.True(t, c.Contains(tr))
			assert.Equal(t, 1, c.Count())

			// xsd:string is the same term as a simple literal
			assert.False(t, c.Add(rdf.NewTriple(iri("s"), iri("p"), rdf.NewLiteralWithDatatype("o", rdf.XSDString))))
			assert.Equal(t, 1, c.Count())
		})
	}
}

func TestCollection_IdempotentRemove(t *testing.T) {
	for _, f := range collectionFactories() {
		t.Run(f.name, func(t *testing.T) {
			c := f.new(t)
			present := rdf.NewTriple(iri("s"), iri("p"), iri("o"))
			absent := rdf.NewTriple(iri("s"), iri("p"), iri("other"))
			require.True(t, c.Add(present))

			assert.False(t, c.Remove(absent))
			assert.Equal(t, 1, c.Count())
			assert.Len(t, c.WithSubject(iri("s")), 1)

			assert.True(t, c.Remove(present))
			assert.False(t, c.Remove(present))
			assert.Equal(t, 0, c.Count())
			assert.Empty(t, c.WithSubject(iri("s")))
		})
	}
}

func TestCollection_RejectsVariables(t *testing.T) {
	for _, f := range collectionFactories() {
		t.Run(f.name, func(t *testing.T) {
			c := f.new(t)
			assert.False(t, c.Add(rdf.NewTriple(rdf.NewVariable("s"), iri("p"), iri("o"))))
			assert.False(t, c.Add(nil))
			assert.Equal(t, 0, c.Count())
		})
	}
}

func TestCollection_IndexAgreement(t *testing.T) {
	data := sampleTriples()

	for _, f := range collectionFactories() {
		t.Run(f.name, func(t *testing.T) {
			c := f.new(t)
			for _, tr := range data {
				require.True(t, c.Add(tr))
			}
			require.Equal(t, len(data), c.Count())
			assert.Equal(t, keys(data), keys(c.Triples()))

			var terms []rdf.Term
			for _, tr := range data {
				terms = append(terms, tr.Subject, tr.Predicate, tr.Object)
			}
			terms = append(terms, iri("missing"))

			for _, a := range terms {
				assert.Equal(t, keys(naive(data, a, nil, nil)), keys(c.WithSubject(a)), "WithSubject %s", a)
				assert.Equal(t, keys(naive(data, nil, a, nil)), keys(c.WithPredicate(a)), "WithPredicate %s", a)
				assert.Equal(t, keys(naive(data, nil, nil, a)), keys(c.WithObject(a)), "WithObject %s", a)
				for _, b := range terms {
					assert.Equal(t, keys(naive(data, a, b, nil)), keys(c.WithSubjectPredicate(a, b)))
					assert.Equal(t, keys(naive(data, a, nil, b)), keys(c.WithSubjectObject(a, b)))
					assert.Equal(t, keys(naive(data, nil, a, b)), keys(c.WithPredicateObject(a, b)))
				}
			}

			for _, tr := range data {
				assert.True(t, c.Contains(tr))
			}
		})
	}
}

func TestCollection_NodesReflectRemovals(t *testing.T) {
	for _, f := range collectionFactories() {
		t.Run(f.name, func(t *testing.T) {
			c := f.new(t)
			t1 := rdf.NewTriple(iri("a"), iri("p"), iri("x"))
			t2 := rdf.NewTriple(iri("b"), iri("q"), rdf.NewLiteral("y"))
			c.Add(t1)
			c.Add(t2)

			assert.Equal(t, nodeKeys([]rdf.Term{iri("a"), iri("b")}), nodeKeys(c.SubjectNodes()))
			assert.Equal(t, nodeKeys([]rdf.Term{iri("p"), iri("q")}), nodeKeys(c.PredicateNodes()))

			c.Remove(t2)
			assert.Equal(t, []string{iri("a").Key()}, nodeKeys(c.SubjectNodes()))
			assert.Equal(t, []string{iri("p").Key()}, nodeKeys(c.PredicateNodes()))
			assert.Equal(t, []string{iri("x").Key()}, nodeKeys(c.ObjectNodes()))
			assert.Empty(t, c.WithPredicate(iri("q")))
		})
	}
}

func TestCollection_Clear(t *testing.T) {
	for _, f := range collectionFactories() {
		t.Run(f.name, func(t *testing.T) {
			c := f.new(t)
			for _, tr := range sampleTriples() {
				c.Add(tr)
			}
			c.Clear()

			assert.Equal(t, 0, c.Count())
			assert.Empty(t, c.Triples())
			assert.Empty(t, c.SubjectNodes())
			assert.Empty(t, c.WithPredicate(iri("p")))

			assert.True(t, c.Add(sampleTriples()[0]))
			assert.Equal(t, 1, c.Count())
		})
	}
}

func TestKVCollection_RoundTripsLexicalForms(t *testing.T) {
	c, err := NewKVCollection(nil)
	require.NoError(t, err)
	defer c.Close()

	lit := rdf.NewLiteralWithDatatype("007", rdf.XSDInteger)
	c.Add(rdf.NewTriple(iri("s"), iri("p"), lit))

	got := c.WithSubject(iri("s"))
	require.Len(t, got, 1)
	assert.Equal(t, lit.String(), got[0].Object.String())
}

func TestTreeCollection_OrderedNodes(t *testing.T) {
	c := NewTreeCollection()
	for _, local := range []string{"c", "a", "b"} {
		c.Add(rdf.NewTriple(iri(local), iri("p"), iri("o")))
	}

	var got []string
	for _, n := range c.SubjectNodes() {
		got = append(got, n.Key())
	}
	assert.Equal(t, []string{iri("a").Key(), iri("b").Key(), iri("c").Key()}, got)
}

func TestUnionCollection_PreservesDuplicates(t *testing.T) {
	shared := rdf.NewTriple(iri("s"), iri("p"), iri("o"))
	onlyBase := rdf.NewTriple(iri("s"), iri("p"), iri("base"))

	base := NewIndexedCollection(true)
	base.Add(shared)
	base.Add(onlyBase)
	overlay := NewTrieCollection()
	overlay.Add(shared)

	u := NewUnionCollection(base, overlay)

	assert.Equal(t, base.Count()+overlay.Count(), u.Count())
	assert.Len(t, u.WithSubject(iri("s")), 3)
	assert.Len(t, u.WithSubjectPredicate(iri("s"), iri("p")), 3)
	assert.True(t, u.Contains(shared))
	assert.Len(t, u.SubjectNodes(), 1)

	// Contains holds from the overlay alone
	base.Remove(shared)
	assert.True(t, u.Contains(shared))

	// Mutations only reach the base
	added := rdf.NewTriple(iri("t"), iri("p"), iri("o"))
	assert.True(t, u.Add(added))
	assert.True(t, base.Contains(added))
	assert.False(t, overlay.Contains(added))
}

func TestUnionView_ReadOnly(t *testing.T) {
	a := NewIndexedCollection(false)
	a.Add(rdf.NewTriple(iri("s"), iri("p"), iri("o")))

	view := NewUnionView(a)
	assert.False(t, view.Add(rdf.NewTriple(iri("x"), iri("p"), iri("o"))))
	assert.False(t, view.Remove(rdf.NewTriple(iri("s"), iri("p"), iri("o"))))
	assert.Equal(t, 1, view.Count())
	assert.NoError(t, view.Close())
}

func TestSynchronized_ConcurrentAccess(t *testing.T) {
	for _, mode := range []LockMode{LockReadWrite, LockExclusive} {
		t.Run(string(mode), func(t *testing.T) {
			c := Synchronized(NewIndexedCollection(true), mode)

			var wg sync.WaitGroup
			for w := 0; w < 4; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						c.Add(rdf.NewTriple(iri(fmt.Sprintf("s%d", w)), iri("p"), rdf.NewIntegerLiteral(int64(i))))
						_ = c.WithPredicate(iri("p"))
					}
				}(w)
			}
			wg.Wait()

			assert.Equal(t, 400, c.Count())
			assert.Len(t, c.WithPredicate(iri("p")), 400)
		})
	}
}

func TestSynchronized_Batch(t *testing.T) {
	c := Synchronized(NewTrieCollection(), LockReadWrite)
	c.Batch(func(inner TripleCollection) {
		for _, tr := range sampleTriples() {
			inner.Add(tr)
		}
	})
	assert.Equal(t, len(sampleTriples()), c.Count())
}

func TestNewTripleCollection(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    any
		wantErr bool
	}{
		{"default", DefaultOptions(), &IndexedCollection{}, false},
		{"none", Options{Indexing: IndexNone}, &UnindexedCollection{}, false},
		{"tree", Options{Indexing: IndexTree}, &TreeCollection{}, false},
		{"trie", Options{Indexing: IndexTrie}, &TrieCollection{}, false},
		{"kv", Options{Indexing: IndexKV}, &KVCollection{}, false},
		{"thread safe", Options{Indexing: IndexTrie, ThreadSafe: true}, &SynchronizedCollection{}, false},
		{"unknown", Options{Indexing: "btree"}, nil, true},
		{"bad lock", Options{Indexing: IndexTrie, Locking: "spin"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTripleCollection(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer c.Close()
			assert.IsType(t, tt.want, c)
		})
	}
}
