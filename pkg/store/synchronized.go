package store

import (
	"sync"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// LockMode selects the locking discipline of the synchronized decorators
type LockMode string

const (
	// LockReadWrite allows concurrent readers and one writer
	LockReadWrite LockMode = "readwrite"
	// LockExclusive serializes every operation
	LockExclusive LockMode = "exclusive"
)

// locker is an RWMutex that can be downgraded to exclusive-only locking
type locker struct {
	mu        sync.RWMutex
	exclusive bool
}

func (l *locker) rlock() {
	if l.exclusive {
		l.mu.Lock()
		return
	}
	l.mu.RLock()
}

func (l *locker) runlock() {
	if l.exclusive {
		l.mu.Unlock()
		return
	}
	l.mu.RUnlock()
}

// SynchronizedCollection guards any TripleCollection with a lock. Results
// are materialized while the lock is held, so callers may iterate them
// without holding it.
type SynchronizedCollection struct {
	inner TripleCollection
	lock  locker
}

// Synchronized wraps c for concurrent use
func Synchronized(c TripleCollection, mode LockMode) *SynchronizedCollection {
	return &SynchronizedCollection{
		inner: c,
		lock:  locker{exclusive: mode == LockExclusive},
	}
}

// Batch runs fn with the write lock held. fn must use the collection it
// is given, not the decorator, to avoid deadlock.
func (c *SynchronizedCollection) Batch(fn func(TripleCollection)) {
	c.lock.mu.Lock()
	defer c.lock.mu.Unlock()
	fn(c.inner)
}

func (c *SynchronizedCollection) Add(t *rdf.Triple) bool {
	c.lock.mu.Lock()
	defer c.lock.mu.Unlock()
	return c.inner.Add(t)
}

func (c *SynchronizedCollection) Remove(t *rdf.Triple) bool {
	c.lock.mu.Lock()
	defer c.lock.mu.Unlock()
	return c.inner.Remove(t)
}

func (c *SynchronizedCollection) Clear() {
	c.lock.mu.Lock()
	defer c.lock.mu.Unlock()
	c.inner.Clear()
}

func (c *SynchronizedCollection) Close() error {
	c.lock.mu.Lock()
	defer c.lock.mu.Unlock()
	return c.inner.Close()
}

func (c *SynchronizedCollection) Contains(t *rdf.Triple) bool {
	c.lock.rlock()
	defer c.lock.runlock()
	return c.inner.Contains(t)
}

func (c *SynchronizedCollection) Count() int {
	c.lock.rlock()
	defer c.lock.runlock()
	return c.inner.Count()
}

func (c *SynchronizedCollection) read(get func(TripleSource) []*rdf.Triple) []*rdf.Triple {
	c.lock.rlock()
	defer c.lock.runlock()
	return get(c.inner)
}

func (c *SynchronizedCollection) readNodes(get func(TripleSource) []rdf.Term) []rdf.Term {
	c.lock.rlock()
	defer c.lock.runlock()
	return get(c.inner)
}

func (c *SynchronizedCollection) Triples() []*rdf.Triple {
	return c.read(func(src TripleSource) []*rdf.Triple { return src.Triples() })
}

func (c *SynchronizedCollection) WithSubject(s rdf.Term) []*rdf.Triple {
	return c.read(func(src TripleSource) []*rdf.Triple { return src.WithSubject(s) })
}

func (c *SynchronizedCollection) WithPredicate(p rdf.Term) []*rdf.Triple {
	return c.read(func(src TripleSource) []*rdf.Triple { return src.WithPredicate(p) })
}

func (c *SynchronizedCollection) WithObject(o rdf.Term) []*rdf.Triple {
	return c.read(func(src TripleSource) []*rdf.Triple { return src.WithObject(o) })
}

func (c *SynchronizedCollection) WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple {
	return c.read(func(src TripleSource) []*rdf.Triple { return src.WithSubjectPredicate(s, p) })
}

func (c *SynchronizedCollection) WithSubjectObject(s, o rdf.Term) []*rdf.Triple {
	return c.read(func(src TripleSource) []*rdf.Triple { return src.WithSubjectObject(s, o) })
}

func (c *SynchronizedCollection) WithPredicateObject(p, o rdf.Term) []*rdf.Triple {
	return c.read(func(src TripleSource) []*rdf.Triple { return src.WithPredicateObject(p, o) })
}

func (c *SynchronizedCollection) SubjectNodes() []rdf.Term {
	return c.readNodes(func(src TripleSource) []rdf.Term { return src.SubjectNodes() })
}

func (c *SynchronizedCollection) PredicateNodes() []rdf.Term {
	return c.readNodes(func(src TripleSource) []rdf.Term { return src.PredicateNodes() })
}

func (c *SynchronizedCollection) ObjectNodes() []rdf.Term {
	return c.readNodes(func(src TripleSource) []rdf.Term { return src.ObjectNodes() })
}
