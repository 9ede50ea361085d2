package store

import (
	"sync"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// ChangeEvent describes triples added to or removed from a graph. Within
// a batch the events of every mutation are merged into one.
type ChangeEvent struct {
	Graph   rdf.Term
	Added   []*rdf.Triple
	Removed []*rdf.Triple
	Cleared bool
}

func mergeChangeEvents(a, b ChangeEvent) ChangeEvent {
	return ChangeEvent{
		Graph:   a.Graph,
		Added:   append(a.Added, b.Added...),
		Removed: append(a.Removed, b.Removed...),
		Cleared: a.Cleared || b.Cleared,
	}
}

// GraphEvent describes graphs added to, merged into, or removed from a
// graph collection
type GraphEvent struct {
	Added   []rdf.Term
	Merged  []rdf.Term
	Removed []rdf.Term
}

func mergeGraphEvents(a, b GraphEvent) GraphEvent {
	return GraphEvent{
		Added:   append(a.Added, b.Added...),
		Merged:  append(a.Merged, b.Merged...),
		Removed: append(a.Removed, b.Removed...),
	}
}

// Notifier delivers events to subscribers. Between BeginBatch and the
// matching EndBatch, emitted events are merged and delivered once.
// Batches nest.
type Notifier[E any] struct {
	mu          sync.Mutex
	subscribers map[int]func(E)
	nextID      int
	depth       int
	pending     E
	hasPending  bool
	merge       func(a, b E) E
}

// NewNotifier creates a notifier that combines batched events with merge
func NewNotifier[E any](merge func(a, b E) E) *Notifier[E] {
	return &Notifier[E]{
		subscribers: make(map[int]func(E)),
		merge:       merge,
	}
}

// Subscribe registers fn and returns a function that removes it
func (n *Notifier[E]) Subscribe(fn func(E)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subscribers, id)
		})
	}
}

// Emit delivers e now, or folds it into the open batch
func (n *Notifier[E]) Emit(e E) {
	n.mu.Lock()
	if n.depth > 0 {
		if n.hasPending {
			n.pending = n.merge(n.pending, e)
		} else {
			n.pending = e
			n.hasPending = true
		}
		n.mu.Unlock()
		return
	}
	subscribers := n.snapshot()
	n.mu.Unlock()

	deliver(subscribers, e)
}

// BeginBatch opens a batch
func (n *Notifier[E]) BeginBatch() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.depth++
}

// EndBatch closes a batch; closing the outermost one delivers the merged
// event if anything was emitted
func (n *Notifier[E]) EndBatch() {
	n.mu.Lock()
	if n.depth == 0 {
		n.mu.Unlock()
		return
	}
	n.depth--
	if n.depth > 0 || !n.hasPending {
		n.mu.Unlock()
		return
	}
	e := n.pending
	var zero E
	n.pending = zero
	n.hasPending = false
	subscribers := n.snapshot()
	n.mu.Unlock()

	deliver(subscribers, e)
}

// InBatch reports whether a batch is open
func (n *Notifier[E]) InBatch() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.depth > 0
}

func (n *Notifier[E]) snapshot() []func(E) {
	subscribers := make([]func(E), 0, len(n.subscribers))
	for id := 0; id < n.nextID; id++ {
		if fn, ok := n.subscribers[id]; ok {
			subscribers = append(subscribers, fn)
		}
	}
	return subscribers
}

func deliver[E any](subscribers []func(E), e E) {
	for _, fn := range subscribers {
		fn(e)
	}
}
