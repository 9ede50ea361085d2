package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

var (
	ErrGraphNotFound = errors.New("graph not found")
)

// GraphCollection maps graph names to graphs. Adding a graph under a name
// already present merges its triples into the existing graph. A nil name
// denotes the default graph.
type GraphCollection interface {
	// Add stores g, or merges it into the graph of the same name; merged
	// reports which happened
	Add(g *Graph) (merged bool)

	// Remove deletes the named graph and reports whether it existed
	Remove(name rdf.Term) bool

	// Get returns the named graph or ErrGraphNotFound
	Get(name rdf.Term) (*Graph, error)

	Contains(name rdf.Term) bool

	// Names lists graph names ordered by their canonical key
	Names() []rdf.Term

	Count() int

	// Subscribe registers fn for graph added, merged and removed events
	Subscribe(fn func(GraphEvent)) func()
}

// MemoryGraphCollection is the map-backed GraphCollection
type MemoryGraphCollection struct {
	graphs map[string]*Graph
	events *Notifier[GraphEvent]
	logger *slog.Logger
}

// NewGraphCollection creates an empty graph collection
func NewGraphCollection(logger *slog.Logger) *MemoryGraphCollection {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryGraphCollection{
		graphs: make(map[string]*Graph),
		events: NewNotifier(mergeGraphEvents),
		logger: logger,
	}
}

func (gc *MemoryGraphCollection) Add(g *Graph) bool {
	key := g.Name().Key()
	existing, ok := gc.graphs[key]
	if !ok {
		gc.graphs[key] = g
		gc.logger.Debug("graph added", "graph", g.Name().String(), "triples", g.Count())
		gc.events.Emit(GraphEvent{Added: []rdf.Term{g.Name()}})
		return false
	}
	if existing != g {
		added := existing.Merge(g, true)
		gc.logger.Debug("graph merged", "graph", g.Name().String(), "added", added)
	}
	gc.events.Emit(GraphEvent{Merged: []rdf.Term{g.Name()}})
	return true
}

func (gc *MemoryGraphCollection) Remove(name rdf.Term) bool {
	name = graphName(name)
	key := name.Key()
	if _, ok := gc.graphs[key]; !ok {
		return false
	}
	delete(gc.graphs, key)
	gc.logger.Debug("graph removed", "graph", name.String())
	gc.events.Emit(GraphEvent{Removed: []rdf.Term{name}})
	return true
}

func (gc *MemoryGraphCollection) Get(name rdf.Term) (*Graph, error) {
	name = graphName(name)
	g, ok := gc.graphs[name.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
	}
	return g, nil
}

func (gc *MemoryGraphCollection) Contains(name rdf.Term) bool {
	_, ok := gc.graphs[graphName(name).Key()]
	return ok
}

func (gc *MemoryGraphCollection) Names() []rdf.Term {
	keys := make([]string, 0, len(gc.graphs))
	for key := range gc.graphs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	names := make([]rdf.Term, len(keys))
	for i, key := range keys {
		names[i] = gc.graphs[key].Name()
	}
	return names
}

func (gc *MemoryGraphCollection) Count() int {
	return len(gc.graphs)
}

func (gc *MemoryGraphCollection) Subscribe(fn func(GraphEvent)) func() {
	return gc.events.Subscribe(fn)
}

// BeginBatch starts coalescing graph events
func (gc *MemoryGraphCollection) BeginBatch() {
	gc.events.BeginBatch()
}

// EndBatch emits one event for everything changed since BeginBatch
func (gc *MemoryGraphCollection) EndBatch() {
	gc.events.EndBatch()
}

// SynchronizedGraphCollection guards a GraphCollection with a lock
type SynchronizedGraphCollection struct {
	inner GraphCollection
	lock  locker
}

// SynchronizedGraphs wraps gc for concurrent use
func SynchronizedGraphs(gc GraphCollection, mode LockMode) *SynchronizedGraphCollection {
	return &SynchronizedGraphCollection{
		inner: gc,
		lock:  locker{exclusive: mode == LockExclusive},
	}
}

func (s *SynchronizedGraphCollection) Add(g *Graph) bool {
	s.lock.mu.Lock()
	defer s.lock.mu.Unlock()
	return s.inner.Add(g)
}

func (s *SynchronizedGraphCollection) Remove(name rdf.Term) bool {
	s.lock.mu.Lock()
	defer s.lock.mu.Unlock()
	return s.inner.Remove(name)
}

func (s *SynchronizedGraphCollection) Get(name rdf.Term) (*Graph, error) {
	s.lock.rlock()
	defer s.lock.runlock()
	return s.inner.Get(name)
}

func (s *SynchronizedGraphCollection) Contains(name rdf.Term) bool {
	s.lock.rlock()
	defer s.lock.runlock()
	return s.inner.Contains(name)
}

func (s *SynchronizedGraphCollection) Names() []rdf.Term {
	s.lock.rlock()
	defer s.lock.runlock()
	return s.inner.Names()
}

func (s *SynchronizedGraphCollection) Count() int {
	s.lock.rlock()
	defer s.lock.runlock()
	return s.inner.Count()
}

func (s *SynchronizedGraphCollection) Subscribe(fn func(GraphEvent)) func() {
	return s.inner.Subscribe(fn)
}
