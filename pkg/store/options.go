package store

import (
	"fmt"
	"log/slog"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// IndexMode selects the TripleCollection implementation
type IndexMode string

const (
	IndexNone   IndexMode = "none"
	IndexSimple IndexMode = "simple"
	IndexTree   IndexMode = "tree"
	IndexTrie   IndexMode = "trie"
	IndexKV     IndexMode = "kv"
)

// Options configures collections and graphs created by this package
type Options struct {
	// Indexing selects the collection variant
	Indexing IndexMode `yaml:"indexing"`

	// FullIndexing enables the subject-predicate, subject-object and
	// predicate-object indexes of the simple variant. Tree, trie and kv
	// collections always answer two-position lookups directly.
	FullIndexing bool `yaml:"full_indexing"`

	// ThreadSafe wraps collections in a synchronized decorator
	ThreadSafe bool     `yaml:"thread_safe"`
	Locking    LockMode `yaml:"locking"`

	// InternCacheSize bounds the IRI interning table of graphs; zero or
	// less disables interning
	InternCacheSize int `yaml:"intern_cache_size"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultOptions returns the default configuration
func DefaultOptions() Options {
	return Options{
		Indexing:        IndexSimple,
		FullIndexing:    true,
		Locking:         LockReadWrite,
		InternCacheSize: rdf.DefaultInternSize,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Validate checks that the enumerated options hold known values
func (o Options) Validate() error {
	switch o.Indexing {
	case IndexNone, IndexSimple, IndexTree, IndexTrie, IndexKV:
	default:
		return fmt.Errorf("unknown indexing mode %q", o.Indexing)
	}
	switch o.Locking {
	case LockReadWrite, LockExclusive, "":
	default:
		return fmt.Errorf("unknown locking mode %q", o.Locking)
	}
	return nil
}

// NewTripleCollection creates an empty collection as described by opts
func NewTripleCollection(opts Options) (TripleCollection, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var c TripleCollection
	switch opts.Indexing {
	case IndexNone:
		c = NewUnindexedCollection()
	case IndexSimple:
		c = NewIndexedCollection(opts.FullIndexing)
	case IndexTree:
		c = NewTreeCollection()
	case IndexTrie:
		c = NewTrieCollection()
	case IndexKV:
		kv, err := NewKVCollection(opts.logger())
		if err != nil {
			return nil, fmt.Errorf("failed to create kv collection: %w", err)
		}
		c = kv
	}

	opts.logger().Debug("created triple collection",
		"indexing", string(opts.Indexing),
		"full_indexing", opts.FullIndexing,
		"thread_safe", opts.ThreadSafe)

	if opts.ThreadSafe {
		return Synchronized(c, opts.Locking), nil
	}
	return c, nil
}

// NewGraphWithOptions creates an empty graph whose collection and interner
// are built from opts
func NewGraphWithOptions(name rdf.Term, opts Options) (*Graph, error) {
	c, err := NewTripleCollection(opts)
	if err != nil {
		return nil, err
	}

	var graphOpts []GraphOption
	if opts.InternCacheSize > 0 {
		in, err := rdf.NewInterner(opts.InternCacheSize)
		if err != nil {
			return nil, err
		}
		graphOpts = append(graphOpts, WithInterner(in))
	}
	return NewGraph(name, c, graphOpts...), nil
}
