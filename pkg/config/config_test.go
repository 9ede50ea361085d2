package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/engine"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
	"github.com/aleksaelezovic/trimem/pkg/store"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestParse_OverridesKeys(t *testing.T) {
	cfg, err := Parse([]byte(`
store:
  indexing: tree
  thread_safe: true
  locking: exclusive
engine:
  optimise: false
`))
	require.NoError(t, err)

	assert.Equal(t, store.IndexTree, cfg.Store.Indexing)
	assert.True(t, cfg.Store.ThreadSafe)
	assert.Equal(t, store.LockExclusive, cfg.Store.Locking)
	assert.Equal(t, rdf.DefaultInternSize, cfg.Store.InternCacheSize)
	assert.False(t, cfg.Engine.Optimise)
	assert.True(t, cfg.Engine.FullIndexing)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "store:\n  indexes: tree\n"},
		{"unknown indexing", "store:\n  indexing: btree\n"},
		{"unknown locking", "store:\n  locking: spin\n"},
		{"malformed", "store: [\n"},
		{"engine needs compound indexes", "store:\n  full_indexing: false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_SimpleIndexing(t *testing.T) {
	cfg, err := Parse([]byte("store:\n  full_indexing: false\nengine:\n  full_indexing: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Store.FullIndexing)
	assert.False(t, cfg.Engine.FullIndexing)

	g, err := cfg.NewGraph(nil)
	require.NoError(t, err)
	alice := rdf.NewNamedNode("http://example.org/alice")
	name := rdf.NewNamedNode("http://example.org/name")
	g.Assert(rdf.NewTriple(alice, name, rdf.NewLiteral("Alice")))

	// Two constants need a compound index the engine does not use here
	gp, err := cfg.NewBuilder().
		Triple(patterns.Node(alice), patterns.Node(name), patterns.Var("n")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, patterns.SubjectIndex, gp.TriplePatterns()[0].IndexType())

	ec := engine.NewContext(store.NewDatasetFromSource(g))
	got, err := cfg.NewEngine().EvaluateGraphPattern(context.Background(), gp, ec)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trimem.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  indexing: trie\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, store.IndexTrie, cfg.Store.Indexing)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Constructors(t *testing.T) {
	cfg, err := Parse([]byte("store:\n  indexing: tree\n"))
	require.NoError(t, err)

	g, err := cfg.NewGraph(rdf.NewNamedNode("http://example.org/g"))
	require.NoError(t, err)
	assert.IsType(t, &store.TreeCollection{}, g.Collection())

	assert.NotNil(t, cfg.NewEngine())
}
