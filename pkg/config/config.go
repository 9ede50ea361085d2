// Package config loads store and engine settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/aleksaelezovic/trimem/pkg/sparql/engine"
	"github.com/aleksaelezovic/trimem/pkg/sparql/patterns"
	"github.com/aleksaelezovic/trimem/pkg/store"
)

// Config is the root of a configuration file
type Config struct {
	Store  store.Options  `yaml:"store"`
	Engine engine.Options `yaml:"engine"`
}

// Default returns the configuration used for missing keys
func Default() Config {
	return Config{
		Store:  store.DefaultOptions(),
		Engine: engine.DefaultOptions(),
	}
}

// Load reads and parses the YAML file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the store settings and their agreement with the engine
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if c.Engine.FullIndexing && c.Store.Indexing == store.IndexSimple && !c.Store.FullIndexing {
		return errors.New("engine.full_indexing requires store.full_indexing with simple indexing")
	}
	return nil
}

// WithLogger sets the logger of both the store and the engine
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	c.Store.Logger = logger
	c.Engine.Logger = logger
	return c
}

// NewGraph creates an empty graph with the store settings
func (c *Config) NewGraph(name rdf.Term) (*store.Graph, error) {
	return store.NewGraphWithOptions(name, c.Store)
}

// NewEngine creates an engine with the engine settings
func (c *Config) NewEngine() *engine.Engine {
	return engine.New(c.Engine)
}

// PatternOptions returns the triple pattern options that match the engine
// settings. Patterns built without them assume full indexing.
func (c *Config) PatternOptions() []patterns.Option {
	return []patterns.Option{patterns.WithFullIndexing(c.Engine.FullIndexing)}
}

// NewBuilder creates a graph pattern builder whose triple patterns match
// the engine settings
func (c *Config) NewBuilder() *patterns.Builder {
	return patterns.NewBuilder(c.PatternOptions()...)
}
