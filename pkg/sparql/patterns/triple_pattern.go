package patterns

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

var (
	ErrBlankPredicate = errors.New("blank node used as predicate")
	ErrInvalidPattern = errors.New("invalid pattern")
)

// IndexType names the collection lookup used to find candidate triples
// for a pattern
type IndexType int

const (
	NoIndex IndexType = iota
	NoVariables
	SubjectIndex
	PredicateIndex
	ObjectIndex
	SubjectPredicateIndex
	SubjectObjectIndex
	PredicateObjectIndex
)

func (t IndexType) String() string {
	switch t {
	case NoIndex:
		return "none"
	case NoVariables:
		return "no-variables"
	case SubjectIndex:
		return "subject"
	case PredicateIndex:
		return "predicate"
	case ObjectIndex:
		return "object"
	case SubjectPredicateIndex:
		return "subject-predicate"
	case SubjectObjectIndex:
		return "subject-object"
	case PredicateObjectIndex:
		return "predicate-object"
	default:
		return "unknown"
	}
}

// usefulness ranks index types for ordering; lower is more selective
func (t IndexType) usefulness() int {
	switch t {
	case NoVariables:
		return 0
	case SubjectPredicateIndex, SubjectObjectIndex, PredicateObjectIndex:
		return 1
	case SubjectIndex, PredicateIndex, ObjectIndex:
		return 2
	default:
		return 3
	}
}

type tripleOptions struct {
	fullIndexing bool
}

// Option configures triple pattern construction
type Option func(*tripleOptions)

// WithFullIndexing selects compound index types for patterns with two
// constant positions. It is enabled by default.
func WithFullIndexing(enabled bool) Option {
	return func(o *tripleOptions) {
		o.fullIndexing = enabled
	}
}

// TriplePattern matches triples position by position
type TriplePattern struct {
	Subject   PatternItem
	Predicate PatternItem
	Object    PatternItem

	indexType IndexType
	variables []string
}

// NewTriplePattern validates the items and classifies the pattern
func NewTriplePattern(subject, predicate, object PatternItem, opts ...Option) (*TriplePattern, error) {
	options := tripleOptions{fullIndexing: true}
	for _, opt := range opts {
		opt(&options)
	}

	for _, item := range []PatternItem{subject, predicate, object} {
		if item.Kind == ItemNode && item.Node == nil {
			return nil, fmt.Errorf("%w: missing term", ErrInvalidPattern)
		}
		if item.Kind != ItemNode && item.Name == "" {
			return nil, fmt.Errorf("%w: empty name in %s item", ErrInvalidPattern, item.Kind)
		}
	}
	switch predicate.Kind {
	case ItemBlankNode, ItemFixedBlankNode:
		return nil, fmt.Errorf("%w: %s", ErrBlankPredicate, predicate)
	case ItemNode:
		if predicate.Node.Type() == rdf.TermTypeBlankNode {
			return nil, fmt.Errorf("%w: %s", ErrBlankPredicate, predicate)
		}
	}

	subject.Repeated = false
	predicate.Repeated = subject.VariableName() != "" && predicate.VariableName() == subject.VariableName()
	object.Repeated = object.VariableName() != "" &&
		(object.VariableName() == subject.VariableName() || object.VariableName() == predicate.VariableName())

	tp := &TriplePattern{Subject: subject, Predicate: predicate, Object: object}
	tp.variables = tp.collectVariables()
	tp.indexType = classify(subject.IsFixed(), predicate.IsFixed(), object.IsFixed(), options.fullIndexing)
	return tp, nil
}

// MustTriplePattern is NewTriplePattern that panics on error. It is meant
// for statically known patterns.
func MustTriplePattern(subject, predicate, object PatternItem, opts ...Option) *TriplePattern {
	tp, err := NewTriplePattern(subject, predicate, object, opts...)
	if err != nil {
		panic(err)
	}
	return tp
}

func classify(s, p, o, full bool) IndexType {
	switch {
	case s && p && o:
		return NoVariables
	case s && p:
		if full {
			return SubjectPredicateIndex
		}
		return SubjectIndex
	case s && o:
		if full {
			return SubjectObjectIndex
		}
		return SubjectIndex
	case p && o:
		if full {
			return PredicateObjectIndex
		}
		return ObjectIndex
	case s:
		return SubjectIndex
	case p:
		return PredicateIndex
	case o:
		return ObjectIndex
	default:
		return NoIndex
	}
}

func (tp *TriplePattern) collectVariables() []string {
	var vars []string
	for _, item := range tp.Items() {
		if name := item.VariableName(); name != "" && !item.Repeated {
			vars = append(vars, name)
		}
	}
	sort.Strings(vars)
	return vars
}

func (tp *TriplePattern) pattern() {}

// Items returns subject, predicate and object
func (tp *TriplePattern) Items() [3]PatternItem {
	return [3]PatternItem{tp.Subject, tp.Predicate, tp.Object}
}

// IndexType returns the lookup chosen at construction
func (tp *TriplePattern) IndexType() IndexType {
	return tp.indexType
}

// Variables returns the distinct variable names in sorted order
func (tp *TriplePattern) Variables() []string {
	return append([]string(nil), tp.variables...)
}

// HasNoVariables reports whether every position is fixed
func (tp *TriplePattern) HasNoVariables() bool {
	return len(tp.variables) == 0
}

// HasRepeatedVariables reports whether a variable occurs more than once
func (tp *TriplePattern) HasRepeatedVariables() bool {
	return tp.Predicate.Repeated || tp.Object.Repeated
}

// Triple returns the concrete triple of a pattern without variables
func (tp *TriplePattern) Triple() (*rdf.Triple, bool) {
	if !tp.HasNoVariables() {
		return nil, false
	}
	return rdf.NewTriple(tp.Subject.Term(), tp.Predicate.Term(), tp.Object.Term()), true
}

// CompareTo orders patterns for execution. Patterns with fewer variables
// come first, then patterns whose sorted variable lists compare lower,
// then patterns with the more selective index type. Patterns without
// variables are all equal.
func (tp *TriplePattern) CompareTo(other *TriplePattern) int {
	if n, m := len(tp.variables), len(other.variables); n != m {
		if n < m {
			return -1
		}
		return 1
	}
	if len(tp.variables) == 0 {
		return 0
	}
	for i := range tp.variables {
		if c := strings.Compare(tp.variables[i], other.variables[i]); c != 0 {
			return c
		}
	}
	a, b := tp.indexType.usefulness(), other.indexType.usefulness()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (tp *TriplePattern) String() string {
	return fmt.Sprintf("%s %s %s", tp.Subject, tp.Predicate, tp.Object)
}
