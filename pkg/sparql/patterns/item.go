// Package patterns is the query pattern model consumed by algebra
// compilation and evaluation.
//
// Patterns are plain immutable values. Matching logic lives in the
// engine, which switches on the item kind and the concrete pattern type.
package patterns

import (
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// ItemKind tags the variants of PatternItem
type ItemKind int

const (
	// ItemVariable matches any term and binds it to a variable
	ItemVariable ItemKind = iota
	// ItemNode matches exactly one constant term
	ItemNode
	// ItemBlankNode is a blank node written in a query. It behaves as a
	// variable that is never projected.
	ItemBlankNode
	// ItemFixedBlankNode matches one specific blank node of the data
	ItemFixedBlankNode
)

func (k ItemKind) String() string {
	switch k {
	case ItemVariable:
		return "variable"
	case ItemNode:
		return "node"
	case ItemBlankNode:
		return "blank"
	case ItemFixedBlankNode:
		return "fixed-blank"
	default:
		return "unknown"
	}
}

// BlankVariablePrefix starts the variable name of a query blank node
const BlankVariablePrefix = "_:"

// PatternItem is one position of a pattern
type PatternItem struct {
	Kind ItemKind
	Name string   // variable name or blank node label
	Node rdf.Term // constant for ItemNode

	// Repeated is set on an occurrence of a variable already used at an
	// earlier position of the same triple pattern
	Repeated bool
}

// Var creates a variable item
func Var(name string) PatternItem {
	return PatternItem{Kind: ItemVariable, Name: name}
}

// Node creates a constant item. A variable term becomes a variable item.
func Node(term rdf.Term) PatternItem {
	if v, ok := term.(*rdf.Variable); ok {
		return Var(v.Name)
	}
	return PatternItem{Kind: ItemNode, Node: term}
}

// Blank creates a query blank node item
func Blank(label string) PatternItem {
	return PatternItem{Kind: ItemBlankNode, Name: label}
}

// FixedBlank creates an item matching the data blank node with id
func FixedBlank(id string) PatternItem {
	return PatternItem{Kind: ItemFixedBlankNode, Name: id}
}

// IsFixed reports whether the item matches a single known term
func (i PatternItem) IsFixed() bool {
	return i.Kind == ItemNode || i.Kind == ItemFixedBlankNode
}

// VariableName returns the name the item binds, or "" for fixed items.
// Query blank nodes bind a name carrying BlankVariablePrefix.
func (i PatternItem) VariableName() string {
	switch i.Kind {
	case ItemVariable:
		return i.Name
	case ItemBlankNode:
		return BlankVariablePrefix + i.Name
	default:
		return ""
	}
}

// Term returns the term a fixed item matches, or nil
func (i PatternItem) Term() rdf.Term {
	switch i.Kind {
	case ItemNode:
		return i.Node
	case ItemFixedBlankNode:
		return rdf.NewBlankNode(i.Name)
	default:
		return nil
	}
}

func (i PatternItem) String() string {
	switch i.Kind {
	case ItemVariable:
		return "?" + i.Name
	case ItemBlankNode:
		return "_:" + i.Name
	case ItemFixedBlankNode:
		return "<_:" + i.Name + ">"
	default:
		if i.Node == nil {
			return "<nil>"
		}
		return i.Node.String()
	}
}

// IsHidden reports whether a variable name belongs to a query blank node
// and is therefore never projected
func IsHidden(name string) bool {
	return strings.HasPrefix(name, BlankVariablePrefix)
}
