package patterns

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/trimem/pkg/sparql/expression"
)

// OrderCondition is one ORDER BY key
type OrderCondition struct {
	Expression expression.Expression
	Descending bool
}

func (c OrderCondition) String() string {
	if c.Descending {
		return "DESC(" + c.Expression.String() + ")"
	}
	return "ASC(" + c.Expression.String() + ")"
}

// Query is a SELECT query used as a subquery
type Query struct {
	Variables []string // Projected variables; nil selects every visible variable
	Distinct  bool
	Where     *GraphPattern
	OrderBy   []OrderCondition
	Limit     int // Negative for no limit
	Offset    int
}

// NewQuery creates a SELECT * query over where
func NewQuery(where *GraphPattern) *Query {
	return &Query{Where: where, Limit: -1}
}

// ProjectedVariables returns the variables in the query result. Variables
// of query blank nodes are never projected.
func (q *Query) ProjectedVariables() []string {
	if q.Variables != nil {
		return append([]string(nil), q.Variables...)
	}
	var vars []string
	if q.Where != nil {
		for _, v := range q.Where.Variables() {
			if !IsHidden(v) {
				vars = append(vars, v)
			}
		}
	}
	return vars
}

// IsSliced reports whether LIMIT or OFFSET applies
func (q *Query) IsSliced() bool {
	return q.Limit >= 0 || q.Offset > 0
}

// WithWhere returns a copy of q over where
func (q *Query) WithWhere(where *GraphPattern) *Query {
	c := *q
	c.Where = where
	return &c
}

func (q *Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	if q.Variables == nil {
		b.WriteString("*")
	} else {
		for i, v := range q.Variables {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString("?" + v)
		}
	}
	b.WriteString(" WHERE ")
	if q.Where != nil {
		b.WriteString(q.Where.String())
	} else {
		b.WriteString("{ }")
	}
	if len(q.OrderBy) > 0 {
		b.WriteString(" ORDER BY")
		for _, c := range q.OrderBy {
			b.WriteString(" " + c.String())
		}
	}
	if q.Limit >= 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.Offset)
	}
	return b.String()
}
