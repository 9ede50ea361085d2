package expression

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// Operator identifies a unary or binary operator
type Operator int

const (
	// Logical operators
	OpAnd Operator = iota
	OpOr
	OpNot

	// Comparison operators
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual

	// Arithmetic operators
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
	OpPlus
)

var operatorSymbols = map[Operator]string{
	OpAnd:                "&&",
	OpOr:                 "||",
	OpNot:                "!",
	OpEqual:              "=",
	OpNotEqual:           "!=",
	OpLessThan:           "<",
	OpLessThanOrEqual:    "<=",
	OpGreaterThan:        ">",
	OpGreaterThanOrEqual: ">=",
	OpAdd:                "+",
	OpSubtract:           "-",
	OpMultiply:           "*",
	OpDivide:             "/",
	OpNegate:             "-",
	OpPlus:               "+",
}

func (op Operator) String() string {
	if s, ok := operatorSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Binary applies a binary operator to two operands
type Binary struct {
	Op          Operator
	Left, Right Expression
}

func NewBinary(op Operator, left, right Expression) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func (b *Binary) Variables() []string {
	return collectVariables(b.Left, b.Right)
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Evaluate evaluates binary operations. The logical operators follow the
// SPARQL error rules: an error on one side is masked when the other side
// decides the result.
func (b *Binary) Evaluate(sol Solution) (rdf.Term, error) {
	switch b.Op {
	case OpAnd:
		return evaluateAnd(b.Left, b.Right, sol)
	case OpOr:
		return evaluateOr(b.Left, b.Right, sol)
	}

	left, err := b.Left.Evaluate(sol)
	if err != nil {
		return nil, err
	}

	right, err := b.Right.Evaluate(sol)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	// Comparison operators
	case OpEqual:
		return evaluateEqual(left, right)
	case OpNotEqual:
		return evaluateNotEqual(left, right)
	case OpLessThan:
		return evaluateCompare(left, right, func(c int) bool { return c < 0 })
	case OpLessThanOrEqual:
		return evaluateCompare(left, right, func(c int) bool { return c <= 0 })
	case OpGreaterThan:
		return evaluateCompare(left, right, func(c int) bool { return c > 0 })
	case OpGreaterThanOrEqual:
		return evaluateCompare(left, right, func(c int) bool { return c >= 0 })

	// Arithmetic operators
	case OpAdd:
		return evaluateArithmetic(left, right, "add", func(a, b float64) (float64, error) { return a + b, nil })
	case OpSubtract:
		return evaluateArithmetic(left, right, "subtract", func(a, b float64) (float64, error) { return a - b, nil })
	case OpMultiply:
		return evaluateArithmetic(left, right, "multiply", func(a, b float64) (float64, error) { return a * b, nil })
	case OpDivide:
		return evaluateArithmetic(left, right, "divide", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("%w: division by zero", ErrTypeError)
			}
			return a / b, nil
		})

	default:
		return nil, fmt.Errorf("unsupported binary operator: %v", b.Op)
	}
}

// Unary applies a unary operator
type Unary struct {
	Op      Operator
	Operand Expression
}

func NewUnary(op Operator, operand Expression) *Unary {
	return &Unary{Op: op, Operand: operand}
}

func (u *Unary) Variables() []string {
	return u.Operand.Variables()
}

func (u *Unary) String() string {
	return fmt.Sprintf("%s(%s)", u.Op, u.Operand)
}

func (u *Unary) Evaluate(sol Solution) (rdf.Term, error) {
	operand, err := u.Operand.Evaluate(sol)
	if err != nil {
		return nil, err
	}

	switch u.Op {
	case OpNot:
		ebv, err := EBV(operand)
		if err != nil {
			return nil, err
		}
		return rdf.NewBooleanLiteral(!ebv), nil
	case OpNegate:
		val, ok := extractNumeric(operand)
		if !ok {
			return nil, fmt.Errorf("%w: cannot negate non-numeric term", ErrTypeError)
		}
		return createNumericLiteral(-val, operand, operand), nil
	case OpPlus:
		if _, ok := extractNumeric(operand); !ok {
			return nil, fmt.Errorf("%w: unary plus on non-numeric term", ErrTypeError)
		}
		return operand, nil
	default:
		return nil, fmt.Errorf("unsupported unary operator: %v", u.Op)
	}
}

// Logical operators

func evaluateAnd(leftExpr, rightExpr Expression, sol Solution) (rdf.Term, error) {
	leftEBV, leftErr := EffectiveBooleanValue(leftExpr, sol)
	if leftErr == nil && !leftEBV {
		// Short-circuit: if left is false, return false without evaluating right
		return rdf.NewBooleanLiteral(false), nil
	}

	rightEBV, rightErr := EffectiveBooleanValue(rightExpr, sol)
	if rightErr == nil && !rightEBV {
		// false && error is false
		return rdf.NewBooleanLiteral(false), nil
	}
	if leftErr != nil {
		return nil, leftErr
	}
	if rightErr != nil {
		return nil, rightErr
	}
	return rdf.NewBooleanLiteral(true), nil
}

func evaluateOr(leftExpr, rightExpr Expression, sol Solution) (rdf.Term, error) {
	leftEBV, leftErr := EffectiveBooleanValue(leftExpr, sol)
	if leftErr == nil && leftEBV {
		// Short-circuit: if left is true, return true
		return rdf.NewBooleanLiteral(true), nil
	}

	rightEBV, rightErr := EffectiveBooleanValue(rightExpr, sol)
	if rightErr == nil && rightEBV {
		// In SPARQL, if left is error but right is true, return true
		return rdf.NewBooleanLiteral(true), nil
	}
	if leftErr != nil {
		return nil, leftErr
	}
	if rightErr != nil {
		return nil, rightErr
	}
	return rdf.NewBooleanLiteral(false), nil
}

// EBV computes the effective boolean value of a term
func EBV(term rdf.Term) (bool, error) {
	if term == nil {
		return false, fmt.Errorf("%w: cannot compute EBV of nil term", ErrTypeError)
	}

	t, ok := term.(*rdf.Literal)
	if !ok {
		// IRIs, blank nodes, etc.: error
		return false, fmt.Errorf("%w: cannot compute EBV of non-literal term", ErrTypeError)
	}

	if t.Datatype != nil && t.Datatype.IRI == rdf.XSDBoolean.IRI {
		return t.Value == "true" || t.Value == "1", nil
	}

	// Numeric literals: false if zero or NaN, true otherwise
	if t.Datatype != nil && isNumericDatatype(t.Datatype.IRI) {
		val, ok := extractNumeric(t)
		if !ok {
			return false, nil
		}
		return val != 0 && !math.IsNaN(val), nil
	}

	// String literals: false if empty, true otherwise
	if t.Datatype == nil || t.Datatype.IRI == rdf.XSDString.IRI {
		return t.Value != "", nil
	}

	// Other literals: error
	return false, fmt.Errorf("%w: cannot compute EBV of literal with datatype %s", ErrTypeError, t.Datatype.IRI)
}

// Comparison operators

func evaluateEqual(left, right rdf.Term) (rdf.Term, error) {
	return rdf.NewBooleanLiteral(termsEqualValue(left, right)), nil
}

func evaluateNotEqual(left, right rdf.Term) (rdf.Term, error) {
	return rdf.NewBooleanLiteral(!termsEqualValue(left, right)), nil
}

func evaluateCompare(left, right rdf.Term, accept func(int) bool) (rdf.Term, error) {
	cmp, err := compareTerms(left, right)
	if err != nil {
		return nil, err
	}
	return rdf.NewBooleanLiteral(accept(cmp)), nil
}

// termsEqualValue is RDF term equality extended with numeric value
// equality, so that 1 and 1.0 compare equal
func termsEqualValue(left, right rdf.Term) bool {
	leftNum, leftIsNum := extractNumeric(left)
	rightNum, rightIsNum := extractNumeric(right)
	if leftIsNum && rightIsNum {
		return leftNum == rightNum
	}
	return left.Equals(right)
}

// compareTerms compares two terms for ordering
// Returns: -1 if left < right, 0 if left == right, 1 if left > right
func compareTerms(left, right rdf.Term) (int, error) {
	// Try numeric comparison first
	leftNum, leftIsNum := extractNumeric(left)
	rightNum, rightIsNum := extractNumeric(right)

	if leftIsNum && rightIsNum {
		switch {
		case leftNum < rightNum:
			return -1, nil
		case leftNum > rightNum:
			return 1, nil
		}
		return 0, nil
	}

	leftLit, leftOk := left.(*rdf.Literal)
	rightLit, rightOk := right.(*rdf.Literal)
	if !leftOk || !rightOk {
		return 0, fmt.Errorf("%w: cannot order non-literal terms", ErrTypeError)
	}

	switch {
	case leftLit.Value < rightLit.Value:
		return -1, nil
	case leftLit.Value > rightLit.Value:
		return 1, nil
	}
	return 0, nil
}

// CompareForOrder is the total order used by ORDER BY: unbound first,
// then blank nodes, IRIs and literals, numeric and lexical within
// literals
func CompareForOrder(left, right rdf.Term) int {
	rank := func(t rdf.Term) int {
		switch t.(type) {
		case nil:
			return 0
		case *rdf.BlankNode:
			return 1
		case *rdf.NamedNode:
			return 2
		default:
			return 3
		}
	}
	lr, rr := rank(left), rank(right)
	if lr != rr {
		return lr - rr
	}
	if left == nil {
		return 0
	}
	if cmp, err := compareTerms(left, right); err == nil && cmp != 0 {
		return cmp
	}
	switch {
	case left.Key() < right.Key():
		return -1
	case left.Key() > right.Key():
		return 1
	}
	return 0
}

// Arithmetic operators

func evaluateArithmetic(left, right rdf.Term, name string, op func(a, b float64) (float64, error)) (rdf.Term, error) {
	leftVal, leftOk := extractNumeric(left)
	rightVal, rightOk := extractNumeric(right)

	if !leftOk || !rightOk {
		return nil, fmt.Errorf("%w: cannot %s non-numeric terms", ErrTypeError, name)
	}

	result, err := op(leftVal, rightVal)
	if err != nil {
		return nil, err
	}
	return createNumericLiteral(result, left, right), nil
}

// Helper functions

func isNumericDatatype(iri string) bool {
	switch iri {
	case rdf.XSDInteger.IRI,
		"http://www.w3.org/2001/XMLSchema#int",
		"http://www.w3.org/2001/XMLSchema#long",
		"http://www.w3.org/2001/XMLSchema#short",
		"http://www.w3.org/2001/XMLSchema#nonNegativeInteger",
		"http://www.w3.org/2001/XMLSchema#positiveInteger",
		rdf.XSDDouble.IRI,
		"http://www.w3.org/2001/XMLSchema#float",
		rdf.XSDDecimal.IRI:
		return true
	}
	return false
}

func isIntegerDatatype(iri string) bool {
	switch iri {
	case rdf.XSDInteger.IRI,
		"http://www.w3.org/2001/XMLSchema#int",
		"http://www.w3.org/2001/XMLSchema#long",
		"http://www.w3.org/2001/XMLSchema#short",
		"http://www.w3.org/2001/XMLSchema#nonNegativeInteger",
		"http://www.w3.org/2001/XMLSchema#positiveInteger":
		return true
	}
	return false
}

// extractNumeric extracts a numeric value from a literal
func extractNumeric(term rdf.Term) (float64, bool) {
	lit, ok := term.(*rdf.Literal)
	if !ok || lit.Datatype == nil || !isNumericDatatype(lit.Datatype.IRI) {
		return 0, false
	}

	if isIntegerDatatype(lit.Datatype.IRI) {
		intVal, err := strconv.ParseInt(lit.Value, 10, 64)
		if err != nil {
			return 0, false
		}
		return float64(intVal), true
	}

	val, err := strconv.ParseFloat(lit.Value, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// createNumericLiteral creates a numeric literal from a float64 value
// Tries to preserve the type of the input literals
func createNumericLiteral(value float64, left, right rdf.Term) rdf.Term {
	if value == math.Floor(value) && !math.IsInf(value, 0) {
		leftLit, leftOk := left.(*rdf.Literal)
		rightLit, rightOk := right.(*rdf.Literal)

		// Both inputs are integers, return integer
		if leftOk && rightOk &&
			leftLit.Datatype != nil && rightLit.Datatype != nil &&
			isIntegerDatatype(leftLit.Datatype.IRI) &&
			isIntegerDatatype(rightLit.Datatype.IRI) {
			return rdf.NewIntegerLiteral(int64(value))
		}
	}

	// Otherwise return double
	return rdf.NewDoubleLiteral(value)
}
