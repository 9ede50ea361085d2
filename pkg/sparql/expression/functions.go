package expression

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

const xsdNamespace = "http://www.w3.org/2001/XMLSchema#"

// FunctionCall applies a builtin function, or an xsd cast when Name is an
// XML Schema datatype IRI
type FunctionCall struct {
	Name string
	Args []Expression
}

func NewFunctionCall(name string, args ...Expression) *FunctionCall {
	return &FunctionCall{Name: name, Args: args}
}

func (f *FunctionCall) Variables() []string {
	return collectVariables(f.Args...)
}

func (f *FunctionCall) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}

type builtin func(args []Expression, sol Solution) (rdf.Term, error)

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		// Functional forms evaluate their arguments lazily
		"BOUND":    evaluateBound,
		"IF":       evaluateIf,
		"COALESCE": evaluateCoalesce,

		// Type checking functions
		"ISIRI":     evaluateIsIRI,
		"ISURI":     evaluateIsIRI,
		"ISBLANK":   evaluateIsBlank,
		"ISLITERAL": evaluateIsLiteral,
		"ISNUMERIC": evaluateIsNumeric,

		// Value extraction functions
		"STR":      evaluateStr,
		"LANG":     evaluateLang,
		"DATATYPE": evaluateDatatype,

		// String functions
		"STRLEN":      evaluateStrLen,
		"SUBSTR":      evaluateSubStr,
		"UCASE":       evaluateUCase,
		"LCASE":       evaluateLCase,
		"CONCAT":      evaluateConcat,
		"CONTAINS":    stringPredicate("CONTAINS", strings.Contains),
		"STRSTARTS":   stringPredicate("STRSTARTS", strings.HasPrefix),
		"STRENDS":     stringPredicate("STRENDS", strings.HasSuffix),
		"REGEX":       evaluateRegex,
		"LANGMATCHES": evaluateLangMatches,
		"SAMETERM":    evaluateSameTerm,

		// Numeric functions
		"ABS":   evaluateAbs,
		"CEIL":  numericRounding("CEIL", math.Ceil),
		"FLOOR": numericRounding("FLOOR", math.Floor),
		"ROUND": numericRounding("ROUND", math.Round),
	}
}

// Evaluate evaluates a function call expression
func (f *FunctionCall) Evaluate(sol Solution) (rdf.Term, error) {
	if strings.HasPrefix(f.Name, xsdNamespace) {
		return evaluateTypeCast(f.Args, sol, f.Name)
	}

	fn, ok := builtins[strings.ToUpper(f.Name)]
	if !ok {
		return nil, fmt.Errorf("unsupported function: %s", f.Name)
	}
	return fn(f.Args, sol)
}

func evaluateArgs(name string, args []Expression, sol Solution, count int) ([]rdf.Term, error) {
	if len(args) != count {
		return nil, fmt.Errorf("%s requires exactly %d argument(s)", name, count)
	}
	terms := make([]rdf.Term, len(args))
	for i, arg := range args {
		term, err := arg.Evaluate(sol)
		if err != nil {
			return nil, err
		}
		terms[i] = term
	}
	return terms, nil
}

// Functional forms

func evaluateBound(args []Expression, sol Solution) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("BOUND requires exactly 1 argument")
	}

	// BOUND is special - it doesn't evaluate the argument, just checks if the variable is bound
	varExpr, ok := args[0].(*Variable)
	if !ok {
		return nil, fmt.Errorf("BOUND requires a variable argument")
	}

	_, exists := sol.Get(varExpr.Name)
	return rdf.NewBooleanLiteral(exists), nil
}

func evaluateIf(args []Expression, sol Solution) (rdf.Term, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("IF requires exactly 3 arguments")
	}

	cond, err := EffectiveBooleanValue(args[0], sol)
	if err != nil {
		return nil, err
	}
	if cond {
		return args[1].Evaluate(sol)
	}
	return args[2].Evaluate(sol)
}

func evaluateCoalesce(args []Expression, sol Solution) (rdf.Term, error) {
	for _, arg := range args {
		if term, err := arg.Evaluate(sol); err == nil {
			return term, nil
		}
	}
	return nil, fmt.Errorf("%w: COALESCE has no bound argument", ErrUnbound)
}

// Type checking functions

func evaluateIsIRI(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("isIRI", args, sol, 1)
	if err != nil {
		return nil, err
	}
	_, isIRI := terms[0].(*rdf.NamedNode)
	return rdf.NewBooleanLiteral(isIRI), nil
}

func evaluateIsBlank(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("isBlank", args, sol, 1)
	if err != nil {
		return nil, err
	}
	_, isBlank := terms[0].(*rdf.BlankNode)
	return rdf.NewBooleanLiteral(isBlank), nil
}

func evaluateIsLiteral(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("isLiteral", args, sol, 1)
	if err != nil {
		return nil, err
	}
	_, isLiteral := terms[0].(*rdf.Literal)
	return rdf.NewBooleanLiteral(isLiteral), nil
}

func evaluateIsNumeric(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("isNumeric", args, sol, 1)
	if err != nil {
		return nil, err
	}
	_, isNumeric := extractNumeric(terms[0])
	return rdf.NewBooleanLiteral(isNumeric), nil
}

// Value extraction functions

func evaluateStr(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("STR", args, sol, 1)
	if err != nil {
		return nil, err
	}

	switch t := terms[0].(type) {
	case *rdf.NamedNode:
		return rdf.NewLiteral(t.IRI), nil
	case *rdf.Literal:
		return rdf.NewLiteral(t.Value), nil
	default:
		return nil, fmt.Errorf("%w: STR cannot be applied to %s", ErrTypeError, t)
	}
}

func evaluateLang(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("LANG", args, sol, 1)
	if err != nil {
		return nil, err
	}

	lit, ok := terms[0].(*rdf.Literal)
	if !ok {
		return nil, fmt.Errorf("%w: LANG can only be applied to literals", ErrTypeError)
	}
	return rdf.NewLiteral(lit.Language), nil
}

func evaluateDatatype(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("DATATYPE", args, sol, 1)
	if err != nil {
		return nil, err
	}

	lit, ok := terms[0].(*rdf.Literal)
	if !ok {
		return nil, fmt.Errorf("%w: DATATYPE can only be applied to literals", ErrTypeError)
	}

	if lit.Language != "" {
		return rdf.NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"), nil
	}
	if lit.Datatype != nil {
		return lit.Datatype, nil
	}

	// Default to xsd:string if no datatype
	return rdf.XSDString, nil
}

// String functions

func evaluateStrLen(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("STRLEN", args, sol, 1)
	if err != nil {
		return nil, err
	}

	str, err := extractString(terms[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewIntegerLiteral(int64(utf8.RuneCountInString(str))), nil
}

func evaluateSubStr(args []Expression, sol Solution) (rdf.Term, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("SUBSTR requires 2 or 3 arguments")
	}

	terms, err := evaluateArgs("SUBSTR", args, sol, len(args))
	if err != nil {
		return nil, err
	}

	str, err := extractString(terms[0])
	if err != nil {
		return nil, err
	}
	runes := []rune(str)

	start, ok := extractNumeric(terms[1])
	if !ok {
		return nil, fmt.Errorf("%w: SUBSTR start position must be numeric", ErrTypeError)
	}

	// SPARQL uses 1-based indexing
	startIdx := int(math.Round(start)) - 1
	endIdx := len(runes)
	if len(terms) == 3 {
		length, ok := extractNumeric(terms[2])
		if !ok {
			return nil, fmt.Errorf("%w: SUBSTR length must be numeric", ErrTypeError)
		}
		endIdx = startIdx + int(math.Round(length))
	}

	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(runes) {
		endIdx = len(runes)
	}
	if startIdx >= endIdx {
		return rdf.NewLiteral(""), nil
	}
	return rdf.NewLiteral(string(runes[startIdx:endIdx])), nil
}

func evaluateUCase(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("UCASE", args, sol, 1)
	if err != nil {
		return nil, err
	}
	str, err := extractString(terms[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewLiteral(strings.ToUpper(str)), nil
}

func evaluateLCase(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("LCASE", args, sol, 1)
	if err != nil {
		return nil, err
	}
	str, err := extractString(terms[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewLiteral(strings.ToLower(str)), nil
}

func evaluateConcat(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("CONCAT", args, sol, len(args))
	if err != nil {
		return nil, err
	}

	var result strings.Builder
	for _, term := range terms {
		str, err := extractString(term)
		if err != nil {
			return nil, err
		}
		result.WriteString(str)
	}
	return rdf.NewLiteral(result.String()), nil
}

func stringPredicate(name string, test func(s, sub string) bool) builtin {
	return func(args []Expression, sol Solution) (rdf.Term, error) {
		terms, err := evaluateArgs(name, args, sol, 2)
		if err != nil {
			return nil, err
		}

		str1, err := extractString(terms[0])
		if err != nil {
			return nil, err
		}
		str2, err := extractString(terms[1])
		if err != nil {
			return nil, err
		}
		return rdf.NewBooleanLiteral(test(str1, str2)), nil
	}
}

func evaluateRegex(args []Expression, sol Solution) (rdf.Term, error) {
	// REGEX(text, pattern) or REGEX(text, pattern, flags)
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("REGEX requires 2 or 3 arguments")
	}

	terms, err := evaluateArgs("REGEX", args, sol, len(args))
	if err != nil {
		return nil, err
	}

	text, err := extractString(terms[0])
	if err != nil {
		return nil, fmt.Errorf("REGEX text argument: %w", err)
	}
	pattern, err := extractString(terms[1])
	if err != nil {
		return nil, fmt.Errorf("REGEX pattern argument: %w", err)
	}

	var flags string
	if len(terms) == 3 {
		flags, err = extractString(terms[2])
		if err != nil {
			return nil, fmt.Errorf("REGEX flags argument: %w", err)
		}
	}

	// SPARQL flags map onto Go inline flags, except q which quotes the
	// whole pattern
	var flagPrefix string
	for _, flag := range flags {
		switch flag {
		case 'i', 'm', 's':
			flagPrefix += string(flag)
		case 'x':
			pattern = stripRegexWhitespace(pattern)
		case 'q':
			pattern = regexp.QuoteMeta(pattern)
		default:
			return nil, fmt.Errorf("unsupported REGEX flag: %c", flag)
		}
	}
	if flagPrefix != "" {
		pattern = "(?" + flagPrefix + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	return rdf.NewBooleanLiteral(re.MatchString(text)), nil
}

func stripRegexWhitespace(pattern string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, pattern)
}

func evaluateLangMatches(args []Expression, sol Solution) (rdf.Term, error) {
	// langMatches(language-tag, language-range)
	terms, err := evaluateArgs("langMatches", args, sol, 2)
	if err != nil {
		return nil, err
	}

	tag, err := extractString(terms[0])
	if err != nil {
		return nil, fmt.Errorf("langMatches tag argument: %w", err)
	}
	langRange, err := extractString(terms[1])
	if err != nil {
		return nil, fmt.Errorf("langMatches range argument: %w", err)
	}

	tag = strings.ToLower(tag)
	langRange = strings.ToLower(langRange)

	// "*" matches any non-empty language tag
	if langRange == "*" {
		return rdf.NewBooleanLiteral(tag != ""), nil
	}

	// Exact match, or prefix match where the range is followed by "-"
	// e.g., "de" matches "de-DE" but not "deu"
	matched := tag == langRange || strings.HasPrefix(tag, langRange+"-")
	return rdf.NewBooleanLiteral(matched), nil
}

func evaluateSameTerm(args []Expression, sol Solution) (rdf.Term, error) {
	// sameTerm(term1, term2) - strict equality (no type coercion)
	terms, err := evaluateArgs("sameTerm", args, sol, 2)
	if err != nil {
		return nil, err
	}
	return rdf.NewBooleanLiteral(terms[0].Equals(terms[1])), nil
}

// Numeric functions

func evaluateAbs(args []Expression, sol Solution) (rdf.Term, error) {
	terms, err := evaluateArgs("ABS", args, sol, 1)
	if err != nil {
		return nil, err
	}

	val, ok := extractNumeric(terms[0])
	if !ok {
		return nil, fmt.Errorf("%w: ABS requires numeric argument", ErrTypeError)
	}
	return createNumericLiteral(math.Abs(val), terms[0], terms[0]), nil
}

func numericRounding(name string, round func(float64) float64) builtin {
	return func(args []Expression, sol Solution) (rdf.Term, error) {
		terms, err := evaluateArgs(name, args, sol, 1)
		if err != nil {
			return nil, err
		}

		val, ok := extractNumeric(terms[0])
		if !ok {
			return nil, fmt.Errorf("%w: %s requires numeric argument", ErrTypeError, name)
		}
		return createNumericLiteral(round(val), terms[0], terms[0]), nil
	}
}

func evaluateTypeCast(args []Expression, sol Solution, datatypeIRI string) (rdf.Term, error) {
	// Type casting: xsd:type(value)
	terms, err := evaluateArgs("type cast", args, sol, 1)
	if err != nil {
		return nil, err
	}

	var value string
	switch t := terms[0].(type) {
	case *rdf.Literal:
		value = t.Value
	case *rdf.NamedNode:
		if datatypeIRI != rdf.XSDString.IRI {
			return nil, fmt.Errorf("%w: cannot cast IRI to %s", ErrTypeError, datatypeIRI)
		}
		value = t.IRI
	default:
		return nil, fmt.Errorf("%w: cannot cast %s to %s", ErrTypeError, t, datatypeIRI)
	}

	if datatypeIRI == rdf.XSDString.IRI {
		return rdf.NewLiteral(value), nil
	}

	cast := rdf.NewLiteralWithDatatype(strings.TrimSpace(value), rdf.NewNamedNode(datatypeIRI))
	if isNumericDatatype(datatypeIRI) {
		if _, ok := extractNumeric(cast); !ok {
			return nil, fmt.Errorf("%w: %q is not a valid %s", ErrTypeError, value, datatypeIRI)
		}
	}
	if datatypeIRI == rdf.XSDBoolean.IRI {
		switch cast.Value {
		case "true", "1":
			return rdf.NewBooleanLiteral(true), nil
		case "false", "0":
			return rdf.NewBooleanLiteral(false), nil
		default:
			return nil, fmt.Errorf("%w: %q is not a valid boolean", ErrTypeError, value)
		}
	}
	return cast, nil
}

// Helper function

func extractString(term rdf.Term) (string, error) {
	switch t := term.(type) {
	case *rdf.Literal:
		return t.Value, nil
	default:
		return "", fmt.Errorf("%w: cannot extract string from %s", ErrTypeError, term)
	}
}
