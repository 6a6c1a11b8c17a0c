package expression

import (
	"strings"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/expression/function"
)

// FunctionCall is a call to a named function.
type FunctionCall struct {
	Name string
	Args []xquery.Expression
}

// NewFunctionCall creates a new call of the function name with the given
// arguments.
func NewFunctionCall(name string, args ...xquery.Expression) *FunctionCall {
	return &FunctionCall{Name: name, Args: args}
}

// NewSearch creates a call to the search primitive with the serialized
// index query and the facts proven about it.
func NewSearch(query string, facts xquery.Facts) *FunctionCall {
	return NewFunctionCall(
		function.Search,
		NewLiteral(query),
		NewLiteral(int64(facts)),
	)
}

// Type implements the Expression interface.
func (f *FunctionCall) Type() xquery.ValueType {
	b, ok := function.Lookup(f.Name)
	if !ok {
		return xquery.Value
	}

	switch b.Name {
	case function.Search:
		return searchType(f.SearchFacts())
	case "fn:reverse":
		if len(f.Args) == 1 {
			return f.Args[0].Type()
		}
	}
	return b.ReturnType
}

// SearchFacts returns the facts argument of a search call.
func (f *FunctionCall) SearchFacts() xquery.Facts {
	if len(f.Args) < 2 {
		return 0
	}
	if l, ok := f.Args[1].(*Literal); ok {
		if n, ok := l.Value.(int64); ok {
			return xquery.Facts(n)
		}
	}
	return 0
}

func searchType(facts xquery.Facts) xquery.ValueType {
	switch {
	case facts.Has(xquery.Counting):
		return xquery.Int
	case facts.Has(xquery.BooleanTrue), facts.Has(xquery.BooleanFalse):
		return xquery.Boolean
	default:
		return xquery.Document
	}
}

// Children implements the Expression interface.
func (f *FunctionCall) Children() []xquery.Expression {
	return f.Args
}

// WithChildren implements the Expression interface.
func (f *FunctionCall) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	if len(children) != len(f.Args) {
		return nil, xquery.ErrInvalidChildrenNumber.New(f, len(children), len(f.Args))
	}
	return NewFunctionCall(f.Name, children...), nil
}

func (f *FunctionCall) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}
