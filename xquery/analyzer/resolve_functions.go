package analyzer

import (
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/expression"
	"github.com/msokolov/lux/xquery/expression/function"
)

// ErrInvalidArity is returned when a built-in function is called with a
// wrong number of arguments.
var ErrInvalidArity = errors.NewKind("function %s expects between %d and %d arguments, got %d")

func resolveFunctions(ctx *xquery.Context, a *Analyzer, e xquery.Expression) (xquery.Expression, error) {
	span, _ := ctx.Span("resolve_functions")
	defer span.Finish()

	a.Log("resolve functions, expression of type %T", e)
	return expression.TransformUp(e, func(e xquery.Expression) (xquery.Expression, error) {
		f, ok := e.(*expression.FunctionCall)
		if !ok {
			return e, nil
		}

		name := function.Qualify(f.Name)
		b, ok := function.Lookup(name)
		if !ok {
			// unknown and user defined functions are resolved at evaluation
			a.Log("unknown function %q left unresolved", name)
			if name == f.Name {
				return e, nil
			}
			return expression.NewFunctionCall(name, f.Args...), nil
		}

		if len(f.Args) < b.MinArgs || len(f.Args) > b.MaxArgs {
			return nil, ErrInvalidArity.New(name, b.MinArgs, b.MaxArgs, len(f.Args))
		}

		if name == f.Name {
			return e, nil
		}

		a.Log("resolved function %q", name)
		return expression.NewFunctionCall(name, f.Args...), nil
	})
}

// flattenSequences splices nested sequences into their parent and
// replaces sequences of a single item by the item.
func flattenSequences(ctx *xquery.Context, a *Analyzer, e xquery.Expression) (xquery.Expression, error) {
	span, _ := ctx.Span("flatten_sequences")
	defer span.Finish()

	return expression.TransformUp(e, func(e xquery.Expression) (xquery.Expression, error) {
		s, ok := e.(*expression.Sequence)
		if !ok {
			return e, nil
		}

		var (
			items  []xquery.Expression
			nested bool
		)
		for _, item := range s.Items {
			if inner, ok := item.(*expression.Sequence); ok {
				nested = true
				items = append(items, inner.Items...)
				continue
			}
			items = append(items, item)
		}

		if len(items) == 1 {
			return items[0], nil
		}

		if !nested {
			return e, nil
		}

		a.Log("flattened sequence %s", s)
		return expression.NewSequence(items...), nil
	})
}
