package eval

import (
	"fmt"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/dom"
	"github.com/msokolov/lux/xquery/expression"
	"github.com/msokolov/lux/xquery/expression/function"
)

// builtin evaluates a function given its evaluated arguments.
type builtin func(ctx *xquery.Context, ev *Evaluator, f *focus, args []Sequence) (Sequence, error)

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		function.Count:          fnCount,
		function.Exists:         fnExists,
		function.Empty:          fnEmpty,
		function.Not:            fnNot,
		"fn:boolean":            fnBoolean,
		"fn:true":               fnTrue,
		"fn:false":              fnFalse,
		function.Collection:     fnCollection,
		function.Last:           fnLast,
		function.Position:       fnPosition,
		"fn:string":             fnString,
		"fn:data":               fnData,
		"fn:root":               fnRoot,
		"fn:reverse":            fnReverse,
		function.DistinctValues: fnDistinctValues,
		"fn:insert-before":      fnInsertBefore,
		function.Search:         fnSearch,
	}
}

func (ev *Evaluator) call(ctx *xquery.Context, e *expression.FunctionCall, f *focus) (Sequence, error) {
	name := function.Qualify(e.Name)
	fn, ok := builtins[name]
	if !ok {
		return nil, ErrUnknownFunction.New(name)
	}

	if b, ok := function.Lookup(name); ok && (len(e.Args) < b.MinArgs || len(e.Args) > b.MaxArgs) {
		return nil, ErrTypeMismatch.New(fmt.Sprintf("%s called with %d arguments", name, len(e.Args)))
	}

	args := make([]Sequence, len(e.Args))
	for i, a := range e.Args {
		v, err := ev.eval(ctx, a, f)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	return fn(ctx, ev, f, args)
}

func fnCount(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	return Sequence{int64(len(args[0]))}, nil
}

func fnExists(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	return Sequence{len(args[0]) > 0}, nil
}

func fnEmpty(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	return Sequence{len(args[0]) == 0}, nil
}

func fnNot(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	b, err := effectiveBoolean(args[0])
	if err != nil {
		return nil, err
	}
	return Sequence{!b}, nil
}

func fnBoolean(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	b, err := effectiveBoolean(args[0])
	if err != nil {
		return nil, err
	}
	return Sequence{b}, nil
}

func fnTrue(*xquery.Context, *Evaluator, *focus, []Sequence) (Sequence, error) {
	return Sequence{true}, nil
}

func fnFalse(*xquery.Context, *Evaluator, *focus, []Sequence) (Sequence, error) {
	return Sequence{false}, nil
}

// fnCollection returns every document; the collection URI is ignored.
func fnCollection(ctx *xquery.Context, ev *Evaluator, _ *focus, _ []Sequence) (Sequence, error) {
	docs, err := ev.coll.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return documentNodes(docs), nil
}

func fnLast(_ *xquery.Context, _ *Evaluator, f *focus, _ []Sequence) (Sequence, error) {
	if f == nil {
		return nil, ErrNoContextItem.New(function.Last + "()")
	}
	return Sequence{int64(f.size)}, nil
}

func fnPosition(_ *xquery.Context, _ *Evaluator, f *focus, _ []Sequence) (Sequence, error) {
	if f == nil {
		return nil, ErrNoContextItem.New(function.Position + "()")
	}
	return Sequence{int64(f.position)}, nil
}

func fnString(_ *xquery.Context, _ *Evaluator, f *focus, args []Sequence) (Sequence, error) {
	var s Sequence
	if len(args) == 0 {
		if f == nil {
			return nil, ErrNoContextItem.New("fn:string()")
		}
		s = Sequence{f.item}
	} else {
		s = args[0]
	}

	v, err := singleAtomic(s)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return Sequence{""}, nil
	}
	return Sequence{toString(v)}, nil
}

func fnData(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	return atomize(args[0]), nil
}

func fnRoot(_ *xquery.Context, _ *Evaluator, f *focus, args []Sequence) (Sequence, error) {
	var s Sequence
	if len(args) == 0 {
		if f == nil {
			return nil, ErrNoContextItem.New("fn:root()")
		}
		s = Sequence{f.item}
	} else {
		s = args[0]
	}

	if len(s) == 0 {
		return nil, nil
	}
	if len(s) > 1 {
		return nil, ErrTypeMismatch.New("fn:root of more than one item")
	}

	n, ok := s[0].(*dom.Node)
	if !ok {
		return nil, ErrTypeMismatch.New("fn:root of an atomic value")
	}
	return Sequence{n.Root()}, nil
}

func fnReverse(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	s := args[0]
	result := make(Sequence, len(s))
	for i, item := range s {
		result[len(s)-1-i] = item
	}
	return result, nil
}

func fnDistinctValues(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	return distinct(args[0])
}

func fnInsertBefore(_ *xquery.Context, _ *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	target, inserts := args[0], args[2]

	v, err := singleAtomic(args[1])
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrTypeMismatch.New("fn:insert-before position is empty")
	}
	p, err := toNumber(v)
	if err != nil {
		return nil, err
	}

	pos := int(p) - 1
	switch {
	case pos < 0:
		pos = 0
	case pos > len(target):
		pos = len(target)
	}

	result := make(Sequence, 0, len(target)+len(inserts))
	result = append(result, target[:pos]...)
	result = append(result, inserts...)
	return append(result, target[pos:]...), nil
}

// fnSearch runs a serialized index query. Its facts decide the result:
// the number of matching documents, whether there is any or none, or the
// matching documents themselves.
func fnSearch(ctx *xquery.Context, ev *Evaluator, _ *focus, args []Sequence) (Sequence, error) {
	if len(args[0]) != 1 {
		return nil, ErrInvalidSearch.New("expected a single query")
	}
	q, ok := args[0][0].(string)
	if !ok {
		return nil, ErrInvalidSearch.New(fmt.Sprintf("query %v is not a string", args[0][0]))
	}

	var facts xquery.Facts
	if len(args) > 1 {
		if len(args[1]) != 1 {
			return nil, ErrInvalidSearch.New("expected a single facts value")
		}
		n, ok := args[1][0].(int64)
		if !ok {
			return nil, ErrInvalidSearch.New(fmt.Sprintf("facts %v is not an integer", args[1][0]))
		}
		facts = xquery.Facts(n)
	}

	switch {
	case facts.Has(xquery.Counting):
		n, err := ev.coll.Count(ctx, q)
		if err != nil {
			return nil, err
		}
		return Sequence{n}, nil
	case facts.Has(xquery.BooleanTrue), facts.Has(xquery.BooleanFalse):
		n, err := ev.coll.Count(ctx, q)
		if err != nil {
			return nil, err
		}
		return Sequence{(n > 0) == facts.Has(xquery.BooleanTrue)}, nil
	}

	docs, err := ev.coll.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return documentNodes(docs), nil
}
