// Package eval evaluates expression trees over the documents of a
// collection.
package eval

import (
	"fmt"
	"sort"

	opentracing "github.com/opentracing/opentracing-go"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/dom"
	"github.com/msokolov/lux/xquery/expression"
)

var (
	// ErrNoContextItem is returned when an expression needs a context item
	// and there is none.
	ErrNoContextItem = errors.NewKind("no context item for %s")

	// ErrTypeMismatch is returned when a value has not the type an
	// operation requires.
	ErrTypeMismatch = errors.NewKind("type mismatch: %s")

	// ErrUnknownFunction is returned when calling a function that does not
	// exist.
	ErrUnknownFunction = errors.NewKind("unknown function %s")

	// ErrUnboundVariable is returned when a variable has no value.
	ErrUnboundVariable = errors.NewKind("unbound variable $%s")

	// ErrInvalidSearch is returned when the arguments of a search call are
	// not a query and facts.
	ErrInvalidSearch = errors.NewKind("invalid search call: %s")

	// ErrDivisionByZero is returned by integer division and modulo by zero.
	ErrDivisionByZero = errors.NewKind("division by zero")
)

// Sequence is the value of an expression. Its items are *dom.Node or
// atomic values: string, int64, float64 or bool.
type Sequence []interface{}

// Collection gives access to the documents an expression is evaluated
// against.
type Collection interface {
	// Documents returns every document of the collection in index order.
	Documents(ctx *xquery.Context) ([]*dom.Document, error)
	// Search returns the documents matching the serialized index query in
	// index order.
	Search(ctx *xquery.Context, query string) ([]*dom.Document, error)
	// Count returns the number of documents matching the serialized index
	// query.
	Count(ctx *xquery.Context, query string) (int64, error)
}

// Evaluator evaluates expressions against a collection. Documents returned
// by the collection must be the same values for the same document during
// an evaluation, so that node identity holds across calls.
type Evaluator struct {
	coll Collection
	vars map[string]Sequence
}

// New returns an evaluator over the given collection.
func New(coll Collection) *Evaluator {
	return &Evaluator{coll: coll, vars: make(map[string]Sequence)}
}

// WithVariable binds a variable and returns the evaluator.
func (ev *Evaluator) WithVariable(name string, value Sequence) *Evaluator {
	ev.vars[name] = value
	return ev
}

// Eval evaluates e without context item.
func (ev *Evaluator) Eval(ctx *xquery.Context, e xquery.Expression) (Sequence, error) {
	span, ctx := ctx.Span("eval", opentracing.Tag{Key: "expression", Value: e.String()})
	defer span.Finish()

	result, err := ev.eval(ctx, e, nil)
	if err != nil {
		return nil, err
	}

	span.SetTag("items", len(result))
	return result, nil
}

// focus is the context item with its position in the sequence being
// iterated.
type focus struct {
	item     interface{}
	position int
	size     int
}

func (ev *Evaluator) eval(ctx *xquery.Context, e xquery.Expression, f *focus) (Sequence, error) {
	switch e := e.(type) {
	case *expression.Root:
		return ev.root(ctx, f)
	case *expression.ContextItem:
		if f == nil {
			return nil, ErrNoContextItem.New(e)
		}
		return Sequence{f.item}, nil
	case *expression.PathStep:
		n, err := contextNode(e, f)
		if err != nil {
			return nil, err
		}
		return step(n, e), nil
	case *expression.PathExpression:
		return ev.path(ctx, e, f)
	case *expression.Predicate:
		return ev.predicate(ctx, e, f)
	case *expression.FunctionCall:
		return ev.call(ctx, e, f)
	case *expression.BinaryOperation:
		return ev.binary(ctx, e, f)
	case *expression.Sequence:
		var result Sequence
		for _, item := range e.Items {
			s, err := ev.eval(ctx, item, f)
			if err != nil {
				return nil, err
			}
			result = append(result, s...)
		}
		return result, nil
	case *expression.Subsequence:
		return ev.subsequence(ctx, e, f)
	case *expression.Literal:
		return Sequence{e.Value}, nil
	case *expression.Variable:
		v, ok := ev.vars[e.Name]
		if !ok {
			return nil, ErrUnboundVariable.New(e.Name)
		}
		return v, nil
	default:
		return nil, ErrTypeMismatch.New(fmt.Sprintf("unsupported expression %T", e))
	}
}

// root returns the document node of the context item, or every document
// of the collection when there is no context item.
func (ev *Evaluator) root(ctx *xquery.Context, f *focus) (Sequence, error) {
	if f == nil {
		docs, err := ev.coll.Documents(ctx)
		if err != nil {
			return nil, err
		}
		return documentNodes(docs), nil
	}

	n, ok := f.item.(*dom.Node)
	if !ok {
		return nil, ErrTypeMismatch.New("the context item of / is not a node")
	}
	return Sequence{n.Root()}, nil
}

func (ev *Evaluator) path(ctx *xquery.Context, e *expression.PathExpression, f *focus) (Sequence, error) {
	left, err := ev.eval(ctx, e.Left, f)
	if err != nil {
		return nil, err
	}

	var result Sequence
	for i, item := range left {
		s, err := ev.eval(ctx, e.Right, &focus{item, i + 1, len(left)})
		if err != nil {
			return nil, err
		}
		result = append(result, s...)
	}

	return documentOrder(result)
}

func (ev *Evaluator) predicate(ctx *xquery.Context, e *expression.Predicate, f *focus) (Sequence, error) {
	base, err := ev.eval(ctx, e.Base, f)
	if err != nil {
		return nil, err
	}

	// positions along reverse axes count backwards from the context node
	reverse := false
	if s, ok := e.Base.(*expression.PathStep); ok {
		reverse = s.Axis.IsReverse()
	}

	var result Sequence
	for i, item := range base {
		pos := i + 1
		if reverse {
			pos = len(base) - i
		}

		v, err := ev.eval(ctx, e.Filter, &focus{item, pos, len(base)})
		if err != nil {
			return nil, err
		}

		keep, err := predicateTruth(v, pos)
		if err != nil {
			return nil, err
		}
		if keep {
			result = append(result, item)
		}
	}

	return result, nil
}

// predicateTruth is the truth value of a filter: a single number selects
// by position, anything else by its effective boolean value.
func predicateTruth(v Sequence, pos int) (bool, error) {
	if len(v) == 1 {
		switch n := v[0].(type) {
		case int64:
			return n == int64(pos), nil
		case float64:
			return n == float64(pos), nil
		}
	}
	return effectiveBoolean(v)
}

func (ev *Evaluator) subsequence(ctx *xquery.Context, e *expression.Subsequence, f *focus) (Sequence, error) {
	base, err := ev.eval(ctx, e.Base, f)
	if err != nil {
		return nil, err
	}

	// last() in the bounds is the last item of the base
	bounds := &focus{position: len(base), size: len(base)}
	if f != nil {
		bounds.item = f.item
	}

	start, err := ev.number(ctx, e.Start, bounds)
	if err != nil {
		return nil, err
	}

	end := float64(len(base)) + 1
	if e.Length != nil {
		length, err := ev.number(ctx, e.Length, bounds)
		if err != nil {
			return nil, err
		}
		end = roundHalfUp(start) + roundHalfUp(length)
	}
	start = roundHalfUp(start)

	var result Sequence
	for i, item := range base {
		p := float64(i + 1)
		if p >= start && p < end {
			result = append(result, item)
		}
	}
	return result, nil
}

func (ev *Evaluator) number(ctx *xquery.Context, e xquery.Expression, f *focus) (float64, error) {
	v, err := ev.eval(ctx, e, f)
	if err != nil {
		return 0, err
	}

	a, err := singleAtomic(v)
	if err != nil {
		return 0, err
	}
	if a == nil {
		return 0, ErrTypeMismatch.New("empty sequence where a number is required")
	}
	return toNumber(a)
}

func contextNode(e xquery.Expression, f *focus) (*dom.Node, error) {
	if f == nil {
		return nil, ErrNoContextItem.New(e)
	}

	n, ok := f.item.(*dom.Node)
	if !ok {
		return nil, ErrTypeMismatch.New(fmt.Sprintf("the context item of %s is not a node", e))
	}
	return n, nil
}

func documentNodes(docs []*dom.Document) Sequence {
	result := make(Sequence, len(docs))
	for i, d := range docs {
		result[i] = d.Root
	}
	return result
}

// documentOrder sorts a sequence of nodes in document order without
// duplicates. Sequences of atomic values are returned as they are.
func documentOrder(s Sequence) (Sequence, error) {
	var nodes, atomics int
	for _, item := range s {
		if _, ok := item.(*dom.Node); ok {
			nodes++
		} else {
			atomics++
		}
	}

	switch {
	case nodes > 0 && atomics > 0:
		return nil, ErrTypeMismatch.New("path yields both nodes and atomic values")
	case atomics > 0, nodes < 2:
		return s, nil
	}

	sort.SliceStable(s, func(i, j int) bool {
		return dom.Compare(s[i].(*dom.Node), s[j].(*dom.Node)) < 0
	})

	result := s[:1]
	for _, item := range s[1:] {
		if item != result[len(result)-1] {
			result = append(result, item)
		}
	}
	return result, nil
}
