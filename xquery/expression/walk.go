package expression

import "github.com/msokolov/lux/xquery"

// Visitor visits expressions in the tree.
type Visitor interface {
	// Visit method is invoked for each expr encountered by Walk.
	// If the result Visitor is not nil, Walk visits each of the children
	// of the expr with that visitor, followed by a call of Visit(nil)
	// to the returned visitor.
	Visit(expr xquery.Expression) Visitor
}

// Walk traverses the expression tree in depth-first order. It starts by
// calling v.Visit(expr); expr must not be nil. If the visitor returned by
// v.Visit(expr) is not nil, Walk is invoked recursively with the returned
// visitor for each children of the expr, followed by a call of v.Visit(nil)
// to the returned visitor.
func Walk(v Visitor, expr xquery.Expression) {
	if v = v.Visit(expr); v == nil {
		return
	}

	for _, child := range expr.Children() {
		Walk(v, child)
	}

	v.Visit(nil)
}

type inspector func(xquery.Expression) bool

func (f inspector) Visit(expr xquery.Expression) Visitor {
	if f(expr) {
		return f
	}
	return nil
}

// Inspect traverses the tree in depth-first order: It starts by calling
// f(expr); expr must not be nil. If f returns true, Inspect invokes f
// recursively for each of the children of expr, followed by a call of
// f(nil).
func Inspect(expr xquery.Expression, f func(xquery.Expression) bool) {
	Walk(inspector(f), expr)
}

// TransformFunc rewrites a single expression.
type TransformFunc func(xquery.Expression) (xquery.Expression, error)

// TransformUp applies f to every expression of the tree, children first.
// Expressions whose children did not change are passed to f as they are.
func TransformUp(e xquery.Expression, f TransformFunc) (xquery.Expression, error) {
	children := e.Children()
	if len(children) > 0 {
		newChildren := make([]xquery.Expression, len(children))
		changed := false
		for i, c := range children {
			nc, err := TransformUp(c, f)
			if err != nil {
				return nil, err
			}
			if nc != c {
				changed = true
			}
			newChildren[i] = nc
		}

		if changed {
			var err error
			e, err = e.WithChildren(newChildren...)
			if err != nil {
				return nil, err
			}
		}
	}

	return f(e)
}

// DebugString returns the tree representation of an expression, one node
// per line.
func DebugString(e xquery.Expression) string {
	children := e.Children()
	if len(children) == 0 {
		return e.String()
	}

	p := xquery.NewTreePrinter()
	p.WriteNode("%s", nodeName(e))
	strs := make([]string, len(children))
	for i, c := range children {
		strs[i] = DebugString(c)
	}
	p.WriteChildren(strs...)
	return p.String()
}

func nodeName(e xquery.Expression) string {
	switch e := e.(type) {
	case *PathExpression:
		return "PathExpression"
	case *Predicate:
		return "Predicate"
	case *FunctionCall:
		return "FunctionCall(" + e.Name + ")"
	case *BinaryOperation:
		return "BinaryOperation(" + e.Op.String() + ")"
	case *Sequence:
		return "Sequence"
	case *Subsequence:
		return "Subsequence"
	default:
		return e.String()
	}
}
