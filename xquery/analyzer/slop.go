package analyzer

import (
	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/expression"
)

// Distance returns the number of path phrase positions between the last
// name matched by left and the first name matched by right, when left is
// immediately followed by right in a path. It returns nil when the
// distance is not bounded, or when either side matches no name.
//
// A named child or attribute step right after a named step is at distance
// 0: the names are adjacent in the phrase. Every wildcard child step in
// between adds one.
func Distance(left, right xquery.Expression) *int {
	return distance(phraseWalker{}, left, right)
}

// hops is the result of a walk: the number of positions crossed and
// whether a step matching a name was reached.
type hops struct {
	n        int
	boundary bool
}

type walker interface {
	// forward walks e from its first step on.
	forward(e xquery.Expression) (hops, bool)
	// reverse walks e from its last step back.
	reverse(e xquery.Expression) (hops, bool)
}

func distance(w walker, left, right xquery.Expression) *int {
	r, ok := w.forward(right)
	if !ok || !r.boundary {
		return nil
	}

	l, ok := w.reverse(left)
	if !ok || !l.boundary {
		return nil
	}

	d := l.n + r.n
	return &d
}

type phraseWalker struct{}

func (w phraseWalker) forward(e xquery.Expression) (hops, bool) {
	switch e := e.(type) {
	case *expression.PathStep:
		switch {
		case e.Axis == expression.Self && e.IsWildcard():
			return hops{}, true
		case e.Axis != expression.Child && e.Axis != expression.Attribute:
			return hops{}, false
		case e.IsWildcard():
			return hops{n: 1}, true
		default:
			return hops{boundary: true}, true
		}
	case *expression.Predicate:
		return w.forward(e.Base)
	case *expression.PathExpression:
		l, ok := w.forward(e.Left)
		if !ok || l.boundary {
			return l, ok
		}

		r, ok := w.forward(e.Right)
		if !ok {
			return hops{}, false
		}
		return hops{l.n + r.n, r.boundary}, true
	default:
		return hops{}, false
	}
}

func (w phraseWalker) reverse(e xquery.Expression) (hops, bool) {
	switch e := e.(type) {
	case *expression.Root:
		return hops{boundary: true}, true
	case *expression.PathStep:
		switch {
		case !e.IsWildcard():
			return hops{boundary: true}, true
		case e.Axis == expression.Self:
			return hops{}, true
		case e.Axis == expression.Child, e.Axis == expression.Attribute:
			return hops{n: 1}, true
		default:
			return hops{}, false
		}
	case *expression.Predicate:
		return w.reverse(e.Base)
	case *expression.PathExpression:
		r, ok := w.reverse(e.Right)
		if !ok || r.boundary {
			return r, ok
		}

		l, ok := w.reverse(e.Left)
		if !ok {
			return hops{}, false
		}
		return hops{l.n + r.n, l.boundary}, true
	default:
		return hops{}, false
	}
}
