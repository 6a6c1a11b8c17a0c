package expression

import "github.com/msokolov/lux/xquery"

// PathExpression evaluates Right once for every item of Left, using the
// item as the context.
type PathExpression struct {
	BinaryExpression
}

// NewPathExpression creates a new path composition of left and right.
func NewPathExpression(left, right xquery.Expression) *PathExpression {
	return &PathExpression{BinaryExpression{Left: left, Right: right}}
}

// NewPath composes the given expressions from left to right.
func NewPath(exprs ...xquery.Expression) xquery.Expression {
	if len(exprs) == 0 {
		return NewContextItem()
	}

	result := exprs[0]
	for _, e := range exprs[1:] {
		result = NewPathExpression(result, e)
	}
	return result
}

// Type implements the Expression interface.
func (p *PathExpression) Type() xquery.ValueType {
	return p.Right.Type()
}

// TerminalStep implements the xquery.Terminal interface.
func (p *PathExpression) TerminalStep() xquery.Expression {
	if t, ok := p.Right.(xquery.Terminal); ok {
		return t.TerminalStep()
	}
	return p.Right
}

// WithChildren implements the Expression interface.
func (p *PathExpression) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	if len(children) != 2 {
		return nil, xquery.ErrInvalidChildrenNumber.New(p, len(children), 2)
	}
	return NewPathExpression(children[0], children[1]), nil
}

func (p *PathExpression) String() string {
	if _, ok := p.Left.(*Root); ok {
		return "/" + p.Right.String()
	}
	return p.Left.String() + "/" + p.Right.String()
}

// Predicate filters the items of Base, keeping the ones for which Filter
// is true. A numeric filter selects by position.
type Predicate struct {
	Base   xquery.Expression
	Filter xquery.Expression
}

// NewPredicate creates a new Predicate expression.
func NewPredicate(base, filter xquery.Expression) *Predicate {
	return &Predicate{Base: base, Filter: filter}
}

// Type implements the Expression interface.
func (p *Predicate) Type() xquery.ValueType {
	return p.Base.Type()
}

// Children implements the Expression interface.
func (p *Predicate) Children() []xquery.Expression {
	return []xquery.Expression{p.Base, p.Filter}
}

// TerminalStep implements the xquery.Terminal interface.
func (p *Predicate) TerminalStep() xquery.Expression {
	if t, ok := p.Base.(xquery.Terminal); ok {
		return t.TerminalStep()
	}
	return p.Base
}

// WithChildren implements the Expression interface.
func (p *Predicate) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	if len(children) != 2 {
		return nil, xquery.ErrInvalidChildrenNumber.New(p, len(children), 2)
	}
	return NewPredicate(children[0], children[1]), nil
}

func (p *Predicate) String() string {
	return p.Base.String() + "[" + p.Filter.String() + "]"
}
