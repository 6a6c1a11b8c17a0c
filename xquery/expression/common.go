package expression

import "github.com/msokolov/lux/xquery"

// BinaryExpression is an expression that has two children.
type BinaryExpression struct {
	Left  xquery.Expression
	Right xquery.Expression
}

// Children implements the Expression interface.
func (p *BinaryExpression) Children() []xquery.Expression {
	return []xquery.Expression{p.Left, p.Right}
}

// leaf is embedded by expressions with no children.
type leaf struct{}

// Children implements the Expression interface.
func (leaf) Children() []xquery.Expression { return nil }

func withNoChildren(e xquery.Expression, children []xquery.Expression) (xquery.Expression, error) {
	if len(children) != 0 {
		return nil, xquery.ErrInvalidChildrenNumber.New(e, len(children), 0)
	}
	return e, nil
}
