package expression

import "github.com/msokolov/lux/xquery"

// Operator of a binary operation.
type Operator int

const (
	// And is the boolean conjunction.
	And Operator = iota
	// Or is the boolean disjunction.
	Or
	// Equals is the general comparison "=".
	Equals
	// NotEquals is the general comparison "!=".
	NotEquals
	// LessThan is the general comparison "<".
	LessThan
	// LessThanOrEqual is the general comparison "<=".
	LessThanOrEqual
	// GreaterThan is the general comparison ">".
	GreaterThan
	// GreaterThanOrEqual is the general comparison ">=".
	GreaterThanOrEqual
	// Add is "+".
	Add
	// Subtract is "-".
	Subtract
	// Multiply is "*".
	Multiply
	// Divide is "div".
	Divide
	// IntegerDivide is "idiv".
	IntegerDivide
	// Modulo is "mod".
	Modulo
	// Union of node sequences.
	Union
	// Intersect of node sequences.
	Intersect
	// Except is the difference of node sequences.
	Except
)

var operatorTokens = map[Operator]string{
	And:                "and",
	Or:                 "or",
	Equals:             "=",
	NotEquals:          "!=",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
	Add:                "+",
	Subtract:           "-",
	Multiply:           "*",
	Divide:             "div",
	IntegerDivide:      "idiv",
	Modulo:             "mod",
	Union:              "|",
	Intersect:          "intersect",
	Except:             "except",
}

func (o Operator) String() string {
	return operatorTokens[o]
}

// IsComparison reports whether the operator is a general comparison.
func (o Operator) IsComparison() bool {
	return o >= Equals && o <= GreaterThanOrEqual
}

// IsArithmetic reports whether the operator is arithmetic.
func (o Operator) IsArithmetic() bool {
	return o >= Add && o <= Modulo
}

// IsSet reports whether the operator combines node sequences.
func (o Operator) IsSet() bool {
	return o >= Union && o <= Except
}

// BinaryOperation applies a boolean, comparison, arithmetic or set
// operator to two operands.
type BinaryOperation struct {
	BinaryExpression
	Op Operator
}

// NewBinaryOperation creates a new BinaryOperation expression.
func NewBinaryOperation(op Operator, left, right xquery.Expression) *BinaryOperation {
	return &BinaryOperation{BinaryExpression{Left: left, Right: right}, op}
}

// Type implements the Expression interface.
func (b *BinaryOperation) Type() xquery.ValueType {
	switch {
	case b.Op == And, b.Op == Or, b.Op.IsComparison():
		return xquery.Boolean
	case b.Op.IsArithmetic():
		if b.Left.Type() == xquery.Int && b.Right.Type() == xquery.Int &&
			b.Op != Divide {
			return xquery.Int
		}
		return xquery.Number
	case b.Op == Union:
		return xquery.Promote(b.Left.Type(), b.Right.Type())
	default:
		return b.Left.Type()
	}
}

// WithChildren implements the Expression interface.
func (b *BinaryOperation) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	if len(children) != 2 {
		return nil, xquery.ErrInvalidChildrenNumber.New(b, len(children), 2)
	}
	return NewBinaryOperation(b.Op, children[0], children[1]), nil
}

func (b *BinaryOperation) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}
