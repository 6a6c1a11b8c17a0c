package expression

import (
	"fmt"
	"strconv"

	"github.com/msokolov/lux/xquery"
)

// Literal is a constant atomic value: a string, an int64, a float64 or a
// bool.
type Literal struct {
	leaf
	Value interface{}
}

// NewLiteral creates a new Literal expression. Integers of any width are
// stored as int64 and float32 as float64.
func NewLiteral(value interface{}) *Literal {
	switch v := value.(type) {
	case int:
		value = int64(v)
	case int32:
		value = int64(v)
	case float32:
		value = float64(v)
	}
	return &Literal{Value: value}
}

// Type implements the Expression interface.
func (l *Literal) Type() xquery.ValueType {
	switch l.Value.(type) {
	case string:
		return xquery.String
	case int64:
		return xquery.Int
	case float64:
		return xquery.Number
	case bool:
		return xquery.Boolean
	default:
		return xquery.Atomic
	}
}

// WithChildren implements the Expression interface.
func (l *Literal) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	return withNoChildren(l, children)
}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v) + "()"
	default:
		return fmt.Sprint(v)
	}
}

// Variable is a reference to a variable bound in the dynamic context.
type Variable struct {
	leaf
	Name string
}

// NewVariable creates a new Variable expression.
func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

// Type implements the Expression interface.
func (*Variable) Type() xquery.ValueType {
	return xquery.Value
}

// WithChildren implements the Expression interface.
func (v *Variable) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	return withNoChildren(v, children)
}

func (v *Variable) String() string {
	return "$" + v.Name
}
