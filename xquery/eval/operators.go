package eval

import (
	"fmt"
	"math"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/dom"
	"github.com/msokolov/lux/xquery/expression"
)

func (ev *Evaluator) binary(ctx *xquery.Context, e *expression.BinaryOperation, f *focus) (Sequence, error) {
	left, err := ev.eval(ctx, e.Left, f)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case expression.And, expression.Or:
		l, err := effectiveBoolean(left)
		if err != nil {
			return nil, err
		}
		if (e.Op == expression.And && !l) || (e.Op == expression.Or && l) {
			return Sequence{l}, nil
		}

		right, err := ev.eval(ctx, e.Right, f)
		if err != nil {
			return nil, err
		}
		r, err := effectiveBoolean(right)
		if err != nil {
			return nil, err
		}
		return Sequence{r}, nil
	}

	right, err := ev.eval(ctx, e.Right, f)
	if err != nil {
		return nil, err
	}

	switch {
	case e.Op.IsComparison():
		return Sequence{generalComparison(e.Op, left, right)}, nil
	case e.Op.IsArithmetic():
		return arithmetic(e.Op, left, right)
	case e.Op.IsSet():
		return setOperation(e.Op, left, right)
	default:
		return nil, ErrTypeMismatch.New(fmt.Sprintf("unsupported operator %s", e.Op))
	}
}

// generalComparison is true when some pair of atomized items of left and
// right satisfies the comparison.
func generalComparison(op expression.Operator, left, right Sequence) bool {
	for _, a := range atomize(left) {
		for _, b := range atomize(right) {
			cmp, ok := compareAtomic(a, b)
			if !ok {
				continue
			}

			var match bool
			switch op {
			case expression.Equals:
				match = cmp == 0
			case expression.NotEquals:
				match = cmp != 0
			case expression.LessThan:
				match = cmp < 0
			case expression.LessThanOrEqual:
				match = cmp <= 0
			case expression.GreaterThan:
				match = cmp > 0
			case expression.GreaterThanOrEqual:
				match = cmp >= 0
			}
			if match {
				return true
			}
		}
	}
	return false
}

func arithmetic(op expression.Operator, left, right Sequence) (Sequence, error) {
	l, err := singleAtomic(left)
	if err != nil {
		return nil, err
	}
	r, err := singleAtomic(right)
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}

	x, xok := l.(int64)
	y, yok := r.(int64)
	if xok && yok && op != expression.Divide {
		switch op {
		case expression.Add:
			return Sequence{x + y}, nil
		case expression.Subtract:
			return Sequence{x - y}, nil
		case expression.Multiply:
			return Sequence{x * y}, nil
		case expression.IntegerDivide, expression.Modulo:
			if y == 0 {
				return nil, ErrDivisionByZero.New()
			}
			if op == expression.Modulo {
				return Sequence{x % y}, nil
			}
			return Sequence{x / y}, nil
		}
	}

	a, err := toNumber(l)
	if err != nil {
		return nil, err
	}
	b, err := toNumber(r)
	if err != nil {
		return nil, err
	}

	switch op {
	case expression.Add:
		return Sequence{a + b}, nil
	case expression.Subtract:
		return Sequence{a - b}, nil
	case expression.Multiply:
		return Sequence{a * b}, nil
	case expression.Divide:
		return Sequence{a / b}, nil
	case expression.IntegerDivide:
		if b == 0 {
			return nil, ErrDivisionByZero.New()
		}
		return Sequence{int64(math.Trunc(a / b))}, nil
	default:
		return Sequence{math.Mod(a, b)}, nil
	}
}

func setOperation(op expression.Operator, left, right Sequence) (Sequence, error) {
	if err := requireNodes(left); err != nil {
		return nil, err
	}
	if err := requireNodes(right); err != nil {
		return nil, err
	}

	inRight := make(map[*dom.Node]struct{}, len(right))
	for _, item := range right {
		inRight[item.(*dom.Node)] = struct{}{}
	}

	var result Sequence
	switch op {
	case expression.Union:
		result = append(append(result, left...), right...)
	case expression.Intersect:
		for _, item := range left {
			if _, ok := inRight[item.(*dom.Node)]; ok {
				result = append(result, item)
			}
		}
	case expression.Except:
		for _, item := range left {
			if _, ok := inRight[item.(*dom.Node)]; !ok {
				result = append(result, item)
			}
		}
	}

	return documentOrder(result)
}

func requireNodes(s Sequence) error {
	for _, item := range s {
		if _, ok := item.(*dom.Node); !ok {
			return ErrTypeMismatch.New(fmt.Sprintf("%v is not a node", item))
		}
	}
	return nil
}
