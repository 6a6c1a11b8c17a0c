package analyzer

import (
	"reflect"

	"github.com/msokolov/lux/xquery"
)

// RuleFunc is the function to be applied in a rule.
type RuleFunc func(*xquery.Context, *Analyzer, xquery.Expression) (xquery.Expression, error)

// Rule to transform expressions.
type Rule struct {
	// Name of the rule.
	Name string
	// Apply transforms an expression.
	Apply RuleFunc
}

// Batch is a set of rules applied in order until the expression does not
// change, at most Iterations times.
type Batch struct {
	Desc       string
	Iterations int
	Rules      []Rule
}

// Eval applies the rules of the batch to e. When the expression still
// changes after Iterations passes, it returns the last expression with
// ErrMaxAnalysisIters.
func (b *Batch) Eval(ctx *xquery.Context, a *Analyzer, e xquery.Expression) (xquery.Expression, error) {
	if b.Iterations == 0 || len(b.Rules) == 0 {
		return e, nil
	}

	prev := e
	cur, err := b.evalOnce(ctx, a, e)
	if err != nil {
		return nil, err
	}

	if b.Iterations == 1 {
		return cur, nil
	}

	for i := 1; !expressionsEqual(prev, cur); {
		prev = cur
		cur, err = b.evalOnce(ctx, a, cur)
		if err != nil {
			return nil, err
		}

		i++
		if i >= b.Iterations {
			return cur, ErrMaxAnalysisIters.New(b.Iterations)
		}
	}

	return cur, nil
}

func (b *Batch) evalOnce(ctx *xquery.Context, a *Analyzer, e xquery.Expression) (xquery.Expression, error) {
	result := e
	for _, rule := range b.Rules {
		done := a.scope("rule", rule.Name)
		next, err := rule.Apply(ctx, a, result)
		if err != nil {
			done()
			return nil, err
		}

		a.logRewrite(result, next)
		done()
		result = next
	}

	return result, nil
}

func expressionsEqual(a, b xquery.Expression) bool {
	return reflect.DeepEqual(a, b)
}
