package eval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/dom"
	"github.com/msokolov/lux/xquery/expression"
)

var testDocuments = []string{
	`<a><b id="1">x</b><b id="2">y</b><c>z</c></a>`,
	`<a><c>w</c></a>`,
	`<d><b>x</b></d>`,
}

type fakeCollection struct {
	docs    []*dom.Document
	matches map[string][]int
}

func newFakeCollection(t *testing.T) *fakeCollection {
	t.Helper()
	c := &fakeCollection{matches: map[string][]int{
		"lux_path:b":       {0, 2},
		"lux_path:missing": nil,
	}}
	for i, text := range testDocuments {
		doc, err := dom.ParseBytes(int64(i+1), []byte(text))
		require.NoError(t, err)
		c.docs = append(c.docs, doc)
	}
	return c
}

func (c *fakeCollection) Documents(*xquery.Context) ([]*dom.Document, error) {
	return c.docs, nil
}

func (c *fakeCollection) Search(_ *xquery.Context, q string) ([]*dom.Document, error) {
	idx, ok := c.matches[q]
	if !ok {
		return nil, fmt.Errorf("unexpected query %s", q)
	}

	var docs []*dom.Document
	for _, i := range idx {
		docs = append(docs, c.docs[i])
	}
	return docs, nil
}

func (c *fakeCollection) Count(ctx *xquery.Context, q string) (int64, error) {
	docs, err := c.Search(ctx, q)
	return int64(len(docs)), err
}

func render(s Sequence) []string {
	result := make([]string, len(s))
	for i, item := range s {
		n, ok := item.(*dom.Node)
		if !ok {
			result[i] = fmt.Sprint(item)
			continue
		}

		var label string
		switch n.Kind {
		case dom.DocumentNode:
			label = "/"
		case dom.ElementNode:
			label = n.Name
		case dom.AttributeNode:
			label = "@" + n.Name
		case dom.TextNode:
			label = "#text"
		}
		result[i] = fmt.Sprintf("%d:%s", n.Document().ID, label)
	}
	return result
}

func axisStep(axis expression.Axis, name string) *expression.PathStep {
	return expression.NewPathStep(axis, name)
}

func child(name string) *expression.PathStep {
	return axisStep(expression.Child, name)
}

func anywhere(right ...xquery.Expression) xquery.Expression {
	return expression.NewPath(append([]xquery.Expression{
		expression.NewRoot(),
		expression.NewKindStep(expression.DescendantOrSelf, xquery.Node),
	}, right...)...)
}

func call(name string, args ...xquery.Expression) *expression.FunctionCall {
	return expression.NewFunctionCall(name, args...)
}

func lit(v interface{}) *expression.Literal {
	return expression.NewLiteral(v)
}

func binary(op expression.Operator, left, right xquery.Expression) *expression.BinaryOperation {
	return expression.NewBinaryOperation(op, left, right)
}

func TestEval(t *testing.T) {
	testCases := []struct {
		name     string
		expr     xquery.Expression
		expected []string
	}{
		{"root", expression.NewRoot(), []string{"1:/", "2:/", "3:/"}},
		{"descendants", anywhere(child("b")), []string{"1:b", "1:b", "3:b"}},
		{"absolute path", expression.NewPath(expression.NewRoot(), child("a"), child("c")), []string{"1:c", "2:c"}},
		{"wildcard", expression.NewPath(expression.NewRoot(), expression.NewKindStep(expression.Child, xquery.Element)), []string{"1:a", "2:a", "3:d"}},
		{"attributes", anywhere(child("b"), axisStep(expression.Attribute, "id")), []string{"1:@id", "1:@id"}},
		{"text", anywhere(child("c"), expression.NewKindStep(expression.Child, xquery.Text)), []string{"1:#text", "2:#text"}},
		{"count", call("fn:count", anywhere(child("b"))), []string{"3"}},
		{"exists", call("fn:exists", anywhere(child("d"))), []string{"true"}},
		{"empty", call("fn:empty", anywhere(child("missing"))), []string{"true"}},
		{"not", call("fn:not", anywhere(child("d"))), []string{"false"}},
		{"boolean", call("fn:boolean", lit("")), []string{"false"}},
		{"true", call("fn:true"), []string{"true"}},
		{
			"positional predicate",
			expression.NewPath(expression.NewRoot(), child("a"), expression.NewPredicate(child("b"), lit(2)), call("fn:string")),
			[]string{"y"},
		},
		{
			"last predicate",
			anywhere(expression.NewPredicate(child("b"), call("fn:last")), call("fn:string")),
			[]string{"y", "x"},
		},
		{
			"position",
			anywhere(expression.NewPredicate(child("b"), binary(expression.LessThan, call("fn:position"), lit(2)))),
			[]string{"1:b", "3:b"},
		},
		{
			"attribute predicate",
			anywhere(expression.NewPredicate(child("b"), binary(expression.Equals, axisStep(expression.Attribute, "id"), lit("2"))), call("fn:string")),
			[]string{"y"},
		},
		{
			"numeric comparison",
			anywhere(expression.NewPredicate(child("b"), binary(expression.GreaterThan, axisStep(expression.Attribute, "id"), lit(1))), call("fn:string")),
			[]string{"y"},
		},
		{"string values", anywhere(child("c"), call("fn:string")), []string{"z", "w"}},
		{"data", call("fn:data", anywhere(child("c"))), []string{"z", "w"}},
		{"distinct values", call("fn:distinct-values", anywhere(child("b"))), []string{"x", "y"}},
		{"distinct numbers", call("fn:distinct-values", expression.NewSequence(lit(1), lit(1.0), lit("1"), lit(2))), []string{"1", "1", "2"}},
		{"general comparison", binary(expression.Equals, anywhere(child("c")), lit("w")), []string{"true"}},
		{"comparison of counts", binary(expression.GreaterThan, call("fn:count", anywhere(child("b"))), lit(2)), []string{"true"}},
		{"add", binary(expression.Add, lit(1), lit(2)), []string{"3"}},
		{"integer division", binary(expression.IntegerDivide, lit(7), lit(2)), []string{"3"}},
		{"division", binary(expression.Divide, lit(1), lit(2)), []string{"0.5"}},
		{"modulo", binary(expression.Modulo, lit(7), lit(2)), []string{"1"}},
		{"untyped arithmetic", binary(expression.Add, lit("3"), lit(1)), []string{"4"}},
		{"arithmetic on empty", binary(expression.Add, anywhere(child("missing")), lit(1)), []string{}},
		{"and", binary(expression.And, anywhere(child("b")), anywhere(child("missing"))), []string{"false"}},
		{"or", binary(expression.Or, anywhere(child("missing")), anywhere(child("c"))), []string{"true"}},
		{
			"union",
			binary(expression.Union, anywhere(child("c")), anywhere(child("b"))),
			[]string{"1:b", "1:b", "1:c", "2:c", "3:b"},
		},
		{
			"intersect",
			binary(expression.Intersect, anywhere(child("b")), expression.NewPath(expression.NewRoot(), child("d"), child("b"))),
			[]string{"3:b"},
		},
		{
			"except",
			binary(expression.Except, anywhere(child("b")), expression.NewPath(expression.NewRoot(), child("d"), child("b"))),
			[]string{"1:b", "1:b"},
		},
		{"sequence", expression.NewSequence(lit(1), lit("a"), lit(true)), []string{"1", "a", "true"}},
		{"subsequence", expression.NewSubsequence(anywhere(child("b")), lit(2), nil), []string{"1:b", "3:b"}},
		{"subsequence with length", expression.NewSubsequence(anywhere(child("b")), lit(1), lit(1)), []string{"1:b"}},
		{"subsequence of last", expression.NewSubsequence(anywhere(child("b")), call("fn:last"), nil), []string{"3:b"}},
		{"reverse", call("fn:reverse", expression.NewSequence(lit(1), lit(2))), []string{"2", "1"}},
		{"insert before", call("fn:insert-before", expression.NewSequence(lit(1), lit(2)), lit(2), lit(9)), []string{"1", "9", "2"}},
		{"fn:root", anywhere(child("c"), call("fn:root")), []string{"1:/", "2:/"}},
		{"collection", call("fn:collection"), []string{"1:/", "2:/", "3:/"}},
		{
			"nearest ancestor",
			anywhere(child("c"), expression.NewPredicate(expression.NewKindStep(expression.AncestorOrSelf, xquery.Element), lit(1))),
			[]string{"1:c", "2:c"},
		},
		{
			"ancestors",
			anywhere(child("c"), expression.NewKindStep(expression.Ancestor, xquery.Node)),
			[]string{"1:/", "1:a", "2:/", "2:a"},
		},
		{
			"parent",
			anywhere(child("b"), expression.NewKindStep(expression.Parent, xquery.Element)),
			[]string{"1:a", "3:d"},
		},
		{
			"following siblings",
			expression.NewPath(expression.NewRoot(), child("a"), expression.NewPredicate(child("b"), lit(1)), expression.NewKindStep(expression.FollowingSibling, xquery.Element)),
			[]string{"1:b", "1:c"},
		},
		{
			"preceding siblings",
			anywhere(child("c"), expression.NewKindStep(expression.PrecedingSibling, xquery.Element)),
			[]string{"1:b", "1:b"},
		},
		{
			"following",
			anywhere(expression.NewPredicate(child("b"), lit(1)), axisStep(expression.Following, "c")),
			[]string{"1:c"},
		},
		{
			"preceding",
			anywhere(child("c"), axisStep(expression.Preceding, "b")),
			[]string{"1:b", "1:b"},
		},
		{"search documents", call("lux:search", lit("lux_path:b"), lit(int64(xquery.Minimal|xquery.DocumentResults))), []string{"1:/", "3:/"}},
		{"search count", call("lux:search", lit("lux_path:b"), lit(int64(xquery.Counting|xquery.Minimal))), []string{"2"}},
		{"search exists", call("lux:search", lit("lux_path:missing"), lit(int64(xquery.BooleanTrue))), []string{"false"}},
		{"search empty", call("lux:search", lit("lux_path:missing"), lit(int64(xquery.BooleanFalse))), []string{"true"}},
		{"search without facts", call("lux:search", lit("lux_path:b")), []string{"1:/", "3:/"}},
		{
			"search path",
			expression.NewPath(call("lux:search", lit("lux_path:b"), lit(int64(0))), expression.NewKindStep(expression.Descendant, xquery.Element)),
			[]string{"1:a", "1:b", "1:b", "1:c", "3:d", "3:b"},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			result, err := New(newFakeCollection(t)).Eval(xquery.NewEmptyContext(), tt.expr)
			require.NoError(err)
			require.Equal(tt.expected, render(result))
		})
	}
}

func TestEvalVariable(t *testing.T) {
	require := require.New(t)

	ev := New(newFakeCollection(t)).WithVariable("x", Sequence{int64(2)})
	result, err := ev.Eval(xquery.NewEmptyContext(), binary(expression.Add, expression.NewVariable("x"), lit(1)))
	require.NoError(err)
	require.Equal(Sequence{int64(3)}, result)
}

func TestEvalErrors(t *testing.T) {
	testCases := []struct {
		name string
		expr xquery.Expression
		kind interface{ Is(error) bool }
	}{
		{"step without context", child("a"), ErrNoContextItem},
		{"context item", expression.NewContextItem(), ErrNoContextItem},
		{"last without context", call("fn:last"), ErrNoContextItem},
		{"unbound variable", expression.NewVariable("x"), ErrUnboundVariable},
		{"unknown function", call("local:f"), ErrUnknownFunction},
		{"search of a number", call("lux:search", lit(1)), ErrInvalidSearch},
		{"search with string facts", call("lux:search", lit("lux_path:b"), lit("x")), ErrInvalidSearch},
		{"integer division by zero", binary(expression.IntegerDivide, lit(1), lit(0)), ErrDivisionByZero},
		{"arithmetic on sequences", binary(expression.Add, expression.NewSequence(lit(1), lit(2)), lit(1)), ErrTypeMismatch},
		{"not a number", binary(expression.Add, lit("x"), lit(1)), ErrTypeMismatch},
		{"union of atomic values", binary(expression.Union, lit(1), lit(2)), ErrTypeMismatch},
		{"boolean of atomic values", call("fn:boolean", expression.NewSequence(lit(1), lit(2))), ErrTypeMismatch},
		{"step from an atomic value", expression.NewPath(lit(1), child("a")), ErrTypeMismatch},
		{"wrong arity", call("fn:count"), ErrTypeMismatch},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			_, err := New(newFakeCollection(t)).Eval(xquery.NewEmptyContext(), tt.expr)
			require.Error(err)
			require.True(tt.kind.Is(err), err.Error())
		})
	}
}

func TestDocumentOrder(t *testing.T) {
	require := require.New(t)

	c := newFakeCollection(t)
	a := c.docs[0].Element()
	b := c.docs[1].Element()

	result, err := documentOrder(Sequence{b, a, b, a.Children[0]})
	require.NoError(err)
	require.Equal(Sequence{a, a.Children[0], b}, result)

	_, err = documentOrder(Sequence{a, "x"})
	require.True(ErrTypeMismatch.Is(err))
}
