package lux_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msokolov/lux"
	"github.com/msokolov/lux/mem"
	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/analyzer"
	"github.com/msokolov/lux/xquery/dom"
	"github.com/msokolov/lux/xquery/eval"
	"github.com/msokolov/lux/xquery/expression"
	"github.com/msokolov/lux/xquery/index"
)

var documents = []string{
	`<book id="1"><title>Emma</title><author>Austen</author><chapter><title>One</title></chapter></book>`,
	`<book id="2"><title>Persuasion</title><author>Austen</author></book>`,
	`<article><title>Emma</title><section><para>text</para></section></article>`,
	`<book id="4"><title>Ulysses</title><author>Joyce</author><chapter><title>Telemachus</title></chapter><chapter><title>Nestor</title></chapter></book>`,
	`<poem><line>a</line><line>b</line></poem>`,
}

func root() *expression.Root { return expression.NewRoot() }

func child(name string) *expression.PathStep {
	return expression.NewPathStep(expression.Child, name)
}

func attribute(name string) *expression.PathStep {
	return expression.NewPathStep(expression.Attribute, name)
}

func path(exprs ...xquery.Expression) xquery.Expression {
	return expression.NewPath(exprs...)
}

func descendantOrSelf() *expression.PathStep {
	return expression.NewKindStep(expression.DescendantOrSelf, xquery.Node)
}

// anywhere returns //exprs.
func anywhere(exprs ...xquery.Expression) xquery.Expression {
	return path(append([]xquery.Expression{root(), descendantOrSelf()}, exprs...)...)
}

func call(name string, args ...xquery.Expression) xquery.Expression {
	return expression.NewFunctionCall(name, args...)
}

func lit(v interface{}) xquery.Expression {
	return expression.NewLiteral(v)
}

func titleField() *xquery.FieldRegistry {
	fields := xquery.NewFieldRegistry()
	if err := fields.Register("title", path(root(), child("book"), child("title"))); err != nil {
		panic(err)
	}
	return fields
}

func newEngine(t *testing.T, store index.Store, cfg *index.Config) *lux.Engine {
	t.Helper()
	require := require.New(t)

	e := lux.New(index.New(store, cfg), titleField())
	ctx := xquery.NewEmptyContext()
	for i, d := range documents {
		id, err := e.Add(ctx, []byte(d))
		require.NoError(err)
		require.Equal(int64(i+1), id)
	}
	return e
}

func configs() map[string]*index.Config {
	paths := index.DefaultConfig()
	paths.Fields = []string{"title"}

	names := index.DefaultConfig()
	names.PathIndex = false
	names.Fields = []string{"title"}

	return map[string]*index.Config{
		"path index": paths,
		"name index": names,
	}
}

func render(s eval.Sequence) []string {
	result := make([]string, len(s))
	for i, item := range s {
		if n, ok := item.(*dom.Node); ok {
			result[i] = fmt.Sprintf("%d:%s=%s", n.Document().ID, n.Name, n.StringValue())
		} else {
			result[i] = fmt.Sprintf("%v", item)
		}
	}
	return result
}

var queries = []struct {
	name     string
	expr     xquery.Expression
	expected []string
}{
	{
		"descendants",
		anywhere(child("title")),
		[]string{"1:title=Emma", "1:title=One", "2:title=Persuasion", "3:title=Emma", "4:title=Ulysses", "4:title=Telemachus", "4:title=Nestor"},
	},
	{
		"absolute path",
		path(root(), child("book"), child("title")),
		[]string{"1:title=Emma", "2:title=Persuasion", "4:title=Ulysses"},
	},
	{
		"long path",
		path(root(), child("book"), child("chapter"), child("title")),
		[]string{"1:title=One", "4:title=Telemachus", "4:title=Nestor"},
	},
	{
		"wildcard",
		path(root(), expression.NewKindStep(expression.Child, xquery.Element), child("title")),
		[]string{"1:title=Emma", "2:title=Persuasion", "3:title=Emma", "4:title=Ulysses"},
	},
	{
		"first chapter",
		anywhere(expression.NewPredicate(child("chapter"), lit(1)), child("title")),
		[]string{"1:title=One", "4:title=Telemachus"},
	},
	{"count of documents", call("fn:count", call("fn:collection")), []string{"5"}},
	{"count of books", call("fn:count", path(root(), child("book"))), []string{"3"}},
	{"count of titles", call("fn:count", anywhere(child("title"))), []string{"7"}},
	{"exists", call("fn:exists", path(root(), child("poem"), child("line"))), []string{"true"}},
	{"missing", call("fn:exists", anywhere(child("missing"))), []string{"false"}},
	{"empty", call("fn:empty", anywhere(child("missing"))), []string{"true"}},
	{
		"predicate",
		anywhere(
			expression.NewPredicate(
				child("book"),
				expression.NewBinaryOperation(expression.Equals, child("author"), lit("Austen")),
			),
			child("title"),
		),
		[]string{"1:title=Emma", "2:title=Persuasion"},
	},
	{
		"field",
		path(root(), expression.NewPredicate(
			child("book"),
			expression.NewBinaryOperation(expression.Equals, child("title"), lit("Emma")),
		)),
		[]string{"1:book=EmmaAustenOne"},
	},
	{"attributes", path(root(), child("book"), attribute("id")), []string{"1:id=1", "2:id=2", "4:id=4"}},
	{"positional", anywhere(expression.NewPredicate(child("line"), lit(2))), []string{"5:line=b"}},
	{
		"union",
		path(
			expression.NewBinaryOperation(expression.Union, path(root(), child("book")), path(root(), child("article"))),
			child("title"),
		),
		[]string{"1:title=Emma", "2:title=Persuasion", "3:title=Emma", "4:title=Ulysses"},
	},
	{
		"existence predicate",
		path(root(), expression.NewPredicate(child("book"), child("chapter")), child("title")),
		[]string{"1:title=Emma", "4:title=Ulysses"},
	},
	{
		"subsequence",
		expression.NewSubsequence(anywhere(child("title")), lit(2), lit(3)),
		[]string{"1:title=One", "2:title=Persuasion", "3:title=Emma"},
	},
	{
		"last",
		expression.NewSubsequence(anywhere(child("title")), call("fn:last"), nil),
		[]string{"4:title=Nestor"},
	},
	{
		"intersect",
		expression.NewBinaryOperation(expression.Intersect, path(root(), child("book"), child("title")), anywhere(child("title"))),
		[]string{"1:title=Emma", "2:title=Persuasion", "4:title=Ulysses"},
	},
	{
		"except",
		expression.NewBinaryOperation(expression.Except, anywhere(child("title")), anywhere(child("chapter"), child("title"))),
		[]string{"1:title=Emma", "2:title=Persuasion", "3:title=Emma", "4:title=Ulysses"},
	},
	{"root of", anywhere(child("para"), call("fn:root")), []string{"3:=Emmatext"}},
	{
		"documents with lines",
		expression.NewPredicate(root(), anywhere(child("line"))),
		[]string{"5:=ab"},
	},
	{"strings", anywhere(child("chapter"), child("title"), call("fn:string")), []string{"One", "Telemachus", "Nestor"}},
	{
		"collection in a predicate",
		anywhere(expression.NewPredicate(child("book"), path(call("fn:collection"), descendantOrSelf(), child("line")))),
		[]string{"1:book=EmmaAustenOne", "2:book=PersuasionAusten", "4:book=UlyssesJoyceTelemachusNestor"},
	},
	{
		"collection in a path",
		path(root(), child("book"), call("fn:collection"), child("poem")),
		[]string{"5:poem=ab"},
	},
	{"distinct values", call("fn:distinct-values", anywhere(child("author"))), []string{"Austen", "Joyce"}},
	{"root", root(), []string{"1:=EmmaAustenOne", "2:=PersuasionAusten", "3:=Emmatext", "4:=UlyssesJoyceTelemachusNestor", "5:=ab"}},
}

func TestQueries(t *testing.T) {
	for cfgName, cfg := range configs() {
		e := newEngine(t, mem.NewStore(), cfg)
		ctx := xquery.NewEmptyContext()

		for _, tt := range queries {
			t.Run(cfgName+"/"+tt.name, func(t *testing.T) {
				require := require.New(t)

				optimized, err := e.Query(ctx, tt.expr)
				require.NoError(err)

				unoptimized, err := e.QueryUnoptimized(ctx, tt.expr, nil)
				require.NoError(err)

				require.Equal(tt.expected, render(unoptimized))
				require.Equal(render(unoptimized), render(optimized))
			})
		}
	}
}

func TestCompile(t *testing.T) {
	e := newEngine(t, mem.NewStore(), configs()["path index"])
	ctx := xquery.NewEmptyContext()

	testCases := []struct {
		name     string
		expr     xquery.Expression
		expected string
	}{
		{
			"count",
			call("count", path(root(), child("book"))),
			`lux:search("near/0(lux_path:\"{}\" lux_path:book)", 3)`,
		},
		{
			"exists",
			call("exists", anywhere(child("missing"))),
			`lux:search("lux_path:missing", 6)`,
		},
		{
			"count of descendants",
			call("count", anywhere(child("title"))),
			`fn:count(lux:search("lux_path:title", 2)/descendant-or-self::node()/child::title)`,
		},
		{
			"collection in a predicate",
			anywhere(expression.NewPredicate(child("book"), path(call("collection"), child("poem")))),
			`lux:search("lux_path:book", 0)/descendant-or-self::node()/child::book[fn:collection()/child::poem]`,
		},
		{
			"field",
			path(root(), expression.NewPredicate(
				child("book"),
				expression.NewBinaryOperation(expression.Equals, child("title"), lit("Emma")),
			)),
			`lux:search("(+lux_path:book +title:Emma)", 0)/child::book[(child::title = "Emma")]`,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			compiled, err := e.Compile(ctx, tt.expr)
			require.NoError(t, err)
			require.Equal(t, tt.expected, compiled.String())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	require := require.New(t)

	e := newEngine(t, mem.NewStore(), configs()["path index"])
	ctx := xquery.NewEmptyContext()

	_, err := e.Query(ctx, call("count"))
	require.Error(err)
	require.True(analyzer.ErrInvalidArity.Is(err))

	// unknown functions fail at evaluation only
	compiled, err := e.Compile(ctx, call("nope", anywhere(child("title"))))
	require.NoError(err)
	require.Equal(`fn:nope(lux:search("lux_path:title", 2)/descendant-or-self::node()/child::title)`, compiled.String())

	_, err = e.Query(ctx, call("nope", anywhere(child("title"))))
	require.Error(err)
	require.True(eval.ErrUnknownFunction.Is(err))

	_, err = e.Query(ctx, child("a"))
	require.Error(err)
	require.True(eval.ErrNoContextItem.Is(err))
}

func TestAddInvalidDocument(t *testing.T) {
	require := require.New(t)

	e := lux.New(index.New(mem.NewStore(), index.DefaultConfig()), nil)
	_, err := e.Add(xquery.NewEmptyContext(), []byte("<a>"))
	require.Error(err)
	require.True(dom.ErrParse.Is(err))
}

func TestDocumentIdentifiers(t *testing.T) {
	require := require.New(t)

	e := newEngine(t, mem.NewStore(), configs()["path index"])
	ctx := xquery.NewEmptyContext()

	result, err := e.Query(ctx, path(root(), child("book")))
	require.NoError(err)

	var ids []int64
	for _, item := range result {
		ids = append(ids, item.(*dom.Node).Document().ID)
	}
	require.Equal([]int64{1, 2, 4}, ids)

	// documents built outside the index sort after index documents
	scope := e.DocIDs.Scope()
	require.True(scope.Next() > xquery.MaxIndexDocID)
}

func TestQueriesWithBindings(t *testing.T) {
	testCases := []struct {
		name     string
		expr     xquery.Expression
		bindings map[string]xquery.Expression
		expected []string
	}{
		{
			"variable in a predicate",
			anywhere(expression.NewPredicate(child("book"), path(expression.NewVariable("x"), child("line")))),
			map[string]xquery.Expression{"x": path(root(), child("poem"))},
			[]string{"1:book=EmmaAustenOne", "2:book=PersuasionAusten", "4:book=UlyssesJoyceTelemachusNestor"},
		},
		{
			"variable in a path",
			path(expression.NewVariable("x"), child("title")),
			map[string]xquery.Expression{"x": path(root(), child("book"))},
			[]string{"1:title=Emma", "2:title=Persuasion", "4:title=Ulysses"},
		},
		{
			"variable as a filter of a path",
			path(root(), expression.NewPredicate(child("book"), expression.NewVariable("x")), child("title")),
			map[string]xquery.Expression{"x": anywhere(child("line"))},
			[]string{"1:title=Emma", "2:title=Persuasion", "4:title=Ulysses"},
		},
		{
			"unmatched variable",
			anywhere(expression.NewPredicate(child("book"), path(expression.NewVariable("x"), child("missing")))),
			map[string]xquery.Expression{"x": path(root(), child("poem"))},
			[]string{},
		},
	}

	for cfgName, cfg := range configs() {
		e := newEngine(t, mem.NewStore(), cfg)
		ctx := xquery.NewEmptyContext()

		for _, tt := range testCases {
			t.Run(cfgName+"/"+tt.name, func(t *testing.T) {
				require := require.New(t)

				optimized, err := e.QueryWithBindings(ctx, tt.expr, tt.bindings)
				require.NoError(err)

				unoptimized, err := e.QueryUnoptimized(ctx, tt.expr, tt.bindings)
				require.NoError(err)

				require.Equal(tt.expected, render(unoptimized))
				require.Equal(render(unoptimized), render(optimized))
			})
		}
	}
}

func TestUnboundVariable(t *testing.T) {
	require := require.New(t)

	e := newEngine(t, mem.NewStore(), configs()["path index"])
	_, err := e.Query(xquery.NewEmptyContext(), path(expression.NewVariable("x"), child("a")))
	require.Error(err)
	require.True(eval.ErrUnboundVariable.Is(err))
}
