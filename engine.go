// Package lux indexes XML documents and evaluates path expressions over
// them, rewriting the expressions to narrow their evaluation to the
// documents the index selects.
package lux

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/analyzer"
	"github.com/msokolov/lux/xquery/dom"
	"github.com/msokolov/lux/xquery/eval"
	"github.com/msokolov/lux/xquery/index"
	"github.com/msokolov/lux/xquery/index/query"
)

// Engine is an indexed document collection.
type Engine struct {
	Index  *index.Index
	Fields *xquery.FieldRegistry
	DocIDs *xquery.DocIDs
	// Debug enables the debug log of the analyzer.
	Debug bool
}

// New creates a new Engine over idx. fields holds the paths of the fields
// configured in the index; it may be nil when there are none.
func New(idx *index.Index, fields *xquery.FieldRegistry) *Engine {
	if fields == nil {
		fields = xquery.NewFieldRegistry()
	}
	return &Engine{Index: idx, Fields: fields, DocIDs: xquery.NewDocIDs()}
}

// Add indexes a document and returns its identifier.
func (e *Engine) Add(ctx *xquery.Context, data []byte) (int64, error) {
	values, err := e.fieldValues(ctx, data)
	if err != nil {
		return 0, err
	}
	return e.Index.Add(ctx, data, values)
}

// fieldValues evaluates the path of every configured field on the
// document.
func (e *Engine) fieldValues(ctx *xquery.Context, data []byte) (map[string][]string, error) {
	cfg := e.Index.Config()
	if len(cfg.Fields) == 0 {
		return nil, nil
	}

	doc, err := dom.ParseBytes(e.DocIDs.Scope().Next(), data)
	if err != nil {
		return nil, err
	}

	ev := eval.New(singleDocument{doc})
	values := make(map[string][]string, len(cfg.Fields))
	for _, name := range cfg.Fields {
		f, err := e.Fields.Field(name)
		if err != nil {
			return nil, err
		}

		result, err := ev.Eval(ctx, f.Path)
		if err != nil {
			return nil, err
		}

		for _, item := range result {
			values[name] = append(values[name], eval.StringValue(item))
		}
	}
	return values, nil
}

// Compile rewrites an expression to use the index.
func (e *Engine) Compile(ctx *xquery.Context, expr xquery.Expression) (xquery.Expression, error) {
	b := analyzer.NewBuilder(e.Index.Config(), e.Fields)
	if e.Debug {
		b = b.WithDebug()
	}

	compiled, err := b.Build().Analyze(ctx, expr)
	if err != nil {
		return nil, err
	}

	logrus.WithField("expression", compiled.String()).Debug("expression compiled")
	return compiled, nil
}

// Query compiles and evaluates an expression.
func (e *Engine) Query(ctx *xquery.Context, expr xquery.Expression) (eval.Sequence, error) {
	return e.QueryWithBindings(ctx, expr, nil)
}

// QueryWithBindings compiles and evaluates an expression whose variables
// are bound to the results of the given expressions. Bound expressions are
// evaluated first, with no variables of their own.
func (e *Engine) QueryWithBindings(
	ctx *xquery.Context,
	expr xquery.Expression,
	bindings map[string]xquery.Expression,
) (eval.Sequence, error) {
	compiled, err := e.Compile(ctx, expr)
	if err != nil {
		return nil, err
	}

	values := make(map[string]xquery.Expression, len(bindings))
	for name, b := range bindings {
		values[name], err = e.Compile(ctx, b)
		if err != nil {
			return nil, err
		}
	}

	return e.evaluate(ctx, compiled, values)
}

// QueryUnoptimized evaluates an expression against every document, without
// using the index to narrow its evaluation.
func (e *Engine) QueryUnoptimized(
	ctx *xquery.Context,
	expr xquery.Expression,
	bindings map[string]xquery.Expression,
) (eval.Sequence, error) {
	return e.evaluate(ctx, expr, bindings)
}

// Close closes the index.
func (e *Engine) Close() error {
	return e.Index.Close()
}

func (e *Engine) evaluate(
	ctx *xquery.Context,
	expr xquery.Expression,
	bindings map[string]xquery.Expression,
) (eval.Sequence, error) {
	c := &collection{
		searcher: e.Index,
		scope:    e.DocIDs.Scope(),
		docs:     make(map[int64]*dom.Document),
	}

	ev := eval.New(c)
	for name, b := range bindings {
		value, err := eval.New(c).Eval(ctx, b)
		if err != nil {
			return nil, err
		}
		ev.WithVariable(name, value)
	}

	return ev.Eval(ctx, expr)
}

// collection materializes the documents of the index for one evaluation.
// A document is parsed once and keeps its index identifier.
type collection struct {
	searcher index.Searcher
	scope    *xquery.DocIDScope
	docs     map[int64]*dom.Document
}

func (c *collection) Documents(ctx *xquery.Context) ([]*dom.Document, error) {
	return c.search(ctx, query.NewMatchAll())
}

func (c *collection) Search(ctx *xquery.Context, q string) ([]*dom.Document, error) {
	parsed, err := query.Parse(q)
	if err != nil {
		return nil, err
	}
	return c.search(ctx, parsed)
}

func (c *collection) Count(ctx *xquery.Context, q string) (int64, error) {
	parsed, err := query.Parse(q)
	if err != nil {
		return 0, err
	}
	return c.searcher.Count(ctx, parsed)
}

func (c *collection) search(ctx *xquery.Context, q query.Query) ([]*dom.Document, error) {
	iter, err := c.searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var docs []*dom.Document
	for {
		id, data, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		doc, ok := c.docs[id]
		if !ok {
			c.scope.SetOverride(id)
			doc, err = dom.ParseBytes(c.scope.Next(), data)
			if err != nil {
				return nil, err
			}
			c.docs[id] = doc
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// singleDocument is a collection of one document.
type singleDocument struct {
	doc *dom.Document
}

func (s singleDocument) Documents(*xquery.Context) ([]*dom.Document, error) {
	return []*dom.Document{s.doc}, nil
}

func (s singleDocument) Search(*xquery.Context, string) ([]*dom.Document, error) {
	return []*dom.Document{s.doc}, nil
}

func (s singleDocument) Count(*xquery.Context, string) (int64, error) {
	return 1, nil
}
