package analyzer

import (
	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/expression"
	"github.com/msokolov/lux/xquery/expression/function"
	"github.com/msokolov/lux/xquery/index"
	"github.com/msokolov/lux/xquery/index/query"
)

// optimizePaths replaces the root of every absolute path of the expression
// with a search of the documents the path may select, and rewrites the
// functions that can be answered by the index alone.
func optimizePaths(ctx *xquery.Context, a *Analyzer, e xquery.Expression) (xquery.Expression, error) {
	span, _ := ctx.Span("optimize_paths")
	defer span.Finish()

	o := &pathOptimizer{a: a, cfg: a.Config, fields: a.Fields}
	result, q, err := o.visit(e, Empty, nil, false)
	if err != nil {
		return nil, err
	}

	a.Log("optimized %s with index query %s %s", e, q, q.Facts())
	return result, nil
}

// pathOptimizer computes the index query of every expression of a tree in
// a single post-order pass, rewriting the tree as it goes. It holds no
// state of its own.
type pathOptimizer struct {
	a      *Analyzer
	cfg    *index.Config
	fields *xquery.FieldRegistry
}

// visit returns the rewritten expression and its index query. ctx is the
// index query of the context item and focus the expression the context
// item comes from, nil when there is no context item. chained is set when
// the parent of e continues a path from e.
func (o *pathOptimizer) visit(
	e xquery.Expression,
	ctx IndexQuery,
	focus xquery.Expression,
	chained bool,
) (xquery.Expression, IndexQuery, error) {
	var (
		result xquery.Expression
		q      IndexQuery
		err    error
	)

	switch e := e.(type) {
	case *expression.Root:
		result, q = e, Empty
	case *expression.ContextItem:
		q = NewIndexQuery(query.NewMatchAll(), ctx.Facts()&xquery.Minimal, ctx.Type())
		result = e
	case *expression.PathStep:
		result = e
		q, err = o.step(e, ctx)
	case *expression.PathExpression:
		result, q, err = o.path(e, ctx, focus)
	case *expression.Predicate:
		result, q, err = o.predicate(e, ctx, focus)
	case *expression.FunctionCall:
		var rewritten bool
		result, q, rewritten, err = o.functionCall(e, ctx, focus)
		if err != nil || rewritten {
			return result, q, err
		}
	case *expression.BinaryOperation:
		result, q, err = o.binary(e, ctx, focus)
	case *expression.Sequence:
		result, q, err = o.sequence(e, ctx, focus)
	case *expression.Subsequence:
		result, q, err = o.subsequence(e, ctx, focus)
	default:
		result, q = e, Unindexed.WithType(e.Type())
	}

	if err != nil {
		return nil, IndexQuery{}, err
	}

	if !chained && focus == nil && isAbsolute(result) {
		result, err = o.insertSearch(result, q)
		if err != nil {
			return nil, IndexQuery{}, err
		}
	}

	return result, q, nil
}

func (o *pathOptimizer) step(s *expression.PathStep, ctx IndexQuery) (IndexQuery, error) {
	if !s.IsWildcard() {
		term, err := o.nameTerm(s)
		if err != nil {
			return IndexQuery{}, ErrIndexQuery.Wrap(err, err.Error())
		}

		if term == nil {
			return Unindexed.WithType(s.Kind), nil
		}

		var facts xquery.Facts
		switch s.Axis {
		case expression.Descendant, expression.DescendantOrSelf, expression.Attribute:
			facts = xquery.Minimal
		}
		return NewIndexQuery(term, facts, s.Kind), nil
	}

	q := NewIndexQuery(query.NewMatchAll(), 0, s.Kind)
	if !ctx.IsMinimal() {
		return q, nil
	}

	var inherit bool
	switch s.Axis {
	case expression.Child:
		// every document has an element
		inherit = ctx.Type() == xquery.Document &&
			(s.Kind == xquery.Element || s.Kind == xquery.Node)
	case expression.Descendant:
		inherit = ctx.Type() == xquery.Document &&
			(s.Kind == xquery.Element || s.Kind == xquery.Node)
	case expression.DescendantOrSelf:
		inherit = s.Kind == xquery.Node ||
			(s.Kind == xquery.Element &&
				(ctx.Type() == xquery.Element || ctx.Type() == xquery.Document))
	case expression.Self:
		inherit = s.Kind == xquery.Node || s.Kind == ctx.Type()
	}

	return q.withMinimal(inherit), nil
}

// nameTerm returns the term of a named step, or nil when the index keeps
// no term for it.
func (o *pathOptimizer) nameTerm(s *expression.PathStep) (*query.Term, error) {
	switch s.Kind {
	case xquery.Element:
		switch {
		case o.cfg.PathIndex:
			return index.ElementPathTerm(s.Name)
		case o.cfg.ElementIndex:
			return index.ElementNameTerm(s.Name)
		}
	case xquery.Attribute:
		switch {
		case o.cfg.PathIndex:
			return index.AttributePathTerm(s.Name)
		case o.cfg.AttributeIndex:
			return index.AttributeNameTerm(s.Name)
		}
	}
	return nil, nil
}

func (o *pathOptimizer) path(
	e *expression.PathExpression,
	ctx IndexQuery,
	focus xquery.Expression,
) (xquery.Expression, IndexQuery, error) {
	left, lq, err := o.visit(e.Left, ctx, focus, true)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	right, rq, err := o.visit(e.Right, lq, withFocus(focus, e.Left), false)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	result := expression.NewPathExpression(left, right)

	if isDetached(e.Left, focus != nil) || isDetached(e.Right, true) {
		// the items of the path do not come from the context document,
		// only the left side constrains it
		return result, lq.WithType(rq.Type()).WithoutFacts(xquery.Minimal), nil
	}

	if rq.Type() == xquery.Boolean {
		return result, lq.WithType(xquery.Boolean), nil
	}

	var slop *int
	if o.cfg.PathIndex {
		slop = Distance(e.Left, e.Right)
	}

	near := slop != nil && query.IsSpan(rq.Query())
	if near && lq.IsMatchAll() {
		// the left side only crosses wildcards from the root
		lq = NewIndexQuery(index.RootTerm(), lq.Facts(), lq.Type())
	}
	near = near && query.IsSpan(lq.Query())

	q, err := lq.Combine(rq, query.Must, rq.Type(), slop)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	var minimal bool
	switch {
	case near:
		minimal = lq.IsMinimal() && *slop == 0 && (rq.IsMinimal() || isNamedChild(e.Right))
	case isRootDescendants(e.Left):
		// every named node is a child of some node of the document
		minimal = lq.IsMinimal() && (rq.IsMinimal() || isNamedChild(e.Right))
	default:
		minimal = lq.IsMinimal() && rq.IsMinimal() && (lq.IsMatchAll() || rq.IsMatchAll())
	}

	return result, q.withMinimal(minimal), nil
}

func (o *pathOptimizer) predicate(
	e *expression.Predicate,
	ctx IndexQuery,
	focus xquery.Expression,
) (xquery.Expression, IndexQuery, error) {
	base, bq, err := o.visit(e.Base, ctx, focus, true)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	filter, fq, err := o.visit(e.Filter, bq, withFocus(focus, e.Base), false)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	result := expression.NewPredicate(base, filter)

	if t := e.Filter.Type(); t == xquery.Int || t == xquery.Number {
		// a positional filter keeps the documents of the base but not
		// every one of them has an item at that position
		return result, bq.WithoutFacts(xquery.Minimal), nil
	}

	q, err := bq.Combine(fq, query.Must, bq.Type(), nil)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	minimal := bq.IsMinimal() && fq.IsMinimal() &&
		((bq.IsMatchAll() && bq.Type() == xquery.Document) || fq.IsMatchAll())
	q = q.withMinimal(minimal)

	if bq.Facts().Has(xquery.Counting) {
		q = q.WithFacts(xquery.Counting)
	}

	return result, q, nil
}

// functionCall returns the rewritten call and its query. rewritten is set
// when the call was replaced by a search.
func (o *pathOptimizer) functionCall(
	e *expression.FunctionCall,
	ctx IndexQuery,
	focus xquery.Expression,
) (result xquery.Expression, q IndexQuery, rewritten bool, err error) {
	args := make([]xquery.Expression, len(e.Args))
	queries := make([]IndexQuery, len(e.Args))
	for i, arg := range e.Args {
		args[i], queries[i], err = o.visit(arg, ctx, focus, false)
		if err != nil {
			return nil, IndexQuery{}, false, err
		}
	}

	name := function.Qualify(e.Name)
	result = expression.NewFunctionCall(e.Name, args...)

	if focus == nil && len(e.Args) == 1 && isAbsolute(e.Args[0]) && queries[0].IsMinimal() {
		arg := queries[0]
		switch name {
		case function.Count:
			if isSingular(e.Args[0]) {
				return o.search(arg, xquery.Counting|xquery.Minimal), Unindexed.WithType(xquery.Int), true, nil
			}
		case function.Exists:
			return o.search(arg, xquery.BooleanTrue|xquery.Minimal), Unindexed.WithType(xquery.Boolean), true, nil
		case function.Empty:
			return o.search(arg, xquery.BooleanFalse|xquery.Minimal), Unindexed.WithType(xquery.Boolean), true, nil
		}
	}

	b, ok := function.Lookup(name)
	if !ok || !function.IsStandard(name) {
		return result, Unindexed.WithType(e.Type()), false, nil
	}

	if name == function.Collection {
		if focus != nil {
			return result, Unindexed.WithType(xquery.Document), false, nil
		}
		return result, Empty, false, nil
	}

	var occur query.Occur
	switch b.Parity {
	case function.Must:
		occur = query.Must
	case function.Should:
		occur = query.Should
	default:
		return result, Unindexed.WithType(e.Type()), false, nil
	}

	q = Unindexed
	first := true
	for i, aq := range queries {
		if e.Args[i].Type() == xquery.Boolean && b.ReturnType != xquery.Boolean {
			continue
		}

		if first {
			q, first = aq, false
			continue
		}

		q, err = q.Combine(aq, occur, e.Type(), nil)
		if err != nil {
			return nil, IndexQuery{}, false, err
		}
	}

	return result, q.WithType(e.Type()).onlyMinimal(), false, nil
}

func (o *pathOptimizer) binary(
	e *expression.BinaryOperation,
	ctx IndexQuery,
	focus xquery.Expression,
) (xquery.Expression, IndexQuery, error) {
	left, lq, err := o.visit(e.Left, ctx, focus, false)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	right, rq, err := o.visit(e.Right, ctx, focus, false)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	result := expression.NewBinaryOperation(e.Op, left, right)

	if e.Op == expression.Equals {
		q, ok, err := o.fieldEquivalence(e, focus)
		if err != nil {
			return nil, IndexQuery{}, err
		}
		if ok {
			return result, q, nil
		}
	}

	var q IndexQuery
	switch {
	case e.Op == expression.And:
		q, err = lq.Combine(rq, query.Must, xquery.Boolean, nil)
	case e.Op == expression.Intersect:
		q, err = lq.Combine(rq, query.Must, e.Type(), nil)
		if err == nil {
			q = q.withMinimal(q.IsMinimal() && (lq.IsMatchAll() || rq.IsMatchAll()))
		}
	case e.Op == expression.Or, e.Op == expression.Union:
		q, err = lq.Combine(rq, query.Should, e.Type(), nil)
	case e.Op == expression.Except:
		q = lq.WithType(e.Type()).WithoutFacts(xquery.Minimal)
	default:
		q, err = lq.Combine(rq, query.Should, e.Type(), nil)
		if err == nil {
			q = q.WithType(e.Type()).WithoutFacts(xquery.Minimal)
		}
	}

	if err != nil {
		return nil, IndexQuery{}, err
	}
	return result, q.onlyMinimal(), nil
}

// fieldEquivalence returns a term query on a configured field when e
// compares an expression congruent with the field path to a string.
func (o *pathOptimizer) fieldEquivalence(
	e *expression.BinaryOperation,
	focus xquery.Expression,
) (IndexQuery, bool, error) {
	operand, lit := e.Left, e.Right
	if _, ok := operand.(*expression.Literal); ok {
		operand, lit = lit, operand
	}

	l, ok := lit.(*expression.Literal)
	if !ok {
		return IndexQuery{}, false, nil
	}

	value, ok := l.Value.(string)
	if !ok || value == "" {
		return IndexQuery{}, false, nil
	}

	field, ok := o.fields.Equivalent(withFocus(focus, operand))
	if !ok || !o.cfg.HasField(field.Name) {
		return IndexQuery{}, false, nil
	}

	term, err := index.FieldTerm(field.Name, value)
	if err != nil {
		return IndexQuery{}, false, ErrIndexQuery.Wrap(err, err.Error())
	}

	o.a.Log("comparison %s answered by field %q", e, field.Name)
	return NewIndexQuery(term, 0, xquery.Boolean), true, nil
}

func (o *pathOptimizer) sequence(
	e *expression.Sequence,
	ctx IndexQuery,
	focus xquery.Expression,
) (xquery.Expression, IndexQuery, error) {
	if len(e.Items) == 0 {
		return e, Unindexed, nil
	}

	items := make([]xquery.Expression, len(e.Items))
	var q IndexQuery
	for i, item := range e.Items {
		var (
			iq  IndexQuery
			err error
		)
		items[i], iq, err = o.visit(item, ctx, focus, false)
		if err != nil {
			return nil, IndexQuery{}, err
		}

		if i == 0 {
			q = iq
			continue
		}

		q, err = q.Combine(iq, query.Should, xquery.Value, nil)
		if err != nil {
			return nil, IndexQuery{}, err
		}
	}

	return expression.NewSequence(items...), q.onlyMinimal(), nil
}

func (o *pathOptimizer) subsequence(
	e *expression.Subsequence,
	ctx IndexQuery,
	focus xquery.Expression,
) (xquery.Expression, IndexQuery, error) {
	base, bq, err := o.visit(e.Base, ctx, focus, true)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	start, _, err := o.visit(e.Start, ctx, focus, false)
	if err != nil {
		return nil, IndexQuery{}, err
	}

	var length xquery.Expression
	if e.Length != nil {
		length, _, err = o.visit(e.Length, ctx, focus, false)
		if err != nil {
			return nil, IndexQuery{}, err
		}
	}

	result := expression.NewSubsequence(base, start, length)

	first := isIntLiteral(e.Start, 1) && e.Length != nil && isIntLiteral(e.Length, 1)
	last := isLastCall(e.Start) && (e.Length == nil || isIntLiteral(e.Length, 1))
	if first || last {
		return result, bq, nil
	}

	return result, bq.WithoutFacts(xquery.Minimal), nil
}

// search returns a call to the search primitive for q.
func (o *pathOptimizer) search(q IndexQuery, facts xquery.Facts) *expression.FunctionCall {
	o.a.Log("search %s %s", q, facts)
	return expression.NewSearch(q.String(), facts)
}

// insertSearch replaces the root of the absolute path e by a search for q.
func (o *pathOptimizer) insertSearch(e xquery.Expression, q IndexQuery) (xquery.Expression, error) {
	facts := q.Facts() & xquery.Minimal
	if q.Type() == xquery.Document {
		facts |= xquery.DocumentResults
	}

	search := o.search(q, facts)
	result, err := replaceLeftmost(e, search)
	if err != nil {
		return nil, err
	}

	if q.Type() == xquery.Document && leftmost(e) != e {
		return expression.NewSubsequence(result, expression.NewLiteral(1), nil), nil
	}
	return result, nil
}

// leftmost returns the expression a path starts from.
func leftmost(e xquery.Expression) xquery.Expression {
	switch e := e.(type) {
	case *expression.PathExpression:
		return leftmost(e.Left)
	case *expression.Predicate:
		return leftmost(e.Base)
	case *expression.Subsequence:
		return leftmost(e.Base)
	default:
		return e
	}
}

func replaceLeftmost(e, with xquery.Expression) (xquery.Expression, error) {
	switch e := e.(type) {
	case *expression.PathExpression:
		left, err := replaceLeftmost(e.Left, with)
		if err != nil {
			return nil, err
		}
		return expression.NewPathExpression(left, e.Right), nil
	case *expression.Predicate:
		base, err := replaceLeftmost(e.Base, with)
		if err != nil {
			return nil, err
		}
		return expression.NewPredicate(base, e.Filter), nil
	case *expression.Subsequence:
		base, err := replaceLeftmost(e.Base, with)
		if err != nil {
			return nil, err
		}
		return expression.NewSubsequence(base, e.Start, e.Length), nil
	default:
		return with, nil
	}
}

// isAbsolute reports whether e is a path starting from the whole
// collection.
func isAbsolute(e xquery.Expression) bool {
	switch l := leftmost(e).(type) {
	case *expression.Root:
		return true
	case *expression.FunctionCall:
		return function.Qualify(l.Name) == function.Collection
	default:
		return false
	}
}

// isDetached reports whether the items of e may come from documents other
// than the document of the context item. focused is set when e is
// evaluated with a context item.
func isDetached(e xquery.Expression, focused bool) bool {
	switch e := e.(type) {
	case *expression.Variable:
		return true
	case *expression.PathExpression:
		return isDetached(e.Left, focused) || isDetached(e.Right, true)
	case *expression.Predicate:
		return isDetached(e.Base, focused)
	case *expression.Subsequence:
		return isDetached(e.Base, focused)
	case *expression.BinaryOperation:
		return e.Op.IsSet() &&
			(isDetached(e.Left, focused) || isDetached(e.Right, focused))
	case *expression.Sequence:
		for _, item := range e.Items {
			if isDetached(item, focused) {
				return true
			}
		}
		return false
	case *expression.FunctionCall:
		name := function.Qualify(e.Name)
		if _, ok := function.Lookup(name); !ok || !function.IsStandard(name) {
			return true
		}

		if name == function.Collection {
			return focused
		}

		for _, arg := range e.Args {
			if isDetached(arg, focused) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// isSingular reports whether an absolute expression yields at most one
// item per document.
func isSingular(e xquery.Expression) bool {
	if e.Type() == xquery.Document {
		return true
	}

	p, ok := e.(*expression.PathExpression)
	if !ok {
		return false
	}

	if _, ok := p.Left.(*expression.Root); !ok {
		return false
	}

	s, ok := p.Right.(*expression.PathStep)
	return ok && s.Axis == expression.Child && s.Kind == xquery.Element
}

func isNamedChild(e xquery.Expression) bool {
	s, ok := e.(*expression.PathStep)
	return ok && !s.IsWildcard() &&
		(s.Axis == expression.Child || s.Axis == expression.Attribute)
}

// isRootDescendants reports whether e is /descendant-or-self::node().
func isRootDescendants(e xquery.Expression) bool {
	p, ok := e.(*expression.PathExpression)
	if !ok {
		return false
	}

	if _, ok := p.Left.(*expression.Root); !ok {
		return false
	}

	s, ok := p.Right.(*expression.PathStep)
	return ok && s.Axis == expression.DescendantOrSelf && s.Kind == xquery.Node
}

func isIntLiteral(e xquery.Expression, n int64) bool {
	l, ok := e.(*expression.Literal)
	if !ok {
		return false
	}

	switch v := l.Value.(type) {
	case int64:
		return v == n
	case float64:
		return v == float64(n)
	default:
		return false
	}
}

func isLastCall(e xquery.Expression) bool {
	f, ok := e.(*expression.FunctionCall)
	return ok && len(f.Args) == 0 && function.Qualify(f.Name) == function.Last
}

// withFocus returns the absolute form of e evaluated with the results of
// focus as context items.
func withFocus(focus, e xquery.Expression) xquery.Expression {
	if focus == nil {
		return e
	}
	return expression.NewPathExpression(focus, e)
}
