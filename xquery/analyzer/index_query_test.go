package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/index/query"
)

func term(t *testing.T, field, text string) *query.Term {
	t.Helper()
	q, err := query.NewTerm(field, text)
	require.NoError(t, err)
	return q
}

func TestCombineIdentity(t *testing.T) {
	require := require.New(t)

	queries := []IndexQuery{
		Empty,
		Unindexed,
		NewIndexQuery(term(t, "lux_path", "a"), xquery.Minimal, xquery.Element),
		NewIndexQuery(term(t, "lux_path", "b"), 0, xquery.Attribute),
		NewIndexQuery(query.NewMatchAll(), xquery.Minimal, xquery.Node),
	}

	for _, x := range queries {
		for _, typ := range xquery.ValueTypes {
			result, err := Empty.Combine(x, query.Must, typ, nil)
			require.NoError(err)
			require.Equal(x.WithType(typ), result)

			result, err = x.Combine(Empty, query.Must, typ, nil)
			require.NoError(err)
			require.Equal(x.WithType(typ), result)
		}
	}
}

func TestCombineMinimality(t *testing.T) {
	a := NewIndexQuery(term(t, "lux_path", "a"), xquery.Minimal, xquery.Element)
	b := NewIndexQuery(term(t, "lux_path", "b"), xquery.Minimal, xquery.Element)
	c := NewIndexQuery(term(t, "lux_path", "c"), 0, xquery.Element)

	testCases := []struct {
		name    string
		x, y    IndexQuery
		minimal bool
	}{
		{"both minimal", a, b, true},
		{"left not minimal", c, b, false},
		{"right not minimal", a, c, false},
		{"none minimal", c, c, false},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			result, err := tt.x.Combine(tt.y, query.Must, xquery.Element, nil)
			require.NoError(err)
			require.Equal(tt.minimal, result.IsMinimal())

			result, err = tt.x.Combine(tt.y, query.Should, xquery.Element, nil)
			require.NoError(err)
			require.Equal(tt.minimal, result.IsMinimal())
		})
	}
}

func TestCombine(t *testing.T) {
	a := NewIndexQuery(term(t, "lux_path", "a"), xquery.Minimal, xquery.Element)
	b := NewIndexQuery(term(t, "lux_path", "b"), xquery.Minimal, xquery.Attribute)
	c := NewIndexQuery(term(t, "title", "x y"), 0, xquery.Boolean)
	all := NewIndexQuery(query.NewMatchAll(), xquery.Minimal, xquery.Node)
	zero := 0
	two := 2

	ab, err := a.Combine(b, query.Must, xquery.Element, nil)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		x, y     IndexQuery
		occur    query.Occur
		slop     *int
		expected string
		typ      xquery.ValueType
	}{
		{"and", a, b, query.Must, nil, "(+lux_path:a +lux_path:b)", xquery.Element},
		{"or", a, b, query.Should, nil, "(lux_path:a lux_path:b)", xquery.Node},
		{"or with different atomic types", c, NewIndexQuery(term(t, "n", "1"), 0, xquery.Int), query.Should, nil, `(title:"x y" n:1)`, xquery.Atomic},
		{"nested and is flattened", ab, c, query.Must, nil, `(+lux_path:a +lux_path:b +title:"x y")`, xquery.Element},
		{"and with match-all", all, a, query.Must, nil, "lux_path:a", xquery.Element},
		{"or with match-all", a, all, query.Should, nil, "*:*", xquery.Node},
		{"match-all both", all, all, query.Must, nil, "*:*", xquery.Element},
		{"near", a, b, query.Must, &zero, "near/0(lux_path:a lux_path:b)", xquery.Attribute},
		{"near with slop", a, b, query.Must, &two, "near/2(lux_path:a lux_path:b)", xquery.Attribute},
		{"near of a boolean falls back to and", ab, b, query.Must, &zero, "(+lux_path:a +lux_path:b +lux_path:b)", xquery.Attribute},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			result, err := tt.x.Combine(tt.y, tt.occur, tt.typ, tt.slop)
			require.NoError(err)
			require.Equal(tt.expected, result.String())
			require.Equal(tt.typ, result.Type())
		})
	}
}

func TestCombineInvalid(t *testing.T) {
	require := require.New(t)

	a := NewIndexQuery(term(t, "lux_path", "a"), xquery.Minimal, xquery.Element)
	_, err := a.Combine(a, query.MustNot, xquery.Element, nil)
	require.Error(err)
	require.True(ErrIndexQuery.Is(err))

	slop := -1
	_, err = a.Combine(a, query.Must, xquery.Element, &slop)
	require.Error(err)
	require.True(ErrIndexQuery.Is(err))
}

func TestCombineFacts(t *testing.T) {
	require := require.New(t)

	a := NewIndexQuery(term(t, "lux_path", "a"), xquery.Minimal|xquery.Counting, xquery.Element)
	b := NewIndexQuery(term(t, "lux_path", "b"), xquery.Minimal|xquery.BooleanTrue, xquery.Element)

	result, err := a.Combine(b, query.Must, xquery.Element, nil)
	require.NoError(err)
	require.Equal(xquery.Minimal, result.Facts())
}

func TestIndexQueryEqual(t *testing.T) {
	require := require.New(t)

	a := NewIndexQuery(term(t, "lux_path", "a"), xquery.Minimal, xquery.Element)
	b := NewIndexQuery(term(t, "lux_path", "a"), 0, xquery.Value)
	c := NewIndexQuery(term(t, "lux_path", "c"), xquery.Minimal, xquery.Element)

	require.True(a.Equal(b))
	require.False(a.Equal(c))
	require.True(Empty.IsEmpty())
	require.False(Unindexed.IsEmpty())
	require.False(Empty.WithType(xquery.Element).IsEmpty())
	require.True(Empty.Equal(Unindexed))
}

func TestIndexQueryFacts(t *testing.T) {
	require := require.New(t)

	q := Unindexed.WithFacts(xquery.Counting | xquery.Minimal)
	require.True(q.IsMinimal())
	require.True(q.Facts().Has(xquery.Counting))

	q = q.WithoutFacts(xquery.Minimal)
	require.False(q.IsMinimal())
	require.Equal(xquery.Counting, q.Facts())

	q = q.WithFacts(xquery.Minimal | xquery.BooleanFalse).onlyMinimal()
	require.Equal(xquery.Minimal, q.Facts())
	require.Equal(Unindexed.Facts(), Unindexed.WithType(xquery.Int).Facts())
}
