package analyzer

import (
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/index/query"
)

// ErrIndexQuery is returned when an index query cannot be built.
var ErrIndexQuery = errors.NewKind("unable to build index query: %s")

// IndexQuery is what the index can tell about the documents an expression
// depends on: a query selecting every document that may contribute to the
// result of the expression, the facts proven about that query and the type
// of the result. IndexQuery values are immutable.
type IndexQuery struct {
	query     query.Query
	facts     xquery.Facts
	valueType xquery.ValueType
}

var (
	// Empty places no constraint on the documents. It is the identity of
	// the conjunction.
	Empty = IndexQuery{query.NewMatchAll(), xquery.Minimal, xquery.Document}

	// Unindexed is the query of expressions the index tells nothing about.
	Unindexed = IndexQuery{query.NewMatchAll(), 0, xquery.Value}
)

// NewIndexQuery creates a new IndexQuery.
func NewIndexQuery(q query.Query, facts xquery.Facts, t xquery.ValueType) IndexQuery {
	return IndexQuery{q, facts, t}
}

// Query returns the index query.
func (q IndexQuery) Query() query.Query { return q.query }

// Facts returns the facts proven about the query.
func (q IndexQuery) Facts() xquery.Facts { return q.facts }

// Type returns the type of the results of the expression.
func (q IndexQuery) Type() xquery.ValueType { return q.valueType }

// IsMinimal reports whether every document selected by the query
// contributes to the results of the expression.
func (q IndexQuery) IsMinimal() bool { return q.facts.Has(xquery.Minimal) }

// IsMatchAll reports whether the query selects every document.
func (q IndexQuery) IsMatchAll() bool { return query.IsMatchAll(q.query) }

// IsEmpty reports whether q is Empty.
func (q IndexQuery) IsEmpty() bool {
	return q.IsMatchAll() && q.facts == Empty.facts && q.valueType == Empty.valueType
}

// WithType returns a copy of q with the given result type.
func (q IndexQuery) WithType(t xquery.ValueType) IndexQuery {
	q.valueType = t
	return q
}

// WithFacts returns a copy of q with the given facts added.
func (q IndexQuery) WithFacts(f xquery.Facts) IndexQuery {
	q.facts |= f
	return q
}

// WithoutFacts returns a copy of q with the given facts removed.
func (q IndexQuery) WithoutFacts(f xquery.Facts) IndexQuery {
	q.facts &^= f
	return q
}

// withMinimal returns a copy of q whose Minimal fact is set to minimal.
func (q IndexQuery) withMinimal(minimal bool) IndexQuery {
	if minimal {
		return q.WithFacts(xquery.Minimal)
	}
	return q.WithoutFacts(xquery.Minimal)
}

// onlyMinimal returns a copy of q without any fact but Minimal.
func (q IndexQuery) onlyMinimal() IndexQuery {
	q.facts &= xquery.Minimal
	return q
}

// String returns the text form of the index query.
func (q IndexQuery) String() string {
	return q.query.String()
}

// Equal reports whether both queries have the same text form.
func (q IndexQuery) Equal(other IndexQuery) bool {
	return q.String() == other.String()
}

// Combine returns the combination of q and other.
//
// When one of them is Empty and occur is Must, the result is the other
// one with type resultType. Otherwise the result is minimal only if both
// are. A Must combination has type resultType; a Should combination has
// the promotion of both types. A Must combination with a non nil slop is a
// proximity query of both queries when both have positions. Only the
// Minimal fact survives the combination.
func (q IndexQuery) Combine(
	other IndexQuery,
	occur query.Occur,
	resultType xquery.ValueType,
	slop *int,
) (IndexQuery, error) {
	switch occur {
	case query.Must:
		if q.IsEmpty() {
			return other.WithType(resultType), nil
		}
		if other.IsEmpty() {
			return q.WithType(resultType), nil
		}
	case query.Should:
		resultType = xquery.Promote(q.valueType, other.valueType)
	default:
		return IndexQuery{}, ErrIndexQuery.New("unsupported occur " + occur.String())
	}

	var facts xquery.Facts
	if q.IsMinimal() && other.IsMinimal() {
		facts = xquery.Minimal
	}

	var result query.Query
	switch {
	case q.IsMatchAll() && other.IsMatchAll():
		result = query.NewMatchAll()
	case occur == query.Should && (q.IsMatchAll() || other.IsMatchAll()):
		result = query.NewMatchAll()
	case q.IsMatchAll():
		result = other.query
	case other.IsMatchAll():
		result = q.query
	case slop != nil && query.IsSpan(q.query) && query.IsSpan(other.query):
		near, err := query.NewNear(*slop, true, q.query, other.query)
		if err != nil {
			return IndexQuery{}, ErrIndexQuery.Wrap(err, err.Error())
		}
		result = near
	default:
		clauses := appendClauses(nil, q.query, occur)
		clauses = appendClauses(clauses, other.query, occur)
		result = query.NewBoolean(clauses...)
	}

	return IndexQuery{result, facts, resultType}, nil
}

// appendClauses appends q as a clause with the given occur, splicing the
// clauses of boolean queries whose clauses all have that occur.
func appendClauses(clauses []query.Clause, q query.Query, occur query.Occur) []query.Clause {
	if b, ok := q.(*query.Boolean); ok && len(b.Clauses) > 0 {
		flat := true
		for _, c := range b.Clauses {
			if c.Occur != occur {
				flat = false
				break
			}
		}

		if flat {
			return append(clauses, b.Clauses...)
		}
	}

	return append(clauses, query.Clause{Occur: occur, Query: q})
}
