package index

import (
	"sort"

	"github.com/pilosa/pilosa/roaring"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/msokolov/lux/xquery/index/query"
)

// ErrUnsupportedQuery is returned when a query type cannot be executed.
var ErrUnsupportedQuery = errors.NewKind("unsupported query type %T")

// Postings gives access to the postings of an index.
type Postings interface {
	// Docs returns the documents where the term occurs.
	Docs(field, text string) (*roaring.Bitmap, error)
	// Positions returns the positions of the term in a document, in
	// ascending order.
	Positions(field, text string, doc uint64) ([]uint64, error)
	// All returns every document.
	All() (*roaring.Bitmap, error)
}

// Execute returns the documents matching q.
func Execute(q query.Query, p Postings) (*roaring.Bitmap, error) {
	switch q := q.(type) {
	case query.MatchAll:
		return p.All()
	case *query.Term:
		return p.Docs(q.Field, q.Text)
	case *query.Boolean:
		return executeBoolean(q, p)
	case *query.Near:
		return executeNear(q, p)
	default:
		return nil, ErrUnsupportedQuery.New(q)
	}
}

func executeBoolean(q *query.Boolean, p Postings) (*roaring.Bitmap, error) {
	var must, should, mustNot []*roaring.Bitmap
	for _, c := range q.Clauses {
		docs, err := Execute(c.Query, p)
		if err != nil {
			return nil, err
		}

		switch c.Occur {
		case query.Must:
			must = append(must, docs)
		case query.Should:
			should = append(should, docs)
		case query.MustNot:
			mustNot = append(mustNot, docs)
		}
	}

	var result *roaring.Bitmap
	switch {
	case len(must) > 0:
		result = must[0]
		for _, docs := range must[1:] {
			result = result.Intersect(docs)
		}
	case len(should) > 0:
		result = should[0]
		for _, docs := range should[1:] {
			result = result.Union(docs)
		}
	case len(mustNot) > 0:
		all, err := p.All()
		if err != nil {
			return nil, err
		}
		result = all
	default:
		return roaring.NewBitmap(), nil
	}

	for _, docs := range mustNot {
		result = result.Difference(docs)
	}
	return result, nil
}

func executeNear(q *query.Near, p Postings) (*roaring.Bitmap, error) {
	var candidates *roaring.Bitmap
	for _, c := range q.Clauses {
		docs, err := Execute(c, p)
		if err != nil {
			return nil, err
		}

		if candidates == nil {
			candidates = docs
		} else {
			candidates = candidates.Intersect(docs)
		}
	}

	var matches []uint64
	for _, doc := range candidates.Slice() {
		s, err := spans(q, p, doc)
		if err != nil {
			return nil, err
		}
		if len(s) > 0 {
			matches = append(matches, doc)
		}
	}
	return roaring.NewBitmap(matches...), nil
}

// span is a half-open range of positions.
type span struct {
	start, end uint64
}

func spans(q query.Query, p Postings, doc uint64) ([]span, error) {
	switch q := q.(type) {
	case *query.Term:
		positions, err := p.Positions(q.Field, q.Text, doc)
		if err != nil {
			return nil, err
		}
		result := make([]span, len(positions))
		for i, pos := range positions {
			result[i] = span{pos, pos + 1}
		}
		return result, nil
	case *query.Near:
		clauses := make([][]span, len(q.Clauses))
		for i, c := range q.Clauses {
			s, err := spans(c, p, doc)
			if err != nil {
				return nil, err
			}
			if len(s) == 0 {
				return nil, nil
			}
			clauses[i] = s
		}

		if q.InOrder {
			return orderedSpans(clauses, uint64(q.Slop)), nil
		}
		return unorderedSpans(clauses, uint64(q.Slop)), nil
	default:
		return nil, ErrUnsupportedQuery.New(q)
	}
}

// orderedSpans returns the spans where one span of each clause occurs,
// each one starting after the end of the previous, with at most slop
// positions between them in total.
func orderedSpans(clauses [][]span, slop uint64) []span {
	var result []span
	var match func(i int, prev span, start, gaps uint64)
	match = func(i int, prev span, start, gaps uint64) {
		if i == len(clauses) {
			result = append(result, span{start, prev.end})
			return
		}

		for _, s := range clauses[i] {
			if s.start < prev.end {
				continue
			}
			gap := gaps + s.start - prev.end
			if gap > slop {
				break
			}
			match(i+1, s, start, gap)
		}
	}

	for _, s := range clauses[0] {
		match(1, s, s.start, 0)
	}
	return dedupSpans(result)
}

// unorderedSpans returns the spans covering one span of each clause, in any
// order, whose width exceeds the total length of the covered spans by at
// most slop.
func unorderedSpans(clauses [][]span, slop uint64) []span {
	var result []span
	var match func(i int, cover span, length uint64)
	match = func(i int, cover span, length uint64) {
		if cover.end-cover.start > length+slop+widest(clauses[i:]) {
			return
		}

		if i == len(clauses) {
			result = append(result, cover)
			return
		}

		for _, s := range clauses[i] {
			c := cover
			if s.start < c.start {
				c.start = s.start
			}
			if s.end > c.end {
				c.end = s.end
			}
			match(i+1, c, length+s.end-s.start)
		}
	}

	for _, s := range clauses[0] {
		match(1, s, s.end-s.start)
	}
	return dedupSpans(result)
}

func widest(clauses [][]span) uint64 {
	var total uint64
	for _, c := range clauses {
		var max uint64
		for _, s := range c {
			if s.end-s.start > max {
				max = s.end - s.start
			}
		}
		total += max
	}
	return total
}

func dedupSpans(spans []span) []span {
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})

	result := spans[:1]
	for _, s := range spans[1:] {
		if s != result[len(result)-1] {
			result = append(result, s)
		}
	}
	return result
}
