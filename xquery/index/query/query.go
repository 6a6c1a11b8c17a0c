// Package query defines the queries understood by the inverted index: term
// lookups, boolean combinations, the match-all query and proximity queries
// over positional terms. Every query has a stable text form that Parse
// reads back.
package query

import (
	"strconv"
	"strings"
	"unicode"

	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrInvalidTerm is returned when a term has an empty field or text.
	ErrInvalidTerm = errors.NewKind("invalid term %q:%q")

	// ErrInvalidSlop is returned when a proximity query has a negative slop.
	ErrInvalidSlop = errors.NewKind("invalid slop %d")

	// ErrInvalidNear is returned when a proximity query is built from
	// queries that have no positions.
	ErrInvalidNear = errors.NewKind("proximity query needs at least two positional queries, got %s")
)

// Query is a query of the inverted index.
type Query interface {
	String() string
	isQuery()
}

// MatchAll matches every document.
type MatchAll struct{}

// NewMatchAll returns the match-all query.
func NewMatchAll() MatchAll { return MatchAll{} }

func (MatchAll) isQuery() {}

func (MatchAll) String() string { return "*:*" }

// Term matches the documents with the term Text in the field Field.
type Term struct {
	Field string
	Text  string
}

// NewTerm creates a new term query.
func NewTerm(field, text string) (*Term, error) {
	if field == "" || text == "" || !isField(field) {
		return nil, ErrInvalidTerm.New(field, text)
	}
	return &Term{Field: field, Text: text}, nil
}

func (*Term) isQuery() {}

func (t *Term) String() string {
	return t.Field + ":" + quoteText(t.Text)
}

// Occur tells how a clause takes part in a boolean query.
type Occur int

const (
	// Must clauses are required to match.
	Must Occur = iota
	// Should clauses match the documents of the query when it has no Must
	// clause.
	Should
	// MustNot clauses exclude documents.
	MustNot
)

func (o Occur) String() string {
	switch o {
	case Must:
		return "MUST"
	case Should:
		return "SHOULD"
	case MustNot:
		return "MUST_NOT"
	default:
		return "unknown"
	}
}

func (o Occur) prefix() string {
	switch o {
	case Must:
		return "+"
	case MustNot:
		return "-"
	default:
		return ""
	}
}

// Clause is a query with its occurrence in a boolean query.
type Clause struct {
	Occur Occur
	Query Query
}

// Boolean combines its clauses: it matches the documents matched by every
// Must clause, or by some Should clause when there is no Must clause,
// minus the ones matched by any MustNot clause.
type Boolean struct {
	Clauses []Clause
}

// NewBoolean creates a new boolean query.
func NewBoolean(clauses ...Clause) *Boolean {
	return &Boolean{Clauses: clauses}
}

func (*Boolean) isQuery() {}

func (b *Boolean) String() string {
	parts := make([]string, len(b.Clauses))
	for i, c := range b.Clauses {
		parts[i] = c.Occur.prefix() + c.Query.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Near matches the documents where its clauses occur within Slop
// positions of each other, in the given order when InOrder is set.
type Near struct {
	Clauses []Query
	Slop    int
	InOrder bool
}

// NewNear creates a new proximity query. Every clause must be a term or
// another proximity query.
func NewNear(slop int, inOrder bool, clauses ...Query) (*Near, error) {
	if slop < 0 {
		return nil, ErrInvalidSlop.New(slop)
	}

	if len(clauses) < 2 {
		return nil, ErrInvalidNear.New(clausesString(clauses))
	}

	for _, c := range clauses {
		if !IsSpan(c) {
			return nil, ErrInvalidNear.New(clausesString(clauses))
		}
	}

	return &Near{Clauses: clauses, Slop: slop, InOrder: inOrder}, nil
}

func (*Near) isQuery() {}

func (n *Near) String() string {
	op := "~"
	if n.InOrder {
		op = "/"
	}
	return "near" + op + strconv.Itoa(n.Slop) + clausesString(n.Clauses)
}

// IsSpan reports whether q matches positions, and so can be a clause of a
// proximity query.
func IsSpan(q Query) bool {
	switch q.(type) {
	case *Term, *Near:
		return true
	default:
		return false
	}
}

// IsMatchAll reports whether q is the match-all query.
func IsMatchAll(q Query) bool {
	_, ok := q.(MatchAll)
	return ok
}

func clausesString(clauses []Query) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func isField(s string) bool {
	for _, r := range s {
		if !isFieldRune(r) {
			return false
		}
	}
	return true
}

func isFieldRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isBareRune(r rune) bool {
	return isFieldRune(r) || r == '-' || r == '.'
}

func quoteText(s string) string {
	for _, r := range s {
		if !isBareRune(r) {
			return strconv.Quote(s)
		}
	}
	return s
}
