package xquery

import "strings"

// Facts is a bit set of properties proven about an indexed sub-expression.
// It travels with rewritten search calls so the engine can short-circuit
// their evaluation.
type Facts int64

const (
	// Counting marks a search whose result is the number of matching
	// documents.
	Counting Facts = 1 << iota
	// Minimal marks a query that selects no document that would not
	// contribute to the result.
	Minimal
	// BooleanTrue marks a search whose result is true when any document
	// matches.
	BooleanTrue
	// BooleanFalse marks a search whose result is true when no document
	// matches.
	BooleanFalse
	// DocumentResults marks a search whose results are the matching
	// documents themselves.
	DocumentResults
)

var factNames = []struct {
	fact Facts
	name string
}{
	{Counting, "counting"},
	{Minimal, "minimal"},
	{BooleanTrue, "boolean-true"},
	{BooleanFalse, "boolean-false"},
	{DocumentResults, "document-results"},
}

// Has reports whether every fact in other is set.
func (f Facts) Has(other Facts) bool {
	return f&other == other
}

func (f Facts) String() string {
	var names []string
	for _, n := range factNames {
		if f.Has(n.fact) {
			names = append(names, n.name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}
