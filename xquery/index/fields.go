package index

import (
	"strings"

	"github.com/msokolov/lux/xquery/index/query"
)

const (
	// PathField holds the path phrases of elements and attributes.
	PathField = "lux_path"
	// ElementNameField holds the names of elements.
	ElementNameField = "lux_elt_name"
	// AttributeNameField holds the names of attributes.
	AttributeNameField = "lux_att_name"

	// RootToken starts every path phrase.
	RootToken = "{}"
	// AttributePrefix marks attribute names in path phrases.
	AttributePrefix = "@"
)

// IsReservedField reports whether name is one of the fields the index
// maintains itself.
func IsReservedField(name string) bool {
	return strings.HasPrefix(name, "lux_")
}

// RootTerm returns the term matching the start of every path phrase.
func RootTerm() *query.Term {
	return &query.Term{Field: PathField, Text: RootToken}
}

// ElementPathTerm returns the path phrase term of an element name.
func ElementPathTerm(name string) (*query.Term, error) {
	return query.NewTerm(PathField, name)
}

// AttributePathTerm returns the path phrase term of an attribute name.
func AttributePathTerm(name string) (*query.Term, error) {
	if name == "" {
		return nil, query.ErrInvalidTerm.New(PathField, name)
	}
	return query.NewTerm(PathField, AttributePrefix+name)
}

// ElementNameTerm returns the term of an element name.
func ElementNameTerm(name string) (*query.Term, error) {
	return query.NewTerm(ElementNameField, name)
}

// AttributeNameTerm returns the term of an attribute name.
func AttributeNameTerm(name string) (*query.Term, error) {
	return query.NewTerm(AttributeNameField, name)
}

// FieldTerm returns the term of a value of a configured field.
func FieldTerm(field, value string) (*query.Term, error) {
	return query.NewTerm(field, value)
}
