package expression

import "github.com/msokolov/lux/xquery"

// Root is the root of the document of the context item. Without a context
// item it stands for every document in the collection.
type Root struct {
	leaf
}

// NewRoot creates a new Root expression.
func NewRoot() *Root {
	return new(Root)
}

// Type implements the Expression interface.
func (*Root) Type() xquery.ValueType {
	return xquery.Document
}

// WithChildren implements the Expression interface.
func (r *Root) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	return withNoChildren(r, children)
}

func (*Root) String() string {
	return "/"
}

// ContextItem is the context item, ".".
type ContextItem struct {
	leaf
}

// NewContextItem creates a new ContextItem expression.
func NewContextItem() *ContextItem {
	return new(ContextItem)
}

// Type implements the Expression interface.
func (*ContextItem) Type() xquery.ValueType {
	return xquery.Value
}

// WithChildren implements the Expression interface.
func (c *ContextItem) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	return withNoChildren(c, children)
}

func (*ContextItem) String() string {
	return "."
}
