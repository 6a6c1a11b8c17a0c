package expression

import (
	"strings"

	"github.com/msokolov/lux/xquery"
)

// Sequence is the concatenation of its items.
type Sequence struct {
	Items []xquery.Expression
}

// NewSequence creates a new Sequence expression.
func NewSequence(items ...xquery.Expression) *Sequence {
	return &Sequence{Items: items}
}

// Type implements the Expression interface.
func (s *Sequence) Type() xquery.ValueType {
	if len(s.Items) == 0 {
		return xquery.Value
	}

	t := s.Items[0].Type()
	for _, item := range s.Items[1:] {
		t = xquery.Promote(t, item.Type())
	}
	return t
}

// Children implements the Expression interface.
func (s *Sequence) Children() []xquery.Expression {
	return s.Items
}

// WithChildren implements the Expression interface.
func (s *Sequence) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	if len(children) != len(s.Items) {
		return nil, xquery.ErrInvalidChildrenNumber.New(s, len(children), len(s.Items))
	}
	return NewSequence(children...), nil
}

func (s *Sequence) String() string {
	items := make([]string, len(s.Items))
	for i, item := range s.Items {
		items[i] = item.String()
	}
	return "(" + strings.Join(items, ", ") + ")"
}

// Subsequence selects Length items of Base starting at the 1-based
// position Start. A nil Length selects up to the end.
type Subsequence struct {
	Base   xquery.Expression
	Start  xquery.Expression
	Length xquery.Expression
}

// NewSubsequence creates a new Subsequence expression. length may be nil.
func NewSubsequence(base, start, length xquery.Expression) *Subsequence {
	return &Subsequence{Base: base, Start: start, Length: length}
}

// Type implements the Expression interface.
func (s *Subsequence) Type() xquery.ValueType {
	return s.Base.Type()
}

// Children implements the Expression interface.
func (s *Subsequence) Children() []xquery.Expression {
	if s.Length == nil {
		return []xquery.Expression{s.Base, s.Start}
	}
	return []xquery.Expression{s.Base, s.Start, s.Length}
}

// WithChildren implements the Expression interface.
func (s *Subsequence) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	expected := len(s.Children())
	if len(children) != expected {
		return nil, xquery.ErrInvalidChildrenNumber.New(s, len(children), expected)
	}

	var length xquery.Expression
	if expected == 3 {
		length = children[2]
	}
	return NewSubsequence(children[0], children[1], length), nil
}

func (s *Subsequence) String() string {
	if s.Length == nil {
		return "subsequence(" + s.Base.String() + ", " + s.Start.String() + ")"
	}
	return "subsequence(" + s.Base.String() + ", " + s.Start.String() + ", " +
		s.Length.String() + ")"
}
