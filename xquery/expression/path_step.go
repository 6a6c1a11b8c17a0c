package expression

import (
	"fmt"

	"github.com/msokolov/lux/xquery"
)

// Axis is the direction of a path step.
type Axis int

const (
	// Self axis.
	Self Axis = iota
	// Child axis.
	Child
	// Descendant axis.
	Descendant
	// DescendantOrSelf axis.
	DescendantOrSelf
	// Attribute axis.
	Attribute
	// Parent axis.
	Parent
	// Ancestor axis.
	Ancestor
	// AncestorOrSelf axis.
	AncestorOrSelf
	// FollowingSibling axis.
	FollowingSibling
	// PrecedingSibling axis.
	PrecedingSibling
	// Following axis.
	Following
	// Preceding axis.
	Preceding
)

var axisNames = map[Axis]string{
	Self:             "self",
	Child:            "child",
	Descendant:       "descendant",
	DescendantOrSelf: "descendant-or-self",
	Attribute:        "attribute",
	Parent:           "parent",
	Ancestor:         "ancestor",
	AncestorOrSelf:   "ancestor-or-self",
	FollowingSibling: "following-sibling",
	PrecedingSibling: "preceding-sibling",
	Following:        "following",
	Preceding:        "preceding",
}

func (a Axis) String() string {
	return axisNames[a]
}

// IsReverse reports whether the axis walks backwards in document order.
func (a Axis) IsReverse() bool {
	switch a {
	case Parent, Ancestor, AncestorOrSelf, PrecedingSibling, Preceding:
		return true
	}
	return false
}

// PathStep is a single step of a path: an axis and a node test. The node
// test matches nodes of the given kind and, when Name is not empty, with
// that name.
type PathStep struct {
	leaf
	Axis Axis
	Kind xquery.ValueType
	Name string
}

// NewPathStep creates a step selecting the nodes named name along axis.
// The node kind is the principal kind of the axis.
func NewPathStep(axis Axis, name string) *PathStep {
	kind := xquery.Element
	if axis == Attribute {
		kind = xquery.Attribute
	}
	return &PathStep{Axis: axis, Kind: kind, Name: name}
}

// NewKindStep creates a step selecting every node of the given kind along
// axis.
func NewKindStep(axis Axis, kind xquery.ValueType) *PathStep {
	return &PathStep{Axis: axis, Kind: kind}
}

// IsWildcard reports whether the step has no name test.
func (p *PathStep) IsWildcard() bool {
	return p.Name == ""
}

// Type implements the Expression interface.
func (p *PathStep) Type() xquery.ValueType {
	return p.Kind
}

// TerminalStep implements the xquery.Terminal interface.
func (p *PathStep) TerminalStep() xquery.Expression {
	return p
}

// WithChildren implements the Expression interface.
func (p *PathStep) WithChildren(children ...xquery.Expression) (xquery.Expression, error) {
	return withNoChildren(p, children)
}

func (p *PathStep) String() string {
	return fmt.Sprintf("%s::%s", p.Axis, p.nodeTest())
}

func (p *PathStep) nodeTest() string {
	switch p.Kind {
	case xquery.Element:
		if p.Name == "" {
			return "*"
		}
		if p.Axis == Attribute {
			return "element(" + p.Name + ")"
		}
		return p.Name
	case xquery.Attribute:
		if p.Name == "" {
			if p.Axis == Attribute {
				return "*"
			}
			return "attribute()"
		}
		if p.Axis == Attribute {
			return p.Name
		}
		return "attribute(" + p.Name + ")"
	case xquery.Text:
		return "text()"
	case xquery.Document:
		return "document-node()"
	default:
		return "node()"
	}
}
