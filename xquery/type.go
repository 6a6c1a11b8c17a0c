package xquery

// ValueType is the shape of the values an expression produces. Types form
// a two branch lattice rooted at Value: the node types under Node and the
// atomic types under Atomic.
type ValueType int

const (
	// Value is the top type; any item.
	Value ValueType = iota
	// Node is any node.
	Node
	// Document is a document node.
	Document
	// Element is an element node.
	Element
	// Attribute is an attribute node.
	Attribute
	// Text is a text node.
	Text
	// Atomic is any atomic value.
	Atomic
	// String is a string value.
	String
	// Int is an integer value.
	Int
	// Number is any numeric value.
	Number
	// Boolean is a boolean value.
	Boolean
)

var valueTypeNames = map[ValueType]string{
	Value:     "item()",
	Node:      "node()",
	Document:  "document-node()",
	Element:   "element()",
	Attribute: "attribute()",
	Text:      "text()",
	Atomic:    "xs:anyAtomicType",
	String:    "xs:string",
	Int:       "xs:integer",
	Number:    "xs:double",
	Boolean:   "xs:boolean",
}

// ValueTypes lists every value type.
var ValueTypes = []ValueType{
	Value, Node, Document, Element, Attribute, Text,
	Atomic, String, Int, Number, Boolean,
}

func (t ValueType) String() string {
	if s, ok := valueTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// IsNode reports whether t is Node or one of the node types below it.
func (t ValueType) IsNode() bool {
	switch t {
	case Node, Document, Element, Attribute, Text:
		return true
	}
	return false
}

// IsAtomic reports whether t is Atomic or one of the atomic types below it.
func (t ValueType) IsAtomic() bool {
	switch t {
	case Atomic, String, Int, Number, Boolean:
		return true
	}
	return false
}

// Promote returns the least upper bound of t and other.
func (t ValueType) Promote(other ValueType) ValueType {
	return Promote(t, other)
}

// Promote returns the least upper bound of a and b: the type itself when
// they are equal, Node when both are nodes, Atomic when both are atomic
// and Value otherwise.
func Promote(a, b ValueType) ValueType {
	switch {
	case a == b:
		return a
	case a.IsNode() && b.IsNode():
		return Node
	case a.IsAtomic() && b.IsAtomic():
		return Atomic
	default:
		return Value
	}
}
