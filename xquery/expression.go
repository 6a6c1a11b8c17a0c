package xquery

import "fmt"

// Expression is a node of a query expression tree. Trees are immutable:
// rewrites build new nodes and share the unchanged ones.
type Expression interface {
	fmt.Stringer
	// Type returns the static type of the values produced by the expression.
	Type() ValueType
	// Children returns the children expressions of this expression.
	Children() []Expression
	// WithChildren returns a copy of the expression with children replaced.
	// It will return an error if the number of children is different than
	// the current number of children. They must be given in the same order
	// as they are returned by Children.
	WithChildren(...Expression) (Expression, error)
}

// Terminal is implemented by expressions that end in a path step. The
// terminal step identifies the expression in the field registry.
type Terminal interface {
	Expression
	// TerminalStep returns the last step of the path.
	TerminalStep() Expression
}
