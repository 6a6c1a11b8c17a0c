package xquery

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrInvalidType is returned when a value has an unexpected type at some
	// point of the evaluation.
	ErrInvalidType = errors.NewKind("invalid type: %s")

	// ErrInvalidChildrenNumber is returned when the WithChildren method of an
	// expression is called with an invalid number of arguments.
	ErrInvalidChildrenNumber = errors.NewKind("%T: invalid children number, got %d, expected %d")

	// ErrUnknownField is returned when a field is not in the registry.
	ErrUnknownField = errors.NewKind("unknown index field %q")

	// ErrFieldAlreadyExists is returned when a field name is registered twice.
	ErrFieldAlreadyExists = errors.NewKind("index field %q is already registered")
)
