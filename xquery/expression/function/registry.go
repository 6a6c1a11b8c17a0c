package function

import (
	"strings"

	"github.com/msokolov/lux/xquery"
)

const (
	// FnPrefix is the prefix bound to the standard function namespace.
	FnPrefix = "fn"
	// FnNamespace is the standard function namespace.
	FnNamespace = "http://www.w3.org/2005/xpath-functions"
	// LuxPrefix is the prefix bound to the namespace of the search functions.
	LuxPrefix = "lux"
	// LuxNamespace is the namespace of the search functions.
	LuxNamespace = "http://luxdb.net"
)

// Names of the functions the optimizer rewrites or introduces.
const (
	Count          = "fn:count"
	Exists         = "fn:exists"
	Empty          = "fn:empty"
	Not            = "fn:not"
	Collection     = "fn:collection"
	Last           = "fn:last"
	Position       = "fn:position"
	Search         = "lux:search"
	DistinctValues = "fn:distinct-values"
)

// Parity tells how the index queries of the arguments of a function relate
// to the index query of the call.
type Parity int

const (
	// Unknown parity: the arguments say nothing about the documents the
	// call depends on.
	Unknown Parity = iota
	// Must parity: the call produces no result unless every argument does.
	Must
	// Should parity: the call produces no result unless some argument does.
	Should
)

// Builtin describes a built-in function.
type Builtin struct {
	// Name is the qualified name of the function.
	Name string
	// MinArgs and MaxArgs bound the arity of the function.
	MinArgs, MaxArgs int
	// ReturnType is the static type of the result.
	ReturnType xquery.ValueType
	// Parity of the arguments.
	Parity Parity
}

// Defaults is the table of built-in functions, keyed by qualified name.
var Defaults = map[string]Builtin{
	Count:              {Count, 1, 1, xquery.Int, Unknown},
	Exists:             {Exists, 1, 1, xquery.Boolean, Must},
	Empty:              {Empty, 1, 1, xquery.Boolean, Unknown},
	Not:                {Not, 1, 1, xquery.Boolean, Unknown},
	"fn:boolean":       {"fn:boolean", 1, 1, xquery.Boolean, Must},
	"fn:true":          {"fn:true", 0, 0, xquery.Boolean, Unknown},
	"fn:false":         {"fn:false", 0, 0, xquery.Boolean, Unknown},
	Collection:         {Collection, 0, 1, xquery.Document, Unknown},
	Last:               {Last, 0, 0, xquery.Int, Unknown},
	Position:           {Position, 0, 0, xquery.Int, Unknown},
	"fn:string":        {"fn:string", 0, 1, xquery.String, Unknown},
	"fn:data":          {"fn:data", 1, 1, xquery.Atomic, Must},
	"fn:root":          {"fn:root", 0, 1, xquery.Document, Must},
	"fn:reverse":       {"fn:reverse", 1, 1, xquery.Value, Must},
	DistinctValues:     {DistinctValues, 1, 1, xquery.Atomic, Must},
	"fn:insert-before": {"fn:insert-before", 3, 3, xquery.Value, Should},
	Search:             {Search, 1, 2, xquery.Value, Unknown},
}

// Lookup returns the built-in function with the given name. Unprefixed
// names are looked up in the standard namespace.
func Lookup(name string) (Builtin, bool) {
	b, ok := Defaults[Qualify(name)]
	return b, ok
}

// Qualify prefixes unprefixed function names with the standard prefix.
func Qualify(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return FnPrefix + ":" + name
}

// Prefix returns the namespace prefix of a qualified name.
func Prefix(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[:i]
	}
	return ""
}

// IsStandard reports whether the function lives in the standard namespace.
func IsStandard(name string) bool {
	return Prefix(Qualify(name)) == FnPrefix
}
