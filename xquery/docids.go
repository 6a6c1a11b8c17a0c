package xquery

import (
	"math"
	"sync/atomic"
)

// MaxIndexDocID is the greatest identifier the index can assign to a
// document. Identifiers above it belong to documents built outside the
// index, so they never collide with index documents and sort after them.
const MaxIndexDocID int64 = math.MaxInt32

// DocIDs issues document identifiers. It is safe for concurrent use; the
// identifiers of index documents are supplied by each caller through its
// own DocIDScope.
type DocIDs struct {
	last int64
}

// NewDocIDs returns an allocator whose fallback identifiers start right
// after MaxIndexDocID.
func NewDocIDs() *DocIDs {
	return &DocIDs{last: MaxIndexDocID}
}

// Scope returns a new per-caller scope. A scope must not be shared between
// goroutines.
func (d *DocIDs) Scope() *DocIDScope {
	return &DocIDScope{ids: d}
}

func (d *DocIDs) next() int64 {
	return atomic.AddInt64(&d.last, 1)
}

// DocIDScope is the per-caller view of a DocIDs allocator.
//
// Callers materializing index documents must set overrides in the same
// order the index iterates its documents. This is not checked: a caller
// violating it breaks every optimization relying on document order.
type DocIDScope struct {
	ids      *DocIDs
	override int64
	set      bool
}

// SetOverride makes the next call to Next return id.
func (s *DocIDScope) SetOverride(id int64) {
	s.override = id
	s.set = true
}

// Next returns the pending override, clearing it, or a fresh identifier
// from the shared counter when there is none.
func (s *DocIDScope) Next() int64 {
	if s.set {
		s.set = false
		return s.override
	}
	return s.ids.next()
}
