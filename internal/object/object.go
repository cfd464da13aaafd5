// Package object implements the Language's heap object model: every
// GC-managed value that is not a bare nil/bool/int/float lives here as a
// concrete Go type satisfying value.Obj. Shared object-header state (owning
// class, GC mark bit, generation, a lazily assigned stable id) is embedded
// via Header; shape-indexed field storage for plain instances builds on
// internal/shape, and strings are interned through internal/strtable.
package object

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/vela-lang/vela/internal/value"
)

// Header is embedded in every heap object. The GC reads Marked/Generation
// directly during a collection; Class is consulted by property/method
// lookup and by `is`/`instanceOf` checks.
type Header struct {
	Class      *Class
	Marked     bool
	Generation uint8

	id int64 // 0 until StableID is first requested
}

// StableID lazily assigns and returns this object's stable identity, used
// by native code that needs an identity hash independent of pointer value
// surviving a moving collector (this collector does not move objects, but
// the id is still assigned lazily to avoid paying for it on objects that
// never need one).
func (h *Header) StableID() int64 {
	if h.id == 0 {
		h.id = newStableID()
	}
	return h.id
}

func newStableID() int64 {
	u := uuid.New()
	v := int64(binary.BigEndian.Uint64(u[:8]))
	if v < 0 {
		v = -v
	}
	if v == 0 {
		v = 1
	}
	return v
}

// String is an immutable, interned byte sequence. Two String objects with
// equal content are always the same Go pointer (see internal/strtable),
// so equality and hash-map lookup by String key can use pointer identity.
type String struct {
	Header
	Value string
	Hash  uint64
}

func (s *String) Type() string   { return "String" }
func (s *String) String() string { return s.Value }

// Range is a pair of integer bounds, `from` inclusive and `to` exclusive
// per the Language's `..` range literal.
type Range struct {
	Header
	From int64
	To   int64
}

func (r *Range) Type() string { return "Range" }

// Node is a doubly-linked list node, exposed to user code by the
// collections standard library rather than by the core language surface.
type Node struct {
	Header
	Elem value.Value
	Prev *Node
	Next *Node
}

func (n *Node) Type() string { return "Node" }
