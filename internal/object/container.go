package object

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/vela-lang/vela/internal/value"
)

// Array is an ordered, zero-indexed sequence of Values. Append is amortized
// O(1) courtesy of Go's slice growth, with no bespoke capacity-doubling
// logic of our own needed.
type Array struct {
	Header
	Elements []value.Value
}

func NewArray(elems ...value.Value) *Array {
	return &Array{Elements: elems}
}

func (a *Array) Type() string { return "Array" }

func (a *Array) Len() int { return len(a.Elements) }

func (a *Array) Get(i int) (value.Value, bool) {
	if i < 0 || i >= len(a.Elements) {
		return value.Nil, false
	}
	return a.Elements[i], true
}

func (a *Array) Set(i int, v value.Value) bool {
	if i < 0 || i >= len(a.Elements) {
		return false
	}
	a.Elements[i] = v
	return true
}

func (a *Array) Append(v value.Value) {
	a.Elements = append(a.Elements, v)
}

// Entry is a key/value pair, the object form a Dictionary hands to user
// code when iterated (e.g. `for (e : dict)`).
type Entry struct {
	Header
	Key   value.Value
	Value value.Value
}

func NewEntry(k, v value.Value) *Entry { return &Entry{Key: k, Value: v} }

func (e *Entry) Type() string { return "Entry" }

type slotState uint8

const (
	slotEmpty slotState = iota
	slotUsed
	slotTombstone
)

type dictSlot struct {
	hash  uint64
	key   value.Value
	val   value.Value
	state slotState
}

// Dictionary is a hash map from non-nil Values to Values, implemented as an
// open-addressed table with tombstones for deletion (rather than delegating
// to Go's builtin map, whose keys cannot be an arbitrary tagged Value
// without boxing them anyway).
type Dictionary struct {
	Header
	slots      []dictSlot
	count      int
	tombstones int
}

func NewDictionary() *Dictionary {
	return &Dictionary{slots: make([]dictSlot, 8)}
}

func (d *Dictionary) Type() string { return "Dictionary" }

func (d *Dictionary) Len() int { return d.count }

// hashValue computes a stable hash for a Value usable as a Dictionary key.
// Strings reuse their precomputed intern-table hash; other heap objects
// hash by their pointer identity (interface equality for non-strings is
// identity-based per Value's Equal rule, so this is consistent).
func hashValue(v value.Value) uint64 {
	switch {
	case v.IsNil():
		return 0
	case v.IsBool():
		if v.AsBool() {
			return 1
		}
		return 2
	case v.IsInt():
		return xxhash.Sum64String(fmt.Sprintf("i%d", v.AsInt()))
	case v.IsFloat():
		return xxhash.Sum64String(fmt.Sprintf("f%g", v.AsFloat()))
	case v.IsObject():
		if s, ok := v.Obj.(*String); ok {
			return s.Hash
		}
		return xxhash.Sum64String(fmt.Sprintf("p%p", v.Obj))
	default:
		return 0
	}
}

func (d *Dictionary) find(key value.Value, h uint64) (int, bool) {
	mask := uint64(len(d.slots) - 1)
	idx := h & mask
	firstTombstone := -1
	for {
		s := &d.slots[idx]
		switch s.state {
		case slotEmpty:
			if firstTombstone >= 0 {
				return firstTombstone, false
			}
			return int(idx), false
		case slotTombstone:
			if firstTombstone < 0 {
				firstTombstone = int(idx)
			}
		case slotUsed:
			if s.hash == h && s.key.Equal(key) {
				return int(idx), true
			}
		}
		idx = (idx + 1) & mask
	}
}

func (d *Dictionary) Get(key value.Value) (value.Value, bool) {
	if len(d.slots) == 0 {
		return value.Nil, false
	}
	idx, found := d.find(key, hashValue(key))
	if !found {
		return value.Nil, false
	}
	return d.slots[idx].val, true
}

func (d *Dictionary) Set(key, val value.Value) {
	if (d.count+d.tombstones+1)*4 >= len(d.slots)*3 {
		d.grow()
	}
	h := hashValue(key)
	idx, found := d.find(key, h)
	if found {
		d.slots[idx].val = val
		return
	}
	if d.slots[idx].state == slotTombstone {
		d.tombstones--
	}
	d.slots[idx] = dictSlot{hash: h, key: key, val: val, state: slotUsed}
	d.count++
}

// Delete removes key if present, leaving a tombstone so open-addressing
// probe chains through this slot remain intact for other keys.
func (d *Dictionary) Delete(key value.Value) bool {
	if len(d.slots) == 0 {
		return false
	}
	idx, found := d.find(key, hashValue(key))
	if !found {
		return false
	}
	d.slots[idx] = dictSlot{state: slotTombstone}
	d.count--
	d.tombstones++
	return true
}

func (d *Dictionary) grow() {
	old := d.slots
	newLen := len(old) * 2
	if newLen == 0 {
		newLen = 8
	}
	d.slots = make([]dictSlot, newLen)
	d.count = 0
	d.tombstones = 0
	for _, s := range old {
		if s.state != slotUsed {
			continue
		}
		idx, _ := d.find(s.key, s.hash)
		d.slots[idx] = s
		d.count++
	}
}

// Entries returns every live key/value pair as Entry objects, in
// undefined (bucket) order, matching open addressing's lack of insertion
// ordering.
func (d *Dictionary) Entries() []*Entry {
	out := make([]*Entry, 0, d.count)
	for _, s := range d.slots {
		if s.state == slotUsed {
			out = append(out, NewEntry(s.key, s.val))
		}
	}
	return out
}
