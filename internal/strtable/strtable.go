// Package strtable implements string interning: every distinct string
// content is stored exactly once, so two Values holding "equal" strings
// always share the same heap object and can be compared by pointer.
//
// The table is a simple open-addressing hash set keyed by xxhash of the
// string's bytes, grown by doubling like a conventional Go map but kept as
// a bespoke structure so the VM can intern during GC-sensitive code paths
// without going through interface-boxed map keys.
package strtable

import (
	"github.com/cespare/xxhash/v2"
)

// Entry is a single interned string slot.
type Entry struct {
	Hash  uint64
	Value string
	used  bool
	tomb  bool
}

// Table is an open-addressed string interner.
type Table struct {
	entries []Entry
	count   int
}

// New creates a Table with room for at least capacity strings before its
// first grow.
func New(capacity int) *Table {
	if capacity < 8 {
		capacity = 8
	}
	return &Table{entries: make([]Entry, nextPow2(capacity*2))}
}

func nextPow2(n int) int {
	p := 8
	for p < n {
		p *= 2
	}
	return p
}

// Hash computes the interning hash for s.
func Hash(s string) uint64 { return xxhash.Sum64String(s) }

// Intern returns the canonical string equal to s, inserting it if this is
// the first time s's content has been seen.
func (t *Table) Intern(s string) string {
	if t.count*4 >= len(t.entries)*3 {
		t.grow()
	}
	h := Hash(s)
	idx := t.find(h, s)
	if t.entries[idx].used {
		return t.entries[idx].Value
	}
	t.entries[idx] = Entry{Hash: h, Value: s, used: true}
	t.count++
	return s
}

// Lookup reports whether s is already interned, without inserting it.
func (t *Table) Lookup(s string) (string, bool) {
	if len(t.entries) == 0 {
		return "", false
	}
	h := Hash(s)
	idx := t.find(h, s)
	if t.entries[idx].used {
		return t.entries[idx].Value, true
	}
	return "", false
}

func (t *Table) find(hash uint64, s string) int {
	mask := uint64(len(t.entries) - 1)
	idx := hash & mask
	firstTomb := -1
	for {
		e := &t.entries[idx]
		if !e.used && !e.tomb {
			if firstTomb >= 0 {
				return firstTomb
			}
			return int(idx)
		}
		if e.tomb {
			if firstTomb < 0 {
				firstTomb = int(idx)
			}
		} else if e.Hash == hash && e.Value == s {
			return int(idx)
		}
		idx = (idx + 1) & mask
	}
}

// Delete removes s from the table if present, leaving a tombstone so
// other entries' probe chains through this slot stay intact. Reports
// whether s was found.
func (t *Table) Delete(s string) bool {
	if len(t.entries) == 0 {
		return false
	}
	idx := t.find(Hash(s), s)
	if !t.entries[idx].used {
		return false
	}
	t.entries[idx] = Entry{tomb: true}
	t.count--
	return true
}

func (t *Table) grow() {
	old := t.entries
	t.entries = make([]Entry, len(old)*2)
	t.count = 0
	for _, e := range old {
		if !e.used {
			continue
		}
		idx := t.find(e.Hash, e.Value)
		t.entries[idx] = e
		t.count++
	}
}

// Len reports the number of distinct strings currently interned.
func (t *Table) Len() int { return t.count }
