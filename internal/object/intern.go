package object

import "github.com/vela-lang/vela/internal/strtable"

// StringTable is the runtime's single intern table: the compiler uses it
// to intern string literal constants, and the interpreter uses the same
// instance to intern strings produced at runtime (concatenation,
// interpolation, native string operations), so that String equality can
// always be a pointer comparison: two equal strings are always the same
// object.
type StringTable struct {
	table *strtable.Table
	objs  map[string]*String
}

func NewStringTable() *StringTable {
	return &StringTable{table: strtable.New(64), objs: make(map[string]*String)}
}

// Intern returns the canonical *String for s's content, creating and
// caching it the first time this content is seen.
func (t *StringTable) Intern(s string) *String {
	canon := t.table.Intern(s)
	if obj, ok := t.objs[canon]; ok {
		return obj
	}
	obj := NewString(canon, strtable.Hash(canon))
	t.objs[canon] = obj
	return obj
}

// Len reports how many distinct strings are currently interned.
func (t *StringTable) Len() int { return t.table.Len() }

// Forget removes str's content from the table, called by the GC when it
// sweeps an unreachable String: strings are removed from the intern table
// when swept.
func (t *StringTable) Forget(str *String) {
	delete(t.objs, str.Value)
	t.table.Delete(str.Value)
}
