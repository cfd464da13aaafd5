package timelib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// fakeVM backs Intern with a real object.StringTable so that two calls
// interning the same field name ("year", "month", ...) return the same
// *object.String pointer, the invariant Dictionary lookups in this package
// depend on.
type fakeVM struct{ strings *object.StringTable }

func newFakeVM() *fakeVM { return &fakeVM{strings: object.NewStringTable()} }

func (f *fakeVM) Call(value.Value, []value.Value) (value.Value, error) { return value.Nil, nil }
func (f *fakeVM) Intern(s string) *object.String                       { return f.strings.Intern(s) }
func (f *fakeVM) Track(interface{}) error                              { return nil }

func TestFromTimestampRoundTrip(t *testing.T) {
	m := object.NewModule("Time")
	Register(m)
	vm := newFakeVM()

	from := m.Immutable["fromTimestamp"].Obj.(*object.NativeFunction)
	d, err := from.Fn(vm, []value.Value{value.Float(1700000000)})
	assert.NoError(t, err)

	to := m.Immutable["toTimestamp"].Obj.(*object.NativeFunction)
	ts, err := to.Fn(vm, []value.Value{d})
	assert.NoError(t, err)
	assert.Equal(t, float64(1700000000), ts.AsFloat64())
}

func TestFormat(t *testing.T) {
	m := object.NewModule("Time")
	Register(m)
	vm := newFakeVM()

	from := m.Immutable["fromTimestamp"].Obj.(*object.NativeFunction)
	d, err := from.Fn(vm, []value.Value{value.Float(1700000000)})
	assert.NoError(t, err)

	format := m.Immutable["format"].Obj.(*object.NativeFunction)
	got, err := format.Fn(vm, []value.Value{d, value.Object(vm.Intern("YYYY-MM-DD"))})
	assert.NoError(t, err)
	assert.Len(t, got.String(), len("2023-11-14"))
}

func TestToTimestampMissingField(t *testing.T) {
	m := object.NewModule("Time")
	Register(m)
	vm := newFakeVM()

	to := m.Immutable["toTimestamp"].Obj.(*object.NativeFunction)
	empty := object.NewDictionary()
	_, err := to.Fn(vm, []value.Value{value.Object(empty)})
	assert.Error(t, err)
}
