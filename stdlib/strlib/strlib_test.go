package strlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// fakeVM is the minimal object.VM a registered native function body needs
// to exercise in isolation, without standing up a full interpreter: Intern
// hands back an uninterned but otherwise identical *object.String (fine for
// a single-function unit test, since no two calls here are ever compared
// by pointer), Track and Call are unused by strlib.
type fakeVM struct{}

func (fakeVM) Call(value.Value, []value.Value) (value.Value, error) { return value.Nil, nil }
func (fakeVM) Intern(s string) *object.String                       { return object.NewString(s, 0) }
func (fakeVM) Track(interface{}) error                              { return nil }

func lookup(t *testing.T, m *object.Module, name string) *object.NativeFunction {
	t.Helper()
	v, ok := m.Immutable[name]
	if !ok {
		t.Fatalf("strlib: %s not registered", name)
	}
	fn, ok := v.Obj.(*object.NativeFunction)
	if !ok {
		t.Fatalf("strlib: %s is not a NativeFunction", name)
	}
	return fn
}

func call(t *testing.T, m *object.Module, name string, args ...value.Value) value.Value {
	t.Helper()
	result, err := lookup(t, m, name).Fn(fakeVM{}, args)
	assert.NoError(t, err)
	return result
}

func str(s string) value.Value { return value.Object(object.NewString(s, 0)) }

func TestReplace(t *testing.T) {
	m := object.NewModule("String")
	Register(m)
	got := call(t, m, "replace", str("banana"), str("a"), str("o"))
	assert.Equal(t, "bonono", got.String())
}

func TestRepeat(t *testing.T) {
	m := object.NewModule("String")
	Register(m)
	got := call(t, m, "repeat", str("ab"), value.Int(3))
	assert.Equal(t, "ababab", got.String())

	_, err := lookup(t, m, "repeat").Fn(fakeVM{}, []value.Value{str("x"), value.Int(-1)})
	assert.Error(t, err)
}

func TestStartsEndsWith(t *testing.T) {
	m := object.NewModule("String")
	Register(m)
	assert.True(t, call(t, m, "startsWith", str("hello"), str("he")).AsBool())
	assert.False(t, call(t, m, "startsWith", str("hello"), str("lo")).AsBool())
	assert.True(t, call(t, m, "endsWith", str("hello"), str("lo")).AsBool())
}

func TestSlice(t *testing.T) {
	m := object.NewModule("String")
	Register(m)
	got := call(t, m, "slice", str("hello world"), value.Int(6), value.Int(11))
	assert.Equal(t, "world", got.String())

	_, err := lookup(t, m, "slice").Fn(fakeVM{}, []value.Value{str("hi"), value.Int(0), value.Int(5)})
	assert.Error(t, err)
}

func TestPadStartEnd(t *testing.T) {
	m := object.NewModule("String")
	Register(m)
	assert.Equal(t, "005", call(t, m, "padStart", str("5"), value.Int(3), str("0")).String())
	assert.Equal(t, "5--", call(t, m, "padEnd", str("5"), value.Int(3), str("-")).String())
	assert.Equal(t, "hello", call(t, m, "padEnd", str("hello"), value.Int(2), str("-")).String())
}

func TestFormat(t *testing.T) {
	m := object.NewModule("String")
	Register(m)
	got := call(t, m, "format", str("%v scored %v points"), str("Ada"), value.Int(42))
	assert.Equal(t, "Ada scored 42 points", got.String())
}
