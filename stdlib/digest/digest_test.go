package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

type fakeVM struct{}

func (fakeVM) Call(value.Value, []value.Value) (value.Value, error) { return value.Nil, nil }
func (fakeVM) Intern(s string) *object.String                       { return object.NewString(s, 0) }
func (fakeVM) Track(interface{}) error                              { return nil }

func TestSHA3(t *testing.T) {
	m := object.NewModule("Digest")
	Register(m)
	fn := m.Immutable["sha3"].Obj.(*object.NativeFunction)
	got, err := fn.Fn(fakeVM{}, []value.Value{value.Object(object.NewString("hello", 0))})
	assert.NoError(t, err)
	assert.Len(t, got.String(), 64)

	again, err := fn.Fn(fakeVM{}, []value.Value{value.Object(object.NewString("hello", 0))})
	assert.NoError(t, err)
	assert.Equal(t, got.String(), again.String())

	other, err := fn.Fn(fakeVM{}, []value.Value{value.Object(object.NewString("world", 0))})
	assert.NoError(t, err)
	assert.NotEqual(t, got.String(), other.String())
}

func TestShake256Length(t *testing.T) {
	m := object.NewModule("Digest")
	Register(m)
	fn := m.Immutable["shake256"].Obj.(*object.NativeFunction)
	got, err := fn.Fn(fakeVM{}, []value.Value{value.Object(object.NewString("hello", 0)), value.Int(16)})
	assert.NoError(t, err)
	assert.Len(t, got.String(), 32)
}
