package vm

import (
	"fmt"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/shape"
	"github.com/vela-lang/vela/internal/value"
)

// classVarSlot walks the superclass chain looking for a class variable,
// since DefineClassVar (unlike DefineMethod) only ever writes to the class
// it was declared on — field defaults compiled against a subclass without
// its own override still need to find the ancestor's slot.
func classVarSlot(class *object.Class, name string) (*object.Class, int, bool) {
	for cur := class; cur != nil; cur = cur.Superclass {
		if slot, ok := cur.ClassVarSlot(name); ok {
			return cur, slot, true
		}
	}
	return nil, 0, false
}

// getProperty resolves a GET_PROPERTY-family access. Instances check, in
// order, their own field slots, then their class's (or an ancestor's) class
// variables, then their class's method table wrapped as a BoundMethod;
// builtin heap values (Array, String, ...) skip straight to their builtin
// class's method table, since they carry no field storage of their own.
func (vm *VM) getProperty(receiver value.Value, name string, cache *shape.InlineCacheEntry) (value.Value, error) {
	if !receiver.IsObject() {
		return value.Nil, vm.undefinedPropertyError(receiver, name)
	}

	if inst, ok := receiver.Obj.(*object.Instance); ok {
		if cache.Matches(inst.Shape) && cache.Kind == shape.KindIVar {
			return inst.Slots[cache.Slot], nil
		}
		if slot, ok := inst.Shape.Lookup(name); ok {
			cache.Fill(inst.Shape, shape.KindIVar, slot)
			return inst.Slots[slot], nil
		}
		if inst.Class != nil {
			if owner, slot, ok := classVarSlot(inst.Class, name); ok {
				return owner.ClassVars[slot], nil
			}
			if m, ok := inst.Class.Method(name); ok {
				return value.Object(&object.BoundMethod{Receiver: receiver, Method: m}), nil
			}
		}
		return value.Nil, vm.undefinedPropertyError(receiver, name)
	}

	if cls, ok := receiver.Obj.(*object.Class); ok {
		if owner, slot, ok := classVarSlot(cls, name); ok {
			return owner.ClassVars[slot], nil
		}
		if m, ok := cls.Method(name); ok {
			return value.Object(&object.BoundMethod{Receiver: receiver, Method: m}), nil
		}
		return value.Nil, vm.undefinedPropertyError(receiver, name)
	}

	if class := vm.classOf(receiver); class != nil {
		if m, ok := class.Method(name); ok {
			return value.Object(&object.BoundMethod{Receiver: receiver, Method: m}), nil
		}
	}
	return value.Nil, vm.undefinedPropertyError(receiver, name)
}

// setProperty resolves a SET_PROPERTY-family assignment. Setting on a Class
// itself is how compileClassDecl's per-field default initializers land:
// each declared field becomes a class variable that a fresh Instance falls
// back to until it sets its own field.
func (vm *VM) setProperty(receiver value.Value, name string, v value.Value) error {
	if !receiver.IsObject() {
		return vm.undefinedPropertyError(receiver, name)
	}
	switch obj := receiver.Obj.(type) {
	case *object.Instance:
		obj.SetField(name, v)
		return nil
	case *object.Class:
		obj.DefineClassVar(name, v)
		return nil
	default:
		return vm.typeErrorf("cannot set property %q on a %s", name, receiver.Obj.Type())
	}
}

// getSubscript implements `obj[index]` for every container type the
// language exposes: Array (integer index, bounds-checked), Dictionary
// (arbitrary key, missing key yields nil rather than an error — a
// deliberate distinction from a genuine type/operation failure), String
// (rune-indexed, one-character result), and Range (integer offset from
// From).
func (vm *VM) getSubscript(receiver, index value.Value) (value.Value, error) {
	if !receiver.IsObject() {
		return value.Nil, vm.typeErrorf("%s is not indexable", receiver.Kind)
	}
	switch obj := receiver.Obj.(type) {
	case *object.Array:
		if !index.IsInt() {
			return value.Nil, vm.typeErrorf("array index must be an integer")
		}
		v, ok := obj.Get(int(index.AsInt()))
		if !ok {
			return value.Nil, vm.throwIndexOutOfRange(int(index.AsInt()), obj.Len())
		}
		return v, nil
	case *object.Dictionary:
		v, ok := obj.Get(index)
		if !ok {
			return value.Nil, nil
		}
		return v, nil
	case *object.String:
		if !index.IsInt() {
			return value.Nil, vm.typeErrorf("string index must be an integer")
		}
		runes := []rune(obj.Value)
		i := int(index.AsInt())
		if i < 0 || i >= len(runes) {
			return value.Nil, vm.throwIndexOutOfRange(i, len(runes))
		}
		return value.Object(vm.strings.Intern(string(runes[i]))), nil
	case *object.Range:
		if !index.IsInt() {
			return value.Nil, vm.typeErrorf("range index must be an integer")
		}
		i := index.AsInt()
		length := obj.To - obj.From
		if i < 0 || i >= length {
			return value.Nil, vm.throwIndexOutOfRange(int(i), int(length))
		}
		return value.Int(obj.From + i), nil
	default:
		return value.Nil, vm.typeErrorf("%s is not indexable", receiver.Obj.Type())
	}
}

func (vm *VM) throwIndexOutOfRange(index, length int) error {
	return fmt.Errorf("%w: index %d out of range (length %d)", ErrIndexOutOfRange, index, length)
}

// setSubscript implements `obj[index] = value` for Array and Dictionary;
// Strings and Ranges are immutable so any subscript assignment against them
// is a type error.
func (vm *VM) setSubscript(receiver, index, v value.Value) error {
	if !receiver.IsObject() {
		return vm.typeErrorf("%s is not indexable", receiver.Kind)
	}
	switch obj := receiver.Obj.(type) {
	case *object.Array:
		if !index.IsInt() {
			return vm.typeErrorf("array index must be an integer")
		}
		if !obj.Set(int(index.AsInt()), v) {
			return vm.throwIndexOutOfRange(int(index.AsInt()), obj.Len())
		}
		return nil
	case *object.Dictionary:
		obj.Set(index, v)
		return nil
	default:
		return vm.typeErrorf("%s does not support subscript assignment", receiver.Obj.Type())
	}
}
