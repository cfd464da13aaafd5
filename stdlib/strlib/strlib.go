// Package strlib is the native-function catalog for the String namespace:
// the free-function string operations that sit alongside String's own
// instance methods (length/upper/lower/trim/split/... registered directly
// on the builtin String class in internal/vm) rather than duplicating them
// here. Grounded on the String natives a native-C scripting VM would
// expose from src/vm/string.h, the way stdlib/mathlib is grounded on
// std/util.c, reimplemented against Go's strings/fmt packages since that
// source's libc string routines are exactly the kind of embedded
// collaborator the core only specifies a registration contract for.
package strlib

import (
	"fmt"
	"strings"

	"github.com/vela-lang/vela/internal/native"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// Register installs every String.* free function into module, the binding
// table a `require "String"` resolves to (see internal/modloader).
func Register(m native.Registrar) {
	native.Function(m, "replace", 3, func(ivm object.VM, args []value.Value) (value.Value, error) {
		s, err := native.CheckString("String.replace", args, 0)
		if err != nil {
			return value.Nil, err
		}
		old, err := native.CheckString("String.replace", args, 1)
		if err != nil {
			return value.Nil, err
		}
		repl, err := native.CheckString("String.replace", args, 2)
		if err != nil {
			return value.Nil, err
		}
		return value.Object(ivm.Intern(strings.ReplaceAll(s, old, repl))), nil
	})

	native.Function(m, "repeat", 2, func(ivm object.VM, args []value.Value) (value.Value, error) {
		s, err := native.CheckString("String.repeat", args, 0)
		if err != nil {
			return value.Nil, err
		}
		n, err := native.CheckInt("String.repeat", args, 1)
		if err != nil {
			return value.Nil, err
		}
		if n < 0 {
			return value.Nil, fmt.Errorf("method String.repeat expects argument 2 to be non-negative")
		}
		return value.Object(ivm.Intern(strings.Repeat(s, int(n)))), nil
	})

	native.Function(m, "startsWith", 2, func(ivm object.VM, args []value.Value) (value.Value, error) {
		s, err := native.CheckString("String.startsWith", args, 0)
		if err != nil {
			return value.Nil, err
		}
		prefix, err := native.CheckString("String.startsWith", args, 1)
		if err != nil {
			return value.Nil, err
		}
		return value.Bool(strings.HasPrefix(s, prefix)), nil
	})

	native.Function(m, "endsWith", 2, func(ivm object.VM, args []value.Value) (value.Value, error) {
		s, err := native.CheckString("String.endsWith", args, 0)
		if err != nil {
			return value.Nil, err
		}
		suffix, err := native.CheckString("String.endsWith", args, 1)
		if err != nil {
			return value.Nil, err
		}
		return value.Bool(strings.HasSuffix(s, suffix)), nil
	})

	native.Function(m, "slice", 3, func(ivm object.VM, args []value.Value) (value.Value, error) {
		s, err := native.CheckString("String.slice", args, 0)
		if err != nil {
			return value.Nil, err
		}
		runes := []rune(s)
		from, err := native.CheckInt("String.slice", args, 1)
		if err != nil {
			return value.Nil, err
		}
		to, err := native.CheckInt("String.slice", args, 2)
		if err != nil {
			return value.Nil, err
		}
		if err := native.CheckIndexRange("String.slice", int(from), 0, len(runes), 1); err != nil {
			return value.Nil, err
		}
		if err := native.CheckIndexRange("String.slice", int(to), int(from), len(runes), 2); err != nil {
			return value.Nil, err
		}
		return value.Object(ivm.Intern(string(runes[from:to]))), nil
	})

	native.Function(m, "padStart", 3, func(ivm object.VM, args []value.Value) (value.Value, error) {
		return pad(ivm, args, true)
	})
	native.Function(m, "padEnd", 3, func(ivm object.VM, args []value.Value) (value.Value, error) {
		return pad(ivm, args, false)
	})

	// format has no fixed arity: a template plus however many substitution
	// arguments it needs, so Arity only enforces the template argument
	// being present (see NativeFunction's "at least" arity check).
	m.DefineVal("format", value.Object(&object.NativeFunction{
		Name: "format", Arity: 1,
		Fn: func(ivm object.VM, args []value.Value) (value.Value, error) {
			tmpl, err := native.CheckString("String.format", args, 0)
			if err != nil {
				return value.Nil, err
			}
			parts := strings.Split(tmpl, "%v")
			var b strings.Builder
			for i, part := range parts {
				b.WriteString(part)
				if i+1 < len(args) && i < len(parts)-1 {
					b.WriteString(args[i+1].String())
				}
			}
			return value.Object(ivm.Intern(b.String())), nil
		},
	}))
}

func pad(ivm object.VM, args []value.Value, start bool) (value.Value, error) {
	name := "String.padEnd"
	if start {
		name = "String.padStart"
	}
	s, err := native.CheckString(name, args, 0)
	if err != nil {
		return value.Nil, err
	}
	target, err := native.CheckInt(name, args, 1)
	if err != nil {
		return value.Nil, err
	}
	filler, err := native.CheckString(name, args, 2)
	if err != nil {
		return value.Nil, err
	}
	if filler == "" {
		filler = " "
	}
	runes := []rune(s)
	need := int(target) - len(runes)
	if need <= 0 {
		return value.Object(ivm.Intern(s)), nil
	}
	fillRunes := []rune(filler)
	padding := make([]rune, 0, need)
	for len(padding) < need {
		padding = append(padding, fillRunes[len(padding)%len(fillRunes)])
	}
	padding = padding[:need]
	if start {
		return value.Object(ivm.Intern(string(padding) + s)), nil
	}
	return value.Object(ivm.Intern(s + string(padding))), nil
}
