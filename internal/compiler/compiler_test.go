package compiler_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/compiler"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/parser"
)

func compileSource(t *testing.T, src string) *object.Function {
	t.Helper()
	prog, errs := parser.Parse("test.vl", src)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	module := object.NewModule("test")
	c := compiler.New(module, object.NewStringTable())
	fn, cerrs := c.Compile(prog)
	if len(cerrs) > 0 {
		t.Fatalf("compile errors: %v", cerrs)
	}
	return fn
}

func opcodesOf(fn *object.Function) []bytecode.Opcode {
	var ops []bytecode.Opcode
	fn.Chunk.Iterate(nil, func(inst bytecode.Instruction) {
		ops = append(ops, inst.Op)
	})
	return ops
}

func TestCompileArithmeticExpression(t *testing.T) {
	fn := compileSource(t, "val x = 1 + 2 * 3;")
	ops := opcodesOf(fn)
	want := []bytecode.Opcode{
		bytecode.OpConstant, bytecode.OpConstant, bytecode.OpConstant,
		bytecode.OpMultiply, bytecode.OpAdd, bytecode.OpDefineGlobalVal,
		bytecode.OpNil, bytecode.OpReturn,
	}
	assertOps(t, ops, want)
}

func TestCompileIfElse(t *testing.T) {
	fn := compileSource(t, `
		if (true) {
			val a = 1;
		} else {
			val b = 2;
		}
	`)
	ops := opcodesOf(fn)
	want := []bytecode.Opcode{
		bytecode.OpTrue, bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpConstant, bytecode.OpPop, // val a = 1; then endScope pop
		bytecode.OpJump, bytecode.OpPop,
		bytecode.OpConstant, bytecode.OpPop,
		bytecode.OpNil, bytecode.OpReturn,
	}
	assertOps(t, ops, want)
}

func TestCompileWhileLoop(t *testing.T) {
	fn := compileSource(t, `
		var i = 0;
		while (i < 3) {
			i = i + 1;
		}
	`)
	ops := opcodesOf(fn)
	want := []bytecode.Opcode{
		bytecode.OpConstant, bytecode.OpDefineGlobalVar,
		bytecode.OpGetGlobal, bytecode.OpConstant, bytecode.OpLess,
		bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpGetGlobal, bytecode.OpConstant, bytecode.OpAdd, bytecode.OpSetGlobal, bytecode.OpPop,
		bytecode.OpLoop,
		bytecode.OpPop,
		bytecode.OpNil, bytecode.OpReturn,
	}
	assertOps(t, ops, want)
}

func TestCompileFunctionClosureAndCall(t *testing.T) {
	fn := compileSource(t, `
		fun add(a, b) {
			return a + b;
		}
		add(1, 2);
	`)
	ops := opcodesOf(fn)
	want := []bytecode.Opcode{
		bytecode.OpClosure, bytecode.OpDefineGlobalVal,
		bytecode.OpGetGlobal, bytecode.OpConstant, bytecode.OpConstant,
		bytecode.OpCall, bytecode.OpPop,
		bytecode.OpNil, bytecode.OpReturn,
	}
	assertOps(t, ops, want)

	if len(fn.Chunk.Constants) == 0 {
		t.Fatal("expected at least one constant for the closure")
	}
}

func TestCompileStringInterpolationInternsSegments(t *testing.T) {
	fn := compileSource(t, `val name = "world"; val greeting = "hi ${name}!";`)
	ops := opcodesOf(fn)
	found := false
	for _, op := range ops {
		if op == bytecode.OpInvoke {
			found = true
		}
	}
	if !found {
		t.Error("expected interpolation to emit an INVOKE for toString()")
	}
}

func TestCompileClassWithMethodAndSuperclass(t *testing.T) {
	fn := compileSource(t, `
		class Animal {
			fun speak() {
				return "...";
			}
		}
		class Dog : Animal {
			fun speak() {
				return "woof";
			}
		}
	`)
	ops := opcodesOf(fn)
	mustContain := []bytecode.Opcode{
		bytecode.OpClass, bytecode.OpInherit, bytecode.OpInstanceMethod, bytecode.OpPop,
	}
	for _, want := range mustContain {
		seen := false
		for _, op := range ops {
			if op == want {
				seen = true
				break
			}
		}
		if !seen {
			t.Errorf("expected opcode %s in class compilation output", want)
		}
	}
}

func assertOps(t *testing.T, got, want []bytecode.Opcode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("opcode count = %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("opcode[%d] = %s, want %s\ngot:  %v\nwant: %v", i, got[i], want[i], got, want)
		}
	}
}
