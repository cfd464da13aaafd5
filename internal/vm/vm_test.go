package vm_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/compiler"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/parser"
	"github.com/vela-lang/vela/internal/value"
	"github.com/vela-lang/vela/internal/vm"
)

// run compiles and executes src against a fresh module/VM pair and returns
// the module holding the script's globals afterward, alongside the VM that
// ran it; a parse, compile or run error fails the test.
func run(t *testing.T, src string) (*object.Module, *vm.VM) {
	t.Helper()
	prog, errs := parser.Parse("test.vl", src)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	module := object.NewModule("test")
	strings := object.NewStringTable()
	c := compiler.New(module, strings)
	fn, cerrs := c.Compile(prog)
	if len(cerrs) > 0 {
		t.Fatalf("compile errors: %v", cerrs)
	}
	module.TopLevel = object.NewClosure(fn, module)

	machine := vm.New(module, strings)
	if _, err := machine.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	return module, machine
}

func global(t *testing.T, module *object.Module, name string) value.Value {
	t.Helper()
	v, _, ok := module.GetGlobal(name)
	if !ok {
		t.Fatalf("global %q was never defined", name)
	}
	return v
}

func wantInt(t *testing.T, module *object.Module, name string, want int64) {
	t.Helper()
	got := global(t, module, name)
	if !got.IsInt() || got.AsInt() != want {
		t.Errorf("%s = %s, want int %d", name, got.String(), want)
	}
}

func wantString(t *testing.T, module *object.Module, name, want string) {
	t.Helper()
	got := global(t, module, name)
	s, ok := got.Obj.(*object.String)
	if !ok || s.Value != want {
		t.Errorf("%s = %s, want string %q", name, got.String(), want)
	}
}

func wantBool(t *testing.T, module *object.Module, name string, want bool) {
	t.Helper()
	got := global(t, module, name)
	if !got.IsBool() || got.AsBool() != want {
		t.Errorf("%s = %s, want bool %v", name, got.String(), want)
	}
}

func TestArithmeticAndNumericTower(t *testing.T) {
	module, _ := run(t, `
		val sum = 1 + 2 * 3;
		val avg = 7 / 2;
		val rem = 7 % 2;
		val mixed = 1 + 2.5;
	`)
	wantInt(t, module, "sum", 7)
	got := global(t, module, "avg")
	if !got.IsFloat() || got.AsFloat() != 3.5 {
		t.Errorf("avg = %s, want float 3.5", got.String())
	}
	wantInt(t, module, "rem", 1)
	got = global(t, module, "mixed")
	if !got.IsFloat() || got.AsFloat() != 3.5 {
		t.Errorf("mixed = %s, want float 3.5", got.String())
	}
}

func TestStringConcatAndInterpolation(t *testing.T) {
	module, _ := run(t, `
		val name = "world";
		val greeting = "hello, " + name;
		val count = 2 + 3;
		val report = "count is ${count}, greeting is ${greeting}!";
	`)
	wantString(t, module, "greeting", "hello, world")
	wantString(t, module, "report", "count is 5, greeting is hello, world!")
}

func TestControlFlow(t *testing.T) {
	module, _ := run(t, `
		var total = 0;
		var i = 0;
		while (i < 5) {
			total = total + i;
			i = i + 1;
		}
		var flag = "";
		if (total > 5) {
			flag = "big";
		} else {
			flag = "small";
		}
	`)
	wantInt(t, module, "total", 10)
	wantString(t, module, "flag", "big")
}

func TestFunctionsClosuresAndRecursion(t *testing.T) {
	module, _ := run(t, `
		fun makeCounter() {
			var n = 0;
			fun next() {
				n = n + 1;
				return n;
			}
			return next;
		}

		val counter = makeCounter();
		counter();
		counter();
		val third = counter();

		fun fib(n) {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
		val fibResult = fib(10);
	`)
	wantInt(t, module, "third", 3)
	wantInt(t, module, "fibResult", 55)
}

func TestVariadicAndOptionalParams(t *testing.T) {
	module, _ := run(t, `
		fun sum(*nums) {
			var total = 0;
			for (n : nums) {
				total = total + n;
			}
			return total;
		}
		val total = sum(1, 2, 3, 4);

		fun withDefault(a, b) {
			return a + b;
		}
		val onlyOne = withDefault(5);
	`)
	wantInt(t, module, "total", 10)
	got := global(t, module, "onlyOne")
	if !got.IsNil() {
		t.Errorf("onlyOne = %s, want nil (missing optional arg binds to nil)", got.String())
	}
}

func TestClassesInheritanceAndTraits(t *testing.T) {
	module, _ := run(t, `
		trait Greeter {
			fun greet() {
				return "hi, " + this.name;
			}
		}

		class Animal with Greeter {
			val name = "animal";
			var sound = "...";

			fun init(name) {
				this.name = name;
			}

			fun speak() {
				return this.name + " says " + this.sound;
			}
		}

		class Dog : Animal {
			fun init(name) {
				super.init(name);
				this.sound = "woof";
			}

			fun speak() {
				return super.speak() + "!";
			}
		}

		val rex = new Dog("Rex");
		val speech = rex.speak();
		val greeting = rex.greet();
	`)
	wantString(t, module, "speech", "Rex says woof!")
	wantString(t, module, "greeting", "hi, Rex")
}

func TestExceptionsTryCatchFinally(t *testing.T) {
	module, _ := run(t, `
		var log = "";
		fun explode() {
			throw "boom";
		}

		try {
			explode();
			log = log + "unreachable";
		} catch (Error e) {
			log = log + "caught:" + e;
		} finally {
			log = log + ":done";
		}
	`)
	wantString(t, module, "log", "caught:boom:done")
}

func TestRuntimeFaultBecomesCatchableException(t *testing.T) {
	module, _ := run(t, `
		var log = "";
		try {
			val bad = 1 / 0;
			log = log + "unreachable";
		} catch (Error e) {
			log = "caught:" + e.message();
		} finally {
			log = log + ":done";
		}
	`)
	wantString(t, module, "log", "caught:vm: division by zero:done")
}

func TestForLoopIteratorProtocolOverBuiltins(t *testing.T) {
	module, _ := run(t, `
		val arr = [1, 2, 3];
		var arrSum = 0;
		for (x : arr) {
			arrSum = arrSum + x;
		}

		val dict = {"a": 1, "b": 2};
		var dictSum = 0;
		for (e : dict) {
			dictSum = dictSum + e.value();
		}

		var letters = "";
		for (c : "abc") {
			letters = letters + c;
		}

		val r = 0..4;
		var rangeSum = 0;
		for (n : r) {
			rangeSum = rangeSum + n;
		}
	`)
	wantInt(t, module, "arrSum", 6)
	wantInt(t, module, "dictSum", 3)
	wantString(t, module, "letters", "abc")
	wantInt(t, module, "rangeSum", 6)
}

func TestGenerators(t *testing.T) {
	module, _ := run(t, `
		fun counter() {
			yield 1;
			yield 2;
			yield 3;
		}

		val gen = counter();
		var total = 0;
		for (v : gen) {
			total = total + v;
		}
	`)
	wantInt(t, module, "total", 6)
}

func TestAsyncAwaitEagerSettlement(t *testing.T) {
	module, _ := run(t, `
		val compute = async fun() {
			return 21 * 2;
		};

		val runner = async fun() {
			val result = await compute();
			return result;
		};

		val promise = runner();
	`)
	got := global(t, module, "promise")
	p, ok := got.Obj.(*object.Promise)
	if !ok {
		t.Fatalf("promise = %s, want *object.Promise", got.String())
	}
	if p.State != object.PromiseFulfilled {
		t.Fatalf("promise state = %v, want Fulfilled", p.State)
	}
	if !p.Value.IsInt() || p.Value.AsInt() != 42 {
		t.Errorf("promise value = %s, want int 42", p.Value.String())
	}
}

func TestBooleanAndComparisonOperators(t *testing.T) {
	module, _ := run(t, `
		val a = 3 < 5;
		val b = "abc" > "abd";
		val c = 5 == 5.0;
		val d = !c;
	`)
	wantBool(t, module, "a", true)
	wantBool(t, module, "b", false)
	wantBool(t, module, "c", true)
	wantBool(t, module, "d", false)
}
