package vm_test

import "testing"

func TestArrayMap(t *testing.T) {
	module, _ := run(t, `
		val arr = [1, 2, 3];
		val doubled = arr.map(fun(x) { return x * 2; });
		var total = 0;
		for (v : doubled) {
			total = total + v;
		}
	`)
	wantInt(t, module, "total", 12)
}

func TestArrayFilter(t *testing.T) {
	module, _ := run(t, `
		val arr = [1, 2, 3, 4, 5];
		val evens = arr.filter(fun(x) { return x % 2 == 0; });
		val wantLen = evens.length();
	`)
	wantInt(t, module, "wantLen", 2)
}

func TestArrayReduce(t *testing.T) {
	module, _ := run(t, `
		val arr = [1, 2, 3, 4];
		val sum = arr.reduce(fun(acc, x) { return acc + x; }, 0);
	`)
	wantInt(t, module, "sum", 10)
}

func TestArrayEach(t *testing.T) {
	module, _ := run(t, `
		val arr = [1, 2, 3];
		var total = 0;
		arr.each(fun(x) { total = total + x; });
	`)
	wantInt(t, module, "total", 6)
}

func TestArrayZip(t *testing.T) {
	module, _ := run(t, `
		val a = [1, 2, 3];
		val b = [10, 20, 30];
		val summed = a.zip(b, fun(x, y) { return x + y; });
		var total = 0;
		for (v : summed) {
			total = total + v;
		}
	`)
	wantInt(t, module, "total", 66)
}
