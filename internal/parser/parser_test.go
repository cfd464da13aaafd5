package parser

import (
	"strings"
	"testing"

	"github.com/vela-lang/vela/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := Parse("test.vela", src)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		t.Fatalf("unexpected parse errors:\n%s", strings.Join(msgs, "\n"))
	}
	return prog
}

func parseWithErrors(t *testing.T, src string) (*ast.Program, []error) {
	t.Helper()
	prog, errs := Parse("test.vela", src)
	if len(errs) == 0 {
		t.Fatal("expected parse errors, but none were reported")
	}
	return prog, errs
}

func firstDecl(t *testing.T, prog *ast.Program) ast.Declaration {
	t.Helper()
	if len(prog.Declarations) == 0 {
		t.Fatal("expected at least one declaration, got none")
	}
	return prog.Declarations[0]
}

func TestParseFunDecl_Simple(t *testing.T) {
	prog := mustParse(t, `fun add(a, b) { return a + b; }`)
	fn, ok := firstDecl(t, prog).(*ast.FunDecl)
	if !ok {
		t.Fatalf("expected *ast.FunDecl, got %T", firstDecl(t, prog))
	}
	if fn.Name != "add" {
		t.Errorf("name = %q, want %q", fn.Name, "add")
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Errorf("params = %+v", fn.Params)
	}
}

func TestParseFunDecl_VariadicAndDefault(t *testing.T) {
	prog := mustParse(t, `fun f(a, b = 1, *rest) { }`)
	fn := firstDecl(t, prog).(*ast.FunDecl)
	if len(fn.Params) != 3 {
		t.Fatalf("want 3 params, got %d", len(fn.Params))
	}
	if fn.Params[1].Default == nil {
		t.Error("expected default on second param")
	}
	if !fn.Params[2].Variadic {
		t.Error("expected third param to be variadic")
	}
}

func TestParseClassDecl_WithSuperclassAndTraits(t *testing.T) {
	prog := mustParse(t, `
class Dog : Animal with Named, Serializable {
    var name = "Rex";
    fun bark() { return "Woof"; }
    class fun create() { return new Dog(); }
}`)
	c, ok := firstDecl(t, prog).(*ast.ClassDecl)
	if !ok {
		t.Fatalf("expected *ast.ClassDecl, got %T", firstDecl(t, prog))
	}
	if c.Name != "Dog" {
		t.Errorf("name = %q", c.Name)
	}
	if c.Superclass == nil || c.Superclass.Name != "Animal" {
		t.Errorf("superclass = %+v", c.Superclass)
	}
	if len(c.Traits) != 2 || c.Traits[0].Name != "Named" || c.Traits[1].Name != "Serializable" {
		t.Errorf("traits = %+v", c.Traits)
	}
	if len(c.Fields) != 1 || c.Fields[0].Name != "name" {
		t.Errorf("fields = %+v", c.Fields)
	}
	if len(c.Methods) != 2 {
		t.Fatalf("want 2 methods, got %d", len(c.Methods))
	}
	if !c.Methods[1].Modifiers.Has(ast.ModStatic) {
		t.Error("expected create() to be a static (class) method")
	}
}

func TestParseTraitDecl(t *testing.T) {
	prog := mustParse(t, `trait Flyable { fun fly() { return 1; } }`)
	c := firstDecl(t, prog).(*ast.ClassDecl)
	if !c.IsTrait {
		t.Error("expected IsTrait")
	}
}

func TestParseNamespaceAndUsingAndRequire(t *testing.T) {
	prog := mustParse(t, `
namespace geometry.shapes {
    class Circle { }
}
using geometry.shapes;
require "collections";
`)
	if len(prog.Declarations) != 3 {
		t.Fatalf("want 3 top-level decls, got %d", len(prog.Declarations))
	}
	ns, ok := prog.Declarations[0].(*ast.NamespaceDecl)
	if !ok {
		t.Fatalf("expected *ast.NamespaceDecl, got %T", prog.Declarations[0])
	}
	if strings.Join(ns.Path, ".") != "geometry.shapes" {
		t.Errorf("path = %v", ns.Path)
	}
	u, ok := prog.Declarations[1].(*ast.UsingDecl)
	if !ok || strings.Join(u.Path, ".") != "geometry.shapes" {
		t.Fatalf("using decl = %+v", prog.Declarations[1])
	}
	r, ok := prog.Declarations[2].(*ast.RequireDecl)
	if !ok || r.Path != "collections" {
		t.Fatalf("require decl = %+v", prog.Declarations[2])
	}
}

func TestParseIfWhileFor(t *testing.T) {
	prog := mustParse(t, `
if (x > 0) { y = 1; } else if (x < 0) { y = -1; } else { y = 0; }
while (x > 0) { x = x - 1; }
for (item : list) { print(item); }
`)
	if len(prog.Declarations) != 3 {
		t.Fatalf("want 3 top-level stmts, got %d", len(prog.Declarations))
	}
	ifStmt := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.IfStmt)
	if ifStmt.Else == nil {
		t.Fatal("expected else-if chain")
	}
	if _, ok := ifStmt.Else.(*ast.IfStmt); !ok {
		t.Errorf("expected else branch to be *ast.IfStmt, got %T", ifStmt.Else)
	}
	forStmt := prog.Declarations[2].(*ast.TopLevelStmt).Stmt.(*ast.ForStmt)
	if forStmt.Name != "item" {
		t.Errorf("for binding = %q", forStmt.Name)
	}
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := mustParse(t, `
try {
    throw new RuntimeError("boom");
} catch (RuntimeError e) {
    print(e);
} catch (Exception) {
    print("other");
} finally {
    cleanup();
}
`)
	ts := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.TryStmt)
	if len(ts.Catches) != 2 {
		t.Fatalf("want 2 catch clauses, got %d", len(ts.Catches))
	}
	if ts.Catches[0].ClassName != "RuntimeError" || ts.Catches[0].Name != "e" {
		t.Errorf("first catch = %+v", ts.Catches[0])
	}
	if ts.Catches[1].Name != "" {
		t.Errorf("second catch should have no bound name, got %q", ts.Catches[1].Name)
	}
	if ts.Finally == nil {
		t.Error("expected finally block")
	}
}

func TestParseSwitchStmt(t *testing.T) {
	prog := mustParse(t, `
switch (x) {
case 1, 2:
    print("small");
case 3:
    print("three");
default:
    print("other");
}
`)
	sw := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.SwitchStmt)
	if len(sw.Cases) != 3 {
		t.Fatalf("want 3 cases, got %d", len(sw.Cases))
	}
	if len(sw.Cases[0].Values) != 2 {
		t.Errorf("first case should have 2 values, got %d", len(sw.Cases[0].Values))
	}
	if !sw.Cases[2].IsDefault {
		t.Error("expected last case to be default")
	}
}

func TestParseOptionalChainAndNilCoalesceAndElvis(t *testing.T) {
	prog := mustParse(t, `
val a = obj?.field ?? fallback ?: other;
`)
	v := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	elvis, ok := v.Value.(*ast.ElvisExpr)
	if !ok {
		t.Fatalf("expected top-level *ast.ElvisExpr, got %T", v.Value)
	}
	nc, ok := elvis.Left.(*ast.NilCoalescingExpr)
	if !ok {
		t.Fatalf("expected *ast.NilCoalescingExpr, got %T", elvis.Left)
	}
	get, ok := nc.Left.(*ast.GetExpr)
	if !ok || !get.Optional {
		t.Fatalf("expected optional *ast.GetExpr, got %+v", nc.Left)
	}
}

func TestParseTernary(t *testing.T) {
	prog := mustParse(t, `val a = x > 0 ? "pos" : "non-pos";`)
	v := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	if _, ok := v.Value.(*ast.TernaryExpr); !ok {
		t.Fatalf("expected *ast.TernaryExpr, got %T", v.Value)
	}
}

func TestParseArrayAndDictLiterals(t *testing.T) {
	prog := mustParse(t, `
val arr = [1, 2, 3];
val dict = { "a": 1, "b": 2 };
`)
	arrStmt := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	arr, ok := arrStmt.Value.(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("array literal = %+v", arrStmt.Value)
	}
	dictStmt := prog.Declarations[1].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	dict, ok := dictStmt.Value.(*ast.DictLiteral)
	if !ok || len(dict.Entries) != 2 {
		t.Fatalf("dict literal = %+v", dictStmt.Value)
	}
}

func TestParseRangeExpr(t *testing.T) {
	prog := mustParse(t, `val r = 0..10;`)
	v := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	if _, ok := v.Value.(*ast.RangeExpr); !ok {
		t.Fatalf("expected *ast.RangeExpr, got %T", v.Value)
	}
}

func TestParseStringInterpolation(t *testing.T) {
	prog := mustParse(t, `val s = "hello ${name}, you are ${age} years old";`)
	v := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	is, ok := v.Value.(*ast.InterpolatedString)
	if !ok {
		t.Fatalf("expected *ast.InterpolatedString, got %T", v.Value)
	}
	if len(is.Exprs) != 2 {
		t.Fatalf("want 2 interpolated expressions, got %d", len(is.Exprs))
	}
	if len(is.Parts) != 3 {
		t.Fatalf("want 3 literal parts, got %d", len(is.Parts))
	}
}

func TestParseSuperAndThisAndNew(t *testing.T) {
	prog := mustParse(t, `
class Cat : Animal {
    fun init() {
        super.init();
        this.sound = "meow";
    }
}
val c = new Cat();
`)
	c := prog.Declarations[0].(*ast.ClassDecl)
	initMethod := c.Methods[0]
	if !initMethod.Modifiers.Has(ast.ModInitializer) {
		t.Error("expected init() to carry ModInitializer")
	}
	body := initMethod.Body.Stmts
	exprStmt := body[0].(*ast.ExprStmt)
	call := exprStmt.Expr.(*ast.CallExpr)
	if _, ok := call.Callee.(*ast.SuperExpr); !ok {
		t.Fatalf("expected super.init() call, got %T", call.Callee)
	}

	vs := prog.Declarations[1].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	newExpr, ok := vs.Value.(*ast.NewExpr)
	if !ok {
		t.Fatalf("expected *ast.NewExpr, got %T", vs.Value)
	}
	if ident, ok := newExpr.Class.(*ast.Identifier); !ok || ident.Name != "Cat" {
		t.Errorf("new target = %+v", newExpr.Class)
	}
}

func TestParseLambdaAndCall(t *testing.T) {
	prog := mustParse(t, `val f = fun(x) { return x * 2; }; val y = f(21);`)
	fnStmt := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	fn, ok := fnStmt.Value.(*ast.FunExpr)
	if !ok {
		t.Fatalf("expected *ast.FunExpr, got %T", fnStmt.Value)
	}
	if !fn.Modifiers.Has(ast.ModLambda) {
		t.Error("expected ModLambda on anonymous function literal")
	}

	callStmt := prog.Declarations[1].(*ast.TopLevelStmt).Stmt.(*ast.VarStmt)
	call, ok := callStmt.Value.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		t.Fatalf("call expr = %+v", callStmt.Value)
	}
}

func TestParseGeneratorInference(t *testing.T) {
	prog := mustParse(t, `
fun counter() {
    var i = 0;
    while (true) {
        yield i;
        i = i + 1;
    }
}`)
	fn := firstDecl(t, prog).(*ast.FunDecl)
	if !fn.Modifiers.Has(ast.ModGenerator) {
		t.Error("expected function containing yield to be classified as a generator")
	}
}

func TestParseAsyncAwait(t *testing.T) {
	prog := mustParse(t, `
async fun fetchAll() {
    val result = await fetch("url");
    return result;
}`)
	fn := firstDecl(t, prog).(*ast.FunDecl)
	if !fn.Modifiers.Has(ast.ModAsync) {
		t.Error("expected ModAsync")
	}
}

func TestParseErrorRecovery(t *testing.T) {
	_, errs := parseWithErrors(t, `class { }`)
	if len(errs) == 0 {
		t.Fatal("expected at least one error for a class decl missing its name")
	}
}

func TestParseCompoundAssign(t *testing.T) {
	prog := mustParse(t, `x += 1;`)
	es := prog.Declarations[0].(*ast.TopLevelStmt).Stmt.(*ast.ExprStmt)
	assign, ok := es.Expr.(*ast.AssignExpr)
	if !ok || assign.Op != "+=" {
		t.Fatalf("expected += assign expr, got %+v", es.Expr)
	}
}
