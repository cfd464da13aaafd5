// Package resolver performs static semantic analysis over a parsed Vela
// program before it reaches the compiler: it builds per-scope symbol
// tables, classifies scope kinds, tracks binding mutability and upvalue
// capture, and reports diagnostics the way a linter would (unused
// bindings, assignment to immutable `val`s, `break`/`continue` outside a
// loop, `this`/`super` outside a method, `yield`/`await` misuse).
//
// Design overview:
//   - One Scope per lexical block, chained to its parent.
//   - Each Symbol tracks a State machine (declared -> defined -> accessed
//     and, independently, modified) so the resolver can flag "declared but
//     never used" and "declared val but reassigned" without a second pass.
//   - Identifier resolution walks outward through enclosing scopes and
//     marks a binding captured (Symbol.IsCaptured) when the walk crosses a
//     function or method scope. No per-function capture list is built; the
//     compiler resolves upvalues itself.
package resolver

import (
	"fmt"

	"github.com/vela-lang/vela/internal/ast"
	"github.com/vela-lang/vela/internal/token"
)

// ScopeKind classifies the lexical context a Scope represents.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeNamespace
	ScopeClass
	ScopeTrait
	ScopeMethod
	ScopeFunction
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeNamespace:
		return "namespace"
	case ScopeClass:
		return "class"
	case ScopeTrait:
		return "trait"
	case ScopeMethod:
		return "method"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "scope"
	}
}

// isFunctionLike reports whether a scope kind represents a closure boundary
// for upvalue-capture purposes.
func (k ScopeKind) isFunctionLike() bool {
	return k == ScopeMethod || k == ScopeFunction
}

// SymbolState tracks the lifecycle of a binding within its scope.
type SymbolState int

const (
	StateDeclared SymbolState = iota
	StateDefined
	StateAccessed
	StateModified
)

// Symbol is a single named binding.
type Symbol struct {
	Name      string
	Mutable   bool
	Slot      int // local slot index within its owning function frame
	State     SymbolState
	DeclaredAt token.Position
	IsCaptured bool // true once any nested closure captures this binding
}

// Scope holds the bindings declared directly within one lexical block.
type Scope struct {
	Kind    ScopeKind
	Parent  *Scope
	Symbols map[string]*Symbol
	Order   []string // declaration order, for deterministic unused-binding reports
}

func newScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, Symbols: make(map[string]*Symbol)}
}

func (s *Scope) declare(name string, mutable bool, pos token.Position) *Symbol {
	sym := &Symbol{Name: name, Mutable: mutable, State: StateDeclared, DeclaredAt: pos}
	s.Symbols[name] = sym
	s.Order = append(s.Order, name)
	return sym
}

func (s *Scope) lookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.Symbols[name]
	return sym, ok
}

// Upvalue describes a captured binding as seen from an inner function scope:
// Index is either a local slot in the immediately enclosing function (when
// FromParentLocal is true) or an index into the enclosing function's own
// upvalue list (forming a capture chain across more than one nested level).
type Upvalue struct {
	Name            string
	Index           int
	FromParentLocal bool
}

// FunctionInfo records one function/method body's scope kind and declared
// locals count. The resolver does not fill in Upvalues.
type FunctionInfo struct {
	Kind     ScopeKind
	Upvalues []Upvalue
	NumLocals int
}

// Diagnostic is a single resolver-reported issue.
type Diagnostic struct {
	Pos     token.Position
	Message string
}

func (d Diagnostic) String() string { return d.Pos.String() + ": " + d.Message }

// Resolver walks a Program and produces diagnostics plus, per function
// node, a FunctionInfo kept in funcInfo; nothing outside this package
// reads it.
type Resolver struct {
	current     *Scope
	diagnostics []Diagnostic
	loopDepth   int
	funcDepth   int // 0 at module scope; >0 inside any FUNCTION/METHOD scope
	inClass     []bool // stack mirroring class nesting, for `this`/`super` checks

	// funcInfo maps a function-like AST node to its accumulated info. Keyed
	// by pointer identity since nodes are never copied after parsing.
	funcInfo map[interface{}]*FunctionInfo
	funcScope map[interface{}]*Scope // the Scope that owns each function's locals
}

// New creates a Resolver seeded with a fresh module scope.
func New() *Resolver {
	r := &Resolver{
		funcInfo:  make(map[interface{}]*FunctionInfo),
		funcScope: make(map[interface{}]*Scope),
	}
	r.current = newScope(ScopeModule, nil)
	return r
}

// Resolve runs semantic analysis over prog and returns any diagnostics
// collected. A non-empty result does not necessarily mean compilation must
// stop; callers decide severity the way golint-style tools do (the only
// diagnostics that should block compilation are ones the caller recognizes
// as fatal, e.g. assignment to a `val`).
func (r *Resolver) Resolve(prog *ast.Program) []Diagnostic {
	for _, d := range prog.Declarations {
		r.resolveDeclaration(d)
	}
	// Module-scope bindings are globals, not locals, so the unused-binding
	// check is left to the function and block scopes.
	return r.diagnostics
}

func (r *Resolver) errorf(pos token.Position, format string, args ...interface{}) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (r *Resolver) resolveDeclaration(d ast.Declaration) {
	switch n := d.(type) {
	case *ast.ClassDecl:
		r.resolveClassDecl(n)
	case *ast.NamespaceDecl:
		r.pushScope(ScopeNamespace)
		for _, inner := range n.Declarations {
			r.resolveDeclaration(inner)
		}
		r.popScope()
	case *ast.UsingDecl, *ast.RequireDecl:
		// No bindings introduced into the symbol table; module loading is
		// resolved at link time by the loader, not statically here.
	case *ast.FunDecl:
		r.declareAndResolveFunction(n.Name, n, n.Params, n.Body, ScopeFunction)
	case *ast.TopLevelStmt:
		r.resolveStatement(n.Stmt)
	}
}

func (r *Resolver) resolveClassDecl(c *ast.ClassDecl) {
	kind := ScopeClass
	if c.IsTrait {
		kind = ScopeTrait
	}
	r.pushScope(kind)
	r.inClass = append(r.inClass, true)

	for _, f := range c.Fields {
		sym := r.current.declare(f.Name, f.Modifiers.Has(ast.ModMutable), token.Position{})
		sym.State = StateDefined
		if f.Default != nil {
			r.resolveExpr(f.Default)
		}
	}
	for _, m := range c.Methods {
		r.declareAndResolveFunction(m.Name, m, m.Params, m.Body, ScopeMethod)
	}

	r.inClass = r.inClass[:len(r.inClass)-1]
	r.popScope()
}

// declareAndResolveFunction declares name (when non-empty, i.e. not an
// anonymous lambda) in the enclosing scope, then resolves the function
// body in a fresh FUNCTION/METHOD scope, recording its FunctionInfo.
func (r *Resolver) declareAndResolveFunction(name string, node interface{}, params []ast.Param, body *ast.BlockStmt, kind ScopeKind) {
	if name != "" {
		sym := r.current.declare(name, false, token.Position{})
		sym.State = StateDefined
	}

	r.pushScope(kind)
	r.funcDepth++
	r.funcScope[node] = r.current
	r.funcInfo[node] = &FunctionInfo{Kind: kind}

	for _, p := range params {
		sym := r.current.declare(p.Name, true, token.Position{})
		// Parameters are exempt from the unused-binding check: many methods
		// (interceptors, callback signatures) legitimately ignore some of
		// their arguments.
		sym.State = StateAccessed
		if p.Default != nil {
			r.resolveExpr(p.Default)
		}
	}

	for _, stmt := range body.Stmts {
		r.resolveStatement(stmt)
	}

	r.funcInfo[node].NumLocals = len(r.current.Order)
	r.reportUnused(r.current)
	r.funcDepth--
	r.popScope()
}

// ---------------------------------------------------------------------------
// Scope stack helpers
// ---------------------------------------------------------------------------

func (r *Resolver) pushScope(kind ScopeKind) { r.current = newScope(kind, r.current) }
func (r *Resolver) popScope()                { r.current = r.current.Parent }

// reportUnused walks a finished scope's Order and flags bindings that were
// declared/defined but never read (StateAccessed) nor reassigned.
func (r *Resolver) reportUnused(s *Scope) {
	for _, name := range s.Order {
		sym := s.Symbols[name]
		if sym.State == StateDeclared || sym.State == StateDefined {
			if !sym.IsCaptured {
				r.errorf(sym.DeclaredAt, "%q is declared but never used", name)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (r *Resolver) resolveStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.VarStmt:
		if n.Value != nil {
			r.resolveExpr(n.Value)
		}
		sym := r.current.declare(n.Name, n.Modifiers.Has(ast.ModMutable), posOf(n))
		if n.Value != nil {
			sym.State = StateDefined
		}
	case *ast.BlockStmt:
		r.pushScope(ScopeBlock)
		for _, st := range n.Stmts {
			r.resolveStatement(st)
		}
		r.reportUnused(r.current)
		r.popScope()
	case *ast.IfStmt:
		r.resolveExpr(n.Condition)
		r.resolveStatement(n.Then)
		if n.Else != nil {
			r.resolveStatement(n.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(n.Condition)
		r.loopDepth++
		r.resolveStatement(n.Body)
		r.loopDepth--
	case *ast.ForStmt:
		r.resolveExpr(n.Collection)
		r.pushScope(ScopeBlock)
		sym := r.current.declare(n.Name, false, posOf(n))
		sym.State = StateDefined
		r.loopDepth++
		for _, st := range n.Body.Stmts {
			r.resolveStatement(st)
		}
		r.loopDepth--
		r.reportUnused(r.current)
		r.popScope()
	case *ast.BreakStmt:
		if r.loopDepth == 0 {
			r.errorf(n.Token.Pos, "'break' outside of a loop")
		}
	case *ast.ContinueStmt:
		if r.loopDepth == 0 {
			r.errorf(n.Token.Pos, "'continue' outside of a loop")
		}
	case *ast.ReturnStmt:
		if r.funcDepth == 0 {
			r.errorf(n.Token.Pos, "'return' outside of a function")
		}
		if n.Value != nil {
			r.resolveExpr(n.Value)
		}
	case *ast.ThrowStmt:
		r.resolveExpr(n.Value)
	case *ast.TryStmt:
		r.resolveStatement(n.Body)
		for _, c := range n.Catches {
			r.pushScope(ScopeBlock)
			if c.Name != "" {
				sym := r.current.declare(c.Name, true, token.Position{})
				sym.State = StateDefined
			}
			for _, st := range c.Body.Stmts {
				r.resolveStatement(st)
			}
			r.reportUnused(r.current)
			r.popScope()
		}
		if n.Finally != nil {
			r.resolveStatement(n.Finally)
		}
	case *ast.SwitchStmt:
		r.resolveExpr(n.Subject)
		for _, c := range n.Cases {
			for _, v := range c.Values {
				r.resolveExpr(v)
			}
			r.pushScope(ScopeBlock)
			for _, st := range c.Body {
				r.resolveStatement(st)
			}
			r.reportUnused(r.current)
			r.popScope()
		}
	case *ast.ExprStmt:
		r.resolveExpr(n.Expr)
	}
}

// posOf extracts a position from the handful of statement nodes that carry
// one conveniently; nodes without a direct Pos accessor fall back to the
// zero Position (diagnostics on them are rare enough not to warrant plumbing
// a dedicated getter onto every AST type).
func posOf(n interface{}) token.Position {
	switch v := n.(type) {
	case *ast.VarStmt:
		return v.Token.Pos
	case *ast.ForStmt:
		return v.Token.Pos
	default:
		return token.Position{}
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (r *Resolver) resolveExpr(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Identifier:
		r.resolveIdentifierUse(n)
	case *ast.ThisExpr:
		if len(r.inClass) == 0 {
			r.errorf(n.Token.Pos, "'this' used outside of a method")
		}
	case *ast.SuperExpr:
		if len(r.inClass) == 0 {
			r.errorf(n.Token.Pos, "'super' used outside of a method")
		}
	case *ast.InterpolatedString:
		for _, sub := range n.Exprs {
			r.resolveExpr(sub)
		}
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			r.resolveExpr(el)
		}
	case *ast.DictLiteral:
		for _, entry := range n.Entries {
			r.resolveExpr(entry.Key)
			r.resolveExpr(entry.Value)
		}
	case *ast.RangeExpr:
		r.resolveExpr(n.From)
		r.resolveExpr(n.To)
	case *ast.UnaryExpr:
		r.resolveExpr(n.Operand)
	case *ast.BinaryExpr:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
	case *ast.LogicalExpr:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
	case *ast.NilCoalescingExpr:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
	case *ast.ElvisExpr:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
	case *ast.TernaryExpr:
		r.resolveExpr(n.Condition)
		r.resolveExpr(n.Then)
		r.resolveExpr(n.Else)
	case *ast.AssignExpr:
		r.resolveAssign(n)
	case *ast.CallExpr:
		r.resolveExpr(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
	case *ast.GetExpr:
		r.resolveExpr(n.Object)
	case *ast.SubscriptExpr:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Index)
	case *ast.FunExpr:
		r.declareAndResolveFunction("", n, n.Params, n.Body, ScopeFunction)
	case *ast.YieldExpr:
		if r.funcDepth == 0 {
			r.errorf(n.Token.Pos, "'yield' used outside of a function")
		}
		if n.Value != nil {
			r.resolveExpr(n.Value)
		}
	case *ast.AwaitExpr:
		if r.funcDepth == 0 {
			r.errorf(n.Token.Pos, "'await' used outside of a function")
		}
		r.resolveExpr(n.Value)
	case *ast.NewExpr:
		r.resolveExpr(n.Class)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
	}
}

// resolveIdentifierUse walks outward from the current scope looking for the
// binding, marking it accessed, and — when the binding lives outside the
// current function scope — marking it captured (Symbol.IsCaptured).
func (r *Resolver) resolveIdentifierUse(id *ast.Identifier) {
	crossedFunctions := 0
	for s := r.current; s != nil; s = s.Parent {
		if sym, ok := s.lookupLocal(id.Name); ok {
			sym.State = StateAccessed
			if crossedFunctions > 0 {
				sym.IsCaptured = true
			}
			return
		}
		if s.Kind.isFunctionLike() {
			crossedFunctions++
		}
	}
	// Unresolved identifiers are left for the compiler to treat as globals
	// or namespace references; the resolver does not consider this an error
	// since the Language permits forward references to top-level globals.
}

func (r *Resolver) resolveAssign(n *ast.AssignExpr) {
	r.resolveExpr(n.Value)
	id, ok := n.Target.(*ast.Identifier)
	if !ok {
		r.resolveExpr(n.Target)
		return
	}
	for s := r.current; s != nil; s = s.Parent {
		if sym, ok := s.lookupLocal(id.Name); ok {
			if !sym.Mutable {
				r.errorf(n.Token.Pos, "cannot assign to immutable binding %q (declared with 'val')", id.Name)
			}
			sym.State = StateModified
			return
		}
	}
}
