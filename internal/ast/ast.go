// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package ast defines the Abstract Syntax Tree produced by the Vela parser.
//
// Design overview:
//   - Every node implements Node via TokenLiteral/String.
//   - Expression, Statement, and Declaration are marker interfaces over Node
//     so the parser and resolver can type-switch safely.
//   - Nodes are position-annotated via token.Token so diagnostics and
//     runtime stack traces can point at source locations.
//   - A Modifiers bitfield captures the handful of orthogonal flags
//     (mutability, async, generator, initializer, variadic) the resolver
//     and compiler need to see on declarations and lambdas.
package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vela-lang/vela/internal/token"
)

// Modifiers is a bitfield of orthogonal declaration/expression flags.
type Modifiers uint16

const (
	ModMutable Modifiers = 1 << iota
	ModAsync
	ModGenerator
	ModInitializer
	ModLambda
	ModVariadic
	ModStatic
)

func (m Modifiers) Has(f Modifiers) bool { return m&f != 0 }

// Node is the base interface every AST node implements.
type Node interface {
	TokenLiteral() string
	String() string
}

// Expression marks expression nodes.
type Expression interface {
	Node
	expressionNode()
}

// Statement marks statement nodes.
type Statement interface {
	Node
	statementNode()
}

// Declaration marks top-level declaration nodes.
type Declaration interface {
	Node
	declarationNode()
}

// Program is the root of a parsed source file.
type Program struct {
	Declarations []Declaration
}

func (p *Program) TokenLiteral() string {
	if len(p.Declarations) > 0 {
		return p.Declarations[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, d := range p.Declarations {
		out.WriteString(d.String())
		out.WriteByte('\n')
	}
	return out.String()
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// FunDecl declares a named function, method, or (when Name == "") a lambda
// expression wrapped as a declaration for statement-position `fun` literals.
type FunDecl struct {
	Token     token.Token
	Name      string
	Params    []Param
	Body      *BlockStmt
	Modifiers Modifiers
}

type Param struct {
	Name      string
	Default   Expression // nil if no default
	Variadic  bool
}

func (f *FunDecl) declarationNode()    {}
func (f *FunDecl) TokenLiteral() string { return f.Token.Literal }
func (f *FunDecl) String() string {
	var ps []string
	for _, p := range f.Params {
		ps = append(ps, p.Name)
	}
	return fmt.Sprintf("fun %s(%s) %s", f.Name, strings.Join(ps, ", "), f.Body.String())
}

// ClassDecl declares a class, optionally with a superclass and a list of
// applied traits (traits apply after inheritance and may only shadow via
// explicit override).
type ClassDecl struct {
	Token      token.Token
	Name       string
	Superclass *Identifier // nil for classes rooted directly at Object
	Traits     []*Identifier
	Methods    []*FunDecl   // instance + class (ModStatic) methods
	Fields     []*FieldDecl // class-variable declarations (`val`/`var` at class body level)
	IsTrait    bool
}

type FieldDecl struct {
	Name      string
	Default   Expression
	Modifiers Modifiers
}

func (c *ClassDecl) declarationNode()    {}
func (c *ClassDecl) TokenLiteral() string { return c.Token.Literal }
func (c *ClassDecl) String() string {
	kw := "class"
	if c.IsTrait {
		kw = "trait"
	}
	return fmt.Sprintf("%s %s { ... }", kw, c.Name)
}

// NamespaceDecl declares (or reopens) a dotted namespace containing further
// declarations.
type NamespaceDecl struct {
	Token        token.Token
	Path         []string
	Declarations []Declaration
}

func (n *NamespaceDecl) declarationNode()    {}
func (n *NamespaceDecl) TokenLiteral() string { return n.Token.Literal }
func (n *NamespaceDecl) String() string {
	return fmt.Sprintf("namespace %s { ... }", strings.Join(n.Path, "."))
}

// UsingDecl brings a namespace's members into unqualified scope.
type UsingDecl struct {
	Token token.Token
	Path  []string
}

func (u *UsingDecl) declarationNode()    {}
func (u *UsingDecl) TokenLiteral() string { return u.Token.Literal }
func (u *UsingDecl) String() string       { return "using " + strings.Join(u.Path, ".") }

// RequireDecl loads another module by search-root-relative path.
type RequireDecl struct {
	Token token.Token
	Path  string
}

func (r *RequireDecl) declarationNode()    {}
func (r *RequireDecl) TokenLiteral() string { return r.Token.Literal }
func (r *RequireDecl) String() string       { return fmt.Sprintf("require %q", r.Path) }

// TopLevelStmt wraps a statement appearing directly at module scope (the
// module body is itself compiled as an implicit top-level function).
type TopLevelStmt struct {
	Stmt Statement
}

func (t *TopLevelStmt) declarationNode()    {}
func (t *TopLevelStmt) TokenLiteral() string { return t.Stmt.TokenLiteral() }
func (t *TopLevelStmt) String() string       { return t.Stmt.String() }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

type ExprStmt struct {
	Token token.Token
	Expr  Expression
}

func (s *ExprStmt) statementNode()     {}
func (s *ExprStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ExprStmt) String() string       { return s.Expr.String() + ";" }

// VarStmt declares a `val` (immutable) or `var` (mutable) binding.
type VarStmt struct {
	Token     token.Token
	Name      string
	Value     Expression // nil if uninitialized
	Modifiers Modifiers  // ModMutable set for `var`
}

func (s *VarStmt) statementNode()     {}
func (s *VarStmt) TokenLiteral() string { return s.Token.Literal }
func (s *VarStmt) String() string {
	kw := "val"
	if s.Modifiers.Has(ModMutable) {
		kw = "var"
	}
	if s.Value != nil {
		return fmt.Sprintf("%s %s = %s;", kw, s.Name, s.Value.String())
	}
	return fmt.Sprintf("%s %s;", kw, s.Name)
}

type BlockStmt struct {
	Token token.Token
	Stmts []Statement
}

func (s *BlockStmt) statementNode()     {}
func (s *BlockStmt) TokenLiteral() string { return s.Token.Literal }
func (s *BlockStmt) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, st := range s.Stmts {
		out.WriteString(st.String())
		out.WriteByte(' ')
	}
	out.WriteString("}")
	return out.String()
}

type IfStmt struct {
	Token     token.Token
	Condition Expression
	Then      *BlockStmt
	Else      Statement // *BlockStmt or *IfStmt, nil if absent
}

func (s *IfStmt) statementNode()     {}
func (s *IfStmt) TokenLiteral() string { return s.Token.Literal }
func (s *IfStmt) String() string {
	if s.Else != nil {
		return fmt.Sprintf("if (%s) %s else %s", s.Condition, s.Then, s.Else)
	}
	return fmt.Sprintf("if (%s) %s", s.Condition, s.Then)
}

type WhileStmt struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStmt
}

func (s *WhileStmt) statementNode()     {}
func (s *WhileStmt) TokenLiteral() string { return s.Token.Literal }
func (s *WhileStmt) String() string       { return fmt.Sprintf("while (%s) %s", s.Condition, s.Body) }

// ForStmt is `for (name : collection) body`, desugared by the compiler
// into the next/nextValue iteration protocol.
type ForStmt struct {
	Token      token.Token
	Name       string
	Collection Expression
	Body       *BlockStmt
}

func (s *ForStmt) statementNode()     {}
func (s *ForStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ForStmt) String() string {
	return fmt.Sprintf("for (%s : %s) %s", s.Name, s.Collection, s.Body)
}

type BreakStmt struct{ Token token.Token }

func (s *BreakStmt) statementNode()     {}
func (s *BreakStmt) TokenLiteral() string { return s.Token.Literal }
func (s *BreakStmt) String() string       { return "break;" }

type ContinueStmt struct{ Token token.Token }

func (s *ContinueStmt) statementNode()     {}
func (s *ContinueStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ContinueStmt) String() string       { return "continue;" }

type ReturnStmt struct {
	Token token.Token
	Value Expression // nil for bare `return;`
}

func (s *ReturnStmt) statementNode()     {}
func (s *ReturnStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ReturnStmt) String() string {
	if s.Value != nil {
		return fmt.Sprintf("return %s;", s.Value)
	}
	return "return;"
}

type ThrowStmt struct {
	Token token.Token
	Value Expression
}

func (s *ThrowStmt) statementNode()     {}
func (s *ThrowStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ThrowStmt) String() string       { return fmt.Sprintf("throw %s;", s.Value) }

// CatchClause binds the thrown value to Name when it matches ClassName.
type CatchClause struct {
	ClassName string
	Name      string
	Body      *BlockStmt
}

type TryStmt struct {
	Token   token.Token
	Body    *BlockStmt
	Catches []CatchClause
	Finally *BlockStmt // nil if absent
}

func (s *TryStmt) statementNode()     {}
func (s *TryStmt) TokenLiteral() string { return s.Token.Literal }
func (s *TryStmt) String() string       { return "try " + s.Body.String() }

type SwitchCase struct {
	Values  []Expression // empty + IsDefault for `default`
	Body    []Statement
	IsDefault bool
}

type SwitchStmt struct {
	Token   token.Token
	Subject Expression
	Cases   []SwitchCase
}

func (s *SwitchStmt) statementNode()     {}
func (s *SwitchStmt) TokenLiteral() string { return s.Token.Literal }
func (s *SwitchStmt) String() string       { return fmt.Sprintf("switch (%s) { ... }", s.Subject) }

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

type IntLiteral struct {
	Token token.Token
	Value int32
}

func (e *IntLiteral) expressionNode()   {}
func (e *IntLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *IntLiteral) String() string       { return e.Token.Literal }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (e *FloatLiteral) expressionNode()   {}
func (e *FloatLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *FloatLiteral) String() string       { return e.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) expressionNode()   {}
func (e *StringLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *StringLiteral) String() string       { return fmt.Sprintf("%q", e.Value) }

type BoolLiteral struct {
	Token token.Token
	Value bool
}

func (e *BoolLiteral) expressionNode()   {}
func (e *BoolLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *BoolLiteral) String() string       { return e.Token.Literal }

type NilLiteral struct{ Token token.Token }

func (e *NilLiteral) expressionNode()   {}
func (e *NilLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *NilLiteral) String() string       { return "nil" }

// InterpolatedString is a sequence of literal string parts interleaved with
// expressions: parts has len(Exprs)+1 entries.
type InterpolatedString struct {
	Token token.Token
	Parts []string
	Exprs []Expression
}

func (e *InterpolatedString) expressionNode()   {}
func (e *InterpolatedString) TokenLiteral() string { return e.Token.Literal }
func (e *InterpolatedString) String() string {
	var out bytes.Buffer
	out.WriteByte('"')
	for i, p := range e.Parts {
		out.WriteString(p)
		if i < len(e.Exprs) {
			out.WriteString("${")
			out.WriteString(e.Exprs[i].String())
			out.WriteString("}")
		}
	}
	out.WriteByte('"')
	return out.String()
}

type Identifier struct {
	Token token.Token
	Name  string
}

func (e *Identifier) expressionNode()   {}
func (e *Identifier) TokenLiteral() string { return e.Token.Literal }
func (e *Identifier) String() string       { return e.Name }

type ThisExpr struct{ Token token.Token }

func (e *ThisExpr) expressionNode()   {}
func (e *ThisExpr) TokenLiteral() string { return e.Token.Literal }
func (e *ThisExpr) String() string       { return "this" }

type SuperExpr struct {
	Token  token.Token
	Method string
}

func (e *SuperExpr) expressionNode()   {}
func (e *SuperExpr) TokenLiteral() string { return e.Token.Literal }
func (e *SuperExpr) String() string       { return "super." + e.Method }

type ArrayLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (e *ArrayLiteral) expressionNode()   {}
func (e *ArrayLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *ArrayLiteral) String() string {
	var parts []string
	for _, el := range e.Elements {
		parts = append(parts, el.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type DictEntry struct {
	Key   Expression
	Value Expression
}

type DictLiteral struct {
	Token   token.Token
	Entries []DictEntry
}

func (e *DictLiteral) expressionNode()   {}
func (e *DictLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *DictLiteral) String() string {
	var parts []string
	for _, en := range e.Entries {
		parts = append(parts, en.Key.String()+": "+en.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type RangeExpr struct {
	Token token.Token
	From  Expression
	To    Expression
}

func (e *RangeExpr) expressionNode()   {}
func (e *RangeExpr) TokenLiteral() string { return e.Token.Literal }
func (e *RangeExpr) String() string       { return fmt.Sprintf("%s..%s", e.From, e.To) }

type UnaryExpr struct {
	Token    token.Token
	Operator string
	Operand  Expression
}

func (e *UnaryExpr) expressionNode()   {}
func (e *UnaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *UnaryExpr) String() string       { return fmt.Sprintf("(%s%s)", e.Operator, e.Operand) }

type BinaryExpr struct {
	Token    token.Token
	Operator string
	Left     Expression
	Right    Expression
}

func (e *BinaryExpr) expressionNode()   {}
func (e *BinaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Operator, e.Right)
}

// LogicalExpr covers short-circuiting `&&`/`||`/`and`/`or`.
type LogicalExpr struct {
	Token    token.Token
	Operator string
	Left     Expression
	Right    Expression
}

func (e *LogicalExpr) expressionNode()   {}
func (e *LogicalExpr) TokenLiteral() string { return e.Token.Literal }
func (e *LogicalExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Operator, e.Right)
}

// NilCoalescingExpr is `a ?? b`. ElvisExpr is `a ?: b`. Ternary is `c ? a : b`.
type NilCoalescingExpr struct {
	Token token.Token
	Left  Expression
	Right Expression
}

func (e *NilCoalescingExpr) expressionNode()   {}
func (e *NilCoalescingExpr) TokenLiteral() string { return e.Token.Literal }
func (e *NilCoalescingExpr) String() string       { return fmt.Sprintf("(%s ?? %s)", e.Left, e.Right) }

type ElvisExpr struct {
	Token token.Token
	Left  Expression
	Right Expression
}

func (e *ElvisExpr) expressionNode()   {}
func (e *ElvisExpr) TokenLiteral() string { return e.Token.Literal }
func (e *ElvisExpr) String() string       { return fmt.Sprintf("(%s ?: %s)", e.Left, e.Right) }

type TernaryExpr struct {
	Token     token.Token
	Condition Expression
	Then      Expression
	Else      Expression
}

func (e *TernaryExpr) expressionNode()   {}
func (e *TernaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *TernaryExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Condition, e.Then, e.Else)
}

type AssignExpr struct {
	Token  token.Token
	Target Expression // Identifier, GetExpr, or SubscriptExpr
	Op     string      // "=", "+=", "-=", "*=", "/="
	Value  Expression
}

func (e *AssignExpr) expressionNode()   {}
func (e *AssignExpr) TokenLiteral() string { return e.Token.Literal }
func (e *AssignExpr) String() string       { return fmt.Sprintf("(%s %s %s)", e.Target, e.Op, e.Value) }

type CallExpr struct {
	Token    token.Token
	Callee   Expression
	Args     []Expression
	Optional bool // `callee?.(...)`-style guarded call (rare; mainly for chained optional access)
}

func (e *CallExpr) expressionNode()   {}
func (e *CallExpr) TokenLiteral() string { return e.Token.Literal }
func (e *CallExpr) String() string {
	var parts []string
	for _, a := range e.Args {
		parts = append(parts, a.String())
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(parts, ", "))
}

// GetExpr is `obj.name` or, when Optional, `obj?.name`.
type GetExpr struct {
	Token    token.Token
	Object   Expression
	Name     string
	Optional bool
}

func (e *GetExpr) expressionNode()   {}
func (e *GetExpr) TokenLiteral() string { return e.Token.Literal }
func (e *GetExpr) String() string {
	if e.Optional {
		return fmt.Sprintf("%s?.%s", e.Object, e.Name)
	}
	return fmt.Sprintf("%s.%s", e.Object, e.Name)
}

// SubscriptExpr is `obj[index]`, optionally guarded (`obj?.[index]`).
type SubscriptExpr struct {
	Token    token.Token
	Object   Expression
	Index    Expression
	Optional bool
}

func (e *SubscriptExpr) expressionNode()   {}
func (e *SubscriptExpr) TokenLiteral() string { return e.Token.Literal }
func (e *SubscriptExpr) String() string       { return fmt.Sprintf("%s[%s]", e.Object, e.Index) }

// FunExpr is a function/lambda expression; also used for methods inside
// ClassDecl.Methods (sharing Param/Modifiers machinery with FunDecl).
type FunExpr struct {
	Token     token.Token
	Name      string // "" for anonymous lambdas
	Params    []Param
	Body      *BlockStmt
	Modifiers Modifiers
}

func (e *FunExpr) expressionNode()   {}
func (e *FunExpr) TokenLiteral() string { return e.Token.Literal }
func (e *FunExpr) String() string {
	var ps []string
	for _, p := range e.Params {
		ps = append(ps, p.Name)
	}
	return fmt.Sprintf("fun(%s) %s", strings.Join(ps, ", "), e.Body)
}

type YieldExpr struct {
	Token token.Token
	Value Expression // nil for bare `yield;`
	From  bool        // `yield from expr`
}

func (e *YieldExpr) expressionNode()   {}
func (e *YieldExpr) TokenLiteral() string { return e.Token.Literal }
func (e *YieldExpr) String() string {
	if e.From {
		return fmt.Sprintf("yield from %s", e.Value)
	}
	if e.Value != nil {
		return fmt.Sprintf("yield %s", e.Value)
	}
	return "yield"
}

type AwaitExpr struct {
	Token token.Token
	Value Expression
}

func (e *AwaitExpr) expressionNode()   {}
func (e *AwaitExpr) TokenLiteral() string { return e.Token.Literal }
func (e *AwaitExpr) String() string       { return fmt.Sprintf("await %s", e.Value) }

// NewExpr is sugar for invoking a class's initializer: `new Foo(args)`.
// The resolver/compiler treat it identically to `Foo(args)` — a CALL
// dispatch over a class constructs-and-initializes.
type NewExpr struct {
	Token token.Token
	Class Expression
	Args  []Expression
}

func (e *NewExpr) expressionNode()   {}
func (e *NewExpr) TokenLiteral() string { return e.Token.Literal }
func (e *NewExpr) String() string {
	var parts []string
	for _, a := range e.Args {
		parts = append(parts, a.String())
	}
	return fmt.Sprintf("new %s(%s)", e.Class, strings.Join(parts, ", "))
}
