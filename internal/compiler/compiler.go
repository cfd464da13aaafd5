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

// Package compiler walks a resolved AST and emits bytecode.Chunk-backed
// object.Function values, single pass, in the manner of the reference
// implementation's compiler.c: no intermediate IR, nested compiler states
// forming a chain (script -> function -> ...), each tracking its own
// locals, upvalues, and scope depth.
package compiler

import (
	"fmt"

	"github.com/vela-lang/vela/internal/ast"
	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

const maxLocals = 256

// funcKind distinguishes the handful of function-compilation contexts that
// change what a bare `return` or the implicit end-of-body return emits.
type funcKind uint8

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindInitializer
	kindLambda
)

type localVar struct {
	name       string
	depth      int // -1 while being initialized (shadowing its own initializer is an error)
	isCaptured bool
}

type upvalueRef struct {
	index   int
	isLocal bool
}

// loopState tracks the information `break`/`continue` need: continue jumps
// to start (a LOOP back-edge), break patches are collected and resolved to
// the loop's exit address once known.
type loopState struct {
	enclosing  *loopState
	start      int
	breakJumps []int
}

// classState tracks the nearest enclosing class being compiled, so `this`/
// `super` resolve correctly and nested function literals know there is no
// enclosing class once they themselves are not methods.
type classState struct {
	enclosing     *classState
	name          string
	hasSuperclass bool
}

// funcState is one node in the compiler chain: one per function, method,
// or lambda body being compiled, plus the implicit top-level script.
type funcState struct {
	enclosing *funcState
	function  *object.Function
	kind      funcKind

	locals     []localVar
	upvalues   []upvalueRef
	scopeDepth int

	loop  *loopState
	class *classState
}

// Compiler drives one module's compilation from resolved AST to a
// top-level object.Function (the implicit script closure).
type Compiler struct {
	current *funcState
	module  *object.Module
	strings *object.StringTable
	errors  []error
}

// New creates a Compiler targeting module, interning string constants
// through the shared strings table (the same instance the running VM's
// heap interns runtime-created strings through).
func New(module *object.Module, strings *object.StringTable) *Compiler {
	return &Compiler{module: module, strings: strings}
}

// Compile compiles prog's declarations into the module's top-level
// function and returns it, or the accumulated compile errors.
func (c *Compiler) Compile(prog *ast.Program) (*object.Function, []error) {
	fn := object.NewFunction("<script>", 0)
	c.current = &funcState{function: fn, kind: kindScript}
	// Slot 0 is reserved for the closure being run, unused here, matching the
	// convention every compiled function follows so the interpreter's frame
	// base always points at the callee's own stack slot.
	c.addLocal("")

	for _, d := range prog.Declarations {
		c.compileDeclaration(d)
	}
	c.emitReturn()
	return fn, c.errors
}

func (c *Compiler) errorf(format string, args ...interface{}) {
	c.errors = append(c.errors, fmt.Errorf(format, args...))
}

func (c *Compiler) chunk() *bytecode.Chunk { return c.current.function.Chunk }

// ---- byte emission helpers --------------------------------------------

func (c *Compiler) emitByte(b byte, line int) int {
	return c.chunk().WriteByte(b, line)
}

func (c *Compiler) emitOp(op bytecode.Opcode, line int) int {
	return c.chunk().WriteOp(op, line)
}

func (c *Compiler) emitUint16(v uint16, line int) {
	c.chunk().WriteUint16(v, line)
}

func (c *Compiler) emitOpUint16(op bytecode.Opcode, v uint16, line int) {
	c.emitOp(op, line)
	c.emitUint16(v, line)
}

// emitJump writes op followed by a placeholder 16-bit offset, returning
// the offset to later patch with patchJump.
func (c *Compiler) emitJump(op bytecode.Opcode, line int) int {
	c.emitOp(op, line)
	return c.chunk().WriteUint16(0xFFFF, line)
}

func (c *Compiler) patchJump(offset int) {
	target := len(c.chunk().Code) - offset - 2
	if target > 0xFFFF {
		c.errorf("jump target out of range")
	}
	c.chunk().PatchUint16(offset, uint16(target))
}

// emitLoop writes a backward LOOP jump to start.
func (c *Compiler) emitLoop(start int, line int) {
	c.emitOp(bytecode.OpLoop, line)
	offset := len(c.chunk().Code) - start + 2
	if offset > 0xFFFF {
		c.errorf("loop body too large")
	}
	c.chunk().WriteUint16(uint16(offset), line)
}

func (c *Compiler) emitConstant(v value.Value, line int) {
	idx := c.chunk().AddConstant(v)
	c.emitOpUint16(bytecode.OpConstant, idx, line)
}

func (c *Compiler) emitReturn() {
	line := 0
	if c.current.kind == kindInitializer {
		c.emitOp(bytecode.OpGetLocal, line) // slot 0 is always the receiver
		c.emitByte(0, line)
	} else {
		c.emitOp(bytecode.OpNil, line)
	}
	c.emitOp(bytecode.OpReturn, line)
}

// ---- scope handling -----------------------------------------------------

func (c *Compiler) beginScope() {
	c.current.scopeDepth++
}

func (c *Compiler) endScope(line int) {
	c.current.scopeDepth--
	fs := c.current
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		last := fs.locals[len(fs.locals)-1]
		if last.isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue, line)
		} else {
			c.emitOp(bytecode.OpPop, line)
		}
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

// declareLocal registers name as a new local in the current scope (no-op
// at global scope, where names are resolved at runtime by the identifier
// pool instead of a compile-time slot).
func (c *Compiler) declareLocal(name string) {
	if c.current.scopeDepth == 0 {
		return
	}
	fs := c.current
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scopeDepth {
			break
		}
		if l.name == name {
			c.errorf("variable %q already declared in this scope", name)
			return
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.current.locals) >= maxLocals {
		c.errorf("too many local variables in function")
		return
	}
	c.current.locals = append(c.current.locals, localVar{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.current.scopeDepth == 0 {
		return
	}
	c.current.locals[len(c.current.locals)-1].depth = c.current.scopeDepth
}

// defineVariable finishes declaring name: at global scope it emits a
// DEFINE_GLOBAL_VAL/VAR consuming the value already on the stack; at local
// scope the value simply stays on the stack in its slot, and the local is
// marked initialized so resolveLocal can find it.
func (c *Compiler) defineVariable(name string, mutable bool, line int) {
	if c.current.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	idx := c.chunk().AddIdentifier(name)
	if mutable {
		c.emitOpUint16(bytecode.OpDefineGlobalVar, idx, line)
	} else {
		c.emitOpUint16(bytecode.OpDefineGlobalVal, idx, line)
	}
}

func (c *Compiler) resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				c.errorf("cannot read local %q in its own initializer", name)
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue walks the function-state chain outward, adding an
// upvalue entry (deduplicated) at every level between the defining scope
// and the use site, matching clox's addUpvalue/resolveUpvalue recursion.
func (c *Compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fs, local, true)
	}
	if up := c.resolveUpvalue(fs.enclosing, name); up != -1 {
		return c.addUpvalue(fs, up, false)
	}
	return -1
}

// pushTemp labels the value already sitting on top of the stack as an
// addressable local slot, letting later code read it again via
// OpGetLocal without recomputing the expression that produced it. Used
// for compound subscript assignment, where the object and index must be
// read once but used twice (get, then set).
func (c *Compiler) pushTemp() int {
	slot := len(c.current.locals)
	c.current.locals = append(c.current.locals, localVar{depth: c.current.scopeDepth})
	return slot
}

// dropTemps removes the bookkeeping for the last n slots pushed via
// pushTemp without emitting OpPop: callers only use this once those
// slots' values have already been consumed by a subsequent opcode.
func (c *Compiler) dropTemps(n int) {
	c.current.locals = c.current.locals[:len(c.current.locals)-n]
}

func (c *Compiler) addUpvalue(fs *funcState, index int, isLocal bool) int {
	for i, u := range fs.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fs.function.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}
