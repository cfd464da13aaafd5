package compiler

import (
	"github.com/vela-lang/vela/internal/ast"
	"github.com/vela-lang/vela/internal/bytecode"
)

func (c *Compiler) compileDeclaration(d ast.Declaration) {
	switch n := d.(type) {
	case *ast.FunDecl:
		c.compileFunDecl(n)
	case *ast.ClassDecl:
		c.compileClassDecl(n)
	case *ast.NamespaceDecl:
		c.compileNamespaceDecl(n)
	case *ast.UsingDecl:
		ln := line(n)
		path := n.Path[len(n.Path)-1]
		idx := c.chunk().AddIdentifier(path)
		c.emitOpUint16(bytecode.OpUsingNamespace, idx, ln)
	case *ast.RequireDecl:
		ln := line(n)
		idx := c.chunk().AddConstant(stringConst(c, n.Path))
		c.emitOpUint16(bytecode.OpRequire, idx, ln)
	case *ast.TopLevelStmt:
		c.compileStatement(n.Stmt)
	default:
		c.errorf("compiler: unsupported declaration node %T", d)
	}
}

func (c *Compiler) compileFunDecl(n *ast.FunDecl) {
	ln := line(n)
	c.declareLocal(n.Name)
	if c.current.scopeDepth > 0 {
		c.markInitialized()
	}
	c.compileFunctionLiteral(n.Name, n.Params, n.Body, n.Modifiers, ln)
	c.defineVariable(n.Name, n.Modifiers.Has(ast.ModMutable), ln)
}

// compileNamespaceDecl opens a namespace scope (declarations inside bind
// into the namespace's own table rather than the module's globals), then
// binds the finished namespace as an ordinary global under its leaf name,
// the same way a class or function declaration binds itself.
func (c *Compiler) compileNamespaceDecl(n *ast.NamespaceDecl) {
	ln := line(n)
	name := n.Path[len(n.Path)-1]
	idx := c.chunk().AddIdentifier(name)
	c.emitOpUint16(bytecode.OpNamespace, idx, ln)
	c.emitOp(bytecode.OpDeclareNamespace, ln)
	c.emitByte(byte(len(n.Path)), ln)
	for _, decl := range n.Declarations {
		c.compileDeclaration(decl)
	}
	c.emitOp(bytecode.OpGetNamespace, ln)
	c.emitByte(byte(len(n.Path)), ln)
	c.declareLocal(name)
	if c.current.scopeDepth > 0 {
		c.markInitialized()
	}
	c.defineVariable(name, false, ln)
}

func (c *Compiler) compileStatement(s ast.Statement) {
	if s == nil {
		return
	}
	ln := line(s)
	switch n := s.(type) {
	case *ast.ExprStmt:
		c.compileExpr(n.Expr)
		c.emitOp(bytecode.OpPop, ln)
	case *ast.VarStmt:
		c.compileVarStmt(n, ln)
	case *ast.BlockStmt:
		c.beginScope()
		for _, st := range n.Stmts {
			c.compileStatement(st)
		}
		c.endScope(ln)
	case *ast.IfStmt:
		c.compileIfStmt(n, ln)
	case *ast.WhileStmt:
		c.compileWhileStmt(n, ln)
	case *ast.ForStmt:
		c.compileForStmt(n, ln)
	case *ast.BreakStmt:
		c.compileBreak(ln)
	case *ast.ContinueStmt:
		c.compileContinue(ln)
	case *ast.ReturnStmt:
		c.compileReturn(n, ln)
	case *ast.ThrowStmt:
		c.compileExpr(n.Value)
		c.emitOp(bytecode.OpThrow, ln)
	case *ast.TryStmt:
		c.compileTryStmt(n, ln)
	case *ast.SwitchStmt:
		c.compileSwitchStmt(n, ln)
	default:
		c.errorf("compiler: unsupported statement node %T", s)
	}
}

func (c *Compiler) compileVarStmt(n *ast.VarStmt, ln int) {
	c.declareLocal(n.Name)
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		c.emitOp(bytecode.OpNil, ln)
	}
	c.defineVariable(n.Name, n.Modifiers.Has(ast.ModMutable), ln)
}

func (c *Compiler) compileIfStmt(n *ast.IfStmt, ln int) {
	c.compileExpr(n.Condition)
	thenJump := c.emitJump(bytecode.OpJumpIfFalse, ln)
	c.emitOp(bytecode.OpPop, ln)
	c.compileStatement(n.Then)

	if n.Else == nil {
		c.patchJump(thenJump)
		c.emitOp(bytecode.OpPop, ln)
		return
	}
	elseJump := c.emitJump(bytecode.OpJump, ln)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop, ln)
	c.compileStatement(n.Else)
	c.patchJump(elseJump)
}

func (c *Compiler) compileWhileStmt(n *ast.WhileStmt, ln int) {
	loopStart := len(c.chunk().Code)
	loop := &loopState{enclosing: c.current.loop, start: loopStart}
	c.current.loop = loop

	c.compileExpr(n.Condition)
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, ln)
	c.emitOp(bytecode.OpPop, ln)
	c.compileStatement(n.Body)
	c.emitLoop(loopStart, ln)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop, ln)
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.current.loop = loop.enclosing
}

// compileForStmt desugars `for (name : collection) body` into an
// iterator-protocol loop: an index local seeded at 0,
// `collection.next(index)` driving termination, `collection.nextValue(index)`
// producing each bound element.
func (c *Compiler) compileForStmt(n *ast.ForStmt, ln int) {
	c.beginScope()

	c.compileExpr(n.Collection)
	collSlot := c.pushTemp()

	c.emitConstant(intZero(), ln)
	idxSlot := c.pushTemp()

	loopStart := len(c.chunk().Code)
	loop := &loopState{enclosing: c.current.loop, start: loopStart}
	c.current.loop = loop

	nextIdx := c.chunk().AddIdentifier("next")
	c.emitOp(bytecode.OpGetLocal, ln)
	c.emitByte(byte(collSlot), ln)
	c.emitOp(bytecode.OpGetLocal, ln)
	c.emitByte(byte(idxSlot), ln)
	c.emitOp(bytecode.OpInvoke, ln)
	c.emitUint16(nextIdx, ln)
	c.emitByte(1, ln)
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, ln)
	c.emitOp(bytecode.OpPop, ln)

	c.beginScope()
	nextValueIdx := c.chunk().AddIdentifier("nextValue")
	c.emitOp(bytecode.OpGetLocal, ln)
	c.emitByte(byte(collSlot), ln)
	c.emitOp(bytecode.OpGetLocal, ln)
	c.emitByte(byte(idxSlot), ln)
	c.emitOp(bytecode.OpInvoke, ln)
	c.emitUint16(nextValueIdx, ln)
	c.emitByte(1, ln)
	c.declareLocal(n.Name)
	c.markInitialized()

	c.compileStatement(n.Body)
	c.endScope(ln)

	c.emitOp(bytecode.OpGetLocal, ln)
	c.emitByte(byte(idxSlot), ln)
	c.emitConstant(intOne(), ln)
	c.emitOp(bytecode.OpAdd, ln)
	c.emitOp(bytecode.OpSetLocal, ln)
	c.emitByte(byte(idxSlot), ln)
	c.emitOp(bytecode.OpPop, ln)

	c.emitLoop(loopStart, ln)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop, ln)
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.current.loop = loop.enclosing

	// collSlot/idxSlot are ordinary scope-A locals (not consumed by a
	// later opcode the way subscript-assignment temps are), so endScope
	// emits the actual OpPop instructions that drop them from the stack.
	c.endScope(ln)
}

func (c *Compiler) compileBreak(ln int) {
	if c.current.loop == nil {
		c.errorf("break outside of a loop")
		return
	}
	j := c.emitJump(bytecode.OpJump, ln)
	c.current.loop.breakJumps = append(c.current.loop.breakJumps, j)
}

func (c *Compiler) compileContinue(ln int) {
	if c.current.loop == nil {
		c.errorf("continue outside of a loop")
		return
	}
	c.emitLoop(c.current.loop.start, ln)
}

func (c *Compiler) compileReturn(n *ast.ReturnStmt, ln int) {
	if c.current.kind == kindScript {
		c.errorf("cannot return from top-level script")
	}
	if n.Value == nil {
		if c.current.kind == kindInitializer {
			c.emitOp(bytecode.OpGetLocal, ln)
			c.emitByte(0, ln)
		} else {
			c.emitOp(bytecode.OpNil, ln)
		}
	} else {
		if c.current.kind == kindInitializer {
			c.errorf("cannot return a value from an initializer")
		}
		c.compileExpr(n.Value)
	}
	if c.current.kind == kindLambda {
		depth := c.lambdaDepth()
		c.emitOp(bytecode.OpReturnNonlocal, ln)
		c.emitByte(byte(depth), ln)
		return
	}
	c.emitOp(bytecode.OpReturn, ln)
}

// lambdaDepth counts how many enclosing kindLambda frames sit between the
// current frame and the nearest kindFunction/kindMethod/kindInitializer
// ancestor, so `return` inside a lambda can unwind past it to the actual
// calling convention boundary via RETURN_NONLOCAL.
func (c *Compiler) lambdaDepth() int {
	depth := 0
	for fs := c.current; fs != nil && fs.kind == kindLambda; fs = fs.enclosing {
		depth++
	}
	return depth
}

// compileTryStmt emits TRY's reserved operand, the guarded body, and the
// catch/finally tail. Both the normal path (body completes without
// throwing) and the handler path converge on the same finally code, so
// `finally` always runs exactly once regardless of how the try exits.
// Only the first catch clause is currently reachable: the runtime binds
// every TRY to a match-any handler (see patchTryOperand), so per-clause
// exception-class dispatch among multiple catches is not yet implemented.
func (c *Compiler) compileTryStmt(n *ast.TryStmt, ln int) {
	tryOp := c.emitJump(bytecode.OpTry, ln)
	c.chunk().WriteUint16(0xFFFF, ln)
	c.chunk().WriteUint16(0xFFFF, ln)

	c.compileStatement(n.Body)
	c.emitOp(bytecode.OpEndTry, ln) // discard TRY's placeholder and retire its handler
	toFinally := c.emitJump(bytecode.OpJump, ln)

	handlerAddr := len(c.chunk().Code)
	var catchDoneJumps []int
	for i, cl := range n.Catches {
		c.beginScope()
		c.declareLocal(cl.Name)
		c.markInitialized()
		c.compileStatement(cl.Body)
		c.endScope(ln)
		if i < len(n.Catches)-1 {
			catchDoneJumps = append(catchDoneJumps, c.emitJump(bytecode.OpJump, ln))
		}
	}
	c.emitOp(bytecode.OpCatch, ln)
	for _, j := range catchDoneJumps {
		c.patchJump(j)
	}

	finallyAddr := len(c.chunk().Code)
	c.patchJump(toFinally)
	if n.Finally != nil {
		c.compileStatement(n.Finally)
	}
	c.emitOp(bytecode.OpFinally, ln)

	c.patchTryOperand(tryOp, handlerAddr, finallyAddr)
}

// patchTryOperand rewrites OpTry's reserved 6-byte operand once the
// handler and finally addresses are known. exceptionClass is always written
// as 0xFFFF, which OpTry turns into a nil class that matches any thrown
// value (see exceptionMatches in internal/vm/exceptions.go).
func (c *Compiler) patchTryOperand(tryOffset, handlerAddr, finallyAddr int) {
	chunk := c.chunk()
	chunk.PatchUint16(tryOffset, 0xFFFF)
	chunk.PatchUint16(tryOffset+2, uint16(handlerAddr))
	if finallyAddr > 0 {
		chunk.PatchUint16(tryOffset+4, uint16(finallyAddr))
	} else {
		chunk.PatchUint16(tryOffset+4, 0xFFFF)
	}
}

// compileSwitchStmt lowers the case chain to a sequence of equality tests
// against the subject, each case's values OR'd together; a case's body
// runs if any value test succeeds, after which control jumps to the
// switch's end. default's body, if present, runs only when every other
// case's tests fail, regardless of default's position in source.
func (c *Compiler) compileSwitchStmt(n *ast.SwitchStmt, ln int) {
	c.compileExpr(n.Subject)
	subjSlot := c.pushTemp()

	var endJumps []int
	var defaultCase *ast.SwitchCase
	var prevNoMatchJump = -1

	for i := range n.Cases {
		cs := &n.Cases[i]
		if cs.IsDefault {
			defaultCase = cs
			continue
		}
		if prevNoMatchJump != -1 {
			c.patchJump(prevNoMatchJump)
		}

		var bodyJumps []int
		for _, v := range cs.Values {
			c.emitOp(bytecode.OpGetLocal, ln)
			c.emitByte(byte(subjSlot), ln)
			c.compileExpr(v)
			c.emitOp(bytecode.OpEqual, ln)
			noMatch := c.emitJump(bytecode.OpJumpIfFalse, ln)
			c.emitOp(bytecode.OpPop, ln)
			bodyJumps = append(bodyJumps, c.emitJump(bytecode.OpJump, ln))
			c.patchJump(noMatch)
			c.emitOp(bytecode.OpPop, ln)
		}
		// none of this case's values matched; try the next case.
		prevNoMatchJump = c.emitJump(bytecode.OpJump, ln)

		for _, bj := range bodyJumps {
			c.patchJump(bj)
		}
		for _, st := range cs.Body {
			c.compileStatement(st)
		}
		endJumps = append(endJumps, c.emitJump(bytecode.OpJump, ln))
	}

	if prevNoMatchJump != -1 {
		c.patchJump(prevNoMatchJump)
	}
	if defaultCase != nil {
		for _, st := range defaultCase.Body {
			c.compileStatement(st)
		}
	}

	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.emitOp(bytecode.OpPop, ln)
	c.dropTemps(1)
}
