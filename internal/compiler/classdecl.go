package compiler

import (
	"github.com/vela-lang/vela/internal/ast"
	"github.com/vela-lang/vela/internal/bytecode"
)

// compileClassDecl follows the reference compiler's classDeclaration/method
// stack discipline: declare the binding, push the class, optionally wire up
// inheritance (superclass popped, subclass left on stack), apply traits
// (gaps only), then for each method compile its closure and fold it into
// the class in place, finally popping the one remaining class reference.
func (c *Compiler) compileClassDecl(n *ast.ClassDecl) {
	ln := line(n)

	c.declareLocal(n.Name)
	if c.current.scopeDepth > 0 {
		c.markInitialized()
	}
	nameIdx := c.chunk().AddIdentifier(n.Name)
	if n.IsTrait {
		c.emitOpUint16(bytecode.OpTrait, nameIdx, ln)
	} else {
		c.emitOpUint16(bytecode.OpClass, nameIdx, ln)
	}
	c.defineVariable(n.Name, false, ln)

	prevClass := c.current.class
	c.current.class = &classState{
		enclosing:     prevClass,
		name:          n.Name,
		hasSuperclass: n.Superclass != nil,
	}
	defer func() { c.current.class = prevClass }()

	if n.Superclass != nil {
		c.beginScope()
		c.addLocal("super")
		c.markInitialized()
		c.compileNameGet(n.Superclass.Name, ln)
		c.compileNameGet(n.Name, ln)
		c.emitOp(bytecode.OpInherit, ln)
	}

	c.compileNameGet(n.Name, ln)

	if len(n.Traits) > 0 {
		for _, t := range n.Traits {
			c.compileNameGet(t.Name, ln)
		}
		c.emitOp(bytecode.OpImplement, ln)
		c.emitByte(byte(len(n.Traits)), ln)
	}

	for _, m := range n.Methods {
		c.compileFunctionLiteral(m.Name, m.Params, m.Body, m.Modifiers, line(m))
		methodIdx := c.chunk().AddIdentifier(m.Name)
		if m.Modifiers.Has(ast.ModStatic) {
			c.emitOpUint16(bytecode.OpClassMethod, methodIdx, ln)
		} else {
			c.emitOpUint16(bytecode.OpInstanceMethod, methodIdx, ln)
		}
	}

	// classSlot labels the class value already on top of the stack so each
	// field default can re-fetch it as SET_PROPERTY's receiver: SET_PROPERTY
	// consumes its receiver, so without this the class would be gone after
	// the first field.
	classSlot := c.pushTemp()
	for _, f := range n.Fields {
		c.emitOp(bytecode.OpGetLocal, ln)
		c.emitByte(byte(classSlot), ln)
		if f.Default != nil {
			c.compileExpr(f.Default)
		} else {
			c.emitOp(bytecode.OpNil, ln)
		}
		fieldIdx := c.chunk().AddIdentifier(f.Name)
		c.emitOpUint16(bytecode.OpSetProperty, fieldIdx, ln)
		c.emitOp(bytecode.OpPop, ln)
	}
	c.dropTemps(1)

	c.emitOp(bytecode.OpPop, ln)
	if n.Superclass != nil {
		c.endScope(ln)
	}
}
