package compiler

import (
	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/token"
	"github.com/mna/jacinthe/lang/value"
)

func (c *compiler) declaration() {
	switch {
	case c.match(token.VAR), c.match(token.LOCAL):
		c.varDecl()
	case c.match(token.FUNCTION):
		c.functionDecl()
	case c.match(token.PROTO):
		c.protoDecl()
	default:
		c.statement()
	}
	if c.panicking {
		c.synchronize()
	}
}

func (c *compiler) statement() {
	switch {
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.DO):
		c.beginScope()
		c.block()
		c.endScope()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.BREAK):
		c.breakStatement()
	case c.match(token.CONTINUE):
		c.continueStatement()
	case c.match(token.SEMI):
		// empty statement
	default:
		c.expressionStatement()
	}
}

// block parses statements until `end`, consuming it.
func (c *compiler) block() {
	for !c.check(token.END) && !c.check(token.EOF) {
		c.declaration()
	}
	c.expect(token.END, "expected 'end' to close block")
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.emitOpU8(chunk.POP, 1)
	c.consumeStatementEnd()
}

func (c *compiler) consumeStatementEnd() {
	c.match(token.SEMI)
}

// trailingCallResultOperand reports the chunk offset of the nresults operand
// of a CALL/INVOKE that is the very last instruction emitted so far, or -1
// if the most recently compiled expression didn't resolve to a bare call
// (e.g. `f()` qualifies, `f() + 1` or `f().x` does not, since something else
// was emitted afterwards). Used to expand a trailing call to however many
// values a multi-value context still needs (§4.2 multi-value contract).
func (c *compiler) trailingCallResultOperand() int {
	code := c.fc.chunk.Code
	n := len(code)
	if n < 3 {
		return -1
	}
	switch chunk.Opcode(code[n-3]) {
	case chunk.CALL, chunk.INVOKE:
		return n - 1
	default:
		return -1
	}
}

// varDecl parses `var`/`local` declarations: comma-separated names, an
// optional `=`-introduced comma-separated value list. A trailing call left
// short of the declared names expands to fill them; any other shortfall is
// padded with nil, and excess values are popped (§4.2 statement forms, §4.2
// multi-value contract).
func (c *compiler) varDecl() {
	var names []string
	for {
		c.expect(token.IDENT, "expected variable name")
		names = append(names, c.prevVal.Raw)
		if !c.match(token.COMMA) {
			break
		}
	}

	nvalues := 0
	trailingCall := -1
	if c.match(token.EQ) {
		for {
			trailingCall = -1
			c.expression()
			nvalues++
			trailingCall = c.trailingCallResultOperand()
			if !c.match(token.COMMA) {
				break
			}
		}
	}

	if trailingCall >= 0 && len(names) > nvalues {
		extra := len(names) - nvalues
		c.fc.chunk.PatchByte(trailingCall, byte(1+extra))
		nvalues += extra
	}

	for len(names) > nvalues {
		c.emitOp(chunk.NIL)
		nvalues++
	}
	for nvalues > len(names) {
		c.emitOpU8(chunk.POP, 1)
		nvalues--
	}

	// Values are now on the stack in declaration order; declaring the locals
	// left-to-right makes slot i correspond to the i-th pushed value, since
	// declareLocal just claims the next free slot without emitting code.
	for _, name := range names {
		c.declareLocal(name)
	}
	c.consumeStatementEnd()
}

func (c *compiler) ifStatement() {
	c.expression()
	c.expect(token.THEN, "expected 'then' after condition")

	thenJump := c.emitJump(chunk.PEJMP)
	c.beginScope()
	for !c.check(token.END) && !c.check(token.ELSE) && !c.check(token.ELSEIF) && !c.check(token.EOF) {
		c.declaration()
	}
	c.endScope()

	endJumps := []int{c.emitJump(chunk.JMP)}
	c.patchJump(thenJump)

	for c.match(token.ELSEIF) {
		c.expression()
		c.expect(token.THEN, "expected 'then' after condition")
		nextJump := c.emitJump(chunk.PEJMP)
		c.beginScope()
		for !c.check(token.END) && !c.check(token.ELSE) && !c.check(token.ELSEIF) && !c.check(token.EOF) {
			c.declaration()
		}
		c.endScope()
		endJumps = append(endJumps, c.emitJump(chunk.JMP))
		c.patchJump(nextJump)
	}

	if c.match(token.ELSE) {
		c.beginScope()
		for !c.check(token.END) && !c.check(token.EOF) {
			c.declaration()
		}
		c.endScope()
	}
	c.expect(token.END, "expected 'end' to close if")

	for _, j := range endJumps {
		c.patchJump(j)
	}
}

func (c *compiler) whileStatement() {
	loop := c.pushLoop()
	loopStart := c.fc.chunk.Len()
	loop.start = loopStart

	c.expression()
	c.expect(token.DO, "expected 'do' after condition")
	exitJump := c.emitJump(chunk.PEJMP)

	c.beginScope()
	for !c.check(token.END) && !c.check(token.EOF) {
		c.declaration()
	}
	c.endScope()
	c.expect(token.END, "expected 'end' to close while")

	c.emitLoop(loopStart)
	c.patchJump(exitJump)

	for _, b := range loop.breaks {
		c.patchJump(b)
	}
	c.popLoop()
}

// forStatement parses both the C-style `for (init; cond; step) do ... end`
// and the iterator `for IDENT [, IDENT...] in EXPR do ... end` (§4.2, §4.4).
func (c *compiler) forStatement() {
	if c.check(token.LPAREN) {
		c.cStyleFor()
		return
	}
	c.forInStatement()
}

func (c *compiler) cStyleFor() {
	c.expect(token.LPAREN, "expected '(' after 'for'")
	c.beginScope()

	if !c.check(token.SEMI) {
		c.varDecl()
	} else {
		c.advance() // consume ';'
	}

	loop := c.pushLoop()
	loopStart := c.fc.chunk.Len()
	loop.start = loopStart

	exitJump := -1
	if !c.check(token.SEMI) {
		c.expression()
		exitJump = c.emitJump(chunk.PEJMP)
	}
	c.expect(token.SEMI, "expected ';' after loop condition")

	if !c.check(token.RPAREN) {
		bodyJump := c.emitJump(chunk.JMP)
		incrStart := c.fc.chunk.Len()
		c.expressionStatementNoSemi()
		c.emitLoop(loopStart)
		loopStart = incrStart
		loop.start = loopStart
		c.patchJump(bodyJump)
	}
	c.expect(token.RPAREN, "expected ')' after for clauses")
	c.expect(token.DO, "expected 'do' after for clauses")

	for !c.check(token.END) && !c.check(token.EOF) {
		c.declaration()
	}
	c.expect(token.END, "expected 'end' to close for")

	c.emitLoop(loopStart)
	if exitJump != -1 {
		c.patchJump(exitJump)
	}
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
	c.popLoop()
	c.endScope()
}

func (c *compiler) expressionStatementNoSemi() {
	c.expression()
	c.emitOpU8(chunk.POP, 1)
}

// forInStatement compiles the iterator protocol loop (§4.4): ITER converts
// the iterable to an iterator state, and NEXT calls its __next each pass,
// exiting when the first returned value is nil.
func (c *compiler) forInStatement() {
	c.beginScope()

	var names []string
	for {
		c.expect(token.IDENT, "expected loop variable name")
		names = append(names, c.prevVal.Raw)
		if !c.match(token.COMMA) {
			break
		}
	}
	c.expect(token.IN, "expected 'in' in for-in loop")
	c.expression()
	c.expect(token.DO, "expected 'do' after for-in expression")

	c.emitOp(chunk.ITER)

	loop := c.pushLoop()
	loopStart := c.fc.chunk.Len()
	loop.start = loopStart

	c.emitOp(chunk.NEXT)
	c.emitByte(uint8(len(names)))
	exitJump := c.fc.chunk.Len()
	c.emitU16(0xFFFF)

	c.beginScope()
	for _, name := range names {
		c.declareLocal(name)
	}
	for !c.check(token.END) && !c.check(token.EOF) {
		c.declaration()
	}
	c.endScope()
	c.expect(token.END, "expected 'end' to close for-in")

	c.emitLoop(loopStart)

	// A break leaves the iterator state on the stack, so breaks land on a POP
	// that drops it; NEXT pops the iterator itself once it is exhausted, so
	// its exit jump lands just past that POP.
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
	c.emitOpU8(chunk.POP, 1)
	dist := c.fc.chunk.Len() - (exitJump + 2)
	if dist > 0xFFFF {
		c.errorAtPrev("loop body too large")
	} else {
		c.fc.chunk.PatchU16(exitJump, uint16(dist))
	}
	c.popLoop()
	c.endScope()
}

func (c *compiler) breakStatement() {
	loop := c.currentLoop()
	if loop == nil {
		c.errorAtPrev("'break' outside a loop")
		return
	}
	c.popLocalsToDepth(loop.scopeDepth)
	loop.breaks = append(loop.breaks, c.emitJump(chunk.JMP))
	c.consumeStatementEnd()
}

func (c *compiler) continueStatement() {
	loop := c.currentLoop()
	if loop == nil {
		c.errorAtPrev("'continue' outside a loop")
		return
	}
	c.popLocalsToDepth(loop.scopeDepth)
	c.emitLoop(loop.start)
	c.consumeStatementEnd()
}

// popLocalsToDepth emits POP/CLOSE for every local declared more deeply
// than depth, without actually removing them from funcState.locals (the
// enclosing block's own endScope still owns that bookkeeping); used by
// break/continue to keep the operand stack height correct across the jump.
func (c *compiler) popLocalsToDepth(depth int) {
	fs := c.fc
	for i := len(fs.locals) - 1; i >= 0 && fs.locals[i].depth > depth; i-- {
		if fs.locals[i].captured {
			c.emitOp(chunk.CLOSE)
		} else {
			c.emitOpU8(chunk.POP, 1)
		}
	}
}

// returnStatement parses `return [expr [, expr...]]` (§4.2).
func (c *compiler) returnStatement() {
	if c.check(token.SEMI) || c.check(token.END) || c.check(token.EOF) ||
		c.check(token.ELSE) || c.check(token.ELSEIF) {
		c.emitOp(chunk.NIL)
		c.emitOpU8(chunk.RETURN, 1)
		c.consumeStatementEnd()
		return
	}
	n := 0
	for {
		c.expression()
		n++
		if !c.match(token.COMMA) {
			break
		}
	}
	if n > 255 {
		c.errorAtPrev("too many return values")
	}
	c.emitOpU8(chunk.RETURN, uint8(n))
	c.consumeStatementEnd()
}

// functionDecl parses `function name(params) ... end`, binding name in the
// enclosing scope (local if inside one, else global) to the new closure.
func (c *compiler) functionDecl() {
	c.expect(token.IDENT, "expected function name")
	name := c.prevVal.Raw

	if c.fc.scopeDepth > 0 {
		slot := c.declareLocal(name)
		c.compileFunction(name, false)
		if slot >= 0 {
			c.emitOpU8(chunk.SETLOCAL, uint8(slot))
			c.emitOpU8(chunk.POP, 1)
		}
		return
	}
	nameIdx := c.identifierConstant(name)
	c.compileFunction(name, false)
	c.emitOpU16(chunk.SETGLOBAL, nameIdx)
	c.emitOpU8(chunk.POP, 1)
}

// protoDecl parses `proto Name ... end`, building an Object whose fields
// are the nested method closures, bound to Name as a global (§4.2, §4.4).
func (c *compiler) protoDecl() {
	c.expect(token.IDENT, "expected proto name")
	name := c.prevVal.Raw
	nameIdx := c.identifierConstant(name)

	n := uint16(0)
	for !c.check(token.END) && !c.check(token.EOF) {
		c.expect(token.FUNCTION, "expected method definition in proto body")
		c.expect(token.IDENT, "expected method name")
		methodName := c.prevVal.Raw
		methodIdx := c.identifierConstant(methodName)
		c.emitOpU16(chunk.LOADCONST, methodIdx)
		c.compileFunction(methodName, true)
		n++
	}
	c.expect(token.END, "expected 'end' to close proto")

	c.emitOpU16(chunk.NEWOBJECT, n)
	c.emitOpU16(chunk.SETGLOBAL, nameIdx)
	c.emitOpU8(chunk.POP, 1)
}

// compileFunction parses a parameter list and body (the compiler is
// positioned right after the function name, if any, at the opening '(')
// and emits a CLOSURE instruction into the enclosing chunk that leaves the
// new closure on the stack. isMethod names local slot 0 `self`, the bound
// receiver (§4.2: "slot 0 ... in a method it holds the bound receiver").
func (c *compiler) compileFunction(name string, isMethod bool) {
	enclosing := c.fc
	fs := newFuncState(enclosing, name, enclosing.module, false)
	if isMethod {
		// Slot 0 is the bound receiver rather than the usual self-reference
		// slot; it is never written in the source parameter list, and counts
		// towards arity since INVOKE always passes it as the first argument.
		fs.locals[0].name = "self"
		fs.arity = 1
		fs.isMethod = true
	}
	c.fc = fs

	c.expect(token.LPAREN, "expected '(' after function name")
	if !c.check(token.RPAREN) {
		for {
			if c.match(token.DOTDOTDOT) {
				fs.variadic = true
				c.declareLocal("...")
				break
			}
			c.expect(token.IDENT, "expected parameter name")
			if isMethod && len(fs.locals) == 1 && c.prevVal.Raw == "self" {
				// An explicit leading `self` names the receiver already bound
				// to slot 0; it adds no parameter.
				if !c.match(token.COMMA) {
					break
				}
				continue
			}
			c.declareLocal(c.prevVal.Raw)
			fs.arity++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.expect(token.RPAREN, "expected ')' after parameters")

	for !c.check(token.END) && !c.check(token.EOF) {
		c.declaration()
	}
	c.expect(token.END, "expected 'end' to close function body")
	c.emitReturn()

	fn := fs.toFunction(c.alloc)
	upvalues := fs.upvalues
	c.fc = enclosing

	tracked := c.alloc.NewFunction(fn)
	fnIdx := c.makeConstant(value.Object(tracked))
	c.emitOpU16(chunk.CLOSURE, fnIdx)

	// Inline capture directives: one (GETLOCAL|GETUPVAL, index) pair per
	// upvalue the new function closes over, consumed by CLOSURE itself, not
	// dispatched as ordinary instructions (§4.3 CLOSURE).
	for _, uv := range upvalues {
		if uv.fromLocal {
			c.emitOp(chunk.GETLOCAL)
		} else {
			c.emitOp(chunk.GETUPVAL)
		}
		c.emitByte(uv.index)
	}
}
