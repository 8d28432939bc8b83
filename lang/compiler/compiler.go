// Package compiler implements a single-pass Pratt parser that emits
// bytecode directly into a chunk.Chunk as it recognizes each construct; it
// never builds a separate parse tree (§1, §4.2). Scope resolution (which
// identifier is a local, an upvalue or a global) happens inline, the same
// way a one-pass compiler for a C-like language does it.
package compiler

import (
	"fmt"

	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/lexer"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/token"
	"github.com/mna/jacinthe/lang/value"
)

// Allocator is the slice of the embedding state a compiler needs to build
// heap objects: interned strings and function/closure records. Declared
// here rather than taken as a *vm.State to avoid vm importing compiler and
// compiler importing vm.
type Allocator interface {
	InternString(s string) value.Value
	NewFunction(fn *object.ObjFunction) *object.ObjFunction
	NewClosure(cl *object.ObjClosure) *object.ObjClosure
}

// Error is a single compile-time diagnostic with its source line.
type Error struct {
	Line    int32
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%d: %s", e.Line, e.Message) }

// ErrorList collects every diagnostic from a failed compile.
type ErrorList []*Error

func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "compile error"
	}
	s := el[0].Error()
	if len(el) > 1 {
		s += fmt.Sprintf(" (and %d more errors)", len(el)-1)
	}
	return s
}

// Compile parses and compiles source as a single top-level function named
// module and returns a ready-to-call closure over it (§4.1, §6).
func Compile(alloc Allocator, source, module string) (*object.ObjClosure, error) {
	c := &compiler{
		alloc: alloc,
		lex:   lexer.New([]byte(source), module),
	}
	c.advance()
	c.fc = newFuncState(nil, "", module, true)

	for !c.check(token.EOF) {
		c.declaration()
	}
	c.emitReturn()

	if len(c.errs) > 0 {
		return nil, c.errs
	}

	fn := c.fc.toFunction(alloc)
	top := alloc.NewFunction(fn)
	cl := alloc.NewClosure(&object.ObjClosure{Fn: top})
	return cl, nil
}

// compiler drives the token stream and the current chain of nested function
// states (one per function literal or the top level being compiled).
type compiler struct {
	alloc Allocator
	lex   *lexer.Lexer

	cur, prev       token.Token
	curVal, prevVal lexer.Value

	fc *funcState

	errs      ErrorList
	panicking bool
}

func (c *compiler) advance() {
	c.prev, c.prevVal = c.cur, c.curVal
	for {
		c.cur, c.curVal = c.lex.Scan()
		if c.cur != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.curVal.ErrMsg)
	}
}

func (c *compiler) check(t token.Token) bool { return c.cur == t }

func (c *compiler) match(t token.Token) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) expect(t token.Token, msg string) {
	if c.cur == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *compiler) errorAtCurrent(msg string) { c.errorAt(c.curVal.Pos, msg) }
func (c *compiler) errorAtPrev(msg string)    { c.errorAt(c.prevVal.Pos, msg) }

func (c *compiler) errorAt(pos token.Pos, msg string) {
	if c.panicking {
		return
	}
	c.panicking = true
	c.errs = append(c.errs, &Error{Line: int32(pos), Message: msg})
}

// synchronize discards tokens after a parse error until a likely statement
// boundary, the standard panic-mode recovery so one error doesn't cascade.
func (c *compiler) synchronize() {
	c.panicking = false
	for c.cur != token.EOF {
		if c.prev == token.SEMI {
			return
		}
		switch c.cur {
		case token.FUNCTION, token.LOCAL, token.VAR, token.FOR, token.IF,
			token.WHILE, token.RETURN, token.PROTO:
			return
		}
		c.advance()
	}
}

func (c *compiler) emitByte(b byte)        { c.fc.chunk.WriteByte(b, int32(c.prevVal.Pos)) }
func (c *compiler) emitOp(op chunk.Opcode) { c.fc.chunk.WriteOp(op, int32(c.prevVal.Pos)) }
func (c *compiler) emitU16(v uint16)       { c.fc.chunk.WriteU16(v, int32(c.prevVal.Pos)) }

func (c *compiler) emitOpU8(op chunk.Opcode, arg uint8) {
	c.emitOp(op)
	c.emitByte(arg)
}

func (c *compiler) emitOpU16(op chunk.Opcode, arg uint16) {
	c.emitOp(op)
	c.emitU16(arg)
}

func (c *compiler) emitReturn() {
	c.emitOp(chunk.NIL)
	c.emitOpU8(chunk.RETURN, 1)
}

func (c *compiler) makeConstant(v value.Value) uint16 {
	idx, err := c.fc.chunk.AddConstant(v)
	if err != nil {
		c.errorAtPrev(err.Error())
		return 0
	}
	return idx
}

func (c *compiler) identifierConstant(name string) uint16 {
	return c.makeConstant(c.alloc.InternString(name))
}

// emitJump writes a jump opcode with a placeholder operand and returns its
// byte offset, to be fixed up later by patchJump.
func (c *compiler) emitJump(op chunk.Opcode) int {
	c.emitOp(op)
	off := c.fc.chunk.Len()
	c.emitU16(0xFFFF)
	return off
}

func (c *compiler) patchJump(off int) {
	dist := c.fc.chunk.Len() - (off + 2)
	if dist > 0xFFFF {
		c.errorAtPrev("jump target too far")
		return
	}
	c.fc.chunk.PatchU16(off, uint16(dist))
}

func (c *compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.JMPBACK)
	dist := c.fc.chunk.Len() + 2 - loopStart
	if dist > 0xFFFF {
		c.errorAtPrev("loop body too large")
	}
	c.emitU16(uint16(dist))
}
