package compiler

import (
	"strconv"

	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/token"
	"github.com/mna/jacinthe/lang/value"
)

func number(c *compiler, _ bool) {
	n, err := strconv.ParseFloat(c.prevVal.Raw, 64)
	if err != nil {
		c.errorAtPrev("invalid number literal: " + c.prevVal.Raw)
		return
	}
	idx := c.makeConstant(value.Number(n))
	c.emitOpU16(chunk.LOADCONST, idx)
}

func stringLiteral(c *compiler, _ bool) {
	idx := c.makeConstant(c.alloc.InternString(c.prevVal.Str))
	c.emitOpU16(chunk.LOADCONST, idx)
}

func literal(c *compiler, _ bool) {
	switch c.prev {
	case token.NIL:
		c.emitOp(chunk.NIL)
	case token.TRUE:
		c.emitOp(chunk.TRUE)
	case token.FALSE:
		c.emitOp(chunk.FALSE)
	}
}

func grouping(c *compiler, _ bool) {
	c.expression()
	c.expect(token.RPAREN, "expected ')' after expression")
}

// dictLiteral parses `{ k = v, ... }` or `{ [expr] = expr, ... }` table
// literals, emitting NEWDICT (§4.3).
func dictLiteral(c *compiler, _ bool) {
	n := uint16(0)
	if !c.check(token.RBRACE) {
		for {
			if c.check(token.RBRACE) {
				break
			}
			if c.match(token.LBRACK) {
				c.expression()
				c.expect(token.RBRACK, "expected ']' after computed key")
			} else {
				c.expect(token.IDENT, "expected field name")
				idx := c.identifierConstant(c.prevVal.Raw)
				c.emitOpU16(chunk.LOADCONST, idx)
			}
			c.expect(token.EQ, "expected '=' after table key")
			c.expression()
			n++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.expect(token.RBRACE, "expected '}' to close table literal")
	c.emitOpU16(chunk.NEWDICT, n)
}

// argumentList parses a parenthesized or bare call argument list already
// positioned past the opening token, returning the argument count.
func (c *compiler) argumentList(closing token.Token) uint8 {
	n := 0
	if !c.check(closing) {
		for {
			c.expression()
			n++
			if n > 255 {
				c.errorAtPrev("too many arguments")
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.expect(closing, "expected ')' after arguments")
	return uint8(n)
}

func call(c *compiler, _ bool) {
	nargs := c.argumentList(token.RPAREN)
	c.emitOp(chunk.CALL)
	c.emitByte(nargs)
	c.emitByte(1) // default to a single result; statement context may request more
}

func index(c *compiler, canAssign bool) {
	c.expression()
	c.expect(token.RBRACK, "expected ']' after index")
	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOp(chunk.NEWINDEX)
		return
	}
	c.emitOp(chunk.INDEX)
}

func dot(c *compiler, canAssign bool) {
	c.expect(token.IDENT, "expected field name after '.'")
	idx := c.identifierConstant(c.prevVal.Raw)
	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpU16(chunk.SETOBJECT, idx)
		return
	}
	c.emitOpU16(chunk.GETOBJECT, idx)
}

// invoke parses `recv:name(args...)`, the method-call syntax that compiles
// to INVOKE: self is already on the stack, followed by the name constant,
// then the arguments (§4.3 INVOKE).
func invoke(c *compiler, _ bool) {
	c.expect(token.IDENT, "expected method name after ':'")
	nameIdx := c.identifierConstant(c.prevVal.Raw)
	c.emitOpU16(chunk.LOADCONST, nameIdx)
	c.expect(token.LPAREN, "expected '(' after method name")
	nargs := c.argumentList(token.RPAREN)
	c.emitOp(chunk.INVOKE)
	c.emitByte(nargs)
	c.emitByte(1)
}

func unary(c *compiler, _ bool) {
	op := c.prev
	c.parsePrecedence(precUnary)
	switch op {
	case token.MINUS:
		c.emitOp(chunk.NEGATE)
	case token.BANG, token.NOT:
		c.emitOp(chunk.NOT)
	case token.HASH:
		c.emitOp(chunk.COUNT)
	}
}

func binary(c *compiler, _ bool) {
	op := c.prev
	rule := getRule(op)
	c.parsePrecedence(rule.precedence + 1)
	switch op {
	case token.PLUS:
		c.emitOp(chunk.ADD)
	case token.MINUS:
		c.emitOp(chunk.SUB)
	case token.STAR:
		c.emitOp(chunk.MULT)
	case token.SLASH:
		c.emitOp(chunk.DIV)
	case token.PERCENT:
		c.emitOp(chunk.MOD)
	case token.EQEQ:
		c.emitOp(chunk.EQUAL)
	case token.BANGEQ:
		c.emitOp(chunk.EQUAL)
		c.emitOp(chunk.NOT)
	case token.LT:
		c.emitOp(chunk.LESS)
	case token.GT:
		c.emitOp(chunk.GREATER)
	case token.LE:
		c.emitOp(chunk.LESS_EQUAL)
	case token.GE:
		c.emitOp(chunk.GREATER_EQUAL)
	}
}

// concat parses the right-associative `..` chain, flattening any run of
// concat operands into a single CONCAT u8 (§4.3).
func concat(c *compiler, _ bool) {
	n := uint8(2)
	c.parsePrecedence(precConcat + 1)
	for c.check(token.DOTDOT) {
		c.advance()
		c.parsePrecedence(precConcat + 1)
		n++
	}
	c.emitOpU8(chunk.CONCAT, n)
}

func and_(c *compiler, _ bool) {
	endJump := c.emitJump(chunk.EJMP)
	c.emitOpU8(chunk.POP, 1)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *compiler, _ bool) {
	elseJump := c.emitJump(chunk.EJMP)
	endJump := c.emitJump(chunk.JMP)
	c.patchJump(elseJump)
	c.emitOpU8(chunk.POP, 1)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

// variable resolves an identifier reference: local, upvalue, or global, and
// handles simple assignment and increment forms (§4.2 name resolution).
func variable(c *compiler, canAssign bool) {
	name := c.prevVal.Raw
	if c.check(token.PLUSPLUS) || c.check(token.MINUSMINUS) {
		delta := int8(1)
		if c.cur == token.MINUSMINUS {
			delta = -1
		}
		c.advance()
		emitIncrement(c, name, delta, true)
		return
	}
	namedVariable(c, name, canAssign)
}

func namedVariable(c *compiler, name string, canAssign bool) {
	fs := c.fc
	if slot := resolveLocal(fs, name); slot != -1 {
		if canAssign && c.match(token.EQ) {
			c.expression()
			c.emitOpU8(chunk.SETLOCAL, uint8(slot))
			return
		}
		c.emitOpU8(chunk.GETLOCAL, uint8(slot))
		return
	}
	if idx := resolveUpvalue(fs, name); idx != -1 {
		if canAssign && c.match(token.EQ) {
			c.expression()
			c.emitOpU8(chunk.SETUPVAL, uint8(idx))
			return
		}
		c.emitOpU8(chunk.GETUPVAL, uint8(idx))
		return
	}
	nameIdx := c.identifierConstant(name)
	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpU16(chunk.SETGLOBAL, nameIdx)
		return
	}
	c.emitOpU16(chunk.GETGLOBAL, nameIdx)
}

// prefixIncr parses `++x`, `--x`, and the single-level field/index forms
// `++x.field`, `++x[expr]` (§4.2 increment forms). Deeper chains (`++a.b.c`)
// are not supported: duplicating an arbitrary receiver without a stack DUP
// instruction would require re-evaluating it, which a single-pass compiler
// cannot safely do when the receiver has side effects.
func prefixIncr(c *compiler, _ bool) {
	op := c.prev
	delta := int8(1)
	if op == token.MINUSMINUS {
		delta = -1
	}
	c.expect(token.IDENT, "expected variable after increment operator")
	base := c.prevVal.Raw

	switch {
	case c.match(token.DOT):
		c.expect(token.IDENT, "expected field name after '.'")
		nameIdx := c.identifierConstant(c.prevVal.Raw)
		namedVariable(c, base, false)
		biased := uint8(128 + int(delta))
		c.emitOp(chunk.INCOBJECT)
		c.emitByte(biased)
		c.emitU16(nameIdx)
	case c.match(token.LBRACK):
		namedVariable(c, base, false)
		c.expression()
		c.expect(token.RBRACK, "expected ']' after index")
		c.emitOp(chunk.INCINDEX)
		c.emitByte(uint8(128 + int(delta)))
	default:
		emitIncrement(c, base, delta, false)
	}
}

// functionLiteral parses an anonymous `function(params) ... end` expression
// and emits it as a CLOSURE (§4.2, §4.3 CLOSURE).
func functionLiteral(c *compiler, _ bool) {
	c.compileFunction("", false)
}

// emitIncrement emits the INC* family instruction for name with the given
// signed delta, loading the target just before it (postfix) or just after
// it (prefix) so the expression always leaves exactly one value on the
// stack: the pre-increment value for postfix use, the post-increment value
// for prefix use (§4.2 increment forms: the biased-delta encoding is
// 128+delta).
func emitIncrement(c *compiler, name string, delta int8, postfix bool) {
	biased := uint8(128 + int(delta))
	fs := c.fc
	if slot := resolveLocal(fs, name); slot != -1 {
		if postfix {
			c.emitOpU8(chunk.GETLOCAL, uint8(slot))
		}
		c.emitOp(chunk.INCLOCAL)
		c.emitByte(biased)
		c.emitByte(uint8(slot))
		if !postfix {
			c.emitOpU8(chunk.GETLOCAL, uint8(slot))
		}
		return
	}
	if idx := resolveUpvalue(fs, name); idx != -1 {
		if postfix {
			c.emitOpU8(chunk.GETUPVAL, uint8(idx))
		}
		c.emitOp(chunk.INCUPVAL)
		c.emitByte(biased)
		c.emitByte(uint8(idx))
		if !postfix {
			c.emitOpU8(chunk.GETUPVAL, uint8(idx))
		}
		return
	}
	nameIdx := c.identifierConstant(name)
	if postfix {
		c.emitOpU16(chunk.GETGLOBAL, nameIdx)
	}
	c.emitOp(chunk.INCGLOBAL)
	c.emitByte(biased)
	c.emitU16(nameIdx)
	if !postfix {
		c.emitOpU16(chunk.GETGLOBAL, nameIdx)
	}
}
