package compiler

import "github.com/mna/jacinthe/lang/token"

type precedence int

const (
	precNone precedence = iota
	precAssignment
	precConcat
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Token]parseRule

func init() {
	rules = map[token.Token]parseRule{
		token.LPAREN:     {prefix: grouping, infix: call, precedence: precCall},
		token.LBRACE:     {prefix: dictLiteral},
		token.LBRACK:     {infix: index, precedence: precCall},
		token.DOT:        {infix: dot, precedence: precCall},
		token.COLON:      {infix: invoke, precedence: precCall},
		token.MINUS:      {prefix: unary, infix: binary, precedence: precTerm},
		token.PLUS:       {infix: binary, precedence: precTerm},
		token.SLASH:      {infix: binary, precedence: precFactor},
		token.STAR:       {infix: binary, precedence: precFactor},
		token.PERCENT:    {infix: binary, precedence: precFactor},
		token.BANG:       {prefix: unary},
		token.NOT:        {prefix: unary},
		token.HASH:       {prefix: unary},
		token.DOTDOT:     {infix: concat, precedence: precConcat},
		token.NUMBER:     {prefix: number},
		token.STRING:     {prefix: stringLiteral},
		token.NIL:        {prefix: literal},
		token.TRUE:       {prefix: literal},
		token.FALSE:      {prefix: literal},
		token.IDENT:      {prefix: variable},
		token.AND:        {infix: and_, precedence: precAnd},
		token.OR:         {infix: or_, precedence: precOr},
		token.EQEQ:       {infix: binary, precedence: precEquality},
		token.BANGEQ:     {infix: binary, precedence: precEquality},
		token.LT:         {infix: binary, precedence: precComparison},
		token.GT:         {infix: binary, precedence: precComparison},
		token.LE:         {infix: binary, precedence: precComparison},
		token.GE:         {infix: binary, precedence: precComparison},
		token.FUNCTION:   {prefix: functionLiteral},
		token.PLUSPLUS:   {prefix: prefixIncr},
		token.MINUSMINUS: {prefix: prefixIncr},
	}
}

func getRule(t token.Token) parseRule { return rules[t] }

func (c *compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := getRule(c.prev)
	if rule.prefix == nil {
		c.errorAtPrev("expected expression")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= getRule(c.cur).precedence {
		c.advance()
		infix := getRule(c.prev).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.errorAtPrev("invalid assignment target")
	}
}
