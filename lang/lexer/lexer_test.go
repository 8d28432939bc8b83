package lexer_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/lexer"
	"github.com/mna/jacinthe/lang/token"
	"github.com/stretchr/testify/require"
)

type tok struct {
	tok token.Token
	raw string
}

func scanAll(t *testing.T, src string) []tok {
	t.Helper()
	l := lexer.New([]byte(src), "test")
	var toks []tok
	for {
		tk, v := l.Scan()
		toks = append(toks, tok{tk, v.Raw})
		if tk == token.EOF {
			return toks
		}
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll(t, "local x = foo_bar and while1")
	require.Equal(t, []tok{
		{token.LOCAL, "local"},
		{token.IDENT, "x"},
		{token.EQ, "="},
		{token.IDENT, "foo_bar"},
		{token.AND, "and"},
		{token.IDENT, "while1"},
		{token.EOF, ""},
	}, toks)
}

func TestNumberLiterals(t *testing.T) {
	l := lexer.New([]byte("123 1.5 1e10 1.5e+3 1e"), "test")

	tk, v := l.Scan()
	require.Equal(t, token.NUMBER, tk)
	require.Equal(t, float64(123), v.Num)

	tk, v = l.Scan()
	require.Equal(t, token.NUMBER, tk)
	require.Equal(t, 1.5, v.Num)

	tk, v = l.Scan()
	require.Equal(t, token.NUMBER, tk)
	require.Equal(t, 1e10, v.Num)

	tk, v = l.Scan()
	require.Equal(t, token.NUMBER, tk)
	require.Equal(t, 1.5e+3, v.Num)

	// "1e" has no digits after the exponent marker, so it rewinds: the
	// number ends at "1" and "e" is scanned as its own identifier.
	tk, v = l.Scan()
	require.Equal(t, token.NUMBER, tk)
	require.Equal(t, float64(1), v.Num)

	tk, v = l.Scan()
	require.Equal(t, token.IDENT, tk)
	require.Equal(t, "e", v.Raw)

	tk, _ = l.Scan()
	require.Equal(t, token.EOF, tk)
}

func TestStringLiteralEscapes(t *testing.T) {
	l := lexer.New([]byte(`"hello\nworld\t\"quoted\""`), "test")
	tk, v := l.Scan()
	require.Equal(t, token.STRING, tk)
	require.Equal(t, "hello\nworld\t\"quoted\"", v.Str)
}

func TestUnterminatedStringIsIllegal(t *testing.T) {
	l := lexer.New([]byte(`"no closing quote`), "test")
	tk, v := l.Scan()
	require.Equal(t, token.ILLEGAL, tk)
	require.Contains(t, v.ErrMsg, "unterminated string literal")
}

func TestInvalidEscapeIsIllegal(t *testing.T) {
	l := lexer.New([]byte(`"bad\qescape"`), "test")
	tk, v := l.Scan()
	require.Equal(t, token.ILLEGAL, tk)
	require.Contains(t, v.ErrMsg, "invalid escape sequence")
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := scanAll(t, "1 // a line comment\n/* a\nblock comment */ 2")
	require.Equal(t, []tok{
		{token.NUMBER, "1"},
		{token.NUMBER, "2"},
		{token.EOF, ""},
	}, toks)
}

func TestOperatorsAndPunctuation(t *testing.T) {
	toks := scanAll(t, "+ ++ - -- == = != ! <= < >= > .. ... .")
	require.Equal(t, []tok{
		{token.PLUS, "+"},
		{token.PLUSPLUS, "++"},
		{token.MINUS, "-"},
		{token.MINUSMINUS, "--"},
		{token.EQEQ, "=="},
		{token.EQ, "="},
		{token.BANGEQ, "!="},
		{token.BANG, "!"},
		{token.LE, "<="},
		{token.LT, "<"},
		{token.GE, ">="},
		{token.GT, ">"},
		{token.DOTDOT, ".."},
		{token.DOTDOTDOT, "..."},
		{token.DOT, "."},
		{token.EOF, ""},
	}, toks)
}

func TestIllegalCharacter(t *testing.T) {
	l := lexer.New([]byte("$"), "test")
	tk, v := l.Scan()
	require.Equal(t, token.ILLEGAL, tk)
	require.Contains(t, v.ErrMsg, "illegal character")
}

func TestLinePositionTracksNewlines(t *testing.T) {
	l := lexer.New([]byte("a\nb\n\nc"), "test")
	_, v := l.Scan()
	require.Equal(t, token.Pos(1), v.Pos)
	_, v = l.Scan()
	require.Equal(t, token.Pos(2), v.Pos)
	_, v = l.Scan()
	require.Equal(t, token.Pos(4), v.Pos)
}
