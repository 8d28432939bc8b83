package stdlib_test

import (
	"bytes"
	"testing"

	"github.com/mna/jacinthe/internal/stdlib"
	"github.com/mna/jacinthe/lang/config"
	"github.com/mna/jacinthe/lang/value"
	"github.com/mna/jacinthe/lang/vm"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) string {
	t.Helper()
	s := vm.New(config.Default())
	var out bytes.Buffer
	s.Stdout = &out
	stdlib.Open(s)
	cl, err := s.CompileString(src, "test")
	require.NoError(t, err)
	_, ok, err := s.PCall(value.Object(cl), nil, 0)
	require.True(t, ok, "unexpected runtime error: %v", err)
	return out.String()
}

func TestTypeNamesEveryKind(t *testing.T) {
	out := run(t, `
print(type(nil))
print(type(true))
print(type(1))
print(type("s"))
print(type(print))
print(type({}))
`)
	require.Equal(t, "nil\nbool\nnumber\nstring\nfunction\ntable\n", out)
}

func TestToNumberRoundTrip(t *testing.T) {
	out := run(t, `print(tonumber(tostring(3.5)) == 3.5)`)
	require.Equal(t, "true\n", out)
}

func TestToNumberRejectsGarbage(t *testing.T) {
	out := run(t, `print(tonumber("not a number"))`)
	require.Equal(t, "nil\n", out)
}

func TestLoadstringCompilesAndRuns(t *testing.T) {
	out := run(t, `
local fn = loadstring("print(41 + 1)")
fn()
`)
	require.Equal(t, "42\n", out)
}

func TestLoadstringReportsSyntaxError(t *testing.T) {
	out := run(t, `
local fn, err = loadstring("var x = ")
print(fn)
print(type(err))
`)
	require.Equal(t, "nil\nstring\n", out)
}

func TestStringFindAndSplitAndLen(t *testing.T) {
	out := run(t, `
print("hello world":find("world"))
local parts = "a,b,c":split(",")
print(parts[0])
print(parts[1])
print(parts[2])
print("hello":len())
`)
	require.Equal(t, "6\na\nb\nc\n5\n", out)
}

func TestStringFindNoMatchReturnsNil(t *testing.T) {
	out := run(t, `print("hello":find("xyz"))`)
	require.Equal(t, "nil\n", out)
}
