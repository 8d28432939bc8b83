package vm_test

import (
	"bytes"
	"testing"

	"github.com/mna/jacinthe/internal/stdlib"
	"github.com/mna/jacinthe/lang/config"
	"github.com/mna/jacinthe/lang/value"
	"github.com/mna/jacinthe/lang/vm"
	"github.com/stretchr/testify/require"
)

// newState builds a ready-to-run State with the standard library installed
// and stdout captured into the returned buffer.
func newState() (*vm.State, *bytes.Buffer) {
	s := vm.New(config.Default())
	var out bytes.Buffer
	s.Stdout = &out
	stdlib.Open(s)
	return s, &out
}

func run(t *testing.T, src string) string {
	t.Helper()
	s, out := newState()
	cl, err := s.CompileString(src, "test")
	require.NoError(t, err)
	_, ok, err := s.PCall(value.Object(cl), nil, 0)
	require.True(t, ok, "unexpected runtime error: %v", err)
	require.NoError(t, err)
	return out.String()
}

func TestArithmeticPrecedence(t *testing.T) {
	out := run(t, `print(1+2*3)`)
	require.Equal(t, "7\n", out)
}

func TestClosureCapturesMutableLocal(t *testing.T) {
	src := `
function counter()
  local n = 0
  function inc()
    n = n + 1
    return n
  end
  return inc
end
local c1 = counter()
print(c1())
print(c1())
print(c1())
`
	out := run(t, src)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestIndependentClosuresDoNotShareState(t *testing.T) {
	src := `
function counter()
  local n = 0
  function inc()
    n = n + 1
    return n
  end
  return inc
end
local a = counter()
local b = counter()
print(a())
print(a())
print(b())
`
	out := run(t, src)
	require.Equal(t, "1\n2\n1\n", out)
}

func TestPlainFunctionReceivesEachArgumentInItsOwnSlot(t *testing.T) {
	src := `
function add(a, b)
  return a + b
end
print(add(3, 4))
`
	out := run(t, src)
	require.Equal(t, "7\n", out)
}

func TestPlainFunctionVariadicTailCollectsExtraArgs(t *testing.T) {
	src := `
function first(a, ...)
  return a
end
print(first(1, 2, 3))
`
	out := run(t, src)
	require.Equal(t, "1\n", out)
}

func TestPrefixIncrementYieldsUpdatedValue(t *testing.T) {
	src := `
local x = 1
local y = ++x
print(x)
print(y)
`
	out := run(t, src)
	require.Equal(t, "2\n2\n", out)
}

func TestPrefixIncrementAsBareStatementDoesNotUnderflowStack(t *testing.T) {
	src := `
local x = 1
++x
print(x)
`
	out := run(t, src)
	require.Equal(t, "2\n", out)
}

func TestPostfixIncrementYieldsPreIncrementValue(t *testing.T) {
	src := `
local x = 1
print(x++)
print(x)
`
	out := run(t, src)
	require.Equal(t, "1\n2\n", out)
}

func TestVarDeclExpandsTrailingCallToDeclaredNames(t *testing.T) {
	src := `
function pair()
  return 1, 2
end
local a, b = pair()
print(a)
print(b)
`
	out := run(t, src)
	require.Equal(t, "1\n2\n", out)
}

func TestVarDeclPadsMissingTrailingCallResultsWithNil(t *testing.T) {
	src := `
function one()
  return 1
end
local a, b, c = one()
print(a)
print(type(b))
print(type(c))
`
	out := run(t, src)
	require.Equal(t, "1\nnil\nnil\n", out)
}

func TestVarDeclDoesNotExpandNonTrailingCall(t *testing.T) {
	src := `
function pair()
  return 1, 2
end
local a, b = pair(), 9
print(a)
print(b)
`
	out := run(t, src)
	require.Equal(t, "1\n9\n", out)
}

func TestProtoConstructorAndMethod(t *testing.T) {
	src := `
proto Point
  function __init(x, y)
    self.x = x
    self.y = y
  end
  function sum()
    return self.x + self.y
  end
end
local p = Point(3, 4)
print(p:sum())
`
	out := run(t, src)
	require.Equal(t, "7\n", out)
}

func TestIteratorProtocolDrainsToExhaustion(t *testing.T) {
	src := `
proto RangeIter
  function __init(limit)
    self.limit = limit
    self.i = 0
  end
  function __next()
    if self.i >= self.limit then
      return nil
    end
    local v = self.i
    self.i = self.i + 1
    return v
  end
end
proto Range
  function __init(limit)
    self.limit = limit
  end
  function __iter()
    return RangeIter(self.limit)
  end
end
local r = Range(3)
for v in r do
  print(v)
end
`
	out := run(t, src)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestProtectedCallTrapsRuntimeError(t *testing.T) {
	src := `
local ok, err = pcall(function()
  return error_undef()
end)
print(ok)
print(type(err))
`
	out := run(t, src)
	require.Equal(t, "false\nstring\n", out)
}

func TestStringPrototypeSubAndOutOfRange(t *testing.T) {
	out := run(t, `print("hello":sub(1))`)
	require.Equal(t, "ello\n", out)

	src := `
local ok, err = pcall(function()
  return "hello":sub(99)
end)
print(ok)
`
	out = run(t, src)
	require.Equal(t, "false\n", out)
}

func TestErrorBuiltinRaisesCatchableRuntimeError(t *testing.T) {
	src := `
local ok, err = pcall(function()
  error("boom")
end)
print(ok)
print(err)
`
	out := run(t, src)
	require.Equal(t, "false\n3: boom\n", out)
}
