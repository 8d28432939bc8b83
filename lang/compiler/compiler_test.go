package compiler_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/compiler"
	"github.com/mna/jacinthe/lang/gc"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
	"github.com/stretchr/testify/require"
)

// testAllocator adapts a *gc.Heap to compiler.Allocator, the same narrow
// slice of capabilities vm.State exposes to the compiler package.
type testAllocator struct{ h *gc.Heap }

func (a testAllocator) InternString(s string) value.Value {
	return value.Object(a.h.InternString(s))
}
func (a testAllocator) NewFunction(fn *object.ObjFunction) *object.ObjFunction {
	return a.h.NewFunction(fn)
}
func (a testAllocator) NewClosure(cl *object.ObjClosure) *object.ObjClosure {
	return a.h.NewClosure(cl)
}

func newAllocator() testAllocator { return testAllocator{h: gc.New(1 << 30)} }

func TestCompileSimpleScript(t *testing.T) {
	src := `
var x = 1 + 2
function add(a, b)
  return a + b
end
print(add(x, 4))
`
	cl, err := compiler.Compile(newAllocator(), src, "test")
	require.NoError(t, err)
	require.NotNil(t, cl)
	require.NotNil(t, cl.Fn)
	require.NotEmpty(t, cl.Fn.Chunk.Code)
}

func TestCompileSyntaxErrorReturnsErrorList(t *testing.T) {
	src := `var x = `
	cl, err := compiler.Compile(newAllocator(), src, "test")
	require.Error(t, err)
	require.Nil(t, cl)
	_, ok := err.(compiler.ErrorList)
	require.True(t, ok)
}

func TestCompileClosureCapturesLocal(t *testing.T) {
	src := `
function counter()
  local n = 0
  function inc()
    n = n + 1
    return n
  end
  return inc
end
`
	cl, err := compiler.Compile(newAllocator(), src, "test")
	require.NoError(t, err)
	require.NotNil(t, cl)
}

func TestCompileProtoDecl(t *testing.T) {
	src := `
proto Point
  function __init(x, y)
    self.x = x
    self.y = y
  end
end
local p = Point(1, 2)
`
	cl, err := compiler.Compile(newAllocator(), src, "test")
	require.NoError(t, err)
	require.NotNil(t, cl)
}
