package disasm_test

import (
	"strings"
	"testing"

	"github.com/mna/jacinthe/lang/compiler"
	"github.com/mna/jacinthe/lang/disasm"
	"github.com/mna/jacinthe/lang/gc"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
	"github.com/stretchr/testify/require"
)

type allocator struct{ h *gc.Heap }

func (a allocator) InternString(s string) value.Value { return value.Object(a.h.InternString(s)) }
func (a allocator) NewFunction(fn *object.ObjFunction) *object.ObjFunction {
	return a.h.NewFunction(fn)
}
func (a allocator) NewClosure(cl *object.ObjClosure) *object.ObjClosure { return a.h.NewClosure(cl) }

func compile(t *testing.T, src string) *object.ObjFunction {
	t.Helper()
	cl, err := compiler.Compile(allocator{h: gc.New(1 << 30)}, src, "test")
	require.NoError(t, err)
	return cl.Fn
}

func TestFunctionListingCoversTopLevelAndNested(t *testing.T) {
	fn := compile(t, `
local x = 1 + 2
function add(a, b)
  return a + b
end
print(add(x, 4))
`)
	listing := disasm.Function(fn)
	require.Equal(t, "<toplevel>", listing.Name)
	require.NotEmpty(t, listing.Instructions)

	var ops []string
	for _, instr := range listing.Instructions {
		ops = append(ops, instr.Op)
	}
	require.Contains(t, ops, "add")
	require.Contains(t, ops, "return")

	require.Len(t, listing.Nested, 1)
	require.Equal(t, "add", listing.Nested[0].Name)

	var nestedOps []string
	for _, instr := range listing.Nested[0].Instructions {
		nestedOps = append(nestedOps, instr.Op)
	}
	require.Contains(t, nestedOps, "add")
	require.Contains(t, nestedOps, "return")
}

func TestTextListingIsColumnAlignedAndRecurses(t *testing.T) {
	fn := compile(t, `
function outer()
  local n = 0
  function inner()
    n = n + 1
    return n
  end
  return inner
end
`)
	text := disasm.Function(fn).Text()
	require.True(t, strings.HasPrefix(text, "== <toplevel> ==\n"))
	require.Contains(t, text, "== outer ==")
	require.Contains(t, text, "== inner ==")
	require.Contains(t, text, "closure")
}

func TestYAMLListingRoundTripsStructure(t *testing.T) {
	fn := compile(t, `print(1+2*3)`)
	out, err := disasm.Function(fn).YAML()
	require.NoError(t, err)
	require.Contains(t, out, "name: <toplevel>")
	require.Contains(t, out, "instructions:")
}
