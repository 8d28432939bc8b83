package object_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
	"github.com/stretchr/testify/require"
)

func TestFunctionStringUsesNameOrAnonymous(t *testing.T) {
	named := &object.ObjFunction{Chunk: &chunk.Chunk{}, Name: "add"}
	require.Contains(t, named.String(), "add")

	anon := &object.ObjFunction{Chunk: &chunk.Chunk{}}
	require.Contains(t, anon.String(), "anonymous")
}

func TestFunctionKindAndTypeName(t *testing.T) {
	fn := &object.ObjFunction{Chunk: &chunk.Chunk{}}
	require.Equal(t, object.KindFunction, fn.ObjKind())
	require.Equal(t, "function", fn.TypeName())
}

func TestClosureStringDelegatesToFunction(t *testing.T) {
	fn := &object.ObjFunction{Chunk: &chunk.Chunk{}, Name: "f"}
	cl := &object.ObjClosure{Fn: fn}
	require.Equal(t, fn.String(), cl.String())
	require.Equal(t, "function", cl.TypeName())
}

func TestUpvalueOpenTracksStackSlot(t *testing.T) {
	slot := value.Number(41)
	uv := &object.ObjUpvalue{Open: true, Ptr: &slot}

	require.Equal(t, value.Number(41), uv.Get())

	slot = value.Number(42)
	require.Equal(t, value.Number(42), uv.Get(), "an open upvalue reads through the live slot")

	uv.Set(value.Number(43))
	require.Equal(t, value.Number(43), slot, "setting an open upvalue writes through to the slot")
}

func TestUpvalueCloseDetachesFromStack(t *testing.T) {
	slot := value.Number(7)
	uv := &object.ObjUpvalue{Open: true, Ptr: &slot}

	uv.Close()
	require.False(t, uv.Open)
	require.Equal(t, value.Number(7), uv.Get())

	slot = value.Number(99)
	require.Equal(t, value.Number(7), uv.Get(), "closing severs the link to the stack slot")
}

func TestUpvalueCloseIsIdempotent(t *testing.T) {
	uv := &object.ObjUpvalue{Closed: value.Number(1)}
	uv.Close()
	require.Equal(t, value.Number(1), uv.Get())
}
