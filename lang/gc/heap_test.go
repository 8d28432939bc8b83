package gc_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/gc"
	"github.com/mna/jacinthe/lang/value"
	"github.com/stretchr/testify/require"
)

type fakeRoots struct{ roots []value.Value }

func (f fakeRoots) EachRoot(fn func(value.Value)) {
	for _, v := range f.roots {
		fn(v)
	}
}

func TestInternStringReturnsSameInstance(t *testing.T) {
	h := gc.New(1 << 30)
	a := h.InternString("hello")
	b := h.InternString("hello")
	require.Same(t, a, b)
}

func TestCollectSweepsUnreachable(t *testing.T) {
	h := gc.New(1 << 30)
	kept := h.NewTable(0)
	_ = h.NewTable(0) // unreachable from any root

	h.Collect(fakeRoots{roots: []value.Value{value.Object(kept)}})

	// kept survives another collection cycle without being a root again only
	// because the caller still references it directly here; the point of
	// this test is that Collect doesn't panic or corrupt the survivor.
	require.False(t, kept.Marked(), "mark bit is cleared again after sweep")
}

func TestFreezeSuspendsCollection(t *testing.T) {
	h := gc.New(0) // trigger immediately
	h.Freeze()
	require.True(t, h.ShouldCollect() == false, "frozen heap never reports ready to collect")
	h.Unfreeze()
}

func TestRegisterAndLookupProto(t *testing.T) {
	h := gc.New(1 << 30)
	proto := h.NewObject()
	h.RegisterProto("string", proto)
	require.Same(t, proto, h.Proto("string"))
	require.Equal(t, "string", proto.TypeTag)
	require.Nil(t, h.Proto("missing"))
}

func TestMarkObjectTracesPrototypeChain(t *testing.T) {
	h := gc.New(1 << 30)
	base := h.NewObject()
	base.Set("v", value.Number(1))
	derived := h.NewObject()
	derived.SetProto(base)

	h.Collect(fakeRoots{roots: []value.Value{value.Object(derived)}})

	require.Same(t, base, derived.Proto(), "collection must not sever a live prototype link")
}
