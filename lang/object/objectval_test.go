package object_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
	"github.com/stretchr/testify/require"
)

func TestLookupWalksPrototypeChain(t *testing.T) {
	base := object.NewObject()
	base.Set("greet", value.Number(1))

	derived := object.NewObject()
	derived.SetProto(base)
	derived.Set("name", value.Number(2))

	v, owner, ok := object.Lookup(derived, "greet")
	require.True(t, ok)
	require.Equal(t, float64(1), v.AsNumber())
	require.Same(t, base, owner)

	v, owner, ok = object.Lookup(derived, "name")
	require.True(t, ok)
	require.Equal(t, float64(2), v.AsNumber())
	require.Same(t, derived, owner)

	_, _, ok = object.Lookup(derived, "missing")
	require.False(t, ok)
}

func TestObjectOwnFieldsDoNotLeakToPrototype(t *testing.T) {
	proto := object.NewObject()
	child := object.NewObject()
	child.SetProto(proto)
	child.Set("x", value.Number(5))

	_, ok := proto.GetOwn("x")
	require.False(t, ok, "setting a field on a child never mutates its prototype")
}
