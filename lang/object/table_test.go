package object_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
	"github.com/stretchr/testify/require"
)

func TestTableInsertionOrder(t *testing.T) {
	tbl := object.NewTable(0)
	tbl.Set(value.Number(1), value.Object(&object.ObjString{Bytes: "one"}))
	tbl.Set(value.Number(2), value.Object(&object.ObjString{Bytes: "two"}))
	tbl.Set(value.Number(1), value.Object(&object.ObjString{Bytes: "ONE"}))

	require.Equal(t, 2, tbl.Len(), "updating an existing key does not grow the table")

	var seen []float64
	tbl.Each(func(k, v value.Value) bool {
		seen = append(seen, k.AsNumber())
		return true
	})
	require.Equal(t, []float64{1, 2}, seen, "insertion order survives an in-place update")

	v, ok := tbl.Get(value.Number(1))
	require.True(t, ok)
	require.Equal(t, "ONE", v.String())
}

func TestTableDeletePreservesOrder(t *testing.T) {
	tbl := object.NewTable(0)
	for i := 1; i <= 3; i++ {
		tbl.Set(value.Number(float64(i)), value.Number(float64(i*10)))
	}
	require.True(t, tbl.Delete(value.Number(2)))
	require.False(t, tbl.Delete(value.Number(2)), "deleting twice is a no-op")

	var keys []float64
	tbl.Each(func(k, v value.Value) bool {
		keys = append(keys, k.AsNumber())
		return true
	})
	require.Equal(t, []float64{1, 3}, keys)
}
