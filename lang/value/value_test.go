package value_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeaped struct{ s string }

func (f *fakeHeaped) String() string   { return f.s }
func (f *fakeHeaped) TypeName() string { return "fake" }

func TestTruthy(t *testing.T) {
	assert.False(t, value.Nil.Truthy())
	assert.False(t, value.Bool(false).Truthy())
	assert.True(t, value.Bool(true).Truthy())
	assert.True(t, value.Number(0).Truthy(), "0 is truthy, unlike falsy-zero languages")
	assert.True(t, value.Object(&fakeHeaped{s: "x"}).Truthy())
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.Nil, value.Nil))
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Number(2)))
	assert.False(t, value.Equal(value.Nil, value.Bool(false)), "different kinds never compare equal")

	a := &fakeHeaped{s: "a"}
	b := &fakeHeaped{s: "a"}
	assert.True(t, value.Equal(value.Object(a), value.Object(a)), "same pointer")
	assert.False(t, value.Equal(value.Object(a), value.Object(b)), "distinct pointers, identity semantics")
}

func TestObjectPanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { value.Object(nil) })
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-3, "-3"},
		{1.5, "1.5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, value.FormatNumber(c.n))
	}
}

func TestTypeNameAndString(t *testing.T) {
	require.Equal(t, "nil", value.Nil.TypeName())
	require.Equal(t, "bool", value.Bool(true).TypeName())
	require.Equal(t, "number", value.Number(3).TypeName())
	require.Equal(t, "true", value.Bool(true).String())
	require.Equal(t, "false", value.Bool(false).String())
	require.Equal(t, "nil", value.Nil.String())

	obj := value.Object(&fakeHeaped{s: "hi"})
	require.Equal(t, "fake", obj.TypeName())
	require.Equal(t, "hi", obj.String())
}
