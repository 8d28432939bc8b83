package chunk_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/value"
	"github.com/stretchr/testify/require"
)

func TestWriteAndPatch(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.LOADCONST, 1)
	off := c.WriteU16(0, 1)
	require.Equal(t, 3, c.Len())

	c.PatchU16(off, 42)
	require.Equal(t, byte(42), c.Code[off])
	require.Equal(t, byte(0), c.Code[off+1])
}

func TestAddConstantDedup(t *testing.T) {
	c := chunk.New()
	idx1, err := c.AddConstant(value.Number(7))
	require.NoError(t, err)
	idx2, err := c.AddConstant(value.Number(7))
	require.NoError(t, err)
	require.Equal(t, idx1, idx2, "numeric constants are deduplicated")

	idx3, err := c.AddConstant(value.Number(8))
	require.NoError(t, err)
	require.NotEqual(t, idx1, idx3)
}

func TestLineAt(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.NIL, 10)
	c.WriteOp(chunk.TRUE, 11)
	require.Equal(t, int32(10), c.LineAt(0))
	require.Equal(t, int32(11), c.LineAt(1))
	require.Equal(t, int32(0), c.LineAt(99), "out of range returns 0")
}

func TestOpcodeString(t *testing.T) {
	require.Equal(t, "add", chunk.ADD.String())
	require.Contains(t, chunk.Opcode(250).String(), "illegal")
}
