// Package chunk implements the writable bytecode buffer the compiler emits
// into: a flat byte buffer, a constant pool and a parallel line-number table.
package chunk

import (
	"fmt"

	"github.com/mna/jacinthe/lang/value"
)

// Chunk is a compiled instruction sequence with its constant pool and line
// table (one entry per instruction byte, per §3).
type Chunk struct {
	Code      []byte
	Lines     []int32 // parallel to Code; Lines[i] is the source line of Code[i]
	Constants []value.Value

	// dedup maps comparable constants to their pool index. Constants are
	// de-duplicated only opportunistically (§3): Heaped payloads are never
	// considered for dedup since Value is only comparable when it doesn't
	// hold an interface whose dynamic value itself isn't comparable; we stay
	// conservative and only dedup numbers, bools and nil.
	dedup map[value.Value]uint16
}

// New returns an empty chunk.
func New() *Chunk {
	return &Chunk{dedup: make(map[value.Value]uint16)}
}

// WriteByte appends a single byte at the given source line.
func (c *Chunk) WriteByte(b byte, line int32) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op Opcode, line int32) int {
	return c.WriteByte(byte(op), line)
}

// WriteU16 appends a little-endian u16 operand.
func (c *Chunk) WriteU16(v uint16, line int32) int {
	start := c.WriteByte(byte(v), line)
	c.WriteByte(byte(v>>8), line)
	return start
}

// PatchU16 overwrites the u16 operand written starting at offset, used to
// back-patch forward jumps once their target address is known.
func (c *Chunk) PatchU16(offset int, v uint16) {
	c.Code[offset] = byte(v)
	c.Code[offset+1] = byte(v >> 8)
}

// PatchByte overwrites the single byte operand at offset, used to widen a
// CALL/INVOKE's requested result count once a multi-value context's need is
// known.
func (c *Chunk) PatchByte(offset int, b byte) {
	c.Code[offset] = b
}

// Len returns the current size of the bytecode buffer, i.e. the address of
// the next instruction to be written.
func (c *Chunk) Len() int { return len(c.Code) }

// AddConstant adds v to the constant pool (de-duplicating nil/bool/number
// constants opportunistically) and returns its index. It returns an error if
// the pool would exceed the maximum of 65536 entries.
func (c *Chunk) AddConstant(v value.Value) (uint16, error) {
	if !v.IsObj() {
		if idx, ok := c.dedup[v]; ok {
			return idx, nil
		}
	}
	if len(c.Constants) >= 65536 {
		return 0, fmt.Errorf("chunk: too many constants (max 65536)")
	}
	idx := uint16(len(c.Constants))
	c.Constants = append(c.Constants, v)
	if !v.IsObj() {
		c.dedup[v] = idx
	}
	return idx, nil
}

// LineAt returns the source line for the instruction at byte offset pc.
func (c *Chunk) LineAt(pc int) int32 {
	if pc < 0 || pc >= len(c.Lines) {
		return 0
	}
	return c.Lines[pc]
}
