// Package disasm renders a compiled chunk as a human-readable or
// YAML-structured bytecode listing, for the CLI's -disasm flag. It is a
// read-only view over data the compiler already produced: the bytecode
// stream, the constant pool and the line table (§4.7).
package disasm

import (
	"fmt"
	"strings"

	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
	"gopkg.in/yaml.v3"
)

// Instruction is one decoded bytecode instruction, ready to print or
// marshal.
type Instruction struct {
	Offset   int    `yaml:"offset"`
	Line     int32  `yaml:"line"`
	Op       string `yaml:"op"`
	Operands []int  `yaml:"operands,omitempty"`
	Constant string `yaml:"constant,omitempty"`
}

// Listing is the disassembly of one function's chunk, plus any nested
// function prototypes found in its constant pool, disassembled in turn.
type Listing struct {
	Name         string        `yaml:"name"`
	Instructions []Instruction `yaml:"instructions"`
	Nested       []*Listing    `yaml:"nested,omitempty"`
}

// Function disassembles fn's chunk and recurses into any function constants
// it holds, the same way a textbook bytecode VM prints nested chunks after
// their enclosing one.
func Function(fn *object.ObjFunction) *Listing {
	name := fn.Name
	if name == "" {
		name = "<toplevel>"
	}
	l := &Listing{Name: name}
	c := fn.Chunk
	for offset := 0; offset < c.Len(); {
		instr, next := decode(c, offset)
		l.Instructions = append(l.Instructions, instr)
		offset = next
	}
	for _, k := range c.Constants {
		if k.IsObj() {
			if nested, ok := k.AsObject().(*object.ObjFunction); ok {
				l.Nested = append(l.Nested, Function(nested))
			}
		}
	}
	return l
}

func decode(c *chunk.Chunk, offset int) (Instruction, int) {
	op := chunk.Opcode(c.Code[offset])
	instr := Instruction{Offset: offset, Line: c.LineAt(offset), Op: op.String()}
	pc := offset + 1

	readByte := func() int {
		b := int(c.Code[pc])
		pc++
		return b
	}
	readU16 := func() int {
		lo, hi := c.Code[pc], c.Code[pc+1]
		pc += 2
		return int(lo) | int(hi)<<8
	}

	switch op {
	case chunk.NIL, chunk.TRUE, chunk.FALSE, chunk.NEGATE, chunk.NOT, chunk.COUNT,
		chunk.ADD, chunk.SUB, chunk.MULT, chunk.DIV, chunk.MOD,
		chunk.EQUAL, chunk.GREATER, chunk.LESS, chunk.GREATER_EQUAL, chunk.LESS_EQUAL,
		chunk.CLOSE, chunk.ITER, chunk.INDEX, chunk.NEWINDEX:
		// no operands

	case chunk.POP, chunk.GETLOCAL, chunk.SETLOCAL, chunk.GETUPVAL, chunk.SETUPVAL,
		chunk.CONCAT, chunk.INCINDEX, chunk.RETURN:
		instr.Operands = []int{readByte()}

	case chunk.LOADCONST, chunk.GETGLOBAL, chunk.SETGLOBAL, chunk.GETOBJECT, chunk.SETOBJECT,
		chunk.NEWDICT, chunk.NEWOBJECT:
		idx := readU16()
		instr.Operands = []int{idx}
		instr.Constant = constantString(c, idx)

	case chunk.JMP, chunk.JMPBACK, chunk.PEJMP, chunk.EJMP:
		instr.Operands = []int{readU16()}

	case chunk.INCLOCAL, chunk.INCUPVAL:
		instr.Operands = []int{readByte(), readByte()}

	case chunk.CALL, chunk.INVOKE:
		instr.Operands = []int{readByte(), readByte()}

	case chunk.INCGLOBAL, chunk.INCOBJECT:
		delta := readByte()
		idx := readU16()
		instr.Operands = []int{delta, idx}
		instr.Constant = constantString(c, idx)

	case chunk.NEXT:
		n := readByte()
		off := readU16()
		instr.Operands = []int{n, off}

	case chunk.CLOSURE:
		idx := readU16()
		instr.Operands = []int{idx}
		instr.Constant = constantString(c, idx)
		if fnVal := c.Constants[idx]; fnVal.IsObj() {
			if protoFn, ok := fnVal.AsObject().(*object.ObjFunction); ok {
				for range protoFn.Upvalues {
					dirOp := chunk.Opcode(readByte())
					dirIdx := readByte()
					instr.Operands = append(instr.Operands, int(dirOp), dirIdx)
				}
			}
		}

	default:
		// illegal opcode: treat as having no operands so the listing still
		// advances.
	}

	return instr, pc
}

func constantString(c *chunk.Chunk, idx int) string {
	if idx < 0 || idx >= len(c.Constants) {
		return "?"
	}
	k := c.Constants[idx]
	if k.IsObj() {
		if s, ok := k.AsObject().(*object.ObjString); ok {
			return s.Quoted()
		}
	}
	return valueString(k)
}

func valueString(v value.Value) string { return v.String() }

// Text renders the listing as a column-aligned bytecode dump, recursing into
// nested function prototypes after the enclosing listing.
func (l *Listing) Text() string {
	var b strings.Builder
	l.writeText(&b, 0)
	return b.String()
}

func (l *Listing) writeText(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s== %s ==\n", indent, l.Name)
	for _, instr := range l.Instructions {
		fmt.Fprintf(b, "%s%04d  line %-5d  %-14s", indent, instr.Offset, instr.Line, instr.Op)
		for _, o := range instr.Operands {
			fmt.Fprintf(b, " %d", o)
		}
		if instr.Constant != "" {
			fmt.Fprintf(b, "  ; %s", instr.Constant)
		}
		b.WriteByte('\n')
	}
	for _, nested := range l.Nested {
		nested.writeText(b, depth+1)
	}
}

// YAML renders the listing, including nested function prototypes, as a YAML
// document.
func (l *Listing) YAML() (string, error) {
	out, err := yaml.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("disasm: marshal yaml: %w", err)
	}
	return string(out), nil
}
