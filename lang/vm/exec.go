package vm

import (
	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
)

func (fr *frame) readByte() byte {
	b := fr.closure.Fn.Chunk.Code[fr.pc]
	fr.pc++
	return b
}

func (fr *frame) readU16() uint16 {
	lo := fr.readByte()
	hi := fr.readByte()
	return uint16(lo) | uint16(hi)<<8
}

func (fr *frame) readOp() chunk.Opcode { return chunk.Opcode(fr.readByte()) }

func unbias(b byte) int8 { return int8(int(b) - 128) }

// run executes fr's bytecode to completion, returning the values named by
// its RETURN instruction.
func (s *State) run(fr *frame) ([]value.Value, error) {
	code := fr.closure.Fn.Chunk.Code
	for {
		if s.ctx != nil {
			select {
			case <-s.ctx.Done():
				return nil, s.runtimeErrorf(fr, "execution cancelled")
			default:
			}
		}
		if fr.pc >= len(code) {
			return nil, nil
		}
		op := fr.readOp()

		switch op {
		case chunk.LOADCONST:
			idx := fr.readU16()
			fr.push(fr.closure.Fn.Chunk.Constants[idx])

		case chunk.NIL:
			fr.push(value.Nil)
		case chunk.TRUE:
			fr.push(value.Bool(true))
		case chunk.FALSE:
			fr.push(value.Bool(false))
		case chunk.POP:
			n := int(fr.readByte())
			fr.popN(n)

		case chunk.NEGATE:
			v := fr.pop()
			if !v.IsNum() {
				return nil, s.runtimeErrorf(fr, "attempt to negate a %s value", v.TypeName())
			}
			fr.push(value.Number(-v.AsNumber()))
		case chunk.NOT:
			v := fr.pop()
			fr.push(value.Bool(!v.Truthy()))
		case chunk.COUNT:
			v := fr.pop()
			n, err := s.countOf(fr, v)
			if err != nil {
				return nil, err
			}
			fr.push(value.Number(n))

		case chunk.ADD, chunk.SUB, chunk.MULT, chunk.DIV, chunk.MOD:
			b, a := fr.pop(), fr.pop()
			if !a.IsNum() || !b.IsNum() {
				return nil, s.runtimeErrorf(fr, "attempt to perform arithmetic on a %s value", nonNumberType(a, b))
			}
			fr.push(arith(op, a.AsNumber(), b.AsNumber()))

		case chunk.EQUAL:
			b, a := fr.pop(), fr.pop()
			eq, err := s.valuesEqual(fr, a, b)
			if err != nil {
				return nil, err
			}
			fr.push(value.Bool(eq))
		case chunk.GREATER, chunk.LESS, chunk.GREATER_EQUAL, chunk.LESS_EQUAL:
			b, a := fr.pop(), fr.pop()
			if !a.IsNum() || !b.IsNum() {
				return nil, s.runtimeErrorf(fr, "attempt to compare a %s value", nonNumberType(a, b))
			}
			fr.push(value.Bool(compare(op, a.AsNumber(), b.AsNumber())))

		case chunk.CONCAT:
			n := int(fr.readByte())
			parts := make([]string, n)
			for i := n - 1; i >= 0; i-- {
				v := fr.pop()
				str, err := s.toStringValue(fr, v)
				if err != nil {
					return nil, err
				}
				parts[i] = str
			}
			joined := ""
			for _, p := range parts {
				joined += p
			}
			fr.push(s.InternString(joined))

		case chunk.GETLOCAL:
			slot := int(fr.readByte())
			fr.push(fr.locals()[slot])
		case chunk.SETLOCAL:
			slot := int(fr.readByte())
			fr.locals()[slot] = fr.peek(0)
		case chunk.INCLOCAL:
			biased := fr.readByte()
			slot := int(fr.readByte())
			fr.locals()[slot] = value.Number(fr.locals()[slot].AsNumber() + float64(unbias(biased)))

		case chunk.GETUPVAL:
			idx := int(fr.readByte())
			fr.push(fr.closure.Upvalues[idx].Get())
		case chunk.SETUPVAL:
			idx := int(fr.readByte())
			fr.closure.Upvalues[idx].Set(fr.peek(0))
		case chunk.INCUPVAL:
			biased := fr.readByte()
			idx := int(fr.readByte())
			uv := fr.closure.Upvalues[idx]
			uv.Set(value.Number(uv.Get().AsNumber() + float64(unbias(biased))))

		case chunk.GETGLOBAL:
			idx := fr.readU16()
			name := constantName(fr, idx)
			fr.push(s.GetGlobal(name))
		case chunk.SETGLOBAL:
			idx := fr.readU16()
			name := constantName(fr, idx)
			s.SetGlobal(name, fr.peek(0))
		case chunk.INCGLOBAL:
			biased := fr.readByte()
			idx := fr.readU16()
			name := constantName(fr, idx)
			s.SetGlobal(name, value.Number(s.GetGlobal(name).AsNumber()+float64(unbias(biased))))

		case chunk.GETOBJECT:
			idx := fr.readU16()
			name := constantName(fr, idx)
			recv := fr.pop()
			v, err := s.getField(fr, recv, name)
			if err != nil {
				return nil, err
			}
			fr.push(v)
		case chunk.SETOBJECT:
			idx := fr.readU16()
			name := constantName(fr, idx)
			val := fr.pop()
			recv := fr.pop()
			if err := s.setField(fr, recv, name, val); err != nil {
				return nil, err
			}
			fr.push(val)
		case chunk.INCOBJECT:
			biased := fr.readByte()
			idx := fr.readU16()
			name := constantName(fr, idx)
			recv := fr.pop()
			cur, err := s.getField(fr, recv, name)
			if err != nil {
				return nil, err
			}
			if !cur.IsNum() {
				return nil, s.runtimeErrorf(fr, "attempt to increment a %s field", cur.TypeName())
			}
			next := value.Number(cur.AsNumber() + float64(unbias(biased)))
			if err := s.setField(fr, recv, name, next); err != nil {
				return nil, err
			}
			fr.push(next)

		case chunk.INDEX:
			key := fr.pop()
			recv := fr.pop()
			v, err := s.indexGet(fr, recv, key)
			if err != nil {
				return nil, err
			}
			fr.push(v)
		case chunk.NEWINDEX:
			val := fr.pop()
			key := fr.pop()
			recv := fr.pop()
			if err := s.indexSet(fr, recv, key, val); err != nil {
				return nil, err
			}
			fr.push(val)
		case chunk.INCINDEX:
			biased := fr.readByte()
			key := fr.pop()
			recv := fr.pop()
			cur, err := s.indexGet(fr, recv, key)
			if err != nil {
				return nil, err
			}
			if !cur.IsNum() {
				return nil, s.runtimeErrorf(fr, "attempt to increment a %s value", cur.TypeName())
			}
			next := value.Number(cur.AsNumber() + float64(unbias(biased)))
			if err := s.indexSet(fr, recv, key, next); err != nil {
				return nil, err
			}
			fr.push(next)

		case chunk.NEWDICT:
			n := int(fr.readU16())
			t := s.heap.NewTable(n)
			pairs := make([]value.Value, 2*n)
			for i := 2*n - 1; i >= 0; i-- {
				pairs[i] = fr.pop()
			}
			for i := 0; i < n; i++ {
				t.Set(pairs[2*i], pairs[2*i+1])
			}
			fr.push(value.Object(t))

		case chunk.NEWOBJECT:
			n := int(fr.readU16())
			o := s.heap.NewObject()
			pairs := make([]value.Value, 2*n)
			for i := 2*n - 1; i >= 0; i-- {
				pairs[i] = fr.pop()
			}
			for i := 0; i < n; i++ {
				o.Set(pairs[2*i].String(), pairs[2*i+1])
			}
			fr.push(value.Object(o))

		case chunk.CLOSURE:
			idx := fr.readU16()
			fnVal := fr.closure.Fn.Chunk.Constants[idx]
			protoFn := fnVal.AsObject().(*object.ObjFunction)
			cl := &object.ObjClosure{Fn: protoFn, Upvalues: make([]*object.ObjUpvalue, len(protoFn.Upvalues))}
			for i := range cl.Upvalues {
				dirOp := fr.readOp()
				dirIdx := int(fr.readByte())
				if dirOp == chunk.GETLOCAL {
					cl.Upvalues[i] = fr.captureUpvalue(dirIdx)
				} else {
					cl.Upvalues[i] = fr.closure.Upvalues[dirIdx]
				}
			}
			fr.push(value.Object(s.heap.NewClosure(cl)))

		case chunk.CLOSE:
			fr.closeFrom(fr.sp - 1)
			fr.pop()

		case chunk.CALL:
			nargs := int(fr.readByte())
			nresults := int(fr.readByte())
			args := make([]value.Value, nargs)
			copy(args, fr.space[fr.sp-nargs:fr.sp])
			fr.popN(nargs)
			callee := fr.pop()
			results, err := s.callValue(fr, callee, args, nresults)
			if err != nil {
				return nil, err
			}
			for _, r := range results {
				fr.push(r)
			}

		case chunk.INVOKE:
			nargs := int(fr.readByte())
			nresults := int(fr.readByte())
			args := make([]value.Value, nargs)
			copy(args, fr.space[fr.sp-nargs:fr.sp])
			fr.popN(nargs)
			nameVal := fr.pop()
			self := fr.pop()
			method, err := s.getField(fr, self, nameVal.String())
			if err != nil {
				return nil, err
			}
			fullArgs := append([]value.Value{self}, args...)
			results, err := s.callValue(fr, method, fullArgs, nresults)
			if err != nil {
				return nil, err
			}
			for _, r := range results {
				fr.push(r)
			}

		case chunk.RETURN:
			n := int(fr.readByte())
			results := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				results[i] = fr.pop()
			}
			fr.closeFrom(0)
			return results, nil

		case chunk.JMP:
			off := fr.readU16()
			fr.pc += int(off)
		case chunk.JMPBACK:
			off := fr.readU16()
			fr.pc -= int(off)
		case chunk.PEJMP:
			off := fr.readU16()
			v := fr.pop()
			if !v.Truthy() {
				fr.pc += int(off)
			}
		case chunk.EJMP:
			off := fr.readU16()
			if !fr.peek(0).Truthy() {
				fr.pc += int(off)
			}

		case chunk.ITER:
			recv := fr.pop()
			it, err := s.iterInit(fr, recv)
			if err != nil {
				return nil, err
			}
			fr.push(it)

		case chunk.NEXT:
			n := int(fr.readByte())
			off := fr.readU16()
			it := fr.peek(0)
			results, exhausted, err := s.iterNext(fr, it, n)
			if err != nil {
				return nil, err
			}
			if exhausted {
				fr.pop()
				fr.pc += int(off)
				continue
			}
			for i := 0; i < n; i++ {
				if i < len(results) {
					fr.push(results[i])
				} else {
					fr.push(value.Nil)
				}
			}

		default:
			return nil, s.runtimeErrorf(fr, "illegal opcode %s", op)
		}

		if s.heap.ShouldCollect() {
			s.heap.Collect(stateRoots{s})
		}
	}
}

// captureUpvalue returns the open upvalue for fr's local slot, creating one
// if none exists yet, preserving the uniqueness invariant (§8 property 3).
func (fr *frame) captureUpvalue(slot int) *object.ObjUpvalue {
	if uv := fr.findOpenUpvalue(slot); uv != nil {
		return uv
	}
	uv := &object.ObjUpvalue{Open: true, Ptr: &fr.space[slot], Slot: slot}
	fr.insertOpenUpvalue(uv)
	return uv
}

func constantName(fr *frame, idx uint16) string {
	return fr.closure.Fn.Chunk.Constants[idx].String()
}

func nonNumberType(a, b value.Value) string {
	if !a.IsNum() {
		return a.TypeName()
	}
	return b.TypeName()
}

func arith(op chunk.Opcode, a, b float64) value.Value {
	switch op {
	case chunk.ADD:
		return value.Number(a + b)
	case chunk.SUB:
		return value.Number(a - b)
	case chunk.MULT:
		return value.Number(a * b)
	case chunk.DIV:
		return value.Number(a / b)
	case chunk.MOD:
		return value.Number(mod(a, b))
	}
	panic("unreachable")
}

func mod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}

func compare(op chunk.Opcode, a, b float64) bool {
	switch op {
	case chunk.GREATER:
		return a > b
	case chunk.LESS:
		return a < b
	case chunk.GREATER_EQUAL:
		return a >= b
	case chunk.LESS_EQUAL:
		return a <= b
	}
	panic("unreachable")
}

// countOf implements the `#` operator: element count for a Table, byte
// length for a String, otherwise a type error.
func (s *State) countOf(fr *frame, v value.Value) (float64, error) {
	if !v.IsObj() {
		return 0, s.runtimeErrorf(fr, "attempt to get length of a %s value", v.TypeName())
	}
	switch o := v.AsObject().(type) {
	case *object.ObjTable:
		return float64(o.Len()), nil
	case *object.ObjString:
		return float64(len(o.Bytes)), nil
	default:
		return 0, s.runtimeErrorf(fr, "attempt to get length of a %s value", v.TypeName())
	}
}
