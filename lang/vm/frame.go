package vm

import (
	"golang.org/x/exp/slices"

	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
)

// frame is one activation record on the call stack (§3). space holds this
// call's locals followed by its operand stack in one fixed-size, pre-
// allocated slice sized once at call time, the same layout as the teacher's
// `space := make([]Value, nspace)` (locals := space[:nlocals], stack :=
// space[nlocals:]). Sizing it once up front means a *value.Value taken into
// it for an open upvalue never dangles: nothing ever reallocates space.
type frame struct {
	closure *object.ObjClosure
	space   []value.Value
	nlocals int
	sp      int // next free slot in space, starts at nlocals
	pc      int
	module  string

	// openUpvals are this frame's upvalues currently open on its own locals,
	// kept sorted by slot so CLOSE can binary search; closed on return.
	openUpvals []*object.ObjUpvalue
}

func newFrame(cl *object.ObjClosure) *frame {
	fn := cl.Fn
	space := make([]value.Value, fn.MaxLocals+fn.MaxStack)
	return &frame{closure: cl, space: space, nlocals: fn.MaxLocals, sp: fn.MaxLocals, module: fn.Module}
}

func (f *frame) locals() []value.Value { return f.space[:f.nlocals] }

func (f *frame) push(v value.Value) { f.space[f.sp] = v; f.sp++ }

func (f *frame) pop() value.Value {
	f.sp--
	v := f.space[f.sp]
	f.space[f.sp] = value.Nil
	return v
}

func (f *frame) peek(fromTop int) value.Value { return f.space[f.sp-1-fromTop] }

func (f *frame) popN(n int) {
	for i := 0; i < n; i++ {
		f.sp--
		f.space[f.sp] = value.Nil
	}
}

func upvalSlot(uv *object.ObjUpvalue, slot int) int { return uv.Slot - slot }

// findOpenUpvalue returns an existing open upvalue pointing at slot, or nil.
func (f *frame) findOpenUpvalue(slot int) *object.ObjUpvalue {
	i, ok := slices.BinarySearchFunc(f.openUpvals, slot, upvalSlot)
	if !ok {
		return nil
	}
	return f.openUpvals[i]
}

// insertOpenUpvalue records uv, keeping openUpvals sorted by slot so
// findOpenUpvalue and closeFrom can binary search it.
func (f *frame) insertOpenUpvalue(uv *object.ObjUpvalue) {
	i, _ := slices.BinarySearchFunc(f.openUpvals, uv.Slot, upvalSlot)
	f.openUpvals = slices.Insert(f.openUpvals, i, uv)
}

// closeFrom closes every open upvalue whose slot is >= slot, called on block
// exit and on return (§4.3 CLOSE, §3 invariant 4).
func (f *frame) closeFrom(slot int) {
	i, _ := slices.BinarySearchFunc(f.openUpvals, slot, upvalSlot)
	for _, uv := range f.openUpvals[i:] {
		uv.Close()
	}
	f.openUpvals = f.openUpvals[:i]
}
