package object

import (
	"fmt"

	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/value"
)

// UpvalueDesc tells a CLOSURE instruction how to populate one slot of the
// closure's upvalue vector: capture the enclosing function's local at Index,
// or its own upvalue at Index (§4.3 CLOSURE).
type UpvalueDesc struct {
	FromLocal bool
	Index     uint8
}

// ObjFunction is a compiled, immutable function prototype (§3). Closures,
// not Functions, are callable; a Function only becomes callable once wrapped
// by CLOSURE into an ObjClosure.
type ObjFunction struct {
	Header
	Chunk  *chunk.Chunk
	Name   string
	Module string
	Arity  int
	// IsMethod reports whether local slot 0 is the bound receiver (filled by
	// INVOKE's implicit self argument) rather than an unused reserved slot;
	// it sets where callClosure starts placing the remaining arguments.
	IsMethod  bool
	Variadic  bool
	Upvalues  []UpvalueDesc
	MaxLocals int
	MaxStack  int // operand stack allowance set by the compiler: MaxLocals plus a fixed 256 slots
}

var _ Ref = (*ObjFunction)(nil)

func (f *ObjFunction) ObjKind() Kind    { return KindFunction }
func (f *ObjFunction) TypeName() string { return "function" }
func (f *ObjFunction) String() string {
	name := f.Name
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("<function %s: %p>", name, f)
}

// ObjClosure binds a Function to a vector of Upvalue references (§3). This,
// not the bare Function, is what CALL/INVOKE expect on the stack.
type ObjClosure struct {
	Header
	Fn       *ObjFunction
	Upvalues []*ObjUpvalue
}

var _ Ref = (*ObjClosure)(nil)

func (c *ObjClosure) ObjKind() Kind    { return KindClosure }
func (c *ObjClosure) TypeName() string { return "function" }
func (c *ObjClosure) String() string   { return c.Fn.String() }

// ObjUpvalue is either open (it dereferences into a live call frame's stack
// slot) or closed (it owns the value it last saw). The open-to-closed
// transition is one-way (§3).
type ObjUpvalue struct {
	Header
	Open   bool
	Ptr    *value.Value // valid while Open; points into an active frame's stack
	Closed value.Value  // valid once !Open
	Slot   int          // stack slot this upvalue was opened on, for the per-state sorted list
}

var _ Ref = (*ObjUpvalue)(nil)

func (u *ObjUpvalue) ObjKind() Kind    { return KindUpvalue }
func (u *ObjUpvalue) TypeName() string { return "upvalue" }
func (u *ObjUpvalue) String() string   { return "<upvalue>" }

// Get returns the upvalue's current value, whether open or closed.
func (u *ObjUpvalue) Get() value.Value {
	if u.Open {
		return *u.Ptr
	}
	return u.Closed
}

// Set stores v into the upvalue, whether open or closed.
func (u *ObjUpvalue) Set(v value.Value) {
	if u.Open {
		*u.Ptr = v
		return
	}
	u.Closed = v
}

// Close copies the value out of the stack slot into the upvalue's own
// storage and severs the link to the stack, per the one-way open→closed
// transition (§3 invariant 4).
func (u *ObjUpvalue) Close() {
	if !u.Open {
		return
	}
	u.Closed = *u.Ptr
	u.Ptr = nil
	u.Open = false
}
