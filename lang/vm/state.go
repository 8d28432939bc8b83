// Package vm implements the stack-based interpreter: call frames, closures
// with upvalue capture, prototype dispatch and the embedding API a host Go
// program uses to drive a State (§3, §6).
package vm

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dolthub/swiss"
	"github.com/mna/jacinthe/lang/config"
	"github.com/mna/jacinthe/lang/gc"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
)

// State is one independent interpreter: its own call stack, globals, heap
// and configured limits. Concurrent scripts run on separate States; nothing
// here is shared or synchronized, the same stance the teacher's Thread takes
// (one Thread per concurrent program run).
type State struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	Limits config.Limits

	heap    *gc.Heap
	globals *swiss.Map[string, value.Value]

	frames []*frame

	// cArgs and cResults hold the arguments and results of the CFunc call
	// currently in progress, so Arg and Push have somewhere to read and
	// write; callCFunction saves and restores them around each call.
	cArgs    []value.Value
	cResults []value.Value

	metaDepth int

	ctx context.Context
}

// New returns a ready-to-use State with the given limits, allocating a heap
// whose collector triggers at Limits.GCTrigger bytes.
func New(limits config.Limits) *State {
	s := &State{
		Limits:  limits,
		heap:    gc.New(limits.GCTrigger),
		globals: swiss.NewMap[string, value.Value](64),
		ctx:     context.Background(),
	}
	return s
}

func (s *State) out() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}

func (s *State) errOut() io.Writer {
	if s.Stderr != nil {
		return s.Stderr
	}
	return os.Stderr
}

// Depth returns the number of active call frames.
func (s *State) Depth() int { return len(s.frames) }

func (s *State) top() *frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// SetGlobal binds name in the global table, overwriting any previous
// binding. Reassigning a global while a call into that global is in flight
// is allowed but its effect on the in-flight call is unspecified unless the
// heap is frozen (§9 open question).
func (s *State) SetGlobal(name string, v value.Value) { s.globals.Put(name, v) }

// GetGlobal returns the value bound to name, or value.Nil if unbound.
func (s *State) GetGlobal(name string) value.Value {
	v, ok := s.globals.Get(name)
	if !ok {
		return value.Nil
	}
	return v
}

// Register binds name as a global C-function.
func (s *State) Register(name string, fn object.CFunc) {
	s.SetGlobal(name, s.MakeCFunction(name, fn))
}

// MakeCFunction wraps fn as a heap-tracked callable value, for an embedder
// installing it as a prototype method rather than a global (§4.8).
func (s *State) MakeCFunction(name string, fn object.CFunc) value.Value {
	return value.Object(s.heap.NewCFunction(name, fn))
}

// MakeTable allocates a new table with the given size hint, tracked by this
// state's heap.
func (s *State) MakeTable(size int) *object.ObjTable { return s.heap.NewTable(size) }

// MakeObject allocates a new object with no prototype, tracked by this
// state's heap.
func (s *State) MakeObject() *object.ObjObject { return s.heap.NewObject() }

// RegisterProtoObject installs proto as the default prototype consulted for
// field/method lookups on every heap value of kind typeTag (e.g. "string"),
// implementing the builtin-method injection point of §6.
func (s *State) RegisterProtoObject(typeTag string, proto *object.ObjObject) {
	s.heap.RegisterProto(typeTag, proto)
}

// FreezeGC suspends collection; calls nest (§6).
func (s *State) FreezeGC() { s.heap.Freeze() }

// UnfreezeGC reverses one FreezeGC call.
func (s *State) UnfreezeGC() { s.heap.Unfreeze() }

// InternString returns the canonical *ObjString value for raw.
func (s *State) InternString(raw string) value.Value {
	return value.Object(s.heap.InternString(raw))
}

// NewFunction tracks fn on this state's heap. Implements compiler.Allocator.
func (s *State) NewFunction(fn *object.ObjFunction) *object.ObjFunction {
	return s.heap.NewFunction(fn)
}

// NewClosure tracks cl on this state's heap. Implements compiler.Allocator.
func (s *State) NewClosure(cl *object.ObjClosure) *object.ObjClosure {
	return s.heap.NewClosure(cl)
}

// Arg returns the n-th argument (0-based) of the CFunc call currently in
// progress, or value.Nil if out of range. Implements object.State.
func (s *State) Arg(n int) value.Value {
	if n < 0 || n >= len(s.cArgs) {
		return value.Nil
	}
	return s.cArgs[n]
}

// Push appends a value to the CFunc call's result list. Implements
// object.State.
func (s *State) Push(v value.Value) { s.cResults = append(s.cResults, v) }

// RaiseError formats a RuntimeError carrying the current call's source
// position, for a CFunc to return. Implements object.State.
func (s *State) RaiseError(format string, args ...any) error {
	line := int32(0)
	if fr := s.top(); fr != nil {
		line = fr.closure.Fn.Chunk.LineAt(fr.pc)
	}
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Line: line}
}

// CollectGarbage runs one mark-sweep cycle immediately, regardless of the
// allocation trigger, tracing every value currently reachable from this
// state's roots.
func (s *State) CollectGarbage() { s.heap.Collect(stateRoots{s}) }

func (s *State) maybeCollect() {
	if s.heap.ShouldCollect() {
		s.heap.Collect(stateRoots{s})
	}
}

// stateRoots adapts *State to gc.Roots.
type stateRoots struct{ s *State }

func (r stateRoots) EachRoot(fn func(value.Value)) {
	s := r.s
	s.globals.Iter(func(_ string, v value.Value) bool {
		fn(v)
		return false
	})
	for _, v := range s.cArgs {
		fn(v)
	}
	for _, v := range s.cResults {
		fn(v)
	}
	for _, fr := range s.frames {
		fn(value.Object(fr.closure))
		for i := 0; i < fr.sp; i++ {
			fn(fr.space[i])
		}
		for _, uv := range fr.openUpvals {
			fn(value.Object(uv))
		}
	}
}

// CompileString compiles source as a top-level chunk named module and
// returns a callable closure, without executing it (§6).
func (s *State) CompileString(source, module string) (*object.ObjClosure, error) {
	return compileTopLevel(s, source, module)
}

// Output returns the writer print and similar builtins should write to.
func (s *State) Output() io.Writer { return s.out() }

// ToStringMeta converts v to its printable form, honoring a __tostring
// metamethod on v's prototype chain the same way CONCAT does (§4.4). It is
// exposed for the embedder's print/tostring builtins, which have no bytecode
// frame of their own to drive metamethod dispatch with.
func (s *State) ToStringMeta(v value.Value) (string, error) {
	return s.toStringValue(s.top(), v)
}
