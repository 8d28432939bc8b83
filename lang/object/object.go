// Package object defines the heap object kinds of the data model: strings,
// functions, closures, upvalues, tables, objects and C-functions. Every kind
// embeds Header, which carries the GC mark bit, the optional prototype
// pointer and the next-in-heap link used for sweeping (§3).
package object

import "github.com/mna/jacinthe/lang/value"

// Kind tags a heap object's concrete representation.
type Kind uint8

const (
	KindString Kind = iota
	KindFunction
	KindClosure
	KindUpvalue
	KindTable
	KindObject
	KindCFunction
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindClosure:
		return "function"
	case KindUpvalue:
		return "upvalue"
	case KindTable:
		return "table"
	case KindObject:
		return "object"
	case KindCFunction:
		return "function"
	default:
		return "invalid"
	}
}

// Ref is implemented by every heap object. The GC only needs this much of an
// object's surface to trace and sweep it; each concrete kind's own methods
// (field access, calling, etc.) live on its own type.
type Ref interface {
	value.Heaped
	ObjKind() Kind
	header() *Header
}

// Header is embedded by every heap object kind.
type Header struct {
	marked bool
	proto  *ObjObject // prototype fallback for field lookup; nil for none
	next   Ref        // intrusive singly-linked list of all heap objects
}

func (h *Header) header() *Header { return h }

// Marked reports whether the GC has visited this object in the current mark
// phase.
func (h *Header) Marked() bool { return h.marked }

// SetMarked sets the GC mark bit.
func (h *Header) SetMarked(m bool) { h.marked = m }

// Proto returns the object's prototype, or nil if it has none.
func (h *Header) Proto() *ObjObject { return h.proto }

// SetProto sets the object's prototype pointer. Callers (the gc and vm
// packages) are responsible for the cycle check described in §9.
func (h *Header) SetProto(p *ObjObject) { h.proto = p }

// Next returns the next object in the heap's allocation list.
func (h *Header) Next() Ref { return h.next }

// SetNext sets the next object in the heap's allocation list. Only the gc
// package calls this, at allocation time.
func (h *Header) SetNext(r Ref) { h.next = r }

// Mark sets the mark bit on r if it isn't already set, and reports whether
// it was newly marked (i.e. whether the GC still needs to trace its
// children). A nil Ref is a no-op and returns false.
func Mark(r Ref) bool {
	if r == nil {
		return false
	}
	h := r.header()
	if h.marked {
		return false
	}
	h.marked = true
	return true
}
