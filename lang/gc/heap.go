// Package gc implements the tracing mark-sweep collector that owns every
// heap object allocated by the language: strings, functions, closures,
// upvalues, tables and objects (§3, §7). The teacher embeds its heap values
// directly in Go's own garbage collector (machine.Value is always a plain Go
// interface pointing at Go-GC'd memory); this language instead layers its
// own collector over that substrate, tracing object graphs the embedder
// cannot express through Go references alone (open upvalues aliasing stack
// slots, prototype chains, the intern table). Allocation still ultimately
// rides on the Go runtime's allocator.
package gc

import (
	"github.com/dolthub/swiss"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
)

// Roots is implemented by the vm package's State so the heap can trace every
// live reference without the gc package importing vm (which would cycle,
// since vm imports gc).
type Roots interface {
	// EachRoot calls fn once per GC root value currently reachable directly
	// from interpreter state: the operand stack, call frames' closures, open
	// upvalues and the globals table. The heap traces its own intern table
	// and prototype registry itself.
	EachRoot(fn func(value.Value))
}

// Heap owns every heap-allocated object and drives mark-sweep collection.
// Collection can be suspended by nesting Freeze/Unfreeze calls, used by the
// embedding API to protect values constructed across several Go statements
// before they're reachable from a root (§6, §9 open question on reentrancy).
type Heap struct {
	head    object.Ref // intrusive list head; object.Header.Next() continues it
	bytes   int64      // approximate live bytes: survivors of the last collection plus later allocations
	trigger int64      // bytes threshold that triggers the next GC
	freeze  int        // recursive freeze counter; >0 disables Collect

	strings *swiss.Map[string, *object.ObjString] // intern table

	// protos maps a default prototype's type tag (e.g. "string") to the
	// object installed via RegisterProtoObject (§6). Traced as roots so a
	// type's shared prototype is never collected out from under live values
	// of that type.
	protos map[string]*object.ObjObject
}

// New returns an empty heap that triggers its first collection once
// trigger bytes have been allocated.
func New(trigger int64) *Heap {
	return &Heap{
		trigger: trigger,
		strings: swiss.NewMap[string, *object.ObjString](64),
		protos:  make(map[string]*object.ObjObject),
	}
}

func (h *Heap) track(r object.Ref, size int64) {
	r.SetNext(h.head)
	h.head = r
	h.bytes += size
}

// InternString returns the canonical *ObjString for s, allocating a new one
// only the first time s is seen (§3: string equality is pointer identity).
func (h *Heap) InternString(s string) *object.ObjString {
	if existing, ok := h.strings.Get(s); ok {
		return existing
	}
	str := &object.ObjString{Bytes: s}
	h.strings.Put(s, str)
	h.track(str, int64(len(s))+32)
	return str
}

// NewTable allocates a fresh, untracked-by-roots table of the given size
// hint.
func (h *Heap) NewTable(size int) *object.ObjTable {
	t := object.NewTable(size)
	h.track(t, 64)
	return t
}

// NewObject allocates a fresh object with no prototype.
func (h *Heap) NewObject() *object.ObjObject {
	o := object.NewObject()
	h.track(o, 64)
	return o
}

// NewFunction allocates a function prototype.
func (h *Heap) NewFunction(fn *object.ObjFunction) *object.ObjFunction {
	h.track(fn, 128)
	return fn
}

// NewClosure allocates a closure wrapping fn with the given upvalues.
func (h *Heap) NewClosure(cl *object.ObjClosure) *object.ObjClosure {
	h.track(cl, int64(48+8*len(cl.Upvalues)))
	return cl
}

// NewUpvalue allocates an open upvalue pointing at ptr.
func (h *Heap) NewUpvalue(ptr *value.Value, slot int) *object.ObjUpvalue {
	uv := &object.ObjUpvalue{Open: true, Ptr: ptr, Slot: slot}
	h.track(uv, 48)
	return uv
}

// NewCFunction allocates a wrapped Go function.
func (h *Heap) NewCFunction(name string, fn object.CFunc) *object.ObjCFunction {
	cf := &object.ObjCFunction{Name: name, Fn: fn}
	h.track(cf, 48)
	return cf
}

// RegisterProto installs obj as the default prototype for typeTag (e.g.
// "string", "table"), replacing any previous one (§6).
func (h *Heap) RegisterProto(typeTag string, obj *object.ObjObject) {
	obj.TypeTag = typeTag
	h.protos[typeTag] = obj
}

// Proto returns the default prototype registered for typeTag, or nil.
func (h *Heap) Proto(typeTag string) *object.ObjObject { return h.protos[typeTag] }

// Freeze suspends collection. Calls nest; Collect is a no-op until the
// matching number of Unfreeze calls brings the counter back to zero (§6).
func (h *Heap) Freeze() { h.freeze++ }

// Unfreeze reverses one Freeze call.
func (h *Heap) Unfreeze() {
	if h.freeze > 0 {
		h.freeze--
	}
}

// Frozen reports whether collection is currently suspended.
func (h *Heap) Frozen() bool { return h.freeze > 0 }

// ShouldCollect reports whether accumulated allocation has crossed the
// trigger threshold and the heap isn't frozen.
func (h *Heap) ShouldCollect() bool { return !h.Frozen() && h.bytes >= h.trigger }

// Collect runs one full mark-sweep cycle: trace every root reachable via
// roots, then sweep every unmarked object off the intrusive heap list. It is
// a no-op while the heap is frozen.
func (h *Heap) Collect(roots Roots) {
	if h.Frozen() {
		return
	}
	roots.EachRoot(h.mark)
	// The intern table and prototype registry are traced as extra roots: a
	// string or a default prototype survives even if nothing else currently
	// references it, since recreating it later must still yield the same
	// identity or a consistent field set.
	h.strings.Iter(func(_ string, s *object.ObjString) bool {
		object.Mark(s)
		return false
	})
	for _, p := range h.protos {
		h.markObject(p)
	}

	var kept object.Ref
	var survivors int64
	for cur := h.head; cur != nil; {
		next := cur.Next()
		if cur.Marked() {
			cur.SetMarked(false)
			cur.SetNext(kept)
			kept = cur
			survivors += 64
		} else {
			if s, ok := cur.(*object.ObjString); ok {
				h.strings.Delete(s.Bytes)
			}
		}
		cur = next
	}
	h.head = kept
	h.bytes = survivors
	h.trigger *= 2
}

func (h *Heap) mark(v value.Value) {
	if !v.IsObj() {
		return
	}
	r, ok := v.AsObject().(object.Ref)
	if !ok {
		return
	}
	h.markRef(r)
}

func (h *Heap) markRef(r object.Ref) {
	if r == nil || !object.Mark(r) {
		return
	}
	if p := r.(interface{ Proto() *object.ObjObject }).Proto(); p != nil {
		h.markRef(p)
	}
	switch o := r.(type) {
	case *object.ObjClosure:
		h.markRef(o.Fn)
		for _, uv := range o.Upvalues {
			h.markRef(uv)
		}
	case *object.ObjUpvalue:
		if o.Open {
			h.mark(*o.Ptr)
		} else {
			h.mark(o.Closed)
		}
	case *object.ObjTable:
		o.Each(func(k, val value.Value) bool {
			h.mark(k)
			h.mark(val)
			return true
		})
	case *object.ObjObject:
		h.traceObjectFields(o)
	}
}

// markObject marks o itself (stopping a second traversal if already marked)
// then traces its fields. Used for roots that haven't been marked yet, such
// as the prototype registry.
func (h *Heap) markObject(o *object.ObjObject) {
	if !object.Mark(o) {
		return
	}
	h.traceObjectFields(o)
}

// traceObjectFields walks o's own fields and prototype assuming o itself is
// already marked.
func (h *Heap) traceObjectFields(o *object.ObjObject) {
	if p := o.Proto(); p != nil {
		h.markRef(p)
	}
	o.Each(func(_ string, val value.Value) bool {
		h.mark(val)
		return true
	})
}
