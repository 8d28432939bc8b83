// Package value defines the tagged runtime Value every instruction operates
// on. Value is a small struct rather than an interface so that nil, bool and
// number values never need a heap allocation or an interface box; only
// Kind == Obj carries a pointer onto the garbage-collected heap.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the tag discriminating the variants of Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Heaped is implemented by every heap object kind (lang/object). Value only
// needs enough of the object's surface to print, type-name and mark it; the
// concrete kind is recovered by the object package's type switches/asserts.
type Heaped interface {
	String() string
	TypeName() string
}

// Value is the tagged variant manipulated by the compiler's constant pool and
// the VM's operand stack.
type Value struct {
	kind Kind
	num  float64 // payload for KindNumber, and 0/1 for KindBool
	obj  Heaped  // payload for KindObject
}

// Nil is the singular nil value.
var Nil = Value{kind: KindNil}

// Bool constructs a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool, num: 0}
}

// Number constructs a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Object constructs an object-reference value. It panics if o is nil, since
// nil references have no place in the value model (use Nil instead).
func Object(o Heaped) Value {
	if o == nil {
		panic("value: Object called with a nil Heaped")
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNil() bool  { return v.kind == KindNil }
func (v Value) IsBool() bool { return v.kind == KindBool }
func (v Value) IsNum() bool  { return v.kind == KindNumber }
func (v Value) IsObj() bool  { return v.kind == KindObject }

// AsBool returns the boolean payload; only valid when IsBool().
func (v Value) AsBool() bool { return v.num != 0 }

// AsNumber returns the numeric payload; only valid when IsNum().
func (v Value) AsNumber() float64 { return v.num }

// AsObject returns the heap-object payload; only valid when IsObj().
func (v Value) AsObject() Heaped { return v.obj }

// Truthy implements the language's truthiness rule: nil and false are falsy,
// everything else — including the number 0 — is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.num != 0
	default:
		return true
	}
}

// Equal implements the structural/identity equality rule from the data
// model: numbers and bools compare structurally, object references compare
// by identity (which, because strings are interned, makes string equality
// reduce to identity too).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool, KindNumber:
		return a.num == b.num
	case KindObject:
		return a.obj == b.obj
	default:
		return false
	}
}

// TypeName returns the short type name used by the `type` builtin and by
// error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindObject:
		return v.obj.TypeName()
	default:
		return "invalid"
	}
}

// FormatNumber renders a float64 using the language's canonical number
// formatting: integral values print without a fractional part, everything
// else uses the shortest round-tripping decimal representation.
func FormatNumber(n float64) string {
	if math.IsNaN(n) {
		return "nan"
	}
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// String is the default printable form described in §4.4: nil, true, false,
// canonical number formatting, or the object's own String() for objects.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.num)
	case KindObject:
		return v.obj.String()
	default:
		return fmt.Sprintf("<invalid value kind %d>", v.kind)
	}
}
