package object

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/mna/jacinthe/lang/value"
)

// Well-known metamethod field names (§5).
const (
	MetaInit     = "__init"
	MetaIndex    = "__index"
	MetaNewIndex = "__newindex"
	MetaGetter   = "__getter"
	MetaSetter   = "__setter"
	MetaIter     = "__iter"
	MetaNext     = "__next"
	MetaToString = "__tostring"
	MetaEqual    = "__equal"
)

// ObjObject is a prototype-based bag of fields (§3). Its own Header.proto,
// inherited from Header, is the prototype it falls back to for field lookups
// that miss locally; that prototype is itself always an *ObjObject.
type ObjObject struct {
	Header
	Keys   []string
	Values []value.Value
	index  *swiss.Map[string, int]

	// TypeTag names the kind this object is the default prototype for, e.g.
	// "string" or "table", when it was installed via RegisterProtoObject; the
	// empty string for ordinary, user-constructed objects (§6).
	TypeTag string
}

var _ Ref = (*ObjObject)(nil)

// NewObject returns an empty object with no prototype.
func NewObject() *ObjObject {
	return &ObjObject{index: swiss.NewMap[string, int](4)}
}

func (o *ObjObject) ObjKind() Kind    { return KindObject }
func (o *ObjObject) TypeName() string { return "object" }
func (o *ObjObject) String() string   { return fmt.Sprintf("<object: %p>", o) }

// GetOwn looks up name in this object's own fields only, ignoring its
// prototype chain.
func (o *ObjObject) GetOwn(name string) (value.Value, bool) {
	idx, ok := o.index.Get(name)
	if !ok {
		return value.Nil, false
	}
	return o.Values[idx], true
}

// Set inserts or updates an own field, preserving insertion order for new
// keys the same way ObjTable does.
func (o *ObjObject) Set(name string, val value.Value) {
	if idx, ok := o.index.Get(name); ok {
		o.Values[idx] = val
		return
	}
	idx := len(o.Keys)
	o.Keys = append(o.Keys, name)
	o.Values = append(o.Values, val)
	o.index.Put(name, idx)
}

// Lookup walks the prototype chain starting at o, returning the first field
// named name and the object that owns it. It returns (nil value, nil, false)
// if no object in the chain defines name.
func Lookup(o *ObjObject, name string) (value.Value, *ObjObject, bool) {
	for cur := o; cur != nil; cur = cur.Proto() {
		if v, ok := cur.GetOwn(name); ok {
			return v, cur, true
		}
	}
	return value.Nil, nil, false
}

// Each calls fn for every own field in insertion order, stopping early if fn
// returns false.
func (o *ObjObject) Each(fn func(name string, val value.Value) bool) {
	for i, k := range o.Keys {
		if !fn(k, o.Values[i]) {
			return
		}
	}
}
