package object

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/mna/jacinthe/lang/value"
)

// ObjTable is the dictionary value produced by NEWDICT literals and by the
// table-construction embedding API (§3, §4.3 NEWDICT). Iteration order
// follows insertion order, not key order (§5 invariant): the swiss map only
// answers "which slot", the Keys slice is authoritative for order.
type ObjTable struct {
	Header
	Keys   []value.Value
	Values []value.Value
	index  *swiss.Map[value.Value, int]
}

var _ Ref = (*ObjTable)(nil)

// NewTable returns an empty table with capacity hinted by size.
func NewTable(size int) *ObjTable {
	if size < 4 {
		size = 4
	}
	return &ObjTable{index: swiss.NewMap[value.Value, int](uint32(size))}
}

func (t *ObjTable) ObjKind() Kind    { return KindTable }
func (t *ObjTable) TypeName() string { return "table" }
func (t *ObjTable) String() string   { return fmt.Sprintf("<table: %p>", t) }

// Len reports the number of entries currently stored.
func (t *ObjTable) Len() int { return len(t.Keys) }

// Get returns the value stored at key and whether it was present.
func (t *ObjTable) Get(key value.Value) (value.Value, bool) {
	idx, ok := t.index.Get(key)
	if !ok {
		return value.Nil, false
	}
	return t.Values[idx], true
}

// Set inserts or updates key. New keys are appended to the end of the
// insertion order; updating an existing key leaves its position unchanged.
func (t *ObjTable) Set(key, val value.Value) {
	if idx, ok := t.index.Get(key); ok {
		t.Values[idx] = val
		return
	}
	idx := len(t.Keys)
	t.Keys = append(t.Keys, key)
	t.Values = append(t.Values, val)
	t.index.Put(key, idx)
}

// Delete removes key if present, shifting later entries down by one slot to
// preserve insertion order of the remainder.
func (t *ObjTable) Delete(key value.Value) bool {
	idx, ok := t.index.Get(key)
	if !ok {
		return false
	}
	t.Keys = append(t.Keys[:idx], t.Keys[idx+1:]...)
	t.Values = append(t.Values[:idx], t.Values[idx+1:]...)
	t.index.Delete(key)
	for i := idx; i < len(t.Keys); i++ {
		t.index.Put(t.Keys[i], i)
	}
	return true
}

// Each calls fn for every entry in insertion order, stopping early if fn
// returns false. Used by the garbage collector to trace a table's keys and
// values.
func (t *ObjTable) Each(fn func(key, val value.Value) bool) {
	for i, k := range t.Keys {
		if !fn(k, t.Values[i]) {
			return
		}
	}
}
