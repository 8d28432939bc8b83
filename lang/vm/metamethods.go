package vm

import (
	"fmt"

	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
)

// enterMeta guards against a cycle in the metamethod protocol (e.g. a
// __getter that reads the same field) recursing forever (§4.4, §9).
func (s *State) enterMeta(fr *frame) error {
	s.metaDepth++
	if s.metaDepth > s.Limits.MetaRecursionDepth {
		s.metaDepth--
		return s.runtimeErrorf(fr, "metamethod recursion limit exceeded")
	}
	return nil
}

func (s *State) leaveMeta() { s.metaDepth-- }

// protoFor returns the prototype chain entry point for v: the object itself
// for an *object.ObjObject (so a lookup sees its own fields, then its
// prototypes), or the state's registered default prototype for any other
// heap kind (§4.4 prototype registry).
func (s *State) protoFor(v value.Value) *object.ObjObject {
	if !v.IsObj() {
		return nil
	}
	if o, ok := v.AsObject().(*object.ObjObject); ok {
		return o
	}
	r, ok := v.AsObject().(object.Ref)
	if !ok {
		return nil
	}
	return s.heap.Proto(r.ObjKind().String())
}

// getField implements dot-style field access: own field, else prototype
// chain, else a __getter function, else nil (§4.4).
func (s *State) getField(fr *frame, recv value.Value, name string) (value.Value, error) {
	if o, ok := recvObject(recv); ok {
		if v, ok := o.GetOwn(name); ok {
			return v, nil
		}
	}
	proto := s.protoFor(recv)
	if proto == nil {
		return value.Nil, nil
	}
	if v, _, ok := object.Lookup(proto, name); ok {
		return v, nil
	}
	return s.tryGetter(fr, proto, recv, name)
}

// recvObject narrows recv to *object.ObjObject if that's its concrete kind.
func recvObject(recv value.Value) (*object.ObjObject, bool) {
	if !recv.IsObj() {
		return nil, false
	}
	o, ok := recv.AsObject().(*object.ObjObject)
	return o, ok
}

func (s *State) tryGetter(fr *frame, proto *object.ObjObject, recv value.Value, name string) (value.Value, error) {
	gettersVal, _, ok := object.Lookup(proto, object.MetaGetter)
	if !ok {
		return value.Nil, nil
	}
	tbl, ok := gettersVal.AsObject().(*object.ObjTable)
	if !ok {
		return value.Nil, nil
	}
	fnVal, ok := tbl.Get(value.Object(s.heap.InternString(name)))
	if !ok {
		return value.Nil, nil
	}
	if err := s.enterMeta(fr); err != nil {
		return value.Nil, err
	}
	defer s.leaveMeta()
	results, err := s.callValue(fr, fnVal, []value.Value{recv}, 1)
	if err != nil {
		return value.Nil, err
	}
	return results[0], nil
}

// setField implements dot-style field assignment: a __setter function if
// the prototype chain defines one for name, else a plain own-field write
// (§4.4).
func (s *State) setField(fr *frame, recv value.Value, name string, val value.Value) error {
	proto := s.protoFor(recv)
	if proto != nil {
		if settersVal, _, ok := object.Lookup(proto, object.MetaSetter); ok {
			if tbl, ok := settersVal.AsObject().(*object.ObjTable); ok {
				if fnVal, ok := tbl.Get(value.Object(s.heap.InternString(name))); ok {
					if err := s.enterMeta(fr); err != nil {
						return err
					}
					defer s.leaveMeta()
					_, err := s.callValue(fr, fnVal, []value.Value{recv, val}, 0)
					return err
				}
			}
		}
	}
	o, ok := recvObject(recv)
	if !ok {
		return s.runtimeErrorf(fr, "cannot set field %q on a %s", name, recv.TypeName())
	}
	o.Set(name, val)
	return nil
}

// indexGet implements `t[k]`: direct lookup on a Table (no metamethods, per
// the glossary), or the __index function on an Object (§4.4 INDEX).
func (s *State) indexGet(fr *frame, recv, key value.Value) (value.Value, error) {
	if !recv.IsObj() {
		return value.Nil, s.runtimeErrorf(fr, "cannot index a %s", recv.TypeName())
	}
	switch r := recv.AsObject().(type) {
	case *object.ObjTable:
		v, _ := r.Get(key)
		return v, nil
	case *object.ObjObject:
		if fnVal, _, ok := object.Lookup(r, object.MetaIndex); ok {
			if err := s.enterMeta(fr); err != nil {
				return value.Nil, err
			}
			defer s.leaveMeta()
			results, err := s.callValue(fr, fnVal, []value.Value{recv, key}, 1)
			if err != nil {
				return value.Nil, err
			}
			return results[0], nil
		}
		return value.Nil, nil
	default:
		return value.Nil, s.runtimeErrorf(fr, "cannot index a %s", recv.TypeName())
	}
}

// indexSet implements `t[k] = v`.
func (s *State) indexSet(fr *frame, recv, key, val value.Value) error {
	if !recv.IsObj() {
		return s.runtimeErrorf(fr, "cannot index a %s", recv.TypeName())
	}
	switch r := recv.AsObject().(type) {
	case *object.ObjTable:
		r.Set(key, val)
		return nil
	case *object.ObjObject:
		if fnVal, _, ok := object.Lookup(r, object.MetaNewIndex); ok {
			if err := s.enterMeta(fr); err != nil {
				return err
			}
			defer s.leaveMeta()
			_, err := s.callValue(fr, fnVal, []value.Value{recv, key, val}, 0)
			return err
		}
		return s.runtimeErrorf(fr, "object has no __newindex and is not directly indexable")
	default:
		return s.runtimeErrorf(fr, "cannot index a %s", recv.TypeName())
	}
}

// toStringValue implements CONCAT's operand conversion: a __tostring
// metamethod if the prototype chain defines one, else the default
// printable form (§4.4).
func (s *State) toStringValue(fr *frame, v value.Value) (string, error) {
	proto := s.protoFor(v)
	if proto != nil {
		if fnVal, _, ok := object.Lookup(proto, object.MetaToString); ok {
			if err := s.enterMeta(fr); err != nil {
				return "", err
			}
			defer s.leaveMeta()
			results, err := s.callValue(fr, fnVal, []value.Value{v}, 1)
			if err != nil {
				return "", err
			}
			return results[0].String(), nil
		}
	}
	return v.String(), nil
}

// valuesEqual implements EQUAL: a __equal metamethod when either operand's
// prototype chain defines one, else structural/identity equality (§4.4).
func (s *State) valuesEqual(fr *frame, a, b value.Value) (bool, error) {
	if proto := s.protoFor(a); proto != nil {
		if fnVal, _, ok := object.Lookup(proto, object.MetaEqual); ok {
			if err := s.enterMeta(fr); err != nil {
				return false, err
			}
			defer s.leaveMeta()
			results, err := s.callValue(fr, fnVal, []value.Value{a, b}, 1)
			if err != nil {
				return false, err
			}
			return results[0].Truthy(), nil
		}
	}
	return value.Equal(a, b), nil
}

// construct implements calling a prototype Object as a constructor: a
// fresh Object with proto set to the callee, with __init invoked on it if
// defined (§4.4 __init).
func (s *State) construct(fr *frame, proto *object.ObjObject, args []value.Value) (value.Value, error) {
	obj := s.heap.NewObject()
	if err := checkProtoCycle(proto, obj); err != nil {
		return value.Nil, s.runtimeErrorf(fr, "%s", err)
	}
	obj.SetProto(proto)
	if fnVal, _, ok := object.Lookup(proto, object.MetaInit); ok {
		initArgs := append([]value.Value{value.Object(obj)}, args...)
		if _, err := s.callValue(fr, fnVal, initArgs, 0); err != nil {
			return value.Nil, err
		}
	}
	return value.Object(obj), nil
}

// checkProtoCycle forbids a prototype assignment that would make obj reach
// itself through the prototype chain (§9 design note).
func checkProtoCycle(proto, obj *object.ObjObject) error {
	for cur := proto; cur != nil; cur = cur.Proto() {
		if cur == obj {
			return fmt.Errorf("assigning this prototype would introduce a cycle")
		}
	}
	return nil
}

// iterInit implements ITER: use recv itself if it already defines __next,
// else call its __iter(recv) to obtain the iterator state (§4.4).
func (s *State) iterInit(fr *frame, recv value.Value) (value.Value, error) {
	if o, ok := recvObject(recv); ok {
		if _, _, ok := object.Lookup(o, object.MetaNext); ok {
			return recv, nil
		}
		if fnVal, _, ok := object.Lookup(o, object.MetaIter); ok {
			if err := s.enterMeta(fr); err != nil {
				return value.Nil, err
			}
			defer s.leaveMeta()
			results, err := s.callValue(fr, fnVal, []value.Value{recv}, 1)
			if err != nil {
				return value.Nil, err
			}
			return results[0], nil
		}
	}
	return value.Nil, s.runtimeErrorf(fr, "value of type %s is not iterable", recv.TypeName())
}

// iterNext implements NEXT's call into the iterator's __next, returning up
// to nresults values and whether iteration is exhausted (§4.4).
func (s *State) iterNext(fr *frame, iter value.Value, nresults int) ([]value.Value, bool, error) {
	o, ok := recvObject(iter)
	if !ok {
		return nil, true, s.runtimeErrorf(fr, "iterator state is not an object")
	}
	fnVal, _, ok := object.Lookup(o, object.MetaNext)
	if !ok {
		return nil, true, s.runtimeErrorf(fr, "iterator has no __next")
	}
	if err := s.enterMeta(fr); err != nil {
		return nil, true, err
	}
	results, err := s.callValue(fr, fnVal, []value.Value{iter}, nresults)
	s.leaveMeta()
	if err != nil {
		return nil, true, err
	}
	if len(results) == 0 || results[0].IsNil() {
		return nil, true, nil
	}
	return results, false, nil
}
