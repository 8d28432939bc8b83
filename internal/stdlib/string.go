package stdlib

import (
	"strings"

	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
)

// OpenString installs the string prototype's methods and registers it as the
// default prototype for the "string" kind, so `s:sub(1, 3)` resolves through
// the prototype chain the same way a user-defined method would (§4.8).
func OpenString(s registrar) {
	proto := s.MakeObject()
	proto.Set("sub", s.MakeCFunction("sub", stringSub))
	proto.Set("find", s.MakeCFunction("find", stringFind))
	proto.Set("split", s.MakeCFunction("split", stringSplit))
	proto.Set("len", s.MakeCFunction("len", stringLen))
	s.RegisterProtoObject("string", proto)
}

func selfString(s object.State) (string, error) {
	self, ok := s.Arg(0).AsObject().(*object.ObjString)
	if !ok {
		return "", s.RaiseError("string method called on a %s value", s.Arg(0).TypeName())
	}
	return self.Bytes, nil
}

// stringSub implements `s:sub(i [, j])`: a Go-style half-open slice of the
// receiver, `i` inclusive and `j` exclusive, both 0-based; a missing `j`
// means "to the end". Either bound outside [0, len] is a runtime error.
func stringSub(s object.State, nargs int) (int, error) {
	str, err := selfString(s)
	if err != nil {
		return 0, err
	}
	if nargs < 2 {
		return 0, s.RaiseError("sub: expected at least 2 arguments, got %d", nargs)
	}
	i := int(s.Arg(1).AsNumber())
	j := len(str)
	if nargs >= 3 {
		j = int(s.Arg(2).AsNumber())
	}
	if i < 0 || j < i || j > len(str) {
		return 0, s.RaiseError("sub: index out of range")
	}
	h, err := asHost(s)
	if err != nil {
		return 0, err
	}
	s.Push(h.InternString(str[i:j]))
	return 1, nil
}

// stringFind implements `s:find(needle)`: a plain substring search, no
// pattern language (out of scope per spec.md §1). Returns the 0-based start
// index of the first match, or nil.
func stringFind(s object.State, nargs int) (int, error) {
	str, err := selfString(s)
	if err != nil {
		return 0, err
	}
	if nargs < 2 {
		return 0, s.RaiseError("find: expected 2 arguments, got %d", nargs)
	}
	needle, ok := s.Arg(1).AsObject().(*object.ObjString)
	if !ok {
		return 0, s.RaiseError("find: argument 2 must be a string")
	}
	idx := strings.Index(str, needle.Bytes)
	if idx < 0 {
		s.Push(value.Nil)
		return 1, nil
	}
	s.Push(value.Number(float64(idx)))
	return 1, nil
}

// stringSplit implements `s:split(sep)`, returning a Table of the pieces in
// order.
func stringSplit(s object.State, nargs int) (int, error) {
	str, err := selfString(s)
	if err != nil {
		return 0, err
	}
	if nargs < 2 {
		return 0, s.RaiseError("split: expected 2 arguments, got %d", nargs)
	}
	sep, ok := s.Arg(1).AsObject().(*object.ObjString)
	if !ok {
		return 0, s.RaiseError("split: argument 2 must be a string")
	}
	h, err := asHost(s)
	if err != nil {
		return 0, err
	}
	pieces := strings.Split(str, sep.Bytes)
	tbl := h.MakeTable(len(pieces))
	for i, p := range pieces {
		tbl.Set(value.Number(float64(i)), h.InternString(p))
	}
	s.Push(value.Object(tbl))
	return 1, nil
}

func stringLen(s object.State, nargs int) (int, error) {
	str, err := selfString(s)
	if err != nil {
		return 0, err
	}
	s.Push(value.Number(float64(len(str))))
	return 1, nil
}
