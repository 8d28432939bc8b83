// Package stdlib registers the small set of builtins a jacinthe script can
// rely on without the host providing anything else: print, type inspection,
// string/number conversion, script loading and error raising. It is the
// "external collaborator" the runtime itself never imports — nothing under
// lang/ references this package.
package stdlib

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
)

// host is the slice of *vm.State a builtin needs beyond the minimal
// object.State call surface. Declared locally (rather than importing vm for
// a *vm.State parameter) so this package only ever touches the runtime
// through interfaces, the same separation lang/compiler keeps from lang/vm.
type host interface {
	object.State
	InternString(s string) value.Value
	ToStringMeta(v value.Value) (string, error)
	Output() io.Writer
	CompileString(source, module string) (*object.ObjClosure, error)
	RegisterProtoObject(typeTag string, proto *object.ObjObject)
	MakeObject() *object.ObjObject
	MakeTable(size int) *object.ObjTable
	MakeCFunction(name string, fn object.CFunc) value.Value
	PCall(callee value.Value, args []value.Value, nresults int) (results []value.Value, ok bool, err error)
}

// registrar is implemented by *vm.State; Register is called once per builtin
// at startup, outside of any running script.
type registrar interface {
	host
	Register(name string, fn object.CFunc)
}

// Open installs every builtin global and the string prototype on s.
func Open(s registrar) {
	s.Register("print", builtinPrint)
	s.Register("type", builtinType)
	s.Register("tostring", builtinToString)
	s.Register("tonumber", builtinToNumber)
	s.Register("loadstring", builtinLoadString)
	s.Register("error", builtinError)
	s.Register("pcall", builtinPCall)
	OpenString(s)
}

func asHost(s object.State) (host, error) {
	h, ok := s.(host)
	if !ok {
		return nil, fmt.Errorf("stdlib: state does not implement the host interface")
	}
	return h, nil
}

func builtinPrint(s object.State, nargs int) (int, error) {
	h, err := asHost(s)
	if err != nil {
		return 0, err
	}
	parts := make([]string, nargs)
	for i := 0; i < nargs; i++ {
		str, err := h.ToStringMeta(s.Arg(i))
		if err != nil {
			return 0, err
		}
		parts[i] = str
	}
	fmt.Fprintln(h.Output(), strings.Join(parts, ""))
	return 0, nil
}

func builtinType(s object.State, nargs int) (int, error) {
	if nargs < 1 {
		return 0, s.RaiseError("type: expected 1 argument, got %d", nargs)
	}
	h, err := asHost(s)
	if err != nil {
		return 0, err
	}
	s.Push(h.InternString(s.Arg(0).TypeName()))
	return 1, nil
}

func builtinToString(s object.State, nargs int) (int, error) {
	if nargs < 1 {
		return 0, s.RaiseError("tostring: expected 1 argument, got %d", nargs)
	}
	h, err := asHost(s)
	if err != nil {
		return 0, err
	}
	str, err := h.ToStringMeta(s.Arg(0))
	if err != nil {
		return 0, err
	}
	s.Push(h.InternString(str))
	return 1, nil
}

// builtinToNumber parses a string argument, or passes a number through
// unchanged; any other type, or an unparseable string, yields nil (§4.8).
func builtinToNumber(s object.State, nargs int) (int, error) {
	if nargs < 1 {
		return 0, s.RaiseError("tonumber: expected 1 argument, got %d", nargs)
	}
	v := s.Arg(0)
	switch {
	case v.IsNum():
		s.Push(v)
	case v.IsObj():
		str, ok := v.AsObject().(*object.ObjString)
		if !ok {
			s.Push(value.Nil)
			return 1, nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(str.Bytes), 64)
		if err != nil {
			s.Push(value.Nil)
			return 1, nil
		}
		s.Push(value.Number(n))
	default:
		s.Push(value.Nil)
	}
	return 1, nil
}

// builtinLoadString compiles src as a fresh top-level chunk and pushes the
// resulting closure, or nil plus an error string on a compile failure,
// exercising compileString from inside a running script (§4.8, §9 open
// question (a)).
func builtinLoadString(s object.State, nargs int) (int, error) {
	if nargs < 1 {
		return 0, s.RaiseError("loadstring: expected at least 1 argument, got %d", nargs)
	}
	h, err := asHost(s)
	if err != nil {
		return 0, err
	}
	srcObj, ok := s.Arg(0).AsObject().(*object.ObjString)
	if !ok {
		return 0, s.RaiseError("loadstring: argument 1 must be a string")
	}
	chunkName := "loadstring"
	if nargs >= 2 {
		if nameObj, ok := s.Arg(1).AsObject().(*object.ObjString); ok {
			chunkName = nameObj.Bytes
		}
	}
	cl, err := h.CompileString(srcObj.Bytes, chunkName)
	if err != nil {
		s.Push(value.Nil)
		s.Push(h.InternString(err.Error()))
		return 2, nil
	}
	s.Push(value.Object(cl))
	return 1, nil
}

func builtinError(s object.State, nargs int) (int, error) {
	msg := "error"
	if nargs >= 1 {
		msg = s.Arg(0).String()
	}
	return 0, s.RaiseError("%s", msg)
}

// builtinPCall calls its first argument with the remaining arguments,
// trapping any runtime error instead of letting it propagate: it pushes
// true followed by the callee's results on success, or false followed by
// the error's message on failure.
func builtinPCall(s object.State, nargs int) (int, error) {
	if nargs < 1 {
		return 0, s.RaiseError("pcall: expected at least 1 argument, got %d", nargs)
	}
	h, err := asHost(s)
	if err != nil {
		return 0, err
	}
	callee := s.Arg(0)
	args := make([]value.Value, nargs-1)
	for i := 1; i < nargs; i++ {
		args[i-1] = s.Arg(i)
	}
	results, ok, callErr := h.PCall(callee, args, 0)
	if !ok {
		s.Push(value.Bool(false))
		s.Push(h.InternString(callErr.Error()))
		return 2, nil
	}
	s.Push(value.Bool(true))
	for _, r := range results {
		s.Push(r)
	}
	return 1 + len(results), nil
}

