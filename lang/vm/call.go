package vm

import (
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/value"
)

// callValue dispatches a call to a Closure, a CFunction, or an Object used
// as a constructor (§4.4 Calls). It always runs to completion: for a
// Closure it recursively drives the bytecode loop for the nested frame.
func (s *State) callValue(caller *frame, callee value.Value, args []value.Value, nresults int) ([]value.Value, error) {
	if s.Depth() >= s.Limits.MaxCallDepth {
		return nil, s.runtimeErrorf(caller, "call stack overflow")
	}
	if !callee.IsObj() {
		return nil, s.runtimeErrorf(caller, "attempt to call a %s value", callee.TypeName())
	}
	switch c := callee.AsObject().(type) {
	case *object.ObjClosure:
		return s.callClosure(c, args, nresults)
	case *object.ObjCFunction:
		return s.callCFunction(c, args, nresults)
	case *object.ObjObject:
		v, err := s.construct(caller, c, args)
		if err != nil {
			return nil, err
		}
		return adjustResults([]value.Value{v}, nresults), nil
	default:
		return nil, s.runtimeErrorf(caller, "attempt to call a %s value", callee.TypeName())
	}
}

func (s *State) callClosure(cl *object.ObjClosure, args []value.Value, nresults int) ([]value.Value, error) {
	fn := cl.Fn
	fr := newFrame(cl)

	// A method's slot 0 is the bound receiver, passed as args[0] by INVOKE,
	// so it fills directly. A plain function leaves slot 0 reserved and its
	// parameters start one slot over (§3, §4.2).
	base := 0
	if !fn.IsMethod {
		base = 1
	}

	nfixed := fn.Arity
	for i := 0; i < nfixed; i++ {
		if i < len(args) {
			fr.locals()[i+base] = args[i]
		} else {
			fr.locals()[i+base] = value.Nil
		}
	}
	if fn.Variadic {
		var extra []value.Value
		if len(args) > nfixed {
			extra = append(extra, args[nfixed:]...)
		}
		t := s.heap.NewTable(len(extra))
		for i, v := range extra {
			t.Set(value.Number(float64(i)), v)
		}
		fr.locals()[nfixed+base] = value.Object(t)
	} else if len(args) > nfixed {
		// extra arguments to a fixed-arity closure are silently discarded,
		// matching the dynamic-arity convention used throughout the language.
	}

	s.frames = append(s.frames, fr)
	results, err := s.run(fr)
	s.frames = s.frames[:len(s.frames)-1]
	if err != nil {
		return nil, err
	}
	return adjustResults(results, nresults), nil
}

func (s *State) callCFunction(cf *object.ObjCFunction, args []value.Value, nresults int) ([]value.Value, error) {
	savedArgs, savedResults := s.cArgs, s.cResults
	s.cArgs, s.cResults = args, nil
	n, err := cf.Fn(s, len(args))
	results := s.cResults
	s.cArgs, s.cResults = savedArgs, savedResults
	if err != nil {
		return nil, err
	}
	if n < len(results) {
		results = results[:n]
	}
	return adjustResults(results, nresults), nil
}

// adjustResults truncates or pads results to exactly nresults values; a
// request of 0 means "all results, unpadded" (§4.4 Calls).
func adjustResults(results []value.Value, nresults int) []value.Value {
	if nresults == 0 {
		return results
	}
	if len(results) >= nresults {
		return results[:nresults]
	}
	out := make([]value.Value, nresults)
	copy(out, results)
	for i := len(results); i < nresults; i++ {
		out[i] = value.Nil
	}
	return out
}

// Call invokes callee with args, requesting nresults return values (0 means
// all), for use by an embedder that isn't itself inside a CFunc (§6).
func (s *State) Call(callee value.Value, args []value.Value, nresults int) ([]value.Value, error) {
	return s.callValue(s.top(), callee, args, nresults)
}

// PCall is Call with runtime errors trapped: ok reports success; on failure
// err describes the fault and results is nil (§4.4 Protected call, §6).
func (s *State) PCall(callee value.Value, args []value.Value, nresults int) (results []value.Value, ok bool, err error) {
	savedDepth := len(s.frames)
	results, callErr := s.Call(callee, args, nresults)
	if callErr != nil {
		s.frames = s.frames[:savedDepth]
		return nil, false, callErr
	}
	return results, true, nil
}
