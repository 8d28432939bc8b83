package object

import (
	"fmt"

	"github.com/mna/jacinthe/lang/value"
)

// State is the minimal slice of the embedding API (§6) a CFunc needs to read
// its arguments and push results. It is declared here, not in the vm
// package, so that ObjCFunction can reference it without object importing
// vm (vm already imports object for the heap types). *vm.State satisfies
// this interface structurally.
type State interface {
	Arg(n int) value.Value
	Push(v value.Value)
	RaiseError(format string, args ...any) error
}

// CFunc is the signature of a function implemented in Go and exposed to
// scripts as a callable object (§6). nargs is the number of arguments the
// caller pushed; the function reads them off the state via Arg, pushes its
// results via Push, and returns how many it pushed, or an error to raise
// instead.
type CFunc func(s State, nargs int) (nresults int, err error)

// ObjCFunction wraps a CFunc as a heap object so it can be stored in
// globals, tables and object fields exactly like a scripted closure (§6).
type ObjCFunction struct {
	Header
	Name string
	Fn   CFunc
}

var _ Ref = (*ObjCFunction)(nil)

func (f *ObjCFunction) ObjKind() Kind    { return KindCFunction }
func (f *ObjCFunction) TypeName() string { return "function" }
func (f *ObjCFunction) String() string {
	name := f.Name
	if name == "" {
		name = "builtin"
	}
	return fmt.Sprintf("<function %s: builtin>", name)
}
