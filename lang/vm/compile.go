package vm

import (
	"github.com/mna/jacinthe/lang/compiler"
	"github.com/mna/jacinthe/lang/object"
)

// compileTopLevel drives the compiler package, freezing GC for the
// duration: the compiler allocates functions, closures and interned
// strings across many Go statements before any of it is reachable from a
// root, so a collection mid-compile could reclaim live work (§4.5).
func compileTopLevel(s *State, source, module string) (*object.ObjClosure, error) {
	s.FreezeGC()
	defer s.UnfreezeGC()
	return compiler.Compile(s, source, module)
}
