package compiler

import (
	"github.com/mna/jacinthe/lang/chunk"
	"github.com/mna/jacinthe/lang/object"
)

type local struct {
	name     string
	depth    int
	captured bool
}

type upvalue struct {
	fromLocal bool
	index     uint8
}

type loopCtx struct {
	start        int
	scopeDepth   int
	breaks       []int
	continues    []int
	continueDest int // resolved once the loop's increment/condition point is known
}

// funcState holds everything the compiler tracks for one function being
// compiled: its bytecode buffer, the lexical scope stack of locals, and the
// chain of enclosing funcStates used to resolve upvalues (§3, §4.2).
type funcState struct {
	enclosing *funcState
	chunk     *chunk.Chunk

	name     string
	module   string
	isScript bool
	arity    int
	isMethod bool
	variadic bool

	locals     []local
	upvalues   []upvalue
	scopeDepth int
	maxLocals  int

	loops []*loopCtx
}

func newFuncState(enclosing *funcState, name, module string, isScript bool) *funcState {
	fs := &funcState{
		enclosing: enclosing,
		chunk:     chunk.New(),
		name:      name,
		module:    module,
		isScript:  isScript,
	}
	// Slot 0 is reserved for the active closure itself (used by recursive
	// self-reference and by method calls to find `self`).
	fs.locals = append(fs.locals, local{name: "", depth: 0})
	return fs
}

func (fs *funcState) toFunction(alloc Allocator) *object.ObjFunction {
	descs := make([]object.UpvalueDesc, len(fs.upvalues))
	for i, uv := range fs.upvalues {
		descs[i] = object.UpvalueDesc{FromLocal: uv.fromLocal, Index: uv.index}
	}
	return &object.ObjFunction{
		Chunk:     fs.chunk,
		Name:      fs.name,
		Module:    fs.module,
		Arity:     fs.arity,
		IsMethod:  fs.isMethod,
		Variadic:  fs.variadic,
		Upvalues:  descs,
		MaxLocals: fs.maxLocals,
		MaxStack:  fs.maxLocals + 256,
	}
}

func (c *compiler) beginScope() { c.fc.scopeDepth++ }

// endScope pops locals declared in the scope being left, closing any that
// were captured by a nested closure (§4.3 CLOSE, §3 invariant 4).
func (c *compiler) endScope() {
	fs := c.fc
	fs.scopeDepth--
	n := 0
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		last := fs.locals[len(fs.locals)-1]
		if last.captured {
			c.emitOp(chunk.CLOSE)
		} else {
			c.emitOpU8(chunk.POP, 1)
		}
		fs.locals = fs.locals[:len(fs.locals)-1]
		n++
	}
	_ = n
}

// declareLocal introduces name as a new local in the current scope. It is
// an error to redeclare a name already local to this exact scope depth.
func (c *compiler) declareLocal(name string) int {
	fs := c.fc
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].depth < fs.scopeDepth {
			break
		}
		if fs.locals[i].name == name {
			c.errorAtPrev("variable already declared in this scope: " + name)
			return -1
		}
	}
	fs.locals = append(fs.locals, local{name: name, depth: fs.scopeDepth})
	if len(fs.locals) > fs.maxLocals {
		fs.maxLocals = len(fs.locals)
	}
	if len(fs.locals) > 256 {
		c.errorAtPrev("too many local variables in function")
	}
	return len(fs.locals) - 1
}

// resolveLocal returns the slot of name in fs's own locals, or -1.
func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name against fs's enclosing function chain,
// adding upvalue capture entries as needed and marking the captured local
// so endScope emits CLOSE for it.
func resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(fs.enclosing, name); slot != -1 {
		fs.enclosing.locals[slot].captured = true
		return addUpvalue(fs, uint8(slot), true)
	}
	if idx := resolveUpvalue(fs.enclosing, name); idx != -1 {
		return addUpvalue(fs, uint8(idx), false)
	}
	return -1
}

func addUpvalue(fs *funcState, index uint8, fromLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.fromLocal == fromLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, upvalue{fromLocal: fromLocal, index: index})
	return len(fs.upvalues) - 1
}

func (c *compiler) pushLoop() *loopCtx {
	lp := &loopCtx{start: c.fc.chunk.Len(), scopeDepth: c.fc.scopeDepth}
	c.fc.loops = append(c.fc.loops, lp)
	return lp
}

func (c *compiler) popLoop() {
	c.fc.loops = c.fc.loops[:len(c.fc.loops)-1]
}

func (c *compiler) currentLoop() *loopCtx {
	if len(c.fc.loops) == 0 {
		return nil
	}
	return c.fc.loops[len(c.fc.loops)-1]
}
