package vm

import "fmt"

// RuntimeError is a runtime fault raised by the interpreter or a CFunc,
// carrying the source line active when it was raised (§7).
type RuntimeError struct {
	Message string
	Line    int32
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (s *State) runtimeErrorf(fr *frame, format string, args ...any) *RuntimeError {
	line := int32(0)
	if fr != nil {
		line = fr.closure.Fn.Chunk.LineAt(fr.pc)
	}
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Line: line}
}
