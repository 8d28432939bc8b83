package object

import "strconv"

// ObjString is an immutable, interned byte buffer. Creating a string that
// matches an existing one (via the gc package's intern table) returns the
// same *ObjString, so string equality reduces to pointer identity (§3).
type ObjString struct {
	Header
	Bytes string
}

var _ Ref = (*ObjString)(nil)

func (s *ObjString) ObjKind() Kind    { return KindString }
func (s *ObjString) TypeName() string { return "string" }
func (s *ObjString) String() string   { return s.Bytes }

// Quoted returns the string formatted as a double-quoted Go-style literal,
// used by the disassembler and error messages.
func (s *ObjString) Quoted() string { return strconv.Quote(s.Bytes) }
