package token

// Pos is a 1-based source line number. A value of 0 means "unknown",
// matching the teacher convention of reserving the zero value for an
// absent position rather than introducing a separate boolean flag.
type Pos int32

// Unknown reports whether p carries no position information.
func (p Pos) Unknown() bool { return p == 0 }
