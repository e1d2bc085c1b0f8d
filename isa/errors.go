package isa

import "errors"

// ErrDecode wraps every well-formed-but-illegal encoding: reserved arity,
// unknown opcode, out-of-range register, immediate used as a destination,
// a negative [SP+v] offset. ErrTruncated wraps running off the end of the
// image mid-instruction. Both are decode errors per spec.md §7; callers
// that need to distinguish "no more instructions" from "corrupt
// instruction" can errors.Is against ErrTruncated specifically.
var (
	ErrDecode    = errors.New("decode error")
	ErrTruncated = errors.New("truncated instruction")
)
