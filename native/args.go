// Package native implements the fixed host-function registry that
// bytecode reaches via the NATIVE instruction: formatted print, a
// random number, and sleep.
//
// Grounded on _examples/original_source/src/interpreter/mod.rs's
// native_print/native_random/native_sleep and their shared
// read_native_parameter helper.
package native

import "github.com/lakesis-vm/lakesis/cpu"

// Args is a read-only cursor over a native call's arguments, which
// live on the stack above the current SP and are never popped — the
// caller (the bytecode that issued PUSH before NATIVE) cleans up.
//
// Grounded on read_native_parameter's byte_offset = (index+1)*8
// arithmetic: index 0 is the value one word above SP, the first
// argument the caller pushed last.
type Args struct {
	stack *cpu.Stack
	sp    uint64
}

// NewArgs returns an argument cursor rooted at the given stack and
// current stack pointer.
func NewArgs(stack *cpu.Stack, sp uint64) Args {
	return Args{stack: stack, sp: sp}
}

// Word returns the value of the word at argument index (0-based,
// counting from the top of the stack); its tag is not checked.
func (a Args) Word(index int) (uint64, error) {
	addr := a.sp + uint64(index+1)*cpu.WordSize
	w, err := a.stack.ReadWord(addr)
	if err != nil {
		return 0, err
	}
	return w.Value, nil
}

// Reference returns the value of the word at argument index and
// requires it to be tagged Reference (used for the string-object arguments to
// Print).
func (a Args) Reference(index int) (uint64, error) {
	addr := a.sp + uint64(index+1)*cpu.WordSize
	w, err := a.stack.ReadWord(addr)
	if err != nil {
		return 0, err
	}
	if !w.IsReference() {
		return 0, errNotAReference(index)
	}
	return w.Value, nil
}
