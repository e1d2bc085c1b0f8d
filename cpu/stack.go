package cpu

import (
	"encoding/binary"
	"fmt"

	"github.com/lakesis-vm/lakesis/word"
)

// Stack is the typed stack region: a fixed-capacity byte array plus a
// parallel tag bit per word-aligned slot, so a moving PUSH/POP carries
// its Reference/Data tag along with the bytes (spec.md §9, "tag
// tracking").
//
// Grounded on _examples/original_source/src/interpreter/mod.rs's
// push_stack/pop_stack (write-then-decrement, increment-then-read) and
// its bounds check being the arena's allocation check; here the bounds
// check is Stack's own, since the stack is its own address space
// rather than a region carved out of the heap arena.
type Stack struct {
	bytes []byte
	tags  []word.Tag
}

// NewStack allocates a stack region of capacity bytes, initialized to
// all-zero Data words (spec.md §3: "at boot, every stack slot is
// Data").
func NewStack(capacity uint64) *Stack {
	return &Stack{
		bytes: make([]byte, capacity),
		tags:  make([]word.Tag, capacity/WordSize),
	}
}

// Capacity returns the stack's total byte size.
func (s *Stack) Capacity() uint64 {
	return uint64(len(s.bytes))
}

// Top returns the address of the topmost reserved slot: SP's initial
// value before any PUSH.
func (s *Stack) Top() uint64 {
	return s.Capacity() - WordSize
}

func (s *Stack) bounds(addr uint64) error {
	if addr%WordSize != 0 {
		return fmt.Errorf("misaligned stack address %#x", addr)
	}
	if addr >= s.Capacity() || s.Capacity()-addr < WordSize {
		return fmt.Errorf("stack address %#x out of range", addr)
	}
	return nil
}

// ReadWord returns the typed word at addr (word-addressed, per spec.md
// §4.3), used both by POP and by [SP+v]-mode operand evaluation.
func (s *Stack) ReadWord(addr uint64) (word.Word, error) {
	if err := s.bounds(addr); err != nil {
		return word.Zero, err
	}
	v := binary.LittleEndian.Uint64(s.bytes[addr : addr+WordSize])
	return word.Word{Value: v, Tag: s.tags[addr/WordSize]}, nil
}

// WriteWord stores w at addr (word-addressed).
func (s *Stack) WriteWord(addr uint64, w word.Word) error {
	if err := s.bounds(addr); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(s.bytes[addr:addr+WordSize], w.Value)
	s.tags[addr/WordSize] = w.Tag
	return nil
}

// Push writes w at *sp then decrements *sp by WordSize (the stack
// grows downward toward address zero). An error leaves *sp unchanged.
func (s *Stack) Push(sp *uint64, w word.Word) error {
	if err := s.WriteWord(*sp, w); err != nil {
		return fmt.Errorf("stack overflow: %w", err)
	}
	*sp -= WordSize
	return nil
}

// Pop increments *sp by WordSize then reads the word there. An error
// (stack underflow) leaves the read half of the operation void; *sp
// has already moved, matching the reference implementation's
// increment-then-read order.
func (s *Stack) Pop(sp *uint64) (word.Word, error) {
	*sp += WordSize
	w, err := s.ReadWord(*sp)
	if err != nil {
		return word.Zero, fmt.Errorf("stack underflow: %w", err)
	}
	return w, nil
}

// RootValues returns the values held in every Reference-tagged slot in
// the occupied portion of the stack: everything above sp up to the
// stack base (spec.md §5, root discovery). These are heap ids, ready
// to seed a heap.Manager.Collect call. sp itself points at the next
// free slot and is not included.
func (s *Stack) RootValues(sp uint64) []uint64 {
	var roots []uint64
	if sp >= s.Top() {
		return roots
	}
	for addr := sp + WordSize; addr <= s.Top(); addr += WordSize {
		if s.tags[addr/WordSize] == word.Reference {
			roots = append(roots, binary.LittleEndian.Uint64(s.bytes[addr:addr+WordSize]))
		}
	}
	return roots
}
