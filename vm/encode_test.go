package vm

import "github.com/lakesis-vm/lakesis/isa"

// The tests in this package assemble tiny programs by hand, byte for
// byte, against the encoding isa.Decode expects (spec.md §4.1/§6).
// There is no assembler in scope (spec.md §1 places it out of bounds
// as an external collaborator), so these helpers are the test-only
// stand-in.

func byteCount(magnitude uint64) int {
	n := 0
	for magnitude > 0 {
		n++
		magnitude >>= 8
	}
	return n
}

func encOperandMagnitude(mode isa.Mode, reg uint8, magnitude uint64, negative bool) []byte {
	count := byteCount(magnitude)
	if count > 7 {
		panic("test literal exceeds the 7-byte operand encoding limit")
	}
	sign := byte(0)
	if negative {
		sign = 1
	}
	lead := byte(mode)<<6 | (reg&0x3)<<4 | sign<<3 | byte(count)
	buf := make([]byte, 1, 1+count)
	buf[0] = lead
	m := magnitude
	for i := 0; i < count; i++ {
		buf = append(buf, byte(m&0xFF))
		m >>= 8
	}
	return buf
}

// immOp encodes a signed Immediate operand (for ordinary small
// literals, including negative ones).
func immOp(v int64) []byte {
	if v < 0 {
		return encOperandMagnitude(isa.Immediate, 0, uint64(-v), true)
	}
	return encOperandMagnitude(isa.Immediate, 0, uint64(v), false)
}

// immRawOp encodes an Immediate operand from a raw unsigned magnitude
// (no sign), for bit patterns that don't correspond to a small signed
// value. Like every operand here it is limited to 7 literal bytes, so a
// pattern such as 0x8000000000000000 panics instead of encoding.
func immRawOp(v uint64) []byte {
	return encOperandMagnitude(isa.Immediate, 0, v, false)
}

func regOp(r uint8) []byte {
	return encOperandMagnitude(isa.RegisterDirect, r, 0, false)
}

func regOffOp(r uint8, v int64) []byte {
	if v < 0 {
		return encOperandMagnitude(isa.RegisterOffset, r, uint64(-v), true)
	}
	return encOperandMagnitude(isa.RegisterOffset, r, uint64(v), false)
}

func stackOffOp(v int64) []byte {
	return encOperandMagnitude(isa.StackOffset, 0, uint64(v), false)
}

func instr(op isa.Opcode, operands ...[]byte) []byte {
	buf := []byte{byte(len(operands)<<6) | byte(op)}
	for _, o := range operands {
		buf = append(buf, o...)
	}
	return buf
}

func program(instrs ...[]byte) []byte {
	var out []byte
	for _, in := range instrs {
		out = append(out, in...)
	}
	return out
}

func encOperandFixedWidth(mode isa.Mode, reg uint8, magnitude uint64, width int) []byte {
	lead := byte(mode)<<6 | (reg&0x3)<<4 | byte(width)
	buf := make([]byte, 1, 1+width)
	buf[0] = lead
	m := magnitude
	for i := 0; i < width; i++ {
		buf = append(buf, byte(m&0xFF))
		m >>= 8
	}
	return buf
}

// addrOp encodes a jump/call target at a fixed 2-byte width so a
// placeholder address and the real, later-computed one occupy exactly
// the same number of bytes — test programs can measure offsets before
// knowing them.
func addrOp(v uint64) []byte {
	return encOperandFixedWidth(isa.Immediate, 0, v, 2)
}
