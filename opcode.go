package chip8

import "fmt"

// OpCode is a 16-bit instruction word
type OpCode uint16

// Group is the top nibble, which selects the instruction family
func (op OpCode) Group() byte {
	return byte(op >> 12)
}

// X is the register index in bits 8-11
func (op OpCode) X() byte {
	return byte(op>>8) & 0x0F
}

// Y is the register index in bits 4-7
func (op OpCode) Y() byte {
	return byte(op>>4) & 0x0F
}

// N is the low nibble
func (op OpCode) N() byte {
	return byte(op) & 0x0F
}

// NN is the low byte
func (op OpCode) NN() byte {
	return byte(op)
}

// NNN is the 12-bit address
func (op OpCode) NNN() uint16 {
	return uint16(op) & 0x0FFF
}

func (op OpCode) String() string {
	return fmt.Sprintf("%04X", uint16(op))
}
