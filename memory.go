package chip8

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProgramTooLarge = errors.New("the program does not fit into memory")

const (
	MemorySize     = 4096
	StartOfProgram = 0x200
	// MaxProgramSize is the largest ROM that fits between StartOfProgram and the end of memory
	MaxProgramSize = MemorySize - StartOfProgram

	addressMask = MemorySize - 1
)

const (
	glyphSize = 5
	fontSize  = 16 * glyphSize
)

// Memory is the 4 KiB address space of the machine.
// Accesses through Read and Write wrap at MemorySize.
type Memory [MemorySize]byte

// NewMemory creates an empty memory of 4096 bytes
func NewMemory() *Memory {
	return &Memory{}
}

func (mem *Memory) Read(addr uint16) byte {
	return mem[addr&addressMask]
}

func (mem *Memory) Write(addr uint16, b byte) {
	mem[addr&addressMask] = b
}

// OpCodeAt returns the big-endian instruction word at addr.
func (mem *Memory) OpCodeAt(addr uint16) OpCode {
	return OpCode(mem.Read(addr))<<8 | OpCode(mem.Read(addr+1))
}

func (mem Memory) Clone() *Memory {
	m := NewMemory()

	copy(m[:], mem[:])

	return m
}

func (mem Memory) String() string {
	sb := strings.Builder{}

	sb.WriteString("[ ")
	for _, b := range mem[:StartOfProgram] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]\n")
	sb.WriteString("[ ")
	for _, b := range mem[StartOfProgram:] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]")

	return sb.String()
}

// LoadFonts copies the hexadecimal digit glyphs at the start of memory
func (mem *Memory) LoadFonts() {
	copy(mem[:], fonts[:])
}

// LoadProgram copies the program at the start-of-program address.
// Programs bigger than MaxProgramSize are rejected and memory is left untouched.
func (mem *Memory) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, at most %d fit", ErrProgramTooLarge, len(program), MaxProgramSize)
	}

	copy(mem[StartOfProgram:], program)

	return nil
}

// GlyphAddress returns the address of the font glyph for the hex digit d.
func GlyphAddress(d byte) uint16 {
	return uint16(d) * glyphSize
}

// Each glyph is 5 rows of an 8x5 sprite; only the high nibble is lit.
var fonts = [fontSize]byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}
