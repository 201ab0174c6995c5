package chip8_test

import (
	"errors"
	"testing"

	"github.com/guslan/chip8"
)

func newMachine(t *testing.T, program []byte) *chip8.Machine {
	t.Helper()

	m := chip8.NewMachine(chip8.WithSeed(1))
	m.LoadFonts()
	if err := m.LoadProgram(program); err != nil {
		t.Fatalf(`LoadProgram() returned an error %v`, err)
	}

	return m
}

func runNCycles(t *testing.T, m *chip8.Machine, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf(`Step() #%d returned an error %v`, i, err)
		}
	}
}

func assertVxEq(t *testing.T, msg string, m *chip8.Machine, x, kk byte) {
	t.Helper()

	if m.V[x] != kk {
		t.Fatalf(`%s: m.V[%x] = %d, expected %d`, msg, x, m.V[x], kk)
	}
}

func assertPcEq(t *testing.T, m *chip8.Machine, pc uint16) {
	t.Helper()

	if m.Pc != pc {
		t.Fatalf(`m.Pc = %03X, expected %03X`, m.Pc, pc)
	}
}

func TestNewMachine(t *testing.T) {
	m := chip8.NewMachine()

	assertPcEq(t, m, 0x200)
	if m.Sp != 0 || m.I != 0 {
		t.Fatalf(`Sp = %d and I = %d, expected both to be 0`, m.Sp, m.I)
	}
}

// TestProgramLoading loads a program that jumps to itself
func TestProgramLoading(t *testing.T) {
	m := newMachine(t, []byte{0x12, 0x00})

	runNCycles(t, m, 3)
	assertPcEq(t, m, 0x200)

	if got := m.Memory[0x200]; got != 0x12 {
		t.Fatalf(`m.Memory[0x200] = %X, expected 12`, got)
	}
}

func TestProgramTooLarge(t *testing.T) {
	m := chip8.NewMachine()

	if err := m.LoadProgram(make([]byte, chip8.MaxProgramSize)); err != nil {
		t.Fatalf(`LoadProgram() of %d bytes returned an error %v`, chip8.MaxProgramSize, err)
	}

	big := make([]byte, chip8.MaxProgramSize+1)
	for i := range big {
		big[i] = 0xAA
	}
	err := m.LoadProgram(big)
	if !errors.Is(err, chip8.ErrProgramTooLarge) {
		t.Fatalf(`LoadProgram() returned %v, expected ErrProgramTooLarge`, err)
	}
	if m.Memory[0x200] != 0 || m.Memory[0xFFF] != 0 {
		t.Fatalf(`a rejected program was written to memory`)
	}
}

func TestLoadFonts(t *testing.T) {
	m := chip8.NewMachine()
	m.LoadFonts()

	zero := []byte{0xF0, 0x90, 0x90, 0x90, 0xF0}
	for i, b := range zero {
		if m.Memory[i] != b {
			t.Fatalf(`m.Memory[%d] = %X, expected %X`, i, m.Memory[i], b)
		}
	}

	f := []byte{0xF0, 0x80, 0xF0, 0x80, 0x80}
	for i, b := range f {
		addr := chip8.GlyphAddress(0xF) + uint16(i)
		if m.Memory[addr] != b {
			t.Fatalf(`m.Memory[%d] = %X, expected %X`, addr, m.Memory[addr], b)
		}
	}
}

func TestReset(t *testing.T) {
	m := newMachine(t, []byte{
		0x60, 0x2A,
		0xA3, 0x00,
		0x22, 0x08,
		0x00, 0x00,
		0x00, 0xE0,
	})
	m.Dt = 9
	m.Screen[5] = 1
	runNCycles(t, m, 3)

	m.Reset()

	assertPcEq(t, m, 0x200)
	if m.Sp != 0 || m.I != 0 {
		t.Fatalf(`Sp = %d and I = %d, expected both to be 0`, m.Sp, m.I)
	}
	if m.Screen != (chip8.Screen{}) {
		t.Fatalf(`the screen was not cleared`)
	}
	assertVxEq(t, "registers survive a reset", m, 0, 0x2A)
	if m.Dt != 9 {
		t.Fatalf(`m.Dt = %d, expected 9`, m.Dt)
	}
	if m.Memory[0x200] != 0x60 {
		t.Fatalf(`memory was cleared by a reset`)
	}
}

// TestConstantSetInstructions
func TestConstantSetInstructions(t *testing.T) {
	m := newMachine(t, []byte{
		// set v0 to 128
		0x60, 128,
		// set v1 to 16
		0x61, 16,
		// set v2 to 1
		0x62, 1,
		// add to v2 4
		0x72, 4,
		// set v3 to 250 and add 10
		0x63, 250,
		0x73, 10,
	})
	m.V[0xF] = 0x55

	runNCycles(t, m, 6)

	assertVxEq(t, "LD Vx kk", m, 0, 128)
	assertVxEq(t, "LD Vx kk", m, 1, 16)
	assertVxEq(t, "ADD Vx kk", m, 2, 5)
	assertVxEq(t, "ADD Vx kk wraps", m, 3, 4)
	assertVxEq(t, "ADD Vx kk leaves VF alone", m, 0xF, 0x55)
}

func TestAddWrapsForEveryRegister(t *testing.T) {
	for x := byte(0); x < 16; x++ {
		m := newMachine(t, []byte{
			0x60 | x, 250,
			0x70 | x, 10,
		})
		runNCycles(t, m, 2)
		assertVxEq(t, "ADD Vx kk wraps", m, x, 4)
	}
}

// TestSimpleSkips checks the conditional skips
func TestSimpleSkips(t *testing.T) {
	m := newMachine(t, []byte{
		// set v0 to 128
		0x60, 128,
		// set v1 to 16
		0x61, 16,
		// set v2 to 128
		0x62, 128,

		// if v0 == 128, do not set v3 to 1
		0x30, 128,
		0x63, 1,

		// if v0 == 16, do not set vA to 1
		0x30, 16,
		0x6A, 1,

		// if v0 != 128, do not set v4 to 1
		0x40, 128,
		0x64, 1,

		// if v0 != 16, do not set vB to 1
		0x40, 16,
		0x6B, 1,

		// if v0 == v1, do not set v5 to 1
		0x50, 0x10,
		0x65, 1,

		// if v0 == v2, do not set v6 to 1
		0x50, 0x20,
		0x66, 1,

		// if v0 != v1, do not set v7 to 1
		0x90, 0x10,
		0x67, 1,

		// if v0 != v2, do not set v8 to 1
		0x90, 0x20,
		0x68, 1,
	})

	runNCycles(t, m, 15)

	assertVxEq(t, "SE Vx kk true", m, 0x3, 0x0)
	assertVxEq(t, "SE Vx kk false", m, 0xA, 0x1)
	assertVxEq(t, "SNE Vx kk true", m, 0xB, 0x0)
	assertVxEq(t, "SNE Vx kk false", m, 0x4, 0x1)
	assertVxEq(t, "SE Vx V2 true", m, 0x6, 0x0)
	assertVxEq(t, "SE Vx V1 false", m, 0x5, 0x1)
	assertVxEq(t, "SNE Vx V1 true", m, 0x7, 0x0)
	assertVxEq(t, "SNE Vx V2 false", m, 0x8, 0x1)
}

func TestRegisterOperations(t *testing.T) {
	tests := []struct {
		name   string
		op     byte
		vx, vy byte
		wantVx byte
		wantVf byte
	}{
		{"LD", 0x0, 0x12, 0x34, 0x34, 0x77},
		{"OR", 0x1, 0xF0, 0x3C, 0xFC, 0x77},
		{"AND", 0x2, 0xF0, 0x3C, 0x30, 0x77},
		{"XOR", 0x3, 0xF0, 0x3C, 0xCC, 0x77},
		{"ADD with carry", 0x4, 200, 100, 44, 1},
		{"ADD without carry", 0x4, 10, 20, 30, 0},
		{"ADD to exactly 255", 0x4, 200, 55, 255, 0},
		{"SUB without borrow", 0x5, 10, 5, 5, 1},
		{"SUB with borrow", 0x5, 5, 10, 251, 0},
		{"SUB equal values", 0x5, 5, 5, 0, 0},
		{"SHR odd", 0x6, 0b00000011, 0, 1, 1},
		{"SHR even", 0x6, 0b00000100, 0, 2, 0},
		{"SUBN without borrow", 0x7, 5, 10, 5, 1},
		{"SUBN with borrow", 0x7, 10, 5, 251, 0},
		{"SHL high bit", 0xE, 0b10000001, 0, 0b00000010, 1},
		{"SHL low bit", 0xE, 0b01000001, 0, 0b10000010, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t, []byte{
				0x61, tt.vx,
				0x62, tt.vy,
				0x6F, 0x77,
				0x81, 0x20 | tt.op,
			})
			runNCycles(t, m, 4)

			assertVxEq(t, tt.name+" Vx", m, 1, tt.wantVx)
			assertVxEq(t, tt.name+" VF", m, 0xF, tt.wantVf)
			assertVxEq(t, tt.name+" Vy untouched", m, 2, tt.vy)
		})
	}
}

func TestAluWithVFAsOperand(t *testing.T) {
	// The flag is written first; the operation then reads the updated VF
	tests := []struct {
		name           string
		x, y, op       byte
		v1, vf         byte
		wantV1, wantVf byte
	}{
		{"ADD VF, V1", 0xF, 0x1, 0x4, 100, 200, 100, 101},
		{"ADD V1, VF", 0x1, 0xF, 0x4, 100, 200, 101, 1},
		{"SUB VF, V1", 0xF, 0x1, 0x5, 100, 200, 100, 157},
		{"SUB V1, VF", 0x1, 0xF, 0x5, 200, 100, 199, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t, []byte{
				0x6F, tt.vf,
				0x61, tt.v1,
				0x80 | tt.x, tt.y<<4 | tt.op,
			})
			runNCycles(t, m, 3)

			assertVxEq(t, tt.name+" V1", m, 1, tt.wantV1)
			assertVxEq(t, tt.name+" VF", m, 0xF, tt.wantVf)
		})
	}
}

func TestIndexInstructions(t *testing.T) {
	m := newMachine(t, []byte{
		// I = 0x123
		0xA1, 0x23,
		// V0 = 0x10, I += V0
		0x60, 0x10,
		0xF0, 0x1E,
	})
	runNCycles(t, m, 3)

	if m.I != 0x133 {
		t.Fatalf(`m.I = %03X, expected 133`, m.I)
	}

	m = newMachine(t, []byte{
		0x6A, 0x0B,
		0xFA, 0x29,
	})
	runNCycles(t, m, 2)

	if m.I != chip8.GlyphAddress(0xB) || m.I != 55 {
		t.Fatalf(`m.I = %d, expected the glyph of B at 55`, m.I)
	}
}

func TestAddToIndexHasNoFlag(t *testing.T) {
	m := newMachine(t, []byte{
		0xAF, 0xFF,
		0x60, 0xFF,
		0x6F, 0x00,
		0xF0, 0x1E,
	})
	runNCycles(t, m, 4)

	if m.I != 0x10FE {
		t.Fatalf(`m.I = %04X, expected 10FE`, m.I)
	}
	assertVxEq(t, "ADD I, Vx", m, 0xF, 0)
}

func TestBCD(t *testing.T) {
	m := newMachine(t, []byte{
		0x60, 157,
		0xA3, 0x00,
		0xF0, 0x33,
	})
	runNCycles(t, m, 3)

	want := []byte{1, 5, 7}
	for i, b := range want {
		if m.Memory[0x300+i] != b {
			t.Fatalf(`m.Memory[%03X] = %d, expected %d`, 0x300+i, m.Memory[0x300+i], b)
		}
	}
	if m.I != 0x300 {
		t.Fatalf(`LD B, Vx moved I to %03X`, m.I)
	}
}

func TestStoreAndLoadRegisters(t *testing.T) {
	m := newMachine(t, []byte{
		0x60, 0x11,
		0x61, 0x22,
		0x62, 0x33,
		0x63, 0x44,
		0xA4, 0x00,
		// store V0..V2
		0xF2, 0x55,
		// clear V0..V3
		0x60, 0x00,
		0x61, 0x00,
		0x62, 0x00,
		0x63, 0x00,
		// load V0..V1
		0xF1, 0x65,
	})
	runNCycles(t, m, 11)

	if got := m.Memory[0x400:0x404]; got[0] != 0x11 || got[1] != 0x22 || got[2] != 0x33 || got[3] != 0x00 {
		t.Fatalf(`m.Memory[400:404] = %X, expected 11 22 33 00`, got)
	}
	assertVxEq(t, "LD Vx, [I]", m, 0, 0x11)
	assertVxEq(t, "LD Vx, [I]", m, 1, 0x22)
	assertVxEq(t, "LD Vx, [I] stops at x", m, 2, 0x00)
	if m.I != 0x400 {
		t.Fatalf(`m.I = %03X, expected it to stay at 400`, m.I)
	}
}

func TestJumps(t *testing.T) {
	m := newMachine(t, []byte{0x13, 0x45})
	runNCycles(t, m, 1)
	assertPcEq(t, m, 0x345)

	m = newMachine(t, []byte{
		0x60, 0x04,
		0xB3, 0x00,
	})
	runNCycles(t, m, 2)
	assertPcEq(t, m, 0x304)
}

func TestCallAndReturn(t *testing.T) {
	m := newMachine(t, []byte{
		// 200: call 206
		0x22, 0x06,
		// 202: set v1 to 1
		0x61, 0x01,
		// 204: loop
		0x12, 0x04,
		// 206: return
		0x00, 0xEE,
	})

	runNCycles(t, m, 1)
	assertPcEq(t, m, 0x206)
	if m.Sp != 1 || m.Stack[0] != 0x202 {
		t.Fatalf(`Sp = %d, Stack[0] = %03X, expected 1 and 202`, m.Sp, m.Stack[0])
	}

	runNCycles(t, m, 1)
	assertPcEq(t, m, 0x202)
	if m.Sp != 0 {
		t.Fatalf(`m.Sp = %d, expected 0`, m.Sp)
	}

	runNCycles(t, m, 1)
	assertVxEq(t, "after return", m, 1, 1)
}

func TestStackOverflow(t *testing.T) {
	// 200: call 200, forever
	m := newMachine(t, []byte{0x22, 0x00})

	runNCycles(t, m, chip8.StackDepth)
	if int(m.Sp) != chip8.StackDepth {
		t.Fatalf(`m.Sp = %d, expected %d`, m.Sp, chip8.StackDepth)
	}

	if err := m.Step(); !errors.Is(err, chip8.ErrStackOverflow) {
		t.Fatalf(`Step() returned %v, expected ErrStackOverflow`, err)
	}
}

func TestStackUnderflow(t *testing.T) {
	m := newMachine(t, []byte{0x00, 0xEE})

	if err := m.Step(); !errors.Is(err, chip8.ErrStackUnderflow) {
		t.Fatalf(`Step() returned %v, expected ErrStackUnderflow`, err)
	}
}

func TestRandom(t *testing.T) {
	program := []byte{
		0xC0, 0x0F,
		0x12, 0x00,
	}
	a := newMachine(t, program)
	b := newMachine(t, program)

	for i := 0; i < 50; i++ {
		runNCycles(t, a, 2)
		runNCycles(t, b, 2)

		if a.V[0] > 0x0F {
			t.Fatalf(`RND V0, 0F produced %X`, a.V[0])
		}
		if a.V[0] != b.V[0] {
			t.Fatalf(`machines with the same seed diverged: %X != %X`, a.V[0], b.V[0])
		}
	}

	m := newMachine(t, []byte{0xC0, 0x00})
	m.V[0] = 0xFF
	runNCycles(t, m, 1)
	assertVxEq(t, "RND V0, 00", m, 0, 0)
}

func TestTimers(t *testing.T) {
	m := newMachine(t, []byte{
		0x60, 0x02,
		0xF0, 0x15,
		0xF0, 0x18,
	})
	runNCycles(t, m, 3)

	if m.Dt != 2 || m.St != 2 {
		t.Fatalf(`Dt = %d and St = %d, expected both to be 2`, m.Dt, m.St)
	}
	if !m.IsSoundActive() {
		t.Fatalf(`expected the sound to be active`)
	}

	if active := m.TickTimers(); !active || m.Dt != 1 || m.St != 1 {
		t.Fatalf(`TickTimers() = %v, Dt = %d, St = %d, expected true, 1, 1`, active, m.Dt, m.St)
	}
	if active := m.TickTimers(); active || m.Dt != 0 || m.St != 0 {
		t.Fatalf(`TickTimers() = %v, Dt = %d, St = %d, expected false, 0, 0`, active, m.Dt, m.St)
	}
	if active := m.TickTimers(); active || m.Dt != 0 || m.St != 0 {
		t.Fatalf(`timers went below zero: Dt = %d, St = %d`, m.Dt, m.St)
	}
}

func TestTimersAreIndependent(t *testing.T) {
	m := chip8.NewMachine()
	m.Dt = 0
	m.St = 1

	if !m.IsSoundActive() || m.IsDelayTimerActive() {
		t.Fatalf(`expected only the sound timer to be active`)
	}
	m.TickTimers()
	if m.Dt != 0 || m.St != 0 {
		t.Fatalf(`Dt = %d and St = %d, expected both to be 0`, m.Dt, m.St)
	}
}

func TestReadDelayTimer(t *testing.T) {
	m := newMachine(t, []byte{
		0x60, 0x05,
		0xF0, 0x15,
		0xF1, 0x07,
	})
	runNCycles(t, m, 2)
	m.TickTimers()
	runNCycles(t, m, 1)

	assertVxEq(t, "LD Vx, DT", m, 1, 4)
}

func TestWaitForKey(t *testing.T) {
	m := newMachine(t, []byte{
		0xF3, 0x0A,
		0x12, 0x02,
	})

	runNCycles(t, m, 1)
	assertPcEq(t, m, 0x200)
	runNCycles(t, m, 5)
	assertPcEq(t, m, 0x200)

	if err := m.KeyDown(7); err != nil {
		t.Fatalf(`KeyDown() returned an error %v`, err)
	}
	runNCycles(t, m, 1)
	assertPcEq(t, m, 0x202)
	assertVxEq(t, "LD Vx, K", m, 3, 7)
}

func TestWaitForKeyTakesTheLastPressedIndex(t *testing.T) {
	m := newMachine(t, []byte{0xF0, 0x0A})
	_ = m.KeyDown(0x2)
	_ = m.KeyDown(0xC)
	_ = m.KeyDown(0x5)

	runNCycles(t, m, 1)
	assertVxEq(t, "LD Vx, K", m, 0, 0xC)
}

func TestKeySkips(t *testing.T) {
	program := []byte{
		0x60, 0x05,
		// if key 5 is pressed skip setting v1
		0xE0, 0x9E,
		0x61, 0x01,
		// if key 5 is not pressed skip setting v2
		0xE0, 0xA1,
		0x62, 0x01,
	}

	m := newMachine(t, program)
	runNCycles(t, m, 4)
	assertVxEq(t, "SKP not pressed", m, 1, 1)
	assertVxEq(t, "SKNP not pressed", m, 2, 0)

	m = newMachine(t, program)
	_ = m.KeyDown(5)
	runNCycles(t, m, 4)
	assertVxEq(t, "SKP pressed", m, 1, 0)
	assertVxEq(t, "SKNP pressed", m, 2, 1)

	_ = m.KeyUp(5)
	if m.Keys.IsPressed(5) {
		t.Fatalf(`key 5 is still pressed after KeyUp()`)
	}
}

func TestKeyOutOfRange(t *testing.T) {
	m := chip8.NewMachine()

	if err := m.KeyDown(16); !errors.Is(err, chip8.ErrKeyOutOfRange) {
		t.Fatalf(`KeyDown(16) returned %v, expected ErrKeyOutOfRange`, err)
	}
	if err := m.KeyUp(200); !errors.Is(err, chip8.ErrKeyOutOfRange) {
		t.Fatalf(`KeyUp(200) returned %v, expected ErrKeyOutOfRange`, err)
	}
}

func TestSkipOnOutOfRangeKeyReadsAsReleased(t *testing.T) {
	m := newMachine(t, []byte{
		0x60, 0x20,
		0xE0, 0xA1,
	})
	runNCycles(t, m, 2)
	assertPcEq(t, m, 0x206)
}

func TestUnknownOpCodes(t *testing.T) {
	for _, op := range []uint16{0x5001, 0x900F, 0x8008, 0x800F, 0xE000, 0xE19F, 0xF000, 0xF0FF} {
		m := newMachine(t, []byte{byte(op >> 8), byte(op)})

		err := m.Step()
		var unknown chip8.ErrOpCodeUnknown
		if !errors.As(err, &unknown) {
			t.Fatalf(`Step() on %04X returned %v, expected ErrOpCodeUnknown`, op, err)
		}
		if uint16(unknown.OpCode) != op || unknown.Pc != 0x200 {
			t.Fatalf(`got opcode=%s pc=%03X, expected %04X at 200`, unknown.OpCode, unknown.Pc, op)
		}
	}
}

func TestMachineRoutineIsUnsupported(t *testing.T) {
	for _, op := range []uint16{0x0000, 0x0123, 0x00E1, 0x0FFF} {
		m := newMachine(t, []byte{byte(op >> 8), byte(op)})

		err := m.Step()
		var unsupported chip8.ErrOpCodeUnsupported
		if !errors.As(err, &unsupported) {
			t.Fatalf(`Step() on %04X returned %v, expected ErrOpCodeUnsupported`, op, err)
		}
	}
}

func TestHaltedMachineDoesNotContinue(t *testing.T) {
	m := newMachine(t, []byte{
		0x50, 0x01,
		0x61, 0x01,
	})

	first := m.Step()
	if first == nil {
		t.Fatalf(`Step() on 5001 did not fail`)
	}
	if !m.IsHalted() {
		t.Fatalf(`the machine is not halted`)
	}

	for i := 0; i < 3; i++ {
		if err := m.Step(); err != first {
			t.Fatalf(`Step() returned %v, expected the halting error %v`, err, first)
		}
	}
	assertVxEq(t, "halted machine", m, 1, 0)
	assertPcEq(t, m, 0x202)

	m.Reset()
	if m.Err() != nil {
		t.Fatalf(`Reset() kept the error %v`, m.Err())
	}
}

func TestProgramCounterOutOfRange(t *testing.T) {
	m := newMachine(t, []byte{0x1F, 0xFF})
	runNCycles(t, m, 1)

	if err := m.Step(); !errors.Is(err, chip8.ErrPcOutOfRange) {
		t.Fatalf(`Step() returned %v, expected ErrPcOutOfRange`, err)
	}

	m = newMachine(t, []byte{0x1F, 0xFE})
	m.Memory[0xFFE] = 0x1F
	m.Memory[0xFFF] = 0xFE
	runNCycles(t, m, 3)
	assertPcEq(t, m, 0xFFE)
}

func TestCycles(t *testing.T) {
	m := newMachine(t, []byte{0x12, 0x00})
	runNCycles(t, m, 7)

	if m.Cycles() != 7 {
		t.Fatalf(`m.Cycles() = %d, expected 7`, m.Cycles())
	}
}

func TestState(t *testing.T) {
	m := newMachine(t, []byte{
		0x6A, 0x42,
		0xA1, 0x23,
	})
	runNCycles(t, m, 1)

	s := m.State()
	if s.Pc != 0x202 || s.OpCode != 0xA123 || s.V[0xA] != 0x42 {
		t.Fatalf(`m.State() = %+v`, s)
	}
}
