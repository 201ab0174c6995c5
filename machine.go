package chip8

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrStackUnderflow = errors.New("stack underflow: try to pop an empty stack")
var ErrStackOverflow = errors.New("stack overflow: try to push to a full stack")
var ErrPcOutOfRange = errors.New("program counter out of memory")

// ErrOpCodeUnknown is returned for instruction words that match no instruction
type ErrOpCodeUnknown struct {
	OpCode OpCode
	Pc     uint16
}

func (err ErrOpCodeUnknown) Error() string {
	return fmt.Sprintf("unknown opcode=%s at PC=%03X", err.OpCode, err.Pc)
}

// ErrOpCodeUnsupported is returned for SYS nnn, the call into a machine code routine
type ErrOpCodeUnsupported struct {
	OpCode OpCode
	Pc     uint16
}

func (err ErrOpCodeUnsupported) Error() string {
	return fmt.Sprintf("unsupported machine routine call opcode=%s at PC=%03X", err.OpCode, err.Pc)
}

const (
	RegisterCount = 16
	StackDepth    = 12
	// lastFetchAddress is the last address holding a whole instruction
	lastFetchAddress = MemorySize - 2
)

// Machine is the Chip-8 interpreter: memory, registers, stack, timers, keypad and screen.
// It is not safe for concurrent use; the host serializes every call.
type Machine struct {
	Memory *Memory
	// V 8-bit registers. VF doubles as the flag register.
	V [RegisterCount]byte
	// I 16-bit register
	I uint16
	// Delay timer register
	Dt byte
	// Sound timer register
	St byte
	// Program counter
	Pc uint16
	// Stack pointer, the number of return addresses on the stack
	Sp byte
	// Stack
	Stack [StackDepth]uint16

	Keys   Keypad
	Screen Screen

	redraw    bool
	cycles    uint
	rng       *rand.Rand
	lastError error
}

type MachineConfig struct {
	Memory *Memory
	// RandSource feeds RND. Nil means a randomly seeded PCG.
	RandSource rand.Source
}

type MachineConfigCb func(config *MachineConfig)

// WithSeed makes RND reproducible
func WithSeed(seed uint64) MachineConfigCb {
	return func(config *MachineConfig) {
		config.RandSource = rand.NewPCG(seed, seed)
	}
}

func NewMachine(configs ...MachineConfigCb) *Machine {
	config := &MachineConfig{}
	for _, cb := range configs {
		cb(config)
	}

	if config.Memory == nil {
		config.Memory = NewMemory()
	}
	if config.RandSource == nil {
		config.RandSource = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	return &Machine{
		Memory: config.Memory,
		Pc:     StartOfProgram,
		rng:    rand.New(config.RandSource),
	}
}

// Reset moves the PC to the start of the program, empties the stack, zeroes I and clears the screen.
// Memory, registers and timers are kept.
func (m *Machine) Reset() {
	m.Pc = StartOfProgram
	m.Sp = 0
	m.I = 0
	m.Screen.Clear()
	m.redraw = false
	m.cycles = 0
	m.lastError = nil
}

// LoadFonts copies the built-in hex digit glyphs at address 0
func (m *Machine) LoadFonts() {
	m.Memory.LoadFonts()
}

// LoadProgram copies the program at the start-of-program address
func (m *Machine) LoadProgram(program []byte) error {
	return m.Memory.LoadProgram(program)
}

func (m *Machine) KeyDown(k byte) error {
	return m.Keys.Set(k, true)
}

func (m *Machine) KeyUp(k byte) error {
	return m.Keys.Set(k, false)
}

// Step fetches, decodes and executes a single instruction.
// Once an instruction fails the machine is halted: Step keeps returning
// the same error until Reset.
func (m *Machine) Step() error {
	if m.lastError != nil {
		return m.lastError
	}

	if m.Pc > lastFetchAddress {
		return m.halt(fmt.Errorf("%w: PC=%04X", ErrPcOutOfRange, m.Pc))
	}

	opCode := m.Memory.OpCodeAt(m.Pc)
	m.Pc += 2
	m.redraw = false

	if err := m.executeInstruction(opCode); err != nil {
		return m.halt(err)
	}
	m.cycles++

	return nil
}

func (m *Machine) halt(err error) error {
	m.lastError = err
	return err
}

// TickTimers decrements both timers down to zero and reports whether the sound timer is still running.
// The host calls it at 60 Hz.
func (m *Machine) TickTimers() bool {
	if m.Dt > 0 {
		m.Dt--
	}
	if m.St > 0 {
		m.St--
	}

	return m.IsSoundActive()
}

// ShouldRedraw reports whether the last executed instruction changed the screen
func (m *Machine) ShouldRedraw() bool {
	return m.redraw
}

func (m *Machine) IsSoundActive() bool {
	return m.St > 0
}

func (m *Machine) IsDelayTimerActive() bool {
	return m.Dt > 0
}

// Err returns the error that halted the machine, if any
func (m *Machine) Err() error {
	return m.lastError
}

func (m *Machine) IsHalted() bool {
	return m.lastError != nil
}

// Cycles is the number of instructions executed since the last reset
func (m *Machine) Cycles() uint {
	return m.cycles
}

// NextOpCode returns the instruction the next Step will execute
func (m *Machine) NextOpCode() OpCode {
	return m.Memory.OpCodeAt(m.Pc)
}

// State is a copy of the registers, as shown by debuggers
type State struct {
	OpCode OpCode
	Pc     uint16
	V      [RegisterCount]byte
	I      uint16
	Sp     byte
	Stack  [StackDepth]uint16
	Dt     byte
	St     byte
}

func (m *Machine) State() State {
	return State{
		OpCode: m.NextOpCode(),
		Pc:     m.Pc,
		V:      m.V,
		I:      m.I,
		Sp:     m.Sp,
		Stack:  m.Stack,
		Dt:     m.Dt,
		St:     m.St,
	}
}

func (m *Machine) push(addr uint16) error {
	if int(m.Sp) >= StackDepth {
		return ErrStackOverflow
	}
	m.Stack[m.Sp] = addr
	m.Sp++

	return nil
}

func (m *Machine) pop() (uint16, error) {
	if m.Sp == 0 {
		return 0, ErrStackUnderflow
	}
	m.Sp--

	return m.Stack[m.Sp], nil
}

func (m *Machine) randomByte() byte {
	return byte(m.rng.Uint32())
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
