package chip8

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrConsoleIsNotBooted = errors.New("the console has not been booted properly")
var ErrNoProgramLoaded = errors.New("there is no program loaded")

const (
	DefaultCyclesPerFrame uint = 16
	MinCyclesPerFrame     uint = 1
	MaxCyclesPerFrame     uint = 100
	DefaultFrameRate      uint = 60

	keyQueueSize = 64
)

type ConsoleConfig struct {
	// Instructions executed between two timer ticks
	CyclesPerFrame uint
	// Timer ticks per second
	FrameRate uint
	// Loop logs program errors and keeps pacing instead of returning them
	ContinueOnError bool
	Machine         []MachineConfigCb
}

type ConsoleConfigCb func(config *ConsoleConfig)

// Console drives a Machine the way a host does: a fixed number of cycles per
// frame, one timer tick per frame, rendering and sound once per frame.
// Key events and control calls may come from any goroutine.
type Console struct {
	Machine *Machine
	Display Display
	Buzzer  Buzzer

	cyclesPerFrame atomic.Uint32
	frameRate      uint
	keepLooping    bool
	frames         uint

	mu        sync.Mutex
	keyCh     chan KeyEvent
	isBooted  bool
	isLoaded  bool
	isRunning atomic.Bool
	isDirty   bool
	isBuzzing bool
	lastError error

	// Hooks that run before every frame
	beforeFrameHooks []Hook
	// Hooks that run before every cycle
	beforeCycleHooks []Hook
	// Hooks that run after every cycle
	afterCycleHooks []Hook
	// Hooks that run after every frame
	afterFrameHooks []Hook
	// Hooks that run after an error
	errorHooks []Hook
}

func NewConsole(display Display, buzzer Buzzer, configs ...ConsoleConfigCb) *Console {
	config := &ConsoleConfig{
		CyclesPerFrame: DefaultCyclesPerFrame,
		FrameRate:      DefaultFrameRate,
	}
	for _, cb := range configs {
		cb(config)
	}

	c := &Console{
		Machine:     NewMachine(config.Machine...),
		Display:     display,
		Buzzer:      buzzer,
		frameRate:   max(config.FrameRate, 1),
		keepLooping: config.ContinueOnError,
		keyCh:       make(chan KeyEvent, keyQueueSize),
	}
	c.SetCyclesPerFrame(config.CyclesPerFrame)

	return c
}

// Boot initializes all the components
// If the console was already booted, this method is a noop
func (c *Console) Boot() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isBooted {
		return nil
	}

	if err := c.Display.Boot(); err != nil {
		return fmt.Errorf("booting display: %w", err)
	}

	if err := c.Buzzer.Boot(); err != nil {
		return fmt.Errorf("booting buzzer: %w", err)
	}

	c.isBooted = true

	return nil
}

func (c *Console) IsRunning() bool {
	return c.isRunning.Load()
}

func (c *Console) Start() {
	c.isRunning.Store(true)
}

func (c *Console) Stop() {
	c.isRunning.Store(false)
}

func (c *Console) CyclesPerFrame() uint {
	return uint(c.cyclesPerFrame.Load())
}

func (c *Console) SetCyclesPerFrame(n uint) {
	n = min(max(n, MinCyclesPerFrame), MaxCyclesPerFrame)
	c.cyclesPerFrame.Store(uint32(n))
}

// SpeedInHz is the number of instructions executed per second
func (c *Console) SpeedInHz() uint {
	return c.CyclesPerFrame() * c.frameRate
}

func (c *Console) SetSpeedInHz(inHz uint) {
	c.SetCyclesPerFrame(inHz / c.frameRate)
}

func (c *Console) FrameRate() uint {
	return c.frameRate
}

func (c *Console) Frames() uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.frames
}

func (c *Console) HasProgram() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.isLoaded
}

// Err returns the error that stopped the last frame, if any
func (c *Console) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastError
}

// Load resets the machine, then loads the fonts and the program.
func (c *Console) Load(program []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Machine.LoadProgram(program); err != nil {
		return err
	}
	c.Machine.LoadFonts()
	c.resetLocked()
	c.isLoaded = true

	slog.Info("program loaded", slog.Int("size", len(program)))

	return nil
}

// Reset restarts the loaded program
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
}

func (c *Console) resetLocked() {
	c.Machine.Reset()
	c.frames = 0
	c.lastError = nil
	c.isDirty = true
	c.stopBuzzer()
	if err := c.renderIfDirty(); err != nil {
		slog.Error("rendering after reset", slog.Any("error", err))
	}
}

// Press queues a key down event. It is applied before the next frame.
func (c *Console) Press(k byte) error {
	return c.queueKey(KeyEvent{Key: k, Pressed: true})
}

// Release queues a key up event. It is applied before the next frame.
func (c *Console) Release(k byte) error {
	return c.queueKey(KeyEvent{Key: k, Pressed: false})
}

func (c *Console) queueKey(ev KeyEvent) error {
	if ev.Key >= KeyCount {
		return fmt.Errorf("%w: %d", ErrKeyOutOfRange, ev.Key)
	}

	select {
	case c.keyCh <- ev:
	default:
		slog.Warn("key queue is full, dropping event", slog.Int("key", int(ev.Key)), slog.Bool("pressed", ev.Pressed))
	}

	return nil
}

func (c *Console) drainKeys() {
	for {
		select {
		case ev := <-c.keyCh:
			// Keys were validated when queued
			_ = c.Machine.Keys.Set(ev.Key, ev.Pressed)
		default:
			return
		}
	}
}

// Inspect runs fn with the machine lock held
func (c *Console) Inspect(fn func(m *Machine)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn(c.Machine)
}

// RunFrame runs one frame if the console is running.
func (c *Console) RunFrame() error {
	return c.runFrame(false)
}

// LoopOnce runs a single frame bypassing the pause state
func (c *Console) LoopOnce() error {
	return c.runFrame(true)
}

func (c *Console) runFrame(force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isBooted {
		return ErrConsoleIsNotBooted
	}

	c.runHooks(c.beforeFrameHooks)
	c.drainKeys()

	if !force && !c.IsRunning() {
		return nil
	}

	if !c.isLoaded {
		return ErrNoProgramLoaded
	}

	cycles := c.CyclesPerFrame()
	for i := uint(0); i < cycles; i++ {
		c.runHooks(c.beforeCycleHooks)
		if err := c.Machine.Step(); err != nil {
			return c.fail(err)
		}
		if c.Machine.ShouldRedraw() {
			c.isDirty = true
		}
		c.runHooks(c.afterCycleHooks)
	}

	if c.Machine.TickTimers() {
		if !c.isBuzzing {
			c.Buzzer.Play()
			c.isBuzzing = true
		}
	} else {
		c.stopBuzzer()
	}

	if err := c.renderIfDirty(); err != nil {
		return c.fail(err)
	}

	c.frames++
	c.runHooks(c.afterFrameHooks)

	return nil
}

func (c *Console) renderIfDirty() error {
	if !c.isDirty || !c.isBooted {
		return nil
	}
	c.isDirty = false

	return c.Display.Render(&c.Machine.Screen)
}

func (c *Console) stopBuzzer() {
	if c.isBuzzing {
		c.Buzzer.Stop()
		c.isBuzzing = false
	}
}

func (c *Console) fail(err error) error {
	c.lastError = err
	c.stopBuzzer()
	c.Stop()
	c.runHooks(c.errorHooks)

	return err
}

// Loop runs frames at the frame rate until ctx is done or a frame fails.
// With ContinueOnError a failed frame stops the console and the loop goes on,
// idle until Start is called again.
func (c *Console) Loop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(c.frameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := c.RunFrame()
			if err == nil {
				continue
			}
			if !c.keepLooping || errors.Is(err, ErrConsoleIsNotBooted) {
				return err
			}
			c.Stop()
			slog.Error("the console stopped", slog.Any("error", err))
		}
	}
}

func formatAddress(addr uint16) string {
	return fmt.Sprintf("%03X", addr)
}
