package chip8

import (
	"io"
	"os"
	"sync"
)

// Display abstraction for a display
type Display interface {
	// Boot initializes the component
	Boot() error
	// Render shows the screen. Called at most once per frame, only when the screen changed.
	Render(*Screen) error
}

// DummyDisplay is a display that does nothing
type DummyDisplay struct {
}

func NewDummyDisplay() *DummyDisplay {
	return &DummyDisplay{}
}

func (d DummyDisplay) Boot() error {
	return nil
}

func (d DummyDisplay) Render(screen *Screen) error {
	return nil
}

// InMemoryDisplay keeps a copy of the last rendered screen
type InMemoryDisplay struct {
	mu      sync.RWMutex
	screen  Screen
	renders uint
}

func NewInMemoryDisplay() *InMemoryDisplay {
	return &InMemoryDisplay{}
}

// Boot implements Display.
func (d *InMemoryDisplay) Boot() error {
	return nil
}

// Render implements Display.
func (d *InMemoryDisplay) Render(screen *Screen) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.screen = *screen
	d.renders++

	return nil
}

// Screen returns a copy of the last rendered screen
func (d *InMemoryDisplay) Screen() Screen {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.screen
}

// Renders is the number of times Render was called
func (d *InMemoryDisplay) Renders() uint {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.renders
}

const ESC = 0x1B

// TerminalDisplay draws the screen with ANSI escape codes
type TerminalDisplay struct {
	terminal        io.Writer
	OnChar, OffChar string
	buff            []byte
}

func NewTerminalDisplay() *TerminalDisplay {
	return NewTerminalDisplayWithOutput(os.Stdout)
}

func NewTerminalDisplayWithOutput(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{
		terminal: out,
		OnChar:   "██",
		OffChar:  "  ",
	}
}

// Boot implements Display.
func (disp *TerminalDisplay) Boot() error {
	_, err := disp.terminal.Write([]byte{
		// Move cursor do start
		ESC, '[', '1', 'H',
		// clear the terminal
		ESC, '[', '0', 'J',
	})

	return err
}

// Render implements Display.
func (disp *TerminalDisplay) Render(screen *Screen) error {
	buff := disp.buff[:0]
	buff = append(buff, ESC, '[', '1', 'H')
	for i, b := range screen {
		if b > 0 {
			buff = append(buff, disp.OnChar...)
		} else {
			buff = append(buff, disp.OffChar...)
		}

		if (i+1)%ScreenWidth == 0 {
			buff = append(buff, '|', '\r', '\n')
		}
	}
	disp.buff = buff

	_, err := disp.terminal.Write(buff)
	return err
}
