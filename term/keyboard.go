// Package term runs the console in a terminal: raw keyboard input and size checks.
package term

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	pkgterm "github.com/pkg/term"

	"github.com/guslan/chip8"
)

// DefaultHoldTime is how long a key stays pressed after the terminal last sent it.
// Terminals report key presses and auto-repeats, never releases.
const DefaultHoldTime = 150 * time.Millisecond

const (
	keyCtrlC = 0x03
	keyEsc   = 0x1B
)

// KeySink receives the pad key transitions. chip8.Console implements it.
type KeySink interface {
	Press(k byte) error
	Release(k byte) error
}

// Keyboard reads raw key presses from a terminal and turns them into pad events
type Keyboard struct {
	sink     KeySink
	lookup   map[rune]byte
	HoldTime time.Duration
	// OnQuit runs when Esc or Ctrl-C is read
	OnQuit func()

	tty  *pkgterm.Term
	mu   sync.Mutex
	held map[byte]time.Time
	done chan struct{}
	once sync.Once
}

func NewKeyboard(sink KeySink, layout chip8.KeyboardLayout) *Keyboard {
	return &Keyboard{
		sink:     sink,
		lookup:   chip8.LookupMap(layout),
		HoldTime: DefaultHoldTime,
		OnQuit:   func() {},
		held:     map[byte]time.Time{},
		done:     make(chan struct{}),
	}
}

// Open puts the terminal at path (usually /dev/tty) in raw mode and starts reading it.
func (kb *Keyboard) Open(path string) error {
	tty, err := pkgterm.Open(path, pkgterm.RawMode)
	if err != nil {
		return err
	}
	if err := tty.SetReadTimeout(kb.HoldTime / 2); err != nil {
		_ = tty.Restore()
		_ = tty.Close()
		return err
	}
	kb.tty = tty

	go kb.readLoop()
	go kb.releaseLoop()

	return nil
}

// Close restores the terminal
func (kb *Keyboard) Close() error {
	kb.once.Do(func() {
		close(kb.done)
	})

	if kb.tty == nil {
		return nil
	}
	if err := kb.tty.Restore(); err != nil {
		return err
	}

	return kb.tty.Close()
}

func (kb *Keyboard) readLoop() {
	buf := make([]byte, 16)
	for {
		select {
		case <-kb.done:
			return
		default:
		}

		n, err := kb.tty.Read(buf)
		if n > 0 {
			kb.handleInput(buf[:n], time.Now())
		}
		if err != nil && !errors.Is(err, io.EOF) {
			slog.Error("reading the terminal", slog.Any("error", err))
			return
		}
	}
}

func (kb *Keyboard) releaseLoop() {
	ticker := time.NewTicker(kb.HoldTime / 3)
	defer ticker.Stop()

	for {
		select {
		case <-kb.done:
			return
		case now := <-ticker.C:
			kb.releaseExpired(now)
		}
	}
}

func (kb *Keyboard) handleInput(data []byte, now time.Time) {
	for _, b := range data {
		if b == keyCtrlC || b == keyEsc {
			kb.OnQuit()
			return
		}

		k, ok := kb.lookup[rune(b)]
		if !ok {
			continue
		}

		kb.mu.Lock()
		_, wasHeld := kb.held[k]
		kb.held[k] = now
		kb.mu.Unlock()

		if !wasHeld {
			if err := kb.sink.Press(k); err != nil {
				slog.Error("pressing key", slog.Int("key", int(k)), slog.Any("error", err))
			}
		}
	}
}

func (kb *Keyboard) releaseExpired(now time.Time) {
	kb.mu.Lock()
	expired := make([]byte, 0, len(kb.held))
	for k, last := range kb.held {
		if now.Sub(last) >= kb.HoldTime {
			expired = append(expired, k)
			delete(kb.held, k)
		}
	}
	kb.mu.Unlock()

	for _, k := range expired {
		if err := kb.sink.Release(k); err != nil {
			slog.Error("releasing key", slog.Int("key", int(k)), slog.Any("error", err))
		}
	}
}
