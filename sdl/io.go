// Package sdl is an SDL2 front-end for the console.
package sdl

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/guslan/chip8"
)

const (
	pixelSize = 20

	screenColor = 0x1A237E
	spriteColor = 0x9FA8DA
)

var runeToScancode = map[rune]sdl.Scancode{
	'0': sdl.SCANCODE_0, '1': sdl.SCANCODE_1, '2': sdl.SCANCODE_2, '3': sdl.SCANCODE_3,
	'4': sdl.SCANCODE_4, '5': sdl.SCANCODE_5, '6': sdl.SCANCODE_6, '7': sdl.SCANCODE_7,
	'8': sdl.SCANCODE_8, '9': sdl.SCANCODE_9,

	'a': sdl.SCANCODE_A, 'b': sdl.SCANCODE_B, 'c': sdl.SCANCODE_C, 'd': sdl.SCANCODE_D,
	'e': sdl.SCANCODE_E, 'f': sdl.SCANCODE_F, 'g': sdl.SCANCODE_G, 'h': sdl.SCANCODE_H,
	'i': sdl.SCANCODE_I, 'j': sdl.SCANCODE_J, 'k': sdl.SCANCODE_K, 'l': sdl.SCANCODE_L,
	'm': sdl.SCANCODE_M, 'n': sdl.SCANCODE_N, 'o': sdl.SCANCODE_O, 'p': sdl.SCANCODE_P,
	'q': sdl.SCANCODE_Q, 'r': sdl.SCANCODE_R, 's': sdl.SCANCODE_S, 't': sdl.SCANCODE_T,
	'u': sdl.SCANCODE_U, 'v': sdl.SCANCODE_V, 'w': sdl.SCANCODE_W, 'x': sdl.SCANCODE_X,
	'y': sdl.SCANCODE_Y, 'z': sdl.SCANCODE_Z,
}

// keymap maps SDL scan codes to pad keys following layout
func keymap(layout chip8.KeyboardLayout) map[sdl.Scancode]byte {
	m := make(map[sdl.Scancode]byte, chip8.KeyCount)
	for k, r := range layout {
		if code, ok := runeToScancode[unicode.ToLower(r)]; ok {
			m[code] = byte(k)
		}
	}

	return m
}

// IO is the chip8.Display of an SDL window. It also feeds the keyboard to the console.
// Every method must run on the main thread.
type IO struct {
	Console *chip8.Console
	Title   string

	window  *sdl.Window
	surface *sdl.Surface
	keys    map[sdl.Scancode]byte
}

// NewIO returns a new I/O instance for the SDL frontend
func NewIO(title string, layout chip8.KeyboardLayout) *IO {
	return &IO{
		Title: title,
		keys:  keymap(layout),
	}
}

// Boot implements chip8.Display. It initialises SDL and opens the window.
func (io *IO) Boot() error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("initialising SDL: %w", err)
	}

	window, err := sdl.CreateWindow(io.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		chip8.ScreenWidth*pixelSize, chip8.ScreenHeight*pixelSize, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("creating window: %w", err)
	}
	io.window = window

	io.surface, err = window.GetSurface()
	if err != nil {
		io.Destroy()
		return fmt.Errorf("getting window surface: %w", err)
	}

	if err := io.surface.FillRect(nil, screenColor); err != nil {
		return err
	}

	return io.window.UpdateSurface()
}

// Render implements chip8.Display.
func (io *IO) Render(screen *chip8.Screen) error {
	if err := io.surface.FillRect(nil, screenColor); err != nil {
		return err
	}

	for y := int32(0); y < chip8.ScreenHeight; y++ {
		for x := int32(0); x < chip8.ScreenWidth; x++ {
			if screen.IsLit(int(x), int(y)) {
				rect := &sdl.Rect{X: x * pixelSize, Y: y * pixelSize, W: pixelSize, H: pixelSize}
				if err := io.surface.FillRect(rect, spriteColor); err != nil {
					return err
				}
			}
		}
	}

	return io.window.UpdateSurface()
}

// Destroy should be called before quitting the application
func (io *IO) Destroy() {
	if io.window != nil {
		io.window.Destroy()
		io.window = nil
	}
	sdl.Quit()
}

// Loop runs one console frame per tick and pumps the SDL events until
// the window is closed, ctx is done or a frame fails.
func (io *IO) Loop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(io.Console.FrameRate()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if quit := io.pollEvents(); quit {
			return nil
		}

		if err := io.Console.RunFrame(); err != nil {
			return err
		}
	}
}

func (io *IO) pollEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch t := event.(type) {
		case *sdl.KeyboardEvent:
			if t.Repeat != 0 {
				continue
			}
			if t.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
				return true
			}
			io.handleKey(t.Keysym.Scancode, t.GetType() == sdl.KEYDOWN)

		case *sdl.QuitEvent:
			return true
		}
	}

	return false
}

func (io *IO) handleKey(code sdl.Scancode, pressed bool) {
	key, ok := io.keys[code]
	if !ok {
		return
	}

	var err error
	if pressed {
		err = io.Console.Press(key)
	} else {
		err = io.Console.Release(key)
	}
	if err != nil {
		slog.Warn("Invalid key", slog.Int("key", int(key)), slog.Any("error", err))
	}
}
