package sdl

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/guslan/chip8"
)

func TestKeymapCosmacLayout(t *testing.T) {
	m := keymap(chip8.CosmacKeyboardLayout)

	tests := map[sdl.Scancode]byte{
		sdl.SCANCODE_1: 0x1,
		sdl.SCANCODE_4: 0xC,
		sdl.SCANCODE_R: 0xD,
		sdl.SCANCODE_F: 0xE,
		sdl.SCANCODE_Z: 0xA,
		sdl.SCANCODE_X: 0x0,
		sdl.SCANCODE_V: 0xF,
	}
	for code, expected := range tests {
		if got, ok := m[code]; !ok || got != expected {
			t.Errorf("scan code %d: expected %X, got %X (found %v)", code, expected, got, ok)
		}
	}
}

func TestHandleKeyQueuesEvents(t *testing.T) {
	display := chip8.NewInMemoryDisplay()
	console := chip8.NewConsole(display, chip8.NewDummyBuzzer())
	if err := console.Boot(); err != nil {
		t.Fatal(err)
	}
	if err := console.Load([]byte{0x12, 0x00}); err != nil {
		t.Fatal(err)
	}

	io := NewIO("test", chip8.DefaultKeyboardLayout)
	io.Console = console

	io.handleKey(sdl.SCANCODE_W, true)
	io.handleKey(sdl.SCANCODE_ESCAPE, true)
	if err := console.LoopOnce(); err != nil {
		t.Fatal(err)
	}

	console.Inspect(func(m *chip8.Machine) {
		if !m.Keys.IsPressed(0x5) {
			t.Error("expected key 5 to be pressed")
		}
	})

	io.handleKey(sdl.SCANCODE_W, false)
	if err := console.LoopOnce(); err != nil {
		t.Fatal(err)
	}

	console.Inspect(func(m *chip8.Machine) {
		if m.Keys.IsPressed(0x5) {
			t.Error("expected key 5 to be released")
		}
	})
}
