package chip8_test

import (
	"testing"

	"github.com/guslan/chip8"
)

func TestLookupMap(t *testing.T) {
	m := chip8.LookupMap(chip8.DefaultKeyboardLayout)

	tests := map[rune]byte{
		'1': 0x0,
		'4': 0x3,
		'q': 0x4,
		'Q': 0x4,
		'f': 0xB,
		'V': 0xF,
	}
	for r, want := range tests {
		if got, ok := m[r]; !ok || got != want {
			t.Fatalf(`LookupMap()[%q] = %X, %v, expected %X`, r, got, ok, want)
		}
	}

	if _, ok := m['p']; ok {
		t.Fatalf(`p should not be mapped`)
	}
}

func TestCosmacLayout(t *testing.T) {
	m := chip8.LookupMap(chip8.CosmacKeyboardLayout)

	if m['x'] != 0x0 || m['4'] != 0xC || m['a'] != 0x7 || m['v'] != 0xF {
		t.Fatalf(`unexpected COSMAC mapping %v`, m)
	}
}

func TestKeypadPressed(t *testing.T) {
	var kp chip8.Keypad

	if _, ok := kp.Pressed(); ok {
		t.Fatalf(`an empty keypad reports a pressed key`)
	}

	_ = kp.Set(3, true)
	_ = kp.Set(9, true)
	if k, ok := kp.Pressed(); !ok || k != 9 {
		t.Fatalf(`Pressed() = %X, %v, expected 9`, k, ok)
	}
	if kp.IsPressed(16) {
		t.Fatalf(`key 16 reads as pressed`)
	}
}
