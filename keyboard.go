package chip8

import (
	"errors"
	"fmt"
	"unicode"
)

var ErrKeyOutOfRange = errors.New("key out of range")

const KeyCount = 16

// Keypad holds the state of the 16 hexadecimal keys
type Keypad [KeyCount]bool

func (kp *Keypad) IsPressed(k byte) bool {
	if k >= KeyCount {
		return false
	}
	return kp[k]
}

func (kp *Keypad) Set(k byte, pressed bool) error {
	if k >= KeyCount {
		return fmt.Errorf("%w: %d", ErrKeyOutOfRange, k)
	}

	kp[k] = pressed

	return nil
}

// Pressed returns the highest pressed key.
func (kp *Keypad) Pressed() (byte, bool) {
	var key byte
	found := false
	for k, pressed := range kp {
		if pressed {
			key = byte(k)
			found = true
		}
	}

	return key, found
}

// KeyboardLayout maps every key of the pad (the index) to a key of the host keyboard
type KeyboardLayout [KeyCount]rune

// DefaultKeyboardLayout maps the four left-most keyboard rows to the pad in order
//
//	1 2 3 4      0 1 2 3
//	Q W E R  ->  4 5 6 7
//	A S D F      8 9 A B
//	Z X C V      C D E F
var DefaultKeyboardLayout = KeyboardLayout{
	'1', '2', '3', '4',
	'q', 'w', 'e', 'r',
	'a', 's', 'd', 'f',
	'z', 'x', 'c', 'v',
}

// CosmacKeyboardLayout places the keys where they were on the COSMAC VIP keypad
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var CosmacKeyboardLayout = KeyboardLayout{
	'x', '1', '2', '3',
	'q', 'w', 'e', 'a',
	's', 'd', 'z', 'c',
	'4', 'r', 'f', 'v',
}

// LookupMap inverts the layout. Letters are matched in both cases.
func LookupMap(layout KeyboardLayout) map[rune]byte {
	m := make(map[rune]byte, KeyCount*2)
	for k, r := range layout {
		m[unicode.ToLower(r)] = byte(k)
		m[unicode.ToUpper(r)] = byte(k)
	}

	return m
}

// KeyEvent is a key transition coming from the host
type KeyEvent struct {
	Key     byte
	Pressed bool
}
