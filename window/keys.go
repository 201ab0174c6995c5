package window

import (
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/guslan/chip8"
)

var runeToKey = map[rune]ebiten.Key{
	'0': ebiten.KeyDigit0, '1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3,
	'4': ebiten.KeyDigit4, '5': ebiten.KeyDigit5, '6': ebiten.KeyDigit6, '7': ebiten.KeyDigit7,
	'8': ebiten.KeyDigit8, '9': ebiten.KeyDigit9,

	'a': ebiten.KeyA, 'b': ebiten.KeyB, 'c': ebiten.KeyC, 'd': ebiten.KeyD, 'e': ebiten.KeyE,
	'f': ebiten.KeyF, 'g': ebiten.KeyG, 'h': ebiten.KeyH, 'i': ebiten.KeyI, 'j': ebiten.KeyJ,
	'k': ebiten.KeyK, 'l': ebiten.KeyL, 'm': ebiten.KeyM, 'n': ebiten.KeyN, 'o': ebiten.KeyO,
	'p': ebiten.KeyP, 'q': ebiten.KeyQ, 'r': ebiten.KeyR, 's': ebiten.KeyS, 't': ebiten.KeyT,
	'u': ebiten.KeyU, 'v': ebiten.KeyV, 'w': ebiten.KeyW, 'x': ebiten.KeyX, 'y': ebiten.KeyY,
	'z': ebiten.KeyZ,
}

// padKey pairs a host key with the pad key it drives
type padKey struct {
	host ebiten.Key
	pad  byte
}

func padKeys(layout chip8.KeyboardLayout) []padKey {
	keys := make([]padKey, 0, chip8.KeyCount)
	for k, r := range layout {
		if host, ok := runeToKey[unicode.ToLower(r)]; ok {
			keys = append(keys, padKey{host: host, pad: byte(k)})
		}
	}

	return keys
}
