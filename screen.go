package chip8

import "strings"

// Display size of the standard Chip-8
const (
	ScreenWidth  = 64
	ScreenHeight = 32
	ScreenSize   = ScreenWidth * ScreenHeight
)

const spriteWidth = 8

// Screen is a monochrome framebuffer, one byte per pixel, addressed as y*ScreenWidth+x.
// Every cell is either 0 or 1.
type Screen [ScreenSize]byte

func (s *Screen) Clear() {
	*s = Screen{}
}

// At returns the pixel at x, y. Coordinates wrap around the edges.
func (s *Screen) At(x, y int) byte {
	return s[toScreenCoord(x, y)]
}

func (s *Screen) IsLit(x, y int) bool {
	return s.At(x, y) == 1
}

func toScreenCoord(x, y int) int {
	x %= ScreenWidth
	if x < 0 {
		x += ScreenWidth
	}
	y %= ScreenHeight
	if y < 0 {
		y += ScreenHeight
	}

	return y*ScreenWidth + x
}

// drawSprite XORs the sprite rows onto the screen with its top-left corner at x, y.
// Bits are read most-significant first; pixels past an edge wrap to the opposite side.
// Returns whether any lit pixel was turned off.
func (s *Screen) drawSprite(x, y byte, rows []byte) bool {
	collision := false
	for row, bits := range rows {
		for col := 0; col < spriteWidth; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}

			t := toScreenCoord(int(x)+col, int(y)+row)
			if s[t] == 1 {
				collision = true
			}
			s[t] ^= 1
		}
	}

	return collision
}

// String renders the screen as lines of '#' and '.'
func (s Screen) String() string {
	sb := strings.Builder{}
	sb.Grow(ScreenSize + ScreenHeight)

	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if s[y*ScreenWidth+x] == 1 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
