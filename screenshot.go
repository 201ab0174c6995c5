package chip8

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// Palette used for screenshots: index 0 is an unlit pixel, index 1 a lit one
var Palette = color.Palette{
	color.RGBA{R: 0x1A, G: 0x23, B: 0x7E, A: 0xFF},
	color.RGBA{R: 0x9F, G: 0xA8, B: 0xDA, A: 0xFF},
}

// Image returns the screen as a paletted image of ScreenWidth x ScreenHeight.
func (s *Screen) Image() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, ScreenWidth, ScreenHeight), Palette)
	copy(img.Pix, s[:])

	return img
}

// Scaled returns the screen enlarged by factor with nearest-neighbour sampling.
func (s *Screen) Scaled(factor int) *image.Paletted {
	factor = max(factor, 1)
	src := s.Image()
	if factor == 1 {
		return src
	}

	dst := image.NewPaletted(image.Rect(0, 0, ScreenWidth*factor, ScreenHeight*factor), Palette)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return dst
}

// WritePNG encodes the screen, enlarged by factor, as a PNG.
func (s *Screen) WritePNG(w io.Writer, factor int) error {
	return png.Encode(w, s.Scaled(factor))
}
