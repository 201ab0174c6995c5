package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/guslan/chip8"
)

var ScreenBgColor = rl.Gold
var ScreenPixelColor = rl.Yellow

// Boot implements chip8.Display.
func (app *App) Boot() error {
	return nil
}

// Render implements chip8.Display.
// It runs on the UI goroutine, inside RunFrame.
func (app *App) Render(screen *chip8.Screen) error {
	app.screen = *screen

	return nil
}

func (app *App) drawScreen() {
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			color := ScreenBgColor
			if app.screen[y*chip8.ScreenWidth+x] > 0 {
				color = ScreenPixelColor
			}

			rl.DrawRectangle(
				ScreenPositionX+ScreenPixelSize*int32(x),
				ScreenPositionY+ScreenPixelSize*int32(y),
				ScreenPixelSize,
				ScreenPixelSize,
				color)
		}
	}
}
