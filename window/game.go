// Package window runs the console in an ebiten window.
package window

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/audio"
)

const (
	DefaultScale    = 12
	StatusBarHeight = 18
	// Scale of the screenshots copied to the clipboard
	ScreenshotScale = 8

	bytesPerPixel = 4
)

var (
	PixelColor      = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	BackgroundColor = color.RGBA{A: 0xFF}
	StatusColor     = color.RGBA{R: 0x87, G: 0xCE, B: 0xEB, A: 0xFF}
	ErrorColor      = color.RGBA{R: 0xE6, G: 0x29, B: 0x37, A: 0xFF}
)

type Config struct {
	Scale          int
	CyclesPerFrame uint
	Layout         chip8.KeyboardLayout
	Mute           bool
	Trace          bool
	Machine        []chip8.MachineConfigCb
}
type ConfigCb func(config *Config)

// Game is an ebiten.Game and the chip8.Display of its console.
// Update runs one console frame per tick.
type Game struct {
	Console *chip8.Console

	scale  int
	keys   []padKey
	held   [chip8.KeyCount]bool
	pixels []byte
	image  *ebiten.Image

	showStatus bool
	message    string
	isError    bool

	clipboardOnce sync.Once
	clipboardOK   bool
}

func NewGame(configs ...ConfigCb) *Game {
	config := Config{
		Scale:          DefaultScale,
		CyclesPerFrame: chip8.DefaultCyclesPerFrame,
		Layout:         chip8.DefaultKeyboardLayout,
	}
	for _, cb := range configs {
		cb(&config)
	}

	g := &Game{
		scale:      max(config.Scale, 1),
		keys:       padKeys(config.Layout),
		pixels:     make([]byte, chip8.ScreenSize*bytesPerPixel),
		showStatus: true,
	}
	fillPixels(g.pixels, &chip8.Screen{})

	var buzzer chip8.Buzzer = chip8.NewDummyBuzzer()
	if !config.Mute {
		buzzer = audio.NewBeeper()
	}

	g.Console = chip8.NewConsole(g, buzzer, func(c *chip8.ConsoleConfig) {
		c.CyclesPerFrame = config.CyclesPerFrame
		c.Machine = config.Machine
	})
	if config.Trace {
		g.Console.Trace()
	}

	return g
}

// Run opens the window and blocks until it is closed
func (g *Game) Run(title string) error {
	if err := g.Console.Boot(); err != nil {
		return err
	}

	w, h := g.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(int(g.Console.FrameRate()))
	ebiten.SetRunnableOnUnfocused(false)

	return ebiten.RunGame(g)
}

// Boot implements chip8.Display.
func (g *Game) Boot() error {
	return nil
}

// Render implements chip8.Display.
// It runs inside Update, on the game goroutine.
func (g *Game) Render(screen *chip8.Screen) error {
	fillPixels(g.pixels, screen)

	return nil
}

func fillPixels(dst []byte, screen *chip8.Screen) {
	for i, p := range screen {
		c := BackgroundColor
		if p > 0 {
			c = PixelColor
		}
		o := i * bytesPerPixel
		dst[o+0] = c.R
		dst[o+1] = c.G
		dst[o+2] = c.B
		dst[o+3] = c.A
	}
}

func (g *Game) Update() error {
	if ebiten.IsWindowBeingClosed() {
		g.Console.Stop()
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.Console.IsRunning() {
			g.Console.Stop()
			g.setStatus("Paused", false)
		} else if g.Console.HasProgram() {
			g.Console.Start()
			g.setStatus("Running", false)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.Console.Reset()
		g.setStatus("Reset", false)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		g.showStatus = !g.showStatus
		ebiten.SetWindowSize(g.Layout(0, 0))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.copyScreenshot()
	}

	g.handleKeys()

	if err := g.Console.RunFrame(); err != nil {
		slog.Error("The console stopped", slog.Any("error", err))
		g.setStatus(err.Error(), true)
	}

	return nil
}

func (g *Game) handleKeys() {
	for _, k := range g.keys {
		down := ebiten.IsKeyPressed(k.host)
		if down == g.held[k.pad] {
			continue
		}
		g.held[k.pad] = down

		var err error
		if down {
			err = g.Console.Press(k.pad)
		} else {
			err = g.Console.Release(k.pad)
		}
		if err != nil {
			slog.Warn("Invalid key", slog.Int("key", int(k.pad)), slog.Any("error", err))
		}
	}
}

func (g *Game) setStatus(msg string, isError bool) {
	g.message = msg
	g.isError = isError
}

// copyScreenshot puts a PNG of the screen on the clipboard
func (g *Game) copyScreenshot() {
	g.clipboardOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			slog.Warn("The clipboard is not available", slog.Any("error", err))
			return
		}
		g.clipboardOK = true
	})
	if !g.clipboardOK {
		g.setStatus("The clipboard is not available", true)
		return
	}

	var screen chip8.Screen
	g.Console.Inspect(func(m *chip8.Machine) {
		screen = m.Screen
	})

	var buf bytes.Buffer
	if err := screen.WritePNG(&buf, ScreenshotScale); err != nil {
		slog.Error("Error encoding screenshot", slog.Any("error", err))
		g.setStatus(err.Error(), true)
		return
	}

	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	g.setStatus("Screenshot copied", false)
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.image == nil {
		g.image = ebiten.NewImage(chip8.ScreenWidth, chip8.ScreenHeight)
	}

	g.image.WritePixels(g.pixels)

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.image, opts)

	if g.showStatus {
		g.drawStatusBar(screen)
	}
}

func (g *Game) drawStatusBar(screen *ebiten.Image) {
	face := basicfont.Face7x13
	y := chip8.ScreenHeight*g.scale + StatusBarHeight - 5

	status := "stopped"
	if g.Console.IsRunning() {
		status = "running"
	}
	line := fmt.Sprintf("%s %d Hz", status, g.Console.SpeedInHz())
	text.Draw(screen, line, face, 4, y, StatusColor)

	if g.message != "" {
		c := StatusColor
		if g.isError {
			c = ErrorColor
		}
		x := 4 + text.BoundString(face, line).Dx() + 12
		text.Draw(screen, g.message, face, x, y, c)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	h := chip8.ScreenHeight * g.scale
	if g.showStatus {
		h += StatusBarHeight
	}

	return chip8.ScreenWidth * g.scale, h
}
