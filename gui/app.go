// Package gui is a desktop front-end for the console built on raylib.
package gui

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/audio"
	"github.com/guslan/chip8/rom"
)

const (
	ToolbarGap       = 5
	ToolbarBtnWidth  = 80
	ToolbarBtnHeight = 40
	ToolbarHeight    = 50
	ToolbarBtnOffset = ToolbarBtnWidth + ToolbarGap

	ScreenPixelSize = 15
	ScreenPositionX = 0
	ScreenPositionY = ToolbarHeight + 1

	MessageBarGap   = 5
	MessageBarHeigh = 30
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarSuccessColor = rl.Lime
var MessageBarWarningColor = rl.Gold
var MessageBarErrorColor = rl.Red

type MessageType byte

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

type AppConfig struct {
	CyclesPerFrame uint
	// Logs every instruction at debug level
	UseDebugger bool
	Mute        bool
	Layout      chip8.KeyboardLayout
	Machine     []chip8.MachineConfigCb
}
type AppConfigCb func(config *AppConfig)

type App struct {
	// The underlying console
	Console *chip8.Console
	// Slider value, in cycles per frame
	speed float32
	// Last rendered screen
	screen chip8.Screen

	keyboardLookupMap map[ScanCode]byte
	pressed           [chip8.KeyCount]bool

	// Window width and height
	winW, winH int

	// Toolbar
	startBtn, stopBtn, stepBtn, restBtn bool

	loadedProgramPath string

	lastMessage      string
	lastMessageColor rl.Color
}

func NewApp(configs ...AppConfigCb) *App {
	config := AppConfig{
		CyclesPerFrame: chip8.DefaultCyclesPerFrame,
		Layout:         chip8.DefaultKeyboardLayout,
	}
	for _, cb := range configs {
		cb(&config)
	}

	app := &App{
		keyboardLookupMap: keyLookupMap(config.Layout),
		lastMessage:       "Drop a ROM on the window to load it",
		lastMessageColor:  MessageBarInfoColor,
	}

	var buzzer chip8.Buzzer = chip8.NewDummyBuzzer()
	if !config.Mute {
		buzzer = audio.NewBeeper()
	}

	app.Console = chip8.NewConsole(app, buzzer, func(c *chip8.ConsoleConfig) {
		c.CyclesPerFrame = config.CyclesPerFrame
		c.Machine = config.Machine
	})
	if config.UseDebugger {
		app.Console.Trace()
	}
	app.speed = float32(app.Console.CyclesPerFrame())

	app.updateWindowSize()

	return app
}

// Run opens the window and runs the console on the UI loop until the window is closed
func (app *App) Run(autostart bool) {
	rl.InitWindow(int32(app.winW), int32(app.winH), "chip8")
	defer rl.CloseWindow()

	if err := app.Console.Boot(); err != nil {
		slog.Error("Error booting the console", slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
	}

	gui.LoadStyleDefault()
	rl.SetTargetFPS(int32(app.Console.FrameRate()))

	if autostart && app.hasProgramLoaded() {
		app.Console.Start()
	}

	for !rl.WindowShouldClose() {
		app.handleFileLoad()
		app.handleActions()
		app.handleKeyPress()
		app.updateSpeed()

		if err := app.Console.RunFrame(); err != nil {
			slog.Error("The console stopped", slog.Any("error", err))
			app.showMessage(err.Error(), MessageError)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		// Drawn bottom to top so the toolbar stays on top
		app.drawMessageBar()
		app.drawScreen()
		app.drawToolbar()

		rl.EndDrawing()
	}
}

// Load reads the ROM at path into the console.
// The console keeps its previous program when the ROM cannot be loaded.
func (app *App) Load(path string) bool {
	program, err := rom.Read(path)
	if err == nil {
		err = app.Console.Load(program)
	}
	if err != nil {
		slog.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(fmt.Sprintf("Could not load '%s': %v", filepath.Base(path), err), MessageError)
		return false
	}

	app.loadedProgramPath = path
	slog.Info("Program loaded", slog.String("path", path))
	app.showMessage(fmt.Sprintf("Program '%s' loaded", filepath.Base(path)), MessageSuccess)

	return true
}

func (app *App) updateWindowSize() {
	app.winW = chip8.ScreenWidth * ScreenPixelSize
	app.winH = chip8.ScreenHeight*ScreenPixelSize + ToolbarHeight + MessageBarHeigh
	slog.Debug("Updating window size", slog.Int("width", app.winW), slog.Int("height", app.winH))
}

func (app *App) handleFileLoad() {
	if rl.IsFileDropped() {
		files := rl.LoadDroppedFiles()
		defer rl.UnloadDroppedFiles()

		slog.Info("Files were dropped", "files", strings.Join(files, ","))

		if len(files) > 0 && app.Load(files[0]) {
			app.Console.Start()
		}
	}
}

func (app *App) hasProgramLoaded() bool {
	return len(app.loadedProgramPath) > 0
}

func (app *App) handleActions() {
	if app.startBtn {
		if app.hasProgramLoaded() {
			app.Console.Start()
			app.showMessage("Running", MessageInfo)
			slog.Info("Starting the console")
		} else {
			app.showMessage("There is no program loaded", MessageError)
		}
	}
	if app.stopBtn {
		app.Console.Stop()
		slog.Info("Stopping the console")
	}
	if app.restBtn {
		app.Console.Reset()
		slog.Info("Resetting the program to the beginning")
	}
	if app.stepBtn {
		if err := app.Console.LoopOnce(); err != nil {
			app.showMessage(err.Error(), MessageError)
		}
		slog.Debug("Running a single frame")
	}
}

func (app *App) handleKeyPress() {
	for scanCode, key := range app.keyboardLookupMap {
		down := rl.IsKeyDown(scanCode)
		if down == app.pressed[key] {
			continue
		}
		app.pressed[key] = down

		var err error
		if down {
			err = app.Console.Press(key)
		} else {
			err = app.Console.Release(key)
		}
		if err != nil {
			slog.Warn("Invalid key", slog.Int("key", int(key)), slog.Any("error", err))
		}
	}
}

func (app *App) updateSpeed() {
	app.Console.SetCyclesPerFrame(uint(app.speed))
}

const (
	MinSpeed = float32(chip8.MinCyclesPerFrame)
	MaxSpeed = float32(chip8.MaxCyclesPerFrame)
)

func (app *App) drawToolbar() {
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), ToolbarHeight, rl.Gray)

	app.startBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*0, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_PLAY, "Start"),
	)
	app.stopBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*1, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_STOP, "Stop"),
	)
	app.stepBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*2, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_NEXT, "Step"),
	)
	app.restBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*3, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_ROTATE, "Reset"),
	)

	status := "Stopped"
	if app.Console.IsRunning() {
		status = "Running"
	}
	gui.Label(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*4, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		status,
	)

	gui.Label(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, 26, 70, 20),
		fmt.Sprintf("%d Hz", app.Console.SpeedInHz()),
	)

	if gui.Button(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150+70, 26, 30, 20),
		gui.IconText(gui.ICON_ROTATE, ""),
	) {
		app.speed = float32(chip8.DefaultCyclesPerFrame)
	}

	app.speed = gui.Slider(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, ToolbarGap, 100, 20),
		"Slow", "Fast",
		app.speed,
		MinSpeed,
		MaxSpeed,
	)
}

func (app *App) showMessage(msg string, mType MessageType) {
	app.lastMessage = msg
	switch mType {
	case MessageInfo:
		app.lastMessageColor = MessageBarInfoColor

	case MessageSuccess:
		app.lastMessageColor = MessageBarSuccessColor

	case MessageWarning:
		app.lastMessageColor = MessageBarWarningColor

	case MessageError:
		app.lastMessageColor = MessageBarErrorColor
	}
}

func (app *App) drawMessageBar() {
	rl.DrawRectangle(
		0,
		int32(app.winH)-MessageBarHeigh,
		int32(app.winW),
		MessageBarHeigh,
		MessageBarBgColor,
	)

	rl.DrawText(
		app.lastMessage,
		MessageBarGap,
		int32(app.winH)-MessageBarHeigh+MessageBarGap,
		16,
		app.lastMessageColor,
	)
}
