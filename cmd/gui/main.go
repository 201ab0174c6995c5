package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/gui"
)

func main() {
	autostart := flag.Bool("start", false, "Starts the console automatically if there is a program loaded (defaults = false).")
	debug := flag.Bool("debug", false, "Show debug information for the console (defaults = false).")
	mute := flag.Bool("mute", false, "Turn off the buzzer (defaults = false).")
	cosmac := flag.Bool("cosmac", false, "Use the COSMAC VIP keypad layout (defaults = false).")
	cyclesPerFrame := flag.Uint("xframes", chip8.DefaultCyclesPerFrame, fmt.Sprintf("The number of cycles that run between each frame. It has to be in the range [%d, %d] (defaults = %d).", chip8.MinCyclesPerFrame, chip8.MaxCyclesPerFrame, chip8.DefaultCyclesPerFrame))

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	app := gui.NewApp(func(config *gui.AppConfig) {
		config.UseDebugger = *debug
		config.Mute = *mute
		config.CyclesPerFrame = *cyclesPerFrame
		if *cosmac {
			config.Layout = chip8.CosmacKeyboardLayout
		}
	})

	if flag.NArg() > 0 {
		app.Load(flag.Arg(0))
	}

	app.Run(*autostart)
}
