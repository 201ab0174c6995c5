package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/audio"
	"github.com/guslan/chip8/rom"
	"github.com/guslan/chip8/sdl"
)

func init() {
	// SDL calls must come from the main thread
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "Log every instruction (defaults = false).")
	mute := flag.Bool("mute", false, "Turn off the buzzer (defaults = false).")
	cosmac := flag.Bool("cosmac", false, "Use the COSMAC VIP keypad layout (defaults = false).")
	cyclesPerFrame := flag.Uint("xframes", chip8.DefaultCyclesPerFrame, fmt.Sprintf("The number of cycles that run between each frame (defaults = %d).", chip8.DefaultCyclesPerFrame))

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}

	program, err := rom.Read(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	layout := chip8.DefaultKeyboardLayout
	if *cosmac {
		layout = chip8.CosmacKeyboardLayout
	}

	var buzzer chip8.Buzzer = chip8.NewDummyBuzzer()
	if !*mute {
		beeper := audio.NewBeeper()
		defer beeper.Close()
		buzzer = beeper
	}

	io := sdl.NewIO("chip8", layout)
	console := chip8.NewConsole(io, buzzer, func(config *chip8.ConsoleConfig) {
		config.CyclesPerFrame = *cyclesPerFrame
	})
	io.Console = console
	if *debug {
		console.Trace()
	}

	if err := console.Boot(); err != nil {
		log.Fatalln(err)
	}
	defer io.Destroy()

	if err := console.Load(program); err != nil {
		log.Fatalln(err)
	}
	console.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := io.Loop(ctx); err != nil {
		slog.Error("The console stopped", slog.Any("error", err))
	}
}
