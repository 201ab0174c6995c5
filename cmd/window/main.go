package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/rom"
	"github.com/guslan/chip8/window"
)

func main() {
	debug := flag.Bool("debug", false, "Log every instruction (defaults = false).")
	mute := flag.Bool("mute", false, "Turn off the buzzer (defaults = false).")
	cosmac := flag.Bool("cosmac", false, "Use the COSMAC VIP keypad layout (defaults = false).")
	scale := flag.Int("scale", window.DefaultScale, "Size in window pixels of every screen pixel.")
	seed := flag.Uint64("seed", 0, "Seed of the random number generator (defaults to a random seed).")
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

	game := window.NewGame(func(config *window.Config) {
		config.Scale = *scale
		config.Mute = *mute
		config.Trace = *debug
		config.CyclesPerFrame = *cyclesPerFrame
		if *cosmac {
			config.Layout = chip8.CosmacKeyboardLayout
		}
		if *seed != 0 {
			config.Machine = append(config.Machine, chip8.WithSeed(*seed))
		}
	})

	if err := game.Console.Load(program); err != nil {
		log.Fatalln(err)
	}
	game.Console.Start()

	if err := game.Run("chip8 - " + filepath.Base(flag.Arg(0))); err != nil {
		log.Fatalln(err)
	}
}
