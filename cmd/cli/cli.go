/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/audio"
	"github.com/guslan/chip8/rom"
	"github.com/guslan/chip8/term"
)

func main() {
	debug := flag.Bool("debug", false, "Log every instruction to stderr (defaults = false).")
	noTerm := flag.Bool("noterm", false, "Turn off the terminal display of the emulator (defaults = false).")
	mute := flag.Bool("mute", false, "Turn off the buzzer (defaults = false).")
	cosmac := flag.Bool("cosmac", false, "Use the COSMAC VIP keypad layout (defaults = false).")
	tty := flag.String("tty", "/dev/tty", "The terminal to read the keyboard from.")
	cyclesPerFrame := flag.Uint("xframes", chip8.DefaultCyclesPerFrame, fmt.Sprintf("The number of cycles that run between each frame (defaults = %d).", chip8.DefaultCyclesPerFrame))

	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "must provide the path to a rom as an argument")
		os.Exit(2)
	}

	layout := chip8.DefaultKeyboardLayout
	if *cosmac {
		layout = chip8.CosmacKeyboardLayout
	}

	err := run(flag.Arg(0), *noTerm, *mute, *debug, *tty, layout, *cyclesPerFrame)
	if err != nil {
		slog.Error("The console stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(path string, noTerm, mute, debug bool, tty string, layout chip8.KeyboardLayout, cyclesPerFrame uint) error {
	program, err := rom.Read(path)
	if err != nil {
		return err
	}

	var display chip8.Display
	if noTerm {
		display = chip8.NewInMemoryDisplay()
	} else {
		if err := term.CheckSize(int(os.Stdout.Fd())); err != nil {
			return err
		}
		display = chip8.NewTerminalDisplay()
	}

	var buzzer chip8.Buzzer = chip8.NewDummyBuzzer()
	if !mute {
		beeper := audio.NewBeeper()
		defer beeper.Close()
		buzzer = beeper
	}

	console := chip8.NewConsole(display, buzzer, func(config *chip8.ConsoleConfig) {
		config.CyclesPerFrame = cyclesPerFrame
	})
	if debug {
		console.Trace()
	}

	if err := console.Boot(); err != nil {
		return err
	}
	if err := console.Load(program); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kb := term.NewKeyboard(console, layout)
	kb.OnQuit = stop
	if err := kb.Open(tty); err != nil {
		return fmt.Errorf("opening %s: %w", tty, err)
	}
	defer kb.Close()

	console.Start()
	if err := console.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
