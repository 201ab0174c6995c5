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
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/rom"
	"github.com/guslan/chip8/web"
)

func main() {
	port := flag.Int("port", 9999, "The port of the server (default = 9999)")
	romDir := flag.String("roms", "", "Directory with the ROMs offered by the server")
	staticDir := flag.String("static", "", "Directory with the web client (defaults to the embedded one)")
	debugger := flag.Bool("debugger", false, "Pause on load and stream the registers on /debugger (default = false)")
	debug := flag.Bool("debug", false, "Log every instruction (default = false)")
	cyclesPerFrame := flag.Uint("xframes", chip8.DefaultCyclesPerFrame, fmt.Sprintf("The number of cycles that run between each frame (defaults = %d).", chip8.DefaultCyclesPerFrame))
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	server := web.NewServer(func(config *web.ServerConfig) {
		config.RomDir = *romDir
		config.StaticDir = *staticDir
		config.UseDebugger = *debugger
		config.Console = append(config.Console, func(c *chip8.ConsoleConfig) {
			c.CyclesPerFrame = *cyclesPerFrame
		})
	})
	if *debug {
		server.Console().Trace()
	}

	if flag.NArg() > 0 {
		program, err := rom.Read(flag.Arg(0))
		if err != nil {
			log.Fatalln(err)
		}
		if err := server.LoadProgram(program); err != nil {
			log.Fatalln(err)
		}
		if !*debugger {
			server.Console().Start()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Listen(ctx, *port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalln(err)
	}
}
