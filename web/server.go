package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/rom"
)

//go:embed static
var staticFiles embed.FS

const (
	DefaultScreenshotScale = 8
	MaxScreenshotScale     = 32
)

type Server struct {
	console  *chip8.Console
	debugger *HttpDebugger
	config   ServerConfig
	roms     fs.FS
	mux      *http.ServeMux

	socket  *websocket.Conn
	wsMutex sync.RWMutex
}

type ServerConfig struct {
	// Directory served by /roms. Empty disables the catalog.
	RomDir string
	// Directory with the web client. Empty serves the embedded one.
	StaticDir   string
	UseDebugger bool
	Console     []chip8.ConsoleConfigCb
}
type ServerConfigCb func(config *ServerConfig)

func NewServer(configs ...ServerConfigCb) *Server {
	config := ServerConfig{
		UseDebugger: false,
	}
	for _, cb := range configs {
		cb(&config)
	}

	s := &Server{
		config:  config,
		wsMutex: sync.RWMutex{},
	}

	consoleConfigs := append([]chip8.ConsoleConfigCb{func(c *chip8.ConsoleConfig) {
		c.ContinueOnError = true
	}}, config.Console...)
	s.console = chip8.NewConsole(s, s, consoleConfigs...)
	if config.RomDir != "" {
		s.roms = os.DirFS(config.RomDir)
	}
	if config.UseDebugger {
		s.debugger = NewHttpDebugger(s.console)
	}

	s.mux = s.routes()

	return s
}

func (server *Server) Console() *chip8.Console {
	return server.console
}

// Handler serves the API and the web client
func (server *Server) Handler() http.Handler {
	return server.mux
}

func (server *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	var static http.FileSystem
	if server.config.StaticDir != "" {
		static = http.Dir(server.config.StaticDir)
	} else {
		sub, _ := fs.Sub(staticFiles, "static")
		static = http.FS(sub)
	}
	mux.Handle("GET /", http.FileServer(static))

	mux.HandleFunc("POST /start", server.control("Starting", func() error {
		if !server.console.HasProgram() {
			return chip8.ErrNoProgramLoaded
		}
		server.console.Start()
		return nil
	}))
	mux.HandleFunc("POST /stop", server.control("Stopping", func() error {
		server.console.Stop()
		return nil
	}))
	mux.HandleFunc("POST /reset", server.control("Stopping and resetting", func() error {
		server.console.Stop()
		server.console.Reset()
		return nil
	}))
	mux.HandleFunc("POST /step", server.control("Single Frame", server.console.LoopOnce))

	mux.HandleFunc("GET /display", server.handleDisplay)
	mux.HandleFunc("GET /state", server.handleState)
	mux.HandleFunc("GET /screenshot.png", server.handleScreenshot)
	mux.HandleFunc("GET /roms", server.handleCatalog)
	mux.HandleFunc("POST /roms/{name}/load", server.handleLoad)

	if server.debugger != nil {
		mux.HandleFunc("GET /debugger", server.debugger.handle)
	}

	return mux
}

func (server *Server) control(msg string, action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type")
		w.Header().Set("Cache-Control", "no-cache")

		slog.Info(msg)
		if err := action(); err != nil {
			slog.Error(msg, slog.Any("error", err))
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func statusFor(err error) int {
	var unknown chip8.ErrOpCodeUnknown
	var unsupported chip8.ErrOpCodeUnsupported

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, chip8.ErrProgramTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, chip8.ErrNoProgramLoaded):
		return http.StatusConflict
	case errors.As(err, &unknown), errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chip8.ErrStackOverflow), errors.Is(err, chip8.ErrStackUnderflow), errors.Is(err, chip8.ErrPcOutOfRange):
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

type stateResponse struct {
	Running     bool                      `json:"running"`
	Halted      bool                      `json:"halted"`
	Error       string                    `json:"error,omitempty"`
	Pc          uint16                    `json:"pc"`
	OpCode      string                    `json:"opcode"`
	Instruction string                    `json:"instruction"`
	V           [chip8.RegisterCount]byte `json:"v"`
	I           uint16                    `json:"i"`
	Sp          byte                      `json:"sp"`
	Stack       []uint16                  `json:"stack"`
	Dt          byte                      `json:"dt"`
	St          byte                      `json:"st"`
	Cycles      uint                      `json:"cycles"`
}

func (server *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	server.console.Inspect(func(m *chip8.Machine) {
		s := m.State()
		resp = stateResponse{
			Halted:      m.IsHalted(),
			Pc:          s.Pc,
			OpCode:      s.OpCode.String(),
			Instruction: chip8.Disassemble(s.OpCode),
			V:           s.V,
			I:           s.I,
			Sp:          s.Sp,
			Stack:       s.Stack[:s.Sp],
			Dt:          s.Dt,
			St:          s.St,
			Cycles:      m.Cycles(),
		}
		if err := m.Err(); err != nil {
			resp.Error = err.Error()
		}
	})
	resp.Running = server.console.IsRunning()

	writeJSON(w, resp)
}

func (server *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	scale := DefaultScreenshotScale
	if v := r.URL.Query().Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxScreenshotScale {
			http.Error(w, fmt.Sprintf("scale must be between 1 and %d", MaxScreenshotScale), http.StatusBadRequest)
			return
		}
		scale = n
	}

	var screen chip8.Screen
	server.console.Inspect(func(m *chip8.Machine) {
		screen = m.Screen
	})

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := screen.WritePNG(w, scale); err != nil {
		slog.Error("Error writing screenshot", slog.Any("error", err))
	}
}

func (server *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if server.roms == nil {
		writeJSON(w, []rom.Entry{})
		return
	}

	entries, err := rom.Catalog(server.roms)
	if err != nil {
		slog.Error("Error listing roms", slog.String("dir", server.config.RomDir), slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, entries)
}

func (server *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if server.roms == nil || !fs.ValidPath(name) || !rom.HasRomExtension(name) {
		http.NotFound(w, r)
		return
	}

	program, err := rom.ReadFS(server.roms, name)
	if err == nil {
		err = server.LoadProgram(program)
	}
	if err != nil {
		slog.Error("Error loading program", slog.String("name", name), slog.Any("error", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	slog.Info("Program loaded", slog.String("name", name))
	if server.debugger == nil {
		server.console.Start()
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", slog.Any("error", err))
	}
}

// LoadProgram loads the program into memory and sets the PC to the start-of-program address
func (server *Server) LoadProgram(program []byte) error {
	return server.console.Load(program)
}

// Run boots the console and runs it until ctx is done.
// Errors of a program stop the console and are logged; the server keeps serving.
func (server *Server) Run(ctx context.Context) error {
	if err := server.console.Boot(); err != nil {
		return err
	}

	return server.console.Loop(ctx)
}

// Listen serves on port until ctx is done
func (server *Server) Listen(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	slog.Info("Listening on port", slog.Int("port", port))

	return server.serve(ctx, ln)
}

func (server *Server) serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- server.Run(ctx)
	}()
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	// Run also returns nil when ctx is done
	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); err == nil {
		err = shutdownErr
	}

	return err
}
