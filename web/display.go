package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guslan/chip8"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: chip8.ScreenSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// KeyMessage is sent by the client on every key transition
type KeyMessage struct {
	Key     byte `json:"key"`
	Pressed bool `json:"pressed"`
}

// SoundMessage is sent to the client when the buzzer starts or stops
type SoundMessage struct {
	Sound bool `json:"sound"`
}

// Boot implements chip8.Display.
func (server *Server) Boot() error {
	return nil
}

// Render implements chip8.Display.
// The screen goes to the client as one byte per pixel, row by row.
func (server *Server) Render(screen *chip8.Screen) error {
	server.wsMutex.RLock()
	defer server.wsMutex.RUnlock()

	if server.socket == nil {
		return nil
	}

	if err := writeScreen(server.socket, screen); err != nil {
		// A gone client must not halt the console
		slog.Warn("Error sending the screen", slog.Any("error", err))
	}

	return nil
}

// Play implements chip8.Buzzer.
func (server *Server) Play() {
	server.sendSound(true)
}

// Stop implements chip8.Buzzer.
func (server *Server) Stop() {
	server.sendSound(false)
}

func (server *Server) sendSound(on bool) {
	server.wsMutex.RLock()
	defer server.wsMutex.RUnlock()

	if server.socket == nil {
		return
	}

	_ = server.socket.SetWriteDeadline(time.Now().Add(writeWait))
	if err := server.socket.WriteJSON(SoundMessage{Sound: on}); err != nil {
		slog.Warn("Error sending the sound state", slog.Any("error", err))
	}
}

func writeScreen(conn *websocket.Conn, screen *chip8.Screen) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	return conn.WriteMessage(websocket.BinaryMessage, screen[:])
}

// handleDisplay streams the screen to the client and reads its key events.
// Only the latest client gets the screen.
func (server *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Error upgrading display connection", slog.Any("error", err))
		return
	}
	defer conn.Close()

	// The console lock keeps this write from racing with Render
	server.console.Inspect(func(m *chip8.Machine) {
		server.setWs(conn)
		if err = writeScreen(conn, &m.Screen); err != nil {
			slog.Warn("Error sending the screen", slog.Any("error", err))
		}
	})
	defer server.unsetWs(conn)
	slog.Info("Display connected", slog.String("remote", r.RemoteAddr))

	for {
		var msg KeyMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Display connection closed", slog.Any("error", err))
			}
			slog.Info("Display disconnected", slog.String("remote", r.RemoteAddr))
			return
		}

		if msg.Pressed {
			err = server.console.Press(msg.Key)
		} else {
			err = server.console.Release(msg.Key)
		}
		if err != nil {
			slog.Warn("Invalid key event", slog.Int("key", int(msg.Key)), slog.Any("error", err))
		}
	}
}

func (server *Server) setWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	server.socket = conn
}

func (server *Server) unsetWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket == conn {
		server.socket = nil
	}
}
