package web

import (
	"encoding/binary"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guslan/chip8"
)

const debuggerQueueSize = 256

// StateFrameSize is the length of every frame sent by the debugger
const StateFrameSize = 2 + 2 + chip8.RegisterCount + 2 + 1 + chip8.StackDepth*2 + 1 + 1

type HttpDebugger struct {
	Console *chip8.Console
	// Only every SendEvery cycles are sent
	SendEvery uint

	mu      sync.Mutex
	clients map[chan chip8.State]struct{}
}

// NewHttpDebugger creates a new debugger
// This method will pause the console, register the hooks and run one cycle per frame
func NewHttpDebugger(console *chip8.Console) *HttpDebugger {
	deb := &HttpDebugger{
		Console:   console,
		SendEvery: 1,
		clients:   map[chan chip8.State]struct{}{},
	}

	console.AddAfterCycleHook(deb.afterCycle)
	console.AddErrorHook(deb.afterCycle)
	console.SetCyclesPerFrame(1)
	console.Stop()

	return deb
}

func (d *HttpDebugger) afterCycle(console *chip8.Console) {
	if console.Machine.Cycles()%max(d.SendEvery, 1) != 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.clients) == 0 {
		return
	}

	state := console.Machine.State()
	for ch := range d.clients {
		select {
		case ch <- state:
		default:
			slog.Debug("Debugger queue is full, dropping state")
		}
	}
}

func (d *HttpDebugger) subscribe() chan chip8.State {
	ch := make(chan chip8.State, debuggerQueueSize)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[ch] = struct{}{}

	return ch
}

func (d *HttpDebugger) unsubscribe(ch chan chip8.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.clients, ch)
}

// handle streams State frames to a debugger client
func (d *HttpDebugger) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Error upgrading debugger connection", slog.Any("error", err))
		return
	}
	defer conn.Close()

	// Subscribing under the console lock keeps the first frame and the stream in order
	var state chip8.State
	var send chan chip8.State
	d.Console.Inspect(func(m *chip8.Machine) {
		state = m.State()
		send = d.subscribe()
	})
	defer d.unsubscribe(send)

	if err := writeState(conn, state); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case s := <-send:
			if err := writeState(conn, s); err != nil {
				slog.Warn("Error sending the state", slog.Any("error", err))
				return
			}

		case <-closed:
			return

		case <-r.Context().Done():
			return
		}
	}
}

func writeState(conn *websocket.Conn, s chip8.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	return conn.WriteMessage(websocket.BinaryMessage, EncodeState(s))
}

// EncodeState packs the registers big-endian:
// opcode, pc, V0..VF, I, sp, stack, dt, st.
func EncodeState(s chip8.State) []byte {
	buf := make([]byte, 0, StateFrameSize)

	buf = binary.BigEndian.AppendUint16(buf, uint16(s.OpCode))
	buf = binary.BigEndian.AppendUint16(buf, s.Pc)
	buf = append(buf, s.V[:]...)
	buf = binary.BigEndian.AppendUint16(buf, s.I)
	buf = append(buf, s.Sp)
	for _, addr := range s.Stack {
		buf = binary.BigEndian.AppendUint16(buf, addr)
	}
	buf = append(buf, s.Dt, s.St)

	return buf
}
