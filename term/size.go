package term

import (
	"errors"
	"fmt"

	xterm "golang.org/x/term"

	"github.com/guslan/chip8"
)

var ErrNotATerminal = errors.New("not a terminal")

// Columns and rows needed by chip8.TerminalDisplay: two characters per pixel plus the border
const (
	MinColumns = chip8.ScreenWidth*2 + 1
	MinRows    = chip8.ScreenHeight
)

// CheckSize fails when fd is not a terminal big enough for the display.
func CheckSize(fd int) error {
	if !xterm.IsTerminal(fd) {
		return ErrNotATerminal
	}

	w, h, err := xterm.GetSize(fd)
	if err != nil {
		return err
	}

	return fitsDisplay(w, h)
}

func fitsDisplay(w, h int) error {
	if w < MinColumns || h < MinRows {
		return fmt.Errorf("the terminal is %dx%d, at least %dx%d is needed", w, h, MinColumns, MinRows)
	}

	return nil
}
