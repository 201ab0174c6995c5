package chip8

import (
	"context"
	"log/slog"
)

// Hook runs inside the console loop with the machine lock held.
// Hooks must not call Console methods that take the lock (Load, Reset, LoopOnce, Inspect, Err, Frames, HasProgram).
type Hook func(console *Console)

// AddBeforeFrameHook adds a hook that runs before every frame, even while paused
func (c *Console) AddBeforeFrameHook(h Hook) int {
	c.beforeFrameHooks = append(c.beforeFrameHooks, h)

	return len(c.beforeFrameHooks)
}

// AddBeforeCycleHook adds a hook that runs before every instruction
func (c *Console) AddBeforeCycleHook(h Hook) int {
	c.beforeCycleHooks = append(c.beforeCycleHooks, h)

	return len(c.beforeCycleHooks)
}

// AddAfterCycleHook adds a hook that runs after every successful instruction
func (c *Console) AddAfterCycleHook(h Hook) int {
	c.afterCycleHooks = append(c.afterCycleHooks, h)

	return len(c.afterCycleHooks)
}

// AddAfterFrameHook adds a hook that runs after every executed frame
func (c *Console) AddAfterFrameHook(h Hook) int {
	c.afterFrameHooks = append(c.afterFrameHooks, h)

	return len(c.afterFrameHooks)
}

// AddErrorHook adds a hook that runs when the machine halts or the display fails
func (c *Console) AddErrorHook(h Hook) int {
	c.errorHooks = append(c.errorHooks, h)

	return len(c.errorHooks)
}

// Trace logs every instruction at debug level
func (c *Console) Trace() {
	c.AddBeforeCycleHook(func(console *Console) {
		if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			return
		}

		op := console.Machine.NextOpCode()
		slog.Debug("exec",
			slog.String("pc", formatAddress(console.Machine.Pc)),
			slog.String("opcode", op.String()),
			slog.String("instr", Disassemble(op)),
		)
	})
}

func (c *Console) runHooks(hooks []Hook) {
	for _, h := range hooks {
		h(c)
	}
}
