package hotkey

import (
	"context"
	"log/slog"

	hook "github.com/robotn/gohook"
)

// Listener delivers one toggle callback per hotkey combination press.
type Listener struct {
	combo    Combo
	onToggle func()
	logger   *slog.Logger
}

// NewListener wires a parsed combination to a toggle callback.
func NewListener(combo Combo, onToggle func(), logger *slog.Logger) *Listener {
	return &Listener{combo: combo, onToggle: onToggle, logger: logger}
}

// Run installs the global hook and blocks until context cancellation. Each
// combination press invokes the callback on its own goroutine so a slow
// toggle (transcription) never stalls event delivery.
func (l *Listener) Run(ctx context.Context) error {
	hook.Register(hook.KeyDown, l.combo.HookKeys(), func(hook.Event) {
		if l.logger != nil {
			l.logger.Debug("hotkey pressed", "combo", l.combo.String())
		}
		go l.onToggle()
	})

	events := hook.Start()
	defer hook.End()
	done := hook.Process(events)

	select {
	case <-ctx.Done():
		hook.End()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}
