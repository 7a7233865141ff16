// Package output applies transcript delivery side effects (clipboard and typing).
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/whisperd/whisperd/internal/config"
)

const (
	clipboardTimeout = 2 * time.Second

	// Typing replays the transcript keystroke by keystroke, so its deadline
	// grows with the text. xdotool's default inter-key delay is 12ms; 25ms
	// per character leaves headroom for slow displays.
	typeBaseTimeout = 2 * time.Second
	perKeyTypeCost  = 25 * time.Millisecond
)

// typeDeadline returns the timeout for typing text into the focused window.
func typeDeadline(text string) time.Duration {
	return typeBaseTimeout + time.Duration(len(text))*perKeyTypeCost
}

// Dispatcher delivers finished transcripts to the desktop. The clipboard is
// the contract: a clipboard failure fails the delivery. Typing is best-effort
// on top of it.
type Dispatcher struct {
	config config.Config
	logger *slog.Logger
}

// NewDispatcher constructs a transcript dispatcher from runtime config.
func NewDispatcher(cfg config.Config, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{config: cfg, logger: logger}
}

// Deliver copies text to the clipboard and, when auto_type is on, replays it
// as keystrokes into the focused window. Empty text is a no-op.
func (d *Dispatcher) Deliver(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	clipCtx, clipCancel := context.WithTimeout(ctx, clipboardTimeout)
	defer clipCancel()
	if err := runCommandWithInput(clipCtx, d.config.Behavior.Clipboard.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !d.config.Behavior.AutoType {
		return nil
	}

	argv := append(append([]string(nil), d.config.Behavior.Type.Argv...), text)
	typeCtx, typeCancel := context.WithTimeout(ctx, typeDeadline(text))
	defer typeCancel()
	if err := runCommand(typeCtx, argv); err != nil {
		d.logTypeFailure(err)
	}
	return nil
}

// runCommandWithInput executes argv and writes input to its stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

// runCommand executes argv with no stdin payload.
func runCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}
	if err := exec.CommandContext(ctx, argv[0], argv[1:]...).Run(); err != nil {
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}

// logTypeFailure records typing errors while preserving clipboard success.
func (d *Dispatcher) logTypeFailure(err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Error("auto-type failed; clipboard remains set", "error", err.Error())
}
