// Package session coordinates the dictation lifecycle and its side effects.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/whisperd/whisperd/internal/fsm"
	"github.com/whisperd/whisperd/internal/ipc"
	"github.com/whisperd/whisperd/internal/notify"
)

// ModelGate exposes speech model readiness to the controller.
type ModelGate interface {
	// Await blocks until loading finishes or ctx is cancelled.
	Await(ctx context.Context) error
	// Err reports a permanent load failure, nil while loading or usable.
	Err() error
}

// Recording is one in-flight microphone capture.
type Recording interface {
	Stop() error
	Path() string
}

// Recorder starts microphone captures writing to path.
type Recorder interface {
	Start(ctx context.Context, path string) (Recording, error)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, path string) (Recording, error)

func (f RecorderFunc) Start(ctx context.Context, path string) (Recording, error) {
	return f(ctx, path)
}

// Transcriber turns a finished recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Dispatcher delivers a transcript to the desktop.
type Dispatcher interface {
	Deliver(ctx context.Context, text string) error
}

// Notifier is the session-facing subset of desktop notification behavior.
type Notifier interface {
	Notify(notify.Notification)
}

type noopNotifier struct{}

func (noopNotifier) Notify(notify.Notification) {}

// Controller orchestrates hotkey toggles through the record/transcribe/commit
// lifecycle. Toggles that arrive while a transition is already in flight are
// dropped rather than queued.
type Controller struct {
	logger      *slog.Logger
	gate        ModelGate
	recorder    Recorder
	transcriber Transcriber
	dispatcher  Dispatcher
	notifier    Notifier

	recordingPath string
	hotkeyLabel   string

	// transitioning serializes toggle handling; TryLock implements the
	// drop-while-busy rule.
	transitioning sync.Mutex

	mu      sync.RWMutex
	state   fsm.State
	current Recording
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	gate ModelGate,
	recorder Recorder,
	transcriber Transcriber,
	dispatcher Dispatcher,
	notifier Notifier,
	recordingPath string,
) *Controller {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Controller{
		logger:        logger,
		gate:          gate,
		recorder:      recorder,
		transcriber:   transcriber,
		dispatcher:    dispatcher,
		notifier:      notifier,
		recordingPath: recordingPath,
		state:         fsm.StateIdle,
	}
}

// SetHotkeyLabel records the display form of the toggle key for notification
// text. Optional; without it the recording notification has no body.
func (c *Controller) SetHotkeyLabel(label string) {
	c.hotkeyLabel = label
}

// State returns the current lifecycle state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Toggle starts a recording from idle and commits one from recording. A
// toggle while the previous transition is still running is ignored.
func (c *Controller) Toggle(ctx context.Context) error {
	if !c.transitioning.TryLock() {
		c.logInfo("toggle ignored; transition in flight")
		return nil
	}
	defer c.transitioning.Unlock()

	switch c.State() {
	case fsm.StateIdle:
		return c.startRecording(ctx)
	case fsm.StateRecording:
		return c.stopAndCommit(ctx)
	default:
		// Transcribing is only observable here after a reset race; drop it.
		c.logInfo("toggle ignored", "state", string(c.State()))
		return nil
	}
}

// startRecording spawns the capture process and enters the recording state.
// A model that already failed to load refuses new recordings up front, with
// no notification; the load-failure notification belongs to the stop path.
func (c *Controller) startRecording(ctx context.Context) error {
	if err := c.gate.Err(); err != nil {
		c.logError("recording refused; model unusable", err)
		return err
	}

	recording, err := c.recorder.Start(ctx, c.recordingPath)
	if err != nil {
		c.notifier.Notify(notify.Notification{
			Title:     "Error",
			Body:      notify.Preview(err.Error(), 50),
			Icon:      "dialog-error",
			TimeoutMS: 3000,
		})
		c.logError("start recording failed", err)
		return err
	}

	if err := c.transition(fsm.EventStart); err != nil {
		_ = recording.Stop()
		return err
	}

	c.mu.Lock()
	c.current = recording
	c.mu.Unlock()

	body := ""
	if c.hotkeyLabel != "" {
		body = fmt.Sprintf("Press %s to stop", c.hotkeyLabel)
	}
	c.notifier.Notify(notify.Notification{
		Title:     "Recording...",
		Body:      body,
		Icon:      "audio-input-microphone",
		TimeoutMS: 30000,
	})
	return nil
}

// stopAndCommit finishes the capture, transcribes it, and delivers the text.
// Whatever happens, the controller returns to idle afterwards.
func (c *Controller) stopAndCommit(ctx context.Context) error {
	if err := c.transition(fsm.EventStop); err != nil {
		return err
	}
	// Abort paths reset to idle; the success path leaves via EventFinish.
	defer func() {
		if c.State() != fsm.StateIdle {
			_ = c.transition(fsm.EventReset)
		}
	}()

	c.mu.Lock()
	recording := c.current
	c.current = nil
	c.mu.Unlock()

	if recording == nil {
		return fmt.Errorf("no recording in flight")
	}
	if err := recording.Stop(); err != nil {
		// The WAV file is usually still decodable; keep going.
		c.logError("stop capture reported error", err)
	}

	c.notifier.Notify(notify.Notification{
		Title:     "Transcribing...",
		Body:      "Processing your speech",
		Icon:      "emblem-synchronizing",
		TimeoutMS: 30000,
	})

	if err := c.gate.Await(ctx); err != nil {
		c.notifier.Notify(notify.Notification{
			Title:     "Error",
			Body:      "Model failed to load",
			Icon:      "dialog-error",
			TimeoutMS: 3000,
		})
		c.logError("model unavailable for transcription", err)
		return err
	}

	text, err := c.transcriber.Transcribe(ctx, recording.Path())
	if err != nil {
		c.notifier.Notify(notify.Notification{
			Title:     "Error",
			Body:      notify.Preview(err.Error(), 50),
			Icon:      "dialog-error",
			TimeoutMS: 3000,
		})
		c.logError("transcription failed", err)
		return err
	}

	if strings.TrimSpace(text) == "" {
		c.notifier.Notify(notify.Notification{
			Title:     "No speech detected",
			Body:      "Try speaking louder",
			Icon:      "dialog-warning",
			TimeoutMS: 2000,
		})
		c.logInfo("no speech detected", "path", recording.Path())
		return c.transition(fsm.EventFinish)
	}

	if err := c.dispatcher.Deliver(ctx, text); err != nil {
		c.notifier.Notify(notify.Notification{
			Title:     "Error",
			Body:      notify.Preview(err.Error(), 50),
			Icon:      "dialog-error",
			TimeoutMS: 3000,
		})
		c.logError("transcript delivery failed", err)
		return err
	}

	c.notifier.Notify(notify.Notification{
		Title:     "Copied!",
		Body:      notify.Preview(text, 100),
		Icon:      "emblem-ok-symbolic",
		TimeoutMS: 3000,
	})
	c.logInfo("transcript committed", "chars", len(text))
	return c.transition(fsm.EventFinish)
}

// Handle serves control-channel commands against the running controller.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return ipc.Response{OK: true, State: string(c.State()), Message: "status"}
	case "toggle":
		if err := c.Toggle(ctx); err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(c.State()), Message: "toggled"}
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// Shutdown stops any in-flight capture without committing a transcript.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	recording := c.current
	c.current = nil
	c.state = fsm.StateIdle
	c.mu.Unlock()

	if recording != nil {
		if err := recording.Stop(); err != nil {
			c.logError("shutdown capture stop failed", err)
		}
	}
}

// transition applies one lifecycle event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

func (c *Controller) logInfo(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, args...)
}

func (c *Controller) logError(message string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error(message, "error", err.Error())
}
