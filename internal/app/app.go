// Package app wires subcommands to the daemon and its control channel.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/whisperd/whisperd/internal/audio"
	"github.com/whisperd/whisperd/internal/cli"
	"github.com/whisperd/whisperd/internal/config"
	"github.com/whisperd/whisperd/internal/doctor"
	"github.com/whisperd/whisperd/internal/hotkey"
	"github.com/whisperd/whisperd/internal/ipc"
	"github.com/whisperd/whisperd/internal/logging"
	"github.com/whisperd/whisperd/internal/model"
	"github.com/whisperd/whisperd/internal/notify"
	"github.com/whisperd/whisperd/internal/output"
	"github.com/whisperd/whisperd/internal/pipeline"
	"github.com/whisperd/whisperd/internal/session"
	"github.com/whisperd/whisperd/internal/version"
)

const (
	statusTimeout = 220 * time.Millisecond

	// A toggle that stops a recording blocks until transcription finishes.
	toggleTimeout = 60 * time.Second
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("whisperd"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("whisperd"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandToggle:
		return r.forwardOrFail(ctx, "toggle")
	case cli.CommandRun:
		return r.runDaemon(ctx, cfgLoaded, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status", statusTimeout)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "not running")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command, toggleTimeout)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: whisperd is not running")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// runDaemon owns the daemon lifecycle: single-instance socket, background
// model load, global hotkey, and the control channel.
func (r Runner) runDaemon(ctx context.Context, cfgLoaded config.Loaded, logger *slog.Logger) int {
	cfg := cfgLoaded.Config

	report := doctor.Run(cfgLoaded)
	if !report.RequiredOK() {
		fmt.Fprintln(r.Stderr, report.String())
		fmt.Fprintln(r.Stderr, "error: required dependencies are missing; run `whisperd doctor` after fixing them")
		return 1
	}

	combo, err := hotkey.Parse(cfg.Hotkey.Key)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: invalid hotkey %q: %v\n", cfg.Hotkey.Key, err)
		return 1
	}

	recordingPath, err := config.RecordingPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	socket, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: whisperd is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = socket.Close()
		_ = os.Remove(socketPath)
	}()

	fmt.Fprintln(r.Stdout, version.String())
	fmt.Fprintf(r.Stdout, "Config: %s\n", cfgLoaded.Path)
	fmt.Fprintf(r.Stdout, "Settings: %s\n", cfg.Summary())
	fmt.Fprintf(r.Stdout, "Loading model %q...\n", cfg.Whisper.Model)

	loader := model.StartLoad(cfg.Whisper, logger)
	defer loader.Close()

	go func() {
		if err := loader.Await(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				fmt.Fprintf(r.Stderr, "error: model load failed: %v\n", err)
			}
			return
		}
		fmt.Fprintln(r.Stdout, "Model loaded. Ready for dictation!")
		fmt.Fprintf(r.Stdout, "Press [%s] to start/stop recording.\n", combo.String())
		fmt.Fprintln(r.Stdout, "Press Ctrl+C to quit.")
	}()

	notifier := notify.New(cfg.Behavior.Notifications, logger)
	defer notifier.Close()

	recorder, err := audio.NewRecorder(audio.DefaultCaptureArgv, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	startRecording := session.RecorderFunc(func(ctx context.Context, path string) (session.Recording, error) {
		rec, err := recorder.Start(ctx, path)
		if err != nil {
			return nil, err
		}
		return rec, nil
	})

	transcriber := pipeline.NewTranscriber(cfg.Whisper, loader, logger)
	dispatcher := output.NewDispatcher(cfg, logger)
	controller := session.NewController(logger, loader, startRecording, transcriber, dispatcher, notifier, recordingPath)
	controller.SetHotkeyLabel(combo.String())
	defer controller.Shutdown()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, socket, controller, logger)
	}()

	listener := hotkey.NewListener(combo, func() {
		_ = controller.Toggle(ctx)
	}, logger)

	hotkeyErrCh := make(chan error, 1)
	go func() {
		hotkeyErrCh <- listener.Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-hotkeyErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(r.Stderr, "error: hotkey listener failed: %v\n", err)
			return 1
		}
	}

	logger.Info("daemon shutting down")
	return 0
}

func tryForward(ctx context.Context, socketPath string, command string, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsSocketMissing(err) || ipc.IsConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}
