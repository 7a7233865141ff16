package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// stopTimeout bounds how long Stop waits for the capture process to flush
// and exit after SIGTERM before it is killed.
const stopTimeout = 2 * time.Second

// DefaultCaptureArgv records 16kHz mono WAV with low latency, matching what
// the speech model expects. The output path is appended at start time.
var DefaultCaptureArgv = []string{
	"parecord",
	"--latency-msec=10",
	"--channels=1",
	"--rate=16000",
	"--file-format=wav",
}

// Recorder spawns capture subprocesses that stream the microphone to a WAV
// file. The capture command is configurable; the recording path is appended
// as the final argument.
type Recorder struct {
	argv   []string
	logger *slog.Logger
}

// NewRecorder builds a recorder around the given capture argv.
func NewRecorder(argv []string, logger *slog.Logger) (*Recorder, error) {
	if len(argv) == 0 {
		return nil, errors.New("capture command is empty")
	}
	return &Recorder{argv: append([]string(nil), argv...), logger: logger}, nil
}

// Start launches a capture process writing to path. The parent directory is
// created if missing. The returned session keeps recording until Stop is
// called or ctx is cancelled.
func (r *Recorder) Start(ctx context.Context, path string) (*Session, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create recording directory: %w", err)
	}

	argv := append(append([]string(nil), r.argv...), path)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start capture command %q: %w", argv[0], err)
	}

	if r.logger != nil {
		r.logger.Info("recording started", "command", argv[0], "pid", cmd.Process.Pid, "path", path)
	}

	session := &Session{
		cmd:    cmd,
		path:   path,
		logger: r.logger,
	}

	go func() {
		<-ctx.Done()
		_ = session.Stop()
	}()

	return session, nil
}

// Session is one in-flight capture subprocess.
type Session struct {
	cmd    *exec.Cmd
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// Path returns the WAV file this session writes to.
func (s *Session) Path() string {
	return s.path
}

// Stop terminates the capture process and waits for it to flush the WAV
// header. SIGTERM first so the file stays well-formed; SIGKILL only if the
// process ignores it. Stop is idempotent.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal capture process: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-time.After(stopTimeout):
		_ = s.cmd.Process.Kill()
		waitErr = <-done
	}

	if s.logger != nil {
		s.logger.Info("recording stopped", "path", s.path)
	}

	// Capture tools routinely report the terminating signal as a non-zero
	// exit; that is the normal shutdown path, not a failure.
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return nil
		}
	}
	if waitErr != nil {
		return fmt.Errorf("capture process exited: %w", waitErr)
	}
	return nil
}
