package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecorderRequiresCommand(t *testing.T) {
	_, err := NewRecorder(nil, nil)
	require.ErrorContains(t, err, "capture command is empty")
}

func TestRecorderStartMissingBinary(t *testing.T) {
	rec, err := NewRecorder([]string{"definitely-not-a-real-capture-tool"}, nil)
	require.NoError(t, err)

	_, err = rec.Start(context.Background(), filepath.Join(t.TempDir(), "out.wav"))
	require.ErrorContains(t, err, "start capture command")
}

func TestRecorderStartStop(t *testing.T) {
	rec, err := NewRecorder([]string{"sh", "-c", "sleep 30 #"}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "out.wav")
	session, err := rec.Start(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, path, session.Path())

	// Parent directory is created before the process launches.
	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)

	require.NoError(t, session.Stop())
	require.NoError(t, session.Stop())
}

func TestRecorderWritesPathArgument(t *testing.T) {
	script := filepath.Join(t.TempDir(), "capture.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf started > \"$1\"\nsleep 30\n"), 0o755))

	rec, err := NewRecorder([]string{script}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.wav")
	session, err := rec.Start(context.Background(), path)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == "started"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, session.Stop())
}

func TestRecorderContextCancelStops(t *testing.T) {
	rec, err := NewRecorder([]string{"sleep", "30"}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	session, err := rec.Start(ctx, filepath.Join(t.TempDir(), "out.wav"))
	require.NoError(t, err)

	cancel()

	require.Eventually(t, func() bool {
		session.mu.Lock()
		defer session.mu.Unlock()
		return session.stopped
	}, 2*time.Second, 10*time.Millisecond)
}
