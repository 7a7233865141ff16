package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testSocketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths have a tight length bound; keep the temp path short.
	return filepath.Join(t.TempDir(), "w.sock")
}

func TestSendRoundtrip(t *testing.T) {
	path := testSocketPath(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 1)
	require.NoError(t, err)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			return Response{OK: true, State: "idle", Message: "handled " + req.Command}
		}), nil)
	}()

	resp, err := Send(ctx, path, Request{Command: "status"}, time.Second)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "idle", resp.State)
	require.Equal(t, "handled status", resp.Message)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestServeRejectsMalformedRequestAndKeepsAccepting(t *testing.T) {
	path := testSocketPath(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 1)
	require.NoError(t, err)

	var logged bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logged, nil))

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(context.Context, Request) Response {
			return Response{OK: true, State: "idle"}
		}), logger)
	}()

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	_, err = conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
	require.NoError(t, conn.Close())

	// The bad client must not take the server down.
	good, err := Send(ctx, path, Request{Command: "status"}, time.Second)
	require.NoError(t, err)
	require.True(t, good.OK)

	require.Contains(t, logged.String(), "rejected control request")

	cancel()
	require.NoError(t, <-serveDone)
}

func TestAcquireRefusesLiveOwner(t *testing.T) {
	path := testSocketPath(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 1)
	require.NoError(t, err)
	go func() {
		_ = Serve(ctx, listener, HandlerFunc(func(context.Context, Request) Response {
			return Response{OK: true}
		}), nil)
	}()

	// Give the server one beat to start accepting.
	require.Eventually(t, func() bool {
		alive, probeErr := Probe(ctx, path, 100*time.Millisecond)
		return probeErr == nil && alive
	}, time.Second, 10*time.Millisecond)

	_, err = Acquire(ctx, path, 100*time.Millisecond, 1)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestAcquireReclaimsStaleSocket(t *testing.T) {
	path := testSocketPath(t)

	// Bind and close without unlinking to leave a stale socket file behind.
	addr, err := net.ResolveUnixAddr("unix", path)
	require.NoError(t, err)
	stale, err := net.ListenUnix("unix", addr)
	require.NoError(t, err)
	stale.SetUnlinkOnClose(false)
	require.NoError(t, stale.Close())

	ctx := context.Background()
	listener, err := Acquire(ctx, path, 100*time.Millisecond, 2)
	require.NoError(t, err)
	require.NoError(t, listener.Close())
}

func TestProbeMissingSocket(t *testing.T) {
	alive, err := Probe(context.Background(), filepath.Join(t.TempDir(), "none.sock"), 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}
