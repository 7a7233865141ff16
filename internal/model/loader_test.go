package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/stretchr/testify/require"

	"github.com/whisperd/whisperd/internal/config"
)

type fakeModel struct {
	closed bool
}

func (m *fakeModel) Close() error { m.closed = true; return nil }

func (m *fakeModel) NewContext() (whisper.Context, error) {
	return nil, errors.New("not implemented")
}

func (m *fakeModel) IsMultilingual() bool { return false }
func (m *fakeModel) Languages() []string  { return nil }
func (m *fakeModel) PrintTimings()        {}

func writeModelFile(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("ggml"), 0o644))
	return path
}

func TestLoaderSuccess(t *testing.T) {
	path := writeModelFile(t, t.TempDir(), "ggml-base.en.bin")
	fake := &fakeModel{}

	l := startLoad(config.WhisperConfig{Model: path}, nil, func(p string) (whisper.Model, error) {
		require.Equal(t, path, p)
		return fake, nil
	})

	require.NoError(t, l.Await(context.Background()))
	require.NoError(t, l.Err())

	m, err := l.Model()
	require.NoError(t, err)
	require.Same(t, fake, m)

	l.Close()
	require.True(t, fake.closed)
}

func TestLoaderFailure(t *testing.T) {
	path := writeModelFile(t, t.TempDir(), "ggml-base.en.bin")

	l := startLoad(config.WhisperConfig{Model: path}, nil, func(string) (whisper.Model, error) {
		return nil, errors.New("bad weights")
	})

	err := l.Await(context.Background())
	require.ErrorContains(t, err, "bad weights")
	require.Error(t, l.Err())

	_, err = l.Model()
	require.ErrorContains(t, err, "bad weights")
}

func TestLoaderMissingFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	l := startLoad(config.WhisperConfig{Model: "base.en"}, nil, func(string) (whisper.Model, error) {
		t.Fatal("load should not be called for a missing model file")
		return nil, nil
	})

	err := l.Await(context.Background())
	require.ErrorContains(t, err, "base.en")
}

func TestLoaderErrNilWhileLoading(t *testing.T) {
	path := writeModelFile(t, t.TempDir(), "ggml-base.en.bin")
	release := make(chan struct{})

	l := startLoad(config.WhisperConfig{Model: path}, nil, func(string) (whisper.Model, error) {
		<-release
		return nil, errors.New("slow failure")
	})

	require.NoError(t, l.Err())

	_, err := l.Model()
	require.ErrorIs(t, err, ErrNotLoaded)

	close(release)
	require.Error(t, l.Await(context.Background()))
}

func TestLoaderAwaitCancel(t *testing.T) {
	path := writeModelFile(t, t.TempDir(), "ggml-base.en.bin")
	release := make(chan struct{})
	defer close(release)

	l := startLoad(config.WhisperConfig{Model: path}, nil, func(string) (whisper.Model, error) {
		<-release
		return &fakeModel{}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Await(ctx), context.DeadlineExceeded)
}

func TestResolveModelPathNamed(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	want := writeModelFile(t, filepath.Join(data, "whisperd", "models"), "ggml-small.bin")

	got, err := ResolveModelPath("small")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestResolveModelPathExplicit(t *testing.T) {
	path := writeModelFile(t, t.TempDir(), "custom.bin")

	got, err := ResolveModelPath(path)
	require.NoError(t, err)
	require.Equal(t, path, got)
}

func TestResolveModelPathMissing(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	_, err := ResolveModelPath("tiny")
	require.ErrorContains(t, err, "ggml-tiny.bin")
}
