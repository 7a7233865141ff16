package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONLToStateDir(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	rt, err := New()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(state, "whisperd", "log.jsonl"), rt.Path)

	rt.Logger.Info("test entry", "key", "value")
	require.NoError(t, rt.Close())

	data, err := os.ReadFile(rt.Path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	require.Equal(t, "test entry", entry["msg"])
	require.Equal(t, "value", entry["key"])
}

func TestResolveLogPathHomeFallback(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := resolveLogPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "whisperd", "log.jsonl"), path)
}
