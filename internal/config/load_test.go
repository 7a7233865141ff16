package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.ini"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "whisperd", "config.ini"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "whisperd", "config.ini"), resolved)
}

func TestRecordingPathPrecedence(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	path, err := RecordingPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cache, "whisperd", "last_recording.wav"), path)

	t.Setenv("XDG_CACHE_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	path, err = RecordingPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".cache", "whisperd", "last_recording.wav"), path)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.ini")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestDefaultsMatchShippedSettings(t *testing.T) {
	cfg := Default()
	require.Equal(t, "base.en", cfg.Whisper.Model)
	require.Equal(t, "cpu", cfg.Whisper.Device)
	require.Equal(t, "int8", cfg.Whisper.ComputeType)
	require.Equal(t, "<alt>+o", cfg.Hotkey.Key)
	require.True(t, cfg.Behavior.AutoType)
	require.True(t, cfg.Behavior.Notifications)
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, cfg.Behavior.Clipboard.Argv)
	require.Equal(t, []string{"xdotool", "type", "--clearmodifiers"}, cfg.Behavior.Type.Argv)
}

func TestLoadExistingINIOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	contents := `
[whisper]
model = small
device = cuda
compute_type = float16

[hotkey]
key = <ctrl>+<alt>+d

[behavior]
auto_type = false
notifications = true
clipboard_cmd = wl-copy --trim-newline
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Empty(t, loaded.Warnings)
	require.Equal(t, "small", loaded.Config.Whisper.Model)
	require.Equal(t, "cuda", loaded.Config.Whisper.Device)
	require.Equal(t, "float16", loaded.Config.Whisper.ComputeType)
	require.Equal(t, "<ctrl>+<alt>+d", loaded.Config.Hotkey.Key)
	require.False(t, loaded.Config.Behavior.AutoType)
	require.True(t, loaded.Config.Behavior.Notifications)
	require.Equal(t, []string{"wl-copy", "--trim-newline"}, loaded.Config.Behavior.Clipboard.Argv)
	// untouched keys keep defaults
	require.Equal(t, []string{"xdotool", "type", "--clearmodifiers"}, loaded.Config.Behavior.Type.Argv)
}

func TestParseMalformedValuesFallBackWithWarning(t *testing.T) {
	contents := []byte(`
[behavior]
auto_type = definitely
clipboard_cmd = "unterminated
`)

	cfg, warnings, err := Parse(contents, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "not a boolean")
	require.Contains(t, warnings[1].Message, "unterminated quote")
	require.True(t, cfg.Behavior.AutoType)
	require.Equal(t, Default().Behavior.Clipboard, cfg.Behavior.Clipboard)
}

func TestSummaryListsActiveSettings(t *testing.T) {
	summary := Default().Summary()
	require.Equal(t,
		"model=base.en device=cpu compute_type=int8 key=<alt>+o auto_type=true notifications=true",
		summary,
	)
}
