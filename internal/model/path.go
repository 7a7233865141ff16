package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveModelPath maps a model setting to a ggml weights file on disk.
// A value containing a path separator or a .bin suffix is treated as an
// explicit file path; anything else is a model name looked up under the
// user's data directory as ggml-<name>.bin.
func ResolveModelPath(spec string) (string, error) {
	if spec == "" {
		return "", fmt.Errorf("model name is empty")
	}

	if strings.ContainsRune(spec, os.PathSeparator) || strings.HasSuffix(spec, ".bin") {
		path := expandHome(spec)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("model file %s: %w", path, err)
		}
		return path, nil
	}

	dir, err := modelDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "ggml-"+spec+".bin")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("model %q not found at %s (download a ggml model and place it there): %w", spec, path, err)
	}
	return path, nil
}

// ModelDir returns the directory searched for named models.
func ModelDir() (string, error) {
	return modelDir()
}

func modelDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "whisperd", "models"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "whisperd", "models"), nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
