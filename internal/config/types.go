// Package config resolves, parses, and defaults whisperd configuration.
package config

import "fmt"

// Config is the fully materialized runtime configuration used by whisperd.
// It is immutable after Load returns.
type Config struct {
	Whisper  WhisperConfig
	Hotkey   HotkeyConfig
	Behavior BehaviorConfig
}

// WhisperConfig selects the speech model and its compute parameters.
type WhisperConfig struct {
	Model       string
	Device      string
	ComputeType string
	Language    string
}

// HotkeyConfig holds the raw modifier+key combination spec, e.g. "<alt>+o".
type HotkeyConfig struct {
	Key string
}

// BehaviorConfig controls transcript delivery and user feedback.
type BehaviorConfig struct {
	AutoType      bool
	Notifications bool
	Clipboard     CommandConfig
	Type          CommandConfig
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}

// Summary renders the active settings line printed at daemon startup.
func (c Config) Summary() string {
	return fmt.Sprintf(
		"model=%s device=%s compute_type=%s key=%s auto_type=%t notifications=%t",
		c.Whisper.Model,
		c.Whisper.Device,
		c.Whisper.ComputeType,
		c.Hotkey.Key,
		c.Behavior.AutoType,
		c.Behavior.Notifications,
	)
}
