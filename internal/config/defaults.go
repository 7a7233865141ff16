package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "xclip -selection clipboard"
	typeCmd := "xdotool type --clearmodifiers"

	return Config{
		Whisper: WhisperConfig{
			Model:       "base.en",
			Device:      "cpu",
			ComputeType: "int8",
			Language:    "en",
		},
		Hotkey: HotkeyConfig{
			Key: "<alt>+o",
		},
		Behavior: BehaviorConfig{
			AutoType:      true,
			Notifications: true,
			Clipboard:     CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
			Type:          CommandConfig{Raw: typeCmd, Argv: mustParseArgv(typeCmd)},
		},
	}
}
