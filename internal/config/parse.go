package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Parse reads INI configuration content over a base config. Recognized sections
// are [whisper], [hotkey], and [behavior]; unknown keys are ignored and
// malformed values fall back to the base value with a non-fatal warning.
func Parse(content []byte, base Config) (Config, []Warning, error) {
	file, err := ini.Load(content)
	if err != nil {
		return Config{}, nil, fmt.Errorf("read ini: %w", err)
	}

	cfg := base
	var warnings []Warning

	whisper := file.Section("whisper")
	readString(whisper, "model", &cfg.Whisper.Model)
	readString(whisper, "device", &cfg.Whisper.Device)
	readString(whisper, "compute_type", &cfg.Whisper.ComputeType)
	readString(whisper, "language", &cfg.Whisper.Language)

	readString(file.Section("hotkey"), "key", &cfg.Hotkey.Key)

	behavior := file.Section("behavior")
	warnings = readBool(behavior, "auto_type", &cfg.Behavior.AutoType, warnings)
	warnings = readBool(behavior, "notifications", &cfg.Behavior.Notifications, warnings)
	warnings = readCommand(behavior, "clipboard_cmd", &cfg.Behavior.Clipboard, warnings)
	warnings = readCommand(behavior, "type_cmd", &cfg.Behavior.Type, warnings)

	return cfg, warnings, nil
}

// readString overwrites dst when the key is present and non-empty.
func readString(section *ini.Section, key string, dst *string) {
	if !section.HasKey(key) {
		return
	}
	if value := section.Key(key).String(); value != "" {
		*dst = value
	}
}

// readBool overwrites dst for a well-formed boolean and warns otherwise.
func readBool(section *ini.Section, key string, dst *bool, warnings []Warning) []Warning {
	if !section.HasKey(key) {
		return warnings
	}
	value, err := section.Key(key).Bool()
	if err != nil {
		return append(warnings, Warning{
			Message: fmt.Sprintf("%s.%s: %q is not a boolean; keeping %t", section.Name(), key, section.Key(key).String(), *dst),
		})
	}
	*dst = value
	return warnings
}

// readCommand parses a command override into argv form and warns on bad quoting.
func readCommand(section *ini.Section, key string, dst *CommandConfig, warnings []Warning) []Warning {
	if !section.HasKey(key) {
		return warnings
	}
	raw := section.Key(key).String()
	argv, err := parseArgv(raw)
	if err != nil {
		return append(warnings, Warning{
			Message: fmt.Sprintf("%s.%s: %v; keeping %q", section.Name(), key, err, dst.Raw),
		})
	}
	if len(argv) == 0 {
		return append(warnings, Warning{
			Message: fmt.Sprintf("%s.%s: command is empty; keeping %q", section.Name(), key, dst.Raw),
		})
	}
	*dst = CommandConfig{Raw: raw, Argv: argv}
	return warnings
}
