// Package doctor runs runtime readiness diagnostics for config, tools, audio, and model files.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/whisperd/whisperd/internal/audio"
	"github.com/whisperd/whisperd/internal/config"
	"github.com/whisperd/whisperd/internal/model"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string

	// Required marks checks whose failure prevents the daemon from running.
	Required bool
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// RequiredOK returns true when every required check passes.
func (r Report) RequiredOK() bool {
	for _, check := range r.Checks {
		if check.Required && !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:     "config",
		Pass:     true,
		Message:  fmt.Sprintf("loaded %q", cfg.Path),
		Required: false,
	})

	checks = append(checks, required(checkCommand(cfg.Config.Behavior.Clipboard.Argv, "clipboard_cmd")))
	if cfg.Config.Behavior.AutoType {
		checks = append(checks, required(checkCommand(cfg.Config.Behavior.Type.Argv, "type_cmd")))
	}
	checks = append(checks, required(checkBinary("parecord", "microphone capture")))

	if cfg.Config.Behavior.Notifications {
		// Missing notify-send degrades feedback but never blocks dictation.
		checks = append(checks, checkBinary("notify-send", "desktop notifications"))
	}

	// Missing weights surface through the loader at runtime; the daemon
	// still starts so the operator sees the diagnostic.
	checks = append(checks, checkModelFile(cfg.Config.Whisper))
	checks = append(checks, checkAudioInput())

	return Report{Checks: checks}
}

func required(check Check) Check {
	check.Required = true
	return check
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkModelFile resolves the configured model to a weights file on disk.
func checkModelFile(cfg config.WhisperConfig) Check {
	path, err := model.ResolveModelPath(cfg.Model)
	if err != nil {
		return Check{Name: "whisper.model", Pass: false, Message: err.Error()}
	}
	return Check{Name: "whisper.model", Pass: true, Message: fmt.Sprintf("found at %s", path)}
}

// checkAudioInput lists Pulse sources to surface missing or muted microphones.
func checkAudioInput() Check {
	devices, err := audio.ListDevices(context.Background())
	if err != nil {
		return Check{Name: "audio.input", Pass: false, Message: err.Error()}
	}
	if !audio.HasUsableInput(devices) {
		return Check{Name: "audio.input", Pass: false, Message: "no unmuted input device available"}
	}
	return Check{Name: "audio.input", Pass: true, Message: fmt.Sprintf("%d input device(s) available", len(devices))}
}
