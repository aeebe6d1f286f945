// Package doctor runs runtime readiness diagnostics for config, devices,
// and service credentials.
package doctor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/greenroom-dev/greenroom/internal/audio"
	"github.com/greenroom-dev/greenroom/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
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
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkBrain(cfg.Config.Brain))
	checks = append(checks, checkSTTKey(cfg.Config.STT))
	checks = append(checks, checkAudioSelection(cfg.Config))

	if cfg.Config.Camera.Enable {
		checks = append(checks, checkCameraNode(cfg.Config.Camera.Device))
	}

	checks = append(checks, checkCommand(cfg.Config.Report.CopyCmd.Argv, "report.copy_cmd"))

	return Report{Checks: checks}
}

// checkBrain validates the interview service endpoint and credential.
func checkBrain(cfg config.BrainConfig) Check {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return Check{Name: "brain.endpoint", Pass: false, Message: "brain.endpoint is empty"}
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Check{Name: "brain.endpoint", Pass: false, Message: fmt.Sprintf("invalid endpoint %q", endpoint)}
	}
	if cfg.APIKey() == "" {
		return Check{Name: "brain.endpoint", Pass: false, Message: fmt.Sprintf("credential %s is unset", cfg.APIKeyEnv)}
	}
	return Check{Name: "brain.endpoint", Pass: true, Message: fmt.Sprintf("configured %q with credential", endpoint)}
}

// checkSTTKey reports recognition availability. A missing key is not a
// failure: the session degrades to manual typing.
func checkSTTKey(cfg config.STTConfig) Check {
	if cfg.APIKey() == "" {
		return Check{
			Name:    "stt.credential",
			Pass:    true,
			Message: fmt.Sprintf("%s is unset; speech recognition disabled, typing still works", cfg.APIKeyEnv),
		}
	}
	return Check{Name: "stt.credential", Pass: true, Message: "speech recognition credential present"}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkCameraNode validates the configured camera device node exists.
func checkCameraNode(device string) Check {
	device = strings.TrimSpace(device)
	if device == "" {
		return Check{Name: "camera.device", Pass: false, Message: "camera.device is empty"}
	}
	if _, err := os.Stat(device); err != nil {
		return Check{Name: "camera.device", Pass: false, Message: err.Error()}
	}
	return Check{Name: "camera.device", Pass: true, Message: fmt.Sprintf("found %s", device)}
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
