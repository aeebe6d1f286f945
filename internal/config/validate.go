package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.STT.Endpoint) == "" {
		return nil, fmt.Errorf("stt.endpoint must not be empty")
	}
	if strings.TrimSpace(cfg.STT.Language) == "" {
		return nil, fmt.Errorf("stt.language must not be empty")
	}
	if strings.TrimSpace(cfg.Brain.Endpoint) == "" {
		return nil, fmt.Errorf("brain.endpoint must not be empty")
	}
	if cfg.Brain.QuestionCount <= 0 {
		return nil, fmt.Errorf("brain.question_count must be > 0")
	}
	if cfg.Brain.TimeoutMS <= 0 {
		return nil, fmt.Errorf("brain.timeout_ms must be > 0")
	}
	if cfg.Speech.Enable && strings.TrimSpace(cfg.Speech.Endpoint) == "" {
		return nil, fmt.Errorf("speech.endpoint must not be empty when speech.enable=true")
	}
	if cfg.Speech.Enable && strings.TrimSpace(cfg.Speech.Voice) == "" {
		return nil, fmt.Errorf("speech.voice must not be empty when speech.enable=true")
	}
	if cfg.Camera.Enable && strings.TrimSpace(cfg.Camera.Device) == "" {
		return nil, fmt.Errorf("camera.device must not be empty when camera.enable=true")
	}
	if cfg.Interview.PointsAward <= 0 {
		return nil, fmt.Errorf("interview.points_award must be > 0")
	}
	if strings.TrimSpace(cfg.Interview.FallbackPrompt) == "" {
		return nil, fmt.Errorf("interview.fallback_prompt must not be empty")
	}
	if cfg.Report.CopyCmd.Raw != "" && len(cfg.Report.CopyCmd.Argv) == 0 {
		return nil, fmt.Errorf("report.copy_cmd is configured but empty")
	}

	if cfg.STT.APIKey() == "" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf(
			"speech recognition credential %s is unset; transcription degrades to manual typing", cfg.STT.APIKeyEnv)})
	}

	return warnings, nil
}
