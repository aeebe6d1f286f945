package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// fileConfig is the on-disk JSON schema. Every field is optional; absent
// fields keep their defaulted values.
type fileConfig struct {
	Audio     *fileAudio     `json:"audio"`
	STT       *fileSTT       `json:"stt"`
	Brain     *fileBrain     `json:"brain"`
	Speech    *fileSpeech    `json:"speech"`
	Camera    *fileCamera    `json:"camera"`
	Interview *fileInterview `json:"interview"`
	Report    *fileReport    `json:"report"`
	Debug     *fileDebug     `json:"debug"`
}

type fileAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type fileSTT struct {
	Endpoint  *string `json:"endpoint"`
	APIKeyEnv *string `json:"api_key_env"`
	Model     *string `json:"model"`
	Language  *string `json:"language"`
}

type fileBrain struct {
	Endpoint      *string `json:"endpoint"`
	APIKeyEnv     *string `json:"api_key_env"`
	Model         *string `json:"model"`
	QuestionCount *int    `json:"question_count"`
	TimeoutMS     *int    `json:"timeout_ms"`
}

type fileSpeech struct {
	Enable    *bool   `json:"enable"`
	Endpoint  *string `json:"endpoint"`
	APIKeyEnv *string `json:"api_key_env"`
	Voice     *string `json:"voice"`
}

type fileCamera struct {
	Enable *bool   `json:"enable"`
	Device *string `json:"device"`
}

type fileInterview struct {
	PointsAward    *int    `json:"points_award"`
	FallbackPrompt *string `json:"fallback_prompt"`
}

type fileReport struct {
	CopyCmd *string `json:"copy_cmd"`
}

type fileDebug struct {
	AudioDump *bool `json:"audio_dump"`
	STTDump   *bool `json:"stt_dump"`
}

// Parse overlays JSON configuration content onto base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.DisallowUnknownFields()

	var payload fileConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, fmt.Errorf("decode config: %w", err)
	}
	if err := ensureSingleValue(decoder); err != nil {
		return Config{}, nil, err
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func ensureSingleValue(decoder *json.Decoder) error {
	if _, err := decoder.Token(); err != io.EOF {
		return fmt.Errorf("config contains trailing content after the top-level object")
	}
	return nil
}

func (payload fileConfig) applyTo(cfg *Config) error {
	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.STT != nil {
		if payload.STT.Endpoint != nil {
			cfg.STT.Endpoint = strings.TrimSpace(*payload.STT.Endpoint)
		}
		if payload.STT.APIKeyEnv != nil {
			cfg.STT.APIKeyEnv = strings.TrimSpace(*payload.STT.APIKeyEnv)
		}
		if payload.STT.Model != nil {
			cfg.STT.Model = strings.TrimSpace(*payload.STT.Model)
		}
		if payload.STT.Language != nil {
			cfg.STT.Language = strings.TrimSpace(*payload.STT.Language)
		}
	}

	if payload.Brain != nil {
		if payload.Brain.Endpoint != nil {
			cfg.Brain.Endpoint = strings.TrimSpace(*payload.Brain.Endpoint)
		}
		if payload.Brain.APIKeyEnv != nil {
			cfg.Brain.APIKeyEnv = strings.TrimSpace(*payload.Brain.APIKeyEnv)
		}
		if payload.Brain.Model != nil {
			cfg.Brain.Model = strings.TrimSpace(*payload.Brain.Model)
		}
		if payload.Brain.QuestionCount != nil {
			cfg.Brain.QuestionCount = *payload.Brain.QuestionCount
		}
		if payload.Brain.TimeoutMS != nil {
			cfg.Brain.TimeoutMS = *payload.Brain.TimeoutMS
		}
	}

	if payload.Speech != nil {
		if payload.Speech.Enable != nil {
			cfg.Speech.Enable = *payload.Speech.Enable
		}
		if payload.Speech.Endpoint != nil {
			cfg.Speech.Endpoint = strings.TrimSpace(*payload.Speech.Endpoint)
		}
		if payload.Speech.APIKeyEnv != nil {
			cfg.Speech.APIKeyEnv = strings.TrimSpace(*payload.Speech.APIKeyEnv)
		}
		if payload.Speech.Voice != nil {
			cfg.Speech.Voice = strings.TrimSpace(*payload.Speech.Voice)
		}
	}

	if payload.Camera != nil {
		if payload.Camera.Enable != nil {
			cfg.Camera.Enable = *payload.Camera.Enable
		}
		if payload.Camera.Device != nil {
			cfg.Camera.Device = strings.TrimSpace(*payload.Camera.Device)
		}
	}

	if payload.Interview != nil {
		if payload.Interview.PointsAward != nil {
			cfg.Interview.PointsAward = *payload.Interview.PointsAward
		}
		if payload.Interview.FallbackPrompt != nil {
			cfg.Interview.FallbackPrompt = strings.TrimSpace(*payload.Interview.FallbackPrompt)
		}
	}

	if payload.Report != nil && payload.Report.CopyCmd != nil {
		raw := *payload.Report.CopyCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid report.copy_cmd: %w", err)
		}
		cfg.Report.CopyCmd = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.Debug != nil {
		if payload.Debug.AudioDump != nil {
			cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
		}
		if payload.Debug.STTDump != nil {
			cfg.Debug.EnableSTTDump = *payload.Debug.STTDump
		}
	}

	return nil
}
