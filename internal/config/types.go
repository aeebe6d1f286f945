// Package config resolves, parses, validates, and defaults greenroom configuration.
package config

import (
	"os"
	"strings"
)

// Config is the fully materialized runtime configuration used by greenroom.
type Config struct {
	Audio     AudioConfig
	STT       STTConfig
	Brain     BrainConfig
	Speech    SpeechConfig
	Camera    CameraConfig
	Interview InterviewConfig
	Report    ReportConfig
	Debug     DebugConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// STTConfig controls the streaming speech-recognition engine connection.
type STTConfig struct {
	Endpoint  string
	APIKeyEnv string
	Model     string
	Language  string
}

// APIKey resolves the engine credential from the configured environment variable.
func (c STTConfig) APIKey() string {
	if strings.TrimSpace(c.APIKeyEnv) == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}

// BrainConfig controls the interview AI service connection.
type BrainConfig struct {
	Endpoint      string
	APIKeyEnv     string
	Model         string
	QuestionCount int
	TimeoutMS     int
}

// APIKey resolves the AI service credential from the configured environment variable.
func (c BrainConfig) APIKey() string {
	if strings.TrimSpace(c.APIKeyEnv) == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}

// SpeechConfig controls spoken question playback.
type SpeechConfig struct {
	Enable    bool
	Endpoint  string
	APIKeyEnv string
	Voice     string
}

// APIKey resolves the synthesis credential, sharing the STT variable when unset.
func (c SpeechConfig) APIKey(fallbackEnv string) string {
	env := strings.TrimSpace(c.APIKeyEnv)
	if env == "" {
		env = strings.TrimSpace(fallbackEnv)
	}
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}

// CameraConfig controls the live preview video track.
type CameraConfig struct {
	Enable bool
	Device string
}

// InterviewConfig controls session-level tunables.
type InterviewConfig struct {
	PointsAward    int
	FallbackPrompt string
}

// ReportConfig controls debrief export behavior.
type ReportConfig struct {
	CopyCmd CommandConfig
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	EnableSTTDump   bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
