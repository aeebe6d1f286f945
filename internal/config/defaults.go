package config

// FallbackPrompt is the built-in question substituted when remote generation fails.
const FallbackPrompt = "Tell me about a complex technical challenge you've overcome in your career."

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	copyCmd := "wl-copy --trim-newline"

	return Config{
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		STT: STTConfig{
			Endpoint:  "https://api.deepgram.com/v1",
			APIKeyEnv: "DEEPGRAM_API_KEY",
			Model:     "nova-2",
			Language:  "en-US",
		},
		Brain: BrainConfig{
			Endpoint:      "https://api.greenroom.dev/interview/v1",
			APIKeyEnv:     "GREENROOM_BRAIN_KEY",
			Model:         "standard",
			QuestionCount: 4,
			TimeoutMS:     20000,
		},
		Speech: SpeechConfig{
			Enable:   true,
			Endpoint: "https://api.deepgram.com/v1",
			Voice:    "aura-asteria-en",
		},
		Camera: CameraConfig{
			Enable: true,
			Device: "/dev/video0",
		},
		Interview: InterviewConfig{
			PointsAward:    250,
			FallbackPrompt: FallbackPrompt,
		},
		Report: ReportConfig{
			CopyCmd: CommandConfig{Raw: copyCmd, Argv: mustParseArgv(copyCmd)},
		},
		Debug: DebugConfig{},
	}
}
