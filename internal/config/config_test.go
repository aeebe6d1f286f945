package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestParseEmptyContentKeepsDefaults(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	cfg, warnings, err := Parse("", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseOverlaysOntoDefaults(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	content := `{
		"audio": {"input": "usb-mic"},
		"stt": {"model": "nova-3"},
		"brain": {"endpoint": "http://127.0.0.1:8900", "question_count": 6, "timeout_ms": 5000},
		"speech": {"enable": false},
		"camera": {"enable": false},
		"interview": {"points_award": 100},
		"report": {"copy_cmd": "xclip -selection clipboard"}
	}`

	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, "usb-mic", cfg.Audio.Input)
	require.Equal(t, "default", cfg.Audio.Fallback)
	require.Equal(t, "nova-3", cfg.STT.Model)
	require.Equal(t, "http://127.0.0.1:8900", cfg.Brain.Endpoint)
	require.Equal(t, 6, cfg.Brain.QuestionCount)
	require.Equal(t, 5000, cfg.Brain.TimeoutMS)
	require.False(t, cfg.Speech.Enable)
	require.False(t, cfg.Camera.Enable)
	require.Equal(t, 100, cfg.Interview.PointsAward)
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, cfg.Report.CopyCmd.Argv)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, _, err := Parse(`{"interviewer": {}}`, Default())
	require.Error(t, err)
}

func TestParseRejectsTrailingContent(t *testing.T) {
	_, _, err := Parse(`{} {}`, Default())
	require.ErrorContains(t, err, "trailing content")
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty stt endpoint", func(c *Config) { c.STT.Endpoint = " " }},
		{"empty brain endpoint", func(c *Config) { c.Brain.Endpoint = "" }},
		{"zero question count", func(c *Config) { c.Brain.QuestionCount = 0 }},
		{"zero brain timeout", func(c *Config) { c.Brain.TimeoutMS = 0 }},
		{"speech enabled without voice", func(c *Config) { c.Speech.Voice = "" }},
		{"camera enabled without device", func(c *Config) { c.Camera.Device = "" }},
		{"non-positive points award", func(c *Config) { c.Interview.PointsAward = 0 }},
		{"empty fallback prompt", func(c *Config) { c.Interview.FallbackPrompt = "" }},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		_, err := Validate(cfg)
		require.Error(t, err, tc.name)
	}
}

func TestValidateWarnsWhenSTTKeyUnset(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "manual typing")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	loaded, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadReadsFile(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"brain": {"question_count": 2}}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, 2, loaded.Config.Brain.QuestionCount)
}

func TestResolvePathPrefersExplicitThenXDG(t *testing.T) {
	path, err := ResolvePath("/tmp/custom.json")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.json", path)

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/xdg/greenroom/config.json", path)

	// The environment override loses to the flag but beats XDG discovery.
	t.Setenv(EnvConfigPath, "/tmp/env.json")
	path, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/env.json", path)

	path, err = ResolvePath("/tmp/custom.json")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.json", path)
}

func TestParseArgvQuoting(t *testing.T) {
	argv, err := parseArgv(`sh -c 'echo "hi there"'`)
	require.NoError(t, err)
	require.Equal(t, []string{"sh", "-c", `echo "hi there"`}, argv)

	_, err = parseArgv(`broken "quote`)
	require.Error(t, err)

	argv, err = parseArgv("   ")
	require.NoError(t, err)
	require.Nil(t, argv)

	argv, err = parseArgv(`wrap '' tight`)
	require.NoError(t, err)
	require.Equal(t, []string{"wrap", "", "tight"}, argv)
}
