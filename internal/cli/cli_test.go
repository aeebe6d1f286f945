package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, CommandHelp, parsed.Command)
	require.True(t, parsed.ShowHelp)
}

func TestParseStartWithRoleAndMode(t *testing.T) {
	parsed, err := Parse([]string{"start", "--role", "Backend Engineer", "--mode", "behavioral"})
	require.NoError(t, err)
	require.Equal(t, CommandStart, parsed.Command)
	require.Equal(t, "Backend Engineer", parsed.Role)
	require.Equal(t, "behavioral", parsed.Mode)
	require.False(t, parsed.ShowHelp)
}

func TestParseStartRequiresRole(t *testing.T) {
	_, err := Parse([]string{"start"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "--role")
}

func TestParseTypeConsumesRestOfLine(t *testing.T) {
	parsed, err := Parse([]string{"type", "I", "rebuilt", "the", "pipeline"})
	require.NoError(t, err)
	require.Equal(t, CommandType, parsed.Command)
	require.Equal(t, "I rebuilt the pipeline", parsed.Text)
}

func TestParseTypeRequiresText(t *testing.T) {
	_, err := Parse([]string{"type"})
	require.Error(t, err)
}

func TestParseReportCopy(t *testing.T) {
	parsed, err := Parse([]string{"report", "--copy"})
	require.NoError(t, err)
	require.Equal(t, CommandReport, parsed.Command)
	require.True(t, parsed.Copy)
}

func TestParseCopyOutsideReportFails(t *testing.T) {
	_, err := Parse([]string{"status", "--copy"})
	require.Error(t, err)
}

func TestParseConfigFlag(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/gr.json", "status"})
	require.NoError(t, err)
	require.Equal(t, CommandStatus, parsed.Command)
	require.Equal(t, "/tmp/gr.json", parsed.ConfigPath)
}

func TestParseConfigRequiresPath(t *testing.T) {
	_, err := Parse([]string{"--config"})
	require.Error(t, err)
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	_, err := Parse([]string{"--verbose"})
	require.Error(t, err)
}

func TestParseRejectsUnknownCommand(t *testing.T) {
	_, err := Parse([]string{"dance"})
	require.Error(t, err)
}

func TestParseRejectsTrailingArguments(t *testing.T) {
	_, err := Parse([]string{"status", "extra"})
	require.Error(t, err)
}

func TestParseVersionFlag(t *testing.T) {
	parsed, err := Parse([]string{"--version"})
	require.NoError(t, err)
	require.Equal(t, CommandVersion, parsed.Command)
}

func TestHelpTextMentionsEveryCommand(t *testing.T) {
	text := HelpText("greenroom")
	for command := range validCommands {
		require.Contains(t, text, string(command))
	}
}
