package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenroom-dev/greenroom/internal/config"
	"github.com/greenroom-dev/greenroom/internal/ipc"
)

func sampleView() ipc.SessionView {
	return ipc.SessionView{
		Role: "Backend Engineer",
		Mode: "technical",
		Turns: []ipc.TurnView{
			{
				Prompt:   "Tell me about yourself.",
				Answer:   "I build storage systems.",
				Feedback: "Solid depth",
				Score:    8,
			},
			{
				Prompt:   "Describe a hard bug you fixed.",
				Answer:   "A race in the flush path.",
				Feedback: "Good detail",
				Score:    7.5,
			},
		},
	}
}

func TestRenderIncludesEveryTurn(t *testing.T) {
	rendered := Render(sampleView())

	require.Contains(t, rendered, "Interview debrief: Backend Engineer (technical)")
	require.Contains(t, rendered, "Turns completed: 2")
	require.Contains(t, rendered, "Q1: Tell me about yourself.")
	require.Contains(t, rendered, "A:  I build storage systems.")
	require.Contains(t, rendered, "Score: 8/10")
	require.Contains(t, rendered, "Q2: Describe a hard bug you fixed.")
	require.Contains(t, rendered, "Score: 7.5/10")
	require.Contains(t, rendered, "Feedback: Good detail")
}

func TestRenderHandlesEmptySession(t *testing.T) {
	rendered := Render(ipc.SessionView{})
	require.Contains(t, rendered, "Interview debrief: - (-)")
	require.Contains(t, rendered, "Turns completed: 0")
}

func TestExporterCopiesThroughConfiguredCommand(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "clipboard.txt")

	exporter := NewExporter(config.ReportConfig{
		CopyCmd: config.CommandConfig{
			Raw:  scriptPath,
			Argv: []string{scriptPath, outputPath},
		},
	}, nil)

	rendered := Render(sampleView())
	require.NoError(t, exporter.Copy(context.Background(), rendered))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, rendered, string(data))
}

func TestExporterSkipsEmptyReport(t *testing.T) {
	exporter := NewExporter(config.ReportConfig{}, nil)
	require.NoError(t, exporter.Copy(context.Background(), ""))
}

func TestExporterRejectsEmptyArgv(t *testing.T) {
	exporter := NewExporter(config.ReportConfig{}, nil)
	require.Error(t, exporter.Copy(context.Background(), "something"))
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
