package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesUnderStateDir(t *testing.T) {
	stateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateHome)

	runtime, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })

	require.Equal(t, filepath.Join(stateHome, "greenroom", "log.jsonl"), runtime.Path)
	require.NotNil(t, runtime.Logger)

	runtime.Logger.Info("session start", "role", "Backend Engineer")
	require.NoError(t, runtime.Close())

	content, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(content), `"msg":"session start"`)
	require.Contains(t, string(content), `"role":"Backend Engineer"`)
}

func TestDebugEnvLowersLevel(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv(EnvDebug, "1")

	runtime, err := New()
	require.NoError(t, err)

	runtime.Logger.Debug("engine frame", "bytes", 640)
	require.NoError(t, runtime.Close())

	content, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(content), `"msg":"engine frame"`)
}

func TestStateDirPrefersXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state-home")
	dir, err := StateDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/state-home/greenroom", dir)
}
