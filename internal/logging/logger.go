// Package logging configures runtime JSONL logging under the state dir.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const logFileName = "log.jsonl"

// EnvDebug switches the runtime log to debug level when set to a non-empty
// value, so a misbehaving session can be traced without a config edit.
const EnvDebug = "GREENROOM_DEBUG"

// Runtime bundles the configured logger and its open file handle lifecycle.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

// Close flushes and closes the logger output sink.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// New opens the append-only JSONL log inside the greenroom state directory.
func New() (Runtime, error) {
	dir, err := StateDir()
	if err != nil {
		return Runtime{}, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Runtime{}, err
	}

	path := filepath.Join(dir, logFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, err
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: levelFromEnv()})
	return Runtime{Logger: slog.New(handler), Path: path, closer: f}, nil
}

func levelFromEnv() slog.Level {
	if strings.TrimSpace(os.Getenv(EnvDebug)) != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// StateDir resolves the greenroom state directory from XDG_STATE_HOME,
// falling back to ~/.local/state.
func StateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "greenroom"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "greenroom"), nil
}
