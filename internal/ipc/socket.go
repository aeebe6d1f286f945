package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

var ErrAlreadyRunning = errors.New("greenroom session already running")

const socketName = "greenroom.sock"

// RuntimeSocketPath resolves the per-user control socket location. The
// runtime dir is preferred; without one the socket lands in a private
// per-user directory under the system temp dir.
func RuntimeSocketPath() (string, error) {
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, socketName), nil
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("greenroom-%d", os.Getuid()), socketName), nil
}

// Acquire claims exclusive ownership of the control socket. A socket file
// with a live owner behind it fails with ErrAlreadyRunning; a stale file
// left by a crashed owner is reclaimed.
func Acquire(
	ctx context.Context,
	path string,
	probeTimeout time.Duration,
	retries int,
) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure socket dir: %w", err)
	}

	for attempt := 0; attempt <= retries; attempt++ {
		listener, err := claim(ctx, path, probeTimeout)
		if err == nil || errors.Is(err, ErrAlreadyRunning) {
			return listener, err
		}
		if !errors.Is(err, errRetryAcquire) {
			return nil, err
		}

		if attempt < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(25*(attempt+1)) * time.Millisecond):
			}
		}
	}

	return nil, fmt.Errorf("acquire socket %s: retries exhausted", path)
}

// errRetryAcquire marks a reclaimed stale socket whose listen slot should be
// attempted again.
var errRetryAcquire = errors.New("retry socket acquisition")

func claim(ctx context.Context, path string, probeTimeout time.Duration) (net.Listener, error) {
	listener, err := net.Listen("unix", path)
	if err == nil {
		_ = os.Chmod(path, 0o600)
		return listener, nil
	}
	if !errors.Is(err, syscall.EADDRINUSE) {
		return nil, fmt.Errorf("listen unix %s: %w", path, err)
	}

	alive, probeErr := Probe(ctx, path, probeTimeout)
	if alive {
		return nil, ErrAlreadyRunning
	}
	if probeErr != nil {
		return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
	}

	// Nobody answered: the file outlived a crashed owner.
	if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, removeErr)
	}
	return nil, errRetryAcquire
}
