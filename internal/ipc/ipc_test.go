package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths have a tight length limit; keep the temp name short.
	return filepath.Join(t.TempDir(), "gr.sock")
}

func TestServeRoundTrip(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 2)
	require.NoError(t, err)

	handler := HandlerFunc(func(_ context.Context, req Request) Response {
		if req.Command == CmdType {
			return Response{OK: true, State: "active", Message: "appended: " + req.Text}
		}
		return Response{OK: true, State: "active", Session: &SessionView{Role: "Backend Engineer", Total: 4}}
	})

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, listener, handler) }()

	resp, err := Send(ctx, path, Request{Command: CmdStatus}, time.Second)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.NotNil(t, resp.Session)
	require.Equal(t, "Backend Engineer", resp.Session.Role)
	require.Equal(t, 4, resp.Session.Total)

	resp, err = Send(ctx, path, Request{Command: CmdType, Text: "I would shard by tenant"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "appended: I would shard by tenant", resp.Message)

	cancel()
	require.NoError(t, <-done)
}

func TestServeRejectsUnknownCommandBeforeHandler(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 2)
	require.NoError(t, err)

	var handlerCalled atomic.Bool
	go func() {
		_ = Serve(ctx, listener, HandlerFunc(func(context.Context, Request) Response {
			handlerCalled.Store(true)
			return Response{OK: true}
		}))
	}()

	resp, err := Send(ctx, path, Request{Command: "dance"}, time.Second)
	require.NoError(t, err)
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown command")
	require.False(t, handlerCalled.Load())
}

func TestServeAnswersMultipleRequestsPerConnection(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 2)
	require.NoError(t, err)

	go func() {
		_ = Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			return Response{OK: true, Message: string(req.Command)}
		}))
	}()

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	reader := bufio.NewReader(conn)
	for _, cmd := range []Command{CmdStatus, CmdShow} {
		require.NoError(t, json.NewEncoder(conn).Encode(Request{Command: cmd}))

		line, err := reader.ReadBytes('\n')
		require.NoError(t, err)

		var resp Response
		require.NoError(t, json.Unmarshal(line, &resp))
		require.True(t, resp.OK)
		require.Equal(t, string(cmd), resp.Message)
	}
}

func TestIsNoOwnerClassification(t *testing.T) {
	require.False(t, IsNoOwner(nil))
	require.True(t, IsNoOwner(os.ErrNotExist))
	require.True(t, IsNoOwner(syscall.ECONNREFUSED))
	require.False(t, IsNoOwner(errors.New("permission denied")))
}

func TestProbeWithoutListener(t *testing.T) {
	alive, err := Probe(context.Background(), filepath.Join(t.TempDir(), "none.sock"), 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}

func TestAcquireDetectsLiveOwner(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 2)
	require.NoError(t, err)
	go func() {
		_ = Serve(ctx, listener, HandlerFunc(func(context.Context, Request) Response {
			return Response{OK: true, State: "setup"}
		}))
	}()

	// Give the server a beat to start accepting.
	require.Eventually(t, func() bool {
		alive, probeErr := Probe(ctx, path, 100*time.Millisecond)
		return probeErr == nil && alive
	}, time.Second, 10*time.Millisecond)

	_, err = Acquire(ctx, path, 100*time.Millisecond, 1)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}
