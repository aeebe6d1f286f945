package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/greenroom-dev/greenroom/internal/audio"
	"github.com/greenroom-dev/greenroom/internal/brain"
	"github.com/greenroom-dev/greenroom/internal/config"
	"github.com/greenroom-dev/greenroom/internal/deepgram"
	"github.com/greenroom-dev/greenroom/internal/fsm"
	"github.com/greenroom-dev/greenroom/internal/interview"
	"github.com/greenroom-dev/greenroom/internal/ipc"
	"github.com/greenroom-dev/greenroom/internal/logging"
	"github.com/greenroom-dev/greenroom/internal/media"
	"github.com/greenroom-dev/greenroom/internal/profile"
	"github.com/greenroom-dev/greenroom/internal/report"
	"github.com/greenroom-dev/greenroom/internal/speech"
	"github.com/greenroom-dev/greenroom/internal/transcribe"
)

// commandStart becomes the session owner: it acquires the control socket,
// wires every collaborator, begins the interview, and serves IPC until the
// session leaves Active or the process is signalled.
func (r Runner) commandStart(ctx context.Context, cfg config.Config, logger *slog.Logger, role, mode string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a greenroom session is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	oracle, err := brain.NewClient(logger, cfg.Brain)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	store, err := profile.Open(logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	transcriber := newTranscriber(cfg, logger)
	capture := media.NewController(logger, cfg.Audio, cfg.Camera)
	speaker := speech.NewSpeaker(logger, cfg.Speech, cfg.STT.APIKeyEnv)
	defer speaker.Stop()

	controller := interview.NewController(
		logger,
		cfg.Interview,
		capture,
		transcriber,
		speaker,
		oracle,
		store.AddPoints,
	)

	if err := controller.Begin(ctx, role, mode); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	view := controller.Snapshot()
	fmt.Fprintf(r.Stdout, "Interview started: %s (%s), %d questions\n", view.Role, view.Mode, view.Total)
	fmt.Fprintf(r.Stdout, "Q1: %s\n", view.Question)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	final := waitForSessionEnd(ctx, controller)
	serverCancel()
	_ = listener.Close()
	if serverErr := <-serverErrCh; serverErr != nil {
		logger.Error("ipc server failed", "error", serverErr.Error())
	}

	if ctx.Err() != nil {
		// Signalled mid-session: release media before exiting.
		_ = controller.Reset(context.Background())
		fmt.Fprintln(r.Stdout, "session aborted")
		return 0
	}

	switch final {
	case fsm.StateDebrief:
		fmt.Fprintln(r.Stdout)
		fmt.Fprint(r.Stdout, report.Render(controller.Snapshot()))
		return 0
	default:
		fmt.Fprintln(r.Stdout, "session reset")
		return 0
	}
}

// waitForSessionEnd blocks until the session leaves Active or ctx is done.
func waitForSessionEnd(ctx context.Context, controller *interview.Controller) fsm.State {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return controller.State()
		case <-ticker.C:
			if state := controller.State(); state != fsm.StateActive {
				return state
			}
		}
	}
}

// newTranscriber wires the transcription controller against the recognition
// engine and microphone, or unavailable-mode when no credential is set.
func newTranscriber(cfg config.Config, logger *slog.Logger) *transcribe.Controller {
	key := cfg.STT.APIKey()
	if key == "" {
		return transcribe.NewController(logger, nil, nil)
	}

	dial := func(ctx context.Context) (transcribe.Engine, error) {
		engineCfg := deepgram.Config{
			Endpoint:   cfg.STT.Endpoint,
			APIKey:     key,
			Model:      cfg.STT.Model,
			Language:   cfg.STT.Language,
			SampleRate: audio.SampleRate,
			Channels:   1,
		}
		if cfg.Debug.EnableSTTDump {
			if sink, err := openDebugSink("stt-responses.jsonl"); err == nil {
				engineCfg.DebugResponseSink = sink
			}
		}
		return deepgram.Dial(ctx, engineCfg)
	}

	start := func(ctx context.Context) (transcribe.AudioSource, error) {
		selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
		if err != nil {
			return nil, err
		}
		if selection.Warning != "" {
			logger.Warn("microphone fallback", "warning", selection.Warning)
		}

		capture, err := audio.StartCapture(ctx, selection.Device, "Interview answer")
		if err != nil {
			return nil, err
		}
		if cfg.Debug.EnableAudioDump {
			if sink, err := openDebugSink("capture.pcm"); err == nil {
				return newDumpingSource(capture, sink), nil
			}
		}
		return capture, nil
	}

	return transcribe.NewController(logger, dial, start)
}

func openDebugSink(name string) (*os.File, error) {
	dir, err := logging.StateDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// dumpingSource tees capture chunks into a debug file.
type dumpingSource struct {
	inner  transcribe.AudioSource
	chunks chan []byte
	sink   *os.File
}

func newDumpingSource(inner transcribe.AudioSource, sink *os.File) *dumpingSource {
	d := &dumpingSource{
		inner:  inner,
		chunks: make(chan []byte, 128),
		sink:   sink,
	}
	go func() {
		defer close(d.chunks)
		defer func() { _ = sink.Close() }()
		for chunk := range inner.Chunks() {
			_, _ = sink.Write(chunk)
			d.chunks <- chunk
		}
	}()
	return d
}

func (d *dumpingSource) Chunks() <-chan []byte { return d.chunks }

func (d *dumpingSource) Stop() error { return d.inner.Stop() }
